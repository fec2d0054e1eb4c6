package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Insight 分类取值
const (
	InsightTip         = "tip"
	InsightAchievement = "achievement"
	InsightMilestone   = "milestone"
)

// Insight 是持久化的提示/成就通知
type Insight struct {
	ID          string `gorm:"type:varchar(36);primaryKey"`
	AccountID   string `gorm:"type:varchar(36);not null;index:idx_insight_account_created"`
	Title       string `gorm:"not null"`
	Description string
	Category    string `gorm:"type:varchar(20);not null"`
	Icon        string
	Read        bool      `gorm:"not null"`
	CreatedAt   time.Time `gorm:"index:idx_insight_account_created"`
}

// BeforeCreate 生成 ID
func (i *Insight) BeforeCreate(*gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
