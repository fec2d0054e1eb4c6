package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account 定义了账户模型，连同打卡聚合计数一起存储。
// CurrentStreak/LongestStreak/TotalActivities 只由打卡流程与修复操作改写。
type Account struct {
	ID              string `gorm:"type:varchar(36);primaryKey"`
	Username        string `gorm:"type:varchar(64);uniqueIndex;not null"`
	Email           string `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash    string `gorm:"not null"`
	Name            string `gorm:"not null"`
	Bio             string
	Avatar          string
	College         string
	JoinedAt        time.Time
	LastActivityAt  *time.Time
	CurrentStreak   int `gorm:"not null"`
	LongestStreak   int `gorm:"not null"`
	TotalActivities int `gorm:"not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Activities []ActivityRecord `gorm:"constraint:OnDelete:CASCADE"`
	Skills     []AccountSkill   `gorm:"constraint:OnDelete:CASCADE"`
	Insights   []Insight        `gorm:"constraint:OnDelete:CASCADE"`
}

// BeforeCreate 为新账户生成不透明的 ID
func (a *Account) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
