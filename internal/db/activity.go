package db

import "time"

// ActivityRecord 记录账户某个自然日的学习次数。
// AccountID + Date 采用唯一索引，同一天的多次记录合并到一行；Date 统一存为 UTC 零点。
type ActivityRecord struct {
	ID        uint      `gorm:"primaryKey"`
	AccountID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_activity_account_date"`
	Date      time.Time `gorm:"not null;uniqueIndex:idx_activity_account_date"`
	Count     int       `gorm:"not null"`
	Type      string
	Note      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
