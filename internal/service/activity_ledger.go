package service

import (
	"context"
	"time"

	"github.com/Kiran8658/FSD-Even-project/internal/clock"
	"github.com/Kiran8658/FSD-Even-project/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxRangeDays 限制一次区间查询的天数
const MaxRangeDays = 366

// ActivityLedger 读写每个账户按天合并的打卡记录。
// 写入需要调用方提供事务（WithTx），由 DashboardService 负责加锁。
type ActivityLedger struct {
	db *gorm.DB
}

// ActivityInput 描述一次打卡
type ActivityInput struct {
	AccountID string
	Date      time.Time
	Count     int
	Type      string
	Note      string
}

// DayCount 是区间查询中的单日数据
type DayCount struct {
	Date  time.Time
	Count int
}

// NewActivityLedger 构造 ActivityLedger
func NewActivityLedger(gdb *gorm.DB) *ActivityLedger {
	return &ActivityLedger{db: gdb}
}

// WithTx 返回绑定到事务的副本
func (l *ActivityLedger) WithTx(tx *gorm.DB) *ActivityLedger {
	return &ActivityLedger{db: tx}
}

// Record 合并写入当天记录：已存在则累加次数，否则新建
func (l *ActivityLedger) Record(ctx context.Context, input ActivityInput) (*db.ActivityRecord, error) {
	if input.Count <= 0 {
		return nil, invalidf("count must be positive")
	}

	day := clock.Day(input.Date)
	record := db.ActivityRecord{
		AccountID: input.AccountID,
		Date:      day,
		Count:     input.Count,
		Type:      input.Type,
		Note:      input.Note,
	}

	// 类型与备注只在本次提供时覆盖
	if err := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count":      gorm.Expr("activity_records.count + excluded.count"),
			"type":       gorm.Expr("COALESCE(NULLIF(excluded.type, ''), activity_records.type)"),
			"note":       gorm.Expr("COALESCE(NULLIF(excluded.note, ''), activity_records.note)"),
			"updated_at": gorm.Expr("excluded.updated_at"),
		}),
	}).Create(&record).Error; err != nil {
		return nil, storageErr("upsert activity", err)
	}

	var stored db.ActivityRecord
	if err := l.db.WithContext(ctx).
		Where("account_id = ? AND date = ?", input.AccountID, day).
		First(&stored).Error; err != nil {
		return nil, storageErr("reload activity", err)
	}
	return &stored, nil
}

// HasActivityOn 判断某天是否已有记录
func (l *ActivityLedger) HasActivityOn(ctx context.Context, accountID string, day time.Time) (bool, error) {
	var count int64
	if err := l.db.WithContext(ctx).Model(&db.ActivityRecord{}).
		Where("account_id = ? AND date = ?", accountID, clock.Day(day)).
		Count(&count).Error; err != nil {
		return false, storageErr("check activity", err)
	}
	return count > 0, nil
}

// QueryRange 返回 [start, end] 每一天的次数，缺失的日期补 0，按日期升序
func (l *ActivityLedger) QueryRange(ctx context.Context, accountID string, start, end time.Time) ([]DayCount, error) {
	start, end = clock.Day(start), clock.Day(end)
	if end.Before(start) {
		return nil, invalidf("end date %s is before start date %s", clock.FormatDay(end), clock.FormatDay(start))
	}
	span := int(end.Sub(start).Hours()/24) + 1
	if span > MaxRangeDays {
		return nil, invalidf("range of %d days exceeds %d", span, MaxRangeDays)
	}

	var records []db.ActivityRecord
	if err := l.db.WithContext(ctx).
		Where("account_id = ? AND date >= ? AND date <= ?", accountID, start, end).
		Order("date ASC").
		Find(&records).Error; err != nil {
		return nil, storageErr("query activity range", err)
	}

	counts := make(map[string]int, len(records))
	for _, r := range records {
		counts[clock.FormatDay(r.Date.UTC())] += r.Count
	}

	days := make([]DayCount, 0, span)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, DayCount{Date: d, Count: counts[clock.FormatDay(d)]})
	}
	return days, nil
}

// TotalCount 汇总账户全部打卡次数
func (l *ActivityLedger) TotalCount(ctx context.Context, accountID string) (int, error) {
	var total int64
	if err := l.db.WithContext(ctx).Model(&db.ActivityRecord{}).
		Where("account_id = ?", accountID).
		Select("COALESCE(SUM(count), 0)").
		Scan(&total).Error; err != nil {
		return 0, storageErr("sum activity", err)
	}
	return int(total), nil
}

// ActiveDayCount 统计 since（含）之后有记录的天数
func (l *ActivityLedger) ActiveDayCount(ctx context.Context, accountID string, since time.Time) (int, error) {
	var count int64
	if err := l.db.WithContext(ctx).Model(&db.ActivityRecord{}).
		Where("account_id = ? AND date >= ?", accountID, clock.Day(since)).
		Count(&count).Error; err != nil {
		return 0, storageErr("count active days", err)
	}
	return int(count), nil
}

// ActiveDates 返回全部有记录的日期，按升序
func (l *ActivityLedger) ActiveDates(ctx context.Context, accountID string) ([]time.Time, error) {
	var records []db.ActivityRecord
	if err := l.db.WithContext(ctx).
		Select("date").
		Where("account_id = ?", accountID).
		Order("date ASC").
		Find(&records).Error; err != nil {
		return nil, storageErr("list active dates", err)
	}

	dates := make([]time.Time, 0, len(records))
	for _, r := range records {
		dates = append(dates, clock.Day(r.Date.UTC()))
	}
	return dates, nil
}
