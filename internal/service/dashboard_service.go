package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Kiran8658/FSD-Even-project/internal/clock"
	"github.com/Kiran8658/FSD-Even-project/internal/db"
	"github.com/Kiran8658/FSD-Even-project/internal/lock"
	"github.com/Kiran8658/FSD-Even-project/internal/logger"
	"github.com/Kiran8658/FSD-Even-project/internal/streak"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// DefaultRangeDays 是活动图表的默认天数
	DefaultRangeDays = 7

	maxActivityTypeLength = 50
	maxActivityNoteLength = 500
)

// DashboardService 负责打卡写入、连胜计算与看板统计
type DashboardService struct {
	db     *gorm.DB
	ledger *ActivityLedger
	locker lock.Locker
	clock  clock.Clock
	log    *logger.Logger
}

// ActivityLogInput 定义一次打卡请求；Date 为空表示今天
type ActivityLogInput struct {
	Date  *time.Time
	Count int
	Type  string
	Note  string
}

// ActivityLogResult 返回合并后的记录与新的计数
type ActivityLogResult struct {
	Record     db.ActivityRecord
	Counters   streak.Counters
	Backfilled bool
	Insights   []db.Insight
}

// DashboardStats 汇总看板顶部的统计数字
type DashboardStats struct {
	TotalActivityCount int
	CurrentStreak      int
	LongestStreak      int
	ConsistencyRate    int
	SkillsLearned      int
}

// RangeQuery 描述活动区间：显式 Start/End，或截至今天的 Days 天
type RangeQuery struct {
	Days  int
	Start *time.Time
	End   *time.Time
}

// ActivityRange 为稠密的日序列
type ActivityRange struct {
	Start time.Time
	End   time.Time
	Days  []DayCount
}

// NewDashboardService 构造 DashboardService；locker 为空时使用进程内锁
func NewDashboardService(gdb *gorm.DB, locker lock.Locker, clk clock.Clock, log *logger.Logger) *DashboardService {
	if locker == nil {
		locker = lock.NewLocal()
	}
	if clk == nil {
		clk = clock.System{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &DashboardService{
		db:     gdb,
		ledger: NewActivityLedger(gdb),
		locker: locker,
		clock:  clk,
		log:    log,
	}
}

// Ledger 暴露只读查询使用的账本
func (s *DashboardService) Ledger() *ActivityLedger {
	return s.ledger
}

// RecordActivity 合并当天记录并推进连胜，二者在同一事务内提交。
// 同一账户的调用通过 locker 串行执行。
func (s *DashboardService) RecordActivity(ctx context.Context, accountID string, input ActivityLogInput) (*ActivityLogResult, error) {
	if input.Count <= 0 {
		return nil, invalidf("count must be positive")
	}
	activityType := plainText(input.Type)
	note := plainText(input.Note)
	if utf8.RuneCountInString(activityType) > maxActivityTypeLength {
		return nil, invalidf("type exceeds %d characters", maxActivityTypeLength)
	}
	if utf8.RuneCountInString(note) > maxActivityNoteLength {
		return nil, invalidf("note exceeds %d characters", maxActivityNoteLength)
	}

	now := s.clock.Now()
	today := clock.Day(now)
	day := today
	if input.Date != nil {
		day = clock.Day(*input.Date)
	}
	if day.After(today) {
		return nil, invalidf("date %s is in the future", clock.FormatDay(day))
	}
	backfilled := day.Before(today)

	unlock, err := s.lockAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var result ActivityLogResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account, err := lockAccountRow(ctx, tx, accountID)
		if err != nil {
			return err
		}

		ledger := s.ledger.WithTx(tx)
		loggedBefore, err := ledger.HasActivityOn(ctx, accountID, day)
		if err != nil {
			return err
		}

		record, err := ledger.Record(ctx, ActivityInput{
			AccountID: accountID,
			Date:      day,
			Count:     input.Count,
			Type:      activityType,
			Note:      note,
		})
		if err != nil {
			return err
		}

		prior := countersOf(account)
		var next streak.Counters
		if backfilled {
			next = streak.Backfill(prior, input.Count, now)
		} else {
			activeYesterday, err := ledger.HasActivityOn(ctx, accountID, today.AddDate(0, 0, -1))
			if err != nil {
				return err
			}
			next = streak.Advance(prior, streak.Facts{LoggedBefore: loggedBefore, ActiveYesterday: activeYesterday}, input.Count, now)
		}

		if err := saveCounters(ctx, tx, accountID, next); err != nil {
			return err
		}

		insights := milestoneInsights(accountID, prior, next, now)
		if len(insights) > 0 {
			if err := tx.WithContext(ctx).Create(&insights).Error; err != nil {
				return storageErr("create milestone insights", err)
			}
		}

		result = ActivityLogResult{Record: *record, Counters: next, Backfilled: backfilled, Insights: insights}
		return nil
	})
	if err != nil {
		return nil, txErr(err)
	}

	s.log.Info("activity logged",
		"account_id", accountID,
		"date", clock.FormatDay(day),
		"count", input.Count,
		"day_total", result.Record.Count,
		"current_streak", result.Counters.Current,
		"longest_streak", result.Counters.Longest,
		"backfilled", backfilled,
	)
	return &result, nil
}

// RecomputeStreaks 依据账本历史重建连胜与总数，Longest 只增不减
func (s *DashboardService) RecomputeStreaks(ctx context.Context, accountID string) (streak.Counters, error) {
	unlock, err := s.lockAccount(ctx, accountID)
	if err != nil {
		return streak.Counters{}, err
	}
	defer unlock()

	today := clock.Day(s.clock.Now())
	var next streak.Counters
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account, err := lockAccountRow(ctx, tx, accountID)
		if err != nil {
			return err
		}

		ledger := s.ledger.WithTx(tx)
		dates, err := ledger.ActiveDates(ctx, accountID)
		if err != nil {
			return err
		}
		total, err := ledger.TotalCount(ctx, accountID)
		if err != nil {
			return err
		}

		prior := countersOf(account)
		next = streak.Recompute(prior, dates, total, today)
		return saveCounters(ctx, tx, accountID, next)
	})
	if err != nil {
		return streak.Counters{}, txErr(err)
	}

	s.log.Info("streaks recomputed",
		"account_id", accountID,
		"current_streak", next.Current,
		"longest_streak", next.Longest,
		"total", next.Total,
	)
	return next, nil
}

// Stats 在一次只读事务中汇总看板统计
func (s *DashboardService) Stats(ctx context.Context, accountID string) (*DashboardStats, error) {
	today := clock.Day(s.clock.Now())
	since := today.AddDate(0, 0, -streak.ConsistencyWindowDays)

	var stats DashboardStats
	err := readTx(ctx, s.db, func(tx *gorm.DB) error {
		var account db.Account
		if err := tx.First(&account, "id = ?", accountID).Error; err != nil {
			return accountLookupErr(err)
		}

		activeDays, err := s.ledger.WithTx(tx).ActiveDayCount(ctx, accountID, since)
		if err != nil {
			return err
		}

		var learned int64
		if err := tx.Model(&db.AccountSkill{}).
			Where("account_id = ? AND level > 0", accountID).
			Count(&learned).Error; err != nil {
			return storageErr("count learned skills", err)
		}

		stats = DashboardStats{
			TotalActivityCount: account.TotalActivities,
			CurrentStreak:      account.CurrentStreak,
			LongestStreak:      account.LongestStreak,
			ConsistencyRate:    streak.ConsistencyRate(activeDays, streak.ConsistencyWindowDays),
			SkillsLearned:      int(learned),
		}
		return nil
	})
	if err != nil {
		return nil, txErr(err)
	}
	return &stats, nil
}

// ActivityRange 返回稠密的日序列；未指定区间时为截至今天的 Days 天
func (s *DashboardService) ActivityRange(ctx context.Context, accountID string, query RangeQuery) (*ActivityRange, error) {
	start, end, err := s.resolveRange(query)
	if err != nil {
		return nil, err
	}

	var days []DayCount
	err = readTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := ensureAccount(ctx, tx, accountID); err != nil {
			return err
		}
		days, err = s.ledger.WithTx(tx).QueryRange(ctx, accountID, start, end)
		return err
	})
	if err != nil {
		return nil, txErr(err)
	}
	return &ActivityRange{Start: start, End: end, Days: days}, nil
}

func (s *DashboardService) resolveRange(query RangeQuery) (time.Time, time.Time, error) {
	today := clock.Day(s.clock.Now())

	if query.Start != nil || query.End != nil {
		if query.Start == nil || query.End == nil {
			return time.Time{}, time.Time{}, invalidf("start and end must be provided together")
		}
		start, end := clock.Day(*query.Start), clock.Day(*query.End)
		if end.Before(start) {
			return time.Time{}, time.Time{}, invalidf("end date is before start date")
		}
		if span := int(end.Sub(start).Hours()/24) + 1; span > MaxRangeDays {
			return time.Time{}, time.Time{}, invalidf("range exceeds %d days", MaxRangeDays)
		}
		return start, end, nil
	}

	days := query.Days
	if days == 0 {
		days = DefaultRangeDays
	}
	if days < 1 || days > MaxRangeDays {
		return time.Time{}, time.Time{}, invalidf("days must be between 1 and %d", MaxRangeDays)
	}
	return today.AddDate(0, 0, -(days - 1)), today, nil
}

func (s *DashboardService) lockAccount(ctx context.Context, accountID string) (func(), error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, ErrAccountNotFound
	}
	unlock, err := s.locker.Lock(ctx, "account:"+accountID)
	if err != nil {
		return nil, fmt.Errorf("lock account: %w: %w", ErrUnavailable, err)
	}
	return unlock, nil
}

// lockAccountRow 读取账户并加行锁；SQLite 方言会忽略 FOR UPDATE，由单连接保证串行
func lockAccountRow(ctx context.Context, tx *gorm.DB, accountID string) (*db.Account, error) {
	var account db.Account
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&account, "id = ?", accountID).Error; err != nil {
		return nil, accountLookupErr(err)
	}
	return &account, nil
}

func ensureAccount(ctx context.Context, tx *gorm.DB, accountID string) error {
	var count int64
	if err := tx.WithContext(ctx).Model(&db.Account{}).Where("id = ?", accountID).Count(&count).Error; err != nil {
		return storageErr("check account", err)
	}
	if count == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func countersOf(account *db.Account) streak.Counters {
	return streak.Counters{
		Current:        account.CurrentStreak,
		Longest:        account.LongestStreak,
		Total:          account.TotalActivities,
		LastActivityAt: account.LastActivityAt,
	}
}

func saveCounters(ctx context.Context, tx *gorm.DB, accountID string, c streak.Counters) error {
	if err := tx.WithContext(ctx).Model(&db.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			"current_streak":   c.Current,
			"longest_streak":   c.Longest,
			"total_activities": c.Total,
			"last_activity_at": c.LastActivityAt,
		}).Error; err != nil {
		return storageErr("update account counters", err)
	}
	return nil
}

// readTx 在只读事务中执行查询；Postgres 使用可重复读以获得一致快照
func readTx(ctx context.Context, gdb *gorm.DB, fn func(tx *gorm.DB) error) error {
	var opts []*sql.TxOptions
	if gdb.Dialector.Name() == db.DriverPostgres {
		opts = append(opts, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	}
	return gdb.WithContext(ctx).Transaction(fn, opts...)
}
