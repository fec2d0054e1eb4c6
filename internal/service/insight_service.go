package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Kiran8658/FSD-Even-project/internal/clock"
	"github.com/Kiran8658/FSD-Even-project/internal/db"
	"github.com/Kiran8658/FSD-Even-project/internal/locale"
	"github.com/Kiran8658/FSD-Even-project/internal/streak"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InsightLimit 为列表返回的最大条数
const InsightLimit = 10

var (
	streakMilestones   = []int{7, 14, 30, 60, 100}
	activityMilestones = []int{10, 50, 100, 500, 1000}
)

// InsightView 是返回给调用方的通知。Synthesized 为 true 表示默认提示，未持久化。
type InsightView struct {
	ID          string
	Title       string
	Description string
	Category    string
	Icon        string
	CreatedAt   time.Time
	Read        bool
	Synthesized bool
}

// InsightService 负责通知的读取与已读标记
type InsightService struct {
	db    *gorm.DB
	clock clock.Clock
}

// NewInsightService 构造 InsightService
func NewInsightService(gdb *gorm.DB, clk clock.Clock) *InsightService {
	if clk == nil {
		clk = clock.System{}
	}
	return &InsightService{db: gdb, clock: clk}
}

// List 返回最近的 10 条通知（新的在前）；没有任何持久化通知时返回默认提示
func (s *InsightService) List(ctx context.Context, accountID, language string) ([]InsightView, error) {
	var (
		account db.Account
		stored  []db.Insight
	)
	err := readTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.First(&account, "id = ?", accountID).Error; err != nil {
			return accountLookupErr(err)
		}
		if err := tx.Where("account_id = ?", accountID).
			Order("created_at DESC").
			Order("id DESC").
			Limit(InsightLimit).
			Find(&stored).Error; err != nil {
			return storageErr("list insights", err)
		}
		return nil
	})
	if err != nil {
		return nil, txErr(err)
	}

	if len(stored) == 0 {
		return defaultInsights(account.CurrentStreak, language, s.clock.Now()), nil
	}

	views := make([]InsightView, 0, len(stored))
	for _, insight := range stored {
		views = append(views, insightView(insight))
	}
	return views, nil
}

// MarkRead 将账户自己的通知标记为已读
func (s *InsightService) MarkRead(ctx context.Context, accountID, insightID string) (*InsightView, error) {
	insightID = strings.TrimSpace(insightID)
	if _, err := uuid.Parse(insightID); err != nil {
		return nil, ErrInsightNotFound
	}

	var insight db.Insight
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND account_id = ?", insightID, accountID).First(&insight).Error; err != nil {
			if isRecordNotFound(err) {
				return ErrInsightNotFound
			}
			return storageErr("load insight", err)
		}
		if insight.Read {
			return nil
		}
		if err := tx.Model(&insight).Update("read", true).Error; err != nil {
			return storageErr("mark insight read", err)
		}
		insight.Read = true
		return nil
	})
	if err != nil {
		return nil, txErr(err)
	}

	view := insightView(insight)
	return &view, nil
}

func insightView(insight db.Insight) InsightView {
	return InsightView{
		ID:          insight.ID,
		Title:       insight.Title,
		Description: insight.Description,
		Category:    insight.Category,
		Icon:        insight.Icon,
		CreatedAt:   insight.CreatedAt,
		Read:        insight.Read,
	}
}

// defaultInsights 每次调用都会生成新的 ID 与时间戳
func defaultInsights(currentStreak int, language string, now time.Time) []InsightView {
	views := make([]InsightView, 0, 3)
	if currentStreak > 0 {
		views = append(views, InsightView{
			ID:    uuid.NewString(),
			Title: locale.Pick(language, "Amazing Streak!", "连续学习！"),
			Description: locale.Pick(language,
				fmt.Sprintf("You've maintained a %d-day learning streak. Keep it up!", currentStreak),
				fmt.Sprintf("你已经连续学习 %d 天，继续保持！", currentStreak)),
			Category:    db.InsightAchievement,
			Icon:        "🔥",
			CreatedAt:   now,
			Synthesized: true,
		})
	}
	views = append(views,
		InsightView{
			ID:          uuid.NewString(),
			Title:       locale.Pick(language, "Welcome to FEDF!", "欢迎来到 FEDF！"),
			Description: locale.Pick(language, "Start your learning journey by exploring different topics.", "从探索不同的主题开始你的学习之旅。"),
			Category:    db.InsightTip,
			Icon:        "💡",
			CreatedAt:   now,
			Synthesized: true,
		},
		InsightView{
			ID:          uuid.NewString(),
			Title:       locale.Pick(language, "Set Your Goals", "设定目标"),
			Description: locale.Pick(language, "Define learning goals to track your progress effectively.", "制定学习目标，更有效地追踪进度。"),
			Category:    db.InsightTip,
			Icon:        "🎯",
			CreatedAt:   now,
			Synthesized: true,
		},
	)
	return views
}

// milestoneInsights 在连胜到达或总次数跨过阈值时生成需要持久化的通知
func milestoneInsights(accountID string, prior, next streak.Counters, now time.Time) []db.Insight {
	var insights []db.Insight

	if next.Current != prior.Current {
		for _, m := range streakMilestones {
			if next.Current == m {
				insights = append(insights, db.Insight{
					AccountID:   accountID,
					Title:       fmt.Sprintf("%d-Day Streak!", m),
					Description: fmt.Sprintf("You've learned %d days in a row. Outstanding consistency!", m),
					Category:    db.InsightAchievement,
					Icon:        "🔥",
					CreatedAt:   now,
				})
			}
		}
	}

	for _, m := range activityMilestones {
		if prior.Total < m && next.Total >= m {
			insights = append(insights, db.Insight{
				AccountID:   accountID,
				Title:       fmt.Sprintf("%d Activities Logged", m),
				Description: fmt.Sprintf("You've logged %d learning activities in total.", m),
				Category:    db.InsightMilestone,
				Icon:        "🏆",
				CreatedAt:   now,
			})
		}
	}
	return insights
}
