package service

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Overview 是看板首屏需要的全部数据
type Overview struct {
	Stats      *DashboardStats
	Activities *ActivityRange
	Skills     []SkillView
	Insights   []InsightView
}

// OverviewService 并发组装看板首屏，各部分分别在自己的只读快照中读取
type OverviewService struct {
	dashboard *DashboardService
	skills    *SkillService
	insights  *InsightService
}

// NewOverviewService 构造 OverviewService
func NewOverviewService(dashboard *DashboardService, skills *SkillService, insights *InsightService) *OverviewService {
	return &OverviewService{dashboard: dashboard, skills: skills, insights: insights}
}

// Get 返回统计、活动区间、技能与通知；任一部分失败则整体失败
func (s *OverviewService) Get(ctx context.Context, accountID string, query RangeQuery, language string) (*Overview, error) {
	// 先校验区间，避免无效参数启动并发读
	if _, _, err := s.dashboard.resolveRange(query); err != nil {
		return nil, err
	}

	var overview Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := s.dashboard.Stats(gctx, accountID)
		overview.Stats = stats
		return err
	})
	g.Go(func() error {
		activities, err := s.dashboard.ActivityRange(gctx, accountID, query)
		overview.Activities = activities
		return err
	})
	g.Go(func() error {
		skills, err := s.skills.List(gctx, accountID)
		overview.Skills = skills
		return err
	})
	g.Go(func() error {
		insights, err := s.insights.List(gctx, accountID, language)
		overview.Insights = insights
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &overview, nil
}
