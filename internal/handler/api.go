package handler

import (
	"time"

	"github.com/Kiran8658/FSD-Even-project/internal/clock"
	"github.com/Kiran8658/FSD-Even-project/internal/lock"
	"github.com/Kiran8658/FSD-Even-project/internal/logger"
	"github.com/Kiran8658/FSD-Even-project/internal/service"
	"gorm.io/gorm"
)

const (
	devTokenSecret = "learnpulse-dev-jwt-secret"
	devTokenTTL    = 72 * time.Hour
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db        *gorm.DB
	accounts  *service.AccountService
	dashboard *service.DashboardService
	skills    *service.SkillService
	insights  *service.InsightService
	overview  *service.OverviewService
	log       *logger.Logger
}

// Dependencies 为可替换的基础设施；零值字段使用进程内默认实现
type Dependencies struct {
	Tokens *service.TokenIssuer
	Locker lock.Locker
	Clock  clock.Clock
	Logger *logger.Logger
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, deps Dependencies) *API {
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Tokens == nil {
		deps.Tokens = service.NewTokenIssuer(devTokenSecret, devTokenTTL, deps.Clock)
	}

	dashboard := service.NewDashboardService(gdb, deps.Locker, deps.Clock, deps.Logger)
	skills := service.NewSkillService(gdb, deps.Logger)
	insights := service.NewInsightService(gdb, deps.Clock)

	return &API{
		db:        gdb,
		accounts:  service.NewAccountService(gdb, deps.Tokens, deps.Clock, deps.Logger),
		dashboard: dashboard,
		skills:    skills,
		insights:  insights,
		overview:  service.NewOverviewService(dashboard, skills, insights),
		log:       deps.Logger,
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}

// Accounts 暴露账户服务，供入口程序创建种子账户
func (a *API) Accounts() *service.AccountService {
	return a.accounts
}
