package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"

	"github.com/Kiran8658/FSD-Even-project/internal/clock"
	"github.com/Kiran8658/FSD-Even-project/internal/config"
	"github.com/Kiran8658/FSD-Even-project/internal/db"
	"github.com/Kiran8658/FSD-Even-project/internal/logger"
	"github.com/Kiran8658/FSD-Even-project/internal/service"
	"github.com/Kiran8658/FSD-Even-project/internal/streak"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	defaultSeedEmail    = "demo@learnpulse.dev"
	defaultSeedPassword = "demo123"
	historyDays         = 45
	randomSeed          = 20240510
)

var activityTypes = []string{"reading", "coding", "video", "practice"}

var demoSkills = []service.SetSkillInput{
	{Name: "React", Level: 65},
	{Name: "TypeScript", Level: 40},
	{Name: "CSS", Level: 80},
	{Name: "Node.js", Level: 25},
}

type seedResult struct {
	Profile  *service.Profile
	Created  bool
	Logged   int
	Counters streak.Counters
}

// 演示数据生成器
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer appLog.Sync()

	location, err := clock.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("时区无效: %v", err)
	}

	dsn := cfg.DatabasePath
	if cfg.DatabaseDriver == config.DriverPostgres {
		dsn = cfg.DatabaseDSN
	}
	if err := db.Init(db.Options{Driver: cfg.DatabaseDriver, DSN: dsn, Logger: gormlogger.Default.LogMode(gormlogger.Warn)}); err != nil {
		log.Fatalf("数据库初始化失败: %v", err)
	}
	defer db.Close()

	email, password := cfg.SeedUserEmail, cfg.SeedUserPassword
	if email == "" {
		email = defaultSeedEmail
	}
	if password == "" {
		password = defaultSeedPassword
	}

	fmt.Println("开始生成演示数据...")
	result, err := seedDemo(context.Background(), db.DB, clock.System{Location: location}, appLog, service.SignUpInput{
		Name:     "Demo Learner",
		Email:    email,
		Password: password,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "生成演示数据失败:", err)
		os.Exit(1)
	}

	if result.Logged == 0 {
		fmt.Println("演示账户已有学习记录，跳过生成")
	} else {
		fmt.Printf("✅ 生成 %d 天学习记录\n", result.Logged)
	}
	fmt.Println("用户:", result.Profile.Username)
	fmt.Println("邮箱:", email)
	if result.Created {
		fmt.Println("密码:", password)
	}
	fmt.Printf("当前连胜: %d 天，最长连胜: %d 天，总活动数: %d\n",
		result.Counters.Current, result.Counters.Longest, result.Counters.Total)
}

// seedDemo 创建演示账户并补录过去 historyDays 天的记录；账户已有记录时不再补录
func seedDemo(ctx context.Context, gdb *gorm.DB, clk clock.Clock, log *logger.Logger, input service.SignUpInput) (*seedResult, error) {
	tokens := service.NewTokenIssuer("seed-only", 0, clk)
	accounts := service.NewAccountService(gdb, tokens, clk, log)
	dashboard := service.NewDashboardService(gdb, nil, clk, log)
	skills := service.NewSkillService(gdb, log)

	profile, created, err := accounts.EnsureAccount(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("ensure demo account: %w", err)
	}

	stats, err := dashboard.Stats(ctx, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("load demo stats: %w", err)
	}
	result := &seedResult{Profile: profile, Created: created}
	if stats.TotalActivityCount > 0 {
		result.Counters = streak.Counters{Current: stats.CurrentStreak, Longest: stats.LongestStreak, Total: stats.TotalActivityCount}
		return result, nil
	}

	rng := rand.New(rand.NewSource(randomSeed))
	today := clock.Day(clk.Now())
	for offset := historyDays; offset >= 0; offset-- {
		// 最近一周保持连续，更早的日子随机留出空档
		if offset > 7 && rng.Intn(4) == 0 {
			continue
		}
		day := today.AddDate(0, 0, -offset)
		_, err := dashboard.RecordActivity(ctx, profile.ID, service.ActivityLogInput{
			Date:  &day,
			Count: 1 + rng.Intn(4),
			Type:  activityTypes[rng.Intn(len(activityTypes))],
		})
		if err != nil {
			return nil, fmt.Errorf("log %s: %w", clock.FormatDay(day), err)
		}
		result.Logged++
	}

	// 补录不会推进连胜，最后按历史重算
	counters, err := dashboard.RecomputeStreaks(ctx, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("recompute demo streaks: %w", err)
	}
	result.Counters = counters

	for _, skill := range demoSkills {
		if _, err := skills.SetLevel(ctx, profile.ID, skill); err != nil {
			return nil, fmt.Errorf("set demo skill %s: %w", skill.Name, err)
		}
	}
	return result, nil
}
