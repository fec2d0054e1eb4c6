package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kiran8658/FSD-Even-project/internal/clock"
	"github.com/Kiran8658/FSD-Even-project/internal/config"
	"github.com/Kiran8658/FSD-Even-project/internal/db"
	"github.com/Kiran8658/FSD-Even-project/internal/handler"
	"github.com/Kiran8658/FSD-Even-project/internal/lock"
	"github.com/Kiran8658/FSD-Even-project/internal/logger"
	"github.com/Kiran8658/FSD-Even-project/internal/router"
	"github.com/Kiran8658/FSD-Even-project/internal/service"
	"github.com/gin-gonic/gin"
	gormlogger "gorm.io/gorm/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer appLog.Sync()

	location, err := clock.LoadLocation(cfg.Timezone)
	if err != nil {
		appLog.Error("invalid timezone", "timezone", cfg.Timezone, "error", err)
		os.Exit(1)
	}
	clk := clock.System{Location: location}

	// 初始化数据库
	dsn := cfg.DatabasePath
	if cfg.DatabaseDriver == config.DriverPostgres {
		dsn = cfg.DatabaseDSN
	}
	if err := db.Init(db.Options{
		Driver: cfg.DatabaseDriver,
		DSN:    dsn,
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	}); err != nil {
		appLog.Error("failed to initialize database", "driver", cfg.DatabaseDriver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var locker lock.Locker = lock.NewLocal()
	if cfg.RedisAddr != "" {
		redisLock, err := lock.NewRedis(ctx, cfg.RedisAddr)
		if err != nil {
			appLog.Error("failed to connect redis", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		defer redisLock.Close()
		locker = redisLock
		appLog.Info("using redis account lock", "addr", cfg.RedisAddr)
	}

	api := handler.NewAPI(db.DB, handler.Dependencies{
		Tokens: service.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL, clk),
		Locker: locker,
		Clock:  clk,
		Logger: appLog,
	})

	if cfg.SeedUserEmail != "" && cfg.SeedUserPassword != "" {
		profile, created, err := api.Accounts().EnsureAccount(ctx, service.SignUpInput{
			Name:     "Demo Learner",
			Email:    cfg.SeedUserEmail,
			Password: cfg.SeedUserPassword,
		})
		if err != nil {
			appLog.Error("failed to seed account", "email", cfg.SeedUserEmail, "error", err)
			os.Exit(1)
		}
		appLog.Info("seed account ready", "username", profile.Username, "created", created)
	}

	// 设置并运行 Gin 服务器
	gin.SetMode(cfg.GinMode)
	r := router.SetupRouter(api, router.Options{
		SessionSecret: cfg.SessionSecret,
		CORSOrigins:   cfg.CORSOrigins,
		Logger:        appLog,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLog.Info("server listening", "addr", cfg.ListenAddr, "driver", cfg.DatabaseDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("failed to run server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	appLog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("graceful shutdown failed", "error", err)
	}
}
