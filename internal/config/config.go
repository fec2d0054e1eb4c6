package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr       string
	Port             string
	DatabaseDriver   string
	DatabasePath     string
	DatabaseDSN      string
	JWTSecret        string
	JWTTTL           time.Duration
	SessionSecret    string
	GinMode          string
	LogMode          string
	Timezone         string
	RedisAddr        string
	CORSOrigins      []string
	SeedUserEmail    string
	SeedUserPassword string
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://localhost:5174",
}

// Load 依次读取 .env、CONFIG_FILE 指向的 YAML 以及环境变量，并为缺失项提供安全的默认值。
// 环境变量优先级最高。
func Load() (AppConfig, error) {
	envFile := strings.TrimSpace(os.Getenv("ENV_FILE"))
	if envFile == "" {
		envFile = ".env"
	}
	// .env 不存在时直接使用进程环境
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return AppConfig{}, fmt.Errorf("load env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return AppConfig{}, fmt.Errorf("read config file: %w", err)
		}
	}

	port := trimmed(v, "port")
	if port == "" {
		port = "8080"
	}

	listenAddr := trimmed(v, "listen_addr")
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	driver := strings.ToLower(trimmed(v, "database_driver"))
	switch driver {
	case "", "sqlite3":
		driver = DriverSQLite
	case DriverSQLite, DriverPostgres:
	default:
		return AppConfig{}, fmt.Errorf("unsupported database driver %q", driver)
	}

	databasePath := trimmed(v, "database_path")
	if databasePath == "" {
		databasePath = "learnpulse.db"
	}

	databaseDSN := trimmed(v, "database_dsn")
	if driver == DriverPostgres && databaseDSN == "" {
		return AppConfig{}, errors.New("DATABASE_DSN is required for postgres")
	}

	jwtSecret := trimmed(v, "jwt_secret")
	if jwtSecret == "" {
		jwtSecret = "learnpulse-dev-jwt-secret"
	}

	jwtTTL := v.GetDuration("jwt_ttl")
	if jwtTTL <= 0 {
		jwtTTL = 72 * time.Hour
	}

	sessionSecret := trimmed(v, "session_secret")
	if sessionSecret == "" {
		sessionSecret = "learnpulse-dev-secret"
	}

	ginMode := trimmed(v, "gin_mode")
	if ginMode == "" {
		ginMode = "release"
	}

	logMode := strings.ToLower(trimmed(v, "log_mode"))
	if logMode == "" {
		logMode = "production"
		if ginMode == "debug" {
			logMode = "development"
		}
	}

	timezone := trimmed(v, "timezone")
	if timezone == "" {
		timezone = "Local"
	}

	return AppConfig{
		ListenAddr:       listenAddr,
		Port:             port,
		DatabaseDriver:   driver,
		DatabasePath:     databasePath,
		DatabaseDSN:      databaseDSN,
		JWTSecret:        jwtSecret,
		JWTTTL:           jwtTTL,
		SessionSecret:    sessionSecret,
		GinMode:          ginMode,
		LogMode:          logMode,
		Timezone:         timezone,
		RedisAddr:        trimmed(v, "redis_addr"),
		CORSOrigins:      splitList(trimmed(v, "cors_origins"), defaultCORSOrigins),
		SeedUserEmail:    trimmed(v, "seed_user_email"),
		SeedUserPassword: trimmed(v, "seed_user_password"),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("database_driver", DriverSQLite)
	v.SetDefault("database_path", "learnpulse.db")
	v.SetDefault("jwt_ttl", "72h")
	v.SetDefault("gin_mode", "release")
	v.SetDefault("timezone", "Local")

	// 无默认值的键也需要登记，AutomaticEnv 才能在 Get 时命中
	for _, key := range []string{
		"listen_addr", "database_dsn", "jwt_secret", "session_secret", "log_mode",
		"redis_addr", "cors_origins", "seed_user_email", "seed_user_password",
	} {
		v.SetDefault(key, "")
	}
}

func trimmed(v *viper.Viper, key string) string {
	return strings.TrimSpace(v.GetString(key))
}

func splitList(raw string, fallback []string) []string {
	if raw == "" {
		return append([]string(nil), fallback...)
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), fallback...)
	}
	return out
}
