package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	sqliteBusyTimeoutMs = 5000
)

// DB 是一个全局的数据库连接实例
var DB *gorm.DB

// Options 控制连接行为
type Options struct {
	Driver string
	// DSN 对 sqlite 为文件路径或 file: URI，对 postgres 为连接串
	DSN    string
	Logger logger.Interface
}

// Open 打开数据库连接，但不执行迁移。
// 约束冲突会被翻译为 gorm.ErrDuplicatedKey/ErrForeignKeyViolated。
func Open(opts Options) (*gorm.DB, error) {
	cfg := &gorm.Config{TranslateError: true}
	if opts.Logger != nil {
		cfg.Logger = opts.Logger
	}

	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", DriverSQLite:
		return openSQLite(opts.DSN, cfg)
	case DriverPostgres:
		return openPostgres(opts.DSN, cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
}

func openSQLite(path string, cfg *gorm.Config) (*gorm.DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = "learnpulse.db"
	}
	if !strings.HasPrefix(path, "file:") {
		if err := ensureParentDir(path); err != nil {
			return nil, err
		}
	}

	gdb, err := gorm.Open(sqlite.Open(sqliteDSN(path)), cfg)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	// SQLite 只允许单写者，单连接让写事务在连接池层面排队，避免 SQLITE_BUSY
	sqlDB.SetMaxOpenConns(1)

	return gdb, nil
}

func sqliteDSN(path string) string {
	params := fmt.Sprintf("_busy_timeout=%d&_foreign_keys=on", sqliteBusyTimeoutMs)
	if !strings.Contains(path, "mode=memory") {
		params += "&_journal_mode=WAL"
	}
	if strings.Contains(path, "?") {
		return path + "&" + params
	}
	return path + "?" + params
}

func openPostgres(dsn string, cfg *gorm.Config) (*gorm.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("postgres dsn is empty")
	}

	gdb, err := gorm.Open(postgres.Open(dsn), cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return gdb, nil
}

// Migrate 为核心模型建表，并写入共享的技能目录
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&Account{},
		&ActivityRecord{},
		&Skill{},
		&AccountSkill{},
		&Insight{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return SeedSkillCatalog(gdb)
}

// Init 初始化全局连接并执行自动迁移
func Init(opts Options) error {
	gdb, err := Open(opts)
	if err != nil {
		return err
	}
	if err := Migrate(gdb); err != nil {
		return err
	}
	DB = gdb
	return nil
}

// Close 关闭全局连接
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
