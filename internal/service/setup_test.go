package service

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Kiran8658/FSD-Even-project/internal/clock"
	"github.com/Kiran8658/FSD-Even-project/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq atomic.Int64

// baseNow 为测试中的"现在"，本地时间上午九点
var baseNow = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:service-%d-%d?mode=memory&cache=shared", time.Now().UnixNano(), testDBSeq.Add(1))
	gdb, err := db.Open(db.Options{Driver: db.DriverSQLite, DSN: dsn, Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func createTestAccount(t *testing.T, gdb *gorm.DB, name string) *db.Account {
	t.Helper()
	username := strings.ToLower(strings.ReplaceAll(name, " ", "_"))
	account := db.Account{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "not-a-real-hash",
		Name:         name,
		JoinedAt:     baseNow,
	}
	if err := gdb.Create(&account).Error; err != nil {
		t.Fatalf("failed to create account: %v", err)
	}
	return &account
}

func reloadAccount(t *testing.T, gdb *gorm.DB, id string) db.Account {
	t.Helper()
	var account db.Account
	if err := gdb.First(&account, "id = ?", id).Error; err != nil {
		t.Fatalf("failed to reload account: %v", err)
	}
	return account
}

func dayPtr(t time.Time) *time.Time {
	d := clock.Day(t)
	return &d
}
