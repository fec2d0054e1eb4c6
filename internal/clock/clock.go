package clock

import (
	"strings"
	"sync"
	"time"
)

// DayLayout 是日历日期的统一格式
const DayLayout = "2006-01-02"

// Clock 提供当前时间，业务逻辑不直接读取系统时钟
type Clock interface {
	Now() time.Time
}

// System 返回指定时区下的系统时间
type System struct {
	Location *time.Location
}

// Now 实现 Clock
func (s System) Now() time.Time {
	if s.Location == nil {
		return time.Now()
	}
	return time.Now().In(s.Location)
}

// LoadLocation 解析时区名称，空值或 Local 使用本地时区
func LoadLocation(name string) (*time.Location, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || strings.EqualFold(trimmed, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(trimmed)
}

// Fixed 是可手动推进的时钟，用于测试
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixed 构造 Fixed
func NewFixed(now time.Time) *Fixed {
	return &Fixed{now: now}
}

// Now 实现 Clock
func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Set 重置当前时间
func (f *Fixed) Set(now time.Time) {
	f.mu.Lock()
	f.now = now
	f.mu.Unlock()
}

// AddDays 将时钟向前推进若干天
func (f *Fixed) AddDays(days int) {
	f.mu.Lock()
	f.now = f.now.AddDate(0, 0, days)
	f.mu.Unlock()
}

// Day 取 t 在其自身时区下的日历日期，并以 UTC 零点表示
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay 解析 YYYY-MM-DD
func ParseDay(value string) (time.Time, error) {
	return time.ParseInLocation(DayLayout, strings.TrimSpace(value), time.UTC)
}

// FormatDay 输出 YYYY-MM-DD
func FormatDay(t time.Time) string {
	return t.Format(DayLayout)
}
