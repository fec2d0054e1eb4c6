// Package streak 计算连续打卡天数与活跃度统计。
//
// 所有函数都是纯函数：调用方负责提供"今天"以及账本中的事实，
// 这里不读取时钟，也不访问存储。
package streak

import (
	"sort"
	"time"
)

// ConsistencyWindowDays 为活跃率统计的滚动窗口
const ConsistencyWindowDays = 30

// Counters 是账户上维护的聚合计数
type Counters struct {
	Current        int
	Longest        int
	Total          int
	LastActivityAt *time.Time
}

// Facts 是一次打卡前从账本读取的存在性事实
type Facts struct {
	// LoggedBefore 表示本次调用前当天是否已有记录
	LoggedBefore bool
	// ActiveYesterday 表示前一天是否有记录
	ActiveYesterday bool
}

// Advance 计算当天打卡后的计数。
//
// 同一天的重复打卡不会再次累加连胜；前一天有记录或连胜为 0 时连胜 +1；
// 否则视为中断，从 1 重新开始。Longest 始终不小于 Current。
func Advance(prior Counters, facts Facts, added int, now time.Time) Counters {
	next := prior
	next.Total = prior.Total + added
	at := now
	next.LastActivityAt = &at

	switch {
	case facts.LoggedBefore && prior.Current > 0:
		// 当天已计入
	case facts.ActiveYesterday || prior.Current == 0:
		next.Current = prior.Current + 1
	default:
		next.Current = 1
	}

	next.Longest = max(prior.Longest, next.Current)
	return next
}

// Backfill 处理非当天日期的补记：只累加总数，不改变连胜
func Backfill(prior Counters, added int, now time.Time) Counters {
	next := prior
	next.Total = prior.Total + added
	at := now
	next.LastActivityAt = &at
	next.Longest = max(prior.Longest, prior.Current)
	return next
}

// FromDates 根据账本中的活跃日期重新推导连胜。
// current 为截止到 today 或昨天的连续天数，否则为 0；longest 为历史最长连续天数。
func FromDates(dates []time.Time, today time.Time) (current, longest int) {
	days := uniqueSortedDays(dates, today)
	if len(days) == 0 {
		return 0, 0
	}

	run := 1
	longest = 1
	for i := 1; i < len(days); i++ {
		if dayDelta(days[i-1], days[i]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	last := days[len(days)-1]
	if gap := dayDelta(last, today); gap == 0 || gap == 1 {
		current = run
	}
	return current, longest
}

// Recompute 用账本事实修复计数，Longest 不会回退
func Recompute(prior Counters, dates []time.Time, total int, today time.Time) Counters {
	current, longest := FromDates(dates, today)
	next := prior
	next.Current = current
	next.Longest = max(prior.Longest, longest, current)
	next.Total = total
	return next
}

// ConsistencyRate 返回窗口内活跃天数的百分比，向下取整并封顶 100
func ConsistencyRate(activeDays, windowDays int) int {
	if activeDays <= 0 || windowDays <= 0 {
		return 0
	}
	return min(100, activeDays*100/windowDays)
}

func uniqueSortedDays(dates []time.Time, today time.Time) []time.Time {
	seen := make(map[time.Time]struct{}, len(dates))
	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		if day.After(today) {
			continue
		}
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

func dayDelta(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
