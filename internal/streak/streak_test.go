package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func TestAdvanceFirstEverLogStartsStreak(t *testing.T) {
	now := day0.Add(9 * time.Hour)
	next := Advance(Counters{}, Facts{}, 1, now)

	assert.Equal(t, 1, next.Current)
	assert.Equal(t, 1, next.Longest)
	assert.Equal(t, 1, next.Total)
	require.NotNil(t, next.LastActivityAt)
	assert.True(t, next.LastActivityAt.Equal(now))
}

func TestAdvanceSameDayDoesNotIncrementTwice(t *testing.T) {
	first := Advance(Counters{Current: 4, Longest: 4, Total: 10}, Facts{ActiveYesterday: true}, 3, day0)
	require.Equal(t, 5, first.Current)

	second := Advance(first, Facts{ActiveYesterday: true, LoggedBefore: true}, 4, day0.Add(time.Hour))
	assert.Equal(t, 5, second.Current)
	assert.Equal(t, 5, second.Longest)
	assert.Equal(t, 17, second.Total)
}

func TestAdvanceMissedDayResets(t *testing.T) {
	prior := Counters{Current: 6, Longest: 9, Total: 30}
	next := Advance(prior, Facts{}, 2, day0)

	assert.Equal(t, 1, next.Current)
	assert.Equal(t, 9, next.Longest)
	assert.Equal(t, 32, next.Total)
}

func TestAdvanceSameDayAfterResetKeepsValue(t *testing.T) {
	reset := Advance(Counters{Current: 3, Longest: 3}, Facts{}, 1, day0)
	again := Advance(reset, Facts{LoggedBefore: true}, 1, day0)

	assert.Equal(t, 1, again.Current)
	assert.Equal(t, 3, again.Longest)
}

func TestAdvanceKeepsLongestAtLeastCurrent(t *testing.T) {
	type step struct {
		facts Facts
		added int
	}
	steps := []step{
		{Facts{}, 1},
		{Facts{ActiveYesterday: true}, 2},
		{Facts{ActiveYesterday: true, LoggedBefore: true}, 1},
		{Facts{}, 1},
		{Facts{ActiveYesterday: true}, 5},
		{Facts{ActiveYesterday: true}, 1},
		{Facts{ActiveYesterday: true}, 1},
	}

	c := Counters{}
	for i, s := range steps {
		c = Advance(c, s.facts, s.added, day0.AddDate(0, 0, i))
		require.GreaterOrEqual(t, c.Longest, c.Current, "step %d", i)
	}
	assert.Equal(t, 4, c.Current)
	assert.Equal(t, 4, c.Longest)
	assert.Equal(t, 12, c.Total)
}

func TestBackfillLeavesStreakUntouched(t *testing.T) {
	prior := Counters{Current: 2, Longest: 5, Total: 7}
	next := Backfill(prior, 3, day0)

	assert.Equal(t, 2, next.Current)
	assert.Equal(t, 5, next.Longest)
	assert.Equal(t, 10, next.Total)
}

func TestFromDates(t *testing.T) {
	today := day0.AddDate(0, 0, 10)

	tests := []struct {
		name        string
		dates       []time.Time
		wantCurrent int
		wantLongest int
	}{
		{name: "empty", dates: nil, wantCurrent: 0, wantLongest: 0},
		{name: "run ending today", dates: []time.Time{today.AddDate(0, 0, -2), today.AddDate(0, 0, -1), today}, wantCurrent: 3, wantLongest: 3},
		{name: "run ending yesterday", dates: []time.Time{today.AddDate(0, 0, -2), today.AddDate(0, 0, -1)}, wantCurrent: 2, wantLongest: 2},
		{name: "stale run", dates: []time.Time{day0, day0.AddDate(0, 0, 1), day0.AddDate(0, 0, 2)}, wantCurrent: 0, wantLongest: 3},
		{name: "unsorted with duplicates", dates: []time.Time{today, day0, today, day0.AddDate(0, 0, 1), today.AddDate(0, 0, -1)}, wantCurrent: 2, wantLongest: 2},
		{name: "future ignored", dates: []time.Time{today.AddDate(0, 0, 1), today}, wantCurrent: 1, wantLongest: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current, longest := FromDates(tt.dates, today)
			assert.Equal(t, tt.wantCurrent, current)
			assert.Equal(t, tt.wantLongest, longest)
		})
	}
}

func TestRecomputeNeverLowersLongest(t *testing.T) {
	today := day0.AddDate(0, 0, 3)
	prior := Counters{Current: 1, Longest: 12, Total: 3}

	next := Recompute(prior, []time.Time{today.AddDate(0, 0, -1), today}, 9, today)
	assert.Equal(t, 2, next.Current)
	assert.Equal(t, 12, next.Longest)
	assert.Equal(t, 9, next.Total)
}

func TestConsistencyRate(t *testing.T) {
	assert.Equal(t, 50, ConsistencyRate(15, ConsistencyWindowDays))
	assert.Equal(t, 3, ConsistencyRate(1, ConsistencyWindowDays))
	assert.Equal(t, 100, ConsistencyRate(31, ConsistencyWindowDays))
	assert.Equal(t, 0, ConsistencyRate(0, ConsistencyWindowDays))
}
