package clock

import (
	"testing"
	"time"
)

func TestDayUsesCalendarDateOfLocation(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*60*60)
	// 2024-05-01 01:30 in UTC+8 is still 2024-04-30 in UTC.
	instant := time.Date(2024, 5, 1, 1, 30, 0, 0, loc)

	got := Day(instant)
	want := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if utc := Day(instant.UTC()); !utc.Equal(want.AddDate(0, 0, -1)) {
		t.Fatalf("expected previous day for UTC view, got %v", utc)
	}
}

func TestParseAndFormatDay(t *testing.T) {
	day, err := ParseDay(" 2024-02-29 ")
	if err != nil {
		t.Fatalf("ParseDay returned error: %v", err)
	}
	if FormatDay(day) != "2024-02-29" {
		t.Fatalf("unexpected format: %s", FormatDay(day))
	}

	if _, err := ParseDay("2024/02/29"); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestFixedAddDays(t *testing.T) {
	base := time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)
	c := NewFixed(base)
	c.AddDays(1)

	if got := Day(c.Now()); !got.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected day after advance: %v", got)
	}
}

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("")
	if err != nil || loc != time.Local {
		t.Fatalf("expected local location, got %v (%v)", loc, err)
	}

	if _, err := LoadLocation("Not/AZone"); err == nil {
		t.Fatal("expected error for unknown zone")
	}
}
