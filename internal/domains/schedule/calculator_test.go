package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/xpanvictor/chrono/internal/domains/task"
)

func mustNext(t *testing.T, st task.ScheduleType, cfg task.ScheduleConfig, anchor time.Time, fired int) time.Time {
	t.Helper()
	next, err := Next(st, cfg, anchor, fired)
	if err != nil {
		t.Fatalf("Next returned error: %v", err)
	}
	if next == nil {
		t.Fatalf("Next returned nil, expected an instant")
	}
	return *next
}

func TestOnceFiresExactlyOnce(t *testing.T) {
	runAt := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	cfg := task.ScheduleConfig{RunAt: &runAt}

	anchor := runAt.Add(-time.Hour)
	got := mustNext(t, task.ScheduleOnce, cfg, anchor, 0)
	if !got.Equal(runAt) {
		t.Errorf("expected %v, got %v", runAt, got)
	}

	next, err := Next(task.ScheduleOnce, cfg, runAt, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != nil {
		t.Errorf("once schedule already fired, expected nil, got %v", *next)
	}
}

func TestOnceRequiresRunAt(t *testing.T) {
	_, err := Next(task.ScheduleOnce, task.ScheduleConfig{}, time.Now(), 0)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestDailySameDayWhenTimeNotPassed(t *testing.T) {
	// created 06:00, daily at 07:00: first run is today 07:00
	anchor := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	cfg := task.ScheduleConfig{Hour: 7, Minute: 0}

	got := mustNext(t, task.ScheduleDaily, cfg, anchor, 0)
	want := time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDailyRollsToNextDayAfterTime(t *testing.T) {
	anchor := time.Date(2026, 3, 10, 7, 0, 5, 0, time.UTC)
	cfg := task.ScheduleConfig{Hour: 7, Minute: 0}

	got := mustNext(t, task.ScheduleDaily, cfg, anchor, 1)
	want := time.Date(2026, 3, 11, 7, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDailyHonorsIntervalDays(t *testing.T) {
	anchor := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	cfg := task.ScheduleConfig{Hour: 7, Minute: 30, IntervalDays: 3}

	got := mustNext(t, task.ScheduleDaily, cfg, anchor, 1)
	want := time.Date(2026, 3, 13, 7, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestWeeklyPicksNextListedWeekday(t *testing.T) {
	// 2026-03-10 is a Tuesday (index 1). Schedule Mon+Fri at 09:00.
	anchor := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cfg := task.ScheduleConfig{Hour: 9, Minute: 0, Weekdays: []int{0, 4}}

	got := mustNext(t, task.ScheduleWeekly, cfg, anchor, 2)
	want := time.Date(2026, 3, 13, 9, 0, 0, 0, time.UTC) // Friday
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestWeeklySingleWeekdayStepsFullInterval(t *testing.T) {
	// Monday 2026-03-09 at 10:00, schedule every 2 weeks on Monday 09:00.
	// 09:00 already passed, so the next run is exactly 14 days out.
	anchor := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	cfg := task.ScheduleConfig{Hour: 9, Minute: 0, Weekdays: []int{0}, IntervalWeeks: 2}

	got := mustNext(t, task.ScheduleWeekly, cfg, anchor, 1)
	want := time.Date(2026, 3, 23, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestWeeklyRequiresWeekdays(t *testing.T) {
	_, err := Next(task.ScheduleWeekly, task.ScheduleConfig{Hour: 9}, time.Now(), 0)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestMonthlyClampsToMonthEnd(t *testing.T) {
	// Scheduled for day 31, executed Jan 31: next is Feb 28 (2026 not a leap year).
	anchor := time.Date(2026, 1, 31, 9, 0, 1, 0, time.UTC)
	cfg := task.ScheduleConfig{Hour: 9, Minute: 0, DayOfMonth: 31}

	got := mustNext(t, task.ScheduleMonthly, cfg, anchor, 1)
	want := time.Date(2026, 2, 28, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	// and from there, back to the real day 31 in March
	got = mustNext(t, task.ScheduleMonthly, cfg, want.Add(time.Second), 2)
	want = time.Date(2026, 3, 31, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestMonthlySameMonthWhenDayNotPassed(t *testing.T) {
	anchor := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	cfg := task.ScheduleConfig{Hour: 8, Minute: 0, DayOfMonth: 15}

	got := mustNext(t, task.ScheduleMonthly, cfg, anchor, 0)
	want := time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestYearlyClampsLeapDay(t *testing.T) {
	anchor := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	cfg := task.ScheduleConfig{Hour: 12, Minute: 0, Month: 2, Day: 29}

	got := mustNext(t, task.ScheduleYearly, cfg, anchor, 0)
	want := time.Date(2027, 2, 28, 12, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestCustomIntervalMinutes(t *testing.T) {
	anchor := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	cfg := task.ScheduleConfig{IntervalMinutes: 45}

	got := mustNext(t, task.ScheduleCustom, cfg, anchor, 3)
	want := anchor.Add(45 * time.Minute)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestEndDateExhaustsSchedule(t *testing.T) {
	end := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cfg := task.ScheduleConfig{Hour: 7, Minute: 0, EndDate: &end}

	anchor := time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC)
	next, err := Next(task.ScheduleDaily, cfg, anchor, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != nil {
		t.Errorf("expected nil past end date, got %v", *next)
	}
}

func TestMaxOccurrencesExhaustsSchedule(t *testing.T) {
	max := 3
	cfg := task.ScheduleConfig{Hour: 7, MaxOccurrences: &max}

	next, err := Next(task.ScheduleDaily, cfg, time.Now(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != nil {
		t.Errorf("expected nil after max occurrences, got %v", *next)
	}

	if got := mustNext(t, task.ScheduleDaily, cfg, time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC), 2); got.IsZero() {
		t.Errorf("expected an instant while under max occurrences")
	}
}

func TestNextIsDeterministic(t *testing.T) {
	anchor := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	cfg := task.ScheduleConfig{Hour: 7, Minute: 15, Weekdays: []int{1, 3, 5}}

	first := mustNext(t, task.ScheduleWeekly, cfg, anchor, 4)
	for i := 0; i < 10; i++ {
		if got := mustNext(t, task.ScheduleWeekly, cfg, anchor, 4); !got.Equal(first) {
			t.Fatalf("non-deterministic result: %v vs %v", got, first)
		}
	}
}

func TestNextAlwaysAfterAnchor(t *testing.T) {
	anchor := time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)
	cases := []struct {
		st  task.ScheduleType
		cfg task.ScheduleConfig
	}{
		{task.ScheduleDaily, task.ScheduleConfig{Hour: 7, Minute: 0}},
		{task.ScheduleWeekly, task.ScheduleConfig{Hour: 7, Weekdays: []int{1}}},
		{task.ScheduleMonthly, task.ScheduleConfig{Hour: 7, DayOfMonth: 10}},
		{task.ScheduleYearly, task.ScheduleConfig{Hour: 7, Month: 3, Day: 10}},
		{task.ScheduleCustom, task.ScheduleConfig{IntervalMinutes: 1}},
	}
	for _, tc := range cases {
		got := mustNext(t, tc.st, tc.cfg, anchor, 1)
		if !got.After(anchor) {
			t.Errorf("%s: next %v not after anchor %v", tc.st, got, anchor)
		}
	}
}
