// Package schedule computes the next due instant for a task's schedule. The
// calculation is a pure function of (schedule type, config, anchor, fired):
// no clock reads, so the same inputs always produce the same output.
package schedule

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/xpanvictor/chrono/internal/domains/task"
)

var (
	// ErrInvalidConfig is returned when the config does not match the
	// schedule type.
	ErrInvalidConfig = errors.New("invalid schedule config")
)

// Calculator implements task.NextRunCalculator.
type Calculator struct{}

// New creates a Calculator.
func New() Calculator { return Calculator{} }

// Next returns the next due instant strictly after anchor, or nil when the
// schedule is exhausted (once already fired, end date passed, or max
// occurrences reached). fired is the number of occurrences already executed.
func (Calculator) Next(st task.ScheduleType, cfg task.ScheduleConfig, anchor time.Time, fired int) (*time.Time, error) {
	return Next(st, cfg, anchor, fired)
}

// Next is the package-level form of Calculator.Next.
func Next(st task.ScheduleType, cfg task.ScheduleConfig, anchor time.Time, fired int) (*time.Time, error) {
	if cfg.MaxOccurrences != nil && fired >= *cfg.MaxOccurrences {
		return nil, nil
	}

	var next time.Time
	switch st {
	case task.ScheduleOnce:
		if fired > 0 {
			return nil, nil
		}
		if cfg.RunAt == nil {
			return nil, fmt.Errorf("%w: once requires runAt", ErrInvalidConfig)
		}
		next = *cfg.RunAt
	case task.ScheduleDaily:
		next = nextDaily(cfg, anchor)
	case task.ScheduleWeekly:
		var err error
		next, err = nextWeekly(cfg, anchor)
		if err != nil {
			return nil, err
		}
	case task.ScheduleMonthly:
		if cfg.DayOfMonth < 1 || cfg.DayOfMonth > 31 {
			return nil, fmt.Errorf("%w: monthly requires dayOfMonth 1-31", ErrInvalidConfig)
		}
		next = nextMonthly(cfg, anchor)
	case task.ScheduleYearly:
		if cfg.Month < 1 || cfg.Month > 12 || cfg.Day < 1 || cfg.Day > 31 {
			return nil, fmt.Errorf("%w: yearly requires month 1-12 and day 1-31", ErrInvalidConfig)
		}
		next = nextYearly(cfg, anchor)
	case task.ScheduleCustom:
		if cfg.IntervalMinutes <= 0 {
			return nil, fmt.Errorf("%w: custom requires positive intervalMinutes", ErrInvalidConfig)
		}
		next = anchor.Add(time.Duration(cfg.IntervalMinutes) * time.Minute)
	default:
		return nil, fmt.Errorf("%w: unknown schedule type %q", ErrInvalidConfig, st)
	}

	if cfg.EndDate != nil && next.After(*cfg.EndDate) {
		return nil, nil
	}
	return &next, nil
}

func atClock(cfg task.ScheduleConfig, year int, month time.Month, day int, loc *time.Location) time.Time {
	return time.Date(year, month, day, cfg.Hour, cfg.Minute, 0, 0, loc)
}

func nextDaily(cfg task.ScheduleConfig, anchor time.Time) time.Time {
	interval := cfg.IntervalDays
	if interval <= 0 {
		interval = 1
	}
	cand := atClock(cfg, anchor.Year(), anchor.Month(), anchor.Day(), anchor.Location())
	if cand.After(anchor) {
		return cand
	}
	return cand.AddDate(0, 0, interval)
}

// weekdayIndex maps time.Weekday to the 0=Monday .. 6=Sunday convention.
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func nextWeekly(cfg task.ScheduleConfig, anchor time.Time) (time.Time, error) {
	if len(cfg.Weekdays) == 0 {
		return time.Time{}, fmt.Errorf("%w: weekly requires weekdays", ErrInvalidConfig)
	}
	interval := cfg.IntervalWeeks
	if interval <= 0 {
		interval = 1
	}

	weekdays := make([]int, 0, len(cfg.Weekdays))
	seen := make(map[int]bool)
	for _, wd := range cfg.Weekdays {
		if wd < 0 || wd > 6 {
			return time.Time{}, fmt.Errorf("%w: weekday %d out of range", ErrInvalidConfig, wd)
		}
		if !seen[wd] {
			seen[wd] = true
			weekdays = append(weekdays, wd)
		}
	}
	sort.Ints(weekdays)

	weekStart := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, anchor.Location()).
		AddDate(0, 0, -weekdayIndex(anchor))

	// Remaining weekdays in the anchor's cycle win; earliest first.
	for _, wd := range weekdays {
		day := weekStart.AddDate(0, 0, wd)
		cand := atClock(cfg, day.Year(), day.Month(), day.Day(), anchor.Location())
		if cand.After(anchor) {
			return cand, nil
		}
	}

	// Cycle exhausted; step whole weeks and take the earliest listed weekday.
	day := weekStart.AddDate(0, 0, 7*interval+weekdays[0])
	return atClock(cfg, day.Year(), day.Month(), day.Day(), anchor.Location()), nil
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func clampedDay(year int, month time.Month, day int) int {
	if max := daysInMonth(year, month); day > max {
		return max
	}
	return day
}

func nextMonthly(cfg task.ScheduleConfig, anchor time.Time) time.Time {
	interval := cfg.IntervalMonths
	if interval <= 0 {
		interval = 1
	}
	cand := atClock(cfg, anchor.Year(), anchor.Month(),
		clampedDay(anchor.Year(), anchor.Month(), cfg.DayOfMonth), anchor.Location())
	if cand.After(anchor) {
		return cand
	}
	// Step from the first of the month so AddDate cannot spill into the
	// following month before the day is clamped.
	first := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, anchor.Location()).
		AddDate(0, interval, 0)
	return atClock(cfg, first.Year(), first.Month(),
		clampedDay(first.Year(), first.Month(), cfg.DayOfMonth), anchor.Location())
}

func nextYearly(cfg task.ScheduleConfig, anchor time.Time) time.Time {
	interval := cfg.IntervalYears
	if interval <= 0 {
		interval = 1
	}
	month := time.Month(cfg.Month)
	cand := atClock(cfg, anchor.Year(), month,
		clampedDay(anchor.Year(), month, cfg.Day), anchor.Location())
	if cand.After(anchor) {
		return cand
	}
	year := anchor.Year() + interval
	return atClock(cfg, year, month, clampedDay(year, month, cfg.Day), anchor.Location())
}
