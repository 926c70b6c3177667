// Package timeparse converts natural-language or ISO time strings to
// absolute instants. The accepted dialects are part of the management API
// contract, so the grammar is hand-written rather than delegated to a
// library; resolution is always against the injected clock.
package timeparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xpanvictor/chrono/pkg/clock"
)

// ParseError reports rejected input together with the offending token.
type ParseError struct {
	Input string
	Token string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse time %q (offending token %q)", e.Input, e.Token)
}

// Parser resolves time expressions against a Clock.
type Parser struct {
	clock clock.Clock
}

// New creates a Parser.
func New(c clock.Clock) *Parser {
	return &Parser{clock: c}
}

var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

var (
	relativeRe = regexp.MustCompile(`^in\s+(\d+)\s+(minutes?|hours?|days?|weeks?)$`)
	tomorrowRe = regexp.MustCompile(`^tomorrow(?:\s+at\s+(.+))?$`)
	todayRe    = regexp.MustCompile(`^today\s+at\s+(.+)$`)
	clockRe    = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)
)

// Parse converts the input to an absolute instant. Bare clock times that
// already passed today roll to tomorrow. Invalid or ambiguous input returns
// a *ParseError; the parser never guesses.
func (p *Parser) Parse(input string) (time.Time, error) {
	now := p.clock.Now()
	raw := strings.TrimSpace(input)
	norm := strings.ToLower(strings.Join(strings.Fields(raw), " "))
	if norm == "" {
		return time.Time{}, &ParseError{Input: input, Token: ""}
	}

	for _, layout := range absoluteLayouts {
		if t, err := time.ParseInLocation(layout, raw, now.Location()); err == nil {
			return t, nil
		}
	}

	if m := relativeRe.FindStringSubmatch(norm); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, &ParseError{Input: input, Token: m[1]}
		}
		switch strings.TrimSuffix(m[2], "s") {
		case "minute":
			return now.Add(time.Duration(n) * time.Minute), nil
		case "hour":
			return now.Add(time.Duration(n) * time.Hour), nil
		case "day":
			return now.AddDate(0, 0, n), nil
		case "week":
			return now.AddDate(0, 0, 7*n), nil
		}
		return time.Time{}, &ParseError{Input: input, Token: m[2]}
	}

	if m := tomorrowRe.FindStringSubmatch(norm); m != nil {
		hour, minute := 9, 0 // bare "tomorrow" defaults to 09:00
		if m[1] != "" {
			var err error
			hour, minute, err = parseClockToken(m[1])
			if err != nil {
				return time.Time{}, &ParseError{Input: input, Token: m[1]}
			}
		}
		day := now.AddDate(0, 0, 1)
		return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, now.Location()), nil
	}

	if m := todayRe.FindStringSubmatch(norm); m != nil {
		hour, minute, err := parseClockToken(m[1])
		if err != nil {
			return time.Time{}, &ParseError{Input: input, Token: m[1]}
		}
		t := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
		if !t.After(now) {
			t = t.AddDate(0, 0, 1)
		}
		return t, nil
	}

	if hour, minute, err := parseClockToken(norm); err == nil {
		t := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
		if !t.After(now) {
			t = t.AddDate(0, 0, 1)
		}
		return t, nil
	}

	return time.Time{}, &ParseError{Input: input, Token: firstToken(norm)}
}

// parseClockToken accepts "HH", "HH:MM", "H am", "H:MM pm" and the like.
func parseClockToken(s string) (hour, minute int, err error) {
	m := clockRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, fmt.Errorf("not a clock time: %q", s)
	}
	hour, err = strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, err
	}
	if m[2] != "" {
		minute, err = strconv.Atoi(m[2])
		if err != nil {
			return 0, 0, err
		}
	}
	switch m[3] {
	case "am":
		if hour < 1 || hour > 12 {
			return 0, 0, fmt.Errorf("hour %d out of range for am", hour)
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return 0, 0, fmt.Errorf("hour %d out of range for pm", hour)
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour > 23 {
			return 0, 0, fmt.Errorf("hour %d out of range", hour)
		}
	}
	if minute > 59 {
		return 0, 0, fmt.Errorf("minute %d out of range", minute)
	}
	return hour, minute, nil
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return s
	}
	return fields[0]
}
