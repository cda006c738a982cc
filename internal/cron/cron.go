// Package cron evaluates 5-field UNIX cron expressions
// (minute hour day-of-month month day-of-week).
package cron

import (
	"errors"
	"fmt"
	"strings"
	"time"

	robfig "github.com/robfig/cron/v3"
)

// FallbackDelay is returned by NextDelay when an expression parses but no
// future fire time can be found (e.g. "0 0 30 2 *").
const FallbackDelay = time.Minute

var ErrScheduleParse = errors.New("invalid cron schedule")

var parser = robfig.NewParser(
	robfig.Minute | robfig.Hour | robfig.Dom | robfig.Month | robfig.Dow,
)

// Schedule is a parsed cron expression.
type Schedule struct {
	expr  string
	sched robfig.Schedule
}

// Parse rejects descriptors like "@daily" and anything that is not exactly
// five fields.
func Parse(expr string) (Schedule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Schedule{}, fmt.Errorf("%w: empty expression", ErrScheduleParse)
	}

	if strings.HasPrefix(expr, "@") || len(strings.Fields(expr)) != 5 {
		return Schedule{}, fmt.Errorf("%w: %q: expected 5 fields", ErrScheduleParse, expr)
	}

	s, err := parser.Parse(expr)
	if err != nil {
		return Schedule{}, fmt.Errorf("%w: %q: %v", ErrScheduleParse, expr, err)
	}

	return Schedule{expr: expr, sched: s}, nil
}

func (s Schedule) String() string { return s.expr }

// Next returns the first matching instant strictly after now, or the zero
// time when none exists.
func (s Schedule) Next(now time.Time) time.Time {
	if s.sched == nil {
		return time.Time{}
	}

	return s.sched.Next(now)
}

// Delay is the duration from now until Next, or FallbackDelay.
func (s Schedule) Delay(now time.Time) time.Duration {
	next := s.Next(now)
	if next.IsZero() {
		return FallbackDelay
	}

	d := next.Sub(now)
	if d <= 0 {
		return FallbackDelay
	}

	return d
}

// NextDelay parses expr and returns the time until its next fire.
func NextDelay(expr string, now time.Time) (time.Duration, error) {
	s, err := Parse(expr)
	if err != nil {
		return 0, err
	}

	return s.Delay(now), nil
}
