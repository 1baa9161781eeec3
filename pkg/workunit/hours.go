package workunit

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

var ErrMissingBoundary = errors.New("in time and out time are both required")
var ErrIncompleteLunch = errors.New("lunch out and lunch in must be given together")

const minutesPerDay = 24 * 60

// TimeSpan holds wall-clock times of one working day as "HH:MM" (or "HH:MM:SS").
// Empty strings mean not entered.
type TimeSpan struct {
	InTime   string
	LunchOut string
	LunchIn  string
	OutTime  string
}

func (s TimeSpan) HasTimes() bool {
	return strings.TrimSpace(s.InTime) != "" && strings.TrimSpace(s.OutTime) != ""
}

type Hours struct {
	Work  float64
	Break float64
	Total float64
}

// ParseClock returns minutes since midnight.
func ParseClock(value string) (int, error) {
	value = strings.TrimSpace(value)
	layout := "15:04"
	if strings.Count(value, ":") == 2 {
		layout = "15:04:05"
	}
	t, err := time.Parse(layout, value)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", value, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ComputeHours derives worked, break and total hours. An out time earlier than the in time
// is taken to be on the next day. Missing or unreadable boundaries give all zeros, and a
// lunch in before lunch out counts as no break.
func ComputeHours(span TimeSpan) Hours {
	in, errIn := ParseClock(span.InTime)
	out, errOut := ParseClock(span.OutTime)
	if !span.HasTimes() || errIn != nil || errOut != nil {
		return Hours{}
	}

	total := out - in
	if total < 0 {
		total += minutesPerDay
	}

	breakMinutes := 0
	lunchOut, errLunchOut := ParseClock(span.LunchOut)
	lunchIn, errLunchIn := ParseClock(span.LunchIn)
	if errLunchOut == nil && errLunchIn == nil {
		breakMinutes = max(0, lunchIn-lunchOut)
	}

	return Hours{
		Work:  minutesToHours(total - breakMinutes),
		Break: minutesToHours(breakMinutes),
		Total: minutesToHours(total),
	}
}

func minutesToHours(minutes int) float64 {
	return math.Round(float64(minutes)/60*100) / 100
}

// ValidateSpan is the strict counterpart of ComputeHours used where input comes from users.
func ValidateSpan(span TimeSpan) error {
	if !span.HasTimes() {
		return ErrMissingBoundary
	}
	for _, v := range []string{span.InTime, span.OutTime} {
		if _, err := ParseClock(v); err != nil {
			return err
		}
	}
	hasLunchOut := strings.TrimSpace(span.LunchOut) != ""
	hasLunchIn := strings.TrimSpace(span.LunchIn) != ""
	if hasLunchOut != hasLunchIn {
		return ErrIncompleteLunch
	}
	if hasLunchOut {
		if _, err := ParseClock(span.LunchOut); err != nil {
			return err
		}
		if _, err := ParseClock(span.LunchIn); err != nil {
			return err
		}
	}
	return nil
}

// TimeEntry pairs a span with the hours computed from it. It has no setters: a changed
// time means a new TimeEntry, so the hours can never go stale.
type TimeEntry struct {
	span  TimeSpan
	hours Hours
}

func NewTimeEntry(span TimeSpan) TimeEntry {
	return TimeEntry{span: span, hours: ComputeHours(span)}
}

func (e TimeEntry) Span() TimeSpan { return e.span }
func (e TimeEntry) Hours() Hours   { return e.hours }

func (e TimeEntry) HasTimes() bool {
	return e.span.HasTimes()
}

// Alignment checks the entry against the preset of the given unit.
func (e TimeEntry) Alignment(u Unit) Alignment {
	return AlignmentStatus(e.hours.Work, PresetFor(u), e.HasTimes())
}
