// Package schedule turns doctors' recurring slot templates into per-day
// availability and decides whether a requested start time can be booked.
//
// A slot is written "HH:MM-HH:MM" and denotes the half-open interval
// [start, end) on whatever day it is applied to.
package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrMalformedSlot = errors.New("malformed slot")

const slotLayout = "15:04"

// TimeOfDay is a wall-clock time with minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// TimeOfDayOf truncates t to the minute in t's location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
}

func (t TimeOfDay) minutes() int {
	return t.Hour*60 + t.Minute
}

func (t TimeOfDay) Before(o TimeOfDay) bool {
	return t.minutes() < o.minutes()
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On places t on the calendar day of date, in date's location.
func (t TimeOfDay) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, 0, 0, date.Location())
}

// ParseSlot splits text into its start and end. The start must be strictly
// before the end.
func ParseSlot(text string) (TimeOfDay, TimeOfDay, error) {
	startText, endText, ok := strings.Cut(text, "-")
	if !ok {
		return TimeOfDay{}, TimeOfDay{}, fmt.Errorf("%w: %q has no '-'", ErrMalformedSlot, text)
	}

	start, err := parseTimeOfDay(startText)
	if err != nil {
		return TimeOfDay{}, TimeOfDay{}, fmt.Errorf("%w: %q start: %v", ErrMalformedSlot, text, err)
	}
	end, err := parseTimeOfDay(endText)
	if err != nil {
		return TimeOfDay{}, TimeOfDay{}, fmt.Errorf("%w: %q end: %v", ErrMalformedSlot, text, err)
	}

	if !start.Before(end) {
		return TimeOfDay{}, TimeOfDay{}, fmt.Errorf("%w: %q start is not before end", ErrMalformedSlot, text)
	}
	return start, end, nil
}

func parseTimeOfDay(s string) (TimeOfDay, error) {
	hourText, minuteText, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return TimeOfDay{}, errors.New("missing ':'")
	}
	hour, err := strconv.Atoi(hourText)
	if err != nil || hour < 0 || hour > 23 {
		return TimeOfDay{}, fmt.Errorf("hour %q out of range", hourText)
	}
	minute, err := strconv.Atoi(minuteText)
	if err != nil || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("minute %q out of range", minuteText)
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// FormatSlot renders [start, end) as "HH:MM-HH:MM".
func FormatSlot(start, end time.Time) string {
	return start.Format(slotLayout) + "-" + end.Format(slotLayout)
}

func formatTimes(start, end TimeOfDay) string {
	return start.String() + "-" + end.String()
}

// CanonicalSlot parses text and renders it back, so "9:00-10:00" and
// "09:00 - 10:00" both become "09:00-10:00".
func CanonicalSlot(text string) (string, error) {
	start, end, err := ParseSlot(text)
	if err != nil {
		return "", err
	}
	return formatTimes(start, end), nil
}

// CanonicalSlots normalises every template, collecting all failures.
func CanonicalSlots(texts []string) ([]string, error) {
	out := make([]string, 0, len(texts))
	var errs []error
	for _, t := range texts {
		c, err := CanonicalSlot(t)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, c)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
