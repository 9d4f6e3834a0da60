package schedule

import (
	"strings"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/doctor"
)

type Period int

const (
	PeriodAny Period = iota
	PeriodAM
	PeriodPM
)

// ParsePeriod accepts "AM", "PM" (any case) or blank. ok is false for
// anything else, in which case the period is PeriodAny.
func ParsePeriod(s string) (p Period, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return PeriodAny, true
	case "am":
		return PeriodAM, true
	case "pm":
		return PeriodPM, true
	}
	return PeriodAny, false
}

func (p Period) matches(slot string) bool {
	if p == PeriodAny {
		return true
	}
	start, _, err := ParseSlot(slot)
	if err != nil {
		return false
	}
	if p == PeriodAM {
		return start.Hour < 12
	}
	return start.Hour >= 12
}

// HasSlotIn reports whether any slot starts in period.
func HasSlotIn(slots []string, p Period) bool {
	if p == PeriodAny {
		return true
	}
	for _, s := range slots {
		if p.matches(s) {
			return true
		}
	}
	return false
}

// FilterSlots keeps slots starting in period.
func FilterSlots(slots []string, p Period) []string {
	if p == PeriodAny {
		return slots
	}
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		if p.matches(s) {
			out = append(out, s)
		}
	}
	return out
}

// FilterByPeriod keeps doctors with at least one template starting in period.
func FilterByPeriod(doctors []*doctor.Doctor, p Period) []*doctor.Doctor {
	if p == PeriodAny {
		return doctors
	}
	out := make([]*doctor.Doctor, 0, len(doctors))
	for _, d := range doctors {
		if HasSlotIn(d.AvailableTimes, p) {
			out = append(out, d)
		}
	}
	return out
}
