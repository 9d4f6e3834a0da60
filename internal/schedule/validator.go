package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/doctor"
	"github.com/google/uuid"
)

type Verdict int

const (
	VerdictValid Verdict = iota
	VerdictDoctorNotFound
	VerdictSlotTaken
)

func (v Verdict) String() string {
	switch v {
	case VerdictValid:
		return "valid"
	case VerdictDoctorNotFound:
		return "doctor_not_found"
	case VerdictSlotTaken:
		return "slot_taken"
	}
	return "unknown"
}

// Request is a candidate booking. ExcludeID, when set, names an existing
// appointment whose own slot must not count as taken.
type Request struct {
	DoctorID  uuid.UUID
	Time      time.Time
	ExcludeID uuid.UUID
}

// Validator is a membership test of a requested start time against the
// doctor's free slot starts. Bookings must begin exactly on a slot boundary.
type Validator struct {
	doctors    DoctorLookup
	calculator *Calculator
}

func NewValidator(doctors DoctorLookup, calculator *Calculator) *Validator {
	return &Validator{doctors: doctors, calculator: calculator}
}

// Validate returns an error only when a store fails; an unknown doctor is a
// verdict, not an error.
func (v *Validator) Validate(ctx context.Context, req Request) (Verdict, error) {
	d, err := v.doctors.GetByID(ctx, req.DoctorID)
	if err != nil {
		if errors.Is(err, doctor.ErrDoctorNotFound) {
			return VerdictDoctorNotFound, nil
		}
		return VerdictSlotTaken, err
	}

	free, err := v.calculator.available(ctx, d, req.Time, req.ExcludeID)
	if err != nil {
		return VerdictSlotTaken, err
	}

	want := TimeOfDayOf(req.Time)
	for _, slot := range free {
		start, _, err := ParseSlot(slot)
		if err != nil {
			continue
		}
		if start == want {
			return VerdictValid, nil
		}
	}
	return VerdictSlotTaken, nil
}
