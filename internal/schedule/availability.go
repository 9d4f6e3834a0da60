package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/doctor"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DoctorLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error)
}

type AppointmentLookup interface {
	FindByDoctorAndTimeRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*appointment.Appointment, error)
}

// Calculator computes the free slots of a doctor on a given day.
type Calculator struct {
	doctors      DoctorLookup
	appointments AppointmentLookup
	log          *zap.Logger
}

func NewCalculator(doctors DoctorLookup, appointments AppointmentLookup, log *zap.Logger) *Calculator {
	return &Calculator{doctors: doctors, appointments: appointments, log: log}
}

// Availability returns the doctor's templates for date, in declared order,
// minus those whose text equals a booked appointment's [start, start+1h).
//
// The subtraction is by exact slot equality. A template that only partially
// overlaps a booking stays available.
func (c *Calculator) Availability(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	return c.AvailabilityExcluding(ctx, doctorID, date, uuid.Nil)
}

// AvailabilityExcluding is Availability ignoring the appointment exclude, so a
// rescheduled appointment does not collide with itself.
func (c *Calculator) AvailabilityExcluding(ctx context.Context, doctorID uuid.UUID, date time.Time, exclude uuid.UUID) ([]string, error) {
	d, err := c.doctors.GetByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	return c.available(ctx, d, date, exclude)
}

func (c *Calculator) available(ctx context.Context, d *doctor.Doctor, date time.Time, exclude uuid.UUID) ([]string, error) {
	from, to := appointment.DayWindow(date)
	booked, err := c.appointments.FindByDoctorAndTimeRange(ctx, d.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("loading appointments for doctor %s: %w", d.ID, err)
	}

	taken := make(map[string]struct{}, len(booked))
	for _, a := range booked {
		if exclude != uuid.Nil && a.ID == exclude {
			continue
		}
		start := a.AppointmentTime.In(date.Location())
		taken[FormatSlot(start, start.Add(appointment.ConsultationLength))] = struct{}{}
	}

	free := make([]string, 0, len(d.AvailableTimes))
	for _, tmpl := range d.AvailableTimes {
		canonical, err := CanonicalSlot(tmpl)
		if err != nil {
			c.log.Debug("skipping malformed slot template",
				zap.String("doctor_id", d.ID.String()),
				zap.String("template", tmpl),
				zap.Error(err),
			)
			continue
		}
		if _, ok := taken[canonical]; ok {
			continue
		}
		free = append(free, tmpl)
	}
	return free, nil
}
