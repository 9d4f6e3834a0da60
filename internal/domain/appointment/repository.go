package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error

	// Update writes doctor and time of a scheduled appointment. Update and
	// Delete return ErrInvalidStatusTransition if the row is no longer
	// scheduled and ErrAppointmentNotFound if it is gone.
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id uuid.UUID) error

	// GetByID returns ErrAppointmentNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// FindByDoctorAndTimeRange returns appointments with from <= time < to.
	FindByDoctorAndTimeRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*Appointment, error)

	FindByPatientID(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error)

	// UpdateStatus returns ErrAppointmentNotFound if no row matched.
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error

	DeleteAllForDoctor(ctx context.Context, doctorID uuid.UUID) error

	ListForDoctor(ctx context.Context, q DoctorDayQuery) ([]*Summary, error)
	ListForPatient(ctx context.Context, q PatientQuery) ([]*Summary, error)
}
