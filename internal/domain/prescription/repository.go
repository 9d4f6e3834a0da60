package prescription

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	Delete(ctx context.Context, id uuid.UUID) error

	// GetByAppointmentID returns ErrPrescriptionNotFound if absent.
	GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*Prescription, error)
}
