package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error

	// GetByID retrieves a patient by primary key. Returns ErrPatientNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	GetByEmail(ctx context.Context, email string) (*Patient, error)

	// ExistsByEmailOrPhone checks for uniqueness without fetching the full record.
	ExistsByEmailOrPhone(ctx context.Context, email, phone string) (bool, error)
}
