package doctor

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, d *Doctor) error

	// GetByID returns ErrDoctorNotFound if no doctor has the id.
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)

	// GetByEmail returns ErrDoctorNotFound if no doctor has the email.
	GetByEmail(ctx context.Context, email string) (*Doctor, error)

	Update(ctx context.Context, d *Doctor) error

	// Delete removes the doctor and all of their appointments atomically.
	Delete(ctx context.Context, id uuid.UUID) error

	List(ctx context.Context) ([]*Doctor, error)
	Search(ctx context.Context, q SearchQuery) ([]*Doctor, error)
}
