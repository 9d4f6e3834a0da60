package postgres

import (
	"context"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/prescription"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PrescriptionRepository struct {
	db *gorm.DB
}

func NewPrescriptionRepository(db *gorm.DB) *PrescriptionRepository {
	return &PrescriptionRepository{db: db}
}

func (r *PrescriptionRepository) Create(ctx context.Context, p *prescription.Prescription) error {
	err := r.db.WithContext(ctx).Create(p).Error
	return translate(err, nil, prescription.ErrPrescriptionExists)
}

func (r *PrescriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&prescription.Prescription{}, "id = ?", id).Error
}

func (r *PrescriptionRepository) GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*prescription.Prescription, error) {
	var p prescription.Prescription
	if err := r.db.WithContext(ctx).First(&p, "appointment_id = ?", appointmentID).Error; err != nil {
		return nil, translate(err, prescription.ErrPrescriptionNotFound, nil)
	}
	return &p, nil
}
