package postgres

import (
	"context"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/patient"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PatientRepository struct {
	db *gorm.DB
}

func NewPatientRepository(db *gorm.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

func (r *PatientRepository) Create(ctx context.Context, p *patient.Patient) error {
	err := r.db.WithContext(ctx).Create(p).Error
	return translate(err, nil, patient.ErrPatientAlreadyExists)
}

func (r *PatientRepository) GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	var p patient.Patient
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err, patient.ErrPatientNotFound, nil)
	}
	return &p, nil
}

func (r *PatientRepository) GetByEmail(ctx context.Context, email string) (*patient.Patient, error) {
	var p patient.Patient
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&p).Error
	if err != nil {
		return nil, translate(err, patient.ErrPatientNotFound, nil)
	}
	return &p, nil
}

func (r *PatientRepository) ExistsByEmailOrPhone(ctx context.Context, email, phone string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&patient.Patient{}).
		Where("LOWER(email) = ? OR phone = ?", strings.ToLower(strings.TrimSpace(email)), strings.TrimSpace(phone)).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}
