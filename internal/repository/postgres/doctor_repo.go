package postgres

import (
	"context"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/prescription"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DoctorRepository struct {
	db *gorm.DB
}

func NewDoctorRepository(db *gorm.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

func (r *DoctorRepository) Create(ctx context.Context, d *doctor.Doctor) error {
	err := r.db.WithContext(ctx).Create(d).Error
	return translate(err, nil, doctor.ErrDoctorAlreadyExists)
}

func (r *DoctorRepository) GetByID(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	var d doctor.Doctor
	err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, doctor.ErrDoctorNotFound, nil)
	}
	return &d, nil
}

func (r *DoctorRepository) GetByEmail(ctx context.Context, email string) (*doctor.Doctor, error) {
	var d doctor.Doctor
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&d).Error
	if err != nil {
		return nil, translate(err, doctor.ErrDoctorNotFound, nil)
	}
	return &d, nil
}

func (r *DoctorRepository) Update(ctx context.Context, d *doctor.Doctor) error {
	res := r.db.WithContext(ctx).
		Model(d).
		Select("name", "specialty", "email", "phone", "available_times", "updated_at").
		Updates(d)
	if res.Error != nil {
		return translate(res.Error, nil, doctor.ErrDoctorAlreadyExists)
	}
	if res.RowsAffected == 0 {
		return doctor.ErrDoctorNotFound
	}
	return nil
}

// Delete removes the doctor's prescriptions, appointments and then the
// doctor in one transaction.
func (r *DoctorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("doctor_id = ?", id).Delete(&prescription.Prescription{}).Error; err != nil {
			return err
		}
		if err := tx.Where("doctor_id = ?", id).Delete(&appointment.Appointment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&doctor.Doctor{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return doctor.ErrDoctorNotFound
		}
		return nil
	})
}

func (r *DoctorRepository) List(ctx context.Context) ([]*doctor.Doctor, error) {
	var out []*doctor.Doctor
	err := r.db.WithContext(ctx).Order("name ASC").Find(&out).Error
	return out, err
}

func (r *DoctorRepository) Search(ctx context.Context, q doctor.SearchQuery) ([]*doctor.Doctor, error) {
	db := r.db.WithContext(ctx)
	if name := strings.TrimSpace(q.Name); name != "" {
		db = db.Where("name ILIKE ?", containsPattern(name))
	}
	if specialty := strings.TrimSpace(q.Specialty); specialty != "" {
		db = db.Where("LOWER(specialty) = ?", strings.ToLower(specialty))
	}

	var out []*doctor.Doctor
	err := db.Order("name ASC").Find(&out).Error
	return out, err
}
