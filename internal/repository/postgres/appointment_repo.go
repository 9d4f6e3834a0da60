package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/appointment"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

func (r *AppointmentRepository) Create(ctx context.Context, a *appointment.Appointment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// Update moves a scheduled appointment. Status is never written here, and a
// fulfilled row is left untouched with ErrInvalidStatusTransition.
func (r *AppointmentRepository) Update(ctx context.Context, a *appointment.Appointment) error {
	res := scheduledOnly(r.db.WithContext(ctx), a.ID).
		Select("doctor_id", "appointment_time", "updated_at").
		Updates(a)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.whyUnchanged(ctx, a.ID)
	}
	return nil
}

// Delete removes a scheduled appointment. Fulfilled rows are kept.
func (r *AppointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := scheduledOnly(r.db.WithContext(ctx), id).Delete(&appointment.Appointment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.whyUnchanged(ctx, id)
	}
	return nil
}

func scheduledOnly(db *gorm.DB, id uuid.UUID) *gorm.DB {
	return db.Model(&appointment.Appointment{}).
		Where("id = ? AND status = ?", id, appointment.StatusScheduled)
}

// whyUnchanged tells a missing row apart from one that has left the
// scheduled state.
func (r *AppointmentRepository) whyUnchanged(ctx context.Context, id uuid.UUID) error {
	var n int64
	if err := r.db.WithContext(ctx).Model(&appointment.Appointment{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return appointment.ErrAppointmentNotFound
	}
	return appointment.ErrInvalidStatusTransition
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	var a appointment.Appointment
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, translate(err, appointment.ErrAppointmentNotFound, nil)
	}
	return &a, nil
}

func (r *AppointmentRepository) FindByDoctorAndTimeRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*appointment.Appointment, error) {
	var out []*appointment.Appointment
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND appointment_time >= ? AND appointment_time < ?", doctorID, from, to).
		Order("appointment_time ASC").
		Find(&out).Error
	return out, err
}

func (r *AppointmentRepository) FindByPatientID(ctx context.Context, patientID uuid.UUID) ([]*appointment.Appointment, error) {
	var out []*appointment.Appointment
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("appointment_time ASC").
		Find(&out).Error
	return out, err
}

func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status appointment.Status) error {
	res := r.db.WithContext(ctx).
		Model(&appointment.Appointment{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return appointment.ErrAppointmentNotFound
	}
	return nil
}

func (r *AppointmentRepository) DeleteAllForDoctor(ctx context.Context, doctorID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("doctor_id = ?", doctorID).Delete(&appointment.Appointment{}).Error
}

const summaryColumns = `a.id, a.doctor_id, d.name AS doctor_name,
	a.patient_id, p.name AS patient_name, p.email AS patient_email,
	p.phone AS patient_phone, p.address AS patient_address,
	a.appointment_time, a.status`

func (r *AppointmentRepository) summaries(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("clinical.appointments AS a").
		Select(summaryColumns).
		Joins("JOIN clinical.doctors d ON d.id = a.doctor_id").
		Joins("JOIN clinical.patients p ON p.id = a.patient_id")
}

func (r *AppointmentRepository) ListForDoctor(ctx context.Context, q appointment.DoctorDayQuery) ([]*appointment.Summary, error) {
	db := r.summaries(ctx).
		Where("a.doctor_id = ? AND a.appointment_time >= ? AND a.appointment_time < ?", q.DoctorID, q.From, q.To)
	if name := strings.TrimSpace(q.PatientName); name != "" {
		db = db.Where("p.name ILIKE ?", containsPattern(name))
	}
	return scanSummaries(db)
}

func (r *AppointmentRepository) ListForPatient(ctx context.Context, q appointment.PatientQuery) ([]*appointment.Summary, error) {
	db := r.summaries(ctx).Where("a.patient_id = ?", q.PatientID)
	if q.Status != nil {
		db = db.Where("a.status = ?", *q.Status)
	}
	if name := strings.TrimSpace(q.DoctorName); name != "" {
		db = db.Where("d.name ILIKE ?", containsPattern(name))
	}
	return scanSummaries(db)
}

func scanSummaries(db *gorm.DB) ([]*appointment.Summary, error) {
	var out []*appointment.Summary
	if err := db.Order("a.appointment_time ASC").Scan(&out).Error; err != nil {
		return nil, err
	}
	for _, s := range out {
		s.EndTime = s.AppointmentTime.Add(appointment.ConsultationLength)
	}
	return out, nil
}
