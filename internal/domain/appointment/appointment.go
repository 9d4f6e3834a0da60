package appointment

import (
	"time"

	"github.com/google/uuid"
)

// ConsultationLength is the fixed duration of every appointment. The end of
// an appointment is never stored.
const ConsultationLength = time.Hour

// State transitions possibilities:
//
//	(none) → scheduled   on booking
//	scheduled → fulfilled once a prescription is attached
//	scheduled → (none)   on cancellation (hard delete)
type Status int

const (
	StatusScheduled Status = 0
	StatusFulfilled Status = 1
)

func (s Status) String() string {
	switch s {
	case StatusScheduled:
		return "scheduled"
	case StatusFulfilled:
		return "fulfilled"
	}
	return "unknown"
}

type Appointment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	DoctorID  uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index"`
	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`

	AppointmentTime time.Time `gorm:"column:appointment_time;not null;index"`
	Status          Status    `gorm:"column:status;not null;default:0;index"`
}

func (Appointment) TableName() string {
	return "clinical.appointments"
}

func (a *Appointment) EndsAt() time.Time {
	return a.AppointmentTime.Add(ConsultationLength)
}

// IsOwnedBy reports whether patientID created the appointment.
func (a *Appointment) IsOwnedBy(patientID uuid.UUID) bool {
	return a.PatientID == patientID
}

// IsMutable reports whether the appointment may still be rescheduled or
// cancelled. It is false once the visit has been recorded.
func (a *Appointment) IsMutable() bool {
	return a.Status == StatusScheduled
}

// DayWindow returns the half-open window [00:00, next day 00:00) containing t
// in t's location.
func DayWindow(t time.Time) (time.Time, time.Time) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

type BookAppointmentCommand struct {
	DoctorID        uuid.UUID
	PatientID       uuid.UUID
	AppointmentTime time.Time
}

// RescheduleAppointmentCommand overwrites the time and doctor of an existing
// appointment. PatientID is the caller's identity and must match the owner.
type RescheduleAppointmentCommand struct {
	ID              uuid.UUID
	DoctorID        uuid.UUID
	PatientID       uuid.UUID
	AppointmentTime time.Time
}

// Condition selects patient appointment history.
type Condition string

const (
	ConditionAll    Condition = ""
	ConditionPast   Condition = "past"
	ConditionFuture Condition = "future"
)

func (c Condition) IsValid() bool {
	switch c {
	case ConditionAll, ConditionPast, ConditionFuture:
		return true
	}
	return false
}

// Status maps a condition onto the appointment status it selects.
func (c Condition) Status() *Status {
	var s Status
	switch c {
	case ConditionPast:
		s = StatusFulfilled
	case ConditionFuture:
		s = StatusScheduled
	default:
		return nil
	}
	return &s
}

type DoctorDayQuery struct {
	DoctorID    uuid.UUID
	From        time.Time
	To          time.Time
	PatientName string // case-insensitive substring, empty means all
}

type PatientQuery struct {
	PatientID  uuid.UUID
	Status     *Status
	DoctorName string // case-insensitive substring, empty means all
}

// Summary is the read model joined with doctor and patient details.
type Summary struct {
	ID              uuid.UUID `json:"id"`
	DoctorID        uuid.UUID `json:"doctor_id"`
	DoctorName      string    `json:"doctor_name"`
	PatientID       uuid.UUID `json:"patient_id"`
	PatientName     string    `json:"patient_name"`
	PatientEmail    string    `json:"patient_email"`
	PatientPhone    string    `json:"patient_phone"`
	PatientAddress  string    `json:"patient_address"`
	AppointmentTime time.Time `json:"appointment_time"`
	EndTime         time.Time `json:"end_time"`
	Status          Status    `json:"status"`
}
