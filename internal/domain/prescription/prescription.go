package prescription

import (
	"time"

	"github.com/google/uuid"
)

// Prescription records the outcome of a visit. Attaching one fulfils the
// appointment it references.
type Prescription struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`

	AppointmentID uuid.UUID `gorm:"column:appointment_id;type:uuid;not null;uniqueIndex"`
	DoctorID      uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index"`

	PatientName string `gorm:"column:patient_name;type:varchar(100);not null"`
	Medication  string `gorm:"column:medication;type:varchar(100);not null"`
	Dosage      string `gorm:"column:dosage;type:varchar(100);not null"` // e.g. "500mg twice daily"
	DoctorNotes string `gorm:"column:doctor_notes;type:varchar(200)"`
}

func (Prescription) TableName() string {
	return "clinical.prescriptions"
}

type CreatePrescriptionCommand struct {
	AppointmentID uuid.UUID
	DoctorID      uuid.UUID
	PatientName   string
	Medication    string
	Dosage        string
	DoctorNotes   string
}
