package v1

import (
	"errors"
	"strings"
	"time"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/prescription"
	"github.com/google/uuid"
)

type doctorResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Specialty      string    `json:"specialty"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	AvailableTimes []string  `json:"available_times"`
}

func toDoctorResponse(d *doctor.Doctor) doctorResponse {
	return doctorResponse{
		ID:             d.ID,
		Name:           d.Name,
		Specialty:      d.Specialty,
		Email:          d.Email,
		Phone:          d.Phone,
		AvailableTimes: d.Templates(),
	}
}

func toDoctorResponses(ds []*doctor.Doctor) []doctorResponse {
	out := make([]doctorResponse, 0, len(ds))
	for _, d := range ds {
		out = append(out, toDoctorResponse(d))
	}
	return out
}

type patientResponse struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Phone   string    `json:"phone"`
	Address string    `json:"address"`
}

func toPatientResponse(p *patient.Patient) patientResponse {
	return patientResponse{ID: p.ID, Name: p.Name, Email: p.Email, Phone: p.Phone, Address: p.Address}
}

type appointmentResponse struct {
	ID              uuid.UUID `json:"id"`
	DoctorID        uuid.UUID `json:"doctor_id"`
	PatientID       uuid.UUID `json:"patient_id"`
	AppointmentTime time.Time `json:"appointment_time"`
	EndTime         time.Time `json:"end_time"`
	Status          string    `json:"status"`
}

func toAppointmentResponse(a *appointment.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:              a.ID,
		DoctorID:        a.DoctorID,
		PatientID:       a.PatientID,
		AppointmentTime: a.AppointmentTime,
		EndTime:         a.EndsAt(),
		Status:          a.Status.String(),
	}
}

type prescriptionResponse struct {
	ID            uuid.UUID `json:"id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	DoctorID      uuid.UUID `json:"doctor_id"`
	PatientName   string    `json:"patient_name"`
	Medication    string    `json:"medication"`
	Dosage        string    `json:"dosage"`
	DoctorNotes   string    `json:"doctor_notes"`
	CreatedAt     time.Time `json:"created_at"`
}

func toPrescriptionResponse(p *prescription.Prescription) prescriptionResponse {
	return prescriptionResponse{
		ID:            p.ID,
		AppointmentID: p.AppointmentID,
		DoctorID:      p.DoctorID,
		PatientName:   p.PatientName,
		Medication:    p.Medication,
		Dosage:        p.Dosage,
		DoctorNotes:   p.DoctorNotes,
		CreatedAt:     p.CreatedAt,
	}
}

var errBadTimestamp = errors.New("expected RFC 3339 or YYYY-MM-DDTHH:MM")

// parseTimestamp accepts an absolute RFC 3339 instant, or a wall-clock
// "YYYY-MM-DDTHH:MM" (or with a space) read in the clinic's location.
func parseTimestamp(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errBadTimestamp
}
