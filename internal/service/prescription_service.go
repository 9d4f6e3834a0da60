package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/prescription"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxDoctorNotes = 200

type PrescriptionService struct {
	repo            prescription.Repository
	appointmentRepo appointment.Repository
	appointments    *AppointmentService
	auditSvc        *AuditService
	metrics         *metrics.Collector
	log             *zap.Logger
}

func NewPrescriptionService(
	repo prescription.Repository,
	appointmentRepo appointment.Repository,
	appointments *AppointmentService,
	auditSvc *AuditService,
	m *metrics.Collector,
	log *zap.Logger,
) *PrescriptionService {
	return &PrescriptionService{
		repo:            repo,
		appointmentRepo: appointmentRepo,
		appointments:    appointments,
		auditSvc:        auditSvc,
		metrics:         m,
		log:             log,
	}
}

// Save records the outcome of a visit and fulfils its appointment. Only the
// doctor the appointment is with may prescribe.
func (s *PrescriptionService) Save(ctx context.Context, cmd prescription.CreatePrescriptionCommand, caller domain.Identity) (*prescription.Prescription, error) {
	if !caller.IsDoctor() {
		return nil, ErrForbidden
	}

	var fe fieldErrors
	fe.add(cmd.AppointmentID == uuid.Nil, "appointment_id is required")
	fe.add(strings.TrimSpace(cmd.PatientName) == "", "patient_name is required")
	fe.add(strings.TrimSpace(cmd.Medication) == "", "medication is required")
	fe.add(strings.TrimSpace(cmd.Dosage) == "", "dosage is required")
	fe.add(utf8.RuneCountInString(cmd.DoctorNotes) > maxDoctorNotes, "doctor_notes must be at most 200 characters")
	if err := fe.err(); err != nil {
		return nil, err
	}

	a, err := s.appointmentRepo.GetByID(ctx, cmd.AppointmentID)
	if err != nil {
		if errors.Is(err, appointment.ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, persistence(err)
	}
	if a.DoctorID != caller.SubjectID {
		return nil, ErrForbidden
	}

	p := &prescription.Prescription{
		AppointmentID: a.ID,
		DoctorID:      caller.SubjectID,
		PatientName:   strings.TrimSpace(cmd.PatientName),
		Medication:    strings.TrimSpace(cmd.Medication),
		Dosage:        strings.TrimSpace(cmd.Dosage),
		DoctorNotes:   strings.TrimSpace(cmd.DoctorNotes),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, prescription.ErrPrescriptionExists) {
			return nil, err
		}
		s.log.Error("failed to create prescription", zap.Error(err))
		return nil, persistence(err)
	}

	if err := s.appointments.MarkFulfilled(ctx, a.ID); err != nil {
		s.discard(ctx, p)
		return nil, err
	}

	s.metrics.PrescriptionsIssued.Inc()
	s.auditSvc.Record(ctx, domain.ActionCreate, "prescription", p.ID.String(), "")
	return p, nil
}

// GetByAppointment is open to the prescribing doctor and the patient.
func (s *PrescriptionService) GetByAppointment(ctx context.Context, appointmentID uuid.UUID, caller domain.Identity) (*prescription.Prescription, error) {
	a, err := s.appointmentRepo.GetByID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, appointment.ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, persistence(err)
	}

	switch {
	case caller.IsPatient() && a.PatientID != caller.SubjectID:
		return nil, ErrForbidden
	case caller.IsDoctor() && a.DoctorID != caller.SubjectID:
		return nil, ErrForbidden
	}

	p, err := s.repo.GetByAppointmentID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, prescription.ErrPrescriptionNotFound) {
			return nil, err
		}
		return nil, persistence(err)
	}

	s.auditSvc.Record(ctx, domain.ActionRead, "prescription", p.ID.String(), "")
	return p, nil
}

// discard removes a prescription whose appointment could not be fulfilled,
// so the doctor can retry the save.
func (s *PrescriptionService) discard(ctx context.Context, p *prescription.Prescription) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	if err := s.repo.Delete(ctx, p.ID); err != nil {
		s.log.Error("orphaned prescription left behind",
			zap.String("prescription_id", p.ID.String()),
			zap.String("appointment_id", p.AppointmentID.String()),
			zap.Error(err),
		)
	}
}
