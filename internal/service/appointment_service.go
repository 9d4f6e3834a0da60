package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/schedule"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/events"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/lock"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/metrics"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/dmehra2102/prod-golang-projects/medbook/internal/service")

// ListPatientAppointmentsQuery filters a patient's appointment history.
type ListPatientAppointmentsQuery struct {
	Condition  appointment.Condition
	DoctorName string
}

// AppointmentService owns the appointment state machine:
//
//	(none) --Book--> scheduled --MarkFulfilled--> fulfilled
//	scheduled --Cancel--> (none)
//
// Book, Update and Cancel run their check-then-write under a lock keyed by
// doctor and day so two requests can never both claim one slot.
type AppointmentService struct {
	repo      appointment.Repository
	doctors   doctor.Repository
	patients  patient.Repository
	validator *schedule.Validator
	locker    lock.Locker
	publisher events.Publisher
	auditSvc  *AuditService
	metrics   *metrics.Collector
	loc       *time.Location
	log       *zap.Logger
}

func NewAppointmentService(
	repo appointment.Repository,
	doctors doctor.Repository,
	patients patient.Repository,
	validator *schedule.Validator,
	locker lock.Locker,
	publisher events.Publisher,
	auditSvc *AuditService,
	m *metrics.Collector,
	loc *time.Location,
	log *zap.Logger,
) *AppointmentService {
	if loc == nil {
		loc = time.UTC
	}
	return &AppointmentService{
		repo:      repo,
		doctors:   doctors,
		patients:  patients,
		validator: validator,
		locker:    locker,
		publisher: publisher,
		auditSvc:  auditSvc,
		metrics:   m,
		loc:       loc,
		log:       log,
	}
}

func (s *AppointmentService) Book(ctx context.Context, cmd appointment.BookAppointmentCommand) (a *appointment.Appointment, err error) {
	ctx, span := tracer.Start(ctx, "AppointmentService.Book", trace.WithAttributes(
		attribute.String("doctor_id", cmd.DoctorID.String()),
		attribute.String("patient_id", cmd.PatientID.String()),
	))
	defer func() { s.finish(span, "book", err) }()

	var fe fieldErrors
	fe.add(cmd.DoctorID == uuid.Nil, "doctor_id is required")
	fe.add(cmd.PatientID == uuid.Nil, "patient_id is required")
	fe.add(cmd.AppointmentTime.IsZero(), "appointment_time is required")
	if err := fe.err(); err != nil {
		return nil, err
	}

	if _, err := s.patients.GetByID(ctx, cmd.PatientID); err != nil {
		if errors.Is(err, patient.ErrPatientNotFound) {
			return nil, err
		}
		return nil, persistence(err)
	}

	at := s.normalize(cmd.AppointmentTime)

	unlock, err := s.acquire(ctx, cmd.DoctorID, at)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.check(ctx, schedule.Request{DoctorID: cmd.DoctorID, Time: at}); err != nil {
		return nil, err
	}

	a = &appointment.Appointment{
		DoctorID:        cmd.DoctorID,
		PatientID:       cmd.PatientID,
		AppointmentTime: at,
		Status:          appointment.StatusScheduled,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		s.log.Error("failed to create appointment", zap.Error(err))
		return nil, persistence(err)
	}

	s.auditSvc.Record(ctx, domain.ActionCreate, "appointment", a.ID.String(),
		fmt.Sprintf(`{"doctor_id":%q,"appointment_time":%q}`, a.DoctorID, a.AppointmentTime.Format(time.RFC3339)))
	s.publish(ctx, events.AppointmentBooked, a)

	s.log.Info("appointment booked",
		zap.String("appointment_id", a.ID.String()),
		zap.String("doctor_id", a.DoctorID.String()),
		zap.Time("appointment_time", a.AppointmentTime),
	)
	return a, nil
}

// Update moves an existing appointment to a new doctor and/or time. Ownership
// is checked before availability, so a non-owner never learns whether the
// requested slot is free.
func (s *AppointmentService) Update(ctx context.Context, cmd appointment.RescheduleAppointmentCommand) (a *appointment.Appointment, err error) {
	ctx, span := tracer.Start(ctx, "AppointmentService.Update", trace.WithAttributes(
		attribute.String("appointment_id", cmd.ID.String()),
	))
	defer func() { s.finish(span, "update", err) }()

	var fe fieldErrors
	fe.add(cmd.DoctorID == uuid.Nil, "doctor_id is required")
	fe.add(cmd.AppointmentTime.IsZero(), "appointment_time is required")
	if err := fe.err(); err != nil {
		return nil, err
	}

	if _, err := s.loadScheduled(ctx, cmd.ID, cmd.PatientID); err != nil {
		return nil, err
	}

	at := s.normalize(cmd.AppointmentTime)

	unlock, err := s.acquire(ctx, cmd.DoctorID, at)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// A prescription may have landed while we waited for the lock.
	current, err := s.loadScheduled(ctx, cmd.ID, cmd.PatientID)
	if err != nil {
		return nil, err
	}

	req := schedule.Request{DoctorID: cmd.DoctorID, Time: at, ExcludeID: current.ID}
	if err := s.check(ctx, req); err != nil {
		return nil, err
	}

	previous := current.AppointmentTime
	current.DoctorID = cmd.DoctorID
	current.AppointmentTime = at
	if err := s.repo.Update(ctx, current); err != nil {
		if errors.Is(err, appointment.ErrAppointmentNotFound) || errors.Is(err, appointment.ErrInvalidStatusTransition) {
			return nil, err
		}
		s.log.Error("failed to update appointment", zap.Error(err))
		return nil, persistence(err)
	}

	s.auditSvc.Record(ctx, domain.ActionUpdate, "appointment", current.ID.String(),
		fmt.Sprintf(`{"from":%q,"to":%q,"doctor_id":%q}`,
			previous.Format(time.RFC3339), at.Format(time.RFC3339), current.DoctorID))
	s.publish(ctx, events.AppointmentRescheduled, current)

	s.log.Info("appointment rescheduled",
		zap.String("appointment_id", current.ID.String()),
		zap.Time("from", previous),
		zap.Time("to", at),
	)
	return current, nil
}

// Cancel hard-deletes a scheduled appointment, freeing its slot.
func (s *AppointmentService) Cancel(ctx context.Context, id, patientID uuid.UUID) (err error) {
	ctx, span := tracer.Start(ctx, "AppointmentService.Cancel", trace.WithAttributes(
		attribute.String("appointment_id", id.String()),
	))
	defer func() { s.finish(span, "cancel", err) }()

	a, err := s.loadScheduled(ctx, id, patientID)
	if err != nil {
		return err
	}

	unlock, err := s.acquire(ctx, a.DoctorID, a.AppointmentTime.In(s.loc))
	if err != nil {
		return err
	}
	defer unlock()

	if a, err = s.loadScheduled(ctx, id, patientID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, appointment.ErrAppointmentNotFound) || errors.Is(err, appointment.ErrInvalidStatusTransition) {
			return err
		}
		s.log.Error("failed to delete appointment", zap.Error(err))
		return persistence(err)
	}

	s.auditSvc.Record(ctx, domain.ActionDelete, "appointment", id.String(), "")
	s.publish(ctx, events.AppointmentCancelled, a)

	s.log.Info("appointment cancelled", zap.String("appointment_id", id.String()))
	return nil
}

// MarkFulfilled flips the appointment to fulfilled. Repeating it is a no-op.
// It holds the appointment's doctor-day lock so a concurrent cancel or
// reschedule of the same day sees the new status.
func (s *AppointmentService) MarkFulfilled(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := tracer.Start(ctx, "AppointmentService.MarkFulfilled", trace.WithAttributes(
		attribute.String("appointment_id", id.String()),
	))
	defer func() { s.finish(span, "fulfil", err) }()

	a, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if a.Status == appointment.StatusFulfilled {
		return nil
	}

	unlock, err := s.acquire(ctx, a.DoctorID, a.AppointmentTime.In(s.loc))
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.repo.UpdateStatus(ctx, id, appointment.StatusFulfilled); err != nil {
		if errors.Is(err, appointment.ErrAppointmentNotFound) {
			return err
		}
		return persistence(err)
	}

	a.Status = appointment.StatusFulfilled
	s.auditSvc.Record(ctx, domain.ActionUpdate, "appointment", id.String(), `{"status":"fulfilled"}`)
	s.publish(ctx, events.AppointmentFulfilled, a)
	return nil
}

func (s *AppointmentService) load(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, appointment.ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, persistence(err)
	}
	return a, nil
}

// loadScheduled loads an appointment patientID may still change.
func (s *AppointmentService) loadScheduled(ctx context.Context, id, patientID uuid.UUID) (*appointment.Appointment, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.IsOwnedBy(patientID) {
		return nil, appointment.ErrUnauthorized
	}
	if !a.IsMutable() {
		return nil, appointment.ErrInvalidStatusTransition
	}
	return a, nil
}

// normalize places t in the clinic's timezone at minute precision.
func (s *AppointmentService) normalize(t time.Time) time.Time {
	return t.In(s.loc).Truncate(time.Minute)
}

func lockKey(doctorID uuid.UUID, at time.Time) string {
	return doctorID.String() + "|" + at.Format(time.DateOnly)
}

func (s *AppointmentService) acquire(ctx context.Context, doctorID uuid.UUID, at time.Time) (lock.Unlock, error) {
	start := time.Now()
	unlock, err := s.locker.Lock(ctx, lockKey(doctorID, at))
	s.metrics.LockWaitDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.log.Error("failed to acquire booking lock", zap.Error(err))
		return nil, persistence(fmt.Errorf("acquiring booking lock: %w", err))
	}
	return unlock, nil
}

func (s *AppointmentService) check(ctx context.Context, req schedule.Request) error {
	verdict, err := s.validator.Validate(ctx, req)
	if err != nil {
		s.log.Error("availability check failed", zap.Error(err))
		return persistence(err)
	}

	switch verdict {
	case schedule.VerdictDoctorNotFound:
		return doctor.ErrDoctorNotFound
	case schedule.VerdictSlotTaken:
		return appointment.ErrSlotTaken
	}
	return nil
}

func (s *AppointmentService) publish(ctx context.Context, t events.Type, a *appointment.Appointment) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	err := s.publisher.Publish(ctx, events.Event{
		Type:            t,
		AppointmentID:   a.ID,
		DoctorID:        a.DoctorID,
		PatientID:       a.PatientID,
		AppointmentTime: a.AppointmentTime,
	})
	if err != nil {
		// The write already committed; consumers reconcile from the table.
		s.log.Warn("failed to publish appointment event",
			zap.String("type", string(t)),
			zap.String("appointment_id", a.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *AppointmentService) finish(span trace.Span, operation string, err error) {
	outcome := outcomeOf(err)
	s.metrics.AppointmentsTotal.WithLabelValues(operation, outcome).Inc()
	span.SetAttributes(attribute.String("outcome", outcome))
	if errors.Is(err, ErrPersistence) {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	span.End()
}

func outcomeOf(err error) string {
	var validErr *ValidationError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &validErr):
		return "invalid"
	case errors.Is(err, appointment.ErrSlotTaken):
		return "slot_taken"
	case errors.Is(err, doctor.ErrDoctorNotFound):
		return "doctor_not_found"
	case errors.Is(err, patient.ErrPatientNotFound):
		return "patient_not_found"
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		return "not_found"
	case errors.Is(err, appointment.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, appointment.ErrInvalidStatusTransition):
		return "invalid_transition"
	case errors.Is(err, ErrPersistence):
		return "persistence_error"
	}
	return "error"
}
