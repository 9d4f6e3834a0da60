package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/schedule"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type DoctorService struct {
	repo       doctor.Repository
	calculator *schedule.Calculator
	auditSvc   *AuditService
	metrics    *metrics.Collector
	loc        *time.Location
	log        *zap.Logger
}

func NewDoctorService(
	repo doctor.Repository,
	calculator *schedule.Calculator,
	auditSvc *AuditService,
	m *metrics.Collector,
	loc *time.Location,
	log *zap.Logger,
) *DoctorService {
	if loc == nil {
		loc = time.UTC
	}
	return &DoctorService{repo: repo, calculator: calculator, auditSvc: auditSvc, metrics: m, loc: loc, log: log}
}

func (s *DoctorService) Create(ctx context.Context, cmd doctor.CreateDoctorCommand) (*doctor.Doctor, error) {
	templates, err := validateCreateDoctor(cmd)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, doctor.ErrDoctorAlreadyExists
	} else if !errors.Is(err, doctor.ErrDoctorNotFound) {
		return nil, persistence(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	d := &doctor.Doctor{
		Name:           strings.TrimSpace(cmd.Name),
		Specialty:      strings.TrimSpace(cmd.Specialty),
		Email:          email,
		Phone:          strings.TrimSpace(cmd.Phone),
		PasswordHash:   string(hash),
		AvailableTimes: templates,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		if errors.Is(err, doctor.ErrDoctorAlreadyExists) {
			return nil, err
		}
		s.log.Error("failed to create doctor", zap.Error(err))
		return nil, persistence(err)
	}

	s.auditSvc.Record(ctx, domain.ActionCreate, "doctor", d.ID.String(), "")
	s.log.Info("doctor created", zap.String("doctor_id", d.ID.String()))
	return d, nil
}

// Update applies the non-nil fields of cmd.
func (s *DoctorService) Update(ctx context.Context, id uuid.UUID, cmd doctor.UpdateDoctorCommand) (*doctor.Doctor, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var fe fieldErrors
	if cmd.Name != nil {
		fe.add(strings.TrimSpace(*cmd.Name) == "", "name must not be empty")
		d.Name = strings.TrimSpace(*cmd.Name)
	}
	if cmd.Specialty != nil {
		fe.add(strings.TrimSpace(*cmd.Specialty) == "", "specialty must not be empty")
		d.Specialty = strings.TrimSpace(*cmd.Specialty)
	}
	if cmd.Phone != nil {
		fe.add(strings.TrimSpace(*cmd.Phone) == "", "phone must not be empty")
		d.Phone = strings.TrimSpace(*cmd.Phone)
	}
	emailChanged := false
	if cmd.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*cmd.Email))
		fe.add(!validEmail(email), "email is invalid")
		emailChanged = email != d.Email
		d.Email = email
	}
	if cmd.AvailableTimes != nil {
		templates, err := schedule.CanonicalSlots(*cmd.AvailableTimes)
		fe.add(err != nil, fmt.Sprintf("available_times: %v", err))
		d.AvailableTimes = templates
	}
	if err := fe.err(); err != nil {
		return nil, err
	}

	if emailChanged {
		if other, err := s.repo.GetByEmail(ctx, d.Email); err == nil && other.ID != d.ID {
			return nil, doctor.ErrDoctorAlreadyExists
		} else if err != nil && !errors.Is(err, doctor.ErrDoctorNotFound) {
			return nil, persistence(err)
		}
	}

	if err := s.repo.Update(ctx, d); err != nil {
		if errors.Is(err, doctor.ErrDoctorNotFound) || errors.Is(err, doctor.ErrDoctorAlreadyExists) {
			return nil, err
		}
		s.log.Error("failed to update doctor", zap.Error(err))
		return nil, persistence(err)
	}

	s.auditSvc.Record(ctx, domain.ActionUpdate, "doctor", d.ID.String(), "")
	return d, nil
}

// Delete removes the doctor together with every appointment they hold.
func (s *DoctorService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, doctor.ErrDoctorNotFound) {
			return err
		}
		s.log.Error("failed to delete doctor", zap.Error(err))
		return persistence(err)
	}

	s.auditSvc.Record(ctx, domain.ActionDelete, "doctor", id.String(), "")
	s.log.Info("doctor deleted", zap.String("doctor_id", id.String()))
	return nil
}

func (s *DoctorService) Get(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, doctor.ErrDoctorNotFound) {
			return nil, err
		}
		return nil, persistence(err)
	}
	return d, nil
}

func (s *DoctorService) List(ctx context.Context) ([]*doctor.Doctor, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, persistence(err)
	}
	return out, nil
}

// Search filters by name and specialty in the store, then keeps doctors with
// at least one template in period.
func (s *DoctorService) Search(ctx context.Context, q doctor.SearchQuery, period schedule.Period) ([]*doctor.Doctor, error) {
	var (
		out []*doctor.Doctor
		err error
	)
	if q.IsEmpty() {
		out, err = s.repo.List(ctx)
	} else {
		out, err = s.repo.Search(ctx, q)
	}
	if err != nil {
		return nil, persistence(err)
	}
	return schedule.FilterByPeriod(out, period), nil
}

// Availability returns the doctor's free slots on the clinic day containing
// date.
func (s *DoctorService) Availability(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	ctx, span := tracer.Start(ctx, "DoctorService.Availability")
	defer span.End()

	s.metrics.AvailabilityLookups.Inc()
	slots, err := s.calculator.Availability(ctx, doctorID, date.In(s.loc))
	if err != nil {
		if errors.Is(err, doctor.ErrDoctorNotFound) {
			return nil, err
		}
		return nil, persistence(err)
	}
	return slots, nil
}

func validateCreateDoctor(cmd doctor.CreateDoctorCommand) ([]string, error) {
	var fe fieldErrors
	fe.add(strings.TrimSpace(cmd.Name) == "", "name is required")
	fe.add(strings.TrimSpace(cmd.Specialty) == "", "specialty is required")
	fe.add(!validEmail(cmd.Email), "email is invalid")
	fe.add(strings.TrimSpace(cmd.Phone) == "", "phone is required")
	fe.add(len(cmd.Password) < minPasswordLength, fmt.Sprintf("password must be at least %d characters", minPasswordLength))

	templates, err := schedule.CanonicalSlots(cmd.AvailableTimes)
	fe.add(err != nil, fmt.Sprintf("available_times: %v", err))

	if err := fe.err(); err != nil {
		return nil, err
	}
	return templates, nil
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(strings.TrimSpace(s))
	return err == nil && addr.Address == strings.TrimSpace(s)
}
