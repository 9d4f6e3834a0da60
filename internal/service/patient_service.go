package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/patient"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type PatientService struct {
	repo     patient.Repository
	auditSvc *AuditService
	log      *zap.Logger
}

func NewPatientService(repo patient.Repository, auditSvc *AuditService, log *zap.Logger) *PatientService {
	return &PatientService{
		repo:     repo,
		auditSvc: auditSvc,
		log:      log,
	}
}

func (s *PatientService) Register(ctx context.Context, cmd patient.RegisterPatientCommand) (*patient.Patient, error) {
	if err := validateRegisterCommand(cmd); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	phone := strings.TrimSpace(cmd.Phone)

	exists, err := s.repo.ExistsByEmailOrPhone(ctx, email, phone)
	if err != nil {
		s.log.Error("failed to check patient uniqueness", zap.Error(err))
		return nil, persistence(err)
	}
	if exists {
		return nil, patient.ErrPatientAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	p := &patient.Patient{
		Name:         strings.TrimSpace(cmd.Name),
		Email:        email,
		Phone:        phone,
		Address:      strings.TrimSpace(cmd.Address),
		PasswordHash: string(hash),
	}

	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, patient.ErrPatientAlreadyExists) {
			return nil, err
		}
		s.log.Error("failed to create patient", zap.Error(err))
		return nil, persistence(err)
	}

	// Registration is anonymous; attribute the entry to the new account.
	s.auditSvc.LogAsync(AuditEntry{
		UserID:       p.ID,
		UserRole:     domain.RolePatient,
		Action:       domain.ActionCreate,
		ResourceType: "patient",
		ResourceID:   p.ID.String(),
		IPAddress:    CallerFrom(ctx).IP,
		RequestID:    CallerFrom(ctx).RequestID,
	})

	s.log.Info("patient registered", zap.String("patient_id", p.ID.String()))
	return p, nil
}

// Get returns a patient record. Patients may only read their own.
func (s *PatientService) Get(ctx context.Context, id uuid.UUID, caller domain.Identity) (*patient.Patient, error) {
	if caller.IsPatient() && caller.SubjectID != id {
		return nil, ErrForbidden
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, patient.ErrPatientNotFound) {
			return nil, err
		}
		return nil, persistence(err)
	}

	s.auditSvc.Record(ctx, domain.ActionRead, "patient", id.String(), "")
	return p, nil
}

func validateRegisterCommand(cmd patient.RegisterPatientCommand) error {
	var fe fieldErrors
	fe.add(strings.TrimSpace(cmd.Name) == "", "name is required")
	fe.add(!validEmail(cmd.Email), "email is invalid")
	fe.add(!validPhone(cmd.Phone), "phone must be 7-15 digits, optionally prefixed with +")
	fe.add(len(cmd.Password) < minPasswordLength, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	return fe.err()
}

func validPhone(s string) bool {
	s = strings.TrimPrefix(strings.TrimSpace(s), "+")
	if len(s) < 7 || len(s) > 15 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
