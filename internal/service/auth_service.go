package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/auth"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type AdminRepository interface {
	GetByUsername(ctx context.Context, username string) (*domain.Admin, error)
	Upsert(ctx context.Context, a *domain.Admin) error
}

// principal is the credential record common to every role.
type principal struct {
	identity     domain.Identity
	passwordHash string
}

type AuthService struct {
	admins     AdminRepository
	doctors    doctor.Repository
	patients   patient.Repository
	jwtManager *auth.JWTManager
	auditSvc   *AuditService
	log        *zap.Logger
}

func NewAuthService(
	admins AdminRepository,
	doctors doctor.Repository,
	patients patient.Repository,
	jwtManager *auth.JWTManager,
	auditSvc *AuditService,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		admins:     admins,
		doctors:    doctors,
		patients:   patients,
		jwtManager: jwtManager,
		auditSvc:   auditSvc,
		log:        log,
	}
}

// Login verifies a role-specific credential. login is the username for
// admins and the email for doctors and patients.
func (s *AuthService) Login(ctx context.Context, role domain.Role, login, password string) (*domain.TokenPair, error) {
	p, err := s.lookup(ctx, role, login)
	if err != nil {
		// Burn a bcrypt round so unknown accounts take as long as known ones.
		_, _ = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if errors.Is(err, ErrInvalidCredentials) {
			return nil, err
		}
		return nil, persistence(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(p.passwordHash), []byte(password)); err != nil {
		s.log.Warn("failed login attempt",
			zap.String("role", string(role)),
			zap.String("login", login),
			zap.String("ip", CallerFrom(ctx).IP),
		)
		return nil, ErrInvalidCredentials
	}

	pair, err := s.jwtManager.GenerateTokenPair(p.identity)
	if err != nil {
		s.log.Error("failed to generate token pair", zap.Error(err))
		return nil, fmt.Errorf("generating tokens: %w", err)
	}

	s.auditSvc.LogAsync(AuditEntry{
		UserID:       p.identity.SubjectID,
		UserRole:     role,
		Action:       domain.ActionLogin,
		ResourceType: string(role),
		ResourceID:   p.identity.SubjectID.String(),
		IPAddress:    CallerFrom(ctx).IP,
		RequestID:    CallerFrom(ctx).RequestID,
	})

	s.log.Info("user logged in",
		zap.String("subject_id", p.identity.SubjectID.String()),
		zap.String("role", string(role)),
	)
	return pair, nil
}

// Refresh issues a new pair for a valid refresh token whose subject still
// exists.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	id, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	switch id.Role {
	case domain.RoleDoctor:
		_, err = s.doctors.GetByID(ctx, id.SubjectID)
	case domain.RolePatient:
		_, err = s.patients.GetByID(ctx, id.SubjectID)
	case domain.RoleAdmin:
		_, err = s.admins.GetByUsername(ctx, id.Email)
	}
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.jwtManager.GenerateTokenPair(*id)
}

// EnsureAdmin creates the admin account or resets its password.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || len(password) < minPasswordLength {
		return &ValidationError{Fields: []string{
			fmt.Sprintf("admin username is required and password must be at least %d characters", minPasswordLength),
		}}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	if err := s.admins.Upsert(ctx, &domain.Admin{Username: username, PasswordHash: string(hash)}); err != nil {
		return persistence(err)
	}
	s.log.Info("admin account ensured", zap.String("username", username))
	return nil
}

func (s *AuthService) lookup(ctx context.Context, role domain.Role, login string) (*principal, error) {
	switch role {
	case domain.RoleAdmin:
		a, err := s.admins.GetByUsername(ctx, login)
		if err != nil {
			return nil, notFoundAsInvalid(err, domain.ErrAdminNotFound)
		}
		return &principal{
			identity:     domain.Identity{SubjectID: a.ID, Email: a.Username, Role: domain.RoleAdmin},
			passwordHash: a.PasswordHash,
		}, nil

	case domain.RoleDoctor:
		d, err := s.doctors.GetByEmail(ctx, login)
		if err != nil {
			return nil, notFoundAsInvalid(err, doctor.ErrDoctorNotFound)
		}
		return &principal{
			identity:     domain.Identity{SubjectID: d.ID, Email: d.Email, Role: domain.RoleDoctor},
			passwordHash: d.PasswordHash,
		}, nil

	case domain.RolePatient:
		p, err := s.patients.GetByEmail(ctx, login)
		if err != nil {
			return nil, notFoundAsInvalid(err, patient.ErrPatientNotFound)
		}
		return &principal{
			identity:     domain.Identity{SubjectID: p.ID, Email: p.Email, Role: domain.RolePatient},
			passwordHash: p.PasswordHash,
		}, nil
	}
	return nil, ErrInvalidCredentials
}

func notFoundAsInvalid(err, notFound error) error {
	if errors.Is(err, notFound) {
		return ErrInvalidCredentials
	}
	return err
}
