package service

import (
	"errors"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrForbidden = errors.New("forbidden: insufficient permissions")

	// ErrPersistence marks a storage failure. The cause is joined to it so
	// both errors.Is(err, ErrPersistence) and the driver error are visible.
	ErrPersistence = errors.New("persistence failure")
)

func persistence(cause error) error {
	return errors.Join(ErrPersistence, cause)
}

type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

// fieldErrors collects validation failures; err returns nil when empty.
type fieldErrors []string

func (f *fieldErrors) add(cond bool, msg string) {
	if cond {
		*f = append(*f, msg)
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}

type AuditEntry struct {
	UserID       uuid.UUID
	UserRole     domain.Role
	Action       domain.AuditAction
	ResourceType string
	ResourceID   string
	IPAddress    string
	RequestID    string
	Changes      string
}
