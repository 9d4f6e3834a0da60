package postgres

import (
	"context"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
	"gorm.io/gorm"
)

type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) GetByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	var a domain.Admin
	err := r.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&a).Error
	if err != nil {
		return nil, translate(err, domain.ErrAdminNotFound, nil)
	}
	return &a, nil
}

// Upsert creates or replaces the password of an admin account.
func (r *AdminRepository) Upsert(ctx context.Context, a *domain.Admin) error {
	return r.db.WithContext(ctx).
		Where(domain.Admin{Username: a.Username}).
		Assign(domain.Admin{PasswordHash: a.PasswordHash}).
		FirstOrCreate(a).Error
}

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
