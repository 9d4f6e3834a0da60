package patient

import (
	"time"

	"github.com/google/uuid"
)

type Patient struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Name         string `gorm:"column:name;type:varchar(100);not null;index"`
	Email        string `gorm:"column:email;type:varchar(255);uniqueIndex;not null"`
	Phone        string `gorm:"column:phone;type:varchar(20);uniqueIndex;not null"`
	Address      string `gorm:"column:address;type:varchar(255)"`
	PasswordHash string `gorm:"column:password_hash;type:varchar(255);not null" json:"-"`
}

func (Patient) TableName() string {
	return "clinical.patients"
}

type RegisterPatientCommand struct {
	Name     string
	Email    string
	Phone    string
	Address  string
	Password string
}
