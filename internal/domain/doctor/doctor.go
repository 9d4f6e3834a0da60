package doctor

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Doctor struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Name         string `gorm:"column:name;type:varchar(100);not null;index"`
	Specialty    string `gorm:"column:specialty;type:varchar(50);not null;index"`
	Email        string `gorm:"column:email;type:varchar(255);uniqueIndex;not null"`
	Phone        string `gorm:"column:phone;type:varchar(20);not null"`
	PasswordHash string `gorm:"column:password_hash;type:varchar(255);not null" json:"-"`

	// AvailableTimes holds the recurring daily slot templates ("HH:MM-HH:MM")
	// in declared order. Stored inline so a loaded doctor always has them.
	AvailableTimes []string `gorm:"column:available_times;serializer:json"`
}

func (Doctor) TableName() string {
	return "clinical.doctors"
}

// Templates returns a copy of the slot templates.
func (d *Doctor) Templates() []string {
	out := make([]string, len(d.AvailableTimes))
	copy(out, d.AvailableTimes)
	return out
}

type CreateDoctorCommand struct {
	Name           string
	Specialty      string
	Email          string
	Phone          string
	Password       string
	AvailableTimes []string
}

type UpdateDoctorCommand struct {
	Name           *string
	Specialty      *string
	Email          *string
	Phone          *string
	AvailableTimes *[]string
}

// SearchQuery narrows the doctor directory. Empty fields do not filter.
type SearchQuery struct {
	Name      string // case-insensitive substring
	Specialty string // case-insensitive exact match
}

func (q SearchQuery) IsEmpty() bool {
	return strings.TrimSpace(q.Name) == "" && strings.TrimSpace(q.Specialty) == ""
}
