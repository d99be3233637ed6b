package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Member is a congregation directory entry. A member may sign in when a
// User exists whose username equals MemberCode.
type Member struct {
	ID         uuid.UUID      `gorm:"type:text;primary_key" json:"id"`
	MemberCode string         `gorm:"uniqueIndex;not null" json:"member_code"`
	FirstName  string         `gorm:"not null" json:"first_name"`
	LastName   string         `gorm:"not null;index" json:"last_name"`
	Email      string         `json:"email,omitempty"`
	Phone      string         `json:"phone,omitempty"`
	Address    string         `json:"address,omitempty"`
	BirthDate  *time.Time     `json:"birth_date,omitempty"`
	JoinedAt   *time.Time     `json:"joined_at,omitempty"`
	IsActive   bool           `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// FullName returns "First Last".
func (m *Member) FullName() string {
	return m.FirstName + " " + m.LastName
}

// BeforeCreate hook to generate UUID
func (m *Member) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
