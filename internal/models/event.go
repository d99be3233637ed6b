package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event is a calendar entry that attendance is recorded against
type Event struct {
	ID          uuid.UUID      `gorm:"type:text;primary_key" json:"id"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	StartsAt    time.Time      `gorm:"not null;index" json:"starts_at"`
	EndsAt      *time.Time     `json:"ends_at,omitempty"`
	Location    string         `json:"location,omitempty"`
	IsSpecial   bool           `gorm:"not null;default:false" json:"is_special"`
	CreatedByID uuid.UUID      `gorm:"type:text;index" json:"created_by_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook to generate UUID
func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
