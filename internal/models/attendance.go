package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AttendanceMethod records how a check-in was captured
type AttendanceMethod string

const (
	AttendanceManual  AttendanceMethod = "manual"
	AttendanceQRCode  AttendanceMethod = "qr_code"
	AttendanceVisitor AttendanceMethod = "visitor"
)

// Valid reports whether m is a known method.
func (m AttendanceMethod) Valid() bool {
	switch m {
	case AttendanceManual, AttendanceQRCode, AttendanceVisitor:
		return true
	}
	return false
}

// Attendance is a single check-in at an event. Exactly one of MemberID or
// the visitor name fields is set.
type Attendance struct {
	ID               uuid.UUID        `gorm:"type:text;primary_key" json:"id"`
	EventID          uuid.UUID        `gorm:"type:text;not null;index" json:"event_id"`
	Event            *Event           `gorm:"foreignKey:EventID" json:"event,omitempty"`
	MemberID         *uuid.UUID       `gorm:"type:text;index" json:"member_id,omitempty"`
	Member           *Member          `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	VisitorFirstName string           `json:"visitor_first_name,omitempty"`
	VisitorLastName  string           `json:"visitor_last_name,omitempty"`
	Method           AttendanceMethod `gorm:"column:attendance_method;type:text;not null" json:"attendance_method"`
	RecordedAt       time.Time        `gorm:"not null;index" json:"recorded_at"`
	RecordedByID     uuid.UUID        `gorm:"type:text" json:"recorded_by_id"`
	CreatedAt        time.Time        `json:"created_at"`
	DeletedAt        gorm.DeletedAt   `gorm:"index" json:"-"`
}

// IsVisitor reports whether the record is a visitor check-in.
func (a *Attendance) IsVisitor() bool {
	return a.MemberID == nil
}

// BeforeCreate hook to generate UUID
func (a *Attendance) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
