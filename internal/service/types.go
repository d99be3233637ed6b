package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/shepherd-church/shepherd/internal/models"
	"github.com/shopspring/decimal"
)

// MemberInput holds the editable fields of a member.
type MemberInput struct {
	MemberCode string     `json:"member_code" validate:"required,alphanum,max=32"`
	FirstName  string     `json:"first_name" validate:"required,max=100"`
	LastName   string     `json:"last_name" validate:"required,max=100"`
	Email      string     `json:"email" validate:"omitempty,email"`
	Phone      string     `json:"phone" validate:"max=32"`
	Address    string     `json:"address" validate:"max=255"`
	BirthDate  *time.Time `json:"birth_date"`
	JoinedAt   *time.Time `json:"joined_at"`
}

// MemberFilter narrows a member listing.
type MemberFilter struct {
	Search          string
	IncludeInactive bool
}

// EventInput holds the editable fields of an event.
type EventInput struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description"`
	StartsAt    time.Time  `json:"starts_at" validate:"required"`
	EndsAt      *time.Time `json:"ends_at"`
	Location    string     `json:"location" validate:"max=200"`
	IsSpecial   bool       `json:"is_special"`
}

// EventFilter narrows an event listing. Zero times are open bounds.
type EventFilter struct {
	From time.Time
	To   time.Time
}

// AttendanceInput records one check-in. Either MemberID or both visitor
// names must be given, never both.
type AttendanceInput struct {
	EventID          uuid.UUID               `json:"event_id" validate:"required"`
	MemberID         *uuid.UUID              `json:"member_id"`
	VisitorFirstName string                  `json:"visitor_first_name" validate:"max=100"`
	VisitorLastName  string                  `json:"visitor_last_name" validate:"max=100"`
	Method           models.AttendanceMethod `json:"attendance_method"`
}

// AttendanceFilter narrows an attendance listing.
type AttendanceFilter struct {
	EventID  *uuid.UUID
	MemberID *uuid.UUID
}

// DonationInput holds the editable fields of a donation.
type DonationInput struct {
	Amount       decimal.Decimal     `json:"amount"`
	Type         models.DonationType `json:"donation_type"`
	IsAnonymous  bool                `json:"is_anonymous"`
	MemberID     *uuid.UUID          `json:"member_id"`
	DonationDate time.Time           `json:"donation_date"`
	Note         string              `json:"note" validate:"max=500"`
}

// DonationFilter narrows a donation listing. Zero times are open bounds.
type DonationFilter struct {
	From     time.Time
	To       time.Time
	Type     models.DonationType
	MemberID *uuid.UUID
}

// PostInput holds the editable fields of a forum post.
type PostInput struct {
	Title  string `json:"title" validate:"required,max=200"`
	Body   string `json:"body" validate:"required"`
	Pinned bool   `json:"pinned"`
}

// CommentInput holds the body of a forum comment.
type CommentInput struct {
	Body string `json:"body" validate:"required,max=2000"`
}

// UserInput holds the fields needed to create an account.
type UserInput struct {
	Username string      `json:"username" validate:"required,min=3,max=64"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=8"`
	Role     models.Role `json:"role"`
}

// ReportInput requests a report over an inclusive period.
type ReportInput struct {
	Type        models.ReportType `json:"type"`
	PeriodStart time.Time         `json:"period_start" validate:"required"`
	PeriodEnd   time.Time         `json:"period_end" validate:"required"`
}
