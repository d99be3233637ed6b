package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DonationType classifies a gift
type DonationType string

const (
	DonationTithe    DonationType = "tithe"
	DonationOffering DonationType = "offering"
	DonationGeneral  DonationType = "general"
)

// Valid reports whether t is a known donation type.
func (t DonationType) Valid() bool {
	switch t {
	case DonationTithe, DonationOffering, DonationGeneral:
		return true
	}
	return false
}

// Donation is a recorded gift. Anonymous donations carry no MemberID.
type Donation struct {
	ID           uuid.UUID       `gorm:"type:text;primary_key" json:"id"`
	Amount       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Type         DonationType    `gorm:"column:donation_type;type:text;not null;index" json:"donation_type"`
	IsAnonymous  bool            `gorm:"not null;default:false" json:"is_anonymous"`
	MemberID     *uuid.UUID      `gorm:"type:text;index" json:"member_id,omitempty"`
	Member       *Member         `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	DonationDate time.Time       `gorm:"not null;index" json:"donation_date"`
	Note         string          `json:"note,omitempty"`
	RecordedByID uuid.UUID       `gorm:"type:text" json:"recorded_by_id"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"-"`
}

// AttributedTo returns the member the donation may be credited to. Anonymous
// donations are never attributed, even when a member id is present.
func (d *Donation) AttributedTo() (uuid.UUID, bool) {
	if d.IsAnonymous || d.MemberID == nil {
		return uuid.Nil, false
	}
	return *d.MemberID, true
}

// BeforeCreate hook to generate UUID
func (d *Donation) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
