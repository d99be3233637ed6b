package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shepherd-church/shepherd/internal/audit"
	"github.com/shepherd-church/shepherd/internal/models"
	"github.com/shepherd-church/shepherd/internal/stats"
	"gorm.io/gorm"
)

// DonationService contains the business logic for recorded gifts.
type DonationService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDonationService creates a new DonationService.
func NewDonationService(db *gorm.DB) *DonationService {
	return &DonationService{db: db, now: time.Now}
}

func (s *DonationService) validate(in *DonationInput) error {
	in.Note = strings.TrimSpace(in.Note)
	if err := validateStruct(in); err != nil {
		return err
	}
	if !in.Amount.IsPositive() {
		return &ValidationError{Message: "amount must be greater than zero"}
	}
	if !in.Amount.Equal(in.Amount.Round(2)) {
		return &ValidationError{Message: "amount cannot have more than two decimal places"}
	}
	if in.Type == "" {
		in.Type = models.DonationGeneral
	}
	if !in.Type.Valid() {
		return &ValidationError{Message: fmt.Sprintf("invalid donation type %q", in.Type)}
	}
	if in.IsAnonymous && in.MemberID != nil {
		return &ValidationError{Message: "anonymous donations cannot reference a member"}
	}
	if in.DonationDate.IsZero() {
		in.DonationDate = s.now()
	}

	if in.MemberID != nil {
		var count int64
		if err := s.db.Model(&models.Member{}).Where("id = ?", *in.MemberID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return &ValidationError{Message: "member does not exist"}
		}
	}
	return nil
}

// List returns donations, most recent first, with the donor loaded.
func (s *DonationService) List(filter DonationFilter) ([]models.Donation, error) {
	query := s.db.Preload("Member")
	if !filter.From.IsZero() {
		query = query.Where("donation_date >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("donation_date <= ?", filter.To)
	}
	if filter.Type != "" {
		query = query.Where("donation_type = ?", filter.Type)
	}
	if filter.MemberID != nil {
		query = query.Where("member_id = ? AND is_anonymous = ?", *filter.MemberID, false)
	}

	var donations []models.Donation
	if err := query.Order("donation_date DESC").Find(&donations).Error; err != nil {
		return nil, err
	}
	return donations, nil
}

// Get returns a single donation by ID.
func (s *DonationService) Get(id string) (*models.Donation, error) {
	donationID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var donation models.Donation
	if err := s.db.Preload("Member").Where("id = ?", donationID).First(&donation).Error; err != nil {
		return nil, notFound(err)
	}
	return &donation, nil
}

// Create validates and records a donation.
func (s *DonationService) Create(in DonationInput, userID uuid.UUID) (*models.Donation, error) {
	if err := s.validate(&in); err != nil {
		return nil, err
	}

	donation := models.Donation{
		Amount:       in.Amount.Round(2),
		Type:         in.Type,
		IsAnonymous:  in.IsAnonymous,
		MemberID:     in.MemberID,
		DonationDate: in.DonationDate,
		Note:         in.Note,
		RecordedByID: userID,
	}
	if err := s.db.Create(&donation).Error; err != nil {
		return nil, fmt.Errorf("create donation: %w", err)
	}

	audit.LogAction(s.db, userID, audit.ActionCreateDonation, audit.Resource("donation", donation.ID), map[string]interface{}{
		"amount":       donation.Amount.StringFixed(2),
		"type":         donation.Type,
		"is_anonymous": donation.IsAnonymous,
	})
	return &donation, nil
}

// Update replaces the editable fields of a donation.
func (s *DonationService) Update(id string, in DonationInput, userID uuid.UUID) (*models.Donation, error) {
	donation, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(&in); err != nil {
		return nil, err
	}

	donation.Amount = in.Amount.Round(2)
	donation.Type = in.Type
	donation.IsAnonymous = in.IsAnonymous
	donation.MemberID = in.MemberID
	donation.Member = nil
	donation.DonationDate = in.DonationDate
	donation.Note = in.Note

	if err := s.db.Save(donation).Error; err != nil {
		return nil, fmt.Errorf("update donation: %w", err)
	}

	audit.LogAction(s.db, userID, audit.ActionUpdateDonation, audit.Resource("donation", donation.ID), map[string]interface{}{
		"amount": donation.Amount.StringFixed(2),
		"type":   donation.Type,
	})
	return donation, nil
}

// Delete removes a donation.
func (s *DonationService) Delete(id string, userID uuid.UUID) error {
	donation, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := s.db.Delete(donation).Error; err != nil {
		return fmt.Errorf("delete donation: %w", err)
	}

	audit.LogAction(s.db, userID, audit.ActionDeleteDonation, audit.Resource("donation", donation.ID), map[string]interface{}{
		"amount": donation.Amount.StringFixed(2),
	})
	return nil
}

// Breakdown summarises donations in the window named by preset ("7d",
// "30d" or "3m"), ending now.
func (s *DonationService) Breakdown(preset string) (stats.BreakdownSummary, error) {
	window, err := stats.WindowFor(preset, s.now())
	if err != nil {
		return stats.BreakdownSummary{}, &ValidationError{Message: err.Error()}
	}
	return s.BreakdownRange(window.Start, window.End)
}

// BreakdownRange summarises donations dated within [start, end].
func (s *DonationService) BreakdownRange(start, end time.Time) (stats.BreakdownSummary, error) {
	if end.Before(start) {
		return stats.BreakdownSummary{}, &ValidationError{Message: "end must not be before start"}
	}
	var donations []models.Donation
	if err := s.db.Where("donation_date >= ? AND donation_date <= ?", start, end).
		Order("donation_date ASC, created_at ASC").
		Find(&donations).Error; err != nil {
		return stats.BreakdownSummary{}, err
	}
	return stats.ComputeDonationBreakdown(donations, start, end), nil
}
