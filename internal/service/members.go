package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shepherd-church/shepherd/internal/audit"
	"github.com/shepherd-church/shepherd/internal/models"
	"github.com/shepherd-church/shepherd/internal/stats"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

// MemberService contains the business logic for the member directory.
type MemberService struct {
	db *gorm.DB
}

// NewMemberService creates a new MemberService.
func NewMemberService(db *gorm.DB) *MemberService {
	return &MemberService{db: db}
}

// normalizeName trims and title-cases a personal name.
func normalizeName(s string) string {
	return cases.Title(language.Und, cases.NoLower).String(strings.TrimSpace(s))
}

func (in *MemberInput) normalize() {
	in.MemberCode = strings.ToUpper(strings.TrimSpace(in.MemberCode))
	in.FirstName = normalizeName(in.FirstName)
	in.LastName = normalizeName(in.LastName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
}

// List returns members ordered by last then first name. Inactive members are
// hidden unless requested.
func (s *MemberService) List(filter MemberFilter) ([]models.Member, error) {
	query := s.db.Model(&models.Member{})
	if !filter.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(member_code) LIKE ? OR LOWER(email) LIKE ?",
			like, like, like, like,
		)
	}

	var members []models.Member
	if err := query.Order("last_name ASC, first_name ASC").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// Get returns a single member by ID.
func (s *MemberService) Get(id string) (*models.Member, error) {
	memberID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var member models.Member
	if err := s.db.Where("id = ?", memberID).First(&member).Error; err != nil {
		return nil, notFound(err)
	}
	return &member, nil
}

// GetByCode returns the member carrying the given member code.
func (s *MemberService) GetByCode(code string) (*models.Member, error) {
	var member models.Member
	code = strings.ToUpper(strings.TrimSpace(code))
	if err := s.db.Where("member_code = ?", code).First(&member).Error; err != nil {
		return nil, notFound(err)
	}
	return &member, nil
}

// Create validates and inserts a new member.
func (s *MemberService) Create(in MemberInput, userID uuid.UUID) (*models.Member, error) {
	in.normalize()
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if err := s.ensureCodeFree(in.MemberCode, uuid.Nil); err != nil {
		return nil, err
	}

	member := models.Member{
		MemberCode: in.MemberCode,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Email:      in.Email,
		Phone:      in.Phone,
		Address:    in.Address,
		BirthDate:  in.BirthDate,
		JoinedAt:   in.JoinedAt,
		IsActive:   true,
	}
	if member.JoinedAt == nil {
		now := time.Now()
		member.JoinedAt = &now
	}

	if err := s.db.Create(&member).Error; err != nil {
		return nil, fmt.Errorf("create member: %w", err)
	}

	audit.LogAction(s.db, userID, audit.ActionCreateMember, audit.Resource("member", member.ID), map[string]interface{}{
		"member_code": member.MemberCode,
		"name":        member.FullName(),
	})
	return &member, nil
}

// Update replaces the editable fields of a member.
func (s *MemberService) Update(id string, in MemberInput, userID uuid.UUID) (*models.Member, error) {
	member, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	in.normalize()
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if in.MemberCode != member.MemberCode {
		if err := s.ensureCodeFree(in.MemberCode, member.ID); err != nil {
			return nil, err
		}
	}

	member.MemberCode = in.MemberCode
	member.FirstName = in.FirstName
	member.LastName = in.LastName
	member.Email = in.Email
	member.Phone = in.Phone
	member.Address = in.Address
	member.BirthDate = in.BirthDate
	if in.JoinedAt != nil {
		member.JoinedAt = in.JoinedAt
	}

	if err := s.db.Save(member).Error; err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}

	audit.LogAction(s.db, userID, audit.ActionUpdateMember, audit.Resource("member", member.ID), map[string]interface{}{
		"member_code": member.MemberCode,
	})
	return member, nil
}

// Deactivate marks a member inactive. The row and its history stay.
func (s *MemberService) Deactivate(id string, userID uuid.UUID) (*models.Member, error) {
	member, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !member.IsActive {
		return member, nil
	}

	if err := s.db.Model(member).Update("is_active", false).Error; err != nil {
		return nil, fmt.Errorf("deactivate member: %w", err)
	}
	member.IsActive = false

	audit.LogAction(s.db, userID, audit.ActionDeactivateMember, audit.Resource("member", member.ID), map[string]interface{}{
		"member_code": member.MemberCode,
	})
	return member, nil
}

// Delete soft-deletes a member, or removes it for good when permanent is
// set. A permanent delete also drops the member's attendance records and
// detaches their donations so totals stay intact.
func (s *MemberService) Delete(id string, permanent bool, userID uuid.UUID) error {
	memberID, err := parseID(id)
	if err != nil {
		return err
	}

	var member models.Member
	query := s.db
	if permanent {
		query = query.Unscoped()
	}
	if err := query.Where("id = ?", memberID).First(&member).Error; err != nil {
		return notFound(err)
	}

	if !permanent {
		if err := s.db.Delete(&member).Error; err != nil {
			return fmt.Errorf("delete member: %w", err)
		}
		audit.LogAction(s.db, userID, audit.ActionDeleteMember, audit.Resource("member", member.ID), map[string]interface{}{
			"member_code": member.MemberCode,
		})
		return nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("member_id = ?", member.ID).Delete(&models.Attendance{}).Error; err != nil {
			return fmt.Errorf("delete attendance: %w", err)
		}
		if err := tx.Unscoped().Model(&models.Donation{}).Where("member_id = ?", member.ID).Update("member_id", nil).Error; err != nil {
			return fmt.Errorf("detach donations: %w", err)
		}
		if err := tx.Unscoped().Delete(&member).Error; err != nil {
			return fmt.Errorf("purge member: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	audit.LogAction(s.db, userID, audit.ActionPurgeMember, audit.Resource("member", member.ID), map[string]interface{}{
		"member_code": member.MemberCode,
		"name":        member.FullName(),
	})
	return nil
}

// AttendanceHistory groups a member's attendance by the month of the event.
func (s *MemberService) AttendanceHistory(id string, limit int) ([]stats.MonthBucket, error) {
	member, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	var records []models.Attendance
	if err := s.db.Preload("Event").Where("member_id = ?", member.ID).Find(&records).Error; err != nil {
		return nil, err
	}
	return stats.GroupAttendanceByMonth(records, limit), nil
}

// ensureCodeFree reports a conflict when another member (including a
// soft-deleted one) already holds code.
func (s *MemberService) ensureCodeFree(code string, self uuid.UUID) error {
	var count int64
	query := s.db.Unscoped().Model(&models.Member{}).Where("member_code = ?", code)
	if self != uuid.Nil {
		query = query.Where("id <> ?", self)
	}
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return &ConflictError{Message: fmt.Sprintf("member code %q is already in use", code)}
	}
	return nil
}
