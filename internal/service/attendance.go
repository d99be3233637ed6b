package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shepherd-church/shepherd/internal/audit"
	"github.com/shepherd-church/shepherd/internal/models"
	"gorm.io/gorm"
)

// QRPayloadPrefix starts every member check-in code.
const QRPayloadPrefix = "shepherd:member:"

// QRPayload returns the text encoded in a member's check-in QR code.
func QRPayload(memberCode string) string {
	return QRPayloadPrefix + memberCode
}

// ParseQRPayload extracts the member code from a scanned check-in code.
func ParseQRPayload(payload string) (string, error) {
	payload = strings.TrimSpace(payload)
	code, ok := strings.CutPrefix(payload, QRPayloadPrefix)
	if !ok || code == "" {
		return "", &ValidationError{Message: "not a member check-in code"}
	}
	return code, nil
}

// AttendanceService records and lists check-ins.
type AttendanceService struct {
	db      *gorm.DB
	members *MemberService
	now     func() time.Time
}

// NewAttendanceService creates a new AttendanceService.
func NewAttendanceService(db *gorm.DB, members *MemberService) *AttendanceService {
	return &AttendanceService{db: db, members: members, now: time.Now}
}

// validateAttendance enforces that a record names either a member or a
// visitor, and that the method matches.
func validateAttendance(in *AttendanceInput) error {
	in.VisitorFirstName = normalizeName(in.VisitorFirstName)
	in.VisitorLastName = normalizeName(in.VisitorLastName)
	if err := validateStruct(in); err != nil {
		return err
	}

	hasVisitor := in.VisitorFirstName != "" || in.VisitorLastName != ""
	if in.Method == "" {
		if in.MemberID == nil {
			in.Method = models.AttendanceVisitor
		} else {
			in.Method = models.AttendanceManual
		}
	}
	if !in.Method.Valid() {
		return &ValidationError{Message: fmt.Sprintf("invalid attendance method %q", in.Method)}
	}

	switch {
	case in.MemberID != nil && hasVisitor:
		return &ValidationError{Message: "attendance is either for a member or a visitor, not both"}
	case in.MemberID == nil && !hasVisitor:
		return &ValidationError{Message: "member_id or visitor name is required"}
	case in.Method == models.AttendanceVisitor && in.MemberID != nil:
		return &ValidationError{Message: "visitor attendance cannot reference a member"}
	case in.Method == models.AttendanceVisitor && (in.VisitorFirstName == "" || in.VisitorLastName == ""):
		return &ValidationError{Message: "visitor first and last name are required"}
	case in.Method != models.AttendanceVisitor && in.MemberID == nil:
		return &ValidationError{Message: fmt.Sprintf("%s attendance requires a member", in.Method)}
	}
	return nil
}

// List returns attendance records, newest first, with event and member loaded.
func (s *AttendanceService) List(filter AttendanceFilter) ([]models.Attendance, error) {
	query := s.db.Preload("Event").Preload("Member")
	if filter.EventID != nil {
		query = query.Where("event_id = ?", *filter.EventID)
	}
	if filter.MemberID != nil {
		query = query.Where("member_id = ?", *filter.MemberID)
	}

	var records []models.Attendance
	if err := query.Order("recorded_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Record validates and stores a check-in.
func (s *AttendanceService) Record(in AttendanceInput, userID uuid.UUID) (*models.Attendance, error) {
	if err := validateAttendance(&in); err != nil {
		return nil, err
	}

	var event models.Event
	if err := s.db.Where("id = ?", in.EventID).First(&event).Error; err != nil {
		if err = notFound(err); err == ErrNotFound {
			return nil, &ValidationError{Message: "event does not exist"}
		}
		return nil, err
	}

	var member *models.Member
	if in.MemberID != nil {
		member = &models.Member{}
		if err := s.db.Where("id = ?", *in.MemberID).First(member).Error; err != nil {
			if err = notFound(err); err == ErrNotFound {
				return nil, &ValidationError{Message: "member does not exist"}
			}
			return nil, err
		}
		if !member.IsActive {
			return nil, &ValidationError{Message: "member is inactive"}
		}

		var count int64
		if err := s.db.Model(&models.Attendance{}).
			Where("event_id = ? AND member_id = ?", event.ID, member.ID).
			Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, &ConflictError{Message: fmt.Sprintf("%s is already checked in to %s", member.FullName(), event.Title)}
		}
	}

	record := models.Attendance{
		EventID:          event.ID,
		MemberID:         in.MemberID,
		VisitorFirstName: in.VisitorFirstName,
		VisitorLastName:  in.VisitorLastName,
		Method:           in.Method,
		RecordedAt:       s.now(),
		RecordedByID:     userID,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return nil, fmt.Errorf("record attendance: %w", err)
	}
	record.Event = &event
	record.Member = member

	details := map[string]interface{}{
		"event_id": event.ID,
		"method":   record.Method,
	}
	if member != nil {
		details["member_code"] = member.MemberCode
	} else {
		details["visitor"] = record.VisitorFirstName + " " + record.VisitorLastName
	}
	audit.LogAction(s.db, userID, audit.ActionRecordAttendance, audit.Resource("attendance", record.ID), details)

	return &record, nil
}

// RecordByQR checks a member in from a scanned check-in code.
func (s *AttendanceService) RecordByQR(eventID uuid.UUID, payload string, userID uuid.UUID) (*models.Attendance, error) {
	code, err := ParseQRPayload(payload)
	if err != nil {
		return nil, err
	}
	member, err := s.members.GetByCode(code)
	if err != nil {
		if err == ErrNotFound {
			return nil, &ValidationError{Message: fmt.Sprintf("no member with code %q", code)}
		}
		return nil, err
	}

	return s.Record(AttendanceInput{
		EventID:  eventID,
		MemberID: &member.ID,
		Method:   models.AttendanceQRCode,
	}, userID)
}

// Delete removes a check-in.
func (s *AttendanceService) Delete(id string, userID uuid.UUID) error {
	recordID, err := parseID(id)
	if err != nil {
		return err
	}
	var record models.Attendance
	if err := s.db.Where("id = ?", recordID).First(&record).Error; err != nil {
		return notFound(err)
	}
	if err := s.db.Delete(&record).Error; err != nil {
		return fmt.Errorf("delete attendance: %w", err)
	}

	audit.LogAction(s.db, userID, audit.ActionDeleteAttendance, audit.Resource("attendance", record.ID), map[string]interface{}{
		"event_id": record.EventID,
	})
	return nil
}
