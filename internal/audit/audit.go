package audit

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shepherd-church/shepherd/internal/models"
	"gorm.io/gorm"
)

// LogAction records an audit log entry. Failures are logged and returned;
// callers usually carry on since the audited change already happened.
func LogAction(db *gorm.DB, userID uuid.UUID, action, resource string, details interface{}) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		detailsJSON = []byte("{}")
	}

	entry := models.AuditLog{
		UserID:      userID,
		Action:      action,
		Resource:    resource,
		DetailsJSON: string(detailsJSON),
		Timestamp:   time.Now(),
	}

	if err := db.Create(&entry).Error; err != nil {
		slog.Warn("Failed to write audit log", "action", action, "resource", resource, "error", err)
		return err
	}
	return nil
}

// Resource formats a "<kind>:<id>" resource reference.
func Resource(kind string, id uuid.UUID) string {
	return kind + ":" + id.String()
}

// Audit actions constants
const (
	ActionCreateUser       = "create_user"
	ActionUpdateUserRole   = "update_user_role"
	ActionDeleteUser       = "delete_user"
	ActionCreateMember     = "create_member"
	ActionUpdateMember     = "update_member"
	ActionDeactivateMember = "deactivate_member"
	ActionDeleteMember     = "delete_member"
	ActionPurgeMember      = "purge_member"
	ActionCreateEvent      = "create_event"
	ActionUpdateEvent      = "update_event"
	ActionDeleteEvent      = "delete_event"
	ActionRecordAttendance = "record_attendance"
	ActionDeleteAttendance = "delete_attendance"
	ActionCreateDonation   = "create_donation"
	ActionUpdateDonation   = "update_donation"
	ActionDeleteDonation   = "delete_donation"
	ActionExportDonations  = "export_donations"
	ActionCreatePost       = "create_post"
	ActionUpdatePost       = "update_post"
	ActionDeletePost       = "delete_post"
	ActionDeleteComment    = "delete_comment"
	ActionRequestReport    = "request_report"
	ActionLogin            = "login"
)
