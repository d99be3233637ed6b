package audit

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shepherd-church/shepherd/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestLogAction(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "audit.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.AuditLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	userID := uuid.New()
	memberID := uuid.New()
	if err := LogAction(db, userID, ActionCreateMember, Resource("member", memberID), map[string]string{"member_code": "M-7"}); err != nil {
		t.Fatalf("LogAction failed: %v", err)
	}

	var entry models.AuditLog
	if err := db.First(&entry).Error; err != nil {
		t.Fatalf("no audit entry written: %v", err)
	}
	if entry.Resource != "member:"+memberID.String() {
		t.Errorf("unexpected resource %q", entry.Resource)
	}
	if entry.UserID != userID {
		t.Errorf("unexpected user id %s", entry.UserID)
	}

	var details map[string]string
	if err := json.Unmarshal([]byte(entry.DetailsJSON), &details); err != nil {
		t.Fatalf("details not JSON: %v", err)
	}
	if details["member_code"] != "M-7" {
		t.Errorf("unexpected details %v", details)
	}
}
