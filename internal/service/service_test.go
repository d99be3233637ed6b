package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shepherd-church/shepherd/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// testDB opens a fresh sqlite database with every model migrated.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Member{},
		&models.Event{},
		&models.Attendance{},
		&models.Donation{},
		&models.ForumPost{},
		&models.ForumComment{},
		&models.ReportJob{},
		&models.AuditLog{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// createTestUser inserts a user with the given role.
func createTestUser(t *testing.T, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()
	user := models.User{Username: username, Email: username + "@test.com", PasswordHash: "x", Role: role}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return &user
}

// createTestMember inserts an active member.
func createTestMember(t *testing.T, svc *MemberService, code, first, last string, actor *models.User) *models.Member {
	t.Helper()
	m, err := svc.Create(MemberInput{MemberCode: code, FirstName: first, LastName: last}, actor.ID)
	if err != nil {
		t.Fatalf("create member %s: %v", code, err)
	}
	return m
}

func countAudit(t *testing.T, db *gorm.DB, action string) int64 {
	t.Helper()
	var n int64
	db.Model(&models.AuditLog{}).Where("action = ?", action).Count(&n)
	return n
}

func assertValidation(t *testing.T, err error) {
	t.Helper()
	if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("expected ValidationError, got %T (%v)", err, err)
	}
}

func assertConflict(t *testing.T, err error) {
	t.Helper()
	if _, ok := err.(*ConflictError); !ok {
		t.Fatalf("expected ConflictError, got %T (%v)", err, err)
	}
}
