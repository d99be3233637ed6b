package service

import (
	"testing"

	"github.com/shepherd-church/shepherd/internal/auth"
	"github.com/shepherd-church/shepherd/internal/models"
)

func TestUserCreate(t *testing.T) {
	db := testDB(t)
	svc := NewUserService(db)
	root := createTestUser(t, db, "root", models.RoleSuperAdmin)

	u, err := svc.Create(UserInput{Username: "deacon", Email: "Deacon@Example.org", Password: "longenough"}, root.ID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.Role != models.RoleUser {
		t.Errorf("expected default role user, got %s", u.Role)
	}
	if !auth.VerifyPassword(u.PasswordHash, "longenough") {
		t.Error("password hash does not verify")
	}

	_, err = svc.Create(UserInput{Username: "deacon", Email: "x@example.org", Password: "longenough"}, root.ID)
	assertConflict(t, err)

	_, err = svc.Create(UserInput{Username: "elder", Email: "elder@example.org", Password: "longenough", Role: "bishop"}, root.ID)
	assertValidation(t, err)

	_, err = svc.Create(UserInput{Username: "short", Email: "short@example.org", Password: "123"}, root.ID)
	assertValidation(t, err)
}

func TestUserUpdateRoleAndDelete(t *testing.T) {
	db := testDB(t)
	svc := NewUserService(db)
	root := createTestUser(t, db, "root", models.RoleSuperAdmin)
	u := createTestUser(t, db, "helper", models.RoleUser)

	updated, err := svc.UpdateRole(u.ID.String(), "admin", root.ID)
	if err != nil || updated.Role != models.RoleAdmin {
		t.Fatalf("UpdateRole: %+v (%v)", updated, err)
	}

	_, err = svc.UpdateRole(root.ID.String(), "member", root.ID)
	assertValidation(t, err)
	_, err = svc.UpdateRole(u.ID.String(), "pope", root.ID)
	assertValidation(t, err)

	assertValidation(t, svc.Delete(root.ID.String(), root.ID))
	if err := svc.Delete(u.ID.String(), root.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	users, _ := svc.List()
	if len(users) != 1 {
		t.Errorf("expected 1 remaining user, got %d", len(users))
	}

	logs, err := svc.AuditLogs(10, "")
	if err != nil || len(logs) < 2 {
		t.Fatalf("expected audit entries, got %d (%v)", len(logs), err)
	}
	roleLogs, _ := svc.AuditLogs(10, "update_user_role")
	if len(roleLogs) != 1 {
		t.Errorf("expected one role change entry, got %d", len(roleLogs))
	}
}
