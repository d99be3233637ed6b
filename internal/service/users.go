package service

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shepherd-church/shepherd/internal/audit"
	"github.com/shepherd-church/shepherd/internal/auth"
	"github.com/shepherd-church/shepherd/internal/models"
	"gorm.io/gorm"
)

// UserService manages sign-in accounts.
type UserService struct {
	db *gorm.DB
}

// NewUserService creates a new UserService.
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// List returns all accounts ordered by username.
func (s *UserService) List() ([]models.User, error) {
	var users []models.User
	if err := s.db.Order("username ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Get returns a single account by ID.
func (s *UserService) Get(id string) (*models.User, error) {
	userID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// Create validates and inserts an account. An empty role defaults to user.
func (s *UserService) Create(in UserInput, actorID uuid.UUID) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	role, err := models.ParseRole(string(in.Role))
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	var count int64
	if err := s.db.Unscoped().Model(&models.User{}).
		Where("username = ? OR email = ?", in.Username, in.Email).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &ConflictError{Message: "username or email already exists"}
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	audit.LogAction(s.db, actorID, audit.ActionCreateUser, audit.Resource("user", user.ID), map[string]interface{}{
		"username": user.Username,
		"role":     user.Role,
	})
	return &user, nil
}

// UpdateRole changes an account's role. Users cannot change their own role,
// which keeps the last super admin from locking everyone out.
func (s *UserService) UpdateRole(id string, role string, actorID uuid.UUID) (*models.User, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	parsed, err := models.ParseRole(role)
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	if user.ID == actorID {
		return nil, &ValidationError{Message: "cannot change your own role"}
	}

	previous := user.Role
	if err := s.db.Model(user).Update("role", parsed).Error; err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	user.Role = parsed

	audit.LogAction(s.db, actorID, audit.ActionUpdateUserRole, audit.Resource("user", user.ID), map[string]interface{}{
		"username": user.Username,
		"from":     previous,
		"to":       parsed,
	})
	return user, nil
}

// Delete removes an account. Users cannot delete themselves.
func (s *UserService) Delete(id string, actorID uuid.UUID) error {
	user, err := s.Get(id)
	if err != nil {
		return err
	}
	if user.ID == actorID {
		return &ValidationError{Message: "cannot delete your own account"}
	}
	if err := s.db.Delete(user).Error; err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	audit.LogAction(s.db, actorID, audit.ActionDeleteUser, audit.Resource("user", user.ID), map[string]interface{}{
		"username": user.Username,
	})
	return nil
}

// AuditLogs returns the most recent audit entries, newest first.
func (s *UserService) AuditLogs(limit int, action string) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := s.db.Preload("User").Order("timestamp DESC").Limit(limit)
	if action != "" {
		query = query.Where("action = ?", action)
	}
	var logs []models.AuditLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
