package db

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shepherd-church/shepherd/internal/models"
	"gorm.io/gorm"
)

// ErrSettingNotFound is returned when a setting has never been stored.
var ErrSettingNotFound = errors.New("setting not found")

// GetSetting returns the stored value for key.
func GetSetting(db *gorm.DB, key string) (string, error) {
	var s models.Setting
	err := db.Where("key = ?", key).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrSettingNotFound
		}
		return "", fmt.Errorf("failed to query setting %s: %w", key, err)
	}
	return s.Value, nil
}

// PutSetting stores value under key, replacing any previous value.
func PutSetting(db *gorm.DB, key, value string) error {
	s := models.Setting{Key: key, Value: value}
	if err := db.Save(&s).Error; err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	return nil
}

// GetOrCreateInstanceID returns this installation's id, generating and
// storing one on first start.
func GetOrCreateInstanceID(db *gorm.DB) (string, error) {
	id, err := GetSetting(db, models.SettingInstanceID)
	if err == nil {
		slog.Info("Found existing instance ID", "instance_id", id)
		return id, nil
	}
	if !errors.Is(err, ErrSettingNotFound) {
		return "", err
	}

	id = uuid.New().String()
	if err := db.Create(&models.Setting{Key: models.SettingInstanceID, Value: id}).Error; err != nil {
		return "", fmt.Errorf("failed to create instance ID: %w", err)
	}

	slog.Info("Generated new instance ID", "instance_id", id)
	return id, nil
}

// EnsureChurchName seeds the church name setting from config if unset.
func EnsureChurchName(db *gorm.DB, name string) error {
	if _, err := GetSetting(db, models.SettingChurchName); err == nil {
		return nil
	} else if !errors.Is(err, ErrSettingNotFound) {
		return err
	}
	return PutSetting(db, models.SettingChurchName, name)
}
