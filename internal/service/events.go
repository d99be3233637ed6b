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

// EventService contains the business logic for the event calendar.
type EventService struct {
	db *gorm.DB
}

// NewEventService creates a new EventService.
func NewEventService(db *gorm.DB) *EventService {
	return &EventService{db: db}
}

func validateEvent(in *EventInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Location = strings.TrimSpace(in.Location)
	if err := validateStruct(in); err != nil {
		return err
	}
	if in.EndsAt != nil && in.EndsAt.Before(in.StartsAt) {
		return &ValidationError{Message: "ends_at must not be before starts_at"}
	}
	return nil
}

// List returns events ordered by start time, newest first.
func (s *EventService) List(filter EventFilter) ([]models.Event, error) {
	query := s.db.Model(&models.Event{})
	if !filter.From.IsZero() {
		query = query.Where("starts_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("starts_at <= ?", filter.To)
	}

	var events []models.Event
	if err := query.Order("starts_at DESC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// Upcoming returns events starting after now, soonest first.
func (s *EventService) Upcoming(now time.Time, limit int) ([]models.Event, error) {
	query := s.db.Where("starts_at > ?", now).Order("starts_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var events []models.Event
	if err := query.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// Get returns a single event by ID.
func (s *EventService) Get(id string) (*models.Event, error) {
	eventID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var event models.Event
	if err := s.db.Where("id = ?", eventID).First(&event).Error; err != nil {
		return nil, notFound(err)
	}
	return &event, nil
}

// Create validates and inserts a new event.
func (s *EventService) Create(in EventInput, userID uuid.UUID) (*models.Event, error) {
	if err := validateEvent(&in); err != nil {
		return nil, err
	}

	event := models.Event{
		Title:       in.Title,
		Description: in.Description,
		StartsAt:    in.StartsAt,
		EndsAt:      in.EndsAt,
		Location:    in.Location,
		IsSpecial:   in.IsSpecial,
		CreatedByID: userID,
	}
	if err := s.db.Create(&event).Error; err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	audit.LogAction(s.db, userID, audit.ActionCreateEvent, audit.Resource("event", event.ID), map[string]interface{}{
		"title":     event.Title,
		"starts_at": event.StartsAt,
	})
	return &event, nil
}

// Update replaces the editable fields of an event.
func (s *EventService) Update(id string, in EventInput, userID uuid.UUID) (*models.Event, error) {
	event, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := validateEvent(&in); err != nil {
		return nil, err
	}

	event.Title = in.Title
	event.Description = in.Description
	event.StartsAt = in.StartsAt
	event.EndsAt = in.EndsAt
	event.Location = in.Location
	event.IsSpecial = in.IsSpecial

	if err := s.db.Save(event).Error; err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}

	audit.LogAction(s.db, userID, audit.ActionUpdateEvent, audit.Resource("event", event.ID), map[string]interface{}{
		"title": event.Title,
	})
	return event, nil
}

// Delete removes an event together with the attendance recorded at it.
func (s *EventService) Delete(id string, userID uuid.UUID) error {
	event, err := s.Get(id)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", event.ID).Delete(&models.Attendance{}).Error; err != nil {
			return fmt.Errorf("delete attendance: %w", err)
		}
		if err := tx.Delete(event).Error; err != nil {
			return fmt.Errorf("delete event: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	audit.LogAction(s.db, userID, audit.ActionDeleteEvent, audit.Resource("event", event.ID), map[string]interface{}{
		"title": event.Title,
	})
	return nil
}
