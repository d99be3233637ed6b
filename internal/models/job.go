package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReportType selects which spreadsheet a report job produces
type ReportType string

const (
	ReportDonations  ReportType = "donations"
	ReportAttendance ReportType = "attendance"
)

// Valid reports whether t is a known report type.
func (t ReportType) Valid() bool {
	return t == ReportDonations || t == ReportAttendance
}

// JobStatus represents the state of a job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// ReportJob is a background request to build a report file
type ReportJob struct {
	ID            uuid.UUID      `gorm:"type:text;primary_key" json:"id"`
	Type          ReportType     `gorm:"type:text;not null" json:"type"`
	Status        JobStatus      `gorm:"not null;default:'pending'" json:"status"`
	PeriodStart   time.Time      `gorm:"not null" json:"period_start"`
	PeriodEnd     time.Time      `gorm:"not null" json:"period_end"`
	RequestedByID *uuid.UUID     `gorm:"type:text;index" json:"requested_by_id,omitempty"` // nil for scheduled reports
	FilePath      string         `json:"-"`
	FileSize      int64          `json:"file_size,omitempty"`
	Logs          string         `gorm:"type:text" json:"logs"`
	Error         string         `gorm:"type:text" json:"error,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	StartedAt     *time.Time     `json:"started_at,omitempty"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook to generate UUID
func (j *ReportJob) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}
