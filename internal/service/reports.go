package service

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/shepherd-church/shepherd/internal/audit"
	"github.com/shepherd-church/shepherd/internal/models"
	"github.com/shepherd-church/shepherd/internal/queue"
	"gorm.io/gorm"
)

// ReportService queues spreadsheet reports and serves the finished files.
type ReportService struct {
	db    *gorm.DB
	queue queue.Queue
}

// NewReportService creates a new ReportService.
func NewReportService(db *gorm.DB, q queue.Queue) *ReportService {
	return &ReportService{db: db, queue: q}
}

// Request stores a pending report job and queues it. requestedBy is nil for
// scheduled reports.
func (s *ReportService) Request(ctx context.Context, in ReportInput, requestedBy *uuid.UUID) (*models.ReportJob, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if !in.Type.Valid() {
		return nil, &ValidationError{Message: fmt.Sprintf("invalid report type %q", in.Type)}
	}
	if in.PeriodEnd.Before(in.PeriodStart) {
		return nil, &ValidationError{Message: "period_end must not be before period_start"}
	}

	job := &models.ReportJob{
		Type:          in.Type,
		Status:        models.JobStatusPending,
		PeriodStart:   in.PeriodStart,
		PeriodEnd:     in.PeriodEnd,
		RequestedByID: requestedBy,
	}
	if err := s.db.Create(job).Error; err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		return nil, fmt.Errorf("enqueue job: %w", err)
	}

	if requestedBy != nil {
		audit.LogAction(s.db, *requestedBy, audit.ActionRequestReport, audit.Resource("report", job.ID), map[string]interface{}{
			"type":         job.Type,
			"period_start": job.PeriodStart,
			"period_end":   job.PeriodEnd,
		})
	}
	return job, nil
}

// List returns report jobs, newest first.
func (s *ReportService) List() ([]models.ReportJob, error) {
	var jobs []models.ReportJob
	if err := s.db.Order("created_at DESC").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// Get returns a single report job.
func (s *ReportService) Get(id string) (*models.ReportJob, error) {
	jobID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var job models.ReportJob
	if err := s.db.Where("id = ?", jobID).First(&job).Error; err != nil {
		return nil, notFound(err)
	}
	return &job, nil
}

// FilePath returns the path of a finished report's file.
func (s *ReportService) FilePath(id string) (string, *models.ReportJob, error) {
	job, err := s.Get(id)
	if err != nil {
		return "", nil, err
	}
	if job.Status != models.JobStatusCompleted {
		return "", job, &ConflictError{Message: fmt.Sprintf("report is %s", job.Status)}
	}
	if _, err := os.Stat(job.FilePath); err != nil {
		return "", job, ErrNotFound
	}
	return job.FilePath, job, nil
}
