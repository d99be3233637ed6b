package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/shepherd-church/shepherd/internal/models"
	"github.com/shepherd-church/shepherd/internal/service"
)

// ReportRequester queues report jobs.
type ReportRequester interface {
	Request(ctx context.Context, in service.ReportInput, requestedBy *uuid.UUID) (*models.ReportJob, error)
}

// Scheduler queues the monthly donation report.
type Scheduler struct {
	cron     *cron.Cron
	reports  ReportRequester
	loc      *time.Location
	schedule string
}

// New creates a scheduler firing on schedule (standard five-field cron
// syntax) in loc.
func New(reports ReportRequester, schedule string, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		reports:  reports,
		loc:      loc,
		schedule: schedule,
	}
}

// Start registers the report job and starts the cron loop. An empty
// schedule disables scheduled reports.
func (s *Scheduler) Start() error {
	if s.schedule == "" {
		slog.Info("Scheduled reports disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.queueMonthlyReport(context.Background(), time.Now().In(s.loc))
	}); err != nil {
		return fmt.Errorf("invalid report schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	for _, entry := range s.cron.Entries() {
		slog.Info("Report scheduler started", "schedule", s.schedule, "next_run", entry.Next)
	}
	return nil
}

// Stop halts the cron loop and waits for a running job to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("Report scheduler stopped")
}

func (s *Scheduler) queueMonthlyReport(ctx context.Context, now time.Time) {
	start, end := PreviousMonth(now)
	job, err := s.reports.Request(ctx, service.ReportInput{
		Type:        models.ReportDonations,
		PeriodStart: start,
		PeriodEnd:   end,
	}, nil)
	if err != nil {
		slog.Error("Failed to queue monthly donation report", "error", err)
		return
	}
	slog.Info("Queued monthly donation report", "job_id", job.ID, "period_start", start, "period_end", end)
}

// PreviousMonth returns the first and last instant of the calendar month
// before now's.
func PreviousMonth(now time.Time) (time.Time, time.Time) {
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return thisMonth.AddDate(0, -1, 0), thisMonth.Add(-time.Nanosecond)
}
