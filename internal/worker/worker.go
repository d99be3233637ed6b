package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shepherd-church/shepherd/internal/export"
	"github.com/shepherd-church/shepherd/internal/logstream"
	"github.com/shepherd-church/shepherd/internal/models"
	"github.com/shepherd-church/shepherd/internal/queue"
	"github.com/shepherd-church/shepherd/internal/stats"
	"github.com/shepherd-church/shepherd/internal/utils"
	"gorm.io/gorm"
)

// DefaultMaxWorkers bounds how many reports are built at once
const DefaultMaxWorkers = 4

// Worker builds report files for jobs taken from the queue
type Worker struct {
	db         *gorm.DB
	queue      queue.Queue
	reportsDir string
	logger     *slog.Logger
	maxWorkers int
	broker     *logstream.Broker
	semaphore  chan struct{}
	wg         sync.WaitGroup
}

// New creates a new worker instance
func New(db *gorm.DB, q queue.Queue, reportsDir string, logger *slog.Logger, maxWorkers int) *Worker {
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	return &Worker{
		db:         db,
		queue:      q,
		reportsDir: reportsDir,
		logger:     logger,
		maxWorkers: maxWorkers,
		broker:     logstream.NewBroker(),
		semaphore:  make(chan struct{}, maxWorkers),
	}
}

// Broker returns the progress broker for live report streams
func (w *Worker) Broker() *logstream.Broker {
	return w.broker
}

// Start processes jobs until ctx is cancelled or the queue is closed
func (w *Worker) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.reportsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create reports directory: %w", err)
	}
	w.logger.Info("Worker started", "max_concurrent_jobs", w.maxWorkers, "reports_dir", w.reportsDir)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Worker shutting down, waiting for jobs to complete")
			w.wg.Wait()
			w.logger.Info("All jobs completed, worker stopped")
			return ctx.Err()
		default:
			job, err := w.queue.Dequeue(ctx)
			if err != nil {
				// DeadlineExceeded means no jobs available (normal timeout), not an error
				if errors.Is(err, context.DeadlineExceeded) {
					continue
				}
				if errors.Is(err, queue.ErrClosed) || errors.Is(err, context.Canceled) {
					w.wg.Wait()
					return err
				}
				w.logger.Error("Failed to dequeue job", "error", err)
				time.Sleep(time.Second)
				continue
			}

			// Acquire semaphore slot (blocks if max workers reached)
			select {
			case w.semaphore <- struct{}{}:
				w.wg.Add(1)
				go func(j *models.ReportJob) {
					defer w.wg.Done()
					defer func() { <-w.semaphore }()

					w.processJob(ctx, j)
				}(job)
			case <-ctx.Done():
				w.logger.Info("Context cancelled while waiting for worker slot")
				w.wg.Wait()
				return ctx.Err()
			}
		}
	}
}

func (w *Worker) processJob(ctx context.Context, job *models.ReportJob) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Panic recovered in processJob", "job_id", job.ID, "panic", r)
			completedAt := time.Now()
			job.CompletedAt = &completedAt
			job.Status = models.JobStatusFailed
			job.Error = fmt.Sprintf("Job panicked: %v", r)
			w.db.Save(job)
		}
	}()

	w.logger.Info("Processing job", "job_id", job.ID, "type", job.Type)

	job.Status = models.JobStatusRunning
	now := time.Now()
	job.StartedAt = &now
	w.db.Save(job)

	// Close progress subscriptions when the job finishes
	defer w.broker.Close(job.ID)

	var logs bytes.Buffer
	out := logstream.NewStreamWriter(job.ID, w.broker, &logs)
	path, err := w.executeJob(ctx, job, out)

	completedAt := time.Now()
	job.CompletedAt = &completedAt

	if err != nil {
		w.logger.Error("Job failed", "job_id", job.ID, "error", err)
		job.Status = models.JobStatusFailed
		job.Error = err.Error()
		fmt.Fprintf(out, "[ERROR] report failed: %v\n", err)
	} else {
		w.logger.Info("Job completed", "job_id", job.ID, "file", path)
		job.Status = models.JobStatusCompleted
		job.FilePath = path
		if size, err := utils.FileSize(path); err == nil {
			job.FileSize = size
		}
		fmt.Fprintf(out, "[COMPLETED] report ready\n")
	}
	out.Flush()
	job.Logs = logs.String()

	w.db.Save(job)
}

// executeJob builds the report file and returns its path.
func (w *Worker) executeJob(ctx context.Context, job *models.ReportJob, logs io.Writer) (string, error) {
	name := fmt.Sprintf("%s-%s-%s-%s.xlsx",
		job.Type,
		job.PeriodStart.Format("20060102"),
		job.PeriodEnd.Format("20060102"),
		job.ID.String()[:8],
	)
	path := filepath.Join(w.reportsDir, name)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}

	switch job.Type {
	case models.ReportDonations:
		err = w.writeDonations(ctx, job, f, logs)
	case models.ReportAttendance:
		err = w.writeAttendance(ctx, job, f, logs)
	default:
		err = fmt.Errorf("unknown report type: %s", job.Type)
	}

	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to finalize report file: %w", err)
	}

	size, _ := utils.FileSize(path)
	fmt.Fprintf(logs, "wrote %s (%s)\n", name, utils.FormatBytes(size))
	return path, nil
}

func (w *Worker) writeDonations(ctx context.Context, job *models.ReportJob, out io.Writer, logs io.Writer) error {
	var donations []models.Donation
	if err := w.db.WithContext(ctx).Preload("Member").
		Where("donation_date >= ? AND donation_date <= ?", job.PeriodStart, job.PeriodEnd).
		Order("donation_date ASC, created_at ASC").
		Find(&donations).Error; err != nil {
		return fmt.Errorf("failed to load donations: %w", err)
	}
	fmt.Fprintf(logs, "loaded %d donations\n", len(donations))

	summary := stats.ComputeDonationBreakdown(donations, job.PeriodStart, job.PeriodEnd)
	fmt.Fprintf(logs, "total %s over %d gifts\n", summary.Total.StringFixed(2), summary.Count)
	return export.WriteDonations(out, donations, summary)
}

func (w *Worker) writeAttendance(ctx context.Context, job *models.ReportJob, out io.Writer, logs io.Writer) error {
	var records []models.Attendance
	if err := w.db.WithContext(ctx).Preload("Event").Preload("Member").
		Joins("JOIN events ON events.id = attendances.event_id AND events.deleted_at IS NULL").
		Where("events.starts_at >= ? AND events.starts_at <= ?", job.PeriodStart, job.PeriodEnd).
		Order("events.starts_at ASC, attendances.recorded_at ASC").
		Find(&records).Error; err != nil {
		return fmt.Errorf("failed to load attendance: %w", err)
	}
	fmt.Fprintf(logs, "loaded %d check-ins\n", len(records))
	return export.WriteAttendance(out, records)
}
