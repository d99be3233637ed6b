package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shepherd-church/shepherd/internal/models"
)

// MemoryQueue implements an in-process job queue
type MemoryQueue struct {
	jobChan chan *models.ReportJob
	mu      sync.RWMutex
	closed  bool
}

// NewMemoryQueue creates a new in-memory queue
func NewMemoryQueue(bufferSize int) *MemoryQueue {
	if bufferSize <= 0 {
		bufferSize = 100
	}

	q := &MemoryQueue{
		jobChan: make(chan *models.ReportJob, bufferSize),
	}

	slog.Info("Initialized in-memory job queue", "buffer_size", bufferSize)
	return q
}

// Enqueue adds a job to the queue
func (q *MemoryQueue) Enqueue(ctx context.Context, job *models.ReportJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrClosed
	}
	if job.ID == uuid.Nil {
		return fmt.Errorf("job must have an ID")
	}

	// Send to channel (non-blocking with timeout)
	select {
	case q.jobChan <- job:
		slog.Debug("Job enqueued", "job_id", job.ID, "type", job.Type)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
		return fmt.Errorf("queue is full, could not enqueue job %s", job.ID)
	}
}

// Dequeue retrieves the next job from the queue
func (q *MemoryQueue) Dequeue(ctx context.Context) (*models.ReportJob, error) {
	select {
	case job, ok := <-q.jobChan:
		if !ok {
			return nil, ErrClosed
		}
		slog.Debug("Job dequeued", "job_id", job.ID, "type", job.Type)
		return job, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len returns the number of jobs waiting
func (q *MemoryQueue) Len() int {
	return len(q.jobChan)
}

// Close closes the queue and releases resources
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	close(q.jobChan)
	slog.Info("Memory queue closed")
	return nil
}
