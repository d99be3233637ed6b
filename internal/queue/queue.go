package queue

import (
	"context"
	"errors"

	"github.com/shepherd-church/shepherd/internal/models"
)

// ErrClosed is returned by Dequeue once the queue has been closed
var ErrClosed = errors.New("queue closed")

// Queue carries report jobs from the API to the worker. The database row is
// the source of truth; the queue only hands jobs over.
type Queue interface {
	// Enqueue adds a job to the queue
	Enqueue(ctx context.Context, job *models.ReportJob) error

	// Dequeue retrieves the next job from the queue. It returns
	// context.DeadlineExceeded when nothing arrived within the poll window.
	Dequeue(ctx context.Context) (*models.ReportJob, error)

	// Close closes the queue and releases resources
	Close() error
}
