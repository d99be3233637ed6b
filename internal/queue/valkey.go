package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shepherd-church/shepherd/internal/models"
	"github.com/valkey-io/valkey-go"
	"gorm.io/gorm"
)

// DefaultValkeyKey is the list report job IDs are pushed to
const DefaultValkeyKey = "shepherd:reports"

// ValkeyQueue implements a distributed job queue using Valkey.
// Valkey only transports job IDs; the database holds the jobs.
type ValkeyQueue struct {
	client valkey.Client
	db     *gorm.DB
	key    string
}

// NewValkeyQueue creates a new Valkey-backed queue
func NewValkeyQueue(addr string, db *gorm.DB) (*ValkeyQueue, error) {
	if db == nil {
		return nil, fmt.Errorf("database instance is required for Valkey queue")
	}

	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pingCmd := client.B().Ping().Build()
	if err := client.Do(ctx, pingCmd).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Valkey: %w", err)
	}

	q := &ValkeyQueue{
		client: client,
		db:     db,
		key:    DefaultValkeyKey,
	}

	slog.Info("Initialized Valkey job queue", "address", addr, "queue_key", q.key)
	return q, nil
}

type valkeyMessage struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Enqueue pushes the job ID onto the Valkey list. The job row must already
// be saved.
func (q *ValkeyQueue) Enqueue(ctx context.Context, job *models.ReportJob) error {
	if job.ID == uuid.Nil {
		return fmt.Errorf("job must have an ID")
	}

	data, err := json.Marshal(valkeyMessage{ID: job.ID.String(), Type: string(job.Type)})
	if err != nil {
		return fmt.Errorf("failed to marshal job data: %w", err)
	}

	// RPUSH + BLPOP gives FIFO order
	cmd := q.client.B().Rpush().Key(q.key).Element(string(data)).Build()
	if err := q.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to push job to Valkey: %w", err)
	}

	slog.Debug("Job enqueued", "job_id", job.ID, "type", job.Type, "queue_key", q.key)
	return nil
}

// Dequeue blocks up to five seconds for a job ID and loads the job.
func (q *ValkeyQueue) Dequeue(ctx context.Context) (*models.ReportJob, error) {
	cmd := q.client.B().Blpop().Key(q.key).Timeout(5).Build()
	values, err := q.client.Do(ctx, cmd).AsStrSlice()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// BLPOP timeout surfaces as a nil reply
		if valkey.IsValkeyNil(err) {
			return nil, context.DeadlineExceeded
		}
		return nil, fmt.Errorf("failed to pop job from Valkey: %w", err)
	}
	if len(values) < 2 {
		return nil, fmt.Errorf("invalid BLPOP result: expected 2 values, got %d", len(values))
	}

	var msg valkeyMessage
	if err := json.Unmarshal([]byte(values[1]), &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job data: %w", err)
	}
	jobID, err := uuid.Parse(msg.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse job ID: %w", err)
	}

	var job models.ReportJob
	if err := q.db.WithContext(ctx).First(&job, "id = ?", jobID).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch job from database: %w", err)
	}

	slog.Debug("Job dequeued", "job_id", job.ID, "type", job.Type)
	return &job, nil
}

// Close closes the Valkey connection
func (q *ValkeyQueue) Close() error {
	q.client.Close()
	slog.Info("Valkey queue closed")
	return nil
}
