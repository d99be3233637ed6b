package logstream

import (
	"bytes"
	"io"
	"sync"

	"github.com/google/uuid"
)

// StreamWriter copies everything into buffer and publishes each completed
// line, without its newline, to the job's subscribers. A trailing partial
// line is held until the next write or Flush.
type StreamWriter struct {
	jobID  uuid.UUID
	broker *Broker
	buffer io.Writer

	mu      sync.Mutex
	partial []byte
}

// NewStreamWriter creates a writer for jobID backed by buffer.
func NewStreamWriter(jobID uuid.UUID, broker *Broker, buffer io.Writer) *StreamWriter {
	return &StreamWriter{
		jobID:  jobID,
		broker: broker,
		buffer: buffer,
	}
}

func (w *StreamWriter) Write(p []byte) (int, error) {
	n, err := w.buffer.Write(p)
	if err != nil {
		return n, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.partial = append(w.partial, p...)
	for {
		i := bytes.IndexByte(w.partial, '\n')
		if i < 0 {
			break
		}
		w.broker.Publish(w.jobID, string(w.partial[:i]))
		w.partial = w.partial[i+1:]
	}
	return n, nil
}

// Flush publishes any unterminated line.
func (w *StreamWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.partial) > 0 {
		w.broker.Publish(w.jobID, string(w.partial))
		w.partial = nil
	}
}
