// Package logstream fans report job progress out to live subscribers.
package logstream

import (
	"sync"

	"github.com/google/uuid"
)

// subscriberBuffer is how many lines a slow subscriber may fall behind
// before lines are dropped for it.
const subscriberBuffer = 100

// Broker manages progress streams for report jobs
type Broker struct {
	subscribers map[uuid.UUID]map[chan string]struct{} // jobID -> set of subscriber channels
	mu          sync.RWMutex
}

// NewBroker creates a new broker
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[uuid.UUID]map[chan string]struct{}),
	}
}

// Subscribe creates a new subscription for a job's progress lines
func (b *Broker) Subscribe(jobID uuid.UUID) chan string {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan string, subscriberBuffer)
	if b.subscribers[jobID] == nil {
		b.subscribers[jobID] = make(map[chan string]struct{})
	}
	b.subscribers[jobID][ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscription. It is a no-op if the job's stream was
// already closed.
func (b *Broker) Unsubscribe(jobID uuid.UUID, ch chan string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, exists := b.subscribers[jobID]
	if !exists {
		return
	}
	if _, ok := subs[ch]; !ok {
		return
	}
	delete(subs, ch)
	close(ch)
	if len(subs) == 0 {
		delete(b.subscribers, jobID)
	}
}

// Publish sends a line to all subscribers of a job. Subscribers whose
// buffer is full miss the line.
func (b *Broker) Publish(jobID uuid.UUID, line string) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[jobID] {
		select {
		case ch <- line:
		default:
		}
	}
}

// Close ends every subscription for a job
func (b *Broker) Close(jobID uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subscribers[jobID] {
		close(ch)
	}
	delete(b.subscribers, jobID)
}

// HasSubscribers reports whether anyone is listening to a job
func (b *Broker) HasSubscribers(jobID uuid.UUID) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[jobID]) > 0
}
