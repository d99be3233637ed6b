package logstream

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokerPublishReachesOnlyJobSubscribers(t *testing.T) {
	b := NewBroker()
	job, other := uuid.New(), uuid.New()

	ch := b.Subscribe(job)
	otherCh := b.Subscribe(other)
	assert.True(t, b.HasSubscribers(job))

	b.Publish(job, "loaded 3 donations\n")
	assert.Equal(t, "loaded 3 donations\n", <-ch)
	assert.Empty(t, otherCh)
}

func TestBrokerCloseEndsSubscriptions(t *testing.T) {
	b := NewBroker()
	job := uuid.New()
	ch := b.Subscribe(job)

	b.Close(job)
	_, ok := <-ch
	assert.False(t, ok)
	assert.False(t, b.HasSubscribers(job))

	// Unsubscribing after the stream closed must not close ch twice.
	assert.NotPanics(t, func() { b.Unsubscribe(job, ch) })
}

func TestBrokerDropsLinesForSlowSubscribers(t *testing.T) {
	b := NewBroker()
	job := uuid.New()
	ch := b.Subscribe(job)

	for i := 0; i < subscriberBuffer+10; i++ {
		b.Publish(job, fmt.Sprintf("line %d", i))
	}
	assert.Len(t, ch, subscriberBuffer)
	assert.Equal(t, "line 0", <-ch)
}

func TestStreamWriterPublishesWholeLines(t *testing.T) {
	b := NewBroker()
	job := uuid.New()
	ch := b.Subscribe(job)

	var buf bytes.Buffer
	w := NewStreamWriter(job, b, &buf)

	n, err := fmt.Fprint(w, "loaded 4 donations\nwrote rep")
	require.NoError(t, err)
	assert.Equal(t, len("loaded 4 donations\nwrote rep"), n)
	assert.Equal(t, "loaded 4 donations", <-ch)
	assert.Empty(t, ch)

	_, err = fmt.Fprint(w, "ort.xlsx\n")
	require.NoError(t, err)
	assert.Equal(t, "wrote report.xlsx", <-ch)

	fmt.Fprint(w, "[COMPLETED]")
	assert.Empty(t, ch)
	w.Flush()
	assert.Equal(t, "[COMPLETED]", <-ch)

	assert.Equal(t, "loaded 4 donations\nwrote report.xlsx\n[COMPLETED]", buf.String())
}
