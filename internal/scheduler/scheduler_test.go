package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shepherd-church/shepherd/internal/models"
	"github.com/shepherd-church/shepherd/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRequester struct {
	got []service.ReportInput
}

func (f *fakeRequester) Request(_ context.Context, in service.ReportInput, requestedBy *uuid.UUID) (*models.ReportJob, error) {
	f.got = append(f.got, in)
	return &models.ReportJob{ID: uuid.New(), Type: in.Type, PeriodStart: in.PeriodStart, PeriodEnd: in.PeriodEnd}, nil
}

func TestPreviousMonth(t *testing.T) {
	start, end := PreviousMonth(time.Date(2026, 1, 1, 6, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, 2025, end.Year())
	assert.Equal(t, time.December, end.Month())
	assert.Equal(t, 31, end.Day())
	assert.Equal(t, 23, end.Hour())
}

func TestQueueMonthlyReport(t *testing.T) {
	req := &fakeRequester{}
	s := New(req, "0 6 1 * *", time.UTC)

	s.queueMonthlyReport(context.Background(), time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC))

	require.Len(t, req.got, 1)
	assert.Equal(t, models.ReportDonations, req.got[0].Type)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), req.got[0].PeriodStart)
	assert.Equal(t, time.February, req.got[0].PeriodEnd.Month())
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := New(&fakeRequester{}, "every tuesday", time.UTC)
	assert.Error(t, s.Start())
}

func TestStartDisabled(t *testing.T) {
	s := New(&fakeRequester{}, "", time.UTC)
	require.NoError(t, s.Start())
	s.Stop()
}
