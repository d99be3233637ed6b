package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shepherd-church/shepherd/internal/models"
	"github.com/shepherd-church/shepherd/internal/stats"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// DashboardSummary is the dashboard payload. When DataAvailable is false
// the figures are zero because the underlying data could not be loaded.
type DashboardSummary struct {
	stats.DashboardStats
	DataAvailable bool      `json:"data_available"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// DashboardService loads the collections behind the dashboard and hands
// them to the aggregator.
type DashboardService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db, now: time.Now}
}

// Stats fetches members, attendance, donations and events concurrently and
// computes the dashboard figures. A failed fetch yields a zero summary with
// DataAvailable unset instead of an error.
func (s *DashboardService) Stats(ctx context.Context) DashboardSummary {
	now := s.now()
	summary := DashboardSummary{GeneratedAt: now}

	var (
		members     []models.Member
		attendances []models.Attendance
		donations   []models.Donation
		events      []models.Event
	)

	// Donations only matter for this and the previous calendar month.
	since := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -1, 0)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.db.WithContext(gctx).Find(&members).Error; err != nil {
			return fmt.Errorf("load members: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := s.db.WithContext(gctx).Find(&attendances).Error; err != nil {
			return fmt.Errorf("load attendance: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := s.db.WithContext(gctx).Where("donation_date >= ?", since).Find(&donations).Error; err != nil {
			return fmt.Errorf("load donations: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := s.db.WithContext(gctx).Find(&events).Error; err != nil {
			return fmt.Errorf("load events: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("Dashboard data unavailable", "error", err)
		return summary
	}

	summary.DashboardStats = stats.ComputeDashboardStats(members, attendances, donations, events, now)
	summary.DataAvailable = true
	return summary
}
