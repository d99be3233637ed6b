package stats

import (
	"bytes"
	"time"

	"github.com/google/uuid"
	"github.com/shepherd-church/shepherd/internal/models"
	"github.com/shopspring/decimal"
)

// DashboardStats are the headline figures on the dashboard.
type DashboardStats struct {
	TotalMembers            int             `json:"total_members"`
	SundayAttendance        int             `json:"sunday_attendance"`
	MonthlyDonations        decimal.Decimal `json:"monthly_donations"`
	UpcomingEvents          int             `json:"upcoming_events"`
	MonthlyAttendanceChange float64         `json:"monthly_attendance_change"`
	AttendanceChange        float64         `json:"attendance_change"`
	DonationChange          float64         `json:"donation_change"`
	LatestEventID           *uuid.UUID      `json:"latest_event_id,omitempty"`
}

// ComputeDashboardStats reduces the four collections into DashboardStats.
//
// SundayAttendance counts check-ins for the latest event by start time,
// whether or not that event has happened yet.
func ComputeDashboardStats(
	members []models.Member,
	attendances []models.Attendance,
	donations []models.Donation,
	events []models.Event,
	now time.Time,
) DashboardStats {
	var s DashboardStats

	for _, m := range members {
		if m.IsActive {
			s.TotalMembers++
		}
	}

	for _, e := range events {
		if e.StartsAt.After(now) {
			s.UpcomingEvents++
		}
	}

	latest, previous := latestTwoEvents(events)
	perEvent := countByEvent(attendances)
	if latest != nil {
		id := latest.ID
		s.LatestEventID = &id
		s.SundayAttendance = perEvent[latest.ID]
		if previous != nil {
			s.AttendanceChange = PercentChange(float64(s.SundayAttendance), float64(perEvent[previous.ID]))
		}
	}

	thisMonth := monthStart(now)
	lastMonth := thisMonth.AddDate(0, -1, 0)

	var attThis, attLast int
	for _, a := range attendances {
		switch {
		case inMonth(a.RecordedAt, thisMonth):
			attThis++
		case inMonth(a.RecordedAt, lastMonth):
			attLast++
		}
	}
	s.MonthlyAttendanceChange = PercentChange(float64(attThis), float64(attLast))

	donThis, donLast := decimal.Zero, decimal.Zero
	for _, d := range donations {
		switch {
		case inMonth(d.DonationDate, thisMonth):
			donThis = donThis.Add(d.Amount)
		case inMonth(d.DonationDate, lastMonth):
			donLast = donLast.Add(d.Amount)
		}
	}
	s.MonthlyDonations = donThis
	s.DonationChange = percentChangeDecimal(donThis, donLast)

	return s
}

// latestTwoEvents returns the events with the greatest and second greatest
// start times. Equal start times are ordered by id so the result is stable.
func latestTwoEvents(events []models.Event) (latest, previous *models.Event) {
	for i := range events {
		e := &events[i]
		switch {
		case latest == nil || eventAfter(e, latest):
			previous, latest = latest, e
		case previous == nil || eventAfter(e, previous):
			previous = e
		}
	}
	return latest, previous
}

func eventAfter(a, b *models.Event) bool {
	if !a.StartsAt.Equal(b.StartsAt) {
		return a.StartsAt.After(b.StartsAt)
	}
	return bytes.Compare(a.ID[:], b.ID[:]) > 0
}

func countByEvent(attendances []models.Attendance) map[uuid.UUID]int {
	out := make(map[uuid.UUID]int)
	for _, a := range attendances {
		out[a.EventID]++
	}
	return out
}
