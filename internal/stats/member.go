package stats

import (
	"time"

	"github.com/google/uuid"
	"github.com/shepherd-church/shepherd/internal/models"
	"github.com/shopspring/decimal"
)

// MemberStats are the personal figures on a member's profile page.
type MemberStats struct {
	TotalAttended     int             `json:"total_attended"`
	AttendedThisMonth int             `json:"attended_this_month"`
	LastAttendedAt    *time.Time      `json:"last_attended_at,omitempty"`
	TotalDonated      decimal.Decimal `json:"total_donated"`
	DonatedThisYear   decimal.Decimal `json:"donated_this_year"`
	DonationCount     int             `json:"donation_count"`
}

// ComputeMemberStats computes memberID's personal figures. Anonymous
// donations are never credited to a member, even if one is recorded on them.
func ComputeMemberStats(memberID uuid.UUID, attendances []models.Attendance, donations []models.Donation, now time.Time) MemberStats {
	s := MemberStats{TotalDonated: decimal.Zero, DonatedThisYear: decimal.Zero}
	thisMonth := monthStart(now)

	for _, a := range attendances {
		if a.MemberID == nil || *a.MemberID != memberID {
			continue
		}
		s.TotalAttended++
		if inMonth(a.RecordedAt, thisMonth) {
			s.AttendedThisMonth++
		}
		if s.LastAttendedAt == nil || a.RecordedAt.After(*s.LastAttendedAt) {
			t := a.RecordedAt
			s.LastAttendedAt = &t
		}
	}

	for _, d := range donations {
		id, ok := d.AttributedTo()
		if !ok || id != memberID {
			continue
		}
		s.DonationCount++
		s.TotalDonated = s.TotalDonated.Add(d.Amount)
		if d.DonationDate.In(now.Location()).Year() == now.Year() {
			s.DonatedThisYear = s.DonatedThisYear.Add(d.Amount)
		}
	}
	return s
}
