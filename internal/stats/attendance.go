package stats

import (
	"sort"
	"time"

	"github.com/shepherd-church/shepherd/internal/models"
)

// DefaultMonthLimit is how many month buckets GroupAttendanceByMonth keeps
// when no limit is given.
const DefaultMonthLimit = 6

// MonthBucket holds the attendance records for one calendar month.
type MonthBucket struct {
	Year    int                 `json:"year"`
	Month   time.Month          `json:"month"`
	Count   int                 `json:"count"`
	Records []models.Attendance `json:"records"`
}

// GroupAttendanceByMonth buckets records by the (year, month) of their
// event's start, newest first, keeping at most limit buckets. Records whose
// event was not loaded fall back to their own recorded time.
func GroupAttendanceByMonth(attendances []models.Attendance, limit int) []MonthBucket {
	if limit <= 0 {
		limit = DefaultMonthLimit
	}

	type key struct {
		year  int
		month time.Month
	}
	buckets := make(map[key]*MonthBucket)
	for _, a := range attendances {
		at := a.RecordedAt
		if a.Event != nil && !a.Event.StartsAt.IsZero() {
			at = a.Event.StartsAt
		}
		k := key{at.Year(), at.Month()}
		b, ok := buckets[k]
		if !ok {
			b = &MonthBucket{Year: k.year, Month: k.month}
			buckets[k] = b
		}
		b.Records = append(b.Records, a)
		b.Count++
	}

	out := make([]MonthBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Month > out[j].Month
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
