package stats

import (
	"fmt"
	"time"

	"github.com/shepherd-church/shepherd/internal/models"
	"github.com/shopspring/decimal"
)

// TypeTotal is the sum of donations of one type.
type TypeTotal struct {
	Type  models.DonationType `json:"type"`
	Total decimal.Decimal     `json:"total"`
	Count int                 `json:"count"`
}

// BreakdownSummary summarises donations within a window.
type BreakdownSummary struct {
	Start   time.Time       `json:"start"`
	End     time.Time       `json:"end"`
	ByType  []TypeTotal     `json:"by_type"`
	Total   decimal.Decimal `json:"total"`
	Average decimal.Decimal `json:"average"`
	Count   int             `json:"count"`
}

// ComputeDonationBreakdown groups donations dated within [start, end] by
// type, in the order each type first appears.
func ComputeDonationBreakdown(donations []models.Donation, start, end time.Time) BreakdownSummary {
	out := BreakdownSummary{
		Start:   start,
		End:     end,
		ByType:  []TypeTotal{},
		Total:   decimal.Zero,
		Average: decimal.Zero,
	}

	index := make(map[models.DonationType]int)
	for _, d := range donations {
		if d.DonationDate.Before(start) || d.DonationDate.After(end) {
			continue
		}
		i, seen := index[d.Type]
		if !seen {
			i = len(out.ByType)
			index[d.Type] = i
			out.ByType = append(out.ByType, TypeTotal{Type: d.Type, Total: decimal.Zero})
		}
		out.ByType[i].Total = out.ByType[i].Total.Add(d.Amount)
		out.ByType[i].Count++
		out.Total = out.Total.Add(d.Amount)
		out.Count++
	}

	if out.Count > 0 {
		out.Average = out.Total.Div(decimal.NewFromInt(int64(out.Count))).Round(2)
	}
	return out
}

// Window is an inclusive time range.
type Window struct {
	Start time.Time
	End   time.Time
}

// Preset names accepted by WindowFor.
const (
	PresetWeek        = "7d"
	PresetMonth       = "30d"
	PresetThreeMonths = "3m"
)

// WindowFor returns the window a preset names, measured back from now.
func WindowFor(preset string, now time.Time) (Window, error) {
	switch preset {
	case PresetWeek:
		return Window{Start: now.AddDate(0, 0, -7), End: now}, nil
	case PresetMonth, "":
		return Window{Start: now.AddDate(0, 0, -30), End: now}, nil
	case PresetThreeMonths:
		return Window{Start: now.AddDate(0, -3, 0), End: now}, nil
	}
	return Window{}, fmt.Errorf("unknown range %q (expected %s, %s or %s)", preset, PresetWeek, PresetMonth, PresetThreeMonths)
}
