package events

import (
	"cmp"
	"slices"
	"strconv"
	"time"
)

// Date is one occurrence of an event.
type Date struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// EarliestDate is the next occurrence of an event with display strings.
type EarliestDate struct {
	Date
	// Display is nil when the occurrence has already finished.
	Display *DateDisplay `json:"string,omitempty"`
}

// DateDisplay holds the human-readable start and end. End is just the time
// when the occurrence starts and ends on the same day.
type DateDisplay struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Earliest returns the earliest occurrence starting at or after now, or nil.
func Earliest(dates []Date, now time.Time) *EarliestDate {
	var best *Date
	for i := range dates {
		d := &dates[i]
		if d.Start.Before(now) {
			continue
		}
		if best == nil || d.Start.Before(best.Start) {
			best = d
		}
	}
	if best == nil {
		return nil
	}

	out := &EarliestDate{Date: *best}
	if now.Before(best.End) || sameDay(now, best.End) {
		end := formatLong(best.End)
		if sameDay(best.Start, best.End) {
			end = best.End.Format("15:04")
		}
		out.Display = &DateDisplay{Start: formatLong(best.Start), End: end}
	}
	return out
}

// SortByEarliest orders events by next occurrence. Pairs where either side has
// none are ordered by ID.
func SortByEarliest(events []Event) {
	slices.SortStableFunc(events, func(a, b Event) int {
		if a.Earliest != nil && b.Earliest != nil {
			return a.Earliest.Start.Compare(b.Earliest.Start)
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func sameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// formatLong renders "Mon, 2nd Jan 15:04".
func formatLong(t time.Time) string {
	return t.Format("Mon, ") + ordinal(t.Day()) + t.Format(" Jan 15:04")
}

func ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}
