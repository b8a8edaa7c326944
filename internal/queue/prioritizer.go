// Package queue computes the review ordering staff views share. The ordering
// is pure and stateless; every client re-runs it locally on each data change
// and arrives at the same sequence.
package queue

import (
	"sort"
	"time"

	"peerhaven/backend/internal/models"
)

// Item pairs a content item's triage metadata with its escalation, if any.
type Item struct {
	ContentID     string
	ReportedCount int
	CreatedAt     time.Time
	Escalation    *models.Escalation
}

// Level returns the item's escalation level, LevelNone when no escalation
// exists.
func (it Item) Level() models.EscalationLevel {
	if it.Escalation == nil {
		return models.LevelNone
	}
	return it.Escalation.Level
}

// sortTime prefers the content creation time and falls back to the detection
// time for escalation-only views.
func (it Item) sortTime() time.Time {
	if it.CreatedAt.IsZero() && it.Escalation != nil {
		return it.Escalation.DetectedAt
	}
	return it.CreatedAt
}

// Order returns the items in review priority: level descending, then reported
// count descending, then most recent first. Items equal on all three keys keep
// their input relative order, so reordering never visibly reshuffles unrelated
// rows. The input slice is not modified.
func Order(items []Item) []Item {
	ordered := make([]Item, len(items))
	copy(ordered, items)

	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]

		if ar, br := a.Level().Rank(), b.Level().Rank(); ar != br {
			return ar > br
		}
		if a.ReportedCount != b.ReportedCount {
			return a.ReportedCount > b.ReportedCount
		}
		return a.sortTime().After(b.sortTime())
	})

	return ordered
}
