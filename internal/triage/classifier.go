// Package triage implements the deterministic content risk classifier. It is
// the single scoring authority for both keyword-based detection on new content
// and report-volume escalation, so every view of the system ranks risk the
// same way.
package triage

import (
	"sort"
	"strings"

	"peerhaven/backend/internal/config"
	"peerhaven/backend/internal/models"
)

// Classify scores a content body and returns the escalation level plus a
// human-readable reason listing the matched indicators.
//
// The function is pure and deterministic: the same body and category always
// produce the same result. A larger set of matched indicators can never yield
// a lower level than a subset of it. Empty or unmatchable input returns
// LevelNone with an empty reason; classification never fails and never blocks
// submission.
func Classify(body string, category models.Category) (models.EscalationLevel, string) {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return models.LevelNone, ""
	}

	lowered := strings.ToLower(trimmed)

	score := 0
	var matched []string
	for indicator, weight := range config.RiskIndicatorWeights {
		if strings.Contains(lowered, indicator) {
			score += weight
			matched = append(matched, indicator)
		}
	}
	if score == 0 {
		return models.LevelNone, ""
	}

	if mult, ok := config.CategoryWeights[string(category)]; ok {
		score *= mult
	}

	// Map iteration order is random; sort so the reason is reproducible.
	sort.Strings(matched)
	reason := "matched risk indicators: " + strings.Join(matched, ", ")

	return levelForScore(score), reason
}

func levelForScore(score int) models.EscalationLevel {
	switch {
	case score >= config.ScoreThresholdCritical:
		return models.LevelCritical
	case score >= config.ScoreThresholdHigh:
		return models.LevelHigh
	case score >= config.ScoreThresholdMedium:
		return models.LevelMedium
	case score >= config.ScoreThresholdLow:
		return models.LevelLow
	default:
		return models.LevelNone
	}
}

// ReportLevel maps a report count onto the escalation level scale. It shares
// the classifier's level vocabulary so report-driven and content-driven
// signals are comparable.
func ReportLevel(reportedCount int) models.EscalationLevel {
	switch {
	case reportedCount >= config.ReportThresholdCritical:
		return models.LevelCritical
	case reportedCount >= config.ReportThresholdHigh:
		return models.LevelHigh
	case reportedCount >= config.ReportThresholdMedium:
		return models.LevelMedium
	case reportedCount >= config.ReportThresholdLow:
		return models.LevelLow
	default:
		return models.LevelNone
	}
}

// MaxLevel returns the more severe of two levels.
func MaxLevel(a, b models.EscalationLevel) models.EscalationLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}
