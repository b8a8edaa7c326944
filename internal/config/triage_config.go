package config

import "time"

const (
	// Level thresholds: the summed indicator score is mapped onto an
	// escalation level by the first threshold it reaches.
	ScoreThresholdLow      = 5
	ScoreThresholdMedium   = 15
	ScoreThresholdHigh     = 40
	ScoreThresholdCritical = 100

	// Report-count thresholds for raising an escalation level from report
	// volume alone.
	ReportThresholdLow      = 3
	ReportThresholdMedium   = 5
	ReportThresholdHigh     = 10
	ReportThresholdCritical = 20

	// Reconciliation
	ReconcileTimeout = 10 * time.Second

	// Transport reconnect
	ResubscribeBaseDelay = 500 * time.Millisecond
	ResubscribeMaxDelay  = 30 * time.Second
)

// RiskIndicatorWeights maps a risk indicator phrase to its score. Matching is
// case-insensitive substring matching over the content body.
var RiskIndicatorWeights = map[string]int{
	// crisis phrases
	"kill myself":       100,
	"end my life":       100,
	"suicide":           100,
	"want to die":       100,
	"overdose":          100,
	"no reason to live": 100,

	// self-harm phrases
	"hurt myself": 40,
	"self harm":   40,
	"self-harm":   40,
	"cutting":     40,
	"can't go on": 40,

	// distress phrases
	"hopeless":     15,
	"worthless":    15,
	"hate myself":  15,
	"panic attack": 15,
	"no one cares": 15,

	// low-grade signals
	"depressed":   5,
	"anxious":     5,
	"overwhelmed": 5,
	"can't sleep": 5,
}

// CategoryWeights multiplies the indicator score per category. Categories not
// listed weigh 1.
var CategoryWeights = map[string]int{
	"mental-health": 2,
}
