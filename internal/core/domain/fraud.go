package domain

import (
	"time"

	"github.com/google/uuid"
)

// Severity classifies a single fraud pattern detection.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// RiskLevel is the aggregated classification over all detector output.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// RecommendedAction is the decision derived from a risk level.
type RecommendedAction string

const (
	ActionAllow   RecommendedAction = "allow"
	ActionMonitor RecommendedAction = "monitor"
	ActionReview  RecommendedAction = "review"
	ActionBlock   RecommendedAction = "block"
)

// Fraud pattern identifiers emitted by the analyzer's detectors.
const (
	PatternExcessiveAmount        = "excessive_amount"
	PatternDuplicateTransaction   = "duplicate_transaction"
	PatternRapidSuccession        = "rapid_succession"
	PatternExcessiveDailySpending = "excessive_daily_spending"
	PatternVendorConcentration    = "vendor_concentration"
	PatternVendorDailyCap         = "vendor_daily_cap"
	PatternSuspiciousTiming       = "suspicious_timing"
)

// FraudFlag is one detector's finding. Details carries the counts,
// thresholds and ratios needed for audit and dispute review.
type FraudFlag struct {
	Pattern     string         `json:"pattern"`
	Severity    Severity       `json:"severity"`
	Description string         `json:"description"`
	Details     map[string]any `json:"details,omitempty"`
}

// FraudAnalysis is the transient output of one analyzer run. Warnings
// share the flag shape but never block on their own.
type FraudAnalysis struct {
	Flags    []FraudFlag `json:"flags"`
	Warnings []FraudFlag `json:"warnings"`
	// Degraded is set when a detector could not complete because a
	// history query failed. A degraded analysis must fail closed.
	Degraded bool `json:"degraded,omitempty"`
}

// Recommendation is the engine's decision for one evaluation.
type Recommendation struct {
	Action         RecommendedAction `json:"action"`
	RequiresReview bool              `json:"requires_review"`
	AutoFlag       bool              `json:"auto_flag"`
}

// FraudAnnotation is the persisted evaluation record, stored alongside
// (not inside) the transaction it annotates.
type FraudAnnotation struct {
	ID             uuid.UUID         `json:"id"`
	TransactionID  uuid.UUID         `json:"transaction_id"`
	Flags          []FraudFlag       `json:"flags"`
	Warnings       []FraudFlag       `json:"warnings"`
	RiskLevel      RiskLevel         `json:"risk_level"`
	Action         RecommendedAction `json:"action"`
	RequiresReview bool              `json:"requires_review"`
	CreatedAt      time.Time         `json:"created_at"`
}
