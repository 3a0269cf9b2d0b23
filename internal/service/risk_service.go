package service

import "relief-disbursement-gateway/internal/core/domain"

// CalculateRiskLevel folds detector output into a single risk level.
// Rules are evaluated in priority order; the first match wins.
func CalculateRiskLevel(analysis *domain.FraudAnalysis) domain.RiskLevel {
	var high, medium int
	for _, f := range analysis.Flags {
		switch f.Severity {
		case domain.SeverityHigh:
			high++
		case domain.SeverityMedium:
			medium++
		}
	}

	switch {
	case high >= 2:
		return domain.RiskLevelCritical
	case high >= 1:
		return domain.RiskLevelHigh
	case medium >= 2, len(analysis.Flags) > 0, len(analysis.Warnings) >= 3:
		return domain.RiskLevelMedium
	default:
		return domain.RiskLevelLow
	}
}

// Recommend maps a risk level to the action taken on the spend. The
// mapping is exhaustive over the closed RiskLevel enumeration.
func Recommend(level domain.RiskLevel) domain.Recommendation {
	switch level {
	case domain.RiskLevelCritical:
		return domain.Recommendation{Action: domain.ActionBlock, RequiresReview: true, AutoFlag: true}
	case domain.RiskLevelHigh:
		return domain.Recommendation{Action: domain.ActionReview, RequiresReview: true, AutoFlag: true}
	case domain.RiskLevelMedium:
		return domain.Recommendation{Action: domain.ActionMonitor, RequiresReview: false, AutoFlag: true}
	default:
		return domain.Recommendation{Action: domain.ActionAllow, RequiresReview: false, AutoFlag: false}
	}
}

// Aggregate evaluates an analysis into its risk level and
// recommendation. A degraded analysis fails closed: the result is
// forced to at least a review outcome regardless of detector output.
func Aggregate(analysis *domain.FraudAnalysis) (domain.RiskLevel, domain.Recommendation) {
	level := CalculateRiskLevel(analysis)
	rec := Recommend(level)

	if analysis.Degraded && !rec.RequiresReview {
		if level == domain.RiskLevelLow || level == domain.RiskLevelMedium {
			level = domain.RiskLevelHigh
		}
		rec = Recommend(level)
	}
	return level, rec
}
