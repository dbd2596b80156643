package scan

import "github.com/Aryan1718/SkillLens/internal/model"

// maxRiskScore caps the weighted severity sum.
const maxRiskScore = 200

// RiskScore returns min(200, sum of severity weights) over the findings.
func RiskScore(findings []model.Finding) int {
	total := 0
	for _, finding := range findings {
		total += model.SeverityWeights[finding.Severity]
	}
	if total > maxRiskScore {
		return maxRiskScore
	}
	return total
}

// TrustBadge maps a risk score to its human-facing label. Both the strings
// and the thresholds are a compatibility contract with the UI and stored
// reports.
func TrustBadge(riskScore int) string {
	switch {
	case riskScore <= 4:
		return "Verified Safe"
	case riskScore <= 19:
		return "Generally Safe"
	case riskScore <= 49:
		return "Review Recommended"
	case riskScore <= 99:
		return "Use With Caution"
	default:
		return "Not Recommended"
	}
}
