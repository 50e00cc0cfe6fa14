package fraud

import "math"

// FraudScoreCalculator combines the detector outputs and the optional
// external rule score into one weighted assessment. It is stateless and pure:
// identical inputs always produce an identical result.
type FraudScoreCalculator struct {
	rules *ScoringRules
}

// NewFraudScoreCalculator creates a calculator with the given rules
func NewFraudScoreCalculator(rules *ScoringRules) *FraudScoreCalculator {
	return &FraudScoreCalculator{rules: rules}
}

// Calculate produces the final score, decision and reason list. The duplicate
// component is binary: any duplicate match contributes the full 100 before
// weighting, there is no gradient.
func (c *FraudScoreCalculator) Calculate(dup DuplicateResult, vendorRisk, behaviorRisk RiskResult, ruleRisk int) FraudAssessment {
	scores := ComponentScores{
		Duplicate:    0,
		VendorRisk:   clampScore(vendorRisk.Score),
		BehaviorRisk: clampScore(behaviorRisk.Score),
		RuleRisk:     clampScore(ruleRisk),
	}
	if dup.IsDuplicate {
		scores.Duplicate = 100
	}

	weighted := float64(scores.Duplicate)*c.rules.DuplicateWeight +
		float64(scores.VendorRisk)*c.rules.VendorRiskWeight +
		float64(scores.BehaviorRisk)*c.rules.BehaviorRiskWeight +
		float64(scores.RuleRisk)*c.rules.RuleRiskWeight

	finalScore := clampScore(int(math.Round(weighted)))

	var reasons []string
	if dup.IsDuplicate {
		reasons = append(reasons, dup.Reasons...)
	}
	reasons = append(reasons, vendorRisk.Reasons...)
	reasons = append(reasons, behaviorRisk.Reasons...)

	return FraudAssessment{
		FinalScore:      finalScore,
		Decision:        c.decide(finalScore),
		Reasons:         dedupeReasons(reasons, MaxReasons),
		ComponentScores: scores,
	}
}

func (c *FraudScoreCalculator) decide(score int) Decision {
	switch {
	case score >= c.rules.RejectThreshold:
		return DecisionReject
	case score >= c.rules.ReviewThreshold:
		return DecisionNeedsReview
	default:
		return DecisionApprove
	}
}

// dedupeReasons keeps the first occurrence of each reason, preserving
// first-seen order, and truncates to limit.
func dedupeReasons(reasons []string, limit int) []string {
	seen := make(map[string]struct{}, len(reasons))
	unique := make([]string, 0, len(reasons))
	for _, r := range reasons {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		unique = append(unique, r)
		if len(unique) == limit {
			break
		}
	}
	return unique
}
