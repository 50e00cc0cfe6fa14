package fraud

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/auditgate/expense-fraud-engine/internal/domain/expense"
)

// VendorRiskEngine scores the intrinsic risk of a vendor/category pairing.
// Rules are additive: each one fires at most once, all matched reasons are
// retained, and the sum is clamped to 100 at the end.
type VendorRiskEngine struct {
	rules    *ScoringRules
	patterns []*regexp.Regexp
}

// NewVendorRiskEngine compiles the suspicious-pattern table. A bad pattern is
// a configuration error and fails construction, never a scoring call.
func NewVendorRiskEngine(rules *ScoringRules) (*VendorRiskEngine, error) {
	patterns := make([]*regexp.Regexp, 0, len(rules.SuspiciousPatterns))
	for _, p := range rules.SuspiciousPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compiling suspicious pattern %q: %w", p, err)
		}
		patterns = append(patterns, re)
	}
	return &VendorRiskEngine{rules: rules, patterns: patterns}, nil
}

// Assess scores the vendor risk of one expense against the history snapshot
func (v *VendorRiskEngine) Assess(e *expense.Expense, history []*expense.Expense) RiskResult {
	score := 0
	var reasons []string

	vendor := e.VendorKey()

	// Known high-risk vendor table, first match wins
	for _, entry := range v.rules.HighRiskVendors {
		if strings.Contains(vendor, entry.Keyword) {
			score += entry.Risk
			reasons = append(reasons, fmt.Sprintf("High-risk vendor: %s", entry.Keyword))
			break
		}
	}

	// Personal-expense keywords, first match wins
	for _, keyword := range v.rules.PersonalKeywords {
		if strings.Contains(vendor, keyword) {
			score += v.rules.PersonalKeywordPenalty
			reasons = append(reasons, fmt.Sprintf("Personal expense keyword: %s", keyword))
			break
		}
	}

	// Broader suspicious patterns, first match only
	for _, re := range v.patterns {
		if re.MatchString(vendor) {
			score += v.rules.SuspiciousPatternPenalty
			reasons = append(reasons, "Suspicious vendor pattern detected")
			break
		}
	}

	// Small local vendors typically lack a tax registration
	if v.isSmallLocalVendor(vendor) {
		score += v.rules.SmallVendorPenalty
		reasons = append(reasons, "Small local vendor without tax registration")
	}

	if freqScore, freqReason := v.vendorFrequency(vendor, history); freqScore > 0 {
		score += freqScore
		reasons = append(reasons, freqReason)
	}

	if mismatchScore, mismatchReason := v.categoryMismatch(vendor, e.Category); mismatchScore > 0 {
		score += mismatchScore
		reasons = append(reasons, mismatchReason)
	}

	return RiskResult{Score: clampScore(score), Reasons: reasons}
}

func (v *VendorRiskEngine) isSmallLocalVendor(vendor string) bool {
	if vendor == "" {
		return false
	}
	for _, indicator := range v.rules.SmallVendorKeywords {
		if strings.Contains(vendor, indicator) {
			return true
		}
	}
	return false
}

// vendorFrequency counts case-insensitive exact vendor matches in the recent
// history; the reason string always carries the observed count.
func (v *VendorRiskEngine) vendorFrequency(vendor string, history []*expense.Expense) (int, string) {
	if vendor == "" {
		return 0, ""
	}

	count := 0
	for _, hist := range history {
		if hist.VendorKey() == vendor {
			count++
		}
	}

	switch {
	case count >= v.rules.VendorFrequencyHighCount:
		return v.rules.VendorFrequencyHighPenalty, fmt.Sprintf("Vendor used %d times recently", count)
	case count >= v.rules.VendorFrequencyLowCount:
		return v.rules.VendorFrequencyLowPenalty, fmt.Sprintf("Vendor used %d times recently", count)
	default:
		return 0, ""
	}
}

func (v *VendorRiskEngine) categoryMismatch(vendor string, category expense.Category) (int, string) {
	if vendor == "" || category.Key() == "" {
		return 0, ""
	}

	for _, expectation := range v.rules.ExpectedCategories {
		if !strings.Contains(vendor, expectation.Keyword) {
			continue
		}
		if category.Matches(expectation.Expected) {
			return 0, ""
		}
		return v.rules.CategoryMismatchPenalty, fmt.Sprintf(
			"Category mismatch: vendor suggests '%s' but got '%s'",
			expectation.Expected, category)
	}
	return 0, ""
}
