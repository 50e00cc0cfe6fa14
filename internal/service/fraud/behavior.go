package fraud

import (
	"fmt"

	"github.com/auditgate/expense-fraud-engine/internal/domain/expense"
)

// BehaviorAnalyzer scores suspicious temporal and amount patterns versus the
// submitter's recent history. Each rule is additive and independent; a field
// that failed to normalize simply keeps its rules from triggering.
type BehaviorAnalyzer struct {
	rules *ScoringRules
}

const reasonNoHistory = "No historical data for behavior analysis"

// NewBehaviorAnalyzer creates a behavior analyzer with the given rules
func NewBehaviorAnalyzer(rules *ScoringRules) *BehaviorAnalyzer {
	return &BehaviorAnalyzer{rules: rules}
}

// Analyze scores behavioral risk of one expense against the history snapshot
func (b *BehaviorAnalyzer) Analyze(e *expense.Expense, history []*expense.Expense) RiskResult {
	if len(history) == 0 {
		return RiskResult{Score: 0, Reasons: []string{reasonNoHistory}}
	}

	score := 0
	var reasons []string

	// Identical amount repeating across submissions; the current expense
	// counts as one occurrence.
	if e.Amount.Valid() {
		occurrences := 1
		for _, hist := range history {
			if hist.Amount.Equal(e.Amount) {
				occurrences++
			}
		}
		if occurrences >= b.rules.RepeatedAmountCount {
			score += b.rules.RepeatedAmountPenalty
			reasons = append(reasons, fmt.Sprintf("Same amount %s repeated %d times", e.Amount, occurrences))
		}
	}

	// Receipt volume on the same calendar day
	if e.Date.Valid() {
		sameDay := 0
		for _, hist := range history {
			if hist.Date.SameDay(e.Date) {
				sameDay++
			}
		}
		if sameDay >= b.rules.SameDayCount {
			score += b.rules.SameDayPenalty
			reasons = append(reasons, fmt.Sprintf("%d receipts on same day", sameDay))
		}
	}

	// IsWeekend is false for unparseable dates, so this fails closed
	if e.Date.IsWeekend() {
		score += b.rules.WeekendPenalty
		reasons = append(reasons, "Expense on weekend")
	}

	return RiskResult{Score: clampScore(score), Reasons: reasons}
}
