package fraud

import (
	"time"

	"github.com/google/uuid"

	"github.com/auditgate/expense-fraud-engine/internal/domain/expense"
)

// Decision is the final verdict for one expense
type Decision string

const (
	DecisionApprove     Decision = "APPROVE"
	DecisionNeedsReview Decision = "NEEDS_REVIEW"
	DecisionReject      Decision = "REJECT"
)

// ComponentScores carries the 0-100 contribution of each detector before
// weighting
type ComponentScores struct {
	Duplicate    int `json:"duplicate"`
	VendorRisk   int `json:"vendor_risk"`
	BehaviorRisk int `json:"behavior_risk"`
	RuleRisk     int `json:"rule_risk"`
}

// FraudAssessment is the engine's final verdict for one expense. It is created
// fresh per scoring call and never mutated after return; persistence is the
// caller's concern.
type FraudAssessment struct {
	ExpenseID       uuid.UUID       `json:"expense_id"`
	FinalScore      int             `json:"final_score"`
	Decision        Decision        `json:"decision"`
	Reasons         []string        `json:"reasons"`
	ComponentScores ComponentScores `json:"component_scores"`
	ScoredAt        time.Time       `json:"scored_at"`
}

// DuplicateResult is the structured output of the duplicate detector
type DuplicateResult struct {
	IsDuplicate bool `json:"is_duplicate"`

	// DuplicateCount is the true number of matching historical records,
	// even when Matches is capped.
	DuplicateCount int `json:"duplicate_count"`

	// Matches holds at most MaxDuplicateMatches historical records
	Matches []*expense.Expense `json:"matches,omitempty"`

	// Reasons has set semantics: one entry per match kind, first-seen order
	Reasons []string `json:"reasons,omitempty"`
}

// RiskResult is the structured output of the vendor-risk and behavior
// detectors: a clamped 0-100 score plus the triggered rules' reasons in
// rule-evaluation order.
type RiskResult struct {
	Score   int      `json:"score"`
	Reasons []string `json:"reasons,omitempty"`
}

// BatchResult is one slot of a batch scoring call. Exactly one of Assessment
// and Err is set; a failure scoring one expense never aborts the rest.
type BatchResult struct {
	ExpenseID  uuid.UUID        `json:"expense_id"`
	Assessment *FraudAssessment `json:"assessment,omitempty"`
	Err        error            `json:"-"`
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
