package fraud

import (
	"context"

	"github.com/auditgate/expense-fraud-engine/internal/domain/expense"
)

// Service is the fraud risk scoring engine's call surface. Scoring is a pure,
// synchronous computation over an immutable history snapshot: callers take a
// snapshot, score, and only then insert the expense into history.
type Service interface {
	// ScoreExpense assesses one expense against a history snapshot
	ScoreExpense(ctx context.Context, e *expense.Expense, history []*expense.Expense) (*FraudAssessment, error)

	// ScoreBatch assesses N expenses against one shared snapshot and always
	// returns N results; per-expense failures occupy their slot as errors.
	ScoreBatch(ctx context.Context, batch []*expense.Expense, history []*expense.Expense) []BatchResult
}

// ExternalRuleScorer is an optional plug-in signal (policy rule engine, ML
// anomaly detector) merged into the weighted score. Implementations return a
// 0-100 risk contribution. When no scorer is configured the contribution
// defaults to 0.
type ExternalRuleScorer interface {
	Score(ctx context.Context, e *expense.Expense, history []*expense.Expense) (float64, error)
}
