package fraud

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/auditgate/expense-fraud-engine/internal/domain/errors"
	"github.com/auditgate/expense-fraud-engine/internal/domain/expense"
)

type mockRuleScorer struct {
	mock.Mock
}

func (m *mockRuleScorer) Score(ctx context.Context, e *expense.Expense, history []*expense.Expense) (float64, error) {
	args := m.Called(ctx, e, history)
	return args.Get(0).(float64), args.Error(1)
}

func newTestService(t *testing.T, external ExternalRuleScorer) Service {
	t.Helper()
	svc, err := NewService(DefaultScoringRules(), external, zaptest.NewLogger(t))
	require.NoError(t, err)
	return svc
}

func TestNewService(t *testing.T) {
	t.Run("nil rules fall back to defaults", func(t *testing.T) {
		svc, err := NewService(nil, nil, nil)
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})

	t.Run("invalid rules rejected", func(t *testing.T) {
		rules := DefaultScoringRules()
		rules.DuplicateWeight = 0.9

		_, err := NewService(rules, nil, zaptest.NewLogger(t))
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	})
}

func TestService_ScoreExpense_CleanExpenseApproves(t *testing.T) {
	svc := newTestService(t, nil)

	// 15 Jan 2025 is a Wednesday and nothing in history resembles it
	e := newTestExpense(t, "Acme Office Supplies Pvt Ltd", "1500.00", "15 Jan 2025", "Supplies")
	history := []*expense.Expense{
		newTestExpense(t, "Hotel Taj", "8200.00", "02 Jan 2025", "Travel"),
		newTestExpense(t, "City Taxi Service", "310.00", "09 Jan 2025", "Travel"),
	}

	assessment, err := svc.ScoreExpense(context.Background(), e, history)
	require.NoError(t, err)

	assert.Equal(t, DecisionApprove, assessment.Decision)
	assert.Zero(t, assessment.FinalScore)
	assert.Equal(t, e.ID, assessment.ExpenseID)
	assert.False(t, assessment.ScoredAt.IsZero())
}

func TestService_ScoreExpense_FirstExpenseAgainstEmptyHistory(t *testing.T) {
	svc := newTestService(t, nil)

	e := newTestExpense(t, "Amazon", "1200", "2025-01-18", "Shopping")

	assessment, err := svc.ScoreExpense(context.Background(), e, nil)
	require.NoError(t, err)

	assert.Equal(t, DecisionApprove, assessment.Decision)
	assert.Zero(t, assessment.ComponentScores.Duplicate)
	assert.Zero(t, assessment.ComponentScores.BehaviorRisk)
	assert.Equal(t, 10, assessment.ComponentScores.VendorRisk, "only the vendor table entry fires")
	assert.Contains(t, assessment.Reasons, "No historical data for behavior analysis")
}

func TestService_ScoreExpense_NearIdenticalReceiptText(t *testing.T) {
	svc := newTestService(t, nil)

	history := []*expense.Expense{
		newTestExpenseWithText(t, "Uber", "450.00", "15 Jan 2025", "Travel",
			"UBER INDIA Trip to airport 15 Jan 2025 Total ₹450.00"),
	}
	e := newTestExpenseWithText(t, "Uber", "450.00", "15 Jan 2025", "Travel",
		"UBER INDIA Trip to airport 15 Jan 2025 Total ₹450.00 - paid")

	assessment, err := svc.ScoreExpense(context.Background(), e, history)
	require.NoError(t, err)

	assert.Equal(t, 100, assessment.ComponentScores.Duplicate)
	hasSimilarity := false
	for _, reason := range assessment.Reasons {
		if strings.HasPrefix(reason, "High text similarity") {
			hasSimilarity = true
		}
	}
	assert.True(t, hasSimilarity)
	// duplicate 100*0.30 + vendor 30*0.25 = 38 with a clean behavior record
	assert.Equal(t, 38, assessment.FinalScore)
}

func TestService_ScoreExpense_DuplicateRaisesScore(t *testing.T) {
	svc := newTestService(t, nil)

	e := newTestExpense(t, "Acme Office Supplies Pvt Ltd", "1500.00", "15 Jan 2025", "Supplies")
	baseline := []*expense.Expense{
		newTestExpense(t, "Hotel Taj", "8200.00", "02 Jan 2025", "Travel"),
	}
	withDuplicate := append(baseline,
		newTestExpense(t, "Acme Office Supplies Pvt Ltd", "1500.00", "15 Jan 2025", "Supplies"))

	clean, err := svc.ScoreExpense(context.Background(), e, baseline)
	require.NoError(t, err)
	flagged, err := svc.ScoreExpense(context.Background(), e, withDuplicate)
	require.NoError(t, err)

	assert.Zero(t, clean.ComponentScores.Duplicate)
	assert.Equal(t, 100, flagged.ComponentScores.Duplicate)
	assert.Greater(t, flagged.FinalScore, clean.FinalScore)
	assert.Contains(t, flagged.Reasons, "Exact duplicate receipt detected")
}

func TestService_ScoreExpense_HighRiskComboRejects(t *testing.T) {
	external := &mockRuleScorer{}
	external.On("Score", mock.Anything, mock.Anything, mock.Anything).Return(100.0, nil)
	svc := newTestService(t, external)

	// Saturday resubmission of a suspicious vendor with a repeated amount
	// and heavy same-day volume. Every component contributes.
	e := newTestExpense(t, "Mobile Recharge Store", "499.00", "18 Jan 2025", "Supplies")
	history := []*expense.Expense{
		newTestExpense(t, "Mobile Recharge Store", "499.00", "18 Jan 2025", "Supplies"),
		newTestExpense(t, "Diner Two", "499.00", "18 Jan 2025", "Meals"),
		newTestExpense(t, "Snack Hub", "499.00", "18 Jan 2025", "Meals"),
	}

	assessment, err := svc.ScoreExpense(context.Background(), e, history)
	require.NoError(t, err)

	assert.Equal(t, DecisionReject, assessment.Decision)
	assert.GreaterOrEqual(t, assessment.FinalScore, DefaultRejectThreshold)
	assert.Len(t, assessment.Reasons, MaxReasons)
	external.AssertExpectations(t)
}

func TestService_ScoreExpense_ExternalScorerFailsClosed(t *testing.T) {
	external := &mockRuleScorer{}
	external.On("Score", mock.Anything, mock.Anything, mock.Anything).
		Return(0.0, errors.NewExternalError("rules-api", "timeout"))
	svc := newTestService(t, external)

	e := newTestExpense(t, "Acme Office Supplies Pvt Ltd", "1500.00", "15 Jan 2025", "Supplies")

	assessment, err := svc.ScoreExpense(context.Background(), e, nil)
	require.NoError(t, err, "a failing external scorer must not block scoring")

	assert.Zero(t, assessment.ComponentScores.RuleRisk)
	external.AssertExpectations(t)
}

func TestService_ScoreExpense_ExternalScoreClamped(t *testing.T) {
	external := &mockRuleScorer{}
	external.On("Score", mock.Anything, mock.Anything, mock.Anything).Return(640.0, nil)
	svc := newTestService(t, external)

	e := newTestExpense(t, "Acme Office Supplies Pvt Ltd", "1500.00", "15 Jan 2025", "Supplies")

	assessment, err := svc.ScoreExpense(context.Background(), e, nil)
	require.NoError(t, err)

	assert.Equal(t, 100, assessment.ComponentScores.RuleRisk)
}

func TestService_ScoreExpense_NilExpense(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.ScoreExpense(context.Background(), nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestService_ScoreExpense_DetectorPanicIsolated(t *testing.T) {
	svc := newTestService(t, nil)

	e := newTestExpense(t, "Acme Office Supplies Pvt Ltd", "1500.00", "15 Jan 2025", "Supplies")
	history := []*expense.Expense{
		newTestExpense(t, "Hotel Taj", "8200.00", "02 Jan 2025", "Travel"),
		nil, // corrupt snapshot entry
	}

	_, err := svc.ScoreExpense(context.Background(), e, history)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeScoring))
}

func TestService_ScoreExpense_RecentWindowBoundsScan(t *testing.T) {
	rules := DefaultScoringRules()
	rules.RecentWindow = 2
	svc, err := NewService(rules, nil, zaptest.NewLogger(t))
	require.NoError(t, err)

	e := newTestExpense(t, "Acme Office Supplies Pvt Ltd", "1500.00", "15 Jan 2025", "Supplies")
	history := []*expense.Expense{
		// old duplicates, outside the scan window
		newTestExpense(t, "Acme Office Supplies Pvt Ltd", "1500.00", "15 Jan 2025", "Supplies"),
		newTestExpense(t, "Acme Office Supplies Pvt Ltd", "1500.00", "15 Jan 2025", "Supplies"),
		// recent unrelated records
		newTestExpense(t, "Hotel Taj", "8200.00", "02 Jan 2025", "Travel"),
		newTestExpense(t, "City Taxi Service", "310.00", "09 Jan 2025", "Travel"),
	}

	assessment, err := svc.ScoreExpense(context.Background(), e, history)
	require.NoError(t, err)

	assert.Zero(t, assessment.ComponentScores.Duplicate,
		"records older than the recent window must not be scanned")
}

func TestService_ScoreExpense_Deterministic(t *testing.T) {
	svc := newTestService(t, nil)

	e := newTestExpense(t, "Uber India", "450.00", "18 Jan 2025", "Travel")
	history := []*expense.Expense{
		newTestExpense(t, "Uber India", "450.00", "18 Jan 2025", "Travel"),
		newTestExpense(t, "Diner Two", "450.00", "18 Jan 2025", "Meals"),
		newTestExpense(t, "Snack Hub", "450.00", "18 Jan 2025", "Meals"),
	}

	first, err := svc.ScoreExpense(context.Background(), e, history)
	require.NoError(t, err)

	for i := 0; i < 25; i++ {
		next, err := svc.ScoreExpense(context.Background(), e, history)
		require.NoError(t, err)

		assert.Equal(t, first.FinalScore, next.FinalScore)
		assert.Equal(t, first.Decision, next.Decision)
		assert.Equal(t, first.Reasons, next.Reasons)
		assert.Equal(t, first.ComponentScores, next.ComponentScores)
	}
}

func TestService_ScoreBatch(t *testing.T) {
	svc := newTestService(t, nil)

	good1 := newTestExpense(t, "Acme Office Supplies Pvt Ltd", "1500.00", "15 Jan 2025", "Supplies")
	good2 := newTestExpense(t, "Hotel Taj", "8200.00", "14 Jan 2025", "Travel")
	batch := []*expense.Expense{good1, nil, good2}

	results := svc.ScoreBatch(context.Background(), batch, nil)
	require.Len(t, results, 3)

	assert.Equal(t, good1.ID, results[0].ExpenseID)
	require.NotNil(t, results[0].Assessment)
	assert.NoError(t, results[0].Err)

	assert.Error(t, results[1].Err, "a nil entry fails alone without aborting the batch")
	assert.Nil(t, results[1].Assessment)

	assert.Equal(t, good2.ID, results[2].ExpenseID)
	require.NotNil(t, results[2].Assessment)
}

func TestService_ScoreBatch_SharedSnapshot(t *testing.T) {
	svc := newTestService(t, nil)

	// Two identical submissions in one batch are each scored against the
	// same history; neither sees the other, so neither is a duplicate yet.
	a := newTestExpense(t, "Cafe One", "120.00", "15 Jan 2025", "Meals")
	b := newTestExpense(t, "Cafe One", "120.00", "15 Jan 2025", "Meals")

	results := svc.ScoreBatch(context.Background(), []*expense.Expense{a, b}, nil)
	require.Len(t, results, 2)

	for _, r := range results {
		require.NoError(t, r.Err)
		assert.Zero(t, r.Assessment.ComponentScores.Duplicate)
	}
}
