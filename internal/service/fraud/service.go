package fraud

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/auditgate/expense-fraud-engine/internal/domain/errors"
	"github.com/auditgate/expense-fraud-engine/internal/domain/expense"
)

// service implements the Service interface
type service struct {
	rules      *ScoringRules
	duplicates *DuplicateDetector
	vendorRisk *VendorRiskEngine
	behavior   *BehaviorAnalyzer
	calculator *FraudScoreCalculator
	external   ExternalRuleScorer // optional
	logger     *zap.Logger
}

// NewService wires the three detectors and the calculator into the scoring
// engine. external may be nil; its contribution then defaults to 0.
func NewService(rules *ScoringRules, external ExternalRuleScorer, logger *zap.Logger) (Service, error) {
	if rules == nil {
		rules = DefaultScoringRules()
	}
	if err := rules.Validate(); err != nil {
		return nil, errors.NewValidationError("INVALID_RULES", "invalid scoring rules").WithCause(err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	vendorRisk, err := NewVendorRiskEngine(rules)
	if err != nil {
		return nil, errors.NewValidationError("INVALID_RULES", "invalid scoring rules").WithCause(err)
	}

	return &service{
		rules:      rules,
		duplicates: NewDuplicateDetector(rules),
		vendorRisk: vendorRisk,
		behavior:   NewBehaviorAnalyzer(rules),
		calculator: NewFraudScoreCalculator(rules),
		external:   external,
		logger:     logger,
	}, nil
}

// ScoreExpense assesses one expense against a history snapshot. The three
// detectors have no data dependency on one another and fan out in goroutines;
// a panic inside one detector fails this expense's assessment only.
func (s *service) ScoreExpense(ctx context.Context, e *expense.Expense, history []*expense.Expense) (*FraudAssessment, error) {
	if e == nil {
		return nil, errors.NewValidationError("NIL_EXPENSE", "expense cannot be nil")
	}

	window := s.recentWindow(history)

	var (
		dupResult      DuplicateResult
		vendorResult   RiskResult
		behaviorResult RiskResult

		dupErr      error
		vendorErr   error
		behaviorErr error
	)

	done := make(chan struct{}, 3)

	go func() {
		defer s.isolate("duplicate", &dupErr, done)
		dupResult = s.duplicates.Detect(e, window)
	}()
	go func() {
		defer s.isolate("vendor_risk", &vendorErr, done)
		vendorResult = s.vendorRisk.Assess(e, window)
	}()
	go func() {
		defer s.isolate("behavior", &behaviorErr, done)
		behaviorResult = s.behavior.Analyze(e, window)
	}()

	// The external signal runs on the calling goroutine while the
	// detectors work; it is the only component allowed to block on ctx.
	ruleRisk := s.externalScore(ctx, e, window)

	for i := 0; i < 3; i++ {
		<-done
	}

	for _, err := range []error{dupErr, vendorErr, behaviorErr} {
		if err != nil {
			return nil, err
		}
	}

	assessment := s.calculator.Calculate(dupResult, vendorResult, behaviorResult, ruleRisk)
	assessment.ExpenseID = e.ID
	assessment.ScoredAt = time.Now().UTC()

	s.logger.Debug("expense scored",
		zap.String("expense_id", e.ID.String()),
		zap.String("vendor", e.Vendor),
		zap.Int("final_score", assessment.FinalScore),
		zap.String("decision", string(assessment.Decision)),
		zap.Int("duplicate_count", dupResult.DuplicateCount))

	return &assessment, nil
}

// ScoreBatch assesses each expense against the same shared snapshot and
// always returns one result per input, errors included.
func (s *service) ScoreBatch(ctx context.Context, batch []*expense.Expense, history []*expense.Expense) []BatchResult {
	results := make([]BatchResult, len(batch))
	for i, e := range batch {
		result := BatchResult{}
		if e != nil {
			result.ExpenseID = e.ID
		}

		assessment, err := s.ScoreExpense(ctx, e, history)
		if err != nil {
			s.logger.Warn("batch entry failed to score",
				zap.Int("index", i),
				zap.Error(err))
			result.Err = err
		} else {
			result.Assessment = assessment
		}
		results[i] = result
	}
	return results
}

// recentWindow bounds detector scans to the configured number of most recent
// records so scoring latency stays independent of total history size.
func (s *service) recentWindow(history []*expense.Expense) []*expense.Expense {
	if n := s.rules.RecentWindow; n > 0 && len(history) > n {
		return history[len(history)-n:]
	}
	return history
}

// isolate converts a detector panic into a scoring error for this expense so
// one bad record cannot take down a batch or corrupt sibling detectors.
func (s *service) isolate(component string, errOut *error, done chan<- struct{}) {
	if r := recover(); r != nil {
		s.logger.Error("detector panicked",
			zap.String("component", component),
			zap.Any("panic", r))
		*errOut = errors.NewScoringError(component, fmt.Sprintf("%s detector failed: %v", component, r))
	}
	done <- struct{}{}
}

// externalScore merges the optional plug-in signal. A failing external scorer
// contributes 0: inability to obtain the signal must never inflate risk or
// block scoring.
func (s *service) externalScore(ctx context.Context, e *expense.Expense, history []*expense.Expense) int {
	if s.external == nil {
		return 0
	}

	score, err := s.external.Score(ctx, e, history)
	if err != nil {
		s.logger.Warn("external rule scorer failed, contributing zero",
			zap.String("expense_id", e.ID.String()),
			zap.Error(err))
		return 0
	}
	if math.IsNaN(score) {
		return 0
	}
	return clampScore(int(math.Round(score)))
}
