package history

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/auditgate/expense-fraud-engine/internal/domain/errors"
	"github.com/auditgate/expense-fraud-engine/internal/domain/expense"
	"github.com/auditgate/expense-fraud-engine/internal/domain/values"
)

// EmployeeProfile aggregates submission behavior per employee. It is updated
// on every Add and read by audit tooling; detectors do not depend on it.
type EmployeeProfile struct {
	EmployeeID    string                   `json:"employee_id"`
	TotalExpenses int                      `json:"total_expenses"`
	TotalAmount   decimal.Decimal          `json:"total_amount"`
	Categories    map[expense.Category]int `json:"categories"`
	LastExpense   values.ExpenseDate       `json:"last_expense"`
}

// SimilarExpense pairs a historical record with its field-weighted similarity
// to a probe expense.
type SimilarExpense struct {
	Expense    *expense.Expense
	Similarity float64
}

// MemoryStore is the in-process Store implementation: a bounded, append-only
// ring of expenses guarded by a single RWMutex. One writer, many concurrent
// snapshot readers.
type MemoryStore struct {
	mu       sync.RWMutex
	records  []*expense.Expense
	profiles map[string]*EmployeeProfile
	maxSize  int
	logger   *zap.Logger
}

// DefaultMaxSize bounds retained history when no size is configured
const DefaultMaxSize = 1000

// NewMemoryStore creates a bounded in-memory store
func NewMemoryStore(maxSize int, logger *zap.Logger) *MemoryStore {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{
		records:  make([]*expense.Expense, 0, maxSize),
		profiles: make(map[string]*EmployeeProfile),
		maxSize:  maxSize,
		logger:   logger,
	}
}

// Add appends a scored expense, evicting the oldest record when full
func (s *MemoryStore) Add(_ context.Context, e *expense.Expense) error {
	if e == nil {
		return errors.NewValidationError("NIL_EXPENSE", "expense cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, e)
	if len(s.records) > s.maxSize {
		evicted := len(s.records) - s.maxSize
		s.records = s.records[evicted:]
		s.logger.Debug("evicted oldest history records", zap.Int("count", evicted))
	}

	s.updateProfile(e)
	return nil
}

// Recent returns a snapshot of the most recent n records, oldest first
func (s *MemoryStore) Recent(_ context.Context, n int) ([]*expense.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if n > 0 && len(s.records) > n {
		start = len(s.records) - n
	}

	snapshot := make([]*expense.Expense, len(s.records)-start)
	copy(snapshot, s.records[start:])
	return snapshot, nil
}

// Len returns the number of retained records
func (s *MemoryStore) Len(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Profile returns a copy of the behavior profile for an employee, or nil when
// the employee has no recorded expenses.
func (s *MemoryStore) Profile(employeeID string) *EmployeeProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[employeeID]
	if !ok {
		return nil
	}

	categories := make(map[expense.Category]int, len(p.Categories))
	for c, n := range p.Categories {
		categories[c] = n
	}
	return &EmployeeProfile{
		EmployeeID:    p.EmployeeID,
		TotalExpenses: p.TotalExpenses,
		TotalAmount:   p.TotalAmount,
		Categories:    categories,
		LastExpense:   p.LastExpense,
	}
}

// FindSimilar returns retained expenses whose field-weighted similarity to the
// probe exceeds the threshold, scanning at most the window most recent records.
// Weights: employee 0.3, vendor 0.3, category 0.2, amount ratio up to 0.2.
func (s *MemoryStore) FindSimilar(probe *expense.Expense, threshold float64, window int) []SimilarExpense {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if window > 0 && len(s.records) > window {
		start = len(s.records) - window
	}

	var similar []SimilarExpense
	for _, rec := range s.records[start:] {
		if score := fieldSimilarity(probe, rec); score > threshold {
			similar = append(similar, SimilarExpense{Expense: rec, Similarity: score})
		}
	}
	return similar
}

func (s *MemoryStore) updateProfile(e *expense.Expense) {
	if e.EmployeeID == "" {
		return
	}

	p, ok := s.profiles[e.EmployeeID]
	if !ok {
		p = &EmployeeProfile{
			EmployeeID: e.EmployeeID,
			Categories: make(map[expense.Category]int),
		}
		s.profiles[e.EmployeeID] = p
	}

	p.TotalExpenses++
	if e.Amount.Valid() {
		p.TotalAmount = p.TotalAmount.Add(e.Amount.Decimal())
	}
	p.Categories[e.Category]++
	if e.Date.Valid() {
		p.LastExpense = e.Date
	}
}

func fieldSimilarity(a, b *expense.Expense) float64 {
	score := 0.0
	matched := false

	if a.EmployeeID != "" && a.EmployeeID == b.EmployeeID {
		score += 0.3
		matched = true
	}
	if a.Category.Key() == b.Category.Key() {
		score += 0.2
		matched = true
	}
	if a.VendorKey() != "" && a.VendorKey() == b.VendorKey() {
		score += 0.3
		matched = true
	}
	if a.Amount.Valid() && b.Amount.Valid() && !a.Amount.IsZero() && !b.Amount.IsZero() {
		lo, hi := a.Amount.Decimal(), b.Amount.Decimal()
		if lo.GreaterThan(hi) {
			lo, hi = hi, lo
		}
		ratio, _ := lo.Div(hi).Float64()
		score += ratio * 0.2
		matched = true
	}

	if !matched {
		return 0
	}
	return score
}
