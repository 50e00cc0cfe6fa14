package expense

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/auditgate/expense-fraud-engine/internal/domain/values"
)

// Expense is a single normalized record describing one purchase submitted for
// reimbursement. It is immutable once scored: detectors only read it, and the
// historical store never hands out records for mutation.
type Expense struct {
	ID         uuid.UUID          `json:"id"`
	Vendor     string             `json:"vendor"`
	Amount     values.Amount      `json:"amount"`
	Date       values.ExpenseDate `json:"date"`
	Category   Category           `json:"category"`
	EmployeeID string             `json:"employee_id"`

	// RawText is the original unstructured receipt text, retained for
	// text-similarity duplicate checks.
	RawText string `json:"raw_text"`

	SubmittedAt time.Time `json:"submitted_at"`
}

// Input carries the already-extracted fields for one submission. Amount and
// date stay textual here; normalization happens exactly once, in New.
type Input struct {
	Vendor     string `json:"vendor" validate:"required"`
	Amount     string `json:"amount" validate:"required"`
	Date       string `json:"date" validate:"required"`
	Category   string `json:"category" validate:"required"`
	EmployeeID string `json:"employee_id"`
	RawText    string `json:"raw_text"`
}

// New builds a normalized Expense from extracted fields. Malformed amounts and
// dates are retained in their fail-closed form rather than rejected; the
// conservative-bias policy is that unparseable input must never inflate risk.
func New(in Input) *Expense {
	return &Expense{
		ID:          uuid.New(),
		Vendor:      strings.TrimSpace(in.Vendor),
		Amount:      values.ParseAmount(in.Amount),
		Date:        values.ParseExpenseDate(in.Date),
		Category:    Category(strings.TrimSpace(in.Category)),
		EmployeeID:  strings.TrimSpace(in.EmployeeID),
		RawText:     in.RawText,
		SubmittedAt: time.Now().UTC(),
	}
}

// VendorKey returns the case-folded vendor name used for exact vendor matching
func (e *Expense) VendorKey() string {
	return strings.ToLower(strings.TrimSpace(e.Vendor))
}

// ReceiptHash computes the content hash of the canonicalized receipt text
func (e *Expense) ReceiptHash() values.ReceiptHash {
	return values.ComputeReceiptHash(e.RawText)
}
