package fraud

import (
	"fmt"
	"testing"

	"github.com/auditgate/expense-fraud-engine/internal/domain/expense"
)

// newTestExpense builds an expense whose receipt text is derived from its
// fields, so two calls with identical arguments produce exact duplicates.
func newTestExpense(t *testing.T, vendor, amount, date, category string) *expense.Expense {
	t.Helper()
	return expense.New(expense.Input{
		Vendor:     vendor,
		Amount:     amount,
		Date:       date,
		Category:   category,
		EmployeeID: "emp-001",
		RawText:    fmt.Sprintf("Receipt from %s amount %s dated %s", vendor, amount, date),
	})
}

// newTestExpenseWithText is the same builder with an explicit receipt text,
// for cases where text similarity must be controlled independently.
func newTestExpenseWithText(t *testing.T, vendor, amount, date, category, rawText string) *expense.Expense {
	t.Helper()
	return expense.New(expense.Input{
		Vendor:     vendor,
		Amount:     amount,
		Date:       date,
		Category:   category,
		EmployeeID: "emp-001",
		RawText:    rawText,
	})
}
