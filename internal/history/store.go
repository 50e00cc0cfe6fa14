package history

import (
	"context"

	"github.com/auditgate/expense-fraud-engine/internal/domain/expense"
)

// Store is the historical record of previously scored expenses. It is
// append-only and size-bounded: once the bound is reached the oldest record is
// evicted first. Callers score an expense against a snapshot and only then
// add it, so a store never contains the expense currently being scored.
type Store interface {
	// Add appends a scored expense, evicting the oldest record when full.
	// Writes are serialized relative to snapshot reads.
	Add(ctx context.Context, e *expense.Expense) error

	// Recent returns a consistent snapshot of the most recent n records,
	// oldest first. n <= 0 returns the whole retained history.
	Recent(ctx context.Context, n int) ([]*expense.Expense, error)

	// Len returns the number of retained records
	Len(ctx context.Context) (int, error)
}
