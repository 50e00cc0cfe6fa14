package fraud

import (
	"fmt"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/shopspring/decimal"

	"github.com/auditgate/expense-fraud-engine/internal/domain/expense"
	"github.com/auditgate/expense-fraud-engine/internal/domain/values"
)

// DuplicateDetector flags an incoming expense as a repeat of a historical one.
// Three checks run in order against every historical record; the first match
// claims that record and short-circuits its remaining checks, but the scan
// always covers the full snapshot so DuplicateCount is the true total.
type DuplicateDetector struct {
	rules     *ScoringRules
	tolerance decimal.Decimal
}

const (
	reasonExactDuplicate = "Exact duplicate receipt detected"
	reasonCompositeMatch = "Same vendor, amount, and date combination"
)

// NewDuplicateDetector creates a duplicate detector with the given rules
func NewDuplicateDetector(rules *ScoringRules) *DuplicateDetector {
	return &DuplicateDetector{
		rules:     rules,
		tolerance: decimal.NewFromFloat(rules.AmountTolerance),
	}
}

// Detect scans the history snapshot for repeats of the incoming expense
func (d *DuplicateDetector) Detect(current *expense.Expense, history []*expense.Expense) DuplicateResult {
	result := DuplicateResult{}
	seen := make(map[string]struct{})

	currentHash := current.ReceiptHash()
	currentText := values.CanonicalizeReceiptText(current.RawText)

	for _, hist := range history {
		if currentHash.Equal(hist.ReceiptHash()) {
			d.record(&result, seen, hist, reasonExactDuplicate)
			continue
		}

		if ratio := similarityRatio(currentText, values.CanonicalizeReceiptText(hist.RawText)); ratio > d.rules.SimilarityThreshold {
			d.record(&result, seen, hist, fmt.Sprintf("High text similarity (%.2f)", ratio))
			continue
		}

		if d.compositeMatch(current, hist) {
			d.record(&result, seen, hist, reasonCompositeMatch)
		}
	}

	result.IsDuplicate = result.DuplicateCount > 0
	return result
}

func (d *DuplicateDetector) record(result *DuplicateResult, seen map[string]struct{}, match *expense.Expense, reason string) {
	result.DuplicateCount++
	if len(result.Matches) < MaxDuplicateMatches {
		result.Matches = append(result.Matches, match)
	}
	if _, ok := seen[reason]; !ok {
		seen[reason] = struct{}{}
		result.Reasons = append(result.Reasons, reason)
	}
}

func (d *DuplicateDetector) compositeMatch(current, hist *expense.Expense) bool {
	if current.VendorKey() == "" || current.VendorKey() != hist.VendorKey() {
		return false
	}
	if !current.Amount.WithinTolerance(hist.Amount, d.tolerance) {
		return false
	}
	// Unparseable dates fail the window check closed
	return current.Date.WithinDays(hist.Date, d.rules.DateWindowDays)
}

// similarityRatio is a normalized edit-distance similarity in [0, 1].
// Either text being empty yields 0, so blank receipts never fuzzy-match.
func similarityRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}

	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}
