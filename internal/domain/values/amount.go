package values

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount represents a normalized, currency-agnostic monetary value.
// Raw submissions arrive as free text ("₹450.00", "1,200", "Rs. 85"); the
// boundary parses them once and the scoring core only ever sees Amount.
type Amount struct {
	value decimal.Decimal
	valid bool
}

// numericTokenRegex picks the first number-looking token out of the raw text,
// tolerating thousands separators. Stripping non-digits wholesale would turn
// "Rs. 85" into ".85", so extraction has to anchor on a leading digit.
var numericTokenRegex = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)

// NewAmount creates an Amount from a decimal value
func NewAmount(value decimal.Decimal) Amount {
	return Amount{value: value, valid: true}
}

// NewAmountFromFloat creates an Amount from a float64
// Note: Use with caution due to floating point precision issues
func NewAmountFromFloat(value float64) Amount {
	return Amount{value: decimal.NewFromFloat(value), valid: true}
}

// ParseAmount normalizes a raw textual amount. Currency symbols, thousands
// separators and surrounding noise are stripped before decimal parsing.
// An unparseable amount yields the zero Amount with Valid() == false; rules
// depending on the amount fail closed rather than erroring.
func ParseAmount(raw string) Amount {
	token := numericTokenRegex.FindString(strings.TrimSpace(raw))
	if token == "" {
		return Amount{}
	}
	dec, err := decimal.NewFromString(strings.ReplaceAll(token, ",", ""))
	if err != nil {
		return Amount{}
	}
	return Amount{value: dec, valid: true}
}

// MustParseAmount parses and panics on an invalid amount (for tests/fixtures)
func MustParseAmount(raw string) Amount {
	a := ParseAmount(raw)
	if !a.valid {
		panic(fmt.Sprintf("invalid amount: %q", raw))
	}
	return a
}

// Valid reports whether the amount was successfully normalized
func (a Amount) Valid() bool {
	return a.valid
}

// Decimal returns the underlying decimal value
func (a Amount) Decimal() decimal.Decimal {
	return a.value
}

// Float64 converts to float64 (use with caution for precision)
func (a Amount) Float64() float64 {
	f, _ := a.value.Float64()
	return f
}

// String returns the amount fixed to two decimal places
func (a Amount) String() string {
	return a.value.StringFixed(2)
}

// IsZero checks if the amount is zero
func (a Amount) IsZero() bool {
	return a.value.IsZero()
}

// Equal checks exact decimal equality
func (a Amount) Equal(other Amount) bool {
	return a.valid && other.valid && a.value.Equal(other.value)
}

// WithinTolerance reports whether two amounts differ by at most tolerance.
// Either side being invalid fails the comparison.
func (a Amount) WithinTolerance(other Amount, tolerance decimal.Decimal) bool {
	if !a.valid || !other.valid {
		return false
	}
	return a.value.Sub(other.value).Abs().LessThanOrEqual(tolerance)
}

// MarshalJSON serializes the amount as a fixed-point string
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.valid {
		return json.Marshal("")
	}
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts both string and numeric forms
func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = ParseAmount(s)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("invalid amount: %s", string(data))
	}
	*a = NewAmountFromFloat(f)
	return nil
}
