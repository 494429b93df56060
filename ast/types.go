package ast

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount represents a numerical value with its associated currency or commodity symbol.
// The number is a decimal so the exact representation from the input survives a
// round trip; FormatNumber keeps trailing zeros such as "100.00".
type Amount struct {
	Number   decimal.Decimal
	Currency string
}

// NewAmount creates an Amount from a number literal and a currency.
func NewAmount(number, currency string) (*Amount, error) {
	d, err := decimal.NewFromString(number)
	if err != nil {
		return nil, fmt.Errorf("invalid amount value %q: %w", number, err)
	}
	return &Amount{Number: d, Currency: currency}, nil
}

// MustNewAmount is like NewAmount but panics on error.
// Use only in tests or with literals known to be valid.
func MustNewAmount(number, currency string) *Amount {
	a, err := NewAmount(number, currency)
	if err != nil {
		panic(err)
	}
	return a
}

// Neg returns a copy of the amount with the sign flipped.
func (a *Amount) Neg() *Amount {
	return &Amount{Number: a.Number.Neg(), Currency: a.Currency}
}

// String renders "NUMBER CURRENCY".
func (a *Amount) String() string {
	if a == nil {
		return ""
	}
	if a.Currency == "" {
		return FormatNumber(a.Number)
	}
	return FormatNumber(a.Number) + " " + a.Currency
}

// Equal reports whether both amounts have the same value and currency.
func (a *Amount) Equal(b *Amount) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Currency == b.Currency && a.Number.Equal(b.Number)
}

func (a *Amount) clone() *Amount {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

// FormatNumber renders a decimal keeping its scale, so "100.00" stays "100.00"
// instead of collapsing to "100".
func FormatNumber(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}

// accountSegmentRegex validates account segments (after first).
// Must start with uppercase letter or digit, can contain alphanumerics and hyphens.
var accountSegmentRegex = regexp.MustCompile(`^[\p{Lu}\p{Lo}0-9][\p{L}\p{N}-]*$`)

// ValidateAccount checks that name is a Beancount account: at least two
// colon-separated segments with one of the five account types first.
func ValidateAccount(name string) error {
	parts := strings.Split(name, ":")
	if len(parts) < 2 {
		return fmt.Errorf("account must have at least two segments: %s", name)
	}

	switch parts[0] {
	case "Assets", "Liabilities", "Equity", "Income", "Expenses":
	default:
		return fmt.Errorf(`unexpected account type "%s"`, parts[0])
	}

	for i := 1; i < len(parts); i++ {
		if !accountSegmentRegex.MatchString(parts[i]) {
			return fmt.Errorf("invalid account segment at position %d: %s", i, parts[i])
		}
	}
	return nil
}

// currencyRegex matches Beancount commodity names.
var currencyRegex = regexp.MustCompile(`^[A-Z][A-Z0-9'._-]{0,22}[A-Z0-9]?$`)

// IsCurrency reports whether s is a valid commodity symbol.
func IsCurrency(s string) bool {
	return currencyRegex.MatchString(s)
}
