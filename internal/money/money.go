// Package money parses and formats the euro amounts printed on receipts and typed by users.
package money

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// literal is a plain decimal number; exponents, NaN and thousands separators are refused
var literal = regexp.MustCompile(`^[+-]?\d+(?:[.,]\d+)?$`)

// maxLiteralLen bounds user input long before it could matter for a receipt amount
const maxLiteralLen = 32

// Parse converts a decimal literal to a Decimal. Both comma and dot are accepted as the
// fractional separator; the comma is normalized to a dot before conversion.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	if len(s) > maxLiteralLen || !literal.MatchString(s) {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	s = strings.Replace(s, ",", ".", 1)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return d, nil
}

// Format renders an amount with two decimals.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Sum adds the given amounts.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	if len(amounts) == 0 {
		return decimal.Zero
	}
	return decimal.Sum(decimal.Zero, amounts...)
}
