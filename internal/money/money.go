// Package money converts between user-entered decimal amounts and the integer
// minor units (cents) every other package works with.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrInvalidAmount is returned for empty, malformed, non-positive or
// overflowing amounts.
var ErrInvalidAmount = errors.New("invalid amount")

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(math.MaxInt64)
	printer  = message.NewPrinter(language.English)
)

// ParseCents converts a decimal string to cents. Both "12.34" and "12,34" are
// accepted; a third fractional digit rounds half-up.
func ParseCents(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return FromDecimal(d)
}

// FromDecimal converts a major-unit decimal (dollars) to cents with half-up
// rounding. The result must be strictly positive.
func FromDecimal(d decimal.Decimal) (int64, error) {
	cents := d.Mul(hundred).Round(0)
	if cents.Sign() <= 0 || cents.GreaterThan(maxCents) {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

// ToDecimal returns cents as a major-unit decimal with two places.
func ToDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// String renders cents as a plain two-place decimal, e.g. "1675.00".
func String(cents int64) string {
	return ToDecimal(cents).StringFixed(2)
}

// Format renders cents as a grouped dollar amount, e.g. "$1,675.00".
func Format(cents int64) string {
	return FormatIn("$", cents)
}

// FormatIn renders two-place minor units behind symbol with thousands
// grouping, e.g. FormatIn("₦", 259206250) is "₦2,592,062.50".
func FormatIn(symbol string, minor int64) string {
	sign := ""
	abs := uint64(minor)
	if minor < 0 {
		sign = "-"
		abs = uint64(-(minor + 1)) + 1
	}
	return fmt.Sprintf("%s%s%s.%02d", sign, symbol, printer.Sprintf("%d", abs/100), abs%100)
}
