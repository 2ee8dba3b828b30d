package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrTooManyDecimals = errors.New("amount has too many decimal places")
)

var minorFactor = decimal.NewFromInt(100)

// ParseMajor converts a decimal amount in major units ("5000" or "49.99")
// into minor units. Amounts with more than two decimal places are rejected
// rather than rounded, so value can never be created or lost at the boundary.
func ParseMajor(input string) (int64, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return 0, ErrInvalidAmount
	}
	amount, err := decimal.NewFromString(trimmed)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	minor := amount.Mul(minorFactor)
	if !minor.IsInteger() {
		return 0, ErrTooManyDecimals
	}
	return minor.IntPart(), nil
}

// FormatMinor renders minor units as a major-unit decimal string with two
// fractional digits, e.g. 500000 -> "5000.00".
func FormatMinor(value int64) string {
	negative := value < 0
	if negative {
		value = -value
	}
	whole := value / 100
	frac := value % 100
	formatted := fmt.Sprintf("%d.%02d", whole, frac)
	if negative {
		return "-" + formatted
	}
	return formatted
}
