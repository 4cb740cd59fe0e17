package currency

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned for values that are not monetary amounts.
var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount parses a monetary value in either plain decimal form
// ("1234.56", "-3") or Brazilian form ("1.234,56", "12,5").
//
// A comma always marks the decimal separator; dots before it are grouping.
// Without a comma, a single dot is a decimal point and several dots are
// grouping ("1.234.567").
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimPrefix(s, DefaultSymbol))
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}

	normalized := s
	switch {
	case strings.Contains(s, ","):
		normalized = strings.ReplaceAll(s, ".", "")
		normalized = strings.Replace(normalized, ",", ".", 1)
	case strings.Count(s, ".") > 1:
		normalized = strings.ReplaceAll(s, ".", "")
	}

	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}
