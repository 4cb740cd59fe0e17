// Package currency formats and parses monetary amounts for the dashboard.
package currency

import (
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Defaults for the deployment's reporting currency.
const (
	DefaultLocale = "pt-BR"
	DefaultSymbol = "R$"
)

// Config holds configuration for the Formatter.
type Config struct {
	// Locale is a BCP 47 tag such as "pt-BR". Unparseable tags select the
	// fixed fallback format.
	Locale string
	// Symbol is prefixed to every amount. Defaults to DefaultSymbol.
	Symbol string
}

// Formatter renders amounts as currency text. It never fails: when locale
// formatting is unavailable it degrades to "<symbol> 1,234.56".
type Formatter struct {
	symbol string
	// group and point are the locale's separators; empty means fallback.
	group string
	point string
}

// New creates a Formatter. A nil logger uses slog.Default().
func New(cfg Config, logger *slog.Logger) *Formatter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Symbol == "" {
		cfg.Symbol = DefaultSymbol
	}
	if cfg.Locale == "" {
		cfg.Locale = DefaultLocale
	}

	f := &Formatter{symbol: cfg.Symbol}

	tag, err := language.Parse(cfg.Locale)
	if err != nil {
		logger.Warn("locale unavailable, using fallback currency format",
			"locale", cfg.Locale,
			"error", err,
		)
		return f
	}
	group, point, ok := separators(message.NewPrinter(tag))
	if !ok {
		logger.Warn("locale separators unavailable, using fallback currency format", "locale", cfg.Locale)
		return f
	}
	f.group, f.point = group, point
	return f
}

// separators reads the grouping and decimal symbols a printer uses for
// 1234.5, so that amounts can be laid out digit by digit without float loss.
func separators(p *message.Printer) (group, point string, ok bool) {
	sample := p.Sprint(number.Decimal(1234.5, number.Scale(2)))
	rest, found := strings.CutPrefix(sample, "1")
	if !found {
		return "", "", false
	}
	group, rest, found = strings.Cut(rest, "234")
	if !found {
		return "", "", false
	}
	point, found = strings.CutSuffix(rest, "50")
	if !found || point == "" {
		return "", "", false
	}
	return group, point, true
}

// Format renders amount with locale grouping and two decimal places.
func (f *Formatter) Format(amount decimal.Decimal) string {
	if f == nil || f.point == "" {
		return Fallback(f.fallbackSymbol(), amount)
	}
	return layout(f.symbol, amount, f.group, f.point)
}

// FormatFloat is Format for float64 inputs. Non-finite values are rendered
// verbatim after the symbol.
func (f *Formatter) FormatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return f.fallbackSymbol() + " " + strconv.FormatFloat(v, 'f', -1, 64)
	}
	return f.Format(decimal.NewFromFloat(v))
}

func (f *Formatter) fallbackSymbol() string {
	if f == nil || f.symbol == "" {
		return DefaultSymbol
	}
	return f.symbol
}

// Fallback renders amount as "<symbol> 1,234.56": comma thousands separators,
// a dot before exactly two decimals.
func Fallback(symbol string, amount decimal.Decimal) string {
	return layout(symbol, amount, ",", ".")
}

func layout(symbol string, amount decimal.Decimal, group, point string) string {
	s := amount.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	b.WriteString(symbol)
	b.WriteByte(' ')
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(group)
		}
		b.WriteRune(r)
	}
	b.WriteString(point)
	b.WriteString(frac)
	return b.String()
}
