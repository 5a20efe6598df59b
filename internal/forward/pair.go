package forward

import (
	"fmt"
	"strings"
)

// USD anchors the parity direction rule.
const USD = "USD"

// CurrencyPair is an ordered BASE/QUOTE pair such as USD/CAD.
type CurrencyPair struct {
	Base  string
	Quote string
}

// NewPair normalises and validates both legs.
func NewPair(base, quote string) (CurrencyPair, error) {
	base = normaliseCode(base)
	quote = normaliseCode(quote)
	if !validCode(base) || !validCode(quote) {
		return CurrencyPair{}, fmt.Errorf("%w: %q/%q", ErrInvalidPair, base, quote)
	}
	if base == quote {
		return CurrencyPair{}, fmt.Errorf("%w: base and quote are both %s", ErrInvalidPair, base)
	}
	return CurrencyPair{Base: base, Quote: quote}, nil
}

// ParsePair parses "EUR/USD" style input, case-insensitively.
func ParsePair(s string) (CurrencyPair, error) {
	base, quote, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return CurrencyPair{}, fmt.Errorf("%w: %q", ErrInvalidPair, s)
	}
	return NewPair(base, quote)
}

// MustParsePair is ParsePair for package-level literals and tests.
func MustParsePair(s string) CurrencyPair {
	p, err := ParsePair(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p CurrencyPair) String() string {
	return p.Base + "/" + p.Quote
}

// Symbol returns the pair without separator, e.g. USDCAD.
func (p CurrencyPair) Symbol() string {
	return p.Base + p.Quote
}

func normaliseCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func validCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
