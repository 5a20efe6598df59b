package forward

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// RateTable maps currency codes to annualised simple interest rates.
// The zero value is an empty table; a RateTable is never mutated after construction.
type RateTable struct {
	rates map[string]decimal.Decimal
}

// NewRateTable copies rates into an immutable table keyed by upper-case code.
func NewRateTable(rates map[string]decimal.Decimal) RateTable {
	copied := make(map[string]decimal.Decimal, len(rates))
	for code, rate := range rates {
		copied[normaliseCode(code)] = rate
	}
	return RateTable{rates: copied}
}

// RateTableFromFloats is NewRateTable for configuration input.
func RateTableFromFloats(rates map[string]float64) RateTable {
	converted := make(map[string]decimal.Decimal, len(rates))
	for code, rate := range rates {
		converted[code] = decimal.NewFromFloat(rate)
	}
	return NewRateTable(converted)
}

// Rate returns the annualised rate for code.
func (t RateTable) Rate(code string) (decimal.Decimal, error) {
	rate, ok := t.rates[normaliseCode(code)]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrUnknownCurrency, normaliseCode(code))
	}
	return rate, nil
}

// Has reports whether code is present.
func (t RateTable) Has(code string) bool {
	_, ok := t.rates[normaliseCode(code)]
	return ok
}

// Codes lists the currencies in the table, sorted.
func (t RateTable) Codes() []string {
	codes := make([]string, 0, len(t.rates))
	for code := range t.rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Len returns the number of currencies.
func (t RateTable) Len() int {
	return len(t.rates)
}

// ParityRates applies the direction rule for covered interest parity.
//
// A pair quoted against USD (EUR/USD) uses USD as the domestic rate and the base
// currency as foreign. Every other pair (USD/CAD, EUR/GBP) uses the quote currency as
// domestic and USD as foreign. The asymmetry fixes the premium/discount sign per pair.
func ParityRates(pair CurrencyPair, table RateTable) (domestic, foreign decimal.Decimal, err error) {
	for _, code := range []string{pair.Base, pair.Quote, USD} {
		if !table.Has(code) {
			return decimal.Decimal{}, decimal.Decimal{}, fmt.Errorf("%w: %s (pair %s)", ErrUnknownCurrency, code, pair)
		}
	}

	if pair.Quote == USD {
		domestic, _ = table.Rate(USD)
		foreign, _ = table.Rate(pair.Base)
		return domestic, foreign, nil
	}

	domestic, _ = table.Rate(pair.Quote)
	foreign, _ = table.Rate(USD)
	return domestic, foreign, nil
}
