// =============================================================================
// IFRS Report - Currency Converter
// =============================================================================
//
// This module turns raw records into converted records:
//   1. Every textual field is normalized (normalize.RawRecord)
//   2. The monto field is parsed into an Amount (missing if unparsable)
//   3. The amount is expressed in USD according to the moneda field
//
// CONVERSION RULES:
//   - missing amount : missing
//   - "CLP"          : monto / rate
//   - "USD"          : monto unchanged
//   - anything else  : missing
//
// The rate is expressed in CLP per USD. It is validated by the caller; no
// bounds checking happens here.
//
// =============================================================================

package converter

import (
	"math"
	"strings"

	"github.com/ginjaninja78/ifrs-report/internal/normalize"
	"github.com/ginjaninja78/ifrs-report/internal/types"
	"github.com/shopspring/decimal"
)

// Currency codes understood by ToUSD.
const (
	CurrencyCLP = "CLP"
	CurrencyUSD = "USD"
)

// ParseAmount parses a monto field. Surrounding whitespace is ignored and
// anything that is not a plain decimal number yields a missing amount.
func ParseAmount(s string) types.Amount {
	s = strings.TrimSpace(s)
	if s == "" {
		return types.None()
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return types.None()
	}

	// Exponents beyond the float64 range ("1e400") are not representable.
	v := d.InexactFloat64()
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return types.None()
	}
	return types.Some(v)
}

// ToUSD converts an amount in the given currency to USD.
//
// PARAMETERS:
//   - amount: The parsed amount.
//   - moneda: The currency code of the record, compared exactly.
//   - rate: CLP per USD.
//
// RETURNS:
//   - The amount in USD, or a missing amount for unknown currencies.
func ToUSD(amount types.Amount, moneda string, rate float64) types.Amount {
	if !amount.Valid {
		return types.None()
	}

	switch moneda {
	case CurrencyCLP:
		return types.Some(amount.Value / rate)
	case CurrencyUSD:
		return amount
	default:
		return types.None()
	}
}

// Transform normalizes a raw record and converts its amount.
func Transform(raw types.RawRecord, rate float64) types.Record {
	normalized := normalize.RawRecord(raw)
	amount := ParseAmount(normalized.Monto)

	return types.Record{
		RawRecord: normalized,
		Amount:    amount,
		MontoUSD:  ToUSD(amount, normalized.Moneda, rate),
	}
}

// TransformAll applies Transform to every record, keeping the input order.
func TransformAll(raws []types.RawRecord, rate float64) []types.Record {
	records := make([]types.Record, len(raws))
	for i, raw := range raws {
		records[i] = Transform(raw, rate)
	}
	return records
}
