// Package returns computes per-period point and percentage returns
// from consecutive closes, and the compounded cumulative series built
// from them.
package returns

import (
	"github.com/marketlens/seasonality-analyzer/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Compute fills ReturnPoints, ReturnPercentage and the sign flags over
// a sorted series, returning a new slice. The first record gets zero
// returns. A zero prior close leaves the percentage nil (division
// undefined) rather than failing; missing closes leave both returns
// nil. A zero return is neither positive nor negative.
func Compute(records []domain.PricePeriodRecord) []domain.PricePeriodRecord {
	out := make([]domain.PricePeriodRecord, len(records))
	copy(out, records)
	domain.SortByDate(out)

	for i := range out {
		r := &out[i]
		r.ReturnPoints = nil
		r.ReturnPercentage = nil
		r.Positive = false
		r.Negative = false

		if i == 0 {
			zero := decimal.Zero
			zeroPct := decimal.Zero
			r.ReturnPoints = &zero
			r.ReturnPercentage = &zeroPct
			continue
		}

		prev := out[i-1]
		if r.Close == nil || prev.Close == nil {
			continue
		}

		points := r.Close.Sub(*prev.Close)
		r.ReturnPoints = &points

		if prev.Close.IsZero() {
			continue
		}
		pct := points.Div(*prev.Close).Mul(hundred)
		r.ReturnPercentage = &pct
		r.Positive = pct.IsPositive()
		r.Negative = pct.IsNegative()
	}

	return out
}

// Cumulative compounds percentage returns onto a starting value:
// each step multiplies the running value by (1 + r/100). Intermediate
// values depend on input order, so callers pass chronological series.
func Cumulative(returnsPct []float64, start float64) []float64 {
	out := make([]float64, len(returnsPct))
	value := start
	for i, r := range returnsPct {
		value *= 1 + r/100
		out[i] = value
	}
	return out
}

// Series builds chart points of the compounded series over records
// that carry a computed percentage return. Records with an undefined
// return contribute no growth but still emit a point, so the chart
// stays aligned with the table rows.
func Series(records []domain.PricePeriodRecord, start float64) []domain.CumulativePoint {
	out := make([]domain.CumulativePoint, 0, len(records))
	value := start
	for _, r := range records {
		if pct, ok := r.ReturnPct(); ok {
			value *= 1 + pct/100
		}
		out = append(out, domain.CumulativePoint{
			Date:  r.Date.Format("2006-01-02"),
			Value: value,
		})
	}
	return out
}
