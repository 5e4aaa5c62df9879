// Package stats reduces return series into the summary statistics the
// seasonality endpoints expose, overall and grouped by an arbitrary
// calendar key.
package stats

import (
	"math"

	"github.com/marketlens/seasonality-analyzer/internal/domain"
	"github.com/marketlens/seasonality-analyzer/internal/returns"
)

// cumulativeBase anchors the compounded series used for drawdown and
// CAGR; the percentage results do not depend on its magnitude.
const cumulativeBase = 100.0

// Calculate reduces a return series into counts, averages, sums and
// directional accuracies. Zero returns count toward AllCount but to
// neither partition. An empty input yields an all-zero record, not an
// error.
func Calculate(values []float64) domain.Statistics {
	var s domain.Statistics
	s.AllCount = len(values)
	if s.AllCount == 0 {
		return s
	}

	for _, v := range values {
		s.SumReturnAll += v
		switch {
		case v > 0:
			s.PosCount++
			s.SumReturnPos += v
		case v < 0:
			s.NegCount++
			s.SumReturnNeg += v
		}
	}

	s.AvgReturnAll = s.SumReturnAll / float64(s.AllCount)
	if s.PosCount > 0 {
		s.AvgReturnPos = s.SumReturnPos / float64(s.PosCount)
	}
	if s.NegCount > 0 {
		s.AvgReturnNeg = s.SumReturnNeg / float64(s.NegCount)
	}
	s.PosAccuracy = float64(s.PosCount) / float64(s.AllCount) * 100
	s.NegAccuracy = float64(s.NegCount) / float64(s.AllCount) * 100
	return s
}

// CalculateExtended adds the compounded-series metrics on top of
// Calculate: cumulative return, running-peak max drawdown (always
// <= 0), CAGR over the distinct years spanned, population standard
// deviation and a Sharpe ratio with the risk-free rate fixed at zero.
func CalculateExtended(values []float64, distinctYears int) domain.Statistics {
	s := Calculate(values)
	if s.AllCount == 0 {
		return s
	}

	cumulative := returns.Cumulative(values, cumulativeBase)
	final := cumulative[len(cumulative)-1]
	s.CumulativeReturn = (final/cumulativeBase - 1) * 100

	peak := cumulativeBase
	for _, v := range cumulative {
		if v > peak {
			peak = v
		}
		if dd := (v - peak) / peak * 100; dd < s.MaxDrawdown {
			s.MaxDrawdown = dd
		}
	}

	factor := final / cumulativeBase
	if distinctYears > 0 && factor > 0 {
		s.CAGR = (math.Pow(factor, 1/float64(distinctYears)) - 1) * 100
	}

	var sumSq float64
	for _, v := range values {
		d := v - s.AvgReturnAll
		sumSq += d * d
	}
	s.StdDev = math.Sqrt(sumSq / float64(s.AllCount))
	if s.StdDev != 0 {
		s.SharpeRatio = s.AvgReturnAll / s.StdDev
	}
	return s
}

// Returns extracts the defined percentage returns of a record series,
// preserving order, along with the number of distinct years spanned.
func Returns(records []domain.PricePeriodRecord) ([]float64, int) {
	values := make([]float64, 0, len(records))
	years := map[int]struct{}{}
	for i := range records {
		years[records[i].Year()] = struct{}{}
		if pct, ok := records[i].ReturnPct(); ok {
			values = append(values, pct)
		}
	}
	return values, len(years)
}

// Group partitions records by key and reduces each partition with
// Calculate. Output keeps the insertion order of first-seen keys;
// display code sorts separately.
func Group(records []domain.PricePeriodRecord, key func(r *domain.PricePeriodRecord) string) domain.GroupedStatistics {
	order := make([]string, 0)
	buckets := map[string][]float64{}
	for i := range records {
		k := key(&records[i])
		if _, seen := buckets[k]; !seen {
			order = append(order, k)
			// Register the group even if this record has no defined
			// return, so empty groups show up zeroed.
			buckets[k] = nil
		}
		if pct, ok := records[i].ReturnPct(); ok {
			buckets[k] = append(buckets[k], pct)
		}
	}

	grouped := make(domain.GroupedStatistics, 0, len(order))
	for _, k := range order {
		grouped = append(grouped, domain.GroupEntry{Key: k, Stats: Calculate(buckets[k])})
	}
	return grouped
}

// MaxConsecutive tracks the longest strictly-positive and
// strictly-negative runs in one linear pass. A zero value resets both
// counters.
func MaxConsecutive(values []float64) domain.MaxConsecutive {
	var result domain.MaxConsecutive
	curPos, curNeg := 0, 0
	for _, v := range values {
		switch {
		case v > 0:
			curPos++
			curNeg = 0
		case v < 0:
			curNeg++
			curPos = 0
		default:
			curPos, curNeg = 0, 0
		}
		if curPos > result.Positive {
			result.Positive = curPos
		}
		if curNeg > result.Negative {
			result.Negative = curNeg
		}
	}
	return result
}
