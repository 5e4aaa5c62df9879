// Package scanner finds non-overlapping windows of consecutively
// trending periods in grouped statistics.
package scanner

import (
	"fmt"

	"github.com/marketlens/seasonality-analyzer/internal/domain"
)

type TrendType string

const (
	TrendBullish TrendType = "Bullish"
	TrendBearish TrendType = "Bearish"
)

type BoolOp string

const (
	OpAND BoolOp = "AND"
	OpOR  BoolOp = "OR"
)

func (o BoolOp) apply(a, b bool) bool {
	if o == OpOR {
		return a || b
	}
	return a && b
}

// Options configures one scan. The four threshold checks combine
// left to right through Op12, Op23 and Op34 as a sequential fold:
// r = op12(c1, c2); r = op23(r, c3); r = op34(r, c4). There is no
// operator precedence between AND and OR.
type Options struct {
	TrendType       TrendType `json:"trend_type"`
	ConsecutiveDays int       `json:"consecutive_days"`
	MinAccuracy     float64   `json:"min_accuracy"`
	MinTotalPnl     float64   `json:"min_total_pnl"`
	MinSampleSize   int       `json:"min_sample_size"`
	MinAvgPnl       float64   `json:"min_avg_pnl"`
	Op12            BoolOp    `json:"op12"`
	Op23            BoolOp    `json:"op23"`
	Op34            BoolOp    `json:"op34"`
}

func (o *Options) normalize() error {
	if o.TrendType == "" {
		o.TrendType = TrendBullish
	}
	if o.TrendType != TrendBullish && o.TrendType != TrendBearish {
		return fmt.Errorf("%w: unknown trend type %q", domain.ErrInvalidConfig, string(o.TrendType))
	}
	if o.ConsecutiveDays < 1 {
		return fmt.Errorf("%w: consecutive days must be at least 1", domain.ErrInvalidConfig)
	}
	for _, op := range []*BoolOp{&o.Op12, &o.Op23, &o.Op34} {
		if *op == "" {
			*op = OpAND
		}
		if *op != OpAND && *op != OpOR {
			return fmt.Errorf("%w: unknown boolean operator %q", domain.ErrInvalidConfig, string(*op))
		}
	}
	return nil
}

// Scan slides over the grouped sequence looking for windows of N
// periods whose total return shares the trend direction and whose
// threshold checks fold to true. A matched window is consumed whole
// (the index jumps past it), so matches never overlap; a miss advances
// by one.
func Scan(groups domain.GroupedStatistics, opts Options) ([]domain.ScannerMatch, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}

	mult := 1.0
	if opts.TrendType == TrendBearish {
		mult = -1.0
	}
	n := opts.ConsecutiveDays

	var matches []domain.ScannerMatch
	idx := 0
	for idx <= len(groups)-n {
		window := groups[idx : idx+n]

		if !trending(window, mult) {
			idx++
			continue
		}

		c1 := accuracyCheck(window, opts.TrendType, opts.MinAccuracy)
		c2 := totalPnl(window)*mult > opts.MinTotalPnl
		c3 := sampleCheck(window, opts.MinSampleSize)
		c4 := avgPnlCheck(window, mult, opts.MinAvgPnl)

		result := opts.Op12.apply(c1, c2)
		result = opts.Op23.apply(result, c3)
		result = opts.Op34.apply(result, c4)

		if !result {
			idx++
			continue
		}

		days := make([]domain.GroupEntry, n)
		copy(days, window)
		matches = append(matches, domain.ScannerMatch{
			StartIndex: idx,
			EndIndex:   idx + n,
			Days:       days,
		})
		idx += n
	}
	return matches, nil
}

func trending(window domain.GroupedStatistics, mult float64) bool {
	for _, e := range window {
		if e.Stats.SumReturnAll*mult <= 0 {
			return false
		}
	}
	return true
}

func accuracyCheck(window domain.GroupedStatistics, trend TrendType, min float64) bool {
	for _, e := range window {
		acc := e.Stats.PosAccuracy
		if trend == TrendBearish {
			acc = e.Stats.NegAccuracy
		}
		if acc <= min {
			return false
		}
	}
	return true
}

func totalPnl(window domain.GroupedStatistics) float64 {
	var sum float64
	for _, e := range window {
		sum += e.Stats.AvgReturnAll
	}
	return sum
}

func sampleCheck(window domain.GroupedStatistics, min int) bool {
	for _, e := range window {
		if e.Stats.AllCount <= min {
			return false
		}
	}
	return true
}

func avgPnlCheck(window domain.GroupedStatistics, mult, min float64) bool {
	for _, e := range window {
		if e.Stats.AvgReturnAll*mult <= min {
			return false
		}
	}
	return true
}
