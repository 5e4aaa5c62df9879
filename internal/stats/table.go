package stats

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/marketlens/seasonality-analyzer/internal/domain"
)

// DisplayRow is one formatted line of the grouped-statistics table.
type DisplayRow struct {
	Key          string  `json:"key"`
	AllCount     int     `json:"all_count"`
	AvgReturnAll float64 `json:"avg_return_all"`
	SumReturnAll float64 `json:"sum_return_all"`
	PosCount     int     `json:"pos_count"`
	NegCount     int     `json:"neg_count"`
	PosAccuracy  float64 `json:"pos_accuracy"`
	NegAccuracy  float64 `json:"neg_accuracy"`
}

// DisplayTable sorts grouped statistics for presentation and flattens
// them into rows. Numeric keys sort numerically, everything else
// lexically; the computation-order grouping is left untouched.
func DisplayTable(groups domain.GroupedStatistics) []DisplayRow {
	sorted := make(domain.GroupedStatistics, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, aerr := strconv.ParseFloat(sorted[i].Key, 64)
		b, berr := strconv.ParseFloat(sorted[j].Key, 64)
		if aerr == nil && berr == nil {
			return a < b
		}
		return sorted[i].Key < sorted[j].Key
	})

	rows := make([]DisplayRow, 0, len(sorted))
	for _, g := range sorted {
		rows = append(rows, DisplayRow{
			Key:          g.Key,
			AllCount:     g.Stats.AllCount,
			AvgReturnAll: round2(g.Stats.AvgReturnAll),
			SumReturnAll: round2(g.Stats.SumReturnAll),
			PosCount:     g.Stats.PosCount,
			NegCount:     g.Stats.NegCount,
			PosAccuracy:  round2(g.Stats.PosAccuracy),
			NegAccuracy:  round2(g.Stats.NegAccuracy),
		})
	}
	return rows
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5*sign(v))) / 100
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// GroupKey resolves a grouping dimension name to its key extractor.
func GroupKey(name string) (func(r *domain.PricePeriodRecord) string, error) {
	switch name {
	case "", "weekday":
		return func(r *domain.PricePeriodRecord) string { return r.Weekday }, nil
	case "month":
		return func(r *domain.PricePeriodRecord) string { return strconv.Itoa(r.Month()) }, nil
	case "year":
		return func(r *domain.PricePeriodRecord) string { return strconv.Itoa(r.Year()) }, nil
	case "calendar_day_month":
		return func(r *domain.PricePeriodRecord) string { return strconv.Itoa(r.CalendarDayMonth) }, nil
	case "trading_day_month":
		return func(r *domain.PricePeriodRecord) string { return strconv.Itoa(r.TradingDayMonth) }, nil
	case "trading_day_year":
		return func(r *domain.PricePeriodRecord) string { return strconv.Itoa(r.TradingDayYear) }, nil
	case "week_of_month":
		return func(r *domain.PricePeriodRecord) string { return strconv.Itoa(r.WeekOfMonth) }, nil
	case "election_phase":
		return func(r *domain.PricePeriodRecord) string { return string(r.ElectionPhase) }, nil
	}
	return nil, fmt.Errorf("%w: unknown group key %q", domain.ErrInvalidConfig, name)
}

// Aggregate applies total|avg|max|min over a numeric record field.
func Aggregate(records []domain.PricePeriodRecord, aggType, field string) (float64, error) {
	extract, err := fieldExtractor(field)
	if err != nil {
		return 0, err
	}

	var values []float64
	for i := range records {
		if v, ok := extract(&records[i]); ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return 0, nil
	}

	switch aggType {
	case "", "total":
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum, nil
	case "avg":
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values)), nil
	case "max":
		max := values[0]
		for _, v := range values[1:] {
			if v > max {
				max = v
			}
		}
		return max, nil
	case "min":
		min := values[0]
		for _, v := range values[1:] {
			if v < min {
				min = v
			}
		}
		return min, nil
	}
	return 0, fmt.Errorf("%w: unknown aggregate type %q", domain.ErrInvalidConfig, aggType)
}

func fieldExtractor(field string) (func(r *domain.PricePeriodRecord) (float64, bool), error) {
	switch field {
	case "", "return_percentage":
		return func(r *domain.PricePeriodRecord) (float64, bool) { return r.ReturnPct() }, nil
	case "return_points":
		return func(r *domain.PricePeriodRecord) (float64, bool) {
			if r.ReturnPoints == nil {
				return 0, false
			}
			return r.ReturnPoints.InexactFloat64(), true
		}, nil
	case "close":
		return func(r *domain.PricePeriodRecord) (float64, bool) {
			if r.Close == nil {
				return 0, false
			}
			return r.Close.InexactFloat64(), true
		}, nil
	case "volume":
		return func(r *domain.PricePeriodRecord) (float64, bool) {
			return r.Volume.InexactFloat64(), true
		}, nil
	case "open_interest":
		return func(r *domain.PricePeriodRecord) (float64, bool) {
			return r.OpenInterest.InexactFloat64(), true
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown aggregate field %q", domain.ErrInvalidConfig, field)
}
