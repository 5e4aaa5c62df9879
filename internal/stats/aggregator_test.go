package stats

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketlens/seasonality-analyzer/internal/domain"
)

func record(y int, m time.Month, d int, pct string) domain.PricePeriodRecord {
	r := domain.PricePeriodRecord{Date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
	if pct != "" {
		p := decimal.RequireFromString(pct)
		r.ReturnPercentage = &p
	}
	return r
}

func TestCalculateEmpty(t *testing.T) {
	s := Calculate(nil)
	assert.Equal(t, domain.Statistics{}, s)
}

func TestCalculatePartitions(t *testing.T) {
	s := Calculate([]float64{2, -1, 0, 3, -3})

	assert.Equal(t, 5, s.AllCount)
	assert.Equal(t, 2, s.PosCount)
	assert.Equal(t, 2, s.NegCount)
	assert.InDelta(t, 1.0, s.SumReturnAll, 1e-9)
	assert.InDelta(t, 0.2, s.AvgReturnAll, 1e-9)
	assert.InDelta(t, 2.5, s.AvgReturnPos, 1e-9)
	assert.InDelta(t, -2.0, s.AvgReturnNeg, 1e-9)
	assert.InDelta(t, 40.0, s.PosAccuracy, 1e-9)
	assert.InDelta(t, 40.0, s.NegAccuracy, 1e-9)
}

func TestCalculateAccuracyBounds(t *testing.T) {
	allPos := Calculate([]float64{1, 2, 3})
	assert.InDelta(t, 100.0, allPos.PosAccuracy, 1e-9)
	assert.InDelta(t, 0.0, allPos.NegAccuracy, 1e-9)

	allNeg := Calculate([]float64{-1, -2})
	assert.InDelta(t, 0.0, allNeg.PosAccuracy, 1e-9)
	assert.InDelta(t, 100.0, allNeg.NegAccuracy, 1e-9)
}

func TestCalculateExtendedCompounding(t *testing.T) {
	// 100 -> 110 -> 99: cumulative -1%, drawdown from the 110 peak -10%.
	s := CalculateExtended([]float64{10, -10}, 1)

	assert.InDelta(t, -1.0, s.CumulativeReturn, 1e-9)
	assert.InDelta(t, -10.0, s.MaxDrawdown, 1e-9)
	assert.InDelta(t, -1.0, s.CAGR, 1e-9)
}

func TestCalculateExtendedDrawdownNonDecreasing(t *testing.T) {
	s := CalculateExtended([]float64{1, 2, 3}, 1)
	assert.Equal(t, 0.0, s.MaxDrawdown)
	assert.True(t, s.CumulativeReturn > 0)
}

func TestCalculateExtendedCAGR(t *testing.T) {
	// Two years at +10% each compound to 21%; annualized back to 10%.
	s := CalculateExtended([]float64{10, 10}, 2)
	assert.InDelta(t, 21.0, s.CumulativeReturn, 1e-9)
	assert.InDelta(t, 10.0, s.CAGR, 1e-9)

	noYears := CalculateExtended([]float64{10, 10}, 0)
	assert.Equal(t, 0.0, noYears.CAGR)
}

func TestCalculateExtendedDispersion(t *testing.T) {
	s := CalculateExtended([]float64{1, -1, 1, -1}, 1)
	assert.InDelta(t, 1.0, s.StdDev, 1e-9)
	assert.InDelta(t, 0.0, s.SharpeRatio, 1e-9)

	flat := CalculateExtended([]float64{2, 2, 2}, 1)
	assert.Equal(t, 0.0, flat.StdDev)
	// Zero dispersion leaves the ratio at zero rather than dividing.
	assert.Equal(t, 0.0, flat.SharpeRatio)

	drift := CalculateExtended([]float64{1, 3}, 1)
	assert.InDelta(t, 1.0, drift.StdDev, 1e-9)
	assert.InDelta(t, 2.0, drift.SharpeRatio, 1e-9)
}

func TestReturnsSkipsUndefined(t *testing.T) {
	records := []domain.PricePeriodRecord{
		record(2023, time.January, 2, "1.5"),
		record(2023, time.January, 3, ""),
		record(2024, time.January, 2, "-0.5"),
	}

	values, distinctYears := Returns(records)
	assert.Equal(t, []float64{1.5, -0.5}, values)
	assert.Equal(t, 2, distinctYears)
}

func TestGroupInsertionOrder(t *testing.T) {
	records := []domain.PricePeriodRecord{
		record(2024, time.March, 1, "1"),
		record(2024, time.January, 5, "2"),
		record(2024, time.March, 8, "-1"),
	}
	key, err := GroupKey("month")
	require.NoError(t, err)

	groups := Group(records, key)
	require.Len(t, groups, 2)
	assert.Equal(t, "3", groups[0].Key)
	assert.Equal(t, "1", groups[1].Key)
	assert.Equal(t, 2, groups[0].Stats.AllCount)
	assert.Equal(t, 1, groups[1].Stats.AllCount)
}

func TestGroupRegistersEmptyGroups(t *testing.T) {
	records := []domain.PricePeriodRecord{
		record(2024, time.March, 1, ""),
	}
	key, err := GroupKey("month")
	require.NoError(t, err)

	groups := Group(records, key)
	require.Len(t, groups, 1)
	assert.Equal(t, "3", groups[0].Key)
	assert.Equal(t, domain.Statistics{}, groups[0].Stats)
}

func TestDisplayTableNumericSort(t *testing.T) {
	groups := domain.GroupedStatistics{
		{Key: "10", Stats: domain.Statistics{AllCount: 1}},
		{Key: "2", Stats: domain.Statistics{AllCount: 2}},
		{Key: "1", Stats: domain.Statistics{AllCount: 3}},
	}

	rows := DisplayTable(groups)
	require.Len(t, rows, 3)
	assert.Equal(t, "1", rows[0].Key)
	assert.Equal(t, "2", rows[1].Key)
	assert.Equal(t, "10", rows[2].Key)
}

func TestDisplayTableLexicalSort(t *testing.T) {
	groups := domain.GroupedStatistics{
		{Key: "Monday"},
		{Key: "Friday"},
	}

	rows := DisplayTable(groups)
	assert.Equal(t, "Friday", rows[0].Key)
	assert.Equal(t, "Monday", rows[1].Key)
}

func TestDisplayTableRounds(t *testing.T) {
	groups := domain.GroupedStatistics{
		{Key: "1", Stats: domain.Statistics{AvgReturnAll: 1.2345, SumReturnAll: -1.2345}},
	}

	rows := DisplayTable(groups)
	assert.Equal(t, 1.23, rows[0].AvgReturnAll)
	assert.Equal(t, -1.23, rows[0].SumReturnAll)
}

func TestMaxConsecutive(t *testing.T) {
	r := MaxConsecutive([]float64{1, 2, -1, -1, -1, 2})
	assert.Equal(t, domain.MaxConsecutive{Positive: 2, Negative: 3}, r)
}

func TestMaxConsecutiveZeroResetsBoth(t *testing.T) {
	r := MaxConsecutive([]float64{1, 1, 0, 1, -1, 0, -1})
	assert.Equal(t, 2, r.Positive)
	assert.Equal(t, 1, r.Negative)
}

func TestGroupKeyUnknown(t *testing.T) {
	_, err := GroupKey("phase_of_moon")
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestAggregate(t *testing.T) {
	records := []domain.PricePeriodRecord{
		record(2024, time.January, 2, "1"),
		record(2024, time.January, 3, ""),
		record(2024, time.January, 4, "-3"),
		record(2024, time.January, 5, "2"),
	}

	cases := []struct {
		aggType string
		want    float64
	}{
		{"total", 0},
		{"avg", 0},
		{"max", 2},
		{"min", -3},
	}
	for _, tc := range cases {
		t.Run(tc.aggType, func(t *testing.T) {
			got, err := Aggregate(records, tc.aggType, "return_percentage")
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}

	_, err := Aggregate(records, "median", "return_percentage")
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = Aggregate(records, "total", "spread")
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	empty, err := Aggregate(nil, "max", "close")
	require.NoError(t, err)
	assert.Equal(t, 0.0, empty)
}

func TestAggregateCloseField(t *testing.T) {
	c := decimal.RequireFromString("42.5")
	records := []domain.PricePeriodRecord{
		{Date: time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC), Close: &c},
		{Date: time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC)},
	}

	got, err := Aggregate(records, "avg", "close")
	require.NoError(t, err)
	assert.InDelta(t, 42.5, got, 1e-9)
}
