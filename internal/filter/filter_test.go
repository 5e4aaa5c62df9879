package filter

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketlens/seasonality-analyzer/internal/calendar"
	"github.com/marketlens/seasonality-analyzer/internal/domain"
	"github.com/marketlens/seasonality-analyzer/internal/refdata"
	"github.com/marketlens/seasonality-analyzer/internal/returns"
)

func enriched(records []domain.PricePeriodRecord) []domain.PricePeriodRecord {
	e := calendar.NewEnricher(refdata.DefaultElectionYears())
	return returns.Compute(e.Enrich(records))
}

func dated(y int, m time.Month, d int) domain.PricePeriodRecord {
	return domain.PricePeriodRecord{Date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func withPct(r domain.PricePeriodRecord, pct string) domain.PricePeriodRecord {
	p := decimal.RequireFromString(pct)
	r.ReturnPercentage = &p
	r.Positive = p.IsPositive()
	r.Negative = p.IsNegative()
	return r
}

func mustPlan(t *testing.T, cfg *domain.FilterConfig, tf domain.Timeframe, caps StoreCapabilities) *Plan {
	t.Helper()
	plan, err := NewPlan(cfg, tf, domain.WeekTypeMonday, caps)
	require.NoError(t, err)
	return plan
}

func years(records []domain.PricePeriodRecord) []int {
	out := make([]int, len(records))
	for i := range records {
		out[i] = records[i].Year()
	}
	return out
}

func TestLeapYearFilter(t *testing.T) {
	records := enriched([]domain.PricePeriodRecord{
		dated(1900, time.March, 1),
		dated(2000, time.March, 1),
		dated(2023, time.March, 1),
		dated(2024, time.March, 1),
	})

	plan := mustPlan(t, &domain.FilterConfig{
		YearFilters: &domain.YearFilters{EvenOddYears: domain.ParityLeap},
	}, domain.TimeframeDaily, nil)

	kept := plan.Apply(records)
	assert.Equal(t, []int{2000, 2024}, years(kept))
}

func TestDecadeFilter(t *testing.T) {
	records := enriched([]domain.PricePeriodRecord{
		dated(2020, time.March, 1),
		dated(2021, time.March, 1),
		dated(2027, time.March, 1),
	})

	t.Run("digit 10 matches years ending in zero", func(t *testing.T) {
		plan := mustPlan(t, &domain.FilterConfig{
			YearFilters: &domain.YearFilters{DecadeYears: []int{10}},
		}, domain.TimeframeDaily, nil)

		kept := plan.Apply(records)
		assert.Equal(t, []int{2020}, years(kept))
	})

	t.Run("full digit set is a no-op", func(t *testing.T) {
		plan := mustPlan(t, &domain.FilterConfig{
			YearFilters: &domain.YearFilters{DecadeYears: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
		}, domain.TimeframeDaily, nil)

		assert.Empty(t, plan.Memory)
		assert.Len(t, plan.Apply(records), 3)
	})

	t.Run("out of range digit rejected", func(t *testing.T) {
		_, err := NewPlan(&domain.FilterConfig{
			YearFilters: &domain.YearFilters{DecadeYears: []int{11}},
		}, domain.TimeframeDaily, domain.WeekTypeMonday, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	})
}

func TestSpecificYearsFilter(t *testing.T) {
	records := enriched([]domain.PricePeriodRecord{
		dated(2019, time.June, 3),
		dated(2020, time.June, 3),
		dated(2021, time.June, 3),
	})

	plan := mustPlan(t, &domain.FilterConfig{
		YearFilters: &domain.YearFilters{SpecificYears: []int{2019, 2021}},
	}, domain.TimeframeDaily, nil)

	assert.Equal(t, []int{2019, 2021}, years(plan.Apply(records)))
}

func TestElectionYearFilter(t *testing.T) {
	records := enriched([]domain.PricePeriodRecord{
		dated(2019, time.June, 3),
		dated(2021, time.June, 3),
		dated(2024, time.June, 3),
	})

	plan := mustPlan(t, &domain.FilterConfig{
		YearFilters: &domain.YearFilters{EvenOddYears: domain.ParityElection},
	}, domain.TimeframeDaily, nil)

	assert.Equal(t, []int{2019, 2024}, years(plan.Apply(records)))
}

func TestModiYearFilter(t *testing.T) {
	records := enriched([]domain.PricePeriodRecord{
		dated(2010, time.June, 3),
		dated(2014, time.June, 3),
		dated(2020, time.June, 3),
	})

	plan := mustPlan(t, &domain.FilterConfig{
		YearFilters: &domain.YearFilters{EvenOddYears: domain.ParityModi},
	}, domain.TimeframeDaily, nil)

	assert.Equal(t, []int{2014, 2020}, years(plan.Apply(records)))
}

func TestWeekdayFilter(t *testing.T) {
	// 2024-01-07 is a Sunday; the remap must not let it slip through
	// a Monday-only filter.
	records := enriched([]domain.PricePeriodRecord{
		dated(2024, time.January, 7),
		dated(2024, time.January, 8),  // Monday
		dated(2024, time.January, 9),  // Tuesday
		dated(2024, time.January, 15), // Monday
	})

	plan := mustPlan(t, &domain.FilterConfig{
		DayFilters: &domain.DayFilters{Weekdays: []string{"Monday"}},
	}, domain.TimeframeDaily, nil)

	kept := plan.Apply(records)
	require.Len(t, kept, 2)
	for _, r := range kept {
		assert.Equal(t, "Monday", r.Weekday)
	}
}

func TestWeekdayFilterFullSetIsNoOp(t *testing.T) {
	plan := mustPlan(t, &domain.FilterConfig{
		DayFilters: &domain.DayFilters{Weekdays: domain.TradingWeekdays},
	}, domain.TimeframeDaily, nil)
	assert.Empty(t, plan.Memory)
	assert.Empty(t, plan.Store)
}

func TestTradingDayParityFilter(t *testing.T) {
	records := enriched([]domain.PricePeriodRecord{
		dated(2024, time.January, 1),
		dated(2024, time.January, 2),
		dated(2024, time.January, 3),
		dated(2024, time.January, 4),
	})

	plan := mustPlan(t, &domain.FilterConfig{
		DayFilters: &domain.DayFilters{EvenOddTradingDaysMonthly: domain.ParityEven},
	}, domain.TimeframeDaily, nil)

	kept := plan.Apply(records)
	require.Len(t, kept, 2)
	assert.Equal(t, 2, kept[0].TradingDayMonth)
	assert.Equal(t, 4, kept[1].TradingDayMonth)
}

func TestOutlierFilter(t *testing.T) {
	noReturn := dated(2024, time.January, 1)
	records := []domain.PricePeriodRecord{
		noReturn,
		withPct(dated(2024, time.January, 2), "0.5"),
		withPct(dated(2024, time.January, 3), "5"),
		withPct(dated(2024, time.January, 4), "-3"),
	}

	plan := mustPlan(t, &domain.FilterConfig{
		OutlierFilters: &domain.OutlierFilters{
			DailyPercentageRange: &domain.OutlierRange{Enabled: true, Min: -1, Max: 1},
		},
	}, domain.TimeframeDaily, nil)

	kept := plan.Apply(records)
	require.Len(t, kept, 2)
	// The record without a return passes through unfiltered.
	assert.Nil(t, kept[0].ReturnPercentage)
	assert.Equal(t, "0.5", kept[1].ReturnPercentage.String())
}

func TestPositiveYearGroupSign(t *testing.T) {
	// 2020 compounds to a gain, 2021 to a loss.
	records := []domain.PricePeriodRecord{
		withPct(dated(2020, time.March, 2), "2"),
		withPct(dated(2020, time.March, 3), "1"),
		withPct(dated(2021, time.March, 2), "-4"),
		withPct(dated(2021, time.March, 3), "1"),
	}

	plan := mustPlan(t, &domain.FilterConfig{
		YearFilters: &domain.YearFilters{PositiveNegativeYears: domain.SignPositive},
	}, domain.TimeframeDaily, nil)

	kept := plan.Apply(records)
	require.Len(t, kept, 2)
	assert.Equal(t, []int{2020, 2020}, years(kept))
}

func TestSignFilterOwnGranularity(t *testing.T) {
	records := []domain.PricePeriodRecord{
		withPct(dated(2020, time.December, 31), "4"),
		withPct(dated(2021, time.December, 31), "-2"),
	}

	plan := mustPlan(t, &domain.FilterConfig{
		YearFilters: &domain.YearFilters{PositiveNegativeYears: domain.SignNegative},
	}, domain.TimeframeYearly, nil)

	kept := plan.Apply(records)
	require.Len(t, kept, 1)
	assert.Equal(t, 2021, kept[0].Year())
}

type positivePushCaps struct{}

func (positivePushCaps) CanPush(tf domain.Timeframe, column string) bool {
	return column == ColPositive
}

func TestSignFilterPlacement(t *testing.T) {
	flat := dated(2022, time.December, 30)
	zero := decimal.Zero
	flat.ReturnPercentage = &zero
	records := []domain.PricePeriodRecord{
		withPct(dated(2020, time.December, 31), "4"),
		withPct(dated(2021, time.December, 31), "-2"),
		flat,
	}

	t.Run("positive pushes the stored flag", func(t *testing.T) {
		plan := mustPlan(t, &domain.FilterConfig{
			YearFilters: &domain.YearFilters{PositiveNegativeYears: domain.SignPositive},
		}, domain.TimeframeYearly, positivePushCaps{})

		require.Len(t, plan.Store, 1)
		assert.Equal(t, ColPositive, plan.Store[0].Column)
		assert.Equal(t, true, plan.Store[0].Value)
		assert.Empty(t, plan.Memory)
	})

	t.Run("negative stays in memory and drops flat periods", func(t *testing.T) {
		plan := mustPlan(t, &domain.FilterConfig{
			YearFilters: &domain.YearFilters{PositiveNegativeYears: domain.SignNegative},
		}, domain.TimeframeYearly, positivePushCaps{})

		assert.Empty(t, plan.Store)
		require.Len(t, plan.Memory, 1)

		kept := plan.Apply(records)
		require.Len(t, kept, 1)
		assert.Equal(t, 2021, kept[0].Year())
	})
}

type monthPushCaps struct{}

func (monthPushCaps) CanPush(tf domain.Timeframe, column string) bool {
	return column == ColMonth
}

func TestSpecificMonthPushdown(t *testing.T) {
	cfg := &domain.FilterConfig{
		MonthFilters: &domain.MonthFilters{SpecificMonth: 3},
	}

	t.Run("pushed when the store persists the column", func(t *testing.T) {
		plan := mustPlan(t, cfg, domain.TimeframeDaily, monthPushCaps{})
		require.Len(t, plan.Store, 1)
		assert.Equal(t, ColMonth, plan.Store[0].Column)
		assert.Equal(t, OpEq, plan.Store[0].Op)
		assert.Empty(t, plan.Memory)
	})

	t.Run("falls back to memory otherwise", func(t *testing.T) {
		plan := mustPlan(t, cfg, domain.TimeframeDaily, NoPushdown{})
		assert.Empty(t, plan.Store)
		require.Len(t, plan.Memory, 1)

		records := enriched([]domain.PricePeriodRecord{
			dated(2024, time.March, 5),
			dated(2024, time.April, 5),
		})
		kept := plan.Apply(records)
		require.Len(t, kept, 1)
		assert.Equal(t, 3, kept[0].Month())
	})
}

func TestNilConfigIsNoOp(t *testing.T) {
	plan := mustPlan(t, nil, domain.TimeframeDaily, nil)
	assert.Empty(t, plan.Store)
	assert.Empty(t, plan.Memory)

	records := enriched([]domain.PricePeriodRecord{dated(2024, time.March, 5)})
	assert.Len(t, plan.Apply(records), 1)
}

func TestInvalidEnumRejected(t *testing.T) {
	_, err := NewPlan(&domain.FilterConfig{
		YearFilters: &domain.YearFilters{PositiveNegativeYears: "Sideways"},
	}, domain.TimeframeDaily, domain.WeekTypeMonday, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}
