package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketlens/seasonality-analyzer/internal/domain"
)

func TestScenarioExpectedDiff(t *testing.T) {
	// Mondays Jan 8 and 22, Fridays Jan 12 and 26: two complete weeks.
	store := &fakeStore{records: []domain.PricePeriodRecord{
		daily(2024, time.January, 8, "100"),
		daily(2024, time.January, 9, "101"),
		daily(2024, time.January, 12, "102"),
		daily(2024, time.January, 22, "110"),
		daily(2024, time.January, 26, "99"),
	}}
	svc := newService(store, nil)

	result, err := svc.Scenario(context.Background(), ScenarioRequest{
		Symbol:   "NIFTY",
		EntryDay: "Monday",
		ExitDay:  "Friday",
	})
	require.NoError(t, err)

	assert.Equal(t, 4, result.ExpectedDiff)
	require.Len(t, result.Trades, 2)

	assert.Equal(t, "2024-01-08", result.Trades[0].EntryDate)
	assert.Equal(t, "2024-01-12", result.Trades[0].ExitDate)
	assert.InDelta(t, 2.0, result.Trades[0].ReturnPct, 1e-9)

	assert.Equal(t, "2024-01-22", result.Trades[1].EntryDate)
	assert.InDelta(t, -10.0, result.Trades[1].ReturnPct, 1e-9)

	assert.Equal(t, 2, result.Statistics.AllCount)
	assert.Equal(t, 1, result.Statistics.PosCount)
	assert.Equal(t, 1, result.Statistics.NegCount)
}

func TestScenarioSkipsHolidayShortenedWeek(t *testing.T) {
	// The Friday of the Jan 15 week is missing; that week produces no
	// trade instead of pairing with the next week's Friday.
	store := &fakeStore{records: []domain.PricePeriodRecord{
		daily(2024, time.January, 8, "100"),
		daily(2024, time.January, 12, "102"),
		daily(2024, time.January, 15, "103"),
		daily(2024, time.January, 22, "104"),
		daily(2024, time.January, 26, "105"),
	}}
	svc := newService(store, nil)

	result, err := svc.Scenario(context.Background(), ScenarioRequest{
		Symbol:   "NIFTY",
		EntryDay: "Monday",
		ExitDay:  "Friday",
	})
	require.NoError(t, err)

	require.Len(t, result.Trades, 2)
	assert.Equal(t, "2024-01-08", result.Trades[0].EntryDate)
	assert.Equal(t, "2024-01-22", result.Trades[1].EntryDate)
}

func TestScenarioWrapsAroundWeekend(t *testing.T) {
	// Friday to Monday spans the weekend: expected distance 3.
	store := &fakeStore{records: []domain.PricePeriodRecord{
		daily(2024, time.January, 12, "100"),
		daily(2024, time.January, 15, "101"),
	}}
	svc := newService(store, nil)

	result, err := svc.Scenario(context.Background(), ScenarioRequest{
		Symbol:   "NIFTY",
		EntryDay: "Friday",
		ExitDay:  "Monday",
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.ExpectedDiff)
	require.Len(t, result.Trades, 1)
	assert.InDelta(t, 1.0, result.Trades[0].ReturnPct, 1e-9)
}

func TestScenarioIdenticalDays(t *testing.T) {
	svc := newService(&fakeStore{}, nil)

	_, err := svc.Scenario(context.Background(), ScenarioRequest{
		Symbol:   "NIFTY",
		EntryDay: "Monday",
		ExitDay:  "Monday",
	})
	assert.True(t, IsInvalidConfig(err))
}

func TestScenarioUnknownDay(t *testing.T) {
	svc := newService(&fakeStore{}, nil)

	_, err := svc.Scenario(context.Background(), ScenarioRequest{
		Symbol:   "NIFTY",
		EntryDay: "Funday",
		ExitDay:  "Friday",
	})
	assert.True(t, IsInvalidConfig(err))
}

func TestScenarioEmptySeries(t *testing.T) {
	svc := newService(&fakeStore{}, nil)

	result, err := svc.Scenario(context.Background(), ScenarioRequest{
		Symbol:   "NIFTY",
		EntryDay: "Monday",
		ExitDay:  "Friday",
	})
	require.NoError(t, err)

	assert.Empty(t, result.Trades)
	assert.Equal(t, 0, result.Statistics.AllCount)
}
