package scanner

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketlens/seasonality-analyzer/internal/domain"
)

func entry(key string, avg float64, posAcc float64, count int) domain.GroupEntry {
	return domain.GroupEntry{
		Key: key,
		Stats: domain.Statistics{
			AllCount:     count,
			AvgReturnAll: avg,
			SumReturnAll: avg * float64(count),
			PosAccuracy:  posAcc,
			NegAccuracy:  100 - posAcc,
		},
	}
}

func bullishRun(n int) domain.GroupedStatistics {
	groups := make(domain.GroupedStatistics, n)
	for i := range groups {
		groups[i] = entry(strconv.Itoa(i+1), 0.5, 70, 10)
	}
	return groups
}

func TestScanNonOverlapping(t *testing.T) {
	// Six qualifying periods with a window of three yield exactly two
	// back-to-back matches; the second window starts where the first
	// ended.
	matches, err := Scan(bullishRun(6), Options{
		TrendType:       TrendBullish,
		ConsecutiveDays: 3,
		MinAccuracy:     60,
		MinSampleSize:   5,
	})
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, 0, matches[0].StartIndex)
	assert.Equal(t, 3, matches[0].EndIndex)
	assert.Equal(t, 3, matches[1].StartIndex)
	assert.Equal(t, 6, matches[1].EndIndex)
	require.Len(t, matches[0].Days, 3)
	assert.Equal(t, "1", matches[0].Days[0].Key)
	assert.Equal(t, "4", matches[1].Days[0].Key)
}

func TestScanTrendGate(t *testing.T) {
	groups := bullishRun(4)
	groups[1] = entry("2", -0.5, 70, 10)

	matches, err := Scan(groups, Options{ConsecutiveDays: 2})
	require.NoError(t, err)

	// Windows containing the down period never reach the threshold
	// checks; only [2,4) survives.
	require.Len(t, matches, 1)
	assert.Equal(t, 2, matches[0].StartIndex)
	assert.Equal(t, 4, matches[0].EndIndex)
}

func TestScanBearish(t *testing.T) {
	groups := domain.GroupedStatistics{
		entry("1", -0.4, 30, 10),
		entry("2", -0.6, 25, 10),
	}

	matches, err := Scan(groups, Options{
		TrendType:       TrendBearish,
		ConsecutiveDays: 2,
		MinAccuracy:     60,
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

func TestScanSequentialFold(t *testing.T) {
	// One window where c1 fails (accuracy 70 <= 80) but c2, c3 and c4
	// pass; the checks have no precedence, only left-to-right folding.
	groups := bullishRun(2)
	base := Options{
		ConsecutiveDays: 2,
		MinAccuracy:     80,
		MinSampleSize:   5,
	}

	t.Run("all AND rejects", func(t *testing.T) {
		matches, err := Scan(groups, base)
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("OR after the failing check rescues", func(t *testing.T) {
		opts := base
		opts.Op12 = OpOR
		matches, err := Scan(groups, opts)
		require.NoError(t, err)
		assert.Len(t, matches, 1)
	})

	t.Run("late OR rescues an already false fold", func(t *testing.T) {
		opts := base
		opts.Op34 = OpOR
		matches, err := Scan(groups, opts)
		require.NoError(t, err)
		assert.Len(t, matches, 1)
	})
}

func TestScanThresholdsAreStrict(t *testing.T) {
	groups := bullishRun(2)

	// AllCount is 10; a min of exactly 10 must fail the sample check.
	matches, err := Scan(groups, Options{ConsecutiveDays: 2, MinSampleSize: 10})
	require.NoError(t, err)
	assert.Empty(t, matches)

	matches, err = Scan(groups, Options{ConsecutiveDays: 2, MinSampleSize: 9})
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestScanDefaults(t *testing.T) {
	matches, err := Scan(bullishRun(3), Options{ConsecutiveDays: 3})
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestScanInvalidOptions(t *testing.T) {
	_, err := Scan(bullishRun(3), Options{})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = Scan(bullishRun(3), Options{ConsecutiveDays: 2, TrendType: "Sideways"})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = Scan(bullishRun(3), Options{ConsecutiveDays: 2, Op23: "XOR"})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestScanWindowLargerThanInput(t *testing.T) {
	matches, err := Scan(bullishRun(2), Options{ConsecutiveDays: 5})
	require.NoError(t, err)
	assert.Empty(t, matches)
}
