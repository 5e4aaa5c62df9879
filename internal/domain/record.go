package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Timeframe identifies which price table a record comes from.
type Timeframe string

const (
	TimeframeDaily   Timeframe = "daily"
	TimeframeWeekly  Timeframe = "weekly"
	TimeframeMonthly Timeframe = "monthly"
	TimeframeYearly  Timeframe = "yearly"
)

func (t Timeframe) Valid() bool {
	switch t {
	case TimeframeDaily, TimeframeWeekly, TimeframeMonthly, TimeframeYearly:
		return true
	}
	return false
}

// WeekType selects the week-boundary convention for weekly series:
// calendar weeks starting on Monday, or derivatives expiry weeks
// running Friday through Thursday.
type WeekType string

const (
	WeekTypeMonday WeekType = "monday"
	WeekTypeExpiry WeekType = "expiry"
)

func (w WeekType) Valid() bool {
	return w == WeekTypeMonday || w == WeekTypeExpiry
}

// ElectionPhase classifies a calendar year relative to the historical
// general-election years of the configured country.
type ElectionPhase string

const (
	PhaseElection     ElectionPhase = "Election"
	PhasePreElection  ElectionPhase = "PreElection"
	PhasePostElection ElectionPhase = "PostElection"
	PhaseMidElection  ElectionPhase = "MidElection"
)

type Ticker struct {
	ID     int64  `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name,omitempty"`
}

// PricePeriodRecord is one OHLCV observation for one ticker at one
// timeframe, plus the derived calendar and return attributes computed
// by the enrichment pipeline. Prices and returns are nullable: a nil
// pointer means the value is unknown or undefined, not zero.
type PricePeriodRecord struct {
	TickerID int64     `json:"ticker_id"`
	Symbol   string    `json:"symbol"`
	Date     time.Time `json:"date"`

	Open         *decimal.Decimal `json:"open"`
	High         *decimal.Decimal `json:"high"`
	Low          *decimal.Decimal `json:"low"`
	Close        *decimal.Decimal `json:"close"`
	Volume       decimal.Decimal  `json:"volume"`
	OpenInterest decimal.Decimal  `json:"open_interest"`

	// Returns are nil until computed, and ReturnPercentage stays nil
	// when the prior close is zero (division undefined).
	ReturnPoints     *decimal.Decimal `json:"return_points"`
	ReturnPercentage *decimal.Decimal `json:"return_percentage"`
	Positive         bool             `json:"positive"`
	Negative         bool             `json:"negative"`

	Weekday          string        `json:"weekday"`
	CalendarDayMonth int           `json:"calendar_day_month"`
	CalendarDayYear  int           `json:"calendar_day_year"`
	TradingDayMonth  int           `json:"trading_day_month"`
	TradingDayYear   int           `json:"trading_day_year"`
	WeekOfMonth      int           `json:"week_of_month"`
	WeekOfYearMonday int           `json:"week_of_year_monday"`
	WeekOfYearExpiry int           `json:"week_of_year_expiry"`
	LeapYear         bool          `json:"leap_year"`
	ElectionPhase    ElectionPhase `json:"election_phase"`

	// WeekType is set on weekly records only.
	WeekType WeekType `json:"week_type,omitempty"`
}

func (r *PricePeriodRecord) Year() int  { return r.Date.Year() }
func (r *PricePeriodRecord) Month() int { return int(r.Date.Month()) }

// WeekOfYear returns the week number under the given convention.
func (r *PricePeriodRecord) WeekOfYear(wt WeekType) int {
	if wt == WeekTypeExpiry {
		return r.WeekOfYearExpiry
	}
	return r.WeekOfYearMonday
}

// ReturnPct is a float view of the percentage return for statistics
// code; ok is false when the return is not yet computed or undefined.
func (r *PricePeriodRecord) ReturnPct() (float64, bool) {
	if r.ReturnPercentage == nil {
		return 0, false
	}
	return r.ReturnPercentage.InexactFloat64(), true
}

// SortByDate orders records chronologically in place. Enrichment and
// return computation require ascending order, so callers run this
// defensively instead of trusting upstream ordering.
func SortByDate(records []PricePeriodRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
}
