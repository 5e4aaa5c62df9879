// Package calendar derives the calendar attributes the seasonality
// filters and groupers run on: weekday names, trading-day counters,
// week numbers under both week conventions, leap-year and election
// classification.
package calendar

import (
	"time"

	"github.com/marketlens/seasonality-analyzer/internal/domain"
	"github.com/marketlens/seasonality-analyzer/internal/refdata"
)

var weekdayNames = [7]string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// WeekdayName maps time.Weekday (Sunday=0) to its English name.
func WeekdayName(d time.Weekday) string {
	return weekdayNames[int(d)]
}

// ISOWeekdayNumber remaps Go's Sunday=0 convention to the Monday=1,
// Sunday=7 numbering the weekday filters compare against.
func ISOWeekdayNumber(d time.Weekday) int {
	if d == time.Sunday {
		return 7
	}
	return int(d)
}

// IsLeapYear applies the Gregorian rule.
func IsLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

// ClassifyElectionYear places a year relative to the election set:
// member years are Election, the year before a member is PreElection,
// the year after is PostElection, everything else MidElection.
func ClassifyElectionYear(year int, elections refdata.YearSet) domain.ElectionPhase {
	switch {
	case elections.Contains(year):
		return domain.PhaseElection
	case elections.Contains(year + 1):
		return domain.PhasePreElection
	case elections.Contains(year - 1):
		return domain.PhasePostElection
	default:
		return domain.PhaseMidElection
	}
}

// weekOfYear numbers weeks 1-based from Jan 1, advancing whenever the
// week boundary day is crossed. firstDay is the ISO-style index of the
// day a week starts on (Monday=1 for calendar weeks, Friday=5 for
// expiry weeks).
func weekOfYear(date time.Time, firstDay int) int {
	jan1 := time.Date(date.Year(), time.January, 1, 0, 0, 0, 0, date.Location())
	// Day-of-week of Jan 1 expressed relative to the week start, 0-6.
	offset := (ISOWeekdayNumber(jan1.Weekday()) - firstDay + 7) % 7
	return (date.YearDay()-1+offset)/7 + 1
}

// Enricher walks a chronologically sorted series and fills in the
// derived calendar attributes, keeping the running trading-day state
// between records. Weekend exclusion is the data source's job; every
// record increments the counters.
type Enricher struct {
	elections refdata.YearSet
}

func NewEnricher(elections refdata.YearSet) *Enricher {
	return &Enricher{elections: elections}
}

// Enrich returns a new slice with calendar attributes populated. Input
// is re-sorted by date first: trading-day counters are only meaningful
// over an ascending series, so ordering is enforced here rather than
// left as an implicit caller obligation.
func (e *Enricher) Enrich(records []domain.PricePeriodRecord) []domain.PricePeriodRecord {
	out := make([]domain.PricePeriodRecord, len(records))
	copy(out, records)
	domain.SortByDate(out)

	currentYear, currentMonth := 0, 0
	tradingDayMonth, tradingDayYear := 0, 0

	for i := range out {
		r := &out[i]
		year, month := r.Date.Year(), int(r.Date.Month())

		if year != currentYear {
			tradingDayYear = 0
		}
		if year != currentYear || month != currentMonth {
			tradingDayMonth = 0
		}
		currentYear, currentMonth = year, month
		tradingDayMonth++
		tradingDayYear++

		r.Weekday = WeekdayName(r.Date.Weekday())
		r.CalendarDayMonth = r.Date.Day()
		r.CalendarDayYear = r.Date.YearDay()
		r.TradingDayMonth = tradingDayMonth
		r.TradingDayYear = tradingDayYear
		r.WeekOfMonth = (r.Date.Day()-1)/7 + 1
		r.WeekOfYearMonday = weekOfYear(r.Date, 1)
		r.WeekOfYearExpiry = weekOfYear(r.Date, 5)
		r.LeapYear = IsLeapYear(year)
		r.ElectionPhase = ClassifyElectionYear(year, e.elections)
	}

	return out
}
