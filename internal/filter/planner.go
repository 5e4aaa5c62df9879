package filter

import (
	"github.com/marketlens/seasonality-analyzer/internal/calendar"
	"github.com/marketlens/seasonality-analyzer/internal/domain"
	"github.com/marketlens/seasonality-analyzer/internal/refdata"
)

// Plan is the placement decision for one request: predicates the store
// evaluates before returning rows, and the residual work applied to
// the fetched records. Group-sign filters (positive/negative years,
// months or weeks over a finer series) need the whole series before
// they can classify a period, so they are carried separately and bound
// during Apply.
type Plan struct {
	Store  []StorePredicate
	Memory []RecordPredicate

	timeframe domain.Timeframe
	weekType  domain.WeekType

	signYears  domain.SignFilter
	signMonths domain.SignFilter
	signWeeks  domain.SignFilter
}

// NewPlan validates the configuration and splits it into store-level
// and in-memory predicates. Decade-digit sets, the leap-year formula,
// election membership and specific-year lists always stay in memory:
// they depend on derived attributes whose persistence varies by
// granularity table. weekType is the request-level convention; an
// explicit week-filter override wins.
func NewPlan(cfg *domain.FilterConfig, tf domain.Timeframe, weekType domain.WeekType, caps StoreCapabilities) (*Plan, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if caps == nil {
		caps = NoPushdown{}
	}
	if weekType == "" {
		weekType = domain.WeekTypeMonday
	}
	if cfg != nil && cfg.WeekFilters != nil && cfg.WeekFilters.WeekType != "" {
		weekType = cfg.WeekFilters.WeekType
	}

	p := &Plan{timeframe: tf, weekType: weekType}
	if cfg == nil {
		return p, nil
	}

	p.planYears(cfg.YearFilters, caps)
	p.planMonths(cfg.MonthFilters, caps)
	p.planWeeks(cfg.WeekFilters, caps)
	p.planDays(cfg.DayFilters, caps)
	p.planOutliers(cfg.OutlierFilters)

	return p, nil
}

func (p *Plan) push(col string, op Op, value interface{}) {
	p.Store = append(p.Store, StorePredicate{Column: col, Op: op, Value: value})
}

func (p *Plan) keep(name string, fn func(r *domain.PricePeriodRecord) bool) {
	p.Memory = append(p.Memory, RecordPredicate{Name: name, Keep: fn})
}

// signPredicate places a positive/negative filter: at the filter's own
// granularity it is the record's strict sign flag, over a finer series
// it becomes a group-sign stage resolved at Apply time. Only Positive
// is pushable: the stored boolean cannot separate a flat period from a
// losing one, and `positive = false` would keep zero-return periods
// the in-memory predicate rejects.
func (p *Plan) signPredicate(sf domain.SignFilter, own domain.Timeframe, caps StoreCapabilities, bind *domain.SignFilter, name string) {
	if !sf.Active() {
		return
	}
	if p.timeframe == own {
		if sf == domain.SignPositive && caps.CanPush(own, ColPositive) {
			p.push(ColPositive, OpEq, true)
			return
		}
		p.keep(name, func(r *domain.PricePeriodRecord) bool {
			if sf == domain.SignPositive {
				return r.Positive
			}
			return r.Negative
		})
		return
	}
	*bind = sf
}

func (p *Plan) planYears(f *domain.YearFilters, caps StoreCapabilities) {
	if f == nil {
		return
	}

	p.signPredicate(f.PositiveNegativeYears, domain.TimeframeYearly, caps, &p.signYears, "positive_negative_years")

	switch f.EvenOddYears {
	case domain.ParityEven, domain.ParityOdd:
		parity := f.EvenOddYears
		p.keep("even_odd_years", func(r *domain.PricePeriodRecord) bool {
			return parity.Matches(r.Year())
		})
	case domain.ParityLeap:
		p.keep("leap_years", func(r *domain.PricePeriodRecord) bool {
			return calendar.IsLeapYear(r.Year())
		})
	case domain.ParityElection:
		p.keep("election_years", func(r *domain.PricePeriodRecord) bool {
			return r.ElectionPhase == domain.PhaseElection
		})
	case domain.ParityModi:
		modi := refdata.ModiYears()
		p.keep("modi_years", func(r *domain.PricePeriodRecord) bool {
			return modi.Contains(r.Year())
		})
	}

	if digits := decadeDigitSet(f.DecadeYears); digits != nil {
		p.keep("decade_years", func(r *domain.PricePeriodRecord) bool {
			return digits[r.Year()%10]
		})
	}

	if len(f.SpecificYears) > 0 {
		allowed := make(map[int]bool, len(f.SpecificYears))
		for _, y := range f.SpecificYears {
			allowed[y] = true
		}
		p.keep("specific_years", func(r *domain.PricePeriodRecord) bool {
			return allowed[r.Year()]
		})
	}
}

// decadeDigitSet converts digit selections 1-10 to a last-digit set,
// with 10 standing for years ending in 0. The full ten-digit set is a
// no-op and yields nil.
func decadeDigitSet(digits []int) map[int]bool {
	if len(digits) == 0 {
		return nil
	}
	set := make(map[int]bool, len(digits))
	for _, d := range digits {
		set[d%10] = true
	}
	if len(set) == 10 {
		return nil
	}
	return set
}

func (p *Plan) planMonths(f *domain.MonthFilters, caps StoreCapabilities) {
	if f == nil || p.timeframe == domain.TimeframeYearly {
		return
	}

	p.signPredicate(f.PositiveNegativeMonths, domain.TimeframeMonthly, caps, &p.signMonths, "positive_negative_months")

	if f.EvenOddMonths.Active() {
		parity := f.EvenOddMonths
		p.keep("even_odd_months", func(r *domain.PricePeriodRecord) bool {
			return parity.Matches(r.Month())
		})
	}

	if f.SpecificMonth != 0 {
		if caps.CanPush(p.timeframe, ColMonth) {
			p.push(ColMonth, OpEq, f.SpecificMonth)
		} else {
			month := f.SpecificMonth
			p.keep("specific_month", func(r *domain.PricePeriodRecord) bool {
				return r.Month() == month
			})
		}
	}
}

func (p *Plan) planWeeks(f *domain.WeekFilters, caps StoreCapabilities) {
	if f == nil {
		return
	}
	if p.timeframe != domain.TimeframeWeekly && p.timeframe != domain.TimeframeDaily {
		return
	}

	if p.timeframe == domain.TimeframeWeekly {
		if caps.CanPush(domain.TimeframeWeekly, ColWeekType) {
			p.push(ColWeekType, OpEq, string(p.weekType))
		} else {
			wt := p.weekType
			p.keep("week_type", func(r *domain.PricePeriodRecord) bool {
				return r.WeekType == wt
			})
		}
	}

	p.signPredicate(f.PositiveNegativeWeeks, domain.TimeframeWeekly, caps, &p.signWeeks, "positive_negative_weeks")

	if f.EvenOddWeeks.Active() {
		parity := f.EvenOddWeeks
		wt := p.weekType
		p.keep("even_odd_weeks", func(r *domain.PricePeriodRecord) bool {
			return parity.Matches(r.WeekOfYear(wt))
		})
	}

	if f.SpecificWeekMonthly != 0 {
		if caps.CanPush(p.timeframe, ColWeekOfMonth) {
			p.push(ColWeekOfMonth, OpEq, f.SpecificWeekMonthly)
		} else {
			week := f.SpecificWeekMonthly
			p.keep("specific_week_monthly", func(r *domain.PricePeriodRecord) bool {
				return r.WeekOfMonth == week
			})
		}
	}
}

func (p *Plan) planDays(f *domain.DayFilters, caps StoreCapabilities) {
	if f == nil || p.timeframe != domain.TimeframeDaily {
		return
	}

	if days := weekdaySet(f.Weekdays); days != nil {
		if caps.CanPush(domain.TimeframeDaily, ColWeekday) {
			p.push(ColWeekday, OpIn, f.Weekdays)
		} else {
			p.keep("weekdays", func(r *domain.PricePeriodRecord) bool {
				return days[calendar.ISOWeekdayNumber(r.Date.Weekday())]
			})
		}
	}

	counters := []struct {
		name   string
		parity domain.ParityFilter
		value  func(r *domain.PricePeriodRecord) int
	}{
		{"even_odd_calendar_days_monthly", f.EvenOddCalendarDaysMonthly, func(r *domain.PricePeriodRecord) int { return r.CalendarDayMonth }},
		{"even_odd_calendar_days_yearly", f.EvenOddCalendarDaysYearly, func(r *domain.PricePeriodRecord) int { return r.CalendarDayYear }},
		{"even_odd_trading_days_monthly", f.EvenOddTradingDaysMonthly, func(r *domain.PricePeriodRecord) int { return r.TradingDayMonth }},
		{"even_odd_trading_days_yearly", f.EvenOddTradingDaysYearly, func(r *domain.PricePeriodRecord) int { return r.TradingDayYear }},
	}
	for _, c := range counters {
		if !c.parity.Active() {
			continue
		}
		parity, value := c.parity, c.value
		p.keep(c.name, func(r *domain.PricePeriodRecord) bool {
			return parity.Matches(value(r))
		})
	}
}

// weekdaySet maps names to Monday=1..Sunday=7 numbers, treating the
// full five-trading-day list as a no-op (nil). The numeric remap is
// what keeps Sunday-as-0 dates from slipping past a 1-5 comparison.
func weekdaySet(names []string) map[int]bool {
	if len(names) == 0 {
		return nil
	}
	numbers := map[string]int{
		"Monday": 1, "Tuesday": 2, "Wednesday": 3, "Thursday": 4,
		"Friday": 5, "Saturday": 6, "Sunday": 7,
	}
	set := make(map[int]bool, len(names))
	for _, n := range names {
		if num, ok := numbers[n]; ok {
			set[num] = true
		}
	}
	tradingDays := 0
	for i := 1; i <= 5; i++ {
		if set[i] {
			tradingDays++
		}
	}
	if tradingDays == 5 && len(set) == 5 {
		return nil
	}
	return set
}

func (p *Plan) planOutliers(f *domain.OutlierFilters) {
	rng := f.ForTimeframe(p.timeframe)
	if rng == nil || !rng.Enabled {
		return
	}
	min, max := rng.Min, rng.Max
	p.keep("outlier_range", func(r *domain.PricePeriodRecord) bool {
		pct, ok := r.ReturnPct()
		if !ok {
			// Absent data is never treated as an outlier.
			return true
		}
		return pct >= min && pct <= max
	})
}
