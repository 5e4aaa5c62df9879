package domain

import "fmt"

// SignFilter keeps periods whose return sign matches. All is a no-op.
type SignFilter string

const (
	SignAll      SignFilter = "All"
	SignPositive SignFilter = "Positive"
	SignNegative SignFilter = "Negative"
)

func (s SignFilter) validate() error {
	switch s {
	case "", SignAll, SignPositive, SignNegative:
		return nil
	}
	return fmt.Errorf("%w: unknown sign filter %q", ErrInvalidConfig, string(s))
}

// Active reports whether the filter restricts anything.
func (s SignFilter) Active() bool {
	return s == SignPositive || s == SignNegative
}

// ParityFilter keeps periods by even/odd parity. At year granularity
// the Leap, Election and Modi variants are also accepted.
type ParityFilter string

const (
	ParityAll      ParityFilter = "All"
	ParityEven     ParityFilter = "Even"
	ParityOdd      ParityFilter = "Odd"
	ParityLeap     ParityFilter = "Leap"
	ParityElection ParityFilter = "Election"
	ParityModi     ParityFilter = "Modi"
)

func (p ParityFilter) validate(allowYearVariants bool) error {
	switch p {
	case "", ParityAll, ParityEven, ParityOdd:
		return nil
	case ParityLeap, ParityElection, ParityModi:
		if allowYearVariants {
			return nil
		}
		return fmt.Errorf("%w: %s is only valid for year filters", ErrInvalidConfig, string(p))
	}
	return fmt.Errorf("%w: unknown parity filter %q", ErrInvalidConfig, string(p))
}

func (p ParityFilter) Active() bool {
	switch p {
	case ParityEven, ParityOdd, ParityLeap, ParityElection, ParityModi:
		return true
	}
	return false
}

// Matches evaluates plain even/odd parity against n. Leap and Election
// are handled by the filter planner, not here.
func (p ParityFilter) Matches(n int) bool {
	switch p {
	case ParityEven:
		return n%2 == 0
	case ParityOdd:
		return n%2 != 0
	}
	return true
}

type YearFilters struct {
	PositiveNegativeYears SignFilter   `json:"positive_negative_years,omitempty"`
	EvenOddYears          ParityFilter `json:"even_odd_years,omitempty"`
	// DecadeYears lists last-digit selections 1..10, where 10 stands
	// for years ending in 0. The full ten-digit set is a no-op.
	DecadeYears   []int `json:"decade_years,omitempty"`
	SpecificYears []int `json:"specific_years,omitempty"`
}

func (f *YearFilters) Validate() error {
	if f == nil {
		return nil
	}
	if err := f.PositiveNegativeYears.validate(); err != nil {
		return err
	}
	if err := f.EvenOddYears.validate(true); err != nil {
		return err
	}
	for _, d := range f.DecadeYears {
		if d < 1 || d > 10 {
			return fmt.Errorf("%w: decade digit %d out of range 1-10", ErrInvalidConfig, d)
		}
	}
	return nil
}

type MonthFilters struct {
	PositiveNegativeMonths SignFilter   `json:"positive_negative_months,omitempty"`
	EvenOddMonths          ParityFilter `json:"even_odd_months,omitempty"`
	// SpecificMonth is 1-12; zero means no restriction.
	SpecificMonth int `json:"specific_month,omitempty"`
}

func (f *MonthFilters) Validate() error {
	if f == nil {
		return nil
	}
	if err := f.PositiveNegativeMonths.validate(); err != nil {
		return err
	}
	if err := f.EvenOddMonths.validate(false); err != nil {
		return err
	}
	if f.SpecificMonth < 0 || f.SpecificMonth > 12 {
		return fmt.Errorf("%w: specific month %d out of range 0-12", ErrInvalidConfig, f.SpecificMonth)
	}
	return nil
}

type WeekFilters struct {
	WeekType              WeekType     `json:"week_type,omitempty"`
	PositiveNegativeWeeks SignFilter   `json:"positive_negative_weeks,omitempty"`
	EvenOddWeeks          ParityFilter `json:"even_odd_weeks,omitempty"`
	// SpecificWeekMonthly is 1-5; zero means no restriction.
	SpecificWeekMonthly int `json:"specific_week_monthly,omitempty"`
}

func (f *WeekFilters) Validate() error {
	if f == nil {
		return nil
	}
	if f.WeekType != "" && !f.WeekType.Valid() {
		return fmt.Errorf("%w: unknown week type %q", ErrInvalidConfig, string(f.WeekType))
	}
	if err := f.PositiveNegativeWeeks.validate(); err != nil {
		return err
	}
	if err := f.EvenOddWeeks.validate(false); err != nil {
		return err
	}
	if f.SpecificWeekMonthly < 0 || f.SpecificWeekMonthly > 5 {
		return fmt.Errorf("%w: specific week %d out of range 0-5", ErrInvalidConfig, f.SpecificWeekMonthly)
	}
	return nil
}

// TradingWeekdays is the Monday-based 1-5 convention used by the
// weekday allow-list. A full five-day list is a no-op.
var TradingWeekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

type DayFilters struct {
	Weekdays                   []string     `json:"weekdays,omitempty"`
	EvenOddCalendarDaysMonthly ParityFilter `json:"even_odd_calendar_days_monthly,omitempty"`
	EvenOddCalendarDaysYearly  ParityFilter `json:"even_odd_calendar_days_yearly,omitempty"`
	EvenOddTradingDaysMonthly  ParityFilter `json:"even_odd_trading_days_monthly,omitempty"`
	EvenOddTradingDaysYearly   ParityFilter `json:"even_odd_trading_days_yearly,omitempty"`
}

func (f *DayFilters) Validate() error {
	if f == nil {
		return nil
	}
	for _, w := range f.Weekdays {
		if !validWeekday(w) {
			return fmt.Errorf("%w: unknown weekday %q", ErrInvalidConfig, w)
		}
	}
	for _, p := range []ParityFilter{
		f.EvenOddCalendarDaysMonthly, f.EvenOddCalendarDaysYearly,
		f.EvenOddTradingDaysMonthly, f.EvenOddTradingDaysYearly,
	} {
		if err := p.validate(false); err != nil {
			return err
		}
	}
	return nil
}

func validWeekday(name string) bool {
	switch name {
	case "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday":
		return true
	}
	return false
}

// OutlierRange drops records whose return percentage falls outside
// [Min, Max] when enabled. Records without a computed return pass
// through: outlier filtering never rejects on absent data.
type OutlierRange struct {
	Enabled bool    `json:"enabled"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

func (o *OutlierRange) Validate() error {
	if o == nil || !o.Enabled {
		return nil
	}
	if o.Min > o.Max {
		return fmt.Errorf("%w: outlier range min %v above max %v", ErrInvalidConfig, o.Min, o.Max)
	}
	return nil
}

type OutlierFilters struct {
	DailyPercentageRange   *OutlierRange `json:"daily_percentage_range,omitempty"`
	WeeklyPercentageRange  *OutlierRange `json:"weekly_percentage_range,omitempty"`
	MonthlyPercentageRange *OutlierRange `json:"monthly_percentage_range,omitempty"`
	YearlyPercentageRange  *OutlierRange `json:"yearly_percentage_range,omitempty"`
}

func (f *OutlierFilters) Validate() error {
	if f == nil {
		return nil
	}
	for _, r := range []*OutlierRange{
		f.DailyPercentageRange, f.WeeklyPercentageRange,
		f.MonthlyPercentageRange, f.YearlyPercentageRange,
	} {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ForTimeframe picks the range matching the analyzed timeframe.
func (f *OutlierFilters) ForTimeframe(tf Timeframe) *OutlierRange {
	if f == nil {
		return nil
	}
	switch tf {
	case TimeframeDaily:
		return f.DailyPercentageRange
	case TimeframeWeekly:
		return f.WeeklyPercentageRange
	case TimeframeMonthly:
		return f.MonthlyPercentageRange
	case TimeframeYearly:
		return f.YearlyPercentageRange
	}
	return nil
}

// FilterConfig bundles the five independent filter categories. A nil
// sub-config means no restriction, as does an explicit All/empty value
// inside one.
type FilterConfig struct {
	YearFilters    *YearFilters    `json:"year_filters,omitempty"`
	MonthFilters   *MonthFilters   `json:"month_filters,omitempty"`
	WeekFilters    *WeekFilters    `json:"week_filters,omitempty"`
	DayFilters     *DayFilters     `json:"day_filters,omitempty"`
	OutlierFilters *OutlierFilters `json:"outlier_filters,omitempty"`
}

func (c *FilterConfig) Validate() error {
	if c == nil {
		return nil
	}
	if err := c.YearFilters.Validate(); err != nil {
		return err
	}
	if err := c.MonthFilters.Validate(); err != nil {
		return err
	}
	if err := c.WeekFilters.Validate(); err != nil {
		return err
	}
	if err := c.DayFilters.Validate(); err != nil {
		return err
	}
	return c.OutlierFilters.Validate()
}
