// Package filter turns a declarative FilterConfig into predicates: the
// ones the backing store can evaluate as plain column comparisons are
// pushed down, the rest run in memory over the fetched records. The
// store advertises its per-table columns through StoreCapabilities, so
// placement is negotiated instead of hardcoded per filter type.
package filter

import (
	"github.com/marketlens/seasonality-analyzer/internal/domain"
)

// Op is a store-evaluable comparison operator.
type Op string

const (
	OpEq  Op = "="
	OpGte Op = ">="
	OpLte Op = "<="
	OpIn  Op = "IN"
)

// StorePredicate is a single column comparison the store renders into
// its query. Value is a scalar for OpEq/OpGte/OpLte and a slice for
// OpIn.
type StorePredicate struct {
	Column string
	Op     Op
	Value  interface{}
}

// RecordPredicate evaluates one record in memory.
type RecordPredicate struct {
	Name string
	Keep func(r *domain.PricePeriodRecord) bool
}

// StoreCapabilities reports whether a column is persisted (and thus
// pushable) on the table backing a timeframe. Schemas differ per
// granularity, so the planner asks instead of assuming.
type StoreCapabilities interface {
	CanPush(tf domain.Timeframe, column string) bool
}

// NoPushdown is the capability set of a store that persists no derived
// columns; every filter then runs in memory.
type NoPushdown struct{}

func (NoPushdown) CanPush(domain.Timeframe, string) bool { return false }

// Columns the planner may attempt to push.
const (
	ColMonth       = "month"
	ColYear        = "year"
	ColWeekday     = "weekday"
	ColWeekOfMonth = "week_of_month"
	ColWeekType    = "week_type"
	ColPositive    = "positive"
)
