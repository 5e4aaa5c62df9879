package filter

import (
	"github.com/marketlens/seasonality-analyzer/internal/domain"
)

// Apply runs the residual in-memory predicates over fetched, enriched
// records. Group-sign filters are bound against the full series first,
// then each predicate stage produces a fresh slice; the input is never
// mutated.
func (p *Plan) Apply(records []domain.PricePeriodRecord) []domain.PricePeriodRecord {
	out := records

	if p.signYears.Active() {
		signs := groupSigns(records, yearKey)
		out = applyPredicate(out, signPredicateFor("positive_negative_years", p.signYears, signs, yearKey))
	}
	if p.signMonths.Active() {
		signs := groupSigns(records, monthKey)
		out = applyPredicate(out, signPredicateFor("positive_negative_months", p.signMonths, signs, monthKey))
	}
	if p.signWeeks.Active() {
		wt := p.weekType
		key := weekKey(wt)
		signs := groupSigns(records, key)
		out = applyPredicate(out, signPredicateFor("positive_negative_weeks", p.signWeeks, signs, key))
	}

	for _, pred := range p.Memory {
		out = applyPredicate(out, pred)
	}
	return out
}

func applyPredicate(records []domain.PricePeriodRecord, pred RecordPredicate) []domain.PricePeriodRecord {
	kept := make([]domain.PricePeriodRecord, 0, len(records))
	for i := range records {
		if pred.Keep(&records[i]) {
			kept = append(kept, records[i])
		}
	}
	return kept
}

func yearKey(r *domain.PricePeriodRecord) int  { return r.Year() }
func monthKey(r *domain.PricePeriodRecord) int { return r.Year()*100 + r.Month() }

func weekKey(wt domain.WeekType) func(r *domain.PricePeriodRecord) int {
	return func(r *domain.PricePeriodRecord) int { return r.Year()*100 + r.WeekOfYear(wt) }
}

// groupSigns classifies each period by compounding its records'
// returns: >0 gain, <0 loss, 0 flat. Group-sign filters need the
// whole fetched series, before any predicate has removed records,
// which is why the sign maps are built against the unfiltered input.
func groupSigns(records []domain.PricePeriodRecord, key func(r *domain.PricePeriodRecord) int) map[int]int {
	factors := map[int]float64{}
	for i := range records {
		pct, ok := records[i].ReturnPct()
		if !ok {
			continue
		}
		k := key(&records[i])
		f, seen := factors[k]
		if !seen {
			f = 1
		}
		factors[k] = f * (1 + pct/100)
	}

	signs := make(map[int]int, len(factors))
	for k, f := range factors {
		switch {
		case f > 1:
			signs[k] = 1
		case f < 1:
			signs[k] = -1
		default:
			signs[k] = 0
		}
	}
	return signs
}

func signPredicateFor(name string, sf domain.SignFilter, signs map[int]int, key func(r *domain.PricePeriodRecord) int) RecordPredicate {
	return RecordPredicate{
		Name: name,
		Keep: func(r *domain.PricePeriodRecord) bool {
			sign, ok := signs[key(r)]
			if !ok {
				return false
			}
			if sf == domain.SignPositive {
				return sign > 0
			}
			return sign < 0
		},
	}
}
