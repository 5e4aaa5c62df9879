// Package refdata holds the static historical reference tables used by
// the seasonality filters: general-election years per country and the
// Modi-government year list. Tables are built once at init and only
// readable afterwards, so concurrent request handlers can share them.
package refdata

import "sort"

const (
	CategoryGeneral = "general"
	CountryIndia    = "IN"
)

type yearKey struct {
	category string
	country  string
}

// YearSet is a read-only membership view over a reference year table.
type YearSet struct {
	years map[int]struct{}
}

func (s YearSet) Contains(year int) bool {
	_, ok := s.years[year]
	return ok
}

func (s YearSet) Years() []int {
	out := make([]int, 0, len(s.years))
	for y := range s.years {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}

var electionTables = map[yearKey]YearSet{
	{CategoryGeneral, CountryIndia}: newYearSet(
		1952, 1957, 1962, 1967, 1971, 1977, 1980, 1984, 1989, 1991,
		1996, 1998, 1999, 2004, 2009, 2014, 2019, 2024,
	),
}

// modiYears covers the years of the Modi government, used as a
// seasonality factor alongside election phases.
var modiYears = newYearSet(
	2014, 2015, 2016, 2017, 2018, 2019, 2020, 2021, 2022, 2023, 2024, 2025, 2026,
)

func newYearSet(years ...int) YearSet {
	m := make(map[int]struct{}, len(years))
	for _, y := range years {
		m[y] = struct{}{}
	}
	return YearSet{years: m}
}

// ElectionYears looks up the election-year table for a category and
// country; ok is false when no table is registered.
func ElectionYears(category, country string) (YearSet, bool) {
	s, ok := electionTables[yearKey{category, country}]
	return s, ok
}

// DefaultElectionYears is the table the enricher classifies against.
func DefaultElectionYears() YearSet {
	s, _ := ElectionYears(CategoryGeneral, CountryIndia)
	return s
}

func ModiYears() YearSet {
	return modiYears
}
