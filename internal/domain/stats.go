package domain

// Statistics summarizes a return series, split into strictly positive
// and strictly negative partitions (a zero return belongs to neither).
// The extended fields (CumulativeReturn onward) are populated by the
// full aggregator and left zero by the basic one.
type Statistics struct {
	AllCount     int     `json:"all_count"`
	AvgReturnAll float64 `json:"avg_return_all"`
	SumReturnAll float64 `json:"sum_return_all"`

	PosCount     int     `json:"pos_count"`
	AvgReturnPos float64 `json:"avg_return_pos"`
	SumReturnPos float64 `json:"sum_return_pos"`

	NegCount     int     `json:"neg_count"`
	AvgReturnNeg float64 `json:"avg_return_neg"`
	SumReturnNeg float64 `json:"sum_return_neg"`

	PosAccuracy float64 `json:"pos_accuracy"`
	NegAccuracy float64 `json:"neg_accuracy"`

	CumulativeReturn float64 `json:"cumulative_return,omitempty"`
	MaxDrawdown      float64 `json:"max_drawdown,omitempty"`
	CAGR             float64 `json:"cagr,omitempty"`
	StdDev           float64 `json:"std_dev,omitempty"`
	SharpeRatio      float64 `json:"sharpe_ratio,omitempty"`
}

// GroupEntry pairs a group key with its statistics. Groups keep the
// insertion order of first-seen keys; display code sorts separately.
type GroupEntry struct {
	Key   string     `json:"key"`
	Stats Statistics `json:"stats"`
}

type GroupedStatistics []GroupEntry

// ScannerMatch is one non-overlapping window of consecutively trending
// periods found by the scanner. Indices address the grouped sequence
// the scanner ran over; Days carries the window's entries in order.
type ScannerMatch struct {
	StartIndex int          `json:"start_index"`
	EndIndex   int          `json:"end_index"`
	Days       []GroupEntry `json:"days"`
}

// MaxConsecutive reports the longest runs of strictly positive and
// strictly negative returns in a series. Zeros reset both runs.
type MaxConsecutive struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
}

// CumulativePoint is one step of the compounded cumulative series used
// for chart output.
type CumulativePoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}
