package aggregate

// Pagination selects a window of results. What limit and offset count depends
// on the operation: item listings page over month buckets, so one page can
// return a variable number of items, while monthly-totals listings page over
// the aggregate rows themselves. The two semantics are intentionally kept
// separate (PageMonths vs PageTotals) even though they cover the same
// underlying data.
type Pagination struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// PageMonths selects a window of month buckets and reports whether buckets
// remain past it. A zero or negative limit means "everything after offset".
func PageMonths(months []MonthKey, p Pagination) ([]MonthKey, bool) {
	start := p.Offset
	if start < 0 {
		start = 0
	}
	if start >= len(months) {
		return []MonthKey{}, false
	}

	rest := months[start:]
	if p.Limit <= 0 || p.Limit >= len(rest) {
		return rest, false
	}
	return rest[:p.Limit], true
}

// PageTotals selects a window of totals rows, one row per month.
func PageTotals(totals []MonthlyTotal, p Pagination) ([]MonthlyTotal, bool) {
	start := p.Offset
	if start < 0 {
		start = 0
	}
	if start >= len(totals) {
		return []MonthlyTotal{}, false
	}

	rest := totals[start:]
	if p.Limit <= 0 || p.Limit >= len(rest) {
		return rest, false
	}
	return rest[:p.Limit], true
}
