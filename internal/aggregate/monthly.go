// Package aggregate holds the pure computations over an in-memory collection
// snapshot: month bucketing, monthly totals, pagination over month buckets,
// and currency normalization. Nothing here touches storage.
package aggregate

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// MonthKey identifies one calendar month bucket.
type MonthKey struct {
	Year  int
	Month time.Month
}

// String renders the bucket as "YYYY-MM".
func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

// Row is the neutral shape the totals computations work on. Repositories map
// their items into rows after filtering.
type Row struct {
	Date     time.Time
	Amount   decimal.Decimal
	Currency string
	Category string
}

// MonthlyTotal is one derived aggregate bucket. It is never persisted.
type MonthlyTotal struct {
	Year      int             `json:"year"`
	Month     string          `json:"month"`
	MonthName string          `json:"monthName"`
	Total     decimal.Decimal `json:"total"`
	Currency  string          `json:"currency,omitempty"`
}

// Key returns the bucket's MonthKey, parsed back from the zero-padded month.
func (t MonthlyTotal) Key() MonthKey {
	var m int
	fmt.Sscanf(t.Month, "%d", &m)
	return MonthKey{Year: t.Year, Month: time.Month(m)}
}

// GroupByMonth buckets items by the calendar year/month of their date, in
// local time. Items whose date cannot be resolved (when reports false) are
// dropped from the result.
func GroupByMonth[T any](items []T, when func(T) (time.Time, bool)) map[MonthKey][]T {
	buckets := make(map[MonthKey][]T)
	for _, item := range items {
		t, ok := when(item)
		if !ok {
			continue
		}
		key := MonthKey{Year: t.Year(), Month: t.Month()}
		buckets[key] = append(buckets[key], item)
	}
	return buckets
}

// SortMonthsDesc returns the bucket keys ordered most recent first: year
// descending, then month descending. This ordering is a contract shared with
// the monthly-totals output.
func SortMonthsDesc(keys []MonthKey) []MonthKey {
	out := make([]MonthKey, len(keys))
	copy(out, keys)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Month > out[j].Month
	})
	return out
}

// MonthlyTotals groups the rows by month and sums the amounts per bucket,
// most recent month first. When conv is non-nil every amount is converted to
// the converter's base currency and the bucket carries that currency;
// otherwise amounts are summed as-is and the bucket carries the rows' shared
// currency, or none when they mix.
func MonthlyTotals(rows []Row, conv *Converter) []MonthlyTotal {
	type bucket struct {
		total    decimal.Decimal
		currency string
		mixed    bool
	}

	buckets := make(map[MonthKey]*bucket)
	for _, row := range rows {
		if row.Date.IsZero() {
			continue
		}
		key := MonthKey{Year: row.Date.Year(), Month: row.Date.Month()}
		b, exists := buckets[key]
		if !exists {
			b = &bucket{total: decimal.Zero}
			buckets[key] = b
		}

		if conv != nil {
			b.total = b.total.Add(conv.ToBase(row.Amount, row.Currency))
			continue
		}

		b.total = b.total.Add(row.Amount)
		code := Normalize(row.Currency)
		switch {
		case b.currency == "" && !b.mixed:
			b.currency = code
		case b.currency != code:
			b.currency = ""
			b.mixed = true
		}
	}

	keys := make([]MonthKey, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	keys = SortMonthsDesc(keys)

	totals := make([]MonthlyTotal, 0, len(keys))
	for _, key := range keys {
		b := buckets[key]
		currency := b.currency
		if conv != nil {
			currency = conv.Base
		}
		totals = append(totals, MonthlyTotal{
			Year:      key.Year,
			Month:     fmt.Sprintf("%02d", int(key.Month)),
			MonthName: key.Month.String(),
			Total:     b.total,
			Currency:  currency,
		})
	}

	return totals
}

// Categories returns the distinct non-empty categories of the rows, sorted.
func Categories(rows []Row) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		if row.Category == "" {
			continue
		}
		seen[row.Category] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for category := range seen {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}
