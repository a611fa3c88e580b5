package aggregate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monthKeys(n int) []MonthKey {
	keys := make([]MonthKey, 0, n)
	cursor := time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		keys = append(keys, MonthKey{Year: cursor.Year(), Month: cursor.Month()})
		cursor = cursor.AddDate(0, -1, 0)
	}
	return keys
}

func TestPageMonths(t *testing.T) {
	months := monthKeys(5)

	tests := []struct {
		name        string
		p           Pagination
		wantLen     int
		wantHasMore bool
		wantFirst   MonthKey
	}{
		{"no pagination returns everything", Pagination{}, 5, false, months[0]},
		{"limit within range", Pagination{Limit: 2}, 2, true, months[0]},
		{"offset skips months", Pagination{Limit: 2, Offset: 2}, 2, true, months[2]},
		{"last page", Pagination{Limit: 2, Offset: 4}, 1, false, months[4]},
		{"offset past end", Pagination{Limit: 2, Offset: 10}, 0, false, MonthKey{}},
		{"limit covering rest", Pagination{Limit: 5}, 5, false, months[0]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, hasMore := PageMonths(months, tt.p)
			assert.Len(t, page, tt.wantLen)
			assert.Equal(t, tt.wantHasMore, hasMore)
			if tt.wantLen > 0 {
				assert.Equal(t, tt.wantFirst, page[0])
			}
		})
	}
}

func TestPageTotals(t *testing.T) {
	totals := make([]MonthlyTotal, 4)
	for i := range totals {
		totals[i] = MonthlyTotal{Year: 2024, Month: "03", Total: decimal.NewFromInt(int64(i))}
	}

	page, hasMore := PageTotals(totals, Pagination{Limit: 3})
	require.Len(t, page, 3)
	assert.True(t, hasMore)

	page, hasMore = PageTotals(totals, Pagination{Limit: 3, Offset: 3})
	require.Len(t, page, 1)
	assert.False(t, hasMore)

	page, hasMore = PageTotals(totals, Pagination{Offset: 9})
	assert.Empty(t, page)
	assert.False(t, hasMore)
}
