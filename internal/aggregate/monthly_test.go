package aggregate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 12, 0, 0, 0, time.Local)
}

func row(year int, month time.Month, d int, amount float64, currency, category string) Row {
	return Row{
		Date:     day(year, month, d),
		Amount:   decimal.NewFromFloat(amount),
		Currency: currency,
		Category: category,
	}
}

func TestGroupByMonth(t *testing.T) {
	type item struct {
		date string
		name string
	}
	when := func(i item) (time.Time, bool) {
		t, err := time.ParseInLocation("2006-01-02", i.date, time.Local)
		return t, err == nil
	}

	items := []item{
		{"2024-03-05", "a"},
		{"2024-03-28", "b"},
		{"2024-02-01", "c"},
		{"2023-03-05", "d"},
		{"bad date", "e"},
	}

	buckets := GroupByMonth(items, when)

	require.Len(t, buckets, 3)
	assert.Len(t, buckets[MonthKey{2024, time.March}], 2)
	assert.Len(t, buckets[MonthKey{2024, time.February}], 1)
	assert.Len(t, buckets[MonthKey{2023, time.March}], 1)
}

func TestSortMonthsDesc(t *testing.T) {
	keys := []MonthKey{
		{2023, time.December},
		{2024, time.January},
		{2024, time.November},
		{2022, time.June},
		{2024, time.February},
	}

	sorted := SortMonthsDesc(keys)

	want := []MonthKey{
		{2024, time.November},
		{2024, time.February},
		{2024, time.January},
		{2023, time.December},
		{2022, time.June},
	}
	assert.Equal(t, want, sorted)
}

func TestMonthlyTotals_Ordering(t *testing.T) {
	rows := []Row{
		row(2024, time.January, 3, -10, "NIS", ""),
		row(2024, time.March, 5, -50, "NIS", ""),
		row(2023, time.December, 20, -30, "NIS", ""),
		row(2024, time.March, 9, -5, "NIS", ""),
	}

	totals := MonthlyTotals(rows, nil)

	require.Len(t, totals, 3)
	// Hard contract: most recent month first, year desc then month desc.
	for i := 1; i < len(totals); i++ {
		prev, cur := totals[i-1], totals[i]
		ok := prev.Year > cur.Year || (prev.Year == cur.Year && prev.Key().Month > cur.Key().Month)
		assert.True(t, ok, "bucket %d (%s %d) not before bucket %d (%s %d)",
			i-1, prev.Month, prev.Year, i, cur.Month, cur.Year)
	}

	assert.Equal(t, 2024, totals[0].Year)
	assert.Equal(t, "03", totals[0].Month)
	assert.Equal(t, "March", totals[0].MonthName)
	assert.True(t, totals[0].Total.Equal(decimal.NewFromInt(-55)), "got %s", totals[0].Total)
}

func TestMonthlyTotals_SumMatchesInput(t *testing.T) {
	rows := []Row{
		row(2024, time.January, 1, -10.25, "NIS", "Groceries"),
		row(2024, time.January, 15, 99.99, "NIS", "Salary"),
		row(2024, time.February, 2, -3.5, "NIS", "Coffee"),
		row(2023, time.November, 11, -200, "NIS", "Rent"),
	}

	totals := MonthlyTotals(rows, nil)

	inputSum := decimal.Zero
	for _, r := range rows {
		inputSum = inputSum.Add(r.Amount)
	}
	totalSum := decimal.Zero
	for _, b := range totals {
		totalSum = totalSum.Add(b.Total)
	}

	assert.True(t, inputSum.Equal(totalSum), "bucket sum %s != input sum %s", totalSum, inputSum)
}

func TestMonthlyTotals_CurrencyField(t *testing.T) {
	t.Run("uniform currency carried through", func(t *testing.T) {
		totals := MonthlyTotals([]Row{
			row(2024, time.March, 1, -10, "NIS", ""),
			row(2024, time.March, 2, -20, "₪", ""),
		}, nil)
		require.Len(t, totals, 1)
		// Symbol and code normalize to the same key.
		assert.Equal(t, "NIS", totals[0].Currency)
	})

	t.Run("mixed currencies blank the field", func(t *testing.T) {
		totals := MonthlyTotals([]Row{
			row(2024, time.March, 1, -10, "NIS", ""),
			row(2024, time.March, 2, -20, "USD", ""),
		}, nil)
		require.Len(t, totals, 1)
		assert.Empty(t, totals[0].Currency)
	})

	t.Run("converter converts into base", func(t *testing.T) {
		conv := NewConverter("NIS", map[string]decimal.Decimal{"USD": decimal.NewFromFloat(3.5)})
		totals := MonthlyTotals([]Row{
			row(2024, time.March, 1, -10, "NIS", ""),
			row(2024, time.March, 2, -20, "USD", ""),
		}, conv)
		require.Len(t, totals, 1)
		assert.Equal(t, "NIS", totals[0].Currency)
		assert.True(t, totals[0].Total.Equal(decimal.NewFromInt(-80)), "got %s", totals[0].Total)
	})
}

func TestMonthlyTotals_DropsUndatedRows(t *testing.T) {
	totals := MonthlyTotals([]Row{{Amount: decimal.NewFromInt(-10)}}, nil)
	assert.Empty(t, totals)
}

func TestCategories(t *testing.T) {
	rows := []Row{
		row(2024, time.March, 1, -1, "NIS", "Groceries"),
		row(2024, time.March, 2, -1, "NIS", "Transport"),
		row(2024, time.March, 3, -1, "NIS", "Groceries"),
		row(2024, time.March, 4, -1, "NIS", ""),
	}

	assert.Equal(t, []string{"Groceries", "Transport"}, Categories(rows))
}
