package aggregate

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// symbolCodes maps recognized currency symbols to the ISO-like codes used as
// conversion-rate lookup keys. Documents written by older clients carry
// symbols; newer ones carry codes. Both must land on the same key.
var symbolCodes = map[string]string{
	"₪": "NIS",
	"$": "USD",
	"€": "EUR",
	"£": "GBP",
}

// Normalize maps a currency value, code or symbol, to its rate lookup key.
// Unknown values are upper-cased and passed through.
func Normalize(currency string) string {
	currency = strings.TrimSpace(currency)
	if code, ok := symbolCodes[currency]; ok {
		return code
	}
	return strings.ToUpper(currency)
}

// Converter converts amounts into a base currency using a static rate table
// injected at startup. Rates express one unit of the foreign currency in base
// units.
type Converter struct {
	Base  string
	Rates map[string]decimal.Decimal
}

// NewConverter builds a converter with normalized rate keys.
func NewConverter(base string, rates map[string]decimal.Decimal) *Converter {
	normalized := make(map[string]decimal.Decimal, len(rates))
	for code, rate := range rates {
		normalized[Normalize(code)] = rate
	}
	return &Converter{Base: Normalize(base), Rates: normalized}
}

// ToBase converts the amount into the base currency. The base currency and
// any currency without a configured rate convert at 1.
func (c *Converter) ToBase(amount decimal.Decimal, currency string) decimal.Decimal {
	code := Normalize(currency)
	if code == c.Base {
		return amount
	}
	rate, ok := c.Rates[code]
	if !ok {
		return amount
	}
	return amount.Mul(rate)
}

// Total sums the rows in the base currency.
func (c *Converter) Total(rows []Row) decimal.Decimal {
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(c.ToBase(row.Amount, row.Currency))
	}
	return total
}

// CategoryShare is one slice of a category breakdown.
type CategoryShare struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Percent  decimal.Decimal `json:"percent"`
}

// CategoryBreakdown sums the rows per category in the base currency and
// derives each category's share of the absolute total, largest absolute
// amount first. Rows without a category count under "uncategorized".
func CategoryBreakdown(rows []Row, conv *Converter) []CategoryShare {
	perCategory := make(map[string]decimal.Decimal)
	grand := decimal.Zero
	for _, row := range rows {
		category := row.Category
		if category == "" {
			category = "uncategorized"
		}
		amount := row.Amount
		if conv != nil {
			amount = conv.ToBase(row.Amount, row.Currency)
		}
		perCategory[category] = perCategory[category].Add(amount)
		grand = grand.Add(amount.Abs())
	}

	shares := make([]CategoryShare, 0, len(perCategory))
	for category, total := range perCategory {
		share := CategoryShare{Category: category, Total: total}
		if !grand.IsZero() {
			share.Percent = total.Abs().Div(grand).Mul(decimal.NewFromInt(100)).Round(2)
		}
		shares = append(shares, share)
	}

	sort.Slice(shares, func(i, j int) bool {
		a, b := shares[i].Total.Abs(), shares[j].Total.Abs()
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}
		return shares[i].Category < shares[j].Category
	})

	return shares
}

// MonthlyAverage returns the mean of the bucket totals, zero for no buckets.
func MonthlyAverage(totals []MonthlyTotal) decimal.Decimal {
	if len(totals) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, t := range totals {
		sum = sum.Add(t.Total)
	}
	return sum.Div(decimal.NewFromInt(int64(len(totals)))).Round(4)
}
