package core

import "github.com/shopspring/decimal"

// CategoryTotal is the sum and count of sales for one category.
type CategoryTotal struct {
	Category Category
	Total    decimal.Decimal
	Count    int64
}

// DailyTotal is the sum of sales recorded on one date.
type DailyTotal struct {
	Date  Date
	Total decimal.Decimal
}

// Summary holds the store-wide figures shown on the dashboard.
type Summary struct {
	Count   int64
	Revenue decimal.Decimal
}

// TrendWindow is the trailing window used by the trend views. Sales are the
// raw rows ascending by date; Days is their per-date rollup.
type TrendWindow struct {
	From  Date
	To    Date
	Sales []Sale
	Days  []DailyTotal
}
