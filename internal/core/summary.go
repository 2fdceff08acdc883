package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
	Count  int
}

// MonthOverview is a compact summary of one user's spending for a month.
type MonthOverview struct {
	Year       int
	Month      int // 1-12
	Total      Money
	ByCategory []CategoryAmount
}

// Empty reports whether nothing was spent in the month.
func (o MonthOverview) Empty() bool {
	return len(o.ByCategory) == 0
}
