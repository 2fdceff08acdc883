package sheets

import (
	"time"

	"budgetify/internal/core"
)

// Column layout shared by every spreadsheet backend.
var Header = []string{"Дата", "Сумма", "Категория", "Источник", "Позиции"}

const (
	// DateLayout is how the Дата column is written.
	DateLayout = "2006-01-02 15:04"
	// NoPositions fills the Позиции column; itemized receipts are not parsed.
	NoPositions = "-"
)

// Row renders an expense as spreadsheet cells in Header order. The amount is
// a number in roubles with two decimals.
func Row(e core.Expense, loc *time.Location) []any {
	if loc == nil {
		loc = time.Local
	}
	return []any{
		e.Date.In(loc).Format(DateLayout),
		e.Amount.Decimal().InexactFloat64(),
		e.Category,
		e.SourceLabel(),
		NoPositions,
	}
}
