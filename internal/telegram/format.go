package telegram

import (
	"errors"
	"fmt"
	"strings"

	"budgetify/internal/core"
	"budgetify/internal/parser"
	"budgetify/internal/services"
)

// FormatMoney renders an amount the Russian way: "1 250,50 ₽".
func FormatMoney(m core.Money) string {
	s := m.Decimal().StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	b.WriteString(" ₽")
	return b.String()
}

var monthNames = [...]string{
	"январь", "февраль", "март", "апрель", "май", "июнь",
	"июль", "август", "сентябрь", "октябрь", "ноябрь", "декабрь",
}

func monthName(m int) string {
	if m < 1 || m > 12 {
		return fmt.Sprintf("%02d", m)
	}
	return monthNames[m-1]
}

func recordedReply(rec *services.Recorded, transcript string, voice bool) string {
	var b strings.Builder
	if voice {
		fmt.Fprintf(&b, "📄 Распознано: %s\n\n", transcript)
	}
	fmt.Fprintf(&b, "✅ Записано: %s, %s", FormatMoney(rec.Expense.Amount), rec.Expense.Category)
	return b.String()
}

func overviewReply(o core.MonthOverview) string {
	if o.Empty() {
		return fmt.Sprintf("📊 За %s %d расходов пока нет.", monthName(o.Month), o.Year)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Расходы за %s %d\n\n", monthName(o.Month), o.Year)
	for _, c := range o.ByCategory {
		fmt.Fprintf(&b, "• %s: %s (%d)\n", c.Name, FormatMoney(c.Amount), c.Count)
	}
	fmt.Fprintf(&b, "\nИтого: %s", FormatMoney(o.Total))
	return b.String()
}

// failurePrompt tells the user how to rephrase after a parse failure.
func failurePrompt(err error) string {
	switch {
	case errors.Is(err, parser.ErrEmptyInput):
		return msgEmptyInput
	case errors.Is(err, parser.ErrNoMatch), errors.Is(err, parser.ErrNoAmount):
		return msgNoAmount
	case errors.Is(err, parser.ErrInvalidMinorUnits):
		return msgInvalidMinor
	case errors.Is(err, parser.ErrNoCategory):
		return msgNoCategory
	case errors.Is(err, parser.ErrDegenerateCategory):
		return msgDegenerateCategory
	case errors.Is(err, parser.ErrAmountOverflow):
		return msgAmountOverflow
	default:
		return msgRecordFailed
	}
}

// failureLabel is the metrics label of a parse failure.
func failureLabel(err error) string {
	switch {
	case errors.Is(err, parser.ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, parser.ErrNoMatch):
		return "no_match"
	case errors.Is(err, parser.ErrNoAmount):
		return "no_amount"
	case errors.Is(err, parser.ErrInvalidMinorUnits):
		return "invalid_minor_units"
	case errors.Is(err, parser.ErrNoCategory):
		return "no_category"
	case errors.Is(err, parser.ErrDegenerateCategory):
		return "degenerate_category"
	case errors.Is(err, parser.ErrAmountOverflow):
		return "amount_overflow"
	case errors.Is(err, parser.ErrInternal):
		return "internal"
	default:
		return "other"
	}
}
