// Package core holds the domain types shared by the parser, storage and
// transport layers.
//
// Money is always kept as an integer number of kopecks. Conversion to a
// decimal happens only at the persistence boundary.
package core

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// KopecksPerRouble is the size of the minor unit.
const KopecksPerRouble = 100

// NewMoney builds an amount from its rouble and kopeck parts.
func NewMoney(roubles, kopecks int64) Money {
	return Money{Kopecks: roubles*KopecksPerRouble + kopecks}
}

// Roubles returns the whole-rouble part.
func (m Money) Roubles() int64 {
	return m.Kopecks / KopecksPerRouble
}

// Remainder returns the kopeck part (0-99).
func (m Money) Remainder() int64 {
	return m.Kopecks % KopecksPerRouble
}

// Decimal returns the amount in roubles with exactly two fractional digits.
// Spreadsheet writers use it so that no binary float ever touches the value.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Kopecks, -2)
}

// String formats the amount as "750.42".
func (m Money) String() string {
	r := m.Remainder()
	s := strconv.FormatInt(m.Roubles(), 10) + "."
	if r < 10 {
		s += "0"
	}
	return s + strconv.FormatInt(r, 10)
}

// Add returns the sum of two amounts.
func (m Money) Add(o Money) Money {
	return Money{Kopecks: m.Kopecks + o.Kopecks}
}
