package parser

import (
	"math"

	"budgetify/internal/core"
)

// assemble combines the matched components into one amount in kopecks.
// Only integer arithmetic is used; every step is overflow checked.
func assemble(m *match) (core.Money, error) {
	if err := m.invalidNumber(); err != nil {
		return core.Money{}, err
	}

	var total int64
	for _, g := range m.groups {
		base := int64(core.KopecksPerRouble)
		if g.num != nil {
			v, ok := g.num.fixed()
			if !ok {
				return core.Money{}, ErrAmountOverflow
			}
			base = v
		}
		v, ok := mulInt64(base, g.scale)
		if !ok {
			return core.Money{}, ErrAmountOverflow
		}
		if total, ok = addInt64(total, v); !ok {
			return core.Money{}, ErrAmountOverflow
		}
	}

	if m.major != nil {
		v, ok := m.major.fixed()
		if !ok {
			return core.Money{}, ErrAmountOverflow
		}
		if total, ok = addInt64(total, v); !ok {
			return core.Money{}, ErrAmountOverflow
		}
	}

	switch len(m.minor) {
	case 0:
	case 1:
		k := m.minor[0]
		// "12.50 рублей 30 копеек" names the kopecks twice.
		if k.HasFrac || k.Value >= core.KopecksPerRouble || (m.major != nil && m.major.HasFrac) {
			return core.Money{}, ErrInvalidMinorUnits
		}
		var ok bool
		if total, ok = addInt64(total, k.Value); !ok {
			return core.Money{}, ErrAmountOverflow
		}
	default:
		return core.Money{}, ErrInvalidMinorUnits
	}

	return core.Money{Kopecks: total}, nil
}

// invalidNumber returns the failure of the first consumed number that
// cannot be an amount.
func (m *match) invalidNumber() error {
	for _, g := range m.groups {
		if g.num != nil && g.num.invalid != nil {
			return g.num.invalid
		}
	}
	if m.major != nil && m.major.invalid != nil {
		return m.major.invalid
	}
	for _, k := range m.minor {
		if k.invalid != nil {
			return k.invalid
		}
	}
	return nil
}

// mulInt64 multiplies two non-negative values, reporting overflow.
func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt64/b {
		return 0, false
	}
	return a * b, true
}

// addInt64 adds two non-negative values, reporting overflow.
func addInt64(a, b int64) (int64, bool) {
	if a > math.MaxInt64-b {
		return 0, false
	}
	return a + b, true
}
