package parser

import "strings"

// validate applies the acceptance policy to an assembled match.
func validate(m *match, cat string, rest []Token) error {
	if !m.hasAmount() {
		return ErrNoAmount
	}
	if cat == "" {
		return ErrNoCategory
	}
	if degenerate(rest) {
		return ErrDegenerateCategory
	}
	return nil
}

// degenerate reports whether every residual token is currency or scale
// vocabulary, e.g. a stray "рублей" or "Коп".
func degenerate(rest []Token) bool {
	if len(rest) == 0 {
		return false
	}
	for _, t := range rest {
		switch t.Kind {
		case Major, Minor, Scale:
			continue
		case Word:
			if isCurrencyWord(strings.ToLower(t.Text)) {
				continue
			}
		}
		return false
	}
	return true
}
