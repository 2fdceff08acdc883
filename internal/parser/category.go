package parser

import "strings"

// residual returns the tokens the match did not consume, in source order.
func residual(toks []Token, m *match) []Token {
	out := make([]Token, 0, len(toks))
	for i, t := range toks {
		if !m.consumed[i] {
			out = append(out, t)
		}
	}
	return out
}

// category joins the original text of the residual tokens with single spaces.
func category(rest []Token) string {
	var b strings.Builder
	for _, t := range rest {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(t.Text)
	}
	return strings.TrimSpace(b.String())
}
