// Package parser extracts an expense amount and category from one line of
// speech-transcribed Russian text.
//
// The pipeline is fixed: the text is normalized and scanned into typed
// tokens, an ordered cascade of grammar rules picks the amount span (the
// first applicable rule wins), the amount is assembled in integer kopecks and
// whatever was not consumed becomes the category. Parse keeps no state and is
// safe for concurrent use.
package parser

import (
	"fmt"
	"strings"

	"budgetify/internal/core"
)

// Result is a successfully parsed expense.
type Result struct {
	Amount   core.Money
	Category string
	Rule     Rule
}

// Parse extracts an amount and a category from text. On failure the returned
// error is an *Error wrapping one of the package sentinels; use errors.Is.
func Parse(text string) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{}
			err = &Error{Kind: fmt.Errorf("%w: %v", ErrInternal, r), Text: text}
		}
	}()

	if strings.TrimSpace(text) == "" {
		return Result{}, fail(ErrEmptyInput, RuleNone, text)
	}
	toks := scan(text, lex(text))
	if len(toks) == 0 {
		// Punctuation only.
		return Result{}, fail(ErrEmptyInput, RuleNone, text)
	}

	m, ok := extract(toks)
	if !ok {
		return Result{}, fail(ErrNoMatch, RuleNone, text)
	}
	if m.rule == RuleNoNumber {
		return Result{}, fail(ErrNoAmount, m.rule, text)
	}

	amount, err := assemble(m)
	if err != nil {
		return Result{}, fail(err, m.rule, text)
	}
	rest := residual(toks, m)
	cat := category(rest)
	if err := validate(m, cat, rest); err != nil {
		return Result{}, fail(err, m.rule, text)
	}
	return Result{Amount: amount, Category: cat, Rule: m.rule}, nil
}
