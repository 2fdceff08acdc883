package parser

import (
	"errors"
	"fmt"
)

// Failure sentinels. Every error returned by Parse wraps exactly one of them.
var (
	ErrEmptyInput         = errors.New("empty input")
	ErrNoMatch            = errors.New("no amount pattern matched")
	ErrNoAmount           = errors.New("no amount found")
	ErrInvalidMinorUnits  = errors.New("invalid kopeck amount")
	ErrNoCategory         = errors.New("no category found")
	ErrDegenerateCategory = errors.New("category is only a currency word")
	ErrAmountOverflow     = errors.New("amount too large")
	ErrInternal           = errors.New("internal parser error")
)

// Error describes a failed parse. Kind is one of the sentinels above.
type Error struct {
	Kind error
	Rule Rule
	Text string
}

func (e *Error) Error() string {
	if e.Rule == RuleNone {
		return fmt.Sprintf("parse %q: %v", e.Text, e.Kind)
	}
	return fmt.Sprintf("parse %q (rule %s): %v", e.Text, e.Rule, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func fail(kind error, rule Rule, text string) error {
	return &Error{Kind: kind, Rule: rule, Text: text}
}
