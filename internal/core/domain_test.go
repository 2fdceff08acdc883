package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Kopecks: 0}).Validate(); err != nil {
		t.Fatalf("expected ok for zero, got %v", err)
	}
	if err := (Money{Kopecks: -1}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestExpenseValidate(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	good := Expense{
		UserID:   42,
		Date:     now,
		Amount:   NewMoney(750, 42),
		Category: "подушка",
		Source:   SourceVoice,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Expense)
		want   error
	}{
		{"no user", func(e *Expense) { e.UserID = 0 }, ErrMissingUser},
		{"zero date", func(e *Expense) { e.Date = time.Time{} }, ErrMissingDate},
		{"negative amount", func(e *Expense) { e.Amount = Money{Kopecks: -5} }, ErrInvalidAmount},
		{"blank category", func(e *Expense) { e.Category = "   " }, ErrEmptyCategory},
		{"long category", func(e *Expense) { e.Category = strings.Repeat("я", 201) }, ErrCategoryTooLong},
	}
	for _, tc := range cases {
		e := good
		tc.mutate(&e)
		if err := e.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestSourceLabel(t *testing.T) {
	if got := (Expense{}).SourceLabel(); got != "Голос" {
		t.Fatalf("expected default Голос, got %q", got)
	}
	if got := (Expense{Source: SourceText}).SourceLabel(); got != "Текст" {
		t.Fatalf("expected Текст, got %q", got)
	}
}
