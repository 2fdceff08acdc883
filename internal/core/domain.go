package core

import (
	"errors"
	"strings"
	"time"
)

const (
	SourceVoice Source = "Голос"
	SourceText  Source = "Текст"
)

const maxCategoryLen = 200

type (
	// Source tells how an expense reached the bot.
	Source string

	Money struct {
		Kopecks int64
	}

	Expense struct {
		UserID     int64
		Date       time.Time
		Amount     Money
		Category   string
		Source     Source
		Transcript string // text the amount and category were parsed from
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyCategory   = errors.New("empty category")
	ErrCategoryTooLong = errors.New("category too long (max 200 characters)")
	ErrMissingUser     = errors.New("missing user")
	ErrMissingDate     = errors.New("missing date")
)

// Validate rejects negative amounts. Zero is a legal, if odd, expense.
func (m Money) Validate() error {
	if m.Kopecks < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if e.UserID == 0 {
		return ErrMissingUser
	}
	if e.Date.IsZero() {
		return ErrMissingDate
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if len([]rune(e.Category)) > maxCategoryLen {
		return ErrCategoryTooLong
	}
	return nil
}

// SourceLabel returns the source to show in a spreadsheet cell.
func (e Expense) SourceLabel() string {
	if e.Source == "" {
		return string(SourceVoice)
	}
	return string(e.Source)
}
