// Package memory is an in-process ExpenseWriter for development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"budgetify/internal/core"
	"budgetify/internal/sheets"
)

var _ sheets.ExpenseWriter = (*Store)(nil)

type Store struct {
	mu    sync.Mutex
	items []core.Expense
}

func New() *Store {
	return &Store{}
}

// Append stores the expense and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, e)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Expenses returns a copy of everything appended for userID, in order.
func (s *Store) Expenses(userID int64) []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	for _, e := range s.items {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of stored rows.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
