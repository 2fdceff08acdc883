package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"budgetify/internal/core"
	"budgetify/internal/log"
	"budgetify/internal/parser"
)

// ExpenseStore is the local system of record.
type ExpenseStore interface {
	Append(ctx context.Context, e core.Expense) (int64, error)
	ReadMonthOverview(ctx context.Context, userID int64, year, month int, loc *time.Location) (core.MonthOverview, error)
}

// SyncPublisher announces a stored expense to the sync worker.
type SyncPublisher interface {
	PublishExpenseSync(ctx context.Context, expenseID, userID int64) error
}

// Recorded is an expense accepted by Record.
type Recorded struct {
	ID      int64
	Expense core.Expense
	Rule    parser.Rule
}

// ExpenseService turns transcripts into stored expenses and queues them for
// the spreadsheet.
type ExpenseService struct {
	store     ExpenseStore
	publisher SyncPublisher
	logger    *log.Logger
	now       func() time.Time
	loc       *time.Location
}

type Option func(*ExpenseService)

func WithLogger(l *log.Logger) Option {
	return func(s *ExpenseService) { s.logger = l.WithComponent(log.ComponentExpense) }
}

func WithClock(now func() time.Time) Option {
	return func(s *ExpenseService) { s.now = now }
}

// WithLocation sets the zone that decides which month "this month" is.
func WithLocation(loc *time.Location) Option {
	return func(s *ExpenseService) { s.loc = loc }
}

// NewExpenseService wires a store and an optional publisher; a nil publisher
// leaves expenses pending for the worker's periodic sweep.
func NewExpenseService(store ExpenseStore, publisher SyncPublisher, opts ...Option) *ExpenseService {
	s := &ExpenseService{
		store:     store,
		publisher: publisher,
		logger:    log.New(log.DefaultConfig()).WithComponent(log.ComponentExpense),
		now:       time.Now,
		loc:       time.Local,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Record parses text, stores the expense and publishes a sync message.
// Parse failures are returned unchanged so callers can match them with
// errors.Is against the parser sentinels. A failed publish is logged only:
// the expense is already saved and the worker picks it up later.
func (s *ExpenseService) Record(ctx context.Context, userID int64, text string, source core.Source) (*Recorded, error) {
	res, err := parser.Parse(text)
	if err != nil {
		s.logger.DebugContext(ctx, "Transcript rejected",
			log.FieldUserID, userID,
			log.FieldTranscript, text,
			log.FieldError, err)
		return nil, err
	}

	e := core.Expense{
		UserID:     userID,
		Date:       s.now(),
		Amount:     res.Amount,
		Category:   res.Category,
		Source:     source,
		Transcript: text,
	}
	id, err := s.store.Append(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("save expense: %w", err)
	}

	s.logger.InfoContext(ctx, "Expense recorded",
		log.NewFields().
			WithOperation(log.OpRecord).
			WithExpense(e.Category, e.Amount.Kopecks, string(source)).
			ToSlice()...)

	if err := s.publish(ctx, id, userID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish sync message",
			log.FieldExpenseID, id,
			log.FieldError, err)
	}

	return &Recorded{ID: id, Expense: e, Rule: res.Rule}, nil
}

func (s *ExpenseService) publish(ctx context.Context, id, userID int64) error {
	if s.publisher == nil {
		s.logger.WarnContext(ctx, "AMQP client not available, skipping sync message",
			log.FieldExpenseID, id)
		return nil
	}
	return s.publisher.PublishExpenseSync(ctx, id, userID)
}

// MonthOverview sums the current month's expenses for userID. The month
// is the calendar month in the service location.
func (s *ExpenseService) MonthOverview(ctx context.Context, userID int64) (core.MonthOverview, error) {
	now := s.now().In(s.loc)
	o, err := s.store.ReadMonthOverview(ctx, userID, now.Year(), int(now.Month()), s.loc)
	if err != nil {
		return core.MonthOverview{}, fmt.Errorf("month overview: %w", err)
	}
	return o, nil
}

// Close closes the store and publisher when they are closable.
func (s *ExpenseService) Close() error {
	var errs []error
	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %w", errors.Join(errs...))
	}
	return nil
}
