// Package xlsx keeps one Excel workbook per user on local disk.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"budgetify/internal/core"
	"budgetify/internal/sheets"
)

// SheetName is the worksheet expenses are appended to.
const SheetName = "Расходы"

// numFmtTwoDecimals is the built-in "0.00" number format.
const numFmtTwoDecimals = 2

var (
	_ sheets.ExpenseWriter  = (*Store)(nil)
	_ sheets.WorkbookSource = (*Store)(nil)
)

type Store struct {
	dir string
	loc *time.Location

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// New returns a store writing <dir>/<userID>.xlsx files. A nil loc means
// time.Local.
func New(dir string, loc *time.Location) (*Store, error) {
	if dir == "" {
		return nil, errors.New("xlsx: empty workbook directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("xlsx: create workbook directory: %w", err)
	}
	if loc == nil {
		loc = time.Local
	}
	return &Store{dir: dir, loc: loc, locks: make(map[int64]*sync.Mutex)}, nil
}

// WorkbookPath returns the path of a user's workbook and whether it exists.
func (s *Store) WorkbookPath(userID int64) (string, bool) {
	p := filepath.Join(s.dir, strconv.FormatInt(userID, 10)+".xlsx")
	_, err := os.Stat(p)
	return p, err == nil
}

// Append adds the expense as a new row of the user's workbook, creating the
// workbook with a header row on first use. The row ref is "Расходы!A<n>".
func (s *Store) Append(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	lock := s.userLock(e.UserID)
	lock.Lock()
	defer lock.Unlock()

	path, exists := s.WorkbookPath(e.UserID)
	f, err := s.open(path, exists)
	if err != nil {
		return "", err
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return "", fmt.Errorf("xlsx: read rows: %w", err)
	}
	next := len(rows) + 1
	cell, err := excelize.CoordinatesToCellName(1, next)
	if err != nil {
		return "", fmt.Errorf("xlsx: cell name: %w", err)
	}
	row := sheets.Row(e, s.loc)
	if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
		return "", fmt.Errorf("xlsx: write row: %w", err)
	}
	if err := s.formatAmount(f, next); err != nil {
		return "", err
	}
	if err := save(f, path); err != nil {
		return "", err
	}

	ref := fmt.Sprintf("%s!%s", SheetName, cell)
	slog.DebugContext(ctx, "Expense appended to workbook", "user_id", e.UserID, "path", path, "row_ref", ref)
	return ref, nil
}

func (s *Store) userLock(userID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

func (s *Store) open(path string, exists bool) (*excelize.File, error) {
	if exists {
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("xlsx: open %s: %w", path, err)
		}
		if idx, _ := f.GetSheetIndex(SheetName); idx < 0 {
			if _, err := f.NewSheet(SheetName); err != nil {
				f.Close()
				return nil, fmt.Errorf("xlsx: add sheet: %w", err)
			}
			if err := writeHeader(f); err != nil {
				f.Close()
				return nil, err
			}
		}
		return f, nil
	}

	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("xlsx: rename sheet: %w", err)
	}
	if err := writeHeader(f); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func writeHeader(f *excelize.File) error {
	header := make([]any, len(sheets.Header))
	for i, h := range sheets.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("xlsx: write header: %w", err)
	}
	if err := f.SetColWidth(SheetName, "A", "A", 18); err != nil {
		return fmt.Errorf("xlsx: column width: %w", err)
	}
	if err := f.SetColWidth(SheetName, "C", "C", 30); err != nil {
		return fmt.Errorf("xlsx: column width: %w", err)
	}
	return nil
}

func (s *Store) formatAmount(f *excelize.File, row int) error {
	style, err := f.NewStyle(&excelize.Style{NumFmt: numFmtTwoDecimals})
	if err != nil {
		return fmt.Errorf("xlsx: amount style: %w", err)
	}
	cell, err := excelize.CoordinatesToCellName(2, row)
	if err != nil {
		return fmt.Errorf("xlsx: cell name: %w", err)
	}
	if err := f.SetCellStyle(SheetName, cell, cell, style); err != nil {
		return fmt.Errorf("xlsx: amount style: %w", err)
	}
	return nil
}

// save writes through a temporary file so a crash never leaves a truncated
// workbook behind.
func save(f *excelize.File, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".workbook-*.xlsx")
	if err != nil {
		return fmt.Errorf("xlsx: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := f.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("xlsx: write workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("xlsx: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("xlsx: replace workbook: %w", err)
	}
	return nil
}
