package sheets

import (
	"context"

	"budgetify/internal/core"
)

// Ports for outbound adapters.
type (
	ExpenseWriter interface {
		Append(ctx context.Context, e core.Expense) (rowRef string, err error)
	}

	// WorkbookSource is implemented by writers that keep one local file per
	// user, which can then be uploaded elsewhere.
	WorkbookSource interface {
		// WorkbookPath returns the user's workbook path and whether it exists.
		WorkbookPath(userID int64) (string, bool)
	}
)
