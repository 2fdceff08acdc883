package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"budgetify/internal/cli"
	"budgetify/internal/config"
	"budgetify/internal/core"
	"budgetify/internal/storage"
)

func newExpensesCommand() *cobra.Command {
	var userID int64
	var month string

	cmd := &cobra.Command{
		Use:   "expenses",
		Short: "List a user's stored expenses for a month",
		Long: "Prints date<TAB>amount<TAB>category<TAB>source for every expense of the\n" +
			"month, in local time. The month defaults to the current one.",
		PreRun: func(*cobra.Command, []string) {
			cli.LoadEnvFile()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			at := time.Now()
			if month != "" {
				var err error
				if at, err = time.ParseInLocation("2006-01", month, time.Local); err != nil {
					return fmt.Errorf("invalid --month %q: want YYYY-MM", month)
				}
			}

			repo, err := storage.NewSQLiteRepository(config.Load().SQLiteDBPath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer repo.Close()

			list, err := repo.ListExpenses(cmd.Context(), userID, at.Year(), int(at.Month()), time.Local)
			if err != nil {
				return err
			}
			return printExpenses(cmd.OutOrStdout(), list, time.Local)
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "Telegram user id (required)")
	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func printExpenses(w io.Writer, list []core.Expense, loc *time.Location) error {
	var total core.Money
	for _, e := range list {
		total = total.Add(e.Amount)
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			e.Date.In(loc).Format("2006-01-02 15:04"), e.Amount, e.Category, e.SourceLabel()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "total\t%s\t%d expenses\n", total, len(list))
	return err
}
