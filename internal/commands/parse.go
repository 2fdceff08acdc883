package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"budgetify/internal/parser"
)

func newParseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [text...]",
		Short: "Extract amount and category from a transcript",
		Long: "Parses the arguments as one transcript, or every line of standard input\n" +
			"when no arguments are given. Each result is printed as\n" +
			"amount<TAB>category<TAB>rule.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return parseOne(cmd.OutOrStdout(), strings.Join(args, " "))
			}
			return parseLines(cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func parseOne(w io.Writer, text string) error {
	res, err := parser.Parse(text)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\t%s\t%s\n", res.Amount, res.Category, res.Rule)
	return err
}

// parseLines prints one result or error per non-blank line and fails if any
// line did not parse.
func parseLines(r io.Reader, w io.Writer) error {
	var total, failed int
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		total++
		res, err := parser.Parse(line)
		if err != nil {
			failed++
			var perr *parser.Error
			if errors.As(err, &perr) {
				fmt.Fprintf(w, "error\t%v\t%s\n", perr.Kind, perr.Rule)
			} else {
				fmt.Fprintf(w, "error\t%v\n", err)
			}
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", res.Amount, res.Category, res.Rule)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d lines failed to parse", failed, total)
	}
	return nil
}

func newNormalizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <text...>",
		Short: "Print the normalized form of a transcript",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), parser.Normalize(strings.Join(args, " ")))
			return err
		},
	}
}

func newTokensCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens <text...>",
		Short: "Print the classified tokens of a transcript",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, t := range parser.Scan(strings.Join(args, " ")) {
				if _, err := fmt.Fprintln(out, t); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
