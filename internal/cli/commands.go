package cli

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"financas/internal/core"
	"financas/internal/report"
	"financas/internal/session"
	"financas/internal/store"
	"financas/internal/summary"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "financasctl",
		Short: "Administer a financas household ledger",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newMigrateCommand(app),
		newHashPasswordCommand(app),
		newSeedCommand(app),
		newSummaryCommand(app),
		newExportCommand(app),
	)
	return rootCmd
}

func newMigrateCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations to the configured backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.Migrate(app.Config); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrations applied to %s backend\n", app.Config.DataBackend)
			return nil
		},
	}
}

func newHashPasswordCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print the bcrypt hash to use as AUTH_PASSWORD_HASH",
		Long:  "Print the bcrypt hash to use as AUTH_PASSWORD_HASH. Without an argument the password is read from the first line of stdin.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password := ""
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := bufio.NewReader(app.Stdin).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			hash, err := session.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func newSeedCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Store the configured household and its default categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, h, cleanup, err := app.ledger(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			created, err := store.Seed(cmd.Context(), svc.Store(), h)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Household %s ready, %d categories created\n", h.ID, created)
			return nil
		},
	}
}

func newSummaryCommand(app *App) *cobra.Command {
	var month string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the totals and category breakdown of a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := app.period(month)
			if err != nil {
				return err
			}
			svc, h, cleanup, err := app.ledger(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			dash, err := svc.Dashboard(cmd.Context(), h.ID, p)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(dash)
			}
			return printDashboard(cmd.OutOrStdout(), h, dash)
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default current month)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newExportCommand(app *App) *cobra.Command {
	var month string
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the month statement as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := app.period(month)
			if err != nil {
				return err
			}
			svc, h, cleanup, err := app.ledger(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			rep, err := svc.MonthReport(cmd.Context(), h, p, summary.ItemFilter{})
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := report.WriteCSV(&buf, h, rep.Items); err != nil {
				return err
			}

			if out == "" {
				out = report.Filename(p)
			}
			if out == "-" {
				_, err := buf.WriteTo(cmd.OutOrStdout())
				return err
			}
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d items to %s\n", len(rep.Items), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default current month)")
	cmd.Flags().StringVar(&out, "out", "", `output file, "-" for stdout (default financas-YYYY-MM.csv)`)
	return cmd
}

func (a *App) period(month string) (core.Period, error) {
	if strings.TrimSpace(month) == "" {
		return core.PeriodOf(a.Now()), nil
	}
	return core.ParsePeriod(month)
}

func printDashboard(w io.Writer, h core.Household, d summary.Dashboard) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	s := d.Summary
	fmt.Fprintf(tw, "Month\t%s\n", d.Period)
	fmt.Fprintf(tw, "Income\t%s\n", s.Income.StringFixed(2))
	fmt.Fprintf(tw, "Expense\t%s\n", s.Expense.StringFixed(2))
	fmt.Fprintf(tw, "Balance\t%s\n", s.Balance.StringFixed(2))
	fmt.Fprintf(tw, "Savings rate\t%s%%\n", s.SavingsRate.StringFixed(2))
	fmt.Fprintf(tw, "%s\tincome %s\texpense %s\n", h.PersonAName, s.PersonAIncome.StringFixed(2), s.PersonAExpense.StringFixed(2))
	fmt.Fprintf(tw, "%s\tincome %s\texpense %s\n", h.PersonBName, s.PersonBIncome.StringFixed(2), s.PersonBExpense.StringFixed(2))
	if len(d.Categories) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "Category\tExpense\tShare")
		for _, c := range d.Categories {
			fmt.Fprintf(tw, "%s\t%s\t%s%%\n", c.Name, c.Value.StringFixed(2), c.Percentage.StringFixed(1))
		}
	}
	return tw.Flush()
}
