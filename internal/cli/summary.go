package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/AdityaKumar3594/Kishan-Saathi/internal/sim"
)

// NewSummaryCommand creates the summary command.
func NewSummaryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary <sim-id>",
		Short: "Complete the year and show the summary",
		Long: `Complete a fully processed year and show its summary.

Refused while periods remain. Running it again on a completed year
just prints the stored summary.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(cmd, rootOpts, args[0])
		},
	}
	return cmd
}

func runSummary(cmd *cobra.Command, opts *RootOptions, simID string) error {
	ctx := cmd.Context()
	env, err := newEnv(ctx, opts)
	if err != nil {
		return err
	}
	defer env.Close()

	summary, err := env.engine.CompleteYear(ctx, simID)
	if err != nil {
		return renderEngineError(cmd, opts, err)
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		return (&OutputFormatter{Format: opts.Format, Writer: out}).JSON(summary)
	}
	renderSummary(out, summary)
	return nil
}

func renderSummary(out io.Writer, y sim.YearSummary) {
	fmt.Fprintf(out, "Year complete: %s (%s, %s)\n", y.SimulationID, y.Crop, y.Region)
	fmt.Fprintf(out, "  Total income:   %s\n", formatPaise(y.TotalIncome))
	fmt.Fprintf(out, "  Total expenses: %s\n", formatPaise(y.TotalExpenses))

	categories := make([]string, 0, len(y.ExpensesByCategory))
	for cat := range y.ExpensesByCategory {
		categories = append(categories, cat)
	}
	sort.Strings(categories)
	for _, cat := range categories {
		fmt.Fprintf(out, "    %-16s %s\n", cat, formatPaise(y.ExpensesByCategory[cat]))
	}

	fmt.Fprintf(out, "  Net savings:    %s (%d.%02d%% of income)\n",
		formatPaise(y.NetSavings), y.SavingsRateBps/100, y.SavingsRateBps%100)
	fmt.Fprintf(out, "  Events:         %d, damage %s\n", y.EventCount, formatPaise(y.EventImpact))
	fmt.Fprintf(out, "  Decisions:      %d, points %d\n", y.DecisionCount, y.Points)
	fmt.Fprintf(out, "  Final cash:     %s\n", formatPaise(y.FinalCash))
	if y.Overdrawn {
		fmt.Fprintln(out, "  Ended the year overdrawn")
	}
}
