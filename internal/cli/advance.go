package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// AdvanceOptions holds flags for the advance command.
type AdvanceOptions struct {
	*RootOptions
	Periods int
}

// NewAdvanceCommand creates the advance command.
func NewAdvanceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AdvanceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "advance <sim-id>",
		Short: "Advance simulated time",
		Long: `Advance simulated time by one or more periods (months).

Each period accrues living expenses, harvest income when the calendar
says so, returns on investments, and any scheduled risk events.
Advancing past the end of the year stops at the final period.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdvance(cmd, opts, args[0])
		},
	}

	cmd.Flags().IntVar(&opts.Periods, "periods", 1, "number of periods to advance")

	return cmd
}

func runAdvance(cmd *cobra.Command, opts *AdvanceOptions, simID string) error {
	ctx := cmd.Context()
	env, err := newEnv(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer env.Close()

	state, err := env.engine.AdvanceTime(ctx, simID, opts.Periods)
	if err != nil {
		return renderEngineError(cmd, opts.RootOptions, err)
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		return (&OutputFormatter{Format: opts.Format, Writer: out}).JSON(state)
	}
	fmt.Fprintf(out, "Period %d of %d (%d processed)\n", state.Period, state.YearLength, state.Processed)
	fmt.Fprintf(out, "  Cash:    %s\n", formatPaise(state.Snap.Cash))
	fmt.Fprintf(out, "  Savings: %s\n", formatPaise(state.Snap.Savings))
	if state.Snap.Overdrawn {
		fmt.Fprintln(out, "  WARNING: account overdrawn")
	}
	for _, ev := range state.Events {
		if ev.Period == state.Processed {
			fmt.Fprintf(out, "  Event: %s (%s), impact %s\n",
				ev.Type, ev.Severity, formatPaise(ev.MitigatedImpact))
		}
	}
	return nil
}
