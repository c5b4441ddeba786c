package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewUndoCommand creates the undo command.
func NewUndoCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "undo <sim-id>",
		Short: "Undo the most recent decision",
		Long: `Undo the most recent decision of the current period.

The undo window closes as soon as time advances. If the decision never
left the device its sync record is withdrawn outright; otherwise a
compensating record is queued.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUndo(cmd, rootOpts, args[0])
		},
	}
	return cmd
}

func runUndo(cmd *cobra.Command, opts *RootOptions, simID string) error {
	ctx := cmd.Context()
	env, err := newEnv(ctx, opts)
	if err != nil {
		return err
	}
	defer env.Close()

	undone, err := env.engine.UndoDecision(ctx, simID)
	if err != nil {
		return renderEngineError(cmd, opts, err)
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		return (&OutputFormatter{Format: opts.Format, Writer: out}).JSON(undone)
	}
	fmt.Fprintf(out, "Undid %s of %s (-%d points)\n", undone.Kind, formatPaise(undone.Amount), undone.Points)
	return nil
}

// NewTriggerCommand creates the trigger command.
func NewTriggerCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trigger <sim-id>",
		Short: "Trigger an extra risk event now",
		Long: `Trigger a risk event in the current period, drawn from the region's
event mix. Counts against the year's event budget; once the budget is
spent the command is refused.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrigger(cmd, rootOpts, args[0])
		},
	}
	return cmd
}

func runTrigger(cmd *cobra.Command, opts *RootOptions, simID string) error {
	ctx := cmd.Context()
	env, err := newEnv(ctx, opts)
	if err != nil {
		return err
	}
	defer env.Close()

	event, err := env.engine.TriggerRiskEvent(ctx, simID)
	if err != nil {
		return renderEngineError(cmd, opts, err)
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		return (&OutputFormatter{Format: opts.Format, Writer: out}).JSON(event)
	}
	fmt.Fprintf(out, "Event %s (%s) struck in period %d\n", event.Type, event.Severity, event.Period)
	fmt.Fprintf(out, "  Raw impact:       %s\n", formatPaise(event.RawImpact))
	fmt.Fprintf(out, "  After protection: %s\n", formatPaise(event.MitigatedImpact))
	return nil
}
