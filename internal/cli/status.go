package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/AdityaKumar3594/Kishan-Saathi/internal/engine"
	"github.com/AdityaKumar3594/Kishan-Saathi/internal/money"
	"github.com/AdityaKumar3594/Kishan-Saathi/internal/sim"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "status <sim-id>",
		Short:         "Show simulation and sync status",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, rootOpts, args[0])
		},
	}
	return cmd
}

// statusView is the combined payload for --format=json.
type statusView struct {
	State sim.Simulation    `json:"state"`
	Sync  engine.SyncStatus `json:"sync"`
}

func runStatus(cmd *cobra.Command, opts *RootOptions, simID string) error {
	ctx := cmd.Context()
	env, err := newEnv(ctx, opts)
	if err != nil {
		return err
	}
	defer env.Close()

	state, err := env.engine.GetState(ctx, simID)
	if err != nil {
		return renderEngineError(cmd, opts, err)
	}
	syncStatus, err := env.engine.GetSyncStatus(ctx, simID)
	if err != nil {
		return renderEngineError(cmd, opts, err)
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		return (&OutputFormatter{Format: opts.Format, Writer: out}).JSON(statusView{State: state, Sync: syncStatus})
	}
	renderStatus(out, state, syncStatus)
	return nil
}

func renderStatus(out io.Writer, state sim.Simulation, syncStatus engine.SyncStatus) {
	fmt.Fprintf(out, "Simulation %s (%s, %s) - %s\n", state.ID, state.Crop, state.Region, state.Status)
	fmt.Fprintf(out, "  Period:    %d of %d (%d processed)\n", state.Period, state.YearLength, state.Processed)
	fmt.Fprintf(out, "  Cash:      %s\n", formatPaise(state.Snap.Cash))
	fmt.Fprintf(out, "  Savings:   %s\n", formatPaise(state.Snap.Savings))
	fmt.Fprintf(out, "  Cover:     %s\n", formatPaise(state.Snap.InsuranceCover))
	fmt.Fprintf(out, "  Loans:     %s\n", formatPaise(state.Snap.LoanOutstanding))
	fmt.Fprintf(out, "  Points:    %d\n", state.Points)
	if len(state.Snap.Allocations) > 0 {
		fmt.Fprintln(out, "  Investments:")
		for _, a := range state.Snap.Allocations {
			fmt.Fprintf(out, "    %-16s %s (principal %s)\n", a.Category, formatPaise(a.Value), formatPaise(a.Principal))
		}
	}
	var absorbed money.Paise
	for _, ev := range state.Events {
		absorbed += ev.Mitigation()
	}
	fmt.Fprintf(out, "  Events:    %d realized, %s absorbed by cover\n", len(state.Events), formatPaise(absorbed))
	fmt.Fprintf(out, "Sync: %d queued, %d failed, seq %d\n",
		syncStatus.QueuedActions, syncStatus.FailedActions, syncStatus.LastSeq)
}
