package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/AdityaKumar3594/Kishan-Saathi/internal/sim"
)

// StartOptions holds flags for the start command.
type StartOptions struct {
	*RootOptions
	Owner  string
	Crop   string
	Region string
	Seed   int64
}

// NewStartCommand creates the start command.
func NewStartCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StartOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a new simulated financial year",
		Long: `Start a new simulated financial year for a crop and region.

An unknown region falls back to the national profile. The seed fixes
the year's event schedule and expense draws; omit it for a fresh year.

Example:
  saathi start --owner farmer-1 --crop wheat --region punjab --seed 42`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Owner, "owner", "", "owner identifier")
	cmd.Flags().StringVar(&opts.Crop, "crop", "", "crop to farm (e.g. wheat, cotton, rice)")
	cmd.Flags().StringVar(&opts.Region, "region", "", "region profile (default from config)")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "simulation seed (0 picks one from the clock)")
	cmd.MarkFlagRequired("owner")
	cmd.MarkFlagRequired("crop")

	return cmd
}

func runStart(cmd *cobra.Command, opts *StartOptions) error {
	ctx := cmd.Context()
	env, err := newEnv(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer env.Close()

	region := opts.Region
	if region == "" {
		region = env.cfg.Sim.Region
	}
	seed := opts.Seed
	if seed == 0 {
		seed = env.cfg.Sim.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	state, err := env.engine.StartNewYear(ctx, sim.Config{
		OwnerID: opts.Owner,
		Crop:    opts.Crop,
		Region:  region,
		Seed:    seed,
	})
	if err != nil {
		return renderEngineError(cmd, opts.RootOptions, err)
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		return (&OutputFormatter{Format: opts.Format, Writer: out}).JSON(state)
	}
	fmt.Fprintf(out, "Simulation %s started\n", state.ID)
	fmt.Fprintf(out, "  Crop:            %s\n", state.Crop)
	fmt.Fprintf(out, "  Region:          %s\n", state.Region)
	fmt.Fprintf(out, "  Seed:            %d\n", state.Seed)
	fmt.Fprintf(out, "  Opening capital: %s\n", formatPaise(state.Snap.Cash))
	return nil
}
