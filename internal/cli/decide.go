package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AdityaKumar3594/Kishan-Saathi/internal/decision"
	"github.com/AdityaKumar3594/Kishan-Saathi/internal/money"
	"github.com/AdityaKumar3594/Kishan-Saathi/internal/sim"
)

// DecideOptions holds flags for the decide command.
type DecideOptions struct {
	*RootOptions
	Amount   int64 // rupees
	Category string
	Product  string
	Cover    int64 // rupees
}

// NewDecideCommand creates the decide command.
func NewDecideCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecideOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decide <sim-id> <expense|save|invest|insure|loan>",
		Short: "Apply a financial decision",
		Long: `Apply a financial decision to the current period.

Amounts are rupees. A rejected decision changes nothing and records
nothing; the most recent decision can be undone with "saathi undo"
until time advances.

Examples:
  saathi decide SIM expense --amount 500 --category healthcare
  saathi decide SIM save --amount 1000
  saathi decide SIM invest --amount 2000 --product fixed_deposit
  saathi decide SIM insure --amount 300 --cover 20000
  saathi decide SIM loan --amount 5000`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecide(cmd, opts, args[0], args[1])
		},
	}

	cmd.Flags().Int64Var(&opts.Amount, "amount", 0, "amount in rupees (premium for insure)")
	cmd.Flags().StringVar(&opts.Category, "category", "", "expense category")
	cmd.Flags().StringVar(&opts.Product, "product", "", "investment product")
	cmd.Flags().Int64Var(&opts.Cover, "cover", 0, "insurance cover in rupees")
	cmd.MarkFlagRequired("amount")

	return cmd
}

func runDecide(cmd *cobra.Command, opts *DecideOptions, simID, kind string) error {
	d, err := buildDecision(opts, kind)
	if err != nil {
		return WrapExitError(ExitCommandError, "bad decision", err)
	}

	ctx := cmd.Context()
	env, err := newEnv(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer env.Close()

	outcome, err := env.engine.MakeDecision(ctx, simID, d)
	if err != nil {
		return renderEngineError(cmd, opts.RootOptions, err)
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		return (&OutputFormatter{Format: opts.Format, Writer: out}).JSON(outcome)
	}
	fmt.Fprintf(out, "Decision %s applied: +%d points (%s)\n",
		outcome.DecisionID, outcome.Points, outcome.FeedbackID)
	return nil
}

func buildDecision(opts *DecideOptions, kind string) (decision.Decision, error) {
	amount := money.FromRupees(opts.Amount)
	switch kind {
	case "expense":
		if opts.Category == "" {
			return nil, errors.New("expense needs --category")
		}
		return decision.Expense{Amount: amount, Category: opts.Category}, nil
	case "save":
		return decision.Saving{Amount: amount}, nil
	case "invest":
		if opts.Product == "" {
			return nil, errors.New("invest needs --product")
		}
		return decision.Investment{Amount: amount, Product: opts.Product}, nil
	case "insure":
		if opts.Cover == 0 {
			return nil, errors.New("insure needs --cover")
		}
		return decision.Insurance{Premium: amount, Cover: money.FromRupees(opts.Cover)}, nil
	case "loan":
		return decision.Loan{Amount: amount}, nil
	default:
		return nil, fmt.Errorf("unknown decision kind %q", kind)
	}
}

// renderEngineError prints a classified engine error and maps it to
// an exit code. Consistency failures additionally tell the user their
// state was restored.
func renderEngineError(cmd *cobra.Command, opts *RootOptions, err error) error {
	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	var se *sim.Error
	if errors.As(err, &se) {
		msg := se.Message
		if sim.IsConsistency(err) {
			msg = "internal consistency check failed; your state was restored"
		}
		f.Error(se.Code, string(se.Class), msg)
		return NewExitError(ExitFailure, msg)
	}

	f.Error("", "", err.Error())
	return WrapExitError(ExitFailure, "operation failed", err)
}
