package decision

import (
	"fmt"

	"github.com/AdityaKumar3594/Kishan-Saathi/internal/money"
)

// RecommendedSavingsRateBps is the heuristic a decision is scored
// against: put away at least 20% of seasonal income.
const RecommendedSavingsRateBps = 2000

// Applied is one decision as it lives in history: the flattened
// variant fields, the pre-state checksum, the score, and the exact
// ledger inverse. Immutable once appended; undo removes the record
// rather than mutating it.
type Applied struct {
	ID          string         `json:"id"`
	Kind        Kind           `json:"kind"`
	Amount      money.Paise    `json:"amount"`
	Category    string         `json:"category"`
	Cover       money.Paise    `json:"cover,omitempty"` // insurance only
	Period      int            `json:"period"`
	ClientTS    int64          `json:"client_ts"`
	PreChecksum string         `json:"pre_checksum"`
	Points      int            `json:"points"`
	FeedbackID  string         `json:"feedback_id"`
	Inverse     money.OpRecord `json:"inverse"`
}

// Outcome is what the caller shows the farmer: numbers and a
// localization-ready feedback identifier. The core never renders
// human language.
type Outcome struct {
	DecisionID string
	Points     int
	FeedbackID string
}

// Context carries the surrounding simulation facts Apply needs for
// scoring and allocation setup.
type Context struct {
	DecisionID string // caller-assigned, unique within the simulation
	Period     int
	ClientTS   int64
	Catalog    Catalog
	// Scoring inputs: income received and amount put aside so far
	// this year, before this decision.
	IncomeSoFar money.Paise
	SavedSoFar  money.Paise
}

// Apply validates and applies a decision, returning the new snapshot,
// the history record (with its inverse), and the outcome. On any
// error the input snapshot is returned unchanged.
func Apply(snap money.Snapshot, d Decision, cctx Context) (money.Snapshot, Applied, Outcome, error) {
	if err := Validate(snap, d, cctx.Catalog); err != nil {
		return snap, Applied{}, Outcome{}, err
	}

	pre := snap.Checksum()

	var (
		out money.Snapshot
		rec money.OpRecord
		err error
		ap  Applied
	)

	switch v := d.(type) {
	case Expense:
		out, rec, err = money.ApplyExpense(snap, v.Amount, v.Category)
		ap = Applied{Kind: KindExpense, Amount: v.Amount, Category: v.Category}
	case Saving:
		out, rec, err = money.Save(snap, v.Amount)
		ap = Applied{Kind: KindSaving, Amount: v.Amount, Category: "savings"}
	case Investment:
		out, rec, err = money.Invest(snap,
			"alloc-"+cctx.DecisionID, v.Product, liquidityFor(v.Product),
			cctx.Catalog.ProductRates[v.Product], v.Amount)
		ap = Applied{Kind: KindInvestment, Amount: v.Amount, Category: v.Product}
	case Insurance:
		out, rec, err = money.AddCover(snap, v.Premium, v.Cover)
		ap = Applied{Kind: KindInsurance, Amount: v.Premium, Cover: v.Cover, Category: "insurance"}
	case Loan:
		out, rec, err = money.TakeLoan(snap, v.Amount)
		ap = Applied{Kind: KindLoan, Amount: v.Amount, Category: "loan"}
	default:
		return snap, Applied{}, Outcome{}, fmt.Errorf("decision kind %T: %w", d, ErrUnknownCategory)
	}
	if err != nil {
		return snap, Applied{}, Outcome{}, err
	}

	ap.ID = cctx.DecisionID
	ap.Period = cctx.Period
	ap.ClientTS = cctx.ClientTS
	ap.PreChecksum = pre
	ap.Inverse = rec
	ap.Points, ap.FeedbackID = score(ap.Kind, ap.Amount, cctx.IncomeSoFar, cctx.SavedSoFar)

	return out, ap, Outcome{DecisionID: ap.ID, Points: ap.Points, FeedbackID: ap.FeedbackID}, nil
}

// Undo reverses the most recent decision. Only legal while the
// decision's period equals the current period. The restored snapshot
// is verified against the recorded pre-state checksum; a mismatch is
// a consistency failure the caller must treat as corruption.
func Undo(snap money.Snapshot, last Applied, currentPeriod int) (money.Snapshot, error) {
	if last.ID == "" {
		return snap, ErrNothingToUndo
	}
	if last.Period != currentPeriod {
		return snap, fmt.Errorf("decision from period %d, now %d: %w", last.Period, currentPeriod, ErrUndoWindowClosed)
	}

	restored, err := money.Reverse(snap, last.Inverse)
	if err != nil {
		return snap, err
	}
	if got := restored.Checksum(); got != last.PreChecksum {
		return snap, fmt.Errorf("%w: want %s, got %s", ErrChecksumMismatch, last.PreChecksum, got)
	}
	return restored, nil
}

// liquidityFor classifies allocation products. Savings-style products
// stay liquid; term products are locked for the year.
func liquidityFor(product string) money.LiquidityClass {
	if product == "savings_account" {
		return money.Liquid
	}
	return money.Locked
}

// score rates decision quality against the recommended savings rate
// and picks the feedback identifier the presentation layer localizes.
func score(kind Kind, amount, incomeSoFar, savedSoFar money.Paise) (int, string) {
	onTrack := func() bool {
		if incomeSoFar <= 0 {
			return false
		}
		return (savedSoFar+amount)*10000/incomeSoFar >= RecommendedSavingsRateBps
	}

	switch kind {
	case KindSaving:
		if onTrack() {
			return 20, "feedback.saving.on_track"
		}
		return 10, "feedback.saving.below_target"
	case KindInvestment:
		if onTrack() {
			return 22, "feedback.investment.on_track"
		}
		return 12, "feedback.investment.below_target"
	case KindInsurance:
		return 15, "feedback.insurance.covered"
	case KindExpense:
		return 2, "feedback.expense.recorded"
	case KindLoan:
		return 0, "feedback.loan.debt_warning"
	default:
		return 0, "feedback.unknown"
	}
}
