// Package decision validates and applies a farmer's financial choices
// to a ledger snapshot, producing an outcome plus the exact inverse
// needed for same-period undo.
//
// Decisions are a closed set of variants. External input (voice, SMS,
// UI) is mapped to one of these variants at the adapter boundary and
// checked exhaustively; there is no "any"-typed payload anywhere in
// the core.
package decision

import (
	"errors"
	"fmt"

	"github.com/AdityaKumar3594/Kishan-Saathi/internal/money"
)

// Kind tags a decision variant.
type Kind string

const (
	KindExpense    Kind = "expense"
	KindSaving     Kind = "saving"
	KindInvestment Kind = "investment"
	KindInsurance  Kind = "insurance"
	KindLoan       Kind = "loan"
)

// Rejection reasons and undo failures. All are recoverable: the state
// is untouched when any of these is returned.
var (
	ErrInsufficientFunds = errors.New("amount exceeds available liquid cash")
	ErrUnknownCategory   = errors.New("category not recognized")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrNothingToUndo     = errors.New("no decision to undo in this period")
	ErrUndoWindowClosed  = errors.New("undo window closed: period has advanced")
	ErrChecksumMismatch  = errors.New("restored state does not match recorded checksum")
)

// Decision is the sealed interface over the decision variants.
type Decision interface {
	Kind() Kind
	decision()
}

// Expense spends cash on a recognized expense category.
type Expense struct {
	Amount   money.Paise
	Category string
}

func (Expense) Kind() Kind { return KindExpense }
func (Expense) decision()  {}

// Saving moves cash into the liquid savings bucket.
type Saving struct {
	Amount money.Paise
}

func (Saving) Kind() Kind { return KindSaving }
func (Saving) decision()  {}

// Investment commits cash to an allocation product (fixed deposit,
// mutual fund, gold) at the region's rate for that product.
type Investment struct {
	Amount  money.Paise
	Product string
}

func (Investment) Kind() Kind { return KindInvestment }
func (Investment) decision()  {}

// Insurance pays a premium for cover against risk events.
type Insurance struct {
	Premium money.Paise
	Cover   money.Paise
}

func (Insurance) Kind() Kind { return KindInsurance }
func (Insurance) decision()  {}

// Loan takes on debt; proceeds arrive as cash.
type Loan struct {
	Amount money.Paise
}

func (Loan) Kind() Kind { return KindLoan }
func (Loan) decision()  {}

// Catalog is the recognized category universe for validation: expense
// categories with a share in the region profile, and allocation
// products with a published rate.
type Catalog struct {
	ExpenseCategories map[string]bool
	ProductRates      map[string]int64 // product → bps per period
}

// Validate checks a decision against a snapshot without touching it.
// A nil return means the decision may be applied.
func Validate(snap money.Snapshot, d Decision, cat Catalog) error {
	switch v := d.(type) {
	case Expense:
		if v.Amount <= 0 {
			return fmt.Errorf("expense: %w", ErrInvalidAmount)
		}
		if !cat.ExpenseCategories[v.Category] {
			return fmt.Errorf("expense category %q: %w", v.Category, ErrUnknownCategory)
		}
		if v.Amount > snap.LiquidCash() {
			return fmt.Errorf("expense %d > liquid %d: %w", v.Amount, snap.LiquidCash(), ErrInsufficientFunds)
		}
	case Saving:
		if v.Amount <= 0 {
			return fmt.Errorf("saving: %w", ErrInvalidAmount)
		}
		if v.Amount > snap.LiquidCash() {
			return fmt.Errorf("saving %d > liquid %d: %w", v.Amount, snap.LiquidCash(), ErrInsufficientFunds)
		}
	case Investment:
		if v.Amount <= 0 {
			return fmt.Errorf("investment: %w", ErrInvalidAmount)
		}
		if _, ok := cat.ProductRates[v.Product]; !ok {
			return fmt.Errorf("investment product %q: %w", v.Product, ErrUnknownCategory)
		}
		if v.Amount > snap.LiquidCash() {
			return fmt.Errorf("investment %d > liquid %d: %w", v.Amount, snap.LiquidCash(), ErrInsufficientFunds)
		}
	case Insurance:
		if v.Premium <= 0 || v.Cover <= 0 {
			return fmt.Errorf("insurance: %w", ErrInvalidAmount)
		}
		if v.Premium > snap.LiquidCash() {
			return fmt.Errorf("premium %d > liquid %d: %w", v.Premium, snap.LiquidCash(), ErrInsufficientFunds)
		}
	case Loan:
		if v.Amount <= 0 {
			return fmt.Errorf("loan: %w", ErrInvalidAmount)
		}
	default:
		return fmt.Errorf("decision kind %T: %w", d, ErrUnknownCategory)
	}
	return nil
}
