// Package money implements the financial bookkeeping primitives for a
// simulation: snapshots of a farmer's balances, income and expense
// application, allocation compounding, and exact operation reversal.
//
// All amounts are integer paise (Paise). Floats never appear in
// financial state: rates are integer basis points and compounding is
// computed in exact big-integer arithmetic. This is what makes
// checksums, undo, and replay byte-stable.
//
// Every mutating function is pure: it takes a Snapshot by value and
// returns a new Snapshot plus an OpRecord holding the exact prior
// balances, so Reverse can restore the pre-operation snapshot
// bit-for-bit.
package money

import (
	"errors"
	"fmt"
	"math/big"
)

// Paise is a monetary amount in integer paise (1/100 rupee).
// May be negative where debt is representable (cash only).
type Paise int64

// Rupees returns the whole-rupee part, truncated toward zero.
func (p Paise) Rupees() int64 { return int64(p) / 100 }

// FromRupees converts whole rupees to Paise.
func FromRupees(r int64) Paise { return Paise(r * 100) }

// Sentinel errors for ledger operations. The simulation layer wraps
// these into its typed error taxonomy.
var (
	ErrInvalidAmount     = errors.New("amount must be non-negative")
	ErrUnknownAllocation = errors.New("unknown allocation")
	ErrDuplicateAlloc    = errors.New("allocation id already exists")
	ErrBadReverse        = errors.New("operation record does not match snapshot")
)

// LiquidityClass describes how quickly an allocation can be turned
// back into cash.
type LiquidityClass string

const (
	// Liquid allocations can be drawn on immediately (e.g. a savings
	// account). They count toward the protection buffer.
	Liquid LiquidityClass = "liquid"
	// Locked allocations are committed for the year (e.g. a fixed
	// deposit or crop insurance corpus).
	Locked LiquidityClass = "locked"
)

// Allocation is a committed amount earning a per-period rate.
//
// Value is always the closed-form compound of Principal over Periods;
// it is never incremented step-by-step. That is what makes compounding
// path-independent: reaching period n in one step or n steps yields an
// identical Value.
type Allocation struct {
	ID        string
	Category  string
	Class     LiquidityClass
	RateBps   int64 // interest per period, basis points
	Principal Paise // contributed capital, fixed at creation
	Periods   int   // compounding periods elapsed
	Value     Paise // CompoundValue(Principal, RateBps, Periods)
}

// CompoundValue computes principal grown at rateBps per period for n
// periods, rounded half-up to the nearest paisa.
//
//	value = principal * (10000 + rateBps)^n / 10000^n
//
// Computed in big-integer arithmetic so the result is exact for any
// realistic principal and period count, and identical no matter how
// the elapsed duration was reached.
func CompoundValue(principal Paise, rateBps int64, n int) Paise {
	if n <= 0 || rateBps == 0 || principal == 0 {
		return principal
	}
	num := new(big.Int).Exp(big.NewInt(10000+rateBps), big.NewInt(int64(n)), nil)
	den := new(big.Int).Exp(big.NewInt(10000), big.NewInt(int64(n)), nil)

	v := new(big.Int).Mul(big.NewInt(int64(principal)), num)
	// Round half-up: (2v + den) / 2den, floor division.
	v.Mul(v, big.NewInt(2))
	v.Add(v, den)
	v.Quo(v, new(big.Int).Mul(den, big.NewInt(2)))
	return Paise(v.Int64())
}

// Interest returns the interest accrued so far on the allocation.
func (a Allocation) Interest() Paise {
	return a.Value - a.Principal
}

func (a Allocation) String() string {
	return fmt.Sprintf("%s[%s %dbps n=%d value=%d]", a.ID, a.Category, a.RateBps, a.Periods, a.Value)
}
