package money

import "fmt"

// OpKind identifies a ledger operation for reversal.
type OpKind string

const (
	OpIncome   OpKind = "income"
	OpExpense  OpKind = "expense"
	OpSave     OpKind = "save"
	OpInvest   OpKind = "invest"
	OpInsure   OpKind = "insure"
	OpLoan     OpKind = "loan"
	OpImpact   OpKind = "impact"
	OpCompound OpKind = "compound"
)

// Prior records the exact pre-operation values of every field a
// ledger operation may touch. Reverse restores them verbatim.
type Prior struct {
	Cash            Paise
	Savings         Paise
	InsuranceCover  Paise
	LoanOutstanding Paise
	Overdrawn       bool
	IncomeTotal     Paise
	ExpenseTotal    Paise
	ImpactTotal     Paise
	Alloc           Allocation // pre-op allocation state, if one was touched
	AllocExisted    bool
}

// OpRecord describes one applied ledger operation together with the
// prior balances needed to invert it exactly. Immutable once created.
type OpRecord struct {
	Kind         OpKind
	Amount       Paise
	Cover        Paise // OpInsure only
	Category     string
	AllocationID string
	Prior        Prior
}

func capturePrior(s Snapshot, allocID string) Prior {
	p := Prior{
		Cash:            s.Cash,
		Savings:         s.Savings,
		InsuranceCover:  s.InsuranceCover,
		LoanOutstanding: s.LoanOutstanding,
		Overdrawn:       s.Overdrawn,
		IncomeTotal:     s.IncomeTotal,
		ExpenseTotal:    s.ExpenseTotal,
		ImpactTotal:     s.ImpactTotal,
	}
	if allocID != "" {
		p.Alloc, p.AllocExisted = s.Allocation(allocID)
	}
	return p
}

// ApplyIncome credits cash. Amount must be non-negative.
func ApplyIncome(s Snapshot, amount Paise, category string) (Snapshot, OpRecord, error) {
	if amount < 0 {
		return s, OpRecord{}, fmt.Errorf("income %d (%s): %w", amount, category, ErrInvalidAmount)
	}
	rec := OpRecord{Kind: OpIncome, Amount: amount, Category: category, Prior: capturePrior(s, "")}
	out := s.clone()
	out.Cash += amount
	out.IncomeTotal += amount
	out.refreshOverdrawn()
	return out, rec, nil
}

// ApplyExpense debits cash. Succeeds even when the result is negative;
// the snapshot is then flagged overdrawn (debt is represented, not
// forbidden).
func ApplyExpense(s Snapshot, amount Paise, category string) (Snapshot, OpRecord, error) {
	if amount < 0 {
		return s, OpRecord{}, fmt.Errorf("expense %d (%s): %w", amount, category, ErrInvalidAmount)
	}
	rec := OpRecord{Kind: OpExpense, Amount: amount, Category: category, Prior: capturePrior(s, "")}
	out := s.clone()
	out.Cash -= amount
	out.ExpenseTotal += amount
	out.refreshOverdrawn()
	return out, rec, nil
}

// Save moves cash into the liquid savings bucket. Net worth is
// unchanged, so the balance invariant is untouched.
func Save(s Snapshot, amount Paise) (Snapshot, OpRecord, error) {
	if amount < 0 {
		return s, OpRecord{}, fmt.Errorf("save %d: %w", amount, ErrInvalidAmount)
	}
	rec := OpRecord{Kind: OpSave, Amount: amount, Category: "savings", Prior: capturePrior(s, "")}
	out := s.clone()
	out.Cash -= amount
	out.Savings += amount
	out.refreshOverdrawn()
	return out, rec, nil
}

// Invest moves cash into a new allocation. Each investment creates its
// own allocation with the principal fixed at creation; topping up an
// existing allocation is not supported because it would break
// closed-form compounding.
func Invest(s Snapshot, id, category string, class LiquidityClass, rateBps int64, amount Paise) (Snapshot, OpRecord, error) {
	if amount < 0 {
		return s, OpRecord{}, fmt.Errorf("invest %d (%s): %w", amount, category, ErrInvalidAmount)
	}
	if _, exists := s.Allocation(id); exists {
		return s, OpRecord{}, fmt.Errorf("invest %s: %w", id, ErrDuplicateAlloc)
	}
	rec := OpRecord{Kind: OpInvest, Amount: amount, Category: category, AllocationID: id, Prior: capturePrior(s, id)}
	out := s.clone()
	out.Cash -= amount
	out.setAlloc(Allocation{
		ID:        id,
		Category:  category,
		Class:     class,
		RateBps:   rateBps,
		Principal: amount,
		Periods:   0,
		Value:     amount,
	})
	out.refreshOverdrawn()
	return out, rec, nil
}

// AddCover pays an insurance premium and raises the active cover.
// The premium is an expense; the cover is protection, not an asset.
func AddCover(s Snapshot, premium, cover Paise) (Snapshot, OpRecord, error) {
	if premium < 0 || cover < 0 {
		return s, OpRecord{}, fmt.Errorf("insure premium=%d cover=%d: %w", premium, cover, ErrInvalidAmount)
	}
	rec := OpRecord{Kind: OpInsure, Amount: premium, Cover: cover, Category: "insurance", Prior: capturePrior(s, "")}
	out := s.clone()
	out.Cash -= premium
	out.ExpenseTotal += premium
	out.InsuranceCover += cover
	out.refreshOverdrawn()
	return out, rec, nil
}

// TakeLoan credits cash with loan proceeds. Proceeds are booked as
// income so the balance equation stays closed; the outstanding amount
// is tracked separately for scoring.
func TakeLoan(s Snapshot, amount Paise) (Snapshot, OpRecord, error) {
	if amount < 0 {
		return s, OpRecord{}, fmt.Errorf("loan %d: %w", amount, ErrInvalidAmount)
	}
	rec := OpRecord{Kind: OpLoan, Amount: amount, Category: "loan", Prior: capturePrior(s, "")}
	out := s.clone()
	out.Cash += amount
	out.IncomeTotal += amount
	out.LoanOutstanding += amount
	out.refreshOverdrawn()
	return out, rec, nil
}

// ApplyImpact debits the mitigated damage of a realized risk event.
func ApplyImpact(s Snapshot, mitigated Paise, category string) (Snapshot, OpRecord, error) {
	if mitigated < 0 {
		return s, OpRecord{}, fmt.Errorf("impact %d (%s): %w", mitigated, category, ErrInvalidAmount)
	}
	rec := OpRecord{Kind: OpImpact, Amount: mitigated, Category: category, Prior: capturePrior(s, "")}
	out := s.clone()
	out.Cash -= mitigated
	out.ImpactTotal += mitigated
	out.refreshOverdrawn()
	return out, rec, nil
}

// Compound advances an allocation by periodsElapsed compounding
// periods. The new value is the closed form over the allocation's
// principal, so compounding one period at a time or all at once
// produces the identical value. Accrued interest is booked as income.
func Compound(s Snapshot, allocationID string, periodsElapsed int) (Snapshot, OpRecord, error) {
	if periodsElapsed < 0 {
		return s, OpRecord{}, fmt.Errorf("compound %s by %d: %w", allocationID, periodsElapsed, ErrInvalidAmount)
	}
	a, ok := s.Allocation(allocationID)
	if !ok {
		return s, OpRecord{}, fmt.Errorf("compound %s: %w", allocationID, ErrUnknownAllocation)
	}
	rec := OpRecord{Kind: OpCompound, Category: a.Category, AllocationID: allocationID, Prior: capturePrior(s, allocationID)}
	out := s.clone()
	a.Periods += periodsElapsed
	newValue := CompoundValue(a.Principal, a.RateBps, a.Periods)
	interest := newValue - a.Value
	a.Value = newValue
	out.setAlloc(a)
	out.IncomeTotal += interest
	rec.Amount = interest
	return out, rec, nil
}

// Reverse returns the snapshot exactly as it was before rec was
// applied. Every ledger operation records the prior value of each
// field it touches, so restoration is verbatim, not an approximate
// offset.
func Reverse(s Snapshot, rec OpRecord) (Snapshot, error) {
	out := s.clone()
	p := rec.Prior
	out.Cash = p.Cash
	out.Savings = p.Savings
	out.InsuranceCover = p.InsuranceCover
	out.LoanOutstanding = p.LoanOutstanding
	out.Overdrawn = p.Overdrawn
	out.IncomeTotal = p.IncomeTotal
	out.ExpenseTotal = p.ExpenseTotal
	out.ImpactTotal = p.ImpactTotal

	if rec.AllocationID != "" {
		if p.AllocExisted {
			out.setAlloc(p.Alloc)
		} else {
			out.removeAlloc(rec.AllocationID)
		}
	}

	if err := out.CheckInvariant(); err != nil {
		return s, fmt.Errorf("reverse %s: %w: %w", rec.Kind, ErrBadReverse, err)
	}
	return out, nil
}
