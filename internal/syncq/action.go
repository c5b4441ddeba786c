// Package syncq records every local simulation mutation as an
// ordered, idempotent sync action, drains the backlog to a server
// transport when connectivity allows, and deterministically resolves
// conflicts between local and server state.
//
// Gameplay never waits on this package: actions are enqueued
// synchronously and shipped by a background drain loop. Offline play
// just grows the backlog.
package syncq

import (
	"strings"

	"github.com/AdityaKumar3594/Kishan-Saathi/internal/canon"
	"github.com/AdityaKumar3594/Kishan-Saathi/internal/decision"
	"github.com/AdityaKumar3594/Kishan-Saathi/internal/money"
)

// Kind tags the mutation an action records.
type Kind string

const (
	KindStart    Kind = "start"
	KindDecision Kind = "decision"
	KindAdvance  Kind = "advance"
	KindUndo     Kind = "undo"
	KindTrigger  Kind = "trigger"
	KindComplete Kind = "complete"
)

// Status is the sync lifecycle of one action.
type Status string

const (
	StatusPending Status = "pending"
	StatusSyncing Status = "syncing"
	StatusFailed  Status = "failed"
	StatusApplied Status = "applied"
)

// Priority orders draining. Higher drains first.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	default:
		return "low"
	}
}

// Payload is the closed variant set of action bodies. Exactly one
// member is non-nil, matching the action's Kind.
type Payload struct {
	Start    *StartPayload    `json:"start,omitempty"`
	Decision *DecisionPayload `json:"decision,omitempty"`
	Advance  *AdvancePayload  `json:"advance,omitempty"`
	Undo     *UndoPayload     `json:"undo,omitempty"`
	Trigger  *TriggerPayload  `json:"trigger,omitempty"`
	Complete *CompletePayload `json:"complete,omitempty"`
}

// StartPayload records a startNewYear mutation.
type StartPayload struct {
	OwnerID    string `json:"owner_id"`
	Crop       string `json:"crop"`
	Region     string `json:"region"`
	YearLength int    `json:"year_length"`
	Seed       int64  `json:"seed"`
}

// DecisionPayload records an applied financial decision, flattened
// from the decision variants.
type DecisionPayload struct {
	DecisionID string        `json:"decision_id"`
	Kind       decision.Kind `json:"kind"`
	Amount     money.Paise   `json:"amount"`
	Category   string        `json:"category"`
	Cover      money.Paise   `json:"cover,omitempty"`
	ClientTS   int64         `json:"client_ts"` // when the farmer decided
}

// AdvancePayload records a time advance.
type AdvancePayload struct {
	Periods int `json:"periods"`
}

// UndoPayload records a same-period undo of a decision.
type UndoPayload struct {
	DecisionID string `json:"decision_id"`
}

// TriggerPayload records an explicit out-of-schedule event trigger.
type TriggerPayload struct{}

// CompletePayload records year completion.
type CompletePayload struct{}

// Action is one serializable mutation record. Created the moment a
// mutation applies locally; archived once the server acknowledges it.
type Action struct {
	ID       string   `json:"id"` // UUIDv7: unique and time-sortable
	SimID    string   `json:"sim_id"`
	Seq      int64    `json:"seq"` // per-simulation monotonic sequence
	Kind     Kind     `json:"kind"`
	Payload  Payload  `json:"payload"`
	ClientTS int64    `json:"client_ts"` // unix milliseconds
	Priority Priority `json:"priority"`
	Status   Status   `json:"status"`
	Attempts int      `json:"attempts"`

	// StateChecksum is the simulation checksum after the mutation,
	// used to verify replays reproduced the same state.
	StateChecksum string `json:"state_checksum"`
}

// Before is the queue's total order: client timestamp, ties broken by
// action id. Stable and total, so both sides serialize identically.
func (a Action) Before(b Action) bool {
	if a.ClientTS != b.ClientTS {
		return a.ClientTS < b.ClientTS
	}
	return a.ID < b.ID
}

// PayloadChecksum is the content-addressed identity of the action
// body. Identical payloads hash identically on every device.
func (a Action) PayloadChecksum() (string, error) {
	obj := canon.Object{
		"sim_id":    canon.String(a.SimID),
		"seq":       canon.Int(a.Seq),
		"kind":      canon.String(string(a.Kind)),
		"client_ts": canon.Int(a.ClientTS),
	}
	switch {
	case a.Payload.Start != nil:
		p := a.Payload.Start
		obj["start"] = canon.Object{
			"owner_id":    canon.String(p.OwnerID),
			"crop":        canon.String(p.Crop),
			"region":      canon.String(p.Region),
			"year_length": canon.Int(int64(p.YearLength)),
			"seed":        canon.Int(p.Seed),
		}
	case a.Payload.Decision != nil:
		p := a.Payload.Decision
		obj["decision"] = canon.Object{
			"decision_id": canon.String(p.DecisionID),
			"kind":        canon.String(string(p.Kind)),
			"amount":      canon.Int(int64(p.Amount)),
			"category":    canon.String(p.Category),
			"cover":       canon.Int(int64(p.Cover)),
			"client_ts":   canon.Int(p.ClientTS),
		}
	case a.Payload.Advance != nil:
		obj["advance"] = canon.Object{"periods": canon.Int(int64(a.Payload.Advance.Periods))}
	case a.Payload.Undo != nil:
		obj["undo"] = canon.Object{"decision_id": canon.String(a.Payload.Undo.DecisionID)}
	case a.Payload.Trigger != nil:
		obj["trigger"] = canon.Object{}
	case a.Payload.Complete != nil:
		obj["complete"] = canon.Object{}
	}
	return canon.ActionChecksum(obj)
}

// FieldClass buckets a field path for conflict policy.
type FieldClass string

const (
	// FieldFinancial covers simulation financial state: generated by
	// deterministic, already-validated gameplay, so the local copy is
	// authoritative.
	FieldFinancial FieldClass = "financial"
	// FieldLeaderboard covers cross-user aggregates where the server
	// is the single source of truth.
	FieldLeaderboard FieldClass = "leaderboard"
)

// Classify maps a field path to its conflict class. Total: every path
// falls in exactly one class.
func Classify(path string) FieldClass {
	if strings.HasPrefix(path, "leaderboard.") || strings.HasPrefix(path, "rank.") {
		return FieldLeaderboard
	}
	return FieldFinancial
}
