package syncq

import (
	"sort"

	"github.com/AdityaKumar3594/Kishan-Saathi/internal/canon"
)

// FieldChange is one side's value for a logical field path, with the
// timestamp of the change. Values are canonical JSON so comparison and
// hashing are byte-stable.
type FieldChange struct {
	Path  string `json:"path"`
	Value string `json:"value"` // canonical JSON
	TS    int64  `json:"ts"`    // unix milliseconds
}

// Policy names the resolution rule applied to a conflict.
type Policy string

const (
	PolicyLocalWins  Policy = "local_wins"
	PolicyServerWins Policy = "server_wins"
)

// ConflictRecord captures a divergence between local and server for
// one field. Produced only when both sides changed the field since
// the last common ancestor; retained for audit for a bounded window
// after resolution.
type ConflictRecord struct {
	ID        string      `json:"id"` // content-addressed: same inputs, same id
	SimID     string      `json:"sim_id"`
	Path      string      `json:"path"`
	Local     FieldChange `json:"local"`
	Server    FieldChange `json:"server"`
	Policy    Policy      `json:"policy"`
	Resolved  string      `json:"resolved"` // the value chosen
	CreatedAt int64       `json:"created_at"`
}

// policyFor is total over field classes: every conflict resolves to
// exactly one value.
func policyFor(path string) Policy {
	switch Classify(path) {
	case FieldLeaderboard:
		// Cross-user aggregates: the server is the source of truth.
		return PolicyServerWins
	default:
		// Financial state came from deterministic, already-validated
		// gameplay: the local copy is authoritative.
		return PolicyLocalWins
	}
}

// Resolution is the merged outcome of reconciling one simulation's
// fields.
type Resolution struct {
	Merged    map[string]string // path → resolved canonical value
	Conflicts []ConflictRecord
}

// Reconcile merges local and server field changes against their last
// common ancestor timestamp.
//
// A field changed on only one side since the ancestor merges cleanly.
// A field changed on both sides produces a ConflictRecord resolved by
// the field-class policy. The function is deterministic: the same two
// inputs always produce the same resolution, including conflict
// record ids.
func Reconcile(simID string, local, server []FieldChange, ancestorTS, now int64) (Resolution, error) {
	res := Resolution{Merged: make(map[string]string)}

	localByPath := make(map[string]FieldChange, len(local))
	for _, fc := range local {
		localByPath[fc.Path] = fc
	}
	serverByPath := make(map[string]FieldChange, len(server))
	for _, fc := range server {
		serverByPath[fc.Path] = fc
	}

	// Deterministic iteration: sorted union of paths.
	paths := make([]string, 0, len(localByPath)+len(serverByPath))
	seen := make(map[string]bool)
	for p := range localByPath {
		paths = append(paths, p)
		seen[p] = true
	}
	for p := range serverByPath {
		if !seen[p] {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	for _, path := range paths {
		l, hasLocal := localByPath[path]
		s, hasServer := serverByPath[path]

		localChanged := hasLocal && l.TS > ancestorTS
		serverChanged := hasServer && s.TS > ancestorTS

		switch {
		case localChanged && serverChanged && l.Value != s.Value:
			rec, err := newConflict(simID, path, l, s, now)
			if err != nil {
				return Resolution{}, err
			}
			res.Merged[path] = rec.Resolved
			res.Conflicts = append(res.Conflicts, rec)
		case localChanged:
			res.Merged[path] = l.Value
		case serverChanged:
			res.Merged[path] = s.Value
		case hasLocal:
			res.Merged[path] = l.Value
		case hasServer:
			res.Merged[path] = s.Value
		}
	}
	return res, nil
}

func newConflict(simID, path string, local, server FieldChange, now int64) (ConflictRecord, error) {
	policy := policyFor(path)
	resolved := local.Value
	if policy == PolicyServerWins {
		resolved = server.Value
	}

	id, err := canon.ActionChecksum(canon.Object{
		"sim_id":    canon.String(simID),
		"path":      canon.String(path),
		"local":     canon.String(local.Value),
		"local_ts":  canon.Int(local.TS),
		"server":    canon.String(server.Value),
		"server_ts": canon.Int(server.TS),
	})
	if err != nil {
		return ConflictRecord{}, err
	}

	return ConflictRecord{
		ID:        id,
		SimID:     simID,
		Path:      path,
		Local:     local,
		Server:    server,
		Policy:    policy,
		Resolved:  resolved,
		CreatedAt: now,
	}, nil
}
