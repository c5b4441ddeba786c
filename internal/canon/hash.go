package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity. The version suffix
// allows a future algorithm migration without ambiguity.
const (
	DomainState  = "saathi/state/v1"
	DomainAction = "saathi/action/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// StateChecksum computes the content-addressed checksum of a state
// value. The value must already be in canonical-marshalable form.
//
// Decision records carry the checksum of the state they were applied
// to; undo verifies the restored state reproduces it exactly.
func StateChecksum(v any) (string, error) {
	b, err := Marshal(v)
	if err != nil {
		return "", fmt.Errorf("state checksum: %w", err)
	}
	return hashWithDomain(DomainState, b), nil
}

// ActionChecksum computes the content-addressed identity of a sync
// action payload. Same payload always hashes to the same value, which
// is what makes duplicate detection on replay cheap.
func ActionChecksum(v any) (string, error) {
	b, err := Marshal(v)
	if err != nil {
		return "", fmt.Errorf("action checksum: %w", err)
	}
	return hashWithDomain(DomainAction, b), nil
}

// MustStateChecksum is StateChecksum but panics on error. Use when the
// value shape is fixed at compile time.
func MustStateChecksum(v any) string {
	sum, err := StateChecksum(v)
	if err != nil {
		panic(err)
	}
	return sum
}
