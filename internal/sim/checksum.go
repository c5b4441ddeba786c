package sim

import (
	"github.com/AdityaKumar3594/Kishan-Saathi/internal/canon"
)

// Checksum is the content-addressed identity of the simulation state.
// Two devices that replayed the same action log get the same value.
// The snapshot checksum already covers all financial state; the outer
// object pins the lifecycle fields the snapshot does not see.
func (s *Simulation) Checksum() (string, error) {
	return canon.StateChecksum(canon.Object{
		"id":        canon.String(s.ID),
		"seed":      canon.Int(s.Seed),
		"period":    canon.Int(int64(s.Period)),
		"processed": canon.Int(int64(s.Processed)),
		"status":    canon.String(string(s.Status)),
		"points":    canon.Int(int64(s.Points)),
		"decisions": canon.Int(int64(len(s.Decisions))),
		"events":    canon.Int(int64(len(s.Events))),
		"snapshot":  canon.String(s.Snap.Checksum()),
		"year_len":  canon.Int(int64(s.YearLength)),
	})
}
