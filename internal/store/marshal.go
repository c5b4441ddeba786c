package store

import (
	"encoding/json"
	"fmt"

	"github.com/AdityaKumar3594/Kishan-Saathi/internal/sim"
	"github.com/AdityaKumar3594/Kishan-Saathi/internal/syncq"
)

// marshalState serializes a simulation to JSON TEXT for the snapshot
// cache. Unmarshalling goes back into the typed struct, so integer
// amounts survive the round trip exactly.
func marshalState(s *sim.Simulation) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshal state: %w", err)
	}
	return string(data), nil
}

func unmarshalState(data string) (*sim.Simulation, error) {
	var s sim.Simulation
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return &s, nil
}

// marshalPayload serializes an action payload to JSON TEXT. The
// payload is a closed variant set with exactly one member populated,
// so omitempty keeps the stored form minimal.
func marshalPayload(p syncq.Payload) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return string(data), nil
}

func unmarshalPayload(data string) (syncq.Payload, error) {
	var p syncq.Payload
	if data == "" || data == "{}" {
		return p, nil
	}
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return syncq.Payload{}, fmt.Errorf("unmarshal payload: %w", err)
	}
	return p, nil
}

func marshalSummary(y *sim.YearSummary) (string, error) {
	data, err := json.Marshal(y)
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}
	return string(data), nil
}

func unmarshalSummary(data string) (*sim.YearSummary, error) {
	var y sim.YearSummary
	if err := json.Unmarshal([]byte(data), &y); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}
	return &y, nil
}
