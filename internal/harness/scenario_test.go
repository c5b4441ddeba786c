package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_Valid(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "frugal_wheat_year.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "frugal_wheat_year", s.Name)
	assert.Equal(t, "wheat", s.Config.Crop)
	assert.Len(t, s.Steps, 7)
	assert.Len(t, s.Assertions, 4)

	rejected := s.Steps[3]
	require.NotNil(t, rejected.Expect)
	assert.Equal(t, "rejected", rejected.Expect.Outcome)
	assert.Equal(t, "INSUFFICIENT_FUNDS", rejected.Expect.Code)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join("testdata", "scenarios", "nope.yaml"))
	assert.Error(t, err)
}

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadScenario_RejectsUnknownFields(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "assertion instead of assertions"
config: {owner: f, crop: wheat}
steps:
  - op: advance
assertion:
  - type: trace_count
    op: advance
    count: 1
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse scenario")
}

func TestLoadScenario_Validation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "missing name",
			body: `
description: "d"
config: {owner: f, crop: wheat}
steps: [{op: advance}]
assertions: [{type: trace_count, op: advance, count: 1}]
`,
			want: "name is required",
		},
		{
			name: "no steps",
			body: `
name: s
description: "d"
config: {owner: f, crop: wheat}
steps: []
assertions: [{type: trace_count, op: advance, count: 1}]
`,
			want: "steps list is required",
		},
		{
			name: "unknown op",
			body: `
name: s
description: "d"
config: {owner: f, crop: wheat}
steps: [{op: teleport}]
assertions: [{type: trace_count, op: advance, count: 1}]
`,
			want: `unknown op "teleport"`,
		},
		{
			name: "decide without kind",
			body: `
name: s
description: "d"
config: {owner: f, crop: wheat}
steps: [{op: decide, amount: 100}]
assertions: [{type: trace_count, op: decide, count: 1}]
`,
			want: "decide needs a decision kind",
		},
		{
			name: "bad expect outcome",
			body: `
name: s
description: "d"
config: {owner: f, crop: wheat}
steps: [{op: advance, expect: {outcome: maybe}}]
assertions: [{type: trace_count, op: advance, count: 1}]
`,
			want: "expect.outcome must be ok or rejected",
		},
		{
			name: "unknown assertion type",
			body: `
name: s
description: "d"
config: {owner: f, crop: wheat}
steps: [{op: advance}]
assertions: [{type: trace_magic, op: advance}]
`,
			want: `unknown assertion type "trace_magic"`,
		},
		{
			name: "unsupported final_state key",
			body: `
name: s
description: "d"
config: {owner: f, crop: wheat}
steps: [{op: advance}]
assertions: [{type: final_state, expect: {mood: great}}]
`,
			want: `final_state key "mood" is not supported`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tc.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
