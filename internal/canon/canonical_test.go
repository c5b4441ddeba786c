package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_Scalars(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string
	}{
		{"null", Null{}, "null"},
		{"string", "hello", `"hello"`},
		{"int", 42, "42"},
		{"negative int64", int64(-7), "-7"},
		{"true", true, "true"},
		{"false", Bool(false), "false"},
		{"typed int", Int(100), "100"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Marshal(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(got))
		})
	}
}

func TestMarshal_ObjectKeysSorted(t *testing.T) {
	got, err := Marshal(Object{
		"zebra": Int(1),
		"alpha": Int(2),
		"mango": Int(3),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"mango":3,"zebra":1}`, string(got))
}

func TestMarshal_NestedConvenienceTypes(t *testing.T) {
	got, err := Marshal(map[string]any{
		"items": []any{"a", 1, true},
		"inner": map[string]any{"k": "v"},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"inner":{"k":"v"},"items":["a",1,true]}`, string(got))
}

func TestMarshal_RejectsFloats(t *testing.T) {
	_, err := Marshal(3.14)
	assert.Error(t, err)

	_, err = Marshal(map[string]any{"rate": 0.5})
	assert.Error(t, err)
}

func TestMarshal_RejectsNil(t *testing.T) {
	_, err := Marshal(nil)
	assert.Error(t, err)

	_, err = Marshal(map[string]any{"v": nil})
	assert.Error(t, err)
}

func TestMarshal_NoHTMLEscaping(t *testing.T) {
	got, err := Marshal("a<b>&c")
	require.NoError(t, err)
	assert.Equal(t, `"a<b>&c"`, string(got))
}

func TestMarshal_StringEscaping(t *testing.T) {
	got, err := Marshal("line\nquote\"tab\tback\\")
	require.NoError(t, err)
	assert.Equal(t, `"line\nquote\"tab\tback\\"`, string(got))

	got, err = Marshal(string(rune(0x01)))
	require.NoError(t, err)
	assert.Equal(t, `"\u0001"`, string(got), "control characters get the \\u escape")
}

func TestMarshal_NFCNormalization(t *testing.T) {
	// "é" composed vs e + combining acute: both serialize to the
	// composed form, so the checksums agree.
	composed := "café"
	decomposed := "café"

	a, err := Marshal(composed)
	require.NoError(t, err)
	b, err := Marshal(decomposed)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestMustMarshal_PanicsOnFloat(t *testing.T) {
	assert.Panics(t, func() { MustMarshal(1.5) })
}

func TestStateChecksum_Deterministic(t *testing.T) {
	state := map[string]any{"cash": 500000, "period": 3}

	a, err := StateChecksum(state)
	require.NoError(t, err)
	b, err := StateChecksum(map[string]any{"period": 3, "cash": 500000})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestChecksum_DomainSeparation(t *testing.T) {
	v := map[string]any{"id": "x"}

	state, err := StateChecksum(v)
	require.NoError(t, err)
	action, err := ActionChecksum(v)
	require.NoError(t, err)

	assert.NotEqual(t, state, action, "same bytes, different domains")
}

func TestStateChecksum_SensitiveToValue(t *testing.T) {
	a, err := StateChecksum(map[string]any{"cash": 1})
	require.NoError(t, err)
	b, err := StateChecksum(map[string]any{"cash": 2})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
