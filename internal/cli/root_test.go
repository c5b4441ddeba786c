package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "saathi", cmd.Use)
	assert.Contains(t, cmd.Long, "financial year")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"start", "decide", "undo", "advance", "trigger", "status", "summary", "sync", "verify"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "saathi.yaml", configFlag.DefValue)
}

func TestStartCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	startCmd, _, err := cmd.Find([]string{"start"})
	require.NoError(t, err)

	for _, name := range []string{"owner", "crop", "region", "seed"} {
		assert.NotNil(t, startCmd.Flags().Lookup(name), "start should have --%s", name)
	}
}

func TestDecideCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	decideCmd, _, err := cmd.Find([]string{"decide"})
	require.NoError(t, err)

	amountFlag := decideCmd.Flags().Lookup("amount")
	require.NotNil(t, amountFlag)
	assert.Equal(t, "0", amountFlag.DefValue)
}

func TestAdvanceCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	advanceCmd, _, err := cmd.Find([]string{"advance"})
	require.NoError(t, err)

	periodsFlag := advanceCmd.Flags().Lookup("periods")
	require.NotNil(t, periodsFlag)
	assert.Equal(t, "1", periodsFlag.DefValue)
}

func TestInvalidFormatRejected(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "xml", "status", "sim-1"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
