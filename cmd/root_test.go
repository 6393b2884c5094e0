package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{"match", "commit", "runs", "report", "import", "exchange", "serve"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "backoffice", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.True(t, rootCmd.SilenceUsage)
}

func TestMatchCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"since", "sales", "purchases", "dry-run", "push-review", "json"} {
		flag := matchCmd.Flags().Lookup(flagName)
		assert.NotNil(t, flag, "match should have --%s flag", flagName)
	}
	assert.Equal(t, "720h0m0s", matchCmd.Flags().Lookup("since").DefValue)
}

func TestCommitCommand_Flags(t *testing.T) {
	flag := commitCmd.Flags().Lookup("by")
	require.NotNil(t, flag, "commit should have --by flag")
	assert.Equal(t, "cli", flag.DefValue)

	require.NotNil(t, commitCmd.Flags().Lookup("all"), "commit should have --all flag")
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestRunsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range runsCmd.Commands() {
		names[c.Name()] = true
	}

	assert.True(t, names["list"], "runs should have subcommand list")
	assert.True(t, names["show"], "runs should have subcommand show")
}

func TestReportCommand_Flags(t *testing.T) {
	flag := reportCmd.Flags().Lookup("locale")
	require.NotNil(t, flag, "report should have --locale flag")
	assert.Equal(t, "en", flag.DefValue)
}
