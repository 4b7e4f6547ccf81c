package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"project", "ingest", "suggest", "match", "matches", "assess", "report", "intake", "serve"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q to be registered", name)
	}
}

func TestMatchCommand_HasSettlementSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range matchCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"manual", "accept", "reject"} {
		assert.True(t, names[name], "expected match subcommand %q", name)
	}
}

func TestCommandFlags_Registered(t *testing.T) {
	require.NotNil(t, ingestCmd.PersistentFlags().Lookup("project"))
	require.NotNil(t, matchesCmd.Flags().Lookup("status"))
	require.NotNil(t, reportCmd.Flags().Lookup("publish"))
	require.NotNil(t, intakeCmd.Flags().Lookup("all"))
	require.NotNil(t, serveCmd.Flags().Lookup("port"))
}
