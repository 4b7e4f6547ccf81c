package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidwell-group/tender-cli/internal/ingest"
)

func TestResponseFileArgs_WithContractorFlag(t *testing.T) {
	files, err := responseFileArgs([]string{"a.json", "b.json"}, "Buildco Ltd")
	require.NoError(t, err)
	assert.Equal(t, []ingest.ResponseFile{
		{Contractor: "Buildco Ltd", Path: "a.json"},
		{Contractor: "Buildco Ltd", Path: "b.json"},
	}, files)
}

func TestResponseFileArgs_Pairs(t *testing.T) {
	files, err := responseFileArgs([]string{"Buildco=drops/buildco.json", "Groundfix=drops/groundfix.json"}, "")
	require.NoError(t, err)
	assert.Equal(t, []ingest.ResponseFile{
		{Contractor: "Buildco", Path: "drops/buildco.json"},
		{Contractor: "Groundfix", Path: "drops/groundfix.json"},
	}, files)
}

func TestResponseFileArgs_BadPair(t *testing.T) {
	_, err := responseFileArgs([]string{"buildco.json"}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--contractor")

	_, err = responseFileArgs([]string{"=buildco.json"}, "")
	require.Error(t, err)

	_, err = responseFileArgs([]string{"Buildco="}, "")
	require.Error(t, err)
}
