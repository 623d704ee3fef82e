package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocklens/stocklens/internal/pipeline"
	"github.com/stocklens/stocklens/internal/registry"
)

func TestParseRoster(t *testing.T) {
	roster, err := parseRoster("TOTALENERGIES:1, VINCI : 2 ,")
	require.NoError(t, err)
	assert.Equal(t, []pipeline.Client{
		{ID: 1, Name: "TOTALENERGIES"},
		{ID: 2, Name: "VINCI"},
	}, roster)
}

func TestParseRosterEmpty(t *testing.T) {
	roster, err := parseRoster("")
	require.NoError(t, err)
	assert.Empty(t, roster)
}

func TestParseRosterMalformed(t *testing.T) {
	_, err := parseRoster("TOTALENERGIES")
	assert.Error(t, err)

	_, err = parseRoster("VINCI:abc")
	assert.Error(t, err)
}

func TestSelectClientsByName(t *testing.T) {
	roster := []pipeline.Client{{ID: 1, Name: "AIR LIQUIDE"}, {ID: 2, Name: "VINCI"}}

	clients, err := selectClients(roster, nil, false, "air_liquide")
	require.NoError(t, err)
	assert.Equal(t, []pipeline.Client{{ID: 1, Name: "AIR LIQUIDE"}}, clients)

	_, err = selectClients(roster, nil, false, "EIFFAGE")
	assert.Error(t, err)
}

func TestSelectClientsAllUsesRegistry(t *testing.T) {
	roster := []pipeline.Client{{ID: 1, Name: "AIR LIQUIDE"}, {ID: 2, Name: "VINCI"}}
	reg := registry.NewJSONFile(filepath.Join(t.TempDir(), "clients.json"))
	require.NoError(t, reg.Register("VINCI"))

	clients, err := selectClients(roster, reg, true, "")
	require.NoError(t, err)
	assert.Equal(t, []pipeline.Client{{ID: 2, Name: "VINCI"}}, clients)
}

func TestSelectClientsAllEmptyRegistryFallsBackToRoster(t *testing.T) {
	roster := []pipeline.Client{{ID: 1, Name: "AIR LIQUIDE"}}
	reg := registry.NewJSONFile(filepath.Join(t.TempDir(), "clients.json"))

	clients, err := selectClients(roster, reg, true, "")
	require.NoError(t, err)
	assert.Equal(t, roster, clients)
}
