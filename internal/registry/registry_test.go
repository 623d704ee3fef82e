package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterIsSortedAndIdempotent(t *testing.T) {
	reg := NewJSONFile(filepath.Join(t.TempDir(), "clients.json"))

	require.NoError(t, reg.Register("TOTALENERGIES"))
	require.NoError(t, reg.Register("AIR LIQUIDE"))
	require.NoError(t, reg.Register("TOTALENERGIES"))

	clients, err := reg.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"AIR_LIQUIDE", "TOTALENERGIES"}, clients)
}

func TestRegisterNormalizesNames(t *testing.T) {
	reg := NewJSONFile(filepath.Join(t.TempDir(), "clients.json"))

	require.NoError(t, reg.Register("S.N.C.F"))
	require.NoError(t, reg.Register("S_N_C_F"))

	clients, err := reg.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"S_N_C_F"}, clients)
}

func TestListMissingFileIsEmpty(t *testing.T) {
	reg := NewJSONFile(filepath.Join(t.TempDir(), "clients.json"))

	clients, err := reg.List()
	require.NoError(t, err)
	assert.Empty(t, clients)
}

func TestRegisterWritesDocumentShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clients.json")
	reg := NewJSONFile(path)
	require.NoError(t, reg.Register("VINCI"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"clients": ["VINCI"]}`, string(data))
}
