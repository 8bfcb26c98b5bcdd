package hubspot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMappingTable(t *testing.T) {
	table := DefaultMappingTable()
	require.NotEmpty(t, table.Rules)
	assert.Equal(t, MappingRule{Source: "email", Destination: "email"}, table.Rules[0])

	dests := map[string]string{}
	for _, r := range table.Rules {
		dests[r.Source] = r.Destination
	}
	assert.Equal(t, "firstname", dests["firstName"])
	assert.Equal(t, "zip", dests["address.postalCode"])
}

func TestNewMappingTable_SortsBySource(t *testing.T) {
	table := NewMappingTable(map[string]string{"b": "B", "a": "A", "c.d": "CD"})
	assert.Equal(t, []MappingRule{
		{Source: "a", Destination: "A"},
		{Source: "b", Destination: "B"},
		{Source: "c.d", Destination: "CD"},
	}, table.Rules)
}

func TestLoadMappingTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - source: traits.company\n    destination: company\n"), 0o600))

	table, err := LoadMappingTable(path)
	require.NoError(t, err)
	assert.Equal(t, []MappingRule{{Source: "traits.company", Destination: "company"}}, table.Rules)

	table, err = LoadMappingTable("")
	require.NoError(t, err)
	assert.Equal(t, DefaultMappingTable(), table)

	_, err = LoadMappingTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseMappingTable_Invalid(t *testing.T) {
	_, err := ParseMappingTable([]byte("rules:\n  - source: email\n"))
	assert.Error(t, err)

	_, err = ParseMappingTable([]byte("rules: [: bad"))
	assert.Error(t, err)
}
