package hubspot

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed mappings/identify.yaml
var defaultIdentifyMapping []byte

type MappingRule struct {
	Source      string `yaml:"source"`
	Destination string `yaml:"destination"`
}

// MappingTable is the static trait-to-property mapping. Rules apply in
// order; it is never modified after loading.
type MappingTable struct {
	Rules []MappingRule `yaml:"rules"`
}

// NewMappingTable builds a table from a source->destination map, ordering
// rules by source path.
func NewMappingTable(m map[string]string) *MappingTable {
	sources := make([]string, 0, len(m))
	for src := range m {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	t := &MappingTable{Rules: make([]MappingRule, 0, len(m))}
	for _, src := range sources {
		t.Rules = append(t.Rules, MappingRule{Source: src, Destination: m[src]})
	}
	return t
}

func DefaultMappingTable() *MappingTable {
	t, err := ParseMappingTable(defaultIdentifyMapping)
	if err != nil {
		panic(fmt.Sprintf("embedded identify mapping: %v", err))
	}
	return t
}

// LoadMappingTable reads a table from a YAML file. An empty path yields the
// built-in identify mapping.
func LoadMappingTable(path string) (*MappingTable, error) {
	if path == "" {
		return DefaultMappingTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping file: %w", err)
	}
	return ParseMappingTable(data)
}

func ParseMappingTable(data []byte) (*MappingTable, error) {
	var t MappingTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse mapping table: %w", err)
	}
	for i, r := range t.Rules {
		if strings.TrimSpace(r.Source) == "" || strings.TrimSpace(r.Destination) == "" {
			return nil, fmt.Errorf("mapping rule %d: source and destination are required", i)
		}
	}
	return &t, nil
}
