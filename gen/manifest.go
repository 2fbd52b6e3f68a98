package gen

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the YAML description of the tables to generate definitions
// for. The generated code depends only on the schema package; the manifest
// is never needed at runtime.
type Manifest struct {
	// Package is the Go package name of the generated files.
	Package string      `yaml:"package"`
	Tables  []TableSpec `yaml:"tables"`
}

// TableSpec describes one table.
type TableSpec struct {
	Name    string       `yaml:"name"`
	Schema  string       `yaml:"schema"`
	Alias   string       `yaml:"alias"`
	Columns []ColumnSpec `yaml:"columns"`
}

// ColumnSpec describes one column.
type ColumnSpec struct {
	Name string `yaml:"name"`
	// Type is one of: bool, int, int64, float64, string, bytes, time, uuid.
	Type       string   `yaml:"type"`
	Primary    bool     `yaml:"primary"`
	Auto       bool     `yaml:"auto"`
	Nullable   bool     `yaml:"nullable"`
	DefaultRaw string   `yaml:"default"`
	Bind       []string `yaml:"bind"`
	// References names another table in the manifest; the column becomes a
	// foreign key onto its primary key.
	References string `yaml:"references"`
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gen: reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("gen: parsing manifest %s: %w", path, err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	if m.Package == "" {
		return fmt.Errorf("gen: manifest: package is required")
	}
	if len(m.Tables) == 0 {
		return fmt.Errorf("gen: manifest: at least one table is required")
	}
	names := make(map[string]bool, len(m.Tables))
	for _, t := range m.Tables {
		if t.Name == "" {
			return fmt.Errorf("gen: manifest: table with no name")
		}
		if names[t.Name] {
			return fmt.Errorf("gen: manifest: duplicate table %q", t.Name)
		}
		names[t.Name] = true
		if len(t.Columns) == 0 {
			return fmt.Errorf("gen: manifest: table %q has no columns", t.Name)
		}
		cols := make(map[string]bool, len(t.Columns))
		for _, c := range t.Columns {
			if c.Name == "" {
				return fmt.Errorf("gen: manifest: table %q has a column with no name", t.Name)
			}
			if cols[c.Name] {
				return fmt.Errorf("gen: manifest: table %q has a duplicate column %q", t.Name, c.Name)
			}
			cols[c.Name] = true
			if _, ok := constructors[c.Type]; !ok {
				return fmt.Errorf("gen: manifest: column %s.%s has unknown type %q", t.Name, c.Name, c.Type)
			}
		}
	}
	for _, t := range m.Tables {
		for _, c := range t.Columns {
			if c.References != "" && !names[c.References] {
				return fmt.Errorf("gen: manifest: column %s.%s references unknown table %q", t.Name, c.Name, c.References)
			}
		}
	}
	return nil
}
