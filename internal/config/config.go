// Package config holds the source registry: every legacy database,
// table, and column mapping the consolidation run walks. There are no
// ambient file-path globals; everything flows from one Config value.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Source describes one legacy table and how its rows map onto a
// canonical entity.
type Source struct {
	Path   string `yaml:"path"`
	Table  string `yaml:"table"`
	Entity string `yaml:"entity"` // company/job/application/contact/email/metric/profile

	// Columns maps canonical field -> source column name.
	Columns map[string]string `yaml:"columns"`

	// Defaults fills canonical fields that have no source column.
	Defaults map[string]string `yaml:"defaults"`

	// KeyFields optionally restricts which natural-key fields form the
	// dedup key (contacts: "email", "name").
	KeyFields []string `yaml:"dedup_key_fields"`
}

// SpotCheck lists known-good entities the validator samples for.
type SpotCheck struct {
	Companies []string `yaml:"companies"`
	Jobs      []string `yaml:"jobs"`
}

type Config struct {
	Target         string   `yaml:"target"`
	BatchSize      int      `yaml:"batch_size"`
	Sources        []Source `yaml:"sources"`
	SpotCheck      SpotCheck `yaml:"spot_check"`
	BackupManifest string   `yaml:"backup_manifest"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}
