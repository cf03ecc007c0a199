package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("not really sqlite but stat passes"), 0o644))
	return p
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "legacy.db")

	yml := `
target: ` + filepath.Join(dir, "unified.db") + `
batch_size: 100
sources:
  - path: ` + src + `
    table: companies
    entity: company
    columns:
      name: company_name
      notes: research
spot_check:
  companies: ["Acme"]
`
	cfgPath := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(yml), 0o644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.BatchSize)
	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, "company", cfg.Sources[0].Entity)
	assert.Equal(t, "company_name", cfg.Sources[0].Columns["name"])
	assert.Equal(t, []string{"Acme"}, cfg.SpotCheck.Companies)

	cfg, res := NormalizeAndValidate(cfg)
	assert.True(t, res.OK(), "errors: %v", res.Errors)
	assert.NoError(t, res.Err())
}

func TestNormalizeAndValidate(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "a.db")

	base := Config{
		Target: filepath.Join(dir, "out.db"),
		Sources: []Source{{
			Path:   src,
			Table:  "jobs",
			Entity: "job",
			Columns: map[string]string{
				"company": "co", "title": "role",
			},
		}},
	}

	out, res := NormalizeAndValidate(base)
	assert.True(t, res.OK(), "errors: %v", res.Errors)
	assert.Equal(t, 500, out.BatchSize, "batch size defaults")

	t.Run("missing source path", func(t *testing.T) {
		cfg := base
		cfg.Sources = []Source{{Path: filepath.Join(dir, "missing.db"), Table: "t", Entity: "job",
			Columns: map[string]string{"title": "t"}}}
		_, res := NormalizeAndValidate(cfg)
		assert.False(t, res.OK())
	})

	t.Run("unknown entity", func(t *testing.T) {
		cfg := base
		cfg.Sources = []Source{{Path: src, Table: "t", Entity: "widget",
			Columns: map[string]string{"name": "n"}}}
		_, res := NormalizeAndValidate(cfg)
		assert.False(t, res.OK())
	})

	t.Run("unknown field", func(t *testing.T) {
		cfg := base
		cfg.Sources = []Source{{Path: src, Table: "t", Entity: "company",
			Columns: map[string]string{"favourite_color": "c"}}}
		_, res := NormalizeAndValidate(cfg)
		assert.False(t, res.OK())
	})

	t.Run("no sources", func(t *testing.T) {
		cfg := base
		cfg.Sources = nil
		_, res := NormalizeAndValidate(cfg)
		assert.False(t, res.OK())
		var cerr *ConfigurationError
		assert.ErrorAs(t, res.Err(), &cerr)
	})

	t.Run("target doubles as source", func(t *testing.T) {
		cfg := base
		cfg.Target = src
		_, res := NormalizeAndValidate(cfg)
		assert.False(t, res.OK())
	})

	t.Run("key fields on non-contact warns", func(t *testing.T) {
		cfg := base
		cfg.Sources = []Source{{Path: src, Table: "t", Entity: "job",
			Columns: map[string]string{"title": "t"}, KeyFields: []string{"email"}}}
		_, res := NormalizeAndValidate(cfg)
		assert.True(t, res.OK())
		assert.NotEmpty(t, res.Warnings)
	})
}
