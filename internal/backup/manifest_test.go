package backup

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadManifestJSON(t *testing.T) {
	p := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"total_records": 1234, "tables": {"jobs": 1000, "companies": 234}}`), 0o644))

	m, err := ReadManifest(p)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), m.TotalRecords)
	assert.Equal(t, int64(1000), m.Tables["jobs"])
}

func TestReadManifestTotalFromTables(t *testing.T) {
	p := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"tables": {"jobs": 10, "companies": 5}}`), 0o644))

	m, err := ReadManifest(p)
	require.NoError(t, err)
	assert.Equal(t, int64(15), m.TotalRecords)
}

func TestReadManifestZip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "backup.zip")
	f, err := os.Create(p)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("backup/manifest.json")
	require.NoError(t, err)
	_, err = w.Write([]byte(`{"total_records": 42}`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	m, err := ReadManifest(p)
	require.NoError(t, err)
	assert.Equal(t, int64(42), m.TotalRecords)
}

func TestReadManifestErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadManifest(filepath.Join(dir, "nope.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = ReadManifest(bad)
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.zip")
	f, err := os.Create(empty)
	require.NoError(t, err)
	require.NoError(t, zip.NewWriter(f).Close())
	require.NoError(t, f.Close())
	_, err = ReadManifest(empty)
	assert.Error(t, err)
}
