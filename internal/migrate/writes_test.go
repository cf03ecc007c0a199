package migrate

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobhunt-consolidate/internal/config"
	"jobhunt-consolidate/internal/store"
)

func TestAbsorbedDistinguishesMissingFromBroken(t *testing.T) {
	d, err := store.Open(filepath.Join(t.TempDir(), "unified.db"))
	require.NoError(t, err)
	defer d.Close()
	require.NoError(t, store.Migrate(d.Pool))

	tx, err := d.Pool.Begin()
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	src := config.Source{Path: "legacy/tracker.db", Table: "companies", Entity: "company"}

	done, err := absorbed(tx, "company", src, 7)
	require.NoError(t, err)
	assert.False(t, done, "a never-seen row is not absorbed")

	require.NoError(t, recordProvenance(tx, "company", 1, src, 7))

	done, err = absorbed(tx, "company", src, 7)
	require.NoError(t, err)
	assert.True(t, done, "a recorded row is absorbed")

	done, err = absorbed(tx, "company", src, 8)
	require.NoError(t, err)
	assert.False(t, done, "a different rowid from the same source is not")

	// A broken provenance lookup must surface as an error, never as
	// "not absorbed": that would re-process the row.
	_, err = tx.Exec(`DROP TABLE provenance;`)
	require.NoError(t, err)

	_, err = absorbed(tx, "company", src, 7)
	assert.Error(t, err)
}
