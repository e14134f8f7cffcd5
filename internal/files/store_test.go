package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetpulse/internal/config"
	"sheetpulse/internal/shared/testutil"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	dir := filepath.Join(t.TempDir(), "exports")
	return NewStore(&config.Paths{ExportsDir: dir}, logger)
}

func TestWriteExport(t *testing.T) {
	s := newTestStore(t)

	path, err := s.WriteExport("Demand_filtered_data.csv", []byte("a,b\n1,2\n"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(s.Dir(), "Demand_filtered_data.csv"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))

	// Overwrite replaces the content and leaves no temporary files behind.
	_, err = s.WriteExport("Demand_filtered_data.csv", []byte("x\n"))
	require.NoError(t, err)
	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteExportRejectsPaths(t *testing.T) {
	s := newTestStore(t)

	for _, name := range []string{"../escape.csv", "sub/dir.csv", ".hidden", ""} {
		t.Run(name, func(t *testing.T) {
			_, err := s.WriteExport(name, []byte("x"))
			assert.Error(t, err)
		})
	}
}

func TestList(t *testing.T) {
	s := newTestStore(t)

	files, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, files, "missing directory lists as empty")

	older, err := s.WriteExport("older.csv", []byte("1"))
	require.NoError(t, err)
	_, err = s.WriteExport("newer.json", []byte("[]"))
	require.NoError(t, err)
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, past, past))

	files, err = s.List()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "newer.json", files[0].Name)
	assert.Equal(t, "older.csv", files[1].Name)
	assert.Equal(t, int64(1), files[1].Size)
}
