package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, maxAge time.Duration) *Store {
	t.Helper()
	store, err := New(t.TempDir(), maxAge, zerolog.Nop())
	require.NoError(t, err)
	return store
}

func TestNew_CreatesRoot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")

	_, err := New(dir, time.Hour, zerolog.Nop())

	require.NoError(t, err)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewSession_IDFormat(t *testing.T) {
	store := newTestStore(t, time.Hour)

	id, dir, err := store.NewSession()

	require.NoError(t, err)
	assert.True(t, ValidSessionID(id), "id %q should be 12 lowercase hex chars", id)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewSession_UniqueIDs(t *testing.T) {
	store := newTestStore(t, time.Hour)
	seen := make(map[string]bool)

	for i := 0; i < 20; i++ {
		id, _, err := store.NewSession()
		require.NoError(t, err)
		assert.False(t, seen[id], "duplicate session ID %q", id)
		seen[id] = true
	}
}

func TestValidSessionID(t *testing.T) {
	assert.True(t, ValidSessionID("abc123def456"))
	assert.False(t, ValidSessionID("abc123def45"))   // too short
	assert.False(t, ValidSessionID("abc123def4567")) // too long
	assert.False(t, ValidSessionID("ABC123DEF456"))  // uppercase
	assert.False(t, ValidSessionID("../etc/passwd"))
	assert.False(t, ValidSessionID(""))
}

func TestArtifactPath_ResolvesExistingFile(t *testing.T) {
	store := newTestStore(t, time.Hour)
	id, dir, err := store.NewSession()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "grading_report.csv"), []byte("data"), 0o644))

	p, err := store.ArtifactPath(id, "grading_report.csv")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "grading_report.csv"), p)
}

func TestArtifactPath_RejectsBadID(t *testing.T) {
	store := newTestStore(t, time.Hour)

	_, err := store.ArtifactPath("../../secret", "grading_report.csv")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid session ID")
}

func TestArtifactPath_StripsTraversalFromName(t *testing.T) {
	store := newTestStore(t, time.Hour)
	id, dir, err := store.NewSession()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "passwd"), []byte("x"), 0o644))

	p, err := store.ArtifactPath(id, "../../passwd")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "passwd"), p, "name must resolve inside the session directory")
}

func TestArtifactPath_MissingFile(t *testing.T) {
	store := newTestStore(t, time.Hour)
	id, _, err := store.NewSession()
	require.NoError(t, err)

	_, err = store.ArtifactPath(id, "grading_report.csv")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "artifact not found")
}

func TestSweep_RemovesOnlyExpiredSessions(t *testing.T) {
	store := newTestStore(t, time.Hour)

	oldID, oldDir, err := store.NewSession()
	require.NoError(t, err)
	freshID, freshDir, err := store.NewSession()
	require.NoError(t, err)

	stale := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(oldDir, stale, stale))

	store.Sweep()

	_, err = os.Stat(oldDir)
	assert.True(t, os.IsNotExist(err), "expired session %s should be removed", oldID)
	_, err = os.Stat(freshDir)
	assert.NoError(t, err, "fresh session %s should survive", freshID)
}

func TestSweep_IgnoresLooseFiles(t *testing.T) {
	store := newTestStore(t, time.Hour)
	loose := filepath.Join(store.root, "note.txt")
	require.NoError(t, os.WriteFile(loose, []byte("keep"), 0o644))
	stale := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(loose, stale, stale))

	store.Sweep()

	_, err := os.Stat(loose)
	assert.NoError(t, err)
}
