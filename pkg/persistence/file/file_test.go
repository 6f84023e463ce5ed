package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/codeready-toolchain/ganaudit/pkg/audit"
	"github.com/codeready-toolchain/ganaudit/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoad_RoundTrips(t *testing.T) {
	p, err := New(t.TempDir())
	require.NoError(t, err)

	state := session.State{
		ID:        "sess-1",
		Config:    audit.DefaultSessionConfig(),
		CreatedAt: time.Now().Truncate(time.Second),
		UpdatedAt: time.Now().Truncate(time.Second),
		History: []audit.HistoryEntry{
			{ThoughtNumber: 1, Review: audit.Review{Overall: 80}},
		},
	}

	require.NoError(t, p.Save(state))

	loaded, found, err := p.Load("sess-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, state.ID, loaded.ID)
	require.Len(t, loaded.History, 1)
	assert.Equal(t, float64(80), loaded.History[0].Review.Overall)
}

func TestLoad_MissingSessionReturnsNotFound(t *testing.T) {
	p, err := New(t.TempDir())
	require.NoError(t, err)

	_, found, err := p.Load("nope")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSave_OverwriteCreatesBackup(t *testing.T) {
	dir := t.TempDir()
	p, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, p.Save(session.State{ID: "sess-1"}))
	require.NoError(t, p.Save(session.State{ID: "sess-1", CurrentLoop: 1}))

	_, err = os.Stat(filepath.Join(dir, "sess-1.json.bak"))
	assert.NoError(t, err)
}

func TestDelete_RemovesFileAndBackup(t *testing.T) {
	dir := t.TempDir()
	p, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, p.Save(session.State{ID: "sess-1"}))
	require.NoError(t, p.Save(session.State{ID: "sess-1", CurrentLoop: 1}))
	require.NoError(t, p.Delete("sess-1"))

	_, found, err := p.Load("sess-1")
	require.NoError(t, err)
	assert.False(t, found)
	_, err = os.Stat(filepath.Join(dir, "sess-1.json.bak"))
	assert.True(t, os.IsNotExist(err))
}

func TestSanitizeID_StripsPathSeparators(t *testing.T) {
	assert.Equal(t, "a_b_c", sanitizeID("a/b\\c"))
}
