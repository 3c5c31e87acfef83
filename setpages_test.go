package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListUUIDDirsSkipsNonUUIDEntries(t *testing.T) {
	dir := t.TempDir()
	id := uuid.NewString()
	require.NoError(t, os.Mkdir(filepath.Join(dir, id), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "not-a-uuid"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0o644))

	got, err := listUUIDDirs(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, got)
}

func TestListUUIDDirsMissingDirIsNotAnError(t *testing.T) {
	got, err := listUUIDDirs(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSingleSubdirReturnsFirstDirectoryEntry(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "content"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Song.abl"), []byte("x"), 0o644))
	assert.Equal(t, "content", singleSubdir(dir))
}

func TestSingleSubdirEmptyWhenNoDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Song.abl"), []byte("x"), 0o644))
	assert.Equal(t, "", singleSubdir(dir))
}

func TestWriteCurrentPageFileRoundTrips(t *testing.T) {
	dir := t.TempDir()
	writeCurrentPageFile(dir, 5)
	got, err := os.ReadFile(filepath.Join(dir, "current_page.txt"))
	require.NoError(t, err)
	assert.Equal(t, "5", string(got))
}

func TestForceCurrentSongIndexZeroRewritesExistingField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"currentSongIndex":7,"other":1}`), 0o644))
	forceCurrentSongIndexZero(path)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(0), jsonIntField(string(got), "currentSongIndex"))
	assert.Equal(t, int64(1), jsonIntField(string(got), "other"))
}

func TestForceCurrentSongIndexZeroMissingFileIsSilentNoOp(t *testing.T) {
	forceCurrentSongIndexZero(filepath.Join(t.TempDir(), "nope.json"))
}

func TestCopyOnFirstUseWritesSourceOnUniqueSizeMatch(t *testing.T) {
	tracked := map[string]int64{"uuid-a": 100, "uuid-b": 200}
	stateDir := t.TempDir()
	CopyOnFirstUse("new-uuid", "My Set copy", 100, tracked, func(u string) string { return stateDir })

	got, err := os.ReadFile(filepath.Join(stateDir, "copy_source.txt"))
	require.NoError(t, err)
	assert.Equal(t, "uuid-a", string(got))
}

func TestCopyOnFirstUseSkipsWhenNameHasNoCopyMarker(t *testing.T) {
	tracked := map[string]int64{"uuid-a": 100}
	stateDir := t.TempDir()
	CopyOnFirstUse("new-uuid", "My Set", 100, tracked, func(u string) string { return stateDir })
	assert.NoFileExists(t, filepath.Join(stateDir, "copy_source.txt"))
}

func TestCopyOnFirstUseSkipsOnAmbiguousSizeMatch(t *testing.T) {
	tracked := map[string]int64{"uuid-a": 100, "uuid-b": 100}
	stateDir := t.TempDir()
	CopyOnFirstUse("new-uuid", "My Set duplicate", 100, tracked, func(u string) string { return stateDir })
	assert.NoFileExists(t, filepath.Join(stateDir, "copy_source.txt"))
}

func TestSetPageMultiplexerChangePageSamePageIsNoOp(t *testing.T) {
	m := NewSetPageMultiplexer(t.TempDir(), t.TempDir(), filepath.Join(t.TempDir(), "settings.json"), nil)
	o := &OverlayState{}
	q := NewScreenReaderQueue()
	require.NoError(t, m.ChangePage(0, o, q, nil))
	assert.Equal(t, "", o.Active(), "a same-page request must not arm the overlay")
}

func TestSetPageMultiplexerChangePageRejectsWhileLoading(t *testing.T) {
	m := NewSetPageMultiplexer(t.TempDir(), t.TempDir(), filepath.Join(t.TempDir(), "settings.json"), nil)
	m.loading = true
	o := &OverlayState{}
	q := NewScreenReaderQueue()
	err := m.ChangePage(1, o, q, nil)
	assert.Error(t, err)
}
