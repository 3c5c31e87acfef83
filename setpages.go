// setpages.go - set-page multiplexer (spec §4.10)
//
// Grounded on original_source/src/host/shadow_set_pages.c (surveyed via
// its _INDEX.md sizing and the spec's distillation of its stash/swap
// algorithm). Uses golang.org/x/sys/unix for xattr preservation and
// google/uuid for the synthetic "pending" namespace, both pack-sourced
// per SPEC_FULL's DOMAIN STACK.

package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

const numSetPages = 8

// xattrKeys are the extended attributes preserved across a stash/swap
// (spec §4.10 step 3).
var xattrKeys = []string{"user.song-index", "user.song-name", "user.song-color"}

// SetPageMultiplexer rotates eight on-disk library snapshots, only one of
// which is visible to the host firmware at a time (spec §3, §4.10).
type SetPageMultiplexer struct {
	mu sync.Mutex

	libraryDir   string
	setPagesRoot string
	firmwareSettingsPath string
	restartScript func() error

	CurrentPage int
	loading     bool
	pending     bool
}

func NewSetPageMultiplexer(libraryDir, setPagesRoot, firmwareSettingsPath string, restart func() error) *SetPageMultiplexer {
	return &SetPageMultiplexer{
		libraryDir:           libraryDir,
		setPagesRoot:         setPagesRoot,
		firmwareSettingsPath: firmwareSettingsPath,
		restartScript:        restart,
	}
}

// ChangePage implements spec §4.10's numbered steps 1-8. saveCurrentSong
// is the firmware RPC collaborator (§1 Non-goals: firmware is opaque); it
// is injected so this core never assumes a concrete transport.
func (m *SetPageMultiplexer) ChangePage(newPage int, overlay *OverlayState, announcer *ScreenReaderQueue, saveCurrentSong func() error) error {
	m.mu.Lock()
	if newPage == m.CurrentPage {
		m.mu.Unlock()
		return nil // no-op per spec §8 boundary behavior
	}
	if m.loading {
		m.mu.Unlock()
		return Wrap(KindSetPage, fmt.Errorf("page change already in flight"))
	}
	m.loading = true
	oldPage := m.CurrentPage
	m.mu.Unlock()

	overlay.Arm(&overlay.SetPage, 3*int32(wavSampleRate)/int32(MailboxFramesMax))
	announcer.Push(fmt.Sprintf("Loading page %d", newPage))

	go m.runChange(oldPage, newPage, saveCurrentSong)
	return nil
}

func (m *SetPageMultiplexer) runChange(oldPage, newPage int, saveCurrentSong func() error) {
	defer func() {
		m.mu.Lock()
		m.loading = false
		m.mu.Unlock()
	}()

	if saveCurrentSong != nil {
		saveCurrentSong()
	}
	pollLibraryStable(m.libraryDir, 500*time.Millisecond, 6)

	oldStash := filepath.Join(m.setPagesRoot, fmt.Sprintf("page_%d", oldPage))
	newStash := filepath.Join(m.setPagesRoot, fmt.Sprintf("page_%d", newPage))
	if err := os.MkdirAll(oldStash, 0o755); err != nil {
		return
	}

	uuids, err := listUUIDDirs(m.libraryDir)
	if err != nil {
		return
	}

	var g errgroup.Group
	xattrsPath := filepath.Join(oldStash, "xattrs.txt")
	xf, err := os.Create(xattrsPath)
	if err == nil {
		defer xf.Close()
		for _, u := range uuids {
			u := u
			g.Go(func() error {
				return writeXattrLines(xf, filepath.Join(m.libraryDir, u), u)
			})
		}
		g.Wait()
	}

	for _, u := range uuids {
		src := filepath.Join(m.libraryDir, u)
		dst := filepath.Join(oldStash, u)
		if fileExists(dst) {
			continue // collision: skipped, per spec §4.10 step 4
		}
		os.Rename(src, dst)
	}

	newUUIDs, _ := listUUIDDirs(newStash)
	for _, u := range newUUIDs {
		src := filepath.Join(newStash, u)
		dst := filepath.Join(m.libraryDir, u)
		os.Rename(src, dst)
	}
	restoreXattrs(filepath.Join(newStash, "xattrs.txt"), m.libraryDir)

	writeManifest(filepath.Join(oldStash, "manifest.txt"), uuids)

	forceCurrentSongIndexZero(m.firmwareSettingsPath)

	m.mu.Lock()
	m.CurrentPage = newPage
	m.mu.Unlock()
	writeCurrentPageFile(m.setPagesRoot, newPage)

	if m.restartScript != nil {
		m.restartScript()
	}
}

func pollLibraryStable(dir string, tick time.Duration, maxAttempts int) {
	last := -1
	for i := 0; i < maxAttempts; i++ {
		entries, err := os.ReadDir(dir)
		n := 0
		if err == nil {
			n = len(entries)
		}
		if n == last {
			return
		}
		last = n
		time.Sleep(tick)
	}
}

func listUUIDDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			if _, err := uuid.Parse(e.Name()); err == nil {
				out = append(out, e.Name())
			}
		}
	}
	return out, nil
}

func writeXattrLines(w *os.File, path, u string) error {
	for _, key := range xattrKeys {
		buf := make([]byte, 256)
		n, err := unix.Getxattr(path, key, buf)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "%s %s %s\n", u, key, string(buf[:n]))
	}
	return nil
}

func restoreXattrs(xattrsPath, libraryDir string) {
	f, err := os.Open(xattrsPath)
	if err != nil {
		return
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		parts := strings.SplitN(sc.Text(), " ", 3)
		if len(parts) != 3 {
			continue
		}
		path := filepath.Join(libraryDir, parts[0])
		unix.Setxattr(path, parts[1], []byte(parts[2]), 0)
	}
}

func writeManifest(path string, uuids []string) {
	f, err := os.Create(path)
	if err != nil {
		return
	}
	defer f.Close()
	for _, u := range uuids {
		fmt.Fprintln(f, u)
	}
}

func writeCurrentPageFile(setPagesRoot string, page int) {
	os.WriteFile(filepath.Join(setPagesRoot, "current_page.txt"), []byte(strconv.Itoa(page)), 0o644)
}

// forceCurrentSongIndexZero in-place edits the firmware settings JSON,
// per spec §4.10 step 7.
func forceCurrentSongIndexZero(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	updated, err := setJSONIntField(string(data), "currentSongIndex", 0)
	if err != nil {
		return
	}
	os.WriteFile(path, []byte(updated), 0o644)
}

// PollSettings implements spec §4.10's settings poll: read
// currentSongIndex from the firmware settings; when it changes, scan the
// library, match each UUID's user.song-index xattr to the index, and call
// onMatch with the matched UUID and its single content subdirectory name.
// When no UUID yet carries the index, onPending is invoked instead so the
// UI has a usable blank state (spec: "a synthetic pending namespace").
func (m *SetPageMultiplexer) PollSettings(lastIndex *int, onMatch func(uuid, contentDir string), onPending func(syntheticUUID string)) {
	data, err := os.ReadFile(m.firmwareSettingsPath)
	if err != nil {
		return
	}
	idx := int(jsonIntField(string(data), "currentSongIndex"))
	if idx == *lastIndex {
		return
	}
	*lastIndex = idx

	uuids, err := listUUIDDirs(m.libraryDir)
	if err != nil {
		return
	}
	for _, u := range uuids {
		buf := make([]byte, 32)
		n, err := unix.Getxattr(filepath.Join(m.libraryDir, u), "user.song-index", buf)
		if err != nil {
			continue
		}
		if v, err := strconv.Atoi(string(buf[:n])); err == nil && v == idx {
			onMatch(u, singleSubdir(filepath.Join(m.libraryDir, u)))
			return
		}
	}
	onPending(uuid.NewString())
}

func singleSubdir(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if e.IsDir() {
			return e.Name()
		}
	}
	return ""
}

// CopyOnFirstUse implements spec §4.10's detection: when a newly-seen
// set's display name contains "copy" or "duplicate", its Song.abl size is
// compared against every already-tracked set's size; on exactly one match
// a copy_source.txt is dropped with the source UUID.
func CopyOnFirstUse(newUUID, newName string, newSongABLSize int64, tracked map[string]int64, perSetStateDir func(uuid string) string) {
	lower := strings.ToLower(newName)
	if !strings.Contains(lower, "copy") && !strings.Contains(lower, "duplicate") {
		return
	}
	var matches []string
	for u, size := range tracked {
		if size == newSongABLSize {
			matches = append(matches, u)
		}
	}
	if len(matches) != 1 {
		return
	}
	dir := perSetStateDir(newUUID)
	os.MkdirAll(dir, 0o755)
	os.WriteFile(filepath.Join(dir, "copy_source.txt"), []byte(matches[0]), 0o644)
}
