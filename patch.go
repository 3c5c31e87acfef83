// patch.go - patch store: scan, save, load, delete (spec §4.6, §6.2)
//
// Grounded on Design Note 9 ("Replacing the JSON parser"): patches are
// parsed leniently with opaque state/config.state blobs preserved
// verbatim via tidwall/gjson + tidwall/sjson rather than unmarshaled into
// fixed Go structs, so round-tripping an unknown field or nested blob
// never drops it.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const maxTrackedPatches = 32

// Patch is a parsed on-disk JSON patch document (spec §6.2). The chain
// body is kept as raw JSON (rawChain) rather than a fixed struct so that
// opaque state blobs and unknown fields survive untouched; accessors read
// through gjson on demand.
type Patch struct {
	Path     string
	Name     string
	Version  int
	RawChain string // the "chain" object, as raw JSON text
}

func (p *Patch) Synth() string            { return gjson.Get(p.RawChain, "synth.module").String() }
func (p *Patch) Preset() int              { return int(gjson.Get(p.RawChain, "synth.preset").Int()) }
func (p *Patch) AudioFXType(i int) string { return gjson.Get(p.RawChain, fmt.Sprintf("audio_fx.%d.type", i)).String() }
func (p *Patch) Input() string {
	if v := gjson.Get(p.RawChain, "input"); v.Exists() {
		return v.String()
	}
	return "both"
}
func (p *Patch) ReceiveChannel() int {
	if v := gjson.Get(p.RawChain, "receive_channel"); v.Exists() {
		return int(v.Int())
	}
	return ReceiveAllChannels
}
func (p *Patch) ForwardChannel() int {
	if v := gjson.Get(p.RawChain, "forward_channel"); v.Exists() {
		return int(v.Int())
	}
	return ForwardAuto
}

// KnobMappingsJSON returns the raw knob_mappings array.
func (p *Patch) KnobMappingsJSON() gjson.Result { return gjson.Get(p.RawChain, "knob_mappings") }

// PatchStore manages the on-disk directory of patch JSON files.
type PatchStore struct {
	mu      sync.Mutex
	dir     string
	patches []*Patch
}

func NewPatchStore(dir string) *PatchStore {
	return &PatchStore{dir: dir}
}

var patchFilenameRe = regexp.MustCompile(`[^a-z0-9]+`)

// sanitizeFilename lowercases, keeps alphanumerics, and replaces space/
// hyphen with underscore before dropping everything else, per spec §4.6.
func sanitizeFilename(name string) string {
	lower := strings.ToLower(name)
	lower = strings.NewReplacer(" ", "_", "-", "_").Replace(lower)
	return patchFilenameRe.ReplaceAllString(lower, "")
}

// escapeJSONString escapes quote and backslash in s. Save and Update do not
// use it: sjson.Set already escapes the name it writes.
func escapeJSONString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

// Scan reads every .json file in the patch directory, parsing name/
// version/chain, and sorts the result alphabetically (case-insensitive)
// by display name. At most 32 patches are tracked; overflow is silently
// ignored (spec §4.6).
func (s *PatchStore) Scan() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			s.patches = nil
			return nil
		}
		return Wrap(KindPatchStore, err)
	}

	var patches []*Patch
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		full := filepath.Join(s.dir, e.Name())
		data, err := os.ReadFile(full)
		if err != nil {
			continue
		}
		root := gjson.ParseBytes(data)
		p := &Patch{
			Path:     full,
			Name:     root.Get("name").String(),
			Version:  int(root.Get("version").Int()),
			RawChain: root.Get("chain").Raw,
		}
		patches = append(patches, p)
		if len(patches) >= maxTrackedPatches {
			break
		}
	}

	sort.Slice(patches, func(i, j int) bool {
		return strings.ToLower(patches[i].Name) < strings.ToLower(patches[j].Name)
	})
	s.patches = patches
	return nil
}

func (s *PatchStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.patches)
}

func (s *PatchStore) At(i int) (*Patch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.patches) {
		return nil, false
	}
	return s.patches[i], true
}

// defaultDisplayName builds "<synth> <preset:02d>[ <preset_name>][ + <fx1>][ + <fx2>]"
// from the chain body, per spec §4.6's save algorithm.
func defaultDisplayName(rawChain string, presetName string) string {
	synth := gjson.Get(rawChain, "synth.module").String()
	preset := gjson.Get(rawChain, "synth.preset").Int()
	name := fmt.Sprintf("%s %02d", synth, preset)
	if presetName != "" {
		name += " " + presetName
	}
	fx := gjson.Get(rawChain, "audio_fx")
	seen := 0
	fx.ForEach(func(_, v gjson.Result) bool {
		if seen == 2 {
			return false
		}
		seen++
		t := v.Get("type").String()
		if t != "" {
			name += " + " + t
		}
		return true
	})
	return name
}

// uniqueFilename finds the first free "<base>[_NN].json" path, appending
// _02.._99 as needed (spec §4.6); ok is false once _99 is exhausted.
func (s *PatchStore) uniqueFilename(base string) (path, suffixedName string, ok bool) {
	try := func(suffix string) string {
		return filepath.Join(s.dir, base+suffix+".json")
	}
	p := try("")
	if _, err := os.Stat(p); os.IsNotExist(err) {
		return p, "", true
	}
	for n := 2; n <= 99; n++ {
		suffix := fmt.Sprintf("_%02d", n)
		p := try(suffix)
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return p, suffix, true
		}
	}
	return "", "", false
}

// Save writes a new patch file from rawChain (the "chain" JSON body),
// using customName if non-empty, else the generated default name.
func (s *PatchStore) Save(rawChain string, customName string) (*Patch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := customName
	if name == "" {
		name = defaultDisplayName(rawChain, "")
	}
	base := sanitizeFilename(name)
	if base == "" {
		base = "patch"
	}
	path, suffix, ok := s.uniqueFilename(base)
	if !ok {
		return nil, Wrap(KindPatchStore, ErrNoFreeFilename)
	}
	finalName := name
	if suffix != "" {
		finalName = name + suffix
	}

	doc := "{}"
	doc, _ = sjson.Set(doc, "name", finalName)
	doc, _ = sjson.Set(doc, "version", 1)
	doc, _ = sjson.SetRaw(doc, "chain", rawChain)

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, Wrap(KindPatchStore, err)
	}
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return nil, Wrap(KindPatchStore, err)
	}

	p := &Patch{Path: path, Name: finalName, Version: 1, RawChain: rawChain}
	s.patches = append(s.patches, p)
	sort.Slice(s.patches, func(i, j int) bool {
		return strings.ToLower(s.patches[i].Name) < strings.ToLower(s.patches[j].Name)
	})
	return p, nil
}

// Update overwrites patch index's chain body, keeping its existing name
// unless customName is supplied (spec §8 round-trip law: "for every patch
// update with custom_name absent: the resulting name equals the prior
// patch's name").
func (s *PatchStore) Update(index int, rawChain string, customName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.patches) {
		return Wrap(KindPatchStore, ErrNoSuchSlot)
	}
	p := s.patches[index]
	if customName != "" {
		p.Name = customName
	}
	p.RawChain = rawChain

	doc := "{}"
	doc, _ = sjson.Set(doc, "name", p.Name)
	doc, _ = sjson.Set(doc, "version", p.Version)
	doc, _ = sjson.SetRaw(doc, "chain", rawChain)
	return os.WriteFile(p.Path, []byte(doc), 0o644)
}

// Delete removes patch index from disk and the in-memory list.
func (s *PatchStore) Delete(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.patches) {
		return Wrap(KindPatchStore, ErrNoSuchSlot)
	}
	p := s.patches[index]
	if err := os.Remove(p.Path); err != nil && !os.IsNotExist(err) {
		return Wrap(KindPatchStore, err)
	}
	s.patches = append(s.patches[:index], s.patches[index+1:]...)
	return nil
}
