// master_fx.go - master-FX chain (spec §4.7, §6.3)

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const numMasterSlots = 4

// MasterFXSlot is one of the four master-FX slots (spec §3).
type MasterFXSlot struct {
	ModulePath string
	Instance   AudioFX
	Capture    CaptureRules
	// cachedChainParams satisfies UI queries when the module has no live
	// getter for its descriptor table (spec §4.7).
	cachedChainParams *ModuleDescriptor
}

// MasterFXChain applies its four slots in order to the post-slot-sum
// output and persists them as master presets (spec §4.7, §6.3).
type MasterFXChain struct {
	mu   sync.Mutex
	dir  string
	Slot [numMasterSlots]MasterFXSlot

	presets []masterPreset
}

type masterPreset struct {
	Path string
	Name string
}

func NewMasterFXChain(dir string) *MasterFXChain {
	return &MasterFXChain{dir: dir}
}

// ProcessBlock runs every loaded master slot in index order over buf.
func (m *MasterFXChain) ProcessBlock(buf []int16, frames int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Slot {
		if m.Slot[i].Instance != nil {
			m.Slot[i].Instance.ProcessBlock(buf, frames)
		}
	}
}

// FanoutMIDI passes msg to each slot's optional MIDI handler
// (spec §4.7: "so a master effect can, for example, duck on note-ons").
func (m *MasterFXChain) FanoutMIDI(msg Msg, src MIDISource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Slot {
		if h, ok := m.Slot[i].Instance.(AudioFXMIDIHandler); ok {
			h.OnMIDI(msg, src)
		}
	}
}

// Save persists the current four master slots as a preset file
// (spec §6.3: unset slots written as null).
func (m *MasterFXChain) Save(rawMasterFX string, customName string) (*masterPreset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := customName
	if name == "" {
		name = "master preset"
	}
	base := sanitizeFilename(name)
	if base == "" {
		base = "master"
	}
	path := filepath.Join(m.dir, base+".json")
	for n := 2; n <= 99 && fileExists(path); n++ {
		path = filepath.Join(m.dir, fmt.Sprintf("%s_%02d.json", base, n))
	}

	doc := "{}"
	doc, _ = sjson.Set(doc, "name", name)
	doc, _ = sjson.Set(doc, "version", 1)
	doc, _ = sjson.SetRaw(doc, "master_fx", rawMasterFX)

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return nil, Wrap(KindPatchStore, err)
	}
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return nil, Wrap(KindPatchStore, err)
	}
	p := masterPreset{Path: path, Name: name}
	m.presets = append(m.presets, p)
	return &p, nil
}

func (m *MasterFXChain) Update(index int, rawMasterFX string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.presets) {
		return Wrap(KindPatchStore, ErrNoSuchSlot)
	}
	p := m.presets[index]
	doc, err := os.ReadFile(p.Path)
	if err != nil {
		return Wrap(KindPatchStore, err)
	}
	updated, _ := sjson.SetRawBytes(doc, "master_fx", []byte(rawMasterFX))
	return os.WriteFile(p.Path, updated, 0o644)
}

func (m *MasterFXChain) Delete(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.presets) {
		return Wrap(KindPatchStore, ErrNoSuchSlot)
	}
	p := m.presets[index]
	if err := os.Remove(p.Path); err != nil && !os.IsNotExist(err) {
		return Wrap(KindPatchStore, err)
	}
	m.presets = append(m.presets[:index], m.presets[index+1:]...)
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// parseMasterFXSlot reads one "fx1".."fx4" sub-object from a master
// preset's master_fx object; ok is false for a null/missing slot.
func parseMasterFXSlot(rawMasterFX, slotKey string) (moduleType string, paramsJSON string, ok bool) {
	v := gjson.Get(rawMasterFX, slotKey)
	if !v.Exists() || v.Type == gjson.Null {
		return "", "", false
	}
	return v.Get("type").String(), v.Get("params").Raw, true
}
