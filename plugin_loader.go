// plugin_loader.go - module load protocol (spec §4.1)
//
// sanitizeModuleName mirrors coprocessor_manager.go's sanitizePath: reject
// traversal sequences, slashes, and empty names. createWorker's
// load-then-roll-back-on-failure shape (coprocessor_manager.go,
// cmdStart/createWorker) is mirrored below by the Load*/load*SO functions
// closing an instance whose ABI version does not match.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"plugin"
	"strings"
)

// sanitizeModuleName rejects path traversal, slashes, and empty names, the
// same contract file_io.go/coprocessor_manager.go apply to on-disk paths
// read out of configuration.
func sanitizeModuleName(name string) (string, bool) {
	if name == "" || name == "none" {
		return "", false
	}
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return "", false
	}
	return name, true
}

// builtinSoundGenerators/builtinAudioFX/builtinMIDIFX are the tagged-
// variant registry for modules bundled at build time (spec §9's route
// (a)); each factory receives the module directory and a raw config JSON
// blob and returns a ready instance.
var (
	builtinSoundGenerators = map[string]func(dir string, config []byte, caps HostCapabilities) (SoundGenerator, error){}
	builtinAudioFX         = map[string]func(dir string, config []byte, caps HostCapabilities) (AudioFX, error){}
	builtinMIDIFX          = map[string]func(dir string, config []byte, caps HostCapabilities) (MIDIFX, error){}
)

// RegisterSoundGenerator lets a built-in module (or scriptfx) add itself
// to the registry from an init() func.
func RegisterSoundGenerator(name string, factory func(dir string, config []byte, caps HostCapabilities) (SoundGenerator, error)) {
	builtinSoundGenerators[name] = factory
}

func RegisterAudioFX(name string, factory func(dir string, config []byte, caps HostCapabilities) (AudioFX, error)) {
	builtinAudioFX[name] = factory
}

func RegisterMIDIFX(name string, factory func(dir string, config []byte, caps HostCapabilities) (MIDIFX, error)) {
	builtinMIDIFX[name] = factory
}

// ModuleRoot is the directory every module subdirectory and its sibling
// module.json live under.
var ModuleRoot = "modules"

func moduleDir(name string) string { return filepath.Join(ModuleRoot, name) }

func readModuleDescriptor(name string) (*ModuleDescriptor, error) {
	path := filepath.Join(moduleDir(name), "module.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return &ModuleDescriptor{Params: map[string]ParameterDescriptor{}}, nil
	}
	return ParseModuleDescriptor(data)
}

func readModuleConfig(name string) []byte {
	path := filepath.Join(moduleDir(name), "config.json")
	data, _ := os.ReadFile(path)
	return data
}

// LoadSoundGenerator resolves name, trying the built-in registry first
// and an out-of-tree shared object second, matching spec §4.1's load
// protocol: reject mismatched ABI version, unload on create failure.
func LoadSoundGenerator(name string, caps HostCapabilities) (SoundGenerator, error) {
	name, ok := sanitizeModuleName(name)
	if !ok {
		return nil, Wrap(KindModuleLoad, ErrModuleMissing)
	}
	config := readModuleConfig(name)
	if factory, ok := builtinSoundGenerators[name]; ok {
		gen, err := factory(moduleDir(name), config, caps)
		if err != nil {
			return nil, Wrap(KindModuleLoad, err)
		}
		if err := checkABIVersion(gen.APIVersion(), abiVersionSoundGenerator); err != nil {
			gen.Close()
			return nil, Wrap(KindModuleLoad, err)
		}
		return gen, nil
	}
	return loadSoundGeneratorSO(name, config, caps)
}

func LoadAudioFX(name string, caps HostCapabilities) (AudioFX, error) {
	name, ok := sanitizeModuleName(name)
	if !ok {
		return nil, Wrap(KindModuleLoad, ErrModuleMissing)
	}
	config := readModuleConfig(name)
	if factory, ok := builtinAudioFX[name]; ok {
		fx, err := factory(moduleDir(name), config, caps)
		if err != nil {
			return nil, Wrap(KindModuleLoad, err)
		}
		if err := checkABIVersion(fx.APIVersion(), abiVersionAudioFX); err != nil {
			fx.Close()
			return nil, Wrap(KindModuleLoad, err)
		}
		return fx, nil
	}
	if luaScriptExists(name) {
		return NewLuaAudioFX(name, caps)
	}
	return loadAudioFXSO(name, config, caps)
}

func LoadMIDIFX(name string, caps HostCapabilities) (MIDIFX, error) {
	name, ok := sanitizeModuleName(name)
	if !ok {
		return nil, Wrap(KindModuleLoad, ErrModuleMissing)
	}
	config := readModuleConfig(name)
	if factory, ok := builtinMIDIFX[name]; ok {
		mfx, err := factory(moduleDir(name), config, caps)
		if err != nil {
			return nil, Wrap(KindModuleLoad, err)
		}
		if err := checkABIVersion(mfx.APIVersion(), abiVersionMIDIFX); err != nil {
			mfx.Close()
			return nil, Wrap(KindModuleLoad, err)
		}
		return mfx, nil
	}
	if luaScriptExists(name) {
		return NewLuaMIDIFX(name, caps)
	}
	return loadMIDIFXSO(name, config, caps)
}

// soFactorySymbol names, one per ABI, per spec §6.6 ("Every module must
// provide its init symbol at a well-known name (one per ABI)").
const (
	symSoundGeneratorInit = "MoveSoundGeneratorInitV2"
	symAudioFXInit        = "MoveAudioFXInitV2"
	symMIDIFXInit         = "MoveMIDIFXInitV1"
	symAudioFXOnMIDI      = "MoveAudioFXOnMIDI" // optional, discovered by name
)

func soPath(name string) string { return filepath.Join(moduleDir(name), name+".so") }

func loadSoundGeneratorSO(name string, config []byte, caps HostCapabilities) (SoundGenerator, error) {
	p, err := plugin.Open(soPath(name))
	if err != nil {
		return nil, Wrap(KindModuleLoad, fmt.Errorf("%w: %v", ErrModuleMissing, err))
	}
	sym, err := p.Lookup(symSoundGeneratorInit)
	if err != nil {
		return nil, Wrap(KindModuleLoad, fmt.Errorf("%w: %v", ErrSymbolMissing, err))
	}
	initFn, ok := sym.(func(dir string, config []byte, caps HostCapabilities) (SoundGenerator, error))
	if !ok {
		return nil, Wrap(KindModuleLoad, ErrSymbolMissing)
	}
	gen, err := initFn(moduleDir(name), config, caps)
	if err != nil || gen == nil {
		return nil, Wrap(KindModuleLoad, ErrCreateInstanceNil)
	}
	if err := checkABIVersion(gen.APIVersion(), abiVersionSoundGenerator); err != nil {
		gen.Close()
		return nil, Wrap(KindModuleLoad, err)
	}
	return gen, nil
}

func loadAudioFXSO(name string, config []byte, caps HostCapabilities) (AudioFX, error) {
	p, err := plugin.Open(soPath(name))
	if err != nil {
		return nil, Wrap(KindModuleLoad, fmt.Errorf("%w: %v", ErrModuleMissing, err))
	}
	sym, err := p.Lookup(symAudioFXInit)
	if err != nil {
		return nil, Wrap(KindModuleLoad, fmt.Errorf("%w: %v", ErrSymbolMissing, err))
	}
	initFn, ok := sym.(func(dir string, config []byte, caps HostCapabilities) (AudioFX, error))
	if !ok {
		return nil, Wrap(KindModuleLoad, ErrSymbolMissing)
	}
	fx, err := initFn(moduleDir(name), config, caps)
	if err != nil || fx == nil {
		return nil, Wrap(KindModuleLoad, ErrCreateInstanceNil)
	}
	if err := checkABIVersion(fx.APIVersion(), abiVersionAudioFX); err != nil {
		fx.Close()
		return nil, Wrap(KindModuleLoad, err)
	}
	// Optional MIDI-handler symbol, discovered by name (spec §4.1/§6.6).
	if _, err := p.Lookup(symAudioFXOnMIDI); err == nil {
		if _, ok := fx.(AudioFXMIDIHandler); !ok {
			caps.Log("module %s exports %s but instance does not implement AudioFXMIDIHandler", name, symAudioFXOnMIDI)
		}
	}
	return fx, nil
}

func loadMIDIFXSO(name string, config []byte, caps HostCapabilities) (MIDIFX, error) {
	p, err := plugin.Open(soPath(name))
	if err != nil {
		return nil, Wrap(KindModuleLoad, fmt.Errorf("%w: %v", ErrModuleMissing, err))
	}
	sym, err := p.Lookup(symMIDIFXInit)
	if err != nil {
		return nil, Wrap(KindModuleLoad, fmt.Errorf("%w: %v", ErrSymbolMissing, err))
	}
	initFn, ok := sym.(func(dir string, config []byte, caps HostCapabilities) (MIDIFX, error))
	if !ok {
		return nil, Wrap(KindModuleLoad, ErrSymbolMissing)
	}
	mfx, err := initFn(moduleDir(name), config, caps)
	if err != nil || mfx == nil {
		return nil, Wrap(KindModuleLoad, ErrCreateInstanceNil)
	}
	if err := checkABIVersion(mfx.APIVersion(), abiVersionMIDIFX); err != nil {
		mfx.Close()
		return nil, Wrap(KindModuleLoad, err)
	}
	return mfx, nil
}
