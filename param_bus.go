// param_bus.go - prefix-routed parameter protocol (spec §4.4)

package main

import (
	"fmt"
	"strconv"
	"strings"
)

// looksLikeCleanFloat reports whether s parses as a float and is not an
// integer-looking value, per spec §4.4's smoothing-target test: "If the
// value string parses cleanly as a floating-point number (not an
// integer-looking value...)".
func looksLikeCleanFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if !strings.ContainsAny(s, ".eE") {
		return 0, false // integer-looking
	}
	return f, true
}

// paramTarget is what resolveTarget returns: resolveTarget resolves a prefix
// like "fx1"/"midi_fx2"/"synth"/"source" against one slot's chain, returning
// something that exposes SetParam/GetParam, or nil if the target has no
// live plugin.
type paramTarget interface {
	SetParam(key, val string) error
	GetParam(key string) (string, bool)
}

func (c *SignalChainInstance) resolveTarget(prefix string) paramTarget {
	switch prefix {
	case "synth":
		if c.Generator == nil {
			return nil
		}
		return c.Generator
	case "source":
		if c.MIDISource == nil {
			return nil
		}
		return c.MIDISource
	case "fx1", "fx2", "fx3":
		idx := int(prefix[2] - '1')
		if c.AudioFX[idx] == nil {
			return nil
		}
		return c.AudioFX[idx]
	case "midi_fx1", "midi_fx2":
		idx := int(prefix[len(prefix)-1] - '1')
		if c.MIDIFX[idx] == nil {
			return nil
		}
		return c.MIDIFX[idx]
	default:
		return nil
	}
}

// HandleSlotParam routes one "prefix:key value"-shaped or unprefixed
// command string to its target, per spec §4.4's table. raw is of the form
// "prefix:key=value" is NOT the wire shape; the wire shape per §6.7 is
// separate key/value fields, so callers pass key and val already split.
func (e *Engine) HandleSlotParam(slotIdx int, key, val string) (string, error) {
	if slotIdx < 0 || slotIdx >= numSlots {
		return "", Wrap(KindParamRoute, ErrNoSuchSlot)
	}
	slot := e.Slots[slotIdx]

	if i := strings.IndexByte(key, ':'); i >= 0 {
		prefix, sub := key[:i], key[i+1:]
		switch prefix {
		case "slot":
			return e.handleSlotLocal(slot, sub, val)
		case "patch":
			return e.handlePatchQuery(slot, sub)
		default:
			return e.handlePluginParam(slot, prefix, sub, val)
		}
	}

	return e.handleUnprefixed(slot, key, val)
}

func (e *Engine) handlePluginParam(slot *ChainSlot, prefix, key, val string) (string, error) {
	slot.mu.Lock()
	c := slot.Chain
	target := c.resolveTarget(prefix)
	slot.mu.Unlock()

	if key == "module" {
		return e.handleModuleReplace(slot, prefix, val)
	}

	if target == nil {
		return "", Wrap(KindParamRoute, ErrNoLivePlugin)
	}

	if f, ok := looksLikeCleanFloat(val); ok {
		slot.mu.Lock()
		c.smoother.SetTarget(prefix+":"+key, f)
		slot.mu.Unlock()
	}
	if err := target.SetParam(key, val); err != nil {
		return "", Wrap(KindParamRoute, fmt.Errorf("%w: %v", ErrNoSetParam, err))
	}
	return "", nil
}

// handleModuleReplace implements "fx1:module"/"synth:module"/etc: load a
// new module on demand, trigger a mute window, reset the smoother.
func (e *Engine) handleModuleReplace(slot *ChainSlot, prefix, moduleName string) (string, error) {
	slot.mu.Lock()
	defer slot.mu.Unlock()
	c := slot.Chain
	c.TriggerMuteWindow()
	c.smoother.Reset()

	if moduleName == "" || moduleName == "none" {
		e.unloadTarget(c, prefix)
		return "", nil
	}

	switch prefix {
	case "synth":
		if c.Generator != nil {
			c.Generator.Close()
		}
		gen, err := LoadSoundGenerator(moduleName, e.Caps)
		if err != nil {
			return "", err
		}
		c.Generator = gen
	case "fx1", "fx2", "fx3":
		idx := int(prefix[2] - '1')
		if c.AudioFX[idx] != nil {
			c.AudioFX[idx].Close()
		}
		fx, err := LoadAudioFX(moduleName, e.Caps)
		if err != nil {
			return "", err
		}
		c.AudioFX[idx] = fx
	case "midi_fx1", "midi_fx2":
		idx := int(prefix[len(prefix)-1] - '1')
		if c.MIDIFX[idx] != nil {
			c.MIDIFX[idx].Close()
		}
		mfx, err := LoadMIDIFX(moduleName, e.Caps)
		if err != nil {
			return "", err
		}
		c.MIDIFX[idx] = mfx
	}
	return "", nil
}

func (e *Engine) unloadTarget(c *SignalChainInstance, prefix string) {
	switch prefix {
	case "synth":
		if c.Generator != nil {
			c.Generator.Close()
			c.Generator = nil
		}
	case "fx1", "fx2", "fx3":
		idx := int(prefix[2] - '1')
		if c.AudioFX[idx] != nil {
			c.AudioFX[idx].Close()
			c.AudioFX[idx] = nil
		}
	case "midi_fx1", "midi_fx2":
		idx := int(prefix[len(prefix)-1] - '1')
		if c.MIDIFX[idx] != nil {
			c.MIDIFX[idx].Close()
			c.MIDIFX[idx] = nil
		}
	}
}

func (e *Engine) handleSlotLocal(slot *ChainSlot, key, val string) (string, error) {
	slot.mu.Lock()
	defer slot.mu.Unlock()
	switch key {
	case "volume":
		f, _ := strconv.ParseFloat(val, 64)
		slot.Volume = f
	case "muted":
		slot.Mute = val == "1" || val == "true"
	case "soloed":
		slot.Solo = val == "1" || val == "true"
	case "receive_channel":
		n, _ := strconv.Atoi(val)
		slot.ReceiveChannel = n
	case "forward_channel":
		n, _ := strconv.Atoi(val)
		slot.ForwardChannel = n
	default:
		return "", Wrap(KindParamRoute, ErrUnknownKey)
	}
	return "", nil
}

func (e *Engine) handlePatchQuery(slot *ChainSlot, key string) (string, error) {
	switch key {
	case "count":
		return strconv.Itoa(e.Patches.Count()), nil
	default:
		if strings.HasPrefix(key, "name_") {
			idx, _ := strconv.Atoi(strings.TrimPrefix(key, "name_"))
			if p, ok := e.Patches.At(idx); ok {
				return p.Name, nil
			}
		}
		return "", Wrap(KindParamRoute, ErrUnknownKey)
	}
}

// handleUnprefixed implements the chain-level commands of spec §4.4:
// patch, next_patch, prev_patch, save_patch, update_patch, delete_patch,
// save/update/delete_master_preset, recording, component_ui_mode.
func (e *Engine) handleUnprefixed(slot *ChainSlot, cmd, val string) (string, error) {
	switch cmd {
	case "patch":
		idx, _ := strconv.Atoi(val)
		return "", e.LoadPatch(slot, idx)
	case "next_patch":
		slot.mu.Lock()
		idx := slot.PatchIndex + 1
		slot.mu.Unlock()
		return "", e.LoadPatch(slot, idx)
	case "prev_patch":
		slot.mu.Lock()
		idx := slot.PatchIndex - 1
		slot.mu.Unlock()
		return "", e.LoadPatch(slot, idx)
	case "save_patch":
		p, err := e.Patches.Save(val, "")
		if err != nil {
			return "", err
		}
		return p.Name, nil
	case "update_patch":
		parts := strings.SplitN(val, ":", 2)
		if len(parts) != 2 {
			return "", Wrap(KindPatchStore, ErrPatchMalformed)
		}
		idx, _ := strconv.Atoi(parts[0])
		return "", e.Patches.Update(idx, parts[1], "")
	case "delete_patch":
		idx, _ := strconv.Atoi(val)
		return "", e.Patches.Delete(idx)
	case "save_master_preset":
		p, err := e.MasterFX.Save(val, "")
		if err != nil {
			return "", err
		}
		return p.Name, nil
	case "update_master_preset":
		parts := strings.SplitN(val, ":", 2)
		if len(parts) != 2 {
			return "", Wrap(KindPatchStore, ErrPatchMalformed)
		}
		idx, _ := strconv.Atoi(parts[0])
		return "", e.MasterFX.Update(idx, parts[1])
	case "delete_master_preset":
		idx, _ := strconv.Atoi(val)
		return "", e.MasterFX.Delete(idx)
	case "recording":
		e.mu.Lock()
		e.Recording = val == "1"
		e.mu.Unlock()
		return "", nil
	case "component_ui_mode":
		e.mu.Lock()
		e.ComponentUIMode = val
		e.mu.Unlock()
		return "", nil
	default:
		return "", Wrap(KindParamRoute, ErrUnknownRequest)
	}
}

// GetSlotParam implements the GET side of the parameter RPC (spec §6.7):
// read-only queries against a slot's plugins, local slot fields, or the
// patch store.
func (e *Engine) GetSlotParam(slotIdx int, key string) (string, error) {
	if slotIdx < 0 || slotIdx >= numSlots {
		return "", Wrap(KindParamRoute, ErrNoSuchSlot)
	}
	slot := e.Slots[slotIdx]

	i := strings.IndexByte(key, ':')
	if i < 0 {
		return "", Wrap(KindParamRoute, ErrUnknownKey)
	}
	prefix, sub := key[:i], key[i+1:]

	switch prefix {
	case "patch":
		return e.handlePatchQuery(slot, sub)
	case "slot":
		slot.mu.Lock()
		defer slot.mu.Unlock()
		switch sub {
		case "volume":
			return strconv.FormatFloat(slot.Volume, 'f', -1, 64), nil
		case "muted":
			return boolStr(slot.Mute), nil
		case "soloed":
			return boolStr(slot.Solo), nil
		default:
			return "", Wrap(KindParamRoute, ErrUnknownKey)
		}
	default:
		slot.mu.Lock()
		target := slot.Chain.resolveTarget(prefix)
		slot.mu.Unlock()
		if target == nil {
			return "", Wrap(KindParamRoute, ErrNoLivePlugin)
		}
		v, ok := target.GetParam(sub)
		if !ok {
			return "", Wrap(KindParamRoute, ErrNoGetParam)
		}
		return v, nil
	}
}

func boolStr(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// GetPluginParam implements the float-conversion contract for reads
// (spec §4.4): numeric strings parse; enum strings look up their option
// index; anything else falls back to fallback.
func GetPluginParam(target paramTarget, desc ParameterDescriptor, key string, fallback float64) float64 {
	s, ok := target.GetParam(key)
	if !ok {
		return fallback
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	for i, opt := range desc.Options {
		if opt == s {
			return float64(i)
		}
	}
	return fallback
}
