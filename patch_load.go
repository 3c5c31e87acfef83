// patch_load.go - patch load algorithm (spec §4.6)

package main

import (
	"strconv"

	"github.com/tidwall/gjson"
)

// allNotesOff sends a note-off for every note on every MIDI channel to the
// slot's generator, per §4.6's "panic" step.
func allNotesOff(gen SoundGenerator) {
	if gen == nil {
		return
	}
	for ch := 0; ch < 16; ch++ {
		for note := 0; note < 128; note++ {
			gen.OnMIDI(Msg{Status: byte(midiNoteOff | ch), Data1: byte(note), Data2: 0}, SourceInternal)
		}
	}
}

// resetModWheel zeroes CC1 on every channel before state restore, per
// §4.6: "before state restore so saved values are not overwritten".
func resetModWheel(gen SoundGenerator) {
	if gen == nil {
		return
	}
	for ch := 0; ch < 16; ch++ {
		gen.OnMIDI(Msg{Status: byte(midiCC | ch), Data1: 1, Data2: 0}, SourceInternal)
	}
}

// LoadPatch implements spec §4.6's load algorithm for negative index
// (unload) and valid index (load).
func (e *Engine) LoadPatch(slot *ChainSlot, index int) error {
	slot.mu.Lock()
	c := slot.Chain
	allNotesOff(c.Generator)
	e.unloadAllPlugins(c)
	slot.PatchIndex = -1
	slot.PatchName = ""
	slot.mu.Unlock()

	if index < 0 {
		return nil
	}

	p, ok := e.Patches.At(index)
	if !ok {
		return Wrap(KindPatchStore, ErrNoSuchSlot)
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	// Load synth, set preset.
	synthModule := p.Synth()
	if synthModule != "" {
		gen, err := LoadSoundGenerator(synthModule, e.Caps)
		if err != nil {
			return err
		}
		c.Generator = gen
		gen.SetParam("preset", strconv.Itoa(p.Preset()))

		resetModWheel(gen)

		if st := gjson.Get(p.RawChain, "synth.config.state"); st.Exists() {
			gen.SetParam("state", st.Raw)
		}
	}

	// Load audio FX: scalar params, then opaque state.
	fxArr := gjson.Get(p.RawChain, "audio_fx")
	i := 0
	fxArr.ForEach(func(_, v gjson.Result) bool {
		if i >= maxAudioFXPerSlot {
			return false
		}
		t := v.Get("type").String()
		if t != "" {
			fx, err := LoadAudioFX(t, e.Caps)
			if err == nil {
				applyScalarThenState(fx, v.Get("params"))
				c.AudioFX[i] = fx
			}
		}
		i++
		return true
	})

	// Load MIDI FX similarly.
	mfxArr := gjson.Get(p.RawChain, "midi_fx")
	j := 0
	mfxArr.ForEach(func(_, v gjson.Result) bool {
		if j >= maxMIDIFXPerSlot {
			return false
		}
		t := v.Get("type").String()
		if t != "" {
			mfx, err := LoadMIDIFX(t, e.Caps)
			if err == nil {
				applyScalarThenStateMIDIFX(mfx, v)
				c.MIDIFX[j] = mfx
			}
		}
		j++
		return true
	})

	// Copy knob mappings, initializing current_value from live DSP value.
	c.knobMappings = nil
	p.KnobMappingsJSON().ForEach(func(_, v gjson.Result) bool {
		km := &KnobMapping{
			CC:     int(v.Get("cc").Int()),
			Target: v.Get("target").String(),
			Param:  v.Get("param").String(),
		}
		if target := c.resolveTarget(km.Target); target != nil {
			if s, ok := target.GetParam(km.Param); ok {
				if f, err := strconv.ParseFloat(s, 64); err == nil {
					km.CurrentValue = f
				}
			}
		} else if v.Get("value").Exists() {
			km.CurrentValue = v.Get("value").Float()
		}
		c.knobMappings = append(c.knobMappings, km)
		return true
	})

	slot.PatchIndex = index
	slot.PatchName = p.Name
	slot.ReceiveChannel = p.ReceiveChannel()

	forward := p.ForwardChannel()
	if forward == ForwardAuto && c.DefaultForwardChannel >= 0 {
		forward = c.DefaultForwardChannel
	}
	slot.ForwardChannel = forward

	c.TriggerMuteWindow()
	return nil
}

func applyScalarThenState(fx AudioFX, params gjson.Result) {
	params.ForEach(func(k, v gjson.Result) bool {
		key := k.String()
		if key == "state" {
			return true // applied after the scalar pass, below
		}
		fx.SetParam(key, v.String())
		return true
	})
	if st := params.Get("state"); st.Exists() {
		fx.SetParam("state", st.Raw)
	}
}

func applyScalarThenStateMIDIFX(mfx MIDIFX, v gjson.Result) {
	v.ForEach(func(k, val gjson.Result) bool {
		key := k.String()
		if key == "type" || key == "state" {
			return true
		}
		mfx.SetParam(key, val.String())
		return true
	})
	if st := v.Get("state"); st.Exists() {
		mfx.SetParam("state", st.Raw)
	}
}

func (e *Engine) unloadAllPlugins(c *SignalChainInstance) {
	if c.Generator != nil {
		c.Generator.Close()
		c.Generator = nil
	}
	for i := range c.AudioFX {
		if c.AudioFX[i] != nil {
			c.AudioFX[i].Close()
			c.AudioFX[i] = nil
		}
	}
	for i := range c.MIDIFX {
		if c.MIDIFX[i] != nil {
			c.MIDIFX[i].Close()
			c.MIDIFX[i] = nil
		}
	}
}
