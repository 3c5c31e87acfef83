// chip_plugin.go - built-in "chip" sound generator, adapted from
// audio_chip.go's SoundChip register-mapped synthesis engine.
//
// audio_chip.go's register map (SQUARE_FREQ, SQUARE_CTRL, FILTER_CUTOFF,
// ...) is kept verbatim; this file is the thin bridge from the
// SoundGenerator ABI (key/value params, MIDI messages, an []int16 render
// target) onto HandleRegisterWrite/GenerateSample, replacing the
// register-bus wiring that machine_bus.go used to provide.

package main

import (
	"fmt"
	"math"
)

func init() {
	RegisterSoundGenerator("chip", newChipGenerator)
	registerFeature("builtin sound generator: chip")
}

// chipParamRegs maps the key/value param names a patch or the UI would
// send (spec §4.4's "prefix:key value" shape, key already stripped of
// its "synth:" prefix) onto audio_chip.go's register addresses.
var chipParamRegs = map[string]uint32{
	"square_freq":  SQUARE_FREQ,
	"square_vol":   SQUARE_VOL,
	"square_duty":  SQUARE_DUTY,
	"square_sweep": SQUARE_SWEEP,
	"square_atk":   SQUARE_ATK,
	"square_dec":   SQUARE_DEC,
	"square_sus":   SQUARE_SUS,
	"square_rel":   SQUARE_REL,

	"tri_freq": TRI_FREQ,
	"tri_vol":  TRI_VOL,
	"tri_atk":  TRI_ATK,
	"tri_dec":  TRI_DEC,
	"tri_sus":  TRI_SUS,
	"tri_rel":  TRI_REL,

	"sine_freq": SINE_FREQ,
	"sine_vol":  SINE_VOL,
	"sine_atk":  SINE_ATK,
	"sine_dec":  SINE_DEC,
	"sine_sus":  SINE_SUS,
	"sine_rel":  SINE_REL,

	"noise_freq": NOISE_FREQ,
	"noise_vol":  NOISE_VOL,
	"noise_mode": NOISE_MODE,
	"noise_atk":  NOISE_ATK,
	"noise_dec":  NOISE_DEC,
	"noise_sus":  NOISE_SUS,
	"noise_rel":  NOISE_REL,

	"filter_cutoff":     FILTER_CUTOFF,
	"filter_resonance":  FILTER_RESONANCE,
	"filter_type":       FILTER_TYPE,
	"filter_mod_source": FILTER_MOD_SOURCE,
	"filter_mod_amount": FILTER_MOD_AMOUNT,
	"overdrive":         OVERDRIVE_CTRL,
	"reverb_mix":        REVERB_MIX,
	"reverb_decay":      REVERB_DECAY,
	"env_shape":         ENV_SHAPE,
}

// chipCtrlRegs gives each of the 4 channels its gate/enable register, for
// OnMIDI's note-on/note-off handling.
var chipCtrlRegs = [NUM_CHANNELS]uint32{SQUARE_CTRL, TRI_CTRL, SINE_CTRL, NOISE_CTRL}
var chipFreqRegs = [NUM_CHANNELS]uint32{SQUARE_FREQ, TRI_FREQ, SINE_FREQ, NOISE_FREQ}
var chipVolRegs = [NUM_CHANNELS]uint32{SQUARE_VOL, TRI_VOL, SINE_VOL, NOISE_VOL}

// chipGenerator adapts a *SoundChip to the SoundGenerator ABI. It owns a
// 4-voice round-robin note allocator since the chip itself has no
// concept of a MIDI voice, only 4 fixed oscillator channels.
type chipGenerator struct {
	chip      *SoundChip
	voices    [NUM_CHANNELS]int8 // MIDI note held by each channel, -1 if free
	nextVoice int
	lastErr   string
}

func newChipGenerator(dir string, config []byte, caps HostCapabilities) (SoundGenerator, error) {
	chip, err := NewSoundChip()
	if err != nil {
		return nil, err
	}
	chip.Start()
	g := &chipGenerator{chip: chip}
	for i := range g.voices {
		g.voices[i] = -1
	}
	return g, nil
}

func (g *chipGenerator) APIVersion() int { return abiVersionSoundGenerator }

// noteToFreq converts a MIDI note number to Hz, A4 (note 69) = 440Hz.
func noteToFreq(note uint8) float32 {
	return float32(440.0 * math.Pow(2, (float64(note)-69)/12))
}

func (g *chipGenerator) OnMIDI(msg Msg, source MIDISource) {
	switch {
	case msg.IsNoteOn():
		ch := g.allocVoice(int8(msg.Data1))
		g.chip.HandleRegisterWrite(chipFreqRegs[ch], uint32(noteToFreq(msg.Data1)*FREQ_REF/REF_FREQ))
		g.chip.HandleRegisterWrite(chipVolRegs[ch], uint32(msg.Data2)*2)
		g.chip.HandleRegisterWrite(chipCtrlRegs[ch], 1|GATE_MASK)
	case msg.IsNoteOff():
		if ch, ok := g.findVoice(int8(msg.Data1)); ok {
			g.chip.HandleRegisterWrite(chipCtrlRegs[ch], 0)
			g.voices[ch] = -1
		}
	}
}

// allocVoice picks a free channel, stealing the oldest one round-robin
// if all 4 are in use.
func (g *chipGenerator) allocVoice(note int8) int {
	for i, v := range g.voices {
		if v == -1 {
			g.voices[i] = note
			return i
		}
	}
	ch := g.nextVoice
	g.nextVoice = (g.nextVoice + 1) % NUM_CHANNELS
	g.voices[ch] = note
	return ch
}

func (g *chipGenerator) findVoice(note int8) (int, bool) {
	for i, v := range g.voices {
		if v == note {
			return i, true
		}
	}
	return 0, false
}

func (g *chipGenerator) SetParam(key, val string) error {
	reg, ok := chipParamRegs[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	var f float64
	if _, err := fmt.Sscanf(val, "%g", &f); err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownKey, val)
	}
	g.chip.HandleRegisterWrite(reg, uint32(f))
	return nil
}

func (g *chipGenerator) GetParam(key string) (string, bool) {
	// audio_chip.go's register map is write-only; readback of a register
	// isn't modeled, so every key reads back as unsupported.
	return "", false
}

func (g *chipGenerator) RenderBlock(out []int16, frames int) {
	for i := 0; i < frames; i++ {
		s := g.chip.GenerateSample()
		v := clampSampleI16(int32(s * 32767))
		out[i*2] = v
		out[i*2+1] = v
	}
}

func (g *chipGenerator) GetError() string { return g.lastErr }

func (g *chipGenerator) Close() {
	g.chip.Stop()
}
