// plugin_abi.go - plugin ABI contracts (spec §4.1, §6.6)
//
// Design Note in spec.md §9 ("Replacing dynamic linking as the plugin
// boundary") offers two routes: a build-time tagged-variant registry, or a
// capability-trait object set from a trusted loader when dynamic loading
// is retained. This module takes both: a process-wide registry of
// statically linked built-ins for modules bundled at build time, tried
// first, and Go's plugin package (os/plugin, dlopen-backed, matching the
// source's shared-object loading literally) for out-of-tree .so modules
// as the fallback. Either
// path produces the same three interfaces below, so the rest of the core
// never knows which one a given instance came from.

package main

import "fmt"

// abiVersion values the loader checks strictly (spec §6.6: "Every vtable
// begins with a uint32 api_version whose value the loader checks
// strictly").
const (
	abiVersionSoundGenerator = 2
	abiVersionAudioFX        = 2
	abiVersionMIDIFX         = 1
)

// HostCapabilities is passed to every module's init symbol at load time
// (spec §4.1).
type HostCapabilities struct {
	SampleRate     int
	FramesPerBlock int
	Mailbox        *Mailbox
	Log            func(format string, args ...any)
	SendMIDI       func(port int, msg Msg)
	GetClockStatus func() ClockStatus
}

// ClockStatus answers get_clock_status queries MIDI-FX modules may make
// (spec §7: "MIDI-clock unavailability... a state queryable by MIDI-FX via
// get_clock_status").
type ClockStatus struct {
	Running bool
	BPM     float64
}

// SoundGenerator is the sound-generator-v2 ABI (spec §4.1).
type SoundGenerator interface {
	APIVersion() int
	OnMIDI(msg Msg, source MIDISource)
	SetParam(key, val string) error
	GetParam(key string) (string, bool)
	RenderBlock(out []int16, frames int)
	GetError() string
	Close()
}

// AudioFX is the audio-FX-v2 ABI (spec §4.1). MIDI input is optional: an
// instance receives it only if it also implements AudioFXMIDIHandler.
type AudioFX interface {
	APIVersion() int
	ProcessBlock(buf []int16, frames int)
	SetParam(key, val string) error
	GetParam(key string) (string, bool)
	Close()
}

// AudioFXMIDIHandler is the optional MIDI hook of an AudioFX instance,
// found by type assertion. The .so loader also looks up the
// MoveAudioFXOnMIDI symbol, but only logs when an instance exporting it
// lacks this interface. LuaAudioFX does not implement it.
type AudioFXMIDIHandler interface {
	OnMIDI(msg Msg, source MIDISource)
}

// MIDIFX is the MIDI-FX-v1 ABI (spec §4.1, §4.3).
type MIDIFX interface {
	APIVersion() int
	ProcessMIDI(in Msg) []Msg
	Tick(frames, sampleRate int) []Msg
	SetParam(key, val string) error
	GetParam(key string) (string, bool)
	Close()
}

// clampFanout enforces the 0..16-message bound shared by process_midi and
// tick (spec §4.3, §8).
func clampFanout(msgs []Msg) []Msg {
	if len(msgs) > maxMIDIFanout {
		return msgs[:maxMIDIFanout]
	}
	return msgs
}

func checkABIVersion(got, want int) error {
	if got != want {
		return fmt.Errorf("%w: got %d want %d", ErrVersionMismatch, got, want)
	}
	return nil
}
