// midi.go - MIDI message types and note-range filtering (spec §4.2, §4.8)

package main

// MIDI status nibbles the core cares about.
const (
	midiNoteOff       = 0x80
	midiNoteOn        = 0x90
	midiCC            = 0xB0
	midiClockStart    = 0xFA
	midiClockContinue = 0xFB
	midiClockStop     = 0xFC
	midiClockTick     = 0xF8
)

// MIDISource tags where a message originated, so per-source note-range
// policy (§4.2) and capture-rule lookups can be applied.
type MIDISource int

const (
	SourceExternal MIDISource = iota
	SourcePads
	SourceSteps
	SourceInternal
)

// Msg is a single (status|channel, data1, data2) MIDI message, the unit
// the plugin ABIs and MIDI-FX chain operate on.
type Msg struct {
	Status byte
	Data1  byte
	Data2  byte
}

func (m Msg) Kind() byte     { return m.Status & 0xF0 }
func (m Msg) Channel() int   { return int(m.Status & 0x0F) }
func (m Msg) IsNoteOn() bool { return m.Kind() == midiNoteOn && m.Data2 > 0 }
func (m Msg) IsNoteOff() bool {
	return m.Kind() == midiNoteOff || (m.Kind() == midiNoteOn && m.Data2 == 0)
}
func (m Msg) IsCC() bool { return m.Kind() == midiCC }

// stepButtonNoteRange is Move's step-button note range: these notes are
// never forwarded to a synth (§4.2).
const (
	stepButtonNoteLo = 16
	stepButtonNoteHi = 31
)

// passesSourcePolicy applies the source-specific note-range policy from
// §4.2: step-button notes never reach a synth; pad-range notes are
// suppressed while the MIDI source sub-plugin reports its own UI active.
func passesSourcePolicy(m Msg, src MIDISource, padUIActive bool) bool {
	if m.IsNoteOn() || m.IsNoteOff() {
		n := int(m.Data1)
		if n >= stepButtonNoteLo && n <= stepButtonNoteHi {
			return false
		}
		if src == SourcePads && padUIActive {
			return false
		}
	}
	return true
}

// maxMIDIFanout bounds the number of messages any single MIDI-FX stage
// (or tick) may emit, per §4.3 and the testable property in §8.
const maxMIDIFanout = 16
