package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMsgIsNoteOnRequiresNonzeroVelocity(t *testing.T) {
	assert.True(t, Msg{Status: midiNoteOn, Data1: 60, Data2: 100}.IsNoteOn())
	assert.False(t, Msg{Status: midiNoteOn, Data1: 60, Data2: 0}.IsNoteOn(), "note-on with velocity 0 is a note-off")
}

func TestMsgIsNoteOffCoversBothForms(t *testing.T) {
	assert.True(t, Msg{Status: midiNoteOff, Data1: 60, Data2: 0}.IsNoteOff())
	assert.True(t, Msg{Status: midiNoteOn, Data1: 60, Data2: 0}.IsNoteOff())
	assert.False(t, Msg{Status: midiNoteOn, Data1: 60, Data2: 1}.IsNoteOff())
}

func TestMsgChannelMasksLowNibble(t *testing.T) {
	assert.Equal(t, 5, Msg{Status: midiNoteOn | 0x05}.Channel())
}

func TestPassesSourcePolicyBlocksStepButtonNotes(t *testing.T) {
	m := Msg{Status: midiNoteOn, Data1: 20, Data2: 100}
	assert.False(t, passesSourcePolicy(m, SourceExternal, false))
}

func TestPassesSourcePolicyBlocksPadsWhileUIActive(t *testing.T) {
	m := Msg{Status: midiNoteOn, Data1: 5, Data2: 100}
	assert.False(t, passesSourcePolicy(m, SourcePads, true))
	assert.True(t, passesSourcePolicy(m, SourcePads, false))
}

func TestPassesSourcePolicyAllowsCCRegardlessOfRange(t *testing.T) {
	m := Msg{Status: midiCC, Data1: 20, Data2: 5}
	assert.True(t, passesSourcePolicy(m, SourcePads, true))
}
