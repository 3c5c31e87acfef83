package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCaptureRulesAddGroupPads(t *testing.T) {
	var r CaptureRules
	r.AddGroup("pads")
	assert.True(t, r.HasNote(0))
	assert.True(t, r.HasNote(31))
	assert.False(t, r.HasNote(32))
}

func TestCaptureRulesAddGroupKnobsIsCC(t *testing.T) {
	var r CaptureRules
	r.AddGroup("knobs")
	assert.True(t, r.HasCC(71))
	assert.True(t, r.HasCC(78))
	assert.False(t, r.HasCC(70))
	assert.False(t, r.HasNote(71), "knobs must populate the CC bitmap, not the note bitmap")
}

func TestCaptureRulesUnknownGroupIgnored(t *testing.T) {
	var r CaptureRules
	r.AddGroup("nonexistent")
	for n := 0; n <= 127; n++ {
		assert.False(t, r.HasNote(n))
	}
}

func TestCaptureRulesOutOfRangeQueriesAreFalse(t *testing.T) {
	var r CaptureRules
	r.AddGroup("pads")
	assert.False(t, r.HasNote(-1))
	assert.False(t, r.HasNote(128))
	assert.False(t, r.HasCC(-1))
	assert.False(t, r.HasCC(128))
}

func TestCaptureRulesJogIsSingleCC(t *testing.T) {
	var r CaptureRules
	r.AddGroup("jog")
	assert.True(t, r.HasCC(84))
	assert.False(t, r.HasCC(83))
	assert.False(t, r.HasCC(85))
}
