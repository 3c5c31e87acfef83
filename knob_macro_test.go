package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestIsKnobCCRange(t *testing.T) {
	assert.False(t, IsKnobCC(70))
	assert.True(t, IsKnobCC(71))
	assert.True(t, IsKnobCC(78))
	assert.False(t, IsKnobCC(79))
}

func TestKnobDirectionIgnoresOtherValues(t *testing.T) {
	assert.Equal(t, 1, knobDirection(1))
	assert.Equal(t, -1, knobDirection(127))
	assert.Equal(t, 0, knobDirection(64))
	assert.Equal(t, 0, knobDirection(0))
}

func TestApplyKnobEventIgnoresNonDirectionValues(t *testing.T) {
	m := &KnobMapping{Target: "synth", Param: "cutoff"}
	desc := ParameterDescriptor{Type: ParamFloat, Min: 0, Max: 1}
	_, ok := ApplyKnobEvent(m, desc, 64, time.Now(), 1)
	assert.False(t, ok)
}

func TestApplyKnobEventClampsToResolvedMax(t *testing.T) {
	m := &KnobMapping{CurrentValue: 0.999}
	desc := ParameterDescriptor{Type: ParamFloat, Min: 0, Max: 1, Step: 1}
	formatted, ok := ApplyKnobEvent(m, desc, 1, time.Now(), 1.0)
	assert.True(t, ok)
	assert.Equal(t, "1.000", formatted)
	assert.Equal(t, 1.0, m.CurrentValue)
}

func TestApplyKnobEventClampsToMin(t *testing.T) {
	m := &KnobMapping{CurrentValue: 0.0005}
	desc := ParameterDescriptor{Type: ParamFloat, Min: 0, Max: 1, Step: 1}
	_, ok := ApplyKnobEvent(m, desc, 127, time.Now(), 1.0)
	assert.True(t, ok)
	assert.Equal(t, 0.0, m.CurrentValue)
}

func TestApplyKnobEventIntFormatsAsWholeNumber(t *testing.T) {
	m := &KnobMapping{CurrentValue: 5}
	desc := ParameterDescriptor{Type: ParamInt, Min: 0, Max: 100, Step: 1}
	formatted, ok := ApplyKnobEvent(m, desc, 1, time.Now(), 100)
	assert.True(t, ok)
	assert.Equal(t, "6", formatted)
}

func TestApplyKnobEventEnumClampsToLastOption(t *testing.T) {
	m := &KnobMapping{CurrentValue: 2}
	desc := ParameterDescriptor{Type: ParamEnum, Min: 0, Max: 10, Step: 1, Options: []string{"a", "b", "c"}}
	formatted, ok := ApplyKnobEvent(m, desc, 1, time.Now(), 10)
	assert.True(t, ok)
	assert.Equal(t, "2", formatted, "index 2 is the last valid option for a 3-entry enum")
}

func TestAccelMultiplierBoundsHold(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		elapsed := rapid.Float64Range(0, 10000).Draw(rt, "elapsed")
		mult := accelMultiplier(elapsed, accelMinMultFloat, accelMaxMultFloat)
		if mult < accelMinMultFloat || mult > accelMaxMultFloat {
			rt.Fatalf("accel multiplier %v out of bounds [%v,%v]", mult, accelMinMultFloat, accelMaxMultFloat)
		}
	})
}

func TestApplyKnobEventNeverExceedsDescriptorBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		min := rapid.Float64Range(0, 10).Draw(rt, "min")
		max := min + rapid.Float64Range(0.1, 10).Draw(rt, "range")
		m := &KnobMapping{CurrentValue: rapid.Float64Range(min, max).Draw(rt, "start")}
		desc := ParameterDescriptor{Type: ParamFloat, Min: min, Max: max, Step: rapid.Float64Range(0.001, 1).Draw(rt, "step")}
		value := rapid.SampledFrom([]int{1, 127}).Draw(rt, "value")
		_, ok := ApplyKnobEvent(m, desc, value, time.Now(), max)
		if !ok {
			rt.Fatal("expected direction value to be accepted")
		}
		if m.CurrentValue < min || m.CurrentValue > max {
			rt.Fatalf("knob value %v escaped bounds [%v,%v]", m.CurrentValue, min, max)
		}
	})
}
