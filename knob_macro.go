// knob_macro.go - relative-encoder CC knob macro engine (spec §4.5)

package main

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

const (
	knobCCLo = 71
	knobCCHi = 78

	accelMinMultFloat = 1.0
	accelMaxMultFloat = 8.0
	accelMinMultInt   = 1.0
	accelMaxMultInt   = 3.0

	slowMS = 150.0
	fastMS = 25.0
)

// KnobMapping is one CC->parameter mapping (spec §3).
type KnobMapping struct {
	CC           int
	Target       string // "synth", "fx1".."fx3", "midi_fx1", "midi_fx2"
	Param        string
	CurrentValue float64
	lastTick     time.Time
	hasLastTick  bool
}

// IsKnobCC reports whether cc is in the relative-encoder range [71,78].
func IsKnobCC(cc int) bool { return cc >= knobCCLo && cc <= knobCCHi }

// knobDirection returns +1, -1, or 0 (ignored) for a relative-encoder CC
// value, per spec §4.5: "Value 1 means +1 step; value 127 means -1; other
// values are ignored."
func knobDirection(value int) int {
	switch value {
	case 1:
		return 1
	case 127:
		return -1
	default:
		return 0
	}
}

// accelMultiplier linearly interpolates between ACCEL_MIN_MULT (at
// elapsed >= SLOW_MS) and ACCEL_MAX_MULT (at elapsed <= FAST_MS).
func accelMultiplier(elapsedMS float64, minMult, maxMult float64) float64 {
	if elapsedMS >= slowMS {
		return minMult
	}
	if elapsedMS <= fastMS {
		return maxMult
	}
	frac := (slowMS - elapsedMS) / (slowMS - fastMS)
	return minMult + frac*(maxMult-minMult)
}

// ApplyKnobEvent handles one CC event for a mapping against its resolved
// descriptor, mutating m.CurrentValue and returning the formatted string
// to push through set_param, plus ok=false if the event should be
// ignored (wrong value, or descriptor lookup failure upstream).
func ApplyKnobEvent(m *KnobMapping, desc ParameterDescriptor, value int, now time.Time, resolvedMax float64) (formatted string, ok bool) {
	dir := knobDirection(value)
	if dir == 0 {
		return "", false
	}

	elapsed := slowMS // first-ever tick behaves like a slow tick
	if m.hasLastTick {
		elapsed = float64(now.Sub(m.lastTick)) / float64(time.Millisecond)
	}
	m.lastTick = now
	m.hasLastTick = true

	minMult, maxMult := accelMinMultFloat, accelMaxMultFloat
	if desc.Type != ParamFloat {
		minMult, maxMult = accelMinMultInt, accelMaxMultInt
	}
	accel := accelMultiplier(elapsed, minMult, maxMult)

	step := desc.defaultStep()
	delta := float64(dir) * step * accel

	next := m.CurrentValue + delta
	min := desc.Min
	max := resolvedMax
	if next < min {
		next = min
	}
	if next > max {
		next = max
	}

	switch desc.Type {
	case ParamInt, ParamEnum:
		next = math.Floor(next + 0.5)
		if desc.Type == ParamEnum && len(desc.Options) > 0 && next >= float64(len(desc.Options)) {
			next = float64(len(desc.Options) - 1)
		}
		formatted = strconv.FormatInt(int64(next), 10)
	default:
		formatted = fmt.Sprintf("%.3f", next)
	}

	m.CurrentValue = next
	return formatted, true
}
