package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestSmootherJumpsCurrentImmediately(t *testing.T) {
	s := NewSmoother()
	s.SetTarget("fx1:cutoff", 0.5)
	v, ok := s.Current("fx1:cutoff")
	assert.True(t, ok)
	assert.Equal(t, 0.5, v)

	s.SetTarget("fx1:cutoff", 0.9)
	v, ok = s.Current("fx1:cutoff")
	assert.True(t, ok)
	assert.Equal(t, 0.9, v, "current must jump to the new target, not interpolate")
}

func TestSmootherStepInterpolatesOutputSeparatelyFromCurrent(t *testing.T) {
	s := NewSmoother()
	s.SetTarget("synth:vol", 0.0)
	s.Step()
	s.SetTarget("synth:vol", 1.0)

	out := s.Step()
	if got := out["synth:vol"]; got <= 0 || got >= 1 {
		t.Fatalf("expected first step to be partway, got %v", got)
	}
	v, _ := s.Current("synth:vol")
	assert.Equal(t, 1.0, v, "current reads must already see the jumped target")
}

func TestSmootherConvergesAndGoesIdle(t *testing.T) {
	s := NewSmoother()
	s.SetTarget("fx2:mix", 0.3)
	for i := 0; i < 200 && !s.Idle(); i++ {
		s.Step()
	}
	assert.True(t, s.Idle())
}

func TestSmootherResetClearsTargets(t *testing.T) {
	s := NewSmoother()
	s.SetTarget("a", 1)
	s.SetTarget("b", 2)
	s.Reset()
	assert.True(t, s.Idle())
	_, ok := s.Current("a")
	assert.False(t, ok)
}

func TestSmootherTargetTableIsBounded(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := NewSmoother()
		n := rapid.IntRange(1, 64).Draw(rt, "n")
		for i := 0; i < n; i++ {
			s.SetTarget(rapid.StringMatching(`[a-z]{1,8}`).Draw(rt, "key"), rapid.Float64().Draw(rt, "v"))
		}
		if len(s.targets) > smoothingMaxTargets {
			rt.Fatalf("target table exceeded bound: %d > %d", len(s.targets), smoothingMaxTargets)
		}
	})
}
