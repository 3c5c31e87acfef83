package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSampler(t *testing.T) *Sampler {
	settings := EngineSettings{
		TempoBPM:      defaultTempoBPM,
		RecordingsDir: t.TempDir(),
		SkipbackDir:   t.TempDir(),
	}
	return NewSampler(settings, &clockTracker{})
}

func TestSamplerArmTransitionsIdleToArmed(t *testing.T) {
	s := newTestSampler(t)
	assert.Equal(t, SamplerIdle, s.State())
	s.Arm(SamplerSourceResampleBus)
	assert.Equal(t, SamplerArmed, s.State())
}

func TestSamplerArmIsNoOpUnlessIdle(t *testing.T) {
	s := newTestSampler(t)
	s.Arm(SamplerSourceResampleBus)
	s.Arm(SamplerSourceInputBus)
	assert.Equal(t, SamplerSourceResampleBus, s.source, "a second Arm call while already armed must not change the source")
}

func TestSamplerGetBPMFallsBackToDefaultWithNothingElseSet(t *testing.T) {
	s := newTestSampler(t)
	s.settings.TempoBPM = 0
	bpm, source := s.GetBPM()
	assert.Equal(t, float64(defaultTempoBPM), bpm)
	assert.Equal(t, "default", source)
}

func TestSamplerGetBPMUsesSettingsFileBeforeDefault(t *testing.T) {
	s := newTestSampler(t)
	s.settings.TempoBPM = 140
	bpm, source := s.GetBPM()
	assert.Equal(t, float64(140), bpm)
	assert.Equal(t, "settings-file", source)
}

func TestSamplerGetBPMPrefersLastKnownOverSettingsFile(t *testing.T) {
	s := newTestSampler(t)
	s.settings.TempoBPM = 140
	s.clock.lastKnownBPM = 128
	bpm, source := s.GetBPM()
	assert.Equal(t, float64(128), bpm)
	assert.Equal(t, "last-known", source)
}

func TestSamplerGetBPMPrefersSetTempoOverLastKnown(t *testing.T) {
	s := newTestSampler(t)
	s.clock.lastKnownBPM = 128
	s.setTempoBPM = 110
	bpm, source := s.GetBPM()
	assert.Equal(t, float64(110), bpm)
	assert.Equal(t, "set-tempo", source)
}

func TestSamplerGetBPMPrefersRunningMIDIClockOverEverything(t *testing.T) {
	s := newTestSampler(t)
	s.setTempoBPM = 110
	s.clock.running = true
	s.clock.measuredBPM = 174
	bpm, source := s.GetBPM()
	assert.Equal(t, float64(174), bpm)
	assert.Equal(t, "midi-clock", source)
}

func TestSamplerGetBPMIgnoresStoppedMIDIClock(t *testing.T) {
	s := newTestSampler(t)
	s.clock.running = false
	s.clock.measuredBPM = 174
	s.setTempoBPM = 110
	bpm, source := s.GetBPM()
	assert.Equal(t, float64(110), bpm)
	assert.Equal(t, "set-tempo", source)
}

func TestSamplerStartRecordingTransitionsToRecordingAndWritesPlaceholderHeader(t *testing.T) {
	s := newTestSampler(t)
	s.Arm(SamplerSourceResampleBus)
	require.NoError(t, s.StartRecording(time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, SamplerRecording, s.State())
	assert.FileExists(t, s.outPath)
	s.Stop()
}

func TestSamplerStopFlushesRingAndClosesFileWithFinalHeader(t *testing.T) {
	s := newTestSampler(t)
	s.Arm(SamplerSourceResampleBus)
	require.NoError(t, s.StartRecording(time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)))

	samples := make([]int16, 100*2)
	s.PushBlock(samples)
	s.Stop()

	assert.Equal(t, SamplerIdle, s.State())
	assert.Nil(t, s.file)
}

func TestSamplerPushBlockIgnoredUnlessRecording(t *testing.T) {
	s := newTestSampler(t)
	s.PushBlock(make([]int16, 20))
	assert.Equal(t, 0, s.ringCount)
}

func TestSamplerPushBlockDropsOverflowInsteadOfBlocking(t *testing.T) {
	s := newTestSampler(t)
	s.Arm(SamplerSourceResampleBus)
	require.NoError(t, s.StartRecording(time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)))
	defer s.Stop()

	huge := make([]int16, (samplerRingFrames+1000)*2)
	s.PushBlock(huge)
	assert.LessOrEqual(t, s.ringCount, samplerRingFrames)
}

func TestSamplerHandleMIDIStopAbortsPreroll(t *testing.T) {
	s := newTestSampler(t)
	s.Arm(SamplerSourceResampleBus)
	s.mu.Lock()
	s.state = SamplerPreroll
	s.mu.Unlock()

	s.HandleMIDIStop()
	assert.Equal(t, SamplerArmed, s.State())
}

func TestSamplerHandleMIDIStopStopsRecording(t *testing.T) {
	s := newTestSampler(t)
	s.Arm(SamplerSourceResampleBus)
	require.NoError(t, s.StartRecording(time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)))

	s.HandleMIDIStop()
	assert.Equal(t, SamplerIdle, s.State())
}

func TestSamplerHandleClockTickIgnoredWhenIdle(t *testing.T) {
	s := newTestSampler(t)
	s.HandleClockTick()
	assert.Equal(t, 0, s.pulseCount)
}

func TestSamplerHandleClockTickCompletesPrerollIntoRecording(t *testing.T) {
	s := newTestSampler(t)
	s.Arm(SamplerSourceResampleBus)
	s.mu.Lock()
	s.state = SamplerPreroll
	s.targetPulses = 2
	s.mu.Unlock()

	s.HandleClockTick()
	assert.Equal(t, SamplerPreroll, s.State())
	s.HandleClockTick()
	assert.Equal(t, SamplerRecording, s.State(), "reaching targetPulses during preroll flips to recording, caller still owns StartRecording")
}

func TestRecordingFilenameEmbedsTimestampAndRoundedBPM(t *testing.T) {
	name, err := recordingFilename(time.Date(2026, 7, 31, 9, 5, 3, 0, time.UTC), 139.6)
	require.NoError(t, err)
	assert.Equal(t, "sample_20260731_090503_140bpm.wav", name)
}
