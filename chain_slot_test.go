package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChainSlotRenderBlockMixesGeneratorAndAudioFX(t *testing.T) {
	s := NewChainSlot(0)
	s.Chain.Generator = &fakeGenerator{fill: 100}
	s.Chain.AudioFX[0] = &fakeAudioFX{add: 5}

	buf := s.RenderBlock(4, ClockStatus{}, HostCapabilities{SampleRate: 44100})
	for _, v := range buf {
		assert.Equal(t, int16(105), v)
	}
}

func TestChainSlotRenderBlockSilentWithoutGenerator(t *testing.T) {
	s := NewChainSlot(0)
	buf := s.RenderBlock(4, ClockStatus{}, HostCapabilities{SampleRate: 44100})
	for _, v := range buf {
		assert.Equal(t, int16(0), v)
	}
}

func TestChainSlotExternalFXModeDefersStepsFourThroughSix(t *testing.T) {
	s := NewChainSlot(0)
	s.Chain.Generator = &fakeGenerator{fill: 100}
	s.Chain.AudioFX[0] = &fakeAudioFX{add: 5}
	s.Chain.ExternalFXMode = true

	buf := s.RenderBlock(4, ClockStatus{}, HostCapabilities{SampleRate: 44100})
	for _, v := range buf {
		assert.Equal(t, int16(100), v, "audio-FX must not run until ProcessExternalFX is called")
	}

	s.ProcessExternalFX(buf)
	for _, v := range buf {
		assert.Equal(t, int16(105), v)
	}
}

func TestChainSlotInjectionIsMixedOnceThenCleared(t *testing.T) {
	s := NewChainSlot(0)
	s.Chain.Generator = &fakeGenerator{fill: 100}
	s.SetInjection([]int16{10, 10, 10, 10, 10, 10, 10, 10})

	buf := s.RenderBlock(4, ClockStatus{}, HostCapabilities{SampleRate: 44100})
	for _, v := range buf {
		assert.Equal(t, int16(110), v)
	}
	assert.Nil(t, s.Chain.injection, "injection must be consumed exactly once")

	buf2 := s.RenderBlock(4, ClockStatus{}, HostCapabilities{SampleRate: 44100})
	for _, v := range buf2 {
		assert.Equal(t, int16(100), v, "a second block with no new injection must not re-apply the old one")
	}
}

func TestChainSlotMuteCountdownSilencesAndDecrements(t *testing.T) {
	s := NewChainSlot(0)
	s.Chain.Generator = &fakeGenerator{fill: 100}
	s.Chain.TriggerMuteWindow()
	assert.Equal(t, muteWindowBlocks, s.Chain.MuteCountdown)

	for i := 0; i < muteWindowBlocks; i++ {
		buf := s.RenderBlock(4, ClockStatus{}, HostCapabilities{SampleRate: 44100})
		for _, v := range buf {
			assert.Equal(t, int16(0), v)
		}
	}
	assert.Equal(t, 0, s.Chain.MuteCountdown)

	buf := s.RenderBlock(4, ClockStatus{}, HostCapabilities{SampleRate: 44100})
	for _, v := range buf {
		assert.Equal(t, int16(100), v, "mute window expires after muteWindowBlocks renders")
	}
}

func TestChainSlotDispatchMIDIRespectsReceiveChannel(t *testing.T) {
	s := NewChainSlot(0)
	gen := &fakeGenerator{}
	s.Chain.Generator = gen
	s.ReceiveChannel = 3

	s.DispatchMIDI(Msg{Status: midiNoteOn | 2, Data1: 60, Data2: 100}, SourceExternal, false)
	assert.Empty(t, gen.midi, "a message on a non-matching channel must be dropped")

	s.DispatchMIDI(Msg{Status: midiNoteOn | 3, Data1: 60, Data2: 100}, SourceExternal, false)
	assert.Len(t, gen.midi, 1)
}

func TestChainSlotDispatchMIDIReceiveAllChannelsAcceptsEverything(t *testing.T) {
	s := NewChainSlot(0)
	gen := &fakeGenerator{}
	s.Chain.Generator = gen

	s.DispatchMIDI(Msg{Status: midiNoteOn | 7, Data1: 60, Data2: 100}, SourceExternal, false)
	assert.Len(t, gen.midi, 1)
}

func TestClampSampleI16ClampsToInt16Range(t *testing.T) {
	assert.Equal(t, int16(32767), clampSampleI16(40000))
	assert.Equal(t, int16(-32768), clampSampleI16(-40000))
	assert.Equal(t, int16(100), clampSampleI16(100))
}

type fakeGenerator struct {
	fill int16
	midi []Msg
}

func (g *fakeGenerator) APIVersion() int { return abiVersionSoundGenerator }
func (g *fakeGenerator) OnMIDI(msg Msg, source MIDISource) {
	g.midi = append(g.midi, msg)
}
func (g *fakeGenerator) SetParam(key, val string) error    { return nil }
func (g *fakeGenerator) GetParam(key string) (string, bool) { return "", false }
func (g *fakeGenerator) RenderBlock(out []int16, frames int) {
	for i := range out {
		out[i] = g.fill
	}
}
func (g *fakeGenerator) GetError() string { return "" }
func (g *fakeGenerator) Close()           {}

type fakeAudioFX struct {
	add int16
}

func (f *fakeAudioFX) APIVersion() int { return abiVersionAudioFX }
func (f *fakeAudioFX) ProcessBlock(buf []int16, frames int) {
	for i := range buf {
		buf[i] = clampSampleI16(int32(buf[i]) + int32(f.add))
	}
}
func (f *fakeAudioFX) SetParam(key, val string) error     { return nil }
func (f *fakeAudioFX) GetParam(key string) (string, bool) { return "", false }
func (f *fakeAudioFX) Close()                             {}
