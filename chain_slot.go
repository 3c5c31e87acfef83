// chain_slot.go - ChainSlot and SignalChainInstance, per-block processing
// (spec §3, §4.2)

package main

import "sync"

const (
	numSlots      = 4
	maxMIDIFXPerSlot = 2
	maxAudioFXPerSlot = 3
	muteWindowBlocks  = 8 // ~23ms at 128 frames/44100Hz, spec §4.2
)

const (
	ForwardPassthrough = -2
	ForwardAuto        = -1
)

const ReceiveAllChannels = -1

// SignalChainInstance is the owned plugin set and per-instance state for
// one slot (spec §3).
type SignalChainInstance struct {
	ModuleDir string

	Generator  SoundGenerator
	MIDISource SoundGenerator // MIDI-source sub-plugins share the generator-ish lifecycle of being ticked per block; modeled as a SoundGenerator so render/on_midi share a shape.

	MIDIFX  [maxMIDIFXPerSlot]MIDIFX
	AudioFX [maxAudioFXPerSlot]AudioFX

	MuteCountdown int
	ExternalFXMode bool

	injection     []int16 // non-owning per spec §3; consumed and cleared each block
	smoother      *Smoother
	knobMappings  []*KnobMapping
	knobDescs     map[string]ParameterDescriptor // resolved descriptor per mapping target:param

	Patches      []string
	PatchIndex   int

	DefaultForwardChannel int // from generator capabilities, -1 if unset
}

func NewSignalChainInstance() *SignalChainInstance {
	return &SignalChainInstance{
		smoother:   NewSmoother(),
		PatchIndex: -1,
		DefaultForwardChannel: -1,
	}
}

// TriggerMuteWindow begins (or extends) the post-switch silence window
// (spec §4.2: "triggered at every synth, FX, or patch change").
func (c *SignalChainInstance) TriggerMuteWindow() { c.MuteCountdown = muteWindowBlocks }

// ChainSlot is one of the four parallel signal chains (spec §3).
type ChainSlot struct {
	mu sync.Mutex

	Index  int
	Chain  *SignalChainInstance
	Active bool

	ReceiveChannel int // -1 = all
	ForwardChannel int // -2 passthrough, -1 auto, 0..15 specific

	Volume float64 // linear [0,1]
	Mute   bool
	Solo   bool

	PatchIndex int // -1 for none
	PatchName  string

	Capture CaptureRules

	scratch []int16 // per-block scratch buffer, reused
}

func NewChainSlot(index int) *ChainSlot {
	return &ChainSlot{
		Index:          index,
		Chain:          NewSignalChainInstance(),
		ReceiveChannel: ReceiveAllChannels,
		ForwardChannel: ForwardAuto,
		Volume:         1.0,
		PatchIndex:     -1,
		scratch:        make([]int16, MailboxFramesMax*2),
	}
}

// SetInjection stores non-owning injected audio to be mixed in on the next
// RenderBlock call (spec §3, §4.2 step 4).
func (s *ChainSlot) SetInjection(buf []int16) { s.Chain.injection = buf }

func clampSampleI16(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// RenderBlock executes spec §4.2's six steps for one block of frames and
// leaves the result in s.scratch[:frames*2], always fully written.
func (s *ChainSlot) RenderBlock(frames int, clock ClockStatus, caps HostCapabilities) []int16 {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := frames * 2
	if n > len(s.scratch) {
		n = len(s.scratch)
	}
	buf := s.scratch[:n]

	c := s.Chain

	// 1. MIDI-FX tick: harvest generated messages, dispatch to the synth.
	for i := range c.MIDIFX {
		stage := c.MIDIFX[i]
		if stage == nil {
			continue
		}
		for _, msg := range stage.Tick(frames, caps.SampleRate) {
			if c.Generator != nil {
				c.Generator.OnMIDI(msg, SourceInternal)
			}
		}
	}

	// 2. Synth render.
	if c.Generator != nil {
		c.Generator.RenderBlock(buf, frames)
	} else {
		for i := range buf {
			buf[i] = 0
		}
	}

	// 3. External-FX mode gate: caller (block scheduler) re-invokes
	// ProcessExternalFX after injecting more audio in this same block.
	if c.ExternalFXMode {
		return buf
	}

	s.applyInjectAndFX(buf)
	return buf
}

// ProcessExternalFX runs steps 4-6 of spec §4.2 for slots in external-FX
// mode, called by the scheduler in the same block after it has injected
// additional audio.
func (s *ChainSlot) ProcessExternalFX(buf []int16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyInjectAndFX(buf)
}

func (s *ChainSlot) applyInjectAndFX(buf []int16) {
	c := s.Chain

	// 4. Inject-audio mix: clamp-mix then consume exactly once.
	if c.injection != nil {
		n := len(buf)
		if len(c.injection) < n {
			n = len(c.injection)
		}
		for i := 0; i < n; i++ {
			buf[i] = clampSampleI16(int32(buf[i]) + int32(c.injection[i]))
		}
		c.injection = nil
	}

	// 5. Audio-FX chain, in order, in place.
	for i := range c.AudioFX {
		if c.AudioFX[i] != nil {
			c.AudioFX[i].ProcessBlock(buf, len(buf)/2)
		}
	}

	// 6. Mute countdown.
	if c.MuteCountdown > 0 {
		for i := range buf {
			buf[i] = 0
		}
		c.MuteCountdown--
	}
}

// DispatchMIDI filters then routes one incoming message to the slot per
// spec §4.2's receive-channel/source/range policy, then through the
// MIDI-FX chain, delivering the result to the synth and to any audio-FX
// MIDI handlers.
func (s *ChainSlot) DispatchMIDI(msg Msg, src MIDISource, padUIActive bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ReceiveChannel != ReceiveAllChannels && msg.Channel() != s.ReceiveChannel {
		return
	}
	if !passesSourcePolicy(msg, src, padUIActive) {
		return
	}

	outs := []Msg{msg}
	c := s.Chain
	for i := range c.MIDIFX {
		stage := c.MIDIFX[i]
		if stage == nil {
			continue
		}
		var next []Msg
		for _, m := range outs {
			next = append(next, stage.ProcessMIDI(m)...)
			if len(next) >= maxMIDIFanout {
				next = next[:maxMIDIFanout]
				break
			}
		}
		outs = next
	}

	for _, m := range outs {
		if c.Generator != nil {
			c.Generator.OnMIDI(m, src)
		}
		for i := range c.AudioFX {
			if h, ok := c.AudioFX[i].(AudioFXMIDIHandler); ok {
				h.OnMIDI(m, src)
			}
		}
	}
}
