// sampler.go - quantized sampler (spec §4.8)
//
// Grounded on original_source/src/host/shadow_sampler.c: ring-buffer
// production from the audio thread, a condition-variable-driven writer
// thread, the five-link tempo-fallback chain, and the bar-quantized target
// pulse count.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lestrrat-go/strftime"
)

type SamplerState int

const (
	SamplerIdle SamplerState = iota
	SamplerArmed
	SamplerPreroll
	SamplerRecording
)

type SamplerSource int

const (
	SamplerSourceResampleBus SamplerSource = iota
	SamplerSourceInputBus
)

// durationOptions is the fixed bar-count list; index 3 (4 bars) is
// default, 0 means unlimited (spec §4.8).
var durationOptions = []int{0, 1, 2, 4, 8, 16}

const defaultDurationIndex = 3

const samplerRingSeconds = 2
const samplerRingFrames = samplerRingSeconds * wavSampleRate

// Sampler is the quantized-recording state machine (spec §3, §4.8).
type Sampler struct {
	mu sync.Mutex

	state         SamplerState
	source        SamplerSource
	durationIndex int
	prerollEnable bool

	settings EngineSettings
	clock    *clockTracker

	ring        []int16 // stereo i16, samplerRingFrames frames
	ringWritePos int
	ringReadPos  int
	ringCount    int // frames currently buffered

	targetPulses   int
	pulseCount     int
	fallbackTarget int
	fallbackBlocks int

	samplesWritten uint32
	outPath        string
	file           *os.File

	writerWake chan struct{}
	writerDone chan struct{}
	writerStop bool

	setTempoBPM float64 // parsed from the active set's Song.abl, 0 if unknown
}

func NewSampler(settings EngineSettings, clock *clockTracker) *Sampler {
	return &Sampler{
		durationIndex: defaultDurationIndex,
		prerollEnable: false,
		settings:      settings,
		clock:         clock,
		ring:          make([]int16, samplerRingFrames*2),
	}
}

// GetBPM resolves the tempo-fallback chain of spec §4.8, in order:
// active MIDI clock, the set's tempo, last-known MIDI-clock BPM, the
// settings file, then the hardcoded default.
func (s *Sampler) GetBPM() (bpm float64, source string) {
	status := s.clock.status()
	if status.Running && status.BPM >= 20 {
		return status.BPM, "midi-clock"
	}
	if s.setTempoBPM >= 20 {
		return s.setTempoBPM, "set-tempo"
	}
	s.clock.mu.Lock()
	lastKnown := s.clock.lastKnownBPM
	s.clock.mu.Unlock()
	if lastKnown >= 20 {
		return lastKnown, "last-known"
	}
	if s.settings.TempoBPM >= 20 {
		return float64(s.settings.TempoBPM), "settings-file"
	}
	return defaultTempoBPM, "default"
}

// Arm transitions IDLE -> ARMED.
func (s *Sampler) Arm(source SamplerSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SamplerIdle {
		return
	}
	s.source = source
	s.state = SamplerArmed
}

// recordingFilename builds "sample_YYYYMMDD_HHMMSS_<bpm>bpm.wav" via a
// compiled strftime pattern (SPEC_FULL DOMAIN STACK: lestrrat-go/strftime),
// matching shadow_sampler.c's snprintf format string.
func recordingFilename(now time.Time, bpm float64) (string, error) {
	p, err := strftime.New("sample_%Y%m%d_%H%M%S")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%dbpm.wav", p.FormatString(now), int(bpm+0.5)), nil
}

// dateDir builds "<root>/YYYY-MM-DD".
func dateDir(root string, now time.Time) (string, error) {
	p, err := strftime.New("%Y-%m-%d")
	if err != nil {
		return "", err
	}
	return filepath.Join(root, p.FormatString(now)), nil
}

// StartRecording begins RECORDING directly (preroll disabled path) or is
// called after PREROLL completes. now is the caller's wall-clock time
// (injected so tests are deterministic).
func (s *Sampler) StartRecording(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bpm, _ := s.GetBPM()
	dir, err := dateDir(s.settings.RecordingsDir, now)
	if err != nil {
		return Wrap(KindSampler, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Wrap(KindSampler, err)
	}
	name, err := recordingFilename(now, bpm)
	if err != nil {
		return Wrap(KindSampler, err)
	}
	s.outPath = filepath.Join(dir, name)

	f, err := os.Create(s.outPath)
	if err != nil {
		return Wrap(KindSampler, fmt.Errorf("%w: %v", ErrFileOpen, err))
	}
	if err := writePlaceholderWAVHeader(f); err != nil {
		f.Close()
		return Wrap(KindSampler, err)
	}
	s.file = f
	s.samplesWritten = 0
	s.ringWritePos, s.ringReadPos, s.ringCount = 0, 0, 0

	bars := durationOptions[s.durationIndex]
	if bars > 0 {
		s.targetPulses = bars * 4 * 24
		seconds := float64(bars) * 4.0 * 60.0 / bpm
		s.fallbackTarget = int(seconds * (wavSampleRate / float64(MailboxFramesMax)))
	} else {
		s.targetPulses = 0
		s.fallbackTarget = 0
	}
	s.pulseCount = 0
	s.fallbackBlocks = 0

	s.writerWake = make(chan struct{}, 1)
	s.writerDone = make(chan struct{})
	s.writerStop = false
	go s.writerLoop()

	s.state = SamplerRecording
	return nil
}

// PushBlock is called once per audio block with post-FX or input-bus
// samples while RECORDING; it copies into the ring and wakes the writer.
func (s *Sampler) PushBlock(samples []int16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SamplerRecording {
		return
	}
	frames := len(samples) / 2
	free := samplerRingFrames - s.ringCount
	if frames > free {
		frames = free // drop overflow rather than block the audio thread
	}
	for i := 0; i < frames; i++ {
		idx := (s.ringWritePos + i) % samplerRingFrames
		s.ring[idx*2] = samples[i*2]
		s.ring[idx*2+1] = samples[i*2+1]
	}
	s.ringWritePos = (s.ringWritePos + frames) % samplerRingFrames
	s.ringCount += frames

	select {
	case s.writerWake <- struct{}{}:
	default:
	}

	s.fallbackBlocks++
	if s.targetPulses == 0 && s.fallbackTarget > 0 && s.fallbackBlocks >= s.fallbackTarget {
		s.stopLocked()
	}
}

// HandleClockTick advances the target-pulse counter while RECORDING or
// PREROLL (spec §4.8's MIDI clock handling).
func (s *Sampler) HandleClockTick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SamplerRecording && s.state != SamplerPreroll {
		return
	}
	s.pulseCount++
	if s.targetPulses > 0 && s.pulseCount >= s.targetPulses {
		if s.state == SamplerPreroll {
			s.state = SamplerRecording // caller still needs to StartRecording
		} else {
			s.stopLocked()
		}
	}
}

// HandleMIDIStop aborts preroll or stops recording (spec §4.8).
func (s *Sampler) HandleMIDIStop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case SamplerPreroll:
		s.state = SamplerArmed
	case SamplerRecording:
		s.stopLocked()
	}
}

// Stop is the user-gesture/external stop path.
func (s *Sampler) Stop() { s.mu.Lock(); s.stopLocked(); s.mu.Unlock() }

func (s *Sampler) stopLocked() {
	if s.state != SamplerRecording {
		s.state = SamplerIdle
		return
	}
	s.writerStop = true
	select {
	case s.writerWake <- struct{}{}:
	default:
	}
	done := s.writerDone
	s.mu.Unlock()
	<-done
	s.mu.Lock()

	dataSize := s.samplesWritten * wavChannels * (wavBitsPerSamp / 8)
	if s.file != nil {
		writeWAVHeader(s.file, dataSize)
		s.file.Close()
		s.file = nil
	}
	s.state = SamplerIdle
}

// writerLoop drains the ring in ~250ms chunks, appending to the open
// file, until writerStop is set and the ring is empty (spec §4.8).
func (s *Sampler) writerLoop() {
	defer close(s.writerDone)
	const chunkFrames = wavSampleRate / 4 // ~250ms
	for {
		<-s.writerWake
		for {
			s.mu.Lock()
			if s.ringCount == 0 {
				stop := s.writerStop
				s.mu.Unlock()
				if stop {
					return
				}
				break
			}
			n := s.ringCount
			if n > chunkFrames {
				n = chunkFrames
			}
			buf := make([]int16, n*2)
			for i := 0; i < n; i++ {
				idx := (s.ringReadPos + i) % samplerRingFrames
				buf[i*2] = s.ring[idx*2]
				buf[i*2+1] = s.ring[idx*2+1]
			}
			s.ringReadPos = (s.ringReadPos + n) % samplerRingFrames
			s.ringCount -= n
			s.samplesWritten += uint32(n)
			f := s.file
			s.mu.Unlock()

			if f != nil {
				f.Write(interleaveI16ToBytes(buf))
			}
		}
	}
}

func (s *Sampler) State() SamplerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
