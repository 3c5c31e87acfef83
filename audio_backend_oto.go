//go:build !headless

// audio_backend_oto.go - dev-mode audio monitor sink, OTO v3 backend.
//
// Adapted from the teacher's OtoPlayer: that type pulled float32 samples
// straight from a *SoundChip's ring buffer. The new engine already mixes
// every slot down to an int16 stereo buffer in the mailbox (scheduler.go),
// so this sink instead drains the mailbox's last-written block and feeds
// it to oto as float32 frames — a monitor path for running the engine on
// a developer machine with real speakers, not a requirement of the wire
// protocol itself.

package main

import (
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
)

func init() {
	registerFeature("monitor sink (oto/v3)")
}

// MonitorSink plays whatever RunBlock last wrote to the mailbox through
// the host's default audio device.
type MonitorSink struct {
	ctx     *oto.Context
	player  *oto.Player
	mb      *Mailbox
	started bool
	mu      sync.Mutex
}

func NewMonitorSink(mb *Mailbox, sampleRate int) (*MonitorSink, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   4,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	sink := &MonitorSink{ctx: ctx, mb: mb}
	sink.player = ctx.NewPlayer(sink)
	return sink, nil
}

// Read implements io.Reader for oto.Player: it pulls frames out of the
// mailbox's output region and converts them to float32LE.
func (s *MonitorSink) Read(p []byte) (int, error) {
	numSamples := len(p) / 4
	frames := numSamples / 2
	if frames <= 0 {
		return 0, nil
	}
	i16 := s.mb.ReadOutput(frames)
	for i := 0; i < numSamples; i++ {
		var v int16
		if i < len(i16) {
			v = i16[i]
		}
		f := float32(v) / 32768.0
		putFloat32LE(p[i*4:i*4+4], f)
	}
	return len(p), nil
}

func putFloat32LE(b []byte, f float32) {
	bits := math.Float32bits(f)
	b[0] = byte(bits)
	b[1] = byte(bits >> 8)
	b[2] = byte(bits >> 16)
	b[3] = byte(bits >> 24)
}

func (s *MonitorSink) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		s.player.Play()
		s.started = true
	}
}

func (s *MonitorSink) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		s.player.Pause()
		s.started = false
	}
}

func (s *MonitorSink) Close() {
	s.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player.Close()
}

func (s *MonitorSink) IsStarted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}
