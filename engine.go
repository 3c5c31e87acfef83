// engine.go - process-wide owner of the four ChainSlots and master FX
// (spec §9 Design Note "Replacing global mutable state")
//
// The source keeps four ChainSlots and the master-FX array as process-wide
// singletons. SPEC_FULL follows the Design Note's guidance: construct them
// once at audio-engine init and thread an owner handle (Engine) through
// every subsystem that touches them, rather than reaching for package-level
// globals.

package main

import (
	"sync"
	"time"
)

// Engine owns every per-process singleton the core needs: the four chain
// slots, the master-FX chain, the patch store, sampler, skipback recorder,
// set-page multiplexer, and the mailbox/overlay/screen-reader surfaces.
type Engine struct {
	mu sync.Mutex

	Mailbox *Mailbox
	Caps    HostCapabilities

	Slots     [numSlots]*ChainSlot
	MasterFX  *MasterFXChain
	Patches   *PatchStore
	Sampler   *Sampler
	Skipback  *Skipback
	SetPages  *SetPageMultiplexer
	Overlay   *OverlayState
	Announcer *ScreenReaderQueue
	Settings  EngineSettings

	Recording       bool
	ComponentUIMode string // "" = no on-device editor open

	clock clockTracker
}

func NewEngine(mb *Mailbox, settings EngineSettings, patchDir, masterPresetDir string) *Engine {
	e := &Engine{
		Mailbox:   mb,
		Patches:   NewPatchStore(patchDir),
		MasterFX:  NewMasterFXChain(masterPresetDir),
		Overlay:   &OverlayState{},
		Announcer: NewScreenReaderQueue(),
		Settings:  settings,
	}
	for i := range e.Slots {
		e.Slots[i] = NewChainSlot(i)
	}
	e.Caps = HostCapabilities{
		SampleRate:     44100,
		FramesPerBlock: MailboxFramesMax,
		Mailbox:        mb,
		Log:            func(string, ...any) {},
		SendMIDI:       func(int, Msg) {},
		GetClockStatus: e.clock.status,
	}
	e.Sampler = NewSampler(settings, &e.clock)
	e.Skipback = NewSkipback()
	return e
}

// clockTracker measures MIDI-clock BPM across 24-tick beats and feeds the
// tempo-fallback chain (spec §4.8).
type clockTracker struct {
	mu           sync.Mutex
	running      bool
	tickCount    int
	lastBeatTime time.Time
	measuredBPM  float64
	lastKnownBPM float64
}

func (c *clockTracker) status() ClockStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ClockStatus{Running: c.running, BPM: c.measuredBPM}
}

// HandleClockMsg updates tracker state from a raw transport byte
// (0xFA start, 0xFC stop, 0xF8 tick).
func (c *clockTracker) HandleClockMsg(status byte, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch status {
	case midiClockStart, midiClockContinue:
		c.running = true
		c.tickCount = 0
		c.lastBeatTime = now
	case midiClockStop:
		c.running = false
		if c.measuredBPM > 0 {
			c.lastKnownBPM = c.measuredBPM
		}
	case midiClockTick:
		if !c.running {
			return
		}
		c.tickCount++
		if c.tickCount%24 == 0 {
			elapsed := now.Sub(c.lastBeatTime).Seconds()
			if elapsed > 0 {
				c.measuredBPM = 60.0 / elapsed
				c.lastKnownBPM = c.measuredBPM
			}
			c.lastBeatTime = now
		}
	}
}
