// scheduler.go - audio block scheduler (spec §4.11)

package main

// RunBlock executes one audio-block cycle: read MIDI, render every slot,
// sum with mute/solo resolved, run master FX, feed sampler/skipback, write
// the mailbox output. incomingMIDI is everything queued since the last
// block, already tagged with its MIDISource.
func (e *Engine) RunBlock(frames int, incomingMIDI []struct {
	Msg    Msg
	Source MIDISource
}, padUIActive bool) {
	clock := e.clock.status()

	// (a) route queued MIDI to slots per channel/source/filter.
	for _, ev := range incomingMIDI {
		for _, slot := range e.Slots {
			slot.DispatchMIDI(ev.Msg, ev.Source, padUIActive)
		}
	}

	// (b) render each of the four slots.
	rendered := make([][]int16, numSlots)
	anySolo := false
	for i, slot := range e.Slots {
		out := slot.RenderBlock(frames, clock, e.Caps)
		if slot.Chain.ExternalFXMode {
			slot.ProcessExternalFX(out)
		}
		rendered[i] = append([]int16(nil), out...)
		if slot.Solo {
			anySolo = true
		}
	}

	// (c) sum with slot volume, respecting mute/solo.
	mix := make([]int16, frames*2)
	for i, slot := range e.Slots {
		if slot.Mute {
			continue
		}
		if anySolo && !slot.Solo {
			continue
		}
		buf := rendered[i]
		for j := range mix {
			if j >= len(buf) {
				break
			}
			scaled := int32(float64(buf[j]) * slot.Volume)
			mix[j] = clampSampleI16(int32(mix[j]) + scaled)
		}
	}

	// (d) master-FX chain, in slot order.
	e.MasterFX.ProcessBlock(mix, frames)

	// (e) push to sampler (if RECORDING) and skipback (always, unless saving).
	if e.Sampler.State() == SamplerRecording {
		e.Sampler.PushBlock(mix)
	}
	e.Skipback.PushBlock(mix)

	// (f) write result to mailbox.
	e.Mailbox.WriteOutput(mix)

	e.Overlay.Tick()
}
