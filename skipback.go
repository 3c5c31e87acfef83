// skipback.go - 30-second rolling skipback recorder (spec §4.9)

package main

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/lestrrat-go/strftime"
)

const skipbackSeconds = 30
const skipbackRingFrames = skipbackSeconds * wavSampleRate

// Skipback is a continuously-filled 30-second ring; write_pos and full are
// atomic so a background saver can read a stable snapshot concurrently
// with the audio thread's writes (spec §3, §5).
type Skipback struct {
	ring []int16 // stereo i16, skipbackRingFrames frames

	writePos atomic.Int64
	full     atomic.Bool
	saving   atomic.Bool

	dir string
}

func NewSkipback() *Skipback {
	return &Skipback{ring: make([]int16, skipbackRingFrames*2)}
}

// PushBlock is called once per audio block with post-master output; it is
// skipped entirely while a save is in progress (spec §4.9: "the audio
// thread must skip capture while saving is set").
func (sb *Skipback) PushBlock(samples []int16) {
	if sb.saving.Load() {
		return
	}
	frames := len(samples) / 2
	pos := int(sb.writePos.Load())
	for i := 0; i < frames; i++ {
		idx := (pos + i) % skipbackRingFrames
		sb.ring[idx*2] = samples[i*2]
		sb.ring[idx*2+1] = samples[i*2+1]
	}
	newPos := pos + frames
	if newPos >= skipbackRingFrames {
		sb.full.Store(true)
		newPos %= skipbackRingFrames
	}
	sb.writePos.Store(int64(newPos)) // release: published after the whole block is written
}

// Trigger starts a background save, returning immediately. If a save is
// already in progress it pushes "Skipback saving in progress" to
// announcer and returns false (spec §8 boundary behavior).
func (sb *Skipback) Trigger(dir string, now time.Time, overlay *OverlayState, announcer *ScreenReaderQueue) bool {
	if !sb.saving.CompareAndSwap(false, true) {
		announcer.Push("Skipback saving in progress")
		return false
	}
	sb.dir = dir
	go sb.save(now, overlay, announcer)
	return true
}

func (sb *Skipback) save(now time.Time, overlay *OverlayState, announcer *ScreenReaderQueue) {
	defer sb.saving.Store(false)

	pos := int(sb.writePos.Load())
	full := sb.full.Load()

	var start, n int
	if full {
		start, n = pos, skipbackRingFrames
	} else {
		start, n = 0, pos
	}

	dir, err := dateDirSkipback(sb.dir, now)
	if err != nil {
		announcer.Push("Skipback failed")
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		announcer.Push("Skipback failed")
		return
	}
	name, err := skipbackFilename(now)
	if err != nil {
		announcer.Push("Skipback failed")
		return
	}
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		announcer.Push("Skipback failed")
		return
	}
	defer f.Close()

	dataSize := uint32(n) * wavChannels * (wavBitsPerSamp / 8)
	if err := writeWAVHeader(f, dataSize); err != nil {
		announcer.Push("Skipback failed")
		return
	}

	// Pass 1: start..end of buffer.
	firstLen := n
	if full && start+n > skipbackRingFrames {
		firstLen = skipbackRingFrames - start
	}
	writeFrames(f, sb.ring, start, firstLen)

	// Pass 2: wrap-around remainder, start of buffer .. start-1.
	if full && firstLen < n {
		writeFrames(f, sb.ring, 0, n-firstLen)
	}

	overlay.Arm(&overlay.Skipback, 4*int32(wavSampleRate)/int32(MailboxFramesMax)) // ~4s of blocks
	announcer.Push("Skipback saved")
}

func writeFrames(f *os.File, ring []int16, start, n int) {
	buf := make([]int16, n*2)
	copy(buf, ring[start*2:start*2+n*2])
	f.Write(interleaveI16ToBytes(buf))
}

func skipbackFilename(now time.Time) (string, error) {
	p, err := strftime.New("skipback_%Y%m%d_%H%M%S.wav")
	if err != nil {
		return "", err
	}
	return p.FormatString(now), nil
}

func dateDirSkipback(root string, now time.Time) (string, error) {
	p, err := strftime.New("%Y-%m-%d")
	if err != nil {
		return "", err
	}
	return filepath.Join(root, p.FormatString(now)), nil
}
