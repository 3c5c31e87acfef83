package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkipbackPushBlockAdvancesWritePosAndSetsFullOnWrap(t *testing.T) {
	sb := NewSkipback()
	sb.PushBlock(make([]int16, 10*2))
	assert.Equal(t, int64(10), sb.writePos.Load())
	assert.False(t, sb.full.Load())

	sb.writePos.Store(int64(skipbackRingFrames - 5))
	sb.PushBlock(make([]int16, 10*2))
	assert.True(t, sb.full.Load())
	assert.Equal(t, int64(5), sb.writePos.Load())
}

func TestSkipbackPushBlockSkippedWhileSaving(t *testing.T) {
	sb := NewSkipback()
	sb.saving.Store(true)
	sb.PushBlock(make([]int16, 10*2))
	assert.Equal(t, int64(0), sb.writePos.Load())
}

func TestSkipbackTriggerRejectsConcurrentSave(t *testing.T) {
	sb := NewSkipback()
	sb.saving.Store(true)
	o := &OverlayState{}
	q := NewScreenReaderQueue()
	assert.False(t, sb.Trigger(t.TempDir(), time.Now(), o, q))
	assert.Contains(t, q.Drain(), "Skipback saving in progress")
}

func TestSkipbackTriggerWritesWAVFileAndArmsOverlay(t *testing.T) {
	sb := NewSkipback()
	sb.PushBlock(make([]int16, 100*2))

	dir := t.TempDir()
	o := &OverlayState{}
	q := NewScreenReaderQueue()
	require.True(t, sb.Trigger(dir, time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC), o, q))

	deadline := time.Now().Add(2 * time.Second)
	for sb.saving.Load() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	require.False(t, sb.saving.Load(), "save goroutine must finish within the deadline")

	assert.Equal(t, "skipback", o.Active())
	assert.Contains(t, q.Drain(), "Skipback saved")
}

func TestSkipbackFilenameFormat(t *testing.T) {
	name, err := skipbackFilename(time.Date(2026, 7, 31, 9, 5, 3, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "skipback_20260731_090503.wav", name)
}
