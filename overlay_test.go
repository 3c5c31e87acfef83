package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOverlayStateActivePriorityOrder(t *testing.T) {
	o := &OverlayState{}
	assert.Equal(t, "", o.Active())

	o.Arm(&o.ShiftKnob, 5)
	assert.Equal(t, "shift-knob", o.Active())

	o.Arm(&o.SetPage, 5)
	assert.Equal(t, "set-page", o.Active(), "set-page outranks shift-knob")

	o.Arm(&o.Skipback, 5)
	assert.Equal(t, "skipback", o.Active(), "skipback outranks set-page")

	o.Arm(&o.Sampler, 5)
	assert.Equal(t, "sampler", o.Active(), "sampler outranks everything")
}

func TestOverlayStateTickDecrementsAndClampsAtZero(t *testing.T) {
	o := &OverlayState{}
	o.Arm(&o.Sampler, 2)
	o.Tick()
	assert.Equal(t, "sampler", o.Active())
	o.Tick()
	assert.Equal(t, "", o.Active())
	o.Tick()
	assert.Equal(t, OverlayTimeout(0), o.Sampler, "timeout must clamp at zero, not go negative")
}

func TestScreenReaderQueueDropsNewestWhenFull(t *testing.T) {
	q := NewScreenReaderQueue()
	for i := 0; i < screenReaderQueueCap+2; i++ {
		q.Push(string(rune('a' + i)))
	}
	items := q.Drain()
	assert.Len(t, items, screenReaderQueueCap)
	assert.Equal(t, "a", items[0])
}

func TestScreenReaderQueueTruncatesOversizedMessages(t *testing.T) {
	q := NewScreenReaderQueue()
	big := make([]byte, screenReaderMaxMsgBytes+100)
	for i := range big {
		big[i] = 'x'
	}
	q.Push(string(big))
	items := q.Drain()
	assert.Len(t, items[0], screenReaderMaxMsgBytes)
}

func TestScreenReaderQueueDrainEmptiesQueue(t *testing.T) {
	q := NewScreenReaderQueue()
	q.Push("hello")
	q.Drain()
	assert.Empty(t, q.Drain())
}
