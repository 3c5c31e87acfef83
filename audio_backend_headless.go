//go:build headless

// audio_backend_headless.go - no-op monitor sink for headless builds
// (CI, container deployments with no audio device).

package main

func init() {
	registerFeature("monitor sink (headless stub)")
}

type MonitorSink struct {
	mb      *Mailbox
	started bool
}

func NewMonitorSink(mb *Mailbox, sampleRate int) (*MonitorSink, error) {
	return &MonitorSink{mb: mb}, nil
}

func (s *MonitorSink) Start()        { s.started = true }
func (s *MonitorSink) Stop()         { s.started = false }
func (s *MonitorSink) Close()        { s.started = false }
func (s *MonitorSink) IsStarted() bool { return s.started }
