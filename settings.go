// settings.go - engine settings file and tempo-fallback persistence
// (SPEC_FULL §4.13, grounded on original_source/src/host/shadow_sampler.c's
// settings-file tempo_bpm read path).

package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

// defaultTempoBPM is the hardcoded last link in the tempo-fallback chain
// (spec §4.8).
const defaultTempoBPM = 120

// EngineSettings is the process-wide settings file the sampler's
// tempo-fallback chain consults when no MIDI clock and no set tempo are
// available, and which also records the recordings/skipback output roots.
type EngineSettings struct {
	TempoBPM      int    `yaml:"tempo_bpm"`
	RecordingsDir string `yaml:"recordings_dir"`
	SkipbackDir   string `yaml:"skipback_dir"`
}

// LoadEngineSettings reads path, clamping tempo_bpm to [20, 300] as the
// original does. A missing file yields defaults rather than an error,
// since the settings file is optional ambient configuration.
func LoadEngineSettings(path string) (EngineSettings, error) {
	s := EngineSettings{
		TempoBPM:      defaultTempoBPM,
		RecordingsDir: "recordings",
		SkipbackDir:   "skipback",
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, err
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, err
	}
	if s.TempoBPM < 20 {
		s.TempoBPM = 20
	}
	if s.TempoBPM > 300 {
		s.TempoBPM = 300
	}
	return s, nil
}
