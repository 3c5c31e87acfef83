// capture_rules.go - per-patch note/CC capture bitmaps (spec §3)

package main

// CaptureRules is a 128-bit note bitmap plus a 128-bit CC bitmap declaring
// which controls a patch consumes when its slot is focused.
type CaptureRules struct {
	notes [2]uint64
	ccs   [2]uint64
}

// named groups that expand to fixed MIDI ranges, matching the hardware
// controller's physical layout.
var captureGroups = map[string][2]int{
	"pads":   {0, 31},
	"steps":  {16, 31},
	"tracks": {32, 39},
	"knobs":  {71, 78},
	"jog":    {84, 84},
}

func (r *CaptureRules) setNoteRange(lo, hi int) {
	for n := lo; n <= hi && n <= 127; n++ {
		r.notes[n/64] |= 1 << uint(n%64)
	}
}

func (r *CaptureRules) setCCRange(lo, hi int) {
	for c := lo; c <= hi && c <= 127; c++ {
		r.ccs[c/64] |= 1 << uint(c%64)
	}
}

// AddGroup expands a named group ("pads", "steps", "tracks", "knobs",
// "jog") into the appropriate bitmap. Unknown group names are ignored.
func (r *CaptureRules) AddGroup(name string) {
	rng, ok := captureGroups[name]
	if !ok {
		return
	}
	if name == "knobs" || name == "jog" {
		r.setCCRange(rng[0], rng[1])
	} else {
		r.setNoteRange(rng[0], rng[1])
	}
}

func (r CaptureRules) HasNote(n int) bool {
	if n < 0 || n > 127 {
		return false
	}
	return r.notes[n/64]&(1<<uint(n%64)) != 0
}

func (r CaptureRules) HasCC(c int) bool {
	if c < 0 || c > 127 {
		return false
	}
	return r.ccs[c/64]&(1<<uint(c%64)) != 0
}
