package trigger

import (
	"strings"
	"time"
)

// structuralRunes are characters typical of host-driven rewrites: brackets,
// quotes, operators, and other syntax the editor or a template expansion
// emits in bulk.
const structuralRunes = "{}[]()<>;:=\"'`,|&$\t"

type burstSample struct {
	at       time.Time
	r        rune
	bulk     bool // arrived as part of a multi-rune event
	repeated bool // equals the previous observed rune
}

// burstDetector classifies recent input as programmatic when a burst inside
// the lookback window is mostly repeated or structural runes. This is a
// heuristic: legitimate very fast typing can trip it, which is why window,
// lookback, and ratio are all tunable.
type burstDetector struct {
	window   time.Duration
	lookback int
	ratio    float64
	samples  []burstSample
	prev     rune
}

func newBurstDetector(window time.Duration, lookback int, ratio float64) *burstDetector {
	return &burstDetector{window: window, lookback: lookback, ratio: ratio}
}

// observe records the runes an event inserted.
func (d *burstDetector) observe(ev Event) {
	bulk := len([]rune(ev.Text)) > 1
	for _, r := range ev.Text {
		d.samples = append(d.samples, burstSample{
			at:       ev.At,
			r:        r,
			bulk:     bulk,
			repeated: r == d.prev,
		})
		d.prev = r
	}
	if len(d.samples) > d.lookback {
		d.samples = d.samples[len(d.samples)-d.lookback:]
	}
}

// programmatic reports whether the lookback window currently reads as a
// host-driven burst: the window is full of fresh samples and more than the
// configured ratio of them are repeated, structural, or bulk-inserted.
func (d *burstDetector) programmatic() bool {
	if len(d.samples) < d.lookback {
		return false
	}
	cutoff := d.samples[len(d.samples)-1].at.Add(-d.window)

	structured := 0
	inWindow := 0
	for _, s := range d.samples {
		if s.at.Before(cutoff) {
			continue
		}
		inWindow++
		if s.bulk || s.repeated || strings.ContainsRune(structuralRunes, s.r) {
			structured++
		}
	}
	if inWindow < d.lookback {
		return false
	}
	return float64(structured)/float64(inWindow) > d.ratio
}

func (d *burstDetector) reset() {
	d.samples = d.samples[:0]
	d.prev = 0
}
