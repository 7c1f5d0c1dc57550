// Package trigger decides, per buffer mutation or user action, whether a
// completion request should fire, be suppressed, or whether the pending
// suggestion should be invalidated.
//
// The rules run in a fixed order: disabled mode, programmatic-edit
// detection, in-flight suppression, manual trigger, debounced auto trigger,
// and finally invalidation of a pending suggestion by any other printable
// keystroke.
package trigger

import (
	"sync"
	"time"
	"unicode"

	"github.com/runger/ghosttype/internal/config"
)

// Kind distinguishes how a request was triggered.
type Kind int

const (
	// KindManual is an explicit user trigger.
	KindManual Kind = iota
	// KindAuto is a debounce-driven automatic trigger.
	KindAuto
)

// String returns the log spelling of the kind.
func (k Kind) String() string {
	if k == KindManual {
		return "manual"
	}
	return "auto"
}

// Action is the policy's verdict class.
type Action int

const (
	// ActionSuppress means do nothing.
	ActionSuppress Action = iota
	// ActionFire means issue a completion request of Decision.Kind.
	ActionFire
	// ActionInvalidate means discard the pending suggestion.
	ActionInvalidate
)

// Decision is the policy's verdict for one event.
type Decision struct {
	Action Action
	Kind   Kind   // Meaningful only when Action == ActionFire
	Reason string // For logs
}

// Event describes a keystroke or buffer mutation under evaluation.
type Event struct {
	At        time.Time
	Text      string // Runes inserted by the event; empty for deletions and motions
	Printable bool   // True for ordinary text-producing keystrokes
	Manual    bool   // True for the designated manual-trigger action
}

// State is the orchestrator-side snapshot the rules read.
type State struct {
	Mode       config.Mode
	Requesting bool
	HasPending bool
}

// Config holds policy tuning. The programmatic-edit detection is a
// heuristic that can misclassify very fast typing; its window and ratio are
// deliberately tunable rather than fixed.
type Config struct {
	// Debounce is the quiet period required before an auto trigger. Default: 300ms.
	Debounce time.Duration
	// ProgrammaticWindow is the burst-detection lookback window. Default: 150ms.
	ProgrammaticWindow time.Duration
	// ProgrammaticLookback is how many recent runes the detector keeps. Default: 8.
	ProgrammaticLookback int
	// ProgrammaticRatio is the repeated/structured-rune fraction above which
	// a burst reads as programmatic. Default: 0.7.
	ProgrammaticRatio float64
	// TriggerContext decides whether the cursor sits in a context worth
	// completing. Defaults to word-ish input: the event's last rune is a
	// letter, digit, or space.
	TriggerContext func(ev Event) bool
}

func (c Config) applyDefaults() Config {
	if c.Debounce <= 0 {
		c.Debounce = 300 * time.Millisecond
	}
	if c.ProgrammaticWindow <= 0 {
		c.ProgrammaticWindow = 150 * time.Millisecond
	}
	if c.ProgrammaticLookback <= 0 {
		c.ProgrammaticLookback = 8
	}
	if c.ProgrammaticRatio <= 0 {
		c.ProgrammaticRatio = 0.7
	}
	if c.TriggerContext == nil {
		c.TriggerContext = defaultTriggerContext
	}
	return c
}

// FromConfig converts the file-level trigger section.
func FromConfig(tc config.TriggerConfig) Config {
	return Config{
		Debounce:             time.Duration(tc.DebounceMs) * time.Millisecond,
		ProgrammaticWindow:   time.Duration(tc.ProgrammaticWindowMs) * time.Millisecond,
		ProgrammaticLookback: tc.ProgrammaticLookback,
		ProgrammaticRatio:    tc.ProgrammaticRatio,
	}.applyDefaults()
}

func defaultTriggerContext(ev Event) bool {
	var last rune
	for _, r := range ev.Text {
		last = r
	}
	if last == 0 {
		return false
	}
	return unicode.IsLetter(last) || unicode.IsDigit(last) || last == ' '
}

// Policy evaluates events against the rules. Safe for concurrent use.
type Policy struct {
	mu     sync.Mutex
	cfg    Config
	burst  *burstDetector
	lastAt time.Time // previous keystroke, for the debounce gap
}

// New creates a Policy. Zero-valued config fields get defaults.
func New(cfg Config) *Policy {
	cfg = cfg.applyDefaults()
	return &Policy{
		cfg:   cfg,
		burst: newBurstDetector(cfg.ProgrammaticWindow, cfg.ProgrammaticLookback, cfg.ProgrammaticRatio),
	}
}

// Evaluate runs the rules in order and returns the verdict.
func (p *Policy) Evaluate(ev Event, st State) Decision {
	p.mu.Lock()
	defer p.mu.Unlock()

	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	gap := ev.At.Sub(p.lastAt)
	first := p.lastAt.IsZero()
	if ev.Printable || ev.Manual {
		p.lastAt = ev.At
	}
	p.burst.observe(ev)

	if st.Mode == config.ModeDisabled {
		return Decision{Action: ActionSuppress, Reason: "disabled"}
	}

	// Host-driven rewrites (including a suggestion's own insertion) must not
	// re-trigger evaluation loops.
	if p.burst.programmatic() {
		return Decision{Action: ActionSuppress, Reason: "programmatic edit"}
	}

	if st.Requesting {
		return Decision{Action: ActionSuppress, Reason: "request in flight"}
	}

	if ev.Manual {
		return Decision{Action: ActionFire, Kind: KindManual, Reason: "manual trigger"}
	}

	if st.Mode == config.ModeAutoAssist && ev.Printable &&
		(first || gap >= p.cfg.Debounce) && p.cfg.TriggerContext(ev) {
		return Decision{Action: ActionFire, Kind: KindAuto, Reason: "debounce elapsed"}
	}

	if ev.Printable && st.HasPending {
		return Decision{Action: ActionInvalidate, Reason: "keystroke over pending suggestion"}
	}

	return Decision{Action: ActionSuppress, Reason: "no rule fired"}
}

// Reset clears keystroke history, e.g. when the host switches documents.
func (p *Policy) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastAt = time.Time{}
	p.burst.reset()
}
