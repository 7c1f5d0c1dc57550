// Package orchestrator owns the completion request lifecycle: it decides
// when to call the completion provider, keeps at most one request in flight,
// races the call against an adaptive timeout, and resolves the resulting
// suggestion through the suggestion buffer and display channel chain.
//
// Every public method runs on the caller's goroutine under one mutex, so
// state transitions are atomic with respect to the host editing loop. The
// provider call is the only out-of-line work; its result re-enters through a
// guarded delivery path that unconditionally drops anything whose sequence
// number is no longer current. That sequence check is the sole mechanism
// preventing stale results from corrupting state after a cancel/new-request
// race.
package orchestrator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/runger/ghosttype/internal/config"
	"github.com/runger/ghosttype/internal/display"
	"github.com/runger/ghosttype/internal/estimator"
	"github.com/runger/ghosttype/internal/provider"
	"github.com/runger/ghosttype/internal/suggestion"
	"github.com/runger/ghosttype/internal/textbuf"
	"github.com/runger/ghosttype/internal/trigger"
)

// ErrTimeout marks a request that exceeded its estimated deadline. Logged
// distinctly from provider failures so "slow" and "broken" stay separable.
var ErrTimeout = errors.New("completion request timed out")

// ErrEmptyCompletion marks a provider success that carried no text.
var ErrEmptyCompletion = errors.New("provider returned empty completion")

const statusBuffer = 16

// Config wires the orchestrator's collaborators. Buffer and Provider are
// required; the rest default to reasonable implementations.
type Config struct {
	Buffer   textbuf.Accessor
	Provider provider.Provider

	// Estimator defaults to estimator.New with default bounds.
	Estimator *estimator.Estimator
	// Suggestions defaults to a suggestion buffer over Buffer.
	Suggestions *suggestion.Buffer
	// Chain defaults to a literal-insertion-only chain.
	Chain *display.Chain
	// Policy defaults to trigger.New with default thresholds.
	Policy *trigger.Policy

	// Mode is the initial completion mode. The zero value is Disabled;
	// hosts opt in explicitly.
	Mode config.Mode

	// ContextBefore / ContextAfter bound the snapshot taken per request,
	// in runes. Defaults: 2000 / 500.
	ContextBefore int
	ContextAfter  int

	// References optionally supplies context snippets injected into each
	// request.
	References func() []string

	Logger *slog.Logger

	// now is a test seam.
	now func() time.Time
}

// inflight is the bookkeeping for the single live request.
type inflight struct {
	seq      uint64
	req      *provider.Request
	profile  estimator.Profile
	deadline time.Duration
	timer    *time.Timer
	cancel   context.CancelFunc
}

// Orchestrator is the completion lifecycle state machine.
type Orchestrator struct {
	mu sync.Mutex

	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	mode    config.Mode
	state   State
	seq     uint64 // monotonic; tags every request
	current *inflight

	buf    textbuf.Accessor
	prov   provider.Provider
	est    *estimator.Estimator
	sug    *suggestion.Buffer
	chain  *display.Chain
	policy *trigger.Policy

	handle *display.Handle // active presentation for the pending suggestion
	events chan Status
	stats  Stats
}

// New creates an Orchestrator. It panics if Buffer or Provider is nil:
// those are programming errors, not runtime conditions.
func New(cfg Config) *Orchestrator {
	if cfg.Buffer == nil {
		panic("orchestrator: Buffer is required")
	}
	if cfg.Provider == nil {
		panic("orchestrator: Provider is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Estimator == nil {
		cfg.Estimator = estimator.New(estimator.Config{Logger: logger})
	}
	if cfg.Suggestions == nil {
		cfg.Suggestions = suggestion.New(cfg.Buffer, logger)
	}
	if cfg.Chain == nil {
		cfg.Chain = display.NewChain(logger, display.NewLiteralChannel(cfg.Buffer))
	}
	if cfg.Policy == nil {
		cfg.Policy = trigger.New(trigger.Config{})
	}
	if cfg.ContextBefore <= 0 {
		cfg.ContextBefore = 2000
	}
	if cfg.ContextAfter <= 0 {
		cfg.ContextAfter = 500
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}

	return &Orchestrator{
		cfg:    cfg,
		logger: logger,
		now:    cfg.now,
		mode:   cfg.Mode,
		buf:    cfg.Buffer,
		prov:   cfg.Provider,
		est:    cfg.Estimator,
		sug:    cfg.Suggestions,
		chain:  cfg.Chain,
		policy: cfg.Policy,
		events: make(chan Status, statusBuffer),
	}
}

// Events returns the observable status stream for UI indicators. The
// channel is buffered; when a slow consumer falls behind, the oldest status
// is dropped — an indicator only needs the latest.
func (o *Orchestrator) Events() <-chan Status {
	return o.events
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Mode returns the current completion mode.
func (o *Orchestrator) Mode() config.Mode {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mode
}

// SetMode switches the completion mode. Switching to Disabled cancels any
// in-flight request and discards the pending suggestion.
func (o *Orchestrator) SetMode(m config.Mode) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.mode = m
	o.logger.Info("completion mode changed", "mode", m)
	if m == config.ModeDisabled {
		o.cancelLocked()
	}
}

// Stats returns the session's cumulative counters.
func (o *Orchestrator) Stats() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stats
}

// HasPending reports whether a suggestion awaits resolution.
func (o *Orchestrator) HasPending() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sug.Has()
}

// PendingText returns the pending remainder, if any.
func (o *Orchestrator) PendingText() (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.sug.Pending()
	return p.Text, ok
}

// NotifyKeystroke drives the trigger policy with a keystroke or buffer
// mutation. The host applies the mutation first and notifies afterward; the
// orchestrator reacts, it never delays user edits.
func (o *Orchestrator) NotifyKeystroke(ev trigger.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()

	d := o.policy.Evaluate(ev, trigger.State{
		Mode:       o.mode,
		Requesting: o.state == StateRequesting,
		HasPending: o.sug.Has(),
	})

	switch d.Action {
	case trigger.ActionFire:
		o.requestLocked(d.Kind)
	case trigger.ActionInvalidate:
		o.discardPendingLocked()
		o.emitQuietLocked()
	case trigger.ActionSuppress:
		// Any foreign mutation still invalidates a pending suggestion, even
		// when the policy has nothing to trigger.
		if p, ok := o.sug.Pending(); ok && o.buf.Version() != p.Version {
			o.discardPendingLocked()
			o.emitQuietLocked()
		}
	}
}

// NotifyManualTrigger requests a completion on the user's explicit action.
func (o *Orchestrator) NotifyManualTrigger() {
	o.NotifyKeystroke(trigger.Event{At: o.now(), Manual: true})
}

// Request issues a completion request of the given kind. It is a silent
// no-op when the mode forbids it or a request is already in flight.
func (o *Orchestrator) Request(kind trigger.Kind) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.requestLocked(kind)
}

func (o *Orchestrator) requestLocked(kind trigger.Kind) {
	if o.mode == config.ModeDisabled {
		return
	}
	if o.state != StateIdle {
		return
	}
	if kind == trigger.KindAuto && o.mode == config.ModeManualOnly {
		return
	}

	// A new request destroys whatever suggestion was pending.
	o.discardPendingLocked()

	o.seq++
	seq := o.seq

	before, after := o.buf.TextAround(o.cfg.ContextBefore, o.cfg.ContextAfter)
	var refs []string
	if o.cfg.References != nil {
		refs = o.cfg.References()
	}
	req := &provider.Request{
		ID:           uuid.New(),
		TextBefore:   before,
		TextAfter:    after,
		CursorOffset: o.buf.CursorOffset(),
		Manual:       kind == trigger.KindManual,
		References:   refs,
		IssuedAt:     o.now(),
	}
	profile := estimator.Profile{
		ContextLen:       utf8.RuneCountInString(before) + utf8.RuneCountInString(after),
		ReferenceEntries: len(refs),
		Manual:           req.Manual,
	}
	deadline := o.est.Estimate(profile)

	ctx, cancel := context.WithTimeout(context.Background(), deadline)
	o.current = &inflight{
		seq:      seq,
		req:      req,
		profile:  profile,
		deadline: deadline,
		cancel:   cancel,
		timer:    time.AfterFunc(deadline, func() { o.onTimeout(seq) }),
	}

	o.state = StateRequesting
	o.stats.Issued++
	o.logger.Debug("completion requested",
		"seq", seq, "request_id", req.ID, "kind", kind,
		"deadline_ms", deadline.Milliseconds(), "cursor", req.CursorOffset)
	o.emit(Status{Kind: StatusRequesting, Seq: seq})

	go func() {
		resp, err := o.prov.Complete(ctx, req)
		o.deliver(seq, resp, err)
	}()
}

// deliver is the provider result's re-entry point onto orchestrator state.
// Results for superseded sequence numbers are dropped unconditionally.
func (o *Orchestrator) deliver(seq uint64, resp *provider.Response, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateRequesting || o.current == nil || o.current.seq != seq {
		o.logger.Debug("stale provider result dropped", "seq", seq, "current", o.seq)
		return
	}

	cur := o.current
	cur.timer.Stop()
	cur.cancel()
	o.current = nil
	duration := o.now().Sub(cur.req.IssuedAt)

	if err != nil || resp == nil || resp.Text == "" {
		if err == nil {
			err = ErrEmptyCompletion
		}
		o.state = StateFailed
		o.stats.Failed++
		o.est.Record(duration, cur.profile, false)
		o.logger.Warn("completion failed",
			"seq", seq, "duration_ms", duration.Milliseconds(), "error", err)
		o.emit(Status{Kind: StatusError, Err: err, Seq: seq})
		o.toIdleLocked()
		return
	}

	o.state = StateCompleted
	o.stats.Completed++
	o.est.Record(duration, cur.profile, true)
	o.logger.Debug("completion received",
		"seq", seq, "duration_ms", duration.Milliseconds(),
		"provider", resp.ProviderName, "chars", len(resp.Text))

	remainder, serr := o.sug.Show(resp.Text, cur.req.CursorOffset)
	if serr != nil {
		// The user typed past or away from the suggestion while it was in
		// flight. Not an error: the suggestion is simply stale.
		o.logger.Debug("suggestion stale on arrival", "seq", seq, "error", serr)
		o.toIdleLocked()
		o.emitQuietLocked()
		return
	}
	if remainder == "" {
		o.toIdleLocked()
		o.emitQuietLocked()
		return
	}

	p, _ := o.sug.Pending()
	handle, cerr := o.chain.Activate(display.Suggestion{Text: remainder, Anchor: p.Anchor})
	if cerr != nil {
		// Only reachable with a chain that lacks the literal terminus.
		o.sug.Invalidate()
		o.logger.Warn("no display channel accepted suggestion", "seq", seq, "error", cerr)
		o.emit(Status{Kind: StatusError, Err: cerr, Seq: seq})
		o.toIdleLocked()
		return
	}
	o.handle = handle
	if handle.Kind() == display.KindLiteral {
		o.sug.MarkInserted()
	}

	o.emit(Status{Kind: StatusSuggestionReady, Seq: seq})
	o.toIdleLocked()
}

// onTimeout fires when the deadline elapses. It is a no-op unless the same
// request is still in flight. The provider call itself is left to finish
// and be dropped by the sequence guard.
func (o *Orchestrator) onTimeout(seq uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateRequesting || o.current == nil || o.current.seq != seq {
		return
	}

	cur := o.current
	cur.cancel()
	o.current = nil

	o.state = StateTimedOut
	o.stats.TimedOut++
	o.est.Record(cur.deadline, cur.profile, false)
	o.discardPendingLocked()
	// Logged as timeout, not provider failure, so the estimator's history
	// can be read against slow-vs-broken in the logs.
	o.logger.Warn("completion timed out",
		"seq", seq, "deadline_ms", cur.deadline.Milliseconds())
	o.emit(Status{Kind: StatusError, Err: ErrTimeout, Seq: seq})
	o.toIdleLocked()
	o.emitQuietLocked()
}

// Accept commits the pending suggestion and returns its text.
func (o *Orchestrator) Accept() (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	p, ok := o.sug.Pending()
	if !ok {
		return "", suggestion.ErrNoPending
	}

	o.chain.Deactivate(o.handle)
	o.handle = nil

	if err := o.sug.Accept(); err != nil {
		if errors.Is(err, suggestion.ErrAnchorMismatch) {
			// Never force a stale insertion; discard silently.
			o.logger.Debug("accept on stale suggestion discarded", "error", err)
			o.emitQuietLocked()
			return "", nil
		}
		o.emitQuietLocked()
		return "", err
	}

	o.stats.Accepted++
	o.logger.Debug("suggestion accepted", "anchor", p.Anchor, "chars", len(p.Text))
	o.emitQuietLocked()
	return p.Text, nil
}

// Reject discards the pending suggestion, removing any visual or literal
// residue. Idempotent.
func (o *Orchestrator) Reject() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	had := o.sug.Has()
	o.chain.Deactivate(o.handle)
	o.handle = nil
	if err := o.sug.Reject(); err != nil {
		return err
	}
	if had {
		o.stats.Rejected++
	}
	o.emitQuietLocked()
	return nil
}

// Cancel aborts the in-flight request, if any, and discards the pending
// suggestion. Cancellation is not a timing sample: no metric is recorded.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cancelLocked()
}

func (o *Orchestrator) cancelLocked() {
	if o.state == StateRequesting && o.current != nil {
		cur := o.current
		cur.timer.Stop()
		cur.cancel()
		o.current = nil
		o.state = StateCancelled
		o.stats.Cancelled++
		o.logger.Debug("request cancelled", "seq", cur.seq)
	}
	o.discardPendingLocked()
	o.toIdleLocked()
	o.emitQuietLocked()
}

// discardPendingLocked drops the pending suggestion and its presentation
// without committing anything.
func (o *Orchestrator) discardPendingLocked() {
	o.chain.Deactivate(o.handle)
	o.handle = nil
	// A literally inserted remainder is removed if still intact; a virtual
	// overlay just vanishes with its channel.
	if err := o.sug.Reject(); err != nil {
		o.logger.Warn("failed to clear pending suggestion", "error", err)
		o.sug.Invalidate()
	}
}

// toIdleLocked collapses a transient outcome state back to Idle.
func (o *Orchestrator) toIdleLocked() {
	o.state = StateIdle
}

// emitQuietLocked emits StatusIdle unless a suggestion is still pending,
// in which case the SuggestionReady indicator stays authoritative.
func (o *Orchestrator) emitQuietLocked() {
	if !o.sug.Has() && o.state == StateIdle {
		o.emit(Status{Kind: StatusIdle, Seq: o.seq})
	}
}

// emit pushes a status, dropping the oldest buffered entry when the
// consumer lags.
func (o *Orchestrator) emit(s Status) {
	for {
		select {
		case o.events <- s:
			return
		default:
			select {
			case <-o.events:
			default:
			}
		}
	}
}
