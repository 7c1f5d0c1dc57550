// Package provider defines the completion-provider contract and its adapters.
//
// A provider turns a buffer snapshot into a continuation string. The call is
// asynchronous from the orchestrator's point of view: it may return exactly
// once or never, and the orchestrator survives never-returning providers via
// its own timeout.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrUnavailable is returned when a provider's backing tool is not present.
var ErrUnavailable = errors.New("provider unavailable")

// Request is the immutable snapshot a completion is generated against.
type Request struct {
	ID           uuid.UUID
	TextBefore   string
	TextAfter    string
	CursorOffset int
	Manual       bool
	// References are injected context snippets, if the host supplies any.
	References []string
	IssuedAt   time.Time
}

// Response is a successful completion.
type Response struct {
	Text         string
	ProviderName string
	LatencyMs    int64
}

// Error wraps a provider failure with enough context for logging.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Provider is the external completion source.
type Provider interface {
	// Name returns the provider name for logs and status display.
	Name() string

	// Available reports whether the provider can be called at all.
	Available() bool

	// Complete generates a continuation for the request. It honors ctx
	// cancellation cooperatively; callers must not rely on it returning.
	Complete(ctx context.Context, req *Request) (*Response, error)
}

// Func adapts a function to the Provider interface. Used by tests and by
// hosts that bring their own completion source.
type Func func(ctx context.Context, req *Request) (*Response, error)

// Name implements Provider.
func (f Func) Name() string { return "func" }

// Available implements Provider.
func (f Func) Available() bool { return true }

// Complete implements Provider.
func (f Func) Complete(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Static always returns the same text. Useful for offline demos and tests.
type Static struct {
	Text string
}

// Name implements Provider.
func (s Static) Name() string { return "static" }

// Available implements Provider.
func (s Static) Available() bool { return true }

// Complete implements Provider.
func (s Static) Complete(_ context.Context, _ *Request) (*Response, error) {
	return &Response{Text: s.Text, ProviderName: s.Name()}, nil
}
