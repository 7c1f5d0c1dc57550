package main

import (
	"context"
	"strings"
	"time"

	"github.com/runger/ghosttype/internal/provider"
)

// demoPhrases is the built-in corpus the offline provider completes from.
var demoPhrases = []string{
	"The cat sat on the mat.",
	"The quick brown fox jumps over the lazy dog.",
	"A journey of a thousand miles begins with a single step.",
	"All work and no play makes Jack a dull boy.",
	"To be or not to be, that is the question.",
	"It was the best of times, it was the worst of times.",
}

// demoLatency approximates a round trip so the requesting state is visible.
const demoLatency = 400 * time.Millisecond

// demoProvider completes the current line from a fixed phrase list. It keeps
// the demo usable without any external CLI installed.
type demoProvider struct {
	phrases []string
	latency time.Duration
}

func newDemoProvider() *demoProvider {
	return &demoProvider{phrases: demoPhrases, latency: demoLatency}
}

func (p *demoProvider) Name() string { return "demo" }

func (p *demoProvider) Available() bool { return true }

func (p *demoProvider) Complete(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	select {
	case <-time.After(p.latency):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	line := lastLine(req.TextBefore)
	if line == "" {
		return &provider.Response{ProviderName: p.Name()}, nil
	}
	for _, phrase := range p.phrases {
		if strings.HasPrefix(phrase, line) && phrase != line {
			// Echo the whole phrase; the suggestion layer diffs away
			// what the user already typed.
			return &provider.Response{Text: phrase, ProviderName: p.Name()}, nil
		}
	}
	return &provider.Response{ProviderName: p.Name()}, nil
}

func lastLine(text string) string {
	if i := strings.LastIndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	}
	return strings.TrimLeft(text, " \t")
}
