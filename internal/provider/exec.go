package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/google/shlex"
)

// ExecProvider shells out to a configurable CLI for each completion.
// The prompt is written to the tool's stdin; the completion is read from
// stdout. Any model-specific behavior lives entirely in the command.
type ExecProvider struct {
	command string
	argv    []string
	logger  *slog.Logger
}

// NewExecProvider creates an ExecProvider for the given command line,
// e.g. "claude -p" or "llm complete". The command is split with POSIX
// shlex rules; no shell is involved in running it.
func NewExecProvider(command string, logger *slog.Logger) (*ExecProvider, error) {
	argv, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("failed to parse provider command %q: %w", command, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("provider command is empty")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ExecProvider{command: command, argv: argv, logger: logger}, nil
}

// Name implements Provider.
func (p *ExecProvider) Name() string {
	return p.argv[0]
}

// Available checks that the tool exists on PATH.
func (p *ExecProvider) Available() bool {
	_, err := exec.LookPath(p.argv[0])
	return err == nil
}

// Complete implements Provider.
func (p *ExecProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, p.argv[0], p.argv[1:]...)
	cmd.Stdin = strings.NewReader(buildPrompt(req))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, &Error{Provider: p.Name(), Err: ctx.Err()}
		}
		if stderr.Len() > 0 {
			return nil, &Error{Provider: p.Name(), Err: fmt.Errorf("%s", strings.TrimSpace(stderr.String()))}
		}
		return nil, &Error{Provider: p.Name(), Err: err}
	}

	text := cleanCompletion(stdout.String())
	p.logger.Debug("exec provider completed",
		"provider", p.Name(),
		"request_id", req.ID,
		"latency_ms", time.Since(start).Milliseconds(),
		"chars", len(text),
	)

	return &Response{
		Text:         text,
		ProviderName: p.Name(),
		LatencyMs:    time.Since(start).Milliseconds(),
	}, nil
}

// buildPrompt renders the fill-in-the-middle prompt fed to the CLI.
func buildPrompt(req *Request) string {
	var b strings.Builder
	b.WriteString("Continue the text at <cursor>. Reply with only the continuation, no commentary.\n")
	for _, ref := range req.References {
		b.WriteString("Reference:\n")
		b.WriteString(ref)
		b.WriteString("\n")
	}
	b.WriteString("---\n")
	b.WriteString(req.TextBefore)
	b.WriteString("<cursor>")
	b.WriteString(req.TextAfter)
	return b.String()
}

// cleanCompletion strips wrapping the model tends to add around the
// continuation: code fences and leading/trailing blank lines. Interior
// whitespace is preserved because it is part of the suggestion.
func cleanCompletion(s string) string {
	s = strings.Trim(s, "\n")
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		} else {
			s = ""
		}
		s = strings.TrimSuffix(strings.Trim(s, "\n"), "```")
		s = strings.Trim(s, "\n")
	}
	return s
}
