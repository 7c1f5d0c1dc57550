// ghosttype is a demo editor host for the assisted-completion engine.
// It wires an in-memory buffer, a completion provider, and the display
// channel chain into a small terminal editor with ghost-text suggestions.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/runger/ghosttype/internal/config"
	"github.com/runger/ghosttype/internal/display"
	"github.com/runger/ghosttype/internal/estimator"
	"github.com/runger/ghosttype/internal/history"
	"github.com/runger/ghosttype/internal/orchestrator"
	"github.com/runger/ghosttype/internal/provider"
	"github.com/runger/ghosttype/internal/suggestion"
	"github.com/runger/ghosttype/internal/textbuf"
	"github.com/runger/ghosttype/internal/trigger"
)

// Version information (set via ldflags during build).
var (
	Version   = "dev"
	GitCommit = "unknown"
)

type options struct {
	configPath  string
	mode        string
	providerCmd string
	historyPath string
	logPath     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ghosttype: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:     "ghosttype",
		Short:   "Editor demo for ghost-text assisted completion",
		Version: fmt.Sprintf("%s (%s)", Version, GitCommit),
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(opts)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "config file (default ~/.ghosttype/config.yaml)")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "completion mode: disabled, manual, auto")
	cmd.Flags().StringVar(&opts.providerCmd, "provider", "", "provider command line, e.g. \"claude -p\"")
	cmd.Flags().StringVar(&opts.historyPath, "history", "", "sqlite file for accepted suggestions")
	cmd.Flags().StringVar(&opts.logPath, "log", "", "debug log file")
	return cmd
}

func run(opts options) error {
	cfgPath := opts.configPath
	if cfgPath == "" {
		var err error
		cfgPath, err = config.DefaultPath()
		if err != nil {
			return err
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	// Flags override the file.
	if opts.mode != "" {
		cfg.Mode, err = config.ParseMode(opts.mode)
		if err != nil {
			return err
		}
	}
	if opts.providerCmd != "" {
		cfg.Provider.Command = opts.providerCmd
	}
	if opts.historyPath != "" {
		cfg.History.Path = opts.historyPath
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if opts.logPath != "" {
		f, err := os.OpenFile(opts.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	prov, err := buildProvider(cfg, logger)
	if err != nil {
		return err
	}
	if cfg.Mode != config.ModeDisabled && !prov.Available() {
		return fmt.Errorf("provider %q is not available; install it or run with --mode disabled", prov.Name())
	}

	var store *history.Store
	if cfg.History.Path != "" {
		store, err = history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	buf := textbuf.New("")
	surf := newSurfaces()
	chain := display.NewChain(logger, buildChannels(cfg, surf, buf)...)

	orch := orchestrator.New(orchestrator.Config{
		Buffer:        buf,
		Provider:      prov,
		Mode:          cfg.Mode,
		ContextBefore: cfg.Provider.ContextBefore,
		ContextAfter:  cfg.Provider.ContextAfter,
		Estimator: estimator.New(estimator.Config{
			Base:        msDuration(cfg.Timeout.BaseMs),
			Min:         msDuration(cfg.Timeout.MinMs),
			Max:         msDuration(cfg.Timeout.MaxMs),
			HistorySize: cfg.Timeout.HistorySize,
			Logger:      logger,
		}),
		Suggestions: suggestion.New(buf, logger),
		Chain:       chain,
		Policy:      trigger.New(trigger.FromConfig(cfg.Trigger)),
		Logger:      logger,
	})

	m := newModel(buf, orch, surf, store, prov.Name())
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func msDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// buildProvider picks the configured CLI provider, falling back to the
// built-in phrase completer for self-contained demos.
func buildProvider(cfg config.Config, logger *slog.Logger) (provider.Provider, error) {
	if cfg.Provider.Command != "" {
		return provider.NewExecProvider(cfg.Provider.Command, logger)
	}
	return newDemoProvider(), nil
}

// buildChannels assembles the display chain in the configured order.
func buildChannels(cfg config.Config, surf *surfaces, buf textbuf.Accessor) []display.Channel {
	profile := termenv.ColorProfile()
	var out []display.Channel
	for _, name := range cfg.Display.Channels {
		switch name {
		case "overlay":
			out = append(out, display.NewOverlayChannel(surf, profile))
		case "popup":
			out = append(out, display.NewPopupChannel(surf, cfg.Display.PopupMaxWidth))
		case "literal":
			out = append(out, display.NewLiteralChannel(buf))
		}
	}
	return out
}
