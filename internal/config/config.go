// Package config loads and validates the ghosttype configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mode controls when completions may be requested.
type Mode int

const (
	// ModeDisabled suppresses all completion requests.
	ModeDisabled Mode = iota
	// ModeManualOnly allows completions only on an explicit user trigger.
	ModeManualOnly
	// ModeAutoAssist allows both automatic and manual completions.
	ModeAutoAssist
)

// String returns the config-file spelling of the mode.
func (m Mode) String() string {
	switch m {
	case ModeDisabled:
		return "disabled"
	case ModeManualOnly:
		return "manual"
	case ModeAutoAssist:
		return "auto"
	default:
		return "unknown"
	}
}

// ParseMode converts a config-file string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "disabled", "off":
		return ModeDisabled, nil
	case "manual", "manual-only":
		return ModeManualOnly, nil
	case "auto", "auto-assist":
		return ModeAutoAssist, nil
	default:
		return ModeDisabled, fmt.Errorf("unknown mode %q (want disabled, manual, or auto)", s)
	}
}

// MarshalYAML implements yaml.Marshaler.
func (m Mode) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *Mode) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Config represents the ghosttype configuration.
type Config struct {
	Mode     Mode           `yaml:"mode"`
	Trigger  TriggerConfig  `yaml:"trigger"`
	Timeout  TimeoutConfig  `yaml:"timeout"`
	Display  DisplayConfig  `yaml:"display"`
	Provider ProviderConfig `yaml:"provider"`
	History  HistoryConfig  `yaml:"history"`
}

// TriggerConfig holds trigger-policy settings.
type TriggerConfig struct {
	DebounceMs           int     `yaml:"debounce_ms"`            // Quiet period before an auto trigger fires
	FastThresholdMs      int     `yaml:"fast_threshold_ms"`      // Inter-keystroke gap classified as fast typing
	ProgrammaticWindowMs int     `yaml:"programmatic_window_ms"` // Lookback window for burst detection
	ProgrammaticLookback int     `yaml:"programmatic_lookback"`  // Events kept in the lookback window
	ProgrammaticRatio    float64 `yaml:"programmatic_ratio"`     // Structured-rune ratio that marks an edit programmatic
}

// TimeoutConfig holds timeout-estimator settings.
type TimeoutConfig struct {
	BaseMs      int `yaml:"base_ms"`      // Fallback timeout when history is too thin
	MinMs       int `yaml:"min_ms"`      // Lower clamp for estimates
	MaxMs       int `yaml:"max_ms"`      // Upper clamp for estimates
	HistorySize int `yaml:"history_size"` // Ring capacity for request metrics
}

// DisplayConfig holds display-channel settings.
type DisplayConfig struct {
	Channels      []string `yaml:"channels"`        // Priority order: overlay, popup, literal
	PopupMaxWidth int      `yaml:"popup_max_width"` // Column clamp for the popup box
}

// ProviderConfig holds completion-provider settings.
type ProviderConfig struct {
	Command       string `yaml:"command"`        // CLI invoked per request; prompt on stdin, completion on stdout
	ContextBefore int    `yaml:"context_before"` // Runes of text snapshotted before the cursor
	ContextAfter  int    `yaml:"context_after"`  // Runes of text snapshotted after the cursor
}

// HistoryConfig holds acceptance-history settings.
type HistoryConfig struct {
	Path string `yaml:"path"` // SQLite file for accepted suggestions; empty disables persistence
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Mode: ModeAutoAssist,
		Trigger: TriggerConfig{
			DebounceMs:           300,
			FastThresholdMs:      100,
			ProgrammaticWindowMs: 150,
			ProgrammaticLookback: 8,
			ProgrammaticRatio:    0.7,
		},
		Timeout: TimeoutConfig{
			BaseMs:      15000,
			MinMs:       8000,
			MaxMs:       30000,
			HistorySize: 50,
		},
		Display: DisplayConfig{
			Channels:      []string{"overlay", "popup", "literal"},
			PopupMaxWidth: 60,
		},
		Provider: ProviderConfig{
			ContextBefore: 2000,
			ContextAfter:  500,
		},
	}
}

// applyDefaults fills in zero-valued fields with defaults.
func (c Config) applyDefaults() Config {
	d := DefaultConfig()
	if c.Trigger.DebounceMs <= 0 {
		c.Trigger.DebounceMs = d.Trigger.DebounceMs
	}
	if c.Trigger.FastThresholdMs <= 0 {
		c.Trigger.FastThresholdMs = d.Trigger.FastThresholdMs
	}
	if c.Trigger.ProgrammaticWindowMs <= 0 {
		c.Trigger.ProgrammaticWindowMs = d.Trigger.ProgrammaticWindowMs
	}
	if c.Trigger.ProgrammaticLookback <= 0 {
		c.Trigger.ProgrammaticLookback = d.Trigger.ProgrammaticLookback
	}
	if c.Trigger.ProgrammaticRatio <= 0 {
		c.Trigger.ProgrammaticRatio = d.Trigger.ProgrammaticRatio
	}
	if c.Timeout.BaseMs <= 0 {
		c.Timeout.BaseMs = d.Timeout.BaseMs
	}
	if c.Timeout.MinMs <= 0 {
		c.Timeout.MinMs = d.Timeout.MinMs
	}
	if c.Timeout.MaxMs <= 0 {
		c.Timeout.MaxMs = d.Timeout.MaxMs
	}
	if c.Timeout.HistorySize <= 0 {
		c.Timeout.HistorySize = d.Timeout.HistorySize
	}
	if len(c.Display.Channels) == 0 {
		c.Display.Channels = d.Display.Channels
	}
	if c.Display.PopupMaxWidth <= 0 {
		c.Display.PopupMaxWidth = d.Display.PopupMaxWidth
	}
	if c.Provider.ContextBefore <= 0 {
		c.Provider.ContextBefore = d.Provider.ContextBefore
	}
	if c.Provider.ContextAfter <= 0 {
		c.Provider.ContextAfter = d.Provider.ContextAfter
	}
	return c
}

// Validate checks the configuration for inconsistent values.
func (c Config) Validate() error {
	var errs []error
	if c.Timeout.MinMs > c.Timeout.MaxMs {
		errs = append(errs, fmt.Errorf("timeout.min_ms (%d) exceeds timeout.max_ms (%d)", c.Timeout.MinMs, c.Timeout.MaxMs))
	}
	if c.Trigger.ProgrammaticRatio > 1.0 {
		errs = append(errs, fmt.Errorf("trigger.programmatic_ratio (%g) must be at most 1.0", c.Trigger.ProgrammaticRatio))
	}
	for _, ch := range c.Display.Channels {
		switch ch {
		case "overlay", "popup", "literal":
		default:
			errs = append(errs, fmt.Errorf("display.channels: unknown channel %q", ch))
		}
	}
	return errors.Join(errs...)
}

// DefaultPath returns the default config file path (~/.ghosttype/config.yaml),
// honoring the GHOSTTYPE_CONFIG environment variable when set.
func DefaultPath() (string, error) {
	if p := os.Getenv("GHOSTTYPE_CONFIG"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".ghosttype", "config.yaml"), nil
}

// Load reads the config file at path. A missing file is not an error: the
// defaults are returned. Zero-valued fields are filled with defaults and the
// result is validated.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg = cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
