package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Mode != ModeAutoAssist {
		t.Errorf("Mode = %v, want auto", cfg.Mode)
	}
	if cfg.Trigger.DebounceMs != 300 {
		t.Errorf("DebounceMs = %d, want 300", cfg.Trigger.DebounceMs)
	}
	if cfg.Timeout.MinMs != 8000 || cfg.Timeout.MaxMs != 30000 {
		t.Errorf("timeout bounds = [%d, %d], want [8000, 30000]", cfg.Timeout.MinMs, cfg.Timeout.MaxMs)
	}
	if cfg.Timeout.HistorySize != 50 {
		t.Errorf("HistorySize = %d, want 50", cfg.Timeout.HistorySize)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"disabled", ModeDisabled, false},
		{"off", ModeDisabled, false},
		{"manual", ModeManualOnly, false},
		{"MANUAL-ONLY", ModeManualOnly, false},
		{"auto", ModeAutoAssist, false},
		{" auto-assist ", ModeAutoAssist, false},
		{"always", ModeDisabled, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Mode != ModeAutoAssist {
		t.Errorf("missing file should yield defaults, got mode %v", cfg.Mode)
	}
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "mode: manual\ntrigger:\n  debounce_ms: 150\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Mode != ModeManualOnly {
		t.Errorf("Mode = %v, want manual", cfg.Mode)
	}
	if cfg.Trigger.DebounceMs != 150 {
		t.Errorf("DebounceMs = %d, want 150", cfg.Trigger.DebounceMs)
	}
	// Unset fields get defaults.
	if cfg.Trigger.FastThresholdMs != 100 {
		t.Errorf("FastThresholdMs = %d, want default 100", cfg.Trigger.FastThresholdMs)
	}
	if cfg.Timeout.BaseMs != 15000 {
		t.Errorf("BaseMs = %d, want default 15000", cfg.Timeout.BaseMs)
	}
}

func TestLoadInvalidMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("mode: sometimes\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timeout.MinMs = 40000
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when min exceeds max")
	}

	cfg = DefaultConfig()
	cfg.Display.Channels = []string{"overlay", "sky-writing"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown channel")
	}

	cfg = DefaultConfig()
	cfg.Trigger.ProgrammaticRatio = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for ratio above 1.0")
	}
}

func TestDefaultPathEnvOverride(t *testing.T) {
	t.Setenv("GHOSTTYPE_CONFIG", "/tmp/override.yaml")
	p, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if p != "/tmp/override.yaml" {
		t.Errorf("DefaultPath() = %q, want env override", p)
	}
}
