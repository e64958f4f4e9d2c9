package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.FrameDimensions().FrameSize() != 1280*720*3 {
		t.Errorf("unexpected default frame size %v", cfg.FrameDimensions())
	}
	if cfg.Calibration.Strategy != "projective" {
		t.Errorf("default strategy = %q, want projective", cfg.Calibration.Strategy)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typecoach.yaml")
	content := `
channel:
  dir: /tmp/shm
  width: 640
  height: 480
camera:
  interval: 40ms
calibration:
  strategy: linear
corrector:
  alpha: 0.3
practice:
  level: intermediate
  text: 2
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Channel.Dir != "/tmp/shm" || cfg.Channel.Width != 640 || cfg.Channel.Height != 480 {
		t.Errorf("channel = %+v", cfg.Channel)
	}
	if cfg.Camera.Interval != 40*time.Millisecond {
		t.Errorf("camera.interval = %v, want 40ms", cfg.Camera.Interval)
	}
	if cfg.Calibration.Strategy != "linear" || cfg.Corrector.Alpha != 0.3 {
		t.Errorf("calibration/corrector = %+v / %+v", cfg.Calibration, cfg.Corrector)
	}
	// Unset keys keep their defaults.
	if cfg.Channel.Frames != "typecoach_frames" || cfg.Corrector.Far != 60 {
		t.Errorf("defaults lost: frames=%q far=%v", cfg.Channel.Frames, cfg.Corrector.Far)
	}

	cs := cfg.CorrectorSettings()
	if cs.Frame.Width != 640 || cs.Thresholds.Correct != 30 {
		t.Errorf("CorrectorSettings() = %+v", cs)
	}
	if cc := cfg.CaptureConfig(); cc.Width != 640 || cc.Height != 480 {
		t.Errorf("CaptureConfig() = %+v", cc)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for a missing explicit config file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("channel: [unclosed"), 0644)

	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"TYPECOACH_SHM_DIR": "/run/shm",
		"TYPECOACH_WIDTH":   "320",
		"TYPECOACH_HEIGHT":  "240",
		"TYPECOACH_CAMERA":  "2",
		"TYPECOACH_ADDR":    ":9000",
		"TYPECOACH_DB":      "/tmp/j.db",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	if err := cfg.applyEnv(lookup); err != nil {
		t.Fatalf("applyEnv() error = %v", err)
	}

	if cfg.Channel.Dir != "/run/shm" || cfg.Channel.Width != 320 || cfg.Channel.Height != 240 {
		t.Errorf("channel = %+v", cfg.Channel)
	}
	if cfg.Camera.Device != 2 || cfg.Server.Addr != ":9000" || cfg.Store.Path != "/tmp/j.db" {
		t.Errorf("camera=%d addr=%q db=%q", cfg.Camera.Device, cfg.Server.Addr, cfg.Store.Path)
	}

	env["TYPECOACH_WIDTH"] = "wide"
	if err := cfg.applyEnv(lookup); !errors.Is(err, ErrInvalid) {
		t.Errorf("non-integer width: got %v, want ErrInvalid", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Channel.Width = 0 }},
		{"same channel names", func(c *Config) { c.Channel.Results = c.Channel.Frames }},
		{"alpha zero", func(c *Config) { c.Corrector.Alpha = 0 }},
		{"alpha above one", func(c *Config) { c.Corrector.Alpha = 1.2 }},
		{"far below correct", func(c *Config) { c.Corrector.Far = 10 }},
		{"unknown strategy", func(c *Config) { c.Calibration.Strategy = "cubic" }},
		{"unknown key source", func(c *Config) { c.Keys.Source = "usb" }},
		{"process source without command", func(c *Config) { c.Keys.Source = KeySourceProcess }},
		{"unknown drill level", func(c *Config) { c.Practice.Level = "expert" }},
		{"negative camera interval", func(c *Config) { c.Camera.Interval = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "typecoach.yaml")

	cfg := Default()
	cfg.Camera.Interval = 25 * time.Millisecond
	cfg.Keys = KeysConfig{Source: KeySourceProcess, Command: "keyd-tap", Args: []string{"--json"}}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Camera.Interval != 25*time.Millisecond {
		t.Errorf("interval = %v, want 25ms", loaded.Camera.Interval)
	}
	if loaded.Keys.Command != "keyd-tap" || len(loaded.Keys.Args) != 1 {
		t.Errorf("keys = %+v", loaded.Keys)
	}
}
