// Package config loads the shared typecoach configuration: one YAML file
// read by all three processes, so region names and frame dimensions agree.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/typecoach/internal/capture"
	"github.com/ayusman/typecoach/internal/detector"
	"github.com/ayusman/typecoach/internal/fingering"
	"github.com/ayusman/typecoach/internal/hook"
	"github.com/ayusman/typecoach/internal/keyboard"
	"github.com/ayusman/typecoach/internal/practice"
	"github.com/ayusman/typecoach/internal/shm"
	"github.com/ayusman/typecoach/internal/stabilizer"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Key sources.
const (
	KeySourceTerminal = "terminal"
	KeySourceProcess  = "process"
)

// Config is the complete configuration.
type Config struct {
	Channel     ChannelConfig     `yaml:"channel"`
	Camera      CameraConfig      `yaml:"camera"`
	Detector    detector.Config   `yaml:"detector"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Corrector   CorrectorConfig   `yaml:"corrector"`
	Keys        KeysConfig        `yaml:"keys"`
	Server      ServerConfig      `yaml:"server"`
	Store       StoreConfig       `yaml:"store"`
	Practice    PracticeConfig    `yaml:"practice"`
	Hooks       HooksConfig       `yaml:"hooks"`
	Tray        TrayConfig        `yaml:"tray"`
}

// ChannelConfig names the shared-memory regions and fixes the frame size.
type ChannelConfig struct {
	Dir     string `yaml:"dir"`
	Frames  string `yaml:"frames"`
	Results string `yaml:"results"`
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
}

// CameraConfig selects the capture device. Interval paces capture; zero
// captures as fast as the camera delivers.
type CameraConfig struct {
	Device   int           `yaml:"device"`
	FPS      int           `yaml:"fps"`
	Interval time.Duration `yaml:"interval"`
}

// CalibrationConfig picks the key map model.
type CalibrationConfig struct {
	Strategy string `yaml:"strategy"`
}

// CorrectorConfig tunes smoothing and the distance thresholds in pixels.
type CorrectorConfig struct {
	Alpha   float64 `yaml:"alpha"`
	Correct float64 `yaml:"correct"`
	Far     float64 `yaml:"far"`
}

// KeysConfig selects where keystrokes come from.
type KeysConfig struct {
	Source  string   `yaml:"source"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// ServerConfig controls the status API.
type ServerConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

// StoreConfig locates the session journal. An empty path disables it.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// PracticeConfig starts a drill once calibrated. An empty level disables it.
type PracticeConfig struct {
	Level string `yaml:"level"`
	Text  int    `yaml:"text"`
}

// HooksConfig locates feedback hooks.
type HooksConfig struct {
	Dir     string        `yaml:"dir"`
	Timeout time.Duration `yaml:"timeout"`
}

// TrayConfig controls the system tray.
type TrayConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Dir returns the per-user data directory, ~/.typecoach.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".typecoach"
	}
	return filepath.Join(home, ".typecoach")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Channel: ChannelConfig{
			Dir:     shm.DefaultDir,
			Frames:  "typecoach_frames",
			Results: "typecoach_results",
			Width:   capture.DefaultWidth,
			Height:  capture.DefaultHeight,
		},
		Camera: CameraConfig{
			Device: 0,
			FPS:    capture.DefaultFPS,
		},
		Detector:    detector.DefaultConfig(),
		Calibration: CalibrationConfig{Strategy: keyboard.StrategyProjective},
		Corrector: CorrectorConfig{
			Alpha:   stabilizer.DefaultAlpha,
			Correct: fingering.DefaultThresholds().Correct,
			Far:     fingering.DefaultThresholds().Far,
		},
		Keys: KeysConfig{Source: KeySourceTerminal},
		Server: ServerConfig{
			Enabled: true,
			Addr:    "127.0.0.1:8090",
		},
		Store: StoreConfig{Path: filepath.Join(Dir(), "typecoach.db")},
		Hooks: HooksConfig{
			Dir:     filepath.Join(Dir(), "hooks"),
			Timeout: hook.DefaultTimeout,
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path (if path is
// not empty) and then with TYPECOACH_* environment variables, validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("TYPECOACH_SHM_DIR"); ok {
		c.Channel.Dir = v
	}
	if v, ok := lookup("TYPECOACH_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := lookup("TYPECOACH_DB"); ok {
		c.Store.Path = v
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"TYPECOACH_WIDTH", &c.Channel.Width},
		{"TYPECOACH_HEIGHT", &c.Channel.Height},
		{"TYPECOACH_CAMERA", &c.Camera.Device},
	}
	for _, e := range ints {
		v, ok := lookup(e.name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalid, e.name, v)
		}
		*e.dst = n
	}
	return nil
}

// Validate checks the settings every process depends on.
func (c *Config) Validate() error {
	if c.Channel.Frames == "" || c.Channel.Results == "" {
		return fmt.Errorf("%w: channel names must not be empty", ErrInvalid)
	}
	if c.Channel.Frames == c.Channel.Results {
		return fmt.Errorf("%w: frame and result channels share the name %q", ErrInvalid, c.Channel.Frames)
	}
	if c.Channel.Width <= 0 || c.Channel.Height <= 0 {
		return fmt.Errorf("%w: frame size %dx%d", ErrInvalid, c.Channel.Width, c.Channel.Height)
	}
	if c.Camera.FPS < 0 || c.Camera.Interval < 0 {
		return fmt.Errorf("%w: negative camera pacing", ErrInvalid)
	}
	if c.Corrector.Alpha <= 0 || c.Corrector.Alpha > 1 {
		return fmt.Errorf("%w: corrector.alpha %v outside (0, 1]", ErrInvalid, c.Corrector.Alpha)
	}
	if c.Corrector.Correct <= 0 || c.Corrector.Far < c.Corrector.Correct {
		return fmt.Errorf("%w: thresholds correct=%v far=%v", ErrInvalid, c.Corrector.Correct, c.Corrector.Far)
	}
	if _, err := keyboard.StrategyByName(c.Calibration.Strategy); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	switch c.Keys.Source {
	case KeySourceTerminal:
	case KeySourceProcess:
		if c.Keys.Command == "" {
			return fmt.Errorf("%w: keys.command is required for the process source", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown key source %q", ErrInvalid, c.Keys.Source)
	}
	if c.Practice.Level != "" {
		if _, err := practice.NewDrill(practice.Level(c.Practice.Level), c.Practice.Text); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}
	return nil
}

// FrameDimensions returns the shared frame geometry.
func (c *Config) FrameDimensions() shm.Dimensions {
	return shm.Dimensions{Width: c.Channel.Width, Height: c.Channel.Height, Channels: 3}
}

// CaptureConfig returns the camera settings at the shared frame size.
func (c *Config) CaptureConfig() capture.Config {
	return capture.Config{
		Device: c.Camera.Device,
		Width:  c.Channel.Width,
		Height: c.Channel.Height,
		FPS:    c.Camera.FPS,
	}
}

// CorrectorSettings returns the fingering configuration at the shared frame
// size.
func (c *Config) CorrectorSettings() fingering.Config {
	return fingering.Config{
		Frame:      fingering.Frame{Width: c.Channel.Width, Height: c.Channel.Height},
		Thresholds: fingering.Thresholds{Correct: c.Corrector.Correct, Far: c.Corrector.Far},
	}
}
