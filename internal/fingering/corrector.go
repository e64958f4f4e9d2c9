// Package fingering judges whether each keystroke was typed with the
// assigned finger, after calibrating the keyboard's position in the frame.
package fingering

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/ayusman/typecoach/internal/hand"
	"github.com/ayusman/typecoach/internal/keyboard"
)

// ErrNotCalibrated is returned when a keystroke is checked before a KeyMap
// exists.
var ErrNotCalibrated = errors.New("keyboard not calibrated")

// State is the corrector's lifecycle state.
type State uint8

const (
	Uncalibrated State = iota
	Calibrating
	Ready
)

func (s State) String() string {
	switch s {
	case Uncalibrated:
		return "uncalibrated"
	case Calibrating:
		return "calibrating"
	case Ready:
		return "ready"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Config holds corrector settings.
type Config struct {
	Frame      Frame
	Thresholds Thresholds
}

// DefaultConfig returns defaults for a 1280x720 camera.
func DefaultConfig() Config {
	return Config{
		Frame:      Frame{Width: 1280, Height: 720},
		Thresholds: DefaultThresholds(),
	}
}

// Event is what the corrector did with one keystroke.
type Event struct {
	Key   keyboard.Key `json:"key"`
	State State        `json:"state"`

	// Anchor is set when the keystroke was captured as a calibration anchor.
	Anchor bool `json:"anchor,omitempty"`
	// Calibrated is set when the keystroke completed calibration.
	Calibrated bool `json:"calibrated,omitempty"`

	// Verdict is set when the keystroke was judged.
	Verdict *Verdict `json:"verdict,omitempty"`
}

// Status is a snapshot of the corrector for display.
type Status struct {
	State    State           `json:"state"`
	Strategy string          `json:"strategy"`
	Pending  []keyboard.Key  `json:"pending"`
	KeyMap   keyboard.KeyMap `json:"key_map"`
}

// Corrector runs the Uncalibrated -> Calibrating -> Ready state machine and
// judges keystrokes once Ready. It is safe for concurrent use.
type Corrector struct {
	mu         sync.Mutex
	config     Config
	calibrator *keyboard.Calibrator
	state      State
}

// New creates a Corrector in the Uncalibrated state.
func New(cfg Config, strategy keyboard.Strategy) *Corrector {
	return &Corrector{
		config:     cfg,
		calibrator: keyboard.NewCalibrator(strategy),
	}
}

// State returns the current state.
func (c *Corrector) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Status returns a snapshot for display.
func (c *Corrector) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	km, _ := c.calibrator.KeyMap()
	return Status{
		State:    c.state,
		Strategy: c.calibrator.Strategy().Name(),
		Pending:  c.calibrator.Pending(),
		KeyMap:   km,
	}
}

// StartCalibration discards any captured anchors and waits for the first
// anchor key. It may be called in any state to recalibrate.
func (c *Corrector) StartCalibration() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calibrator.Restart()
	c.state = Calibrating

	next, _ := c.calibrator.Next()
	log.Printf("Calibrating (%s): press %q", c.calibrator.Strategy().Name(), next)
}

// NextAnchor returns the anchor key to press next while calibrating.
func (c *Corrector) NextAnchor() (keyboard.Key, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Calibrating {
		return "", false
	}
	return c.calibrator.Next()
}

// Handle feeds one keystroke and the hands visible at that moment through
// the state machine.
//
// While Calibrating, a press of the next anchor key with a visible
// fingertip captures that anchor; every other press is ignored. While
// Ready, the press is judged with CheckFingering.
func (c *Corrector) Handle(key keyboard.Key, hands []hand.Landmarks) Event {
	c.mu.Lock()
	state := c.state
	if state != Ready {
		ev := c.calibrateLocked(key, hands)
		c.mu.Unlock()
		return ev
	}
	c.mu.Unlock()

	v, err := c.CheckFingering(key, hands)
	if err != nil {
		// Recalibration started between the two locks.
		return Event{Key: key, State: c.State()}
	}
	return Event{Key: key, State: Ready, Verdict: &v}
}

func (c *Corrector) calibrateLocked(key keyboard.Key, hands []hand.Landmarks) Event {
	ev := Event{Key: key, State: c.state}
	if c.state != Calibrating {
		return ev
	}

	next, ok := c.calibrator.Next()
	if !ok || key != next {
		return ev
	}

	pos, _, ok := PressingFingertip(hands, c.config.Frame)
	if !ok {
		log.Printf("Anchor %q pressed but no fingertip visible", key)
		return ev
	}

	before := len(c.calibrator.Captured())
	done := c.calibrator.RegisterAnchor(key, pos)
	ev.Anchor = done || len(c.calibrator.Captured()) > before

	if done {
		c.state = Ready
		ev.State = Ready
		ev.Calibrated = true
	}

	return ev
}

// CheckFingering judges key against the current KeyMap. It returns
// ErrNotCalibrated unless the corrector is Ready. A failure inside the
// judgement degrades to an Unknown verdict.
func (c *Corrector) CheckFingering(key keyboard.Key, hands []hand.Landmarks) (v Verdict, err error) {
	c.mu.Lock()
	if c.state != Ready {
		c.mu.Unlock()
		return Verdict{}, ErrNotCalibrated
	}
	km, _ := c.calibrator.KeyMap()
	cfg := c.config
	c.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("Fingering check for %q failed: %v", key, r)
			v, err = unknown(hand.NoFinger, fmt.Sprintf("internal error: %v", r)), nil
		}
	}()

	return Classify(key, km, hands, cfg.Frame, cfg.Thresholds), nil
}
