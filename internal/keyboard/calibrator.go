package keyboard

import "log"

// Calibrator collects anchor key presses in a fixed order and derives a
// KeyMap once all of them are captured.
//
// A Calibrator is not safe for concurrent use.
type Calibrator struct {
	strategy Strategy
	anchors  []Key
	next     int
	captured map[Key]Point

	keyMap   KeyMap
	complete bool
	lastErr  error
}

// NewCalibrator creates a Calibrator waiting for the strategy's first anchor.
func NewCalibrator(s Strategy) *Calibrator {
	return &Calibrator{
		strategy: s,
		anchors:  s.Anchors(),
		captured: make(map[Key]Point),
	}
}

// Strategy returns the strategy in use.
func (c *Calibrator) Strategy() Strategy {
	return c.strategy
}

// Next returns the anchor key expected next. It reports false when no
// anchor is pending.
func (c *Calibrator) Next() (Key, bool) {
	if c.complete || c.next >= len(c.anchors) {
		return "", false
	}
	return c.anchors[c.next], true
}

// Pending returns the anchors not captured yet, in order.
func (c *Calibrator) Pending() []Key {
	if c.complete {
		return nil
	}
	return append([]Key(nil), c.anchors[c.next:]...)
}

// Captured returns a copy of the captured anchor positions.
func (c *Calibrator) Captured() map[Key]Point {
	out := make(map[Key]Point, len(c.captured))
	for k, p := range c.captured {
		out[k] = p
	}
	return out
}

// RegisterAnchor records pos for key if key is the next pending anchor.
// It returns true once the final anchor is captured and a KeyMap was
// derived. Any other key, or a press while complete, returns false and
// changes nothing.
//
// If derivation fails the captured anchors are discarded and the sequence
// starts over; the previous KeyMap, if any, is kept.
func (c *Calibrator) RegisterAnchor(key Key, pos Point) bool {
	want, ok := c.Next()
	if !ok || key != want {
		return false
	}

	c.captured[key] = pos
	c.next++
	log.Printf("Calibration anchor %q captured at (%.1f, %.1f)", key, pos.X, pos.Y)

	if c.next < len(c.anchors) {
		return false
	}

	km, err := c.strategy.Derive(c.captured)
	if err != nil {
		log.Printf("Calibration failed, restarting: %v", err)
		c.lastErr = err
		c.restart()
		return false
	}

	c.keyMap = km
	c.complete = true
	c.lastErr = nil
	log.Printf("Calibration complete: %d keys mapped (%s)", km.Len(), c.strategy.Name())

	return true
}

// Restart discards captured anchors and waits for the first anchor again.
// The last derived KeyMap stays available through LastKeyMap.
func (c *Calibrator) Restart() {
	c.complete = false
	c.restart()
}

func (c *Calibrator) restart() {
	c.next = 0
	c.captured = make(map[Key]Point)
}

// Complete reports whether the current calibration produced a KeyMap.
func (c *Calibrator) Complete() bool {
	return c.complete
}

// KeyMap returns the derived KeyMap. It reports false until calibration is
// complete.
func (c *Calibrator) KeyMap() (KeyMap, bool) {
	if !c.complete {
		return KeyMap{}, false
	}
	return c.keyMap, true
}

// LastKeyMap returns the most recently derived KeyMap even while a
// recalibration is in progress.
func (c *Calibrator) LastKeyMap() (KeyMap, bool) {
	return c.keyMap, c.keyMap.positions != nil
}

// Err returns the error from the last failed derivation, or nil.
func (c *Calibrator) Err() error {
	return c.lastErr
}
