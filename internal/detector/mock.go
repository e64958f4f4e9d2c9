package detector

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/typecoach/internal/hand"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []hand.Landmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []hand.Landmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect ran.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]hand.Landmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return append([]hand.Landmarks(nil), m.hands...), nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// RestingHand returns a hand with its fingertips resting on the home row,
// seen from above. x is the normalized horizontal center of the hand.
func RestingHand(side hand.Side, x float64) hand.Landmarks {
	h := hand.Landmarks{Side: side, Score: 0.95}

	// Fingers fan out from the wrist toward the keys; the thumb sits lower
	// on the space bar. Left hands run pinky-to-index left to right.
	dir := 1.0
	if side == hand.Left {
		dir = -1.0
	}

	h.Points[hand.Wrist] = hand.Point3D{X: x, Y: 0.85, Z: 0}
	spread := [hand.NumDigits]float64{-0.06, -0.03, 0, 0.03, 0.06}
	tipY := [hand.NumDigits]float64{0.62, 0.50, 0.48, 0.50, 0.53}

	for d := hand.Thumb; d < hand.NumDigits; d++ {
		tipX := x + dir*spread[d]
		base := hand.Point3D{X: x + dir*spread[d]*0.5, Y: 0.72, Z: -0.01}
		tip := d.TipIndex()
		for j := 3; j >= 0; j-- {
			f := float64(4-j) / 4
			h.Points[tip-j] = hand.Point3D{
				X: base.X + (tipX-base.X)*f,
				Y: base.Y + (tipY[d]-base.Y)*f,
				Z: base.Z - 0.01*f,
			}
		}
	}

	return h
}

// PressingHand returns RestingHand with one fingertip moved to (x, y) and
// pushed toward the camera, as when that finger presses a key.
func PressingHand(side hand.Side, d hand.Digit, x, y float64) hand.Landmarks {
	h := RestingHand(side, x)
	h.Points[d.TipIndex()] = hand.Point3D{X: x, Y: y, Z: -0.08}
	return h
}
