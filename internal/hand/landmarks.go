// Package hand provides the hand skeleton types shared by the detector,
// the shared-memory channels and the fingering engine.
package hand

import (
	"encoding/json"
	"fmt"
	"math"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// MaxHands is the most hands a result set ever carries.
const MaxHands = 2

// Point3D is a landmark in normalized image coordinates. X and Y are in
// [0,1] relative to the frame; Z is relative depth, smaller is closer to
// the camera.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Side is the handedness classification of a detected hand.
type Side uint8

const (
	Right Side = iota
	Left
)

// String returns "Left" or "Right".
func (s Side) String() string {
	if s == Left {
		return "Left"
	}
	return "Right"
}

// MarshalJSON encodes the side as its label.
func (s Side) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts "Left"/"Right" in any case.
func (s *Side) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	side, err := ParseSide(label)
	if err != nil {
		return err
	}
	*s = side
	return nil
}

// ParseSide converts a handedness label into a Side.
func ParseSide(label string) (Side, error) {
	switch label {
	case "Left", "left", "LEFT":
		return Left, nil
	case "Right", "right", "RIGHT":
		return Right, nil
	}
	return Right, fmt.Errorf("unknown handedness %q", label)
}

// Landmarks represents the 21 landmarks of one detected hand.
type Landmarks struct {
	Points [NumLandmarks]Point3D `json:"points"`
	Side   Side                  `json:"handedness"`
	Score  float64               `json:"score"`
}

// Valid reports whether every coordinate is a finite number.
func (h *Landmarks) Valid() bool {
	for _, p := range h.Points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsNaN(p.Z) ||
			math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) || math.IsInf(p.Z, 0) {
			return false
		}
	}
	return true
}

// Tip returns the fingertip landmark of the given digit.
func (h *Landmarks) Tip(d Digit) Point3D {
	return h.Points[d.TipIndex()]
}

// Pixel converts a normalized point to pixel coordinates for a frame of the
// given size.
func Pixel(p Point3D, width, height int) (float64, float64) {
	return p.X * float64(width), p.Y * float64(height)
}
