package fingering

import (
	"math"

	"github.com/ayusman/typecoach/internal/hand"
	"github.com/ayusman/typecoach/internal/keyboard"
)

// Thresholds holds the pixel tolerances used by Classify.
type Thresholds struct {
	// Correct is the distance below which the assigned finger counts as the
	// presser without searching other fingers.
	Correct float64
	// Far is the distance beyond which no finger counts as the presser.
	Far float64
}

// DefaultThresholds returns 30 px and 60 px at calibration resolution.
func DefaultThresholds() Thresholds {
	return Thresholds{Correct: 30, Far: 60}
}

// Frame is the pixel size landmarks are scaled to. It must match the
// resolution the KeyMap was calibrated at.
type Frame struct {
	Width  int
	Height int
}

// Classify judges which finger pressed key.
//
// Algorithm:
//  1. A key without a finger assignment is NoRule.
//  2. A key without a KeyMap position is Unmapped.
//  3. If a hand on the assigned side has the assigned fingertip closer than
//     th.Correct to the key, the verdict is Correct.
//  4. Otherwise the fingertip nearest the key across all hands is found.
//     Beyond th.Far (or no hands at all) the verdict is Unknown; the
//     assigned finger is Correct; any other finger is Wrong.
//
// Equal distances resolve to the finger that comes first in hand.Finger
// order, left hand first and thumb to pinky.
func Classify(key keyboard.Key, km keyboard.KeyMap, hands []hand.Landmarks, frame Frame, th Thresholds) Verdict {
	expected, ok := keyboard.FingerFor(key)
	if !ok {
		return Verdict{Outcome: NoRule, Expected: hand.NoFinger, Finger: hand.NoFinger}
	}

	target, ok := km.Lookup(key)
	if !ok {
		return Verdict{Outcome: Unmapped, Expected: expected, Finger: hand.NoFinger}
	}

	for i := range hands {
		if !hands[i].Valid() {
			return unknown(expected, ReasonInvalidLandmark)
		}
	}

	for i := range hands {
		if hands[i].Side != expected.Side() {
			continue
		}
		d := tipDistance(&hands[i], expected.Digit(), target, frame)
		if d < th.Correct {
			return Verdict{Outcome: Correct, Expected: expected, Finger: expected, Distance: d}
		}
	}

	nearest, best := nearestFinger(hands, target, frame)
	if nearest == hand.NoFinger || best > th.Far {
		v := unknown(expected, ReasonHandTooFar)
		if nearest != hand.NoFinger {
			v.Distance = best
		}
		return v
	}

	v := Verdict{Expected: expected, Finger: nearest, Distance: best, Outcome: Wrong}
	if nearest == expected {
		v.Outcome = Correct
	}
	return v
}

func nearestFinger(hands []hand.Landmarks, target keyboard.Point, frame Frame) (hand.Finger, float64) {
	nearest := hand.NoFinger
	best := math.Inf(1)

	for i := range hands {
		for d := hand.Thumb; d < hand.NumDigits; d++ {
			f := hand.FingerOf(hands[i].Side, d)
			dist := tipDistance(&hands[i], d, target, frame)
			if dist < best || (dist == best && f < nearest) {
				nearest, best = f, dist
			}
		}
	}

	return nearest, best
}

func tipDistance(h *hand.Landmarks, d hand.Digit, target keyboard.Point, frame Frame) float64 {
	x, y := hand.Pixel(h.Tip(d), frame.Width, frame.Height)
	return math.Hypot(x-target.X, y-target.Y)
}

// PressingFingertip returns the fingertip closest to the camera (smallest
// z) across all hands, in pixels. The finger pressing a key is the one
// reaching furthest down. It reports false when no valid hand is present.
func PressingFingertip(hands []hand.Landmarks, frame Frame) (keyboard.Point, hand.Finger, bool) {
	found := hand.NoFinger
	var pos keyboard.Point
	minZ := math.Inf(1)

	for i := range hands {
		if !hands[i].Valid() {
			continue
		}
		for d := hand.Thumb; d < hand.NumDigits; d++ {
			tip := hands[i].Tip(d)
			if tip.Z < minZ {
				minZ = tip.Z
				found = hand.FingerOf(hands[i].Side, d)
				pos.X, pos.Y = hand.Pixel(tip, frame.Width, frame.Height)
			}
		}
	}

	return pos, found, found != hand.NoFinger
}
