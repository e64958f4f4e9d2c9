package hand

import (
	"encoding/json"
	"fmt"
)

// Digit identifies a finger independent of the hand, ordered thumb to pinky.
type Digit uint8

const (
	Thumb Digit = iota
	Index
	Middle
	Ring
	Pinky
	NumDigits
)

var tipIndices = [NumDigits]int{ThumbTip, IndexTip, MiddleTip, RingTip, PinkyTip}

var digitNames = [NumDigits]string{"THUMB", "INDEX", "MIDDLE", "RING", "PINKY"}

// TipIndex returns the landmark index of the digit's tip.
func (d Digit) TipIndex() int {
	return tipIndices[d]
}

func (d Digit) String() string {
	if d >= NumDigits {
		return fmt.Sprintf("Digit(%d)", uint8(d))
	}
	return digitNames[d]
}

// Finger is one of the ten canonical fingers. The enumeration order, left
// hand first and thumb to pinky within a hand, is the fixed ordering used
// for deterministic tie-breaks.
type Finger uint8

const (
	LeftThumb Finger = iota
	LeftIndex
	LeftMiddle
	LeftRing
	LeftPinky
	RightThumb
	RightIndex
	RightMiddle
	RightRing
	RightPinky
	NumFingers

	// NoFinger marks the absence of a finger.
	NoFinger Finger = 0xff
)

var fingerNames = [NumFingers]string{
	"LEFT_THUMB", "LEFT_INDEX", "LEFT_MIDDLE", "LEFT_RING", "LEFT_PINKY",
	"RIGHT_THUMB", "RIGHT_INDEX", "RIGHT_MIDDLE", "RIGHT_RING", "RIGHT_PINKY",
}

// FingerOf combines a hand side and a digit.
func FingerOf(s Side, d Digit) Finger {
	if s == Left {
		return Finger(d)
	}
	return Finger(NumDigits) + Finger(d)
}

// Side returns the hand the finger belongs to.
func (f Finger) Side() Side {
	if f < Finger(NumDigits) {
		return Left
	}
	return Right
}

// Digit returns the finger's position on its hand.
func (f Finger) Digit() Digit {
	return Digit(f % Finger(NumDigits))
}

// Valid reports whether f is one of the ten fingers.
func (f Finger) Valid() bool {
	return f < NumFingers
}

func (f Finger) String() string {
	if !f.Valid() {
		return "NONE"
	}
	return fingerNames[f]
}

// MarshalJSON encodes the finger by name, or null for NoFinger.
func (f Finger) MarshalJSON() ([]byte, error) {
	if !f.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(f.String())
}

// ParseFinger converts a name such as "LEFT_INDEX" into a Finger.
func ParseFinger(name string) (Finger, error) {
	for i, n := range fingerNames {
		if n == name {
			return Finger(i), nil
		}
	}
	return NoFinger, fmt.Errorf("unknown finger %q", name)
}
