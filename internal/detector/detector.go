// Package detector runs hand-pose inference on frames from the frame
// channel and publishes the landmarks to the result channel.
package detector

import (
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/typecoach/internal/hand"
)

// Detector defines the interface for hand detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]hand.Landmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int `yaml:"max_hands"`

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64 `yaml:"min_confidence"`

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64 `yaml:"min_tracking_confidence"`

	// Script is the path to the MediaPipe helper. Empty searches the usual
	// install locations.
	Script string `yaml:"script"`

	// Python is the interpreter for Script. Empty prefers a venv, then
	// python3.
	Python string `yaml:"python"`

	// IdleTimeout stops the helper after this long without a frame.
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        hand.MaxHands,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		IdleTimeout:     30 * time.Second,
	}
}

// filterHands drops hands below minConfidence and keeps at most maxHands.
func filterHands(hands []hand.Landmarks, maxHands int, minConfidence float64) []hand.Landmarks {
	if maxHands <= 0 || maxHands > hand.MaxHands {
		maxHands = hand.MaxHands
	}

	out := hands[:0:0]
	for _, h := range hands {
		if h.Score < minConfidence {
			continue
		}
		out = append(out, h)
		if len(out) == maxHands {
			break
		}
	}
	return out
}
