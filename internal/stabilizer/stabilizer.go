// Package stabilizer smooths landmark jitter between consecutive results.
package stabilizer

import (
	"fmt"

	"github.com/ayusman/typecoach/internal/hand"
)

// DefaultAlpha weights the current frame and the smoothed history equally.
const DefaultAlpha = 0.5

// Stabilizer applies an exponential moving average to every landmark of
// every hand. It keeps one previous smoothed result, held by value.
//
// A Stabilizer is not safe for concurrent use.
type Stabilizer struct {
	alpha float64
	prev  [hand.MaxHands]hand.Landmarks
	count int
}

// New creates a Stabilizer. Alpha must be in (0, 1]; higher values follow
// the input more closely, lower values smooth harder.
func New(alpha float64) (*Stabilizer, error) {
	if !(alpha > 0 && alpha <= 1) {
		return nil, fmt.Errorf("stabilizer alpha %v outside (0, 1]", alpha)
	}
	return &Stabilizer{alpha: alpha}, nil
}

// Alpha returns the smoothing factor.
func (s *Stabilizer) Alpha() float64 {
	return s.alpha
}

// Process smooths current against the history and returns a fresh slice.
//
// Algorithm:
//  1. No hands clears the history and returns nil, so no smoothing spans a gap.
//  2. A hand count different from the previous call starts a fresh track:
//     the input is stored and returned unchanged.
//  3. Otherwise each coordinate becomes alpha*current + (1-alpha)*previous,
//     and the smoothed values become the history. A left and a right hand
//     pair with the history by Side; any other set pairs by index.
//
// Hands beyond MaxHands are dropped.
func (s *Stabilizer) Process(current []hand.Landmarks) []hand.Landmarks {
	if len(current) > hand.MaxHands {
		current = current[:hand.MaxHands]
	}

	if len(current) == 0 {
		s.Reset()
		return nil
	}

	out := make([]hand.Landmarks, len(current))
	copy(out, current)

	if len(current) == s.count {
		a := s.alpha
		for i := range out {
			prev := &s.prev[s.partner(current, i)]
			for j := range out[i].Points {
				c := &out[i].Points[j]
				p := prev.Points[j]
				c.X = a*c.X + (1-a)*p.X
				c.Y = a*c.Y + (1-a)*p.Y
				c.Z = a*c.Z + (1-a)*p.Z
			}
		}
	}

	s.count = len(out)
	copy(s.prev[:], out)

	return out
}

// partner returns the history slot smoothed into current hand i.
func (s *Stabilizer) partner(current []hand.Landmarks, i int) int {
	if len(current) != 2 || current[0].Side == current[1].Side || s.prev[0].Side == s.prev[1].Side {
		return i
	}
	if current[i].Side == s.prev[i].Side {
		return i
	}
	return 1 - i
}

// Reset forgets the history.
func (s *Stabilizer) Reset() {
	s.count = 0
	s.prev = [hand.MaxHands]hand.Landmarks{}
}
