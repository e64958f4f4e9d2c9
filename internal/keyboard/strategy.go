package keyboard

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInsufficientAnchors is returned when a required anchor key has not
	// been captured.
	ErrInsufficientAnchors = errors.New("insufficient anchors")

	// ErrDegenerateAnchors is returned when the captured anchors cannot
	// define a keyboard, e.g. coincident or collinear points.
	ErrDegenerateAnchors = errors.New("degenerate anchors")

	// ErrUnknownStrategy is returned for an unrecognized strategy name.
	ErrUnknownStrategy = errors.New("unknown calibration strategy")
)

// Strategy derives a full KeyMap from a fixed set of anchor keys.
type Strategy interface {
	// Name identifies the strategy in configuration.
	Name() string
	// Anchors lists the anchor keys in the order they must be pressed.
	Anchors() []Key
	// Derive builds a KeyMap from captured anchor pixel positions.
	Derive(anchors map[Key]Point) (KeyMap, error)
}

// Strategy names accepted by StrategyByName.
const (
	StrategyLinear     = "linear"
	StrategyProjective = "projective"
)

// StrategyByName returns the named strategy.
func StrategyByName(name string) (Strategy, error) {
	switch name {
	case StrategyLinear:
		return Linear{}, nil
	case StrategyProjective, "":
		return Projective{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

func requireAnchors(s Strategy, anchors map[Key]Point) error {
	for _, k := range s.Anchors() {
		if _, ok := anchors[k]; !ok {
			return fmt.Errorf("%w: %s needs %q", ErrInsufficientAnchors, s.Name(), k)
		}
	}
	return nil
}

// Linear treats the top row as a straight line from q to p and places the
// lower rows at fixed offsets from it. It needs two key presses but assumes
// the keyboard is square to the camera.
type Linear struct{}

// Name returns "linear".
func (Linear) Name() string { return StrategyLinear }

// Anchors returns q and p.
func (Linear) Anchors() []Key { return []Key{"q", "p"} }

// Row geometry relative to one key width.
const (
	linearRowHeight = 1.1
	linearRowShift  = 0.5
)

// Derive places key j of row r at
// (q.x + r*0.5*w + j*w, q.y + r*1.1*w), where w = |qp| / 9.
func (l Linear) Derive(anchors map[Key]Point) (KeyMap, error) {
	if err := requireAnchors(l, anchors); err != nil {
		return KeyMap{}, err
	}

	q, p := anchors["q"], anchors["p"]
	width := math.Hypot(p.X-q.X, p.Y-q.Y) / 9
	if width < singularEpsilon || math.IsNaN(width) || math.IsInf(width, 0) {
		return KeyMap{}, fmt.Errorf("%w: q and p coincide", ErrDegenerateAnchors)
	}

	positions := make(map[Key]Point, 26)
	for r, row := range Rows {
		for j := 0; j < len(row); j++ {
			positions[Key(row[j:j+1])] = Point{
				X: q.X + float64(r)*linearRowShift*width + float64(j)*width,
				Y: q.Y + float64(r)*linearRowHeight*width,
			}
		}
	}

	return KeyMap{positions: positions}, nil
}

// Projective fits a perspective transform from the idealized grid to four
// anchors and maps every key through it. It tolerates camera tilt and rotation.
type Projective struct{}

// Name returns "projective".
func (Projective) Name() string { return StrategyProjective }

// Anchors returns q, p, z and m.
func (Projective) Anchors() []Key { return []Key{"q", "p", "z", "m"} }

// Derive fits the transform and projects every letter.
func (pr Projective) Derive(anchors map[Key]Point) (KeyMap, error) {
	if err := requireAnchors(pr, anchors); err != nil {
		return KeyMap{}, err
	}

	var src, dst [4]Point
	for i, k := range pr.Anchors() {
		src[i], _ = IdealPosition(k)
		dst[i] = anchors[k]
	}

	letters := Letters()
	ideal := make([]Point, len(letters))
	for i, k := range letters {
		ideal[i], _ = IdealPosition(k)
	}

	mapped, err := perspectiveMap(src, dst, ideal)
	if err != nil {
		return KeyMap{}, err
	}

	positions := make(map[Key]Point, len(letters))
	for i, k := range letters {
		positions[k] = mapped[i]
	}

	return KeyMap{positions: positions}, nil
}
