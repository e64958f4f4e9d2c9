// Package keyboard maps physical keys to fingers and, after calibration, to
// pixel positions in the camera frame.
package keyboard

// Key is a pressed key: a single lowercase character, or one of the named
// tokens below.
type Key string

// Named keys delivered by key sources.
const (
	KeySpace     Key = "space"
	KeyEnter     Key = "enter"
	KeyTab       Key = "tab"
	KeyBackspace Key = "backspace"
	KeyEscape    Key = "esc"
)

// Letter returns the alphabet index (a=0) of a single-letter key.
func (k Key) Letter() (int, bool) {
	if len(k) != 1 || k[0] < 'a' || k[0] > 'z' {
		return 0, false
	}
	return int(k[0] - 'a'), true
}

// Named reports whether k is one of the named tokens.
func (k Key) Named() bool {
	switch k {
	case KeySpace, KeyEnter, KeyTab, KeyBackspace, KeyEscape:
		return true
	}
	return false
}

// Rune returns the character a key types, or 0 for keys that type nothing
// visible.
func (k Key) Rune() rune {
	switch k {
	case KeySpace:
		return ' '
	case KeyEnter:
		return '\n'
	case KeyTab:
		return '\t'
	}
	if len(k) == 1 {
		return rune(k[0])
	}
	return 0
}
