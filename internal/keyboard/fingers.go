package keyboard

import "github.com/ayusman/typecoach/internal/hand"

// fingerTable is the standard QWERTY touch-typing assignment, indexed by
// letter.
var fingerTable = [26]hand.Finger{
	'a' - 'a': hand.LeftPinky,
	'b' - 'a': hand.LeftIndex,
	'c' - 'a': hand.LeftMiddle,
	'd' - 'a': hand.LeftMiddle,
	'e' - 'a': hand.LeftMiddle,
	'f' - 'a': hand.LeftIndex,
	'g' - 'a': hand.LeftIndex,
	'h' - 'a': hand.RightIndex,
	'i' - 'a': hand.RightMiddle,
	'j' - 'a': hand.RightIndex,
	'k' - 'a': hand.RightMiddle,
	'l' - 'a': hand.RightRing,
	'm' - 'a': hand.RightIndex,
	'n' - 'a': hand.RightIndex,
	'o' - 'a': hand.RightRing,
	'p' - 'a': hand.RightPinky,
	'q' - 'a': hand.LeftPinky,
	'r' - 'a': hand.LeftIndex,
	's' - 'a': hand.LeftRing,
	't' - 'a': hand.LeftIndex,
	'u' - 'a': hand.RightIndex,
	'v' - 'a': hand.LeftIndex,
	'w' - 'a': hand.LeftRing,
	'x' - 'a': hand.LeftRing,
	'y' - 'a': hand.RightIndex,
	'z' - 'a': hand.LeftPinky,
}

// FingerFor returns the finger that should type key. Keys without a rule,
// such as space or punctuation, report false.
func FingerFor(key Key) (hand.Finger, bool) {
	i, ok := key.Letter()
	if !ok {
		return hand.NoFinger, false
	}
	return fingerTable[i], true
}
