package keyboard

import (
	"encoding/json"
	"sort"
)

// KeyMap maps letter keys to pixel positions. A KeyMap is immutable once
// built; recalibration produces a new one.
type KeyMap struct {
	positions map[Key]Point
}

// NewKeyMap copies positions into a KeyMap.
func NewKeyMap(positions map[Key]Point) KeyMap {
	m := make(map[Key]Point, len(positions))
	for k, p := range positions {
		m[k] = p
	}
	return KeyMap{positions: m}
}

// Lookup returns the pixel position of key.
func (m KeyMap) Lookup(key Key) (Point, bool) {
	p, ok := m.positions[key]
	return p, ok
}

// Len returns the number of mapped keys.
func (m KeyMap) Len() int {
	return len(m.positions)
}

// Keys returns the mapped keys, sorted.
func (m KeyMap) Keys() []Key {
	keys := make([]Key, 0, len(m.positions))
	for k := range m.positions {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// MarshalJSON encodes the map as {"q": {"x":..,"y":..}, ...}.
func (m KeyMap) MarshalJSON() ([]byte, error) {
	if m.positions == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m.positions)
}
