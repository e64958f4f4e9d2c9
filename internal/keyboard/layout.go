package keyboard

// Point is a 2D position, in pixels or in key units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rows are the three letter rows of a QWERTY keyboard, top first.
var Rows = [3]string{"qwertyuiop", "asdfghjkl", "zxcvbnm"}

// rowStagger is each row's horizontal offset in key units relative to the
// top row on the idealized grid.
var rowStagger = [3]float64{0, 0.25, 0.75}

// Letters returns every letter key in row order.
func Letters() []Key {
	keys := make([]Key, 0, 26)
	for _, row := range Rows {
		for i := 0; i < len(row); i++ {
			keys = append(keys, Key(row[i:i+1]))
		}
	}
	return keys
}

// position returns a letter's row and column.
func position(key Key) (row, col int, ok bool) {
	if _, ok := key.Letter(); !ok {
		return 0, 0, false
	}
	for r, keys := range Rows {
		for c := 0; c < len(keys); c++ {
			if keys[c] == key[0] {
				return r, c, true
			}
		}
	}
	return 0, 0, false
}

// IdealPosition returns a letter's position on the idealized grid, in key
// units: q is (0,0), p is (9,0), z is (0.75,2), m is (6.75,2).
func IdealPosition(key Key) (Point, bool) {
	row, col, ok := position(key)
	if !ok {
		return Point{}, false
	}
	return Point{X: float64(col) + rowStagger[row], Y: float64(row)}, true
}
