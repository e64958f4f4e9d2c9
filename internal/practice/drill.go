// Package practice implements follow-along typing drills.
package practice

import (
	"errors"
	"fmt"
	"time"
	"unicode"

	"github.com/ayusman/typecoach/internal/keyboard"
)

// Level is a drill difficulty.
type Level string

const (
	Beginner     Level = "beginner"
	Intermediate Level = "intermediate"
	Advanced     Level = "advanced"
)

// ErrNoSuchText is returned for a level or index outside the library.
var ErrNoSuchText = errors.New("no such practice text")

var library = map[Level][]string{
	Beginner: {
		"the quick brown fox jumps over the lazy dog",
		"pack my box with five dozen liquor jugs",
		"how vexingly quick daft zebras jump",
	},
	Intermediate: {
		"a good typist keeps both hands anchored on the home row",
		"practice makes perfect when learning touch typing skills",
		"every finger owns a column of keys and should stay in its lane",
	},
	Advanced: {
		"shared memory lets two processes exchange frames without copying them through the kernel",
		"a homography maps one plane onto another and corrects for the tilt of the camera",
		"efficient data structures and algorithms are fundamental to building scalable applications",
	},
}

// Levels lists the levels in increasing difficulty.
func Levels() []Level {
	return []Level{Beginner, Intermediate, Advanced}
}

// ParseLevel validates a level name.
func ParseLevel(s string) (Level, error) {
	l := Level(s)
	if _, ok := library[l]; !ok {
		return "", fmt.Errorf("%w: level %q", ErrNoSuchText, s)
	}
	return l, nil
}

// Texts returns the texts available at a level.
func Texts(level Level) []string {
	return append([]string(nil), library[level]...)
}

// Stats summarizes a drill.
type Stats struct {
	Elapsed  time.Duration `json:"elapsed"`
	WPM      float64       `json:"wpm"`
	Accuracy float64       `json:"accuracy"`
	Errors   int           `json:"errors"`
	Typed    int           `json:"typed"`
}

// Drill tracks progress through one text. The text must be typed in order;
// a wrong character counts an error and does not advance.
type Drill struct {
	level Level
	index int
	text  []rune

	pos     int
	errors  int
	started time.Time

	now func() time.Time
}

// NewDrill starts the index-th text of level.
func NewDrill(level Level, index int) (*Drill, error) {
	texts, ok := library[level]
	if !ok || index < 0 || index >= len(texts) {
		return nil, fmt.Errorf("%w: %s #%d", ErrNoSuchText, level, index)
	}
	return NewCustomDrill(level, index, texts[index]), nil
}

// NewCustomDrill starts a drill over an arbitrary text.
func NewCustomDrill(level Level, index int, text string) *Drill {
	return &Drill{
		level: level,
		index: index,
		text:  []rune(text),
		now:   time.Now,
	}
}

// Level returns the drill's level.
func (d *Drill) Level() Level { return d.level }

// Index returns the text's position within its level.
func (d *Drill) Index() int { return d.index }

// Text returns the full text.
func (d *Drill) Text() string { return string(d.text) }

// Position returns how many characters have been typed correctly.
func (d *Drill) Position() int { return d.pos }

// Expected returns the key to type next. It reports false once complete.
func (d *Drill) Expected() (keyboard.Key, bool) {
	if d.Done() {
		return "", false
	}
	r := d.text[d.pos]
	if r == ' ' {
		return keyboard.KeySpace, true
	}
	return keyboard.Key(string(unicode.ToLower(r))), true
}

// Type feeds one key. It returns true if the key matched and the drill
// advanced. Keys that type nothing (backspace, escape) are ignored.
func (d *Drill) Type(key keyboard.Key) bool {
	if d.Done() {
		return false
	}

	r := key.Rune()
	if r == 0 || key == keyboard.KeyEnter || key == keyboard.KeyTab {
		return false
	}

	if d.started.IsZero() {
		d.started = d.now()
	}

	if unicode.ToLower(r) == unicode.ToLower(d.text[d.pos]) {
		d.pos++
		return true
	}

	d.errors++
	return false
}

// Done reports whether the whole text has been typed.
func (d *Drill) Done() bool {
	return d.pos >= len(d.text)
}

// Progress returns completion as a whole percentage.
func (d *Drill) Progress() int {
	if len(d.text) == 0 {
		return 100
	}
	return d.pos * 100 / len(d.text)
}

// Stats computes WPM (five characters per word) and accuracy from the first
// typed key until now.
func (d *Drill) Stats() Stats {
	s := Stats{Errors: d.errors, Typed: d.pos}
	if d.started.IsZero() {
		return s
	}

	s.Elapsed = d.now().Sub(d.started)
	if minutes := s.Elapsed.Minutes(); minutes > 0 {
		s.WPM = float64(d.pos) / 5 / minutes
	}
	if total := d.pos + d.errors; total > 0 {
		s.Accuracy = float64(d.pos) / float64(total) * 100
	}
	return s
}

// Reset restarts the same text.
func (d *Drill) Reset() {
	d.pos = 0
	d.errors = 0
	d.started = time.Time{}
}
