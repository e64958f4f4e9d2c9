package fingering

import (
	"encoding/json"
	"fmt"

	"github.com/ayusman/typecoach/internal/hand"
)

// Outcome classifies a keystroke.
type Outcome uint8

const (
	// NoRule means the key has no finger assignment (space, punctuation).
	NoRule Outcome = iota
	// Unmapped means the key has no calibrated position.
	Unmapped
	// Correct means the assigned finger pressed the key.
	Correct
	// Wrong means another finger was nearest the key.
	Wrong
	// Unknown means no judgement was possible.
	Unknown
)

var outcomeNames = [...]string{"no_rule", "unmapped", "correct", "wrong", "unknown"}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return fmt.Sprintf("Outcome(%d)", uint8(o))
}

// MarshalJSON encodes the outcome by name.
func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// ParseOutcome converts a name produced by String back to an Outcome.
func ParseOutcome(s string) (Outcome, error) {
	for i, n := range outcomeNames {
		if n == s {
			return Outcome(i), nil
		}
	}
	return Unknown, fmt.Errorf("unknown outcome %q", s)
}

// Reasons attached to Unknown verdicts.
const (
	ReasonHandTooFar      = "hand too far"
	ReasonInvalidLandmark = "invalid landmarks"
)

// Verdict is the judgement for one keystroke.
type Verdict struct {
	Outcome Outcome `json:"outcome"`
	// Expected is the finger assigned to the key, NoFinger for NoRule.
	Expected hand.Finger `json:"expected"`
	// Finger is the finger judged to have pressed the key, for Correct and
	// Wrong.
	Finger hand.Finger `json:"finger"`
	// Distance is the pixel distance from Finger's tip to the key.
	Distance float64 `json:"distance"`
	Reason   string  `json:"reason,omitempty"`
}

func (v Verdict) String() string {
	switch v.Outcome {
	case Correct, Wrong:
		return fmt.Sprintf("%s(%s)", v.Outcome, v.Finger)
	case Unknown:
		return fmt.Sprintf("%s(%s)", v.Outcome, v.Reason)
	}
	return v.Outcome.String()
}

func unknown(expected hand.Finger, reason string) Verdict {
	return Verdict{Outcome: Unknown, Expected: expected, Finger: hand.NoFinger, Reason: reason}
}
