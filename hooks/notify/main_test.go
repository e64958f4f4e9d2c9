package main

import "testing"

func TestMessage(t *testing.T) {
	tests := []struct {
		name      string
		ev        Event
		wantOK    bool
		wantTitle string
		wantBody  string
	}{
		{
			name:      "wrong finger",
			ev:        Event{Type: "wrong", Key: "k", Expected: "RIGHT_MIDDLE", Finger: "RIGHT_RING"},
			wantOK:    true,
			wantTitle: `Wrong finger for "k"`,
			wantBody:  "Use right middle, not right ring",
		},
		{
			name:      "unknown with reason",
			ev:        Event{Type: "unknown", Key: "a", Reason: "hand too far from key"},
			wantOK:    true,
			wantTitle: `Could not check "a"`,
			wantBody:  "hand too far from key",
		},
		{
			name: "correct is silent",
			ev:   Event{Type: "correct", Key: "f"},
		},
		{
			name: "unknown without reason is silent",
			ev:   Event{Type: "unknown", Key: "f"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, body, ok := message(tt.ev)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if title != tt.wantTitle || body != tt.wantBody {
				t.Errorf("got (%q, %q), want (%q, %q)", title, body, tt.wantTitle, tt.wantBody)
			}
		})
	}
}
