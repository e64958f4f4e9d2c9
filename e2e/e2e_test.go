package e2e

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/typecoach/internal/app"
	"github.com/ayusman/typecoach/internal/detector"
	"github.com/ayusman/typecoach/internal/fingering"
	"github.com/ayusman/typecoach/internal/hand"
	"github.com/ayusman/typecoach/internal/keyboard"
	"github.com/ayusman/typecoach/internal/keylisten"
	"github.com/ayusman/typecoach/internal/poll"
	"github.com/ayusman/typecoach/internal/server"
	"github.com/ayusman/typecoach/internal/shm"
	"github.com/ayusman/typecoach/internal/store"
)

// A 200x100 frame with q at (10, 10) and p at (190, 10) puts f at (80, 32)
// and j at (140, 32) under the linear model.
var dims = shm.Dimensions{Width: 200, Height: 100, Channels: 3}

// tipAt returns a hand pressing normalized (x, y) with one fingertip; every
// other landmark is far off frame.
func tipAt(side hand.Side, d hand.Digit, x, y float64) hand.Landmarks {
	h := hand.Landmarks{Side: side, Score: 0.9}
	for i := range h.Points {
		h.Points[i] = hand.Point3D{X: 50, Y: 50}
	}
	h.Points[d.TipIndex()] = hand.Point3D{X: x, Y: y, Z: -0.1}
	return h
}

type pipeline struct {
	t       *testing.T
	det     *detector.MockDetector
	app     *app.App
	keys    *keylisten.Mailbox
	events  chan app.Event
	done    chan error
	stop    context.CancelFunc
	stopped bool
}

// startPipeline wires camera, detector and corrector processes through real
// shared memory regions in a temp directory.
func startPipeline(t *testing.T, st *store.Store) *pipeline {
	t.Helper()

	dir := t.TempDir()

	frames, err := shm.CreateFrameChannel(dir, "frames", dims)
	if err != nil {
		t.Fatalf("CreateFrameChannel() error = %v", err)
	}
	t.Cleanup(func() { frames.Unlink(); frames.Close() })

	detFrames, err := shm.OpenFrameChannel(dir, "frames", dims)
	if err != nil {
		t.Fatalf("OpenFrameChannel() error = %v", err)
	}
	t.Cleanup(func() { detFrames.Close() })

	results, err := shm.CreateResultChannel(dir, "results")
	if err != nil {
		t.Fatalf("CreateResultChannel() error = %v", err)
	}
	t.Cleanup(func() { results.Unlink(); results.Close() })

	appResults, err := shm.OpenResultChannel(dir, "results")
	if err != nil {
		t.Fatalf("OpenResultChannel() error = %v", err)
	}
	t.Cleanup(func() { appResults.Close() })

	p := &pipeline{
		t:      t,
		det:    detector.NewMockDetector(),
		keys:   keylisten.NewMailbox(),
		events: make(chan app.Event, 16),
		done:   make(chan error, 1),
	}

	p.app, err = app.New(app.Config{
		Results:  appResults,
		Keys:     p.keys,
		Strategy: keyboard.Linear{},
		Corrector: fingering.Config{
			Frame:      fingering.Frame{Width: dims.Width, Height: dims.Height},
			Thresholds: fingering.DefaultThresholds(),
		},
		Alpha:   1,
		Poller:  poll.New(time.Millisecond),
		Store:   st,
		OnEvent: func(ev app.Event) { p.events <- ev },
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.stop = cancel

	// Camera: a blank frame every few milliseconds until stopped.
	go func() {
		defer frames.MarkExit()
		frame := make([]byte, dims.FrameSize())
		for ctx.Err() == nil {
			frames.Write(frame)
			time.Sleep(3 * time.Millisecond)
		}
	}()

	svc := detector.NewService(detFrames, results, p.det, poll.New(time.Millisecond), detector.DefaultConfig())
	go svc.Run(context.Background())

	go func() { p.done <- p.app.Run(context.Background()) }()

	t.Cleanup(p.shutdown)
	return p
}

// show makes the detector report hands and waits until the corrector sees
// the fingertip of d at (x, y).
func (p *pipeline) show(h hand.Landmarks, d hand.Digit) {
	p.t.Helper()

	p.det.SetHands([]hand.Landmarks{h})
	want := h.Tip(d)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		hands := p.app.Hands()
		if len(hands) == 1 {
			got := hands[0].Tip(d)
			if math.Abs(got.X-want.X) < 1e-4 && math.Abs(got.Y-want.Y) < 1e-4 {
				return
			}
		}
		time.Sleep(2 * time.Millisecond)
	}
	p.t.Fatalf("corrector never saw %s fingertip at (%v, %v)", d, want.X, want.Y)
}

// press types key and returns the corrector's event for it.
func (p *pipeline) press(key keyboard.Key) app.Event {
	p.t.Helper()

	p.keys.Put(key)
	select {
	case ev := <-p.events:
		if ev.Key != key {
			p.t.Fatalf("event for %q, want %q", ev.Key, key)
		}
		return ev
	case <-time.After(5 * time.Second):
		p.t.Fatalf("no event for %q", key)
	}
	return app.Event{}
}

// shutdown stops the camera and waits for EXIT to reach the corrector.
func (p *pipeline) shutdown() {
	if p.stopped {
		return
	}
	p.stopped = true
	p.stop()

	select {
	case err := <-p.done:
		if err != nil {
			p.t.Errorf("app.Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		p.t.Error("corrector did not stop after the camera exited")
	}
}

func TestE2E_CalibrateAndJudge(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	st, err := store.New(filepath.Join(t.TempDir(), "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer st.Close()

	p := startPipeline(t, st)

	srv := server.New(server.Config{Store: st, Status: p.app})
	ts := httptest.NewServer(srv)
	defer ts.Close()
	client := ts.Client()

	t.Run("Calibrate", func(t *testing.T) {
		p.show(tipAt(hand.Left, hand.Pinky, 0.05, 0.10), hand.Pinky)
		if ev := p.press("q"); !ev.Anchor || ev.Next != "p" {
			t.Fatalf("q = %+v, want anchor then p", ev)
		}

		p.show(tipAt(hand.Right, hand.Pinky, 0.95, 0.10), hand.Pinky)
		if ev := p.press("p"); !ev.Calibrated {
			t.Fatalf("p = %+v, want calibrated", ev)
		}

		resp, err := client.Get(ts.URL + "/api/status")
		if err != nil {
			t.Fatalf("status error = %v", err)
		}
		defer resp.Body.Close()

		var status struct {
			State  string                       `json:"state"`
			KeyMap map[string]map[string]float64 `json:"key_map"`
		}
		json.NewDecoder(resp.Body).Decode(&status)
		if status.State != "ready" {
			t.Errorf("state = %q, want ready", status.State)
		}
		if len(status.KeyMap) == 0 {
			t.Error("status has no key map")
		}
	})

	t.Run("CorrectFinger", func(t *testing.T) {
		p.show(tipAt(hand.Left, hand.Index, 0.40, 0.32), hand.Index)
		ev := p.press("f")
		if ev.Verdict == nil || ev.Verdict.Outcome != fingering.Correct {
			t.Errorf("f with left index = %+v, want correct", ev.Verdict)
		}
	})

	t.Run("WrongFinger", func(t *testing.T) {
		p.show(tipAt(hand.Right, hand.Middle, 0.70, 0.32), hand.Middle)
		ev := p.press("j")
		if ev.Verdict == nil || ev.Verdict.Outcome != fingering.Wrong {
			t.Fatalf("j with right middle = %+v, want wrong", ev.Verdict)
		}
		if ev.Verdict.Finger != hand.FingerOf(hand.Right, hand.Middle) {
			t.Errorf("finger = %s, want right middle", ev.Verdict.Finger)
		}
	})

	t.Run("NoHands", func(t *testing.T) {
		p.det.SetHands(nil)
		deadline := time.Now().Add(5 * time.Second)
		for len(p.app.Hands()) != 0 && time.Now().Before(deadline) {
			time.Sleep(2 * time.Millisecond)
		}
		ev := p.press("k")
		if ev.Verdict == nil || ev.Verdict.Outcome != fingering.Unknown {
			t.Errorf("k without hands = %+v, want unknown", ev.Verdict)
		}
	})

	id := p.app.SessionID()
	p.shutdown()

	t.Run("Journal", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/sessions/" + id)
		if err != nil {
			t.Fatalf("session error = %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}

		var summary struct {
			EndedAt    string         `json:"ended_at"`
			Keystrokes int            `json:"keystrokes"`
			Outcomes   map[string]int `json:"outcomes"`
			WrongKeys  map[string]int `json:"wrong_keys"`
		}
		json.NewDecoder(resp.Body).Decode(&summary)

		if summary.EndedAt == "" {
			t.Error("session was not ended")
		}
		if summary.Keystrokes != 3 {
			t.Errorf("keystrokes = %d, want 3 (anchors are not journalled)", summary.Keystrokes)
		}
		if summary.Outcomes["correct"] != 1 || summary.Outcomes["wrong"] != 1 || summary.Outcomes["unknown"] != 1 {
			t.Errorf("outcomes = %v", summary.Outcomes)
		}
		if summary.WrongKeys["j"] != 1 {
			t.Errorf("wrong_keys = %v, want j once", summary.WrongKeys)
		}
	})
}

func TestE2E_HealthCheck(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	srv := server.New(server.Config{})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("health error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want 200", resp.StatusCode)
	}
}
