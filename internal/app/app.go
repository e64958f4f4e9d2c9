// Package app runs the corrector process: it follows the detector's
// results, calibrates the keyboard and judges every keystroke.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ayusman/typecoach/internal/fingering"
	"github.com/ayusman/typecoach/internal/hand"
	"github.com/ayusman/typecoach/internal/hook"
	"github.com/ayusman/typecoach/internal/keyboard"
	"github.com/ayusman/typecoach/internal/keylisten"
	"github.com/ayusman/typecoach/internal/poll"
	"github.com/ayusman/typecoach/internal/practice"
	"github.com/ayusman/typecoach/internal/shm"
	"github.com/ayusman/typecoach/internal/stabilizer"
	"github.com/ayusman/typecoach/internal/store"
)

// ResultSource is the read side of the result channel.
type ResultSource interface {
	Read() (shm.ResultSet, bool, error)
}

// Broadcaster receives every corrector event, e.g. the websocket hub.
type Broadcaster interface {
	Broadcast(v any)
}

// Config holds the corrector process's collaborators. Only Results, Keys
// and Strategy are required.
type Config struct {
	Results  ResultSource
	Keys     *keylisten.Mailbox
	Strategy keyboard.Strategy

	Corrector fingering.Config
	Alpha     float64
	Poller    *poll.Poller

	Store  *store.Store
	Events Broadcaster
	Hooks  *hook.Dispatcher
	Drill  *practice.Drill

	// OnEvent is called after every keystroke, on the run goroutine.
	OnEvent func(Event)
}

// Event is a corrector event as broadcast and passed to OnEvent.
type Event struct {
	fingering.Event
	SessionID string         `json:"session_id,omitempty"`
	Next      keyboard.Key   `json:"next,omitempty"`
	Drill     *DrillProgress `json:"drill,omitempty"`
	At        time.Time      `json:"at"`
}

// DrillProgress reports the practice drill after a keystroke.
type DrillProgress struct {
	Level    practice.Level `json:"level"`
	Progress int            `json:"progress"`
	Expected keyboard.Key   `json:"expected,omitempty"`
	Done     bool           `json:"done"`
	Stats    practice.Stats `json:"stats"`
}

// App is the corrector process.
type App struct {
	config     Config
	corrector  *fingering.Corrector
	stabilizer *stabilizer.Stabilizer
	poller     *poll.Poller

	mu      sync.RWMutex
	enabled bool
	hands   []hand.Landmarks
	seq     uint16
	seen    bool
	session string
}

// New creates an App. It fails only on an invalid smoothing factor or a
// missing required collaborator.
func New(config Config) (*App, error) {
	if config.Results == nil || config.Keys == nil || config.Strategy == nil {
		return nil, errors.New("app: results, keys and strategy are required")
	}

	alpha := config.Alpha
	if alpha == 0 {
		alpha = stabilizer.DefaultAlpha
	}
	st, err := stabilizer.New(alpha)
	if err != nil {
		return nil, err
	}

	poller := config.Poller
	if poller == nil {
		poller = poll.New(poll.DefaultInterval)
	}

	return &App{
		config:     config,
		corrector:  fingering.New(config.Corrector, config.Strategy),
		stabilizer: st,
		poller:     poller,
		enabled:    true,
	}, nil
}

// SetEnabled pauses or resumes judging. Keys pressed while paused are
// discarded.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether keystrokes are being judged.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Recalibrate discards the key map and asks for the anchors again.
func (a *App) Recalibrate() {
	a.corrector.StartCalibration()
}

// Status returns the corrector status.
func (a *App) Status() fingering.Status {
	return a.corrector.Status()
}

// Corrector returns the fingering corrector.
func (a *App) Corrector() *fingering.Corrector {
	return a.corrector
}

// SessionID returns the journal session of the current run, if any.
func (a *App) SessionID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}

// Hands returns the latest smoothed hands.
func (a *App) Hands() []hand.Landmarks {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]hand.Landmarks(nil), a.hands...)
}

// Run starts calibration and processes results and keys until ctx is
// cancelled or the detector signals EXIT.
func (a *App) Run(ctx context.Context) error {
	if err := a.beginSession(); err != nil {
		return err
	}
	defer a.endSession()

	a.corrector.StartCalibration()

	err := a.poller.Until(ctx, a.step)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// step runs one cycle: take the newest result, then the pending key.
func (a *App) step() (bool, error) {
	rs, ok, err := a.config.Results.Read()
	if errors.Is(err, shm.ErrChannelClosed) {
		log.Println("Detector exited, stopping")
		return true, nil
	}
	if err != nil {
		return false, err
	}
	if ok {
		a.observe(rs)
	}

	if key, ok := a.config.Keys.Take(); ok {
		a.HandleKey(key)
	}
	return false, nil
}

// observe feeds a result to the stabilizer once per published sequence.
func (a *App) observe(rs shm.ResultSet) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.seen && rs.Seq == a.seq {
		return
	}
	a.seen = true
	a.seq = rs.Seq
	a.hands = a.stabilizer.Process(rs.Hands)
}

// HandleKey runs one keystroke through the corrector and the feedback
// outputs, using the latest smoothed hands.
func (a *App) HandleKey(key keyboard.Key) Event {
	a.mu.RLock()
	enabled := a.enabled
	hands := append([]hand.Landmarks(nil), a.hands...)
	session := a.session
	a.mu.RUnlock()

	if !enabled {
		return Event{}
	}

	fe := a.corrector.Handle(key, hands)
	ev := Event{Event: fe, SessionID: session, At: time.Now()}
	if next, ok := a.corrector.NextAnchor(); ok {
		ev.Next = next
	}

	switch {
	case fe.Calibrated:
		log.Println("Keyboard calibrated")
		a.fireHook(hook.Event{Type: hook.EventCalibrated, SessionID: session})
	case fe.Anchor:
		log.Printf("Anchor %q captured, press %q", key, ev.Next)
	case fe.Verdict != nil:
		a.record(session, key, *fe.Verdict)
	}

	if fe.State == fingering.Ready && !fe.Calibrated {
		ev.Drill = a.practise(session, key)
	}

	if a.config.Events != nil {
		a.config.Events.Broadcast(ev)
	}
	if a.config.OnEvent != nil {
		a.config.OnEvent(ev)
	}
	return ev
}

func (a *App) record(session string, key keyboard.Key, v fingering.Verdict) {
	switch v.Outcome {
	case fingering.Wrong:
		log.Printf("%s: wrong finger %s, expected %s", key, v.Finger, v.Expected)
	case fingering.Unknown:
		log.Printf("%s: unknown (%s)", key, v.Reason)
	}

	if a.config.Store != nil && session != "" {
		k := &store.Keystroke{
			SessionID: session,
			Key:       string(key),
			Outcome:   v.Outcome.String(),
			Distance:  v.Distance,
			Reason:    v.Reason,
		}
		if v.Expected.Valid() {
			k.Expected = v.Expected.String()
		}
		if v.Finger.Valid() {
			k.Finger = v.Finger.String()
		}
		if err := a.config.Store.Keystrokes().Add(k); err != nil {
			log.Printf("Failed to journal keystroke: %v", err)
		}
	}

	switch v.Outcome {
	case fingering.Correct, fingering.Wrong, fingering.Unknown:
		ev := hook.Event{
			Type:      v.Outcome.String(),
			SessionID: session,
			Key:       string(key),
			Distance:  v.Distance,
			Reason:    v.Reason,
		}
		if v.Expected.Valid() {
			ev.Expected = v.Expected.String()
		}
		if v.Finger.Valid() {
			ev.Finger = v.Finger.String()
		}
		a.fireHook(ev)
	}
}

// practise advances the drill, journalling it once complete.
func (a *App) practise(session string, key keyboard.Key) *DrillProgress {
	d := a.config.Drill
	if d == nil || d.Done() {
		return nil
	}

	d.Type(key)
	p := &DrillProgress{
		Level:    d.Level(),
		Progress: d.Progress(),
		Done:     d.Done(),
		Stats:    d.Stats(),
	}
	if next, ok := d.Expected(); ok {
		p.Expected = next
	}
	if !p.Done {
		return p
	}

	log.Printf("Drill complete: %.1f WPM, %.1f%% accuracy, %d errors", p.Stats.WPM, p.Stats.Accuracy, p.Stats.Errors)
	if a.config.Store != nil && session != "" {
		err := a.config.Store.Drills().Add(&store.DrillResult{
			SessionID: session,
			Level:     string(d.Level()),
			TextIndex: d.Index(),
			WPM:       p.Stats.WPM,
			Accuracy:  p.Stats.Accuracy,
			Errors:    p.Stats.Errors,
			Elapsed:   p.Stats.Elapsed,
		})
		if err != nil {
			log.Printf("Failed to journal drill: %v", err)
		}
	}
	a.fireHook(hook.Event{Type: hook.EventDrillComplete, SessionID: session})
	return p
}

func (a *App) fireHook(ev hook.Event) {
	if a.config.Hooks == nil {
		return
	}
	if !a.config.Hooks.Fire(ev) {
		log.Printf("Hook queue full, dropped %s event", ev.Type)
	}
}

func (a *App) beginSession() error {
	if a.config.Store == nil {
		return nil
	}

	sess := &store.Session{
		Strategy: a.config.Strategy.Name(),
		Width:    a.config.Corrector.Frame.Width,
		Height:   a.config.Corrector.Frame.Height,
	}
	if err := a.config.Store.Sessions().Create(sess); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	a.mu.Lock()
	a.session = sess.ID
	a.mu.Unlock()

	log.Printf("Session %s started", sess.ID)
	return nil
}

func (a *App) endSession() {
	id := a.SessionID()
	if a.config.Store == nil || id == "" {
		return
	}
	if err := a.config.Store.Sessions().End(id, time.Now()); err != nil {
		log.Printf("Failed to end session: %v", err)
	}
}
