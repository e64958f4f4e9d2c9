// Package keylisten delivers keystrokes from an input source to the
// corrector through a single-slot mailbox.
package keylisten

import (
	"context"
	"strings"
	"sync"

	"github.com/ayusman/typecoach/internal/keyboard"
)

// Source produces keystrokes until ctx is cancelled or input ends.
type Source interface {
	Run(ctx context.Context, mb *Mailbox) error
}

// Mailbox holds the most recent key that has not been taken yet. A new key
// overwrites an untaken one.
type Mailbox struct {
	mu      sync.Mutex
	key     keyboard.Key
	pending bool
	dropped uint64
	notify  chan struct{}
}

// NewMailbox creates an empty Mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{notify: make(chan struct{}, 1)}
}

// Put stores key, replacing any key not yet taken.
func (m *Mailbox) Put(key keyboard.Key) {
	m.mu.Lock()
	if m.pending {
		m.dropped++
	}
	m.key = key
	m.pending = true
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// Take removes and returns the pending key. It reports false when no key is
// pending.
func (m *Mailbox) Take() (keyboard.Key, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.pending {
		return "", false
	}
	m.pending = false
	return m.key, true
}

// Ready is signalled after Put. Consumers may select on it instead of
// polling; a signal does not guarantee Take will succeed.
func (m *Mailbox) Ready() <-chan struct{} {
	return m.notify
}

// Dropped returns how many keys were overwritten before being taken.
func (m *Mailbox) Dropped() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped
}

// NormalizeToken converts a textual key name into a Key. Letters are
// lowercased; unrecognized multi-character names report false.
func NormalizeToken(s string) (keyboard.Key, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	switch strings.ToLower(s) {
	case "space":
		return keyboard.KeySpace, true
	case "enter", "return":
		return keyboard.KeyEnter, true
	case "tab":
		return keyboard.KeyTab, true
	case "backspace", "delete":
		return keyboard.KeyBackspace, true
	case "esc", "escape":
		return keyboard.KeyEscape, true
	}

	if len(s) == 1 {
		return NormalizeByte(s[0])
	}
	return "", false
}

// NormalizeByte converts one byte of terminal input into a Key. Control
// bytes other than the named keys report false.
func NormalizeByte(b byte) (keyboard.Key, bool) {
	switch b {
	case ' ':
		return keyboard.KeySpace, true
	case '\r', '\n':
		return keyboard.KeyEnter, true
	case '\t':
		return keyboard.KeyTab, true
	case 0x7f, 0x08:
		return keyboard.KeyBackspace, true
	case 0x1b:
		return keyboard.KeyEscape, true
	}

	if b >= 'A' && b <= 'Z' {
		b += 'a' - 'A'
	}
	if b < 0x21 || b > 0x7e {
		return "", false
	}
	return keyboard.Key(string(rune(b))), true
}
