package keylisten

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

const ctrlC = 0x03

// TerminalSource reads keystrokes from a terminal in raw mode.
type TerminalSource struct {
	In *os.File
	// OnInterrupt is called when Ctrl-C is read, since raw mode stops the
	// terminal from raising SIGINT.
	OnInterrupt func()
}

// NewTerminalSource reads from stdin.
func NewTerminalSource(onInterrupt func()) *TerminalSource {
	return &TerminalSource{In: os.Stdin, OnInterrupt: onInterrupt}
}

// Run puts the terminal in raw mode and feeds keys into mb until ctx ends
// or input closes. The terminal state is restored on return.
func (s *TerminalSource) Run(ctx context.Context, mb *Mailbox) error {
	fd := int(s.In.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("key source: %s is not a terminal", s.In.Name())
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("key source: enable raw mode: %w", err)
	}
	defer term.Restore(fd, state)

	return readKeys(ctx, s.In, mb, s.OnInterrupt)
}

// readKeys feeds bytes from r into mb. A read that starts with ESC and
// carries more bytes is an escape sequence (arrow keys and the like) and is
// skipped whole.
func readKeys(ctx context.Context, r io.Reader, mb *Mailbox, onInterrupt func()) error {
	type chunk struct {
		data []byte
		err  error
	}
	chunks := make(chan chunk)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		for {
			buf := make([]byte, 16)
			n, err := r.Read(buf)
			select {
			case chunks <- chunk{buf[:n], err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case c := <-chunks:
			if len(c.data) > 1 && c.data[0] == 0x1b {
				continue
			}
			for _, b := range c.data {
				if b == ctrlC {
					if onInterrupt != nil {
						onInterrupt()
					}
					return nil
				}
				if key, ok := NormalizeByte(b); ok {
					mb.Put(key)
				}
			}
			if c.err != nil {
				if errors.Is(c.err, io.EOF) {
					return nil
				}
				return fmt.Errorf("key source: read: %w", c.err)
			}
		}
	}
}

// RawWriter translates "\n" to "\r\n" so log output stays aligned while the
// terminal is in raw mode.
type RawWriter struct {
	W io.Writer
}

func (w RawWriter) Write(p []byte) (int, error) {
	out := make([]byte, 0, len(p)+8)
	for _, b := range p {
		if b == '\n' {
			out = append(out, '\r')
		}
		out = append(out, b)
	}
	if _, err := w.W.Write(out); err != nil {
		return 0, err
	}
	return len(p), nil
}
