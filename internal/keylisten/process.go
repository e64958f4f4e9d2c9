package keylisten

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strings"
)

// ProcessSource runs an external key-capture helper and reads one key per
// line from its stdout. Lines are either a bare token ("a", "space") or a
// JSON object {"key": "a"}.
type ProcessSource struct {
	Command string
	Args    []string
}

// Run starts the helper and feeds its keys into mb. The helper is killed
// when ctx ends.
func (s *ProcessSource) Run(ctx context.Context, mb *Mailbox) error {
	cmd := exec.CommandContext(ctx, s.Command, s.Args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("key helper: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("key helper: start %s: %w", s.Command, err)
	}
	log.Printf("Key helper started: %s (pid %d)", s.Command, cmd.Process.Pid)

	scanErr := ReadLines(stdout, mb)
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		return nil
	}
	if scanErr != nil {
		return scanErr
	}
	if waitErr != nil {
		return fmt.Errorf("key helper exited: %w", waitErr)
	}
	return nil
}

type keyLine struct {
	Key string `json:"key"`
}

// ReadLines feeds keys from newline-delimited input into mb until EOF.
// Unrecognized lines are skipped.
func ReadLines(r io.Reader, mb *Mailbox) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		token := line
		if strings.HasPrefix(line, "{") {
			var kl keyLine
			if err := json.Unmarshal([]byte(line), &kl); err != nil {
				log.Printf("Key helper sent invalid line %q: %v", line, err)
				continue
			}
			token = kl.Key
		}

		if key, ok := NormalizeToken(token); ok {
			mb.Put(key)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("key helper: read: %w", err)
	}
	return nil
}
