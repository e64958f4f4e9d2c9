// Command notify is a feedback hook that shows a desktop notification when
// a key was typed with the wrong finger. It uses notify-send on Linux and
// AppleScript on macOS.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Event is the document the hook executor writes to stdin.
type Event struct {
	Type     string  `json:"type"`
	Key      string  `json:"key"`
	Expected string  `json:"expected"`
	Finger   string  `json:"finger"`
	Distance float64 `json:"distance"`
	Reason   string  `json:"reason"`
}

// Response is written to stdout for the executor.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func main() {
	var ev Event
	if err := json.NewDecoder(os.Stdin).Decode(&ev); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode event: %v", err))
		return
	}

	title, body, ok := message(ev)
	if !ok {
		writeSuccessResponse()
		return
	}

	if err := notify(title, body); err != nil {
		writeErrorResponse(fmt.Sprintf("notification failed: %v", err))
		return
	}

	writeSuccessResponse()
}

// message builds the notification text. Events other than wrong-finger and
// unknown verdicts are acknowledged silently.
func message(ev Event) (string, string, bool) {
	switch ev.Type {
	case "wrong":
		return fmt.Sprintf("Wrong finger for %q", ev.Key),
			fmt.Sprintf("Use %s, not %s", humanFinger(ev.Expected), humanFinger(ev.Finger)), true
	case "unknown":
		if ev.Reason == "" {
			return "", "", false
		}
		return fmt.Sprintf("Could not check %q", ev.Key), ev.Reason, true
	}
	return "", "", false
}

// humanFinger turns LEFT_INDEX into "left index".
func humanFinger(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", " "))
}

func notify(title, body string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf(`display notification %q with title %q`, body, title)
		cmd = exec.Command("osascript", "-e", script)
	default:
		cmd = exec.Command("notify-send", "--expire-time=1500", title, body)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse() {
	json.NewEncoder(os.Stdout).Encode(Response{Success: true})
}
