// Package hooks implements the Claude Code session-lifecycle hooks. Each
// hook is a short-lived process that reads one JSON payload from stdin,
// talks to a running memkit server, and exits. Every path degrades
// gracefully: a dead server means the session simply runs without memory.
package hooks

import (
	"encoding/json"
	"fmt"
	"io"
)

// Handle reads HookInput from stdin and dispatches on the event argument.
func Handle(event, tenant string, stdin io.Reader) {
	var input HookInput
	if err := json.NewDecoder(stdin).Decode(&input); err != nil {
		// Stdin may be empty for some events
		if event == "start" {
			WriteSessionStartOutput("")
			return
		}
		ExitError(fmt.Errorf("decode stdin: %w", err))
		return
	}

	client := NewClient(tenant)

	if !client.Healthy() {
		if event == "start" {
			WriteSessionStartOutput("")
			return
		}
		return // silent exit for other events
	}

	switch event {
	case "start":
		handleStart(client, &input)
	case "submit":
		handleSubmit(client, &input)
	case "stop":
		handleStop(client, &input)
	case "end":
		handleEnd(client, &input)
	default:
		ExitError(fmt.Errorf("unknown hook event: %s", event))
	}
}
