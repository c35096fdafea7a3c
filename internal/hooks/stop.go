package hooks

import "encoding/json"

const checkpointSummaryMax = 800

// handleStop snapshots the assistant's final message as the session
// checkpoint. StopHookActive means a stop hook already ran this turn;
// writing again would loop.
func handleStop(client *Client, input *HookInput) {
	if input.StopHookActive || input.LastAssistantMessage == "" {
		return
	}

	summary := input.LastAssistantMessage
	if len(summary) > checkpointSummaryMax {
		summary = summary[:checkpointSummaryMax] + "..."
	}

	body, err := json.Marshal(map[string]string{"summary": summary})
	if err != nil {
		return
	}
	if _, err := client.Post("/api/checkpoint", body); err != nil {
		ExitError(err)
	}
}
