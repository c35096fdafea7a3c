package hooks

import (
	"encoding/json"
	"strings"

	"github.com/thierrypdamiba/claude-memory-kit/internal/classify"
	"github.com/thierrypdamiba/claude-memory-kit/internal/llm"
)

// signalTriggers are phrases that mean the user wants something remembered
// right now, without waiting for the assistant to decide.
var signalTriggers = []string{
	"remember this", "remember that", "don't forget",
	"save this", "note this down",
	"for future reference",
	"we decided", "i decided",
	"from now on", "going forward",
}

// isInternalPrompt reports whether the prompt came from memkit's own
// claude-cli calls rather than a real user message. Those spawned sessions
// fire this hook too; without the guard every consolidation run would write
// its own prompt back into memory. Prefix check only, so a user message
// merely mentioning the sentinel does not match.
func isInternalPrompt(prompt string) bool {
	return strings.HasPrefix(prompt, llm.InternalSentinel)
}

func hasSignal(prompt string) bool {
	lower := strings.ToLower(prompt)
	for _, trigger := range signalTriggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}

// handleSubmit saves the prompt as a memory when it carries an explicit
// remember signal. The gate and person/project tags are inferred the same
// way the save tool infers them.
func handleSubmit(client *Client, input *HookInput) {
	if input.Prompt == "" || isInternalPrompt(input.Prompt) {
		return
	}
	if !hasSignal(input.Prompt) {
		return
	}

	person, project := classify.ExtractPersonProject(input.Prompt)
	body, err := json.Marshal(map[string]string{
		"content": input.Prompt,
		"gate":    string(classify.AutoGate(input.Prompt)),
		"person":  person,
		"project": project,
	})
	if err != nil {
		return
	}
	// Fire and forget; a failed save must not block the prompt.
	client.Post("/api/memories", body)
}
