package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/thierrypdamiba/claude-memory-kit/internal/memory"
)

// AutoExtract pulls gated memories out of a conversation transcript and
// runs each through the write pipeline. Individual save failures are
// logged and skipped; the transcript is never partially re-processed.
func (e *Engine) AutoExtract(ctx context.Context, tenant, transcript string) (string, error) {
	if e.synth == nil {
		return "No API key configured. Cannot extract memories.", nil
	}

	extracted, err := e.synth.ExtractMemories(ctx, transcript)
	if err != nil {
		return "", fmt.Errorf("extract memories: %w", err)
	}
	if len(extracted) == 0 {
		return "No memories worth keeping from this transcript.", nil
	}

	var saved []string
	for _, x := range extracted {
		gate := x.Gate
		if gate == "" {
			gate = string(memory.GateEpistemic)
		}
		msg, err := e.Remember(ctx, tenant, x.Content, gate, x.Person, x.Project)
		if err != nil {
			e.logger.Printf("auto-extract save failed: %v", err)
			continue
		}
		saved = append(saved, msg)
	}

	return fmt.Sprintf("Auto-extracted %d memories from transcript:\n%s",
		len(saved), strings.Join(saved, "\n")), nil
}
