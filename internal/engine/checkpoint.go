package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/thierrypdamiba/claude-memory-kit/internal/memory"
)

// CheckpointGuidance tells the caller what a useful checkpoint contains.
// Surfaced in the tool description so the assistant writes dense, loadable
// snapshots instead of pleasantries.
const CheckpointGuidance = "Include: (1) current task/goal, (2) key decisions made and WHY, " +
	"(3) what was tried that didn't work, (4) open questions or blockers, " +
	"(5) concrete next steps. Be specific. Skip pleasantries."

// Checkpoint stores a session-continuity snapshot as a journal entry with
// the checkpoint gate. The latest one is loaded at the next session start.
func (e *Engine) Checkpoint(ctx context.Context, tenant, summary string) (string, error) {
	entry := memory.NewJournalEntry(memory.GateCheckpoint, summary, "", "", time.Now().UTC())
	if err := e.store.InsertJournal(ctx, entry, tenant); err != nil {
		return "", fmt.Errorf("insert checkpoint: %w", err)
	}
	return "Checkpoint saved. This will be loaded at the start of your next session.", nil
}

// LatestCheckpoint returns the newest checkpoint entry, or nil when none
// exists.
func (e *Engine) LatestCheckpoint(ctx context.Context, tenant string) *memory.JournalEntry {
	entry, err := e.store.LatestCheckpoint(ctx, tenant)
	if err != nil {
		return nil
	}
	return entry
}
