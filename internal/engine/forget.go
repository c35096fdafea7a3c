package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/thierrypdamiba/claude-memory-kit/internal/store"
)

// Forget removes a memory from the live set. The content is archived with
// the caller's reason rather than destroyed.
func (e *Engine) Forget(ctx context.Context, tenant, memoryID, reason string) (string, error) {
	m, err := e.store.DeleteMemory(ctx, memoryID, tenant)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Sprintf("No memory found with id: %s", memoryID), nil
	}
	if err != nil {
		return "", fmt.Errorf("delete memory: %w", err)
	}

	e.attempt("archive", func() error {
		return e.store.ArchiveMemory(ctx, memoryID, m.Gate, m.Content, reason, tenant)
	})
	e.attempt("vector delete", func() error {
		return e.store.DeleteVector(ctx, memoryID, tenant)
	})

	return fmt.Sprintf("Forgotten: %s (reason: %s). Archived for accountability.", memoryID, reason), nil
}
