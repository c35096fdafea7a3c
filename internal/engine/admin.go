package engine

import (
	"context"
	"fmt"

	"github.com/thierrypdamiba/claude-memory-kit/internal/memory"
	"github.com/thierrypdamiba/claude-memory-kit/internal/store"
)

// Stats summarizes a tenant's memory set.
type Stats struct {
	Total       int                 `json:"total"`
	ByGate      map[memory.Gate]int `json:"by_gate"`
	HasIdentity bool                `json:"has_identity"`
	Checkpoint  string              `json:"last_checkpoint,omitempty"`
}

// GetStats reports counts for the stats endpoint and the CLI status view.
func (e *Engine) GetStats(ctx context.Context, tenant string) (*Stats, error) {
	total, err := e.store.CountMemories(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("count memories: %w", err)
	}
	byGate, err := e.store.CountByGate(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("count by gate: %w", err)
	}

	s := &Stats{Total: total, ByGate: byGate}
	if _, err := e.store.GetIdentity(ctx, tenant); err == nil {
		s.HasIdentity = true
	}
	if ckpt, err := e.store.LatestCheckpoint(ctx, tenant); err == nil {
		s.Checkpoint = ckpt.Timestamp.Format("2006-01-02 15:04")
	}
	return s, nil
}

// Get returns a single memory by id.
func (e *Engine) Get(ctx context.Context, tenant, id string) (*memory.Memory, error) {
	return e.store.GetMemory(ctx, id, tenant)
}

// List returns memories matching the filter, newest first.
func (e *Engine) List(ctx context.Context, tenant string, f store.ListFilter) ([]memory.Memory, error) {
	return e.store.ListMemories(ctx, f, tenant)
}

// Update patches a memory's mutable fields and refreshes its embedding
// when the content changed.
func (e *Engine) Update(ctx context.Context, tenant, id string, upd store.MemoryUpdate) error {
	if err := e.store.UpdateMemory(ctx, id, upd, tenant); err != nil {
		return err
	}
	if upd.Content != nil {
		e.attempt("vector refresh", func() error {
			m, err := e.store.GetMemory(ctx, id, tenant)
			if err != nil {
				return err
			}
			return e.store.UpsertVector(ctx, *m, tenant)
		})
	}
	return nil
}

// Pin sets the pinned flag on a memory. Pinned is surfaced to callers
// as metadata; it does not change decay scoring or archival.
func (e *Engine) Pin(ctx context.Context, tenant, id string, pinned bool) error {
	return e.store.SetPinned(ctx, id, pinned, tenant)
}

// RecentJournal exposes the journal tail for transport layers.
func (e *Engine) RecentJournal(ctx context.Context, tenant string, days int) ([]memory.JournalEntry, error) {
	return e.store.RecentJournal(ctx, days, tenant)
}
