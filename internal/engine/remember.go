package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/thierrypdamiba/claude-memory-kit/internal/classify"
	"github.com/thierrypdamiba/claude-memory-kit/internal/llm"
	"github.com/thierrypdamiba/claude-memory-kit/internal/memory"
)

// Remember runs the write pipeline. Validation failures and all best-effort
// step failures come back as the result string; the returned error is
// non-nil only when the journal or memory persist itself fails.
func (e *Engine) Remember(ctx context.Context, tenant, content, gateStr, person, project string) (string, error) {
	gate, err := memory.ParseGate(gateStr)
	if err != nil {
		return err.Error(), nil
	}

	now := time.Now().UTC()
	m := memory.New(content, gate, person, project, now)

	// The journal entry lands first: even if every later step fails, the
	// event is on record.
	entry := memory.NewJournalEntry(gate, content, person, project, now)
	if err := e.store.InsertJournal(ctx, entry, tenant); err != nil {
		return "", fmt.Errorf("insert journal: %w", err)
	}
	if err := e.store.InsertMemory(ctx, m, tenant); err != nil {
		return "", fmt.Errorf("insert memory: %w", err)
	}

	// Everything past this point is best-effort. The write has succeeded.
	e.attempt("vector upsert", func() error {
		return e.store.UpsertVector(ctx, m, tenant)
	})

	e.attempt("auto-link", func() error {
		return e.store.AutoLink(ctx, m.ID, person, project, tenant)
	})

	var warning string
	e.attempt("contradiction check", func() error {
		hits, err := e.store.SearchVector(ctx, content, 3, tenant)
		if err != nil {
			return err
		}
		for _, hit := range hits {
			if hit.MemoryID == m.ID || hit.Score <= e.ContradictionThreshold {
				continue
			}
			existing, err := e.store.GetMemory(ctx, hit.MemoryID, tenant)
			if err != nil {
				continue
			}
			if existing.Content != content {
				warning = fmt.Sprintf(
					"\n\nwarning: high similarity (score=%.2f) with existing memory [%s]. "+
						"possible contradiction or duplicate.",
					hit.Score, hit.MemoryID)
				break
			}
		}
		return nil
	})

	if gate == memory.GateCorrection {
		e.attempt("correction handling", func() error {
			hits, err := e.store.SearchVector(ctx, content, 2, tenant)
			if err != nil {
				return err
			}
			for _, hit := range hits {
				if hit.MemoryID == m.ID || hit.Score <= e.CorrectionThreshold {
					continue
				}
				if err := e.store.AddEdge(ctx, m.ID, hit.MemoryID, memory.RelContradicts, tenant); err != nil {
					return err
				}
				old, err := e.store.GetMemory(ctx, hit.MemoryID, tenant)
				if err == nil {
					return e.store.UpdateConfidence(ctx, hit.MemoryID, old.Confidence*0.5, tenant)
				}
				return nil
			}
			return nil
		})
	}

	// Memory chain: a FOLLOWS edge to the most recent memory sharing this
	// person or project within the last 24h.
	if person != "" || project != "" {
		e.attempt("memory chain", func() error {
			prior, err := e.store.LatestTagged(
				ctx, m.ID, person, project, now.Add(-24*time.Hour), tenant)
			if err != nil {
				return nil // nothing recent to chain to
			}
			return e.store.AddEdge(ctx, m.ID, prior, memory.RelFollows, tenant)
		})
	}

	if pii := classify.CheckPII(content); pii != "" {
		warning += "\n\nWARNING: " + pii
	}

	if e.synth != nil {
		e.attempt("sensitivity classification", func() error {
			verdicts, err := e.synth.ClassifySensitivity(ctx,
				[]llm.ClassifyInput{{ID: m.ID, Content: m.Content}})
			if err != nil {
				return err
			}
			for _, v := range verdicts {
				if v.ID != m.ID || !memory.ValidSensitivity(v.Level) {
					continue
				}
				if err := e.store.UpdateSensitivity(ctx, m.ID, v.Level, v.Reason, tenant); err != nil {
					return err
				}
				if v.Level != memory.SensitivitySafe {
					warning += fmt.Sprintf("\n\nSENSITIVITY: %s (%s)", v.Level, v.Reason)
				}
			}
			return nil
		})
	}

	return fmt.Sprintf("Remembered [%s]: %s (id: %s)%s", gate, m.Preview(80), m.ID, warning), nil
}
