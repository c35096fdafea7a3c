package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/thierrypdamiba/claude-memory-kit/internal/memory"
)

// Recall fans out across the retrieval signals in order: similarity search
// first, a plain keyword query only when similarity comes back empty, then
// graph expansion when results are still sparse. Results are deduplicated
// by memory id, first signal wins. A read counts as a touch.
func (e *Engine) Recall(ctx context.Context, tenant, query string) string {
	var results []string
	var order []string
	seen := map[string]bool{}
	mark := func(id string) {
		seen[id] = true
		order = append(order, id)
	}

	hits, err := e.store.SearchVector(ctx, query, 5, tenant)
	if err != nil {
		e.logger.Printf("vector search failed: %v", err)
	}
	for _, hit := range hits {
		if seen[hit.MemoryID] {
			continue
		}
		mark(hit.MemoryID)
		full, err := e.store.GetMemory(ctx, hit.MemoryID, tenant)
		if err != nil {
			results = append(results, fmt.Sprintf(
				"[vector match, score=%.2f] id: %s", hit.Score, hit.MemoryID))
			continue
		}
		e.attempt("touch", func() error {
			return e.store.TouchMemory(ctx, hit.MemoryID, tenant)
		})
		results = append(results, fmt.Sprintf(
			"[%s, vector=%.2f] (%s, %s) %s\n  id: %s",
			full.Gate, hit.Score, full.Created.Format("2006-01-02"),
			personOr(full.Person), full.Content, full.ID))
	}

	// Keyword fallback only when similarity found nothing.
	if len(results) == 0 {
		found, err := e.store.SearchFTS(ctx, query, 5, tenant)
		if err != nil {
			e.logger.Printf("keyword search failed: %v", err)
		}
		for _, m := range found {
			if seen[m.ID] {
				continue
			}
			mark(m.ID)
			e.attempt("touch", func() error {
				return e.store.TouchMemory(ctx, m.ID, tenant)
			})
			results = append(results, fmt.Sprintf(
				"[%s] (%s, %s) %s\n  id: %s",
				m.Gate, m.Created.Format("2006-01-02"),
				personOr(m.Person), m.Content, m.ID))
		}
	}

	// Graph augmentation for sparse result sets.
	if len(results) < 3 {
		roots := order
		if len(roots) > 2 {
			roots = roots[:2]
		}
		for _, root := range roots {
			related, err := e.store.FindRelated(ctx, root, 2, tenant)
			if err != nil {
				e.logger.Printf("graph traversal failed: %v", err)
				continue
			}
			for _, rel := range related {
				if seen[rel.ID] {
					continue
				}
				mark(rel.ID)
				results = append(results, fmt.Sprintf(
					"[graph: %s] %s (id: %s)", rel.Relation, rel.Preview, rel.ID))
			}
		}
	}

	if len(results) == 0 {
		return "No memories found matching that query."
	}
	return fmt.Sprintf("Found %d memories:\n\n%s", len(results), strings.Join(results, "\n\n"))
}

// PrimeFloor is the minimum similarity a memory needs to be surfaced
// proactively.
const PrimeFloor = 0.3

// Prime is proactive recall: the top similarity hits for the user's latest
// message, filtered by a relevance floor. No keyword or graph fallback.
func (e *Engine) Prime(ctx context.Context, tenant, message string) string {
	hits, err := e.store.SearchVector(ctx, message, 3, tenant)
	if err != nil {
		e.logger.Printf("prime search failed: %v", err)
		return "No relevant memories found."
	}

	var lines []string
	for _, hit := range hits {
		if hit.Score < PrimeFloor {
			continue
		}
		full, err := e.store.GetMemory(ctx, hit.MemoryID, tenant)
		if err != nil {
			continue
		}
		e.attempt("touch", func() error {
			return e.store.TouchMemory(ctx, hit.MemoryID, tenant)
		})
		lines = append(lines, fmt.Sprintf(
			"[%s, relevance=%.2f] %s", full.Gate, hit.Score, full.Content))
	}

	if len(lines) == 0 {
		return "No relevant memories found."
	}
	return "Relevant context from memory:\n" + strings.Join(lines, "\n")
}

func personOr(p string) string {
	if p == "" {
		return "?"
	}
	return p
}

// Graph exposes depth-limited traversal to transport layers.
func (e *Engine) Graph(ctx context.Context, tenant, startID string, depth int) ([]memory.Related, error) {
	if depth <= 0 {
		depth = 2
	}
	return e.store.FindRelated(ctx, startID, depth, tenant)
}
