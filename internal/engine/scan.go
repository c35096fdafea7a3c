package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/thierrypdamiba/claude-memory-kit/internal/classify"
	"github.com/thierrypdamiba/claude-memory-kit/internal/store"
)

// Scan sweeps the live memory set for sensitive-data patterns and reports
// which memories are affected, grouped by finding type.
func (e *Engine) Scan(ctx context.Context, tenant string, limit int) (string, error) {
	if limit <= 0 {
		limit = 500
	}
	memories, err := e.store.ListMemories(ctx, store.ListFilter{Limit: limit}, tenant)
	if err != nil {
		return "", fmt.Errorf("list memories: %w", err)
	}

	type flagged struct {
		id, gate, preview string
		types             []string
	}
	var hits []flagged
	for _, m := range memories {
		findings := classify.ScanContent(m.Content)
		if len(findings) == 0 {
			continue
		}
		typeSet := map[string]bool{}
		for _, f := range findings {
			typeSet[f.Type] = true
		}
		types := make([]string, 0, len(typeSet))
		for t := range typeSet {
			types = append(types, t)
		}
		sort.Strings(types)
		preview := m.Preview(60)
		if len(m.Content) > 60 {
			preview += "..."
		}
		hits = append(hits, flagged{id: m.ID, gate: string(m.Gate), preview: preview, types: types})
	}

	if len(hits) == 0 {
		return fmt.Sprintf("Scanned %d memories. No sensitive data patterns found.", len(memories)), nil
	}

	lines := []string{fmt.Sprintf(
		"Scanned %d memories. Found %d with potential sensitive data:\n", len(memories), len(hits))}
	for _, h := range hits {
		lines = append(lines, fmt.Sprintf(
			"  [%s] %s: %s\n    preview: %s",
			h.gate, h.id, strings.Join(h.types, ", "), h.preview))
	}
	return strings.Join(lines, "\n"), nil
}
