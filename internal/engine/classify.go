package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/thierrypdamiba/claude-memory-kit/internal/llm"
	"github.com/thierrypdamiba/claude-memory-kit/internal/memory"
	"github.com/thierrypdamiba/claude-memory-kit/internal/store"
)

// classifyBatchSize is how many memories go into one synthesis call.
// Batches run sequentially to respect provider rate limits.
const classifyBatchSize = 20

// ClassifyAll sweeps memories through the sensitivity classifier. By
// default only unclassified memories are considered; force re-classifies
// everything.
func (e *Engine) ClassifyAll(ctx context.Context, tenant string, force bool) (string, error) {
	if e.synth == nil {
		return "No API key configured. Cannot classify memories.", nil
	}

	var memories []memory.Memory
	var err error
	if force {
		memories, err = e.store.ListMemories(ctx, store.ListFilter{Limit: 500}, tenant)
	} else {
		memories, err = e.store.ListUnclassified(ctx, 500, tenant)
	}
	if err != nil {
		return "", fmt.Errorf("list memories: %w", err)
	}
	if len(memories) == 0 {
		return "No memories to classify.", nil
	}

	counts := map[string]int{}
	for start := 0; start < len(memories); start += classifyBatchSize {
		end := start + classifyBatchSize
		if end > len(memories) {
			end = len(memories)
		}
		batch := memories[start:end]

		inputs := make([]llm.ClassifyInput, len(batch))
		for i, m := range batch {
			inputs[i] = llm.ClassifyInput{ID: m.ID, Content: m.Content}
		}

		verdicts, err := e.synth.ClassifySensitivity(ctx, inputs)
		if err != nil {
			e.logger.Printf("batch classification failed: %v", err)
			counts["failed"] += len(batch)
			continue
		}

		byID := map[string]llm.SensitivityResult{}
		for _, v := range verdicts {
			byID[v.ID] = v
		}
		for _, m := range batch {
			v, ok := byID[m.ID]
			if !ok || !memory.ValidSensitivity(v.Level) {
				counts["failed"]++
				continue
			}
			if err := e.store.UpdateSensitivity(ctx, m.ID, v.Level, v.Reason, tenant); err != nil {
				e.logger.Printf("storing classification for %s failed: %v", m.ID, err)
				counts["failed"]++
				continue
			}
			counts[v.Level]++
		}
	}

	parts := []string{fmt.Sprintf("Classified %d memories:", len(memories))}
	for _, level := range []string{memory.SensitivitySafe, memory.SensitivitySensitive, memory.SensitivityCritical} {
		if counts[level] > 0 {
			parts = append(parts, fmt.Sprintf("  %s: %d", level, counts[level]))
		}
	}
	if counts["failed"] > 0 {
		parts = append(parts, fmt.Sprintf("  failed: %d", counts["failed"]))
	}
	return strings.Join(parts, "\n"), nil
}

// Reclassify manually overrides a memory's sensitivity level.
func (e *Engine) Reclassify(ctx context.Context, tenant, memoryID, level string) (string, error) {
	if !memory.ValidSensitivity(level) {
		return fmt.Sprintf("Invalid level %q. Use: safe, sensitive, critical", level), nil
	}
	err := e.store.UpdateSensitivity(ctx, memoryID, level, "manually reclassified by user", tenant)
	if errors.Is(err, store.ErrNotFound) {
		return "Memory not found.", nil
	}
	if err != nil {
		return "", fmt.Errorf("update sensitivity: %w", err)
	}
	return fmt.Sprintf("Reclassified %s as %s.", memoryID, level), nil
}
