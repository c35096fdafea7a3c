package mcp

import (
	"context"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thierrypdamiba/claude-memory-kit/internal/embed"
	"github.com/thierrypdamiba/claude-memory-kit/internal/engine"
	"github.com/thierrypdamiba/claude-memory-kit/internal/store"
	"github.com/thierrypdamiba/claude-memory-kit/internal/store/sqlite"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	st, err := sqlite.NewMemory(embed.NewHashEmbedder(0))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	eng := engine.New(st, nil, log.New(&strings.Builder{}, "", 0))
	return &Server{engine: eng, tenant: "local", counters: engine.NewCounters()}
}

func TestToolDefsSurface(t *testing.T) {
	defs := ToolDefs()
	require.Len(t, defs, 4)

	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	assert.Equal(t, []string{"save", "search", "forget", "checkpoint"}, names)
}

func TestDispatchSaveAndSearch(t *testing.T) {
	s := testServer(t)
	ctx := context.Background()

	result := s.Dispatch(ctx, "save", map[string]any{
		"text": "paired with Dana on repo memkit-core today",
	})
	assert.Contains(t, result, "Remembered [epistemic]: paired with Dana on repo memkit-core today")

	result = s.Dispatch(ctx, "search", map[string]any{"query": "paired with Dana"})
	assert.Contains(t, result, "Found 1 memories")
	assert.Contains(t, result, "Dana")
}

func TestDispatchSaveAutoGate(t *testing.T) {
	s := testServer(t)

	result := s.Dispatch(context.Background(), "save", map[string]any{
		"text": "I need to send the report by friday",
	})
	assert.Contains(t, result, "Remembered [promissory]:")
}

func TestDispatchSaveExplicitOverrides(t *testing.T) {
	s := testServer(t)
	ctx := context.Background()

	result := s.Dispatch(ctx, "save", map[string]any{
		"text":    "paired with Dana on repo memkit-core today",
		"gate":    "relational",
		"person":  "Dana Reyes",
		"project": "orchestrator",
	})
	assert.Contains(t, result, "Remembered [relational]:")

	m, err := s.engine.List(ctx, s.tenant, store.ListFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, m, 1)
	assert.Equal(t, "Dana Reyes", m[0].Person)
	assert.Equal(t, "orchestrator", m[0].Project)
}

func TestDispatchLegacyAliases(t *testing.T) {
	s := testServer(t)
	ctx := context.Background()

	result := s.Dispatch(ctx, "remember", map[string]any{"text": "aliases still work"})
	assert.Contains(t, result, "Remembered [epistemic]: aliases still work")

	result = s.Dispatch(ctx, "recall", map[string]any{"query": "aliases still work"})
	assert.Contains(t, result, "Found 1 memories")

	result = s.Dispatch(ctx, "prime", map[string]any{"query": "aliases still work"})
	assert.Contains(t, result, "Found 1 memories")
}

func TestDispatchLegacyToolsRoutable(t *testing.T) {
	s := testServer(t)
	ctx := context.Background()

	result := s.Dispatch(ctx, "identity", map[string]any{})
	assert.Contains(t, result, "What's your name?")

	result = s.Dispatch(ctx, "reflect", map[string]any{})
	assert.Contains(t, result, "Reflection complete:")

	result = s.Dispatch(ctx, "auto_extract", map[string]any{"transcript": "hello"})
	assert.Equal(t, "No API key configured. Cannot extract memories.", result)
}

func TestDispatchUnknownTool(t *testing.T) {
	s := testServer(t)
	result := s.Dispatch(context.Background(), "observe", map[string]any{})
	assert.Equal(t, "Unknown tool: observe", result)
}

func TestDispatchForgetAndCheckpoint(t *testing.T) {
	s := testServer(t)
	ctx := context.Background()

	result := s.Dispatch(ctx, "forget", map[string]any{"id": "mem_missing", "reason": "test"})
	assert.Equal(t, "No memory found with id: mem_missing", result)

	result = s.Dispatch(ctx, "checkpoint", map[string]any{"summary": "mid-refactor state"})
	assert.Equal(t, "Checkpoint saved. This will be loaded at the start of your next session.", result)
}

func TestDispatchSaveInvalidGate(t *testing.T) {
	s := testServer(t)
	result := s.Dispatch(context.Background(), "save", map[string]any{
		"text": "some content",
		"gate": "sentimental",
	})
	assert.Contains(t, result, "invalid gate")
}

func TestDispatchSaveCheckpointNudge(t *testing.T) {
	s := testServer(t)
	s.counters.CheckpointEvery = 2
	ctx := context.Background()

	result := s.Dispatch(ctx, "save", map[string]any{"text": "first save"})
	assert.NotContains(t, result, "Consider calling checkpoint")

	result = s.Dispatch(ctx, "save", map[string]any{"text": "second save"})
	assert.Contains(t, result, "You've saved several memories this session. "+
		"Consider calling checkpoint to snapshot your working context.")
}
