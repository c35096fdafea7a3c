package engine

import (
	"context"
	"fmt"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thierrypdamiba/claude-memory-kit/internal/embed"
	"github.com/thierrypdamiba/claude-memory-kit/internal/llm"
	"github.com/thierrypdamiba/claude-memory-kit/internal/memory"
	"github.com/thierrypdamiba/claude-memory-kit/internal/store"
	"github.com/thierrypdamiba/claude-memory-kit/internal/store/sqlite"
)

const tenant = "local"

func testEngine(t *testing.T, synth llm.Synthesizer) (*Engine, *sqlite.Store) {
	t.Helper()
	st, err := sqlite.NewMemory(embed.NewHashEmbedder(0))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New(st, synth, log.New(&strings.Builder{}, "", 0)), st
}

// memoryID pulls the id out of a Remember result string.
func memoryID(t *testing.T, result string) string {
	t.Helper()
	start := strings.Index(result, "(id: ")
	require.GreaterOrEqual(t, start, 0, "no id in %q", result)
	rest := result[start+len("(id: "):]
	end := strings.Index(rest, ")")
	require.GreaterOrEqual(t, end, 0)
	return rest[:end]
}

func TestRememberPersistsMemoryAndJournal(t *testing.T) {
	e, st := testEngine(t, nil)
	ctx := context.Background()

	result, err := e.Remember(ctx, tenant, "I prefer tabs over spaces", "behavioral", "Dana", "memkit")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result, "Remembered [behavioral]: I prefer tabs over spaces (id: mem_"))

	id := memoryID(t, result)
	m, err := st.GetMemory(ctx, id, tenant)
	require.NoError(t, err)
	assert.Equal(t, 0.9, m.Confidence)
	assert.Equal(t, memory.DecayFast, m.DecayClass)
	assert.Equal(t, "Dana", m.Person)

	entries, err := st.JournalByDate(ctx, time.Now().UTC().Format("2006-01-02"), tenant)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "I prefer tabs over spaces", entries[0].Content)

	// The write is searchable immediately.
	hits, err := st.SearchVector(ctx, "I prefer tabs over spaces", 1, tenant)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, id, hits[0].MemoryID)
}

func TestRememberInvalidGatePersistsNothing(t *testing.T) {
	e, st := testEngine(t, nil)
	ctx := context.Background()

	result, err := e.Remember(ctx, tenant, "some content", "sentimental", "", "")
	require.NoError(t, err)
	assert.Contains(t, result, `invalid gate "sentimental"`)

	n, err := st.CountMemories(ctx, tenant)
	require.NoError(t, err)
	assert.Zero(t, n)

	entries, err := st.RecentJournal(ctx, 2, tenant)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRememberTruncatesPreview(t *testing.T) {
	e, _ := testEngine(t, nil)

	long := strings.Repeat("a", 100) + " tail that never shows"
	result, err := e.Remember(context.Background(), tenant, long, "epistemic", "", "")
	require.NoError(t, err)
	assert.NotContains(t, result, "tail that never shows")
}

func TestRememberWarnsOnNearDuplicate(t *testing.T) {
	e, _ := testEngine(t, nil)
	ctx := context.Background()

	base := "deploying the billing service requires draining the queue workers before restarting the pods today"
	_, err := e.Remember(ctx, tenant, base, "epistemic", "", "")
	require.NoError(t, err)

	near := strings.Replace(base, "today", "forever", 1)
	result, err := e.Remember(ctx, tenant, near, "epistemic", "", "")
	require.NoError(t, err)
	assert.Contains(t, result, "warning: high similarity")
	assert.Contains(t, result, "possible contradiction or duplicate")
}

func TestRememberExactDuplicateNoWarning(t *testing.T) {
	e, _ := testEngine(t, nil)
	ctx := context.Background()

	content := "the staging cluster runs in us-east-2"
	_, err := e.Remember(ctx, tenant, content, "epistemic", "", "")
	require.NoError(t, err)
	result, err := e.Remember(ctx, tenant, content, "epistemic", "", "")
	require.NoError(t, err)
	assert.NotContains(t, result, "warning: high similarity")
}

func TestRememberCorrectionHalvesConfidence(t *testing.T) {
	e, st := testEngine(t, nil)
	ctx := context.Background()

	content := "I prefer tabs for indentation in all Go files"
	first, err := e.Remember(ctx, tenant, content, "epistemic", "", "")
	require.NoError(t, err)
	oldID := memoryID(t, first)

	second, err := e.Remember(ctx, tenant, content, "correction", "", "")
	require.NoError(t, err)
	newID := memoryID(t, second)

	old, err := st.GetMemory(ctx, oldID, tenant)
	require.NoError(t, err)
	assert.InDelta(t, 0.45, old.Confidence, 0.001)

	related, err := st.FindRelated(ctx, newID, 1, tenant)
	require.NoError(t, err)
	var contradicts int
	for _, r := range related {
		if r.Relation == memory.RelContradicts && r.ID == oldID {
			contradicts++
		}
	}
	assert.Equal(t, 1, contradicts)
}

func TestRememberChainsFollowsEdge(t *testing.T) {
	e, st := testEngine(t, nil)
	ctx := context.Background()

	first, err := e.Remember(ctx, tenant, "paired with dana on the parser", "epistemic", "Dana", "")
	require.NoError(t, err)
	firstID := memoryID(t, first)

	second, err := e.Remember(ctx, tenant, "dana wants smaller review batches", "behavioral", "Dana", "")
	require.NoError(t, err)
	secondID := memoryID(t, second)

	// Auto-link and the memory chain both connect the pair; traversal
	// reports each neighbor once.
	related, err := st.FindRelated(ctx, secondID, 1, tenant)
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, firstID, related[0].ID)
	assert.Contains(t, []string{memory.RelFollows, memory.RelRelatedTo}, related[0].Relation)
}

func TestRememberFlagsPII(t *testing.T) {
	e, _ := testEngine(t, nil)

	result, err := e.Remember(context.Background(), tenant,
		"my key is sk-abcdefghijklmnopqrstuvwx", "epistemic", "", "")
	require.NoError(t, err)
	assert.Contains(t, result, "WARNING: This memory appears to contain a API key (sk-)")
}

func TestRememberSensitivityMismatchedVerdictIgnored(t *testing.T) {
	synth := &llm.MockSynth{
		Verdicts: []llm.SensitivityResult{
			{ID: "mem_other", Level: memory.SensitivitySensitive, Reason: "salary"},
		},
	}
	e, st := testEngine(t, synth)
	ctx := context.Background()

	result, err := e.Remember(ctx, tenant, "my salary is 120k", "epistemic", "", "")
	require.NoError(t, err)
	assert.NotContains(t, result, "SENSITIVITY:")

	// The classifier was consulted with the new memory's content.
	require.Len(t, synth.ClassifyIn, 1)
	require.Len(t, synth.ClassifyIn[0], 1)
	assert.Equal(t, "my salary is 120k", synth.ClassifyIn[0][0].Content)

	// A verdict for an id we did not send leaves the memory unclassified.
	m, err := st.GetMemory(ctx, memoryID(t, result), tenant)
	require.NoError(t, err)
	assert.Empty(t, m.Sensitivity)
}

func TestRecallFindsStoredMemory(t *testing.T) {
	e, _ := testEngine(t, nil)
	ctx := context.Background()

	_, err := e.Remember(ctx, tenant, "the billing service retries forever", "epistemic", "", "")
	require.NoError(t, err)

	result := e.Recall(ctx, tenant, "billing service retries")
	assert.Contains(t, result, "Found 1 memories")
	assert.Contains(t, result, "the billing service retries forever")
	assert.Contains(t, result, "vector=")
}

func TestRecallEmptyStore(t *testing.T) {
	e, _ := testEngine(t, nil)
	result := e.Recall(context.Background(), tenant, "anything at all")
	assert.Equal(t, "No memories found matching that query.", result)
}

func TestRecallTouchesHits(t *testing.T) {
	e, st := testEngine(t, nil)
	ctx := context.Background()

	result, err := e.Remember(ctx, tenant, "the deploy takes four minutes", "epistemic", "", "")
	require.NoError(t, err)
	id := memoryID(t, result)

	e.Recall(ctx, tenant, "deploy minutes")

	m, err := st.GetMemory(ctx, id, tenant)
	require.NoError(t, err)
	assert.Equal(t, 2, m.AccessCount)
}

func TestRecallAugmentsFromGraph(t *testing.T) {
	e, st := testEngine(t, nil)
	ctx := context.Background()

	hit, err := e.Remember(ctx, tenant, "alpha topic memory", "epistemic", "", "")
	require.NoError(t, err)
	hitID := memoryID(t, hit)

	// A linked memory with zero token overlap with the query.
	other := memory.New("completely different subject", memory.GateEpistemic, "", "", time.Now().UTC())
	require.NoError(t, st.InsertMemory(ctx, other, tenant))
	require.NoError(t, st.AddEdge(ctx, hitID, other.ID, memory.RelRelatedTo, tenant))

	result := e.Recall(ctx, tenant, "alpha topic memory")
	assert.Contains(t, result, "[graph: RELATED_TO]")
	assert.Contains(t, result, "completely different subject")
}

func TestPrimeAppliesRelevanceFloor(t *testing.T) {
	e, _ := testEngine(t, nil)
	ctx := context.Background()

	_, err := e.Remember(ctx, tenant, "the billing service retries forever", "epistemic", "", "")
	require.NoError(t, err)

	hit := e.Prime(ctx, tenant, "billing service retries forever")
	assert.Contains(t, hit, "Relevant context from memory:")

	miss := e.Prime(ctx, tenant, "quarterly hiring roadmap")
	assert.Equal(t, "No relevant memories found.", miss)
}

func TestForget(t *testing.T) {
	e, st := testEngine(t, nil)
	ctx := context.Background()

	result, err := e.Remember(ctx, tenant, "to be forgotten", "epistemic", "", "")
	require.NoError(t, err)
	id := memoryID(t, result)

	out, err := e.Forget(ctx, tenant, id, "user asked")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("Forgotten: %s (reason: user asked). Archived for accountability.", id), out)

	_, err = st.GetMemory(ctx, id, tenant)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestForgetMissing(t *testing.T) {
	e, _ := testEngine(t, nil)
	out, err := e.Forget(context.Background(), tenant, "mem_nope", "why not")
	require.NoError(t, err)
	assert.Equal(t, "No memory found with id: mem_nope", out)
}

func TestCheckpointRoundTrip(t *testing.T) {
	e, _ := testEngine(t, nil)
	ctx := context.Background()

	out, err := e.Checkpoint(ctx, tenant, "working on the recall fan-out")
	require.NoError(t, err)
	assert.Equal(t, "Checkpoint saved. This will be loaded at the start of your next session.", out)

	ckpt := e.LatestCheckpoint(ctx, tenant)
	require.NotNil(t, ckpt)
	assert.Equal(t, "working on the recall fan-out", ckpt.Content)
	assert.Equal(t, memory.GateCheckpoint, ckpt.Gate)
}

func TestLatestCheckpointNil(t *testing.T) {
	e, _ := testEngine(t, nil)
	assert.Nil(t, e.LatestCheckpoint(context.Background(), tenant))
}

func TestGetStats(t *testing.T) {
	e, _ := testEngine(t, nil)
	ctx := context.Background()

	_, err := e.Remember(ctx, tenant, "a lesson", "epistemic", "", "")
	require.NoError(t, err)
	_, err = e.Remember(ctx, tenant, "a preference", "behavioral", "", "")
	require.NoError(t, err)
	_, err = e.Checkpoint(ctx, tenant, "snapshot")
	require.NoError(t, err)

	stats, err := e.GetStats(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByGate[memory.GateEpistemic])
	assert.Equal(t, 1, stats.ByGate[memory.GateBehavioral])
	assert.False(t, stats.HasIdentity)
	assert.NotEmpty(t, stats.Checkpoint)
}

func TestCountersTriggers(t *testing.T) {
	c := NewCounters()
	c.ReflectEvery = 3
	c.CheckpointEvery = 2

	reflect, checkpoint := c.RecordSave()
	assert.False(t, reflect)
	assert.False(t, checkpoint)

	reflect, checkpoint = c.RecordSave()
	assert.False(t, reflect)
	assert.True(t, checkpoint)

	reflect, checkpoint = c.RecordSave()
	assert.True(t, reflect)
	assert.False(t, checkpoint)

	// Each trigger resets only its own counter.
	reflect, checkpoint = c.RecordSave()
	assert.False(t, reflect)
	assert.True(t, checkpoint)
}

func TestCountersDisabled(t *testing.T) {
	c := &Counters{}
	for i := 0; i < 50; i++ {
		reflect, checkpoint := c.RecordSave()
		assert.False(t, reflect)
		assert.False(t, checkpoint)
	}
}
