package chromem

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thierrypdamiba/claude-memory-kit/internal/embed"
	"github.com/thierrypdamiba/claude-memory-kit/internal/memory"
	"github.com/thierrypdamiba/claude-memory-kit/internal/store"
)

const tenant = "local"

func testStore() *Store {
	return NewMemory(embed.NewHashEmbedder(0))
}

func insert(t *testing.T, s *Store, content string, gate memory.Gate, person, project string) memory.Memory {
	t.Helper()
	m := memory.New(content, gate, person, project, time.Now().UTC())
	require.NoError(t, s.InsertMemory(context.Background(), m, tenant))
	return m
}

func TestMemoryRoundTrip(t *testing.T) {
	s := testStore()
	ctx := context.Background()

	m := insert(t, s, "I prefer tabs over spaces", memory.GateBehavioral, "Dana", "memkit")

	got, err := s.GetMemory(ctx, m.ID, tenant)
	require.NoError(t, err)
	assert.Equal(t, m.Content, got.Content)
	assert.Equal(t, memory.GateBehavioral, got.Gate)
	assert.Equal(t, "Dana", got.Person)
	assert.Equal(t, 0.9, got.Confidence)
	assert.Equal(t, 1, got.AccessCount)
}

func TestGetMemoryNotFound(t *testing.T) {
	s := testStore()
	_, err := s.GetMemory(context.Background(), "mem_nope", tenant)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTenantIsolation(t *testing.T) {
	s := testStore()
	ctx := context.Background()

	m := insert(t, s, "only for local", memory.GateEpistemic, "", "")

	_, err := s.GetMemory(ctx, m.ID, "other")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPayloadDocsAreNotMemories(t *testing.T) {
	s := testStore()
	ctx := context.Background()

	// Identity and journal ride in the same collection; they must never
	// surface through the memory accessors.
	require.NoError(t, s.SetIdentity(ctx, memory.IdentityCard{
		Content: "who I am", LastUpdated: time.Now().UTC(),
	}, tenant))
	require.NoError(t, s.InsertJournal(ctx,
		memory.NewJournalEntry(memory.GateEpistemic, "a journal line", "", "", time.Now().UTC()), tenant))
	insert(t, s, "a real memory", memory.GateEpistemic, "", "")

	n, err := s.CountMemories(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.GetMemory(ctx, "identity", tenant)
	assert.ErrorIs(t, err, store.ErrNotFound)

	hits, err := s.SearchVector(ctx, "journal line identity", 5, tenant)
	require.NoError(t, err)
	for _, h := range hits {
		assert.NotEqual(t, "identity", h.MemoryID)
	}
}

func TestUpdateAndTouch(t *testing.T) {
	s := testStore()
	ctx := context.Background()

	m := insert(t, s, "original", memory.GateEpistemic, "", "")

	gate := memory.GateBehavioral
	require.NoError(t, s.UpdateMemory(ctx, m.ID, store.MemoryUpdate{Gate: &gate}, tenant))
	require.NoError(t, s.TouchMemory(ctx, m.ID, tenant))

	got, err := s.GetMemory(ctx, m.ID, tenant)
	require.NoError(t, err)
	assert.Equal(t, memory.GateBehavioral, got.Gate)
	assert.Equal(t, memory.DecayFast, got.DecayClass)
	assert.Equal(t, 2, got.AccessCount)

	// Touching a missing id is a no-op, matching the relational backend.
	assert.NoError(t, s.TouchMemory(ctx, "mem_nope", tenant))
}

func TestListMemoriesFilterAndOrder(t *testing.T) {
	s := testStore()
	ctx := context.Background()
	now := time.Now().UTC()

	older := memory.New("older", memory.GateEpistemic, "Dana", "", now.Add(-time.Hour))
	require.NoError(t, s.InsertMemory(ctx, older, tenant))
	newer := memory.New("newer", memory.GateEpistemic, "Dana", "", now)
	require.NoError(t, s.InsertMemory(ctx, newer, tenant))
	insert(t, s, "unrelated", memory.GateBehavioral, "Sam", "")

	mems, err := s.ListMemories(ctx, store.ListFilter{Person: "Dana"}, tenant)
	require.NoError(t, err)
	require.Len(t, mems, 2)
	assert.Equal(t, "newer", mems[0].Content)
	assert.Equal(t, "older", mems[1].Content)
}

func TestSearchVectorRanksByOverlap(t *testing.T) {
	s := testStore()
	ctx := context.Background()

	a := insert(t, s, "deploy pipeline for the billing service", memory.GateEpistemic, "", "")
	insert(t, s, "quarterly hiring plan draft", memory.GateEpistemic, "", "")

	hits, err := s.SearchVector(ctx, "billing service deploy", 5, tenant)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, a.ID, hits[0].MemoryID)
}

func TestSearchFTSEmulation(t *testing.T) {
	s := testStore()
	ctx := context.Background()

	insert(t, s, "the billing service retries forever", memory.GateEpistemic, "", "")
	insert(t, s, "dana likes short meetings", memory.GateRelational, "Dana", "")

	found, err := s.SearchFTS(ctx, "billing retries", 5, tenant)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Contains(t, found[0].Content, "billing")

	// Person tags are part of the haystack.
	found, err = s.SearchFTS(ctx, "dana", 5, tenant)
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestGraphTraversal(t *testing.T) {
	s := testStore()
	ctx := context.Background()

	a := insert(t, s, "memory a", memory.GateEpistemic, "", "")
	b := insert(t, s, "memory b", memory.GateEpistemic, "", "")
	c := insert(t, s, "memory c", memory.GateEpistemic, "", "")

	require.NoError(t, s.AddEdge(ctx, a.ID, b.ID, memory.RelRelatedTo, tenant))
	require.NoError(t, s.AddEdge(ctx, b.ID, c.ID, memory.RelFollows, tenant))
	// Duplicate edge collapses into the same document.
	require.NoError(t, s.AddEdge(ctx, a.ID, b.ID, memory.RelRelatedTo, tenant))

	related, err := s.FindRelated(ctx, a.ID, 2, tenant)
	require.NoError(t, err)
	require.Len(t, related, 2)

	depths := map[string]int{}
	for _, r := range related {
		depths[r.ID] = r.Depth
	}
	assert.Equal(t, 1, depths[b.ID])
	assert.Equal(t, 2, depths[c.ID])
}

func TestLatestTaggedWindow(t *testing.T) {
	s := testStore()
	ctx := context.Background()
	now := time.Now().UTC()

	old := memory.New("old dana", memory.GateRelational, "Dana", "", now.Add(-48*time.Hour))
	require.NoError(t, s.InsertMemory(ctx, old, tenant))
	recent := memory.New("recent dana", memory.GateRelational, "Dana", "", now.Add(-time.Minute))
	require.NoError(t, s.InsertMemory(ctx, recent, tenant))

	id, err := s.LatestTagged(ctx, "other", "Dana", "", now.Add(-24*time.Hour), tenant)
	require.NoError(t, err)
	assert.Equal(t, recent.ID, id)

	_, err = s.LatestTagged(ctx, recent.ID, "Dana", "", now.Add(-24*time.Hour), tenant)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestJournalLifecycle(t *testing.T) {
	s := testStore()
	ctx := context.Background()
	now := time.Now().UTC()

	e := memory.NewJournalEntry(memory.GateEpistemic, "learned a thing", "", "", now)
	require.NoError(t, s.InsertJournal(ctx, e, tenant))

	byDate, err := s.JournalByDate(ctx, e.Date, tenant)
	require.NoError(t, err)
	require.Len(t, byDate, 1)

	require.NoError(t, s.DeleteJournalDate(ctx, e.Date, tenant))
	byDate, err = s.JournalByDate(ctx, e.Date, tenant)
	require.NoError(t, err)
	assert.Empty(t, byDate)
}

func TestLatestCheckpoint(t *testing.T) {
	s := testStore()
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := s.LatestCheckpoint(ctx, tenant)
	assert.ErrorIs(t, err, store.ErrNotFound)

	first := memory.NewJournalEntry(memory.GateCheckpoint, "first", "", "", now.Add(-time.Hour))
	require.NoError(t, s.InsertJournal(ctx, first, tenant))
	second := memory.NewJournalEntry(memory.GateCheckpoint, "second", "", "", now)
	require.NoError(t, s.InsertJournal(ctx, second, tenant))

	got, err := s.LatestCheckpoint(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, "second", got.Content)
}

func TestIdentityAndOnboarding(t *testing.T) {
	s := testStore()
	ctx := context.Background()

	require.NoError(t, s.SetIdentity(ctx, memory.IdentityCard{
		Person: "Dana", Content: "the card", LastUpdated: time.Now().UTC(),
	}, tenant))
	card, err := s.GetIdentity(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, "the card", card.Content)

	require.NoError(t, s.SetOnboarding(ctx, memory.OnboardingState{Step: 2, Person: "Dana"}, tenant))
	state, err := s.GetOnboarding(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, 2, state.Step)

	require.NoError(t, s.DeleteOnboarding(ctx, tenant))
	_, err = s.GetOnboarding(ctx, tenant)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Deleting absent state stays a no-op.
	assert.NoError(t, s.DeleteOnboarding(ctx, tenant))
}
