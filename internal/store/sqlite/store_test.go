package sqlite

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

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory(embed.NewHashEmbedder(0))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func insert(t *testing.T, s *Store, content string, gate memory.Gate, person, project string) memory.Memory {
	t.Helper()
	m := memory.New(content, gate, person, project, time.Now().UTC())
	require.NoError(t, s.InsertMemory(context.Background(), m, tenant))
	return m
}

func TestMemoryRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	m := insert(t, s, "I prefer tabs over spaces", memory.GateBehavioral, "Dana", "memkit")

	got, err := s.GetMemory(ctx, m.ID, tenant)
	require.NoError(t, err)
	assert.Equal(t, m.Content, got.Content)
	assert.Equal(t, memory.GateBehavioral, got.Gate)
	assert.Equal(t, "Dana", got.Person)
	assert.Equal(t, 0.9, got.Confidence)
	assert.Equal(t, memory.DecayFast, got.DecayClass)
}

func TestGetMemoryNotFound(t *testing.T) {
	s := testStore(t)
	_, err := s.GetMemory(context.Background(), "mem_nope", tenant)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTenantIsolation(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	m := insert(t, s, "only visible to local", memory.GateEpistemic, "", "")

	_, err := s.GetMemory(ctx, m.ID, "other")
	assert.ErrorIs(t, err, store.ErrNotFound)

	n, err := s.CountMemories(ctx, "other")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpdateMemoryRefreshesDecayClass(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	m := insert(t, s, "the retry budget is three", memory.GateEpistemic, "", "")

	gate := memory.GateBehavioral
	require.NoError(t, s.UpdateMemory(ctx, m.ID, store.MemoryUpdate{Gate: &gate}, tenant))

	got, err := s.GetMemory(ctx, m.ID, tenant)
	require.NoError(t, err)
	assert.Equal(t, memory.GateBehavioral, got.Gate)
	assert.Equal(t, memory.DecayFast, got.DecayClass)
}

func TestUpdateMemoryNotFound(t *testing.T) {
	s := testStore(t)
	content := "x"
	err := s.UpdateMemory(context.Background(), "mem_nope",
		store.MemoryUpdate{Content: &content}, tenant)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTouchMemory(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	m := insert(t, s, "touched", memory.GateEpistemic, "", "")
	require.NoError(t, s.TouchMemory(ctx, m.ID, tenant))

	got, err := s.GetMemory(ctx, m.ID, tenant)
	require.NoError(t, err)
	assert.Equal(t, 2, got.AccessCount)

	// Missing id is a quiet no-op.
	assert.NoError(t, s.TouchMemory(ctx, "mem_nope", tenant))
}

func TestListMemoriesFilters(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	insert(t, s, "about dana", memory.GateRelational, "Dana", "")
	insert(t, s, "about sam", memory.GateRelational, "Sam", "")
	insert(t, s, "a lesson", memory.GateEpistemic, "", "memkit")

	byPerson, err := s.ListMemories(ctx, store.ListFilter{Person: "Dana"}, tenant)
	require.NoError(t, err)
	require.Len(t, byPerson, 1)
	assert.Equal(t, "about dana", byPerson[0].Content)

	byGate, err := s.ListMemories(ctx, store.ListFilter{Gate: memory.GateRelational}, tenant)
	require.NoError(t, err)
	assert.Len(t, byGate, 2)

	byProject, err := s.ListMemories(ctx, store.ListFilter{Project: "memkit"}, tenant)
	require.NoError(t, err)
	assert.Len(t, byProject, 1)
}

func TestCountByGate(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	insert(t, s, "one", memory.GateEpistemic, "", "")
	insert(t, s, "two", memory.GateEpistemic, "", "")
	insert(t, s, "three", memory.GateBehavioral, "", "")

	counts, err := s.CountByGate(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[memory.GateEpistemic])
	assert.Equal(t, 1, counts[memory.GateBehavioral])
}

func TestSearchFTS(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	insert(t, s, "the billing service retries forever", memory.GateEpistemic, "", "")
	insert(t, s, "dana likes short meetings", memory.GateRelational, "Dana", "")

	found, err := s.SearchFTS(ctx, "billing", 5, tenant)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Contains(t, found[0].Content, "billing")

	// Invalid FTS syntax degrades to no results, not an error.
	found, err = s.SearchFTS(ctx, `"unbalanced`, 5, tenant)
	assert.NoError(t, err)
	assert.Empty(t, found)
}

func TestSearchFTSReturnsStoreFailure(t *testing.T) {
	s := testStore(t)

	// Only malformed query text degrades quietly. A dead store is a real
	// failure and must surface so callers can log it.
	require.NoError(t, s.Close())
	_, err := s.SearchFTS(context.Background(), "billing", 5, tenant)
	assert.Error(t, err)
}

func TestVectorSearchRanksByOverlap(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	a := insert(t, s, "deploy pipeline for the billing service", memory.GateEpistemic, "", "")
	b := insert(t, s, "quarterly hiring plan draft", memory.GateEpistemic, "", "")
	require.NoError(t, s.UpsertVector(ctx, a, tenant))
	require.NoError(t, s.UpsertVector(ctx, b, tenant))

	hits, err := s.SearchVector(ctx, "billing service deploy", 5, tenant)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, a.ID, hits[0].MemoryID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestDeleteVector(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	m := insert(t, s, "ephemeral", memory.GateEpistemic, "", "")
	require.NoError(t, s.UpsertVector(ctx, m, tenant))
	require.NoError(t, s.DeleteVector(ctx, m.ID, tenant))

	hits, err := s.SearchVector(ctx, "ephemeral", 5, tenant)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestGraphTraversalDepthAndCycles(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	a := insert(t, s, "memory a", memory.GateEpistemic, "", "")
	b := insert(t, s, "memory b", memory.GateEpistemic, "", "")
	c := insert(t, s, "memory c", memory.GateEpistemic, "", "")

	require.NoError(t, s.AddEdge(ctx, a.ID, b.ID, memory.RelRelatedTo, tenant))
	require.NoError(t, s.AddEdge(ctx, b.ID, c.ID, memory.RelFollows, tenant))
	// Close the cycle; traversal must still terminate.
	require.NoError(t, s.AddEdge(ctx, c.ID, a.ID, memory.RelRelatedTo, tenant))

	related, err := s.FindRelated(ctx, a.ID, 2, tenant)
	require.NoError(t, err)
	require.Len(t, related, 2)

	depths := map[string]int{}
	for _, r := range related {
		depths[r.ID] = r.Depth
	}
	assert.Equal(t, 1, depths[b.ID])
	// c is reachable at depth 1 through the cycle edge, not only at 2.
	assert.Equal(t, 1, depths[c.ID])

	// Depth 1 stops after b and c.
	related, err = s.FindRelated(ctx, a.ID, 1, tenant)
	require.NoError(t, err)
	assert.Len(t, related, 2)
}

func TestGraphMutualEdgePair(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	a := insert(t, s, "memory a", memory.GateEpistemic, "", "")
	b := insert(t, s, "memory b", memory.GateEpistemic, "", "")

	require.NoError(t, s.AddEdge(ctx, a.ID, b.ID, memory.RelRelatedTo, tenant))
	require.NoError(t, s.AddEdge(ctx, b.ID, a.ID, memory.RelRelatedTo, tenant))

	// The two-node cycle yields one neighbor at any depth.
	for _, depth := range []int{1, 2, 5} {
		related, err := s.FindRelated(ctx, a.ID, depth, tenant)
		require.NoError(t, err)
		require.Len(t, related, 1)
		assert.Equal(t, b.ID, related[0].ID)
		assert.Equal(t, 1, related[0].Depth)
	}
}

func TestGraphSkipsDanglingEdges(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	a := insert(t, s, "memory a", memory.GateEpistemic, "", "")
	require.NoError(t, s.AddEdge(ctx, a.ID, "mem_gone", memory.RelRelatedTo, tenant))

	related, err := s.FindRelated(ctx, a.ID, 2, tenant)
	require.NoError(t, err)
	assert.Empty(t, related)
}

func TestAddEdgeIdempotent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	a := insert(t, s, "memory a", memory.GateEpistemic, "", "")
	b := insert(t, s, "memory b", memory.GateEpistemic, "", "")

	require.NoError(t, s.AddEdge(ctx, a.ID, b.ID, memory.RelRelatedTo, tenant))
	require.NoError(t, s.AddEdge(ctx, a.ID, b.ID, memory.RelRelatedTo, tenant))

	related, err := s.FindRelated(ctx, a.ID, 1, tenant)
	require.NoError(t, err)
	assert.Len(t, related, 1)
}

func TestAutoLink(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	a := insert(t, s, "dana fact one", memory.GateRelational, "Dana", "")
	b := insert(t, s, "dana fact two", memory.GateRelational, "Dana", "")

	require.NoError(t, s.AutoLink(ctx, b.ID, "Dana", "", tenant))

	related, err := s.FindRelated(ctx, b.ID, 1, tenant)
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, a.ID, related[0].ID)
	assert.Equal(t, memory.RelRelatedTo, related[0].Relation)
}

func TestLatestTagged(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	old := memory.New("older dana memory", memory.GateRelational, "Dana", "", now.Add(-2*time.Hour))
	require.NoError(t, s.InsertMemory(ctx, old, tenant))
	recent := memory.New("newer dana memory", memory.GateRelational, "Dana", "", now.Add(-time.Minute))
	require.NoError(t, s.InsertMemory(ctx, recent, tenant))

	id, err := s.LatestTagged(ctx, "mem_self", "Dana", "", now.Add(-24*time.Hour), tenant)
	require.NoError(t, err)
	assert.Equal(t, recent.ID, id)

	// The window cuts off older matches.
	_, err = s.LatestTagged(ctx, recent.ID, "Dana", "", now.Add(-time.Hour), tenant)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// No tags means nothing to chain.
	_, err = s.LatestTagged(ctx, "x", "", "", now, tenant)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestJournalLifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	e := memory.NewJournalEntry(memory.GateEpistemic, "learned a thing", "", "", now)
	require.NoError(t, s.InsertJournal(ctx, e, tenant))

	byDate, err := s.JournalByDate(ctx, e.Date, tenant)
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	assert.Equal(t, "learned a thing", byDate[0].Content)

	recent, err := s.RecentJournal(ctx, 2, tenant)
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	require.NoError(t, s.DeleteJournalDate(ctx, e.Date, tenant))
	byDate, err = s.JournalByDate(ctx, e.Date, tenant)
	require.NoError(t, err)
	assert.Empty(t, byDate)
}

func TestStaleJournalDatesExcludesDigests(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	old := memory.JournalEntry{
		Timestamp: time.Now().UTC().AddDate(0, 0, -30),
		Gate:      memory.GateEpistemic,
		Content:   "an old entry",
		Date:      time.Now().UTC().AddDate(0, 0, -30).Format("2006-01-02"),
	}
	require.NoError(t, s.InsertJournal(ctx, old, tenant))

	digest := memory.JournalEntry{
		Timestamp: time.Now().UTC().AddDate(0, 0, -30),
		Gate:      memory.GateDigest,
		Content:   "# Week 2026-W05\n\nthe digest",
		Date:      "2026-W05",
	}
	require.NoError(t, s.InsertJournal(ctx, digest, tenant))

	fresh := memory.NewJournalEntry(memory.GateEpistemic, "fresh entry", "", "", time.Now().UTC())
	require.NoError(t, s.InsertJournal(ctx, fresh, tenant))

	stale, err := s.StaleJournalDates(ctx, 14, tenant)
	require.NoError(t, err)
	assert.Equal(t, []string{old.Date}, stale)
}

func TestLatestCheckpoint(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := s.LatestCheckpoint(ctx, tenant)
	assert.ErrorIs(t, err, store.ErrNotFound)

	first := memory.NewJournalEntry(memory.GateCheckpoint, "first checkpoint", "", "", now.Add(-time.Hour))
	require.NoError(t, s.InsertJournal(ctx, first, tenant))
	second := memory.NewJournalEntry(memory.GateCheckpoint, "second checkpoint", "", "", now)
	require.NoError(t, s.InsertJournal(ctx, second, tenant))

	got, err := s.LatestCheckpoint(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, "second checkpoint", got.Content)
}

func TestIdentityRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.GetIdentity(ctx, tenant)
	assert.ErrorIs(t, err, store.ErrNotFound)

	card := memory.IdentityCard{
		Person:      "Dana",
		Project:     "memkit",
		Content:     "I work with Dana on memkit.",
		LastUpdated: time.Now().UTC(),
	}
	require.NoError(t, s.SetIdentity(ctx, card, tenant))

	got, err := s.GetIdentity(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, "Dana", got.Person)
	assert.Equal(t, card.Content, got.Content)

	// Replacement, not accumulation.
	card.Content = "rewritten"
	require.NoError(t, s.SetIdentity(ctx, card, tenant))
	got, err = s.GetIdentity(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, "rewritten", got.Content)
}

func TestOnboardingRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.GetOnboarding(ctx, tenant)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.SetOnboarding(ctx, memory.OnboardingState{Step: 1, Person: "Dana"}, tenant))
	got, err := s.GetOnboarding(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Step)
	assert.Equal(t, "Dana", got.Person)

	require.NoError(t, s.DeleteOnboarding(ctx, tenant))
	_, err = s.GetOnboarding(ctx, tenant)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteMemoryRemovesVector(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	m := insert(t, s, "to be deleted", memory.GateEpistemic, "", "")
	require.NoError(t, s.UpsertVector(ctx, m, tenant))

	got, err := s.DeleteMemory(ctx, m.ID, tenant)
	require.NoError(t, err)
	assert.Equal(t, m.Content, got.Content)

	_, err = s.GetMemory(ctx, m.ID, tenant)
	assert.ErrorIs(t, err, store.ErrNotFound)

	hits, err := s.SearchVector(ctx, "deleted", 5, tenant)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestListUnclassified(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	m := insert(t, s, "unclassified", memory.GateEpistemic, "", "")
	insert(t, s, "already done", memory.GateEpistemic, "", "")

	unclassified, err := s.ListUnclassified(ctx, 10, tenant)
	require.NoError(t, err)
	assert.Len(t, unclassified, 2)

	require.NoError(t, s.UpdateSensitivity(ctx, m.ID, memory.SensitivitySafe, "", tenant))
	unclassified, err = s.ListUnclassified(ctx, 10, tenant)
	require.NoError(t, err)
	assert.Len(t, unclassified, 1)
}
