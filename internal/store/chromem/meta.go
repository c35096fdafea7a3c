package chromem

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"

	"github.com/thierrypdamiba/claude-memory-kit/internal/memory"
	"github.com/thierrypdamiba/claude-memory-kit/internal/store"
)

// ---- graph ----

// AddEdge stores an edge document. The id encodes the full triple, so a
// duplicate edge overwrites itself: the same no-op semantics as a
// relational INSERT OR IGNORE.
func (s *Store) AddEdge(ctx context.Context, fromID, toID, relation, tenant string) error {
	col, err := s.collection(tenant)
	if err != nil {
		return err
	}
	doc := chromem.Document{
		ID:      fmt.Sprintf("edge_%s_%s_%s", fromID, toID, relation),
		Content: fmt.Sprintf("%s %s %s", fromID, relation, toID),
		Metadata: map[string]string{
			"kind":     kindEdge,
			"from":     fromID,
			"to":       toID,
			"relation": relation,
			"created":  strconv.FormatInt(time.Now().UnixMilli(), 10),
		},
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add edge document: %w", err)
	}
	return nil
}

func (s *Store) allEdges(ctx context.Context, tenant string) ([]memory.Edge, error) {
	col, err := s.collection(tenant)
	if err != nil {
		return nil, err
	}
	results, err := s.enumerate(ctx, col, map[string]string{"kind": kindEdge})
	if err != nil {
		return nil, err
	}
	edges := make([]memory.Edge, 0, len(results))
	for _, r := range results {
		edges = append(edges, memory.Edge{
			FromID:   r.Metadata["from"],
			ToID:     r.Metadata["to"],
			Relation: r.Metadata["relation"],
			Created:  metaTime(r.Metadata, "created"),
		})
	}
	return edges, nil
}

// FindRelated walks the edge documents breadth-first, ignoring direction.
// Edges pointing at deleted memories are skipped.
func (s *Store) FindRelated(ctx context.Context, startID string, depth int, tenant string) ([]memory.Related, error) {
	edges, err := s.allEdges(ctx, tenant)
	if err != nil {
		return nil, err
	}

	visited := map[string]bool{startID: true}
	current := map[string]bool{startID: true}
	var results []memory.Related

	for level := 1; level <= depth && len(current) > 0; level++ {
		next := map[string]bool{}
		for _, e := range edges {
			var other, relation string
			switch {
			case current[e.FromID]:
				other, relation = e.ToID, e.Relation
			case current[e.ToID]:
				other, relation = e.FromID, e.Relation
			default:
				continue
			}
			if visited[other] {
				continue
			}
			m, err := s.GetMemory(ctx, other, tenant)
			if err != nil {
				continue
			}
			visited[other] = true
			next[other] = true
			results = append(results, memory.Related{
				ID:       other,
				Relation: relation,
				Preview:  m.Preview(200),
				Depth:    level,
			})
		}
		current = next
	}

	return results, nil
}

func (s *Store) AutoLink(ctx context.Context, id, person, project, tenant string) error {
	link := func(key, value string) error {
		if value == "" {
			return nil
		}
		mems, err := s.listAll(ctx, tenant, map[string]string{key: value})
		if err != nil {
			return err
		}
		for _, m := range mems {
			if m.ID == id {
				continue
			}
			if err := s.AddEdge(ctx, id, m.ID, memory.RelRelatedTo, tenant); err != nil {
				return err
			}
		}
		return nil
	}

	if err := link("person", person); err != nil {
		return err
	}
	return link("project", project)
}

func (s *Store) LatestTagged(ctx context.Context, excludeID, person, project string, since time.Time, tenant string) (string, error) {
	if person == "" && project == "" {
		return "", store.ErrNotFound
	}
	mems, err := s.listAll(ctx, tenant, nil)
	if err != nil {
		return "", err
	}

	var best *memory.Memory
	for i := range mems {
		m := &mems[i]
		if m.ID == excludeID || m.Created.Before(since) {
			continue
		}
		tagged := (person != "" && m.Person == person) ||
			(project != "" && m.Project == project)
		if !tagged {
			continue
		}
		if best == nil || m.Created.After(best.Created) {
			best = m
		}
	}
	if best == nil {
		return "", store.ErrNotFound
	}
	return best.ID, nil
}

// ---- journal ----

func (s *Store) InsertJournal(ctx context.Context, e memory.JournalEntry, tenant string) error {
	col, err := s.collection(tenant)
	if err != nil {
		return err
	}
	doc := chromem.Document{
		ID:      "journal_" + uuid.NewString(),
		Content: e.Content,
		Metadata: map[string]string{
			"kind":      kindJournal,
			"date":      e.Date,
			"timestamp": strconv.FormatInt(e.Timestamp.UnixMilli(), 10),
			"gate":      string(e.Gate),
			"person":    e.Person,
			"project":   e.Project,
		},
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add journal document: %w", err)
	}
	return nil
}

func (s *Store) journalDocs(ctx context.Context, tenant string, where map[string]string) ([]memory.JournalEntry, []string, error) {
	col, err := s.collection(tenant)
	if err != nil {
		return nil, nil, err
	}
	filter := map[string]string{"kind": kindJournal}
	for k, v := range where {
		filter[k] = v
	}
	results, err := s.enumerate(ctx, col, filter)
	if err != nil {
		return nil, nil, err
	}
	entries := make([]memory.JournalEntry, 0, len(results))
	ids := make([]string, 0, len(results))
	for _, r := range results {
		entries = append(entries, memory.JournalEntry{
			Timestamp: metaTime(r.Metadata, "timestamp"),
			Gate:      memory.Gate(r.Metadata["gate"]),
			Content:   r.Content,
			Person:    r.Metadata["person"],
			Project:   r.Metadata["project"],
			Date:      r.Metadata["date"],
		})
		ids = append(ids, r.ID)
	}
	return entries, ids, nil
}

func (s *Store) RecentJournal(ctx context.Context, days int, tenant string) ([]memory.JournalEntry, error) {
	entries, _, err := s.journalDocs(ctx, tenant, nil)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if max := days * 20; len(entries) > max {
		entries = entries[:max]
	}
	return entries, nil
}

func (s *Store) JournalByDate(ctx context.Context, date, tenant string) ([]memory.JournalEntry, error) {
	entries, _, err := s.journalDocs(ctx, tenant, map[string]string{"date": date})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries, nil
}

func (s *Store) StaleJournalDates(ctx context.Context, maxAgeDays int, tenant string) ([]string, error) {
	entries, _, err := s.journalDocs(ctx, tenant, nil)
	if err != nil {
		return nil, err
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -maxAgeDays).Format("2006-01-02")

	seen := map[string]bool{}
	var dates []string
	for _, e := range entries {
		if e.Date >= cutoff || strings.Contains(e.Date, "-W") || seen[e.Date] {
			continue
		}
		seen[e.Date] = true
		dates = append(dates, e.Date)
	}
	sort.Strings(dates)
	return dates, nil
}

func (s *Store) DeleteJournalDate(ctx context.Context, date, tenant string) error {
	col, err := s.collection(tenant)
	if err != nil {
		return err
	}
	_, ids, err := s.journalDocs(ctx, tenant, map[string]string{"date": date})
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if err := col.Delete(ctx, nil, nil, ids...); err != nil {
		return fmt.Errorf("delete journal date: %w", err)
	}
	return nil
}

func (s *Store) LatestCheckpoint(ctx context.Context, tenant string) (*memory.JournalEntry, error) {
	entries, _, err := s.journalDocs(ctx, tenant, map[string]string{"gate": string(memory.GateCheckpoint)})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, store.ErrNotFound
	}
	latest := entries[0]
	for _, e := range entries[1:] {
		if e.Timestamp.After(latest.Timestamp) {
			latest = e
		}
	}
	return &latest, nil
}

// ---- archive ----

func (s *Store) ArchiveMemory(ctx context.Context, id string, gate memory.Gate, content, reason, tenant string) error {
	col, err := s.collection(tenant)
	if err != nil {
		return err
	}
	doc := chromem.Document{
		ID:      "archive_" + uuid.NewString(),
		Content: content,
		Metadata: map[string]string{
			"kind":          kindArchive,
			"memory_id":     id,
			"original_gate": string(gate),
			"reason":        reason,
			"archived_at":   strconv.FormatInt(time.Now().UnixMilli(), 10),
		},
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add archive document: %w", err)
	}
	return nil
}

// ---- identity and onboarding ----

func (s *Store) GetIdentity(ctx context.Context, tenant string) (*memory.IdentityCard, error) {
	col, err := s.collection(tenant)
	if err != nil {
		return nil, err
	}
	doc, err := col.GetByID(ctx, "identity")
	if err != nil {
		return nil, store.ErrNotFound
	}
	return &memory.IdentityCard{
		Person:      doc.Metadata["person"],
		Project:     doc.Metadata["project"],
		Content:     doc.Content,
		LastUpdated: metaTime(doc.Metadata, "last_updated"),
	}, nil
}

func (s *Store) SetIdentity(ctx context.Context, card memory.IdentityCard, tenant string) error {
	col, err := s.collection(tenant)
	if err != nil {
		return err
	}
	doc := chromem.Document{
		ID:      "identity",
		Content: card.Content,
		Metadata: map[string]string{
			"kind":         kindIdentity,
			"person":       card.Person,
			"project":      card.Project,
			"last_updated": strconv.FormatInt(card.LastUpdated.UnixMilli(), 10),
		},
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("set identity document: %w", err)
	}
	return nil
}

func (s *Store) GetOnboarding(ctx context.Context, tenant string) (*memory.OnboardingState, error) {
	col, err := s.collection(tenant)
	if err != nil {
		return nil, err
	}
	doc, err := col.GetByID(ctx, "onboarding")
	if err != nil {
		return nil, store.ErrNotFound
	}
	return &memory.OnboardingState{
		Step:    metaInt(doc.Metadata, "step"),
		Person:  doc.Metadata["person"],
		Project: doc.Metadata["project"],
		Style:   doc.Metadata["style"],
	}, nil
}

func (s *Store) SetOnboarding(ctx context.Context, state memory.OnboardingState, tenant string) error {
	col, err := s.collection(tenant)
	if err != nil {
		return err
	}
	doc := chromem.Document{
		ID:      "onboarding",
		Content: "onboarding state",
		Metadata: map[string]string{
			"kind":    kindOnboarding,
			"step":    strconv.Itoa(state.Step),
			"person":  state.Person,
			"project": state.Project,
			"style":   state.Style,
		},
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("set onboarding document: %w", err)
	}
	return nil
}

func (s *Store) DeleteOnboarding(ctx context.Context, tenant string) error {
	col, err := s.collection(tenant)
	if err != nil {
		return err
	}
	if _, err := col.GetByID(ctx, "onboarding"); err != nil {
		return nil
	}
	if err := col.Delete(ctx, nil, nil, "onboarding"); err != nil {
		return fmt.Errorf("delete onboarding document: %w", err)
	}
	return nil
}
