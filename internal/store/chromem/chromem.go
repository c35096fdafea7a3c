// Package chromem implements the store contract over chromem-go, a pure Go
// embedded vector database. Each tenant gets one collection; memories are
// documents with real embeddings, and the relational records (journal,
// edges, identity, onboarding, archive) ride along as kind-tagged payload
// documents with no meaningful vector. Listing and filtering are emulated
// client-side, so this backend trades query efficiency for a single
// storage engine.
package chromem

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/thierrypdamiba/claude-memory-kit/internal/embed"
	"github.com/thierrypdamiba/claude-memory-kit/internal/memory"
	"github.com/thierrypdamiba/claude-memory-kit/internal/store"
)

// Store implements the store contract over chromem-go collections.
type Store struct {
	db          *chromem.DB
	embedder    embed.Embedder
	collections map[string]*chromem.Collection
	mu          sync.RWMutex
}

var _ store.Store = (*Store)(nil)

// New opens (or creates) a persistent chromem database at path.
func New(path string, embedder embed.Embedder) (*Store, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("open chromem db: %w", err)
	}
	return &Store{
		db:          db,
		embedder:    embedder,
		collections: make(map[string]*chromem.Collection),
	}, nil
}

// NewMemory returns an in-memory store for testing.
func NewMemory(embedder embed.Embedder) *Store {
	return &Store{
		db:          chromem.NewDB(),
		embedder:    embedder,
		collections: make(map[string]*chromem.Collection),
	}
}

func (s *Store) Close() error { return nil }

// collection returns the tenant's collection, creating it on first use.
// The embedding func wraps the injected embedder so documents added
// without an explicit vector get one computed from their content.
func (s *Store) collection(tenant string) (*chromem.Collection, error) {
	s.mu.RLock()
	col, ok := s.collections[tenant]
	s.mu.RUnlock()
	if ok {
		return col, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if col, ok := s.collections[tenant]; ok {
		return col, nil
	}

	embedFn := func(ctx context.Context, text string) ([]float32, error) {
		return s.embedder.Embed(ctx, text)
	}
	col, err := s.db.GetOrCreateCollection("tenant_"+tenant, nil, embedFn)
	if err != nil {
		return nil, fmt.Errorf("get collection for %s: %w", tenant, err)
	}
	s.collections[tenant] = col
	return col, nil
}

// enumerate returns every document matching the where filter. chromem only
// exposes similarity queries, so enumeration is a query with a stub vector
// and nResults walked down from the collection size until it fits the
// filtered count.
func (s *Store) enumerate(ctx context.Context, col *chromem.Collection, where map[string]string) ([]chromem.Result, error) {
	total := col.Count()
	if total == 0 {
		return nil, nil
	}

	stub := make([]float32, s.embedder.Dimensions())
	stub[0] = 1

	for n := total; n >= 1; n-- {
		results, err := col.QueryEmbedding(ctx, stub, n, where, nil)
		if err == nil {
			return results, nil
		}
		if isInsufficientDocsError(err) {
			if n == 1 {
				return nil, nil
			}
			continue
		}
		return nil, fmt.Errorf("chromem query: %w", err)
	}
	return nil, nil
}

func isInsufficientDocsError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "nResults must be") ||
		strings.Contains(msg, "number of documents")
}

// ---- document codecs ----

const (
	kindMemory     = "memory"
	kindJournal    = "journal"
	kindEdge       = "edge"
	kindIdentity   = "identity"
	kindOnboarding = "onboarding"
	kindArchive    = "archive"
)

func memoryDoc(m memory.Memory) chromem.Document {
	pinned := "0"
	if m.Pinned {
		pinned = "1"
	}
	return chromem.Document{
		ID:      m.ID,
		Content: m.Content,
		Metadata: map[string]string{
			"kind":               kindMemory,
			"gate":               string(m.Gate),
			"person":             m.Person,
			"project":            m.Project,
			"confidence":         strconv.FormatFloat(m.Confidence, 'f', -1, 64),
			"created":            strconv.FormatInt(m.Created.UnixMilli(), 10),
			"last_accessed":      strconv.FormatInt(m.LastAccessed.UnixMilli(), 10),
			"access_count":       strconv.Itoa(m.AccessCount),
			"decay_class":        string(m.DecayClass),
			"pinned":             pinned,
			"sensitivity":        m.Sensitivity,
			"sensitivity_reason": m.SensitivityReason,
		},
	}
}

func docToMemory(id, content string, meta map[string]string) memory.Memory {
	return memory.Memory{
		ID:                id,
		Content:           content,
		Gate:              memory.Gate(meta["gate"]),
		Person:            meta["person"],
		Project:           meta["project"],
		Confidence:        metaFloat(meta, "confidence"),
		Created:           metaTime(meta, "created"),
		LastAccessed:      metaTime(meta, "last_accessed"),
		AccessCount:       metaInt(meta, "access_count"),
		DecayClass:        memory.DecayClass(meta["decay_class"]),
		Pinned:            meta["pinned"] == "1",
		Sensitivity:       meta["sensitivity"],
		SensitivityReason: meta["sensitivity_reason"],
	}
}

func metaInt(meta map[string]string, key string) int {
	n, _ := strconv.Atoi(meta[key])
	return n
}

func metaInt64(meta map[string]string, key string) int64 {
	n, _ := strconv.ParseInt(meta[key], 10, 64)
	return n
}

func metaFloat(meta map[string]string, key string) float64 {
	f, _ := strconv.ParseFloat(meta[key], 64)
	return f
}

func metaTime(meta map[string]string, key string) time.Time {
	return time.UnixMilli(metaInt64(meta, key)).UTC()
}

// ---- memory CRUD ----

// InsertMemory adds the memory document; the collection's embedding func
// computes its vector from the content, so insert and vector upsert are
// one operation in this backend.
func (s *Store) InsertMemory(ctx context.Context, m memory.Memory, tenant string) error {
	col, err := s.collection(tenant)
	if err != nil {
		return err
	}
	if err := col.AddDocument(ctx, memoryDoc(m)); err != nil {
		return fmt.Errorf("add memory document: %w", err)
	}
	return nil
}

func (s *Store) GetMemory(ctx context.Context, id, tenant string) (*memory.Memory, error) {
	col, err := s.collection(tenant)
	if err != nil {
		return nil, err
	}
	doc, err := col.GetByID(ctx, id)
	if err != nil {
		return nil, store.ErrNotFound
	}
	if doc.Metadata["kind"] != kindMemory {
		return nil, store.ErrNotFound
	}
	m := docToMemory(doc.ID, doc.Content, doc.Metadata)
	return &m, nil
}

// rewrite replaces a memory document in place, preserving its embedding
// unless the content changed.
func (s *Store) rewrite(ctx context.Context, col *chromem.Collection, old chromem.Document, m memory.Memory) error {
	doc := memoryDoc(m)
	if m.Content == old.Content {
		doc.Embedding = old.Embedding
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("rewrite memory document: %w", err)
	}
	return nil
}

func (s *Store) mutateMemory(ctx context.Context, id, tenant string, mutate func(*memory.Memory)) error {
	col, err := s.collection(tenant)
	if err != nil {
		return err
	}
	doc, err := col.GetByID(ctx, id)
	if err != nil || doc.Metadata["kind"] != kindMemory {
		return store.ErrNotFound
	}
	m := docToMemory(doc.ID, doc.Content, doc.Metadata)
	mutate(&m)
	return s.rewrite(ctx, col, doc, m)
}

func (s *Store) UpdateMemory(ctx context.Context, id string, upd store.MemoryUpdate, tenant string) error {
	return s.mutateMemory(ctx, id, tenant, func(m *memory.Memory) {
		if upd.Content != nil {
			m.Content = *upd.Content
		}
		if upd.Gate != nil {
			m.Gate = *upd.Gate
			m.DecayClass = memory.DecayClassFor(*upd.Gate)
		}
		if upd.Person != nil {
			m.Person = *upd.Person
		}
		if upd.Project != nil {
			m.Project = *upd.Project
		}
	})
}

func (s *Store) TouchMemory(ctx context.Context, id, tenant string) error {
	err := s.mutateMemory(ctx, id, tenant, func(m *memory.Memory) {
		m.AccessCount++
		m.LastAccessed = time.Now().UTC()
	})
	if err == store.ErrNotFound {
		return nil
	}
	return err
}

func (s *Store) DeleteMemory(ctx context.Context, id, tenant string) (*memory.Memory, error) {
	col, err := s.collection(tenant)
	if err != nil {
		return nil, err
	}
	m, err := s.GetMemory(ctx, id, tenant)
	if err != nil {
		return nil, err
	}
	if err := col.Delete(ctx, nil, nil, id); err != nil {
		return nil, fmt.Errorf("delete memory document: %w", err)
	}
	return m, nil
}

// listAll enumerates every memory document for the tenant, applying the
// optional metadata filter server-side and sorting newest first.
func (s *Store) listAll(ctx context.Context, tenant string, where map[string]string) ([]memory.Memory, error) {
	col, err := s.collection(tenant)
	if err != nil {
		return nil, err
	}
	filter := map[string]string{"kind": kindMemory}
	for k, v := range where {
		filter[k] = v
	}
	results, err := s.enumerate(ctx, col, filter)
	if err != nil {
		return nil, err
	}
	mems := make([]memory.Memory, 0, len(results))
	for _, r := range results {
		mems = append(mems, docToMemory(r.ID, r.Content, r.Metadata))
	}
	sort.Slice(mems, func(i, j int) bool {
		return mems[i].Created.After(mems[j].Created)
	})
	return mems, nil
}

func (s *Store) ListMemories(ctx context.Context, f store.ListFilter, tenant string) ([]memory.Memory, error) {
	where := map[string]string{}
	if f.Gate != "" {
		where["gate"] = string(f.Gate)
	}
	if f.Person != "" {
		where["person"] = f.Person
	}
	if f.Project != "" {
		where["project"] = f.Project
	}
	mems, err := s.listAll(ctx, tenant, where)
	if err != nil {
		return nil, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	if f.Offset >= len(mems) {
		return nil, nil
	}
	mems = mems[f.Offset:]
	if len(mems) > limit {
		mems = mems[:limit]
	}
	return mems, nil
}

func (s *Store) CountMemories(ctx context.Context, tenant string) (int, error) {
	mems, err := s.listAll(ctx, tenant, nil)
	if err != nil {
		return 0, err
	}
	return len(mems), nil
}

func (s *Store) CountByGate(ctx context.Context, tenant string) (map[memory.Gate]int, error) {
	mems, err := s.listAll(ctx, tenant, nil)
	if err != nil {
		return nil, err
	}
	counts := make(map[memory.Gate]int)
	for _, m := range mems {
		counts[m.Gate]++
	}
	return counts, nil
}

func (s *Store) UpdateConfidence(ctx context.Context, id string, confidence float64, tenant string) error {
	return s.mutateMemory(ctx, id, tenant, func(m *memory.Memory) {
		m.Confidence = confidence
	})
}

func (s *Store) UpdateSensitivity(ctx context.Context, id, level, reason, tenant string) error {
	return s.mutateMemory(ctx, id, tenant, func(m *memory.Memory) {
		m.Sensitivity = level
		m.SensitivityReason = reason
	})
}

func (s *Store) SetPinned(ctx context.Context, id string, pinned bool, tenant string) error {
	return s.mutateMemory(ctx, id, tenant, func(m *memory.Memory) {
		m.Pinned = pinned
	})
}

func (s *Store) ListUnclassified(ctx context.Context, limit int, tenant string) ([]memory.Memory, error) {
	mems, err := s.listAll(ctx, tenant, map[string]string{"sensitivity": ""})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(mems) > limit {
		mems = mems[:limit]
	}
	return mems, nil
}

// ---- search ----

// SearchVector runs a real similarity query against the collection,
// restricted to memory documents.
func (s *Store) SearchVector(ctx context.Context, query string, limit int, tenant string) ([]store.VectorHit, error) {
	col, err := s.collection(tenant)
	if err != nil {
		return nil, err
	}
	if col.Count() == 0 {
		return nil, nil
	}

	where := map[string]string{"kind": kindMemory}
	for n := limit; n >= 1; n-- {
		results, err := col.Query(ctx, query, n, where, nil)
		if err == nil {
			hits := make([]store.VectorHit, 0, len(results))
			for _, r := range results {
				hits = append(hits, store.VectorHit{MemoryID: r.ID, Score: float64(r.Similarity)})
			}
			return hits, nil
		}
		if isInsufficientDocsError(err) {
			if n == 1 {
				return nil, nil
			}
			continue
		}
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return nil, nil
}

// SearchFTS emulates lexical search: token overlap between query and
// content, ranked by matched token count. No index backs it, so it is
// only the fallback leg of recall.
func (s *Store) SearchFTS(ctx context.Context, query string, limit int, tenant string) ([]memory.Memory, error) {
	mems, err := s.listAll(ctx, tenant, nil)
	if err != nil {
		return nil, err
	}

	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return nil, nil
	}

	type scored struct {
		m     memory.Memory
		count int
	}
	var matches []scored
	for _, m := range mems {
		haystack := strings.ToLower(m.Content + " " + m.Person + " " + m.Project)
		count := 0
		for _, tok := range tokens {
			if strings.Contains(haystack, tok) {
				count++
			}
		}
		if count > 0 {
			matches = append(matches, scored{m, count})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].count > matches[j].count
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]memory.Memory, len(matches))
	for i, sc := range matches {
		out[i] = sc.m
	}
	return out, nil
}

// UpsertVector re-adds the memory document without an embedding, forcing
// the collection's embedding func to recompute it from current content.
func (s *Store) UpsertVector(ctx context.Context, m memory.Memory, tenant string) error {
	col, err := s.collection(tenant)
	if err != nil {
		return err
	}
	if err := col.AddDocument(ctx, memoryDoc(m)); err != nil {
		return fmt.Errorf("upsert memory document: %w", err)
	}
	return nil
}

// DeleteVector is a no-op: the vector lives inside the memory document and
// is removed with it.
func (s *Store) DeleteVector(ctx context.Context, id, tenant string) error {
	return nil
}
