package sqlite

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/thierrypdamiba/claude-memory-kit/internal/embed"
	"github.com/thierrypdamiba/claude-memory-kit/internal/memory"
	"github.com/thierrypdamiba/claude-memory-kit/internal/store"
)

// SearchFTS runs a full-text query over memory content. Queries that are
// not valid FTS5 syntax (stray quotes, bare operators) return no results
// rather than an error, so the lexical leg of recall degrades quietly.
// Any other query failure is returned for the caller to log.
func (s *Store) SearchFTS(ctx context.Context, query string, limit int, tenant string) ([]memory.Memory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.content, m.gate, m.person, m.project, m.confidence,
		       m.created, m.last_accessed, m.access_count, m.decay_class, m.pinned,
		       m.sensitivity, m.sensitivity_reason
		FROM memories_fts f
		JOIN memories m ON f.rowid = m.rowid
		WHERE memories_fts MATCH ? AND m.tenant = ?
		ORDER BY rank LIMIT ?
	`, query, tenant, limit)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if isFTSGrammarErr(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("fts query: %w", err)
	}
	defer rows.Close()
	return collectMemories(rows)
}

// isFTSGrammarErr reports whether err is FTS5 rejecting the query text
// itself, as opposed to a genuine store failure.
func isFTSGrammarErr(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "fts5: syntax error") ||
		strings.Contains(msg, "malformed MATCH") ||
		strings.Contains(msg, "unknown special query") ||
		strings.Contains(msg, "no such column")
}

// encodeEmbedding converts a []float32 to a binary BLOB (4 bytes per value).
func encodeEmbedding(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeEmbedding converts a binary BLOB back to []float32.
func decodeEmbedding(buf []byte) []float32 {
	n := len(buf) / 4
	vec := make([]float32, n)
	for i := 0; i < n; i++ {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}

// UpsertVector embeds the memory's content and stores or replaces its vector.
func (s *Store) UpsertVector(ctx context.Context, m memory.Memory, tenant string) error {
	vec, err := s.embedder.Embed(ctx, m.Content)
	if err != nil {
		return fmt.Errorf("embed memory %s: %w", m.ID, err)
	}
	blob := encodeEmbedding(vec)
	now := time.Now().UnixMilli()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO vectors (tenant, memory_id, embedding, model, dimensions, created)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant, memory_id) DO UPDATE SET
			embedding = ?, model = ?, dimensions = ?, created = ?
	`, tenant, m.ID, blob, s.embedder.Model(), len(vec), now,
		blob, s.embedder.Model(), len(vec), now)
	if err != nil {
		return fmt.Errorf("upsert vector: %w", err)
	}
	return nil
}

// DeleteVector removes the embedding for a memory.
func (s *Store) DeleteVector(ctx context.Context, id, tenant string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM vectors WHERE tenant = ? AND memory_id = ?", tenant, id)
	if err != nil {
		return fmt.Errorf("delete vector: %w", err)
	}
	return nil
}

// SearchVector embeds the query and scans the tenant's vectors for cosine
// similarity, best first. Linear scan; tenant collections stay small enough
// that an index would not pay for itself.
func (s *Store) SearchVector(ctx context.Context, query string, limit int, tenant string) ([]store.VectorHit, error) {
	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT memory_id, embedding FROM vectors WHERE tenant = ?", tenant)
	if err != nil {
		return nil, fmt.Errorf("load vectors: %w", err)
	}
	defer rows.Close()

	var hits []store.VectorHit
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("scan vector: %w", err)
		}
		score := embed.CosineSimilarity(queryVec, decodeEmbedding(blob))
		hits = append(hits, store.VectorHit{MemoryID: id, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}
