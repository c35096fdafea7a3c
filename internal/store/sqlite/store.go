package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/thierrypdamiba/claude-memory-kit/internal/embed"
	"github.com/thierrypdamiba/claude-memory-kit/internal/memory"
	"github.com/thierrypdamiba/claude-memory-kit/internal/store"
)

// Store implements the store contract over SQLite. Similarity queries use
// the injected embedder; everything else is plain SQL.
type Store struct {
	db       *DB
	embedder embed.Embedder
}

var _ store.Store = (*Store)(nil)

// New opens the database at path and returns a store backed by it.
func New(path string, embedder embed.Embedder) (*Store, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, embedder: embedder}, nil
}

// NewMemory returns a store over an in-memory database, for tests.
func NewMemory(embedder embed.Embedder) (*Store, error) {
	db, err := OpenMemoryDB()
	if err != nil {
		return nil, err
	}
	return &Store{db: db, embedder: embedder}, nil
}

func (s *Store) Close() error { return s.db.Close() }

const memoryColumns = `id, content, gate, person, project, confidence,
	created, last_accessed, access_count, decay_class, pinned,
	sensitivity, sensitivity_reason`

func scanMemory(row interface{ Scan(...any) error }) (*memory.Memory, error) {
	var m memory.Memory
	var created, lastAccessed int64
	var pinned int
	err := row.Scan(
		&m.ID, &m.Content, &m.Gate, &m.Person, &m.Project, &m.Confidence,
		&created, &lastAccessed, &m.AccessCount, &m.DecayClass, &pinned,
		&m.Sensitivity, &m.SensitivityReason,
	)
	if err != nil {
		return nil, err
	}
	m.Created = time.UnixMilli(created).UTC()
	m.LastAccessed = time.UnixMilli(lastAccessed).UTC()
	m.Pinned = pinned != 0
	return &m, nil
}

// InsertMemory persists a memory row. Re-inserting an existing id replaces it.
func (s *Store) InsertMemory(ctx context.Context, m memory.Memory, tenant string) error {
	pinned := 0
	if m.Pinned {
		pinned = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO memories
		(id, tenant, content, gate, person, project, confidence,
		 created, last_accessed, access_count, decay_class, pinned,
		 sensitivity, sensitivity_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, tenant, m.Content, m.Gate, m.Person, m.Project, m.Confidence,
		m.Created.UnixMilli(), m.LastAccessed.UnixMilli(), m.AccessCount,
		m.DecayClass, pinned, m.Sensitivity, m.SensitivityReason)
	if err != nil {
		return fmt.Errorf("insert memory: %w", err)
	}
	return nil
}

func (s *Store) GetMemory(ctx context.Context, id, tenant string) (*memory.Memory, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+memoryColumns+" FROM memories WHERE id = ? AND tenant = ?",
		id, tenant)
	m, err := scanMemory(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get memory: %w", err)
	}
	return m, nil
}

func (s *Store) UpdateMemory(ctx context.Context, id string, upd store.MemoryUpdate, tenant string) error {
	var sets []string
	var params []any
	if upd.Content != nil {
		sets = append(sets, "content = ?")
		params = append(params, *upd.Content)
	}
	if upd.Gate != nil {
		sets = append(sets, "gate = ?", "decay_class = ?")
		params = append(params, *upd.Gate, memory.DecayClassFor(*upd.Gate))
	}
	if upd.Person != nil {
		sets = append(sets, "person = ?")
		params = append(params, *upd.Person)
	}
	if upd.Project != nil {
		sets = append(sets, "project = ?")
		params = append(params, *upd.Project)
	}
	if len(sets) == 0 {
		return nil
	}
	params = append(params, id, tenant)
	res, err := s.db.ExecContext(ctx,
		"UPDATE memories SET "+strings.Join(sets, ", ")+" WHERE id = ? AND tenant = ?",
		params...)
	if err != nil {
		return fmt.Errorf("update memory: %w", err)
	}
	return requireRow(res)
}

// TouchMemory bumps access_count and last_accessed. Missing ids are a no-op;
// recall touches optimistically after any hit.
func (s *Store) TouchMemory(ctx context.Context, id, tenant string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE memories SET access_count = access_count + 1, last_accessed = ?
		WHERE id = ? AND tenant = ?
	`, time.Now().UnixMilli(), id, tenant)
	if err != nil {
		return fmt.Errorf("touch memory: %w", err)
	}
	return nil
}

// DeleteMemory removes the row and its vector, returning the deleted memory.
func (s *Store) DeleteMemory(ctx context.Context, id, tenant string) (*memory.Memory, error) {
	m, err := s.GetMemory(ctx, id, tenant)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM memories WHERE id = ? AND tenant = ?", id, tenant); err != nil {
		return nil, fmt.Errorf("delete memory: %w", err)
	}
	if err := s.DeleteVector(ctx, id, tenant); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Store) ListMemories(ctx context.Context, f store.ListFilter, tenant string) ([]memory.Memory, error) {
	clauses := []string{"tenant = ?"}
	params := []any{tenant}
	if f.Gate != "" {
		clauses = append(clauses, "gate = ?")
		params = append(params, f.Gate)
	}
	if f.Person != "" {
		clauses = append(clauses, "person = ?")
		params = append(params, f.Person)
	}
	if f.Project != "" {
		clauses = append(clauses, "project = ?")
		params = append(params, f.Project)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	params = append(params, limit, f.Offset)

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+memoryColumns+" FROM memories WHERE "+strings.Join(clauses, " AND ")+
			" ORDER BY created DESC LIMIT ? OFFSET ?", params...)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	defer rows.Close()
	return collectMemories(rows)
}

func (s *Store) CountMemories(ctx context.Context, tenant string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM memories WHERE tenant = ?", tenant).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count memories: %w", err)
	}
	return n, nil
}

func (s *Store) CountByGate(ctx context.Context, tenant string) (map[memory.Gate]int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT gate, COUNT(*) FROM memories WHERE tenant = ? GROUP BY gate", tenant)
	if err != nil {
		return nil, fmt.Errorf("count by gate: %w", err)
	}
	defer rows.Close()

	counts := make(map[memory.Gate]int)
	for rows.Next() {
		var gate memory.Gate
		var n int
		if err := rows.Scan(&gate, &n); err != nil {
			return nil, fmt.Errorf("scan gate count: %w", err)
		}
		counts[gate] = n
	}
	return counts, rows.Err()
}

func (s *Store) UpdateConfidence(ctx context.Context, id string, confidence float64, tenant string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE memories SET confidence = ? WHERE id = ? AND tenant = ?",
		confidence, id, tenant)
	if err != nil {
		return fmt.Errorf("update confidence: %w", err)
	}
	return requireRow(res)
}

func (s *Store) UpdateSensitivity(ctx context.Context, id, level, reason, tenant string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE memories SET sensitivity = ?, sensitivity_reason = ? WHERE id = ? AND tenant = ?",
		level, reason, id, tenant)
	if err != nil {
		return fmt.Errorf("update sensitivity: %w", err)
	}
	return requireRow(res)
}

func (s *Store) SetPinned(ctx context.Context, id string, pinned bool, tenant string) error {
	p := 0
	if pinned {
		p = 1
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE memories SET pinned = ? WHERE id = ? AND tenant = ?", p, id, tenant)
	if err != nil {
		return fmt.Errorf("set pinned: %w", err)
	}
	return requireRow(res)
}

// ListUnclassified returns memories the sensitivity classifier has not seen.
func (s *Store) ListUnclassified(ctx context.Context, limit int, tenant string) ([]memory.Memory, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+memoryColumns+" FROM memories WHERE tenant = ? AND sensitivity = '' "+
			"ORDER BY created DESC LIMIT ?", tenant, limit)
	if err != nil {
		return nil, fmt.Errorf("list unclassified: %w", err)
	}
	defer rows.Close()
	return collectMemories(rows)
}

func collectMemories(rows *sql.Rows) ([]memory.Memory, error) {
	var out []memory.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
