package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/thierrypdamiba/claude-memory-kit/internal/memory"
	"github.com/thierrypdamiba/claude-memory-kit/internal/store"
)

// AddEdge inserts a directed labeled edge. Duplicate edges are no-ops.
// Endpoints are not validated; edges may outlive the memories they name.
func (s *Store) AddEdge(ctx context.Context, fromID, toID, relation, tenant string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO edges (tenant, from_id, to_id, relation, created)
		VALUES (?, ?, ?, ?, ?)
	`, tenant, fromID, toID, relation, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("add edge: %w", err)
	}
	return nil
}

// FindRelated walks edges breadth-first from startID, ignoring direction,
// up to the given depth. Each reachable memory appears once at its minimum
// depth. Edges whose far endpoint no longer exists are skipped silently.
func (s *Store) FindRelated(ctx context.Context, startID string, depth int, tenant string) ([]memory.Related, error) {
	visited := map[string]bool{startID: true}
	current := []string{startID}
	var results []memory.Related

	for level := 1; level <= depth && len(current) > 0; level++ {
		placeholders := strings.Repeat("?,", len(current))
		placeholders = placeholders[:len(placeholders)-1]

		params := make([]any, 0, len(current)*3+1)
		for i := 0; i < 3; i++ {
			for _, id := range current {
				params = append(params, id)
			}
		}
		params = append(params, tenant)

		rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
			SELECT e.from_id, e.to_id, e.relation, m.content
			FROM edges e
			JOIN memories m ON m.id = CASE
				WHEN e.from_id IN (%s) THEN e.to_id
				ELSE e.from_id END
			WHERE (e.from_id IN (%s) OR e.to_id IN (%s))
				AND e.tenant = ? AND m.tenant = e.tenant
		`, placeholders, placeholders, placeholders), params...)
		if err != nil {
			return nil, fmt.Errorf("find related: %w", err)
		}

		inCurrent := make(map[string]bool, len(current))
		for _, id := range current {
			inCurrent[id] = true
		}

		var next []string
		for rows.Next() {
			var fromID, toID, relation, content string
			if err := rows.Scan(&fromID, &toID, &relation, &content); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan edge: %w", err)
			}
			other := fromID
			if inCurrent[fromID] {
				other = toID
			}
			if visited[other] {
				continue
			}
			visited[other] = true
			next = append(next, other)
			preview := content
			if len(preview) > 200 {
				cut := 200
				for cut > 0 && !utf8.RuneStart(preview[cut]) {
					cut--
				}
				preview = preview[:cut]
			}
			results = append(results, memory.Related{
				ID:       other,
				Relation: relation,
				Preview:  preview,
				Depth:    level,
			})
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
		current = next
	}

	return results, nil
}

// AutoLink adds RELATED_TO edges from a memory to every other memory
// sharing its person or project tag.
func (s *Store) AutoLink(ctx context.Context, id, person, project, tenant string) error {
	link := func(column, value string) error {
		if value == "" {
			return nil
		}
		rows, err := s.db.QueryContext(ctx,
			"SELECT id FROM memories WHERE "+column+" = ? AND id != ? AND tenant = ?",
			value, id, tenant)
		if err != nil {
			return fmt.Errorf("auto link by %s: %w", column, err)
		}
		defer rows.Close()

		var ids []string
		for rows.Next() {
			var other string
			if err := rows.Scan(&other); err != nil {
				return fmt.Errorf("scan auto link id: %w", err)
			}
			ids = append(ids, other)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		for _, other := range ids {
			if err := s.AddEdge(ctx, id, other, memory.RelRelatedTo, tenant); err != nil {
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

// LatestTagged returns the id of the most recent memory sharing the given
// person or project tag, created at or after since. Used to chain FOLLOWS
// edges across a working session.
func (s *Store) LatestTagged(ctx context.Context, excludeID, person, project string, since time.Time, tenant string) (string, error) {
	if person == "" && project == "" {
		return "", store.ErrNotFound
	}

	clauses := []string{}
	params := []any{}
	if person != "" {
		clauses = append(clauses, "person = ?")
		params = append(params, person)
	}
	if project != "" {
		clauses = append(clauses, "project = ?")
		params = append(params, project)
	}
	params = append(params, excludeID, since.UnixMilli(), tenant)

	var id string
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM memories WHERE ("+strings.Join(clauses, " OR ")+") "+
			"AND id != ? AND created >= ? AND tenant = ? "+
			"ORDER BY created DESC LIMIT 1", params...).Scan(&id)
	if err == sql.ErrNoRows {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("latest tagged: %w", err)
	}
	return id, nil
}
