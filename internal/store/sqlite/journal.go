package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/thierrypdamiba/claude-memory-kit/internal/memory"
	"github.com/thierrypdamiba/claude-memory-kit/internal/store"
)

func (s *Store) InsertJournal(ctx context.Context, e memory.JournalEntry, tenant string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journal (tenant, date, timestamp, gate, content, person, project)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, tenant, e.Date, e.Timestamp.UnixMilli(), e.Gate, e.Content, e.Person, e.Project)
	if err != nil {
		return fmt.Errorf("insert journal: %w", err)
	}
	return nil
}

// RecentJournal returns the newest entries covering roughly the last
// `days` days of activity, newest first. The window is approximated as 20
// entries per day rather than a timestamp cutoff, so a quiet week still
// yields context.
func (s *Store) RecentJournal(ctx context.Context, days int, tenant string) ([]memory.JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, timestamp, gate, content, person, project
		FROM journal WHERE tenant = ?
		ORDER BY timestamp DESC LIMIT ?
	`, tenant, days*20)
	if err != nil {
		return nil, fmt.Errorf("recent journal: %w", err)
	}
	defer rows.Close()
	return collectJournal(rows)
}

// JournalByDate returns a single grouping date's entries in write order.
func (s *Store) JournalByDate(ctx context.Context, date, tenant string) ([]memory.JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, timestamp, gate, content, person, project
		FROM journal WHERE date = ? AND tenant = ?
		ORDER BY timestamp
	`, date, tenant)
	if err != nil {
		return nil, fmt.Errorf("journal by date: %w", err)
	}
	defer rows.Close()
	return collectJournal(rows)
}

// StaleJournalDates lists distinct grouping dates older than maxAgeDays,
// oldest first. Week-keyed digest dates (2026-W05) are excluded; digests
// are never re-digested.
func (s *Store) StaleJournalDates(ctx context.Context, maxAgeDays int, tenant string) ([]string, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -maxAgeDays).Format("2006-01-02")
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT date FROM journal
		WHERE date < ? AND tenant = ? AND date NOT LIKE '%-W%'
		ORDER BY date
	`, cutoff, tenant)
	if err != nil {
		return nil, fmt.Errorf("stale journal dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan journal date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

func (s *Store) DeleteJournalDate(ctx context.Context, date, tenant string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM journal WHERE date = ? AND tenant = ?", date, tenant)
	if err != nil {
		return fmt.Errorf("delete journal date: %w", err)
	}
	return nil
}

// LatestCheckpoint returns the newest checkpoint entry, or ErrNotFound.
func (s *Store) LatestCheckpoint(ctx context.Context, tenant string) (*memory.JournalEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT date, timestamp, gate, content, person, project
		FROM journal WHERE gate = ? AND tenant = ?
		ORDER BY timestamp DESC LIMIT 1
	`, memory.GateCheckpoint, tenant)

	e, err := scanJournal(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest checkpoint: %w", err)
	}
	return e, nil
}

func scanJournal(row interface{ Scan(...any) error }) (*memory.JournalEntry, error) {
	var e memory.JournalEntry
	var ts int64
	if err := row.Scan(&e.Date, &ts, &e.Gate, &e.Content, &e.Person, &e.Project); err != nil {
		return nil, err
	}
	e.Timestamp = time.UnixMilli(ts).UTC()
	return &e, nil
}

func collectJournal(rows *sql.Rows) ([]memory.JournalEntry, error) {
	var out []memory.JournalEntry
	for rows.Next() {
		e, err := scanJournal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan journal: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// ArchiveMemory records a decayed or deleted memory's content so archival
// is recoverable by hand even though no API reads it back.
func (s *Store) ArchiveMemory(ctx context.Context, id string, gate memory.Gate, content, reason, tenant string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO archive (tenant, memory_id, original_gate, content, reason, archived_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, tenant, id, gate, content, reason, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("archive memory: %w", err)
	}
	return nil
}

func (s *Store) GetIdentity(ctx context.Context, tenant string) (*memory.IdentityCard, error) {
	var card memory.IdentityCard
	var updated int64
	err := s.db.QueryRowContext(ctx,
		"SELECT person, project, content, last_updated FROM identity WHERE tenant = ?",
		tenant).Scan(&card.Person, &card.Project, &card.Content, &updated)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get identity: %w", err)
	}
	card.LastUpdated = time.UnixMilli(updated).UTC()
	return &card, nil
}

func (s *Store) SetIdentity(ctx context.Context, card memory.IdentityCard, tenant string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO identity (tenant, person, project, content, last_updated)
		VALUES (?, ?, ?, ?, ?)
	`, tenant, card.Person, card.Project, card.Content, card.LastUpdated.UnixMilli())
	if err != nil {
		return fmt.Errorf("set identity: %w", err)
	}
	return nil
}

func (s *Store) GetOnboarding(ctx context.Context, tenant string) (*memory.OnboardingState, error) {
	var st memory.OnboardingState
	err := s.db.QueryRowContext(ctx,
		"SELECT step, person, project, style FROM onboarding WHERE tenant = ?",
		tenant).Scan(&st.Step, &st.Person, &st.Project, &st.Style)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get onboarding: %w", err)
	}
	return &st, nil
}

func (s *Store) SetOnboarding(ctx context.Context, state memory.OnboardingState, tenant string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO onboarding (tenant, step, person, project, style)
		VALUES (?, ?, ?, ?, ?)
	`, tenant, state.Step, state.Person, state.Project, state.Style)
	if err != nil {
		return fmt.Errorf("set onboarding: %w", err)
	}
	return nil
}

func (s *Store) DeleteOnboarding(ctx context.Context, tenant string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM onboarding WHERE tenant = ?", tenant)
	if err != nil {
		return fmt.Errorf("delete onboarding: %w", err)
	}
	return nil
}
