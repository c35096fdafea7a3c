package sqlite

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "memories: the core fact table",
		SQL: `
CREATE TABLE memories (
    id                 TEXT NOT NULL,
    tenant             TEXT NOT NULL,
    content            TEXT NOT NULL,
    gate               TEXT NOT NULL,
    person             TEXT NOT NULL DEFAULT '',
    project            TEXT NOT NULL DEFAULT '',
    confidence         REAL NOT NULL DEFAULT 0.9,
    created            INTEGER NOT NULL,
    last_accessed      INTEGER NOT NULL,
    access_count       INTEGER NOT NULL DEFAULT 1,
    decay_class        TEXT NOT NULL,
    pinned             INTEGER NOT NULL DEFAULT 0,
    sensitivity        TEXT NOT NULL DEFAULT '',
    sensitivity_reason TEXT NOT NULL DEFAULT '',

    PRIMARY KEY (tenant, id)
);

CREATE INDEX idx_memories_gate    ON memories(tenant, gate);
CREATE INDEX idx_memories_person  ON memories(tenant, person);
CREATE INDEX idx_memories_project ON memories(tenant, project);
CREATE INDEX idx_memories_created ON memories(tenant, created DESC);
`,
	},
	{
		Version:     2,
		Description: "memories_fts: lexical search over memory content",
		SQL: `
CREATE VIRTUAL TABLE memories_fts USING fts5(
    content, person, project,
    content='memories', content_rowid='rowid'
);

CREATE TRIGGER memories_ai AFTER INSERT ON memories BEGIN
    INSERT INTO memories_fts(rowid, content, person, project)
    VALUES (new.rowid, new.content, new.person, new.project);
END;

CREATE TRIGGER memories_ad AFTER DELETE ON memories BEGIN
    INSERT INTO memories_fts(memories_fts, rowid, content, person, project)
    VALUES ('delete', old.rowid, old.content, old.person, old.project);
END;

CREATE TRIGGER memories_au AFTER UPDATE OF content, person, project ON memories BEGIN
    INSERT INTO memories_fts(memories_fts, rowid, content, person, project)
    VALUES ('delete', old.rowid, old.content, old.person, old.project);
    INSERT INTO memories_fts(rowid, content, person, project)
    VALUES (new.rowid, new.content, new.person, new.project);
END;
`,
	},
	{
		Version:     3,
		Description: "vectors: embedding BLOBs for similarity search",
		SQL: `
CREATE TABLE vectors (
    tenant     TEXT NOT NULL,
    memory_id  TEXT NOT NULL,
    embedding  BLOB NOT NULL,
    model      TEXT NOT NULL,
    dimensions INTEGER NOT NULL,
    created    INTEGER NOT NULL,

    PRIMARY KEY (tenant, memory_id)
);
`,
	},
	{
		Version:     4,
		Description: "edges: directed labeled graph between memories",
		SQL: `
CREATE TABLE edges (
    tenant   TEXT NOT NULL,
    from_id  TEXT NOT NULL,
    to_id    TEXT NOT NULL,
    relation TEXT NOT NULL,
    created  INTEGER NOT NULL,

    PRIMARY KEY (tenant, from_id, to_id, relation)
);

CREATE INDEX idx_edges_to ON edges(tenant, to_id);
`,
	},
	{
		Version:     5,
		Description: "journal: append-only write log",
		SQL: `
CREATE TABLE journal (
    id        INTEGER PRIMARY KEY,
    tenant    TEXT NOT NULL,
    date      TEXT NOT NULL,
    timestamp INTEGER NOT NULL,
    gate      TEXT NOT NULL,
    content   TEXT NOT NULL,
    person    TEXT NOT NULL DEFAULT '',
    project   TEXT NOT NULL DEFAULT ''
);

CREATE INDEX idx_journal_date ON journal(tenant, date);
CREATE INDEX idx_journal_ts   ON journal(tenant, timestamp DESC);
`,
	},
	{
		Version:     6,
		Description: "identity, onboarding, archive: per-tenant state",
		SQL: `
CREATE TABLE identity (
    tenant       TEXT PRIMARY KEY,
    person       TEXT NOT NULL DEFAULT '',
    project      TEXT NOT NULL DEFAULT '',
    content      TEXT NOT NULL,
    last_updated INTEGER NOT NULL
);

CREATE TABLE onboarding (
    tenant  TEXT PRIMARY KEY,
    step    INTEGER NOT NULL DEFAULT 0,
    person  TEXT NOT NULL DEFAULT '',
    project TEXT NOT NULL DEFAULT '',
    style   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE archive (
    id            INTEGER PRIMARY KEY,
    tenant        TEXT NOT NULL,
    memory_id     TEXT NOT NULL,
    original_gate TEXT NOT NULL,
    content       TEXT NOT NULL,
    reason        TEXT NOT NULL,
    archived_at   INTEGER NOT NULL
);

CREATE INDEX idx_archive_tenant ON archive(tenant);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the highest applied migration version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("schema version: %w", err)
	}
	return version, nil
}
