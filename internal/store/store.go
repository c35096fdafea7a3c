// Package store defines the persistence contract the engine depends on.
// The contract is implemented twice: over relational sqlite tables and by
// emulating the same operations as payload fields in an embedded vector
// collection. The engine must work against either.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/thierrypdamiba/claude-memory-kit/internal/memory"
)

// ErrNotFound is returned when a tenant-scoped record does not exist.
var ErrNotFound = errors.New("not found")

// ListFilter narrows a memory listing. Zero values mean no filter.
type ListFilter struct {
	Gate    memory.Gate
	Person  string
	Project string
	Limit   int
	Offset  int
}

// VectorHit is one result from a similarity query.
type VectorHit struct {
	MemoryID string
	Score    float64
}

// MemoryUpdate carries the mutable fields of a memory. Nil pointers leave
// the field unchanged.
type MemoryUpdate struct {
	Content *string
	Gate    *memory.Gate
	Person  *string
	Project *string
}

// Store is the tenant-scoped persistence contract. Individual operations
// are atomic at the row level; the contract provides no cross-operation
// transactions, so multi-step callers must tolerate partial completion.
type Store interface {
	// Memory CRUD.
	InsertMemory(ctx context.Context, m memory.Memory, tenant string) error
	GetMemory(ctx context.Context, id, tenant string) (*memory.Memory, error)
	UpdateMemory(ctx context.Context, id string, upd MemoryUpdate, tenant string) error
	TouchMemory(ctx context.Context, id, tenant string) error
	DeleteMemory(ctx context.Context, id, tenant string) (*memory.Memory, error)
	ListMemories(ctx context.Context, f ListFilter, tenant string) ([]memory.Memory, error)
	CountMemories(ctx context.Context, tenant string) (int, error)
	CountByGate(ctx context.Context, tenant string) (map[memory.Gate]int, error)
	UpdateConfidence(ctx context.Context, id string, confidence float64, tenant string) error
	UpdateSensitivity(ctx context.Context, id, level, reason, tenant string) error
	SetPinned(ctx context.Context, id string, pinned bool, tenant string) error
	ListUnclassified(ctx context.Context, limit int, tenant string) ([]memory.Memory, error)

	// Search. SearchFTS is the lexical index; SearchVector is the
	// similarity index, which may internally fuse multiple signals.
	SearchFTS(ctx context.Context, query string, limit int, tenant string) ([]memory.Memory, error)
	SearchVector(ctx context.Context, query string, limit int, tenant string) ([]VectorHit, error)
	UpsertVector(ctx context.Context, m memory.Memory, tenant string) error
	DeleteVector(ctx context.Context, id, tenant string) error

	// Graph.
	AddEdge(ctx context.Context, fromID, toID, relation, tenant string) error
	FindRelated(ctx context.Context, startID string, depth int, tenant string) ([]memory.Related, error)
	AutoLink(ctx context.Context, id, person, project, tenant string) error
	LatestTagged(ctx context.Context, excludeID, person, project string, since time.Time, tenant string) (string, error)

	// Journal.
	InsertJournal(ctx context.Context, e memory.JournalEntry, tenant string) error
	RecentJournal(ctx context.Context, days int, tenant string) ([]memory.JournalEntry, error)
	JournalByDate(ctx context.Context, date, tenant string) ([]memory.JournalEntry, error)
	StaleJournalDates(ctx context.Context, maxAgeDays int, tenant string) ([]string, error)
	DeleteJournalDate(ctx context.Context, date, tenant string) error
	LatestCheckpoint(ctx context.Context, tenant string) (*memory.JournalEntry, error)

	// Archive.
	ArchiveMemory(ctx context.Context, id string, gate memory.Gate, content, reason, tenant string) error

	// Identity and onboarding.
	GetIdentity(ctx context.Context, tenant string) (*memory.IdentityCard, error)
	SetIdentity(ctx context.Context, card memory.IdentityCard, tenant string) error
	GetOnboarding(ctx context.Context, tenant string) (*memory.OnboardingState, error)
	SetOnboarding(ctx context.Context, state memory.OnboardingState, tenant string) error
	DeleteOnboarding(ctx context.Context, tenant string) error

	Close() error
}
