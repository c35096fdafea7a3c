// Package memory defines the record model: memories, their write gates and
// decay classes, journal entries, graph edges, and the per-tenant identity
// and onboarding records.
package memory

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Gate is the category a memory is written under. It determines the
// memory's default decay behavior.
type Gate string

const (
	GateBehavioral Gate = "behavioral"
	GateRelational Gate = "relational"
	GateEpistemic  Gate = "epistemic"
	GatePromissory Gate = "promissory"
	GateCorrection Gate = "correction"

	// Journal-only synthetic gates. Never valid on a Memory.
	GateCheckpoint Gate = "checkpoint"
	GateDigest     Gate = "digest"
)

// ValidGates lists the gates accepted on a write, in canonical order.
var ValidGates = []Gate{
	GateBehavioral, GateRelational, GateEpistemic, GatePromissory, GateCorrection,
}

// ParseGate returns the write gate for s, or an error naming the valid set.
func ParseGate(s string) (Gate, error) {
	for _, g := range ValidGates {
		if string(g) == s {
			return g, nil
		}
	}
	return "", fmt.Errorf(
		"invalid gate %q. use: behavioral, relational, epistemic, promissory, correction", s)
}

// DecayClass is the half-life bucket governing how quickly an unused
// memory's decay score falls.
type DecayClass string

const (
	DecayNever    DecayClass = "never"
	DecaySlow     DecayClass = "slow"
	DecayModerate DecayClass = "moderate"
	DecayFast     DecayClass = "fast"
)

// HalfLifeDays returns the class's half-life, or ok=false for DecayNever.
func (d DecayClass) HalfLifeDays() (float64, bool) {
	switch d {
	case DecaySlow:
		return 180, true
	case DecayModerate:
		return 90, true
	case DecayFast:
		return 30, true
	default:
		return 0, false
	}
}

// DecayClassFor maps a gate to its decay class. Fixed at write time and
// never recomputed. Relational memories default to never; DecaySlow is
// reserved for relational memories explicitly slow-tracked by the caller.
func DecayClassFor(gate Gate) DecayClass {
	switch gate {
	case GateBehavioral:
		return DecayFast
	case GateEpistemic, GateCorrection:
		return DecayModerate
	default: // promissory, relational
		return DecayNever
	}
}

// Sensitivity levels assigned by the classifier.
const (
	SensitivitySafe      = "safe"
	SensitivitySensitive = "sensitive"
	SensitivityCritical  = "critical"
)

// ValidSensitivity reports whether level is a recognized sensitivity level.
func ValidSensitivity(level string) bool {
	return level == SensitivitySafe || level == SensitivitySensitive || level == SensitivityCritical
}

// Memory is a single persisted fact, owned by exactly one tenant.
type Memory struct {
	ID                string     `json:"id"`
	Content           string     `json:"content"`
	Gate              Gate       `json:"gate"`
	Person            string     `json:"person,omitempty"`
	Project           string     `json:"project,omitempty"`
	Confidence        float64    `json:"confidence"`
	Created           time.Time  `json:"created"`
	LastAccessed      time.Time  `json:"last_accessed"`
	AccessCount       int        `json:"access_count"`
	DecayClass        DecayClass `json:"decay_class"`
	Pinned            bool       `json:"pinned"`
	Sensitivity       string     `json:"sensitivity,omitempty"`
	SensitivityReason string     `json:"sensitivity_reason,omitempty"`
}

// New builds a memory with the starting invariants: confidence 0.9, access
// count 1, decay class derived from the gate.
func New(content string, gate Gate, person, project string, now time.Time) Memory {
	return Memory{
		ID:           NewID(now),
		Content:      content,
		Gate:         gate,
		Person:       person,
		Project:      project,
		Confidence:   0.9,
		Created:      now,
		LastAccessed: now,
		AccessCount:  1,
		DecayClass:   DecayClassFor(gate),
	}
}

// NewID allocates a time-sortable memory id: a UTC timestamp prefix plus a
// short random suffix, unique without a central counter.
func NewID(now time.Time) string {
	u := uuid.New()
	return fmt.Sprintf("mem_%s_%x", now.UTC().Format("20060102_150405"), u[:2])
}

// Preview returns at most n bytes of the content, never splitting a rune.
func (m Memory) Preview(n int) string {
	if len(m.Content) <= n {
		return m.Content
	}
	for n > 0 && !utf8.RuneStart(m.Content[n]) {
		n--
	}
	return m.Content[:n]
}

// JournalEntry is an append-only log record mirroring every write and every
// checkpoint or digest event. Entries are never updated, only superseded by
// consolidation.
type JournalEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Gate      Gate      `json:"gate"`
	Content   string    `json:"content"`
	Person    string    `json:"person,omitempty"`
	Project   string    `json:"project,omitempty"`

	// Date groups entries for consolidation: YYYY-MM-DD for normal
	// entries, an ISO week key (2026-W05) for digests.
	Date string `json:"date"`
}

// NewJournalEntry stamps an entry with its grouping date.
func NewJournalEntry(gate Gate, content, person, project string, now time.Time) JournalEntry {
	return JournalEntry{
		Timestamp: now,
		Gate:      gate,
		Content:   content,
		Person:    person,
		Project:   project,
		Date:      now.UTC().Format("2006-01-02"),
	}
}

// Edge relation labels.
const (
	RelRelatedTo   = "RELATED_TO"
	RelContradicts = "CONTRADICTS"
	RelFollows     = "FOLLOWS"
)

// Edge is a directed, labeled relationship between two memory ids.
// (FromID, ToID, Relation) is a set: duplicate inserts are no-ops. Edges
// are metadata only; traversal tolerates edges whose endpoint memory has
// been deleted.
type Edge struct {
	FromID   string    `json:"from_id"`
	ToID     string    `json:"to_id"`
	Relation string    `json:"relation"`
	Created  time.Time `json:"created"`
}

// Related is one entry in a graph-traversal result.
type Related struct {
	ID       string `json:"id"`
	Relation string `json:"relation"`
	Preview  string `json:"preview"`
	Depth    int    `json:"depth"`
}

// IdentityCard is the per-tenant "who I am in relation to this user"
// narrative. Regenerated wholesale, never field-patched.
type IdentityCard struct {
	Person      string    `json:"person,omitempty"`
	Project     string    `json:"project,omitempty"`
	Content     string    `json:"content"`
	LastUpdated time.Time `json:"last_updated"`
}

// OnboardingState tracks identity bootstrap before a card exists.
// Steps: 0 ask name, 1 ask project, 2 ask working style, 3 synthesize.
// Deleted on completion.
type OnboardingState struct {
	Step    int    `json:"step"`
	Person  string `json:"person,omitempty"`
	Project string `json:"project,omitempty"`
	Style   string `json:"style,omitempty"`
}
