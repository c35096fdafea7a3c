package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/thierrypdamiba/claude-memory-kit/internal/memory"
	"github.com/thierrypdamiba/claude-memory-kit/internal/store"
)

// StaleAfterDays is how old a journal date must be before it is eligible
// for consolidation into a weekly digest.
const StaleAfterDays = 14

// Reflect runs the maintenance pass: consolidate stale journal days into
// weekly digests, archive fading memories, and regenerate the identity
// card from recent activity. Each phase is best-effort and reports one
// line into the combined summary.
func (e *Engine) Reflect(ctx context.Context, tenant string) string {
	var report []string

	if e.synth != nil {
		line, err := e.consolidateJournals(ctx, tenant)
		if err != nil {
			e.logger.Printf("journal consolidation failed: %v", err)
			report = append(report, fmt.Sprintf("Journal consolidation failed: %v", err))
		} else if line != "" {
			report = append(report, line)
		} else {
			report = append(report, "No journals old enough to consolidate.")
		}
	} else {
		report = append(report, "No API key. Skipping journal consolidation.")
	}

	archived := e.archiveFading(ctx, tenant)
	if archived > 0 {
		report = append(report, fmt.Sprintf("Archived %d fading memories.", archived))
	}

	if e.synth != nil {
		if line := e.regenerateIdentity(ctx, tenant); line != "" {
			report = append(report, line)
		}
	}

	return "Reflection complete:\n- " + strings.Join(report, "\n- ")
}

// consolidateJournals groups stale journal dates by ISO week, digests each
// week through the synthesizer, writes the digest back as a single journal
// entry keyed by the week, and deletes the consumed days.
func (e *Engine) consolidateJournals(ctx context.Context, tenant string) (string, error) {
	stale, err := e.store.StaleJournalDates(ctx, StaleAfterDays, tenant)
	if err != nil {
		return "", err
	}
	if len(stale) == 0 {
		return "", nil
	}

	weeks := map[string][]string{}
	for _, date := range stale {
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			e.logger.Printf("skipping malformed journal date: %s", date)
			continue
		}
		year, week := day.ISOWeek()
		key := fmt.Sprintf("%d-W%02d", year, week)
		weeks[key] = append(weeks[key], date)
	}

	keys := make([]string, 0, len(weeks))
	for k := range weeks {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var written []string
	for _, week := range keys {
		var combined []string
		for _, date := range weeks[week] {
			entries, err := e.store.JournalByDate(ctx, date, tenant)
			if err != nil {
				e.logger.Printf("loading journal %s failed: %v", date, err)
				continue
			}
			for _, entry := range entries {
				combined = append(combined, fmt.Sprintf("[%s] %s", entry.Gate, entry.Content))
			}
		}
		if len(combined) == 0 {
			continue
		}

		digest, err := e.synth.Consolidate(ctx, strings.Join(combined, "\n"))
		if err != nil {
			e.logger.Printf("consolidation failed for %s: %v", week, err)
			continue
		}

		entry := memory.JournalEntry{
			Timestamp: time.Now().UTC(),
			Gate:      memory.GateDigest,
			Content:   fmt.Sprintf("# Week %s\n\n%s", week, digest),
			Date:      week,
		}
		if err := e.store.InsertJournal(ctx, entry, tenant); err != nil {
			e.logger.Printf("writing digest for %s failed: %v", week, err)
			continue
		}
		for _, date := range weeks[week] {
			e.attempt("delete consolidated journal", func() error {
				return e.store.DeleteJournalDate(ctx, date, tenant)
			})
		}
		written = append(written, week)
	}

	if len(written) == 0 {
		return "", nil
	}
	return fmt.Sprintf("Consolidated %d weeks: %s", len(written), strings.Join(written, ", ")), nil
}

// archiveFading moves every fading memory into the archive and removes it
// from the live set and the vector index.
func (e *Engine) archiveFading(ctx context.Context, tenant string) int {
	all, err := e.store.ListMemories(ctx, store.ListFilter{Limit: 500}, tenant)
	if err != nil {
		e.logger.Printf("listing memories for decay failed: %v", err)
		return 0
	}

	now := time.Now().UTC()
	archived := 0
	for _, m := range all {
		if !memory.IsFading(m, now) {
			continue
		}
		if err := e.store.ArchiveMemory(ctx, m.ID, m.Gate, m.Content,
			"auto-archived: decay score below threshold", tenant); err != nil {
			e.logger.Printf("archiving %s failed: %v", m.ID, err)
			continue
		}
		if _, err := e.store.DeleteMemory(ctx, m.ID, tenant); err != nil {
			e.logger.Printf("deleting %s failed: %v", m.ID, err)
			continue
		}
		e.attempt("vector delete", func() error {
			return e.store.DeleteVector(ctx, m.ID, tenant)
		})
		archived++
	}
	return archived
}

// regenerateIdentity rewrites the identity card from the last five days of
// journal activity, keeping the prior card's person/project tags.
func (e *Engine) regenerateIdentity(ctx context.Context, tenant string) string {
	recent, err := e.store.RecentJournal(ctx, 5, tenant)
	if err != nil {
		e.logger.Printf("loading recent journal failed: %v", err)
		return ""
	}
	if len(recent) == 0 {
		return ""
	}

	var lines []string
	for _, entry := range recent {
		lines = append(lines, fmt.Sprintf("[%s] %s", entry.Gate, entry.Content))
	}
	content, err := e.synth.RegenerateIdentity(ctx, strings.Join(lines, "\n"))
	if err != nil {
		return fmt.Sprintf("Identity regeneration failed: %v", err)
	}

	card := memory.IdentityCard{
		Content:     content,
		LastUpdated: time.Now().UTC(),
	}
	if old, err := e.store.GetIdentity(ctx, tenant); err == nil {
		card.Person = old.Person
		card.Project = old.Project
	}
	if err := e.store.SetIdentity(ctx, card, tenant); err != nil {
		return fmt.Sprintf("Identity regeneration failed: %v", err)
	}
	return "Identity card regenerated."
}
