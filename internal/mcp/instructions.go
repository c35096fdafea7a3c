package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/thierrypdamiba/claude-memory-kit/internal/memory"
)

// recentContextCap limits how many journal lines the instructions carry.
const recentContextCap = 8

const baseInstructions = `Claude Memory Kit. You have persistent memory across sessions.
4 tools: save, search, forget, checkpoint.

Memories are first-person prose, not structured data.

PROACTIVE SAVING: save without being asked when you encounter:
- a preference or working style the user states or implies
- a commitment, deadline, or follow-up
- a correction of something previously believed
- a fact about a person the user works with
- a lesson learned the hard way
Do NOT save: secrets or credentials, transient task chatter, anything
the user asked you to keep out of memory, or content you already saved
this session.

At session start the sections below are your context. When the session
is winding down, call checkpoint.`

// buildInstructions assembles the server instructions: the static tool
// guidance plus whatever per-tenant context exists. Failures leave the
// section out, never block startup.
func (s *Server) buildInstructions(ctx context.Context) string {
	var b strings.Builder
	b.WriteString(baseInstructions)

	if card, err := s.engine.IdentityCard(ctx, s.tenant); err == nil {
		b.WriteString("\n\n## Who I am\n")
		b.WriteString(card.Content)
	}

	if ckpt := s.engine.LatestCheckpoint(ctx, s.tenant); ckpt != nil {
		b.WriteString("\n\n## Last session checkpoint\n")
		b.WriteString(ckpt.Content)
	}

	if recent, err := s.engine.RecentJournal(ctx, s.tenant, 2); err == nil {
		var lines []string
		for _, entry := range recent {
			if entry.Gate == memory.GateCheckpoint {
				continue
			}
			lines = append(lines, fmt.Sprintf("[%s] %s", entry.Gate, entry.Content))
			if len(lines) == recentContextCap {
				break
			}
		}
		if len(lines) > 0 {
			b.WriteString("\n\n## Recent context\n")
			b.WriteString(strings.Join(lines, "\n"))
		}
	}

	return b.String()
}
