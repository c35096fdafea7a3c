package mcp

import (
	"context"
	"fmt"

	"github.com/thierrypdamiba/claude-memory-kit/internal/classify"
)

// LegacyAliases maps retired tool names to their current equivalents.
// Resolution happens before dispatch; the alias table is the only place
// old names are known.
var LegacyAliases = map[string]string{
	"remember": "save",
	"recall":   "search",
	"prime":    "search",
}

// Dispatch resolves the tool name and runs the matching engine operation.
// Every branch returns a plain string; engine errors are folded into an
// "Error:" result rather than surfaced as protocol failures.
func (s *Server) Dispatch(ctx context.Context, name string, args map[string]any) string {
	if canonical, ok := LegacyAliases[name]; ok {
		name = canonical
	}

	switch name {
	case "save":
		return s.dispatchSave(ctx, args)

	case "search":
		return s.engine.Recall(ctx, s.tenant, argString(args, "query"))

	case "forget":
		result, err := s.engine.Forget(ctx, s.tenant, argString(args, "id"), argString(args, "reason"))
		if err != nil {
			return fmt.Sprintf("Error: %v", err)
		}
		return result

	case "checkpoint":
		result, err := s.engine.Checkpoint(ctx, s.tenant, argString(args, "summary"))
		if err != nil {
			return fmt.Sprintf("Error: %v", err)
		}
		return result

	// Legacy tools kept routable for old clients, no longer advertised.
	case "identity":
		result, err := s.engine.Identity(ctx, s.tenant, argString(args, "onboard_response"))
		if err != nil {
			return fmt.Sprintf("Error: %v", err)
		}
		return result

	case "reflect":
		return s.engine.Reflect(ctx, s.tenant)

	case "auto_extract":
		result, err := s.engine.AutoExtract(ctx, s.tenant, argString(args, "transcript"))
		if err != nil {
			return fmt.Sprintf("Error: %v", err)
		}
		return result

	default:
		return fmt.Sprintf("Unknown tool: %s", name)
	}
}

// dispatchSave fills in the gate and tags before running the write
// pipeline, then drives the auto-reflect counter.
func (s *Server) dispatchSave(ctx context.Context, args map[string]any) string {
	text := argString(args, "text")

	gate := argString(args, "gate")
	if gate == "" {
		gate = string(classify.AutoGate(text))
	}

	person, project := classify.ExtractPersonProject(text)
	if explicit := argString(args, "person"); explicit != "" {
		person = explicit
	}
	if explicit := argString(args, "project"); explicit != "" {
		project = explicit
	}

	result, err := s.engine.Remember(ctx, s.tenant, text, gate, person, project)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}

	reflectDue, checkpointDue := s.counters.RecordSave()
	if reflectDue {
		// Best-effort: a failed background reflect must never fail the save.
		func() {
			defer func() { _ = recover() }()
			s.engine.Reflect(ctx, s.tenant)
		}()
	}
	if checkpointDue {
		result += "\n\nYou've saved several memories this session. " +
			"Consider calling checkpoint to snapshot your working context."
	}
	return result
}

func argString(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}
