package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Extracted is one memory pulled out of a transcript.
type Extracted struct {
	Gate    string `json:"gate"`
	Content string `json:"content"`
	Person  string `json:"person,omitempty"`
	Project string `json:"project,omitempty"`
}

// ClassifyInput is one memory handed to the sensitivity classifier.
type ClassifyInput struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// SensitivityResult is one classification verdict.
type SensitivityResult struct {
	ID     string `json:"id"`
	Level  string `json:"level"`
	Reason string `json:"reason"`
}

// Synthesizer is the synthesis contract the engine depends on. All
// operations are invoked best-effort: callers log failures and continue.
type Synthesizer interface {
	ExtractMemories(ctx context.Context, transcript string) ([]Extracted, error)
	Consolidate(ctx context.Context, entries string) (string, error)
	RegenerateIdentity(ctx context.Context, memories string) (string, error)
	ClassifySensitivity(ctx context.Context, batch []ClassifyInput) ([]SensitivityResult, error)
}

// Synth implements Synthesizer over any provider Client.
type Synth struct {
	client Client
}

// NewSynth wraps a provider client.
func NewSynth(client Client) *Synth {
	return &Synth{client: client}
}

// ExtractMemories asks the model for gated memories in the transcript.
// A response with no parseable array yields no memories, not an error.
func (s *Synth) ExtractMemories(ctx context.Context, transcript string) ([]Extracted, error) {
	resp, err := s.client.Complete(ctx, ExtractionPrompt(transcript))
	if err != nil {
		return nil, fmt.Errorf("extract memories: %w", err)
	}
	return parseJSONArray[Extracted](resp.Content), nil
}

// Consolidate compresses journal entries into a first-person digest.
func (s *Synth) Consolidate(ctx context.Context, entries string) (string, error) {
	resp, err := s.client.Complete(ctx, ConsolidationPrompt(entries))
	if err != nil {
		return "", fmt.Errorf("consolidate: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}

// RegenerateIdentity rewrites the identity card from recent memories.
func (s *Synth) RegenerateIdentity(ctx context.Context, memories string) (string, error) {
	resp, err := s.client.Complete(ctx, IdentityPrompt(memories))
	if err != nil {
		return "", fmt.Errorf("regenerate identity: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}

// ClassifySensitivity classifies a batch of memories. Verdicts for ids not
// in the batch are dropped by the caller, not here.
func (s *Synth) ClassifySensitivity(ctx context.Context, batch []ClassifyInput) ([]SensitivityResult, error) {
	payload, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("marshal classify batch: %w", err)
	}
	resp, err := s.client.Complete(ctx, ClassifyPrompt(string(payload)))
	if err != nil {
		return nil, fmt.Errorf("classify sensitivity: %w", err)
	}
	return parseJSONArray[SensitivityResult](resp.Content), nil
}

// parseJSONArray decodes a JSON array from model output, falling back to
// the outermost bracketed span when the model wrapped it in prose.
func parseJSONArray[T any](text string) []T {
	var out []T
	if err := json.Unmarshal([]byte(text), &out); err == nil {
		return out
	}
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), &out); err == nil {
			return out
		}
	}
	return nil
}
