package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/thierrypdamiba/claude-memory-kit/internal/memory"
)

// Onboarding prompts, one per state-machine step.
const (
	promptAskName = "Welcome! I don't have an identity card for you yet. " +
		"What's your name?"
	promptAskProject = "Nice to meet you, %s. What are you working on right now?"
	promptAskStyle   = "Got it. How do you like to work? " +
		"(communication style, preferences, pet peeves)"
	promptColdStart = "No identity card yet. Tell me your name and what you're " +
		"working on, and I'll create one."
)

// Identity loads the identity card, appending recent journal context. When
// no card exists it drives the onboarding state machine: ask name, ask
// project, ask working style, then synthesize the card and clear the
// onboarding state. Calling without a response re-emits the current
// step's prompt.
//
// A response supplied at a step past the terminal one falls through to the
// cold-start prompt and the response is discarded. That matches the
// long-standing behavior of this flow; see DESIGN.md before changing it.
func (e *Engine) Identity(ctx context.Context, tenant, response string) (string, error) {
	card, err := e.store.GetIdentity(ctx, tenant)
	if err == nil {
		out := card.Content
		recent, err := e.store.RecentJournal(ctx, 2, tenant)
		if err == nil && len(recent) > 0 {
			var b strings.Builder
			b.WriteString(out)
			b.WriteString("\n\n---\nRecent context:\n")
			for i, entry := range recent {
				if i == 10 {
					break
				}
				fmt.Fprintf(&b, "[%s] %s\n", entry.Gate, entry.Content)
			}
			out = b.String()
		}
		return out, nil
	}

	state := memory.OnboardingState{}
	if existing, err := e.store.GetOnboarding(ctx, tenant); err == nil {
		state = *existing
	}

	if response == "" {
		switch state.Step {
		case 0:
			if err := e.store.SetOnboarding(ctx, state, tenant); err != nil {
				return "", fmt.Errorf("set onboarding: %w", err)
			}
			return promptAskName, nil
		case 1:
			return fmt.Sprintf(promptAskProject, state.Person), nil
		case 2:
			return promptAskStyle, nil
		default:
			return promptColdStart, nil
		}
	}

	switch state.Step {
	case 0:
		state.Person = response
		state.Step = 1
		if err := e.store.SetOnboarding(ctx, state, tenant); err != nil {
			return "", fmt.Errorf("set onboarding: %w", err)
		}
		return fmt.Sprintf(promptAskProject, state.Person), nil
	case 1:
		state.Project = response
		state.Step = 2
		if err := e.store.SetOnboarding(ctx, state, tenant); err != nil {
			return "", fmt.Errorf("set onboarding: %w", err)
		}
		return promptAskStyle, nil
	case 2:
		state.Style = response
		state.Step = 3
		return e.finishOnboarding(ctx, tenant, state)
	default:
		return promptColdStart, nil
	}
}

// finishOnboarding synthesizes the first identity card from the collected
// answers and deletes the onboarding state.
func (e *Engine) finishOnboarding(ctx context.Context, tenant string, state memory.OnboardingState) (string, error) {
	seed := fmt.Sprintf("Name: %s\nProject: %s\nWorking style: %s",
		state.Person, state.Project, state.Style)

	content := seed
	if e.synth != nil {
		synthesized, err := e.synth.RegenerateIdentity(ctx, seed)
		if err != nil {
			e.logger.Printf("identity synthesis failed: %v", err)
		} else {
			content = synthesized
		}
	}

	card := memory.IdentityCard{
		Person:      state.Person,
		Project:     state.Project,
		Content:     content,
		LastUpdated: time.Now().UTC(),
	}
	if err := e.store.SetIdentity(ctx, card, tenant); err != nil {
		return "", fmt.Errorf("set identity: %w", err)
	}
	e.attempt("delete onboarding", func() error {
		return e.store.DeleteOnboarding(ctx, tenant)
	})

	return fmt.Sprintf("Identity card created.\n\n%s", content), nil
}

// IdentityCard returns the raw card for transport layers, without journal
// context appended.
func (e *Engine) IdentityCard(ctx context.Context, tenant string) (*memory.IdentityCard, error) {
	card, err := e.store.GetIdentity(ctx, tenant)
	if err != nil {
		return nil, err
	}
	return card, nil
}
