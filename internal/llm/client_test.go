package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thierrypdamiba/claude-memory-kit/internal/config"
)

func TestNewClientAnthropic(t *testing.T) {
	cfg := config.LLMConfig{Provider: "anthropic", AnthropicKey: "test-key"}
	client, err := NewClient(cfg)
	require.NoError(t, err)
	assert.IsType(t, &Anthropic{}, client)
}

func TestNewClientAnthropicMissingKey(t *testing.T) {
	_, err := NewClient(config.LLMConfig{Provider: "anthropic"})
	assert.Error(t, err)
}

func TestNewClientClaudeCLI(t *testing.T) {
	client, err := NewClient(config.LLMConfig{Provider: "claude-cli"})
	require.NoError(t, err)
	assert.IsType(t, &ClaudeCLI{}, client)
}

func TestNewClientOllama(t *testing.T) {
	client, err := NewClient(config.LLMConfig{Provider: "ollama"})
	require.NoError(t, err)
	assert.IsType(t, &Ollama{}, client)
}

func TestNewClientUnknown(t *testing.T) {
	_, err := NewClient(config.LLMConfig{Provider: "gpt"})
	assert.Error(t, err)
}

func TestFilterEnv(t *testing.T) {
	env := []string{
		"HOME=/home/user",
		"CLAUDE_SESSION_ID=abc123",
		"PATH=/usr/bin",
	}
	filtered := filterEnv(env)
	assert.Equal(t, []string{"HOME=/home/user", "PATH=/usr/bin"}, filtered)
}

func TestSynthExtractMemories(t *testing.T) {
	mock := &MockClient{Response: &Response{
		Content: `Here are the memories:
[{"gate": "relational", "content": "Sam prefers terse answers", "person": "Sam"}]`,
	}}
	synth := NewSynth(mock)

	got, err := synth.ExtractMemories(context.Background(), "some transcript")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "relational", got[0].Gate)
	assert.Equal(t, "Sam", got[0].Person)
	require.Len(t, mock.Calls, 1)
	assert.Contains(t, mock.Calls[0], "some transcript")
}

func TestSynthExtractMemoriesUnparseable(t *testing.T) {
	mock := &MockClient{Response: &Response{Content: "nothing worth keeping here"}}
	synth := NewSynth(mock)

	got, err := synth.ExtractMemories(context.Background(), "t")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSynthConsolidateTrims(t *testing.T) {
	mock := &MockClient{Response: &Response{Content: "  a digest of the week  \n"}}
	synth := NewSynth(mock)

	digest, err := synth.Consolidate(context.Background(), "[epistemic] learned a thing")
	require.NoError(t, err)
	assert.Equal(t, "a digest of the week", digest)
}

func TestSynthClassifySensitivity(t *testing.T) {
	mock := &MockClient{Response: &Response{
		Content: `[{"id": "mem_1", "level": "sensitive", "reason": "Contains salary information"}]`,
	}}
	synth := NewSynth(mock)

	verdicts, err := synth.ClassifySensitivity(context.Background(), []ClassifyInput{
		{ID: "mem_1", Content: "My salary is 120k"},
	})
	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	assert.Equal(t, "sensitive", verdicts[0].Level)
	require.Len(t, mock.Calls, 1)
	assert.Contains(t, mock.Calls[0], `"mem_1"`)
}
