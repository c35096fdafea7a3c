package llm

import "context"

// MockClient is a test double for the provider Client interface.
type MockClient struct {
	Response *Response
	Err      error
	Calls    []string // records prompts sent
}

// Complete records the call and returns the mock response.
func (m *MockClient) Complete(ctx context.Context, prompt string) (*Response, error) {
	m.Calls = append(m.Calls, prompt)
	return m.Response, m.Err
}

// MockSynth is a test double for the Synthesizer interface. Zero value
// returns empty results and no errors, which exercises the best-effort
// paths in the engine.
type MockSynth struct {
	Extracted  []Extracted
	Digest     string
	Identity   string
	Verdicts   []SensitivityResult
	Err        error
	ExtractIn  []string
	ConsolIn   []string
	IdentityIn []string
	ClassifyIn [][]ClassifyInput
}

func (m *MockSynth) ExtractMemories(ctx context.Context, transcript string) ([]Extracted, error) {
	m.ExtractIn = append(m.ExtractIn, transcript)
	return m.Extracted, m.Err
}

func (m *MockSynth) Consolidate(ctx context.Context, entries string) (string, error) {
	m.ConsolIn = append(m.ConsolIn, entries)
	return m.Digest, m.Err
}

func (m *MockSynth) RegenerateIdentity(ctx context.Context, memories string) (string, error) {
	m.IdentityIn = append(m.IdentityIn, memories)
	return m.Identity, m.Err
}

func (m *MockSynth) ClassifySensitivity(ctx context.Context, batch []ClassifyInput) ([]SensitivityResult, error) {
	m.ClassifyIn = append(m.ClassifyIn, batch)
	return m.Verdicts, m.Err
}
