package transcript

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStringAndBlockContent(t *testing.T) {
	content := strings.Join([]string{
		`{"type":"user","message":{"role":"user","content":"remember this: I prefer tabs"}}`,
		`{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"Noted, tabs it is."},{"type":"tool_use","text":""}]}}`,
	}, "\n")

	turns := Parse(content)
	require.Len(t, turns, 2)
	assert.Equal(t, Turn{Role: "user", Text: "remember this: I prefer tabs"}, turns[0])
	assert.Equal(t, Turn{Role: "assistant", Text: "Noted, tabs it is."}, turns[1])
}

func TestParseSkipsNoise(t *testing.T) {
	content := strings.Join([]string{
		`{"type":"system","message":{"role":"system","content":"session init"}}`,
		`not json at all`,
		`{"type":"user"}`,
		`{"type":"user","message":{"role":"user","content":"ok"}}`,
		`{"type":"user","message":{"role":"user","content":"{\"tool_payload\":true, \"args\": [1,2,3]}"}}`,
		``,
		`{"type":"user","message":{"role":"user","content":"a real question about the parser"}}`,
	}, "\n")

	turns := Parse(content)
	require.Len(t, turns, 1)
	assert.Equal(t, "a real question about the parser", turns[0].Text)
}

func TestParseStripsSystemReminders(t *testing.T) {
	content := `{"type":"user","message":{"role":"user","content":"<system-reminder>injected\ncontext</system-reminder>what is the build status"}}`

	turns := Parse(content)
	require.Len(t, turns, 1)
	assert.Equal(t, "what is the build status", turns[0].Text)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.jsonl")
	data := `{"type":"user","message":{"role":"user","content":"first message"}}
{"type":"assistant","message":{"role":"assistant","content":"first reply here"}}
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	turns, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "user", turns[0].Role)
	assert.Equal(t, "assistant", turns[1].Role)
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "nope.jsonl"))
	assert.Error(t, err)
}

func TestCondense(t *testing.T) {
	long := strings.Repeat("x", 1200)
	turns := []Turn{
		{Role: "user", Text: "kick off the refactor"},
		{Role: "assistant", Text: long},
		{Role: "assistant", Text: long},
		{Role: "user", Text: "looks good, ship it"},
		{Role: "assistant", Text: long},
	}

	out := Condense(turns)
	parts := strings.Split(out, "\n\n")
	require.Len(t, parts, 5)

	assert.Equal(t, "[USER] kick off the refactor", parts[0])
	// First and last assistant turns keep 1000 chars, the middle 200.
	assert.Len(t, parts[1], len("[ASSISTANT] ")+1000+3)
	assert.Len(t, parts[2], len("[ASSISTANT] ")+200+3)
	assert.Equal(t, "[USER] looks good, ship it", parts[3])
	assert.Len(t, parts[4], len("[ASSISTANT] ")+1000+3)
}

func TestCondenseShortTurnsUntrimmed(t *testing.T) {
	turns := []Turn{
		{Role: "user", Text: "what broke"},
		{Role: "assistant", Text: "the fts index"},
	}
	assert.Equal(t, "[USER] what broke\n\n[ASSISTANT] the fts index", Condense(turns))
}

func TestCondenseEmpty(t *testing.T) {
	assert.Equal(t, "", Condense(nil))
}

func TestCountUserTurns(t *testing.T) {
	turns := []Turn{
		{Role: "user", Text: "one"},
		{Role: "assistant", Text: "two"},
		{Role: "user", Text: "three"},
	}
	assert.Equal(t, 2, CountUserTurns(turns))
	assert.Equal(t, 0, CountUserTurns(nil))
}
