// Package transcript turns Claude Code JSONL session logs into plain text
// suitable for memory extraction. Parsing keeps only human-readable turns;
// condensing trims them down to what the extractor needs.
package transcript

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// rawLine is a single line of the JSONL log.
type rawLine struct {
	Type    string          `json:"type"` // "user", "assistant", "system"
	Message json.RawMessage `json:"message"`
}

type rawMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"` // string or []contentBlock
}

type contentBlock struct {
	Type string `json:"type"` // "text", "tool_use", "tool_result"
	Text string `json:"text,omitempty"`
}

// Turn is one parsed conversation turn.
type Turn struct {
	Role string // "user" or "assistant"
	Text string
}

var systemReminderRe = regexp.MustCompile(`<system-reminder>[\s\S]*?</system-reminder>`)

// ParseFile reads a JSONL transcript and returns its conversation turns in
// order. Malformed lines are skipped, not fatal; real logs often carry
// partial writes at the tail.
func ParseFile(path string) ([]Turn, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()

	var turns []Turn
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	for scanner.Scan() {
		if t := parseLine(scanner.Bytes()); t != nil {
			turns = append(turns, *t)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan transcript: %w", err)
	}
	return turns, nil
}

// Parse parses transcript content held in memory.
func Parse(content string) []Turn {
	var turns []Turn
	for _, line := range strings.Split(content, "\n") {
		if t := parseLine([]byte(strings.TrimSpace(line))); t != nil {
			turns = append(turns, *t)
		}
	}
	return turns
}

func parseLine(line []byte) *Turn {
	if len(line) == 0 {
		return nil
	}
	var raw rawLine
	if err := json.Unmarshal(line, &raw); err != nil {
		return nil
	}
	if raw.Message == nil || (raw.Type != "user" && raw.Type != "assistant") {
		return nil
	}

	var msg rawMessage
	if err := json.Unmarshal(raw.Message, &msg); err != nil {
		return nil
	}

	text := extractText(msg.Content)
	text = systemReminderRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	// Tool payloads and trivial fragments carry no memory signal.
	if len(text) < 5 || strings.HasPrefix(text, "{") {
		return nil
	}

	return &Turn{Role: raw.Type, Text: text}
}

// extractText handles the polymorphic content field, which is either a
// plain string or an array of typed blocks.
func extractText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var blocks []contentBlock
	if err := json.Unmarshal(raw, &blocks); err == nil {
		var texts []string
		for _, b := range blocks {
			if b.Type == "text" && b.Text != "" {
				texts = append(texts, b.Text)
			}
		}
		return strings.Join(texts, "\n")
	}
	return ""
}
