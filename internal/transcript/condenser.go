package transcript

import "strings"

const (
	edgeAssistantMax = 1000
	midAssistantMax  = 200
)

// Condense reduces turns to the text worth showing an extractor. User
// messages survive whole; they carry nearly all the relational and
// behavioral signal. Assistant turns get the first and last at length and
// the middle clipped hard, since the opener frames the session and the
// closer summarizes it.
func Condense(turns []Turn) string {
	if len(turns) == 0 {
		return ""
	}

	lastAssistant := -1
	firstAssistant := -1
	for i, t := range turns {
		if t.Role == "assistant" {
			if firstAssistant == -1 {
				firstAssistant = i
			}
			lastAssistant = i
		}
	}

	var b strings.Builder
	for i, t := range turns {
		switch t.Role {
		case "user":
			b.WriteString("[USER] ")
			b.WriteString(t.Text)
		case "assistant":
			max := midAssistantMax
			if i == firstAssistant || i == lastAssistant {
				max = edgeAssistantMax
			}
			b.WriteString("[ASSISTANT] ")
			if len(t.Text) > max {
				b.WriteString(t.Text[:max])
				b.WriteString("...")
			} else {
				b.WriteString(t.Text)
			}
		default:
			continue
		}
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}

// CountUserTurns returns how many user turns the transcript holds. Sessions
// with none are tool runs, not conversations, and extract nothing.
func CountUserTurns(turns []Turn) int {
	n := 0
	for _, t := range turns {
		if t.Role == "user" {
			n++
		}
	}
	return n
}
