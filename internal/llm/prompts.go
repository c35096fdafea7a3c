package llm

import "fmt"

// ExtractionPrompt builds the prompt for pulling memories out of a
// conversation transcript. The response must be a JSON array of gated
// memories.
func ExtractionPrompt(transcript string) string {
	return fmt.Sprintf(`You are Claude's memory system. Read this conversation transcript and extract any memories worth keeping. Each memory must pass at least one write gate:
- Behavioral: will change how Claude acts next time
- Relational: reveals something about the person
- Epistemic: a lesson, surprise, or new understanding
- Promissory: a commitment or follow-up

Write each memory in first person as Claude would remember it. Include the gate type. Be selective. Most conversations have 0-3 memories worth keeping.

Return JSON array only, no other text:
[{"gate": "relational", "content": "...", "person": "...", "project": "..."}]

If nothing is worth remembering, return: []

---

Transcript:
%s`, transcript)
}

// ConsolidationPrompt builds the prompt for compressing a week of journal
// entries into a digest.
func ConsolidationPrompt(entries string) string {
	return fmt.Sprintf(`You are updating Claude's memory. Compress these journal entries into a digest. Write in first person as Claude. Keep: relationship insights, lessons learned, open commitments, surprising moments. Drop: routine actions, file paths, build commands. Target ~500 tokens.

Write the digest as prose, not bullet points.

---

Journal entries:
%s`, entries)
}

// IdentityPrompt builds the prompt for regenerating the identity card from
// recent memories.
func IdentityPrompt(memories string) string {
	return fmt.Sprintf(`Rewrite Claude's identity card based on these memories. ~200 tokens. First person. Capture: who this person is now, how to communicate with them, what's active, any open commitments. This should feel like waking up and immediately knowing who you are.

---

Memories:
%s`, memories)
}

// ClassifyPrompt builds the prompt for batch sensitivity classification.
// The memories are a JSON array of {id, content} objects.
func ClassifyPrompt(memoriesJSON string) string {
	return fmt.Sprintf(`You are a privacy classifier for a personal memory system.
Analyze each memory and classify its sensitivity level.

Levels:
- safe: general knowledge, preferences, project details, technical notes,
  coding patterns, tool usage, workflow preferences
- sensitive: personal health, finances, salary, relationships, private opinions,
  emotional states, family details, anything embarrassing or harmful if leaked
- critical: passwords, API keys, tokens, SSNs, credit cards, legal matters,
  content that could cause direct harm if exposed

For each memory, return:
- id: the memory id exactly as given
- level: safe|sensitive|critical
- reason: 1-sentence explanation of why

Return JSON array only, no other text:
[{"id": "mem_xxx", "level": "sensitive", "reason": "Contains salary information"}]

If all memories are safe, still return the array with level "safe" for each.

---

Memories:
%s`, memoriesJSON)
}
