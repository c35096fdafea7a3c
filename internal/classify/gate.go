// Package classify holds the deterministic leaf utilities shared by the
// write pipeline and the maintenance tools: the keyword gate classifier,
// person/project tag extraction, and the PII scanner.
package classify

import (
	"regexp"
	"strings"

	"github.com/thierrypdamiba/claude-memory-kit/internal/memory"
)

// Ordered rule tables. Priority: promissory > correction > behavioral >
// relational > epistemic default. First matching category wins; there is
// no scoring or weighting.

var promissoryKeywords = []string{
	"i will", "i'll", "follow up", "follow-up", "deadline", "todo",
	"remind me", "i should", "committed to", "agreed to", "don't forget",
	"i promised", "i need to",
}

var promissoryRe = regexp.MustCompile(
	`\bby (monday|tuesday|wednesday|thursday|friday|saturday|sunday|tomorrow|tonight|next week|end of)`)

var correctionKeywords = []string{
	"actually", "i was wrong", "turns out", "no longer", "changed my mind",
	"instead of", "not true", "updated", "contrary to", "rather than",
	"opposite",
}

var behavioralKeywords = []string{
	"from now on", "prefer", "always", "never", "workflow", "habit",
	"don't like", "wants me to", "annoyed by", "when i", "likes to",
}

var relationalRe = []*regexp.Regexp{
	regexp.MustCompile(`\b(he|she|they)\s+(is|was|works|said|likes|wants)\b`),
	regexp.MustCompile(`\b[A-Z][a-z]+\s+(works at|is a|is an)\b`),
}

var relationalKeywords = []string{
	"works at", "partner", "colleague", "boss", "team lead", "family",
	"friend", "their name", "relationship", "manager",
}

// AutoGate classifies content into a write gate using the ordered keyword
// and regexp tables. Unmatched content defaults to epistemic.
func AutoGate(content string) memory.Gate {
	lower := strings.ToLower(content)

	for _, kw := range promissoryKeywords {
		if strings.Contains(lower, kw) {
			return memory.GatePromissory
		}
	}
	if promissoryRe.MatchString(lower) {
		return memory.GatePromissory
	}

	for _, kw := range correctionKeywords {
		if strings.Contains(lower, kw) {
			return memory.GateCorrection
		}
	}

	for _, kw := range behavioralKeywords {
		if strings.Contains(lower, kw) {
			return memory.GateBehavioral
		}
	}

	// Relational regexes run against the original casing: the name
	// pattern relies on capitalization. The pronoun pattern gets the
	// lowercased text so sentence-initial pronouns still match.
	if relationalRe[0].MatchString(lower) || relationalRe[1].MatchString(content) {
		return memory.GateRelational
	}
	for _, kw := range relationalKeywords {
		if strings.Contains(lower, kw) {
			return memory.GateRelational
		}
	}

	return memory.GateEpistemic
}

// Words that look like names after a person keyword but never are.
var notNames = map[string]bool{
	"The": true, "This": true, "That": true, "These": true, "Those": true,
	"Monday": true, "Tuesday": true, "Wednesday": true, "Thursday": true,
	"Friday": true, "Saturday": true, "Sunday": true,
	"January": true, "February": true, "March": true, "April": true,
	"May": true, "June": true, "July": true, "August": true,
	"September": true, "October": true, "November": true, "December": true,
}

var personRe = regexp.MustCompile(
	`\b(?:about|for|with|from)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)\b`)

var projectRe = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:project|repo|app|codebase)\s+"?([\w][\w.-]*)"?`),
	regexp.MustCompile(`(?i)\bworking on\s+"?([\w][\w.-]*)"?`),
}

// ExtractPersonProject pulls optional person and project tags out of free
// text. Person: a capitalized one- or two-word name following about/for/
// with/from, skipping day, month, and determiner false positives.
// Project: the token following project/repo/app/codebase/"working on",
// with quotes and trailing punctuation stripped.
func ExtractPersonProject(content string) (person, project string) {
	if m := personRe.FindStringSubmatch(content); m != nil {
		candidate := m[1]
		first := strings.Fields(candidate)[0]
		if !notNames[first] {
			person = candidate
		}
	}

	for _, re := range projectRe {
		if m := re.FindStringSubmatch(content); m != nil {
			project = strings.TrimRight(m[1], ".,;:!?")
			break
		}
	}
	return person, project
}
