package classify

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Finding is one PII match in a scanned string.
type Finding struct {
	Type     string `json:"type"`
	Match    string `json:"match"`
	Position int    `json:"position"`
}

type piiPattern struct {
	label string
	re    *regexp.Regexp
}

// Canonical pattern list, ordered. Shared by the write pipeline's inline
// warning and the bulk scan tool.
var piiPatterns = []piiPattern{
	{"API key (sk-)", regexp.MustCompile(`sk-[a-zA-Z0-9_-]{20,}`)},
	{"Stripe key", regexp.MustCompile(`sk_(?:live|test)_[a-zA-Z0-9]{20,}`)},
	{"Stripe publishable key", regexp.MustCompile(`pk_(?:live|test)_[a-zA-Z0-9]{20,}`)},
	{"AWS access key", regexp.MustCompile(`AKIA[0-9A-Z]{16}`)},
	{"GitHub token", regexp.MustCompile(`gh[ps]_[A-Za-z0-9_]{36,}`)},
	{"Slack token", regexp.MustCompile(`xox[baprs]-[a-zA-Z0-9-]+`)},
	{"JWT token", regexp.MustCompile(`eyJ[a-zA-Z0-9_-]{20,}\.eyJ[a-zA-Z0-9_-]{20,}`)},
	{"Generic secret", regexp.MustCompile(`(?i)(?:password|passwd|secret|token)\s*[=:]\s*\S{8,}`)},
	{"Bearer token", regexp.MustCompile(`Bearer\s+[A-Za-z0-9._~+/=-]{20,}`)},
	{"Private key header", regexp.MustCompile(`-----BEGIN (?:RSA |EC )?PRIVATE KEY-----`)},
	{"Credit card (Visa)", regexp.MustCompile(`\b4[0-9]{12}(?:[0-9]{3})?\b`)},
	{"Credit card (MC)", regexp.MustCompile(`\b5[1-5][0-9]{14}\b`)},
	{"SSN", regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{"Email address", regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)},
	{"Phone number (US)", regexp.MustCompile(`\b(?:\+1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`)},
}

var nonDigit = regexp.MustCompile(`\D`)

// LuhnCheck verifies a digit string passes the Luhn checksum. Anything
// shorter than 13 digits fails outright.
func LuhnCheck(num string) bool {
	var digits []int
	for _, r := range num {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	if len(digits) < 13 {
		return false
	}
	checksum := 0
	for i := 0; i < len(digits); i++ {
		d := digits[len(digits)-1-i]
		if i%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		checksum += d
	}
	return checksum%10 == 0
}

// ScanContent scans text for sensitive-data patterns. Credit-card-shaped
// matches are additionally verified with a Luhn checksum to suppress false
// positives on numbers that merely look like cards.
func ScanContent(text string) []Finding {
	var findings []Finding
	for _, p := range piiPatterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			match := text[loc[0]:loc[1]]
			if strings.HasPrefix(p.label, "Credit card") {
				if !LuhnCheck(nonDigit.ReplaceAllString(match, "")) {
					continue
				}
			}
			if len(match) > 40 {
				cut := 40
				for cut > 0 && !utf8.RuneStart(match[cut]) {
					cut--
				}
				match = match[:cut]
			}
			findings = append(findings, Finding{
				Type:     p.label,
				Match:    match,
				Position: loc[0],
			})
		}
	}
	return findings
}

// CheckPII returns a warning for the first matching pattern, or "" when the
// content looks clean. Cheap enough to run on every write.
func CheckPII(content string) string {
	for _, p := range piiPatterns {
		if strings.HasPrefix(p.label, "Credit card") {
			found := false
			for _, m := range p.re.FindAllString(content, -1) {
				if LuhnCheck(nonDigit.ReplaceAllString(m, "")) {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		} else if !p.re.MatchString(content) {
			continue
		}
		return "This memory appears to contain a " + p.label + ". Consider removing sensitive data."
	}
	return ""
}
