package intent

import (
	"regexp"
	"strings"
)

// LLMs wrap JSON in markdown fences and emit trailing commas often enough
// that the raw completion cannot be handed to encoding/json directly.
var (
	jsonBlockRe     = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\{.*\\})\\s*```")
	jsonObjectRe    = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

// extractJSON pulls a JSON object out of an LLM completion, preferring a
// fenced code block over a bare object, and strips trailing commas.
// Returns "" when no object is present.
func extractJSON(content string) string {
	raw := ""
	if m := jsonBlockRe.FindStringSubmatch(content); len(m) > 1 {
		raw = m[1]
	} else if m := jsonObjectRe.FindString(content); m != "" {
		raw = m
	}
	if raw == "" {
		return ""
	}
	raw = strings.TrimSpace(raw)
	return trailingCommaRe.ReplaceAllString(raw, "$1")
}
