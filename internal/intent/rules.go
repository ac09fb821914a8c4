package intent

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/uicourseai/courseai-backend/internal/model"
)

var (
	tokenRe    = regexp.MustCompile(`[a-z0-9]+`)
	classNumRe = regexp.MustCompile(`^\d{2,4}[a-z]?$`)
	// compactRe matches joined subject+number tokens like "cs580".
	compactRe = regexp.MustCompile(`^([a-z]{2,5})(\d{2,4}[a-z]?)$`)
)

var hardWords = map[string]bool{
	"hard": true, "hardest": true, "tough": true, "difficult": true,
	"strict": true, "challenging": true, "brutal": true,
}

var easyWords = map[string]bool{
	"easy": true, "easiest": true, "easier": true, "chill": true,
	"lenient": true, "gentle": true,
}

var recentWords = map[string]bool{
	"recent": true, "recently": true, "lately": true,
	"latest": true, "new": true, "newer": true,
}

var detailWords = map[string]bool{
	"details": true, "detail": true, "breakdown": true, "history": true,
}

// fillerWords are content-free tokens that never become keywords.
var fillerWords = map[string]bool{
	"show": true, "me": true, "the": true, "a": true, "an": true,
	"for": true, "of": true, "in": true, "with": true, "and": true,
	"or": true, "some": true, "any": true, "find": true, "give": true,
	"list": true, "what": true, "which": true, "are": true, "is": true,
	"these": true, "those": true, "that": true, "this": true,
	"course": true, "courses": true, "class": true, "classes": true,
	"section": true, "sections": true, "elective": true, "electives": true,
	"prof": true, "profs": true, "professor": true, "professors": true,
	"instructor": true, "instructors": true, "teacher": true,
	"level": true, "semester": true, "semesters": true, "explain": true,
	"why": true, "last": true, "few": true, "years": true, "picks": true,
}

// RuleParser is the deterministic, always-available intent parser.
type RuleParser struct {
	subjects map[string]bool // uppercase subject codes
}

// NewRuleParser builds a RuleParser recognizing the given subject codes.
func NewRuleParser(subjectCodes []string) *RuleParser {
	subjects := make(map[string]bool, len(subjectCodes))
	for _, code := range subjectCodes {
		subjects[strings.ToUpper(strings.TrimSpace(code))] = true
	}
	return &RuleParser{subjects: subjects}
}

// Parse extracts an Intent from text. It never returns an error; the worst
// case is a zero-information intent (no filters, easy polarity).
func (p *RuleParser) Parse(_ context.Context, text string) (model.Intent, error) {
	lower := strings.ToLower(text)
	tokens := p.splitCompact(tokenRe.FindAllString(lower, -1))

	it := model.NewIntent()
	consumed := make([]bool, len(tokens))

	it.Polarity = extractPolarity(tokens)

	// Subject: first token matching a known subject code.
	for i, t := range tokens {
		if p.subjects[strings.ToUpper(t)] {
			subject := strings.ToUpper(t)
			it.Subject = &subject
			consumed[i] = true
			break
		}
	}

	// Explicit level phrase: "500-level" and "500 level" both tokenize to
	// ("500", "level"). The phrase wins over a level derived from the
	// course number, and its number never becomes a class_num.
	for i := 0; i+1 < len(tokens); i++ {
		if tokens[i+1] != "level" {
			continue
		}
		if n, err := strconv.Atoi(tokens[i]); err == nil && n >= 100 {
			level := n
			it.Level = &level
			consumed[i] = true
			consumed[i+1] = true
			break
		}
	}

	// Course number: first remaining token shaped like one.
	for i, t := range tokens {
		if consumed[i] || !classNumRe.MatchString(t) {
			continue
		}
		num := t
		it.ClassNum = &num
		consumed[i] = true
		break
	}

	it.Recent = extractRecent(tokens) || strings.Contains(lower, "last few")
	it.Details = extractDetails(tokens)
	it.Explain = strings.Contains(lower, "explain") || hasToken(tokens, "why")

	// Instructor: for drill-down queries the trailing leftover word is
	// treated as a name fragment ("details cs 580 yu" → "yu").
	if it.Details {
		if name := p.trailingName(tokens, consumed); name != "" {
			it.InstructorLike = &name
			markConsumed(tokens, consumed, name)
		}
	}

	it.Keywords = p.collectKeywords(tokens, consumed)
	return it, nil
}

// splitCompact expands joined subject+number tokens ("cs580") into two
// tokens when the alpha prefix is a recognized subject.
func (p *RuleParser) splitCompact(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if m := compactRe.FindStringSubmatch(t); m != nil && p.subjects[strings.ToUpper(m[1])] {
			out = append(out, m[1], m[2])
			continue
		}
		out = append(out, t)
	}
	return out
}

func extractPolarity(tokens []string) model.Polarity {
	for _, t := range tokens {
		if hardWords[t] {
			return model.PolarityHard
		}
	}
	return model.PolarityEasy
}

func extractRecent(tokens []string) bool {
	for _, t := range tokens {
		if recentWords[t] {
			return true
		}
	}
	return false
}

func extractDetails(tokens []string) bool {
	for _, t := range tokens {
		if detailWords[t] {
			return true
		}
	}
	return false
}

func hasToken(tokens []string, want string) bool {
	for _, t := range tokens {
		if t == want {
			return true
		}
	}
	return false
}

// trailingName returns the last unconsumed token that is not a control
// word, a number, or a known subject — a crude but effective name heuristic.
func (p *RuleParser) trailingName(tokens []string, consumed []bool) string {
	for i := len(tokens) - 1; i >= 0; i-- {
		t := tokens[i]
		if consumed[i] || p.isControl(t) || classNumRe.MatchString(t) {
			continue
		}
		return t
	}
	return ""
}

func markConsumed(tokens []string, consumed []bool, tok string) {
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i] == tok && !consumed[i] {
			consumed[i] = true
			return
		}
	}
}

func (p *RuleParser) isControl(t string) bool {
	return hardWords[t] || easyWords[t] || recentWords[t] ||
		detailWords[t] || fillerWords[t] || p.subjects[strings.ToUpper(t)]
}

// collectKeywords gathers leftover content words in order of first
// appearance, deduplicated.
func (p *RuleParser) collectKeywords(tokens []string, consumed []bool) []string {
	keywords := []string{}
	seen := make(map[string]bool)
	for i, t := range tokens {
		if consumed[i] || p.isControl(t) || classNumRe.MatchString(t) || seen[t] {
			continue
		}
		seen[t] = true
		keywords = append(keywords, t)
	}
	return keywords
}
