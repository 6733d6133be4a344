package engine

import (
	"bytes"
	"strings"
)

// Category classifies a failed attempt.
type Category string

const (
	CategoryParseError  Category = "parse-error"
	CategoryBotDetected Category = "bot-detection"
	CategoryUnsupported Category = "unsupported-content"
	CategoryTimeout     Category = "timeout"
	CategoryOther       Category = "other"
)

// Diagnostic is the classified failure retained from one attempt.
type Diagnostic struct {
	Strategy string
	Message  string
	Category Category
}

// Classifier maps a failed (or undecodable) attempt to a Category.
// It only runs once the orchestrator has ruled out success.
type Classifier func(exitCode int, stdout, stderr []byte) Category

// Rule is a case-insensitive substring rule; any needle matching selects
// the rule's Category.
type Rule struct {
	Category Category
	Needles  []string
}

// DefaultRules are checked in order; first match wins.
var DefaultRules = []Rule{
	{Category: CategoryBotDetected, Needles: []string{"sign in to confirm", "not a bot"}},
	{Category: CategoryUnsupported, Needles: []string{"not available on this app", "watch on the latest version"}},
}

// RuleClassifier builds a Classifier from substring rules. Output that
// matches no rule is CategoryOther.
func RuleClassifier(rules []Rule) Classifier {
	lowered := make([]Rule, len(rules))
	for i, r := range rules {
		needles := make([]string, len(r.Needles))
		for j, n := range r.Needles {
			needles[j] = strings.ToLower(n)
		}
		lowered[i] = Rule{Category: r.Category, Needles: needles}
	}

	return func(_ int, stdout, stderr []byte) Category {
		combined := strings.ToLower(string(stderr) + "\n" + string(stdout))
		for _, r := range lowered {
			for _, n := range r.Needles {
				if strings.Contains(combined, n) {
					return r.Category
				}
			}
		}
		return CategoryOther
	}
}

// DefaultClassifier applies DefaultRules.
var DefaultClassifier = RuleClassifier(DefaultRules)

// failureText picks the most useful output of a failed attempt.
func failureText(res *AttemptResult) string {
	if s := bytes.TrimSpace(res.Stderr); len(s) > 0 {
		return string(s)
	}
	if s := bytes.TrimSpace(res.Stdout); len(s) > 0 {
		return string(s)
	}
	return "unknown error"
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8Start(s[cut]) {
		cut--
	}
	return s[:cut]
}

func utf8Start(b byte) bool { return b&0xC0 != 0x80 }
