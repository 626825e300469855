// Package quality scores commit messages against conventional-commit norms.
//
// Scoring is deterministic and pure: a message maps to the same [Result]
// every time. The score doubles as the skip gate for the rewrite engine,
// which leaves messages at or above the threshold untouched.
package quality

import (
	"regexp"
	"strings"
)

// DefaultMinScore is the score at or above which a message counts as
// well-formed.
const DefaultMinScore = 7

// Result of scoring one commit message on the additive 0-10 scale.
type Result struct {
	Score      int
	WellFormed bool
	Reason     string
}

var (
	conventionalPattern = regexp.MustCompile(`^(feat|fix|docs|style|refactor|test|chore|perf|ci|build|revert)(\([^)]+\))?: .+`)
	presentTensePattern = regexp.MustCompile(`^(feat|fix|docs|style|refactor|test|chore|perf|ci|build|revert)?(\([^)]+\))?: [a-z]`)
)

// genericMessages are placeholders that carry no information, with or without
// a trailing "commit".
var genericMessages = []string{
	"update",
	"fix",
	"change",
	"modify",
	"commit",
	"initial",
	"test",
	"wip",
	"tmp",
	"temp",
}

// Score rates a message with the default threshold.
func Score(message string) Result {
	return ScoreWithThreshold(message, DefaultMinScore)
}

// ScoreWithThreshold rates a commit message 0-10:
//
//   - +4 for the conventional <type>(<scope>): <subject> format
//   - +2 for a first line of 10-72 characters
//   - +2 for not being a generic placeholder
//   - +1 for a lowercase character right after the type prefix
//   - +1 for no trailing period
//
// The reason string concatenates everything that fired during scoring,
// comma-joined.
func ScoreWithThreshold(message string, minScore int) Result {
	score := 0
	var reasons []string

	firstLine, _, _ := strings.Cut(message, "\n")

	if conventionalPattern.MatchString(firstLine) {
		score += 4
		reasons = append(reasons, "follows conventional format")
	}

	switch l := len(firstLine); {
	case l >= 10 && l <= 72:
		score += 2
		reasons = append(reasons, "appropriate length")
	case l < 10:
		reasons = append(reasons, "too short")
	default:
		reasons = append(reasons, "too long")
	}

	if !isGeneric(message) {
		score += 2
		reasons = append(reasons, "descriptive")
	} else {
		reasons = append(reasons, "too generic")
	}

	if presentTensePattern.MatchString(firstLine) {
		score++
		reasons = append(reasons, "uses present tense")
	}

	if !strings.HasSuffix(firstLine, ".") {
		score++
		reasons = append(reasons, "no trailing period")
	}

	reason := "no specific issues"
	if len(reasons) > 0 {
		reason = strings.Join(reasons, ", ")
	}

	return Result{
		Score:      score,
		WellFormed: score >= minScore,
		Reason:     reason,
	}
}

// WellFormed reports whether message scores at or above minScore.
func WellFormed(message string, minScore int) bool {
	return ScoreWithThreshold(message, minScore).WellFormed
}

func isGeneric(message string) bool {
	m := strings.Trim(strings.ToLower(message), ".")
	for _, g := range genericMessages {
		if m == g || m == g+" commit" {
			return true
		}
	}

	return false
}
