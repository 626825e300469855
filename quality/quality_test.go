package quality

import (
	"strings"
	"testing"
)

func TestScoreConventionalMessage(t *testing.T) {
	res := Score("feat: add oauth login flow")

	if res.Score < 7 {
		t.Errorf("want score >= 7, got %d", res.Score)
	}
	if !res.WellFormed {
		t.Error("want well-formed")
	}
	if !strings.Contains(res.Reason, "follows conventional format") {
		t.Errorf("reason missing conventional format: %q", res.Reason)
	}
}

func TestScoreGenericMessage(t *testing.T) {
	res := Score("update")

	if res.Score >= 7 {
		t.Errorf("want score < 7, got %d", res.Score)
	}
	if res.WellFormed {
		t.Error("generic message must not be well-formed")
	}
	if !strings.Contains(res.Reason, "too generic") {
		t.Errorf("reason missing too generic: %q", res.Reason)
	}
}

func TestScoreTooShort(t *testing.T) {
	res := Score("fix: a")

	if !strings.Contains(res.Reason, "too short") {
		t.Errorf("reason missing too short: %q", res.Reason)
	}
}

func TestScoreTable(t *testing.T) {
	cases := []struct {
		message    string
		wellFormed bool
		reason     string
	}{
		{"feat(auth): support refresh tokens", true, "uses present tense"},
		{"fix(parser): handle empty input edge case", true, "appropriate length"},
		{"wip", false, "too generic"},
		{"initial commit", false, "too generic"},
		{"Update.", false, "too generic"},
		{"chore: " + strings.Repeat("x", 80), true, "too long"},
		{"docs: clarify retry semantics.", true, "follows conventional format"},
		{"random sentence about code without any format", false, ""},
	}

	for _, tc := range cases {
		t.Run(tc.message, func(t *testing.T) {
			res := Score(tc.message)
			if res.WellFormed != tc.wellFormed {
				t.Errorf("wellFormed: want %v, got %v (score %d, reason %q)", tc.wellFormed, res.WellFormed, res.Score, res.Reason)
			}
			if tc.reason != "" && !strings.Contains(res.Reason, tc.reason) {
				t.Errorf("reason %q missing %q", res.Reason, tc.reason)
			}
		})
	}
}

func TestScoreTrailingPeriod(t *testing.T) {
	with := Score("feat: add the frobnicator.")
	without := Score("feat: add the frobnicator")

	if without.Score != with.Score+1 {
		t.Errorf("trailing period should cost one point: %d vs %d", with.Score, without.Score)
	}
}

func TestScoreUsesFirstLineOnly(t *testing.T) {
	res := Score("feat: add parser\n\nlong body line that would exceed the subject limit " + strings.Repeat("y", 100))

	if !strings.Contains(res.Reason, "appropriate length") {
		t.Errorf("body length leaked into subject scoring: %q", res.Reason)
	}
}

func TestScoreThreshold(t *testing.T) {
	msg := "feat: add oauth login flow"

	if !WellFormed(msg, 7) {
		t.Error("want well-formed at threshold 7")
	}
	if WellFormed(msg, 11) {
		t.Error("nothing can reach a threshold above 10")
	}
	if !WellFormed("wip", 0) {
		t.Error("everything is well-formed at threshold 0")
	}
}

func TestScoreDeterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		a := Score("refactor(core): split the scheduler loop")
		b := Score("refactor(core): split the scheduler loop")
		if a != b {
			t.Fatalf("scoring not deterministic: %+v vs %+v", a, b)
		}
	}
}
