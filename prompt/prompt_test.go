package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuildDefaultPrompt(t *testing.T) {
	got := Build(Input{
		Diff:       "diff --git a/a.go b/a.go\n+func A() {}\n",
		Files:      []string{"a.go"},
		OldMessage: "wip",
		Language:   "en",
	})

	for _, want := range []string{
		`Old commit message: "wip"`,
		"Files changed:\na.go",
		"<type>(<scope>): <subject>",
		"Write the commit message in English.",
		"Return ONLY the commit message, nothing else.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q:\n%s", want, got)
		}
	}
}

func TestBuildTruncatesDiff(t *testing.T) {
	got := Build(Input{
		Diff:     strings.Repeat("x", 20000),
		Language: "en",
	})

	if !strings.Contains(got, strings.Repeat("x", maxDiffBytes)) {
		t.Error("truncated diff shorter than the byte budget")
	}
	if strings.Contains(got, strings.Repeat("x", maxDiffBytes+1)) {
		t.Errorf("diff not truncated to %d bytes", maxDiffBytes)
	}
}

func TestBuildEmptyFileList(t *testing.T) {
	got := Build(Input{Language: "en"})

	if !strings.Contains(got, "(no files)") {
		t.Error("missing placeholder for an empty file list")
	}
}

func TestBuildCustomInstructionTakesPrecedence(t *testing.T) {
	got := Build(Input{
		Diff:     "+x\n",
		Language: "en",
		Custom:   "summarize the change in pirate speak",
	})

	if !strings.Contains(got, "then summarize the change in pirate speak") {
		t.Errorf("custom instruction missing:\n%s", got)
	}
	if strings.Contains(got, "<type>(<scope>): <subject>") {
		t.Error("default rules leaked into a custom-instruction prompt")
	}
	if !strings.Contains(got, "Return ONLY the commit message, nothing else.") {
		t.Error("missing final directive")
	}
}

func TestBuildTemplateFormat(t *testing.T) {
	got := Build(Input{
		Diff:     "+x\n",
		Language: "en",
		Template: "[JIRA-123] feat: message",
	})

	if !strings.Contains(got, "Follow this EXACT format: [JIRA-123] feat: message") {
		t.Errorf("template directive missing:\n%s", got)
	}
}

func TestBuildProjectContext(t *testing.T) {
	got := Build(Input{
		Diff:     "+x\n",
		Language: "en",
		Context:  "Always mention the ticket number.",
	})

	if !strings.Contains(got, "Project-specific guidelines:\nAlways mention the ticket number.") {
		t.Errorf("context section missing:\n%s", got)
	}
}

func TestLanguageInstruction(t *testing.T) {
	cases := map[string]string{
		"en":    "Write the commit message in English.",
		"ZH-CN": "Write the commit message in Simplified Chinese.",
		"ja":    "Write the commit message in Japanese.",
		"tlh":   "Write the commit message in tlh.",
	}

	for code, want := range cases {
		if got := LanguageInstruction(code); got != want {
			t.Errorf("LanguageInstruction(%q): want %q, got %q", code, want, got)
		}
	}
}

func TestParseTemplate(t *testing.T) {
	cases := []struct {
		template string
		want     parsedTemplate
	}{
		{"(feat): message", parsedTemplate{Prefix: "(feat)", Separator: ": ", Example: "message"}},
		{"[JIRA-123] feat: message", parsedTemplate{Prefix: "[JIRA", Separator: "-", Example: "123] feat: message"}},
		{"plain text", parsedTemplate{Separator: ": ", Example: "plain text"}},
	}

	for _, tc := range cases {
		if diff := cmp.Diff(tc.want, parseTemplate(tc.template), cmp.AllowUnexported(parsedTemplate{})); diff != "" {
			t.Errorf("parseTemplate(%q) (-want +got):\n%s", tc.template, diff)
		}
	}
}

func TestFindProjectContext(t *testing.T) {
	root := t.TempDir()

	if got := FindProjectContext(root); got != "" {
		t.Errorf("want empty context for missing file, got %q", got)
	}
	if got := FindProjectContext(""); got != "" {
		t.Errorf("want empty context for empty root, got %q", got)
	}

	if err := os.MkdirAll(filepath.Join(root, ".github"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, ".github", contextFileName), []byte("from github dir\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if got := FindProjectContext(root); got != "from github dir" {
		t.Errorf("want .github fallback content, got %q", got)
	}

	// the repository root wins over .github
	if err := os.WriteFile(filepath.Join(root, contextFileName), []byte("from root\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := FindProjectContext(root); got != "from root" {
		t.Errorf("want root content, got %q", got)
	}
}
