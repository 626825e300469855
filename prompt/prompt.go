// Package prompt composes the text sent to a model backend when generating a
// commit message.
//
// Composition is a pure function of its input: the (already redacted) diff,
// the changed files, the original message, and the caller's formatting
// preferences. The diff is truncated to a fixed byte budget to bound request
// size and cost.
package prompt

import (
	"fmt"
	"strings"
)

// SystemPrompt is the system turn sent with every generation request.
const SystemPrompt = "You are a helpful assistant that generates clear, conventional git commit messages."

// maxDiffBytes bounds how much diff text is embedded in a prompt.
const maxDiffBytes = 8000

const defaultFormatInstructions = `1. Follows the format: <type>(<scope>): <subject>
2. Types can be: feat, fix, docs, style, refactor, test, chore, perf, ci, build, revert
3. Scope is optional but recommended (e.g., auth, api, ui)
4. All should be in lowercase`

// Input carries everything a prompt is built from. Diff is expected to be
// redacted already.
type Input struct {
	Diff       string
	Files      []string
	OldMessage string

	// Template is a custom message format, e.g. "(feat): message".
	Template string
	// Language is a short code such as "en" or "zh-cn".
	Language string
	// Custom replaces the default rule set with a caller-supplied
	// instruction, producing a minimal prompt.
	Custom string
	// Context is project-specific guideline text, prepended when non-empty.
	Context string
}

// Build renders the full user prompt. It always ends with an instruction to
// return only the message itself.
func Build(in Input) string {
	diff := in.Diff
	if len(diff) > maxDiffBytes {
		diff = diff[:maxDiffBytes]
	}

	files := strings.Join(in.Files, "\n")
	if files == "" {
		files = "(no files)"
	}

	var contextSection string
	if in.Context != "" {
		contextSection = fmt.Sprintf("Project-specific guidelines:\n%s\n\n", in.Context)
	}

	language := LanguageInstruction(in.Language)

	if in.Custom != "" {
		var templateLine string
		if in.Template != "" {
			templateLine = fmt.Sprintf("Format: %s", in.Template)
		}

		return fmt.Sprintf(`You are a git commit message generator. Analyze the following git diff and file changes, then %s

%sOld commit message: %q

Files changed:
%s

Git diff (truncated if too long, sensitive data redacted):
%s

%s
%s

Return ONLY the commit message, nothing else.`,
			in.Custom, contextSection, in.OldMessage, files, diff, templateLine, language)
	}

	return fmt.Sprintf(`You are a git commit message generator. Analyze the following git diff and file changes, then generate a clear, concise commit message.

%sOld commit message: %q

Files changed:
%s

Git diff (truncated if too long, sensitive data redacted):
%s

Generate a commit message that:
%s
5. Subject should be clear and descriptive
6. Be concise but informative
7. Focus on WHAT was changed and WHY, not HOW
8. Use present tense ("add" not "added")
9. Don't end with a period
10. Maximum 72 characters for the first line
11. Lowercase the first letter
12. %s

Return ONLY the commit message, nothing else. No explanations, just the message.`,
		contextSection, in.OldMessage, files, diff, formatInstructions(in.Template), language)
}

// formatInstructions derives the numbered format rules, either from a custom
// template or from the default conventional-commit rule set.
func formatInstructions(template string) string {
	if template == "" {
		return defaultFormatInstructions
	}

	parsed := parseTemplate(template)
	if parsed.Prefix != "" {
		return fmt.Sprintf(`Follow this EXACT format: %s
Where the message part should describe what was changed.
Example: If template is "(feat): message", generate something like "(feat): add user authentication"
Example: If template is "[JIRA-XXX] type: message", generate something like "[JIRA-123] fix: resolve null pointer exception"`, template)
	}

	return fmt.Sprintf("Use this format as a guide: %s", template)
}
