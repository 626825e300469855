// Package redact scrubs credentials and other secrets from diff text before
// it leaves the local machine.
//
// Redaction is total and idempotent. Detectors prefer false positives over
// false negatives: anything that looks like a secret is replaced, without any
// attempt to validate that it is a live credential.
package redact

import (
	"regexp"
	"strings"
)

const (
	envSentinel  = "[.ENV FILE CONTENT COMPLETELY HIDDEN FOR SECURITY]"
	fileSentinel = "[SENSITIVE FILE CONTENT HIDDEN FOR SECURITY]"

	diffHeaderPrefix = "diff --git "
)

// envFilePattern matches anywhere in the path, so .envrc, .env.production,
// and files under a .env directory are all suppressed.
var envFilePattern = regexp.MustCompile(`(?i)\.env`)

// sensitiveFilePatterns match paths whose diff content is suppressed entirely,
// so nothing from those files is ever partially leaked.
var sensitiveFilePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\.pem$`),
	regexp.MustCompile(`(?i)\.key$`),
	regexp.MustCompile(`(?i)\.p12$`),
	regexp.MustCompile(`(?i)\.pfx$`),
	regexp.MustCompile(`(?i)id_rsa`),
	regexp.MustCompile(`(?i)credentials`),
	regexp.MustCompile(`(?i)secrets?\.(json|ya?ml|toml|ini)$`),
}

type substitution struct {
	pattern     *regexp.Regexp
	replacement string
}

var tokenSubstitutions = []substitution{
	// OpenAI-style API keys
	{regexp.MustCompile(`(['"]?)(sk-[a-zA-Z0-9]{32,}|sk_[a-zA-Z0-9_-]{32,})(['"]?)`), `${1}[REDACTED_OPENAI_KEY]${3}`},
	// GitHub tokens
	{regexp.MustCompile(`(['"]?)(ghp_[a-zA-Z0-9]{36,}|ghs_[a-zA-Z0-9]{36,}|gho_[a-zA-Z0-9]{36,})(['"]?)`), `${1}[REDACTED_GITHUB_TOKEN]${3}`},
	// Slack tokens
	{regexp.MustCompile(`(['"]?)(xox[pboa]-[a-zA-Z0-9-]{10,})(['"]?)`), `${1}[REDACTED_SLACK_TOKEN]${3}`},
	// AWS access keys
	{regexp.MustCompile(`AKIA[0-9A-Z]{16}`), `[REDACTED_AWS_ACCESS_KEY]`},
	// Stripe keys
	{regexp.MustCompile(`(['"]?)(sk_live_[a-zA-Z0-9]{24,}|pk_live_[a-zA-Z0-9]{24,}|sk_test_[a-zA-Z0-9]{24,}|pk_test_[a-zA-Z0-9]{24,})(['"]?)`), `${1}[REDACTED_STRIPE_KEY]${3}`},
	// PEM private key blocks
	{regexp.MustCompile(`(?s)-----BEGIN (RSA |DSA |EC |OPENSSH )?PRIVATE KEY-----.*?-----END (RSA |DSA |EC |OPENSSH )?PRIVATE KEY-----`), `[REDACTED_PRIVATE_KEY]`},
	// JWTs
	{regexp.MustCompile(`(['"]?)(eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+)(['"]?)`), `${1}[REDACTED_JWT_TOKEN]${3}`},
	// secret-looking assignments with a quoted value of 8+ characters
	{regexp.MustCompile(`(?i)(password|passwd|pwd|secret|api_key|apikey|auth_token|access_token|private_key)\s*[=:]\s*['"]([^'"]{8,})['"]`), `${1}=[REDACTED]`},
	// connection strings with embedded credentials
	{regexp.MustCompile(`(?i)(mongodb(\+srv)?|postgres(ql)?|mysql|redis)://[^@\s]+@[^\s]+`), `${1}://[REDACTED_CONNECTION_STRING]`},
	// bearer tokens
	{regexp.MustCompile(`(?i)Bearer\s+[a-zA-Z0-9_\-.]+`), `Bearer [REDACTED_TOKEN]`},
	// DeepSeek keys (hex variant of the OpenAI format)
	{regexp.MustCompile(`(['"]?)(sk-[a-f0-9]{48,})(['"]?)`), `${1}[REDACTED_DEEPSEEK_KEY]${3}`},
}

// Redact replaces sensitive content in diff text. Whole-file suppression runs
// first, so a hidden hunk is never partially leaked through a narrower token
// pattern; token-level substitution then covers the rest.
func Redact(text string) string {
	redacted := suppressSensitiveFiles(text)

	for _, sub := range tokenSubstitutions {
		redacted = sub.pattern.ReplaceAllString(redacted, sub.replacement)
	}

	return redacted
}

// suppressSensitiveFiles replaces the entire diff section of any file whose
// path matches a sensitive pattern with a fixed sentinel line.
func suppressSensitiveFiles(text string) string {
	if !strings.Contains(text, diffHeaderPrefix) {
		return text
	}

	var out strings.Builder

	for _, section := range splitDiffSections(text) {
		path := diffSectionPath(section)
		switch {
		case path == "":
			out.WriteString(section)
		case envFilePattern.MatchString(path):
			out.WriteString(envSentinel + "\n")
		case isSensitivePath(path):
			out.WriteString(fileSentinel + "\n")
		default:
			out.WriteString(section)
		}
	}

	return out.String()
}

// splitDiffSections cuts a unified diff at every "diff --git" header. Content
// before the first header, if any, is returned as its own section.
func splitDiffSections(text string) []string {
	lines := strings.SplitAfter(text, "\n")

	var sections []string
	var current strings.Builder

	for _, line := range lines {
		if strings.HasPrefix(line, diffHeaderPrefix) && current.Len() > 0 {
			sections = append(sections, current.String())
			current.Reset()
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		sections = append(sections, current.String())
	}

	return sections
}

var diffHeaderPattern = regexp.MustCompile(`^diff --git a/(.+) b/(.+)$`)

// diffSectionPath extracts the post-image path from a section's header line,
// or "" when the section doesn't start with a header.
func diffSectionPath(section string) string {
	header, _, _ := strings.Cut(section, "\n")

	m := diffHeaderPattern.FindStringSubmatch(header)
	if m == nil {
		return ""
	}

	return m[2]
}

func isSensitivePath(path string) bool {
	for _, p := range sensitiveFilePatterns {
		if p.MatchString(path) {
			return true
		}
	}

	return false
}
