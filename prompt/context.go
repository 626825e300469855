package prompt

import (
	"os"
	"path/filepath"
	"strings"
)

// contextFileName is the project guideline file whose content, when present,
// is prepended to every generated prompt.
const contextFileName = "COMMIT_MESSAGE.md"

// FindProjectContext looks for the guideline file in the repository root,
// the .git directory, and the .github directory, in that order. Absence is
// not an error; the first readable file wins.
func FindProjectContext(repoRoot string) string {
	if repoRoot == "" {
		return ""
	}

	candidates := []string{
		filepath.Join(repoRoot, contextFileName),
		filepath.Join(repoRoot, ".git", contextFileName),
		filepath.Join(repoRoot, ".github", contextFileName),
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		return strings.TrimSpace(string(data))
	}

	return ""
}
