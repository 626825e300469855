// Package hooks installs the git hooks that generate a message for staged
// changes at commit time.
package hooks

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// marker identifies hook files written by this tool, so reinstalls overwrite
// them without backing them up again.
const marker = "# managed by git-rewrite-commits"

// hookArgs resolves per-repository overrides from git config and builds the
// argument list. Installing the hooks counts as consent for sending redacted
// staged diffs, hence --skip-remote-consent: hooks run with a non-interactive
// stdin and could never answer the prompt.
const hookArgs = `set -- --staged --quiet --skip-remote-consent
provider=$(git config hooks.commitProvider)
template=$(git config hooks.commitTemplate)
language=$(git config hooks.commitLanguage)
[ -n "$provider" ] && set -- "$@" --provider "$provider"
[ -n "$template" ] && set -- "$@" --template "$template"
[ -n "$language" ] && set -- "$@" --language "$language"`

const prepareCommitMsgHook = `#!/bin/sh
` + marker + `
#
# Fills the commit message with a generated one when the message is still
# empty. Merge, squash, amend, and -m commits are left alone ($2 is set).

if [ -n "$2" ]; then
	exit 0
fi

` + hookArgs + `

message=$(git-rewrite-commits "$@" 2>/dev/null)
if [ -n "$message" ]; then
	printf '%s\n' "$message" >"$1"
fi

exit 0
`

const preCommitHook = `#!/bin/sh
` + marker + `
#
# Prints a suggested message for the staged changes. Advisory only, never
# blocks the commit.

` + hookArgs + `

message=$(git-rewrite-commits "$@" 2>/dev/null)
if [ -n "$message" ]; then
	echo "suggested commit message: $message"
fi

exit 0
`

var templates = map[string]string{
	"prepare-commit-msg": prepareCommitMsgHook,
	"pre-commit":         preCommitHook,
}

// Install writes the hooks under gitDir/hooks. A foreign hook with the same
// name is preserved as <name>.backup before being replaced. It returns the
// names of the hooks written.
func Install(gitDir string) ([]string, error) {
	hooksDir := filepath.Join(gitDir, "hooks")
	if err := os.MkdirAll(hooksDir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create hooks dir: %w", err)
	}

	var installed []string
	for name, content := range templates {
		path := filepath.Join(hooksDir, name)

		if err := backupForeignHook(path); err != nil {
			return installed, err
		}
		if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
			return installed, fmt.Errorf("cannot write %s: %w", name, err)
		}

		installed = append(installed, name)
	}

	return installed, nil
}

// Uninstall removes hooks carrying the marker and restores any .backup file
// saved during installation.
func Uninstall(gitDir string) error {
	hooksDir := filepath.Join(gitDir, "hooks")

	for name := range templates {
		path := filepath.Join(hooksDir, name)

		ours, err := isManaged(path)
		if err != nil || !ours {
			continue
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("cannot remove %s: %w", name, err)
		}

		backup := path + ".backup"
		if _, err := os.Stat(backup); err == nil {
			if err := os.Rename(backup, path); err != nil {
				return fmt.Errorf("cannot restore %s: %w", name, err)
			}
		}
	}

	return nil
}

func backupForeignHook(path string) error {
	ours, err := isManaged(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if ours {
		return nil
	}

	if err := os.Rename(path, path+".backup"); err != nil {
		return fmt.Errorf("cannot back up existing hook %s: %w", filepath.Base(path), err)
	}

	return nil
}

func isManaged(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	return strings.Contains(string(data), marker), nil
}
