package rewriter

import (
	"context"
	"fmt"

	"github.com/liuchzzyy/git-rewrite-commits/prompt"
	"github.com/liuchzzyy/git-rewrite-commits/repo"
)

// StagedRepository additionally exposes the index diff, used by the commit
// hooks.
type StagedRepository interface {
	Repository
	StagedChanges(ctx context.Context) (*repo.CommitRecord, error)
}

// GenerateForStaged produces a message for the currently staged changes. It
// never touches history; the hooks feed the result into the commit being
// created.
func (e *Engine) GenerateForStaged(ctx context.Context) (string, error) {
	staged, ok := e.repo.(StagedRepository)
	if !ok {
		return "", fmt.Errorf("repository does not expose staged changes")
	}

	record, err := staged.StagedChanges(ctx)
	if err != nil {
		return "", err
	}
	if len(record.Files) == 0 {
		return "", ErrNoStagedChanges
	}

	if err := e.confirmRemote(); err != nil {
		return "", err
	}

	projectContext := prompt.FindProjectContext(e.repo.Root())

	message, err := e.generate(ctx, record, projectContext)
	if err != nil {
		return "", err
	}
	if message == "" {
		return "", ErrNoStagedChanges
	}

	return message, nil
}
