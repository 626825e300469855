package gitrewrite

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// RewriteCommit creates a new [object.Commit] in the given [storer.Storer] by
// copying the tree hash, author info, and committer info from the input
// commit, attaching the provided parent hashes, and setting the message.
// GPG sign information is dropped, since the rewritten content no longer
// matches the original signature.
//
// The message is normalized to end with a single trailing newline, the form
// git itself stores.
func RewriteCommit(
	ctx context.Context,
	c *object.Commit,
	parents []plumbing.Hash,
	message string,
	s storer.Storer,
) (*object.Commit, error) {
	if message != "" && !strings.HasSuffix(message, "\n") {
		message += "\n"
	}

	newcommit := &object.Commit{
		TreeHash:     c.TreeHash,
		Author:       c.Author,
		Committer:    c.Committer,
		Message:      message,
		ParentHashes: parents,
	}

	newhash, err := GetHash(newcommit)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain new hash for commit: %w", err)
	}

	newcommit.Hash = *newhash

	if err := saveCommit(ctx, newcommit, s); err != nil {
		return nil, fmt.Errorf("failed to save commit: %w", err)
	}

	return newcommit, nil
}
