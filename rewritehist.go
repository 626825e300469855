package gitrewrite

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

var (
	ErrDecisionCountMismatch = errors.New("decision count doesn't match commit count")
	ErrMergeCommit           = errors.New("merge commit in history")
)

// RewriteLinearHistory replays a linear history (oldest first, as produced by
// [GetLinearHistory]) into s, applying decisions positionally. Trees are never
// touched: every new commit reuses the tree hash of its original. The first
// commit keeps its original parent hashes; every later commit is parented on
// the commit produced just before it. This is inherently sequential, since
// each new hash is an input to the next commit.
//
// A leading run of Keep decisions is returned as the original commit objects,
// so their hashes (and signatures) survive; rebuilding only starts at the
// first substitution.
//
// No references are updated here; callers decide what to do with the new tip.
func RewriteLinearHistory(
	ctx context.Context,
	hist []*object.Commit,
	decisions []Decision,
	s storer.Storer,
) ([]*object.Commit, error) {
	if len(hist) != len(decisions) {
		return nil, fmt.Errorf("%w: %d decisions for %d commits", ErrDecisionCountMismatch, len(decisions), len(hist))
	}

	newhist := make([]*object.Commit, 0, len(hist))

	n := len(hist)
	changed := false

	for i, c := range hist {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if i > 0 && c.NumParents() != 1 {
			return nil, fmt.Errorf("%w: %s", ErrMergeCommit, c.Hash.String())
		}

		d := decisions[i]

		if !changed && !d.Replace {
			logger.Debug("keeping commit", "id", i, "total", n, "commit", c.Hash)
			newhist = append(newhist, c)
			continue
		}

		message := c.Message
		if d.Replace {
			message = d.Message
		}

		var parents []plumbing.Hash
		if i == 0 {
			parents = c.ParentHashes
		} else {
			parents = []plumbing.Hash{newhist[i-1].Hash}
		}

		newcommit, err := RewriteCommit(ctx, c, parents, message, s)
		if err != nil {
			return nil, fmt.Errorf("failed to rewrite commit at %d for %s: %w", i, c.Hash.String(), err)
		}

		changed = true

		logger.Debug("rewriting commit", "id", i, "total", n, "commit", c.Hash, "newcommit", newcommit.Hash)

		newhist = append(newhist, newcommit)
	}

	return newhist, nil
}
