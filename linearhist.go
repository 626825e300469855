package gitrewrite

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/go-git/go-git/v5/plumbing/object"
)

// GetLinearHistory walks from head towards the root commit, always following
// the first parent, and returns the commits oldest first. The walk therefore
// matches the history from the git command with the "--first-parent"
// parameter.
//
// maxCount, when positive, bounds the result to the newest maxCount commits;
// any other value walks all the way to the root.
func GetLinearHistory(ctx context.Context, head *object.Commit, maxCount int) ([]*object.Commit, error) {
	if head == nil {
		return nil, nil
	}

	if maxCount <= 0 {
		maxCount = math.MaxInt
	}

	result := make([]*object.Commit, 0)

	current := head
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		result = append(result, current)

		if len(result) >= maxCount || current.NumParents() == 0 {
			break
		}

		p, err := current.Parent(0)
		if err != nil {
			return nil, fmt.Errorf("cannot get parent for %s: %w", current.Hash.String(), err)
		}

		current = p
	}

	slices.Reverse(result)

	return result, nil
}
