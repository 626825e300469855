package gitrewrite

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// GetHash calculates the hash of a commit object without storing it anywhere.
func GetHash(c *object.Commit) (*plumbing.Hash, error) {
	obj := &plumbing.MemoryObject{}
	if err := c.Encode(obj); err != nil {
		return nil, err
	}

	h := obj.Hash()

	return &h, nil
}

// saveCommit encodes the commit into the storer. The hash calculated by the
// storer must match the hash already set on the commit.
func saveCommit(_ context.Context, c *object.Commit, s storer.Storer) error {
	obj := s.NewEncodedObject()
	if err := c.Encode(obj); err != nil {
		return err
	}

	saved, err := s.SetEncodedObject(obj)
	if err != nil {
		return err
	}

	if saved != c.Hash {
		return fmt.Errorf("saved commit hash %s doesn't match calculated hash %s", saved.String(), c.Hash.String())
	}

	return nil
}
