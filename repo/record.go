package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// CommitRecord is one commit flattened to what message generation needs.
type CommitRecord struct {
	Hash plumbing.Hash
	// Subject is the first line of Message.
	Subject string
	Message string
	Files   []string
	Diff    string
}

// Record extracts the diff of c against its first parent. Root commits diff
// against the empty tree.
func (r *Repo) Record(ctx context.Context, c *object.Commit) (*CommitRecord, error) {
	to, err := c.Tree()
	if err != nil {
		return nil, fmt.Errorf("cannot read tree of %s: %w", c.Hash.String(), err)
	}

	var from *object.Tree
	if c.NumParents() > 0 {
		parent, err := c.Parent(0)
		if err != nil {
			return nil, fmt.Errorf("cannot read parent of %s: %w", c.Hash.String(), err)
		}
		from, err = parent.Tree()
		if err != nil {
			return nil, fmt.Errorf("cannot read parent tree of %s: %w", c.Hash.String(), err)
		}
	}

	changes, err := object.DiffTreeWithOptions(ctx, from, to, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, fmt.Errorf("cannot diff %s: %w", c.Hash.String(), err)
	}

	files := make([]string, 0, len(changes))
	for _, change := range changes {
		name := change.To.Name
		if name == "" {
			name = change.From.Name
		}
		files = append(files, name)
	}

	patch, err := changes.PatchContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot render patch for %s: %w", c.Hash.String(), err)
	}

	subject, _, _ := strings.Cut(c.Message, "\n")

	return &CommitRecord{
		Hash:    c.Hash,
		Subject: strings.TrimSpace(subject),
		Message: c.Message,
		Files:   files,
		Diff:    patch.String(),
	}, nil
}
