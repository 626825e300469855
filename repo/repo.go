// Package repo wraps go-git with the operations the rewriter needs: walking a
// branch's linear history, extracting per-commit diffs, staging inspection,
// backup refs, and replaying a rewritten chain back onto the branch.
package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	gitrewrite "github.com/liuchzzyy/git-rewrite-commits"
)

var (
	// ErrNotARepository indicates the path is not inside a git repository.
	ErrNotARepository = errors.New("not a git repository")
	// ErrRefNotFound indicates the requested branch or reference is missing.
	ErrRefNotFound = errors.New("reference not found")
	// ErrDetachedHead indicates HEAD does not point at a branch.
	ErrDetachedHead = errors.New("detached HEAD")
)

// Repo is a handle on one repository, local or in-memory.
type Repo struct {
	repo *git.Repository
	// root is the worktree path, empty for bare or in-memory repositories.
	root string
}

// Open discovers the repository containing path, searching parent directories
// the way git itself does.
func Open(path string) (*Repo, error) {
	r, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("%w: %s", ErrNotARepository, path)
	}
	if err != nil {
		return nil, err
	}

	root := ""
	if wt, err := r.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}

	return &Repo{repo: r, root: root}, nil
}

// Root returns the worktree path, empty when there is no worktree.
func (r *Repo) Root() string {
	return r.root
}

// CurrentBranch returns the short name of the branch HEAD points at.
func (r *Repo) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", fmt.Errorf("%w: HEAD", ErrRefNotFound)
	}
	if err != nil {
		return "", err
	}

	if !head.Name().IsBranch() {
		return "", ErrDetachedHead
	}

	return head.Name().Short(), nil
}

// Checkout switches the worktree to branch. Repositories without a worktree
// have nothing to switch and return nil.
func (r *Repo) Checkout(branch string) error {
	wt, err := r.repo.Worktree()
	if errors.Is(err, git.ErrIsBareRepository) {
		return nil
	}
	if err != nil {
		return err
	}

	return wt.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
	})
}

// HasUncommittedChanges reports whether the worktree or index differs from
// HEAD. Repositories without a worktree report false.
func (r *Repo) HasUncommittedChanges() (bool, error) {
	wt, err := r.repo.Worktree()
	if errors.Is(err, git.ErrIsBareRepository) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	status, err := wt.Status()
	if err != nil {
		return false, err
	}

	return !status.IsClean(), nil
}

// BranchTip resolves a branch name to its tip commit.
func (r *Repo) BranchTip(branch string) (*object.Commit, error) {
	ref, err := r.repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, fmt.Errorf("%w: branch %s", ErrRefNotFound, branch)
	}
	if err != nil {
		return nil, err
	}

	return object.GetCommit(r.repo.Storer, ref.Hash())
}

// ListCommits walks the branch's first-parent history and returns the commits
// oldest first. maxCount, when positive, keeps only the newest maxCount.
func (r *Repo) ListCommits(ctx context.Context, branch string, maxCount int) ([]*object.Commit, error) {
	tip, err := r.BranchTip(branch)
	if err != nil {
		return nil, err
	}

	return gitrewrite.GetLinearHistory(ctx, tip, maxCount)
}

// CreateBackupRef snapshots the branch tip under a timestamped backup branch
// and returns its name.
func (r *Repo) CreateBackupRef(branch string) (string, error) {
	tip, err := r.BranchTip(branch)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("backup-%s-%d", branch, time.Now().Unix())
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), tip.Hash)
	if err := r.repo.Storer.SetReference(ref); err != nil {
		return "", fmt.Errorf("cannot create backup ref %s: %w", name, err)
	}

	return name, nil
}

// DeleteBranch removes a local branch reference.
func (r *Repo) DeleteBranch(name string) error {
	return r.repo.Storer.RemoveReference(plumbing.NewBranchReferenceName(name))
}

// RewriteHistory replays hist with the given decisions and, only after the
// whole chain is built, points branch at the new tip. A failure partway
// through leaves dangling objects but never moves the branch.
func (r *Repo) RewriteHistory(
	ctx context.Context,
	branch string,
	hist []*object.Commit,
	decisions []gitrewrite.Decision,
) (plumbing.Hash, error) {
	newhist, err := gitrewrite.RewriteLinearHistory(ctx, hist, decisions, r.repo.Storer)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if len(newhist) == 0 {
		return plumbing.ZeroHash, fmt.Errorf("%w: empty history for %s", ErrRefNotFound, branch)
	}

	tip := newhist[len(newhist)-1].Hash
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(branch), tip)
	if err := r.repo.Storer.SetReference(ref); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("cannot update %s: %w", branch, err)
	}

	return tip, nil
}
