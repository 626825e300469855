package repo

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/memory"
)

const (
	remoteName          = "origin"
	fetchSpecBranch     = "+refs/heads/%s:refs/remotes/origin/%[1]s"
	pushSpecForceBranch = "+refs/heads/%s:refs/heads/%[1]s"
)

// Workspace is a remote repository cloned into memory. Rewrites happen on the
// in-memory copy; nothing reaches the remote until Push.
type Workspace struct {
	*Repo
	branch string
	auth   *githttp.BasicAuth
}

// tokenAuth builds basic auth from GITHUB_TOKEN or GIT_TOKEN. Anonymous access
// is used when neither is set.
func tokenAuth() *githttp.BasicAuth {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		token = os.Getenv("GIT_TOKEN")
	}
	if token == "" {
		return nil
	}

	return &githttp.BasicAuth{Username: "git", Password: token}
}

// OpenRemote fetches a single branch of url into an in-memory repository.
func OpenRemote(ctx context.Context, url, branch string) (*Workspace, error) {
	storage := memory.NewStorage()

	r, err := git.InitWithOptions(storage, nil, git.InitOptions{
		DefaultBranch: plumbing.NewBranchReferenceName(branch),
	})
	if err != nil {
		return nil, fmt.Errorf("cannot init workspace: %w", err)
	}

	spec := fmt.Sprintf(fetchSpecBranch, branch)
	if _, err := r.CreateRemote(&config.RemoteConfig{
		Name:  remoteName,
		URLs:  []string{url},
		Fetch: []config.RefSpec{config.RefSpec(spec)},
	}); err != nil {
		return nil, fmt.Errorf("cannot create remote: %w", err)
	}

	auth := tokenAuth()

	if err := r.FetchContext(ctx, &git.FetchOptions{
		RemoteName: remoteName,
		RefSpecs:   []config.RefSpec{config.RefSpec(spec)},
		Auth:       auth,
	}); err != nil {
		return nil, fmt.Errorf("cannot fetch %s from %s: %w", branch, url, err)
	}

	remoteRef, err := storage.Reference(plumbing.NewRemoteReferenceName(remoteName, branch))
	if err != nil {
		return nil, fmt.Errorf("%w: branch %s on %s", ErrRefNotFound, branch, url)
	}

	local := plumbing.NewHashReference(plumbing.NewBranchReferenceName(branch), remoteRef.Hash())
	if err := storage.SetReference(local); err != nil {
		return nil, fmt.Errorf("cannot set local branch %s: %w", branch, err)
	}

	return &Workspace{
		Repo:   &Repo{repo: r},
		branch: branch,
		auth:   auth,
	}, nil
}

// Branch returns the branch this workspace tracks.
func (w *Workspace) Branch() string {
	return w.branch
}

// Push force-pushes the rewritten branch back to the remote. Rewritten history
// never fast-forwards, so the refspec is forced.
func (w *Workspace) Push(ctx context.Context) error {
	spec := fmt.Sprintf(pushSpecForceBranch, w.branch)

	err := w.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remoteName,
		RefSpecs:   []config.RefSpec{config.RefSpec(spec)},
		Auth:       w.auth,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("cannot push %s: %w", w.branch, err)
	}

	return nil
}
