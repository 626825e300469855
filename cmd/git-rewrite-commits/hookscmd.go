package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/liuchzzyy/git-rewrite-commits/hooks"
	"github.com/liuchzzyy/git-rewrite-commits/repo"
)

type hooksCmd struct {
	*cobra.Command
}

func newHooksCmd() *hooksCmd {
	c := &hooksCmd{
		Command: &cobra.Command{
			Use:   "hooks",
			Short: "manage the commit-message git hooks",
			Args:  cobra.NoArgs,
		},
	}

	install := &cobra.Command{
		Use:   "install",
		Short: "install the prepare-commit-msg and pre-commit hooks",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			gitDir, err := resolveGitDir()
			if err != nil {
				return err
			}

			installed, err := hooks.Install(gitDir)
			if err != nil {
				return err
			}

			for _, name := range installed {
				fmt.Println("installed", name)
			}
			return nil
		},
	}

	uninstall := &cobra.Command{
		Use:   "uninstall",
		Short: "remove the hooks and restore any backed up ones",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			gitDir, err := resolveGitDir()
			if err != nil {
				return err
			}

			return hooks.Uninstall(gitDir)
		},
	}

	c.AddCommand(install, uninstall)

	return c
}

func resolveGitDir() (string, error) {
	r, err := repo.Open(".")
	if err != nil {
		return "", err
	}
	if r.Root() == "" {
		return "", fmt.Errorf("hooks need a repository with a worktree")
	}

	return filepath.Join(r.Root(), ".git"), nil
}
