// Command git-rewrite-commits rewrites the commit messages of a branch with
// generated ones, keeping every tree intact.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/liuchzzyy/git-rewrite-commits/cache"
	"github.com/liuchzzyy/git-rewrite-commits/config"
	"github.com/liuchzzyy/git-rewrite-commits/provider"
	"github.com/liuchzzyy/git-rewrite-commits/repo"
	"github.com/liuchzzyy/git-rewrite-commits/rewriter"
	"github.com/liuchzzyy/git-rewrite-commits/ui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootCmd struct {
	*cobra.Command

	providerKind string
	apiKey       string
	model        string
	ollamaURL    string

	branch     string
	maxCommits int
	dryRun     bool
	skipBackup bool

	skipWellFormed  bool
	minQualityScore int

	template     string
	language     string
	customPrompt string

	staged            bool
	skipRemoteConsent bool
	assumeYes         bool

	repoURL string
	push    bool

	cachePath string

	quiet   bool
	verbose bool
}

func newRootCmd() *rootCmd {
	c := &rootCmd{
		Command: &cobra.Command{
			Use:   "git-rewrite-commits",
			Short: "rewrite commit messages with generated ones, trees untouched",
			Args:  cobra.NoArgs,

			SilenceUsage:  true,
			SilenceErrors: true,
		},
		skipWellFormed:  true,
		minQualityScore: 7,
		language:        "en",
	}

	c.Flags().StringVar(&c.providerKind, "provider", c.providerKind, "model backend: openai, deepseek, anthropic, or ollama")
	c.Flags().StringVarP(&c.apiKey, "api-key", "k", c.apiKey, "api key, defaults to the backend's environment variable")
	c.Flags().StringVarP(&c.model, "model", "m", c.model, "model id, defaults to the backend's default")
	c.Flags().StringVar(&c.ollamaURL, "ollama-url", c.ollamaURL, "ollama server address")

	c.Flags().StringVarP(&c.branch, "branch", "b", c.branch, "branch to rewrite, defaults to the current branch")
	c.Flags().IntVar(&c.maxCommits, "max-commits", c.maxCommits, "only scan the newest N commits, 0 scans all")
	c.Flags().BoolVarP(&c.dryRun, "dry-run", "d", c.dryRun, "show what would change without rewriting")
	c.Flags().BoolVar(&c.skipBackup, "skip-backup", c.skipBackup, "do not create a backup branch")

	c.Flags().BoolVar(&c.skipWellFormed, "skip-well-formed", c.skipWellFormed, "leave already well-formed messages alone")
	c.Flags().IntVar(&c.minQualityScore, "min-quality-score", c.minQualityScore, "score a message needs to count as well formed")

	c.Flags().StringVarP(&c.template, "template", "t", c.template, "message format template, e.g. \"[JIRA-123] feat: message\"")
	c.Flags().StringVarP(&c.language, "language", "l", c.language, "message language code, e.g. en or zh-cn")
	c.Flags().StringVarP(&c.customPrompt, "prompt", "p", c.customPrompt, "custom generation instruction replacing the default rules")

	c.Flags().BoolVar(&c.staged, "staged", c.staged, "generate a message for the staged changes and print it")
	c.Flags().BoolVar(&c.skipRemoteConsent, "skip-remote-consent", c.skipRemoteConsent, "do not ask before sending redacted diffs to a hosted backend")
	c.Flags().BoolVarP(&c.assumeYes, "yes", "y", c.assumeYes, "answer yes to the dirty-worktree and apply confirmations")

	c.Flags().StringVar(&c.repoURL, "repo", c.repoURL, "operate on a remote repository url instead of the working directory")
	c.Flags().BoolVar(&c.push, "push", c.push, "force-push the rewritten branch back to the remote (with --repo)")

	c.Flags().StringVar(&c.cachePath, "cache", c.cachePath, "path to a message cache database")

	c.Flags().BoolVarP(&c.quiet, "quiet", "q", c.quiet, "only print warnings, errors, and requested output")
	c.Flags().BoolVarP(&c.verbose, "verbose", "v", c.verbose, "print per-commit detail")

	c.AddCommand(newHooksCmd().Command)

	c.RunE = func(cmd *cobra.Command, _ []string) error {
		return c.run(cmd.Context())
	}

	return c
}

func (c *rootCmd) Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := c.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "error:", err)
	}

	return err
}

func (c *rootCmd) setupLogging() {
	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func (c *rootCmd) run(ctx context.Context) error {
	c.setupLogging()

	repository, pusher, root, err := c.openRepository(ctx)
	if err != nil {
		return err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return fmt.Errorf("cannot load configuration: %w", err)
	}

	opts := c.buildOptions(cfg)

	gen, err := provider.New(c.providerConfig(cfg))
	if err != nil {
		return err
	}

	var messageCache rewriter.MessageCache
	if c.cachePath != "" {
		db, err := cache.Open(c.cachePath)
		if err != nil {
			return fmt.Errorf("cannot open cache: %w", err)
		}
		defer db.Close()
		messageCache = db
	}

	console := ui.NewConsole(os.Stdout, c.quiet, c.verbose)

	engine := rewriter.New(rewriter.Deps{
		Repo:      repository,
		Generator: gen,
		Cache:     messageCache,
		Pusher:    pusher,
		Console:   console,
		Prompter:  ui.NewPrompter(os.Stdin, os.Stderr),
	}, opts)

	if c.staged {
		return c.runStaged(ctx, engine)
	}

	result, err := engine.Run(ctx)
	if errors.Is(err, rewriter.ErrConsentDeclined) {
		console.Infof("aborted, nothing changed")
		return nil
	}
	if err != nil {
		return err
	}

	c.printSummary(console, result)

	return nil
}

func (c *rootCmd) runStaged(ctx context.Context, engine *rewriter.Engine) error {
	message, err := engine.GenerateForStaged(ctx)
	if errors.Is(err, rewriter.ErrNoStagedChanges) && c.quiet {
		// hooks call this on every commit; stay silent when idle
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Println(message)

	return nil
}

// openRepository returns the repository to operate on, an optional pusher for
// remote mode, and the worktree root for config and context lookup.
func (c *rootCmd) openRepository(ctx context.Context) (rewriter.Repository, rewriter.Pusher, string, error) {
	if c.repoURL == "" {
		r, err := repo.Open(".")
		if err != nil {
			return nil, nil, "", err
		}
		return r, nil, r.Root(), nil
	}

	branch := c.branch
	if branch == "" {
		branch = "main"
	}
	c.branch = branch

	ws, err := repo.OpenRemote(ctx, c.repoURL, branch)
	if err != nil {
		return nil, nil, "", err
	}

	var pusher rewriter.Pusher
	if c.push {
		pusher = ws
	}

	return ws, pusher, "", nil
}

// buildOptions layers defaults, the config file, and explicitly set flags, in
// that order.
func (c *rootCmd) buildOptions(cfg *config.File) rewriter.Options {
	opts := rewriter.DefaultOptions()

	if cfg.Language != "" {
		opts.Language = cfg.Language
	}
	if cfg.Template != "" {
		opts.Template = cfg.Template
	}
	if cfg.MinQualityScore != nil {
		opts.MinQualityScore = *cfg.MinQualityScore
	}
	if cfg.SkipWellFormed != nil {
		opts.SkipWellFormed = *cfg.SkipWellFormed
	}
	opts.SkipRemoteConsent = cfg.SkipRemoteConsent

	opts.Branch = c.branch
	opts.MaxCommits = c.maxCommits
	opts.DryRun = c.dryRun
	opts.SkipBackup = c.skipBackup
	opts.CustomPrompt = c.customPrompt

	flags := c.Flags()
	if flags.Changed("language") {
		opts.Language = c.language
	}
	if flags.Changed("template") {
		opts.Template = c.template
	}
	if flags.Changed("min-quality-score") {
		opts.MinQualityScore = c.minQualityScore
	}
	if flags.Changed("skip-well-formed") {
		opts.SkipWellFormed = c.skipWellFormed
	}
	if c.skipRemoteConsent {
		opts.SkipRemoteConsent = true
	}
	// quiet runs cannot answer prompts, so quiet counts as pre-confirmed
	// for everything except remote-send consent
	if c.assumeYes || c.quiet {
		opts.AssumeYes = true
	}

	return opts
}

func (c *rootCmd) providerConfig(cfg *config.File) provider.Config {
	pc := provider.Config{
		Kind:    c.providerKind,
		APIKey:  c.apiKey,
		Model:   c.model,
		BaseURL: c.ollamaURL,
	}

	if pc.Kind == "" {
		pc.Kind = cfg.Provider
	}
	if pc.Kind == "" {
		pc.Kind = "openai"
	}
	if pc.APIKey == "" {
		pc.APIKey = cfg.APIKey
	}
	if pc.Model == "" {
		pc.Model = cfg.Model
	}
	if pc.BaseURL == "" {
		pc.BaseURL = cfg.OllamaURL
	}

	return pc
}

func (c *rootCmd) printSummary(console *ui.Console, result *rewriter.Result) {
	if result.DryRun {
		for _, p := range result.Proposals {
			switch {
			case p.Err != nil:
				console.Errorf("%s  failed: %v", shortHash(p), p.Err)
			case p.NewMessage != "":
				console.Infof("%s  %q -> %q", shortHash(p), p.OldSubject, firstLine(p.NewMessage))
			default:
				console.Verbosef("%s  kept: %s", shortHash(p), p.OldSubject)
			}
		}
	}

	console.Infof("scanned %d commits on %s: %d improved, %d kept, %d failed",
		result.Total, result.Branch, result.Improved, result.Skipped, result.Failed)

	if result.BackupRef != "" {
		console.Infof("original history saved in branch %s", result.BackupRef)
	}
	if result.PushError != nil {
		console.Errorf("local rewrite succeeded but push failed: %v", result.PushError)
	}
}

func shortHash(p rewriter.Proposal) string {
	return p.Hash.String()[:8]
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
