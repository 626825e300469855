// Package rewriter orchestrates a history rewrite: enumerate the branch's
// linear history, decide per commit whether the message needs replacing,
// generate replacements from redacted diffs, and replay the chain.
//
// The engine is deliberately fail-soft per commit: a generation error keeps
// that commit's original message and the run continues.
package rewriter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	gitrewrite "github.com/liuchzzyy/git-rewrite-commits"
	"github.com/liuchzzyy/git-rewrite-commits/cache"
	"github.com/liuchzzyy/git-rewrite-commits/prompt"
	"github.com/liuchzzyy/git-rewrite-commits/quality"
	"github.com/liuchzzyy/git-rewrite-commits/redact"
	"github.com/liuchzzyy/git-rewrite-commits/repo"
	"github.com/liuchzzyy/git-rewrite-commits/ui"
)

var (
	// ErrConsentDeclined indicates the user answered no to a confirmation.
	ErrConsentDeclined = errors.New("consent declined")
	// ErrNoStagedChanges indicates staged-message generation found an empty
	// index.
	ErrNoStagedChanges = errors.New("no staged changes")
	// ErrNoBranch indicates no branch could be resolved to operate on.
	ErrNoBranch = errors.New("no branch to rewrite")
)

// Repository is the slice of the git layer the engine drives.
type Repository interface {
	CurrentBranch() (string, error)
	Checkout(branch string) error
	HasUncommittedChanges() (bool, error)
	ListCommits(ctx context.Context, branch string, maxCount int) ([]*object.Commit, error)
	Record(ctx context.Context, c *object.Commit) (*repo.CommitRecord, error)
	CreateBackupRef(branch string) (string, error)
	DeleteBranch(name string) error
	RewriteHistory(ctx context.Context, branch string, hist []*object.Commit, decisions []gitrewrite.Decision) (plumbing.Hash, error)
	Root() string
}

// Generator produces a commit message from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt, system string) (string, error)
	Name() string
	Remote() bool
}

// MessageCache memoizes generated messages. A nil cache disables memoization.
type MessageCache interface {
	Get(key []byte) (string, error)
	Put(key []byte, message string) error
}

// Pusher pushes the rewritten branch to a remote after a successful local
// rewrite. A nil pusher means local-only.
type Pusher interface {
	Push(ctx context.Context) error
}

// Options tunes one rewrite run.
type Options struct {
	// Branch to rewrite; empty means the current branch.
	Branch string
	// MaxCommits bounds the scan to the newest N commits; 0 scans all.
	MaxCommits int
	DryRun     bool
	SkipBackup bool

	// SkipWellFormed leaves commits alone whose message already scores at
	// least MinQualityScore.
	SkipWellFormed  bool
	MinQualityScore int

	Language     string
	Template     string
	CustomPrompt string

	// SkipRemoteConsent suppresses the confirmation before sending redacted
	// diffs to a hosted backend.
	SkipRemoteConsent bool

	// AssumeYes pre-confirms the dirty-worktree and apply questions, for
	// quiet and scripted runs. It does not cover remote-send consent.
	AssumeYes bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		SkipWellFormed:  true,
		MinQualityScore: quality.DefaultMinScore,
		Language:        "en",
	}
}

// Proposal is the outcome for one scanned commit.
type Proposal struct {
	Hash       plumbing.Hash
	OldSubject string
	// NewMessage is empty when the original message is kept.
	NewMessage string
	Skipped    bool
	// Reason explains a skip, e.g. the quality verdict.
	Reason string
	// Err is the generation failure that forced a keep, nil otherwise.
	Err error
}

// Result summarizes a run.
type Result struct {
	Branch    string
	BackupRef string

	Total    int
	Skipped  int
	Improved int
	Failed   int

	Proposals []Proposal

	// Applied is true when the branch was actually moved.
	Applied bool
	DryRun  bool
	NewTip  plumbing.Hash

	// PushError records a failed remote push; the local rewrite stands.
	PushError error
}

// Deps are the engine's collaborators. Repo and Generator are required.
type Deps struct {
	Repo      Repository
	Generator Generator
	Cache     MessageCache
	Pusher    Pusher
	Console   *ui.Console
	Prompter  ui.Prompter
}

// Engine runs rewrites with a fixed set of collaborators.
type Engine struct {
	repo     Repository
	gen      Generator
	cache    MessageCache
	pusher   Pusher
	console  *ui.Console
	prompter ui.Prompter
	opts     Options
}

func New(deps Deps, opts Options) *Engine {
	console := deps.Console
	if console == nil {
		console = ui.NewConsole(io.Discard, true, false)
	}
	prompter := deps.Prompter
	if prompter == nil {
		prompter = declineAll{}
	}

	return &Engine{
		repo:     deps.Repo,
		gen:      deps.Generator,
		cache:    deps.Cache,
		pusher:   deps.Pusher,
		console:  console,
		prompter: prompter,
		opts:     opts,
	}
}

// declineAll answers no to everything, the safe default when no prompter is
// wired.
type declineAll struct{}

func (declineAll) Confirm(string) (bool, error) { return false, nil }

// Run scans the branch and, unless this is a dry run, replays the improved
// history onto it.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	branch, err := e.resolveBranch()
	if err != nil {
		return nil, err
	}

	result := &Result{Branch: branch, DryRun: e.opts.DryRun}

	if err := e.confirmRemote(); err != nil {
		return nil, err
	}

	hist, err := e.repo.ListCommits(ctx, branch, e.opts.MaxCommits)
	if err != nil && e.opts.Branch != "" && errors.Is(err, repo.ErrRefNotFound) {
		// a missing requested branch is not fatal, fall back to HEAD's branch
		e.console.Warnf("branch %s not found, using the current branch", branch)
		branch, err = e.repo.CurrentBranch()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoBranch, err)
		}
		result.Branch = branch
		hist, err = e.repo.ListCommits(ctx, branch, e.opts.MaxCommits)
	}
	if err != nil {
		return nil, err
	}
	e.checkoutRequested(branch)
	result.Total = len(hist)
	if len(hist) == 0 {
		e.console.Infof("no commits on %s", branch)
		return result, nil
	}

	if err := e.confirmDirtyWorktree(); err != nil {
		return nil, err
	}

	if !e.opts.DryRun && !e.opts.SkipBackup {
		name, err := e.repo.CreateBackupRef(branch)
		if err != nil {
			return nil, fmt.Errorf("cannot create backup: %w", err)
		}
		result.BackupRef = name
		e.console.Infof("backup created: %s", name)
	}

	projectContext := prompt.FindProjectContext(e.repo.Root())

	decisions := make([]gitrewrite.Decision, 0, len(hist))
	for _, c := range hist {
		proposal := e.scanCommit(ctx, c, projectContext)
		result.Proposals = append(result.Proposals, proposal)

		switch {
		case proposal.Err != nil:
			result.Failed++
			decisions = append(decisions, gitrewrite.Keep())
		case proposal.NewMessage == "":
			result.Skipped++
			decisions = append(decisions, gitrewrite.Keep())
		default:
			result.Improved++
			decisions = append(decisions, gitrewrite.Replace(proposal.NewMessage))
		}
	}

	if result.Improved == 0 {
		e.console.Infof("all %d messages kept, nothing to rewrite", result.Total)
		e.dropBackup(result)
		return result, nil
	}

	if e.opts.DryRun {
		e.console.Infof("dry run: %d of %d messages would be rewritten", result.Improved, result.Total)
		return result, nil
	}

	if !e.opts.AssumeYes {
		ok, err := e.prompter.Confirm(fmt.Sprintf("Rewrite %d of %d commits on %s?", result.Improved, result.Total, branch))
		if err != nil {
			return nil, err
		}
		if !ok {
			e.dropBackup(result)
			return nil, ErrConsentDeclined
		}
	}

	tip, err := e.repo.RewriteHistory(ctx, branch, hist, decisions)
	if err != nil {
		if result.BackupRef != "" {
			return nil, fmt.Errorf("rewrite failed, original history preserved in %s: %w", result.BackupRef, err)
		}
		return nil, fmt.Errorf("rewrite failed, branch left untouched: %w", err)
	}

	result.Applied = true
	result.NewTip = tip
	e.console.Successf("rewrote %d of %d commits on %s", result.Improved, result.Total, branch)

	if e.pusher != nil {
		if err := e.pusher.Push(ctx); err != nil {
			result.PushError = err
			e.console.Errorf("push failed: %v", err)
		} else {
			e.console.Successf("pushed %s", branch)
		}
	}

	return result, nil
}

func (e *Engine) resolveBranch() (string, error) {
	if e.opts.Branch != "" {
		return e.opts.Branch, nil
	}

	branch, err := e.repo.CurrentBranch()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoBranch, err)
	}

	return branch, nil
}

// confirmRemote gates sending diffs off-machine. Redaction runs regardless;
// this is about the diffs leaving at all.
func (e *Engine) confirmRemote() error {
	if !e.gen.Remote() || e.opts.SkipRemoteConsent {
		return nil
	}

	ok, err := e.prompter.Confirm(fmt.Sprintf("Send redacted diffs to %s?", e.gen.Name()))
	if err != nil {
		return err
	}
	if !ok {
		return ErrConsentDeclined
	}

	return nil
}

func (e *Engine) confirmDirtyWorktree() error {
	dirty, err := e.repo.HasUncommittedChanges()
	if err != nil {
		return err
	}
	if !dirty {
		return nil
	}

	e.console.Warnf("worktree has uncommitted changes")
	if e.opts.AssumeYes {
		return nil
	}

	ok, err := e.prompter.Confirm("Continue anyway?")
	if err != nil {
		return err
	}
	if !ok {
		return ErrConsentDeclined
	}

	return nil
}

// checkoutRequested switches the worktree to an explicitly requested branch,
// matching what a user would do by hand before rewriting it. Failure is only
// a warning; refs are rewritten directly either way.
func (e *Engine) checkoutRequested(branch string) {
	if e.opts.Branch == "" || branch != e.opts.Branch {
		return
	}

	current, err := e.repo.CurrentBranch()
	if err != nil || current == branch {
		return
	}

	if err := e.repo.Checkout(branch); err != nil {
		e.console.Warnf("cannot check out %s: %v", branch, err)
		return
	}
	e.console.Verbosef("checked out %s", branch)
}

func (e *Engine) dropBackup(result *Result) {
	if result.BackupRef == "" {
		return
	}
	if err := e.repo.DeleteBranch(result.BackupRef); err != nil {
		e.console.Warnf("cannot remove backup %s: %v", result.BackupRef, err)
		return
	}
	result.BackupRef = ""
}

// scanCommit decides what happens to one commit. Any failure keeps the
// original message and is reported in the proposal.
func (e *Engine) scanCommit(ctx context.Context, c *object.Commit, projectContext string) Proposal {
	record, err := e.repo.Record(ctx, c)
	if err != nil {
		return Proposal{Hash: c.Hash, Err: err}
	}

	proposal := Proposal{Hash: record.Hash, OldSubject: record.Subject}

	if e.opts.SkipWellFormed {
		verdict := quality.ScoreWithThreshold(record.Subject, e.opts.MinQualityScore)
		if verdict.WellFormed {
			proposal.Skipped = true
			proposal.Reason = verdict.Reason
			e.console.Verbosef("%s kept (%s)", shortHash(record.Hash), verdict.Reason)
			return proposal
		}
		proposal.Reason = verdict.Reason
	}

	message, err := e.generate(ctx, record, projectContext)
	if err != nil {
		proposal.Err = err
		e.console.Errorf("%s generation failed, keeping original: %v", shortHash(record.Hash), err)
		return proposal
	}

	if message == "" || message == record.Subject {
		proposal.Skipped = true
		proposal.Reason = "no improvement"
		return proposal
	}

	proposal.NewMessage = message + "\n"
	e.console.Verbosef("%s %q -> %q", shortHash(record.Hash), record.Subject, message)

	return proposal
}

// generate builds the prompt for one record and asks the backend, going
// through the cache when one is wired and the record has a real hash.
func (e *Engine) generate(ctx context.Context, record *repo.CommitRecord, projectContext string) (string, error) {
	input := prompt.Input{
		Diff:       redact.Redact(record.Diff),
		Files:      record.Files,
		OldMessage: record.Subject,
		Template:   e.opts.Template,
		Language:   e.opts.Language,
		Custom:     e.opts.CustomPrompt,
		Context:    projectContext,
	}
	p := prompt.Build(input)

	cacheable := e.cache != nil && !record.Hash.IsZero()
	var key []byte
	if cacheable {
		key = cache.Key(record.Hash, p)
		if cached, err := e.cache.Get(key); err == nil && cached != "" {
			return cached, nil
		}
	}

	message, err := e.gen.Generate(ctx, p, prompt.SystemPrompt)
	if err != nil {
		return "", err
	}
	message = cleanMessage(message)

	if cacheable && message != "" {
		if err := e.cache.Put(key, message); err != nil {
			e.console.Warnf("cannot cache message for %s: %v", shortHash(record.Hash), err)
		}
	}

	return message, nil
}

// cleanMessage strips code fences and wrapping quotes models like to add.
func cleanMessage(message string) string {
	message = strings.TrimSpace(message)

	if strings.HasPrefix(message, "```") {
		message = strings.TrimPrefix(message, "```")
		if i := strings.Index(message, "\n"); i >= 0 && !strings.ContainsAny(message[:i], " \t") {
			// drop a language tag on the opening fence
			message = message[i+1:]
		}
		message = strings.TrimSuffix(strings.TrimSpace(message), "```")
		message = strings.TrimSpace(message)
	}

	if len(message) >= 2 {
		for _, q := range []string{`"`, "'", "`"} {
			if strings.HasPrefix(message, q) && strings.HasSuffix(message, q) {
				message = strings.TrimSpace(message[1 : len(message)-1])
				break
			}
		}
	}

	return message
}

func shortHash(h plumbing.Hash) string {
	return h.String()[:8]
}
