package repo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/diff"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// StagedChanges diffs the index against HEAD and returns the staged files and
// their unified diff as a record with a zero hash. An empty Files slice means
// nothing is staged.
func (r *Repo) StagedChanges(ctx context.Context) (*CommitRecord, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, err
	}

	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("cannot read status: %w", err)
	}

	var paths []string
	for path, s := range status {
		switch s.Staging {
		case git.Unmodified, git.Untracked:
		default:
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return &CommitRecord{}, nil
	}

	headTree, err := r.headTree()
	if err != nil {
		return nil, err
	}

	idx, err := r.repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("cannot read index: %w", err)
	}

	patch := &stagedPatch{}
	for _, path := range paths {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		fp, err := r.stagedFilePatch(headTree, idx, path)
		if err != nil {
			return nil, fmt.Errorf("cannot diff staged %s: %w", path, err)
		}
		patch.patches = append(patch.patches, fp)
	}

	var buf bytes.Buffer
	if err := fdiff.NewUnifiedEncoder(&buf, fdiff.DefaultContextLines).Encode(patch); err != nil {
		return nil, fmt.Errorf("cannot render staged diff: %w", err)
	}

	return &CommitRecord{
		Files: paths,
		Diff:  buf.String(),
	}, nil
}

// headTree returns HEAD's tree, or nil when the repository has no commits.
func (r *Repo) headTree() (*object.Tree, error) {
	head, err := r.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	commit, err := object.GetCommit(r.repo.Storer, head.Hash())
	if err != nil {
		return nil, err
	}

	return commit.Tree()
}

func (r *Repo) stagedFilePatch(headTree *object.Tree, idx indexReader, path string) (fdiff.FilePatch, error) {
	var from fdiff.File
	oldContent := ""
	if headTree != nil {
		if f, err := headTree.File(path); err == nil {
			oldContent, err = f.Contents()
			if err != nil {
				return nil, err
			}
			from = stagedFile{hash: f.Hash, mode: f.Mode, path: path}
		}
	}

	var to fdiff.File
	newContent := ""
	if entry, err := idx.Entry(path); err == nil {
		blob, err := r.repo.BlobObject(entry.Hash)
		if err != nil {
			return nil, err
		}
		rd, err := blob.Reader()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(rd)
		rd.Close()
		if err != nil {
			return nil, err
		}
		newContent = string(data)
		to = stagedFile{hash: entry.Hash, mode: entry.Mode, path: path}
	}

	var chunks []fdiff.Chunk
	for _, d := range diff.Do(oldContent, newContent) {
		op := fdiff.Equal
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = fdiff.Add
		case diffmatchpatch.DiffDelete:
			op = fdiff.Delete
		}
		chunks = append(chunks, stagedChunk{content: d.Text, op: op})
	}

	return stagedFilePatch{from: from, to: to, chunks: chunks}, nil
}

// indexReader is the slice of the go-git index we consume.
type indexReader interface {
	Entry(path string) (*index.Entry, error)
}

type stagedPatch struct {
	patches []fdiff.FilePatch
}

func (p *stagedPatch) FilePatches() []fdiff.FilePatch { return p.patches }

func (p *stagedPatch) Message() string { return "" }

type stagedFilePatch struct {
	from, to fdiff.File
	chunks   []fdiff.Chunk
}

func (p stagedFilePatch) IsBinary() bool { return false }

func (p stagedFilePatch) Files() (fdiff.File, fdiff.File) { return p.from, p.to }

func (p stagedFilePatch) Chunks() []fdiff.Chunk { return p.chunks }

type stagedFile struct {
	hash plumbing.Hash
	mode filemode.FileMode
	path string
}

func (f stagedFile) Hash() plumbing.Hash { return f.hash }

func (f stagedFile) Mode() filemode.FileMode { return f.mode }

func (f stagedFile) Path() string { return f.path }

type stagedChunk struct {
	content string
	op      fdiff.Operation
}

func (c stagedChunk) Content() string { return c.content }

func (c stagedChunk) Type() fdiff.Operation { return c.op }
