package gitrewrite

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/google/go-cmp/cmp"
)

var testSignature = object.Signature{
	Name:  "tester",
	Email: "tester@example.com",
	When:  time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
}

func saveBlob(t *testing.T, s storer.Storer, content string) plumbing.Hash {
	t.Helper()

	obj := s.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)

	w, err := obj.Writer()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	h, err := s.SetEncodedObject(obj)
	if err != nil {
		t.Fatal(err)
	}

	return h
}

func saveTree(t *testing.T, s storer.Storer, files map[string]string) plumbing.Hash {
	t.Helper()

	entries := make([]object.TreeEntry, 0, len(files))
	for name, content := range files {
		entries = append(entries, object.TreeEntry{
			Name: name,
			Mode: filemode.Regular,
			Hash: saveBlob(t, s, content),
		})
	}

	// go-git refuses to encode a tree whose entries are not in canonical
	// order, and map iteration order is random.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	tree := &object.Tree{Entries: entries}
	obj := s.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		t.Fatal(err)
	}

	h, err := s.SetEncodedObject(obj)
	if err != nil {
		t.Fatal(err)
	}

	return h
}

// addCommit stores one commit with the given files and message, parented on
// parent when non-nil.
func addCommit(t *testing.T, s storer.Storer, files map[string]string, message string, parent *object.Commit) *object.Commit {
	t.Helper()

	c := &object.Commit{
		Author:    testSignature,
		Committer: testSignature,
		Message:   message,
		TreeHash:  saveTree(t, s, files),
	}
	if parent != nil {
		c.ParentHashes = []plumbing.Hash{parent.Hash}
	}

	h, err := GetHash(c)
	if err != nil {
		t.Fatal(err)
	}
	c.Hash = *h

	if err := saveCommit(context.Background(), c, s); err != nil {
		t.Fatal(err)
	}

	saved, err := object.GetCommit(s, c.Hash)
	if err != nil {
		t.Fatal(err)
	}

	return saved
}

// threeCommitHistory builds root -> middle -> tip and returns them oldest
// first together with their storage.
func threeCommitHistory(t *testing.T) (*memory.Storage, []*object.Commit) {
	t.Helper()

	s := memory.NewStorage()
	c1 := addCommit(t, s, map[string]string{"a.txt": "one\n"}, "wip\n", nil)
	c2 := addCommit(t, s, map[string]string{"a.txt": "one\n", "b.txt": "two\n"}, "feat: add parser\n", c1)
	c3 := addCommit(t, s, map[string]string{"a.txt": "one\n", "b.txt": "three\n"}, "fix bug\n", c2)

	return s, []*object.Commit{c1, c2, c3}
}

func TestGetLinearHistory(t *testing.T) {
	_, hist := threeCommitHistory(t)

	got, err := GetLinearHistory(context.Background(), hist[2], 0)
	if err != nil {
		t.Fatal(err)
	}

	want := []plumbing.Hash{hist[0].Hash, hist[1].Hash, hist[2].Hash}
	gothashes := make([]plumbing.Hash, 0, len(got))
	for _, c := range got {
		gothashes = append(gothashes, c.Hash)
	}

	if diff := cmp.Diff(want, gothashes); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestGetLinearHistory_maxCount(t *testing.T) {
	_, hist := threeCommitHistory(t)

	got, err := GetLinearHistory(context.Background(), hist[2], 2)
	if err != nil {
		t.Fatal(err)
	}

	if len(got) != 2 {
		t.Fatalf("want 2 commits, got %d", len(got))
	}
	if got[0].Hash != hist[1].Hash || got[1].Hash != hist[2].Hash {
		t.Fatalf("want newest two commits oldest first, got %v %v", got[0].Hash, got[1].Hash)
	}
}

func TestGetLinearHistory_nilHead(t *testing.T) {
	got, err := GetLinearHistory(context.Background(), nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("want nil history for nil head, got %v", got)
	}
}
