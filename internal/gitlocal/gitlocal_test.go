package gitlocal

import (
	"context"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	t    *testing.T
	repo *git.Repository
	fs   billy.Filesystem
	wt   *git.Worktree
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fs := memfs.New()
	r, err := git.Init(memory.NewStorage(), fs)
	require.NoError(t, err)
	wt, err := r.Worktree()
	require.NoError(t, err)
	return &fixture{t: t, repo: r, fs: fs, wt: wt}
}

func (f *fixture) write(path, content string) {
	f.t.Helper()
	fh, err := f.fs.Create(path)
	require.NoError(f.t, err)
	_, err = fh.Write([]byte(content))
	require.NoError(f.t, err)
	require.NoError(f.t, fh.Close())
	_, err = f.wt.Add(path)
	require.NoError(f.t, err)
}

func (f *fixture) remove(path string) {
	f.t.Helper()
	_, err := f.wt.Remove(path)
	require.NoError(f.t, err)
}

func (f *fixture) commit(msg string) string {
	f.t.Helper()
	h, err := f.wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "ci", Email: "ci@example.com", When: time.Unix(1700000000, 0)},
	})
	require.NoError(f.t, err)
	return h.String()
}

func TestChangedFiles_ListsAddedModifiedAndDeleted(t *testing.T) {
	f := newFixture(t)
	f.write("a/Chart.yaml", "name: a\nversion: 1.0.0\n")
	f.write("b/values.yaml", "x: 1\n")
	f.write("old.txt", "bye\n")
	base := f.commit("base")

	f.write("a/Chart.yaml", "name: a\nversion: 1.0.1\n")
	f.write("c/Chart.yaml", "name: c\nversion: 0.1.0\n")
	f.remove("old.txt")
	head := f.commit("head")

	got, err := New(f.repo).ChangedFiles(context.Background(), base, head)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a/Chart.yaml", "c/Chart.yaml", "old.txt"}, got)
}

func TestChangedFiles_UnknownRevision(t *testing.T) {
	f := newFixture(t)
	f.write("a/Chart.yaml", "name: a\n")
	head := f.commit("only")

	_, err := New(f.repo).ChangedFiles(context.Background(), "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef", head)
	require.ErrorIs(t, err, ErrResolve)
}

func TestCreateTag_PointsAtSHA(t *testing.T) {
	f := newFixture(t)
	f.write("a/Chart.yaml", "name: a\n")
	first := f.commit("first")
	f.write("a/values.yaml", "x: 1\n")
	f.commit("second")

	r := New(f.repo)
	require.NoError(t, r.CreateTag(context.Background(), "a", "1.2.3", first))

	ref, err := f.repo.Reference(plumbing.NewTagReferenceName("a-1.2.3"), false)
	require.NoError(t, err)
	assert.Equal(t, first, ref.Hash().String())
}

func TestCreateTag_ExistingTagFails(t *testing.T) {
	f := newFixture(t)
	f.write("a/Chart.yaml", "name: a\n")
	sha := f.commit("first")

	r := New(f.repo)
	require.NoError(t, r.CreateTag(context.Background(), "a", "1.0.0", sha))
	err := r.CreateTag(context.Background(), "a", "1.0.0", sha)
	require.ErrorIs(t, err, ErrTagExists)
}

func TestCreateTag_EmptySHA(t *testing.T) {
	f := newFixture(t)
	f.write("a/Chart.yaml", "name: a\n")
	f.commit("first")

	err := New(f.repo).CreateTag(context.Background(), "a", "1.0.0", "")
	require.ErrorIs(t, err, ErrResolve)
}
