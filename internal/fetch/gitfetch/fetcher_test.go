package gitfetch

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mlprov/internal/domain"
)

// initRepo creates a repository with three commits: README added, README
// modified with main.go added, README deleted.
func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	git := func(args ...string) {
		t.Helper()
		command := exec.Command("git", append([]string{"-C", dir, "-c", "commit.gpgsign=false"}, args...)...)
		command.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=Alice",
			"GIT_AUTHOR_EMAIL=Alice@Example.org",
			"GIT_AUTHOR_DATE=2024-03-01T12:00:00Z",
			"GIT_COMMITTER_NAME=Bob",
			"GIT_COMMITTER_EMAIL=bob@example.org",
			"GIT_COMMITTER_DATE=2024-03-01T13:00:00Z",
		)
		if output, err := command.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, output)
		}
	}
	write := func(name, content string) {
		t.Helper()
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	git("init", "-q")
	write("README.md", "hello\n")
	git("add", "README.md")
	git("commit", "-q", "-m", "initial commit")

	write("README.md", "hello again\n")
	write("main.go", "package main\n")
	git("add", "README.md", "main.go")
	git("commit", "-q", "-m", "add main", "-m", "with a body")

	git("rm", "-q", "README.md")
	git("commit", "-q", "-m", "drop readme")
	return dir
}

func TestFetchAll(t *testing.T) {
	dir := initRepo(t)
	f := New(dir, nil)
	ctx := context.Background()

	commits, err := f.Commits(ctx)
	require.NoError(t, err)
	require.Len(t, commits, 3)

	newest, root := commits[0], commits[2]
	assert.Equal(t, "drop readme", newest.Title)
	assert.Empty(t, root.Parents)
	assert.Equal(t, []string{commits[1].SHA}, newest.Parents)
	require.NotNil(t, root.Author)
	assert.Equal(t, "Alice", root.Author.Name)
	assert.Equal(t, "alice@example.org", root.Author.Email)
	assert.Equal(t, domain.RoleAuthor, root.Author.Role)
	assert.Equal(t, "Bob", root.Committer.Name)
	assert.Equal(t, domain.RoleCommitter, root.Committer.Role)
	assert.Equal(t, 12, root.AuthoredAt.UTC().Hour())
	assert.Equal(t, 13, root.CommittedAt.UTC().Hour())
	assert.Contains(t, commits[1].Message, "with a body")

	files, err := f.Files(ctx, commits)
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.File{
		domain.NewFile("README.md", root.SHA),
		domain.NewFile("main.go", commits[1].SHA),
	}, files)

	revisions, err := f.Revisions(ctx, files)
	require.NoError(t, err)
	var readme []domain.FileRevision
	for _, r := range revisions {
		if r.Path == "README.md" {
			readme = append(readme, r)
		}
	}
	require.Len(t, readme, 3)
	assert.Equal(t, []domain.ChangeType{domain.ChangeDeleted, domain.ChangeModified, domain.ChangeAdded},
		[]domain.ChangeType{readme[0].Status, readme[1].Status, readme[2].Status})
	require.NotNil(t, readme[0].Previous)
	assert.Equal(t, readme[1].Key(), *readme[0].Previous)
	assert.Nil(t, readme[2].Previous)
	require.NotNil(t, readme[0].File)
	assert.Equal(t, root.SHA, readme[0].File.Commit)

	facts, err := f.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, facts, 3+2+4)
}

func TestFetchAllFailsOutsideRepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	_, err := New(t.TempDir(), nil).FetchAll(context.Background())
	assert.Error(t, err)
}

func TestParseLog(t *testing.T) {
	file := domain.NewFile("old.txt", "c1")
	sha1 := "1111111111111111111111111111111111111111"
	sha2 := "2222222222222222222222222222222222222222"
	sha3 := "3333333333333333333333333333333333333333"
	log := sha1 + "\n\nR100\told.txt\tdir/new.txt\n" + sha3 + "\n" + sha2 + "\n\nA\told.txt\n"

	revisions := parseLog(log, file)

	require.Len(t, revisions, 2)
	assert.Equal(t, "dir/new.txt", revisions[0].Path)
	assert.Equal(t, "new.txt", revisions[0].Name)
	assert.Equal(t, domain.ChangeType("R"), revisions[0].Status)
	assert.Equal(t, sha2, revisions[1].Commit, "merge commit without changes is skipped")
	assert.Equal(t, domain.ChangeAdded, revisions[1].Status)
}
