package gitfetch

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/roach88/mlprov/internal/domain"
)

// commitFormat separates fields with NUL and records with RS so that
// subjects and bodies may hold any other byte.
const commitFormat = "--format=%H%x00%P%x00%an%x00%ae%x00%cn%x00%ce%x00%aI%x00%cI%x00%s%x00%B%x1e"

var shaLine = regexp.MustCompile(`^[0-9a-f]{40}$`)

// Fetcher extracts git facts from one repository.
type Fetcher struct {
	repo   *Repository
	logger *slog.Logger
}

// New returns a Fetcher for the repository at dir. A nil logger uses
// slog.Default.
func New(dir string, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{repo: NewRepository(dir), logger: logger}
}

// FetchAll returns every commit, added file and file revision reachable
// from any ref, in that order.
func (f *Fetcher) FetchAll(ctx context.Context) ([]domain.Fact, error) {
	commits, err := f.Commits(ctx)
	if err != nil {
		return nil, err
	}
	files, err := f.Files(ctx, commits)
	if err != nil {
		return nil, err
	}
	revisions, err := f.Revisions(ctx, files)
	if err != nil {
		return nil, err
	}
	f.logger.Info("fetched git history",
		"repository", f.repo.Dir(),
		"commits", len(commits),
		"files", len(files),
		"revisions", len(revisions))

	facts := make([]domain.Fact, 0, len(commits)+len(files)+len(revisions))
	for _, c := range commits {
		facts = append(facts, c)
	}
	for _, file := range files {
		facts = append(facts, file)
	}
	for _, r := range revisions {
		facts = append(facts, r)
	}
	return facts, nil
}

// Commits lists every commit of every ref, newest first.
func (f *Fetcher) Commits(ctx context.Context) ([]domain.Commit, error) {
	out, err := f.repo.Run(ctx, "log", "--all", commitFormat)
	if err != nil {
		return nil, err
	}
	var commits []domain.Commit
	for _, record := range strings.Split(out, "\x1e") {
		record = strings.TrimLeft(record, "\n")
		if record == "" {
			continue
		}
		c, err := parseCommit(record)
		if err != nil {
			return nil, err
		}
		commits = append(commits, c)
	}
	return commits, nil
}

func parseCommit(record string) (domain.Commit, error) {
	fields := strings.SplitN(record, "\x00", 10)
	if len(fields) != 10 {
		return domain.Commit{}, fmt.Errorf("malformed commit record %q", record)
	}
	authoredAt, err := time.Parse(time.RFC3339, fields[6])
	if err != nil {
		return domain.Commit{}, fmt.Errorf("commit %s: author date: %w", fields[0], err)
	}
	committedAt, err := time.Parse(time.RFC3339, fields[7])
	if err != nil {
		return domain.Commit{}, fmt.Errorf("commit %s: committer date: %w", fields[0], err)
	}
	author := domain.NewUser(fields[2], fields[3], "", domain.RoleAuthor)
	committer := domain.NewUser(fields[4], fields[5], "", domain.RoleCommitter)
	return domain.Commit{
		SHA:         fields[0],
		Parents:     strings.Fields(fields[1]),
		Author:      &author,
		Committer:   &committer,
		AuthoredAt:  authoredAt,
		CommittedAt: committedAt,
		Title:       fields[8],
		Message:     fields[9],
	}, nil
}

// Files lists the files each commit adds relative to its first parent.
// Root commits are diffed against the empty tree.
func (f *Fetcher) Files(ctx context.Context, commits []domain.Commit) ([]domain.File, error) {
	var files []domain.File
	for _, c := range commits {
		parent := domain.EmptyTreeSHA
		if len(c.Parents) > 0 {
			parent = c.Parents[0]
		}
		out, err := f.repo.Run(ctx, "diff-tree", "-r", "-z", "--name-status", "--diff-filter=A", parent, c.SHA)
		if err != nil {
			return nil, err
		}
		fields := strings.Split(strings.TrimSuffix(out, "\x00"), "\x00")
		for i := 0; i+1 < len(fields); i += 2 {
			files = append(files, domain.NewFile(fields[i+1], c.SHA))
		}
	}
	return files, nil
}

// Revisions follows every file through the history of all refs. Each
// revision links to the next older one as its previous revision.
func (f *Fetcher) Revisions(ctx context.Context, files []domain.File) ([]domain.FileRevision, error) {
	var out []domain.FileRevision
	for _, file := range files {
		log, err := f.repo.Run(ctx, "log", "--all", "--follow", "--name-status", "--pretty=format:%H", "--", file.Path)
		if err != nil {
			return nil, err
		}
		revisions := parseLog(log, file)
		for i := range revisions {
			if i+1 < len(revisions) {
				prev := revisions[i+1].Key()
				revisions[i].Previous = &prev
			}
		}
		out = append(out, revisions...)
	}
	return out, nil
}

// parseLog reads the sha and name-status lines printed by git log. The
// status is the first letter of the change code; the path is the last
// field, which is the new path of a rename.
func parseLog(log string, file domain.File) []domain.FileRevision {
	var revisions []domain.FileRevision
	var sha string
	for _, line := range strings.Split(log, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case shaLine.MatchString(line):
			sha = line
		case sha != "":
			fields := strings.Split(line, "\t")
			if len(fields) < 2 {
				continue
			}
			path := fields[len(fields)-1]
			f := file
			revisions = append(revisions, domain.FileRevision{
				Name:   domain.NewFile(path, sha).Name,
				Path:   path,
				Commit: sha,
				Status: domain.ChangeType(fields[0][:1]),
				File:   &f,
			})
			sha = ""
		}
	}
	return revisions
}
