package factcache

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mlprov/internal/domain"
)

func openCache(t *testing.T) (*Cache, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "facts.db")
	c, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, path
}

func gitFacts() []domain.Fact {
	author := domain.NewUser("Alice", "alice@example.com", "", domain.RoleAuthor)
	at := time.Date(2024, 3, 1, 12, 30, 0, 123456789, time.UTC)
	file := domain.NewFile("src/train.py", "c1")
	rev := domain.FileRevision{Name: "train.py", Path: "src/train.py", Commit: "c1", Status: domain.ChangeAdded, File: &file}
	return []domain.Fact{
		domain.Commit{SHA: "c1", Title: "init", Message: "init\n", Author: &author, Committer: &author, AuthoredAt: at, CommittedAt: at},
		file,
		rev,
	}
}

func trackingFacts() []domain.Fact {
	start := time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)
	return []domain.Fact{
		domain.Experiment{ExperimentID: "1", Name: "baseline", LifecycleStage: domain.LifecycleActive, CreatedAt: start},
		domain.Run{
			RunID:        "r1",
			ExperimentID: "1",
			Status:       domain.RunFinished,
			StartTime:    start,
			Metrics:      []domain.Metric{{RunID: "r1", Name: "loss", Value: 0.25, Timestamp: start, Step: 3}},
			Params:       []domain.Param{{RunID: "r1", Name: "lr", Value: "0.1"}},
		},
		domain.RegisteredModel{
			Name:      "clf",
			CreatedAt: start,
			Versions:  []domain.RegisteredModelVersion{{Name: "clf", Version: "1", Stage: domain.StageProduction, RunID: "r1", Status: "READY"}},
		},
	}
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	_, path := openCache(t)

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facts.db")
	for i := 0; i < 3; i++ {
		c, err := Open(path)
		require.NoError(t, err, "iteration %d", i)
		require.NoError(t, c.Close())
	}
}

func TestOpen_Pragmas(t *testing.T) {
	c, _ := openCache(t)

	assert.NoError(t, c.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, c.verifyPragma("foreign_keys", "1"))
	assert.NoError(t, c.verifyPragma("user_version", "2"))
}

func TestOpen_MigratesVersionOne(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facts.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE snapshots (source TEXT NOT NULL, location TEXT NOT NULL, fetched_at TEXT NOT NULL, fact_count INTEGER NOT NULL, PRIMARY KEY (source, location));
		CREATE TABLE facts (source TEXT NOT NULL, location TEXT NOT NULL, seq INTEGER NOT NULL, kind TEXT NOT NULL, payload BLOB NOT NULL, PRIMARY KEY (source, location, seq));
		PRAGMA user_version = 1;
	`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	c, err := Open(path)
	require.NoError(t, err)
	defer c.Close()

	var name string
	err = c.db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'index' AND name = 'idx_facts_kind'`).Scan(&name)
	require.NoError(t, err)
	assert.NoError(t, c.verifyPragma("user_version", "2"))
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facts.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`PRAGMA user_version = 99`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = Open(path)
	assert.ErrorContains(t, err, "newer than supported")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	c, _ := openCache(t)
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, SourceGit, "/repo", gitFacts()))
	require.NoError(t, c.Save(ctx, SourceMLflow, "http://localhost:5000", trackingFacts()))

	got, err := c.Load(ctx, SourceGit, "/repo")
	require.NoError(t, err)
	assert.Equal(t, gitFacts(), got)

	got, err = c.Load(ctx, SourceMLflow, "http://localhost:5000")
	require.NoError(t, err)
	assert.Equal(t, trackingFacts(), got)
}

func TestSaveReplacesSnapshot(t *testing.T) {
	c, _ := openCache(t)
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, SourceGit, "/repo", gitFacts()))
	require.NoError(t, c.Save(ctx, SourceGit, "/repo", gitFacts()[:1]))

	got, err := c.Load(ctx, SourceGit, "/repo")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	var n int
	require.NoError(t, c.db.QueryRow(`SELECT COUNT(*) FROM facts`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestLoadMiss(t *testing.T) {
	c, _ := openCache(t)

	_, err := c.Load(context.Background(), SourceMLflow, "http://nowhere")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestEmptySnapshotIsNotAMiss(t *testing.T) {
	c, _ := openCache(t)
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, SourceGit, "/empty", nil))
	got, err := c.Load(ctx, SourceGit, "/empty")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSaveRejectsUnsupportedFact(t *testing.T) {
	c, _ := openCache(t)
	ctx := context.Background()

	err := c.Save(ctx, SourceMLflow, "u", []domain.Fact{domain.Metric{RunID: "r1", Name: "loss"}})
	require.ErrorIs(t, err, ErrUnsupportedFact)

	_, err = c.Load(ctx, SourceMLflow, "u")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestSnapshots(t *testing.T) {
	c, _ := openCache(t)
	c.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, SourceMLflow, "http://b", trackingFacts()))
	require.NoError(t, c.Save(ctx, SourceGit, "/a", gitFacts()))

	got, err := c.Snapshots(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Snapshot{
		{Source: SourceGit, Location: "/a", FetchedAt: c.now(), Facts: 3},
		{Source: SourceMLflow, Location: "http://b", FetchedAt: c.now(), Facts: 3},
	}, got)
}

func TestEncodingIsDeterministic(t *testing.T) {
	for _, f := range trackingFacts() {
		_, a, err := encodeFact(f)
		require.NoError(t, err)
		_, b, err := encodeFact(f)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}
