package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mlprov/internal/domain"
	"github.com/roach88/mlprov/internal/factcache"
	"github.com/roach88/mlprov/internal/prov"
	"github.com/roach88/mlprov/internal/provfmt"
)

type run struct {
	stdout, stderr bytes.Buffer
	err            error
}

func execute(t *testing.T, stdin string, args ...string) *run {
	t.Helper()
	r := &run{}
	r.err = Execute(context.Background(), args, Streams{
		In:  strings.NewReader(stdin),
		Out: &r.stdout,
		Err: &r.stderr,
	})
	return r
}

func people(names ...string) *prov.Document {
	ns := prov.DefaultNamespace()
	doc := prov.NewDocument()
	for _, n := range names {
		doc.AddElement(domain.NewUser(n, strings.ToLower(n)+"@example.test", "", domain.RoleAuthor).Element(ns))
	}
	return doc
}

func writeDoc(t *testing.T, path string, doc *prov.Document) {
	t.Helper()
	require.NoError(t, provfmt.WriteFile(path, doc, provfmt.FormatJSON, false))
}

func TestSplitStages(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want [][]string
	}{
		{
			name: "flag value named like a stage",
			args: []string{"extract", "-r", ".", "save", "-o", "merge", "merge"},
			want: [][]string{{"extract", "-r", "."}, {"save", "-o", "merge"}, {"merge"}},
		},
		{
			name: "inline value and bool flag",
			args: []string{"load", "--input=save", "save", "--overwrite", "merge", "--output", "x"},
			want: [][]string{{"load", "--input=save"}, {"save", "--overwrite"}, {"merge", "--output", "x"}},
		},
		{
			name: "single stage",
			args: []string{"statistics"},
			want: [][]string{{"statistics"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segments, err := splitStages(&pipeline{}, tt.args)
			require.NoError(t, err)

			var got [][]string
			for _, seg := range segments {
				got = append(got, append([]string{seg.cmd.Name()}, seg.args...))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitStagesUnknownStage(t *testing.T) {
	_, err := splitStages(&pipeline{}, []string{"publish"})
	assert.Equal(t, ExitUsage, ExitCode(err))
	assert.ErrorContains(t, err, `unknown stage "publish"`)
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown stage", []string{"bogus"}},
		{"unknown global flag", []string{"--nope", "merge"}},
		{"missing required flag", []string{"save"}},
		{"unknown save format", []string{"save", "-o", "x", "-f", "yaml"}},
		{"unknown resolution", []string{"statistics", "--resolution", "medium"}},
		{"unknown statistics format", []string{"statistics", "--format", "xml"}},
		{"positional argument", []string{"merge", "extra"}},
		{"unknown stage flag", []string{"load", "-i", "x", "--unknown"}},
		{"validate without config", []string{"--validate"}},
		{"config with stages", []string{"--config", "p.yaml", "merge"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := execute(t, "", tt.args...)
			require.Error(t, r.err)
			assert.Equal(t, ExitUsage, ExitCode(r.err), r.err.Error())
		})
	}
}

func TestBadStageFlagsRunNothing(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")

	r := execute(t, "", "load", "-i", "-", "save", "-o", out, "statistics", "--resolution", "medium")
	assert.Equal(t, ExitUsage, ExitCode(r.err))

	_, err := os.Stat(out + ".json")
	assert.True(t, os.IsNotExist(err), "save ran although a later stage was invalid")
}

func TestNoStagesPrintsHelp(t *testing.T) {
	r := execute(t, "")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout.String(), "Stages:")
}

func TestStageHelp(t *testing.T) {
	r := execute(t, "", "merge", "save", "--help")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout.String(), "--overwrite")
}

func TestLoadTransformMergeSaveStatistics(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "in", "nested"), 0o755))
	writeDoc(t, filepath.Join(dir, "in", "a.json"), people("Alice"))
	writeDoc(t, filepath.Join(dir, "in", "nested", "b.json"), people("Bob", "Alice"))
	out := filepath.Join(dir, "graph")

	r := execute(t, "",
		"load", "--input", filepath.Join(dir, "in", "**", "*.json"),
		"merge",
		"transform", "--use-pseudonyms",
		"save", "--format", "json", "--format", "provn", "--output", out,
		"statistics", "--format", "csv",
	)
	require.NoError(t, r.err, r.stderr.String())

	assert.Equal(t, "Record Type, Count\nAgent, 2\nRelations, 0\n", r.stdout.String())
	for _, ext := range []string{".json", ".provn"} {
		doc, err := provfmt.ReadFile(out + ext)
		require.NoError(t, err)
		assert.Len(t, doc.Elements(), 2)
		for _, e := range doc.Elements() {
			assert.NotContains(t, e.ID.LocalPart, "Alice")
		}
	}
}

func TestSaveNumbersDocuments(t *testing.T) {
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.json"), filepath.Join(dir, "b.json")
	writeDoc(t, a, people("Alice"))
	writeDoc(t, b, people("Bob"))
	out := filepath.Join(dir, "out")

	r := execute(t, "", "load", "-i", a, "-i", b, "save", "-o", out, "-f", "dot")
	require.NoError(t, r.err)

	for _, name := range []string{"out-1.dot", "out-2.dot"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestSaveRefusesExistingFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.json")
	writeDoc(t, in, people("Alice"))

	r := execute(t, "", "load", "-i", in, "save", "-o", filepath.Join(dir, "in"))
	assert.Equal(t, ExitFailure, ExitCode(r.err))
	assert.ErrorIs(t, r.err, provfmt.ErrFileExists)

	r = execute(t, "", "load", "-i", in, "save", "-o", filepath.Join(dir, "in"), "--overwrite")
	assert.NoError(t, r.err)
}

func TestStdoutToStdin(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.json")
	writeDoc(t, in, people("Alice", "Bob"))

	first := execute(t, "", "load", "-i", in, "save", "-o", "-", "-f", "xml")
	require.NoError(t, first.err)

	second := execute(t, first.stdout.String(), "load", "-i", "-", "statistics", "--format", "csv")
	require.NoError(t, second.err)
	assert.Equal(t, "Record Type, Count\nAgent, 2\nRelations, 0\n", second.stdout.String())
}

func TestLoadFailures(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.json")
	require.NoError(t, os.WriteFile(garbage, []byte("not a document"), 0o644))

	r := execute(t, "", "load", "-i", garbage)
	assert.Equal(t, ExitFailure, ExitCode(r.err))
	var derr *provfmt.DeserializeError
	assert.ErrorAs(t, r.err, &derr)

	r = execute(t, "", "load", "-i", filepath.Join(dir, "**", "*.xml"))
	assert.ErrorContains(t, r.err, "no files match pattern")
}

func TestMetricsFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.json")
	writeDoc(t, in, people("Alice"))
	metrics := filepath.Join(dir, "mlprov.prom")

	r := execute(t, "", "load", "-i", in, "-i", in, "statistics", "--metrics-file", metrics)
	require.NoError(t, r.err)

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), `mlprov_records{record_type="Agent"} 1`)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.json")
	writeDoc(t, in, people("Alice"))
	out := filepath.Join(dir, "out")
	cfg := filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
- load:
    input: [`+in+`]
- transform:
    eliminate-duplicates: true
    use-pseudonyms: false
- save:
    format: provn
    output: `+out+`
`), 0o644))

	r := execute(t, "", "--config", cfg, "--validate")
	require.NoError(t, r.err)
	assert.Equal(t, "Validation successful, no errors\n", r.stdout.String())
	_, err := os.Stat(out + ".provn")
	assert.True(t, os.IsNotExist(err), "--validate ran the pipeline")

	r = execute(t, "", "--config", cfg)
	require.NoError(t, r.err, r.stderr.String())
	_, err = os.Stat(out + ".provn")
	assert.NoError(t, err)
}

func TestInvalidConfigFile(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("- save:\n    format: yaml\n"), 0o644))

	r := execute(t, "", "--config", cfg, "--validate")
	assert.Equal(t, ExitUsage, ExitCode(r.err))
	assert.ErrorContains(t, r.err, "config validation failed")
}

func TestExtractFromCache(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	repo := filepath.Join(dir, "repo")
	require.NoError(t, os.Mkdir(repo, 0o755))
	abs, err := filepath.Abs(repo)
	require.NoError(t, err)
	const trackingURI = "http://tracking.invalid:5000"

	cachePath := filepath.Join(dir, "facts.db")
	cache, err := factcache.Open(cachePath)
	require.NoError(t, err)
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	author := domain.NewUser("Alice", "alice@example.test", "", domain.RoleAuthor)
	file := domain.NewFile("train.py", "c1")
	require.NoError(t, cache.Save(ctx, factcache.SourceGit, abs, []domain.Fact{
		domain.Commit{SHA: "c0", Title: "init", Author: &author, Committer: &author, AuthoredAt: at, CommittedAt: at},
		domain.Commit{SHA: "c1", Title: "train", Parents: []string{"c0"}, Author: &author, Committer: &author, AuthoredAt: at, CommittedAt: at},
		file,
		domain.FileRevision{Name: "train.py", Path: "train.py", Commit: "c1", Status: domain.ChangeAdded, File: &file},
	}))
	require.NoError(t, cache.Save(ctx, factcache.SourceMLflow, trackingURI, []domain.Fact{
		domain.Experiment{ExperimentID: "1", Name: "baseline", LifecycleStage: domain.LifecycleActive, CreatedAt: at},
	}))
	require.NoError(t, cache.Close())

	r := execute(t, "", "-v",
		"extract", "--repository-path", repo, "--mlflow-url", trackingURI, "--cache", cachePath,
		"statistics", "--format", "csv")
	require.NoError(t, r.err, r.stderr.String())

	assert.Contains(t, r.stdout.String(), "Activity, ")
	assert.Contains(t, r.stdout.String(), "Entity, ")
	assert.Contains(t, r.stderr.String(), "using cached facts")
	assert.Contains(t, r.stderr.String(), "run_id=")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCode(nil))
	assert.Equal(t, ExitFailure, ExitCode(assert.AnError))
	assert.Equal(t, ExitUsage, ExitCode(usageError("bad %s", "flag")))
	assert.Equal(t, "failed: boom", WrapExitError(ExitFailure, "failed", NewExitError(1, "boom")).Error())
}
