package compiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mlprov/internal/domain"
	"github.com/roach88/mlprov/internal/factstore"
	"github.com/roach88/mlprov/internal/prov"
)

func deletedRun() domain.Run {
	return domain.Run{
		RunID:          "r1",
		Name:           "train",
		ExperimentID:   "1",
		Status:         domain.RunFinished,
		StartTime:      t0,
		EndTime:        t0.Add(time.Minute),
		LifecycleStage: domain.LifecycleDeleted,
		Metrics: []domain.Metric{
			{RunID: "r1", Name: "loss", Value: 0.5, Timestamp: t0, Step: 0},
			{RunID: "r1", Name: "loss", Value: 0.25, Timestamp: t0, Step: 1},
		},
		Tags: []domain.RunTag{{RunID: "r1", Name: "team", Value: "ml"}},
	}
}

func TestRunDeletionCascade(t *testing.T) {
	tracking := factstore.New()
	tracking.Add(deletedRun())

	fragments := queryRunDeletions(nil, tracking)
	require.Len(t, fragments, 1)
	doc := Build(ns, fragments[0])

	run := deletedRun()
	deletion := run.Deletion().Identifier(ns)
	kinds := countKinds(doc)
	assert.Equal(t, 4, kinds[prov.KindInvalidation], "run, two metrics and one tag")
	assert.Equal(t, 3, kinds[prov.KindMembership], "two metrics and one tag")
	assert.Zero(t, kinds[prov.KindAssociation], "run without user")

	assert.True(t, hasRelation(doc, prov.KindInvalidation, run.Identifier(ns), deletion))
	for _, m := range run.Metrics {
		assert.True(t, hasRelation(doc, prov.KindMembership, run.Identifier(ns), m.Identifier(ns)))
		assert.True(t, hasRelation(doc, prov.KindInvalidation, m.Identifier(ns), deletion))
	}
	tag := run.Tags[0].Identifier(ns)
	assert.True(t, hasRelation(doc, prov.KindMembership, run.Identifier(ns), tag))
	assert.True(t, hasRelation(doc, prov.KindInvalidation, tag, deletion))
}

func TestRunDeletionSkipsActiveRuns(t *testing.T) {
	run := deletedRun()
	run.LifecycleStage = domain.LifecycleActive
	tracking := factstore.New()
	tracking.Add(run)

	assert.Empty(t, queryRunDeletions(nil, tracking))
	assert.True(t, Build(ns, RunDeletion{Run: run}).IsEmpty())
}

func TestRunAdditionLinksSourceCode(t *testing.T) {
	git, _ := gitStore()
	bob := domain.NewUser("Bob", "bob@example.org", "bob", domain.RoleRunAuthor)
	artifact := domain.Artifact{RunID: "r2", Path: "model", IsDir: true}
	run := domain.Run{
		RunID:           "r2",
		Name:            "eval",
		ExperimentID:    "1",
		User:            &bob,
		StartTime:       t0,
		Params:          []domain.Param{{RunID: "r2", Name: "lr", Value: "0.1"}},
		Artifacts:       []domain.Artifact{artifact},
		ModelArtifacts:  []domain.ModelArtifact{{RunID: "r2", Path: "model", IsDir: true, Artifact: &artifact}},
		SourceName:      "main.go",
		SourceGitCommit: "c2",
	}
	experiment := domain.Experiment{ExperimentID: "1", Name: "default", CreatedAt: t0}
	tracking := factstore.New()
	tracking.Add(experiment, run)

	fragments := queryRunAdditions(git, tracking)
	require.Len(t, fragments, 1)
	f := fragments[0].(RunAddition)
	require.NotNil(t, f.Experiment)
	require.NotNil(t, f.Commit)
	require.NotNil(t, f.Revision)

	doc := Build(ns, f)
	creation := run.Creation().Identifier(ns)
	kinds := countKinds(doc)
	assert.Equal(t, 4, kinds[prov.KindMembership], "experiment->run plus three children")
	assert.Equal(t, 4, kinds[prov.KindAttribution], "run plus three children")
	assert.Equal(t, 1, kinds[prov.KindSpecialization])
	assert.True(t, hasRelation(doc, prov.KindCommunication, creation, f.Commit.Identifier(ns)))
	assert.True(t, hasRelation(doc, prov.KindUsage, creation, f.Revision.Identifier(ns)))
}

func TestExperimentDeletionCascadesToRuns(t *testing.T) {
	experiment := domain.Experiment{
		ExperimentID:   "1",
		Name:           "default",
		LifecycleStage: domain.LifecycleDeleted,
		CreatedAt:      t0,
		LastUpdated:    t0.Add(time.Hour),
		Tags:           []domain.ExperimentTag{{ExperimentID: "1", Name: "k", Value: "v"}},
	}
	tracking := factstore.New()
	tracking.Add(experiment, deletedRun())

	fragments := queryExperimentDeletions(nil, tracking)
	require.Len(t, fragments, 2, "one per run plus one without a run")

	doc := buildAll(t, fragments)
	run := deletedRun()
	assert.True(t, hasRelation(doc, prov.KindInvalidation, experiment.Identifier(ns), experiment.Deletion().Identifier(ns)))
	assert.True(t, hasRelation(doc, prov.KindInvalidation, run.Identifier(ns), run.Deletion().Identifier(ns)))

	var invalidationTime []prov.Literal
	for _, r := range doc.Relations() {
		if r.Kind == prov.KindInvalidation && r.Source.Equal(run.Identifier(ns)) {
			invalidationTime = r.Attributes.Values(prov.AttrStartTime)
		}
	}
	assert.Equal(t, []prov.Literal{prov.Time(experiment.LastUpdated)}, invalidationTime,
		"cascaded invalidations are timed by the experiment deletion")
}

func TestExperimentAdditionWithoutUser(t *testing.T) {
	experiment := domain.Experiment{
		ExperimentID: "7",
		Name:         "e",
		CreatedAt:    t0,
		Tags:         []domain.ExperimentTag{{ExperimentID: "7", Name: "k", Value: "v"}},
	}

	doc := Build(ns, ExperimentAddition{Experiment: experiment})

	kinds := countKinds(doc)
	assert.Zero(t, kinds[prov.KindAttribution])
	assert.Zero(t, kinds[prov.KindAssociation])
	assert.Equal(t, 2, kinds[prov.KindGeneration])
	assert.Equal(t, 1, kinds[prov.KindMembership])
}

// buildAll builds every fragment into one document.
func buildAll(t *testing.T, fragments []Fragment) *prov.Document {
	t.Helper()
	doc := prov.NewDocument()
	for _, f := range fragments {
		doc.Update(Build(ns, f))
	}
	return doc
}
