package compiler

import (
	"time"

	"github.com/roach88/mlprov/internal/domain"
	"github.com/roach88/mlprov/internal/factstore"
	"github.com/roach88/mlprov/internal/prov"
)

// RunAddition is the creation of a run and everything it logged. Commit
// and Revision are the source commit and source file found in the git
// store, if any.
type RunAddition struct {
	Run        domain.Run
	Experiment *domain.Experiment
	Commit     *domain.Commit
	Revision   *domain.FileRevision
}

// RunDeletion is the deletion of a run.
type RunDeletion struct {
	Run domain.Run
}

func queryRunAdditions(git, tracking *factstore.Store) []Fragment {
	var out []Fragment
	for _, r := range factstore.List[domain.Run](tracking) {
		f := RunAddition{Run: r}
		if e, ok := factstore.Get(tracking, factstore.Where[domain.Experiment]("experiment_id", r.ExperimentID)); ok {
			f.Experiment = &e
		}
		if r.SourceGitCommit != "" {
			if commit, ok := factstore.Get(git, factstore.Where[domain.Commit]("sha", r.SourceGitCommit)); ok {
				f.Commit = &commit
			}
		}
		if r.SourceName != "" {
			if rev, ok := factstore.Get(git, factstore.Where[domain.FileRevision]("name", r.SourceName)); ok {
				f.Revision = &rev
			}
		}
		out = append(out, f)
	}
	return out
}

func queryRunDeletions(_, tracking *factstore.Store) []Fragment {
	var out []Fragment
	for _, r := range factstore.List(tracking, factstore.Where[domain.Run]("lifecycle_stage", domain.LifecycleDeleted)) {
		out = append(out, RunDeletion{Run: r})
	}
	return out
}

func (f RunAddition) build(c *Context) {
	r := f.Run
	creation := r.Creation()
	added := event(creation.StartTime, domain.RoleAddedRun)

	c.AddElement(r)
	if f.Experiment != nil {
		c.AddRelation(*f.Experiment, r, prov.KindMembership)
	}
	c.AddRelation(r, creation, prov.KindGeneration, added...)
	c.AddRelation(r, r.User, prov.KindAttribution)
	for _, child := range runChildren(r) {
		c.AddRelation(r, child, prov.KindMembership)
		c.AddRelation(child, creation, prov.KindGeneration, added...)
		c.AddRelation(child, r.User, prov.KindAttribution)
	}
	specializeModelArtifacts(c, r)
	if f.Commit != nil {
		c.AddRelation(creation, *f.Commit, prov.KindCommunication)
	}
	if f.Revision != nil {
		c.AddRelation(creation, *f.Revision, prov.KindUsage, event(creation.StartTime, domain.RolePreviousRevision)...)
	}
}

func (f RunDeletion) build(c *Context) {
	if f.Run.LifecycleStage != domain.LifecycleDeleted {
		return
	}
	deletion := f.Run.Deletion()
	c.AddRelation(deletion, f.Run.User, prov.KindAssociation)
	invalidateRun(c, f.Run, deletion, deletion.StartTime)
}

// invalidateRun invalidates a run and each of its children by deletion,
// pairing every child invalidation with a membership edge.
func invalidateRun(c *Context, r domain.Run, deletion domain.Deletion, at time.Time) {
	deleted := event(at, domain.RoleDeletedRun)
	c.AddRelation(r, deletion, prov.KindInvalidation, deleted...)
	for _, child := range runChildren(r) {
		c.AddRelation(r, child, prov.KindMembership)
		c.AddRelation(child, deletion, prov.KindInvalidation, deleted...)
	}
	specializeModelArtifacts(c, r)
}

// runChildren lists metrics, params, tags, artifacts and model artifacts.
func runChildren(r domain.Run) []domain.Fact {
	var out []domain.Fact
	for _, m := range r.Metrics {
		out = append(out, m)
	}
	for _, p := range r.Params {
		out = append(out, p)
	}
	for _, t := range r.Tags {
		out = append(out, t)
	}
	for _, a := range r.Artifacts {
		out = append(out, a)
	}
	for _, m := range r.ModelArtifacts {
		out = append(out, m)
	}
	return out
}

func specializeModelArtifacts(c *Context, r domain.Run) {
	for _, m := range r.ModelArtifacts {
		if m.Artifact != nil {
			c.AddRelation(m, *m.Artifact, prov.KindSpecialization)
		}
	}
}
