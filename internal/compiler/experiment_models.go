package compiler

import (
	"github.com/roach88/mlprov/internal/domain"
	"github.com/roach88/mlprov/internal/factstore"
	"github.com/roach88/mlprov/internal/prov"
)

// ExperimentAddition is the creation of an experiment and its tags.
type ExperimentAddition struct {
	Experiment domain.Experiment
}

// ExperimentDeletion is the deletion of an experiment. Run is one run of
// the experiment whose contents are invalidated along with it; the query
// also yields one tuple with a nil Run per experiment.
type ExperimentDeletion struct {
	Experiment domain.Experiment
	Run        *domain.Run
}

func queryExperimentAdditions(_, tracking *factstore.Store) []Fragment {
	var out []Fragment
	for _, e := range factstore.List[domain.Experiment](tracking) {
		out = append(out, ExperimentAddition{Experiment: e})
	}
	return out
}

func queryExperimentDeletions(_, tracking *factstore.Store) []Fragment {
	var out []Fragment
	deleted := factstore.Where[domain.Experiment]("lifecycle_stage", domain.LifecycleDeleted)
	for _, e := range factstore.List(tracking, deleted) {
		for _, r := range factstore.List(tracking, factstore.Where[domain.Run]("experiment_id", e.ExperimentID)) {
			out = append(out, ExperimentDeletion{Experiment: e, Run: &r})
		}
		out = append(out, ExperimentDeletion{Experiment: e})
	}
	return out
}

func (f ExperimentAddition) build(c *Context) {
	e := f.Experiment
	creation := e.Creation()
	c.AddElement(e)
	c.AddRelation(e, creation, prov.KindGeneration, event(creation.StartTime, domain.RoleAddedExperiment)...)
	for _, tag := range e.Tags {
		c.AddRelation(tag, creation, prov.KindGeneration, event(creation.StartTime, domain.RoleAddedExperimentTag)...)
		c.AddRelation(tag, e.User, prov.KindAttribution)
		c.AddRelation(e, tag, prov.KindMembership)
	}
	c.AddRelation(e, e.User, prov.KindAttribution)
	c.AddRelation(creation, e.User, prov.KindAssociation, role(domain.RoleExperimentAuthor))
}

func (f ExperimentDeletion) build(c *Context) {
	e := f.Experiment
	deletion := e.Deletion()
	c.AddElement(e)
	c.AddRelation(deletion, e.User, prov.KindAssociation)
	c.AddRelation(e, deletion, prov.KindInvalidation, event(deletion.StartTime, domain.RoleDeletedExperiment)...)
	for _, tag := range e.Tags {
		c.AddRelation(e, tag, prov.KindMembership)
		c.AddRelation(tag, deletion, prov.KindInvalidation, event(deletion.StartTime, domain.RoleDeletedExperiment)...)
	}
	if f.Run != nil {
		invalidateRun(c, *f.Run, f.Run.Deletion(), deletion.StartTime)
	}
}
