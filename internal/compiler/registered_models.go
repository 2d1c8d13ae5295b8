package compiler

import (
	"github.com/roach88/mlprov/internal/domain"
	"github.com/roach88/mlprov/internal/factstore"
	"github.com/roach88/mlprov/internal/prov"
)

// RegisteredModelAddition is the registration of a model.
type RegisteredModelAddition struct {
	Model domain.RegisteredModel
}

// RegisteredModelVersionAddition is the registration of one model version.
// Run is the run the version was produced by, if it is in the store.
type RegisteredModelVersionAddition struct {
	Model   domain.RegisteredModel
	Version domain.RegisteredModelVersion
	Run     *domain.Run
}

// RegisteredModelVersionDeletion is the deletion of a model version.
type RegisteredModelVersionDeletion struct {
	Version domain.RegisteredModelVersion
}

func queryRegisteredModelAdditions(_, tracking *factstore.Store) []Fragment {
	var out []Fragment
	for _, m := range factstore.List[domain.RegisteredModel](tracking) {
		out = append(out, RegisteredModelAddition{Model: m})
	}
	return out
}

func queryRegisteredModelVersionAdditions(_, tracking *factstore.Store) []Fragment {
	var out []Fragment
	for _, m := range factstore.List[domain.RegisteredModel](tracking) {
		for _, v := range m.Versions {
			f := RegisteredModelVersionAddition{Model: m, Version: v}
			if v.RunID != "" {
				if r, ok := factstore.Get(tracking, factstore.Where[domain.Run]("run_id", v.RunID)); ok {
					f.Run = &r
				}
			}
			out = append(out, f)
		}
	}
	return out
}

func queryRegisteredModelVersionDeletions(_, tracking *factstore.Store) []Fragment {
	var out []Fragment
	for _, m := range factstore.List[domain.RegisteredModel](tracking) {
		for _, v := range m.Versions {
			if v.Stage == domain.StageDeletedInternal {
				out = append(out, RegisteredModelVersionDeletion{Version: v})
			}
		}
	}
	return out
}

func (f RegisteredModelAddition) build(c *Context) {
	m := f.Model
	creation := m.Creation()
	added := event(creation.StartTime, domain.RoleAddedRegisteredModel)

	c.AddElement(m)
	c.AddRelation(m, creation, prov.KindGeneration, added...)
	for _, tag := range m.Tags {
		c.AddRelation(m, tag, prov.KindMembership)
		c.AddRelation(tag, creation, prov.KindGeneration, added...)
		c.AddRelation(tag, m.User, prov.KindAttribution)
	}
	c.AddRelation(m, m.User, prov.KindAttribution)
	c.AddRelation(creation, m.User, prov.KindAssociation, role(domain.RoleRegisteredModelAuthor))
}

func (f RegisteredModelVersionAddition) build(c *Context) {
	v := f.Version
	creation := v.Creation()
	added := event(creation.StartTime, domain.RoleAddedRegisteredModelVersion)

	c.AddElement(v)
	c.AddRelation(v, f.Model, prov.KindSpecialization)
	c.AddRelation(v, creation, prov.KindGeneration, added...)
	if f.Run != nil {
		for _, ma := range f.Run.ModelArtifacts {
			c.AddRelation(v, ma, prov.KindDerivation)
			c.AddRelation(creation, ma, prov.KindUsage, added...)
		}
		c.AddRelation(creation, f.Run.Creation(), prov.KindCommunication)
	}
	c.AddRelation(v, v.User, prov.KindAttribution)
	c.AddRelation(creation, v.User, prov.KindAssociation, role(domain.RoleRegisteredModelVersionAuthor))
	for _, tag := range v.Tags {
		c.AddRelation(v, tag, prov.KindMembership)
		c.AddRelation(tag, creation, prov.KindGeneration, added...)
		c.AddRelation(tag, v.User, prov.KindAttribution)
	}
}

func (f RegisteredModelVersionDeletion) build(c *Context) {
	v := f.Version
	if v.Stage != domain.StageDeletedInternal {
		return
	}
	deletion := v.Deletion()
	deleted := event(deletion.StartTime, domain.RoleDeletedRegisteredModelVersion)

	c.AddElement(v)
	c.AddRelation(deletion, v.User, prov.KindAssociation)
	c.AddRelation(v, deletion, prov.KindInvalidation, deleted...)
	for _, tag := range v.Tags {
		c.AddRelation(v, tag, prov.KindMembership)
		c.AddRelation(tag, deletion, prov.KindInvalidation, deleted...)
	}
}
