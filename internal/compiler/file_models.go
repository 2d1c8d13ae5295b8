package compiler

import (
	"github.com/roach88/mlprov/internal/domain"
	"github.com/roach88/mlprov/internal/factstore"
	"github.com/roach88/mlprov/internal/prov"
)

// FileAddition is a file first appearing in Commit. Parent is nil when the
// parent sha is unknown to the store.
type FileAddition struct {
	Commit   domain.Commit
	Parent   *domain.Commit
	Revision domain.FileRevision
}

// FileModification is a file changed in Commit. Previous is the revision
// it was derived from, if resolvable.
type FileModification struct {
	Commit   domain.Commit
	Parent   *domain.Commit
	Revision domain.FileRevision
	Previous *domain.FileRevision
}

// FileDeletion is a file removed in Commit.
type FileDeletion struct {
	Commit   domain.Commit
	Parent   *domain.Commit
	Revision domain.FileRevision
}

type revisionTuple struct {
	commit   domain.Commit
	parent   *domain.Commit
	revision domain.FileRevision
}

// revisionTuples joins revisions of the given status with their commit and
// yields one tuple per parent sha. Root commits yield nothing.
func revisionTuples(git *factstore.Store, status domain.ChangeType) []revisionTuple {
	var out []revisionTuple
	for _, rev := range factstore.List(git, factstore.Where[domain.FileRevision]("status", status)) {
		commit, ok := factstore.Get(git, factstore.Where[domain.Commit]("sha", rev.Commit))
		if !ok {
			continue
		}
		for _, sha := range commit.Parents {
			t := revisionTuple{commit: commit, revision: rev}
			if parent, ok := factstore.Get(git, factstore.Where[domain.Commit]("sha", sha)); ok {
				t.parent = &parent
			}
			out = append(out, t)
		}
	}
	return out
}

func queryFileAdditions(git, _ *factstore.Store) []Fragment {
	var out []Fragment
	for _, t := range revisionTuples(git, domain.ChangeAdded) {
		out = append(out, FileAddition{Commit: t.commit, Parent: t.parent, Revision: t.revision})
	}
	return out
}

func queryFileModifications(git, _ *factstore.Store) []Fragment {
	var out []Fragment
	for _, t := range revisionTuples(git, domain.ChangeModified) {
		out = append(out, FileModification{
			Commit:   t.commit,
			Parent:   t.parent,
			Revision: t.revision,
			Previous: previousRevision(git, t.revision),
		})
	}
	return out
}

func queryFileDeletions(git, _ *factstore.Store) []Fragment {
	var out []Fragment
	for _, t := range revisionTuples(git, domain.ChangeDeleted) {
		out = append(out, FileDeletion{Commit: t.commit, Parent: t.parent, Revision: t.revision})
	}
	return out
}

// previousRevision resolves the previous-revision key through the store and
// falls back to the key itself, which carries every identifying field.
func previousRevision(git *factstore.Store, rev domain.FileRevision) *domain.FileRevision {
	if rev.Previous == nil {
		return nil
	}
	key := *rev.Previous
	prev, ok := factstore.Get(git,
		factstore.Where[domain.FileRevision]("path", key.Path),
		factstore.Where[domain.FileRevision]("commit", key.Commit),
		factstore.Where[domain.FileRevision]("status", key.Status),
	)
	if !ok {
		prev = key.Revision()
	}
	return &prev
}

// commitEdges links a commit to its parent and to its author and committer.
func commitEdges(c *Context, commit domain.Commit, parent *domain.Commit) {
	c.AddElement(commit)
	if parent != nil {
		c.AddRelation(commit, *parent, prov.KindCommunication)
	}
	c.AddRelation(commit, commit.Author, prov.KindAssociation, role(domain.RoleCommitAuthor))
	c.AddRelation(commit, commit.Committer, prov.KindAssociation, role(domain.RoleCommitter))
}

func (f FileAddition) build(c *Context) {
	commitEdges(c, f.Commit, f.Parent)
	c.AddRelation(f.Revision, f.Commit, prov.KindGeneration, event(f.Commit.AuthoredAt, domain.RoleAddedRevision)...)
	if f.Revision.File != nil {
		file := *f.Revision.File
		c.AddRelation(file, f.Commit, prov.KindGeneration, event(f.Commit.AuthoredAt, domain.RoleFile)...)
		c.AddRelation(file, f.Commit.Author, prov.KindAttribution)
		c.AddRelation(f.Revision, file, prov.KindSpecialization)
	}
}

func (f FileModification) build(c *Context) {
	commitEdges(c, f.Commit, f.Parent)
	if f.Revision.File != nil {
		c.AddRelation(f.Revision, *f.Revision.File, prov.KindSpecialization)
	}
	c.AddRelation(f.Revision, f.Commit, prov.KindGeneration, event(f.Commit.AuthoredAt, domain.RoleModifiedRevision)...)
	c.AddRelation(f.Revision, f.Commit.Author, prov.KindAttribution)
	if f.Previous != nil {
		c.AddRelation(f.Revision, *f.Previous, prov.KindDerivation,
			prov.Attribute{Key: prov.AttrType, Value: prov.QName(prov.TypeRevision)})
		c.AddRelation(f.Commit, *f.Previous, prov.KindUsage, event(f.Commit.AuthoredAt, domain.RolePreviousRevision)...)
	}
}

func (f FileDeletion) build(c *Context) {
	commitEdges(c, f.Commit, f.Parent)
	if f.Revision.File != nil {
		c.AddRelation(f.Revision, *f.Revision.File, prov.KindSpecialization)
	}
	c.AddRelation(f.Revision, f.Commit, prov.KindInvalidation, event(f.Commit.AuthoredAt, domain.RoleDeletedRevision)...)
}
