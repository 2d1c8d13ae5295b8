// Package compiler turns the facts held in two fact stores into a PROV
// document.
//
// Ten generators each pair a query over the stores with a fragment
// builder. Compile runs them in a fixed order and merges the fragments
// into one deduplicated document.
package compiler

import (
	"github.com/roach88/mlprov/internal/factstore"
	"github.com/roach88/mlprov/internal/prov"
)

// Fragment is one query result of a generator. Building it emits the
// sub-graph for that result.
type Fragment interface {
	build(c *Context)
}

// Model is a provenance generator: a read-only query over the git store
// and the tracking store. Either store may be nil.
type Model struct {
	Name  string
	Query func(git, tracking *factstore.Store) []Fragment
}

// Models lists every generator in application order.
var Models = []Model{
	{Name: "file-addition", Query: queryFileAdditions},
	{Name: "file-modification", Query: queryFileModifications},
	{Name: "file-deletion", Query: queryFileDeletions},
	{Name: "experiment-addition", Query: queryExperimentAdditions},
	{Name: "experiment-deletion", Query: queryExperimentDeletions},
	{Name: "run-addition", Query: queryRunAdditions},
	{Name: "run-deletion", Query: queryRunDeletions},
	{Name: "registered-model-addition", Query: queryRegisteredModelAdditions},
	{Name: "registered-model-version-addition", Query: queryRegisteredModelVersionAdditions},
	{Name: "registered-model-version-deletion", Query: queryRegisteredModelVersionDeletions},
}

// Build returns the document of a single fragment.
func Build(ns prov.Namespace, f Fragment) *prov.Document {
	c := NewContext(ns)
	f.build(c)
	return c.Document()
}

// Apply runs m against the stores and returns the union of its fragments.
// The result is not deduplicated.
func (m Model) Apply(ns prov.Namespace, git, tracking *factstore.Store) *prov.Document {
	doc := prov.NewDocument()
	for _, f := range m.Query(git, tracking) {
		doc.Update(Build(ns, f))
	}
	return doc
}
