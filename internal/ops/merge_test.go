package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mlprov/internal/domain"
	"github.com/roach88/mlprov/internal/prov"
)

func fragments() (a, b, c *prov.Document) {
	alice := agent(domain.User{Name: "Alice", Email: "alice@example.org", Role: domain.RoleAuthor})
	readme := entity("File?name=README.md", attr("path", prov.String("README.md")))
	main := entity("File?name=main.go")

	a = document([]prov.Element{alice, readme},
		relation(prov.KindAttribution, readme.ID, alice.ID, attr("a", prov.Int(1))))
	b = document([]prov.Element{readme, main},
		relation(prov.KindAttribution, readme.ID, alice.ID, attr("b", prov.Int(2))),
		relation(prov.KindSpecialization, main.ID, readme.ID))
	c = document([]prov.Element{main, alice},
		relation(prov.KindAttribution, main.ID, alice.ID))
	return a, b, c
}

func TestDedupeUnionsRelationAttributes(t *testing.T) {
	e := entity("e")
	ag := agent(domain.User{Name: "Bob"})
	doc := document([]prov.Element{e, ag},
		relation(prov.KindAttribution, e.ID, ag.ID, attr("a", prov.Int(1))),
		relation(prov.KindAttribution, e.ID, ag.ID, attr("b", prov.Int(2))),
	)

	got := Dedupe(doc)

	rels := got.Relations()
	require.Len(t, rels, 1)
	assert.True(t, rels[0].ID.IsZero(), "deduplicated relations are anonymous")
	assert.Equal(t, []prov.Literal{prov.Int(1)}, rels[0].Attributes.Values(ns.Qualify("a")))
	assert.Equal(t, []prov.Literal{prov.Int(2)}, rels[0].Attributes.Values(ns.Qualify("b")))
}

func TestDedupeKeepsDistinctKinds(t *testing.T) {
	e1, e2 := entity("e1"), entity("e2")
	doc := document([]prov.Element{e1, e2},
		relation(prov.KindSpecialization, e1.ID, e2.ID),
		relation(prov.KindDerivation, e1.ID, e2.ID),
		relation(prov.KindDerivation, e2.ID, e1.ID),
	)

	assert.Len(t, Dedupe(doc).Relations(), 3)
}

func TestDedupeIdempotent(t *testing.T) {
	a, b, c := fragments()
	union := prov.NewDocument()
	union.Update(a)
	union.Update(b)
	union.Update(c)

	once := Dedupe(union)
	assert.True(t, once.Equal(Dedupe(once)))
}

func TestMergeAssociative(t *testing.T) {
	a, b, c := fragments()

	left := Dedupe(Merge(Merge(a, b), c))
	right := Dedupe(Merge(a, Merge(b, c)))

	assert.True(t, left.Equal(right))
	assert.True(t, left.Equal(Dedupe(Merge(c, b, a))), "merge order does not matter")
	assert.Len(t, left.Relations(), 3)
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	a, b, _ := fragments()
	before := a.Clone()

	Merge(a, b)

	assert.True(t, a.Equal(before))
}

func TestMergeEmpty(t *testing.T) {
	got := Merge()
	require.NotNil(t, got)
	assert.True(t, got.IsEmpty())
}
