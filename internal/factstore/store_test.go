package factstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mlprov/internal/domain"
)

func TestGetAndList(t *testing.T) {
	s := New()
	s.Add(
		domain.Commit{SHA: "c1"},
		domain.FileRevision{Name: "a", Path: "a", Commit: "c1", Status: domain.ChangeAdded},
		domain.Commit{SHA: "c2", Parents: []string{"c1"}},
		domain.FileRevision{Name: "a", Path: "a", Commit: "c2", Status: domain.ChangeModified},
	)

	c, ok := Get(s, Where[domain.Commit]("sha", "c2"))
	require.True(t, ok)
	assert.Equal(t, []string{"c1"}, c.Parents)

	_, ok = Get(s, Where[domain.Commit]("sha", "missing"))
	assert.False(t, ok)

	added := List(s, Where[domain.FileRevision]("status", domain.ChangeAdded))
	require.Len(t, added, 1)
	assert.Equal(t, "c1", added[0].Commit)

	// Untyped strings convert to the field's named string type.
	modified := List(s, Where[domain.FileRevision]("status", "M"))
	assert.Len(t, modified, 1)

	assert.Len(t, List[domain.Commit](s), 2)
	assert.Equal(t, 4, s.Len())
}

func TestListPreservesInsertionOrder(t *testing.T) {
	s := New()
	for _, sha := range []string{"b", "a", "c"} {
		s.Add(domain.Commit{SHA: sha})
	}

	var got []string
	for _, c := range List[domain.Commit](s) {
		got = append(got, c.SHA)
	}
	assert.Equal(t, []string{"b", "a", "c"}, got)
}

func TestNilStoreIsEmpty(t *testing.T) {
	var s *Store
	assert.Empty(t, List[domain.Run](s))
	_, ok := Get[domain.Run](s)
	assert.False(t, ok)
	assert.Zero(t, s.Len())
}

func TestWhereUnknownFieldPanics(t *testing.T) {
	assert.Panics(t, func() { Where[domain.Commit]("nope", 1) })
}

func TestWorkspace(t *testing.T) {
	w := NewWorkspace()
	w.Store("repo").Add(domain.Commit{SHA: "x"})
	w.Store("http://tracking").Add(domain.Experiment{ExperimentID: "1"})

	assert.Equal(t, []string{"http://tracking", "repo"}, w.Locations())
	s, ok := w.Lookup("repo")
	require.True(t, ok)
	assert.Equal(t, 1, s.Len())
}
