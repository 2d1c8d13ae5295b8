package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/mlprov/internal/ops"
)

func TestModelsOrder(t *testing.T) {
	var names []string
	for _, m := range Models {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{
		"file-addition",
		"file-modification",
		"file-deletion",
		"experiment-addition",
		"experiment-deletion",
		"run-addition",
		"run-deletion",
		"registered-model-addition",
		"registered-model-version-addition",
		"registered-model-version-deletion",
	}, names)
}

func TestCompileIsDeduplicatedAndDeterministic(t *testing.T) {
	git, _ := gitStore()
	tracking, _, _ := registry()
	tracking.Add(deletedRun())

	a := Compile(ns, git, tracking)
	b := Compile(ns, git, tracking)

	assert.False(t, a.IsEmpty())
	assert.True(t, a.Equal(b))
	assert.True(t, a.Equal(ops.Dedupe(a)))
}

func TestCompileToleratesMissingStores(t *testing.T) {
	git, _ := gitStore()

	doc := Compile(ns, git, nil)
	assert.False(t, doc.IsEmpty())

	assert.True(t, Compile(ns, nil, nil).IsEmpty())
}
