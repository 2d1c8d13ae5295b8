package compiler

import (
	"time"

	"github.com/roach88/mlprov/internal/prov"
)

var ns = prov.Namespace{URI: "https://example.test/"}

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// countKinds counts relations by kind.
func countKinds(doc *prov.Document) map[prov.Kind]int {
	out := make(map[prov.Kind]int)
	for _, r := range doc.Relations() {
		out[r.Kind]++
	}
	return out
}

// hasRelation reports whether doc holds a relation of kind from src to dst.
func hasRelation(doc *prov.Document, kind prov.Kind, src, dst prov.QualifiedName) bool {
	for _, r := range doc.Relations() {
		if r.Kind == kind && r.Source.Equal(src) && r.Target.Equal(dst) {
			return true
		}
	}
	return false
}
