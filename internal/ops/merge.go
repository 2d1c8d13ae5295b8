package ops

import "github.com/roach88/mlprov/internal/prov"

// Merge returns the deduplicated union of docs. No input yields an empty
// document.
func Merge(docs ...*prov.Document) *prov.Document {
	union := prov.NewDocument()
	for _, d := range docs {
		union.Update(d)
	}
	return Dedupe(union)
}

type relationKey struct {
	kind           prov.Kind
	source, target string
}

// Dedupe unifies elements sharing an identifier and collapses relations
// sharing (kind, source, target) into one anonymous relation carrying the
// union of their attributes.
func Dedupe(doc *prov.Document) *prov.Document {
	out := prov.NewDocument()
	for _, e := range doc.Elements() {
		out.AddElement(e)
	}

	index := make(map[relationKey]int)
	var merged []prov.Relation
	for _, r := range doc.Relations() {
		k := relationKey{kind: r.Kind, source: r.Source.URI(), target: r.Target.URI()}
		if i, ok := index[k]; ok {
			merged[i].Attributes = merged[i].Attributes.Union(r.Attributes)
			continue
		}
		index[k] = len(merged)
		merged = append(merged, prov.Relation{
			Kind:       r.Kind,
			Source:     r.Source,
			Target:     r.Target,
			Attributes: r.Attributes,
		})
	}
	for _, r := range merged {
		out.AddRelation(r)
	}
	return out
}

// reroute rewrites every reference to a key of ids: relation endpoints and
// qualified-name attribute values. Identified relations whose endpoints
// change get an identifier derived from the new endpoints.
func reroute(doc *prov.Document, elements []prov.Element, ids map[string]prov.QualifiedName) *prov.Document {
	out := prov.NewDocument()
	for _, e := range elements {
		e.Attributes = rerouteAttributes(e.Attributes, ids)
		out.AddElement(e)
	}
	for _, r := range doc.Relations() {
		src, srcMoved := lookup(ids, r.Source)
		dst, dstMoved := lookup(ids, r.Target)
		if !r.ID.IsZero() && (srcMoved || dstMoved) {
			r.ID = prov.RelationID(src, dst)
		}
		r.Source, r.Target = src, dst
		r.Attributes = rerouteAttributes(r.Attributes, ids)
		out.AddRelation(r)
	}
	return out
}

func lookup(ids map[string]prov.QualifiedName, q prov.QualifiedName) (prov.QualifiedName, bool) {
	if to, ok := ids[q.URI()]; ok && !to.Equal(q) {
		return to, true
	}
	return q, false
}

func rerouteAttributes(attrs prov.Attributes, ids map[string]prov.QualifiedName) prov.Attributes {
	out := make(prov.Attributes, len(attrs))
	for i, a := range attrs {
		if a.Value.IsQualifiedName() {
			if to, ok := lookup(ids, a.Value.Name); ok {
				a.Value = prov.QName(to)
			}
		}
		out[i] = a
	}
	return out
}
