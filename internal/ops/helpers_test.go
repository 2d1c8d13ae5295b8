package ops

import (
	"github.com/roach88/mlprov/internal/domain"
	"github.com/roach88/mlprov/internal/prov"
)

var ns = prov.Namespace{URI: "https://example.test/"}

func attr(key string, v prov.Literal) prov.Attribute {
	return prov.Attribute{Key: ns.Qualify(key), Value: v}
}

func entity(local string, attrs ...prov.Attribute) prov.Element {
	return prov.Element{Kind: prov.KindEntity, ID: ns.Qualify(local), Attributes: attrs}
}

func agent(u domain.User) prov.Element {
	return u.Element(ns)
}

func relation(kind prov.Kind, src, dst prov.QualifiedName, attrs ...prov.Attribute) prov.Relation {
	return prov.Relation{Kind: kind, ID: prov.RelationID(src, dst), Source: src, Target: dst, Attributes: attrs}
}

func document(elements []prov.Element, relations ...prov.Relation) *prov.Document {
	doc := prov.NewDocument()
	for _, e := range elements {
		doc.AddElement(e)
	}
	for _, r := range relations {
		doc.AddRelation(r)
	}
	return doc
}

func agents(doc *prov.Document) []prov.Element {
	var out []prov.Element
	for _, e := range doc.Elements() {
		if e.Kind == prov.KindAgent {
			out = append(out, e)
		}
	}
	return out
}
