package compiler

import (
	"reflect"
	"time"

	"github.com/roach88/mlprov/internal/domain"
	"github.com/roach88/mlprov/internal/prov"
)

// Context builds one PROV document from domain facts.
type Context struct {
	ns  prov.Namespace
	doc *prov.Document
}

// NewContext returns a context minting identifiers in ns.
func NewContext(ns prov.Namespace) *Context {
	return &Context{ns: ns, doc: prov.NewDocument()}
}

// Document returns the document built so far.
func (c *Context) Document() *prov.Document {
	return c.doc
}

// AddElement inserts the PROV element of f. Adding a fact twice yields one
// element. A nil fact is ignored and reported as absent.
func (c *Context) AddElement(f domain.Fact) (prov.QualifiedName, bool) {
	if !present(f) {
		return prov.QualifiedName{}, false
	}
	e := f.Element(c.ns)
	c.doc.AddElement(e)
	return e.ID, true
}

// AddRelation adds both endpoints and one relation of kind between them.
// The relation is skipped when either endpoint is nil, which is how facts
// without an owning user drop their attribution and association edges.
func (c *Context) AddRelation(source, target domain.Fact, kind prov.Kind, attrs ...prov.Attribute) {
	if !present(source) || !present(target) {
		return
	}
	src, _ := c.AddElement(source)
	dst, _ := c.AddElement(target)
	c.doc.AddRelation(prov.Relation{
		Kind:       kind,
		ID:         prov.RelationID(src, dst),
		Source:     src,
		Target:     dst,
		Attributes: attrs,
	})
}

func present(f domain.Fact) bool {
	if f == nil {
		return false
	}
	v := reflect.ValueOf(f)
	return v.Kind() != reflect.Pointer || !v.IsNil()
}

// event returns the start-time and role attributes of a timed relation.
func event(start time.Time, role domain.Role) []prov.Attribute {
	attrs := []prov.Attribute{{Key: prov.AttrRole, Value: prov.String(string(role))}}
	if !start.IsZero() {
		attrs = append(attrs, prov.Attribute{Key: prov.AttrStartTime, Value: prov.Time(start)})
	}
	return attrs
}

func role(r domain.Role) prov.Attribute {
	return prov.Attribute{Key: prov.AttrRole, Value: prov.String(string(r))}
}
