package prov

import (
	"cmp"
	"slices"
)

// Document is a PROV document: identity-keyed elements plus a multiset of
// relations. The zero value is not usable; call NewDocument.
type Document struct {
	elements  []Element
	index     map[string]int
	relations []Relation
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{index: make(map[string]int)}
}

// AddElement inserts e. An element whose identifier is already present is
// unified with it: the attribute sets are merged, nothing is overwritten.
func (d *Document) AddElement(e Element) {
	e.Attributes = e.Attributes.Normalize()
	key := e.ID.URI()
	if i, ok := d.index[key]; ok {
		d.elements[i].Attributes = d.elements[i].Attributes.Union(e.Attributes)
		return
	}
	d.index[key] = len(d.elements)
	d.elements = append(d.elements, e)
}

// AddRelation appends r.
func (d *Document) AddRelation(r Relation) {
	r.Attributes = r.Attributes.Normalize()
	d.relations = append(d.relations, r)
}

// Update adds every record of other to d.
func (d *Document) Update(other *Document) {
	if other == nil {
		return
	}
	for _, e := range other.elements {
		d.AddElement(e)
	}
	for _, r := range other.relations {
		d.AddRelation(r)
	}
}

// Element looks up an element by identifier.
func (d *Document) Element(id QualifiedName) (Element, bool) {
	i, ok := d.index[id.URI()]
	if !ok {
		return Element{}, false
	}
	return d.elements[i], true
}

// Elements returns the elements in insertion order.
func (d *Document) Elements() []Element {
	return slices.Clone(d.elements)
}

// Relations returns the relations in insertion order.
func (d *Document) Relations() []Relation {
	return slices.Clone(d.relations)
}

// IsEmpty reports whether d holds no records.
func (d *Document) IsEmpty() bool {
	return len(d.elements) == 0 && len(d.relations) == 0
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	out := NewDocument()
	out.Update(d)
	return out
}

// SortedElements returns the elements ordered by kind, then identifier.
func (d *Document) SortedElements() []Element {
	out := d.Elements()
	slices.SortFunc(out, func(a, b Element) int {
		return cmp.Or(cmp.Compare(a.Kind, b.Kind), a.ID.Compare(b.ID))
	})
	return out
}

// SortedRelations returns the relations in a canonical order.
func (d *Document) SortedRelations() []Relation {
	out := d.Relations()
	slices.SortFunc(out, func(a, b Relation) int {
		return cmp.Or(cmp.Compare(a.Kind, b.Kind), cmp.Compare(a.key(), b.key()))
	})
	return out
}

// Equal reports whether d and o hold the same records, regardless of
// insertion order and prefixes.
func (d *Document) Equal(o *Document) bool {
	if len(d.elements) != len(o.elements) || len(d.relations) != len(o.relations) {
		return false
	}
	for _, e := range d.elements {
		other, ok := o.Element(e.ID)
		if !ok || other.Kind != e.Kind || !other.Attributes.Equal(e.Attributes) {
			return false
		}
	}
	a, b := d.SortedRelations(), o.SortedRelations()
	for i := range a {
		if a[i].key() != b[i].key() {
			return false
		}
	}
	return true
}
