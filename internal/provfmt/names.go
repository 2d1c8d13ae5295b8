package provfmt

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/mlprov/internal/prov"
)

// namespaces assigns one prefix to every namespace URI a document uses.
// The empty prefix is the default namespace.
type namespaces struct {
	prefixes map[string]string // URI -> prefix
	uris     map[string]string // prefix -> URI
}

func newNamespaces() *namespaces {
	ns := &namespaces{prefixes: map[string]string{}, uris: map[string]string{}}
	ns.bind(prov.NamespacePROV.Prefix, prov.NamespacePROV.URI)
	ns.bind(prov.NamespaceXSD.Prefix, prov.NamespaceXSD.URI)
	return ns
}

func (n *namespaces) bind(prefix, uri string) {
	n.prefixes[uri] = prefix
	n.uris[prefix] = uri
}

// add registers the namespace of q, renaming its prefix when the prefix is
// already bound to another URI.
func (n *namespaces) add(q prov.QualifiedName) {
	if q.IsZero() {
		return
	}
	uri := q.Namespace.URI
	if _, ok := n.prefixes[uri]; ok {
		return
	}
	prefix := q.Namespace.Prefix
	if _, taken := n.uris[prefix]; !taken {
		n.bind(prefix, uri)
		return
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("ns%d", i)
		if _, taken := n.uris[candidate]; !taken {
			n.bind(candidate, uri)
			return
		}
	}
}

// collect registers every namespace doc refers to, in canonical order.
func collect(doc *prov.Document) *namespaces {
	n := newNamespaces()
	attrs := func(as prov.Attributes) {
		for _, a := range as {
			n.add(a.Key)
			n.add(a.Value.Datatype)
			if a.Value.IsQualifiedName() {
				n.add(a.Value.Name)
			}
		}
	}
	for _, e := range doc.SortedElements() {
		n.add(e.ID)
		attrs(e.Attributes)
	}
	for _, r := range doc.SortedRelations() {
		n.add(r.ID)
		n.add(r.Source)
		n.add(r.Target)
		attrs(r.Attributes)
	}
	return n
}

// name renders q with the prefix bound to its namespace.
func (n *namespaces) name(q prov.QualifiedName) string {
	prefix, ok := n.prefixes[q.Namespace.URI]
	if !ok {
		prefix = q.Namespace.Prefix
	}
	if prefix == "" {
		return q.LocalPart
	}
	return prefix + ":" + q.LocalPart
}

// resolve parses prefix:local, falling back to the default namespace when
// the text has no bound prefix.
func (n *namespaces) resolve(s string) prov.QualifiedName {
	if i := strings.IndexByte(s, ':'); i > 0 {
		prefix := s[:i]
		if uri, ok := n.uris[prefix]; ok && prefix != "" {
			return prov.QualifiedName{Namespace: prov.Namespace{Prefix: prefix, URI: uri}, LocalPart: s[i+1:]}
		}
	}
	return prov.QualifiedName{Namespace: prov.Namespace{URI: n.uris[""]}, LocalPart: s}
}

// namespace returns the namespace bound to uri.
func (n *namespaces) namespace(uri string) prov.Namespace {
	return prov.Namespace{Prefix: n.prefixes[uri], URI: uri}
}

// sorted returns the non-default prefixes in order, skipping the given ones.
func (n *namespaces) sorted(skip ...string) []string {
	var out []string
	for prefix := range n.uris {
		if prefix != "" && !slices.Contains(skip, prefix) {
			out = append(out, prefix)
		}
	}
	slices.Sort(out)
	return out
}

// defaultURI returns the default namespace, if one is bound.
func (n *namespaces) defaultURI() (string, bool) {
	uri, ok := n.uris[""]
	return uri, ok
}

// positional returns the single value of key, removing it from attrs. It
// reports false when key has no value or more than one.
func positional(attrs prov.Attributes, key prov.QualifiedName) (prov.Literal, prov.Attributes, bool) {
	values := attrs.Values(key)
	if len(values) != 1 {
		return prov.Literal{}, attrs, false
	}
	rest := make(prov.Attributes, 0, len(attrs)-1)
	for _, a := range attrs {
		if !a.Key.Equal(key) {
			rest = append(rest, a)
		}
	}
	return values[0], rest, true
}

// isTimeSlot reports whether a positional slot holds an xsd:dateTime.
func isTimeSlot(slot prov.QualifiedName) bool {
	switch slot.LocalPart {
	case "time", "startTime", "endTime":
		return true
	}
	return false
}
