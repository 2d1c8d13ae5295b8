package prov

import "strings"

// Namespace binds a prefix to a URI. The empty prefix denotes the
// document's default namespace.
type Namespace struct {
	Prefix string
	URI    string
}

// DefaultNamespaceURI is the namespace identifiers are minted in unless the
// caller configures another one.
const DefaultNamespaceURI = "https://github.com/roach88/mlprov/"

// Well-known namespaces.
var (
	NamespacePROV    = Namespace{Prefix: "prov", URI: "http://www.w3.org/ns/prov#"}
	NamespaceXSD     = Namespace{Prefix: "xsd", URI: "http://www.w3.org/2001/XMLSchema#"}
	NamespaceExample = Namespace{Prefix: "ex", URI: "http://example.org/"}
)

// DefaultNamespace returns the default namespace bound to DefaultNamespaceURI.
func DefaultNamespace() Namespace {
	return Namespace{URI: DefaultNamespaceURI}
}

// Qualify returns the qualified name of local in n.
func (n Namespace) Qualify(local string) QualifiedName {
	return QualifiedName{Namespace: n, LocalPart: local}
}

// QualifiedName is a namespaced identifier.
type QualifiedName struct {
	Namespace Namespace
	LocalPart string
}

// String renders the name as prefix:local, or just local in the default namespace.
func (q QualifiedName) String() string {
	if q.Namespace.Prefix == "" {
		return q.LocalPart
	}
	return q.Namespace.Prefix + ":" + q.LocalPart
}

// URI returns the expanded form of the name. It is the identity of the name.
func (q QualifiedName) URI() string {
	return q.Namespace.URI + q.LocalPart
}

// IsZero reports whether q is unset.
func (q QualifiedName) IsZero() bool {
	return q.Namespace.URI == "" && q.LocalPart == ""
}

// Equal reports whether q and o denote the same name.
func (q QualifiedName) Equal(o QualifiedName) bool {
	return q.URI() == o.URI()
}

// Compare orders names by their expanded URI.
func (q QualifiedName) Compare(o QualifiedName) int {
	return strings.Compare(q.URI(), o.URI())
}

// PROV vocabulary used across the module.
var (
	AttrType      = NamespacePROV.Qualify("type")
	AttrRole      = NamespacePROV.Qualify("role")
	AttrLabel     = NamespacePROV.Qualify("label")
	AttrStartTime = NamespacePROV.Qualify("startTime")
	AttrEndTime   = NamespacePROV.Qualify("endTime")
	AttrTime      = NamespacePROV.Qualify("time")

	TypeCollection = NamespacePROV.Qualify("Collection")
	TypeRevision   = NamespacePROV.Qualify("Revision")

	DatatypeString        = NamespaceXSD.Qualify("string")
	DatatypeInt           = NamespaceXSD.Qualify("int")
	DatatypeDouble        = NamespaceXSD.Qualify("double")
	DatatypeBoolean       = NamespaceXSD.Qualify("boolean")
	DatatypeDateTime      = NamespaceXSD.Qualify("dateTime")
	DatatypeQualifiedName = NamespacePROV.Qualify("QUALIFIED_NAME")
)
