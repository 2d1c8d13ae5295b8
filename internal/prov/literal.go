package prov

import (
	"slices"
	"strconv"
	"strings"
	"time"
)

// Literal is a typed attribute value kept in its lexical form.
//
// Qualified-name values carry the name itself in Name so that its
// namespace survives serialization; every other datatype uses Value.
type Literal struct {
	Value    string
	Datatype QualifiedName
	Name     QualifiedName
}

// String returns a plain string literal.
func String(s string) Literal {
	return Literal{Value: s, Datatype: DatatypeString}
}

// Int returns an xsd:int literal.
func Int(i int64) Literal {
	return Literal{Value: strconv.FormatInt(i, 10), Datatype: DatatypeInt}
}

// Float returns an xsd:double literal.
func Float(f float64) Literal {
	return Literal{Value: strconv.FormatFloat(f, 'g', -1, 64), Datatype: DatatypeDouble}
}

// Bool returns an xsd:boolean literal.
func Bool(b bool) Literal {
	return Literal{Value: strconv.FormatBool(b), Datatype: DatatypeBoolean}
}

// Time returns an xsd:dateTime literal in RFC 3339 form.
func Time(t time.Time) Literal {
	return Literal{Value: t.Format(time.RFC3339Nano), Datatype: DatatypeDateTime}
}

// QName returns a literal referencing another qualified name.
func QName(q QualifiedName) Literal {
	return Literal{Datatype: DatatypeQualifiedName, Name: q}
}

// Typed returns a literal with an arbitrary datatype. Used by deserializers.
func Typed(value string, datatype QualifiedName) Literal {
	if datatype.IsZero() {
		datatype = DatatypeString
	}
	return Literal{Value: value, Datatype: datatype}
}

// IsQualifiedName reports whether the literal references a qualified name.
func (l Literal) IsQualifiedName() bool {
	return l.Datatype.Equal(DatatypeQualifiedName)
}

// IsString reports whether the literal is a plain string.
func (l Literal) IsString() bool {
	return l.Datatype.IsZero() || l.Datatype.Equal(DatatypeString)
}

// Lexical returns the literal's lexical form.
func (l Literal) Lexical() string {
	if l.IsQualifiedName() {
		return l.Name.String()
	}
	return l.Value
}

// Equal reports whether both literals denote the same value.
func (l Literal) Equal(o Literal) bool {
	return l.key() == o.key()
}

func (l Literal) key() string {
	datatype := DatatypeString.URI()
	if !l.Datatype.IsZero() {
		datatype = l.Datatype.URI()
	}
	if l.IsQualifiedName() {
		return datatype + "\x00" + l.Name.URI()
	}
	return datatype + "\x00" + l.Value
}

// Attribute is one (key, value) pair of a record.
type Attribute struct {
	Key   QualifiedName
	Value Literal
}

func (a Attribute) compare(o Attribute) int {
	if c := a.Key.Compare(o.Key); c != 0 {
		return c
	}
	return strings.Compare(a.Value.key(), o.Value.key())
}

// Attributes is a set of attribute pairs. A key may carry several values.
type Attributes []Attribute

// Normalize returns a sorted copy with duplicate pairs removed.
func (a Attributes) Normalize() Attributes {
	out := slices.Clone(a)
	slices.SortFunc(out, Attribute.compare)
	return slices.CompactFunc(out, func(x, y Attribute) bool { return x.compare(y) == 0 })
}

// Union returns the normalized union of a and b.
func (a Attributes) Union(b Attributes) Attributes {
	out := make(Attributes, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out.Normalize()
}

// Values returns every value stored under key.
func (a Attributes) Values(key QualifiedName) []Literal {
	var out []Literal
	for _, attr := range a {
		if attr.Key.Equal(key) {
			out = append(out, attr.Value)
		}
	}
	return out
}

// First returns the first value whose key has the given local part.
func (a Attributes) First(local string) (Literal, bool) {
	for _, attr := range a {
		if attr.Key.LocalPart == local {
			return attr.Value, true
		}
	}
	return Literal{}, false
}

// Equal reports whether a and b hold the same pairs.
func (a Attributes) Equal(b Attributes) bool {
	return slices.EqualFunc(a.Normalize(), b.Normalize(), func(x, y Attribute) bool { return x.compare(y) == 0 })
}

func (a Attributes) key() string {
	var sb strings.Builder
	for _, attr := range a.Normalize() {
		sb.WriteString(attr.Key.URI())
		sb.WriteByte('=')
		sb.WriteString(attr.Value.key())
		sb.WriteByte(';')
	}
	return sb.String()
}
