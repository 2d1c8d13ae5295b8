package domain

import (
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/mlprov/internal/prov"
)

// Fact is any domain record that can be placed in a provenance graph.
type Fact interface {
	// Identifier returns the canonical identifier of the fact in ns.
	Identifier(ns prov.Namespace) prov.QualifiedName
	// Element returns the PROV element representing the fact.
	Element(ns prov.Namespace) prov.Element
}

// Identifier builds a canonical local part of the form
// "Kind?key1=value1&key2=value2". Values are NFC-normalized and
// query-escaped so that visually identical strings collide.
func Identifier(ns prov.Namespace, kind Type, pairs ...string) prov.QualifiedName {
	var sb strings.Builder
	sb.WriteString(string(kind))
	sb.WriteByte('?')
	for i := 0; i+1 < len(pairs); i += 2 {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(pairs[i])
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(norm.NFC.String(pairs[i+1])))
	}
	return ns.Qualify(sb.String())
}

// attrs accumulates the attributes of one element. Keys other than PROV
// vocabulary live in the identifier namespace.
type attrs struct {
	ns   prov.Namespace
	list prov.Attributes
}

func newAttrs(ns prov.Namespace) *attrs {
	return &attrs{ns: ns}
}

func (a *attrs) set(key string, v prov.Literal) *attrs {
	a.list = append(a.list, prov.Attribute{Key: a.ns.Qualify(key), Value: v})
	return a
}

func (a *attrs) str(key, v string) *attrs {
	return a.set(key, prov.String(v))
}

// opt skips empty optional strings.
func (a *attrs) opt(key, v string) *attrs {
	if v == "" {
		return a
	}
	return a.str(key, v)
}

// at skips unset timestamps.
func (a *attrs) at(key string, t time.Time) *attrs {
	if t.IsZero() {
		return a
	}
	return a.set(key, prov.Time(t))
}

func (a *attrs) provAttr(key prov.QualifiedName, v prov.Literal) *attrs {
	a.list = append(a.list, prov.Attribute{Key: key, Value: v})
	return a
}

func (a *attrs) span(start, end time.Time) *attrs {
	if !start.IsZero() {
		a.provAttr(prov.AttrStartTime, prov.Time(start))
	}
	if !end.IsZero() {
		a.provAttr(prov.AttrEndTime, prov.Time(end))
	}
	return a
}

func (a *attrs) typ(t Type) *attrs {
	return a.provAttr(prov.AttrType, prov.String(string(t)))
}

func (a *attrs) collection() *attrs {
	return a.provAttr(prov.AttrType, prov.QName(prov.TypeCollection))
}

func (a *attrs) element(kind prov.Kind, id prov.QualifiedName) prov.Element {
	return prov.Element{Kind: kind, ID: id, Attributes: a.list.Normalize()}
}
