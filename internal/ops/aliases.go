package ops

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/mlprov/internal/domain"
	"github.com/roach88/mlprov/internal/prov"
)

// Alias declares the names one person appears under.
type Alias struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

// AliasMapping maps an observed name to its canonical name.
type AliasMapping map[string]string

// NewAliasMapping inverts alias records into an alias-to-name index.
// The first record claiming an alias wins.
func NewAliasMapping(records []Alias) AliasMapping {
	m := make(AliasMapping)
	for _, r := range records {
		for _, alias := range r.Aliases {
			if _, ok := m[alias]; !ok {
				m[alias] = r.Name
			}
		}
	}
	return m
}

// Resolve returns the canonical name of name. Unmapped names resolve to
// themselves.
func (m AliasMapping) Resolve(name string) string {
	if canonical, ok := m[name]; ok {
		return canonical
	}
	return name
}

// ParseAliasMapping decodes a YAML list of alias records. Empty input is
// an empty mapping.
func ParseAliasMapping(data []byte) (AliasMapping, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return AliasMapping{}, nil
	}
	var records []Alias
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse alias mapping: %w", err)
	}
	return NewAliasMapping(records), nil
}

// ReadAliasMapping reads an alias mapping file. An empty path or a missing
// file is an empty mapping.
func ReadAliasMapping(path string) (AliasMapping, error) {
	if path == "" {
		return AliasMapping{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return AliasMapping{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read alias mapping: %w", err)
	}
	return ParseAliasMapping(data)
}

type agentGroup struct {
	name    string
	nameKey prov.QualifiedName
	ns      prov.Namespace
	attrs   prov.Attributes
}

// MergeDuplicatedAgents collapses agents whose names resolve to the same
// canonical name into one agent holding the union of their attributes.
// The merged identifier is derived from the canonical name and the first
// email of the union. Applying it twice with the same mapping is a no-op.
func MergeDuplicatedAgents(doc *prov.Document, mapping AliasMapping) (*prov.Document, error) {
	groups := make(map[string]*agentGroup)
	var order []string
	members := make(map[string]string)

	for _, e := range doc.Elements() {
		if e.Kind != prov.KindAgent {
			continue
		}
		var name prov.Attribute
		found := false
		for _, a := range e.Attributes {
			if a.Key.LocalPart == "name" {
				name, found = a, true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("merge agent %s: %w", e.ID, ErrAgentWithoutName)
		}

		canonical := mapping.Resolve(name.Value.Lexical())
		g, ok := groups[canonical]
		if !ok {
			g = &agentGroup{name: canonical, nameKey: name.Key, ns: e.ID.Namespace}
			groups[canonical] = g
			order = append(order, canonical)
		}
		for _, a := range e.Attributes {
			if a.Key.LocalPart != "name" {
				g.attrs = append(g.attrs, a)
			}
		}
		members[e.ID.URI()] = canonical
	}

	merged := make(map[string]prov.Element, len(groups))
	for _, canonical := range order {
		g := groups[canonical]
		attrs := append(g.attrs, prov.Attribute{Key: g.nameKey, Value: prov.String(g.name)}).Normalize()
		var email string
		if v, ok := attrs.First("email"); ok {
			email = v.Lexical()
		}
		id := domain.Identifier(g.ns, domain.TypeUser, "name", g.name, "email", email)
		merged[canonical] = prov.Element{Kind: prov.KindAgent, ID: id, Attributes: attrs}
	}

	ids := make(map[string]prov.QualifiedName, len(members))
	var elements []prov.Element
	for _, e := range doc.Elements() {
		if e.Kind != prov.KindAgent {
			elements = append(elements, e)
			continue
		}
		m := merged[members[e.ID.URI()]]
		ids[e.ID.URI()] = m.ID
		elements = append(elements, m)
	}
	return reroute(doc, elements, ids), nil
}
