package provfmt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/roach88/mlprov/internal/prov"
)

const jsonDefaultPrefix = "default"

// jsonLiteral is the PROV-JSON form of a typed value.
type jsonLiteral struct {
	Value string `json:"$"`
	Type  string `json:"type"`
}

func writeJSON(w io.Writer, doc *prov.Document) error {
	ns := collect(doc)
	out := map[string]any{}

	prefixes := map[string]string{}
	for _, prefix := range ns.sorted(prov.NamespacePROV.Prefix, prov.NamespaceXSD.Prefix) {
		prefixes[prefix] = ns.uris[prefix]
	}
	if uri, ok := ns.defaultURI(); ok {
		prefixes[jsonDefaultPrefix] = uri
	}
	if len(prefixes) > 0 {
		out["prefix"] = prefixes
	}

	add := func(kind prov.Kind, id string, record map[string]any) {
		section, ok := out[kind.Keyword()].(map[string]any)
		if !ok {
			section = map[string]any{}
			out[kind.Keyword()] = section
		}
		switch existing := section[id].(type) {
		case nil:
			section[id] = record
		case []any:
			section[id] = append(existing, record)
		default:
			section[id] = []any{existing, record}
		}
	}

	for _, e := range doc.SortedElements() {
		add(e.Kind, ns.name(e.ID), jsonAttributes(ns, e.Attributes, nil))
	}
	anonymous := 0
	for _, r := range doc.SortedRelations() {
		source, target := r.Kind.Slots()
		record := jsonAttributes(ns, r.Attributes, map[string]any{
			ns.name(source): ns.name(r.Source),
			ns.name(target): ns.name(r.Target),
		})
		id := ns.name(r.ID)
		if r.ID.IsZero() {
			anonymous++
			id = "_:id" + strconv.Itoa(anonymous)
		}
		add(r.Kind, id, record)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func jsonAttributes(ns *namespaces, attrs prov.Attributes, record map[string]any) map[string]any {
	if record == nil {
		record = map[string]any{}
	}
	for _, a := range attrs.Normalize() {
		key := ns.name(a.Key)
		value := jsonValue(ns, a.Value)
		switch existing := record[key].(type) {
		case nil:
			record[key] = value
		case []any:
			record[key] = append(existing, value)
		default:
			record[key] = []any{existing, value}
		}
	}
	return record
}

func jsonValue(ns *namespaces, l prov.Literal) any {
	switch {
	case l.IsQualifiedName():
		return jsonLiteral{Value: ns.name(l.Name), Type: ns.name(prov.DatatypeQualifiedName)}
	case l.IsString():
		return l.Value
	default:
		return jsonLiteral{Value: l.Value, Type: ns.name(l.Datatype)}
	}
}

func readJSON(data []byte) (*prov.Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var root map[string]json.RawMessage
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	if root == nil {
		return nil, errors.New("json: document is not an object")
	}

	ns := newNamespaces()
	if raw, ok := root["prefix"]; ok {
		var prefixes map[string]string
		if err := json.Unmarshal(raw, &prefixes); err != nil {
			return nil, fmt.Errorf("json: prefix: %w", err)
		}
		for prefix, uri := range prefixes {
			if prefix == jsonDefaultPrefix {
				prefix = ""
			}
			ns.bind(prefix, uri)
		}
	}

	doc := prov.NewDocument()
	for section, raw := range root {
		if section == "prefix" {
			continue
		}
		kind, ok := prov.KindByKeyword(section)
		if !ok {
			return nil, fmt.Errorf("json: unknown section %q", section)
		}
		var records map[string]json.RawMessage
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, fmt.Errorf("json: %s: %w", section, err)
		}
		for id, raw := range records {
			objects, err := jsonRecords(raw)
			if err != nil {
				return nil, fmt.Errorf("json: %s %q: %w", section, id, err)
			}
			for _, obj := range objects {
				if err := addJSONRecord(doc, ns, kind, id, obj); err != nil {
					return nil, fmt.Errorf("json: %s %q: %w", section, id, err)
				}
			}
		}
	}
	return doc, nil
}

// jsonRecords accepts a single record object or a list of them.
func jsonRecords(raw json.RawMessage) ([]map[string]json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var list []map[string]json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	return []map[string]json.RawMessage{obj}, nil
}

func addJSONRecord(doc *prov.Document, ns *namespaces, kind prov.Kind, id string, obj map[string]json.RawMessage) error {
	var source, target prov.QualifiedName
	var sourceSlot, targetSlot prov.QualifiedName
	if kind.IsRelation() {
		sourceSlot, targetSlot = kind.Slots()
	}

	var attrs prov.Attributes
	for key, raw := range obj {
		k := ns.resolve(key)
		if kind.IsRelation() && (k.Equal(sourceSlot) || k.Equal(targetSlot)) {
			var ref string
			if err := json.Unmarshal(raw, &ref); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			if k.Equal(sourceSlot) {
				source = ns.resolve(ref)
			} else {
				target = ns.resolve(ref)
			}
			continue
		}
		values, err := jsonValues(ns, raw)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		for _, v := range values {
			attrs = append(attrs, prov.Attribute{Key: k, Value: v})
		}
	}

	if kind.IsElement() {
		doc.AddElement(prov.Element{Kind: kind, ID: ns.resolve(id), Attributes: attrs})
		return nil
	}
	r := prov.Relation{Kind: kind, Source: source, Target: target, Attributes: attrs}
	if !strings.HasPrefix(id, "_:") {
		r.ID = ns.resolve(id)
	}
	doc.AddRelation(r)
	return nil
}

func jsonValues(ns *namespaces, raw json.RawMessage) ([]prov.Literal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
		var out []prov.Literal
		for _, item := range list {
			values, err := jsonValues(ns, item)
			if err != nil {
				return nil, err
			}
			out = append(out, values...)
		}
		return out, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case string:
		return []prov.Literal{prov.String(v)}, nil
	case bool:
		return []prov.Literal{prov.Bool(v)}, nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return []prov.Literal{prov.Int(i)}, nil
		}
		return []prov.Literal{prov.Typed(v.String(), prov.DatatypeDouble)}, nil
	case map[string]any:
		var lit jsonLiteral
		if err := json.Unmarshal(raw, &lit); err != nil {
			return nil, err
		}
		return []prov.Literal{typedLiteral(ns, lit.Value, lit.Type)}, nil
	}
	return nil, fmt.Errorf("unsupported value %s", raw)
}

// typedLiteral builds a literal from its lexical form and datatype name.
func typedLiteral(ns *namespaces, value, datatype string) prov.Literal {
	if datatype == "" {
		return prov.String(value)
	}
	dt := ns.resolve(datatype)
	if dt.Equal(prov.DatatypeQualifiedName) || dt.Equal(xsdQName) {
		return prov.QName(ns.resolve(value))
	}
	return prov.Typed(value, dt)
}

var xsdQName = prov.NamespaceXSD.Qualify("QName")
