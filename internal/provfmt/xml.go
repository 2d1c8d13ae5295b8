package provfmt

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/mlprov/internal/prov"
)

const xsiURI = "http://www.w3.org/2001/XMLSchema-instance"

func writeXML(w io.Writer, doc *prov.Document) error {
	ns := collect(doc)
	bw := bufio.NewWriter(w)

	bw.WriteString(xml.Header)
	bw.WriteString("<prov:document")
	fmt.Fprintf(bw, " xmlns:prov=%s", xmlQuote(prov.NamespacePROV.URI))
	fmt.Fprintf(bw, " xmlns:xsd=%s", xmlQuote(prov.NamespaceXSD.URI))
	fmt.Fprintf(bw, " xmlns:xsi=%s", xmlQuote(xsiURI))
	if uri, ok := ns.defaultURI(); ok {
		fmt.Fprintf(bw, " xmlns=%s", xmlQuote(uri))
	}
	for _, prefix := range ns.sorted(prov.NamespacePROV.Prefix, prov.NamespaceXSD.Prefix) {
		fmt.Fprintf(bw, " xmlns:%s=%s", prefix, xmlQuote(ns.uris[prefix]))
	}
	bw.WriteString(">\n")

	for _, e := range doc.SortedElements() {
		fmt.Fprintf(bw, "  <prov:%s prov:id=%s>\n", e.Kind.Keyword(), xmlQuote(ns.name(e.ID)))
		writeXMLAttributes(bw, ns, e.Attributes)
		fmt.Fprintf(bw, "  </prov:%s>\n", e.Kind.Keyword())
	}
	for _, r := range doc.SortedRelations() {
		fmt.Fprintf(bw, "  <prov:%s", r.Kind.Keyword())
		if !r.ID.IsZero() {
			fmt.Fprintf(bw, " prov:id=%s", xmlQuote(ns.name(r.ID)))
		}
		bw.WriteString(">\n")
		source, target := r.Kind.Slots()
		fmt.Fprintf(bw, "    <prov:%s prov:ref=%s/>\n", source.LocalPart, xmlQuote(ns.name(r.Source)))
		fmt.Fprintf(bw, "    <prov:%s prov:ref=%s/>\n", target.LocalPart, xmlQuote(ns.name(r.Target)))
		writeXMLAttributes(bw, ns, r.Attributes)
		fmt.Fprintf(bw, "  </prov:%s>\n", r.Kind.Keyword())
	}
	bw.WriteString("</prov:document>\n")
	return bw.Flush()
}

func writeXMLAttributes(w *bufio.Writer, ns *namespaces, attrs prov.Attributes) {
	for _, a := range attrs.Normalize() {
		tag := ns.name(a.Key)
		switch {
		case a.Value.IsQualifiedName():
			fmt.Fprintf(w, "    <%s xsi:type=\"xsd:QName\">%s</%s>\n", tag, xmlText(ns.name(a.Value.Name)), tag)
		case a.Value.IsString():
			fmt.Fprintf(w, "    <%s>%s</%s>\n", tag, xmlText(a.Value.Value), tag)
		default:
			fmt.Fprintf(w, "    <%s xsi:type=%s>%s</%s>\n", tag, xmlQuote(ns.name(a.Value.Datatype)), xmlText(a.Value.Value), tag)
		}
	}
}

func xmlText(s string) string {
	var sb strings.Builder
	xml.EscapeText(&sb, []byte(s))
	return sb.String()
}

func xmlQuote(s string) string {
	return `"` + xmlText(s) + `"`
}

func readXML(data []byte) (*prov.Document, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	root, err := xmlRoot(dec)
	if err != nil {
		return nil, fmt.Errorf("xml: %w", err)
	}
	ns := newNamespaces()
	for _, a := range root.Attr {
		switch {
		case a.Name.Space == "xmlns":
			ns.bind(a.Name.Local, a.Value)
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			ns.bind("", a.Value)
		}
	}

	doc := prov.NewDocument()
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			kind, ok := prov.KindByKeyword(t.Name.Local)
			if t.Name.Space != prov.NamespacePROV.URI || !ok {
				return nil, fmt.Errorf("xml: unexpected element %s", t.Name.Local)
			}
			if err := readXMLRecord(dec, ns, doc, kind, t); err != nil {
				return nil, fmt.Errorf("xml: %s: %w", t.Name.Local, err)
			}
		case xml.EndElement:
			return doc, nil
		}
	}
}

func xmlRoot(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return xml.StartElement{}, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != prov.NamespacePROV.URI || t.Name.Local != "document" {
				return xml.StartElement{}, fmt.Errorf("root element is %s, not prov:document", t.Name.Local)
			}
			return t, nil
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return xml.StartElement{}, errors.New("text before root element")
			}
		}
	}
}

func xmlAttr(start xml.StartElement, space, local string) (string, bool) {
	for _, a := range start.Attr {
		if a.Name.Space == space && a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

func readXMLRecord(dec *xml.Decoder, ns *namespaces, doc *prov.Document, kind prov.Kind, start xml.StartElement) error {
	var id prov.QualifiedName
	if v, ok := xmlAttr(start, prov.NamespacePROV.URI, "id"); ok {
		id = ns.resolve(v)
	}
	var sourceSlot, targetSlot prov.QualifiedName
	if kind.IsRelation() {
		sourceSlot, targetSlot = kind.Slots()
	}

	var source, target prov.QualifiedName
	var attrs prov.Attributes
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			key := prov.QualifiedName{Namespace: ns.namespace(t.Name.Space), LocalPart: t.Name.Local}
			if ref, ok := xmlAttr(t, prov.NamespacePROV.URI, "ref"); ok && kind.IsRelation() {
				switch {
				case key.Equal(sourceSlot):
					source = ns.resolve(ref)
				case key.Equal(targetSlot):
					target = ns.resolve(ref)
				default:
					attrs = append(attrs, prov.Attribute{Key: key, Value: prov.QName(ns.resolve(ref))})
				}
				if err := dec.Skip(); err != nil {
					return err
				}
				continue
			}
			text, err := xmlContent(dec)
			if err != nil {
				return err
			}
			datatype, _ := xmlAttr(t, xsiURI, "type")
			attrs = append(attrs, prov.Attribute{Key: key, Value: typedLiteral(ns, text, datatype)})
		case xml.EndElement:
			if kind.IsElement() {
				if id.IsZero() {
					return errors.New("missing prov:id")
				}
				doc.AddElement(prov.Element{Kind: kind, ID: id, Attributes: attrs})
				return nil
			}
			doc.AddRelation(prov.Relation{Kind: kind, ID: id, Source: source, Target: target, Attributes: attrs})
			return nil
		}
	}
}

// xmlContent reads the text of the current element up to its end tag.
func xmlContent(dec *xml.Decoder) (string, error) {
	var sb strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			return "", fmt.Errorf("nested element %s in attribute value", t.Name.Local)
		case xml.EndElement:
			return sb.String(), nil
		}
	}
}
