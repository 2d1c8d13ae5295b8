package provfmt

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/mlprov/internal/prov"
)

func writePROVN(w io.Writer, doc *prov.Document) error {
	ns := collect(doc)
	bw := bufio.NewWriter(w)

	bw.WriteString("document\n")
	if uri, ok := ns.defaultURI(); ok {
		fmt.Fprintf(bw, "  default <%s>\n", uri)
	}
	for _, prefix := range ns.sorted(prov.NamespacePROV.Prefix, prov.NamespaceXSD.Prefix) {
		fmt.Fprintf(bw, "  prefix %s <%s>\n", prefix, ns.uris[prefix])
	}
	if !doc.IsEmpty() {
		bw.WriteString("\n")
	}

	for _, e := range doc.SortedElements() {
		args := []string{provnName(ns, e.ID)}
		extras, attrs := provnExtras(ns, e.Kind, e.Attributes)
		args = append(args, extras...)
		writeStatement(bw, e.Kind.Keyword(), "", args, ns, attrs)
	}
	for _, r := range doc.SortedRelations() {
		id := ""
		if !r.ID.IsZero() {
			id = provnName(ns, r.ID)
		}
		args := []string{provnName(ns, r.Source), provnName(ns, r.Target)}
		extras, attrs := provnExtras(ns, r.Kind, r.Attributes)
		args = append(args, extras...)
		writeStatement(bw, r.Kind.Keyword(), id, args, ns, attrs)
	}

	bw.WriteString("endDocument\n")
	return bw.Flush()
}

// provnExtras moves single-valued positional attributes into their slots.
func provnExtras(ns *namespaces, k prov.Kind, attrs prov.Attributes) ([]string, prov.Attributes) {
	attrs = attrs.Normalize()
	var out []string
	for _, slot := range k.ExtraSlots() {
		v, rest, ok := positional(attrs, slot)
		switch {
		case ok && isTimeSlot(slot) && v.Datatype.Equal(prov.DatatypeDateTime):
			out = append(out, v.Value)
			attrs = rest
		case ok && !isTimeSlot(slot) && v.IsQualifiedName():
			out = append(out, provnName(ns, v.Name))
			attrs = rest
		default:
			out = append(out, "-")
		}
	}
	return out, attrs
}

func writeStatement(w *bufio.Writer, keyword, id string, args []string, ns *namespaces, attrs prov.Attributes) {
	fmt.Fprintf(w, "  %s(", keyword)
	if id != "" {
		w.WriteString(id + "; ")
	}
	w.WriteString(strings.Join(args, ", "))
	if len(attrs) > 0 {
		w.WriteString(", [")
		for i, a := range attrs {
			if i > 0 {
				w.WriteString(", ")
			}
			w.WriteString(provnName(ns, a.Key))
			w.WriteString("=")
			w.WriteString(provnLiteral(ns, a.Value))
		}
		w.WriteString("]")
	}
	w.WriteString(")\n")
}

func provnLiteral(ns *namespaces, l prov.Literal) string {
	switch {
	case l.IsQualifiedName():
		return "'" + provnName(ns, l.Name) + "'"
	case l.IsString():
		return provnString(l.Value)
	default:
		return provnString(l.Value) + " %% " + provnName(ns, l.Datatype)
	}
}

var provnStringEscapes = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
	"\b", `\b`,
	"\f", `\f`,
)

func provnString(s string) string {
	return `"` + provnStringEscapes.Replace(s) + `"`
}

// provnName renders q, escaping characters the PROV-N local-name grammar
// only admits behind a backslash.
func provnName(ns *namespaces, q prov.QualifiedName) string {
	name := ns.name(q)
	local := q.LocalPart
	prefix := strings.TrimSuffix(name, local)
	return prefix + escapeLocal(local)
}

func escapeLocal(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]):
			sb.WriteByte(c)
		case strings.IndexByte(`~!$&'()*+,;=/?#@%[]"<>`, c) >= 0:
			sb.WriteByte('\\')
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
