package provfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/mlprov/internal/prov"
)

// nodeStyle follows the PROV diagram conventions.
var nodeStyle = map[prov.Kind]string{
	prov.KindEntity:   `shape=ellipse style=filled fillcolor="#FFFC87"`,
	prov.KindActivity: `shape=box style=filled fillcolor="#9FB1FC"`,
	prov.KindAgent:    `shape=house style=filled fillcolor="#FED37F"`,
}

// writeDOT renders doc as a Graphviz digraph. Relation endpoints missing
// from the document are drawn as plain nodes.
func writeDOT(w io.Writer, doc *prov.Document) error {
	ns := collect(doc)
	_, err := w.Write([]byte(`digraph G {
	node [shape=record fontsize=10]
	edge [fontsize=10]

`))
	if err != nil {
		return err
	}

	for _, e := range doc.SortedElements() {
		if _, err := fmt.Fprintf(w, "\t%s [%s label=%s];\n",
			dotQuote(ns.name(e.ID)), nodeStyle[e.Kind], dotQuote(dotLabel(ns, e))); err != nil {
			return err
		}
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		return err
	}

	for _, r := range doc.SortedRelations() {
		if _, err := fmt.Fprintf(w, "\t%s -> %s [label=%s];\n",
			dotQuote(ns.name(r.Source)), dotQuote(ns.name(r.Target)), dotQuote(r.Kind.Keyword())); err != nil {
			return err
		}
	}
	_, err = w.Write([]byte("}\n"))
	return err
}

// dotLabel shows the element's prov:label when present, its identifier
// otherwise.
func dotLabel(ns *namespaces, e prov.Element) string {
	if labels := e.Attributes.Values(prov.AttrLabel); len(labels) > 0 {
		return labels[0].Lexical()
	}
	return ns.name(e.ID)
}

var dotEscapes = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func dotQuote(s string) string {
	return `"` + dotEscapes.Replace(s) + `"`
}
