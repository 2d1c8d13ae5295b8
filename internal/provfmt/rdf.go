package provfmt

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/mlprov/internal/prov"
)

const rdfURI = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"

// influencer is the PROV-O property that points from a qualified
// influence node to the relation's target.
var influencer = map[prov.Kind]string{
	prov.KindGeneration:    "activity",
	prov.KindUsage:         "entity",
	prov.KindCommunication: "activity",
	prov.KindStart:         "entity",
	prov.KindEnd:           "entity",
	prov.KindInvalidation:  "activity",
	prov.KindDerivation:    "entity",
	prov.KindAttribution:   "agent",
	prov.KindAssociation:   "agent",
	prov.KindDelegation:    "agent",
	prov.KindInfluence:     "influencer",
}

// writeTurtle exports doc as PROV-O in Turtle. Relations become their
// unqualified property; relations with an identifier or attributes also
// get a qualified influence node.
func writeTurtle(w io.Writer, doc *prov.Document) error {
	ns := collect(doc)
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "@prefix rdf: <%s> .\n", rdfURI)
	for _, prefix := range ns.sorted() {
		fmt.Fprintf(bw, "@prefix %s: <%s> .\n", prefix, ns.uris[prefix])
	}
	bw.WriteString("\n")

	for _, e := range doc.SortedElements() {
		fmt.Fprintf(bw, "%s\n", turtleIRI(e.ID))
		lines := []string{"a prov:" + e.Kind.String()}
		lines = append(lines, turtleAttributes(ns, e.Attributes)...)
		writeTurtleLines(bw, "    ", lines, " .\n")
		bw.WriteString("\n")
	}

	for _, r := range doc.SortedRelations() {
		fmt.Fprintf(bw, "%s prov:%s %s .\n", turtleIRI(r.Source), r.Kind.Keyword(), turtleIRI(r.Target))
		prop, qualified := influencer[r.Kind]
		if !qualified || (r.ID.IsZero() && len(r.Attributes) == 0) {
			continue
		}
		lines := []string{
			"a prov:" + r.Kind.String(),
			fmt.Sprintf("prov:%s %s", prop, turtleIRI(r.Target)),
		}
		lines = append(lines, turtleAttributes(ns, r.Attributes)...)
		if r.ID.IsZero() {
			fmt.Fprintf(bw, "%s prov:qualified%s [\n", turtleIRI(r.Source), r.Kind)
			writeTurtleLines(bw, "    ", lines, "\n")
			bw.WriteString("] .\n")
		} else {
			fmt.Fprintf(bw, "%s prov:qualified%s %s .\n", turtleIRI(r.Source), r.Kind, turtleIRI(r.ID))
			fmt.Fprintf(bw, "%s\n", turtleIRI(r.ID))
			writeTurtleLines(bw, "    ", lines, " .\n")
		}
	}
	return bw.Flush()
}

func writeTurtleLines(w *bufio.Writer, indent string, lines []string, end string) {
	for i, line := range lines {
		w.WriteString(indent + line)
		if i < len(lines)-1 {
			w.WriteString(" ;\n")
		} else {
			w.WriteString(end)
		}
	}
}

func turtleAttributes(ns *namespaces, attrs prov.Attributes) []string {
	var out []string
	for _, a := range attrs.Normalize() {
		predicate := turtleIRI(a.Key)
		if a.Key.Namespace.URI == prov.NamespacePROV.URI {
			predicate = "prov:" + a.Key.LocalPart
		}
		if a.Key.Equal(prov.AttrType) && a.Value.IsQualifiedName() {
			predicate = "a"
		}
		out = append(out, predicate+" "+turtleObject(ns, a.Value))
	}
	return out
}

func turtleObject(ns *namespaces, l prov.Literal) string {
	switch {
	case l.IsQualifiedName():
		return turtleIRI(l.Name)
	case l.IsString():
		return turtleString(l.Value)
	default:
		return turtleString(l.Value) + "^^" + ns.name(l.Datatype)
	}
}

var turtleEscapes = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func turtleString(s string) string {
	return `"` + turtleEscapes.Replace(s) + `"`
}

var iriEscapes = strings.NewReplacer(
	" ", "%20",
	"<", "%3C",
	">", "%3E",
	`"`, "%22",
	"{", "%7B",
	"}", "%7D",
	"|", "%7C",
	"^", "%5E",
	"`", "%60",
	`\`, "%5C",
)

func turtleIRI(q prov.QualifiedName) string {
	return "<" + iriEscapes.Replace(q.URI()) + ">"
}
