// Package provfmt reads and writes PROV documents.
//
// JSON, XML and PROV-N round-trip. RDF (Turtle) and DOT are export-only.
// Every writer orders records and attributes canonically, so equal
// documents serialize to identical bytes.
package provfmt

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/mlprov/internal/prov"
)

// Format names a serialization.
type Format string

const (
	FormatJSON  Format = "json"
	FormatXML   Format = "xml"
	FormatRDF   Format = "rdf"
	FormatPROVN Format = "provn"
	FormatDOT   Format = "dot"
)

// ErrUnknownFormat is returned for format names outside Formats.
var ErrUnknownFormat = errors.New("unknown serialization format")

// Formats lists every writable format.
func Formats() []Format {
	return []Format{FormatJSON, FormatXML, FormatRDF, FormatPROVN, FormatDOT}
}

// readOrder is the order Deserialize tries when no format is given.
var readOrder = []Format{FormatJSON, FormatXML, FormatPROVN}

// ParseFormat resolves a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Readable reports whether documents in f can be deserialized.
func (f Format) Readable() bool {
	for _, r := range readOrder {
		if f == r {
			return true
		}
	}
	return false
}

// Serialize writes doc to w in format f.
func Serialize(w io.Writer, doc *prov.Document, f Format) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, doc)
	case FormatXML:
		return writeXML(w, doc)
	case FormatRDF:
		return writeTurtle(w, doc)
	case FormatPROVN:
		return writePROVN(w, doc)
	case FormatDOT:
		return writeDOT(w, doc)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// Marshal returns the serialization of doc in format f.
func Marshal(doc *prov.Document, f Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Serialize(&buf, doc, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Deserialize parses data in format f. With an empty f it tries JSON, XML
// and PROV-N in that order and returns the first document that parses.
func Deserialize(data []byte, f Format) (*prov.Document, error) {
	if f != "" {
		if !f.Readable() {
			return nil, fmt.Errorf("%w: %q is not readable", ErrUnknownFormat, f)
		}
		doc, err := parse(data, f)
		if err != nil {
			return nil, &DeserializeError{Content: data, Errs: []FormatError{{Format: f, Err: err}}}
		}
		return doc, nil
	}

	var errs []FormatError
	for _, f := range readOrder {
		doc, err := parse(data, f)
		if err == nil {
			return doc, nil
		}
		errs = append(errs, FormatError{Format: f, Err: err})
	}
	return nil, &DeserializeError{Content: data, Errs: errs}
}

func parse(data []byte, f Format) (*prov.Document, error) {
	switch f {
	case FormatJSON:
		return readJSON(data)
	case FormatXML:
		return readXML(data)
	case FormatPROVN:
		return readPROVN(data)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}
