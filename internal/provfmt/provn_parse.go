package provfmt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/mlprov/internal/prov"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokName
	tokString
	tokQName
	tokIRI
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokString:
		return strconv.Quote(t.text)
	default:
		return fmt.Sprintf("%q", t.text)
	}
}

// lexer splits PROV-N text into tokens. Names are unescaped as they are read.
type lexer struct {
	src string
	pos int
}

func (l *lexer) skipSpace() error {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.pos++
		case strings.HasPrefix(l.src[l.pos:], "//"):
			end := strings.IndexByte(l.src[l.pos:], '\n')
			if end < 0 {
				l.pos = len(l.src)
			} else {
				l.pos += end + 1
			}
		case strings.HasPrefix(l.src[l.pos:], "/*"):
			end := strings.Index(l.src[l.pos+2:], "*/")
			if end < 0 {
				return fmt.Errorf("offset %d: unterminated comment", l.pos)
			}
			l.pos += end + 4
		default:
			return nil
		}
	}
	return nil
}

func (l *lexer) next() (token, error) {
	if err := l.skipSpace(); err != nil {
		return token{}, err
	}
	start := l.pos
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, pos: start}, nil
	}
	c := l.src[l.pos]
	switch {
	case strings.HasPrefix(l.src[l.pos:], "%%"):
		l.pos += 2
		return token{kind: tokPunct, text: "%%", pos: start}, nil
	case strings.IndexByte("(),;=[]@", c) >= 0:
		l.pos++
		return token{kind: tokPunct, text: string(c), pos: start}, nil
	case c == '"':
		s, err := l.quoted('"')
		return token{kind: tokString, text: s, pos: start}, err
	case c == '\'':
		s, err := l.quoted('\'')
		return token{kind: tokQName, text: s, pos: start}, err
	case c == '<':
		end := strings.IndexByte(l.src[l.pos:], '>')
		if end < 0 {
			return token{}, fmt.Errorf("offset %d: unterminated IRI", start)
		}
		l.pos += end + 1
		return token{kind: tokIRI, text: l.src[start+1 : l.pos-1], pos: start}, nil
	}

	var sb strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == '\\' && l.pos+1 < len(l.src) {
			sb.WriteByte(l.src[l.pos+1])
			l.pos += 2
			continue
		}
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || strings.IndexByte("(),;=[]\"'<>", c) >= 0 {
			break
		}
		sb.WriteByte(c)
		l.pos++
	}
	if sb.Len() == 0 {
		return token{}, fmt.Errorf("offset %d: unexpected character %q", start, c)
	}
	return token{kind: tokName, text: sb.String(), pos: start}, nil
}

// quoted reads a string or qualified-name literal delimited by quote.
func (l *lexer) quoted(quote byte) (string, error) {
	start := l.pos
	l.pos++
	var sb strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == quote:
			l.pos++
			return sb.String(), nil
		case c == '\\' && l.pos+1 < len(l.src):
			e := l.src[l.pos+1]
			l.pos += 2
			if quote == '\'' {
				sb.WriteByte(e)
				continue
			}
			switch e {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case 'b':
				sb.WriteByte('\b')
			case 'f':
				sb.WriteByte('\f')
			default:
				sb.WriteByte(e)
			}
		default:
			sb.WriteByte(c)
			l.pos++
		}
	}
	return "", fmt.Errorf("offset %d: unterminated literal", start)
}

type provnParser struct {
	lex  lexer
	tok  token
	ns   *namespaces
	doc  *prov.Document
	anon int
}

func readPROVN(data []byte) (*prov.Document, error) {
	p := &provnParser{lex: lexer{src: string(data)}, ns: newNamespaces(), doc: prov.NewDocument()}
	if err := p.parse(); err != nil {
		return nil, fmt.Errorf("provn: %w", err)
	}
	return p.doc, nil
}

func (p *provnParser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *provnParser) errorf(format string, args ...any) error {
	return fmt.Errorf("offset %d: %s", p.tok.pos, fmt.Sprintf(format, args...))
}

func (p *provnParser) expect(kind tokenKind, text string) error {
	if p.tok.kind != kind || (text != "" && p.tok.text != text) {
		want := text
		if want == "" {
			want = "a name"
		}
		return p.errorf("expected %s, found %s", want, p.tok)
	}
	return p.advance()
}

func (p *provnParser) parse() error {
	if err := p.advance(); err != nil {
		return err
	}
	if err := p.expect(tokName, "document"); err != nil {
		return err
	}
	for {
		if p.tok.kind != tokName {
			return p.errorf("expected a statement, found %s", p.tok)
		}
		switch p.tok.text {
		case "endDocument":
			if err := p.advance(); err != nil {
				return err
			}
			if p.tok.kind != tokEOF {
				return p.errorf("unexpected %s after endDocument", p.tok)
			}
			return nil
		case "default":
			if err := p.advance(); err != nil {
				return err
			}
			if p.tok.kind != tokIRI {
				return p.errorf("expected an IRI, found %s", p.tok)
			}
			p.ns.bind("", p.tok.text)
			if err := p.advance(); err != nil {
				return err
			}
		case "prefix":
			if err := p.prefix(); err != nil {
				return err
			}
		case "bundle":
			return p.errorf("bundles are not supported")
		default:
			if err := p.statement(); err != nil {
				return err
			}
		}
	}
}

func (p *provnParser) prefix() error {
	if err := p.advance(); err != nil {
		return err
	}
	if p.tok.kind != tokName {
		return p.errorf("expected a prefix, found %s", p.tok)
	}
	prefix := p.tok.text
	if err := p.advance(); err != nil {
		return err
	}
	if p.tok.kind != tokIRI {
		return p.errorf("expected an IRI, found %s", p.tok)
	}
	p.ns.bind(prefix, p.tok.text)
	return p.advance()
}

// statement parses keyword([id;] arg, ... [, [attrs]]).
func (p *provnParser) statement() error {
	kind, ok := prov.KindByKeyword(p.tok.text)
	if !ok {
		return p.errorf("unknown statement %s", p.tok)
	}
	if err := p.advance(); err != nil {
		return err
	}
	if err := p.expect(tokPunct, "("); err != nil {
		return err
	}

	var id string
	var args []string
	var attrs prov.Attributes
	for {
		if p.tok.kind == tokPunct && p.tok.text == "[" {
			parsed, err := p.attributes()
			if err != nil {
				return err
			}
			attrs = parsed
		} else {
			if p.tok.kind != tokName {
				return p.errorf("expected an argument, found %s", p.tok)
			}
			arg := p.tok.text
			if err := p.advance(); err != nil {
				return err
			}
			if p.tok.kind == tokPunct && p.tok.text == ";" {
				if id != "" || len(args) > 0 {
					return p.errorf("identifier must come first")
				}
				id = arg
				if err := p.advance(); err != nil {
					return err
				}
				continue
			}
			args = append(args, arg)
		}

		if p.tok.kind == tokPunct && p.tok.text == ")" {
			break
		}
		if err := p.expect(tokPunct, ","); err != nil {
			return err
		}
	}
	if err := p.advance(); err != nil {
		return err
	}
	return p.record(kind, id, args, attrs)
}

func (p *provnParser) record(kind prov.Kind, id string, args []string, attrs prov.Attributes) error {
	if kind.IsElement() {
		if len(args) == 0 {
			return fmt.Errorf("%s without identifier", kind.Keyword())
		}
		id, args = args[0], args[1:]
	} else {
		if len(args) < 2 {
			return fmt.Errorf("%s needs two arguments", kind.Keyword())
		}
	}

	var ends [2]prov.QualifiedName
	if kind.IsRelation() {
		for i := range ends {
			if args[i] != "-" {
				ends[i] = p.ns.resolve(args[i])
			}
		}
		args = args[2:]
	}

	slots := kind.ExtraSlots()
	if len(args) > len(slots) {
		return fmt.Errorf("%s: too many arguments", kind.Keyword())
	}
	for i, arg := range args {
		if arg == "-" {
			continue
		}
		v := prov.QName(p.ns.resolve(arg))
		if isTimeSlot(slots[i]) {
			v = prov.Typed(arg, prov.DatatypeDateTime)
		}
		attrs = append(attrs, prov.Attribute{Key: slots[i], Value: v})
	}

	if kind.IsElement() {
		p.doc.AddElement(prov.Element{Kind: kind, ID: p.ns.resolve(id), Attributes: attrs})
		return nil
	}
	r := prov.Relation{Kind: kind, Source: ends[0], Target: ends[1], Attributes: attrs}
	if id != "" && id != "-" {
		r.ID = p.ns.resolve(id)
	}
	p.doc.AddRelation(r)
	return nil
}

func (p *provnParser) attributes() (prov.Attributes, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	var attrs prov.Attributes
	if p.tok.kind == tokPunct && p.tok.text == "]" {
		return attrs, p.advance()
	}
	for {
		if p.tok.kind != tokName {
			return nil, p.errorf("expected an attribute name, found %s", p.tok)
		}
		key := p.ns.resolve(p.tok.text)
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expect(tokPunct, "="); err != nil {
			return nil, err
		}
		value, err := p.literal()
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, prov.Attribute{Key: key, Value: value})

		if p.tok.kind == tokPunct && p.tok.text == "]" {
			return attrs, p.advance()
		}
		if err := p.expect(tokPunct, ","); err != nil {
			return nil, err
		}
	}
}

func (p *provnParser) literal() (prov.Literal, error) {
	t := p.tok
	if err := p.advance(); err != nil {
		return prov.Literal{}, err
	}
	switch t.kind {
	case tokQName:
		return prov.QName(p.ns.resolve(t.text)), nil
	case tokName:
		if i, err := strconv.ParseInt(t.text, 10, 64); err == nil {
			return prov.Int(i), nil
		}
		if _, err := strconv.ParseFloat(t.text, 64); err == nil {
			return prov.Typed(t.text, prov.DatatypeDouble), nil
		}
		return prov.Literal{}, fmt.Errorf("offset %d: invalid literal %s", t.pos, t)
	case tokString:
	default:
		return prov.Literal{}, fmt.Errorf("offset %d: expected a literal, found %s", t.pos, t)
	}

	switch {
	case p.tok.kind == tokPunct && p.tok.text == "%%":
		if err := p.advance(); err != nil {
			return prov.Literal{}, err
		}
		if p.tok.kind != tokName {
			return prov.Literal{}, p.errorf("expected a datatype, found %s", p.tok)
		}
		datatype := p.tok.text
		if err := p.advance(); err != nil {
			return prov.Literal{}, err
		}
		return typedLiteral(p.ns, t.text, datatype), nil
	case p.tok.kind == tokPunct && p.tok.text == "@":
		if err := p.advance(); err != nil {
			return prov.Literal{}, err
		}
		if p.tok.kind != tokName {
			return prov.Literal{}, errors.New("expected a language tag")
		}
		return prov.String(t.text), p.advance()
	}
	return prov.String(t.text), nil
}
