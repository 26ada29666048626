package metaxml

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
)

const declaration = `<?xml version="1.0" encoding="UTF-8"?>`

// EmitterConfig controls how a Document is written.
type EmitterConfig struct {
	// LineSeparator is written before every indented token.
	LineSeparator string
	// IndentString is repeated once per nesting level.
	IndentString string
	// PerformIndent puts element-only content on separate, indented lines.
	// Whitespace-only text is dropped in that mode.
	PerformIndent bool
	// PerformEscaping escapes markup characters in text and attribute values.
	PerformEscaping bool
	// WriteDocumentDeclaration emits a UTF-8 <?xml ...?> declaration first.
	WriteDocumentDeclaration bool
	// NormalizeEmptyElements writes childless elements as <a/> instead of <a></a>.
	NormalizeEmptyElements bool
	// CDataToCharacters writes CDATA sections as escaped text.
	CDataToCharacters bool
	// KeepElementNamesStack closes elements from a stack of open names and
	// fails on mismatches instead of trusting each element's own name.
	KeepElementNamesStack bool
	// AutopadComments surrounds comment text with single spaces when missing.
	AutopadComments bool
	// PadSelfClosing writes normalized empty elements as <a /> instead of <a/>.
	PadSelfClosing bool
}

// MetaEmitterConfig is the fixed configuration merged files are written with.
// It is a contract: merged output must stay diffable across runs.
var MetaEmitterConfig = EmitterConfig{
	LineSeparator:            "\r\n",
	IndentString:             "  ",
	PerformIndent:            true,
	PerformEscaping:          true,
	WriteDocumentDeclaration: true,
	NormalizeEmptyElements:   false,
	CDataToCharacters:        false,
	KeepElementNamesStack:    true,
	AutopadComments:          true,
	PadSelfClosing:           true,
}

// WriteError is returned when a Document cannot be written.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write error: %s", e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Write serializes doc to w with cfg and returns the number of bytes written.
func Write(w io.Writer, doc *Document, cfg EmitterConfig) (int64, error) {
	cw := &countingWriter{w: w}
	e := &emitter{
		w:   bufio.NewWriter(cw),
		cfg: cfg,
	}

	e.document(doc)
	if e.err == nil {
		e.err = e.w.Flush()
	}
	if e.err != nil {
		return cw.n, &WriteError{Err: e.err}
	}

	return cw.n, nil
}

// Marshal serializes doc into memory with cfg.
func Marshal(doc *Document, cfg EmitterConfig) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := Write(&buf, doc, cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

type emitter struct {
	w     *bufio.Writer
	cfg   EmitterConfig
	depth int
	names []string
	wrote bool
	err   error
}

func (e *emitter) document(doc *Document) {
	if e.cfg.WriteDocumentDeclaration {
		e.raw(declaration)
	}

	for _, tok := range doc.Tokens() {
		if pi, ok := tok.(*etree.ProcInst); ok && pi.Target == "xml" {
			// the source declaration is replaced by ours
			continue
		}
		if cd, ok := tok.(*etree.CharData); ok && !cd.IsCData() && cd.IsWhitespace() {
			continue
		}
		e.token(tok, false)
	}
}

func (e *emitter) token(tok Node, inline bool) {
	if e.err != nil {
		return
	}

	switch t := tok.(type) {
	case *etree.Element:
		e.element(t, inline)
	case *etree.CharData:
		e.charData(t, inline)
	case *etree.Comment:
		e.newline(inline)
		e.comment(t.Data)
	case *etree.ProcInst:
		e.newline(inline)
		if t.Inst == "" {
			e.raw("<?" + t.Target + "?>")
		} else {
			e.raw("<?" + t.Target + " " + t.Inst + "?>")
		}
	case *etree.Directive:
		e.newline(inline)
		e.raw("<!" + t.Data + ">")
	default:
		e.err = fmt.Errorf("unsupported token %T", tok)
	}
}

func (e *emitter) element(el *etree.Element, inline bool) {
	name := el.FullTag()

	e.newline(inline)
	e.raw("<" + name)
	for _, a := range el.Attr {
		e.raw(" " + a.FullKey() + `="`)
		e.raw(e.escapeAttr(a.Value))
		e.raw(`"`)
	}

	childInline := inline || !e.cfg.PerformIndent || hasText(el)
	children := el.Child
	if !childInline {
		children = significant(children)
	}

	if len(children) == 0 {
		switch {
		case !e.cfg.NormalizeEmptyElements:
			e.raw("></" + name + ">")
		case e.cfg.PadSelfClosing:
			e.raw(" />")
		default:
			e.raw("/>")
		}
		return
	}

	e.raw(">")
	e.push(name)
	for _, child := range children {
		e.token(child, childInline)
	}
	e.pop(name, childInline)
}

func (e *emitter) push(name string) {
	e.depth++
	if e.cfg.KeepElementNamesStack {
		e.names = append(e.names, name)
	}
}

func (e *emitter) pop(name string, inline bool) {
	e.depth--
	if e.cfg.KeepElementNamesStack {
		top := e.names[len(e.names)-1]
		e.names = e.names[:len(e.names)-1]
		if top != name {
			e.err = fmt.Errorf("unbalanced element: closing %q while %q is open", name, top)
			return
		}
		name = top
	}
	e.newline(inline)
	e.raw("</" + name + ">")
}

func (e *emitter) charData(cd *etree.CharData, inline bool) {
	if cd.IsCData() && !e.cfg.CDataToCharacters {
		e.raw("<![CDATA[" + strings.ReplaceAll(cd.Data, "]]>", "]]]]><![CDATA[>") + "]]>")
		return
	}
	if !inline && cd.IsWhitespace() {
		return
	}
	e.raw(e.escapeText(cd.Data))
}

func (e *emitter) comment(data string) {
	if e.cfg.AutopadComments {
		if !strings.HasPrefix(data, " ") {
			data = " " + data
		}
		if !strings.HasSuffix(data, " ") {
			data += " "
		}
	}
	e.raw("<!--" + data + "-->")
}

// newline starts an indented line unless the token is part of inline content
// or nothing has been written yet.
func (e *emitter) newline(inline bool) {
	if inline || !e.cfg.PerformIndent {
		return
	}
	if e.wrote {
		e.raw(e.cfg.LineSeparator)
	}
	e.raw(strings.Repeat(e.cfg.IndentString, e.depth))
}

func (e *emitter) raw(s string) {
	if e.err != nil || s == "" {
		return
	}
	_, e.err = e.w.WriteString(s)
	e.wrote = true
}

var (
	textEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\r", "&#xD;",
	)
	attrEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
		"\t", "&#x9;",
		"\n", "&#xA;",
		"\r", "&#xD;",
	)
)

func (e *emitter) escapeText(s string) string {
	if !e.cfg.PerformEscaping {
		return s
	}
	return textEscaper.Replace(s)
}

func (e *emitter) escapeAttr(s string) string {
	if !e.cfg.PerformEscaping {
		return s
	}
	return attrEscaper.Replace(s)
}

// hasText reports whether el carries character content, which makes its
// children mixed content that must be written verbatim.
func hasText(el *etree.Element) bool {
	for _, tok := range el.Child {
		if cd, ok := tok.(*etree.CharData); ok && (cd.IsCData() || !cd.IsWhitespace()) {
			return true
		}
	}
	return false
}

func significant(toks []etree.Token) []etree.Token {
	out := make([]etree.Token, 0, len(toks))
	for _, tok := range toks {
		if cd, ok := tok.(*etree.CharData); ok && !cd.IsCData() && cd.IsWhitespace() {
			continue
		}
		out = append(out, tok)
	}
	return out
}
