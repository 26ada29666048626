// Package metaxml parses and writes the XML-like .meta documents merged by vanilla.
//
// Parsing is lossless for everything the merge does not touch: attribute order,
// comments, CDATA sections, processing instructions and directives all survive a
// parse/write cycle. Writing always goes through an explicit EmitterConfig so
// that merged output is byte-stable.
package metaxml

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

type (
	// Node is any token of a document tree: an element, character data, a
	// comment, a directive or a processing instruction.
	Node = etree.Token
	// Element is a tagged node with attributes and ordered children.
	Element = etree.Element
)

var (
	errNoRoot          = errors.New("document has no root element")
	errTextOutsideRoot = errors.New("text outside the root element")
)

// Document is a parsed .meta file: one root element plus the tokens that
// surround it (prolog comments, doctype, trailing comments).
type Document struct {
	tree *etree.Document
}

// ParseError is returned when a source cannot be parsed into a Document.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("parse error: %s", e.Err)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse reads a whole document from r. Declared non-UTF-8 encodings are
// transcoded while reading.
func Parse(r io.Reader) (*Document, error) {
	tree := etree.NewDocument()
	tree.ReadSettings.PreserveCData = true
	tree.ReadSettings.CharsetReader = charset.NewReaderLabel

	if _, err := tree.ReadFrom(skipBOM(r)); err != nil {
		return nil, &ParseError{Err: err}
	}
	if err := checkTopLevel(tree); err != nil {
		return nil, &ParseError{Err: err}
	}

	return &Document{tree: tree}, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// checkTopLevel rejects what etree lets through at document level: a second
// root element and text around the root.
func checkTopLevel(tree *etree.Document) error {
	var root *etree.Element
	for _, t := range tree.Child {
		switch t := t.(type) {
		case *etree.Element:
			if root != nil {
				return fmt.Errorf("second root element <%s> after <%s>", t.FullTag(), root.FullTag())
			}
			root = t
		case *etree.CharData:
			if t.IsCData() || !t.IsWhitespace() {
				return errTextOutsideRoot
			}
		}
	}
	if root == nil {
		return errNoRoot
	}
	return nil
}

// ParseBytes is Parse over an in-memory source.
func ParseBytes(data []byte) (*Document, error) {
	return Parse(bytes.NewReader(data))
}

// ParseFile opens and parses the file at path. Open failures are returned as
// is so callers can tell I/O problems from malformed markup.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		var pErr *ParseError
		if errors.As(err, &pErr) {
			pErr.Source = path
		}
		return nil, err
	}

	return doc, nil
}

func (d *Document) Root() *Element {
	return d.tree.Root()
}

// Tokens returns the document level tokens in order, the root element included.
func (d *Document) Tokens() []Node {
	return d.tree.Child
}

// FirstChild returns the first immediate child element of parent whose
// qualified name is exactly tag, or nil.
//
// etree's SelectElement treats an unprefixed tag as matching any namespace
// prefix, which is looser than the exact, case-sensitive match merging needs.
func FirstChild(parent *Element, tag string) *Element {
	if parent == nil {
		return nil
	}
	for _, child := range parent.ChildElements() {
		if child.FullTag() == tag {
			return child
		}
	}
	return nil
}

// CopyNode returns a deep copy of n that shares no state with n's tree and has
// no parent. Unknown token kinds yield nil.
func CopyNode(n Node) Node {
	switch t := n.(type) {
	case *etree.Element:
		return t.Copy()
	case *etree.CharData:
		if t.IsCData() {
			return etree.NewCData(t.Data)
		}
		return etree.NewText(t.Data)
	case *etree.Comment:
		return etree.NewComment(t.Data)
	case *etree.Directive:
		return etree.NewDirective(t.Data)
	case *etree.ProcInst:
		return etree.NewProcInst(t.Target, t.Inst)
	}
	return nil
}
