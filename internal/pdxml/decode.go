// Package pdxml reads data model documents into the raw tree consumed by
// package extract.
//
// The tree mirrors the XML one to one:
//   - an element becomes a key named after its prefixed tag ("a:Name")
//   - attributes become keys prefixed with "@" ("@Id")
//   - repeated sibling elements become a sequence
//   - a text-only element becomes a string and an empty one becomes nil
//   - text next to attributes or children is kept under "#text"
//
// Whitespace around text is trimmed.
package pdxml

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/ldmgen/internal/document"
)

// ErrNotModel is returned when a document lacks the model root.
var ErrNotModel = errors.New("not a data model document")

// TextKey holds the text of elements that also have attributes or children.
const TextKey = "#text"

type frame struct {
	name string
	rec  document.Record
	text strings.Builder
}

// Decode reads an XML document into a raw tree.
func Decode(r io.Reader) (document.Record, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = true

	var (
		stack []*frame
		root  document.Record
	)
	for {
		// RawToken keeps namespace prefixes as written instead of
		// resolving them to URIs.
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			f := &frame{name: qualified(t.Name), rec: make(document.Record, len(t.Attr))}
			for _, a := range t.Attr {
				f.rec["@"+qualified(a.Name)] = a.Value
			}
			stack = append(stack, f)
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("decoding xml: unexpected </%s>", qualified(t.Name))
			}
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if name := qualified(t.Name); name != f.name {
				return nil, fmt.Errorf("decoding xml: element <%s> closed by </%s>", f.name, name)
			}

			v := f.value()
			if len(stack) == 0 {
				root = document.Record{f.name: v}
				continue
			}
			addChild(stack[len(stack)-1].rec, f.name, v)
		}
	}

	if len(stack) > 0 {
		return nil, fmt.Errorf("decoding xml: unclosed element <%s>", stack[len(stack)-1].name)
	}
	if root == nil {
		return nil, fmt.Errorf("decoding xml: %w: no root element", ErrNotModel)
	}
	return root, nil
}

func (f *frame) value() any {
	text := strings.TrimSpace(f.text.String())
	if len(f.rec) == 0 {
		if text == "" {
			return nil
		}
		return text
	}
	if text != "" {
		f.rec[TextKey] = text
	}
	return f.rec
}

func addChild(parent document.Record, name string, v any) {
	existing, ok := parent[name]
	if !ok {
		parent[name] = v
		return
	}
	if seq, ok := existing.([]any); ok {
		parent[name] = append(seq, v)
		return
	}
	parent[name] = []any{existing, v}
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// DecodeJSON reads the JSON rendering of a raw tree, as written by
// EncodeJSON. Numbers are kept as json.Number.
func DecodeJSON(r io.Reader) (document.Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var root document.Record
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("decoding json: %w", err)
	}
	return root, nil
}

// EncodeJSON writes a raw tree as indented JSON.
func EncodeJSON(w io.Writer, root document.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(root)
}

// ReadFile reads a document from disk. Files ending in .json are read as
// the JSON rendering of the tree; anything else is read as XML.
func ReadFile(path string) (document.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return DecodeJSON(f)
	}
	return Decode(f)
}

// ModelRoot returns the model record of a document tree, found at
// Model/o:RootObject/c:Children/o:Model.
func ModelRoot(doc document.Record) (document.Record, error) {
	models := document.Records(document.Child(doc, "Model", "o:RootObject", "c:Children", "o:Model"))
	switch len(models) {
	case 0:
		return nil, ErrNotModel
	case 1:
		return models[0], nil
	default:
		return nil, fmt.Errorf("%w: %d models under the root object", ErrNotModel, len(models))
	}
}

// LoadModel reads the file at path and returns its model record.
func LoadModel(path string) (document.Record, error) {
	doc, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	root, err := ModelRoot(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return root, nil
}
