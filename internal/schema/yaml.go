package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// ParseYAML parses a single YAML (or JSON) document into a tree.
// filename is only used for positions.
//
// Duplicate mapping keys are kept in the tree so that the compiler can
// report them with both positions.
func ParseYAML(data []byte, filename string) (*Node, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var doc yaml.Node
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Pos: Pos{File: filename}, Message: "empty schema document"}
		}
		return nil, &ParseError{Pos: Pos{File: filename}, Message: err.Error(), Err: err}
	}

	var extra yaml.Node
	if err := dec.Decode(&extra); err == nil {
		return nil, &ParseError{
			Pos:     Pos{File: filename, Line: extra.Line, Column: extra.Column},
			Message: "schema must contain exactly one YAML document",
		}
	}

	return fromYAML(&doc, filename, 0)
}

// maxAliasDepth bounds alias expansion so that recursive anchors fail
// instead of looping.
const maxAliasDepth = 64

func fromYAML(n *yaml.Node, file string, depth int) (*Node, error) {
	pos := Pos{File: file, Line: n.Line, Column: n.Column}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, &ParseError{Pos: pos, Message: "empty schema document"}
		}
		return fromYAML(n.Content[0], file, depth)

	case yaml.AliasNode:
		if depth >= maxAliasDepth || n.Alias == nil {
			return nil, &ParseError{Pos: pos, Message: "alias nesting too deep"}
		}
		return fromYAML(n.Alias, file, depth+1)

	case yaml.MappingNode:
		out := &Node{Kind: KindMapping, Pos: pos, Entries: make([]Entry, 0, len(n.Content)/2)}
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return nil, &ParseError{
					Pos:     Pos{File: file, Line: k.Line, Column: k.Column},
					Message: "mapping keys must be scalars",
				}
			}
			val, err := fromYAML(v, file, depth)
			if err != nil {
				return nil, err
			}
			out.Entries = append(out.Entries, Entry{
				Key:    norm.NFC.String(k.Value),
				KeyPos: Pos{File: file, Line: k.Line, Column: k.Column},
				Value:  val,
			})
		}
		return out, nil

	case yaml.SequenceNode:
		out := &Node{Kind: KindSequence, Pos: pos, Items: make([]*Node, 0, len(n.Content))}
		for _, c := range n.Content {
			item, err := fromYAML(c, file, depth)
			if err != nil {
				return nil, err
			}
			out.Items = append(out.Items, item)
		}
		return out, nil

	case yaml.ScalarNode:
		return scalarFromYAML(n, pos)

	default:
		return nil, &ParseError{Pos: pos, Message: fmt.Sprintf("unsupported YAML node kind %d", n.Kind)}
	}
}

func scalarFromYAML(n *yaml.Node, pos Pos) (*Node, error) {
	out := &Node{Kind: KindScalar, Pos: pos}

	switch n.ShortTag() {
	case "!!int":
		var v int64
		if err := n.Decode(&v); err != nil {
			return nil, &ParseError{Pos: pos, Message: fmt.Sprintf("invalid integer %q", n.Value), Err: err}
		}
		out.Type = ScalarInt
		out.Scalar = strconv.FormatInt(v, 10)
	case "!!float":
		var v float64
		if err := n.Decode(&v); err != nil {
			return nil, &ParseError{Pos: pos, Message: fmt.Sprintf("invalid number %q", n.Value), Err: err}
		}
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, &ParseError{Pos: pos, Message: fmt.Sprintf("non-finite number %q", n.Value)}
		}
		out.Type = ScalarFloat
		out.Scalar = strconv.FormatFloat(v, 'g', -1, 64)
	case "!!bool":
		var v bool
		if err := n.Decode(&v); err != nil {
			return nil, &ParseError{Pos: pos, Message: fmt.Sprintf("invalid bool %q", n.Value), Err: err}
		}
		out.Type = ScalarBool
		out.Scalar = strconv.FormatBool(v)
	case "!!null":
		out.Type = ScalarNull
	default:
		out.Type = ScalarString
		out.Scalar = norm.NFC.String(n.Value)
	}
	return out, nil
}
