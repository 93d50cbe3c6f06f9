package schema

import (
	"fmt"
	"strconv"
)

// Kind is the shape of a tree node.
type Kind int

const (
	KindMapping Kind = iota + 1
	KindSequence
	KindScalar
)

func (k Kind) String() string {
	switch k {
	case KindMapping:
		return "mapping"
	case KindSequence:
		return "sequence"
	case KindScalar:
		return "scalar"
	default:
		return "unknown"
	}
}

// ScalarType is the resolved type of a scalar node.
type ScalarType int

const (
	ScalarString ScalarType = iota + 1
	ScalarInt
	ScalarFloat
	ScalarBool
	ScalarNull
)

func (t ScalarType) String() string {
	switch t {
	case ScalarString:
		return "string"
	case ScalarInt:
		return "int"
	case ScalarFloat:
		return "float"
	case ScalarBool:
		return "bool"
	case ScalarNull:
		return "null"
	default:
		return "unknown"
	}
}

// Pos is a source position. Line and Column are 1-based; zero means unknown.
type Pos struct {
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// IsValid reports whether the position carries a line number.
func (p Pos) IsValid() bool {
	return p.Line > 0
}

func (p Pos) String() string {
	switch {
	case !p.IsValid() && p.File == "":
		return "-"
	case !p.IsValid():
		return p.File
	case p.File == "":
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	default:
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	}
}

// Entry is one key/value pair of a mapping.
type Entry struct {
	Key    string
	KeyPos Pos
	Value  *Node
}

// Node is one node of the generic schema tree.
type Node struct {
	Kind Kind
	Pos  Pos

	Entries []Entry // KindMapping, source order
	Items   []*Node // KindSequence

	Scalar string     // KindScalar, normalized text
	Type   ScalarType // KindScalar
}

// Get returns the value of the first entry with the given key.
func (n *Node) Get(key string) (*Node, bool) {
	if n == nil || n.Kind != KindMapping {
		return nil, false
	}
	for _, e := range n.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Keys returns mapping keys in source order.
func (n *Node) Keys() []string {
	if n == nil || n.Kind != KindMapping {
		return nil
	}
	keys := make([]string, len(n.Entries))
	for i, e := range n.Entries {
		keys[i] = e.Key
	}
	return keys
}

// IsString reports whether n is a string scalar.
func (n *Node) IsString() bool {
	return n != nil && n.Kind == KindScalar && n.Type == ScalarString
}

// IsNumber reports whether n is an integer or float scalar.
func (n *Node) IsNumber() bool {
	return n != nil && n.Kind == KindScalar && (n.Type == ScalarInt || n.Type == ScalarFloat)
}

// Float returns the numeric value of an int or float scalar.
func (n *Node) Float() (float64, error) {
	if !n.IsNumber() {
		return 0, fmt.Errorf("%s: expected a number, got %s", n.Pos, n.describe())
	}
	return strconv.ParseFloat(n.Scalar, 64)
}

// Int returns the value of an integer scalar.
func (n *Node) Int() (int64, error) {
	if n == nil || n.Kind != KindScalar || n.Type != ScalarInt {
		return 0, fmt.Errorf("%s: expected an integer, got %s", n.Pos, n.describe())
	}
	return strconv.ParseInt(n.Scalar, 0, 64)
}

func (n *Node) describe() string {
	if n == nil {
		return "nothing"
	}
	if n.Kind == KindScalar {
		return n.Type.String()
	}
	return n.Kind.String()
}

// Describe returns a short human description of the node shape, such as
// "mapping" or "string".
func (n *Node) Describe() string {
	return n.describe()
}

// NewMapping builds a mapping node; used by tests and programmatic schemas.
func NewMapping(entries ...Entry) *Node {
	return &Node{Kind: KindMapping, Entries: entries}
}

// NewSequence builds a sequence node.
func NewSequence(items ...*Node) *Node {
	return &Node{Kind: KindSequence, Items: items}
}

// NewString builds a string scalar.
func NewString(s string) *Node {
	return &Node{Kind: KindScalar, Type: ScalarString, Scalar: s}
}

// NewInt builds an integer scalar.
func NewInt(v int64) *Node {
	return &Node{Kind: KindScalar, Type: ScalarInt, Scalar: strconv.FormatInt(v, 10)}
}

// NewFloat builds a float scalar.
func NewFloat(v float64) *Node {
	return &Node{Kind: KindScalar, Type: ScalarFloat, Scalar: strconv.FormatFloat(v, 'g', -1, 64)}
}

// KV is shorthand for a mapping entry without position.
func KV(key string, value *Node) Entry {
	return Entry{Key: key, Value: value}
}
