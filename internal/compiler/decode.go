package compiler

import (
	"fmt"
	"math"

	"github.com/roach88/canspec/internal/ir"
	"github.com/roach88/canspec/internal/schema"
)

// DeclKind classifies a registered declaration.
type DeclKind string

const (
	DeclStruct  DeclKind = "struct"
	DeclEnum    DeclKind = "enum"
	DeclMessage DeclKind = "message"
	DeclBuiltin DeclKind = "builtin"
)

// DefaultFieldSize is the bit width of a ranged field without "size".
const DefaultFieldSize = 8

// FieldSpec is a decoded field: exactly one of a ranged primitive, the
// built-in bool, or a reference to a struct or enum. The kind is decided
// once here; later stages never look at the schema tree again.
type FieldSpec struct {
	Name  string
	Kind  ir.FieldKind
	Type  string   // reference target; "bool" for bool fields
	Range ir.Range // primitives only
	Unit  string   // primitives only
	Size  int      // primitives only
	Pos   schema.Pos
}

// Decl is a decoded struct, enum or message declaration.
type Decl struct {
	Name     string
	Kind     DeclKind
	Variants []string    // enums
	Fields   []FieldSpec // structs and messages
	ID       uint32      // pinned messages
	Pinned   bool
	Pos      schema.Pos
}

// Schema is the decoded form of a whole schema document.
type Schema struct {
	Name     string
	Types    []*Decl // structs and enums, declaration order
	Messages []*Decl // declaration order
}

// Decode reads the generic tree into declarations.
//
// Grammar:
//
//	name: <bus name>
//	structs:
//	  <Name>: {enum: [<variant>, ...]}
//	  <Name>: [{<field>: <spec>}, ...]
//	messages:
//	  <Name>: [{<field>: <spec>}, ...]
//	  <Name>: {id: <n>, fields: [{<field>: <spec>}, ...]}
//
// where <spec> is a type name ("bool" or a struct/enum) or
// {range: [min, max], unit: <text>, size: <bits>}.
//
// Decode only checks shapes. Name collisions, ranges and sizes are checked
// when the declarations are registered.
func Decode(root *schema.Node) (*Schema, error) {
	if root == nil || root.Kind != schema.KindMapping {
		return nil, &SchemaError{Message: "schema root must be a mapping", Pos: nodePos(root)}
	}
	if err := checkDuplicateKeys(root, "top-level key"); err != nil {
		return nil, err
	}

	out := &Schema{}
	hasName := false

	for _, e := range root.Entries {
		switch e.Key {
		case "name":
			if !e.Value.IsString() || e.Value.Scalar == "" {
				return nil, &SchemaError{Message: "name must be a non-empty string", Pos: e.Value.Pos}
			}
			if !isIdentifier(e.Value.Scalar) {
				return nil, &SchemaError{Message: fmt.Sprintf("bus name %q is not an identifier", e.Value.Scalar), Pos: e.Value.Pos}
			}
			out.Name = e.Value.Scalar
			hasName = true

		case "structs":
			decls, err := decodeSection(e, false)
			if err != nil {
				return nil, err
			}
			out.Types = decls

		case "messages":
			decls, err := decodeSection(e, true)
			if err != nil {
				return nil, err
			}
			out.Messages = decls

		default:
			return nil, &SchemaError{
				Message: fmt.Sprintf("unknown top-level key %q (want name, structs, messages)", e.Key),
				Pos:     e.KeyPos,
			}
		}
	}

	if !hasName {
		return nil, &SchemaError{Message: "missing required top-level key \"name\"", Pos: root.Pos}
	}
	return out, nil
}

func decodeSection(e schema.Entry, messages bool) ([]*Decl, error) {
	n := e.Value
	if n.Kind == schema.KindScalar && n.Type == schema.ScalarNull {
		return nil, nil
	}
	if n.Kind != schema.KindMapping {
		return nil, &SchemaError{Message: fmt.Sprintf("%s must be a mapping, got %s", e.Key, n.Describe()), Pos: n.Pos}
	}

	decls := make([]*Decl, 0, len(n.Entries))
	for _, entry := range n.Entries {
		d, err := decodeDecl(entry, messages)
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	return decls, nil
}

func decodeDecl(e schema.Entry, message bool) (*Decl, error) {
	if !isIdentifier(e.Key) {
		return nil, &SchemaError{Message: fmt.Sprintf("declaration name %q is not an identifier", e.Key), Pos: e.KeyPos}
	}
	if isReservedTypeName(e.Key) {
		return nil, &SchemaError{Message: fmt.Sprintf("declaration name %q is reserved in the generated header", e.Key), Pos: e.KeyPos}
	}

	d := &Decl{Name: e.Key, Kind: DeclStruct, Pos: e.KeyPos}
	if message {
		d.Kind = DeclMessage
	}

	n := e.Value
	switch n.Kind {
	case schema.KindSequence:
		fields, err := decodeFields(d.Name, n)
		if err != nil {
			return nil, err
		}
		d.Fields = fields
		return d, nil

	case schema.KindMapping:
		if err := checkDuplicateKeys(n, "key of "+d.Name); err != nil {
			return nil, err
		}
		if _, ok := n.Get("enum"); ok {
			if message {
				return nil, &SchemaError{Decl: d.Name, Message: "a message cannot be an enum", Pos: n.Pos}
			}
			return decodeEnum(d, n)
		}
		if message {
			return decodePinned(d, n)
		}
	}

	return nil, &SchemaError{
		Decl:    d.Name,
		Message: fmt.Sprintf("expected a field sequence or {enum: [...]}, got %s", n.Describe()),
		Pos:     n.Pos,
	}
}

func decodeEnum(d *Decl, n *schema.Node) (*Decl, error) {
	if len(n.Entries) != 1 {
		return nil, &SchemaError{Decl: d.Name, Message: "an enum declaration takes only the \"enum\" key", Pos: n.Pos}
	}
	variants := n.Entries[0].Value
	if variants.Kind != schema.KindSequence {
		return nil, &SchemaError{Decl: d.Name, Message: "enum must be a sequence of variant names", Pos: variants.Pos}
	}

	d.Kind = DeclEnum
	seen := make(map[string]schema.Pos, len(variants.Items))
	for _, v := range variants.Items {
		if !v.IsString() || !isIdentifier(v.Scalar) {
			return nil, &SchemaError{Decl: d.Name, Message: "enum variants must be identifiers", Pos: v.Pos}
		}
		if isReservedName(v.Scalar) {
			return nil, &SchemaError{Decl: d.Name, Message: fmt.Sprintf("variant %q is reserved in the generated header", v.Scalar), Pos: v.Pos}
		}
		if prev, dup := seen[v.Scalar]; dup {
			return nil, &DuplicateNameError{Scope: "variant of " + d.Name, Name: v.Scalar, Pos: v.Pos, Previous: prev}
		}
		seen[v.Scalar] = v.Pos
		d.Variants = append(d.Variants, v.Scalar)
	}
	return d, nil
}

func decodePinned(d *Decl, n *schema.Node) (*Decl, error) {
	idNode, hasID := n.Get("id")
	fieldsNode, hasFields := n.Get("fields")
	if !hasID || !hasFields || len(n.Entries) != 2 {
		return nil, &SchemaError{
			Decl:    d.Name,
			Message: "a message mapping must be {id: <n>, fields: [...]}",
			Pos:     n.Pos,
		}
	}

	id, err := idNode.Int()
	if err != nil || id < 0 || id > math.MaxUint32 {
		return nil, &SchemaError{Decl: d.Name, Message: "id must be a non-negative integer", Pos: idNode.Pos}
	}
	if fieldsNode.Kind != schema.KindSequence {
		return nil, &SchemaError{Decl: d.Name, Message: "fields must be a sequence", Pos: fieldsNode.Pos}
	}

	fields, err := decodeFields(d.Name, fieldsNode)
	if err != nil {
		return nil, err
	}
	d.ID = uint32(id)
	d.Pinned = true
	d.Fields = fields
	return d, nil
}

func decodeFields(decl string, seq *schema.Node) ([]FieldSpec, error) {
	fields := make([]FieldSpec, 0, len(seq.Items))
	for _, item := range seq.Items {
		if item.Kind != schema.KindMapping || len(item.Entries) != 1 {
			return nil, &SchemaError{
				Decl:    decl,
				Message: "each field must be a single-key mapping {<name>: <spec>}",
				Pos:     item.Pos,
			}
		}
		e := item.Entries[0]
		if !isIdentifier(e.Key) {
			return nil, &SchemaError{Decl: decl, Message: fmt.Sprintf("field name %q is not an identifier", e.Key), Pos: e.KeyPos}
		}
		if isReservedName(e.Key) {
			return nil, &SchemaError{Decl: decl, Message: fmt.Sprintf("field name %q is reserved in the generated header", e.Key), Pos: e.KeyPos}
		}
		f, err := decodeFieldSpec(decl, e)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func decodeFieldSpec(decl string, e schema.Entry) (FieldSpec, error) {
	f := FieldSpec{Name: e.Key, Pos: e.KeyPos}
	spec := e.Value

	switch {
	case spec.IsString():
		if spec.Scalar == ir.BuiltinBool {
			f.Kind = ir.FieldBool
		} else {
			f.Kind = ir.FieldReference
		}
		f.Type = spec.Scalar
		return f, nil

	case spec.Kind == schema.KindMapping:
		return decodePrimitive(decl, f, spec)

	default:
		return f, &SchemaError{
			Decl:    decl,
			Field:   f.Name,
			Message: fmt.Sprintf("field spec must be a type name or {range, unit, size}, got %s", spec.Describe()),
			Pos:     spec.Pos,
		}
	}
}

func decodePrimitive(decl string, f FieldSpec, spec *schema.Node) (FieldSpec, error) {
	if err := checkDuplicateKeys(spec, "key of "+where(decl, f.Name)); err != nil {
		return f, err
	}

	f.Kind = ir.FieldPrimitive
	f.Size = DefaultFieldSize
	hasRange := false

	for _, e := range spec.Entries {
		switch e.Key {
		case "range":
			r, err := decodeRange(e.Value)
			if err != nil {
				return f, &SchemaError{Decl: decl, Field: f.Name, Message: err.Error(), Pos: e.Value.Pos}
			}
			f.Range = r
			hasRange = true

		case "unit":
			if !e.Value.IsString() {
				return f, &SchemaError{Decl: decl, Field: f.Name, Message: "unit must be a string", Pos: e.Value.Pos}
			}
			f.Unit = e.Value.Scalar

		case "size":
			size, err := e.Value.Int()
			if err != nil {
				return f, &SchemaError{Decl: decl, Field: f.Name, Message: "size must be an integer", Pos: e.Value.Pos}
			}
			if size < 1 || size > ir.MaxFrameBits {
				return f, &SchemaError{
					Decl:    decl,
					Field:   f.Name,
					Message: fmt.Sprintf("size %d out of range [1, %d]", size, ir.MaxFrameBits),
					Pos:     e.Value.Pos,
				}
			}
			f.Size = int(size)

		default:
			return f, &SchemaError{
				Decl:    decl,
				Field:   f.Name,
				Message: fmt.Sprintf("unknown field-spec key %q (want range, unit, size)", e.Key),
				Pos:     e.KeyPos,
			}
		}
	}

	if !hasRange {
		return f, &SchemaError{Decl: decl, Field: f.Name, Message: "missing required range", Pos: spec.Pos}
	}
	return f, nil
}

func decodeRange(n *schema.Node) (ir.Range, error) {
	if n.Kind != schema.KindSequence || len(n.Items) != 2 {
		return ir.Range{}, fmt.Errorf("range must be a two-number sequence [min, max]")
	}
	lo, err := n.Items[0].Float()
	if err != nil {
		return ir.Range{}, fmt.Errorf("range min must be a number")
	}
	hi, err := n.Items[1].Float()
	if err != nil {
		return ir.Range{}, fmt.Errorf("range max must be a number")
	}
	return ir.Range{Min: lo, Max: hi}, nil
}

// checkDuplicateKeys reports the second occurrence of a repeated mapping key.
func checkDuplicateKeys(n *schema.Node, scope string) error {
	seen := make(map[string]schema.Pos, len(n.Entries))
	for _, e := range n.Entries {
		if prev, dup := seen[e.Key]; dup {
			return &DuplicateNameError{Scope: scope, Name: e.Key, Pos: e.KeyPos, Previous: prev}
		}
		seen[e.Key] = e.KeyPos
	}
	return nil
}

func nodePos(n *schema.Node) schema.Pos {
	if n == nil {
		return schema.Pos{}
	}
	return n.Pos
}
