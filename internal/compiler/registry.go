package compiler

import (
	"fmt"
	"math"

	"github.com/roach88/canspec/internal/ir"
)

// Registry holds every declaration of one compilation, keyed by name.
// Structs, enums, messages and the built-in bool share one namespace.
// A Registry belongs to a single compilation and is not safe for
// concurrent use.
type Registry struct {
	byName   map[string]*Decl
	types    []*Decl
	messages []*Decl
}

// NewRegistry returns a registry with the built-in bool pre-registered.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]*Decl)}
	r.byName[ir.BuiltinBool] = &Decl{Name: ir.BuiltinBool, Kind: DeclBuiltin}
	return r
}

// Register validates a declaration and adds it to the registry.
func (r *Registry) Register(d *Decl) error {
	if prev, ok := r.byName[d.Name]; ok {
		return &DuplicateNameError{Scope: "type", Name: d.Name, Pos: d.Pos, Previous: prev.Pos}
	}
	if err := validateDecl(d); err != nil {
		return err
	}

	r.byName[d.Name] = d
	switch d.Kind {
	case DeclMessage:
		r.messages = append(r.messages, d)
	default:
		r.types = append(r.types, d)
	}
	return nil
}

// Lookup returns the declaration registered under name.
func (r *Registry) Lookup(name string) (*Decl, error) {
	d, ok := r.byName[name]
	if !ok {
		return nil, &UnknownTypeError{Name: name}
	}
	return d, nil
}

// Types returns structs and enums in registration order.
func (r *Registry) Types() []*Decl {
	return r.types
}

// Messages returns messages in registration order.
func (r *Registry) Messages() []*Decl {
	return r.messages
}

func validateDecl(d *Decl) error {
	if !isIdentifier(d.Name) {
		return &SchemaError{Message: fmt.Sprintf("declaration name %q is not an identifier", d.Name), Pos: d.Pos}
	}

	switch d.Kind {
	case DeclEnum:
		if len(d.Variants) == 0 {
			return &SchemaError{Decl: d.Name, Message: "enum must declare at least one variant", Pos: d.Pos}
		}
		seen := make(map[string]bool, len(d.Variants))
		for _, v := range d.Variants {
			if seen[v] {
				return &DuplicateNameError{Scope: "variant of " + d.Name, Name: v, Pos: d.Pos}
			}
			seen[v] = true
		}
		return nil

	case DeclStruct, DeclMessage:
		if d.Pinned && d.Kind != DeclMessage {
			return &SchemaError{Decl: d.Name, Message: "only messages can pin an id", Pos: d.Pos}
		}
		if len(d.Fields) == 0 {
			return &SchemaError{Decl: d.Name, Message: "must declare at least one field", Pos: d.Pos}
		}
		seen := make(map[string]*FieldSpec, len(d.Fields))
		for i := range d.Fields {
			f := &d.Fields[i]
			if prev, dup := seen[f.Name]; dup {
				return &DuplicateNameError{Scope: "field of " + d.Name, Name: f.Name, Pos: f.Pos, Previous: prev.Pos}
			}
			seen[f.Name] = f
			if err := validateField(d.Name, f); err != nil {
				return err
			}
		}
		return nil

	default:
		return &SchemaError{Decl: d.Name, Message: fmt.Sprintf("cannot register a %q declaration", d.Kind), Pos: d.Pos}
	}
}

// validateField checks that a field is exactly one of a ranged primitive,
// a bool or a reference.
func validateField(decl string, f *FieldSpec) error {
	fail := func(msg string) error {
		return &SchemaError{Decl: decl, Field: f.Name, Message: msg, Pos: f.Pos}
	}

	switch f.Kind {
	case ir.FieldPrimitive:
		if f.Type != "" {
			return fail("a ranged field cannot also name a type")
		}
		if math.IsNaN(f.Range.Min) || math.IsNaN(f.Range.Max) || math.IsInf(f.Range.Min, 0) || math.IsInf(f.Range.Max, 0) {
			return fail("range bounds must be finite")
		}
		if !(f.Range.Min < f.Range.Max) {
			return fail(fmt.Sprintf("range min %s must be below max %s", ir.Decimal(f.Range.Min), ir.Decimal(f.Range.Max)))
		}
		if math.IsInf(f.Range.Span(), 0) {
			return fail(fmt.Sprintf("range span %s - %s overflows a double", ir.Decimal(f.Range.Max), ir.Decimal(f.Range.Min)))
		}
		if f.Size < 1 || f.Size > ir.MaxFrameBits {
			return fail(fmt.Sprintf("size %d out of range [1, %d]", f.Size, ir.MaxFrameBits))
		}
	case ir.FieldBool:
		if f.Type != ir.BuiltinBool || f.Unit != "" || f.Size != 0 || f.Range != (ir.Range{}) {
			return fail("a bool field takes no range, unit or size")
		}
	case ir.FieldReference:
		if f.Type == "" || f.Type == ir.BuiltinBool {
			return fail("a reference field must name a struct or enum")
		}
		if f.Unit != "" || f.Size != 0 || f.Range != (ir.Range{}) {
			return fail("a reference field takes no range, unit or size")
		}
	default:
		return fail(fmt.Sprintf("unknown field kind %q", f.Kind))
	}
	return nil
}
