package compiler

import (
	"fmt"
	"math/bits"

	"github.com/roach88/canspec/internal/ir"
)

// LayoutEngine computes bit widths, offsets and flattened slots.
//
// Types must be laid out in topological order: a struct reference reads
// the memoized layout of its target, which therefore has to exist already.
type LayoutEngine struct {
	reg   *Registry
	types map[string]*ir.TypeDef
}

// NewLayoutEngine returns an engine over the given registry.
func NewLayoutEngine(reg *Registry) *LayoutEngine {
	return &LayoutEngine{reg: reg, types: make(map[string]*ir.TypeDef)}
}

// EnumWidth returns the minimum number of bits w with 2^w >= n, at least 1.
func EnumWidth(n int) int {
	if n <= 2 {
		return 1
	}
	return bits.Len(uint(n - 1))
}

// Width returns the memoized flattened width of a laid-out type.
func (e *LayoutEngine) Width(name string) (int, bool) {
	td, ok := e.types[name]
	if !ok {
		return 0, false
	}
	return td.Width, true
}

// LayoutType lays out a struct or enum and memoizes the result.
func (e *LayoutEngine) LayoutType(d *Decl) (ir.TypeDef, error) {
	if td, ok := e.types[d.Name]; ok {
		return *td, nil
	}

	var td ir.TypeDef
	switch d.Kind {
	case DeclEnum:
		width := EnumWidth(len(d.Variants))
		td = ir.TypeDef{
			Name:     d.Name,
			Kind:     ir.KindEnum,
			Variants: append([]string(nil), d.Variants...),
			Width:    width,
			Slots: []ir.Slot{{
				Kind:     ir.SlotEnum,
				Width:    width,
				Scale:    1,
				Range:    ir.Range{Min: 0, Max: float64(len(d.Variants) - 1)},
				Enum:     d.Name,
				Variants: append([]string(nil), d.Variants...),
			}},
		}

	case DeclStruct:
		fields, slots, width, err := e.layoutFields(d)
		if err != nil {
			return ir.TypeDef{}, err
		}
		td = ir.TypeDef{Name: d.Name, Kind: ir.KindStruct, Fields: fields, Width: width, Slots: slots}

	default:
		return ir.TypeDef{}, fmt.Errorf("layout: %q is a %s, not a struct or enum", d.Name, d.Kind)
	}

	e.types[d.Name] = &td
	return td, nil
}

// LayoutMessage lays out a message and checks it fits one frame. The CAN
// identifier is left for AllocateIDs.
func (e *LayoutEngine) LayoutMessage(d *Decl) (ir.Message, error) {
	if d.Kind != DeclMessage {
		return ir.Message{}, fmt.Errorf("layout: %q is a %s, not a message", d.Name, d.Kind)
	}

	fields, slots, width, err := e.layoutFields(d)
	if err != nil {
		return ir.Message{}, err
	}
	if width > ir.MaxFrameBits {
		return ir.Message{}, &MessageTooWideError{
			Name:     d.Name,
			Width:    width,
			Overflow: width - ir.MaxFrameBits,
			Pos:      d.Pos,
		}
	}

	// Flattened names become signal names; "a_b" and a.b must not collide.
	seen := make(map[string]bool, len(slots))
	for _, s := range slots {
		name := s.Name()
		if seen[name] {
			return ir.Message{}, &DuplicateNameError{Scope: "signal of " + d.Name, Name: name, Pos: d.Pos}
		}
		seen[name] = true
	}

	return ir.Message{
		Name:   d.Name,
		Fields: fields,
		Width:  width,
		Length: ir.ByteLength(width),
		Slots:  slots,
	}, nil
}

func (e *LayoutEngine) layoutFields(d *Decl) ([]ir.Field, []ir.Slot, int, error) {
	fields := make([]ir.Field, 0, len(d.Fields))
	var slots []ir.Slot
	offset := 0

	for _, f := range d.Fields {
		field := ir.Field{Name: f.Name, Kind: f.Kind, Offset: offset}

		switch f.Kind {
		case ir.FieldPrimitive:
			r := f.Range
			field.Range = &r
			field.Unit = f.Unit
			field.Width = f.Size
			slots = append(slots, ir.Slot{
				Path:      []string{f.Name},
				Kind:      ir.SlotScaled,
				Offset:    offset,
				Width:     f.Size,
				Scale:     r.Span() / float64(ir.MaxCode(f.Size)),
				Intercept: r.Min,
				Range:     r,
				Unit:      f.Unit,
			})

		case ir.FieldBool:
			field.Type = ir.BuiltinBool
			field.Width = 1
			slots = append(slots, ir.Slot{
				Path:   []string{f.Name},
				Kind:   ir.SlotBool,
				Offset: offset,
				Width:  1,
				Scale:  1,
				Range:  ir.Range{Min: 0, Max: 1},
			})

		case ir.FieldReference:
			td, ok := e.types[f.Type]
			if !ok {
				return nil, nil, 0, fmt.Errorf("layout: %s references %q before its layout is known", where(d.Name, f.Name), f.Type)
			}
			field.Type = td.Name
			field.TypeKind = td.Kind
			field.Width = td.Width
			for _, s := range td.Slots {
				slots = append(slots, s.Nested(f.Name, offset))
			}

		default:
			return nil, nil, 0, fmt.Errorf("layout: %s has unknown kind %q", where(d.Name, f.Name), f.Kind)
		}

		fields = append(fields, field)
		offset += field.Width
	}

	return fields, slots, offset, nil
}
