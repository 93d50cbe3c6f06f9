package ir

import (
	"math"
	"strings"
)

// BuiltinBool is the always-in-scope bool pseudo-type.
const BuiltinBool = "bool"

// TypeKind distinguishes the two referenceable declaration kinds.
type TypeKind string

const (
	KindStruct TypeKind = "struct"
	KindEnum   TypeKind = "enum"
)

// FieldKind is the tagged variant of a field spec, decided once at decode time.
type FieldKind string

const (
	FieldPrimitive FieldKind = "primitive" // ranged numeric, scaled to an unsigned code
	FieldBool      FieldKind = "bool"      // built-in single bit
	FieldReference FieldKind = "reference" // struct or enum declared elsewhere
)

// SlotKind describes how a flattened slot maps its code to a value.
type SlotKind string

const (
	SlotScaled SlotKind = "scaled"
	SlotBool   SlotKind = "bool"
	SlotEnum   SlotKind = "enum"
)

// Range is an inclusive physical range [Min, Max] with Min < Max.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Span returns Max - Min.
func (r Range) Span() float64 {
	return r.Max - r.Min
}

// Contains reports whether v lies inside the inclusive range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Field is one member of a struct or message, with its layout resolved.
// Offset is relative to the start of the owning struct or message.
type Field struct {
	Name     string    `json:"name"`
	Kind     FieldKind `json:"kind"`
	Type     string    `json:"type,omitempty"`      // referenced type; "bool" for bool fields
	TypeKind TypeKind  `json:"type_kind,omitempty"` // kind of the referenced type
	Range    *Range    `json:"range,omitempty"`     // primitives only
	Unit     string    `json:"unit,omitempty"`      // informational
	Offset   int       `json:"bit_offset"`
	Width    int       `json:"bit_width"`
}

// Slot is one flattened, bit-packed signal.
//
// Scale and Intercept implement the quantization law:
//
//	physical = Intercept + code * Scale
//
// where Intercept = Range.Min and Scale = Range.Span() / (2^Width - 1).
// Bool and enum slots use Scale 1 and Intercept 0.
type Slot struct {
	Path      []string `json:"path"`
	Kind      SlotKind `json:"kind"`
	Offset    int      `json:"bit_offset"`
	Width     int      `json:"bit_width"`
	Scale     float64  `json:"scale"`
	Intercept float64  `json:"offset"`
	Range     Range    `json:"range"`
	Unit      string   `json:"unit,omitempty"`
	Enum      string   `json:"enum,omitempty"`
	Variants  []string `json:"variants,omitempty"`
}

// Name joins the slot path with underscores, e.g. "pitch_position".
func (s Slot) Name() string {
	return strings.Join(s.Path, "_")
}

// MaxCode returns the largest code representable in the slot, 2^Width - 1.
func (s Slot) MaxCode() uint64 {
	return MaxCode(s.Width)
}

// Nested returns a copy of s relocated under a reference field: the field
// name is prepended to the path and base is added to the offset.
func (s Slot) Nested(field string, base int) Slot {
	out := s
	out.Path = append([]string{field}, s.Path...)
	out.Offset = s.Offset + base
	if s.Variants != nil {
		out.Variants = append([]string(nil), s.Variants...)
	}
	return out
}

// MaxCode returns 2^width - 1 for width in [1, 64].
func MaxCode(width int) uint64 {
	if width >= 64 {
		return math.MaxUint64
	}
	return uint64(1)<<uint(width) - 1
}

// TypeDef is a resolved struct or enum.
type TypeDef struct {
	Name     string   `json:"name"`
	Kind     TypeKind `json:"kind"`
	Variants []string `json:"variants,omitempty"` // enums only, code = index
	Fields   []Field  `json:"fields,omitempty"`   // structs only
	Width    int      `json:"bit_width"`
	Slots    []Slot   `json:"slots"`
}

// VariantCode returns the integer code of an enum variant.
func (t *TypeDef) VariantCode(name string) (uint64, bool) {
	for i, v := range t.Variants {
		if v == name {
			return uint64(i), true
		}
	}
	return 0, false
}

// Message is a resolved bus message bound to a CAN identifier.
type Message struct {
	Name     string  `json:"name"`
	ID       uint32  `json:"id"`
	Pinned   bool    `json:"pinned,omitempty"`
	Extended bool    `json:"extended,omitempty"`
	Fields   []Field `json:"fields"`
	Width    int     `json:"bit_width"`
	Length   int     `json:"length"` // bytes, ceil(Width/8)
	Slots    []Slot  `json:"slots"`
}

// Slot looks up a flattened slot by its joined name.
func (m *Message) Slot(name string) (Slot, bool) {
	for _, s := range m.Slots {
		if s.Name() == name {
			return s, true
		}
	}
	return Slot{}, false
}

// Bus is the frozen IR of one compiled schema.
//
// Types are topologically ordered (every type after the types it contains,
// declaration order among independent types). Messages are in declaration
// order. A Bus must be treated as read-only once assembled.
type Bus struct {
	Name        string    `json:"name"`
	IRVersion   string    `json:"ir_version"`
	Types       []TypeDef `json:"types"`
	Messages    []Message `json:"messages"`
	Fingerprint string    `json:"fingerprint"`
}

// Type returns the named type definition.
func (b *Bus) Type(name string) (*TypeDef, bool) {
	for i := range b.Types {
		if b.Types[i].Name == name {
			return &b.Types[i], true
		}
	}
	return nil, false
}

// Message returns the named message.
func (b *Bus) Message(name string) (*Message, bool) {
	for i := range b.Messages {
		if b.Messages[i].Name == name {
			return &b.Messages[i], true
		}
	}
	return nil, false
}

// MessageByID returns the message bound to a CAN identifier.
func (b *Bus) MessageByID(id uint32) (*Message, bool) {
	for i := range b.Messages {
		if b.Messages[i].ID == id {
			return &b.Messages[i], true
		}
	}
	return nil, false
}

// ByteLength returns ceil(bits/8).
func ByteLength(bits int) int {
	return (bits + 7) / 8
}
