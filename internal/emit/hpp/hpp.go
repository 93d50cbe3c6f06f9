// Package hpp renders a bus as a self-contained C++ header with strongly
// typed pack and unpack routines.
//
// Types are emitted in IR order, so every type is complete before its first
// use. Each routine addresses bits at absolute offsets computed from the IR
// field offsets, which are the offsets the KCD emitter publishes.
package hpp

import (
	"fmt"
	"strings"

	"github.com/roach88/canspec/internal/ir"
)

// Emitter renders C++ headers.
type Emitter struct{}

// New returns a header emitter.
func New() *Emitter {
	return &Emitter{}
}

// Name implements emit.Emitter.
func (*Emitter) Name() string {
	return "hpp"
}

// Emit implements emit.Emitter.
func (*Emitter) Emit(b *ir.Bus) ([]byte, error) {
	w := &writer{}
	guard := "CAN_" + strings.ToUpper(b.Name) + "_H"

	w.line("// Generated by canspec %s. Do not edit.", ir.CompilerVersion)
	w.line("// bus: %s", b.Name)
	w.line("// fingerprint: %s", b.Fingerprint)
	w.line("#ifndef %s", guard)
	w.line("#define %s", guard)
	w.line("")
	w.line("#include <cmath>")
	w.line("#include <cstdint>")
	w.line("#include <ostream>")
	w.line("")
	w.line("namespace can_%s {", b.Name)
	w.line("")
	w.raw(helpers)

	w.line("")
	w.line("enum class MessageId : uint32_t {")
	for _, m := range b.Messages {
		w.line("  %s = %s,", m.Name, formatID(m.ID, m.Extended))
	}
	w.line("};")

	for i := range b.Types {
		t := &b.Types[i]
		w.line("")
		switch t.Kind {
		case ir.KindEnum:
			writeEnum(w, t)
		case ir.KindStruct:
			writeStruct(w, t.Name, t.Fields, t.Width)
		default:
			return nil, fmt.Errorf("type %q has unknown kind %q", t.Name, t.Kind)
		}
	}

	for i := range b.Messages {
		m := &b.Messages[i]
		w.line("")
		writeStruct(w, m.Name, m.Fields, m.Width)
		writeMessage(w, m)
	}

	w.line("")
	w.line("} // namespace can_%s", b.Name)
	w.line("#endif // %s", guard)
	return []byte(w.String()), nil
}

const helpers = `// Bits are numbered LSB-first from byte 0 (little-endian payload).
inline uint64_t read_bits(const uint8_t *buffer, unsigned offset, unsigned width) {
  uint64_t value = 0;
  for (unsigned i = 0; i < width; ++i) {
    unsigned bit = offset + i;
    value |= (uint64_t)((buffer[bit / 8] >> (bit % 8)) & 1u) << i;
  }
  return value;
}

inline void write_bits(uint8_t *buffer, unsigned offset, unsigned width, uint64_t value) {
  for (unsigned i = 0; i < width; ++i) {
    unsigned bit = offset + i;
    uint8_t mask = (uint8_t)(1u << (bit % 8));
    if ((value >> i) & 1u) {
      buffer[bit / 8] |= mask;
    } else {
      buffer[bit / 8] &= (uint8_t)~mask;
    }
  }
}

inline uint64_t max_code(unsigned width) {
  return width >= 64 ? UINT64_MAX : (UINT64_C(1) << width) - 1;
}

// Rounds half to even (the default floating-point environment). Returns
// false if value is outside [min, max] or not a number.
inline bool quantize(double value, double min, double max, unsigned width, uint64_t &code) {
  if (!(value >= min && value <= max)) {
    return false;
  }
  uint64_t top = max_code(width);
  double x = std::nearbyint((value - min) / (max - min) * (double)top);
  if (x >= 18446744073709551616.0) {
    code = top;
  } else {
    code = (uint64_t)x;
    if (code > top) {
      code = top;
    }
  }
  return true;
}
`

func writeEnum(w *writer, t *ir.TypeDef) {
	last := len(t.Variants) - 1

	w.line("enum class %s : uint32_t {", t.Name)
	for code, v := range t.Variants {
		w.line("  %s = %d,", v, code)
	}
	w.line("};")
	w.line("")
	w.line("constexpr unsigned %s_WIDTH = %d;", t.Name, t.Width)
	w.line("")
	w.line("inline %s %s_unpack(const uint8_t *buffer, unsigned offset) {", t.Name, t.Name)
	w.line("  return (%s)read_bits(buffer, offset, %d);", t.Name, t.Width)
	w.line("}")
	w.line("")
	w.line("inline bool pack(uint8_t *buffer, unsigned offset, %s value) {", t.Name)
	w.line("  uint64_t code = (uint64_t)value;")
	w.line("  if (code > %d) {", last)
	w.line("    return false;")
	w.line("  }")
	w.line("  write_bits(buffer, offset, %d, code);", t.Width)
	w.line("  return true;")
	w.line("}")
	w.line("")
	w.line("inline std::ostream &operator<<(std::ostream &os, const %s &self) {", t.Name)
	w.line("  switch (self) {")
	for _, v := range t.Variants {
		w.line("  case %s::%s:", t.Name, v)
		w.line("    return os << \"%s::%s\";", t.Name, v)
	}
	w.line("  }")
	w.line("  return os << \"%s(\" << (uint32_t)self << \")\";", t.Name)
	w.line("}")
}

// writeStruct emits the struct definition and its unpack/pack/stream
// routines. Messages share it.
func writeStruct(w *writer, name string, fields []ir.Field, width int) {
	w.line("struct %s {", name)
	for _, f := range fields {
		w.line("  %s %s;", cppType(f), f.Name)
	}
	w.line("};")
	w.line("")
	w.line("constexpr unsigned %s_WIDTH = %d;", name, width)

	w.line("")
	w.line("inline %s %s_unpack(const uint8_t *buffer, unsigned offset) {", name, name)
	w.line("  %s self;", name)
	for _, f := range fields {
		switch f.Kind {
		case ir.FieldPrimitive:
			scale := f.Range.Span() / float64(ir.MaxCode(f.Width))
			w.line("  self.%s = %s + (double)read_bits(buffer, offset + %d, %d) * %s;",
				f.Name, literal(f.Range.Min), f.Offset, f.Width, literal(scale))
		case ir.FieldBool:
			w.line("  self.%s = read_bits(buffer, offset + %d, 1) != 0;", f.Name, f.Offset)
		case ir.FieldReference:
			w.line("  self.%s = %s_unpack(buffer, offset + %d);", f.Name, f.Type, f.Offset)
		}
	}
	w.line("  return self;")
	w.line("}")

	w.line("")
	w.line("inline bool pack(uint8_t *buffer, unsigned offset, const %s &value) {", name)
	if hasPrimitive(fields) {
		w.line("  uint64_t code = 0;")
	}
	for _, f := range fields {
		switch f.Kind {
		case ir.FieldPrimitive:
			w.line("  if (!quantize(value.%s, %s, %s, %d, code)) {",
				f.Name, literal(f.Range.Min), literal(f.Range.Max), f.Width)
			w.line("    return false;")
			w.line("  }")
			w.line("  write_bits(buffer, offset + %d, %d, code);", f.Offset, f.Width)
		case ir.FieldBool:
			w.line("  write_bits(buffer, offset + %d, 1, value.%s ? 1 : 0);", f.Offset, f.Name)
		case ir.FieldReference:
			w.line("  if (!pack(buffer, offset + %d, value.%s)) {", f.Offset, f.Name)
			w.line("    return false;")
			w.line("  }")
		}
	}
	w.line("  return true;")
	w.line("}")

	w.line("")
	w.line("inline std::ostream &operator<<(std::ostream &os, const %s &self) {", name)
	w.line("  return os << \"{ \"")
	for i, f := range fields {
		sep := ", "
		if i == len(fields)-1 {
			sep = " "
		}
		w.line("            << \"%s = \" << self.%s << \"%s\"", f.Name, f.Name, sep)
	}
	w.line("            << \"}\";")
	w.line("}")
}

func writeMessage(w *writer, m *ir.Message) {
	w.line("")
	w.line("constexpr uint32_t %s_ID = %s;", m.Name, formatID(m.ID, m.Extended))
	w.line("constexpr bool %s_EXTENDED = %t;", m.Name, m.Extended)
	w.line("constexpr unsigned %s_LENGTH = %d;", m.Name, m.Length)
	w.line("")
	w.line("inline %s %s_decode(const uint8_t *payload) {", m.Name, m.Name)
	w.line("  return %s_unpack(payload, 0);", m.Name)
	w.line("}")
	w.line("")
	w.line("// Zeroes the first %s_LENGTH bytes of payload, then packs value.", m.Name)
	w.line("inline bool encode(const %s &value, uint8_t *payload) {", m.Name)
	w.line("  for (unsigned i = 0; i < %s_LENGTH; ++i) {", m.Name)
	w.line("    payload[i] = 0;")
	w.line("  }")
	w.line("  return pack(payload, 0, value);")
	w.line("}")
}

func cppType(f ir.Field) string {
	switch f.Kind {
	case ir.FieldPrimitive:
		return "double"
	case ir.FieldBool:
		return "bool"
	default:
		return f.Type
	}
}

func hasPrimitive(fields []ir.Field) bool {
	for _, f := range fields {
		if f.Kind == ir.FieldPrimitive {
			return true
		}
	}
	return false
}

func formatID(id uint32, extended bool) string {
	if extended {
		return fmt.Sprintf("0x%08X", id)
	}
	return fmt.Sprintf("0x%03X", id)
}

// literal renders a float as a C++ double literal with the same digits as
// the IR's canonical decimal.
func literal(f float64) string {
	s := ir.Decimal(f)
	if strings.ContainsAny(s, ".eE") {
		return s
	}
	return s + ".0"
}

type writer struct {
	strings.Builder
}

func (w *writer) line(format string, args ...any) {
	if len(args) == 0 {
		w.WriteString(format)
	} else {
		fmt.Fprintf(w, format, args...)
	}
	w.WriteByte('\n')
}

func (w *writer) raw(s string) {
	w.WriteString(s)
}
