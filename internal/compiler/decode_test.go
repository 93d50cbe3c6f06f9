package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/canspec/internal/ir"
	"github.com/roach88/canspec/internal/schema"
)

// TestDecode_FieldSpecVariants tests that each field spec shape decodes to
// exactly one kind.
func TestDecode_FieldSpecVariants(t *testing.T) {
	s, err := Decode(parse(t, `
name: bus
structs:
  Dir: {enum: [Up, Down]}
messages:
  M:
    - flag: bool
    - dir: Dir
    - temp: {range: [-40, 125.5], unit: C, size: 12}
    - raw: {range: [0, 255]}
`))
	require.NoError(t, err)
	require.Len(t, s.Messages, 1)

	fields := s.Messages[0].Fields
	require.Len(t, fields, 4)

	assert.Equal(t, ir.FieldBool, fields[0].Kind)
	assert.Equal(t, ir.BuiltinBool, fields[0].Type)

	assert.Equal(t, ir.FieldReference, fields[1].Kind)
	assert.Equal(t, "Dir", fields[1].Type)

	assert.Equal(t, ir.FieldPrimitive, fields[2].Kind)
	assert.Equal(t, ir.Range{Min: -40, Max: 125.5}, fields[2].Range)
	assert.Equal(t, "C", fields[2].Unit)
	assert.Equal(t, 12, fields[2].Size)

	assert.Equal(t, DefaultFieldSize, fields[3].Size)
	assert.Equal(t, "", fields[3].Unit)
}

// TestDecode_Declarations tests enums, structs and pinned messages.
func TestDecode_Declarations(t *testing.T) {
	s, err := Decode(parse(t, `
name: bus
structs:
  Dir: {enum: [Up, Down, Left]}
  Pair: [{a: bool}, {b: bool}]
messages:
  Auto: [{x: bool}]
  Fixed: {id: 0x120, fields: [{p: Pair}]}
`))
	require.NoError(t, err)

	assert.Equal(t, "bus", s.Name)
	assert.Equal(t, []string{"Dir", "Pair"}, declNames(s.Types))
	assert.Equal(t, DeclEnum, s.Types[0].Kind)
	assert.Equal(t, []string{"Up", "Down", "Left"}, s.Types[0].Variants)
	assert.Equal(t, DeclStruct, s.Types[1].Kind)

	assert.Equal(t, []string{"Auto", "Fixed"}, declNames(s.Messages))
	assert.False(t, s.Messages[0].Pinned)
	assert.True(t, s.Messages[1].Pinned)
	assert.Equal(t, uint32(0x120), s.Messages[1].ID)
	assert.Equal(t, DeclMessage, s.Messages[1].Kind)
	assert.Equal(t, 8, s.Messages[1].Pos.Line)
}

// TestDecode_EmptySections tests that structs and messages are optional.
func TestDecode_EmptySections(t *testing.T) {
	s, err := Decode(parse(t, "name: bus\nstructs:\nmessages:\n"))
	require.NoError(t, err)
	assert.Empty(t, s.Types)
	assert.Empty(t, s.Messages)
}

// TestDecode_Errors tests the shape checks.
func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		category string
		line     int
	}{
		{"missing name", "structs: {}\n", "SchemaError", 1},
		{"name not string", "name: [a]\n", "SchemaError", 1},
		{"name not identifier", "name: my bus\n", "SchemaError", 1},
		{"unknown top-level key", "name: b\nsignals: {}\n", "SchemaError", 2},
		{"duplicate top-level key", "name: b\nname: c\n", "DuplicateNameError", 2},
		{"structs not mapping", "name: b\nstructs: [a]\n", "SchemaError", 2},
		{"field not single key", "name: b\nmessages:\n  M: [{a: bool, b: bool}]\n", "SchemaError", 3},
		{"field not mapping", "name: b\nmessages:\n  M: [bool]\n", "SchemaError", 3},
		{"unknown spec shape", "name: b\nmessages:\n  M: [{a: 5}]\n", "SchemaError", 3},
		{"unknown spec key", "name: b\nmessages:\n  M: [{a: {range: [0, 1], scale: 2}}]\n", "SchemaError", 3},
		{"range not pair", "name: b\nmessages:\n  M: [{a: {range: [0, 1, 2]}}]\n", "SchemaError", 3},
		{"range not numbers", "name: b\nmessages:\n  M: [{a: {range: [low, high]}}]\n", "SchemaError", 3},
		{"size not integer", "name: b\nmessages:\n  M: [{a: {range: [0, 1], size: 2.5}}]\n", "SchemaError", 3},
		{"size zero", "name: b\nmessages:\n  M: [{a: {range: [0, 1], size: 0}}]\n", "SchemaError", 3},
		{"size too large", "name: b\nmessages:\n  M: [{a: {range: [0, 1], size: 65}}]\n", "SchemaError", 3},
		{"unit not string", "name: b\nmessages:\n  M: [{a: {range: [0, 1], unit: [V]}}]\n", "SchemaError", 3},
		{"duplicate spec key", "name: b\nmessages:\n  M: [{a: {range: [0, 1], range: [0, 2]}}]\n", "DuplicateNameError", 3},
		{"message enum", "name: b\nmessages:\n  M: {enum: [A, B]}\n", "SchemaError", 3},
		{"enum extra key", "name: b\nstructs:\n  E: {enum: [A], size: 2}\n", "SchemaError", 3},
		{"enum not sequence", "name: b\nstructs:\n  E: {enum: A}\n", "SchemaError", 3},
		{"duplicate variant", "name: b\nstructs:\n  E: {enum: [A, B, A]}\n", "DuplicateNameError", 3},
		{"variant not identifier", "name: b\nstructs:\n  E: {enum: [A, 2]}\n", "SchemaError", 3},
		{"struct mapping", "name: b\nstructs:\n  S: {id: 1, fields: [{a: bool}]}\n", "SchemaError", 3},
		{"pinned missing fields", "name: b\nmessages:\n  M: {id: 1}\n", "SchemaError", 3},
		{"pinned negative id", "name: b\nmessages:\n  M: {id: -1, fields: [{a: bool}]}\n", "SchemaError", 3},
		{"pinned id too large", "name: b\nmessages:\n  M: {id: 0x100000000, fields: [{a: bool}]}\n", "SchemaError", 3},
		{"pinned fields not sequence", "name: b\nmessages:\n  M: {id: 1, fields: {a: bool}}\n", "SchemaError", 3},
		{"declaration scalar", "name: b\nmessages:\n  M: bool\n", "SchemaError", 3},
		{"bad declaration name", "name: b\nmessages:\n  1M: [{a: bool}]\n", "SchemaError", 3},
		{"bad field name", "name: b\nmessages:\n  M: [{a-b: bool}]\n", "SchemaError", 3},
		{"non-ascii field name", "name: b\nmessages:\n  M: [{t\u00e9: bool}]\n", "SchemaError", 3},
		{"keyword field", "name: b\nmessages:\n  M: [{class: bool}]\n", "SchemaError", 3},
		{"keyword variant", "name: b\nstructs:\n  Mode: {enum: [int, delete]}\n", "SchemaError", 3},
		{"keyword declaration", "name: b\nmessages:\n  union: [{a: bool}]\n", "SchemaError", 3},
		{"header helper declaration", "name: b\nstructs:\n  quantize: [{a: bool}]\n", "SchemaError", 3},
		{"header enum declaration", "name: b\nmessages:\n  MessageId: [{a: bool}]\n", "SchemaError", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(parse(t, tt.src))
			require.Error(t, err)
			assert.Equal(t, tt.category, Category(err), err.Error())

			var pos schema.Pos
			switch e := err.(type) {
			case *SchemaError:
				pos = e.Pos
			case *DuplicateNameError:
				pos = e.Pos
			}
			assert.Equal(t, tt.line, pos.Line, err.Error())
		})
	}
}

// TestDecode_RootNotMapping tests non-mapping roots.
func TestDecode_RootNotMapping(t *testing.T) {
	_, err := Decode(nil)
	assert.Equal(t, "SchemaError", Category(err))

	_, err = Decode(schema.NewSequence())
	assert.Equal(t, "SchemaError", Category(err))
}

// TestIsIdentifier tests identifier rules.
func TestIsIdentifier(t *testing.T) {
	for _, ok := range []string{"a", "_x", "MotorDir", "pos_2", "Z9"} {
		assert.True(t, isIdentifier(ok), ok)
	}
	for _, bad := range []string{"", "2x", "a-b", "a b", "a.b", "Mot\u00e9ur", "\u0394v"} {
		assert.False(t, isIdentifier(bad), bad)
	}
}

// TestDecode_ReservedNames tests that names which would not compile in the
// generated header are rejected with the offending name in the message.
func TestDecode_ReservedNames(t *testing.T) {
	_, err := Decode(parse(t, `
name: kw
structs:
  Mode: {enum: [Idle, delete]}
messages:
  M: [{mode: Mode}]
`))
	var serr *SchemaError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "Mode", serr.Decl)
	assert.Contains(t, serr.Message, `"delete" is reserved`)

	_, err = Decode(parse(t, "name: kw\nmessages:\n  M: [{class: bool}]\n"))
	require.ErrorAs(t, err, &serr)
	assert.Contains(t, serr.Message, `field name "class" is reserved`)

	// Helper names are fine as fields; only namespace-scope names clash.
	s, err := Decode(parse(t, "name: kw\nmessages:\n  M: [{pack: bool}, {offset: bool}, {value: bool}]\n"))
	require.NoError(t, err)
	assert.Len(t, s.Messages[0].Fields, 3)
}

// TestIsReservedTypeName tests the namespace-scope reserved set.
func TestIsReservedTypeName(t *testing.T) {
	for _, name := range []string{"int", "class", "MessageId", "read_bits", "write_bits", "max_code", "quantize", "pack", "encode", "uint64_t", "self"} {
		assert.True(t, isReservedTypeName(name), name)
	}
	for _, name := range []string{"bool", "MotorDir", "Pack", "Encode"} {
		assert.False(t, isReservedTypeName(name), name)
	}
	assert.False(t, isReservedName("pack"))
	assert.True(t, isReservedName("xor"))
}
