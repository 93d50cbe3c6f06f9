package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const roverYAML = "../../testdata/schemas/rover.yaml"
const roverCUE = "../../testdata/schemas/rover.cue"

// shape renders a tree without positions so front-ends can be compared.
func shape(n *Node) any {
	switch n.Kind {
	case KindMapping:
		out := make([]any, 0, len(n.Entries))
		for _, e := range n.Entries {
			out = append(out, []any{e.Key, shape(e.Value)})
		}
		return out
	case KindSequence:
		out := make([]any, 0, len(n.Items))
		for _, item := range n.Items {
			out = append(out, shape(item))
		}
		return out
	default:
		return n.Type.String() + ":" + n.Scalar
	}
}

func TestParseYAML_Rover(t *testing.T) {
	root, err := Load(roverYAML)
	require.NoError(t, err)

	require.Equal(t, KindMapping, root.Kind)
	assert.Equal(t, []string{"name", "structs", "messages"}, root.Keys())

	name, ok := root.Get("name")
	require.True(t, ok)
	assert.Equal(t, "rover", name.Scalar)

	structs, _ := root.Get("structs")
	assert.Equal(t, []string{"MotorTelemetry", "MotorDir"}, structs.Keys())

	messages, _ := root.Get("messages")
	assert.Equal(t, []string{"EStop", "PitchControl", "PitchPositionTelem"}, messages.Keys())

	telemetry, _ := structs.Get("MotorTelemetry")
	require.Equal(t, KindSequence, telemetry.Kind)
	require.Len(t, telemetry.Items, 2)

	position, ok := telemetry.Items[0].Get("position")
	require.True(t, ok)
	rng, _ := position.Get("range")
	require.Len(t, rng.Items, 2)
	hi, err := rng.Items[1].Float()
	require.NoError(t, err)
	assert.Equal(t, 360.0, hi)
}

func TestParseYAML_Positions(t *testing.T) {
	root, err := ParseYAML([]byte("name: bus\nstructs:\n  A:\n    - x: bool\n"), "bus.yaml")
	require.NoError(t, err)

	structs, _ := root.Get("structs")
	assert.Equal(t, Pos{File: "bus.yaml", Line: 3, Column: 3}, structs.Entries[0].KeyPos)
	assert.Equal(t, "bus.yaml:3:3", structs.Entries[0].KeyPos.String())
}

func TestParseYAML_KeepsDuplicateKeys(t *testing.T) {
	root, err := ParseYAML([]byte("structs:\n  A: [{x: bool}]\n  A: [{y: bool}]\n"), "")
	require.NoError(t, err)

	structs, _ := root.Get("structs")
	require.Len(t, structs.Entries, 2)
	assert.Equal(t, "A", structs.Entries[0].Key)
	assert.Equal(t, "A", structs.Entries[1].Key)
	assert.Equal(t, 2, structs.Entries[0].KeyPos.Line)
	assert.Equal(t, 3, structs.Entries[1].KeyPos.Line)
}

func TestParseYAML_NFCNormalization(t *testing.T) {
	root, err := ParseYAML([]byte("name: \"Mote\\u0301ur\"\n\"Mote\\u0301ur\": 1\n"), "")
	require.NoError(t, err)

	name, _ := root.Get("name")
	assert.Equal(t, "Mot\u00e9ur", name.Scalar)
	assert.Equal(t, "Mot\u00e9ur", root.Entries[1].Key)
}

func TestParseYAML_ScalarTypes(t *testing.T) {
	root, err := ParseYAML([]byte("a: 0x10\nb: 1.5e3\nc: true\nd: ~\ne: hello\nf: \"12\"\n"), "")
	require.NoError(t, err)

	tests := []struct {
		key    string
		typ    ScalarType
		scalar string
	}{
		{"a", ScalarInt, "16"},
		{"b", ScalarFloat, "1500"},
		{"c", ScalarBool, "true"},
		{"d", ScalarNull, ""},
		{"e", ScalarString, "hello"},
		{"f", ScalarString, "12"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			n, ok := root.Get(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.typ, n.Type)
			assert.Equal(t, tt.scalar, n.Scalar)
		})
	}
}

func TestParseYAML_Aliases(t *testing.T) {
	src := "base: &deg {range: [0, 360], unit: deg}\nstructs:\n  A:\n    - x: *deg\n"
	root, err := ParseYAML([]byte(src), "")
	require.NoError(t, err)

	structs, _ := root.Get("structs")
	a, _ := structs.Get("A")
	x, ok := a.Items[0].Get("x")
	require.True(t, ok)
	unit, _ := x.Get("unit")
	assert.Equal(t, "deg", unit.Scalar)
}

func TestParseYAML_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"syntax", "name: [unterminated\n"},
		{"multiple documents", "name: a\n---\nname: b\n"},
		{"non-scalar key", "? [a, b]\n: 1\n"},
		{"infinite number", "x: .inf\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(tt.src), "bad.yaml")
			require.Error(t, err)
			var perr *ParseError
			assert.ErrorAs(t, err, &perr)
		})
	}
}

func TestParseCUE_MatchesYAML(t *testing.T) {
	fromYAML, err := Load(roverYAML)
	require.NoError(t, err)
	fromCUE, err := Load(roverCUE)
	require.NoError(t, err)

	assert.Equal(t, shape(fromYAML), shape(fromCUE))
}

func TestParseCUE_Positions(t *testing.T) {
	root, err := ParseCUE([]byte("name: \"bus\"\nmessages: {\n\tA: [{x: \"bool\"}]\n}\n"), "bus.cue")
	require.NoError(t, err)

	messages, _ := root.Get("messages")
	a, _ := messages.Get("A")
	assert.Equal(t, "bus.cue", a.Pos.File)
	assert.Equal(t, 3, a.Pos.Line)
}

func TestParseCUE_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", "name: \"bus\n"},
		{"conflict", "name: \"a\"\nname: \"b\"\n"},
		{"incomplete", "name: string\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCUE([]byte(tt.src), "bad.cue")
			require.Error(t, err)
			var perr *ParseError
			assert.ErrorAs(t, err, &perr)
		})
	}
}

func TestLoad_Extensions(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "bus.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"name": "bus", "messages": {"A": [{"x": "bool"}]}}`), 0o644))
	root, err := Load(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "messages"}, root.Keys())

	txtPath := filepath.Join(dir, "bus.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("name: bus\n"), 0o644))
	_, err = Load(txtPath)
	var perr *ParseError
	assert.ErrorAs(t, err, &perr)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	assert.True(t, IsSchemaFile("a.CUE"))
	assert.False(t, IsSchemaFile("a.toml"))
}

func TestNode_Accessors(t *testing.T) {
	n := NewMapping(KV("size", NewInt(10)), KV("unit", NewString("deg")), KV("k", NewFloat(0.5)))

	size, _ := n.Get("size")
	v, err := size.Int()
	require.NoError(t, err)
	assert.Equal(t, int64(10), v)

	unit, _ := n.Get("unit")
	_, err = unit.Int()
	assert.Error(t, err)
	_, err = unit.Float()
	assert.Error(t, err)

	k, _ := n.Get("k")
	_, err = k.Int()
	assert.Error(t, err)
	f, err := k.Float()
	require.NoError(t, err)
	assert.Equal(t, 0.5, f)

	_, ok := n.Get("missing")
	assert.False(t, ok)
	_, ok = NewSequence().Get("size")
	assert.False(t, ok)
}
