package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestResolve_Edges tests edge collection and collapsing.
func TestResolve_Edges(t *testing.T) {
	reg := registryFor(t, `
name: bus
structs:
  Dir: {enum: [A, B, C]}
  Motor: [{dir: Dir}, {on: bool}]
messages:
  Pair: [{left: Motor}, {right: Motor}, {dir: Dir}]
`)
	g, err := Resolve(reg)
	require.NoError(t, err)

	assert.Empty(t, g.Deps("Dir"))
	assert.Equal(t, []string{"Dir"}, g.Deps("Motor"))
	assert.Equal(t, []string{"Motor", "Dir"}, g.Deps("Pair"), "duplicate references collapse to one edge")
	assert.Equal(t, []Edge{
		{From: "Motor", To: "Dir"},
		{From: "Pair", To: "Motor"},
		{From: "Pair", To: "Dir"},
	}, g.Edges())
}

// TestResolve_UnknownType tests dangling references.
func TestResolve_UnknownType(t *testing.T) {
	reg := registryFor(t, "name: b\nmessages:\n  M:\n    - ok: bool\n    - bad: Ghost\n")

	_, err := Resolve(reg)
	var unknown *UnknownTypeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "Ghost", unknown.Name)
	assert.Equal(t, "M", unknown.Decl)
	assert.Equal(t, "bad", unknown.Field)
	assert.Equal(t, 5, unknown.Pos.Line)
	assert.Contains(t, err.Error(), `M.bad: unknown type "Ghost"`)
}

// TestResolve_MessageReference tests that messages are not field types.
func TestResolve_MessageReference(t *testing.T) {
	reg := registryFor(t, "name: b\nstructs:\n  S: [{m: M}]\nmessages:\n  M: [{x: bool}]\n")

	_, err := Resolve(reg)
	var invalid *InvalidReferenceError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "S", invalid.Decl)
	assert.Equal(t, "M", invalid.Target)
}

// TestResolve_TypesBeforeMessages tests deterministic error ordering.
func TestResolve_TypesBeforeMessages(t *testing.T) {
	reg := registryFor(t, "name: b\nmessages:\n  M: [{x: Missing1}]\nstructs:\n  S: [{y: Missing2}]\n")

	_, err := Resolve(reg)
	var unknown *UnknownTypeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "Missing2", unknown.Name)
}
