package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/canspec/internal/ir"
)

func msg(name string) *Decl {
	return &Decl{Name: name, Kind: DeclMessage}
}

func pinned(name string, id uint32) *Decl {
	return &Decl{Name: name, Kind: DeclMessage, ID: id, Pinned: true}
}

// TestAllocateIDs tests automatic and pinned assignment.
func TestAllocateIDs(t *testing.T) {
	tests := []struct {
		name string
		msgs []*Decl
		base uint32
		want []uint32
	}{
		{"sequential", []*Decl{msg("A"), msg("B"), msg("C")}, 0, []uint32{0, 1, 2}},
		{"base", []*Decl{msg("A"), msg("B")}, 0x200, []uint32{0x200, 0x201}},
		{"resume above pin", []*Decl{msg("A"), pinned("B", 10), msg("C")}, 0, []uint32{0, 10, 11}},
		{"pin below next", []*Decl{msg("A"), msg("B"), pinned("C", 0x50), pinned("D", 5), msg("E")}, 0, []uint32{0, 1, 0x50, 5, 0x51}},
		{"pin first", []*Decl{pinned("A", 7), msg("B")}, 0, []uint32{7, 8}},
		{"extended", []*Decl{pinned("A", 0x7FF), msg("B")}, 0, []uint32{0x7FF, 0x800}},
		{"max extended", []*Decl{pinned("A", ir.MaxExtendedID)}, 0, []uint32{ir.MaxExtendedID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, err := AllocateIDs(tt.msgs, tt.base)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids)
		})
	}
}

// TestAllocateIDs_AutomaticIDsIncrease checks that automatic identifiers
// stay strictly above every earlier identifier.
func TestAllocateIDs_AutomaticIDsIncrease(t *testing.T) {
	msgs := []*Decl{msg("A"), pinned("B", 40), msg("C"), pinned("D", 3), msg("E"), msg("F")}
	ids, err := AllocateIDs(msgs, 0)
	require.NoError(t, err)

	var highest uint32
	for i, d := range msgs {
		if !d.Pinned && i > 0 {
			assert.Greater(t, ids[i], highest, d.Name)
		}
		highest = max(highest, ids[i])
	}
}

// TestAllocateIDs_Errors tests duplicate and out-of-range identifiers.
func TestAllocateIDs_Errors(t *testing.T) {
	t.Run("pinned collides with earlier auto", func(t *testing.T) {
		_, err := AllocateIDs([]*Decl{msg("A"), msg("B"), pinned("C", 1)}, 0)
		var dup *DuplicateIdError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, uint32(1), dup.ID)
		assert.Equal(t, "B", dup.First)
		assert.Equal(t, "C", dup.Second)
	})

	t.Run("two pins", func(t *testing.T) {
		_, err := AllocateIDs([]*Decl{pinned("A", 9), pinned("B", 9)}, 0)
		var dup *DuplicateIdError
		require.ErrorAs(t, err, &dup)
	})

	t.Run("pin above 29 bits", func(t *testing.T) {
		_, err := AllocateIDs([]*Decl{pinned("A", ir.MaxExtendedID+1)}, 0)
		var serr *SchemaError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, "A", serr.Decl)
	})

	t.Run("auto runs past 29 bits", func(t *testing.T) {
		_, err := AllocateIDs([]*Decl{pinned("A", ir.MaxExtendedID), msg("B")}, 0)
		var serr *SchemaError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, "B", serr.Decl)
	})
}

// TestIsExtended tests the 11-bit boundary.
func TestIsExtended(t *testing.T) {
	assert.False(t, IsExtended(0))
	assert.False(t, IsExtended(0x7FF))
	assert.True(t, IsExtended(0x800))
}

// TestCompile_PinnedExtendedID tests pinned ids flow into the IR.
func TestCompile_PinnedExtendedID(t *testing.T) {
	bus := mustCompile(t, "name: b\nmessages:\n  A: [{x: bool}]\n  B: {id: 0x18FF50E5, fields: [{y: bool}]}\n  C: [{z: bool}]\n")

	assert.Equal(t, uint32(0), bus.Messages[0].ID)
	assert.False(t, bus.Messages[0].Extended)

	assert.Equal(t, uint32(0x18FF50E5), bus.Messages[1].ID)
	assert.True(t, bus.Messages[1].Pinned)
	assert.True(t, bus.Messages[1].Extended)

	assert.Equal(t, uint32(0x18FF50E6), bus.Messages[2].ID)
	assert.False(t, bus.Messages[2].Pinned)
}
