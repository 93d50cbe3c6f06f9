package compiler

import (
	"fmt"

	"github.com/roach88/canspec/internal/ir"
)

// AllocateIDs assigns a CAN identifier to each message in declaration
// order, starting at base. A pinned message keeps its identifier and
// automatic assignment resumes above it: next = max(next, pinned+1).
//
// Identifiers must be unique and fit the 29-bit extended format.
func AllocateIDs(messages []*Decl, base uint32) ([]uint32, error) {
	ids := make([]uint32, len(messages))
	owner := make(map[uint64]*Decl, len(messages))
	next := uint64(base)

	for i, d := range messages {
		var id uint64
		if d.Pinned {
			id = uint64(d.ID)
			next = max(next, id+1)
		} else {
			id = next
			next++
		}

		if id > ir.MaxExtendedID {
			return nil, &SchemaError{
				Decl:    d.Name,
				Message: fmt.Sprintf("CAN id 0x%X exceeds the 29-bit maximum 0x%X", id, ir.MaxExtendedID),
				Pos:     d.Pos,
			}
		}
		if prev, dup := owner[id]; dup {
			return nil, &DuplicateIdError{ID: uint32(id), First: prev.Name, Second: d.Name, Pos: d.Pos}
		}
		owner[id] = d
		ids[i] = uint32(id)
	}
	return ids, nil
}

// IsExtended reports whether an identifier needs the 29-bit frame format.
func IsExtended(id uint32) bool {
	return id > ir.MaxStandardID
}
