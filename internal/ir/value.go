package ir

import (
	"slices"
	"strconv"
	"unicode/utf16"
)

// IRValue is a sealed interface representing the value types allowed in
// canonical JSON. Only IRString, IRInt, IRBool, IRArray, and IRObject
// implement it. There is NO IRFloat: physical values enter the canonical
// form through Decimal, never as binary floats.
type IRValue interface {
	irValue() // Sealed - only these types implement it
}

// IRString represents a string value in the IR.
type IRString string

func (IRString) irValue() {}

// IRInt represents an integer value in the IR.
type IRInt int64

func (IRInt) irValue() {}

// IRBool represents a boolean value in the IR.
type IRBool bool

func (IRBool) irValue() {}

// IRArray represents an array of IRValue elements.
type IRArray []IRValue

func (IRArray) irValue() {}

// IRObject represents a map of string keys to IRValue elements.
// Use SortedKeys() for deterministic iteration.
type IRObject map[string]IRValue

func (IRObject) irValue() {}

// Decimal formats f as its shortest round-trip decimal representation.
// Emitters and the canonical form share it so that every artifact prints
// the same digits for the same physical value.
func Decimal(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// IRDecimal wraps a float as its Decimal string.
func IRDecimal(f float64) IRString {
	return IRString(Decimal(f))
}

// IRStrings converts a string slice to an IRArray.
func IRStrings(ss []string) IRArray {
	arr := make(IRArray, len(ss))
	for i, s := range ss {
		arr[i] = IRString(s)
	}
	return arr
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// CRITICAL: Go's sort.Strings uses UTF-8 which produces DIFFERENT order.
func (obj IRObject) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785 (Canonical JSON).
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
