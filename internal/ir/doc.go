// Package ir provides the frozen intermediate representation of a compiled
// CAN bus schema.
//
// This package contains type definitions, canonical serialization and the IR
// fingerprint. All other internal packages import ir; ir imports nothing
// internal, so the IR stays the foundational layer shared by the compiler,
// the codec and both emitters.
//
// Key design constraints:
//   - A Bus is never mutated after compiler.Assemble returns it
//   - Types are in dependency order, messages in declaration order
//   - Bit offsets are least-significant-bit first within a 64-bit payload word
//   - NO floats in canonical JSON: physical values are hashed as their
//     shortest decimal string so the fingerprint is platform independent
//   - All JSON tags use snake_case
package ir
