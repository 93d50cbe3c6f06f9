// Package store provides SQLite-backed build history for compiled buses.
//
// Every recorded build captures the bus fingerprint and the message table
// (identifier, length and layout fingerprint per message), so that later
// builds can be compared against earlier ones:
//   - Builds: one row per compilation, keyed by a UUIDv7
//   - Build messages: the message table of each build, in IR order
//
// # Ordering
//
// Builds are ordered by seq INTEGER (a logical clock assigned inside the
// insert transaction), never by timestamps. Every query that returns builds
// uses ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
