// Package store provides SQLite-backed storage for compiled export bundles.
//
// The archive keeps:
//   - Bundles: one row per bundle id (type, entry file, diagnostics)
//   - Bundle files: path, language, content and a BLAKE3 digest per file
//
// Bundle ids are UUIDv5 values derived from the canonical fingerprint, so
// writing the same bundle twice is a no-op.
//
// # Ordering
//
// Listings order by seq ASC, id ASC COLLATE BINARY. seq is a logical
// counter assigned on insert, never a timestamp.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
