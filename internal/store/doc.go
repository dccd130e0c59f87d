// Package store provides a SQLite-backed archive of graph documents and
// their validation runs.
//
// Documents are content-addressed: the primary key is the domain-separated
// SHA-256 of the document's canonical JSON, and the stored body is the
// canonical form itself. Re-archiving a byte-different but semantically
// identical document is a no-op.
//
// Runs are append-only records of one validation pass over one archived
// document, keeping the full issue list as JSON for later inspection.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: runs must reference an archived document
package store
