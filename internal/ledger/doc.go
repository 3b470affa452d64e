// Package ledger records one row per pipeline run in SQLite.
//
// The ledger holds metadata only: run key, topic, current status, the last
// stage detail, failure reason and the output location. Intermediate
// artifacts stay in the per-run workspace and are never persisted here.
// Status transitions mirror the run state machine and are validated on
// write. Schema changes bump schemaVersion (PRAGMA user_version); operators delete
// the database to adopt a new schema.
package ledger
