// Package ledger records stage runs and their skipped items in SQLite.
//
// Every stage invocation gets a row in runs with its counts and final
// status; each skipped or failed item is stored in skips with its reason so
// a later `history` call can show what a run left behind. The database lives
// at <state_dir>/ledger.db and is opened in WAL mode with a busy timeout so
// `history` can read while a run writes.
package ledger
