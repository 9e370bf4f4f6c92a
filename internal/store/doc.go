// Package store provides SQLite-backed storage for shipped fragments.
//
// A fragment is a text plus the minimal strip state needed to unstrip it
// (strip.State.SubState). Storing fragments lets a unit of work be carved out
// of a larger document, processed elsewhere, and loaded back.
//
// # Identity
//
// Fragment IDs are content-addressed: canon.FragmentID over the text and its
// literal bindings. Saving the same fragment twice is a no-op that returns the
// same ID. Deferred values cannot be stored and are rejected.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// All listing queries order by seq, the insertion counter, never by time.
package store
