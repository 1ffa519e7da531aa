// Package history provides undo/redo functionality for the text editor engine.
//
// Edits are recorded as operations, coalesced into groups, and kept in a
// two-tier history that can outlive the process. Key concepts:
//
// # Operations
//
// An EditOperation represents a single atomic edit with before/after state:
//   - The character position that was modified
//   - The inserted and deleted text
//   - Cursor positions before and after
//
// Operations are values and invert cleanly, so one record serves both
// undo and redo.
//
// # Groups
//
// Consecutive compatible operations coalesce into an EditGroup, the unit
// of undo. A run of typing undoes in one step; a pause longer than the
// group timeout, or an incompatible edit such as a paste, starts a new
// group. Sealed groups carry a seq that fixes their order for spilling
// and eviction.
//
// # Tiers
//
// The newest sealed groups stay hot in memory; older ones spill to the
// store and are read back on demand:
//
//	store := history.NewStore(db)
//	m := history.LoadOrNew(docID, history.DefaultConfig(), store, logger)
//
//	m.Record(op, time.Now())
//
//	step, err := m.Undo() // operations to apply, cursor to restore
//	step, err = m.Redo()
//
// A group is never dropped from memory before it is durably written, and
// the total depth across both tiers is capped by evicting the oldest.
//
// # Durability
//
//	m.Flush()         // seal, persist, and sync everything resident
//	m.DeleteHistory() // drop the document's persisted history
//
// LoadOrNew restores a persisted history on open and never fails: corrupt
// groups are skipped, and at worst the document starts with an empty
// history.
package history
