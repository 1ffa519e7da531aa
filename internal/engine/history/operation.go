package history

import "unicode/utf8"

// CursorSnapshot records a cursor position as a 0-indexed line and
// character column. Value type, copied freely.
type CursorSnapshot struct {
	Line uint32
	Col  uint32
}

// EditOperation represents a single atomic change to a document's
// character sequence. It captures all information needed to undo or
// redo the edit. Operations are immutable once recorded.
type EditOperation struct {
	// Edit data
	Position int64  // Character offset the change applies at
	Inserted string // Text added at Position (empty for pure deletion)
	Deleted  string // Text removed at Position (empty for pure insertion)

	// Cursor state for restore
	CursorBefore CursorSnapshot // Cursor position before the edit
	CursorAfter  CursorSnapshot // Cursor position after the edit
}

// NewInsertOperation creates an operation for an insertion.
func NewInsertOperation(position int64, text string) EditOperation {
	return EditOperation{Position: position, Inserted: text}
}

// NewDeleteOperation creates an operation for a deletion.
func NewDeleteOperation(position int64, text string) EditOperation {
	return EditOperation{Position: position, Deleted: text}
}

// NewReplaceOperation creates an operation for a replacement.
func NewReplaceOperation(position int64, deleted, inserted string) EditOperation {
	return EditOperation{Position: position, Deleted: deleted, Inserted: inserted}
}

// WithCursors returns a copy of the operation carrying cursor state.
func (op EditOperation) WithCursors(before, after CursorSnapshot) EditOperation {
	op.CursorBefore = before
	op.CursorAfter = after
	return op
}

// IsInsert returns true if this operation is a pure insertion.
func (op EditOperation) IsInsert() bool {
	return op.Deleted == "" && op.Inserted != ""
}

// IsDelete returns true if this operation is a pure deletion.
func (op EditOperation) IsDelete() bool {
	return op.Inserted == "" && op.Deleted != ""
}

// IsReplace returns true if this operation replaces text.
func (op EditOperation) IsReplace() bool {
	return op.Inserted != "" && op.Deleted != ""
}

// IsNoop returns true if this operation makes no changes.
func (op EditOperation) IsNoop() bool {
	return op.Inserted == "" && op.Deleted == ""
}

// RuneDelta returns the change in document length in characters.
func (op EditOperation) RuneDelta() int {
	return utf8.RuneCountInString(op.Inserted) - utf8.RuneCountInString(op.Deleted)
}

// Invert returns the operation that undoes this one: inserted and
// deleted text swap, as do the cursor snapshots.
func (op EditOperation) Invert() EditOperation {
	return EditOperation{
		Position:     op.Position,
		Inserted:     op.Deleted,
		Deleted:      op.Inserted,
		CursorBefore: op.CursorAfter,
		CursorAfter:  op.CursorBefore,
	}
}

// EditGroup is one undo step as perceived by the user: a burst of
// operations merged within the group timeout. Seq is assigned when the
// group is sealed; it is unique and strictly increasing per document and
// orders groups across the memory/disk boundary.
type EditGroup struct {
	Operations []EditOperation
	Seq        uint64
}

// Empty returns true if the group holds no operations.
func (g *EditGroup) Empty() bool {
	return len(g.Operations) == 0
}

// Len returns the number of operations in the group.
func (g *EditGroup) Len() int {
	return len(g.Operations)
}

// Inverted returns the group's operations inverted and in reverse
// order, ready to apply as a single undo step.
func (g *EditGroup) Inverted() []EditOperation {
	out := make([]EditOperation, len(g.Operations))
	for i, op := range g.Operations {
		out[len(g.Operations)-1-i] = op.Invert()
	}
	return out
}

// Forward returns a copy of the group's operations in recording order,
// ready to apply as a single redo step.
func (g *EditGroup) Forward() []EditOperation {
	return append([]EditOperation(nil), g.Operations...)
}

// CursorBefore returns the cursor position to restore after undoing the
// whole group: the snapshot taken before its first operation.
func (g *EditGroup) CursorBefore() CursorSnapshot {
	if len(g.Operations) == 0 {
		return CursorSnapshot{}
	}
	return g.Operations[0].CursorBefore
}

// CursorAfter returns the cursor position to restore after redoing the
// whole group: the snapshot taken after its last operation.
func (g *EditGroup) CursorAfter() CursorSnapshot {
	if len(g.Operations) == 0 {
		return CursorSnapshot{}
	}
	return g.Operations[len(g.Operations)-1].CursorAfter
}
