package history

import "testing"

// Operation Tests

func TestOperationIsInsert(t *testing.T) {
	insert := NewInsertOperation(5, "hello")
	if !insert.IsInsert() {
		t.Error("should be insert")
	}
	if insert.IsDelete() || insert.IsReplace() || insert.IsNoop() {
		t.Error("should not be delete, replace, or noop")
	}
}

func TestOperationIsDelete(t *testing.T) {
	del := NewDeleteOperation(5, "hello")
	if !del.IsDelete() {
		t.Error("should be delete")
	}
	if del.IsInsert() || del.IsReplace() || del.IsNoop() {
		t.Error("should not be insert, replace, or noop")
	}
}

func TestOperationIsReplace(t *testing.T) {
	replace := NewReplaceOperation(5, "hello", "world")
	if !replace.IsReplace() {
		t.Error("should be replace")
	}
	if replace.IsInsert() || replace.IsDelete() || replace.IsNoop() {
		t.Error("should not be insert, delete, or noop")
	}
}

func TestOperationIsNoop(t *testing.T) {
	if !(EditOperation{Position: 3}).IsNoop() {
		t.Error("empty texts should be noop")
	}
}

func TestOperationRuneDelta(t *testing.T) {
	tests := []struct {
		name     string
		op       EditOperation
		expected int
	}{
		{"insert ascii", NewInsertOperation(0, "hello"), 5},
		{"insert multibyte", NewInsertOperation(0, "héllo"), 5},
		{"delete", NewDeleteOperation(0, "abc"), -3},
		{"replace longer", NewReplaceOperation(0, "abc", "hello"), 2},
		{"replace shorter", NewReplaceOperation(0, "hello", "hi"), -3},
		{"replace same", NewReplaceOperation(0, "hello", "world"), 0},
		{"noop", EditOperation{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.op.RuneDelta(); got != tt.expected {
				t.Errorf("RuneDelta() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestOperationInvert(t *testing.T) {
	op := NewReplaceOperation(5, "hello", "world").WithCursors(
		CursorSnapshot{Line: 1, Col: 5},
		CursorSnapshot{Line: 1, Col: 10},
	)

	inv := op.Invert()

	if inv.Position != 5 {
		t.Error("inverted position wrong")
	}
	if inv.Deleted != "world" || inv.Inserted != "hello" {
		t.Error("inverted text wrong")
	}
	if inv.CursorBefore != (CursorSnapshot{Line: 1, Col: 10}) {
		t.Error("inverted cursor before wrong")
	}
	if inv.CursorAfter != (CursorSnapshot{Line: 1, Col: 5}) {
		t.Error("inverted cursor after wrong")
	}
}

func TestOperationInvertTwiceIsIdentity(t *testing.T) {
	op := NewInsertOperation(7, "x").WithCursors(
		CursorSnapshot{Line: 0, Col: 7},
		CursorSnapshot{Line: 0, Col: 8},
	)
	if op.Invert().Invert() != op {
		t.Error("double inversion should restore the operation")
	}
}

func TestOperationWithCursorsCopies(t *testing.T) {
	op := NewInsertOperation(0, "a")
	withCursors := op.WithCursors(CursorSnapshot{Line: 2, Col: 3}, CursorSnapshot{Line: 2, Col: 4})

	if op.CursorBefore != (CursorSnapshot{}) {
		t.Error("original operation was modified")
	}
	if withCursors.CursorBefore != (CursorSnapshot{Line: 2, Col: 3}) {
		t.Error("cursor before not set")
	}
	if withCursors.CursorAfter != (CursorSnapshot{Line: 2, Col: 4}) {
		t.Error("cursor after not set")
	}
}

// Group Tests

func TestGroupEmptyAndLen(t *testing.T) {
	var g EditGroup
	if !g.Empty() || g.Len() != 0 {
		t.Error("zero group should be empty")
	}

	g.Operations = append(g.Operations, NewInsertOperation(0, "a"))
	if g.Empty() || g.Len() != 1 {
		t.Error("group with one operation should not be empty")
	}
}

func TestGroupInverted(t *testing.T) {
	g := EditGroup{Operations: []EditOperation{
		NewInsertOperation(0, "a"),
		NewInsertOperation(1, "b"),
		NewInsertOperation(2, "c"),
	}}

	inv := g.Inverted()
	if len(inv) != 3 {
		t.Fatalf("got %d operations, want 3", len(inv))
	}

	// Reverse order, each inverted.
	if inv[0].Deleted != "c" || inv[0].Position != 2 {
		t.Errorf("first inverted op = %+v, want delete of %q at 2", inv[0], "c")
	}
	if inv[1].Deleted != "b" || inv[2].Deleted != "a" {
		t.Error("inverted order wrong")
	}
	if !inv[0].IsDelete() {
		t.Error("inverted insert should be delete")
	}

	// Source group is untouched.
	if g.Operations[0].Inserted != "a" {
		t.Error("group was modified by Inverted")
	}
}

func TestGroupForwardIsACopy(t *testing.T) {
	g := EditGroup{Operations: []EditOperation{NewInsertOperation(0, "a")}}

	fwd := g.Forward()
	fwd[0].Inserted = "mutated"

	if g.Operations[0].Inserted != "a" {
		t.Error("Forward should not alias the group's operations")
	}
}

func TestGroupCursors(t *testing.T) {
	g := EditGroup{Operations: []EditOperation{
		NewInsertOperation(0, "a").WithCursors(CursorSnapshot{Line: 0, Col: 0}, CursorSnapshot{Line: 0, Col: 1}),
		NewInsertOperation(1, "b").WithCursors(CursorSnapshot{Line: 0, Col: 1}, CursorSnapshot{Line: 0, Col: 2}),
	}}

	if g.CursorBefore() != (CursorSnapshot{Line: 0, Col: 0}) {
		t.Error("group cursor before should come from the first operation")
	}
	if g.CursorAfter() != (CursorSnapshot{Line: 0, Col: 2}) {
		t.Error("group cursor after should come from the last operation")
	}
}

func TestGroupCursorsEmpty(t *testing.T) {
	var g EditGroup
	if g.CursorBefore() != (CursorSnapshot{}) || g.CursorAfter() != (CursorSnapshot{}) {
		t.Error("empty group should report zero cursors")
	}
}
