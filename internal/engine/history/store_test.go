package history

import (
	"errors"
	"testing"

	"github.com/dshills/inkpad/internal/storage"
)

// Helper to create a store over an in-memory substrate.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := storage.Open(storage.InMemoryConfig())
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db)
}

// Key Layout Tests

func TestGroupKeyRoundTrip(t *testing.T) {
	for _, seq := range []uint64{0, 1, 999, 1 << 40} {
		key := groupKey(seq)
		got, ok := parseGroupKey(key)
		if !ok || got != seq {
			t.Errorf("parseGroupKey(%q) = %d, %v; want %d", key, got, ok, seq)
		}
	}
}

func TestParseGroupKeyRejectsForeignKeys(t *testing.T) {
	for _, key := range []string{metaNextSeqKey, metaCursorKey, "g:", "g:xyz", "h:0000000000000001"} {
		if _, ok := parseGroupKey(key); ok {
			t.Errorf("parseGroupKey(%q) should fail", key)
		}
	}
}

// Store Tests

func TestStoreGroupRoundTrip(t *testing.T) {
	st := newTestStore(t)

	g := EditGroup{
		Seq: 7,
		Operations: []EditOperation{
			NewInsertOperation(0, "héllo").WithCursors(
				CursorSnapshot{Line: 0, Col: 0},
				CursorSnapshot{Line: 0, Col: 5},
			),
			NewDeleteOperation(5, "x"),
		},
	}
	meta := Meta{NextSeq: 8, Cursor: 8}

	if err := st.PutGroups("file-1", []EditGroup{g}, meta); err != nil {
		t.Fatalf("PutGroups failed: %v", err)
	}

	got, err := st.Group("file-1", 7)
	if err != nil {
		t.Fatalf("Group failed: %v", err)
	}
	if got.Seq != 7 || got.Len() != 2 {
		t.Errorf("got seq %d with %d operations", got.Seq, got.Len())
	}
	if got.Operations[0].Inserted != "héllo" {
		t.Errorf("operation text = %q", got.Operations[0].Inserted)
	}
	if got.Operations[0].CursorAfter != (CursorSnapshot{Line: 0, Col: 5}) {
		t.Error("cursor snapshot lost")
	}

	loaded, found, err := st.LoadMeta("file-1")
	if err != nil || !found {
		t.Fatalf("LoadMeta = %v, %v", found, err)
	}
	if loaded != meta {
		t.Errorf("meta = %+v, want %+v", loaded, meta)
	}
}

func TestStoreGroupNotFound(t *testing.T) {
	st := newTestStore(t)

	_, err := st.Group("file-1", 42)
	if !errors.Is(err, ErrGroupNotFound) {
		t.Errorf("expected ErrGroupNotFound, got %v", err)
	}
}

func TestStoreGroupSeqsOrdered(t *testing.T) {
	st := newTestStore(t)

	// Written out of order; key layout must bring them back sorted.
	for _, seq := range []uint64{9, 2, 100, 10} {
		g := EditGroup{Seq: seq, Operations: []EditOperation{NewInsertOperation(0, "a")}}
		if err := st.PutGroups("file-1", []EditGroup{g}, Meta{NextSeq: 101}); err != nil {
			t.Fatalf("PutGroups failed: %v", err)
		}
	}

	seqs, err := st.GroupSeqs("file-1")
	if err != nil {
		t.Fatalf("GroupSeqs failed: %v", err)
	}
	want := []uint64{2, 9, 10, 100}
	if len(seqs) != len(want) {
		t.Fatalf("got %d seqs, want %d", len(seqs), len(want))
	}
	for i := range want {
		if seqs[i] != want[i] {
			t.Errorf("seqs[%d] = %d, want %d", i, seqs[i], want[i])
		}
	}

	n, err := st.CountGroups("file-1")
	if err != nil || n != 4 {
		t.Errorf("CountGroups = %d, %v; want 4", n, err)
	}
}

func TestStoreDeleteGroups(t *testing.T) {
	st := newTestStore(t)

	for seq := uint64(0); seq < 3; seq++ {
		g := EditGroup{Seq: seq, Operations: []EditOperation{NewInsertOperation(0, "a")}}
		if err := st.PutGroups("file-1", []EditGroup{g}, Meta{NextSeq: seq + 1}); err != nil {
			t.Fatalf("PutGroups failed: %v", err)
		}
	}

	// Includes a seq that was never written.
	if err := st.DeleteGroups("file-1", []uint64{0, 2, 99}); err != nil {
		t.Fatalf("DeleteGroups failed: %v", err)
	}

	seqs, err := st.GroupSeqs("file-1")
	if err != nil {
		t.Fatalf("GroupSeqs failed: %v", err)
	}
	if len(seqs) != 1 || seqs[0] != 1 {
		t.Errorf("remaining seqs = %v, want [1]", seqs)
	}

	if err := st.DeleteGroups("file-1", nil); err != nil {
		t.Errorf("empty delete should succeed, got %v", err)
	}
}

func TestStoreMetaMissing(t *testing.T) {
	st := newTestStore(t)

	_, found, err := st.LoadMeta("file-1")
	if err != nil {
		t.Fatalf("LoadMeta failed: %v", err)
	}
	if found {
		t.Error("meta should not be found for an unknown document")
	}
}

func TestStoreSaveMeta(t *testing.T) {
	st := newTestStore(t)

	if err := st.SaveMeta("file-1", Meta{NextSeq: 5, Cursor: 3}); err != nil {
		t.Fatalf("SaveMeta failed: %v", err)
	}
	meta, found, err := st.LoadMeta("file-1")
	if err != nil || !found {
		t.Fatalf("LoadMeta = %v, %v", found, err)
	}
	if meta.NextSeq != 5 || meta.Cursor != 3 {
		t.Errorf("meta = %+v", meta)
	}
}

func TestStoreCorruptGroup(t *testing.T) {
	st := newTestStore(t)

	if err := st.db.Put("file-1", groupKey(0), []byte("not a group record")); err != nil {
		t.Fatalf("raw put failed: %v", err)
	}

	_, err := st.Group("file-1", 0)
	if !errors.Is(err, storage.ErrCorruptValue) {
		t.Errorf("expected ErrCorruptValue, got %v", err)
	}
}

func TestStoreDeleteAll(t *testing.T) {
	st := newTestStore(t)

	for _, doc := range []string{"file-1", "file-2"} {
		g := EditGroup{Seq: 0, Operations: []EditOperation{NewInsertOperation(0, "a")}}
		if err := st.PutGroups(doc, []EditGroup{g}, Meta{NextSeq: 1}); err != nil {
			t.Fatalf("PutGroups failed: %v", err)
		}
	}

	if err := st.DeleteAll("file-1"); err != nil {
		t.Fatalf("DeleteAll failed: %v", err)
	}

	if n, _ := st.CountGroups("file-1"); n != 0 {
		t.Errorf("file-1 still has %d groups", n)
	}
	if _, found, _ := st.LoadMeta("file-1"); found {
		t.Error("file-1 meta should be gone")
	}
	if n, _ := st.CountGroups("file-2"); n != 1 {
		t.Errorf("file-2 lost its groups: %d", n)
	}
}

func TestStoreDocuments(t *testing.T) {
	st := newTestStore(t)

	for _, doc := range []string{"file-b", "file-a", "unsaved-0"} {
		g := EditGroup{Seq: 0, Operations: []EditOperation{NewInsertOperation(0, "a")}}
		if err := st.PutGroups(doc, []EditGroup{g}, Meta{NextSeq: 1}); err != nil {
			t.Fatalf("PutGroups failed: %v", err)
		}
	}
	// A namespace without history records must not be listed.
	if err := st.db.Put("session", "data", []byte("x")); err != nil {
		t.Fatalf("raw put failed: %v", err)
	}

	docs, err := st.Documents()
	if err != nil {
		t.Fatalf("Documents failed: %v", err)
	}
	want := []string{"file-a", "file-b", "unsaved-0"}
	if len(docs) != len(want) {
		t.Fatalf("docs = %v, want %v", docs, want)
	}
	for i := range want {
		if docs[i] != want[i] {
			t.Errorf("docs[%d] = %q, want %q", i, docs[i], want[i])
		}
	}
}
