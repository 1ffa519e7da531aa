package history

import "testing"

// Policy Tests

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		op       EditOperation
		expected opClass
	}{
		{"single rune insert", NewInsertOperation(0, "a"), classInsertRune},
		{"single multibyte insert", NewInsertOperation(0, "é"), classInsertRune},
		{"multi rune insert", NewInsertOperation(0, "ab"), classOther},
		{"single rune delete", NewDeleteOperation(0, "a"), classDeleteRune},
		{"multi rune delete", NewDeleteOperation(0, "word"), classOther},
		{"replace", NewReplaceOperation(0, "a", "b"), classOther},
		{"noop", EditOperation{}, classOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.op); got != tt.expected {
				t.Errorf("classify() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestDefaultPolicyCompatible(t *testing.T) {
	p := DefaultGroupPolicy()

	tests := []struct {
		name       string
		prev, next EditOperation
		expected   bool
	}{
		{"typing run", NewInsertOperation(5, "a"), NewInsertOperation(6, "b"), true},
		{"insert with gap", NewInsertOperation(5, "a"), NewInsertOperation(9, "b"), false},
		{"insert same position", NewInsertOperation(5, "a"), NewInsertOperation(5, "b"), false},
		{"backspace run", NewDeleteOperation(5, "a"), NewDeleteOperation(4, "b"), true},
		{"forward delete run", NewDeleteOperation(5, "a"), NewDeleteOperation(5, "b"), true},
		{"delete with jump", NewDeleteOperation(5, "a"), NewDeleteOperation(9, "b"), false},
		{"insert then delete", NewInsertOperation(5, "a"), NewDeleteOperation(6, "a"), false},
		{"paste after typing", NewInsertOperation(5, "a"), NewInsertOperation(6, "pasted"), false},
		{"typing after paste", NewInsertOperation(0, "pasted"), NewInsertOperation(6, "a"), false},
		{"replace after replace", NewReplaceOperation(0, "a", "b"), NewReplaceOperation(0, "b", "c"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Compatible(tt.prev, tt.next); got != tt.expected {
				t.Errorf("Compatible() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestPolicyWithoutAdjacency(t *testing.T) {
	p := GroupPolicy{MergeInsertRuns: true, MergeDeleteRuns: true}

	if !p.Compatible(NewInsertOperation(5, "a"), NewInsertOperation(90, "b")) {
		t.Error("non-adjacent inserts should merge without the adjacency rule")
	}
	if !p.Compatible(NewDeleteOperation(5, "a"), NewDeleteOperation(90, "b")) {
		t.Error("non-adjacent deletes should merge without the adjacency rule")
	}
}

func TestZeroPolicyNeverMerges(t *testing.T) {
	var p GroupPolicy

	if p.Compatible(NewInsertOperation(5, "a"), NewInsertOperation(6, "b")) {
		t.Error("zero policy should not merge inserts")
	}
	if p.Compatible(NewDeleteOperation(5, "a"), NewDeleteOperation(4, "b")) {
		t.Error("zero policy should not merge deletes")
	}
}
