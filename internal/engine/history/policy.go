package history

import "unicode/utf8"

// opClass partitions operations for grouping decisions.
type opClass int

const (
	classOther opClass = iota // paste, replace, multi-rune edits
	classInsertRune
	classDeleteRune
)

func classify(op EditOperation) opClass {
	switch {
	case op.IsInsert() && utf8.RuneCountInString(op.Inserted) == 1:
		return classInsertRune
	case op.IsDelete() && utf8.RuneCountInString(op.Deleted) == 1:
		return classDeleteRune
	default:
		return classOther
	}
}

// GroupPolicy decides whether an incoming operation may extend the group
// being built. The boundary rules are a tunable policy, not a fixed
// contract; the defaults merge uninterrupted typing and deleting bursts
// and break on anything else.
type GroupPolicy struct {
	// MergeInsertRuns merges consecutive single-rune insertions.
	MergeInsertRuns bool

	// MergeDeleteRuns merges consecutive single-rune deletions.
	MergeDeleteRuns bool

	// RequireAdjacency additionally demands that positions line up like
	// an uninterrupted burst: each insertion one past the previous, each
	// deletion at the previous position (delete key) or one before it
	// (backspace). A cursor jump then breaks the group even inside the
	// time window.
	RequireAdjacency bool
}

// DefaultGroupPolicy returns the standard typing-burst policy.
func DefaultGroupPolicy() GroupPolicy {
	return GroupPolicy{
		MergeInsertRuns:  true,
		MergeDeleteRuns:  true,
		RequireAdjacency: true,
	}
}

// Compatible reports whether next may join a group whose most recent
// operation is prev. Operations of different classes never merge; a
// multi-rune operation neither extends a group nor accepts extensions.
func (p GroupPolicy) Compatible(prev, next EditOperation) bool {
	pc := classify(prev)
	if pc != classify(next) {
		return false
	}

	switch pc {
	case classInsertRune:
		if !p.MergeInsertRuns {
			return false
		}
		if p.RequireAdjacency && next.Position != prev.Position+1 {
			return false
		}
		return true
	case classDeleteRune:
		if !p.MergeDeleteRuns {
			return false
		}
		if p.RequireAdjacency && next.Position != prev.Position && next.Position != prev.Position-1 {
			return false
		}
		return true
	default:
		return false
	}
}
