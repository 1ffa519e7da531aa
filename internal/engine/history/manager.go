package history

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dshills/inkpad/internal/storage"
)

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Step is the result of an undo or redo: the operations for the editing
// layer to apply, in application order, and the cursor position to
// restore afterwards.
type Step struct {
	Operations []EditOperation
	Cursor     CursorSnapshot
}

// Manager owns one document's undo/redo history.
//
// Sealed groups live in two tiers: hot holds the newest groups in
// memory, coldSeqs indexes older groups that live only in the store.
// Together they form one logical sequence ordered by seq; cursor is an
// index into it, one past the last applied group. current is the open
// group still collecting operations; it has no seq until sealed.
type Manager struct {
	mu sync.Mutex

	docID string
	cfg   Config
	store *Store // nil keeps the history memory-only
	log   *slog.Logger

	hot      []EditGroup // sealed, resident, oldest first
	coldSeqs []uint64    // sealed, store-resident, oldest first
	current  *EditGroup
	cursor   int
	nextSeq  uint64
	lastEdit time.Time
	paused   bool
	dirty    bool
}

// NewManager returns an empty history for docID. A nil store keeps the
// history memory-only: Flush and spilling become no-ops and MaxDepth is
// the only bound.
func NewManager(docID string, cfg Config, store *Store, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		docID: docID,
		cfg:   cfg.normalized(),
		store: store,
		log:   log.With("component", "history", "doc", docID),
	}
}

// LoadOrNew restores the history persisted for docID. It never fails:
// any read problem degrades to an empty history, and corrupt groups are
// skipped. History loss is non-fatal; the document's text does not
// depend on it.
func LoadOrNew(docID string, cfg Config, store *Store, log *slog.Logger) *Manager {
	m := NewManager(docID, cfg, store, log)
	if store == nil {
		return m
	}

	meta, haveMeta, err := store.LoadMeta(docID)
	if err != nil {
		m.log.Warn("history metadata unreadable, starting empty", "error", err)
		return m
	}
	seqs, err := store.GroupSeqs(docID)
	if err != nil {
		m.log.Warn("history index unreadable, starting empty", "error", err)
		return m
	}
	if len(seqs) == 0 && !haveMeta {
		return m
	}

	// The newest groups come back hot; the remainder stays cold.
	split := max(0, len(seqs)-m.cfg.HotCapacity)
	m.coldSeqs = append([]uint64(nil), seqs[:split]...)
	var unreadable []uint64
	for _, seq := range seqs[split:] {
		g, err := store.Group(docID, seq)
		if err != nil {
			m.log.Warn("skipping unreadable group", "seq", seq, "error", err)
			unreadable = append(unreadable, seq)
			continue
		}
		m.hot = append(m.hot, g)
	}
	if len(unreadable) > 0 {
		if err := store.DeleteGroups(docID, unreadable); err != nil {
			m.log.Warn("cleanup of unreadable groups failed", "error", err)
		}
	}

	m.nextSeq = meta.NextSeq
	if n := len(seqs); n > 0 && seqs[n-1] >= m.nextSeq {
		m.nextSeq = seqs[n-1] + 1
	}
	total := m.totalLocked()
	m.cursor = total
	if haveMeta && meta.Cursor < uint64(total) {
		m.cursor = int(meta.Cursor)
	}
	return m
}

// DocID returns the document identifier this history is keyed by.
func (m *Manager) DocID() string {
	return m.docID
}

// Persistent returns true if a store is attached.
func (m *Manager) Persistent() bool {
	return m.store != nil
}

// Record buffers one edit, deciding whether it extends the open group or
// starts a new one. now is the edit's timestamp; gaps above the group
// timeout, or operations the policy deems incompatible, seal the open
// group first. Recording after undos truncates the groups past the
// cursor: history is linear, not a tree.
//
// Persistence errors (truncation, spill, eviction) are returned as
// recoverable: the edit itself is always retained in memory.
func (m *Manager) Record(op EditOperation, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.paused || op.IsNoop() {
		return nil
	}

	if m.current == nil {
		var ioErr error
		if err := m.truncateForwardLocked(); err != nil {
			ioErr = err
		}
		m.startGroupLocked(op, now)
		return ioErr
	}

	if now.Sub(m.lastEdit) <= m.cfg.GroupTimeout && m.canExtendLocked(op) {
		m.current.Operations = append(m.current.Operations, op)
		m.lastEdit = now
		m.dirty = true
		return nil
	}

	var ioErr error
	if err := m.sealLocked(); err != nil {
		ioErr = err
	}
	m.startGroupLocked(op, now)
	return ioErr
}

func (m *Manager) startGroupLocked(op EditOperation, now time.Time) {
	m.current = &EditGroup{Operations: []EditOperation{op}}
	m.lastEdit = now
	m.dirty = true
}

func (m *Manager) canExtendLocked(op EditOperation) bool {
	last := m.current.Operations[len(m.current.Operations)-1]
	return m.cfg.Policy.Compatible(last, op)
}

// Undo closes the open group and steps the cursor back one group,
// returning its operations inverted and in reverse order plus the cursor
// position before the group. Cold groups are read through from the
// store; unreadable ones are dropped and the next older group is used.
func (m *Manager) Undo() (*Step, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		// Sealing may spill; history stays usable if that fails.
		if err := m.sealLocked(); err != nil {
			m.log.Warn("seal before undo failed", "error", err)
		}
	}

	for m.cursor > 0 {
		g, err := m.groupAtLocked(m.cursor - 1)
		if err != nil {
			if isUnreadable(err) {
				m.dropColdAtLocked(m.cursor - 1)
				continue
			}
			return nil, fmt.Errorf("load undo group: %w", err)
		}
		m.cursor--
		m.dirty = true
		return &Step{Operations: g.Inverted(), Cursor: g.CursorBefore()}, nil
	}
	return nil, ErrNothingToUndo
}

// Redo steps the cursor forward one group, returning its operations in
// recording order plus the cursor position after the group.
func (m *Manager) Redo() (*Step, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for m.cursor < m.totalLocked() {
		g, err := m.groupAtLocked(m.cursor)
		if err != nil {
			if isUnreadable(err) {
				m.dropColdAtLocked(m.cursor)
				continue
			}
			return nil, fmt.Errorf("load redo group: %w", err)
		}
		m.cursor++
		m.dirty = true
		return &Step{Operations: g.Forward(), Cursor: g.CursorAfter()}, nil
	}
	return nil, ErrNothingToRedo
}

// CanUndo returns true if undo is available.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor > 0 || (m.current != nil && !m.current.Empty())
}

// CanRedo returns true if redo is available.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor < m.totalLocked()
}

// Depth returns the number of sealed groups across both tiers.
func (m *Manager) Depth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalLocked()
}

// HotLen returns the number of sealed groups resident in memory.
func (m *Manager) HotLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hot)
}

// ColdLen returns the number of sealed groups resident only in the store.
func (m *Manager) ColdLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.coldSeqs)
}

// ForceGroupBreak seals the open group so the next Record starts a new
// undo step. Editor commands that must not merge with surrounding typing
// call this around themselves.
func (m *Manager) ForceGroupBreak() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sealLocked()
}

// PauseRecording makes Record a no-op until ResumeRecording. The editing
// layer pauses while applying undo/redo steps back to the buffer so the
// replay is not recorded again.
func (m *Manager) PauseRecording() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = true
}

// ResumeRecording re-enables Record.
func (m *Manager) ResumeRecording() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = false
}

// Recording returns true unless recording is paused.
func (m *Manager) Recording() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.paused
}

// Flush seals the open group, writes everything memory-resident together
// with the metadata in one transaction, and issues the durability
// barrier. No-op for memory-only documents and when nothing changed.
func (m *Manager) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store == nil {
		return nil
	}
	sealErr := m.sealLocked()
	if m.dirty {
		if err := m.store.PutGroups(m.docID, m.hot, m.metaLocked()); err != nil {
			return fmt.Errorf("flush history: %w", err)
		}
		if err := m.store.Sync(); err != nil {
			return fmt.Errorf("flush history: %w", err)
		}
		m.dirty = false
	}
	return sealErr
}

// DeleteHistory removes every persisted group and the metadata for this
// document and resets the in-memory state. Recording stays enabled; used
// when a tab is closed for good rather than hidden.
func (m *Manager) DeleteHistory() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = nil
	m.hot = nil
	m.coldSeqs = nil
	m.cursor = 0
	m.nextSeq = 0
	m.lastEdit = time.Time{}
	m.dirty = false

	if m.store == nil {
		return nil
	}
	if err := m.store.DeleteAll(m.docID); err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	return nil
}

// sealLocked closes the open group, assigns its seq, and enforces the
// spill and depth bounds. In-memory state is consistent before any store
// write happens, so a persistence failure leaves the group safely hot.
func (m *Manager) sealLocked() error {
	if m.current == nil || m.current.Empty() {
		m.current = nil
		return nil
	}
	g := *m.current
	m.current = nil
	g.Seq = m.nextSeq
	m.nextSeq++
	m.hot = append(m.hot, g)
	m.cursor = m.totalLocked()
	m.dirty = true

	var firstErr error
	if err := m.spillLocked(); err != nil {
		firstErr = err
	}
	if err := m.evictLocked(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// spillLocked writes the oldest over-capacity hot groups to the store
// and drops them from memory. Durability precedes removal: if the write
// fails the groups stay hot past capacity rather than being lost.
func (m *Manager) spillLocked() error {
	if m.store == nil {
		return nil
	}
	over := len(m.hot) - m.cfg.HotCapacity
	if over <= 0 {
		return nil
	}
	batch := m.hot[:over]
	if err := m.store.PutGroups(m.docID, batch, m.metaLocked()); err != nil {
		return fmt.Errorf("spill %d groups: %w", over, err)
	}
	for i := range batch {
		m.coldSeqs = append(m.coldSeqs, batch[i].Seq)
	}
	m.hot = append([]EditGroup(nil), m.hot[over:]...)
	return nil
}

// evictLocked enforces MaxDepth by removing the oldest groups, cold tier
// first. The cursor shifts down with the removed prefix. Store deletes
// cover evicted hot seqs too, since a flush may have written them.
func (m *Manager) evictLocked() error {
	excess := m.totalLocked() - m.cfg.MaxDepth
	if excess <= 0 {
		return nil
	}
	var ioErr error
	var drop []uint64
	removed := 0

	if n := min(excess, len(m.coldSeqs)); n > 0 {
		drop = append(drop, m.coldSeqs[:n]...)
		m.coldSeqs = append([]uint64(nil), m.coldSeqs[n:]...)
		removed += n
	}
	if excess > removed {
		n := min(excess-removed, len(m.hot))
		for i := 0; i < n; i++ {
			drop = append(drop, m.hot[i].Seq)
		}
		m.hot = append([]EditGroup(nil), m.hot[n:]...)
		removed += n
	}

	m.cursor = max(0, m.cursor-removed)
	m.dirty = true

	if m.store != nil && len(drop) > 0 {
		if err := m.store.DeleteGroups(m.docID, drop); err != nil {
			ioErr = fmt.Errorf("evict %d groups: %w", len(drop), err)
		}
	}
	return ioErr
}

// truncateForwardLocked drops every sealed group past the cursor from
// both tiers. Store deletes cover hot seqs too, since a flush may have
// written them.
func (m *Manager) truncateForwardLocked() error {
	total := m.totalLocked()
	if m.cursor >= total {
		return nil
	}
	var drop []uint64
	nc := len(m.coldSeqs)
	if m.cursor < nc {
		drop = append(drop, m.coldSeqs[m.cursor:]...)
		for i := range m.hot {
			drop = append(drop, m.hot[i].Seq)
		}
		m.coldSeqs = append([]uint64(nil), m.coldSeqs[:m.cursor]...)
		m.hot = nil
	} else {
		keep := m.cursor - nc
		for i := keep; i < len(m.hot); i++ {
			drop = append(drop, m.hot[i].Seq)
		}
		m.hot = append([]EditGroup(nil), m.hot[:keep]...)
	}
	m.dirty = true

	if m.store == nil || len(drop) == 0 {
		return nil
	}
	if err := m.store.DeleteGroups(m.docID, drop); err != nil {
		return fmt.Errorf("truncate forward history: %w", err)
	}
	return nil
}

// groupAtLocked returns the sealed group at logical index i, reading
// through to the store for cold entries without promoting them back into
// hot.
func (m *Manager) groupAtLocked(i int) (EditGroup, error) {
	nc := len(m.coldSeqs)
	if i >= nc {
		return m.hot[i-nc], nil
	}
	return m.store.Group(m.docID, m.coldSeqs[i])
}

// dropColdAtLocked removes the cold group at logical index i from the
// sequence after an unreadable fetch, with a best-effort store cleanup.
func (m *Manager) dropColdAtLocked(i int) {
	seq := m.coldSeqs[i]
	m.log.Warn("dropping unreadable group", "seq", seq)
	m.coldSeqs = append(append([]uint64(nil), m.coldSeqs[:i]...), m.coldSeqs[i+1:]...)
	if m.cursor > i {
		m.cursor--
	}
	m.dirty = true
	if m.store != nil {
		if err := m.store.DeleteGroups(m.docID, []uint64{seq}); err != nil {
			m.log.Warn("cleanup of unreadable group failed", "seq", seq, "error", err)
		}
	}
}

func (m *Manager) totalLocked() int {
	return len(m.coldSeqs) + len(m.hot)
}

func (m *Manager) metaLocked() Meta {
	return Meta{NextSeq: m.nextSeq, Cursor: uint64(m.cursor)}
}

func isUnreadable(err error) bool {
	return errors.Is(err, storage.ErrCorruptValue) || errors.Is(err, ErrGroupNotFound)
}
