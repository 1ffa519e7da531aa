package history

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dshills/inkpad/internal/storage"
)

// ErrGroupNotFound is returned when a seq has no stored group.
var ErrGroupNotFound = errors.New("group not found")

// Key layout within a document's namespace. Group keys use a fixed-width
// decimal seq so lexicographic key order equals numeric seq order.
const (
	groupKeyPrefix = "g:"
	metaKeyPrefix  = "m:"
	metaNextSeqKey = "m:next_seq"
	metaCursorKey  = "m:cursor"
)

func groupKey(seq uint64) string {
	return fmt.Sprintf("%s%016d", groupKeyPrefix, seq)
}

func parseGroupKey(key string) (uint64, bool) {
	raw, ok := strings.CutPrefix(key, groupKeyPrefix)
	if !ok {
		return 0, false
	}
	seq, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return seq, true
}

// Meta is the per-document metadata persisted alongside groups. Cursor
// is the undo cursor position, so the undo/redo split survives restart.
type Meta struct {
	NextSeq uint64
	Cursor  uint64
}

// Store is the history keyspace over the shared storage substrate:
// per-document namespaces holding seq-keyed group records and fixed
// metadata keys.
type Store struct {
	db *storage.DB
}

// NewStore wraps db with the history key layout.
func NewStore(db *storage.DB) *Store {
	return &Store{db: db}
}

// PutGroups writes the groups and the metadata in one transaction, so a
// reader never observes a group without the seq counter that covers it.
func (s *Store) PutGroups(docID string, groups []EditGroup, meta Meta) error {
	var b storage.Batch
	for i := range groups {
		data, err := storage.EncodeValue(&groups[i])
		if err != nil {
			return fmt.Errorf("encode group %d: %w", groups[i].Seq, err)
		}
		b.Put(docID, groupKey(groups[i].Seq), data)
	}
	b.Put(docID, metaNextSeqKey, encodeUint64(meta.NextSeq))
	b.Put(docID, metaCursorKey, encodeUint64(meta.Cursor))
	if err := s.db.Apply(&b); err != nil {
		return fmt.Errorf("write %d groups for %s: %w", len(groups), docID, err)
	}
	return nil
}

// Group reads one stored group. Corruption is reported via
// storage.ErrCorruptValue; a missing seq via ErrGroupNotFound.
func (s *Store) Group(docID string, seq uint64) (EditGroup, error) {
	data, found, err := s.db.Get(docID, groupKey(seq))
	if err != nil {
		return EditGroup{}, err
	}
	if !found {
		return EditGroup{}, fmt.Errorf("group %d of %s: %w", seq, docID, ErrGroupNotFound)
	}
	var g EditGroup
	if err := storage.DecodeValue(data, &g); err != nil {
		return EditGroup{}, fmt.Errorf("group %d of %s: %w", seq, docID, err)
	}
	return g, nil
}

// GroupSeqs returns every stored group seq for the document in ascending
// order. Keys that do not parse as group keys are ignored.
func (s *Store) GroupSeqs(docID string) ([]uint64, error) {
	keys, err := s.db.Keys(docID, groupKeyPrefix)
	if err != nil {
		return nil, err
	}
	seqs := make([]uint64, 0, len(keys))
	for _, k := range keys {
		if seq, ok := parseGroupKey(k); ok {
			seqs = append(seqs, seq)
		}
	}
	return seqs, nil
}

// CountGroups returns the number of stored groups for the document.
func (s *Store) CountGroups(docID string) (int, error) {
	seqs, err := s.GroupSeqs(docID)
	if err != nil {
		return 0, err
	}
	return len(seqs), nil
}

// DeleteGroups removes the given seqs. Large spans may commit across
// several transactions; deleting an absent seq succeeds.
func (s *Store) DeleteGroups(docID string, seqs []uint64) error {
	if len(seqs) == 0 {
		return nil
	}
	keys := make([]string, len(seqs))
	for i, seq := range seqs {
		keys[i] = groupKey(seq)
	}
	return s.db.DeleteKeys(docID, keys)
}

// SaveMeta writes the metadata keys atomically.
func (s *Store) SaveMeta(docID string, meta Meta) error {
	var b storage.Batch
	b.Put(docID, metaNextSeqKey, encodeUint64(meta.NextSeq))
	b.Put(docID, metaCursorKey, encodeUint64(meta.Cursor))
	if err := s.db.Apply(&b); err != nil {
		return fmt.Errorf("write meta for %s: %w", docID, err)
	}
	return nil
}

// LoadMeta reads the metadata keys. Absent metadata reports found=false.
func (s *Store) LoadMeta(docID string) (Meta, bool, error) {
	rawNext, foundNext, err := s.db.Get(docID, metaNextSeqKey)
	if err != nil {
		return Meta{}, false, err
	}
	rawCursor, foundCursor, err := s.db.Get(docID, metaCursorKey)
	if err != nil {
		return Meta{}, false, err
	}
	if !foundNext && !foundCursor {
		return Meta{}, false, nil
	}

	var meta Meta
	if foundNext {
		if meta.NextSeq, err = decodeUint64(rawNext); err != nil {
			return Meta{}, false, fmt.Errorf("meta next_seq for %s: %w", docID, err)
		}
	}
	if foundCursor {
		if meta.Cursor, err = decodeUint64(rawCursor); err != nil {
			return Meta{}, false, fmt.Errorf("meta cursor for %s: %w", docID, err)
		}
	}
	return meta, true, nil
}

// DeleteAll removes every group and metadata record for the document.
func (s *Store) DeleteAll(docID string) error {
	return s.db.DeleteAll(docID)
}

// Documents returns, in order, the namespaces that hold history records.
// Intended for tooling; scans the whole store.
func (s *Store) Documents() ([]string, error) {
	namespaces, err := s.db.Namespaces()
	if err != nil {
		return nil, err
	}
	var docs []string
	for _, ns := range namespaces {
		for _, prefix := range []string{metaKeyPrefix, groupKeyPrefix} {
			keys, err := s.db.Keys(ns, prefix)
			if err != nil {
				return nil, err
			}
			if len(keys) > 0 {
				docs = append(docs, ns)
				break
			}
		}
	}
	return docs, nil
}

// Sync issues the substrate's durability barrier.
func (s *Store) Sync() error {
	return s.db.Sync()
}

func encodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func decodeUint64(data []byte) (uint64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("%w: %d-byte counter", storage.ErrCorruptValue, len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}
