// Package session persists the open-tab layout and the text of unsaved
// tabs across editor runs. Tab metadata and unsaved content live in
// independent namespaces of the shared store, so purging one never
// touches the other.
package session

import (
	"fmt"

	"github.com/dshills/inkpad/internal/storage"
)

const (
	sessionNamespace = "session"
	contentNamespace = "content"
	sessionKey       = "data"
)

// TabKind discriminates the tab variants.
type TabKind int

const (
	// TabFile is a tab backed by a file on disk.
	TabFile TabKind = iota
	// TabUnsaved is a scratch tab that has never been saved.
	TabUnsaved
)

// TabEntry describes one open tab. Kind selects the meaningful fields:
// Path for file tabs; SessionID and Title for unsaved tabs.
type TabEntry struct {
	Kind      TabKind
	Path      string
	SessionID string
	Title     string
}

// FileTab returns the entry for a file-backed tab.
func FileTab(path string) TabEntry {
	return TabEntry{Kind: TabFile, Path: path}
}

// UnsavedTab returns the entry for a scratch tab. The session id ties the
// entry to its stored content.
func UnsavedTab(sessionID, title string) TabEntry {
	return TabEntry{Kind: TabUnsaved, SessionID: sessionID, Title: title}
}

// SessionData is the persisted workspace layout: the ordered open tabs
// and which one was active.
type SessionData struct {
	Tabs      []TabEntry
	ActiveTab int
}

// Store reads and writes session state on the shared substrate.
type Store struct {
	db *storage.DB
}

// NewStore wraps db with the session key layout.
func NewStore(db *storage.DB) *Store {
	return &Store{db: db}
}

// SaveSession replaces the persisted layout. Whole-value semantics: the
// last write wins, there is no merging.
func (s *Store) SaveSession(data SessionData) error {
	val, err := storage.EncodeValue(&data)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.db.Put(sessionNamespace, sessionKey, val); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// LoadSession reads the persisted layout. A store with no saved session
// reports found=false, not an error.
func (s *Store) LoadSession() (SessionData, bool, error) {
	raw, found, err := s.db.Get(sessionNamespace, sessionKey)
	if err != nil {
		return SessionData{}, false, fmt.Errorf("load session: %w", err)
	}
	if !found {
		return SessionData{}, false, nil
	}
	var data SessionData
	if err := storage.DecodeValue(raw, &data); err != nil {
		return SessionData{}, false, fmt.Errorf("session data: %w", err)
	}
	return data, true, nil
}

// SaveContent stores the full text of an unsaved tab under its session
// id. Raw bytes, exact round-trip, empty string included.
func (s *Store) SaveContent(sessionID, text string) error {
	if err := s.db.Put(contentNamespace, sessionID, []byte(text)); err != nil {
		return fmt.Errorf("save content %s: %w", sessionID, err)
	}
	return nil
}

// LoadContent reads the stored text for a session id. Absent content
// reports found=false.
func (s *Store) LoadContent(sessionID string) (string, bool, error) {
	raw, found, err := s.db.Get(contentNamespace, sessionID)
	if err != nil {
		return "", false, fmt.Errorf("load content %s: %w", sessionID, err)
	}
	if !found {
		return "", false, nil
	}
	return string(raw), true, nil
}

// DeleteContent removes one stored text. Deleting an absent id succeeds.
func (s *Store) DeleteContent(sessionID string) error {
	if err := s.db.Delete(contentNamespace, sessionID); err != nil {
		return fmt.Errorf("delete content %s: %w", sessionID, err)
	}
	return nil
}

// ClearAllContent removes every stored text, leaving session metadata
// untouched.
func (s *Store) ClearAllContent() error {
	if err := s.db.DeleteAll(contentNamespace); err != nil {
		return fmt.Errorf("clear content: %w", err)
	}
	return nil
}

// ContentIDs returns, in key order, the session ids that have stored
// content. Used by maintenance tooling.
func (s *Store) ContentIDs() ([]string, error) {
	ids, err := s.db.Keys(contentNamespace, "")
	if err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}
	return ids, nil
}
