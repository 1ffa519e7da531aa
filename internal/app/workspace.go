package app

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/dshills/inkpad/internal/config"
	"github.com/dshills/inkpad/internal/engine/history"
	"github.com/dshills/inkpad/internal/identity"
	"github.com/dshills/inkpad/internal/session"
	"github.com/dshills/inkpad/internal/storage"
)

// Tab represents one open document in the workspace.
type Tab struct {
	// DocID is the stable identity keying the document's history.
	DocID string

	// Path is the absolute file path (empty for unsaved tabs).
	Path string

	// SessionID keys persisted draft content for unsaved tabs.
	SessionID string

	// Title is the display name (filename or "Untitled").
	Title string

	// History is the document's undo history.
	History *history.Manager
}

// IsUnsaved returns true if the tab has no backing file.
func (t *Tab) IsUnsaved() bool {
	return t.Path == ""
}

// Workspace manages open tabs and wires them to durable history and
// session state. The caller owns the storage handle and closes it after
// Shutdown.
type Workspace struct {
	mu       sync.RWMutex
	histCfg  history.Config
	db       *storage.DB
	hist     *history.Store
	sessions *session.Store
	ids      *identity.Generator
	log      *slog.Logger

	tabs   []*Tab
	active int
}

// New creates a workspace backed by db.
func New(cfg config.Config, db *storage.DB, log *slog.Logger) *Workspace {
	if log == nil {
		log = slog.Default()
	}
	return &Workspace{
		histCfg:  cfg.HistoryConfig(),
		db:       db,
		hist:     history.NewStore(db),
		sessions: session.NewStore(db),
		ids:      identity.NewGenerator(),
		log:      log.With("component", "workspace"),
		active:   -1,
	}
}

// OpenFile opens a tab for path, loading its persisted history.
// Returns the existing tab if the path is already open.
func (w *Workspace) OpenFile(path string) (*Tab, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, WrapError(err, "resolve %s", path)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if i := w.indexOfPathLocked(abs); i >= 0 {
		w.active = i
		return w.tabs[i], nil
	}

	docID := identity.DocIDForPath(abs)
	tab := &Tab{
		DocID:   docID,
		Path:    abs,
		Title:   filepath.Base(abs),
		History: history.LoadOrNew(docID, w.histCfg, w.hist, w.log),
	}

	w.tabs = append(w.tabs, tab)
	w.active = len(w.tabs) - 1
	w.log.Info("opened file", "path", abs, "doc", docID)
	return tab, nil
}

// OpenScratch opens a tab for a document that has never been saved. Its
// history is memory-only; its draft content can be persisted under the
// tab's session id.
func (w *Workspace) OpenScratch(title string) *Tab {
	w.mu.Lock()
	defer w.mu.Unlock()

	if title == "" {
		title = "Untitled"
	}

	docID := w.ids.UnsavedID()
	tab := &Tab{
		DocID:     docID,
		SessionID: w.ids.SessionID(),
		Title:     title,
		History:   history.NewManager(docID, w.histCfg, nil, w.log),
	}

	w.tabs = append(w.tabs, tab)
	w.active = len(w.tabs) - 1
	w.log.Info("opened scratch", "doc", docID, "session", tab.SessionID)
	return tab
}

// CloseTab closes the tab at index i, deleting its history and, for
// unsaved tabs, its persisted content. Deletion failures are logged and
// reported but do not block the close.
func (w *Workspace) CloseTab(i int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if i < 0 || i >= len(w.tabs) {
		return ErrTabNotFound
	}
	tab := w.tabs[i]

	errs := NewErrorList()
	if err := tab.History.DeleteHistory(); err != nil {
		w.log.Warn("delete history failed", "doc", tab.DocID, "error", err)
		errs.Add(WrapError(err, "delete history %s", tab.DocID))
	}
	if tab.IsUnsaved() && tab.SessionID != "" {
		if err := w.sessions.DeleteContent(tab.SessionID); err != nil {
			w.log.Warn("delete content failed", "session", tab.SessionID, "error", err)
			errs.Add(WrapError(err, "delete content %s", tab.SessionID))
		}
	}

	w.tabs = append(w.tabs[:i], w.tabs[i+1:]...)
	switch {
	case w.active == i:
		if w.active >= len(w.tabs) {
			w.active = len(w.tabs) - 1
		}
	case w.active > i:
		w.active--
	}

	return errs.AsError()
}

// Count returns the number of open tabs.
func (w *Workspace) Count() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.tabs)
}

// Active returns the active tab, or nil when none is open.
func (w *Workspace) Active() *Tab {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.active < 0 || w.active >= len(w.tabs) {
		return nil
	}
	return w.tabs[w.active]
}

// ActiveIndex returns the index of the active tab, or -1 when none.
func (w *Workspace) ActiveIndex() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.active
}

// Tabs returns the open tabs in order.
func (w *Workspace) Tabs() []*Tab {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*Tab, len(w.tabs))
	copy(out, w.tabs)
	return out
}

// SetActive makes the tab at index i active.
func (w *Workspace) SetActive(i int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if i < 0 || i >= len(w.tabs) {
		return ErrTabNotFound
	}
	w.active = i
	return nil
}

// Undo undoes the last edit group on the active tab.
func (w *Workspace) Undo() (*history.Step, error) {
	tab := w.Active()
	if tab == nil {
		return nil, ErrNoActiveTab
	}
	return tab.History.Undo()
}

// Redo reapplies the most recently undone group on the active tab.
func (w *Workspace) Redo() (*history.Step, error) {
	tab := w.Active()
	if tab == nil {
		return nil, ErrNoActiveTab
	}
	return tab.History.Redo()
}

// ApplyStep replays a history step through apply with recording paused,
// so the replayed operations are not recorded as fresh edits.
func (w *Workspace) ApplyStep(tab *Tab, step *history.Step, apply func(history.EditOperation) error) error {
	if tab == nil || tab.History == nil {
		return ErrTabNotFound
	}
	if step == nil {
		return nil
	}

	tab.History.PauseRecording()
	defer tab.History.ResumeRecording()

	for _, op := range step.Operations {
		if err := apply(op); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot builds the session data describing the current tab list.
func (w *Workspace) Snapshot() session.SessionData {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snapshotLocked()
}

func (w *Workspace) snapshotLocked() session.SessionData {
	data := session.SessionData{
		Tabs:      make([]session.TabEntry, 0, len(w.tabs)),
		ActiveTab: w.active,
	}
	for _, tab := range w.tabs {
		if tab.IsUnsaved() {
			data.Tabs = append(data.Tabs, session.UnsavedTab(tab.SessionID, tab.Title))
		} else {
			data.Tabs = append(data.Tabs, session.FileTab(tab.Path))
		}
	}
	return data
}

// SaveSession persists the current tab list.
func (w *Workspace) SaveSession() error {
	return w.sessions.SaveSession(w.Snapshot())
}

// SaveUnsavedContent persists draft text for an unsaved tab.
func (w *Workspace) SaveUnsavedContent(tab *Tab, text string) error {
	if tab == nil || !tab.IsUnsaved() || tab.SessionID == "" {
		return ErrNotUnsavedTab
	}
	return w.sessions.SaveContent(tab.SessionID, text)
}

// UnsavedContent loads the persisted draft text for an unsaved tab.
func (w *Workspace) UnsavedContent(tab *Tab) (string, bool, error) {
	if tab == nil || !tab.IsUnsaved() || tab.SessionID == "" {
		return "", false, ErrNotUnsavedTab
	}
	return w.sessions.LoadContent(tab.SessionID)
}

// RestoreSession reopens the tabs saved by the previous run. It is meant
// to run at startup into an empty workspace. Returns false when no
// session was saved.
func (w *Workspace) RestoreSession() (bool, error) {
	data, found, err := w.sessions.LoadSession()
	if err != nil {
		return false, WrapError(err, "restore session")
	}
	if !found {
		return false, nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, entry := range data.Tabs {
		switch entry.Kind {
		case session.TabFile:
			docID := identity.DocIDForPath(entry.Path)
			w.tabs = append(w.tabs, &Tab{
				DocID:   docID,
				Path:    entry.Path,
				Title:   filepath.Base(entry.Path),
				History: history.LoadOrNew(docID, w.histCfg, w.hist, w.log),
			})
		case session.TabUnsaved:
			// Keep the persisted session id so the tab finds its saved
			// content, and make sure new scratch tabs never reuse it.
			w.ids.ReserveSession(entry.SessionID)
			title := entry.Title
			if title == "" {
				title = "Untitled"
			}
			docID := w.ids.UnsavedID()
			w.tabs = append(w.tabs, &Tab{
				DocID:     docID,
				SessionID: entry.SessionID,
				Title:     title,
				History:   history.NewManager(docID, w.histCfg, nil, w.log),
			})
		default:
			w.log.Warn("skipping unknown tab kind", "kind", int(entry.Kind))
		}
	}

	if data.ActiveTab >= 0 && data.ActiveTab < len(w.tabs) {
		w.active = data.ActiveTab
	} else {
		w.active = len(w.tabs) - 1
	}

	w.log.Info("restored session", "tabs", len(w.tabs), "active", w.active)
	return true, nil
}

// Shutdown flushes every open document's history, saves the session, and
// syncs the substrate. The storage handle stays open for the caller to
// close.
func (w *Workspace) Shutdown() error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	errs := NewErrorList()
	for _, tab := range w.tabs {
		if err := tab.History.Flush(); err != nil {
			w.log.Warn("flush failed", "doc", tab.DocID, "error", err)
			errs.Add(WrapError(err, "flush %s", tab.DocID))
		}
	}

	if err := w.sessions.SaveSession(w.snapshotLocked()); err != nil {
		errs.Add(WrapError(err, "save session"))
	}
	if err := w.db.Sync(); err != nil {
		errs.Add(WrapError(err, "sync store"))
	}

	return errs.AsError()
}

func (w *Workspace) indexOfPathLocked(path string) int {
	for i, tab := range w.tabs {
		if tab.Path == path {
			return i
		}
	}
	return -1
}
