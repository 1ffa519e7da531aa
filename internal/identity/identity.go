// Package identity derives the stable identifiers that key persisted
// history and session state: hashed path ids for file-backed documents,
// counter ids for unsaved documents, and the data directory location.
package identity

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// DataDirEnv overrides the data directory when set.
const DataDirEnv = "INKPAD_DATA_DIR"

// dataDirName is the default directory created next to the executable.
const dataDirName = ".data"

// DocIDForPath returns the stable identifier for a file-backed document.
//
// The path is canonicalized (absolute, symlinks resolved) so that every
// spelling of the same file maps to the same id across process runs. If
// canonicalization fails (typically a file that does not exist yet), the
// path is hashed as given. The id is "file-" plus 16 lowercase hex
// digits; collisions are a low-probability risk accepted for the 64-bit
// width.
func DocIDForPath(path string) string {
	return fmt.Sprintf("file-%016x", xxhash.Sum64String(canonicalPath(path)))
}

func canonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return path
	}
	return resolved
}

// Generator hands out process-unique identifiers for unsaved documents
// and session content keys. It replaces ambient package-level counters:
// the application shell owns one Generator and passes it by reference,
// so tests can run isolated instances.
//
// Generated ids are unique for the lifetime of the Generator only.
// Callers that need an id to survive restart persist it themselves (the
// session store does this for unsaved tabs).
type Generator struct {
	unsaved atomic.Uint64
	session atomic.Uint64
}

// NewGenerator returns a Generator with both counters at zero.
func NewGenerator() *Generator {
	return &Generator{}
}

// UnsavedID returns the next unsaved-document identifier: "unsaved-0",
// "unsaved-1", ...
func (g *Generator) UnsavedID() string {
	return fmt.Sprintf("unsaved-%d", g.unsaved.Add(1)-1)
}

// SessionID returns the next session content key: "sess-0", "sess-1", ...
func (g *Generator) SessionID() string {
	return fmt.Sprintf("sess-%d", g.session.Add(1)-1)
}

// ReserveSession advances the session counter past id, so a workspace
// restoring persisted tabs never reissues a session key that is still in
// use. Ids that are not session keys are ignored.
func (g *Generator) ReserveSession(id string) {
	raw, ok := strings.CutPrefix(id, "sess-")
	if !ok {
		return
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return
	}
	for {
		cur := g.session.Load()
		if cur > n {
			return
		}
		if g.session.CompareAndSwap(cur, n+1) {
			return
		}
	}
}

// ResolveDataDir returns the directory for persisted state: the
// DataDirEnv override when set, otherwise a ".data" directory next to
// the running executable. Resolution is read-only; the storage layer
// creates the directory.
func ResolveDataDir() string {
	if dir := os.Getenv(DataDirEnv); dir != "" {
		return dir
	}
	exe, err := os.Executable()
	if err != nil {
		return dataDirName
	}
	return filepath.Join(filepath.Dir(exe), dataDirName)
}
