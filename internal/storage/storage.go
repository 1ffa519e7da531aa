// Package storage wraps the embedded Badger store behind a small
// namespaced key/value surface shared by the history and session layers.
//
// Keys are namespaced as "<ns>:<key>". A namespace is a document
// identifier or one of the fixed session namespaces; it must not contain
// the ':' separator. Badger's directory lock guarantees a single process
// owns a data directory at a time, so a second open fails loudly instead
// of corrupting data.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	badger "github.com/dgraph-io/badger/v4"
)

const nsSeparator = ":"

// Config controls how the store is opened.
type Config struct {
	// Dir is the data directory. Created if missing.
	Dir string

	// InMemory runs the store without touching disk. Used by tests and
	// ephemeral sessions.
	InMemory bool

	// SyncWrites makes every commit fsync before returning.
	SyncWrites bool

	// Logger receives store diagnostics. Badger's own output is routed
	// through it at debug level. Nil means slog's default logger.
	Logger *slog.Logger
}

// DefaultConfig returns the standard on-disk configuration for dir.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:        dir,
		SyncWrites: false,
		Logger:     slog.Default(),
	}
}

// InMemoryConfig returns a configuration suitable for tests: no files,
// no sync.
func InMemoryConfig() Config {
	return Config{
		InMemory: true,
		Logger:   slog.Default(),
	}
}

// DB is an open store handle. One handle is shared by all components for
// the lifetime of the application run.
type DB struct {
	db       *badger.DB
	log      *slog.Logger
	inMemory bool
	closed   atomic.Bool
}

// Open opens (or creates) the store described by cfg.
// Opening a directory already held by another process returns an error.
func Open(cfg Config) (*DB, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "storage")

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Dir == "" {
			return nil, fmt.Errorf("storage: empty data directory")
		}
		if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
			return nil, fmt.Errorf("create data directory %s: %w", cfg.Dir, err)
		}
		opts = badger.DefaultOptions(cfg.Dir)
	}
	opts = opts.
		WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(badgerLogger{log})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	log.Debug("store opened", "dir", cfg.Dir, "in_memory", cfg.InMemory)
	return &DB{db: db, log: log, inMemory: cfg.InMemory}, nil
}

// Close releases the store. Further calls on the handle return
// ErrStoreClosed.
func (d *DB) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}

// Sync forces all pending writes to stable storage. No-op for in-memory
// stores.
func (d *DB) Sync() error {
	if d.closed.Load() {
		return ErrStoreClosed
	}
	if d.inMemory {
		return nil
	}
	if err := d.db.Sync(); err != nil {
		return fmt.Errorf("sync store: %w", err)
	}
	return nil
}

// Put stores val under key in the given namespace.
func (d *DB) Put(ns, key string, val []byte) error {
	if d.closed.Load() {
		return ErrStoreClosed
	}
	full, err := fullKey(ns, key)
	if err != nil {
		return err
	}
	err = d.db.Update(func(txn *badger.Txn) error {
		return txn.Set(full, val)
	})
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", ns, key, err)
	}
	return nil
}

// Get returns the value stored under key in the given namespace.
// A missing key reports found=false, not an error.
func (d *DB) Get(ns, key string) (val []byte, found bool, err error) {
	if d.closed.Load() {
		return nil, false, ErrStoreClosed
	}
	full, err := fullKey(ns, key)
	if err != nil {
		return nil, false, err
	}
	err = d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(full)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s/%s: %w", ns, key, err)
	}
	return val, true, nil
}

// Delete removes key from the namespace. Deleting an absent key succeeds.
func (d *DB) Delete(ns, key string) error {
	if d.closed.Load() {
		return ErrStoreClosed
	}
	full, err := fullKey(ns, key)
	if err != nil {
		return err
	}
	err = d.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(full)
	})
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", ns, key, err)
	}
	return nil
}

// DeleteKeys removes the given keys from the namespace. Large spans are
// committed in multiple transactions, so partial failure leaves a prefix
// of the keys deleted.
func (d *DB) DeleteKeys(ns string, keys []string) error {
	if d.closed.Load() {
		return ErrStoreClosed
	}
	full := make([][]byte, 0, len(keys))
	for _, k := range keys {
		fk, err := fullKey(ns, k)
		if err != nil {
			return err
		}
		full = append(full, fk)
	}
	if err := d.deleteRaw(full); err != nil {
		return fmt.Errorf("delete %d keys in %s: %w", len(keys), ns, err)
	}
	return nil
}

// DeleteAll removes every key in the namespace.
func (d *DB) DeleteAll(ns string) error {
	if d.closed.Load() {
		return ErrStoreClosed
	}
	prefix, err := nsPrefix(ns)
	if err != nil {
		return err
	}
	var keys [][]byte
	err = d.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(keysOnlyOptions(prefix))
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan %s: %w", ns, err)
	}
	if err := d.deleteRaw(keys); err != nil {
		return fmt.Errorf("clear %s: %w", ns, err)
	}
	return nil
}

// deleteRaw deletes full keys, resplitting into fresh transactions when
// Badger reports the current one is full.
func (d *DB) deleteRaw(keys [][]byte) error {
	if len(keys) == 0 {
		return nil
	}
	txn := d.db.NewTransaction(true)
	defer func() { txn.Discard() }()
	for _, k := range keys {
		err := txn.Delete(k)
		if errors.Is(err, badger.ErrTxnTooBig) {
			if err := txn.Commit(); err != nil {
				return err
			}
			txn = d.db.NewTransaction(true)
			err = txn.Delete(k)
		}
		if err != nil {
			return err
		}
	}
	return txn.Commit()
}

// Keys returns, in key order, every key in the namespace that starts with
// prefix. The namespace prefix is stripped from the results.
func (d *DB) Keys(ns, prefix string) ([]string, error) {
	if d.closed.Load() {
		return nil, ErrStoreClosed
	}
	nsp, err := nsPrefix(ns)
	if err != nil {
		return nil, err
	}
	scan := append(append([]byte{}, nsp...), prefix...)
	var keys []string
	err = d.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(keysOnlyOptions(scan))
		defer it.Close()
		for it.Seek(scan); it.ValidForPrefix(scan); it.Next() {
			k := it.Item().Key()
			keys = append(keys, string(k[len(nsp):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s/%s: %w", ns, prefix, err)
	}
	return keys, nil
}

// Namespaces returns the distinct namespaces present in the store, in
// key order. Full scan; intended for tooling, not hot paths.
func (d *DB) Namespaces() ([]string, error) {
	if d.closed.Load() {
		return nil, ErrStoreClosed
	}
	var out []string
	var last string
	err := d.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(keysOnlyOptions(nil))
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			k := it.Item().Key()
			i := bytes.IndexByte(k, nsSeparator[0])
			if i < 0 {
				continue
			}
			ns := string(k[:i])
			if ns != last {
				out = append(out, ns)
				last = ns
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan namespaces: %w", err)
	}
	return out, nil
}

// Batch collects writes and deletes to be committed atomically.
type Batch struct {
	ops []batchOp
	err error
}

type batchOp struct {
	key []byte
	val []byte // nil means delete
}

// Put queues a write.
func (b *Batch) Put(ns, key string, val []byte) {
	full, err := fullKey(ns, key)
	if err != nil {
		b.err = err
		return
	}
	b.ops = append(b.ops, batchOp{key: full, val: val})
}

// Delete queues a delete.
func (b *Batch) Delete(ns, key string) {
	full, err := fullKey(ns, key)
	if err != nil {
		b.err = err
		return
	}
	b.ops = append(b.ops, batchOp{key: full})
}

// Len returns the number of queued operations.
func (b *Batch) Len() int { return len(b.ops) }

// Apply commits the batch in one transaction: either every operation
// becomes visible or none does. Callers keep batches small (a spill's
// worth of groups plus metadata); spans that may exceed a transaction go
// through DeleteKeys instead.
func (d *DB) Apply(b *Batch) error {
	if d.closed.Load() {
		return ErrStoreClosed
	}
	if b.err != nil {
		return b.err
	}
	if len(b.ops) == 0 {
		return nil
	}
	err := d.db.Update(func(txn *badger.Txn) error {
		for _, op := range b.ops {
			if op.val == nil {
				if err := txn.Delete(op.key); err != nil {
					return err
				}
				continue
			}
			if err := txn.Set(op.key, op.val); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("apply batch of %d: %w", len(b.ops), err)
	}
	return nil
}

func fullKey(ns, key string) ([]byte, error) {
	if ns == "" || strings.Contains(ns, nsSeparator) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidNamespace, ns)
	}
	return []byte(ns + nsSeparator + key), nil
}

func nsPrefix(ns string) ([]byte, error) {
	if ns == "" || strings.Contains(ns, nsSeparator) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidNamespace, ns)
	}
	return []byte(ns + nsSeparator), nil
}

func keysOnlyOptions(prefix []byte) badger.IteratorOptions {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	return opts
}

// badgerLogger adapts slog to Badger's logger interface. Badger is
// chatty at info level during compaction, so its info output is demoted
// to debug.
type badgerLogger struct {
	log *slog.Logger
}

func (b badgerLogger) Errorf(format string, args ...any) {
	b.log.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b badgerLogger) Warningf(format string, args ...any) {
	b.log.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b badgerLogger) Infof(format string, args ...any) {
	b.log.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b badgerLogger) Debugf(format string, args ...any) {
	b.log.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
