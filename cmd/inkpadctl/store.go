package main

import (
	"errors"
	"fmt"

	"github.com/dshills/inkpad/internal/identity"
	"github.com/dshills/inkpad/internal/storage"
)

// openStore opens the data directory read/write. It fails when another
// process holds the store lock.
func openStore() (*storage.DB, error) {
	db, err := storage.Open(storage.DefaultConfig(dataDir))
	if err != nil {
		return nil, fmt.Errorf("open data dir %s: %w", dataDir, err)
	}
	return db, nil
}

// resolveDoc turns the --doc / --path flag pair into a document id.
func resolveDoc(docID, path string) (string, error) {
	switch {
	case docID != "" && path != "":
		return "", errors.New("use only one of --doc and --path")
	case docID != "":
		return docID, nil
	case path != "":
		return identity.DocIDForPath(path), nil
	default:
		return "", errors.New("one of --doc or --path is required")
	}
}
