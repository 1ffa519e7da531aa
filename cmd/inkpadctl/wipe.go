package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/inkpad/internal/engine/history"
	"github.com/dshills/inkpad/internal/session"
)

var (
	wipeDoc  string
	wipePath string
	wipeYes  bool

	wipeCmd = &cobra.Command{
		Use:   "wipe",
		Short: "Delete one document's history",
		RunE:  runWipe,
	}

	purgeYes bool

	purgeContentCmd = &cobra.Command{
		Use:   "purge-content",
		Short: "Delete all stored draft content, keeping session metadata",
		RunE:  runPurgeContent,
	}
)

func init() {
	wipeCmd.Flags().StringVar(&wipeDoc, "doc", "", "document id")
	wipeCmd.Flags().StringVar(&wipePath, "path", "", "file path (resolved to a document id)")
	wipeCmd.Flags().BoolVar(&wipeYes, "yes", false, "confirm the deletion")
	rootCmd.AddCommand(wipeCmd)

	purgeContentCmd.Flags().BoolVar(&purgeYes, "yes", false, "confirm the deletion")
	rootCmd.AddCommand(purgeContentCmd)
}

func runWipe(cmd *cobra.Command, args []string) error {
	docID, err := resolveDoc(wipeDoc, wipePath)
	if err != nil {
		return err
	}
	if !wipeYes {
		return errors.New("refusing to delete history without --yes")
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	hist := history.NewStore(db)
	n, err := hist.CountGroups(docID)
	if err != nil {
		return err
	}
	if err := hist.DeleteAll(docID); err != nil {
		return err
	}
	if err := db.Sync(); err != nil {
		return err
	}

	fmt.Printf("deleted %d groups for %s\n", n, docID)
	return nil
}

func runPurgeContent(cmd *cobra.Command, args []string) error {
	if !purgeYes {
		return errors.New("refusing to purge content without --yes")
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	sess := session.NewStore(db)
	ids, err := sess.ContentIDs()
	if err != nil {
		return err
	}
	if err := sess.ClearAllContent(); err != nil {
		return err
	}
	if err := db.Sync(); err != nil {
		return err
	}

	fmt.Printf("purged %d content entries\n", len(ids))
	return nil
}
