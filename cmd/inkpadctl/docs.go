package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/inkpad/internal/engine/history"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "List documents with persisted history",
	RunE:  runDocs,
}

func init() {
	rootCmd.AddCommand(docsCmd)
}

func runDocs(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	hist := history.NewStore(db)
	docs, err := hist.Documents()
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("no documents with history")
		return nil
	}

	for _, docID := range docs {
		n, err := hist.CountGroups(docID)
		if err != nil {
			return err
		}
		meta, ok, err := hist.LoadMeta(docID)
		if err != nil {
			return err
		}
		if ok {
			fmt.Printf("%s  groups=%d next_seq=%d cursor=%d\n", docID, n, meta.NextSeq, meta.Cursor)
		} else {
			fmt.Printf("%s  groups=%d\n", docID, n)
		}
	}
	return nil
}
