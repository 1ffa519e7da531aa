package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/inkpad/internal/engine/history"
)

var (
	groupsDoc  string
	groupsPath string

	groupsCmd = &cobra.Command{
		Use:   "groups",
		Short: "Show history detail for one document",
		RunE:  runGroups,
	}
)

func init() {
	groupsCmd.Flags().StringVar(&groupsDoc, "doc", "", "document id")
	groupsCmd.Flags().StringVar(&groupsPath, "path", "", "file path (resolved to a document id)")
	rootCmd.AddCommand(groupsCmd)
}

func runGroups(cmd *cobra.Command, args []string) error {
	docID, err := resolveDoc(groupsDoc, groupsPath)
	if err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	hist := history.NewStore(db)
	seqs, err := hist.GroupSeqs(docID)
	if err != nil {
		return err
	}
	meta, ok, err := hist.LoadMeta(docID)
	if err != nil {
		return err
	}

	fmt.Printf("doc        %s\n", docID)
	fmt.Printf("groups     %d\n", len(seqs))
	if len(seqs) > 0 {
		fmt.Printf("seq range  %d..%d\n", seqs[0], seqs[len(seqs)-1])
	}
	if ok {
		fmt.Printf("next_seq   %d\n", meta.NextSeq)
		fmt.Printf("cursor     %d\n", meta.Cursor)
	}
	return nil
}
