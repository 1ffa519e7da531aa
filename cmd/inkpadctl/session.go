package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/inkpad/internal/session"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Show the saved session and stored draft content",
	RunE:  runSession,
}

func init() {
	rootCmd.AddCommand(sessionCmd)
}

func runSession(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	sess := session.NewStore(db)
	data, found, err := sess.LoadSession()
	if err != nil {
		return err
	}
	if !found {
		fmt.Println("no saved session")
	}
	for i, tab := range data.Tabs {
		marker := " "
		if i == data.ActiveTab {
			marker = "*"
		}
		switch tab.Kind {
		case session.TabFile:
			fmt.Printf("%s [%d] file     %s\n", marker, i, tab.Path)
		case session.TabUnsaved:
			fmt.Printf("%s [%d] unsaved  %q (%s)\n", marker, i, tab.Title, tab.SessionID)
		default:
			fmt.Printf("%s [%d] unknown tab kind %d\n", marker, i, tab.Kind)
		}
	}

	ids, err := sess.ContentIDs()
	if err != nil {
		return err
	}
	for _, id := range ids {
		text, _, err := sess.LoadContent(id)
		if err != nil {
			return err
		}
		fmt.Printf("content %s  %d bytes\n", id, len(text))
	}
	return nil
}
