package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diamond-stack/diamond/internal/oplog"
)

func newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "show the operation log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := getRepo()
			if err != nil {
				return err
			}
			entries, err := oplog.Open(repo).All()
			if err != nil {
				return err
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[len(entries)-limit:]
			}
			for _, e := range entries {
				fmt.Printf("%s  %-18s", e.Timestamp.Format("2006-01-02 15:04:05"), e.Operation)
				switch {
				case e.Branch != "":
					fmt.Printf(" %s", e.Branch)
				case len(e.Branches) > 0:
					fmt.Printf(" %v", e.Branches)
				}
				fmt.Println()
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "show at most this many entries, most recent last")
	return cmd
}
