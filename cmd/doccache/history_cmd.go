package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/raphi011/doccache/internal/history"
	"github.com/raphi011/doccache/internal/log"
	"github.com/raphi011/doccache/internal/output"
)

// historyPath is the recovery history file.
var historyPath = history.DefaultPath()

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "history",
		Short:   "List past recoveries",
		GroupID: GroupRecovery,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			h, err := history.Load(historyPath)
			if err != nil {
				return err
			}
			if len(h.Entries) == 0 {
				log.FromContext(ctx).Println("No recoveries yet")
				return nil
			}

			rows := make([][]string, len(h.Entries))
			for i, e := range h.Entries {
				docs := fmt.Sprint(e.Documents)
				if e.Failed > 0 {
					docs = fmt.Sprintf("%d (%d failed)", e.Documents, e.Failed)
				}
				rows[i] = []string{humanize.Time(e.Time), e.Snapshot, docs, e.Dest}
			}
			out.Table([]string{"WHEN", "SNAPSHOT", "DOCUMENTS", "DESTINATION"}, rows)
			return nil
		},
	}
}
