package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphi011/doccache/internal/log"
	"github.com/raphi011/doccache/internal/output"
	"github.com/raphi011/doccache/internal/recovery"
	"github.com/raphi011/doccache/internal/ui/static"
)

func newFindCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "find QUERY",
		Short:   "Search all snapshots for a document",
		GroupID: GroupRecovery,
		Args:    cobra.MinimumNArgs(1),
		Long: `Fuzzy-search the logical paths of the documents in all snapshots,
newest snapshot first among equal matches. Unsaved documents match
"Untitled".`,
		Example: `  doccache find thesis
  doccache find "chapter 3" --limit 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			items, err := recovery.Collect(cfg.CacheDir)
			if err != nil {
				return err
			}

			found := recovery.Search(items, strings.Join(args, " "))
			if len(found) == 0 {
				log.FromContext(ctx).Println("No matches")
				return nil
			}
			if limit > 0 && len(found) > limit {
				found = found[:limit]
			}

			rows := make([][]string, len(found))
			for i, item := range found {
				rows[i] = []string{item.Snapshot.Name, recovery.Label(item.Entry), static.Muted(item.Entry.CacheFile)}
			}
			out.Table([]string{"SNAPSHOT", "DOCUMENT", "CACHE FILE"}, rows)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most N matches")

	return cmd
}
