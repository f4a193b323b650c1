package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/raphi011/doccache/internal/log"
	"github.com/raphi011/doccache/internal/output"
	"github.com/raphi011/doccache/internal/snapshot"
	"github.com/raphi011/doccache/internal/ui/prompt"
)

func newPruneCmd() *cobra.Command {
	var (
		keep int
		yes  bool
	)

	cmd := &cobra.Command{
		Use:     "prune",
		Short:   "Remove old snapshots",
		GroupID: GroupCache,
		Args:    cobra.NoArgs,
		Long: `Remove the oldest snapshots until at most --keep remain.

Asks for confirmation when stdin is a terminal. Use --yes otherwise.
Fails while an editor session holds the cache.`,
		Example: `  doccache prune              # Keep keep_backups snapshots
  doccache prune --keep 1     # Keep only the newest
  doccache prune -k 2 --yes   # Without confirmation`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)
			l := log.FromContext(ctx)

			if !cmd.Flags().Changed("keep") {
				keep = cfg.KeepBackups
			}
			if keep < 1 {
				return fmt.Errorf("--keep must be at least 1")
			}

			unlock, err := lockCache(cfg.CacheDir)
			if err != nil {
				return err
			}
			defer unlock()

			snaps, err := snapshot.List(cfg.CacheDir)
			if err != nil {
				return err
			}
			if len(snaps) <= keep {
				l.Printf("Nothing to prune (%d snapshots, keeping %d)\n", len(snaps), keep)
				return nil
			}

			doomed := snaps[:len(snaps)-keep]
			details := make([]string, len(doomed))
			for i, s := range doomed {
				details[i] = fmt.Sprintf("%s (%s)", s.Name, humanize.Time(s.Time))
			}

			if !yes {
				if !isInteractive() {
					return fmt.Errorf("refusing to prune without --yes when stdin is not a terminal")
				}
				res, err := prompt.Confirm(fmt.Sprintf("Remove %d snapshots?", len(doomed)), details...)
				if err != nil {
					return err
				}
				if !res.Confirmed {
					l.Println("Aborted")
					return nil
				}
			}

			removed, err := snapshot.Prune(cfg.CacheDir, keep)
			for _, path := range removed {
				l.Debug("removed snapshot", "path", path)
			}
			out.Printf("Removed %d snapshots\n", len(removed))
			return err
		},
	}

	cmd.Flags().IntVarP(&keep, "keep", "k", 0, "Snapshots to keep (default keep_backups)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}
