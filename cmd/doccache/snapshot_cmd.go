package main

import (
	"github.com/spf13/cobra"

	"github.com/raphi011/doccache/internal/mapping"
	"github.com/raphi011/doccache/internal/output"
	"github.com/raphi011/doccache/internal/snapshot"
)

func newSnapshotCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "snapshot",
		Short:   "Move the live cache directory into a new snapshot",
		GroupID: GroupCache,
		Args:    cobra.NoArgs,
		Long: `Move the live cache directory into a new snapshot and leave an empty live
directory behind, the same way an editor session does on exit.

Fails while an editor session holds the cache. Without --force, a live
directory without an index is left alone.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			unlock, err := lockCache(cfg.CacheDir)
			if err != nil {
				return err
			}
			defer unlock()

			if !force && !mapping.Exists(cfg.CacheDir) {
				out.Println("Nothing to snapshot (no index in the live directory)")
				return nil
			}

			target, err := snapshot.Take(cfg.CacheDir, snapshot.Options{Keep: cfg.KeepBackups})
			if err != nil {
				return err
			}
			out.Println(target)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Snapshot even without an index")

	return cmd
}
