package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/raphi011/doccache/internal/log"
	"github.com/raphi011/doccache/internal/output"
	"github.com/raphi011/doccache/internal/snapshot"
	"github.com/raphi011/doccache/internal/storage"
	"github.com/raphi011/doccache/internal/ui/static"
)

// snapshotInfo is the JSON form of a snapshot listing row.
type snapshotInfo struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Time      string `json:"time"`
	Documents int    `json:"documents"`
	Size      int64  `json:"size"`
}

func newSnapshotsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "snapshots",
		Short:   "List backup snapshots",
		Aliases: []string{"ls"},
		GroupID: GroupCache,
		Args:    cobra.NoArgs,
		Example: `  doccache snapshots          # Table, oldest first
  doccache snapshots --json   # Machine-readable output`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)
			l := log.FromContext(ctx)

			snaps, err := snapshot.List(cfg.CacheDir)
			if err != nil {
				return err
			}

			infos := make([]snapshotInfo, 0, len(snaps))
			for _, s := range snaps {
				info := snapshotInfo{Name: s.Name, Path: s.Path, Time: s.Time.Format("2006-01-02 15:04:05")}
				if entries, err := s.Entries(); err == nil {
					info.Documents = len(entries)
				} else {
					l.Debug("snapshot has no readable index", "snapshot", s.Name, "error", err)
				}
				if size, err := storage.DirSize(s.Path); err == nil {
					info.Size = size
				}
				infos = append(infos, info)
			}

			if jsonOutput {
				return out.JSON(infos)
			}

			if len(infos) == 0 {
				l.Println("No snapshots")
				return nil
			}

			rows := make([][]string, len(infos))
			for i, info := range infos {
				rows[i] = []string{
					info.Name,
					info.Time,
					fmt.Sprint(info.Documents),
					humanize.IBytes(uint64(info.Size)),
					static.Muted(humanize.Time(snaps[i].Time)),
				}
			}
			out.Table([]string{"NAME", "TAKEN (UTC)", "DOCUMENTS", "SIZE", "AGE"}, rows, 2, 3)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
