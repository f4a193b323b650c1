package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/raphi011/doccache/internal/doctor"
	"github.com/raphi011/doccache/internal/mapping"
	"github.com/raphi011/doccache/internal/output"
	"github.com/raphi011/doccache/internal/snapshot"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Short:   "Show the state of the live cache directory",
		GroupID: GroupCache,
		Args:    cobra.NoArgs,
		Long: `Show the state of the live cache directory.

A directory holding an index is "stale" unless an editor session is
running: the next session will move it into a snapshot.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			live := cfg.CacheDir

			inUse, err := doctor.InUse(live)
			if err != nil {
				return err
			}

			_, statErr := os.Stat(live)
			exists := statErr == nil

			state := "clean"
			entries := 0
			if mapping.Exists(live) {
				if inUse {
					state = "in use"
				} else {
					state = "stale"
				}
				if e, err := mapping.Load(mapping.Path(live)); err == nil {
					entries = len(e)
				} else {
					state += fmt.Sprintf(" (unreadable index: %v)", err)
				}
			}
			if !exists {
				state = "missing"
			}

			rows := [][]string{
				{"Cache:", live},
				{"Writable:", yesNo(cacheWritable(live))},
				{"State:", state},
				{"Documents:", fmt.Sprint(entries)},
			}

			latest, ok, err := snapshot.Latest(live)
			if err != nil {
				return err
			}
			if ok {
				rows = append(rows, []string{"Latest snapshot:", fmt.Sprintf("%s (%s)", latest.Name, humanize.Time(latest.Time))})
			} else {
				rows = append(rows, []string{"Latest snapshot:", "none"})
			}

			for _, row := range rows {
				out.Printf("%-17s %s\n", row[0], row[1])
			}
			return nil
		},
	}
}
