package main

import (
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/raphi011/doccache/internal/mapping"
	"github.com/raphi011/doccache/internal/output"
	"github.com/raphi011/doccache/internal/recovery"
	"github.com/raphi011/doccache/internal/ui/static"
)

// entryInfo is the JSON form of an index entry.
type entryInfo struct {
	CacheFile string `json:"cache_file"`
	Document  string `json:"document"`
	Size      int64  `json:"size"`
	Missing   bool   `json:"missing,omitempty"`
}

func newShowCmd() *cobra.Command {
	var (
		live       bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:     "show [SNAPSHOT]",
		Short:   "List the documents cached in a snapshot",
		GroupID: GroupRecovery,
		Args:    cobra.MaximumNArgs(1),
		Long: `List the documents cached in a snapshot, in the editor's tab order.

Without arguments the latest snapshot is shown. Use --live for the live
cache directory instead.`,
		Example: `  doccache show                  # Latest snapshot
  doccache show 20261014093012   # A specific snapshot
  doccache show --live           # Live cache directory`,
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return completeSnapshots(cfg.CacheDir), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			dir := cfg.CacheDir
			if !live {
				s, err := resolveSnapshot(cfg.CacheDir, args)
				if err != nil {
					return err
				}
				dir = s.Path
			}

			entries, err := mapping.Load(mapping.Path(dir))
			if err != nil {
				return err
			}

			infos := make([]entryInfo, len(entries))
			for i, e := range entries {
				infos[i] = entryInfo{CacheFile: e.CacheFile, Document: recovery.Label(e)}
				if st, err := os.Stat(filepath.Join(dir, e.CacheFile)); err == nil {
					infos[i].Size = st.Size()
				} else {
					infos[i].Missing = true
				}
			}

			if jsonOutput {
				return out.JSON(infos)
			}

			rows := make([][]string, len(infos))
			for i, info := range infos {
				size := humanize.IBytes(uint64(info.Size))
				if info.Missing {
					size = static.Muted("missing")
				}
				rows[i] = []string{info.CacheFile, info.Document, size}
			}
			out.Println(static.Muted(dir))
			out.Table([]string{"CACHE FILE", "DOCUMENT", "SIZE"}, rows, 2)
			return nil
		},
	}

	cmd.Flags().BoolVar(&live, "live", false, "Show the live cache directory")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
