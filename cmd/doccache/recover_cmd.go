package main

import (
	"fmt"
	"path/filepath"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/raphi011/doccache/internal/history"
	"github.com/raphi011/doccache/internal/log"
	"github.com/raphi011/doccache/internal/output"
	"github.com/raphi011/doccache/internal/recovery"
)

func newRecoverCmd() *cobra.Command {
	var (
		dest     string
		copyPath bool
	)

	cmd := &cobra.Command{
		Use:     "recover [SNAPSHOT]",
		Short:   "Export the documents of a snapshot",
		GroupID: GroupRecovery,
		Args:    cobra.MaximumNArgs(1),
		Long: `Copy the cached documents of a snapshot into a directory.

Files are named after the document's file name, or Untitled-N for documents
that were never saved. Existing files are never overwritten; a -N suffix is
added instead. Without --to, recover.dest from the config is used, then the
destination of the previous recovery.`,
		Example: `  doccache recover --to ~/Recovered              # Latest snapshot
  doccache recover 20261014093012 --to /tmp/out   # A specific snapshot
  doccache recover --to ~/Recovered --copy       # Copy the directory path`,
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return completeSnapshots(cfg.CacheDir), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)
			l := log.FromContext(ctx)

			target := dest
			if target == "" {
				target = cfg.Recover.Dest
			}
			if target == "" {
				last, err := history.LastDest(historyPath)
				if err != nil {
					l.Debug("read history failed", "error", err)
				}
				target = last
			}
			if target == "" {
				return fmt.Errorf("no destination: pass --to or set recover.dest in the config")
			}
			target, err := filepath.Abs(target)
			if err != nil {
				return err
			}

			s, err := resolveSnapshot(cfg.CacheDir, args)
			if err != nil {
				return err
			}

			results, err := recovery.ExportSnapshot(s, target)
			if err != nil {
				return err
			}

			var failed int
			for _, res := range results {
				if res.Err != nil {
					out.Printf("  ✗ %s: %v\n", recovery.Label(res.Entry), res.Err)
					failed++
					continue
				}
				out.Printf("  ✓ %s → %s\n", recovery.Label(res.Entry), res.Target)
			}
			out.Printf("\nRecovered %d of %d documents from %s into %s\n", len(results)-failed, len(results), s.Name, target)

			if err := history.Record(historyPath, history.Entry{
				Snapshot:  s.Name,
				Dest:      target,
				Documents: len(results) - failed,
				Failed:    failed,
			}); err != nil {
				l.Warn("record history failed", "error", err)
			}

			if copyPath {
				if err := clipboard.WriteAll(target); err != nil {
					l.Warn("copy to clipboard failed", "error", err)
				} else {
					l.Printf("Copied %s to clipboard\n", target)
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d documents could not be recovered", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dest, "to", "", "Destination directory")
	cmd.Flags().BoolVar(&copyPath, "copy", false, "Copy the destination path to the clipboard")
	cmd.MarkFlagDirname("to")

	return cmd
}
