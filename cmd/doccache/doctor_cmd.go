package main

import (
	"github.com/spf13/cobra"

	"github.com/raphi011/doccache/internal/doctor"
)

func newDoctorCmd() *cobra.Command {
	var fix bool

	cmd := &cobra.Command{
		Use:     "doctor",
		Short:   "Diagnose and repair issues",
		GroupID: GroupConfig,
		Args:    cobra.NoArgs,
		Long: `Diagnose and repair cache directory issues.

Checks:
- Live directory and its parent are writable
- Index is readable and claimed by a session
- Every index entry has a cache file (no dangling entries)
- Every cache file is referenced by the index (no orphans)
- Snapshots stay within keep_backups

Live files are not checked while an editor session holds the cache.

Examples:
  doccache doctor          # Check for issues
  doccache doctor --fix    # Auto-fix recoverable issues`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return doctor.Run(cmd.Context(), cfg, fix)
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "Auto-fix recoverable issues")

	return cmd
}
