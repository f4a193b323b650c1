package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/raphi011/doccache/internal/config"
	"github.com/raphi011/doccache/internal/log"
	"github.com/raphi011/doccache/internal/output"
)

var (
	// Global flags
	verbose  bool
	quiet    bool
	cacheDir string

	// Shared state injected into commands
	cfg config.Config
)

// Command group IDs for organizing help output
const (
	GroupCache    = "cache"
	GroupRecovery = "recovery"
	GroupConfig   = "config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "doccache",
	Short: "Inspect and recover an editor's document cache",
	Long: `doccache inspects the crash-recovery cache an editor keeps for its open
documents.

The live cache directory holds one cache file per open document and an index
named "mapping". Every session ends by moving the live directory into a
timestamped snapshot next to it, so documents can be recovered from the
snapshots after a crash.`,
	SilenceUsage:               true,
	SilenceErrors:              true,
	SuggestionsMinimumDistance: 2, // Enable typo suggestions
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "completion" || cmd.Name() == "__complete" || cmd.Name() == "help" {
			return nil
		}

		// Validate mutually exclusive flags
		if verbose && quiet {
			return fmt.Errorf("--verbose and --quiet are mutually exclusive")
		}

		// Logger depends on parsed flags, so it is attached here
		logger := log.New(os.Stderr, verbose, quiet)
		cmd.SetContext(log.WithLogger(cmd.Context(), logger))

		if cacheDir != "" {
			abs, err := filepath.Abs(cacheDir)
			if err != nil {
				return fmt.Errorf("invalid --dir: %w", err)
			}
			cfg.CacheDir = abs
		}
		logger.Debug("using cache directory", "path", cfg.CacheDir, "keep_backups", cfg.KeepBackups)
		return nil
	},
	// Run is not set - shows help when no subcommand provided
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	// Load config
	loadedCfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	cfg = loadedCfg

	// Create context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Add output printer (stdout for primary data)
	ctx = output.WithPrinter(ctx, os.Stdout)

	// Store context for commands to use
	rootCmd.SetContext(ctx)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Run 'doccache -h' for help")
		cancel()
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all log output")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "dir", "", "Live cache directory (overrides cache_dir)")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	// Version flag
	rootCmd.Version = versionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	// Add command groups for organized help output
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupCache, Title: "Cache Commands:"},
		&cobra.Group{ID: GroupRecovery, Title: "Recovery Commands:"},
		&cobra.Group{ID: GroupConfig, Title: "Configuration Commands:"},
	)

	// Cache commands
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newSnapshotsCmd())
	rootCmd.AddCommand(newSnapshotCmd())
	rootCmd.AddCommand(newPruneCmd())

	// Recovery commands
	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newFindCmd())
	rootCmd.AddCommand(newRecoverCmd())
	rootCmd.AddCommand(newHistoryCmd())

	// Config commands
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newDoctorCmd())
}
