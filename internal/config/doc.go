// Package config handles loading and validation of doccache configuration.
//
// Configuration is read from ~/.config/doccache/config.toml with environment
// variable overrides.
//
// # Configuration Sources (highest priority first)
//
//   - DOCCACHE_DIR env var: live cache directory
//   - DOCCACHE_KEEP_BACKUPS env var: number of snapshots to keep
//   - Config file settings
//   - Default values
//
// # Key Settings
//
//   - cache_dir: live cache directory; snapshots are created next to it
//     (default: ~/.local/share/doccache/Files)
//   - keep_backups: how many snapshots survive rotation (default: 5)
//   - recover.dest: default target directory for "doccache recover"
//
// # Path Validation
//
// Directory paths must be absolute or start with ~ (no relative paths like "."
// or "..") to avoid confusion about the working directory.
package config
