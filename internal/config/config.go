package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Environment variables that override config file settings.
const (
	EnvCacheDir    = "DOCCACHE_DIR"
	EnvKeepBackups = "DOCCACHE_KEEP_BACKUPS"
)

// DefaultKeepBackups is the default number of snapshots retained.
const DefaultKeepBackups = 5

// RecoverConfig holds settings for exporting cached documents
type RecoverConfig struct {
	Dest string `toml:"dest"` // default export directory
}

// Config holds the doccache configuration
type Config struct {
	CacheDir    string        `toml:"cache_dir"`
	KeepBackups int           `toml:"keep_backups"`
	Recover     RecoverConfig `toml:"recover"`
}

// defaultCacheDir returns ~/.local/share/doccache/Files, or a relative
// fallback if the home directory is unknown.
func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".doccache", "Files")
	}
	return filepath.Join(home, ".local", "share", "doccache", "Files")
}

// Default returns the default configuration
func Default() Config {
	return Config{
		CacheDir:    defaultCacheDir(),
		KeepBackups: DefaultKeepBackups,
	}
}

// ValidatePath checks that the path is absolute or starts with ~
// Returns error if path is relative (like "." or "..")
func ValidatePath(path, fieldName string) error {
	if path == "" {
		return nil // Empty is allowed (means not configured)
	}
	if path[0] == '~' {
		return nil
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("%s must be absolute or start with ~, got: %q", fieldName, path)
	}
	return nil
}

// expandPath expands ~ to the user's home directory
func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand ~: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	if path == "~" {
		return os.UserHomeDir()
	}
	return path, nil
}

// Path returns the path to the config file
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "doccache", "config.toml"), nil
}

// Load reads config from ~/.config/doccache/config.toml and applies
// environment overrides.
// Returns Default() if file doesn't exist (no error)
// Returns error only if file exists but is invalid
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from the given file and applies environment
// overrides. A missing file yields the defaults.
func LoadFrom(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// defaults
	case err != nil:
		return Default(), fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Default(), fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Default(), err
	}

	if err := cfg.normalize(); err != nil {
		return Default(), err
	}

	return cfg, nil
}

// applyEnv overrides config values from the environment
func applyEnv(cfg *Config) error {
	if dir := os.Getenv(EnvCacheDir); dir != "" {
		cfg.CacheDir = dir
	}
	if keep := os.Getenv(EnvKeepBackups); keep != "" {
		n, err := strconv.Atoi(keep)
		if err != nil {
			return fmt.Errorf("invalid %s %q: must be a number", EnvKeepBackups, keep)
		}
		cfg.KeepBackups = n
	}
	return nil
}

// normalize validates paths, expands ~ and fills in a default cache_dir.
func (c *Config) normalize() error {
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir()
	}

	// Validate paths (must be absolute or start with ~)
	if err := ValidatePath(c.CacheDir, "cache_dir"); err != nil {
		return err
	}
	if err := ValidatePath(c.Recover.Dest, "recover.dest"); err != nil {
		return err
	}

	// Expand ~ (shell doesn't expand in config files)
	expanded, err := expandPath(c.CacheDir)
	if err != nil {
		return fmt.Errorf("expand cache_dir: %w", err)
	}
	c.CacheDir = filepath.Clean(expanded)

	if c.Recover.Dest != "" {
		expanded, err := expandPath(c.Recover.Dest)
		if err != nil {
			return fmt.Errorf("expand recover.dest: %w", err)
		}
		c.Recover.Dest = expanded
	}

	if c.KeepBackups < 1 {
		return fmt.Errorf("invalid keep_backups %d: must be at least 1", c.KeepBackups)
	}

	return nil
}

const defaultConfig = `# doccache configuration

# Live cache directory. Every open document is shadowed by a file in here.
# Snapshots of previous sessions are created next to it, so the parent
# directory must be writable too.
# Must be an absolute path or start with ~ (no relative paths like "." or "..")
# cache_dir = "~/.local/share/doccache/Files"

# Number of session snapshots to keep. The oldest are removed first.
keep_backups = 5

# Recovery settings for "doccache recover"
# [recover]
# dest = "~/Documents/Recovered"   # used when --to is not given
`

// DefaultTOML returns the commented default config file.
func DefaultTOML() string {
	return defaultConfig
}

// Init creates a default config file at path.
// If force is true, overwrites existing file
func Init(path string, force bool) error {
	// Check if file already exists (skip if force)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return errors.New("config file already exists: " + path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	return os.WriteFile(path, []byte(defaultConfig), 0644)
}
