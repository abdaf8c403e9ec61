package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// ExecutableDir returns the directory of the running binary with symlinks resolved.
func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %v", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable symlinks: %v", err)
	}

	return filepath.Dir(exe), nil
}

// ResolvePath turns a relative path into an absolute one. The working
// directory is tried first, then the executable directory, so a binary
// shipped next to its data/ folder works from anywhere.
func ResolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}

	if abs, err := filepath.Abs(path); err == nil && FileExists(abs) {
		return abs
	}

	if dir, err := ExecutableDir(); err == nil {
		candidate := filepath.Join(dir, path)
		if FileExists(candidate) {
			slog.Debug("Resolved path relative to executable",
				slog.String("path", path),
				slog.String("resolved", candidate))
			return candidate
		}
	}

	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// DatasetPath returns the resolved dataset location.
func (c *Config) DatasetPath() string {
	return ResolvePath(c.Dataset.Path)
}

// LogFilePath returns the resolved log file location.
func (c *Config) LogFilePath() string {
	return ResolvePath(c.Logging.FilePath)
}

// EnsureDir creates the parent directory of path if it does not exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %v", dir, err)
	}
	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
