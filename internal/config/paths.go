package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths holds resolved directories. Relative entries in PathsConfig are
// anchored at BaseDir.
type Paths struct {
	BaseDir    string
	LogsDir    string
	ExportsDir string
}

// ResolvePaths anchors the configured directories at baseDir. An empty baseDir
// uses the working directory.
func (c *Config) ResolvePaths(baseDir string) (*Paths, error) {
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		baseDir = wd
	}

	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(baseDir, p)
	}
	return &Paths{
		BaseDir:    baseDir,
		LogsDir:    resolve(c.Paths.LogsDir),
		ExportsDir: resolve(c.Paths.ExportsDir),
	}, nil
}

// EnsureDirectories creates all required directories
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.LogsDir, p.ExportsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetLogPath returns the full path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}
