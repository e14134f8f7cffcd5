package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"sheetpulse/internal/config"
)

// FileInfo describes a file in the exports directory.
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Store writes and lists exported table files under Paths.ExportsDir.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates a store rooted at the exports directory of paths.
func NewStore(paths *config.Paths, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		dir:    paths.ExportsDir,
		logger: logger.With(slog.String("component", "export_store")),
	}
}

// Dir returns the exports directory.
func (s *Store) Dir() string { return s.dir }

// WriteExport stores data as name and returns the full path. The file is
// written to a temporary sibling and renamed, so readers never see a partial export.
func (s *Store) WriteExport(name string, data []byte) (string, error) {
	base := filepath.Base(name)
	if base != name || base == "." || strings.HasPrefix(base, ".") {
		return "", fmt.Errorf("invalid export name %q", name)
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create exports directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+base+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to sync export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close export: %w", err)
	}

	path := filepath.Join(s.dir, base)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to move export into place: %w", err)
	}

	s.logger.Info("Export written",
		slog.String("path", path),
		slog.Int("size_bytes", len(data)))
	return path, nil
}

// List returns the exported files, newest first. A missing directory is empty.
func (s *Store) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", s.dir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(s.dir, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].Name < files[j].Name
		}
		return files[i].ModTime.After(files[j].ModTime)
	})
	return files, nil
}
