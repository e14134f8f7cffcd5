package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"sheetpulse/pkg/contracts/domain"
)

// DefaultMaxUploadBytes caps uploaded workbooks.
const DefaultMaxUploadBytes int64 = 50 << 20

// ErrFileTooLarge is returned for uploads above the configured size cap.
var ErrFileTooLarge = errors.New("file too large")

var spreadsheetExtensions = map[string]bool{
	".xlsx": true,
	".xls":  true,
	".csv":  true,
}

// FileValidator checks uploaded and on-disk spreadsheets before they are parsed.
type FileValidator struct {
	logger   *slog.Logger
	maxBytes int64
}

// NewFileValidator creates a new file validator. A maxBytes of zero uses DefaultMaxUploadBytes.
func NewFileValidator(logger *slog.Logger, maxBytes int64) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &FileValidator{
		logger:   logger,
		maxBytes: maxBytes,
	}
}

// MaxBytes returns the upload size cap.
func (v *FileValidator) MaxBytes() int64 { return v.maxBytes }

// ValidateUpload checks the name and size of an uploaded workbook.
func (v *FileValidator) ValidateUpload(name string, size int64) error {
	if err := v.validateName(name); err != nil {
		return err
	}
	if size == 0 {
		return domain.NewMalformedInputError(name, "file is empty", nil)
	}
	if size > v.maxBytes {
		v.logger.Warn("Upload exceeds size limit",
			slog.String("file", name),
			slog.Int64("size", size),
			slog.Int64("max_size", v.maxBytes))
		return fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrFileTooLarge, name, size, v.maxBytes)
	}
	return nil
}

// ValidateSpreadsheetFile checks that path exists, is readable and names a supported spreadsheet.
func (v *FileValidator) ValidateSpreadsheetFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}
	return v.validateName(path)
}

func (v *FileValidator) validateName(name string) error {
	base := filepath.Base(name)
	if strings.TrimSpace(base) == "" || base == "." {
		return domain.NewMalformedInputError(name, "file name is empty", nil)
	}

	ext := strings.ToLower(filepath.Ext(base))
	if !spreadsheetExtensions[ext] {
		v.logger.Error("File is not a supported spreadsheet",
			slog.String("file", name),
			slog.String("extension", ext))
		return domain.NewMalformedInputError(name,
			fmt.Sprintf("not a spreadsheet (extension %q)", ext), domain.ErrUnsupportedFormat)
	}

	if strings.HasPrefix(base, "~$") {
		v.logger.Warn("Rejecting temporary Excel file",
			slog.String("file", name))
		return domain.NewMalformedInputError(name, "temporary Excel lock file", nil)
	}
	return nil
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return fmt.Errorf("%s is a directory, not a file", path)
	}
	if info.Size() > v.maxBytes {
		return fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrFileTooLarge, path, info.Size(), v.maxBytes)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(testFile)
	return nil
}
