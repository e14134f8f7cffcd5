package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetpulse/internal/shared/testutil"
	"sheetpulse/pkg/contracts/domain"
)

func TestFileValidator_ValidateUpload(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		size    int64
		wantErr error
	}{
		{name: "xlsx", file: "report.xlsx", size: 100},
		{name: "xls upper case", file: "REPORT.XLS", size: 100},
		{name: "csv", file: "data.csv", size: 1},
		{name: "unsupported extension", file: "notes.txt", size: 100, wantErr: domain.ErrUnsupportedFormat},
		{name: "no extension", file: "data", size: 100, wantErr: domain.ErrUnsupportedFormat},
		{name: "temporary lock file", file: "~$report.xlsx", size: 100, wantErr: domain.ErrMalformedInput},
		{name: "empty", file: "report.xlsx", size: 0, wantErr: domain.ErrMalformedInput},
		{name: "too large", file: "report.xlsx", size: 2048, wantErr: ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			validator := NewFileValidator(logger, 1024)

			err := validator.ValidateUpload(tt.file, tt.size)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestFileValidator_DefaultLimit(t *testing.T) {
	v := NewFileValidator(nil, 0)
	assert.Equal(t, DefaultMaxUploadBytes, v.MaxBytes())
}

func TestFileValidator_ValidateSpreadsheetFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(good, []byte("a,b\n1,2\n"), 0644))
	text := filepath.Join(dir, "data.txt")
	require.NoError(t, os.WriteFile(text, []byte("a"), 0644))

	logger, handler := testutil.NewTestLogger(t)
	v := NewFileValidator(logger, 0)

	assert.NoError(t, v.ValidateSpreadsheetFile(good))
	assert.ErrorIs(t, v.ValidateSpreadsheetFile(text), domain.ErrUnsupportedFormat)
	assert.ErrorContains(t, v.ValidateSpreadsheetFile(filepath.Join(dir, "missing.csv")), "does not exist")
	assert.ErrorContains(t, v.ValidateSpreadsheetFile(dir), "is a directory")
	assert.True(t, handler.ContainsMessage("File does not exist"))
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	v := NewFileValidator(nil, 0)

	require.NoError(t, v.ValidateOutputDirectory(dir))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	_, err = os.Stat(filepath.Join(dir, ".write_test"))
	assert.True(t, os.IsNotExist(err))
}
