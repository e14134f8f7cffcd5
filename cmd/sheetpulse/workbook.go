package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"sheetpulse/internal/app"
	"sheetpulse/internal/config"
	"sheetpulse/internal/files"
	"sheetpulse/internal/infrastructure"
	"sheetpulse/internal/services"
	"sheetpulse/internal/validation"
)

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.LoadFile(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

// cliLogger writes to stderr so command output on stdout stays machine-readable.
func cliLogger(cfg *config.Config) *slog.Logger {
	return infrastructure.NewLogger(cfg.Logging, os.Stderr)
}

// openWorkbook loads path into a fresh workbook service.
func openWorkbook(ctx context.Context, path string) (*services.WorkbookService, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := cliLogger(cfg)
	ctx = infrastructure.EnsureTraceID(ctx)

	svc := services.NewWorkbookService(app.WorkbookOptions(cfg, nil, logger), logger)
	if err := validation.NewFileValidator(logger, cfg.Upload.MaxBytes).ValidateSpreadsheetFile(path); err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	info, err := svc.Load(ctx, filepath.Base(path), data)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("Workbook loaded",
		slog.String("file", info.FileName),
		slog.Int("sheets", info.Sheets),
		slog.Int("records", info.TotalRecords))
	return svc, cfg, nil
}

func exportStore(cfg *config.Config) (*files.Store, error) {
	paths, err := cfg.ResolvePaths("")
	if err != nil {
		return nil, err
	}
	return files.NewStore(paths, cliLogger(cfg)), nil
}

func writeJSON(w io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
