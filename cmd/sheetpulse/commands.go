package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"sheetpulse/internal/app"
	"sheetpulse/internal/exporter"
	"sheetpulse/internal/frontend"
	"sheetpulse/internal/infrastructure"
	"sheetpulse/internal/validation"
	api "sheetpulse/pkg/contracts/api/v1"
	"sheetpulse/pkg/contracts/domain"
)

func normalizeCmd() *cobra.Command {
	var indent bool
	cmd := &cobra.Command{
		Use:   "normalize FILE",
		Short: "Print the normalized workbook as JSON",
		Long: `Normalize every sheet of FILE and print the workbook as a JSON object
keyed by sheet name, sheets in file order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := openWorkbook(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			wb, err := svc.Workbook()
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), wb, indent)
		},
	}
	cmd.Flags().BoolVar(&indent, "indent", false, "indent the JSON output")
	return cmd
}

func classifyCmd() *cobra.Command {
	var sheet string
	cmd := &cobra.Command{
		Use:   "classify FILE",
		Short: "Print the column roles of a sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := openWorkbook(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			name, roles, err := svc.Roles(sheet)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), api.RolesResponse{
				Sheet:   name,
				Roles:   roles,
				Buckets: roles.Buckets(),
			}, true)
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "sheet to classify (default: the main sheet)")
	return cmd
}

func dashboardCmd() *cobra.Command {
	var sheet string
	cmd := &cobra.Command{
		Use:   "dashboard FILE",
		Short: "Print KPIs, summary statistics and charts as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := openWorkbook(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			d, err := svc.Dashboard(cmd.Context(), sheet)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), d, true)
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "sheet to chart (default: the main sheet)")
	return cmd
}

func exportCmd() *cobra.Command {
	var (
		sheet  string
		format string
		out    string
		q      domain.TableQuery
	)
	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Export a filtered table view",
		Long: `Filter a sheet by a case-insensitive search over all columns, keep the
chosen columns and at most --limit rows, then write it as csv, json or xlsx.

Without --out the file is written to the exports directory as
<sheet>_filtered_data.<ext>. Use --out - for stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := exporter.ParseFormat(format)
			if err != nil {
				return err
			}
			svc, cfg, err := openWorkbook(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			name, err := svc.Export(cmd.Context(), &buf, sheet, q, f)
			if err != nil {
				return err
			}

			if out == "-" {
				_, err = buf.WriteTo(cmd.OutOrStdout())
				return err
			}
			if out == "" {
				store, err := exportStore(cfg)
				if err != nil {
					return err
				}
				if out, err = store.WriteExport(name, buf.Bytes()); err != nil {
					return err
				}
			} else {
				if err := validation.NewFileValidator(cliLogger(cfg), cfg.Upload.MaxBytes).ValidateOutputDirectory(filepath.Dir(out)); err != nil {
					return err
				}
				if err := os.WriteFile(out, buf.Bytes(), 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", out, err)
				}
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "Wrote", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "export format (csv, json, xlsx)")
	cmd.Flags().StringVar(&sheet, "sheet", "", "sheet to export (default: the main sheet)")
	cmd.Flags().StringVar(&q.Search, "search", "", "keep rows containing this text in any column")
	cmd.Flags().StringSliceVar(&q.Columns, "columns", nil, "columns to keep, in order (default: the first columns)")
	cmd.Flags().IntVar(&q.Limit, "limit", 0, "maximum rows (default: the configured row limit)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, or - for stdout")
	return cmd
}

func exportsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exports",
		Short: "List files in the exports directory, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := exportStore(cfg)
			if err != nil {
				return err
			}
			list, err := store.List()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, f := range list {
				fmt.Fprintf(w, "%s\t%d\t%s\n", f.ModTime.Format(time.DateTime), f.Size, f.Name)
			}
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := infrastructure.InitializeLogger(cfg.Logging)
			if err != nil {
				return err
			}
			defer infrastructure.CloseLogFile()

			application, err := app.NewApplication(cfg, logger, frontend.Pages())
			if err != nil {
				return err
			}
			return application.Run(cmd.Context())
		},
	}
}
