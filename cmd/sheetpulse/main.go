package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sheetpulse/pkg/contracts"
)

var (
	cfgFile  string
	logLevel string
	rootCmd  = &cobra.Command{
		Use:   "sheetpulse",
		Short: "Spreadsheet dashboards from the command line",
		Long: `sheetpulse reads Excel and CSV workbooks, normalizes every sheet and
derives column roles, KPIs, charts and filtered table exports.

Run "sheetpulse serve" for the web dashboard.`,
		Version:       contracts.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.SetVersionTemplate(contracts.GetFullVersionString() + "\n")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $SHEETPULSE_CONFIG or ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(normalizeCmd())
	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(dashboardCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(exportsCmd())
	rootCmd.AddCommand(serveCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
