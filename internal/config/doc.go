// Package config provides centralized configuration management for SheetPulse.
//
// # Configuration Sources
//
// Configuration is layered, later sources overriding earlier ones:
//
//  1. Default() values
//  2. An optional YAML file: $SHEETPULSE_CONFIG, ./config.yaml or ./configs/config.yaml
//  3. Environment variables
//
// # Environment Variables
//
// Variables follow the pattern SHEETPULSE_<SECTION>_<FIELD>:
//
//	SHEETPULSE_SERVER_PORT=9090
//	SHEETPULSE_LOGGING_LEVEL=debug
//	SHEETPULSE_UPLOAD_MAX_BYTES=10485760
//	SHEETPULSE_DASHBOARD_TOP_N=15
//	SHEETPULSE_GOOGLE_SHEETS_API_KEY=...
//
// Google Sheets import is disabled while no API key is configured.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
