// Package files keeps exported table files in the configured exports
// directory.
//
//	paths, _ := cfg.ResolvePaths("")
//	store := files.NewStore(paths, logger)
//	path, err := store.WriteExport("Demand_filtered_data.csv", data)
package files
