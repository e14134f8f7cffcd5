package contracts

import (
	"fmt"
	"runtime"
)

// Version of the sheetpulse binaries.
const Version = "0.3.0"

// APIVersion tags the HTTP, websocket and workbook JSON contracts.
const APIVersion = "v1"

// Stamped with -ldflags "-X sheetpulse/pkg/contracts.BuildTime=...".
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version    string `json:"version"`
	APIVersion string `json:"api_version"`
	BuildTime  string `json:"build_time,omitempty"`
	GitCommit  string `json:"git_commit,omitempty"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// CurrentBuild reports this binary's BuildInfo.
func CurrentBuild() BuildInfo {
	return BuildInfo{
		Version:    Version,
		APIVersion: APIVersion,
		BuildTime:  BuildTime,
		GitCommit:  GitCommit,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// GetFullVersionString is the one-line form printed by --version.
func GetFullVersionString() string {
	b := CurrentBuild()
	return fmt.Sprintf("sheetpulse %s (api %s, commit %s, built %s, %s %s)",
		b.Version, b.APIVersion, b.GitCommit, b.BuildTime, b.GoVersion, b.Platform)
}
