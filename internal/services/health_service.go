package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"sheetpulse/pkg/contracts"
)

// WorkbookStatus is the part of WorkbookService the health checks read.
type WorkbookStatus interface {
	Loaded() bool
	ImportEnabled() bool
}

// ClientCounter reports connected websocket clients.
type ClientCounter interface {
	ClientCount() int
}

// HealthService answers the health, readiness, liveness and version probes.
type HealthService struct {
	version   string
	buildTime string
	workbooks WorkbookStatus
	hub       ClientCounter
	started   time.Time
	logger    *slog.Logger
}

// HealthStatus is the body of every probe.
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   *RuntimeStats            `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// RuntimeStats is reported by the liveness probe.
type RuntimeStats struct {
	UptimeSeconds float64 `json:"uptime"`
	Goroutines    int     `json:"goroutines"`
}

// ServiceHealth is one component of the readiness report.
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// VersionReport is the body of GET /api/version.
type VersionReport struct {
	contracts.BuildInfo
	StartTime     time.Time `json:"start_time"`
	UptimeSeconds float64   `json:"uptime"`
}

// NewHealthService creates a health service. hub may be nil when websockets are not served.
func NewHealthService(version, buildTime string, workbooks WorkbookStatus, hub ClientCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		buildTime: buildTime,
		workbooks: workbooks,
		hub:       hub,
		started:   time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

func (hs *HealthService) status(s string) HealthStatus {
	return HealthStatus{Status: s, Timestamp: time.Now(), Version: hs.version}
}

func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "Health check", slog.Duration("uptime", time.Since(hs.started)))
	return hs.status("ok")
}

// ReadinessCheck reports each dependency. A missing workbook or a disabled
// import does not make the instance unready.
func (hs *HealthService) ReadinessCheck(context.Context) HealthStatus {
	st := hs.status("ready")
	st.Services = map[string]ServiceHealth{
		"workbook":  hs.workbookHealth(),
		"websocket": hs.websocketHealth(),
		"import":    hs.importHealth(),
	}
	return st
}

func (hs *HealthService) LivenessCheck(context.Context) HealthStatus {
	st := hs.status("alive")
	st.Runtime = &RuntimeStats{
		UptimeSeconds: time.Since(hs.started).Seconds(),
		Goroutines:    runtime.NumGoroutine(),
	}
	return st
}

// Version reports the build of the running server.
func (hs *HealthService) Version() VersionReport {
	info := contracts.CurrentBuild()
	info.Version = hs.version
	info.BuildTime = hs.buildTime
	return VersionReport{
		BuildInfo:     info,
		StartTime:     hs.started.UTC(),
		UptimeSeconds: time.Since(hs.started).Seconds(),
	}
}

func (hs *HealthService) workbookHealth() ServiceHealth {
	if hs.workbooks != nil && hs.workbooks.Loaded() {
		return ServiceHealth{Status: "ready", Message: "Workbook loaded"}
	}
	return ServiceHealth{Status: "empty", Message: "No workbook loaded"}
}

func (hs *HealthService) websocketHealth() ServiceHealth {
	if hs.hub == nil {
		return ServiceHealth{Status: "ready", Message: "WebSocket disabled"}
	}
	return ServiceHealth{Status: "ready", Message: fmt.Sprintf("%d clients connected", hs.hub.ClientCount())}
}

func (hs *HealthService) importHealth() ServiceHealth {
	if hs.workbooks != nil && hs.workbooks.ImportEnabled() {
		return ServiceHealth{Status: "ready"}
	}
	return ServiceHealth{Status: "disabled", Message: "Google Sheets API key not configured"}
}
