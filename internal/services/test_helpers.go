package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"sheetpulse/pkg/contracts/domain"
)

// MockWebSocketHub is a mock for WebSocketHub interface
type MockWebSocketHub struct {
	mock.Mock
}

func (m *MockWebSocketHub) Broadcast(messageType string, data interface{}) {
	m.Called(messageType, data)
}

func (m *MockWebSocketHub) ClientCount() int {
	return m.Called().Int(0)
}

// MockSpreadsheetFetcher is a mock for SpreadsheetFetcher interface
type MockSpreadsheetFetcher struct {
	mock.Mock
}

func (m *MockSpreadsheetFetcher) Fetch(ctx context.Context, spreadsheetID string) (*domain.RawWorkbook, error) {
	args := m.Called(ctx, spreadsheetID)
	raw, _ := args.Get(0).(*domain.RawWorkbook)
	return raw, args.Error(1)
}

// MockWorkbookMetrics is a mock for WorkbookMetrics interface
type MockWorkbookMetrics struct {
	mock.Mock
}

func (m *MockWorkbookMetrics) RecordUpload(ctx context.Context, format, outcome string) {
	m.Called(ctx, format, outcome)
}

func (m *MockWorkbookMetrics) RecordNormalize(ctx context.Context, d time.Duration) {
	m.Called(ctx, d)
}

func (m *MockWorkbookMetrics) SetSheetsLoaded(ctx context.Context, n int) {
	m.Called(ctx, n)
}
