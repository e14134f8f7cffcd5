// Package events contains event contract definitions for WebSocket communication.
package events

import (
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Workbook lifecycle
	MessageTypeWorkbookLoaded   MessageType = "workbook:loaded"
	MessageTypeWorkbookRejected MessageType = "workbook:rejected"

	// Connection messages
	MessageTypeConnect MessageType = "connect"
	MessageTypeError   MessageType = "error"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// WebSocketMessage represents a complete WebSocket message
type WebSocketMessage struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"`
}

// WorkbookLoaded is sent after an upload replaced the held workbook.
type WorkbookLoaded struct {
	UploadID     string   `json:"upload_id"`
	FileName     string   `json:"file_name"`
	SheetNames   []string `json:"sheet_names"`
	TotalRecords int      `json:"total_records"`
}

// WorkbookRejected is sent when an upload failed and the previous workbook was kept.
type WorkbookRejected struct {
	FileName string `json:"file_name"`
	Reason   string `json:"reason"`
	Retained bool   `json:"retained"`
}

// NewMessage wraps data in a timestamped envelope.
func NewMessage(t MessageType, traceID string, data interface{}) WebSocketMessage {
	return WebSocketMessage{
		BaseMessage: BaseMessage{
			Type:      t,
			Timestamp: time.Now().UTC(),
			TraceID:   traceID,
		},
		Data: data,
	}
}
