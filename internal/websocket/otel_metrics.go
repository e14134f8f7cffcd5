package websocket

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope of the hub instruments.
const MeterName = "sheetpulse.websocket"

// Metrics records hub activity. A nil *Metrics records nothing.
type Metrics struct {
	connectionsTotal   metric.Int64Counter
	connectionsActive  metric.Int64UpDownCounter
	connectionDuration metric.Float64Histogram
	messagesSent       metric.Int64Counter
	messagesDropped    metric.Int64Counter
	messagesReceived   metric.Int64Counter
}

// NewMetrics creates the websocket instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)

	if m.connectionsTotal, err = meter.Int64Counter(
		"websocket_connections_total",
		metric.WithDescription("Total number of WebSocket connections"),
	); err != nil {
		return nil, err
	}

	if m.connectionsActive, err = meter.Int64UpDownCounter(
		"websocket_connections_active",
		metric.WithDescription("Number of active WebSocket connections"),
	); err != nil {
		return nil, err
	}

	if m.connectionDuration, err = meter.Float64Histogram(
		"websocket_connection_duration_seconds",
		metric.WithDescription("Duration of WebSocket connections"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.messagesSent, err = meter.Int64Counter(
		"websocket_messages_sent_total",
		metric.WithDescription("Messages queued to clients"),
	); err != nil {
		return nil, err
	}

	if m.messagesDropped, err = meter.Int64Counter(
		"websocket_messages_dropped_total",
		metric.WithDescription("Messages dropped because a buffer was full"),
	); err != nil {
		return nil, err
	}

	if m.messagesReceived, err = meter.Int64Counter(
		"websocket_messages_received_total",
		metric.WithDescription("Messages read from clients"),
	); err != nil {
		return nil, err
	}

	return &m, nil
}

// RecordConnection counts a registered client.
func (m *Metrics) RecordConnection(ctx context.Context) {
	if m == nil {
		return
	}
	m.connectionsTotal.Add(ctx, 1)
	m.connectionsActive.Add(ctx, 1)
}

// RecordDisconnection counts a client leaving after d.
func (m *Metrics) RecordDisconnection(ctx context.Context, d time.Duration, reason string) {
	if m == nil {
		return
	}
	m.connectionsActive.Add(ctx, -1)
	m.connectionDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordBroadcast counts one fan-out of a message type.
func (m *Metrics) RecordBroadcast(ctx context.Context, messageType string, delivered, dropped int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("message_type", messageType))
	if delivered > 0 {
		m.messagesSent.Add(ctx, int64(delivered), attrs)
	}
	if dropped > 0 {
		m.messagesDropped.Add(ctx, int64(dropped), attrs)
	}
}

// RecordReceived counts an inbound client message.
func (m *Metrics) RecordReceived(ctx context.Context) {
	if m == nil {
		return
	}
	m.messagesReceived.Add(ctx, 1)
}
