package network

import (
	"context"

	"gridhold/server/logging"
)

const (
	// EventFrameRejected is emitted when an outbound message fails to encode.
	EventFrameRejected logging.EventType = "network.frame_rejected"
	// EventSessionBacklogFull is emitted when a session's outbound queue saturates.
	EventSessionBacklogFull logging.EventType = "network.session_backlog_full"
	// EventSessionClosed is emitted when a session stops writing.
	EventSessionClosed logging.EventType = "network.session_closed"
)

// FrameRejectedPayload names the message that failed and why.
type FrameRejectedPayload struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// BacklogPayload captures the queue depth at the time of saturation.
type BacklogPayload struct {
	Depth int `json:"depth"`
}

// SessionClosedPayload captures why a session ended and how much it sent.
type SessionClosedPayload struct {
	Reason        string `json:"reason"`
	FramesWritten uint64 `json:"framesWritten"`
}

// FrameRejected publishes a warning when a composed message is discarded.
func FrameRejected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload FrameRejectedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventFrameRejected,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// SessionBacklogFull publishes an error when a session is dropped for falling behind.
func SessionBacklogFull(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload BacklogPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventSessionBacklogFull,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityError,
		Category: logging.CategoryNetwork,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// SessionClosed publishes an info event when a session shuts down.
func SessionClosed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SessionClosedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventSessionClosed,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
