package server

import (
	"context"

	"gridhold/server/logging"
	loggingNetwork "gridhold/server/logging/network"
)

// frameRecorder forwards composer outcomes for one player to Prometheus
// and the event router.
type frameRecorder struct {
	hub      *Hub
	playerID string
}

func (r *frameRecorder) FrameSent(name string, opcode uint8, size int) {
	if r.hub.prom != nil {
		r.hub.prom.FrameSent(name, opcode, size)
	}
}

func (r *frameRecorder) FrameRejected(name string, err error) {
	if r.hub.prom != nil {
		r.hub.prom.FrameRejected(name, err)
	}
	loggingNetwork.FrameRejected(context.Background(), r.hub.publisher, r.hub.Tick(), logging.PlayerRef(r.playerID), loggingNetwork.FrameRejectedPayload{
		Message: name,
		Error:   err.Error(),
	}, nil)
}
