// Package ws upgrades client connections and reads their control messages.
// Everything the server sends flows through the player's session.
package ws

import (
	"encoding/json"
	"log"
	nethttp "net/http"
	"time"

	"github.com/gorilla/websocket"

	server "gridhold/server"
	"gridhold/server/internal/net/intake"
	"gridhold/server/internal/net/session"
)

// maxMessageSize bounds one inbound control message.
const maxMessageSize = 4096

type HandlerConfig struct {
	Logger *log.Logger
}

type Handler struct {
	hub      *server.Hub
	logger   *log.Logger
	upgrader websocket.Upgrader
}

func NewHandler(hub *server.Hub, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	return &Handler{
		hub:      hub,
		logger:   logger,
		upgrader: upgrader,
	}
}

type commandAckMessage struct {
	Ver  int    `json:"ver"`
	Type string `json:"type"`
	Seq  uint64 `json:"seq"`
	Tick uint64 `json:"tick,omitempty"`
}

type commandRejectMessage struct {
	Ver    int    `json:"ver"`
	Type   string `json:"type"`
	Seq    uint64 `json:"seq,omitempty"`
	Reason string `json:"reason"`
	Retry  bool   `json:"retry,omitempty"`
}

type heartbeatMessage struct {
	Ver        int    `json:"ver"`
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
	ClientTime int64  `json:"clientTime"`
	RTTMillis  int64  `json:"rtt"`
}

func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	playerID := r.URL.Query().Get("id")
	if playerID == "" {
		nethttp.Error(w, "missing id", nethttp.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed for %s: %v", playerID, err)
		return
	}

	sess, ok := h.hub.Subscribe(playerID, conn)
	if !ok {
		message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown player")
		conn.WriteMessage(websocket.CloseMessage, message)
		conn.Close()
		return
	}
	conn.SetReadLimit(maxMessageSize)

	writeJSON := func(payload any) bool {
		data, err := json.Marshal(payload)
		if err != nil {
			h.logger.Printf("failed to marshal response for %s: %v", playerID, err)
			return true
		}
		return sess.WriteText(data) == nil
	}
	ctx := h.hub.CommandContext()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			h.disconnect(playerID, sess)
			return
		}

		msg, err := intake.Decode(payload)
		if err != nil {
			if !writeJSON(commandRejectMessage{Ver: server.ProtocolVersion, Type: "commandReject", Reason: intake.RejectMalformed}) {
				h.disconnect(playerID, sess)
				return
			}
			continue
		}

		if msg.Type == intake.TypeHeartbeat {
			now := time.Now()
			rtt, ok := h.hub.UpdateHeartbeat(playerID, now, msg.SentAt)
			if !ok {
				continue
			}
			ack := heartbeatMessage{
				Ver:        server.ProtocolVersion,
				Type:       "heartbeat",
				ServerTime: now.UnixMilli(),
				ClientTime: msg.SentAt,
				RTTMillis:  rtt.Milliseconds(),
			}
			if !writeJSON(ack) {
				h.disconnect(playerID, sess)
				return
			}
			continue
		}

		cmd, ok, reason := intake.Stage(ctx, playerID, msg)
		if !ok {
			if reason == intake.RejectUnknownActor {
				h.logger.Printf("%s ignored for unknown player %s", msg.Type, playerID)
			}
			reject := commandRejectMessage{
				Ver:    server.ProtocolVersion,
				Type:   "commandReject",
				Seq:    msg.Seq,
				Reason: reason,
				Retry:  reason == intake.RejectQueueLimit,
			}
			if !writeJSON(reject) {
				h.disconnect(playerID, sess)
				return
			}
			continue
		}
		if msg.Seq > 0 {
			ack := commandAckMessage{Ver: server.ProtocolVersion, Type: "commandAck", Seq: msg.Seq, Tick: cmd.OriginTick}
			if !writeJSON(ack) {
				h.disconnect(playerID, sess)
				return
			}
		}
	}
}

// disconnect removes the player unless a newer connection has replaced
// this one.
func (h *Handler) disconnect(playerID string, sess *session.Session) {
	if h.hub.CurrentSession(playerID) != sess {
		return
	}
	h.hub.Disconnect(playerID, server.LeaveDisconnect)
}
