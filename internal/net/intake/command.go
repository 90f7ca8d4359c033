// Package intake validates control messages clients send as JSON text
// frames and turns them into commands for the simulation.
package intake

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"gridhold/server/internal/world"
)

// Client message type identifiers.
const (
	TypeMove      = "move"
	TypeCommand   = "command"
	TypeHeartbeat = "heartbeat"
)

// Reject reasons reported back to the client.
const (
	RejectMalformed    = "malformed"
	RejectUnknownType  = "unknown_type"
	RejectInvalidMove  = "invalid_move"
	RejectEmptyCommand = "empty_command"
	RejectUnknownActor = "unknown_actor"
	RejectQueueLimit   = "queue_limit"
)

// MaxCommandLength bounds typed commands, in bytes.
const MaxCommandLength = 80

// ClientMessage is the JSON envelope of every control message.
type ClientMessage struct {
	Type     string `json:"type"`
	X        *int   `json:"x,omitempty"`
	Y        *int   `json:"y,omitempty"`
	Plane    *int   `json:"plane,omitempty"`
	Teleport bool   `json:"teleport,omitempty"`
	Cmd      string `json:"cmd,omitempty"`
	SentAt   int64  `json:"sentAt,omitempty"`
	Seq      uint64 `json:"seq,omitempty"`
}

// Decode parses one text frame.
func Decode(payload []byte) (ClientMessage, error) {
	var msg ClientMessage
	err := json.Unmarshal(payload, &msg)
	return msg, err
}

type CommandType string

const (
	CommandMove CommandType = "move"
	CommandText CommandType = "command"
)

// Command is a validated request queued for the next tick.
type Command struct {
	Type       CommandType
	ActorID    string
	Seq        uint64
	Target     world.Position
	KeepPlane  bool
	Teleport   bool
	Text       string
	OriginTick uint64
	IssuedAt   time.Time
}

// Context supplies the hub hooks Stage needs.
type Context struct {
	HasPlayer func(string) bool
	Tick      func() uint64
	Now       func() time.Time
	Enqueue   func(Command) (bool, string)
}

// Stage validates msg and enqueues the resulting command. It returns the
// reject reason when the command is not accepted.
func Stage(ctx Context, playerID string, msg ClientMessage) (Command, bool, string) {
	var zero Command

	cmd := Command{ActorID: playerID, Seq: msg.Seq}
	switch msg.Type {
	case TypeMove:
		if msg.X == nil || msg.Y == nil {
			return zero, false, RejectInvalidMove
		}
		cmd.Type = CommandMove
		cmd.Teleport = msg.Teleport
		cmd.Target = world.Position{X: *msg.X, Y: *msg.Y}
		if msg.Plane == nil {
			cmd.KeepPlane = true
		} else {
			cmd.Target.Plane = *msg.Plane
		}
		if !cmd.Target.Valid() {
			return zero, false, RejectInvalidMove
		}
	case TypeCommand:
		text := strings.TrimSpace(msg.Cmd)
		if text == "" {
			return zero, false, RejectEmptyCommand
		}
		if len(text) > MaxCommandLength || !utf8.ValidString(text) {
			return zero, false, RejectMalformed
		}
		cmd.Type = CommandText
		cmd.Text = text
	default:
		return zero, false, RejectUnknownType
	}

	if ctx.HasPlayer != nil && !ctx.HasPlayer(playerID) {
		return zero, false, RejectUnknownActor
	}
	if ctx.Tick != nil {
		cmd.OriginTick = ctx.Tick()
	}
	if ctx.Now != nil {
		cmd.IssuedAt = ctx.Now()
	} else {
		cmd.IssuedAt = time.Now()
	}

	if ctx.Enqueue == nil {
		return zero, false, RejectQueueLimit
	}
	if ok, reason := ctx.Enqueue(cmd); !ok {
		return zero, false, reason
	}
	return cmd, true, ""
}
