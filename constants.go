package server

import "time"

const (
	ProtocolVersion = 1
	// defaultTickInterval is the game cycle; the client animates movement
	// over the same period.
	defaultTickInterval     = 600 * time.Millisecond
	defaultHeartbeatTimeout = 30 * time.Second
	defaultCommandLimit     = 16
	// MaxPlayers bounds player indices to [1, MaxPlayers].
	MaxPlayers = 2000
	// walkStep is how many tiles a walking player covers per tick.
	walkStep = 1
)

// Player disconnect reasons.
const (
	LeaveLogout           = "logout"
	LeaveDisconnect       = "disconnect"
	LeaveHeartbeatTimeout = "heartbeat_timeout"
	LeaveSessionClosed    = "session_closed"
)
