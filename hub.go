package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"

	"gridhold/server/internal/defs"
	"gridhold/server/internal/game"
	"gridhold/server/internal/net/intake"
	"gridhold/server/internal/net/outbound"
	"gridhold/server/internal/net/session"
	"gridhold/server/internal/observability"
	"gridhold/server/internal/script"
	"gridhold/server/internal/telemetry"
	"gridhold/server/internal/world"
	"gridhold/server/internal/world/terrain"
	"gridhold/server/logging"
	loggingLifecycle "gridhold/server/logging/lifecycle"
)

var (
	ErrWorldFull   = errors.New("world full")
	ErrInvalidName = errors.New("invalid player name")
)

// HubConfig bundles the hub's dependencies and tunables.
type HubConfig struct {
	TickInterval      time.Duration
	HeartbeatTimeout  time.Duration
	QueueDepth        int
	WriteWait         time.Duration
	CommandQueueLimit int
	WelcomeMessage    string
	Members           bool
	Spawn             world.Position

	Definitions *defs.Registry
	Scripts     script.Host
	Terrain     terrain.Index
	Instances   map[string]Instance

	Logger     telemetry.Logger
	Prometheus *telemetry.Prometheus
	Tracer     trace.Tracer
	Now        func() time.Time
}

// DefaultHubConfig returns the production defaults.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		TickInterval:      defaultTickInterval,
		HeartbeatTimeout:  defaultHeartbeatTimeout,
		QueueDepth:        session.DefaultQueueDepth,
		WriteWait:         session.DefaultWriteWait,
		CommandQueueLimit: defaultCommandLimit,
		WelcomeMessage:    "Welcome to Gridhold.",
		Spawn:             game.DefaultSpawn,
		Terrain:           terrain.Everywhere{},
		Instances:         DefaultInstances(terrain.Everywhere{}),
	}
}

// Hub owns every live player and drives the simulation tick. All player
// state is guarded by mu; frames are composed while holding it and handed
// to sessions, which never block.
type Hub struct {
	mu      sync.Mutex
	cfg     HubConfig
	players map[string]*playerState
	indices map[int]*playerState

	publisher logging.Publisher
	logger    telemetry.Logger
	metrics   telemetry.Metrics
	prom      *telemetry.Prometheus
	tracer    trace.Tracer
	scripts   script.Host
	defs      *defs.Registry

	nextID atomic.Uint64
	tick   atomic.Uint64
}

type playerState struct {
	*game.Player
	session       *session.Session
	composer      *outbound.Composer
	commands      []intake.Command
	walkTarget    *world.Position
	lastHeartbeat time.Time
	lastRTT       time.Duration
	loginPending  bool
	instance      *Instance
}

// ready reports whether frames can be composed for the player.
func (ps *playerState) ready() bool {
	return ps.composer != nil && !ps.loginPending
}

// JoinResponse is returned to a client that joins.
type JoinResponse struct {
	Ver          int         `json:"ver"`
	ID           string      `json:"id"`
	Index        int         `json:"index"`
	Name         string      `json:"name"`
	Position     positionDTO `json:"position"`
	TickInterval int64       `json:"tickMillis"`
}

type positionDTO struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	Plane int `json:"plane"`
}

func toDTO(p world.Position) positionDTO {
	return positionDTO{X: p.X, Y: p.Y, Plane: p.Plane}
}

// NewHub constructs a hub publishing events to publisher.
func NewHub(cfg HubConfig, publisher logging.Publisher) *Hub {
	defaults := DefaultHubConfig()
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaults.TickInterval
	}
	if cfg.HeartbeatTimeout <= 0 {
		cfg.HeartbeatTimeout = defaults.HeartbeatTimeout
	}
	if cfg.CommandQueueLimit <= 0 {
		cfg.CommandQueueLimit = defaults.CommandQueueLimit
	}
	if !cfg.Spawn.Valid() || cfg.Spawn == (world.Position{}) {
		cfg.Spawn = defaults.Spawn
	}
	if cfg.Terrain == nil {
		cfg.Terrain = defaults.Terrain
	}
	if cfg.Instances == nil {
		cfg.Instances = DefaultInstances(cfg.Terrain)
	}
	if cfg.Scripts == nil {
		cfg.Scripts = script.Nop{}
	}
	if cfg.Definitions == nil {
		cfg.Definitions = defs.Empty()
	}
	if cfg.Logger == nil {
		cfg.Logger = telemetry.WrapLogger(log.Default())
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if publisher == nil {
		publisher = logging.NopPublisher()
	}

	h := &Hub{
		cfg:       cfg,
		players:   make(map[string]*playerState),
		indices:   make(map[int]*playerState),
		publisher: publisher,
		logger:    cfg.Logger,
		metrics:   telemetry.NopMetrics{},
		prom:      cfg.Prometheus,
		tracer:    observability.Config{Tracer: cfg.Tracer}.ResolveTracer(),
		scripts:   cfg.Scripts,
		defs:      cfg.Definitions,
	}
	if cfg.Prometheus != nil {
		h.metrics = cfg.Prometheus
	}
	h.registerScriptAPI()
	return h
}

// Tick returns the number of completed simulation ticks.
func (h *Hub) Tick() uint64 {
	return h.tick.Load()
}

// TickInterval returns the configured tick period.
func (h *Hub) TickInterval() time.Duration {
	return h.cfg.TickInterval
}

// Join registers a new player at the spawn point. The player receives
// frames once a connection subscribes.
func (h *Hub) Join(name string) (JoinResponse, error) {
	name = strings.TrimSpace(name)
	id := h.nextID.Add(1)
	if name == "" {
		name = fmt.Sprintf("player%d", id)
	}
	if err := validateName(name); err != nil {
		return JoinResponse{}, err
	}
	playerID := fmt.Sprintf("player-%d", id)

	h.mu.Lock()
	index := h.freeIndexLocked()
	if index == 0 {
		h.mu.Unlock()
		return JoinResponse{}, ErrWorldFull
	}
	p := game.NewPlayer(playerID, index, name, h.defs.Stackable)
	p.Members = h.cfg.Members
	p.Position = h.cfg.Spawn
	ps := &playerState{Player: p, lastHeartbeat: h.cfg.Now()}
	ps.Skills.OnChange(func(skill int) { h.sendSkillLocked(ps, skill) })
	listener := &containerListener{hub: h, ps: ps}
	ps.Inventory.AddListener(listener)
	ps.Equipment.AddListener(listener)
	h.players[playerID] = ps
	h.indices[index] = ps
	h.mu.Unlock()

	loggingLifecycle.PlayerJoined(context.Background(), h.publisher, h.Tick(), logging.PlayerRef(playerID), loggingLifecycle.PlayerJoinedPayload{
		Name:   name,
		Index:  index,
		SpawnX: p.Position.X,
		SpawnY: p.Position.Y,
		Plane:  p.Position.Plane,
	}, nil)
	h.metrics.Add("players_joined_total", 1)

	return JoinResponse{
		Ver:          ProtocolVersion,
		ID:           playerID,
		Index:        index,
		Name:         name,
		Position:     toDTO(p.Position),
		TickInterval: h.cfg.TickInterval.Milliseconds(),
	}, nil
}

func validateName(name string) error {
	if len(name) > outbound.MaxNameLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidName, outbound.MaxNameLength)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == ' ':
		default:
			return fmt.Errorf("%w: character %q", ErrInvalidName, r)
		}
	}
	return nil
}

func (h *Hub) freeIndexLocked() int {
	for i := 1; i <= MaxPlayers; i++ {
		if _, taken := h.indices[i]; !taken {
			return i
		}
	}
	return 0
}

// Subscribe attaches a connection to a joined player. A previous
// connection for the same player is closed. The login sequence is sent on
// the next tick.
func (h *Hub) Subscribe(playerID string, conn session.Conn) (*session.Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ps, ok := h.players[playerID]
	if !ok {
		return nil, false
	}
	if ps.session != nil {
		ps.session.Close()
	}
	sess := session.New(playerID, conn, session.Config{
		QueueDepth: h.cfg.QueueDepth,
		WriteWait:  h.cfg.WriteWait,
		Publisher:  h.publisher,
		Metrics:    h.metrics,
		Tick:       h.Tick,
	})
	ps.session = sess
	ps.composer = outbound.New(sess, &frameRecorder{hub: h, playerID: playerID})
	ps.loginPending = true
	ps.Loaded = false
	ps.lastHeartbeat = h.cfg.Now()
	h.storeSessionCountLocked()
	return sess, true
}

// Disconnect removes a player and closes its session. It reports whether
// the player was known.
func (h *Hub) Disconnect(playerID, reason string) bool {
	h.mu.Lock()
	ps, ok := h.players[playerID]
	if ok {
		h.removeLocked(ps, reason)
	}
	h.mu.Unlock()
	return ok
}

func (h *Hub) removeLocked(ps *playerState, reason string) {
	if ps.ready() {
		h.invokeScriptLocked("on_logout", ps.Index)
	}
	delete(h.players, ps.ID)
	delete(h.indices, ps.Index)
	if ps.session != nil {
		ps.session.Close()
	}
	h.storeSessionCountLocked()
	loggingLifecycle.PlayerLeft(context.Background(), h.publisher, h.Tick(), logging.PlayerRef(ps.ID), loggingLifecycle.PlayerLeftPayload{Reason: reason}, nil)
	h.metrics.Add("players_left_total", 1)
}

func (h *Hub) storeSessionCountLocked() {
	n := 0
	for _, ps := range h.players {
		if ps.session != nil && !ps.session.Closed() {
			n++
		}
	}
	if h.prom != nil {
		h.prom.SetActiveSessions(n)
	}
}

// CurrentSession returns the session attached to playerID, if any.
func (h *Hub) CurrentSession(playerID string) *session.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ps, ok := h.players[playerID]; ok {
		return ps.session
	}
	return nil
}

// HasPlayer reports whether playerID has joined.
func (h *Hub) HasPlayer(playerID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.players[playerID]
	return ok
}

// CommandContext wires intake staging to this hub.
func (h *Hub) CommandContext() intake.Context {
	return intake.Context{
		HasPlayer: h.HasPlayer,
		Tick:      h.Tick,
		Now:       h.cfg.Now,
		Enqueue:   h.enqueue,
	}
}

func (h *Hub) enqueue(cmd intake.Command) (bool, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ps, ok := h.players[cmd.ActorID]
	if !ok {
		return false, intake.RejectUnknownActor
	}
	if len(ps.commands) >= h.cfg.CommandQueueLimit {
		return false, intake.RejectQueueLimit
	}
	ps.commands = append(ps.commands, cmd)
	return true, ""
}

// UpdateHeartbeat records a heartbeat and returns the measured round trip.
func (h *Hub) UpdateHeartbeat(playerID string, receivedAt time.Time, clientSent int64) (time.Duration, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ps, ok := h.players[playerID]
	if !ok {
		return 0, false
	}
	ps.lastHeartbeat = receivedAt
	if clientSent > 0 {
		clientTime := time.UnixMilli(clientSent)
		if clientTime.Before(receivedAt.Add(5 * time.Second)) {
			ps.lastRTT = max(receivedAt.Sub(clientTime), 0)
		}
	}
	return ps.lastRTT, true
}

// DiagnosticsPlayer is one row of the diagnostics endpoint.
type DiagnosticsPlayer struct {
	ID            string      `json:"id"`
	Index         int         `json:"index"`
	Name          string      `json:"name"`
	Position      positionDTO `json:"position"`
	Instance      string      `json:"instance,omitempty"`
	Connected     bool        `json:"connected"`
	FramesWritten uint64      `json:"framesWritten"`
	LastHeartbeat int64       `json:"lastHeartbeat"`
	RTTMillis     int64       `json:"rttMillis"`
}

// DiagnosticsSnapshot lists every player ordered by index.
func (h *Hub) DiagnosticsSnapshot() []DiagnosticsPlayer {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]DiagnosticsPlayer, 0, len(h.players))
	for _, ps := range h.players {
		row := DiagnosticsPlayer{
			ID:            ps.ID,
			Index:         ps.Index,
			Name:          ps.Name,
			Position:      toDTO(ps.Position),
			LastHeartbeat: ps.lastHeartbeat.UnixMilli(),
			RTTMillis:     ps.lastRTT.Milliseconds(),
		}
		if ps.instance != nil {
			row.Instance = ps.instance.Name
		}
		if ps.session != nil {
			row.Connected = !ps.session.Closed()
			row.FramesWritten = ps.session.Written()
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Close disconnects every player.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ps := range h.players {
		if ps.ready() {
			_ = ps.composer.Logout()
		}
		h.removeLocked(ps, LeaveLogout)
	}
}
