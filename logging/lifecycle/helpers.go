package lifecycle

import (
	"context"

	"gridhold/server/logging"
)

const (
	// EventPlayerJoined is emitted when a player joins the world.
	EventPlayerJoined logging.EventType = "lifecycle.player_joined"
	// EventPlayerLeft is emitted when a player leaves the world.
	EventPlayerLeft logging.EventType = "lifecycle.player_left"
	// EventRegionRebuilt is emitted when a player's view is reloaded.
	EventRegionRebuilt logging.EventType = "lifecycle.region_rebuilt"
)

// PlayerJoinedPayload captures spawn metadata for a new player.
type PlayerJoinedPayload struct {
	Name   string `json:"name"`
	Index  int    `json:"index"`
	SpawnX int    `json:"spawnX"`
	SpawnY int    `json:"spawnY"`
	Plane  int    `json:"plane"`
}

// PlayerLeftPayload captures the reason a player left.
type PlayerLeftPayload struct {
	Reason string `json:"reason"`
}

// RegionRebuiltPayload describes the view a player was moved to.
type RegionRebuiltPayload struct {
	CenterX     int  `json:"centerX"`
	CenterY     int  `json:"centerY"`
	Plane       int  `json:"plane"`
	Constructed bool `json:"constructed"`
	Cells       int  `json:"cells,omitempty"`
}

// PlayerJoined publishes a player join event.
func PlayerJoined(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload PlayerJoinedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventPlayerJoined,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// PlayerLeft publishes a player departure event.
func PlayerLeft(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload PlayerLeftPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventPlayerLeft,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// RegionRebuilt publishes a debug event when a view reload is sent.
func RegionRebuilt(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload RegionRebuiltPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventRegionRebuilt,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
