package outbound

import (
	"fmt"

	"gridhold/server/internal/net/frame"
	"gridhold/server/internal/world"
	"gridhold/server/internal/world/palette"
)

// Config sets a client configuration variable that fits in a byte.
func (c *Composer) Config(id, value int) error {
	return c.send(LayoutConfig, func(b *frame.Builder) {
		b.PutShort(frame.Little, id)
		b.PutByte(frame.Plain, value)
	})
}

// ConfigToggle sets a client configuration variable to a 32-bit state.
func (c *Composer) ConfigToggle(id int, state int64) error {
	return c.send(LayoutConfigToggle, func(b *frame.Builder) {
		b.PutShort(frame.Little, id)
		b.PutInt(frame.Middle, state)
	})
}

// ConstructRegion sends a palette-built view. The two coordinates are the
// palette's center chunk.
func (c *Composer) ConstructRegion(p *palette.Palette) error {
	if p == nil {
		return c.reject(LayoutRegionConstruct, &frame.ProtocolStateError{Op: "construct region", Reason: "nil palette"})
	}
	center := p.Center()
	return c.send(LayoutRegionConstruct, func(b *frame.Builder) {
		b.PutShort(frame.Little, center.Y)
		if err := p.EncodeDiff(b); err != nil {
			return
		}
		b.PutShort(frame.Plain, center.X)
	})
}

// LoadRegion tells the client to load the standard terrain around view.
func (c *Composer) LoadRegion(view world.View) error {
	center := view.Center()
	return c.send(LayoutRegionLoad, func(b *frame.Builder) {
		b.PutShort(frame.Little, center.X)
		b.PutShort(frame.Plain, center.Y)
	})
}

// InitializePlayer tells the client its membership and player index.
func (c *Composer) InitializePlayer(member bool, index int) error {
	return c.send(LayoutInitializePlayer, func(b *frame.Builder) {
		b.PutByte(frame.Add, boolByte(member))
		b.PutShort(frame.LittleAdd, index)
	})
}

// Details sends the player initialization followed by a camera reset.
func (c *Composer) Details(member bool, index int) error {
	if err := c.InitializePlayer(member, index); err != nil {
		return err
	}
	return c.CameraReset()
}

// Skill updates one skill's experience and level.
func (c *Composer) Skill(skill int, experience int64, level int) error {
	return c.send(LayoutSkill, func(b *frame.Builder) {
		b.PutByte(frame.Plain, skill)
		b.PutInt(frame.Middle, experience)
		b.PutByte(frame.Plain, level)
	})
}

// InterfaceInventory opens an interface with an inventory beside it.
func (c *Composer) InterfaceInventory(iface, inventoryIface int) error {
	return c.send(LayoutInterfaceInventory, func(b *frame.Builder) {
		b.PutUShort(frame.Add, iface)
		b.PutUShort(frame.Plain, inventoryIface)
	})
}

// SidebarInterface assigns an interface to a sidebar tab.
func (c *Composer) SidebarInterface(icon, iface int) error {
	return c.send(LayoutSidebarInterface, func(b *frame.Builder) {
		b.PutUShort(frame.Plain, iface)
		b.PutByte(frame.Add, icon)
	})
}

// Text prints a line in the chat box.
func (c *Composer) Text(message string) error {
	return c.send(LayoutText, func(b *frame.Builder) {
		b.PutString(message)
	})
}

// ChatSettings sets the public, private and trade filter modes.
func (c *Composer) ChatSettings(public, private, trade int) error {
	return c.send(LayoutChatSettings, func(b *frame.Builder) {
		b.PutByte(frame.Plain, public)
		b.PutByte(frame.Plain, private)
		b.PutByte(frame.Plain, trade)
	})
}

func (c *Composer) Logout() error {
	return c.send(LayoutLogout, nil)
}

// UpdateItems replaces the whole content of a container interface.
func (c *Composer) UpdateItems(iface int, items []Item) error {
	return c.send(LayoutUpdateItems, func(b *frame.Builder) {
		b.PutUShort(frame.Plain, iface)
		b.PutShort(frame.Plain, len(items))
		for _, item := range items {
			count := item.wireCount()
			if count >= largeCount {
				b.PutByte(frame.Plain, largeCount)
				b.PutInt(frame.Mixed, int64(count))
			} else {
				b.PutByte(frame.Plain, count)
			}
			b.PutUShort(frame.LittleAdd, item.wireID())
		}
	})
}

// UpdateItem changes one slot of a container interface.
func (c *Composer) UpdateItem(iface, slot int, item Item) error {
	return c.UpdateSlots(iface, []SlotItem{{Slot: slot, Item: item}})
}

// UpdateSlots changes selected slots of a container interface.
func (c *Composer) UpdateSlots(iface int, slots []SlotItem) error {
	return c.send(LayoutSlotItems, func(b *frame.Builder) {
		b.PutUShort(frame.Plain, iface)
		for _, s := range slots {
			b.PutSmart(s.Slot)
			b.PutUShort(frame.Plain, s.Item.wireID())
			count := s.Item.wireCount()
			if count >= largeCount {
				b.PutByte(frame.Plain, largeCount)
				b.PutInt(frame.Plain, int64(count))
			} else {
				b.PutByte(frame.Plain, count)
			}
		}
	})
}

func (c *Composer) EnterAmount() error {
	return c.send(LayoutEnterAmount, nil)
}

// InteractionOption sets the right-click option shown on other players.
func (c *Composer) InteractionOption(option string, slot int, top bool) error {
	return c.send(LayoutInteractionOption, func(b *frame.Builder) {
		b.PutByte(frame.Neg, slot)
		b.PutByte(frame.Add, 1-boolByte(top))
		b.PutString(option)
	})
}

// InterfaceString sets the text of an interface component.
func (c *Composer) InterfaceString(iface int, text string) error {
	return c.send(LayoutInterfaceString, func(b *frame.Builder) {
		b.PutString(text)
		b.PutUShort(frame.Add, iface)
	})
}

// InterfaceModel shows a model in an interface component.
func (c *Composer) InterfaceModel(iface, zoom, model int) error {
	return c.send(LayoutInterfaceModel, func(b *frame.Builder) {
		b.PutUShort(frame.Little, iface)
		b.PutShort(frame.Plain, zoom)
		b.PutShort(frame.Plain, model)
	})
}

func (c *Composer) ChatboxInterface(iface int) error {
	return c.send(LayoutChatboxInterface, func(b *frame.Builder) {
		b.PutUShort(frame.Little, iface)
	})
}

// InterfaceColor recolors an interface component. color is 15-bit RGB.
func (c *Composer) InterfaceColor(iface, color int) error {
	return c.send(LayoutInterfaceColor, func(b *frame.Builder) {
		b.PutUShort(frame.LittleAdd, iface)
		b.PutShort(frame.LittleAdd, color)
	})
}

func (c *Composer) Interface(iface int) error {
	return c.send(LayoutInterface, func(b *frame.Builder) {
		b.PutUShort(frame.Plain, iface)
	})
}

// WalkableInterface shows an overlay the player can move with.
func (c *Composer) WalkableInterface(iface int) error {
	return c.send(LayoutWalkableInterface, func(b *frame.Builder) {
		b.PutUShort(frame.Plain, iface)
	})
}

// ClearScreen closes every open interface.
func (c *Composer) ClearScreen() error {
	return c.send(LayoutClearScreen, nil)
}

// SystemUpdate starts the client's shutdown countdown.
func (c *Composer) SystemUpdate(seconds int) error {
	return c.send(LayoutSystemUpdate, func(b *frame.Builder) {
		b.PutShort(frame.Little, seconds)
	})
}

func (c *Composer) MinimapState(state int) error {
	return c.send(LayoutMinimapState, func(b *frame.Builder) {
		b.PutByte(frame.Plain, state)
	})
}

func (c *Composer) FlashingSidebar(sidebar int) error {
	return c.send(LayoutFlashingSidebar, func(b *frame.Builder) {
		b.PutByte(frame.Add, sidebar)
	})
}

func (c *Composer) ScrollPosition(iface, position int) error {
	return c.send(LayoutScrollPosition, func(b *frame.Builder) {
		b.PutUShort(frame.LittleAdd, iface)
		b.PutShort(frame.Add, position)
	})
}

func (c *Composer) CameraReset() error {
	return c.send(LayoutCameraReset, nil)
}

// CameraShake shakes the camera with the same intensity on every axis.
func (c *Composer) CameraShake(intensity int) error {
	return c.send(LayoutCameraShake, func(b *frame.Builder) {
		b.PutByte(frame.Plain, 0)
		b.PutByte(frame.Plain, intensity)
		b.PutByte(frame.Plain, intensity)
		b.PutByte(frame.Plain, intensity)
	})
}

func (c *Composer) Weight(weight int) error {
	return c.send(LayoutWeight, func(b *frame.Builder) {
		b.PutShort(frame.Plain, weight)
	})
}

// RunEnergy sends the run energy percentage. Only the low byte is kept.
func (c *Composer) RunEnergy(energy int) error {
	return c.send(LayoutRunEnergy, func(b *frame.Builder) {
		b.PutByte(frame.Plain, energy&0xFF)
	})
}

// Welcome carries the fields of the welcome screen.
type Welcome struct {
	RecoveryDays   int
	UnreadMessages int
	MemberWarning  bool
	LastAddress    int64
	LastLoginDays  int
}

func (c *Composer) WelcomeScreen(w Welcome) error {
	return c.send(LayoutWelcomeScreen, func(b *frame.Builder) {
		b.PutByte(frame.Plain, w.RecoveryDays)
		b.PutShort(frame.Add, w.UnreadMessages)
		b.PutByte(frame.Plain, boolByte(w.MemberWarning))
		b.PutInt(frame.Mixed, w.LastAddress)
		b.PutShort(frame.Plain, w.LastLoginDays)
	})
}

// PrivateMessage delivers an already encoded chat body from another player.
func (c *Composer) PrivateMessage(name int64, index int64, rights int, body []byte) error {
	return c.send(LayoutPrivateMessage, func(b *frame.Builder) {
		b.PutLong(frame.Plain, name)
		b.PutInt(frame.Plain, index)
		b.PutByte(frame.Plain, rights)
		b.PutBytes(body, 0, len(body))
	})
}

func (c *Composer) FriendServer(status int) error {
	return c.send(LayoutFriendServer, func(b *frame.Builder) {
		b.PutByte(frame.Plain, status)
	})
}

// Friend reports the world a friend is on; 0 is offline.
func (c *Composer) Friend(name int64, world int) error {
	return c.send(LayoutFriend, func(b *frame.Builder) {
		b.PutLong(frame.Plain, name)
		b.PutByte(frame.Plain, world)
	})
}

// IgnoreList sends the whole ignore list. An empty list initializes it.
func (c *Composer) IgnoreList(names []int64) error {
	return c.send(LayoutIgnoreList, func(b *frame.Builder) {
		for _, name := range names {
			b.PutLong(frame.Plain, name)
		}
	})
}

func (c *Composer) AnimationReset() error {
	return c.send(LayoutAnimationReset, nil)
}

// Coordinates sets the tile the next object message applies to, relative
// to the view the client last loaded.
func (c *Composer) Coordinates(view world.View, p world.Position) error {
	f, err := c.coordinates(view, p)
	if err != nil {
		return err
	}
	return c.write(LayoutCoordinates, f)
}

func (c *Composer) coordinates(view world.View, p world.Position) (frame.Frame, error) {
	if !view.Contains(p) || p.Plane != view.Plane {
		return frame.Frame{}, c.reject(LayoutCoordinates, &frame.EncodingRangeError{
			Field:  "coordinates",
			Reason: fmt.Sprintf("position %s outside the loaded view", p),
		})
	}
	x, y := view.Local(p)
	return c.build(LayoutCoordinates, func(b *frame.Builder) {
		b.PutByte(frame.Sub, y)
		b.PutByte(frame.Neg, x)
	})
}

// Object is a placed scenery object. Type is the object class (wall,
// decoration, ...) and Face its orientation in quarter turns.
type Object struct {
	ID       int
	Type     int
	Face     int
	Position world.Position
}

func (o Object) config() int {
	return o.Type<<2 + o.Face&3
}

// RemoveObject clears the object of o's type at o's position.
func (c *Composer) RemoveObject(view world.View, o Object) error {
	return c.atCoordinates(view, o.Position, LayoutObjectRemove, func(b *frame.Builder) {
		b.PutByte(frame.Neg, o.config())
		b.PutByte(frame.Plain, 0)
	})
}

// PlaceObject spawns o.
func (c *Composer) PlaceObject(view world.View, o Object) error {
	return c.atCoordinates(view, o.Position, LayoutObjectPlace, func(b *frame.Builder) {
		b.PutUShort(frame.Little, o.ID)
		b.PutByte(frame.Neg, 0)
		b.PutByte(frame.Sub, o.config())
	})
}

// atCoordinates writes a coordinates frame followed by the frame built by
// fill. Neither is written unless both encode.
func (c *Composer) atCoordinates(view world.View, p world.Position, l Layout, fill func(b *frame.Builder)) error {
	coords, err := c.coordinates(view, p)
	if err != nil {
		return err
	}
	f, err := c.build(l, fill)
	if err != nil {
		return err
	}
	if err := c.write(LayoutCoordinates, coords); err != nil {
		return err
	}
	return c.write(l, f)
}
