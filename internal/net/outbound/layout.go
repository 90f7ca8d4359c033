package outbound

import "gridhold/server/internal/net/frame"

// Layout describes how one message is framed on the wire. Size is the
// payload size of FixedLength messages and a capacity hint otherwise.
type Layout struct {
	Name    string
	Opcode  uint8
	Framing frame.Framing
	Size    int
}

var (
	LayoutConfig             = Layout{Name: "config", Opcode: 36, Framing: frame.FixedLength, Size: 3}
	LayoutConfigToggle       = Layout{Name: "config-toggle", Opcode: 87, Framing: frame.FixedLength, Size: 6}
	LayoutRegionConstruct    = Layout{Name: "region-construct", Opcode: 241, Framing: frame.VariableShort, Size: 4 + (676+7)/8}
	LayoutInitializePlayer   = Layout{Name: "initialize-player", Opcode: 249, Framing: frame.FixedLength, Size: 3}
	LayoutSkill              = Layout{Name: "skill-update", Opcode: 134, Framing: frame.FixedLength, Size: 6}
	LayoutInterfaceInventory = Layout{Name: "interface-inventory", Opcode: 248, Framing: frame.FixedLength, Size: 4}
	LayoutSidebarInterface   = Layout{Name: "sidebar-interface", Opcode: 71, Framing: frame.FixedLength, Size: 3}
	LayoutText               = Layout{Name: "text-message", Opcode: 253, Framing: frame.VariableByte, Size: 32}
	LayoutChatSettings       = Layout{Name: "chat-settings", Opcode: 206, Framing: frame.FixedLength, Size: 3}
	LayoutRegionLoad         = Layout{Name: "region-load", Opcode: 73, Framing: frame.FixedLength, Size: 4}
	LayoutLogout             = Layout{Name: "logout", Opcode: 109, Framing: frame.FixedLength}
	LayoutUpdateItems        = Layout{Name: "update-items", Opcode: 53, Framing: frame.VariableShort, Size: 64}
	LayoutSlotItems          = Layout{Name: "slot-items-update", Opcode: 34, Framing: frame.VariableShort, Size: 16}
	LayoutEnterAmount        = Layout{Name: "enter-amount", Opcode: 27, Framing: frame.FixedLength}
	LayoutInteractionOption  = Layout{Name: "interaction-option", Opcode: 104, Framing: frame.VariableByte, Size: 16}
	LayoutInterfaceString    = Layout{Name: "interface-string", Opcode: 126, Framing: frame.VariableShort, Size: 32}
	LayoutInterfaceModel     = Layout{Name: "interface-model", Opcode: 246, Framing: frame.FixedLength, Size: 6}
	LayoutChatboxInterface   = Layout{Name: "chatbox-interface", Opcode: 164, Framing: frame.FixedLength, Size: 2}
	LayoutInterfaceColor     = Layout{Name: "interface-color", Opcode: 122, Framing: frame.FixedLength, Size: 4}
	LayoutInterface          = Layout{Name: "interface", Opcode: 97, Framing: frame.FixedLength, Size: 2}
	LayoutWalkableInterface  = Layout{Name: "walkable-interface", Opcode: 208, Framing: frame.FixedLength, Size: 2}
	LayoutClearScreen        = Layout{Name: "clear-screen", Opcode: 219, Framing: frame.FixedLength}
	LayoutSystemUpdate       = Layout{Name: "system-update", Opcode: 114, Framing: frame.FixedLength, Size: 2}
	LayoutMinimapState       = Layout{Name: "minimap-state", Opcode: 99, Framing: frame.FixedLength, Size: 1}
	LayoutFlashingSidebar    = Layout{Name: "flashing-sidebar", Opcode: 24, Framing: frame.FixedLength, Size: 1}
	LayoutScrollPosition     = Layout{Name: "scroll-position", Opcode: 79, Framing: frame.FixedLength, Size: 4}
	LayoutCameraReset        = Layout{Name: "camera-reset", Opcode: 107, Framing: frame.FixedLength}
	LayoutCameraShake        = Layout{Name: "camera-shake", Opcode: 35, Framing: frame.FixedLength, Size: 4}
	LayoutWeight             = Layout{Name: "weight", Opcode: 240, Framing: frame.FixedLength, Size: 2}
	LayoutRunEnergy          = Layout{Name: "run-energy", Opcode: 110, Framing: frame.FixedLength, Size: 1}
	LayoutWelcomeScreen      = Layout{Name: "welcome-screen", Opcode: 176, Framing: frame.FixedLength, Size: 10}
	LayoutPrivateMessage     = Layout{Name: "private-message", Opcode: 196, Framing: frame.VariableByte, Size: 32}
	LayoutFriendServer       = Layout{Name: "friend-server", Opcode: 221, Framing: frame.FixedLength, Size: 1}
	LayoutFriend             = Layout{Name: "friend", Opcode: 50, Framing: frame.FixedLength, Size: 9}
	LayoutIgnoreList         = Layout{Name: "ignore-list", Opcode: 214, Framing: frame.VariableShort, Size: 64}
	LayoutAnimationReset     = Layout{Name: "animation-reset", Opcode: 1, Framing: frame.FixedLength}
	LayoutCoordinates        = Layout{Name: "coordinates", Opcode: 85, Framing: frame.FixedLength, Size: 2}
	LayoutObjectRemove       = Layout{Name: "object-remove", Opcode: 64, Framing: frame.FixedLength, Size: 2}
	LayoutObjectPlace        = Layout{Name: "object-place", Opcode: 236, Framing: frame.FixedLength, Size: 4}
)

// Catalogue lists every outbound layout. Opcodes are unique within it.
var Catalogue = []Layout{
	LayoutConfig,
	LayoutConfigToggle,
	LayoutRegionConstruct,
	LayoutInitializePlayer,
	LayoutSkill,
	LayoutInterfaceInventory,
	LayoutSidebarInterface,
	LayoutText,
	LayoutChatSettings,
	LayoutRegionLoad,
	LayoutLogout,
	LayoutUpdateItems,
	LayoutSlotItems,
	LayoutEnterAmount,
	LayoutInteractionOption,
	LayoutInterfaceString,
	LayoutInterfaceModel,
	LayoutChatboxInterface,
	LayoutInterfaceColor,
	LayoutInterface,
	LayoutWalkableInterface,
	LayoutClearScreen,
	LayoutSystemUpdate,
	LayoutMinimapState,
	LayoutFlashingSidebar,
	LayoutScrollPosition,
	LayoutCameraReset,
	LayoutCameraShake,
	LayoutWeight,
	LayoutRunEnergy,
	LayoutWelcomeScreen,
	LayoutPrivateMessage,
	LayoutFriendServer,
	LayoutFriend,
	LayoutIgnoreList,
	LayoutAnimationReset,
	LayoutCoordinates,
	LayoutObjectRemove,
	LayoutObjectPlace,
}

// LayoutByOpcode looks up a layout in the catalogue.
func LayoutByOpcode(opcode uint8) (Layout, bool) {
	for _, l := range Catalogue {
		if l.Opcode == opcode {
			return l, true
		}
	}
	return Layout{}, false
}
