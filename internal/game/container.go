package game

import (
	"errors"
	"fmt"
)

// Item is one container entry. A zero Count means the slot is empty.
type Item struct {
	ID    int
	Count int
}

func (i Item) Empty() bool {
	return i.Count <= 0
}

var (
	ErrContainerFull = errors.New("container full")
	ErrNotEnough     = errors.New("not enough items")
)

// ContainerListener is told about every change to a container. Listeners
// run synchronously on the goroutine mutating the container.
type ContainerListener interface {
	SlotsChanged(c *Container, slots []int)
	ItemsChanged(c *Container)
}

// Container is a fixed number of item slots bound to a client interface.
type Container struct {
	name        string
	iface       int
	slots       []Item
	alwaysStack bool
	stackable   func(id int) bool
	listeners   []ContainerListener
}

// ContainerOptions tunes stacking.
type ContainerOptions struct {
	// AlwaysStack merges equal ids regardless of the item, as banks do.
	AlwaysStack bool
	// Stackable reports which ids merge into one slot.
	Stackable func(id int) bool
}

// NewContainer returns an empty container.
func NewContainer(name string, iface, capacity int, opts ContainerOptions) *Container {
	return &Container{
		name:        name,
		iface:       iface,
		slots:       make([]Item, capacity),
		alwaysStack: opts.AlwaysStack,
		stackable:   opts.Stackable,
	}
}

const (
	InventoryInterface = 3214
	InventoryCapacity  = 28
	EquipmentInterface = 1688
	EquipmentCapacity  = 14
)

// NewInventory returns the 28 slot backpack.
func NewInventory(stackable func(id int) bool) *Container {
	return NewContainer("inventory", InventoryInterface, InventoryCapacity, ContainerOptions{Stackable: stackable})
}

// NewEquipment returns the 14 slot worn equipment container.
func NewEquipment() *Container {
	return NewContainer("equipment", EquipmentInterface, EquipmentCapacity, ContainerOptions{AlwaysStack: true})
}

func (c *Container) Name() string { return c.name }

// Interface returns the client interface the container is shown in.
func (c *Container) Interface() int { return c.iface }

func (c *Container) Capacity() int { return len(c.slots) }

// AddListener registers l and immediately reports the full content to it.
func (c *Container) AddListener(l ContainerListener) {
	c.listeners = append(c.listeners, l)
	l.ItemsChanged(c)
}

// Get returns the item in slot.
func (c *Container) Get(slot int) (Item, error) {
	if slot < 0 || slot >= len(c.slots) {
		return Item{}, fmt.Errorf("%s slot %d outside [0, %d)", c.name, slot, len(c.slots))
	}
	return c.slots[slot], nil
}

// Items returns a copy of every slot.
func (c *Container) Items() []Item {
	return append([]Item(nil), c.slots...)
}

// Used returns the number of occupied slots.
func (c *Container) Used() int {
	n := 0
	for _, it := range c.slots {
		if !it.Empty() {
			n++
		}
	}
	return n
}

// Set replaces the content of one slot.
func (c *Container) Set(slot int, item Item) error {
	if slot < 0 || slot >= len(c.slots) {
		return fmt.Errorf("%s slot %d outside [0, %d)", c.name, slot, len(c.slots))
	}
	if item.Empty() {
		item = Item{}
	}
	c.slots[slot] = item
	c.slotsChanged([]int{slot})
	return nil
}

func (c *Container) stacks(id int) bool {
	if c.alwaysStack {
		return true
	}
	return c.stackable != nil && c.stackable(id)
}

// Add places item into the container and returns the slots touched.
func (c *Container) Add(item Item) ([]int, error) {
	if item.Empty() {
		return nil, nil
	}
	if c.stacks(item.ID) {
		for i, it := range c.slots {
			if !it.Empty() && it.ID == item.ID {
				c.slots[i].Count += item.Count
				c.slotsChanged([]int{i})
				return []int{i}, nil
			}
		}
		slot := c.freeSlot()
		if slot < 0 {
			return nil, ErrContainerFull
		}
		c.slots[slot] = item
		c.slotsChanged([]int{slot})
		return []int{slot}, nil
	}

	if c.free() < item.Count {
		return nil, ErrContainerFull
	}
	touched := make([]int, 0, item.Count)
	for n := 0; n < item.Count; n++ {
		slot := c.freeSlot()
		c.slots[slot] = Item{ID: item.ID, Count: 1}
		touched = append(touched, slot)
	}
	c.slotsChanged(touched)
	return touched, nil
}

// Remove takes count of id out of the container.
func (c *Container) Remove(id, count int) ([]int, error) {
	if count <= 0 {
		return nil, nil
	}
	if c.Count(id) < count {
		return nil, ErrNotEnough
	}
	touched := make([]int, 0, 1)
	for i := range c.slots {
		if count == 0 {
			break
		}
		it := &c.slots[i]
		if it.Empty() || it.ID != id {
			continue
		}
		take := it.Count
		if take > count {
			take = count
		}
		it.Count -= take
		if it.Count == 0 {
			*it = Item{}
		}
		count -= take
		touched = append(touched, i)
	}
	c.slotsChanged(touched)
	return touched, nil
}

// Count returns how many of id the container holds.
func (c *Container) Count(id int) int {
	total := 0
	for _, it := range c.slots {
		if !it.Empty() && it.ID == id {
			total += it.Count
		}
	}
	return total
}

// Clear empties every slot.
func (c *Container) Clear() {
	for i := range c.slots {
		c.slots[i] = Item{}
	}
	for _, l := range c.listeners {
		l.ItemsChanged(c)
	}
}

func (c *Container) freeSlot() int {
	for i, it := range c.slots {
		if it.Empty() {
			return i
		}
	}
	return -1
}

func (c *Container) free() int {
	return len(c.slots) - c.Used()
}

func (c *Container) slotsChanged(slots []int) {
	if len(slots) == 0 {
		return
	}
	for _, l := range c.listeners {
		l.SlotsChanged(c, slots)
	}
}
