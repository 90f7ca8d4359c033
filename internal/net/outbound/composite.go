package outbound

import "gridhold/server/internal/world"

// SidebarTab binds a sidebar icon to the interface it opens.
type SidebarTab struct {
	Icon      int
	Interface int
}

// SidebarTabs is the fixed tab layout sent at login.
var SidebarTabs = []SidebarTab{
	{Icon: 1, Interface: 3917},
	{Icon: 2, Interface: 638},
	{Icon: 3, Interface: 3213},
	{Icon: 4, Interface: 1644},
	{Icon: 5, Interface: 5608},
	{Icon: 6, Interface: 1151},
	{Icon: 8, Interface: 5065},
	{Icon: 9, Interface: 5715},
	{Icon: 10, Interface: 2449},
	{Icon: 11, Interface: 4445},
	{Icon: 12, Interface: 147},
	{Icon: 13, Interface: 6299},
	{Icon: 0, Interface: 2423},
}

// SkillTable is a read-only view of a player's skills.
type SkillTable interface {
	Count() int
	Level(skill int) int
	Experience(skill int) int64
}

// Login carries what the client needs before the first tick.
type Login struct {
	Index   int
	Member  bool
	Welcome string
	View    world.View
}

// SidebarInterfaces assigns every tab in SidebarTabs.
func (c *Composer) SidebarInterfaces() error {
	for _, tab := range SidebarTabs {
		if err := c.SidebarInterface(tab.Icon, tab.Interface); err != nil {
			return err
		}
	}
	return nil
}

// Skills sends one skill update per skill, in skill order.
func (c *Composer) Skills(table SkillTable) error {
	for skill := 0; skill < table.Count(); skill++ {
		if err := c.Skill(skill, table.Experience(skill), table.Level(skill)); err != nil {
			return err
		}
	}
	return nil
}

// SendLogin sends the login sequence: details, the welcome line, the
// initial region and the sidebar tabs. It stops at the first failure.
func (c *Composer) SendLogin(l Login) error {
	if err := c.Details(l.Member, l.Index); err != nil {
		return err
	}
	if l.Welcome != "" {
		if err := c.Text(l.Welcome); err != nil {
			return err
		}
	}
	if err := c.LoadRegion(l.View); err != nil {
		return err
	}
	return c.SidebarInterfaces()
}
