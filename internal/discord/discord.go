package discord

import (
	"fmt"
	"strconv"
)

type ChannelType int

const (
	ChannelTypeText     ChannelType = 0
	ChannelTypeCategory ChannelType = 4
)

type Channel struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Type     ChannelType `json:"type"`
	ParentID *string     `json:"parent_id"`
}

type Role struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color int    `json:"color"`
}

type Guild struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

func (g Guild) IconURL() string {
	if g.Icon == "" {
		return ""
	}
	return fmt.Sprintf("https://cdn.discordapp.com/icons/%s/%s.png?size=256", g.ID, g.Icon)
}

const NoParentLabel = "No parent"

type Option struct {
	Value string
	Label string
	Color string
}

type OptionGroup struct {
	Label   string
	Options []Option
}

// GroupChannels lists text channels under their category. Channels without a
// known category are collected in a leading "No parent" group. Categories
// keep the order in which they first appear and empty ones are skipped.
func GroupChannels(channels []Channel) []OptionGroup {
	names := make(map[string]string)
	for _, c := range channels {
		if c.Type == ChannelTypeCategory {
			names[c.ID] = c.Name
		}
	}

	var noParent []Option
	var order []string
	children := make(map[string][]Option)

	for _, c := range channels {
		if c.Type != ChannelTypeText {
			continue
		}
		opt := Option{Value: c.ID, Label: "#" + c.Name}

		parentID := ""
		if c.ParentID != nil {
			parentID = *c.ParentID
		}
		if _, ok := names[parentID]; !ok {
			noParent = append(noParent, opt)
			continue
		}
		if _, seen := children[parentID]; !seen {
			order = append(order, parentID)
		}
		children[parentID] = append(children[parentID], opt)
	}

	var groups []OptionGroup
	if len(noParent) > 0 {
		groups = append(groups, OptionGroup{Label: NoParentLabel, Options: noParent})
	}
	for _, id := range order {
		groups = append(groups, OptionGroup{Label: names[id], Options: children[id]})
	}
	return groups
}

const DefaultRoleColor = "#ddd"

// RoleOptions keeps the API order. Discord uses colour 0 for "no colour".
func RoleOptions(roles []Role) []Option {
	options := make([]Option, 0, len(roles))
	for _, r := range roles {
		color := DefaultRoleColor
		if r.Color != 0 {
			color = "#" + strconv.FormatInt(int64(r.Color), 16)
		}
		options = append(options, Option{Value: r.ID, Label: r.Name, Color: color})
	}
	return options
}

// RoleColor returns the colour of the selected role, for styling the select.
func RoleColor(options []Option, value string) string {
	for _, o := range options {
		if o.Value == value {
			return o.Color
		}
	}
	return DefaultRoleColor
}
