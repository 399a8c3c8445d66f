package models

import (
	"encoding/json"
)

// ContentItem is one row produced by a content source. Origin holds the
// upstream record it was mapped from and only ever shows up in Item.Meta.
type ContentItem struct {
	Title    string   `json:"title"`
	Subtitle *string  `json:"subtitle,omitempty"`
	Extras   []string `json:"extras"`
	Actions  []Action `json:"actions"`
	Origin   any      `json:"origin,omitempty"`
}

// Meta re-serializes the item for diagnostics. It is nil when the item
// cannot be encoded.
func (c ContentItem) Meta() *string {
	if c.Extras == nil {
		c.Extras = []string{}
	}
	if c.Actions == nil {
		c.Actions = []Action{}
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil
	}
	meta := string(data)
	return &meta
}

func (c ContentItem) ToItem() Item {
	return Item{
		Title:    c.Title,
		Subtitle: c.Subtitle,
		Extras:   append([]string{}, c.Extras...),
		Meta:     c.Meta(),
		Actions:  append([]Action{}, c.Actions...),
	}
}
