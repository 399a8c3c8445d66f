package models

import (
	"encoding/json"

	"github.com/samber/oops"
)

// Alert is the urgency a pane asks the presentation layer to show.
type Alert string

const (
	AlertNone   Alert = "none"
	AlertLow    Alert = "low"
	AlertMedium Alert = "medium"
	AlertHigh   Alert = "high"
)

var alertLevels = map[Alert]int{
	AlertNone:   0,
	AlertLow:    1,
	AlertMedium: 2,
	AlertHigh:   3,
}

func ParseAlert(s string) (Alert, error) {
	a := Alert(s)
	if _, ok := alertLevels[a]; !ok {
		return "", oops.
			In("ParseAlert").
			With("alert", s).
			Hint("expected one of none, low, medium, high").
			Wrap(ErrInvalidAlert)
	}
	return a, nil
}

// Level orders alerts from none (0) to high (3). Unknown values rank as none.
func (a Alert) Level() int {
	return alertLevels[a]
}

// AtLeast reports whether a is as urgent as threshold.
func (a Alert) AtLeast(threshold Alert) bool {
	return a.Level() >= threshold.Level()
}

func (a *Alert) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return oops.In("Alert.UnmarshalJSON").Wrap(err)
	}
	parsed, err := ParseAlert(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Output is the document the compiled script writes to stdout.
type Output struct {
	Dashboards []Dashboard `json:"dashboards" yaml:"dashboards"`
}

type Dashboard struct {
	Name  string `json:"name" yaml:"name"`
	Panes []Pane `json:"panes" yaml:"panes"`
}

// Pane carries its final grid frame. Consumers divide the frame by the
// dashboard's Bounds to get a screen region.
type Pane struct {
	Name   string `json:"name" yaml:"name"`
	Alert  Alert  `json:"alert" yaml:"alert"`
	X      int    `json:"x" yaml:"x"`
	Y      int    `json:"y" yaml:"y"`
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`
	Items  []Item `json:"items" yaml:"items"`
}

type Item struct {
	Title    string   `json:"title" yaml:"title"`
	Subtitle *string  `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Extras   []string `json:"extras" yaml:"extras"`
	Meta     *string  `json:"meta,omitempty" yaml:"meta,omitempty"`
	Actions  []Action `json:"actions" yaml:"actions"`
}

// Bounds returns the width and height of the smallest grid holding every pane.
func (d Dashboard) Bounds() (width, height int) {
	for _, p := range d.Panes {
		width = max(width, p.X+p.Width)
		height = max(height, p.Y+p.Height)
	}
	return width, height
}

// The marshallers below keep empty collections as [] on the wire.

func (o Output) MarshalJSON() ([]byte, error) {
	type plain Output
	if o.Dashboards == nil {
		o.Dashboards = []Dashboard{}
	}
	return json.Marshal(plain(o))
}

func (d Dashboard) MarshalJSON() ([]byte, error) {
	type plain Dashboard
	if d.Panes == nil {
		d.Panes = []Pane{}
	}
	return json.Marshal(plain(d))
}

func (p Pane) MarshalJSON() ([]byte, error) {
	type plain Pane
	if p.Items == nil {
		p.Items = []Item{}
	}
	return json.Marshal(plain(p))
}

func (i Item) MarshalJSON() ([]byte, error) {
	type plain Item
	if i.Extras == nil {
		i.Extras = []string{}
	}
	if i.Actions == nil {
		i.Actions = []Action{}
	}
	return json.Marshal(plain(i))
}
