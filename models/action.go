package models

import (
	"encoding/json"

	"github.com/samber/oops"
)

type ActionKind string

const (
	ActionURL   ActionKind = "url"
	ActionShell ActionKind = "shell"
)

// ActionValue is either a URL to open or a shell command to run.
// On the wire it is a single-key object: {"url": "..."} or {"shell": "..."}.
type ActionValue struct {
	Kind    ActionKind
	Payload string
}

func URL(u string) ActionValue {
	return ActionValue{Kind: ActionURL, Payload: u}
}

func Shell(command string) ActionValue {
	return ActionValue{Kind: ActionShell, Payload: command}
}

type Action struct {
	Name  *string     `json:"name,omitempty" yaml:"name,omitempty"`
	Image *string     `json:"image,omitempty" yaml:"image,omitempty"`
	Value ActionValue `json:"value" yaml:"value"`
}

// Valid reports whether v is one of the known kinds.
func (v ActionValue) Valid() bool {
	return v.Kind == ActionURL || v.Kind == ActionShell
}

func (v ActionValue) MarshalJSON() ([]byte, error) {
	if !v.Valid() {
		return nil, oops.
			In("ActionValue.MarshalJSON").
			With("kind", v.Kind).
			Wrap(ErrInvalidAction)
	}
	return json.Marshal(map[string]string{string(v.Kind): v.Payload})
}

func (v *ActionValue) UnmarshalJSON(data []byte) error {
	oopsBuilder := oops.In("ActionValue.UnmarshalJSON")
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return oopsBuilder.Wrap(err)
	}
	if len(raw) != 1 {
		return oopsBuilder.
			With("variants", len(raw)).
			Hint("exactly one of url or shell must be set").
			Wrap(ErrInvalidAction)
	}
	for key, payload := range raw {
		kind := ActionKind(key)
		if kind != ActionURL && kind != ActionShell {
			return oopsBuilder.With("kind", key).Wrap(ErrInvalidAction)
		}
		var s string
		if err := json.Unmarshal(payload, &s); err != nil {
			return oopsBuilder.
				With("kind", key).
				Hint("payload must be a string").
				Wrap(err)
		}
		*v = ActionValue{Kind: kind, Payload: s}
	}
	return nil
}

func (v ActionValue) MarshalYAML() (interface{}, error) {
	if !v.Valid() {
		return nil, oops.In("ActionValue.MarshalYAML").With("kind", v.Kind).Wrap(ErrInvalidAction)
	}
	return map[string]string{string(v.Kind): v.Payload}, nil
}
