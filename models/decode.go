package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"unicode/utf8"

	"github.com/samber/oops"
)

var (
	ErrInvalidAlert  = errors.New("invalid alert")
	ErrInvalidAction = errors.New("invalid action value")
	ErrInvalidUTF8   = errors.New("output is not valid UTF-8")
	ErrTrailingData  = errors.New("output contains data after the JSON document")
	ErrInvalidFrame  = errors.New("invalid pane frame")
)

// DecodeOutput parses exactly one Output document. Surrounding whitespace is
// allowed, anything else is not.
func DecodeOutput(raw []byte) (Output, error) {
	oopsBuilder := oops.In("DecodeOutput")
	var out Output
	if !utf8.Valid(raw) {
		return out, oopsBuilder.Wrap(ErrInvalidUTF8)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&out); err != nil {
		return Output{}, oopsBuilder.Wrap(err)
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return Output{}, oopsBuilder.
			With("offset", dec.InputOffset()).
			Wrap(ErrTrailingData)
	}
	if err := out.Validate(); err != nil {
		return Output{}, oopsBuilder.Wrap(err)
	}
	return out, nil
}

// Validate checks the invariants that JSON decoding alone does not.
func (o Output) Validate() error {
	for _, d := range o.Dashboards {
		for _, p := range d.Panes {
			if p.X < 0 || p.Y < 0 || p.Width < 1 || p.Height < 1 {
				return oops.
					In("Output.Validate").
					With("dashboard", d.Name).
					With("pane", p.Name).
					With("frame", []int{p.X, p.Y, p.Width, p.Height}).
					Wrap(ErrInvalidFrame)
			}
		}
	}
	return nil
}

func (o Output) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(o); err != nil {
		return oops.In("Output.Encode").Wrap(err)
	}
	return nil
}
