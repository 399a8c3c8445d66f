package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimal = `{"dashboards":[{"name":"d","panes":[{"name":"p","alert":"low","x":0,"y":0,"width":1,"height":1,"items":[]}]}]}`

func TestDecodeOutputAcceptsSurroundingWhitespace(t *testing.T) {
	out, err := DecodeOutput([]byte("\n  " + minimal + "\n"))
	require.NoError(t, err)
	assert.Equal(t, AlertLow, out.Dashboards[0].Panes[0].Alert)
}

func TestDecodeOutputRejectsExtraText(t *testing.T) {
	_, err := DecodeOutput([]byte(minimal + "\ndone!"))
	assert.ErrorIs(t, err, ErrTrailingData)

	_, err = DecodeOutput([]byte(minimal + minimal))
	assert.ErrorIs(t, err, ErrTrailingData)

	_, err = DecodeOutput([]byte("Writing file...\n" + minimal))
	assert.Error(t, err)
}

func TestDecodeOutputRejectsInvalidUTF8(t *testing.T) {
	_, err := DecodeOutput([]byte{'{', 0xff, '}'})
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestDecodeOutputRejectsEmpty(t *testing.T) {
	_, err := DecodeOutput(nil)
	assert.Error(t, err)
}

func TestDecodeOutputValidatesFrames(t *testing.T) {
	_, err := DecodeOutput([]byte(`{"dashboards":[{"name":"d","panes":[{"name":"p","alert":"none","x":0,"y":0,"width":0,"height":1,"items":[]}]}]}`))
	assert.ErrorIs(t, err, ErrInvalidFrame)
}

func TestContentItemToItem(t *testing.T) {
	sub := "sub"
	c := ContentItem{
		Title:    "t",
		Subtitle: &sub,
		Actions:  []Action{{Value: URL("https://example.com")}},
		Origin:   map[string]any{"number": 7},
	}
	item := c.ToItem()
	assert.Equal(t, "t", item.Title)
	assert.Equal(t, &sub, item.Subtitle)
	assert.Equal(t, []string{}, item.Extras)
	require.NotNil(t, item.Meta)
	assert.JSONEq(t,
		`{"title":"t","subtitle":"sub","extras":[],"actions":[{"value":{"url":"https://example.com"}}],"origin":{"number":7}}`,
		*item.Meta)

	bad := ContentItem{Title: "x", Actions: []Action{{}}}
	assert.Nil(t, bad.Meta())
}
