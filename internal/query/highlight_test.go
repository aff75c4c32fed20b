package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHighlightsSpans(t *testing.T) {
	var h Highlights
	require.NoError(t, h.Add("error"))
	require.NoError(t, h.Add("db"))

	spans := h.Spans("db error in db")
	assert.Equal(t, []Span{
		{Start: 0, End: 2, Color: 1},
		{Start: 3, End: 8, Color: 0},
		{Start: 12, End: 14, Color: 1},
	}, spans)
}

func TestHighlightsEarlierPatternWinsOverlap(t *testing.T) {
	var h Highlights
	require.NoError(t, h.Add("connection"))
	require.NoError(t, h.Add("connection refused"))

	spans := h.Spans("connection refused")
	require.Len(t, spans, 1)
	assert.Equal(t, Span{Start: 0, End: 10, Color: 0}, spans[0])
}

func TestHighlightsFifthReplacesOldest(t *testing.T) {
	var h Highlights
	for _, p := range []string{"a", "b", "c", "d"} {
		require.NoError(t, h.Add(p))
	}
	require.NoError(t, h.Add("e"))

	list := h.List()
	require.Len(t, list, MaxHighlights)
	assert.Equal(t, "b", list[0].Pattern)
	assert.Equal(t, "e", list[3].Pattern)
	assert.Equal(t, 0, list[3].Color, "replacement takes the freed color")
}

func TestHighlightsEmptyPatternClears(t *testing.T) {
	var h Highlights
	require.NoError(t, h.Add("x"))
	require.NoError(t, h.Add(""))
	assert.Equal(t, 0, h.Len())
	assert.Nil(t, h.Spans("x"))
}

func TestHighlightsInvalidPattern(t *testing.T) {
	var h Highlights
	require.NoError(t, h.Add("ok"))
	assert.Error(t, h.Add("(bad"))
	assert.Equal(t, 1, h.Len())
}
