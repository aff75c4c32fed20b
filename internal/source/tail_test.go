package source

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTailOffset(t *testing.T) {
	tests := []struct {
		name string
		data string
		n    int
		want int64
	}{
		{"last two lines", "a\nb\nc\n", 2, 2},
		{"more lines than file", "a\nb\n", 10, 0},
		{"no trailing newline", "a\nb\nc", 1, 4},
		{"zero lines starts at end", "a\nb\n", 0, 4},
		{"empty file", "", 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := strings.NewReader(tt.data)
			got, err := tailOffset(r, int64(len(tt.data)), tt.n)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTailOffsetAcrossChunks(t *testing.T) {
	line := strings.Repeat("x", 999) + "\n" // 1000 bytes
	data := strings.Repeat(line, 200)       // spans several chunks
	got, err := tailOffset(strings.NewReader(data), int64(len(data)), 150)
	require.NoError(t, err)
	assert.Equal(t, int64(50*1000), got)
}

func TestReadBackward(t *testing.T) {
	data := "one\ntwo\nthree\nfour\n"

	t.Run("whole prefix fits", func(t *testing.T) {
		lines, off, err := readBackward(strings.NewReader(data), 14, 1024)
		require.NoError(t, err)
		assert.Equal(t, []string{"one", "two", "three"}, lines)
		assert.Equal(t, int64(0), off)
	})

	t.Run("small window drops partial line", func(t *testing.T) {
		// window [8,14) is "three\n" exactly; preceded by a newline
		lines, off, err := readBackward(strings.NewReader(data), 14, 6)
		require.NoError(t, err)
		assert.Equal(t, []string{"three"}, lines)
		assert.Equal(t, int64(8), off)
	})

	t.Run("window cutting into a line skips it", func(t *testing.T) {
		lines, off, err := readBackward(strings.NewReader(data), 14, 8)
		require.NoError(t, err)
		assert.Equal(t, []string{"three"}, lines)
		assert.Equal(t, int64(8), off)
	})

	t.Run("grows for a long line", func(t *testing.T) {
		lines, off, err := readBackward(strings.NewReader(data), 14, 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"three"}, lines)
		assert.Equal(t, int64(8), off)
	})

	t.Run("at start of file", func(t *testing.T) {
		lines, off, err := readBackward(strings.NewReader(data), 0, 10)
		require.NoError(t, err)
		assert.Nil(t, lines)
		assert.Equal(t, int64(0), off)
	})

	t.Run("offset past end of data", func(t *testing.T) {
		_, _, err := readBackward(strings.NewReader("one\n"), 14, 1024)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})
}
