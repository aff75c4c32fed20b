package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vltamanec/logpulse/internal/domain"
)

func TestLevelStyle(t *testing.T) {
	assert.Equal(t, Styles.Error.GetForeground(), LevelStyle(domain.LogLevelError).GetForeground())
	assert.True(t, LevelStyle(domain.LogLevelError).GetBold())
	assert.Equal(t, Styles.Warn.GetForeground(), LevelStyle(domain.LogLevelWarn).GetForeground())
	assert.Equal(t, Styles.Unknown.GetForeground(), LevelStyle(domain.LogLevel("bogus")).GetForeground())
}

func TestHighlightStyleWrapsPalette(t *testing.T) {
	for slot := range HighlightPalette {
		assert.Equal(t, HighlightPalette[slot], HighlightStyle(slot).GetBackground())
	}
	assert.Equal(t, HighlightPalette[0], HighlightStyle(len(HighlightPalette)).GetBackground())
	assert.Equal(t, HighlightPalette[3], HighlightStyle(-1).GetBackground())
}
