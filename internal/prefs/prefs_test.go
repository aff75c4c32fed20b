package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	p, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, p.Highlights)
}

func TestSaveAndLoadDefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	require.NoError(t, Save("", Prefs{Highlights: []string{"timeout", `user_id=\d+`}}))
	_, err := os.Stat(filepath.Join(home, ".config", "logpulse", "prefs.toml"))
	require.NoError(t, err)

	p, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"timeout", `user_id=\d+`}, p.Highlights)
}

func TestLoadExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte("highlights = [\"a\", \"a\", \" \", \"b\"]\n"), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, p.Highlights)
}

func TestLoadInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("highlights = [\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestPresets(t *testing.T) {
	tests := []struct {
		name  string
		lists [][]string
		want  []string
	}{
		{"empty", nil, nil},
		{"config then saved", [][]string{{"a", "b"}, {"b", "c"}}, []string{"a", "b", "c"}},
		{"keeps newest four", [][]string{{"a", "b", "c"}, {"d", "e"}}, []string{"b", "c", "d", "e"}},
		{"drops blanks", [][]string{{"", "  ", "x"}}, []string{"x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Presets(tt.lists...))
		})
	}
}
