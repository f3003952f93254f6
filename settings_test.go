package testbed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings_Empty(t *testing.T) {
	s, err := LoadSettings(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
}

func TestLoadSettings_Overrides(t *testing.T) {
	s, err := LoadSettings(strings.NewReader(`
hertz: 120
velocity_iterations: 4
sleep: false
draw_bounds: true
draw_faces: false
drag_force_scale: 500
`))
	require.NoError(t, err)

	want := DefaultSettings()
	want.Hertz = 120
	want.VelocityIterations = 4
	want.Sleep = false
	want.DrawBounds = true
	want.DrawFaces = false
	want.DragForceScale = 500
	assert.Equal(t, want, s)
}

func TestLoadSettings_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"negative hertz", "hertz: -1"},
		{"negative velocity iterations", "velocity_iterations: -2"},
		{"negative position iterations", "position_iterations: -2"},
		{"zero drag scale", "drag_force_scale: 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSettings(strings.NewReader(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidSettings)
		})
	}
}

func TestLoadSettings_Malformed(t *testing.T) {
	_, err := LoadSettings(strings.NewReader("hertz: [1, 2"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidSettings)
}

func TestLoadSettingsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pause: true\nhertz: 30\n"), 0o600))

	s, err := LoadSettingsFile(path)
	require.NoError(t, err)
	assert.True(t, s.Pause)
	assert.Equal(t, 30.0, s.Hertz)

	_, err = LoadSettingsFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSettings_ZeroHertzIsValid(t *testing.T) {
	s := DefaultSettings()
	s.Hertz = 0
	assert.NoError(t, s.Validate())
}
