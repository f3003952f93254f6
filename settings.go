package testbed

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultDragForceScale is the drag joint force per unit of mass of the dragged body.
const DefaultDragForceScale = 2000.0

// ErrInvalidSettings is wrapped by every Settings validation error.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings are the session options. The frame driver only reads them, except
// for clearing SingleStep once it has been honoured.
type Settings struct {
	Hertz              float64 `yaml:"hertz"`
	Pause              bool    `yaml:"pause"`
	SingleStep         bool    `yaml:"single_step"`
	VelocityIterations int     `yaml:"velocity_iterations"`
	PositionIterations int     `yaml:"position_iterations"`
	Sleep              bool    `yaml:"sleep"`
	WarmStart          bool    `yaml:"warm_start"`
	ConvexCache        bool    `yaml:"convex_cache"`

	DrawBounds          bool `yaml:"draw_bounds"`
	DrawVerticesEdges   bool `yaml:"draw_vertices_edges"`
	DrawCenterOfMasses  bool `yaml:"draw_center_of_masses"`
	DrawJoints          bool `yaml:"draw_joints"`
	DrawContactPoints   bool `yaml:"draw_contact_points"`
	DrawContactNormals  bool `yaml:"draw_contact_normals"`
	DrawContactTangents bool `yaml:"draw_contact_tangents"`
	DrawContactAreas    bool `yaml:"draw_contact_areas"`
	DrawFaces           bool `yaml:"draw_faces"`
	DrawStats           bool `yaml:"draw_stats"`
	DrawProfile         bool `yaml:"draw_profile"`

	DragForceScale float64 `yaml:"drag_force_scale"`
}

// DefaultSettings returns the options a session starts with.
func DefaultSettings() Settings {
	return Settings{
		Hertz:              60,
		VelocityIterations: 8,
		PositionIterations: 2,
		Sleep:              true,
		WarmStart:          true,
		ConvexCache:        true,
		DrawVerticesEdges:  true,
		DrawJoints:         true,
		DrawFaces:          true,
		DrawStats:          true,
		DragForceScale:     DefaultDragForceScale,
	}
}

// LoadSettings reads YAML over the defaults. Keys absent from r keep their default.
func LoadSettings(r io.Reader) (Settings, error) {
	s := DefaultSettings()
	if err := yaml.NewDecoder(r).Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// LoadSettingsFile is LoadSettings on the file at path.
func LoadSettingsFile(path string) (Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return Settings{}, fmt.Errorf("open settings: %w", err)
	}
	defer f.Close()

	s, err := LoadSettings(f)
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Validate rejects options the frame driver cannot honour.
func (s Settings) Validate() error {
	switch {
	case s.Hertz < 0:
		return fmt.Errorf("%w: hertz %v is negative", ErrInvalidSettings, s.Hertz)
	case s.VelocityIterations < 0:
		return fmt.Errorf("%w: velocity iterations %d is negative", ErrInvalidSettings, s.VelocityIterations)
	case s.PositionIterations < 0:
		return fmt.Errorf("%w: position iterations %d is negative", ErrInvalidSettings, s.PositionIterations)
	case s.DragForceScale <= 0:
		return fmt.Errorf("%w: drag force scale %v must be positive", ErrInvalidSettings, s.DragForceScale)
	}
	return nil
}
