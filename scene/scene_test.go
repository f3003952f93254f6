package scene

import (
	"math"
	"math/rand"
	"testing"

	"github.com/akmonengine/testbed"
	"github.com/akmonengine/testbed/physics"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T) (*physics.World, *testbed.Test) {
	t.Helper()
	w := physics.New(physics.DefaultConfig())
	tb := testbed.New(w, testbed.WithRand(rand.New(rand.NewSource(1))))
	t.Cleanup(tb.Close)
	return w, tb
}

func TestLookup(t *testing.T) {
	for _, name := range []string{GyroName, TerrainName} {
		f, err := Lookup(name)
		require.NoError(t, err, name)
		assert.NotNil(t, f)
	}

	_, err := Lookup("pyramid")
	assert.ErrorIs(t, err, ErrUnknownScene)
	assert.Contains(t, err.Error(), "pyramid")
}

func TestResolve(t *testing.T) {
	names, err := Resolve("all")
	require.NoError(t, err)
	assert.Equal(t, []string{GyroName, TerrainName}, names)

	names, err = Resolve(TerrainName)
	require.NoError(t, err)
	assert.Equal(t, []string{TerrainName}, names)

	_, err = Resolve(GyroName, "nope")
	assert.ErrorIs(t, err, ErrUnknownScene)
}

func TestRegister_Duplicate(t *testing.T) {
	assert.Panics(t, func() { Register(GyroName, NewGyro) })
	assert.Panics(t, func() { Register("nil", nil) })
}

func TestGyro(t *testing.T) {
	w, tb := newSession(t)

	s := NewGyro(tb)
	require.Equal(t, GyroName, s.Name())
	gyro := s.(*Gyro)

	assert.Equal(t, 2, w.BodyCount())
	assert.Equal(t, mgl64.Vec3{}, w.Gravity())
	assert.Len(t, gyro.Rotor.Shapes(), 2)
	assert.InDelta(t, 0.1*28+0.2*math.Pi*0.95*0.95*4, gyro.Rotor.Mass(), 1e-9)

	for range 60 {
		s.Step()
	}

	pos := gyro.Rotor.Transform().Position
	assert.InDelta(t, 0.0, pos.X(), 1e-9)
	assert.InDelta(t, 10.0, pos.Y(), 1e-9)
	assert.InDelta(t, 0.0, pos.Z(), 1e-9)
	assert.True(t, gyro.Rotor.IsAwake(), "a spinning rotor never sleeps")
	assert.Zero(t, w.ContactCount(), "the rotor floats above the ground")
}

func TestTerrain(t *testing.T) {
	w, tb := newSession(t)

	s := NewTerrain(tb)
	require.Equal(t, TerrainName, s.Name())
	terrain := s.(*Terrain)
	assert.Same(t, tb.Mesh(testbed.TerrainMesh), terrain.Surface.Mesh)

	for range 200 {
		s.Step()
	}

	assert.Equal(t, 10, terrain.Drops())
	assert.Equal(t, 11, w.BodyCount())
	assert.Positive(t, terrain.Landings(), "dropped bodies reach the terrain")

	for _, b := range w.Bodies()[1:] {
		assert.Greater(t, b.Transform().Position.Y(), -1.0, "body %d fell through", b.ID())
	}
}
