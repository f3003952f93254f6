package testbed

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildGrid_Counts(t *testing.T) {
	sizes := [][2]int{{2, 2}, {3, 3}, {2, 7}, {9, 4}, {50, 50}, {10, 10}}

	for _, size := range sizes {
		w, h := size[0], size[1]
		for _, randomY := range []bool{false, true} {
			m := BuildGrid(w, h, randomY, rand.New(rand.NewSource(1)))

			require.Len(t, m.Vertices, w*h, "%dx%d", w, h)
			require.Len(t, m.Triangles, 2*(w-1)*(h-1), "%dx%d", w, h)
			for _, tri := range m.Triangles {
				for _, v := range []uint32{tri.V1, tri.V2, tri.V3} {
					require.Less(t, v, uint32(w*h), "%dx%d", w, h)
				}
			}
			assert.NotNil(t, m.Tree(), "the spatial index is built")
		}
	}
}

func TestBuildGrid_ThreeByThree(t *testing.T) {
	m := BuildGrid(3, 3, false, nil)

	require.Len(t, m.Vertices, 9)
	require.Len(t, m.Triangles, 8)
	for _, v := range m.Vertices {
		assert.Zero(t, v.Y())
	}

	// Vertex (i,j) sits at (i - w/2, 0, j - h/2)
	assert.Equal(t, mgl64.Vec3{-1.5, 0, -1.5}, m.Vertices[0])
	assert.Equal(t, mgl64.Vec3{0.5, 0, -0.5}, m.Vertices[2*3+1])

	// First cell: {(1,1),(1,0),(0,0)} then {(0,0),(0,1),(1,1)}
	assert.Equal(t, [3]uint32{4, 3, 0}, [3]uint32{m.Triangles[0].V1, m.Triangles[0].V2, m.Triangles[0].V3})
	assert.Equal(t, [3]uint32{0, 1, 4}, [3]uint32{m.Triangles[1].V1, m.Triangles[1].V2, m.Triangles[1].V3})
}

func TestBuildGrid_FlatFacesUp(t *testing.T) {
	m := BuildGrid(6, 4, false, nil)
	for i := range m.Triangles {
		assert.InDelta(t, 1.0, m.Normal(i).Y(), 1e-12, "triangle %d", i)
	}
}

func TestBuildGrid_RandomElevation(t *testing.T) {
	m := BuildGrid(20, 20, true, rand.New(rand.NewSource(42)))

	varied := false
	for _, v := range m.Vertices {
		assert.GreaterOrEqual(t, v.Y(), 0.0)
		assert.LessOrEqual(t, v.Y(), 1.0)
		if v.Y() != m.Vertices[0].Y() {
			varied = true
		}
	}
	assert.True(t, varied)

	// A nil source is allowed
	m = BuildGrid(3, 3, true, nil)
	for _, v := range m.Vertices {
		assert.True(t, v.Y() >= 0 && v.Y() <= 1)
	}
}

func TestBuildGrid_RayCast(t *testing.T) {
	m := BuildGrid(4, 4, false, nil)

	hit, ok := m.RayCast(mgl64.Vec3{0.3, 5, 0.2}, mgl64.Vec3{0.3, -5, 0.2})
	require.True(t, ok)
	assert.InDelta(t, 0.5, hit.Fraction, 1e-12)
	assert.InDelta(t, 1.0, hit.Normal.Y(), 1e-12)
}

func TestBuildGrid_RejectsSmallGrids(t *testing.T) {
	assert.Panics(t, func() { BuildGrid(1, 5, false, nil) })
	assert.Panics(t, func() { BuildGrid(5, 1, false, nil) })
	assert.Panics(t, func() { BuildGrid(0, 0, true, nil) })
}
