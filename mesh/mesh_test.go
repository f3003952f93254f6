package mesh

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quad builds an n×n flat grid of unit cells on y=0, starting at the origin.
func quad(n int) *Mesh {
	m := &Mesh{}
	for i := 0; i <= n; i++ {
		for j := 0; j <= n; j++ {
			m.Vertices = append(m.Vertices, mgl64.Vec3{float64(i), 0, float64(j)})
		}
	}
	idx := func(i, j int) uint32 { return uint32(i*(n+1) + j) }
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v1, v2, v3, v4 := idx(i, j), idx(i+1, j), idx(i+1, j+1), idx(i, j+1)
			m.Triangles = append(m.Triangles, Triangle{v3, v2, v1}, Triangle{v1, v4, v3})
		}
	}
	m.BuildTree()
	return m
}

func TestMesh_NormalFollowsWinding(t *testing.T) {
	m := quad(1)
	for i := range m.Triangles {
		assert.InDelta(t, 1.0, m.Normal(i).Y(), 1e-12)
	}
}

func TestMesh_Bounds(t *testing.T) {
	m := quad(3)
	lo, hi := m.Bounds()
	assert.Equal(t, mgl64.Vec3{0, 0, 0}, lo)
	assert.Equal(t, mgl64.Vec3{3, 0, 3}, hi)
}

func TestMesh_RayCastRequiresTree(t *testing.T) {
	m := &Mesh{
		Vertices:  []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 0, 1}},
		Triangles: []Triangle{{0, 2, 1}},
	}
	_, ok := m.RayCast(mgl64.Vec3{0.2, 1, 0.2}, mgl64.Vec3{0.2, -1, 0.2})
	assert.False(t, ok)

	m.BuildTree()
	hit, ok := m.RayCast(mgl64.Vec3{0.2, 1, 0.2}, mgl64.Vec3{0.2, -1, 0.2})
	require.True(t, ok)
	assert.InDelta(t, 0.5, hit.Fraction, 1e-9)
}

func TestMesh_RayCast(t *testing.T) {
	m := quad(8)

	tests := []struct {
		name     string
		p1, p2   mgl64.Vec3
		hit      bool
		fraction float64
	}{
		{"straight down", mgl64.Vec3{2.5, 4, 3.25}, mgl64.Vec3{2.5, -4, 3.25}, true, 0.5},
		{"slanted", mgl64.Vec3{0.5, 2, 0.5}, mgl64.Vec3{6.5, -1, 5.5}, true, 2.0 / 3.0},
		{"from below", mgl64.Vec3{1.5, -1, 1.25}, mgl64.Vec3{1.5, 3, 1.25}, true, 0.25},
		{"too short", mgl64.Vec3{2.5, 4, 2.5}, mgl64.Vec3{2.5, 1, 2.5}, false, 0},
		{"outside", mgl64.Vec3{-2, 1, -2}, mgl64.Vec3{-2, -1, -2}, false, 0},
		{"parallel above", mgl64.Vec3{0, 1, 0}, mgl64.Vec3{8, 1, 8}, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, ok := m.RayCast(tt.p1, tt.p2)
			require.Equal(t, tt.hit, ok)
			if !tt.hit {
				return
			}
			assert.InDelta(t, tt.fraction, hit.Fraction, 1e-9)
			assert.InDelta(t, 0.0, hit.Point.Y(), 1e-9)
			// The normal faces the origin of the ray.
			assert.Less(t, hit.Normal.Dot(tt.p2.Sub(tt.p1)), 0.0)
		})
	}
}

func TestMesh_RayCastMatchesBruteForce(t *testing.T) {
	m := &Mesh{}
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			y := 0.3 * math.Sin(float64(i)) * math.Cos(float64(j))
			m.Vertices = append(m.Vertices, mgl64.Vec3{float64(i), y, float64(j)})
		}
	}
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			v1, v2 := uint32(i*6+j), uint32((i+1)*6+j)
			v3, v4 := uint32((i+1)*6+j+1), uint32(i*6+j+1)
			m.Triangles = append(m.Triangles, Triangle{v3, v2, v1}, Triangle{v1, v4, v3})
		}
	}
	m.BuildTree()

	rays := [][2]mgl64.Vec3{
		{{0.1, 3, 0.2}, {4.9, -2, 4.7}},
		{{4.5, 2, 0.5}, {0.5, -2, 4.5}},
		{{2.2, 5, 2.7}, {2.2, -5, 2.7}},
		{{-1, 0.1, 2.5}, {7, 0.1, 2.5}},
	}

	for _, r := range rays {
		best := math.Inf(1)
		for i := range m.Triangles {
			a, b, c := m.Corners(i)
			if f, ok := intersectTriangle(r[0], r[1].Sub(r[0]), a, b, c); ok && f < best {
				best = f
			}
		}

		hit, ok := m.RayCast(r[0], r[1])
		if math.IsInf(best, 1) {
			assert.False(t, ok)
			continue
		}
		require.True(t, ok)
		assert.InDelta(t, best, hit.Fraction, 1e-12)
	}
}

func TestMesh_QueryAABB(t *testing.T) {
	m := quad(4)

	var found []int
	m.QueryAABB(mgl64.Vec3{1.2, -1, 1.2}, mgl64.Vec3{1.8, 1, 1.8}, func(tri int) bool {
		found = append(found, tri)
		return true
	})
	// Only the two triangles of cell (1,1).
	assert.ElementsMatch(t, []int{2 * (1*4 + 1), 2*(1*4+1) + 1}, found)

	count := 0
	m.QueryAABB(mgl64.Vec3{-10, -1, -10}, mgl64.Vec3{10, 1, 10}, func(int) bool {
		count++
		return count < 3
	})
	assert.Equal(t, 3, count, "returning false stops the query")

	total := 0
	m.QueryAABB(mgl64.Vec3{-10, -1, -10}, mgl64.Vec3{10, 1, 10}, func(int) bool {
		total++
		return true
	})
	assert.Equal(t, len(m.Triangles), total, "each triangle reported once")
}
