package testbed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/akmonengine/testbed/mesh"
	"github.com/go-gl/mathgl/mgl64"
)

// BuildGrid triangulates a w×h vertex grid of unit cells centered on the
// origin in the XZ plane. With randomY every vertex gets an elevation drawn
// from U[0,1] with rng, or a time-seeded source when rng is nil.
//
// Vertex (i,j) is stored at i*h+j. Every cell gives two triangles sharing its
// (i,j)-(i+1,j+1) diagonal, wound so a flat grid faces +Y. The spatial index
// is built once, after triangulation. It panics unless w, h >= 2.
func BuildGrid(w, h int, randomY bool, rng *rand.Rand) *mesh.Mesh {
	if w < 2 || h < 2 {
		panic(fmt.Sprintf("testbed: grid %dx%d, both sides need at least 2 vertices", w, h))
	}
	if randomY && rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	m := &mesh.Mesh{
		Vertices:  make([]mgl64.Vec3, w*h),
		Triangles: make([]mesh.Triangle, 0, 2*(w-1)*(h-1)),
	}

	offset := mgl64.Vec3{-0.5 * float64(w), 0, -0.5 * float64(h)}
	for i := 0; i < w; i++ {
		for j := 0; j < h; j++ {
			var y float64
			if randomY {
				y = rng.Float64()
			}
			m.Vertices[i*h+j] = mgl64.Vec3{float64(i), y, float64(j)}.Add(offset)
		}
	}

	index := func(i, j int) uint32 { return uint32(i*h + j) }
	for i := 0; i < w-1; i++ {
		for j := 0; j < h-1; j++ {
			v1 := index(i, j)
			v2 := index(i+1, j)
			v3 := index(i+1, j+1)
			v4 := index(i, j+1)

			m.Triangles = append(m.Triangles,
				mesh.Triangle{V1: v3, V2: v2, V3: v1},
				mesh.Triangle{V1: v1, V2: v4, V3: v3},
			)
		}
	}

	m.BuildTree()
	return m
}
