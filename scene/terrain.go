package scene

import (
	"github.com/akmonengine/testbed"
	"github.com/akmonengine/testbed/actor"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

const TerrainName = "terrain"

const (
	dropEvery   = 20
	maxDrops    = 25
	dropHeight  = 3.0
	dropSpacing = 4.0
)

// Terrain drops spheres and boxes on the random terrain mesh of the
// session. Each drop is placed by a ray cast above what lies under it.
type Terrain struct {
	*testbed.Test
	testbed.NopContactListener

	Surface *actor.MeshShape
	ground  testbed.Body

	frames   int
	drops    int
	landings int
}

func NewTerrain(t *testbed.Test) Scene {
	w := t.World()

	shape := &actor.MeshShape{Mesh: t.Mesh(testbed.TerrainMesh)}
	ground := w.CreateBody(testbed.BodyDef{Type: testbed.StaticBody})
	ground.CreateShape(testbed.ShapeDef{Shape: shape, Friction: 0.6})

	s := &Terrain{Test: t, Surface: shape, ground: ground}
	t.SetContactListener(s)
	return s
}

func (s *Terrain) Name() string { return TerrainName }

// Drops counts the bodies dropped so far.
func (s *Terrain) Drops() int { return s.drops }

// Landings counts the contacts begun between a dropped body and the terrain.
func (s *Terrain) Landings() int { return s.landings }

func (s *Terrain) BeginContact(c testbed.Contact) {
	if c.BodyA() == s.ground || c.BodyB() == s.ground {
		s.landings++
	}
}

// Step drops a body every dropEvery frames, then runs the frame.
func (s *Terrain) Step() float64 {
	if s.frames%dropEvery == 0 && s.drops < maxDrops {
		s.drop()
	}
	s.frames++
	return s.Test.Step()
}

func (s *Terrain) drop() {
	i := s.drops
	s.drops++

	x := float64(i%5)*dropSpacing - 2*dropSpacing
	z := float64(i/5%5)*dropSpacing - 2*dropSpacing

	w := s.World()
	y := 0.0
	if out, ok := w.RayCastSingle(mgl64.Vec3{x, 20, z}, mgl64.Vec3{x, -20, z}); ok {
		y = out.Point.Y()
	}

	body := w.CreateBody(testbed.BodyDef{
		Type:     testbed.DynamicBody,
		Position: mgl64.Vec3{x, y + dropHeight, z},
	})
	var shape actor.ShapeInterface = &actor.Sphere{Radius: 0.5}
	if i%2 == 1 {
		shape = &actor.Box{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}}
	}
	body.CreateShape(testbed.ShapeDef{Shape: shape, Density: 1, Friction: 0.6})

	s.Logger().Debug("body dropped",
		zap.Int("drop", s.drops),
		zap.Float64("x", x),
		zap.Float64("y", y+dropHeight),
		zap.Float64("z", z))
}
