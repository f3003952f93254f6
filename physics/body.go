package physics

import (
	"fmt"
	"slices"

	"github.com/akmonengine/testbed"
	"github.com/akmonengine/testbed/actor"
	"github.com/akmonengine/testbed/draw"
	"github.com/go-gl/mathgl/mgl64"
)

// Body implements testbed.Body over an actor.RigidBody. Several shapes are
// collided as one actor.Compound.
type Body struct {
	world *World
	id    uint64
	typ   testbed.BodyType
	rb    *actor.RigidBody

	shapes []*Shape
	joints []*Joint

	destroyed bool
}

var _ testbed.Body = (*Body)(nil)

func newBody(w *World, id uint64, def testbed.BodyDef) *Body {
	bodyType := actor.BodyTypeStatic
	if def.Type == testbed.DynamicBody {
		bodyType = actor.BodyTypeDynamic
	}

	rb := actor.NewRigidBody(actor.NewTransformAt(def.Position, def.Orientation), nil, bodyType, 0)
	if def.Type == testbed.DynamicBody {
		rb.Velocity = def.LinearVelocity
		rb.AngularVelocity = def.AngularVelocity
	}

	return &Body{world: w, id: id, typ: def.Type, rb: rb}
}

// ID is unique within the world.
func (b *Body) ID() uint64 { return b.id }

func (b *Body) Type() testbed.BodyType { return b.typ }

// RigidBody exposes the simulated state.
func (b *Body) RigidBody() *actor.RigidBody { return b.rb }

// CreateShape attaches def.Shape. Planes and meshes must be the only shape of
// a static body. A dynamic shape without density gets a unit density.
func (b *Body) CreateShape(def testbed.ShapeDef) testbed.Shape {
	if b.world.locked {
		panic("physics: CreateShape called while the world is locked")
	}
	if b.destroyed {
		panic(fmt.Sprintf("physics: CreateShape on destroyed body %d", b.id))
	}
	if def.Shape == nil {
		panic("physics: CreateShape without geometry")
	}
	if isUnbounded(def.Shape) && (b.typ != testbed.StaticBody || len(b.shapes) > 0) {
		panic(fmt.Sprintf("physics: %T must be the only shape of a static body", def.Shape))
	}
	if len(b.shapes) > 0 && isUnbounded(b.shapes[0].geom) {
		panic(fmt.Sprintf("physics: body %d already holds a %T", b.id, b.shapes[0].geom))
	}
	if slices.ContainsFunc(b.shapes, func(s *Shape) bool { return s.geom == def.Shape }) {
		panic("physics: geometry attached twice")
	}

	s := &Shape{
		body:        b,
		geom:        def.Shape,
		density:     def.Density,
		friction:    def.Friction,
		restitution: def.Restitution,
		sensor:      def.Sensor,
	}
	if s.density <= 0 {
		s.density = 1
	}
	b.shapes = append(b.shapes, s)
	b.updateMassData()
	b.rb.Awake()
	return s
}

// updateMassData rebuilds the collision shape and mass from the shapes. The
// body material mixes the shape materials.
func (b *Body) updateMassData() {
	var friction, restitution float64
	for _, s := range b.shapes {
		friction += s.friction
		restitution += s.restitution
	}
	n := float64(len(b.shapes))
	b.rb.Material.StaticFriction = friction / n
	b.rb.Material.DynamicFriction = friction / n
	b.rb.Material.Restitution = restitution / n

	if len(b.shapes) == 1 {
		b.rb.SetShape(b.shapes[0].geom, b.shapes[0].density)
		return
	}

	children := make([]actor.CompoundChild, len(b.shapes))
	for i, s := range b.shapes {
		children[i] = actor.CompoundChild{Shape: s.geom, Density: s.density}
	}
	b.rb.SetShape(&actor.Compound{Children: children}, 1)
}

func (b *Body) Shapes() []testbed.Shape {
	out := make([]testbed.Shape, len(b.shapes))
	for i, s := range b.shapes {
		out[i] = s
	}
	return out
}

// Mass is 0 for static bodies.
func (b *Body) Mass() float64 {
	if b.typ == testbed.StaticBody {
		return 0
	}
	return b.rb.Mass()
}

// SetAwake wakes the body or puts it to sleep, clearing its velocities.
// Static bodies ignore it.
func (b *Body) SetAwake(awake bool) {
	if b.typ == testbed.StaticBody {
		return
	}
	if awake {
		b.rb.Awake()
	} else {
		b.rb.Sleep()
	}
}

func (b *Body) IsAwake() bool { return !b.rb.IsSleeping }

func (b *Body) Transform() actor.Transform { return b.rb.Transform }

func (b *Body) WorldPoint(local mgl64.Vec3) mgl64.Vec3  { return b.rb.WorldPoint(local) }
func (b *Body) LocalPoint(world mgl64.Vec3) mgl64.Vec3  { return b.rb.LocalPoint(world) }
func (b *Body) WorldVector(local mgl64.Vec3) mgl64.Vec3 { return b.rb.WorldVector(local) }
func (b *Body) LocalVector(world mgl64.Vec3) mgl64.Vec3 { return b.rb.LocalVector(world) }

// LinearVelocity returns the velocity of the center, in m/s.
func (b *Body) LinearVelocity() mgl64.Vec3 { return b.rb.Velocity }

// AngularVelocity returns the angular velocity in rad/s.
func (b *Body) AngularVelocity() mgl64.Vec3 { return b.rb.AngularVelocity }

// active bodies move: dynamic and awake.
func (b *Body) active() bool {
	return b.typ == testbed.DynamicBody && !b.rb.IsSleeping
}

// isSensor reports whether every shape of b is a sensor.
func (b *Body) isSensor() bool {
	if len(b.shapes) == 0 {
		return false
	}
	for _, s := range b.shapes {
		if !s.sensor {
			return false
		}
	}
	return true
}

func (b *Body) detach(j *Joint) {
	b.joints = slices.DeleteFunc(b.joints, func(other *Joint) bool { return other == j })
}

func (b *Body) color() draw.Color {
	switch {
	case b.typ == testbed.StaticBody:
		return draw.Static
	case b.rb.IsSleeping:
		return draw.Sleepy
	default:
		return draw.Dynamic
	}
}

// isUnbounded tells the shapes collided analytically or per triangle, never
// through a support mapping.
func isUnbounded(s actor.ShapeInterface) bool {
	switch s.(type) {
	case *actor.Plane, *actor.MeshShape:
		return true
	}
	return false
}

// Shape implements testbed.Shape.
type Shape struct {
	body        *Body
	geom        actor.ShapeInterface
	density     float64
	friction    float64
	restitution float64
	sensor      bool
}

var _ testbed.Shape = (*Shape)(nil)

func (s *Shape) Body() testbed.Body             { return s.body }
func (s *Shape) Geometry() actor.ShapeInterface { return s.geom }
func (s *Shape) Density() float64               { return s.density }
func (s *Shape) IsSensor() bool                 { return s.sensor }
