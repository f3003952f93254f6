// Package testbed is the harness shared by the physics test scenes. It
// drives a World one frame at a time, lets a pointer drag bodies around
// through ray casts and builds the procedural meshes the scenes stand on.
//
// The physics world, the renderer and the profiler are collaborators reached
// through the interfaces below; package physics provides the reference World.
package testbed

import (
	"github.com/akmonengine/testbed/actor"
	"github.com/akmonengine/testbed/draw"
	"github.com/akmonengine/testbed/instrument"
	"github.com/go-gl/mathgl/mgl64"
)

// BodyType tells whether a body moves.
type BodyType int

const (
	StaticBody BodyType = iota
	DynamicBody
)

func (t BodyType) String() string {
	if t == DynamicBody {
		return "dynamic"
	}
	return "static"
}

// BodyDef describes a body to create. A zero Orientation is the identity.
type BodyDef struct {
	Type            BodyType
	Position        mgl64.Vec3
	Orientation     mgl64.Quat
	LinearVelocity  mgl64.Vec3
	AngularVelocity mgl64.Vec3
}

// ShapeDef describes geometry to attach to a body. Shape is owned by the body
// afterwards and must not be shared.
type ShapeDef struct {
	Shape       actor.ShapeInterface
	Density     float64
	Friction    float64
	Restitution float64
	// Sensor shapes report contacts but are not solved
	Sensor bool
}

// TargetJointDef describes a joint pulling a point of BodyB toward Target.
// BodyA only terminates the joint.
type TargetJointDef struct {
	BodyA    Body
	BodyB    Body
	Target   mgl64.Vec3
	MaxForce float64
}

// RayCastOutput is the nearest hit of a ray cast, in world space.
type RayCastOutput struct {
	Shape    Shape
	Point    mgl64.Vec3
	Normal   mgl64.Vec3
	Fraction float64
}

// World is the physics simulation the harness drives. Every call is
// synchronous; callers never overlap.
type World interface {
	draw.FaceSource

	CreateBody(def BodyDef) Body
	// DestroyBody also destroys the joints attached to the body.
	// Destroying a body twice panics.
	DestroyBody(b Body)
	CreateTargetJoint(def TargetJointDef) TargetJoint
	// DestroyJoint panics when the joint was already destroyed.
	DestroyJoint(j Joint)

	// RayCastSingle returns the hit nearest to p1 on the segment p1→p2.
	RayCastSingle(p1, p2 mgl64.Vec3) (RayCastOutput, bool)

	// Step advances the simulation by dt. A zero dt still applies pending
	// creations and removals and refreshes contacts without moving anything.
	Step(dt float64, velocityIterations, positionIterations int)
	SetSleeping(enabled bool)
	SetWarmStart(enabled bool)
	SetGravity(g mgl64.Vec3)
	SetContactListener(l ContactListener)
	// SetDestructionListener routes the joints destroyed by DestroyBody to l.
	SetDestructionListener(l DestructionListener)

	// DebugDraw emits the primitives selected by d.Flags().
	DebugDraw(d draw.Drawer)

	BodyCount() int
	JointCount() int
	ContactCount() int
}

// Body is a rigid body owned by a World.
type Body interface {
	Type() BodyType
	CreateShape(def ShapeDef) Shape
	Shapes() []Shape
	// Mass is 0 for static bodies.
	Mass() float64
	SetAwake(awake bool)
	IsAwake() bool
	Transform() actor.Transform
	WorldPoint(local mgl64.Vec3) mgl64.Vec3
	LocalPoint(world mgl64.Vec3) mgl64.Vec3
	WorldVector(local mgl64.Vec3) mgl64.Vec3
	LocalVector(world mgl64.Vec3) mgl64.Vec3
}

// Shape is geometry attached to a Body. It never outlives its body.
type Shape interface {
	Body() Body
	Geometry() actor.ShapeInterface
}

// Joint links two bodies.
type Joint interface {
	BodyA() Body
	BodyB() Body
}

// TargetJoint pulls a point of BodyB toward a moving target.
type TargetJoint interface {
	Joint
	SetTarget(target mgl64.Vec3)
	Target() mgl64.Vec3
	MaxForce() float64
}

// Renderer receives the debug primitives and the overlay of a frame.
type Renderer interface {
	draw.Drawer
	SetFlags(f draw.Flags)
	// Submit flushes the primitives queued so far.
	Submit()
	// DrawFaces runs a full mesh draw pass over src.
	DrawFaces(src draw.FaceSource)
	Text(format string, args ...any)
}

// Profiler times named sections of a frame.
type Profiler interface {
	Begin(name string)
	End(name string)
	Records() []instrument.Record
	Clear()
}
