package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BodyType represents the type of rigid body
type BodyType int

const (
	// BodyTypeDynamic bodies are affected by forces, gravity, and collisions
	// They have finite mass and can move freely
	BodyTypeDynamic BodyType = iota

	// BodyTypeStatic bodies are immovable and have infinite mass
	// They are not affected by forces or gravity (e.g., ground, walls)
	BodyTypeStatic
)

type Material struct {
	Density     float64
	mass        float64
	Restitution float64 // 0= no rebound, 1= perfect restitution

	StaticFriction  float64
	DynamicFriction float64
	LinearDamping   float64 // 0.0 - 1.0, typically 0.01
	AngularDamping  float64 // 0.0 - 1.0, typically 0.05
}

func (material Material) GetMass() float64 {
	return material.mass
}

// RigidBody represents a rigid body in the physics simulation
type RigidBody struct {
	// Spatial properties
	PreviousTransform Transform
	Transform         Transform

	// Linear motion
	PresolveVelocity mgl64.Vec3
	Velocity         mgl64.Vec3 // m/s

	// Angular motion
	PresolveAngularVelocity mgl64.Vec3
	AngularVelocity         mgl64.Vec3 // rad/s
	InertiaLocal            mgl64.Mat3
	InverseInertiaLocal     mgl64.Mat3

	accumulatedForce  mgl64.Vec3
	accumulatedTorque mgl64.Vec3

	IsSleeping bool
	SleepTimer float64

	// Physical properties
	Material Material
	BodyType BodyType

	// Shape is nil for anchor bodies, which take part in joints only
	Shape ShapeInterface
}

// NewRigidBody creates a new rigid body with the given properties.
// density is used to calculate mass for dynamic bodies (ignored for static).
// A nil shape is allowed: the body has no geometry and a unit mass when dynamic.
func NewRigidBody(transform Transform, shape ShapeInterface, bodyType BodyType, density float64) *RigidBody {
	transform.SetRotation(transform.Rotation)
	rb := &RigidBody{
		PreviousTransform: transform,
		Transform:         transform,
		BodyType:          bodyType,
	}
	rb.SetShape(shape, density)

	return rb
}

// SetShape replaces the collision shape and recomputes the mass properties.
func (rb *RigidBody) SetShape(shape ShapeInterface, density float64) {
	rb.Shape = shape
	rb.Material.Density = density

	switch {
	case rb.BodyType == BodyTypeStatic:
		rb.Material.Density = 0
		rb.Material.mass = math.Inf(1)
		rb.InertiaLocal = mgl64.Mat3{}
		rb.InverseInertiaLocal = mgl64.Mat3{}
	case shape == nil:
		rb.Material.mass = 1
		rb.InertiaLocal = mgl64.Ident3()
		rb.InverseInertiaLocal = mgl64.Ident3()
	default:
		rb.Material.mass = shape.ComputeMass(density)
		rb.InertiaLocal = shape.ComputeInertia(rb.Material.mass)
		rb.InverseInertiaLocal = rb.InertiaLocal.Inv()
	}

	if rb.Shape != nil {
		rb.Shape.ComputeAABB(rb.Transform)
	}
}

// Mass returns the body mass, +Inf for static bodies.
func (rb *RigidBody) Mass() float64 {
	return rb.Material.mass
}

// InverseMass returns 0 for static bodies.
func (rb *RigidBody) InverseMass() float64 {
	if rb.BodyType == BodyTypeStatic || rb.Material.mass <= 0 {
		return 0
	}
	return 1.0 / rb.Material.mass
}

func (rb *RigidBody) TrySleep(dt float64, timethreshold float64, velocityThreshold float64) {
	if rb.BodyType == BodyTypeStatic {
		return
	}
	if rb.Velocity.Len() < velocityThreshold && rb.AngularVelocity.Len() < velocityThreshold {
		rb.SleepTimer += dt
		if rb.SleepTimer >= timethreshold {
			rb.Sleep()
		}
	} else {
		rb.Awake()
	}
}

func (rb *RigidBody) Sleep() {
	rb.IsSleeping = true
	rb.SleepTimer = 0.0

	if rb.Shape != nil {
		rb.Shape.ComputeAABB(rb.Transform)
	}
	rb.ClearForces()
	rb.Velocity = mgl64.Vec3{}
	rb.AngularVelocity = mgl64.Vec3{}
}

func (rb *RigidBody) Awake() {
	rb.IsSleeping = false
	rb.SleepTimer = 0.0
}

// Integrate predicts the next pose from velocities, gravity and accumulated forces.
func (rb *RigidBody) Integrate(dt float64, gravity mgl64.Vec3) {
	if rb.BodyType == BodyTypeStatic || rb.IsSleeping {
		return
	}

	rb.PreviousTransform = rb.Transform

	// Linear
	acceleration := gravity.Add(rb.accumulatedForce.Mul(rb.InverseMass()))
	rb.Velocity = rb.Velocity.Add(acceleration.Mul(dt))
	rb.Velocity = rb.Velocity.Mul(math.Exp(-rb.Material.LinearDamping * dt))
	rb.Transform.Position = rb.Transform.Position.Add(rb.Velocity.Mul(dt))

	// Angular, with the gyroscopic term ω × Iω
	inertia := rb.GetInertiaWorld()
	inverseInertia := rb.GetInverseInertiaWorld()
	gyroscopic := rb.AngularVelocity.Cross(inertia.Mul3x1(rb.AngularVelocity))
	torque := rb.accumulatedTorque.Sub(gyroscopic)
	rb.AngularVelocity = rb.AngularVelocity.Add(inverseInertia.Mul3x1(torque).Mul(dt))
	rb.AngularVelocity = rb.AngularVelocity.Mul(math.Exp(-rb.Material.AngularDamping * dt))

	omegaQuat := mgl64.Quat{V: rb.AngularVelocity, W: 0}
	qDot := omegaQuat.Mul(rb.Transform.Rotation).Scale(0.5)
	rb.Transform.SetRotation(rb.Transform.Rotation.Add(qDot.Scale(dt)))

	rb.PresolveVelocity = rb.Velocity
	rb.PresolveAngularVelocity = rb.AngularVelocity

	if rb.Shape != nil {
		rb.Shape.ComputeAABB(rb.Transform)
	}
	rb.ClearForces()
}

// Update derives the velocities from the solved positions.
func (rb *RigidBody) Update(dt float64) {
	if rb.BodyType == BodyTypeStatic || rb.IsSleeping || dt <= 0 {
		return
	}

	rb.Velocity = rb.Transform.Position.Sub(rb.PreviousTransform.Position).Mul(1.0 / dt)
	qDelta := rb.Transform.Rotation.Mul(rb.PreviousTransform.Rotation.Conjugate())
	qDelta = qDelta.Normalize()
	if qDelta.W >= 0.0 {
		rb.AngularVelocity = qDelta.V.Mul(2.0 / dt)
	} else {
		rb.AngularVelocity = qDelta.V.Mul(-2.0 / dt)
	}

	if rb.Shape != nil {
		rb.Shape.ComputeAABB(rb.Transform)
	}
}

// AddForce accumulates a force in newtons until the next Integrate
func (rb *RigidBody) AddForce(force mgl64.Vec3) {
	if rb.BodyType != BodyTypeStatic {
		rb.Awake()
		rb.accumulatedForce = rb.accumulatedForce.Add(force)
	}
}

// AddTorque accumulates a torque in N⋅m until the next Integrate
func (rb *RigidBody) AddTorque(torque mgl64.Vec3) {
	if rb.BodyType != BodyTypeStatic {
		rb.Awake()
		rb.accumulatedTorque = rb.accumulatedTorque.Add(torque)
	}
}

func (rb *RigidBody) ClearForces() {
	rb.accumulatedForce = mgl64.Vec3{0, 0, 0}
	rb.accumulatedTorque = mgl64.Vec3{0, 0, 0}
}

// ApplyPositionCorrection moves the body by a positional impulse p applied at a world point.
func (rb *RigidBody) ApplyPositionCorrection(p, point mgl64.Vec3) {
	if rb.BodyType == BodyTypeStatic {
		return
	}
	r := point.Sub(rb.Transform.Position)
	rb.Transform.Position = rb.Transform.Position.Add(p.Mul(rb.InverseMass()))

	deltaRot := rb.GetInverseInertiaWorld().Mul3x1(r.Cross(p))
	if deltaRot.Len() > 1e-12 {
		qDelta := mgl64.Quat{W: 0, V: deltaRot}.Mul(rb.Transform.Rotation).Scale(0.5)
		rb.Transform.SetRotation(rb.Transform.Rotation.Add(qDelta))
	}
}

// ApplyImpulse changes the velocities by an impulse applied at a world point.
func (rb *RigidBody) ApplyImpulse(impulse, point mgl64.Vec3) {
	if rb.BodyType == BodyTypeStatic {
		return
	}
	r := point.Sub(rb.Transform.Position)
	rb.Velocity = rb.Velocity.Add(impulse.Mul(rb.InverseMass()))
	rb.AngularVelocity = rb.AngularVelocity.Add(rb.GetInverseInertiaWorld().Mul3x1(r.Cross(impulse)))
}

// GeneralizedInverseMass is w = 1/m + (r × n)ᵀ I⁻¹ (r × n) at world point for direction n.
func (rb *RigidBody) GeneralizedInverseMass(point, n mgl64.Vec3) float64 {
	if rb.BodyType == BodyTypeStatic {
		return 0
	}
	rn := point.Sub(rb.Transform.Position).Cross(n)
	return rb.InverseMass() + rb.GetInverseInertiaWorld().Mul3x1(rn).Dot(rn)
}

func (rb *RigidBody) SupportWorld(direction mgl64.Vec3) mgl64.Vec3 {
	localSupport := rb.Shape.Support(rb.Transform.InverseVector(direction))
	return rb.Transform.Point(localSupport)
}

// WorldPoint maps a body-local point to world space
func (rb *RigidBody) WorldPoint(local mgl64.Vec3) mgl64.Vec3 {
	return rb.Transform.Point(local)
}

// LocalPoint maps a world point to body-local space
func (rb *RigidBody) LocalPoint(world mgl64.Vec3) mgl64.Vec3 {
	return rb.Transform.InversePoint(world)
}

func (rb *RigidBody) WorldVector(local mgl64.Vec3) mgl64.Vec3 {
	return rb.Transform.Vector(local)
}

func (rb *RigidBody) LocalVector(world mgl64.Vec3) mgl64.Vec3 {
	return rb.Transform.InverseVector(world)
}

// VelocityAt returns the velocity of the body material at a world point
func (rb *RigidBody) VelocityAt(point mgl64.Vec3) mgl64.Vec3 {
	return rb.Velocity.Add(rb.AngularVelocity.Cross(point.Sub(rb.Transform.Position)))
}

// GetInertiaWorld returns I_world = R * I_local * R^T
func (rb *RigidBody) GetInertiaWorld() mgl64.Mat3 {
	R := rb.Transform.Rotation.Mat4().Mat3()
	return R.Mul3(rb.InertiaLocal).Mul3(R.Transpose())
}

// GetInverseInertiaWorld returns I_world^(-1) = R * I_local^(-1) * R^T
func (rb *RigidBody) GetInverseInertiaWorld() mgl64.Mat3 {
	if rb.BodyType == BodyTypeStatic {
		return mgl64.Mat3{}
	}

	R := rb.Transform.Rotation.Mat4().Mat3()
	return R.Mul3(rb.InverseInertiaLocal).Mul3(R.Transpose())
}
