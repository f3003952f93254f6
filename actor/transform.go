package actor

import "github.com/go-gl/mathgl/mgl64"

// Transform represents a position and an orientation in 3D space
type Transform struct {
	Position        mgl64.Vec3
	Rotation        mgl64.Quat
	InverseRotation mgl64.Quat
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position:        mgl64.Vec3{0, 0, 0},
		Rotation:        mgl64.QuatIdent(),
		InverseRotation: mgl64.QuatIdent(),
	}
}

// NewTransformAt creates a transform at position with rotation q.
func NewTransformAt(position mgl64.Vec3, q mgl64.Quat) Transform {
	t := Transform{Position: position}
	t.SetRotation(q)
	return t
}

// SetRotation normalizes q and keeps the cached inverse in sync.
// A zero quaternion is read as the identity.
func (t *Transform) SetRotation(q mgl64.Quat) {
	if q.Len() < 1e-12 {
		q = mgl64.QuatIdent()
	}
	t.Rotation = q.Normalize()
	t.InverseRotation = t.Rotation.Inverse()
}

// Point maps a local point to world space.
func (t Transform) Point(local mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(local).Add(t.Position)
}

// InversePoint maps a world point to local space.
func (t Transform) InversePoint(world mgl64.Vec3) mgl64.Vec3 {
	return t.InverseRotation.Rotate(world.Sub(t.Position))
}

// Vector rotates a local direction to world space.
func (t Transform) Vector(local mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(local)
}

// InverseVector rotates a world direction to local space.
func (t Transform) InverseVector(world mgl64.Vec3) mgl64.Vec3 {
	return t.InverseRotation.Rotate(world)
}
