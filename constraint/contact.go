package constraint

import (
	"math"

	"github.com/akmonengine/testbed/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DefaultCompliance controls soft constraint stiffness for contact resolution.
	// Lower values = stiffer contacts (less penetration, potential jitter)
	// Higher values = softer contacts (more penetration, smoother)
	// Typical range: 1e-10 (very stiff) to 1e-6 (soft)
	DefaultCompliance = 1e-7

	minPenetration = 1e-8
)

type ContactPoint struct {
	Position    mgl64.Vec3
	Penetration float64
}

// ContactConstraint keeps two bodies apart along Normal, which points from A to B.
type ContactConstraint struct {
	BodyA  *actor.RigidBody
	BodyB  *actor.RigidBody
	Points []ContactPoint
	Normal mgl64.Vec3

	// Disabled contacts are skipped by the solver for the current step
	Disabled bool
}

func (c *ContactConstraint) skip() bool {
	return c.Disabled || len(c.Points) == 0 || (c.BodyA.IsSleeping && c.BodyB.IsSleeping)
}

// SolvePosition resolves penetration with one correction for the whole manifold.
func (c *ContactConstraint) SolvePosition(h float64) {
	if c.skip() || h <= 0 {
		return
	}

	var totalWeight, totalPenetration float64
	for _, point := range c.Points {
		if point.Penetration <= minPenetration {
			continue
		}
		totalWeight += c.BodyA.GeneralizedInverseMass(point.Position, c.Normal)
		totalWeight += c.BodyB.GeneralizedInverseMass(point.Position, c.Normal)
		totalPenetration += point.Penetration
	}
	if totalWeight <= 1e-8 {
		return
	}

	alphaTilde := DefaultCompliance / (h * h)
	deltaLambda := -totalPenetration / (totalWeight + alphaTilde)

	// Each point carries its share of the correction, so symmetric manifolds add no torque
	for _, point := range c.Points {
		if point.Penetration <= minPenetration {
			continue
		}
		share := c.Normal.Mul(deltaLambda * point.Penetration / totalPenetration)
		c.BodyA.ApplyPositionCorrection(share, point.Position)
		c.BodyB.ApplyPositionCorrection(share.Mul(-1), point.Position)
	}
}

// SolveVelocity applies restitution and friction
func (c *ContactConstraint) SolveVelocity(h float64) {
	if c.skip() {
		return
	}

	bodyA := c.BodyA
	bodyB := c.BodyB

	restitution := ComputeRestitution(bodyA.Material, bodyB.Material)
	staticFriction := ComputeStaticFriction(bodyA.Material, bodyB.Material)
	dynamicFriction := ComputeDynamicFriction(bodyA.Material, bodyB.Material)

	type impulse struct {
		value, point mgl64.Vec3
	}
	impulses := make([]impulse, 0, 2*len(c.Points))

	for _, point := range c.Points {
		relativeVel := bodyB.VelocityAt(point.Position).Sub(bodyA.VelocityAt(point.Position))
		normalVel := relativeVel.Dot(c.Normal)

		rA := point.Position.Sub(bodyA.Transform.Position)
		rB := point.Position.Sub(bodyB.Transform.Position)
		previousA := bodyA.PresolveVelocity.Add(bodyA.PresolveAngularVelocity.Cross(rA))
		previousB := bodyB.PresolveVelocity.Add(bodyB.PresolveAngularVelocity.Cross(rB))
		normalVelPrev := previousB.Sub(previousA).Dot(c.Normal)

		effectiveMassNormal := bodyA.GeneralizedInverseMass(point.Position, c.Normal) +
			bodyB.GeneralizedInverseMass(point.Position, c.Normal)
		if effectiveMassNormal < 1e-10 {
			continue
		}

		targetVel := -restitution * normalVelPrev
		lambdaNormal := (targetVel - normalVel) / effectiveMassNormal
		// No attractive impulses
		if lambdaNormal < 0 {
			lambdaNormal = 0
		}
		impulses = append(impulses, impulse{c.Normal.Mul(lambdaNormal), point.Position})

		if lambdaNormal == 0 {
			continue
		}

		tangentVel := relativeVel.Sub(c.Normal.Mul(normalVel))
		tangentSpeed := tangentVel.Len()
		if tangentSpeed <= 1e-6 {
			continue
		}
		tangentDir := tangentVel.Mul(1.0 / tangentSpeed)

		effectiveMassTangent := bodyA.GeneralizedInverseMass(point.Position, tangentDir) +
			bodyB.GeneralizedInverseMass(point.Position, tangentDir)
		if effectiveMassTangent < 1e-10 {
			continue
		}

		// Coulomb: |F_friction| <= μ |F_normal|
		lambdaTangent := -tangentSpeed / effectiveMassTangent
		if math.Abs(lambdaTangent) > staticFriction*lambdaNormal {
			lambdaTangent = -dynamicFriction * lambdaNormal
		}
		impulses = append(impulses, impulse{tangentDir.Mul(lambdaTangent), point.Position})
	}

	// All impulses are computed from the same velocities, then applied together
	for _, i := range impulses {
		bodyA.ApplyImpulse(i.value.Mul(-1), i.point)
		bodyB.ApplyImpulse(i.value, i.point)
	}

	clampSmallVelocities(bodyA)
	clampSmallVelocities(bodyB)
}

// Tangents returns the friction basis of the contact plane.
func (c *ContactConstraint) Tangents() (mgl64.Vec3, mgl64.Vec3) {
	return actor.TangentBasis(c.Normal)
}

// MaxPenetration returns the deepest point penetration.
func (c *ContactConstraint) MaxPenetration() float64 {
	var deepest float64
	for _, p := range c.Points {
		deepest = math.Max(deepest, p.Penetration)
	}
	return deepest
}
