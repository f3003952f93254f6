package constraint

import (
	"math"

	"github.com/akmonengine/testbed/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// DefaultTargetCompliance keeps a dragged body springy rather than rigidly pinned.
const DefaultTargetCompliance = 1e-4

// TargetConstraint pulls a point of Body toward Target. Anchor is the body
// that terminates the joint; it is never moved.
type TargetConstraint struct {
	Anchor      *actor.RigidBody
	Body        *actor.RigidBody
	LocalAnchor mgl64.Vec3
	Target      mgl64.Vec3
	// MaxForce caps the pull in newtons, 0 means no pull
	MaxForce   float64
	Compliance float64
	// Damping is the fraction of the anchor point velocity removed per second
	Damping float64
}

// NewTargetConstraint attaches body at its current world point worldAnchor.
func NewTargetConstraint(anchor, body *actor.RigidBody, worldAnchor mgl64.Vec3, maxForce float64) *TargetConstraint {
	return &TargetConstraint{
		Anchor:      anchor,
		Body:        body,
		LocalAnchor: body.LocalPoint(worldAnchor),
		Target:      worldAnchor,
		MaxForce:    maxForce,
		Compliance:  DefaultTargetCompliance,
		Damping:     5,
	}
}

// WorldAnchor returns the attachment point in world space.
func (c *TargetConstraint) WorldAnchor() mgl64.Vec3 {
	return c.Body.WorldPoint(c.LocalAnchor)
}

// SolvePosition moves the anchor point toward the target. The XPBD multiplier
// is clamped to MaxForce·h², so the pull never exceeds MaxForce.
func (c *TargetConstraint) SolvePosition(h float64) {
	if c.Body.BodyType == actor.BodyTypeStatic || c.MaxForce <= 0 || h <= 0 {
		return
	}

	p := c.WorldAnchor()
	delta := c.Target.Sub(p)
	distance := delta.Len()
	if distance < 1e-9 {
		return
	}
	n := delta.Mul(1.0 / distance)

	w := c.Body.GeneralizedInverseMass(p, n)
	if w <= 0 {
		return
	}

	lambda := math.Min(distance/(w+c.Compliance/(h*h)), c.MaxForce*h*h)
	c.Body.ApplyPositionCorrection(n.Mul(lambda), p)
}

// SolveVelocity damps the velocity of the anchor point.
func (c *TargetConstraint) SolveVelocity(h float64) {
	if c.Body.BodyType == actor.BodyTypeStatic || c.Damping <= 0 || h <= 0 {
		return
	}

	p := c.WorldAnchor()
	v := c.Body.VelocityAt(p)
	speed := v.Len()
	if speed < 1e-9 {
		return
	}
	n := v.Mul(1.0 / speed)

	w := c.Body.GeneralizedInverseMass(p, n)
	if w <= 0 {
		return
	}
	c.Body.ApplyImpulse(n.Mul(-speed*math.Min(1, c.Damping*h)/w), p)
}
