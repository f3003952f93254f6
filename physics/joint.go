package physics

import (
	"github.com/akmonengine/testbed"
	"github.com/akmonengine/testbed/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

// Joint implements testbed.TargetJoint with a constraint.TargetConstraint.
// BodyA only terminates the joint, BodyB is pulled.
type Joint struct {
	world      *World
	bodyA      *Body
	bodyB      *Body
	constraint *constraint.TargetConstraint
	destroyed  bool
}

var _ testbed.TargetJoint = (*Joint)(nil)

func (j *Joint) BodyA() testbed.Body { return j.bodyA }
func (j *Joint) BodyB() testbed.Body { return j.bodyB }

// SetTarget moves the target and wakes BodyB.
func (j *Joint) SetTarget(target mgl64.Vec3) {
	j.constraint.Target = target
	j.bodyB.SetAwake(true)
}

func (j *Joint) Target() mgl64.Vec3 { return j.constraint.Target }

// MaxForce is the largest pull in newtons. A joint without force does nothing.
func (j *Joint) MaxForce() float64 { return j.constraint.MaxForce }

// Anchor returns the pulled point of BodyB in world space.
func (j *Joint) Anchor() mgl64.Vec3 { return j.constraint.WorldAnchor() }

func (j *Joint) active() bool {
	return !j.destroyed && j.constraint.MaxForce > 0
}
