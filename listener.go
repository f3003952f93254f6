package testbed

import "github.com/go-gl/mathgl/mgl64"

// Contact is a touching pair of shapes, as seen by a ContactListener.
type Contact interface {
	BodyA() Body
	BodyB() Body
	// Normal points from BodyA toward BodyB.
	Normal() mgl64.Vec3
	PointCount() int
	IsEnabled() bool
	// SetEnabled(false) during PreSolve skips the contact for the current step.
	SetEnabled(enabled bool)
}

// ContactListener is notified by the World on contact lifecycle events.
// Hooks run on the stepping goroutine and must return; the step waits for them.
type ContactListener interface {
	BeginContact(c Contact)
	EndContact(c Contact)
	// PreSolve runs once per contact and step, right before the solver.
	PreSolve(c Contact)
}

// NopContactListener ignores every event. Scenes embed it and override the
// hooks they need.
type NopContactListener struct{}

func (NopContactListener) BeginContact(Contact) {}
func (NopContactListener) EndContact(Contact)   {}
func (NopContactListener) PreSolve(Contact)     {}

var _ ContactListener = NopContactListener{}

// DestructionListener is told about the joints a World destroys along with
// one of their bodies. body is the body being destroyed.
type DestructionListener interface {
	SayGoodbyeToJoint(joint Joint, body Body)
}

// NopDestructionListener ignores implicit joint destructions.
type NopDestructionListener struct{}

func (NopDestructionListener) SayGoodbyeToJoint(Joint, Body) {}

var _ DestructionListener = NopDestructionListener{}
