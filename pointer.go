package testbed

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// Ray3 is a pointer ray in world space, from the near point A to the far point B.
type Ray3 struct {
	A, B mgl64.Vec3
}

// At returns (1-t)A + tB.
func (r Ray3) At(t float64) mgl64.Vec3 {
	return r.A.Mul(1 - t).Add(r.B.Mul(t))
}

func (r Ray3) mustBeFinite() {
	for k := 0; k < 3; k++ {
		for _, v := range [2]float64{r.A[k], r.B[k]} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				panic(fmt.Sprintf("testbed: ray %v → %v is not finite", r.A, r.B))
			}
		}
	}
}

// RayHit is the shape grabbed by the pointer. Point and Normal are in the
// frame of the shape body; Fraction is where the press ray hit it. A nil
// Shape means no hit.
type RayHit struct {
	Shape    Shape
	Point    mgl64.Vec3
	Normal   mgl64.Vec3
	Fraction float64
}

// drag holds the anchor body and the joint of a gesture. Both exist or neither.
type drag struct {
	anchor Body
	joint  TargetJoint
}

// RayHit returns the current hit.
func (t *Test) RayHit() RayHit { return t.hit }

// Dragging reports whether a drag joint is active.
func (t *Test) Dragging() bool { return t.drag != nil }

// DragJoint returns the active drag joint, nil when idle.
func (t *Test) DragJoint() TargetJoint {
	if t.drag == nil {
		return nil
	}
	return t.drag.joint
}

// MouseDown ends any drag, then grabs the shape nearest along ray.
func (t *Test) MouseDown(ray Ray3) {
	ray.mustBeFinite()

	t.hit = RayHit{}
	t.endDrag()

	out, ok := t.world.RayCastSingle(ray.A, ray.B)
	if !ok {
		return
	}
	if out.Fraction < 0 || out.Fraction > 1 {
		panic(fmt.Sprintf("testbed: ray cast fraction %v outside [0,1]", out.Fraction))
	}

	body := out.Shape.Body()
	t.hit = RayHit{
		Shape:    out.Shape,
		Point:    body.LocalPoint(out.Point),
		Normal:   body.LocalVector(out.Normal),
		Fraction: out.Fraction,
	}
	t.beginDrag(body)
}

// MouseMove moves the drag target to the point of ray at the fraction of the
// press. The world is not queried again, so the grabbed point stays under the pointer.
func (t *Test) MouseMove(ray Ray3) {
	ray.mustBeFinite()
	if t.drag == nil {
		return
	}
	t.drag.joint.SetTarget(ray.At(t.hit.Fraction))
}

// MouseUp releases the drag, if any.
func (t *Test) MouseUp(ray Ray3) {
	ray.mustBeFinite()
	t.hit = RayHit{}
	t.endDrag()
}

func (t *Test) beginDrag(body Body) {
	anchor := t.world.CreateBody(BodyDef{Type: StaticBody})
	joint := t.world.CreateTargetJoint(TargetJointDef{
		BodyA:    anchor,
		BodyB:    body,
		Target:   body.WorldPoint(t.hit.Point),
		MaxForce: t.settings.DragForceScale * body.Mass(),
	})
	t.drag = &drag{anchor: anchor, joint: joint}
	body.SetAwake(true)

	t.logger.Debug("drag started",
		zap.Float64("fraction", t.hit.Fraction),
		zap.Float64("max_force", joint.MaxForce()))
}

// endDrag destroys the joint, then its anchor.
func (t *Test) endDrag() {
	if t.drag == nil {
		return
	}
	d := t.drag
	t.drag = nil
	t.world.DestroyJoint(d.joint)
	t.world.DestroyBody(d.anchor)
	t.logger.Debug("drag ended")
}

// dragGuard forgets the drag when the World destroys its joint along with a
// body, so the next teardown does not destroy it again.
type dragGuard struct{ t *Test }

func (g dragGuard) SayGoodbyeToJoint(joint Joint, body Body) {
	t := g.t
	d := t.drag
	if d == nil || joint != d.joint {
		return
	}
	t.drag = nil
	t.hit = RayHit{}
	if body != d.anchor {
		t.world.DestroyBody(d.anchor)
	}
	t.logger.Debug("drag ended with its body")
}
