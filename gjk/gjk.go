// Package gjk implements the Gilbert-Johnson-Keerthi (GJK) overlap test.
//
// GJK detects whether two convex shapes overlap by testing if their Minkowski
// difference contains the origin. The simplex grows from a point to a
// tetrahedron, keeping only the feature closest to the origin at each step.
//
// The search can be warm started with the direction returned by the previous
// query on the same pair: coherent frames then converge in one or two
// iterations, and a separated pair usually exits on the first support point.
//
// References:
//   - Gilbert, Johnson, Keerthi: "A Fast Procedure for Computing the Distance Between
//     Complex Objects in Three-Dimensional Space" (1988)
//   - Van den Bergen: "Collision Detection in Interactive 3D Environments" (2003)
package gjk

import (
	"sync"

	"github.com/akmonengine/testbed/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// MaxIterations bounds a single query.
const MaxIterations = 32

// Simplex represents a set of 1-4 points in the Minkowski difference space.
// The most recent point is always the last one.
type Simplex struct {
	Points [4]mgl64.Vec3
	Count  int
}

func (s *Simplex) Reset() {
	s.Count = 0
}

func (s *Simplex) set(points ...mgl64.Vec3) {
	s.Count = copy(s.Points[:], points)
}

var SimplexPool = sync.Pool{
	New: func() interface{} {
		return &Simplex{}
	},
}

// Result of a GJK query.
type Result struct {
	Hit        bool
	Iterations uint32
	// Direction is the last search direction. For a separated pair it is a
	// separating axis; in both cases it warm starts the next query.
	Direction mgl64.Vec3
}

// MinkowskiSupport computes furthestPoint(A, direction) - furthestPoint(B, -direction).
func MinkowskiSupport(a, b *actor.RigidBody, direction mgl64.Vec3) mgl64.Vec3 {
	supportA := a.SupportWorld(direction)
	supportB := b.SupportWorld(direction.Mul(-1))
	return supportA.Sub(supportB)
}

// Separated reports whether axis still separates a and b.
func Separated(a, b *actor.RigidBody, axis mgl64.Vec3) bool {
	if axis.LenSqr() < 1e-16 {
		return false
	}
	return MinkowskiSupport(a, b, axis).Dot(axis) < 0
}

// GJK tests a and b for overlap. A zero warm direction starts from the
// center-to-center axis. Iterations counts the support queries after the first.
func GJK(a, b *actor.RigidBody, simplex *Simplex, warm mgl64.Vec3) Result {
	direction := warm
	if direction.LenSqr() < 1e-16 {
		direction = b.Transform.Position.Sub(a.Transform.Position)
	}
	if direction.LenSqr() < 1e-8 {
		direction = mgl64.Vec3{1, 0, 0}
	}
	first := direction

	simplex.Points[0] = MinkowskiSupport(a, b, direction)
	simplex.Count = 1
	if simplex.Points[0].Dot(direction) < 0 {
		return Result{Direction: first}
	}

	direction = simplex.Points[0].Mul(-1)
	if direction.LenSqr() < 1e-16 {
		return Result{Hit: true, Direction: first}
	}

	var result Result
	for result.Iterations < MaxIterations {
		result.Iterations++

		newPoint := MinkowskiSupport(a, b, direction)
		// The new point does not pass the origin: direction separates the shapes
		if newPoint.Dot(direction) <= 0 {
			result.Direction = direction
			return result
		}

		simplex.Points[simplex.Count] = newPoint
		simplex.Count++

		if simplex.containsOrigin(&direction) {
			result.Hit = true
			result.Direction = direction
			return result
		}
	}

	// No convergence, reported as separated
	result.Direction = direction
	return result
}

// containsOrigin reduces the simplex to its feature closest to the origin and
// updates the search direction. Only a tetrahedron can contain the origin.
func (s *Simplex) containsOrigin(direction *mgl64.Vec3) bool {
	switch s.Count {
	case 2:
		return s.line(direction)
	case 3:
		return s.triangle(direction)
	case 4:
		return s.tetrahedron(direction)
	}
	return false
}

func (s *Simplex) line(direction *mgl64.Vec3) bool {
	a := s.Points[1]
	b := s.Points[0]
	ab := b.Sub(a)
	ao := a.Mul(-1)

	if ab.LenSqr() < 1e-8 {
		if ao.LenSqr() < 1e-8 {
			return true
		}
		s.set(a)
		*direction = ao
		return false
	}

	// Voronoi region of A
	if ab.Dot(ao) <= 0 {
		s.set(a)
		*direction = ao
		return false
	}

	perp := ab.Cross(ao).Cross(ab)
	if perp.LenSqr() < 1e-8 {
		// Origin on the segment: touching
		return true
	}
	*direction = perp
	return false
}

func (s *Simplex) triangle(direction *mgl64.Vec3) bool {
	a := s.Points[2]
	b := s.Points[1]
	c := s.Points[0]

	ab := b.Sub(a)
	ac := c.Sub(a)
	ao := a.Mul(-1)
	abc := ab.Cross(ac)

	// Colinear points, fall back to the newest edge
	if abc.LenSqr() < 1e-10 {
		s.set(b, a)
		return s.line(direction)
	}

	if ab.Cross(abc).Dot(ao) > 0 {
		s.set(b, a)
		*direction = ab.Cross(ao).Cross(ab)
		return false
	}
	if abc.Cross(ac).Dot(ao) > 0 {
		s.set(c, a)
		*direction = ac.Cross(ao).Cross(ac)
		return false
	}

	if abc.Dot(ao) > 0 {
		*direction = abc
	} else {
		// Below the face, flip the winding so the normal faces the origin
		s.set(a, c, b)
		*direction = abc.Mul(-1)
	}
	return false
}

func (s *Simplex) tetrahedron(direction *mgl64.Vec3) bool {
	a := s.Points[3]
	b := s.Points[2]
	c := s.Points[1]
	d := s.Points[0]

	ab := b.Sub(a)
	ac := c.Sub(a)
	ad := d.Sub(a)
	ao := a.Mul(-1)

	// Face normals oriented away from the opposite vertex
	abc := outward(ab.Cross(ac), ad)
	acd := outward(ac.Cross(ad), ab)
	adb := outward(ad.Cross(ab), ac)

	if abc.LenSqr() < 1e-10 || acd.LenSqr() < 1e-10 || adb.LenSqr() < 1e-10 {
		s.set(c, b, a)
		return s.triangle(direction)
	}

	switch {
	case abc.Dot(ao) > 0:
		s.set(c, b, a)
		return s.triangle(direction)
	case acd.Dot(ao) > 0:
		s.set(d, c, a)
		return s.triangle(direction)
	case adb.Dot(ao) > 0:
		s.set(b, d, a)
		return s.triangle(direction)
	}
	return true
}

func outward(normal, towardOpposite mgl64.Vec3) mgl64.Vec3 {
	if normal.Dot(towardOpposite) > 0 {
		return normal.Mul(-1)
	}
	return normal
}
