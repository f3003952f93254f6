// Package epa implements the Expanding Polytope Algorithm for computing penetration depth.
//
// EPA runs after GJK reported an overlap. Starting from the final GJK simplex,
// it grows a polytope inside the Minkowski difference A - B until the face
// closest to the origin lies on its boundary. That face gives the contact
// normal (from A toward B) and the penetration depth; GenerateManifold then
// turns them into contact points.
//
// References:
//   - Van den Bergen: "Proximity Queries and Penetration Depth Computation on 3D Game Objects" (2001)
package epa

import (
	"errors"
	"math"

	"github.com/akmonengine/testbed/actor"
	"github.com/akmonengine/testbed/constraint"
	"github.com/akmonengine/testbed/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// MaxIterations bounds the polytope expansion.
	MaxIterations = 32

	// ConvergenceTolerance stops the expansion once a new support point
	// improves the closest face distance by less than this.
	ConvergenceTolerance = 0.001

	// DegeneratePenetration is used when the simplex and the centers give no depth.
	DegeneratePenetration = 0.01
)

// ErrNoConvergence is returned when the polytope did not converge within MaxIterations.
var ErrNoConvergence = errors.New("epa: no convergence")

type face struct {
	a, b, c  mgl64.Vec3
	normal   mgl64.Vec3
	distance float64
}

type edge struct {
	a, b mgl64.Vec3
}

// EPA computes the contact constraint of two overlapping bodies from the
// simplex left by a successful GJK query.
func EPA(a, b *actor.RigidBody, simplex *gjk.Simplex) (constraint.ContactConstraint, error) {
	normal, depth, err := Penetration(a, b, simplex)
	if err != nil {
		return constraint.ContactConstraint{}, err
	}
	return constraint.ContactConstraint{
		BodyA:  a,
		BodyB:  b,
		Normal: normal,
		Points: GenerateManifold(a, b, normal, depth),
	}, nil
}

// Penetration returns the unit contact normal, from a toward b, and the depth.
// The simplex is modified.
func Penetration(a, b *actor.RigidBody, simplex *gjk.Simplex) (mgl64.Vec3, float64, error) {
	// Fewer than four points: the shapes only touch
	if simplex.Count < 4 {
		normal, depth := degenerate(a, b, simplex)
		return normal, depth, nil
	}

	p := simplex.Points
	interior := p[0].Add(p[1]).Add(p[2]).Add(p[3]).Mul(0.25)
	faces := []face{
		newFace(p[0], p[1], p[2], interior),
		newFace(p[0], p[3], p[1], interior),
		newFace(p[0], p[2], p[3], interior),
		newFace(p[1], p[3], p[2], interior),
	}

	for range MaxIterations {
		closest := closestFace(faces)
		f := faces[closest]

		support := gjk.MinkowskiSupport(a, b, f.normal)
		if support.Dot(f.normal)-f.distance < ConvergenceTolerance {
			return f.normal, f.distance, nil
		}

		faces = expand(faces, support, interior)
		if len(faces) == 0 {
			return f.normal, f.distance, nil
		}
	}

	return mgl64.Vec3{}, 0, ErrNoConvergence
}

// newFace orients the triangle so its normal points away from interior.
func newFace(a, b, c, interior mgl64.Vec3) face {
	n := b.Sub(a).Cross(c.Sub(a))
	if n.Dot(a.Sub(interior)) < 0 {
		b, c = c, b
		n = n.Mul(-1)
	}
	if l := n.Len(); l > 1e-12 {
		n = n.Mul(1.0 / l)
	}
	return face{a: a, b: b, c: c, normal: n, distance: math.Abs(n.Dot(a))}
}

func closestFace(faces []face) int {
	best := 0
	for i := 1; i < len(faces); i++ {
		if faces[i].distance < faces[best].distance {
			best = i
		}
	}
	return best
}

// expand removes the faces seen from support and closes the hole with faces
// fanning from support to the horizon.
func expand(faces []face, support, interior mgl64.Vec3) []face {
	var horizon []edge
	kept := faces[:0]
	for _, f := range faces {
		if f.normal.Dot(support.Sub(f.a)) <= 0 {
			kept = append(kept, f)
			continue
		}
		for _, e := range [3]edge{{f.a, f.b}, {f.b, f.c}, {f.c, f.a}} {
			horizon = addHorizonEdge(horizon, e)
		}
	}
	for _, e := range horizon {
		kept = append(kept, newFace(e.a, e.b, support, interior))
	}
	return kept
}

// addHorizonEdge drops an edge shared by two removed faces, keeps it otherwise.
func addHorizonEdge(edges []edge, e edge) []edge {
	for i, other := range edges {
		if other.a == e.b && other.b == e.a {
			return append(edges[:i], edges[i+1:]...)
		}
	}
	return append(edges, e)
}

// degenerate estimates a contact for a flat Minkowski difference: from the
// simplex point closest to the origin when there is one, from the centers otherwise.
func degenerate(a, b *actor.RigidBody, simplex *gjk.Simplex) (mgl64.Vec3, float64) {
	best := -1
	for i := 0; i < simplex.Count; i++ {
		l := simplex.Points[i].Len()
		if l > 1e-9 && (best < 0 || l < simplex.Points[best].Len()) {
			best = i
		}
	}
	if best >= 0 {
		p := simplex.Points[best]
		return p.Normalize(), p.Len()
	}

	n := b.Transform.Position.Sub(a.Transform.Position)
	if n.Len() < 1e-9 {
		return mgl64.Vec3{0, 1, 0}, DegeneratePenetration
	}
	return n.Normalize(), DegeneratePenetration
}
