package epa

import (
	"math"

	"github.com/akmonengine/testbed/actor"
	"github.com/akmonengine/testbed/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

// maxManifoldPoints is the size of a reduced manifold.
const maxManifoldPoints = 4

// GenerateManifold builds up to four contact points with Sutherland-Hodgman clipping.
//
// The feature of each body facing the other is taken in world space. The one
// with fewer points is the incident feature, clipped against the side planes
// of the reference feature; the points left behind the reference face are
// the contacts. A single point or edge against edge falls back to the deepest
// point of B.
func GenerateManifold(bodyA, bodyB *actor.RigidBody, normal mgl64.Vec3, depth float64) []constraint.ContactPoint {
	featureA := worldFeature(bodyA, normal)
	featureB := worldFeature(bodyB, normal.Mul(-1))

	incident, reference := featureB, featureA
	// Outward normal of the reference face
	refNormal := normal
	if len(featureB) > len(featureA) {
		incident, reference = featureA, featureB
		refNormal = normal.Mul(-1)
	}

	if len(incident) == 1 {
		return []constraint.ContactPoint{{Position: incident[0], Penetration: depth}}
	}
	if len(reference) < 3 {
		return deepestPoint(bodyB, normal, depth)
	}

	clipped := clipIncidentAgainstReference(incident, reference, refNormal)

	faceNormal := reference[1].Sub(reference[0]).Cross(reference[2].Sub(reference[0]))
	if faceNormal.LenSqr() < 1e-16 {
		faceNormal = refNormal
	}
	faceNormal = faceNormal.Normalize()
	if faceNormal.Dot(refNormal) < 0 {
		faceNormal = faceNormal.Mul(-1)
	}

	const slop = 1e-4
	var points []constraint.ContactPoint
	for _, p := range clipped {
		penetration := -p.Sub(reference[0]).Dot(faceNormal)
		if penetration >= -slop {
			points = append(points, constraint.ContactPoint{Position: p, Penetration: math.Max(penetration, 0)})
		}
	}

	if len(points) == 0 {
		return deepestPoint(bodyB, normal, depth)
	}
	if len(points) > maxManifoldPoints {
		points = reduceTo4Points(points, normal)
	}
	return points
}

func worldFeature(body *actor.RigidBody, direction mgl64.Vec3) []mgl64.Vec3 {
	feature := body.Shape.GetContactFeature(body.Transform.InverseVector(direction))
	world := make([]mgl64.Vec3, len(feature))
	for i, p := range feature {
		world[i] = body.Transform.Point(p)
	}
	return world
}

func deepestPoint(bodyB *actor.RigidBody, normal mgl64.Vec3, depth float64) []constraint.ContactPoint {
	return []constraint.ContactPoint{{Position: bodyB.SupportWorld(normal.Mul(-1)), Penetration: depth}}
}

// clipIncidentAgainstReference trims incident to the prism raised on the
// reference polygon along normal.
func clipIncidentAgainstReference(incident, reference []mgl64.Vec3, normal mgl64.Vec3) []mgl64.Vec3 {
	center := computeCenter(reference)
	output := incident
	for i := 0; i < len(reference) && len(output) > 0; i++ {
		v1 := reference[i]
		v2 := reference[(i+1)%len(reference)]

		clipNormal := v2.Sub(v1).Cross(normal)
		if clipNormal.LenSqr() < 1e-16 {
			continue
		}
		clipNormal = clipNormal.Normalize()
		// Inward, toward the center of the reference
		if center.Sub(v1).Dot(clipNormal) < 0 {
			clipNormal = clipNormal.Mul(-1)
		}
		output = clipPolygonAgainstPlane(output, v1, clipNormal)
	}
	return output
}

// clipPolygonAgainstPlane keeps the part of polygon on the side of planeNormal.
func clipPolygonAgainstPlane(polygon []mgl64.Vec3, planePoint, planeNormal mgl64.Vec3) []mgl64.Vec3 {
	const tolerance = 1e-6

	// A segment is not closed back on itself
	n := len(polygon)
	if n == 2 {
		n = 1
	}

	var output []mgl64.Vec3
	for i := 0; i < n; i++ {
		current := polygon[i]
		next := polygon[(i+1)%len(polygon)]
		currentDist := current.Sub(planePoint).Dot(planeNormal)
		nextDist := next.Sub(planePoint).Dot(planeNormal)

		if currentDist >= -tolerance {
			output = append(output, current)
		}
		if (currentDist >= -tolerance) != (nextDist >= -tolerance) {
			output = append(output, lineIntersectPlane(current, next, planePoint, planeNormal))
		}
	}
	if len(polygon) == 2 && polygon[1].Sub(planePoint).Dot(planeNormal) >= -tolerance {
		output = append(output, polygon[1])
	}
	return output
}

func lineIntersectPlane(p1, p2, planePoint, planeNormal mgl64.Vec3) mgl64.Vec3 {
	dir := p2.Sub(p1)
	denom := dir.Dot(planeNormal)
	if math.Abs(denom) < 1e-10 {
		return p1
	}
	t := -p1.Sub(planePoint).Dot(planeNormal) / denom
	t = math.Max(0, math.Min(1, t))
	return p1.Add(dir.Mul(t))
}

func computeCenter(points []mgl64.Vec3) mgl64.Vec3 {
	var sum mgl64.Vec3
	if len(points) == 0 {
		return sum
	}
	for _, p := range points {
		sum = sum.Add(p)
	}
	return sum.Mul(1.0 / float64(len(points)))
}

// reduceTo4Points keeps the extreme points along the two tangents of normal.
func reduceTo4Points(points []constraint.ContactPoint, normal mgl64.Vec3) []constraint.ContactPoint {
	tangent1, tangent2 := actor.TangentBasis(normal)

	var extremes [4]int
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for i, p := range points {
		x := p.Position.Dot(tangent1)
		y := p.Position.Dot(tangent2)
		if x < minX {
			minX, extremes[0] = x, i
		}
		if x > maxX {
			maxX, extremes[1] = x, i
		}
		if y < minY {
			minY, extremes[2] = y, i
		}
		if y > maxY {
			maxY, extremes[3] = y, i
		}
	}

	result := make([]constraint.ContactPoint, 0, maxManifoldPoints)
	seen := make(map[int]bool, maxManifoldPoints)
	for _, i := range extremes {
		if !seen[i] {
			seen[i] = true
			result = append(result, points[i])
		}
	}
	return result
}
