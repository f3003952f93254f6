package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// ContainsPoint checks if a point is inside the AABB
func (a AABB) ContainsPoint(point mgl64.Vec3) bool {
	return point.X() >= a.Min.X() && point.X() <= a.Max.X() &&
		point.Y() >= a.Min.Y() && point.Y() <= a.Max.Y() &&
		point.Z() >= a.Min.Z() && point.Z() <= a.Max.Z()
}

// Overlaps checks if two AABBs overlap
func (a AABB) Overlaps(other AABB) bool {
	return a.Max.X() >= other.Min.X() && a.Min.X() <= other.Max.X() &&
		a.Max.Y() >= other.Min.Y() && a.Min.Y() <= other.Max.Y() &&
		a.Max.Z() >= other.Min.Z() && a.Min.Z() <= other.Max.Z()
}

// Union returns the smallest AABB enclosing both boxes
func (a AABB) Union(other AABB) AABB {
	var out AABB
	for k := 0; k < 3; k++ {
		out.Min[k] = math.Min(a.Min[k], other.Min[k])
		out.Max[k] = math.Max(a.Max[k], other.Max[k])
	}
	return out
}

// Center returns the midpoint of the box
func (a AABB) Center() mgl64.Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

// supportAABB bounds a convex shape by its support points along the world axes.
func supportAABB(shape ShapeInterface, transform Transform) AABB {
	var box AABB
	for k := 0; k < 3; k++ {
		var axis mgl64.Vec3
		axis[k] = 1
		hi := transform.Point(shape.Support(transform.InverseVector(axis)))
		lo := transform.Point(shape.Support(transform.InverseVector(axis.Mul(-1))))
		box.Max[k] = hi[k]
		box.Min[k] = lo[k]
	}
	return box
}
