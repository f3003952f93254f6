package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// CompoundChild is one part of a Compound with its own density.
type CompoundChild struct {
	Shape   ShapeInterface
	Density float64
}

// Compound groups convex shapes sharing the body origin. Collision queries see
// the convex hull of the union, which is exact when the children nest.
type Compound struct {
	Children []CompoundChild
	aabb     AABB
}

func (c *Compound) Type() ShapeType { return ShapeTypeCompound }

func (c *Compound) ComputeAABB(transform Transform) {
	for i, child := range c.Children {
		child.Shape.ComputeAABB(transform)
		if i == 0 {
			c.aabb = child.Shape.GetAABB()
			continue
		}
		c.aabb = c.aabb.Union(child.Shape.GetAABB())
	}
}

func (c *Compound) GetAABB() AABB {
	return c.aabb
}

// ComputeMass sums the children masses. A child without density uses density.
func (c *Compound) ComputeMass(density float64) float64 {
	var mass float64
	for _, child := range c.Children {
		mass += child.Shape.ComputeMass(c.childDensity(child, density))
	}
	return mass
}

// ComputeInertia sums the children tensors, scaled so the parts add up to mass.
func (c *Compound) ComputeInertia(mass float64) mgl64.Mat3 {
	total := c.ComputeMass(1)
	var inertia mgl64.Mat3
	if total <= 0 || math.IsInf(total, 0) {
		return inertia
	}
	for _, child := range c.Children {
		childMass := child.Shape.ComputeMass(c.childDensity(child, 1)) / total * mass
		inertia = inertia.Add(child.Shape.ComputeInertia(childMass))
	}
	return inertia
}

func (c *Compound) childDensity(child CompoundChild, fallback float64) float64 {
	if child.Density > 0 {
		return child.Density
	}
	return fallback
}

func (c *Compound) Support(direction mgl64.Vec3) mgl64.Vec3 {
	var best mgl64.Vec3
	bestDot := -math.MaxFloat64
	for _, child := range c.Children {
		s := child.Shape.Support(direction)
		if d := s.Dot(direction); d > bestDot {
			bestDot = d
			best = s
		}
	}
	return best
}

func (c *Compound) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	var best ShapeInterface
	bestDot := -math.MaxFloat64
	for _, child := range c.Children {
		if d := child.Shape.Support(direction).Dot(direction); d > bestDot {
			bestDot = d
			best = child.Shape
		}
	}
	if best == nil {
		return nil
	}
	return best.GetContactFeature(direction)
}

func (c *Compound) RayCast(p1, p2 mgl64.Vec3, transform Transform) (RayCastResult, bool) {
	var best RayCastResult
	found := false
	for _, child := range c.Children {
		if r, ok := child.Shape.RayCast(p1, p2, transform); ok && (!found || r.Fraction < best.Fraction) {
			best, found = r, true
		}
	}
	return best, found
}

func (c *Compound) CollideWithPlane(normal mgl64.Vec3, distance float64, transform Transform) (bool, []PlaneContact) {
	var contacts []PlaneContact
	for _, child := range c.Children {
		if ok, points := child.Shape.CollideWithPlane(normal, distance, transform); ok {
			contacts = append(contacts, points...)
		}
	}
	return len(contacts) > 0, contacts
}
