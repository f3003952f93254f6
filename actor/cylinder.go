package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// cylinderRimPoints is the number of points sampling a cap for contact features.
const cylinderRimPoints = 8

// Cylinder is a solid cylinder along the local Y axis, centered on the origin.
type Cylinder struct {
	Radius float64
	Height float64
	aabb   AABB
}

func (c *Cylinder) Type() ShapeType { return ShapeTypeCylinder }

func (c *Cylinder) ComputeAABB(transform Transform) {
	c.aabb = supportAABB(c, transform)
}

func (c *Cylinder) GetAABB() AABB {
	return c.aabb
}

func (c *Cylinder) ComputeMass(density float64) float64 {
	return density * math.Pi * c.Radius * c.Radius * c.Height
}

func (c *Cylinder) ComputeInertia(mass float64) mgl64.Mat3 {
	r2, h2 := c.Radius*c.Radius, c.Height*c.Height
	side := mass * (3*r2 + h2) / 12.0
	axis := 0.5 * mass * r2
	return mgl64.Mat3{
		side, 0, 0,
		0, axis, 0,
		0, 0, side,
	}
}

func (c *Cylinder) Support(direction mgl64.Vec3) mgl64.Vec3 {
	half := 0.5 * c.Height
	y := half
	if direction.Y() < 0 {
		y = -half
	}

	radial := mgl64.Vec3{direction.X(), 0, direction.Z()}
	if l := radial.Len(); l > 1e-12 {
		radial = radial.Mul(c.Radius / l)
	} else {
		radial = mgl64.Vec3{}
	}
	return mgl64.Vec3{radial.X(), y, radial.Z()}
}

// GetContactFeature returns a sampled cap when direction is close to the axis,
// the rim segment facing direction otherwise.
func (c *Cylinder) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	d := direction.Normalize()
	half := 0.5 * c.Height

	if math.Abs(d.Y()) > 0.7 {
		y := math.Copysign(half, d.Y())
		points := make([]mgl64.Vec3, cylinderRimPoints)
		for i := range points {
			a := 2 * math.Pi * float64(i) / cylinderRimPoints
			points[i] = mgl64.Vec3{c.Radius * math.Cos(a), y, c.Radius * math.Sin(a)}
		}
		return points
	}

	s := c.Support(d)
	return []mgl64.Vec3{{s.X(), half, s.Z()}, {s.X(), -half, s.Z()}}
}

func (c *Cylinder) RayCast(p1, p2 mgl64.Vec3, transform Transform) (RayCastResult, bool) {
	lp := transform.InversePoint(p1)
	ld := transform.InverseVector(p2.Sub(p1))
	half := 0.5 * c.Height
	r2 := c.Radius * c.Radius

	// Starting inside is not a hit
	if lp.X()*lp.X()+lp.Z()*lp.Z() <= r2 && math.Abs(lp.Y()) <= half {
		return RayCastResult{}, false
	}

	best := math.Inf(1)
	var normal mgl64.Vec3

	a := ld.X()*ld.X() + ld.Z()*ld.Z()
	if a > 1e-24 {
		b := lp.X()*ld.X() + lp.Z()*ld.Z()
		cc := lp.X()*lp.X() + lp.Z()*lp.Z() - r2
		if disc := b*b - a*cc; disc >= 0 {
			t := (-b - math.Sqrt(disc)) / a
			if t >= 0 && t <= 1 {
				p := lp.Add(ld.Mul(t))
				if math.Abs(p.Y()) <= half {
					best = t
					normal = mgl64.Vec3{p.X(), 0, p.Z()}.Normalize()
				}
			}
		}
	}

	if math.Abs(ld.Y()) > 1e-15 {
		for _, capY := range [2]float64{half, -half} {
			t := (capY - lp.Y()) / ld.Y()
			if t < 0 || t > 1 || t >= best {
				continue
			}
			p := lp.Add(ld.Mul(t))
			if p.X()*p.X()+p.Z()*p.Z() <= r2 {
				best = t
				normal = mgl64.Vec3{0, math.Copysign(1, capY), 0}
			}
		}
	}

	if math.IsInf(best, 1) {
		return RayCastResult{}, false
	}
	return RayCastResult{
		Point:    p1.Add(p2.Sub(p1).Mul(best)),
		Normal:   transform.Vector(normal),
		Fraction: best,
	}, true
}

func (c *Cylinder) CollideWithPlane(normal mgl64.Vec3, distance float64, transform Transform) (bool, []PlaneContact) {
	return collideFeatureWithPlane(c, normal, distance, transform)
}
