package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeType represents the type of collision shape
type ShapeType int

const (
	ShapeTypeSphere ShapeType = iota
	ShapeTypeBox
	ShapeTypePlane
	ShapeTypeCylinder
	ShapeTypeCompound
	ShapeTypeMesh
)

// ShapeInterface is the interface that all collision shapes must implement.
// Every query takes the owner's transform; shapes hold local geometry only,
// plus the cached world AABB of the last ComputeAABB.
type ShapeInterface interface {
	Type() ShapeType
	// ComputeAABB calculates the axis-aligned bounding box for the shape
	// at the given transform
	ComputeAABB(transform Transform)
	GetAABB() AABB
	// ComputeMass calculates the mass of the shape given a density
	ComputeMass(density float64) float64
	ComputeInertia(mass float64) mgl64.Mat3
	// Support returns the farthest local point along a local direction
	Support(direction mgl64.Vec3) mgl64.Vec3
	// GetContactFeature returns the local face, edge or point most aligned with direction
	GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3
	// RayCast intersects the world segment p1→p2 with the shape
	RayCast(p1, p2 mgl64.Vec3, transform Transform) (RayCastResult, bool)
	// CollideWithPlane returns the points of the shape behind the world plane normal·x + distance = 0
	CollideWithPlane(normal mgl64.Vec3, distance float64, transform Transform) (bool, []PlaneContact)
}

// RayCastResult is a ray hit in world space. Fraction is the segment parameter in [0,1].
type RayCastResult struct {
	Point    mgl64.Vec3
	Normal   mgl64.Vec3
	Fraction float64
}

// PlaneContact is one point of a shape found behind a plane
type PlaneContact struct {
	Position    mgl64.Vec3
	Penetration float64
}

// collideFeatureWithPlane keeps the points of the contact feature facing the
// plane that lie behind it.
func collideFeatureWithPlane(shape ShapeInterface, normal mgl64.Vec3, distance float64, transform Transform) (bool, []PlaneContact) {
	feature := shape.GetContactFeature(transform.InverseVector(normal.Mul(-1)))

	var contacts []PlaneContact
	for _, local := range feature {
		p := transform.Point(local)
		d := normal.Dot(p) + distance
		if d < 0 {
			contacts = append(contacts, PlaneContact{Position: p, Penetration: -d})
		}
	}
	return len(contacts) > 0, contacts
}

// Box represents an oriented box collision shape
// The box is defined by its half-extents (half-width, half-height, half-depth)
type Box struct {
	HalfExtents mgl64.Vec3
	aabb        AABB
}

func (b *Box) Type() ShapeType { return ShapeTypeBox }

func (b *Box) ComputeAABB(transform Transform) {
	h := b.HalfExtents
	min := transform.Point(h.Mul(-1))
	max := min
	for i := 0; i < 8; i++ {
		corner := mgl64.Vec3{h.X(), h.Y(), h.Z()}
		if i&1 != 0 {
			corner[0] = -corner[0]
		}
		if i&2 != 0 {
			corner[1] = -corner[1]
		}
		if i&4 != 0 {
			corner[2] = -corner[2]
		}
		world := transform.Point(corner)
		for k := 0; k < 3; k++ {
			min[k] = math.Min(min[k], world[k])
			max[k] = math.Max(max[k], world[k])
		}
	}

	b.aabb = AABB{Min: min, Max: max}
}

func (b *Box) GetAABB() AABB {
	return b.aabb
}

// ComputeMass calculates mass data for the box
func (b *Box) ComputeMass(density float64) float64 {
	// Volume = 8 * hx * hy * hz (full dimensions are 2*halfExtents)
	volume := 8.0 * b.HalfExtents.X() * b.HalfExtents.Y() * b.HalfExtents.Z()

	return density * volume
}

func (b *Box) ComputeInertia(mass float64) mgl64.Mat3 {
	x := b.HalfExtents.X() * 2
	y := b.HalfExtents.Y() * 2
	z := b.HalfExtents.Z() * 2

	// I = (m/12) * (d1² + d2²)
	factor := mass / 12.0
	return mgl64.Mat3{
		factor * (y*y + z*z), 0, 0,
		0, factor * (x*x + z*z), 0,
		0, 0, factor * (x*x + y*y),
	}
}

func (b *Box) Support(direction mgl64.Vec3) mgl64.Vec3 {
	hx, hy, hz := b.HalfExtents.X(), b.HalfExtents.Y(), b.HalfExtents.Z()

	if direction.X() < 0 {
		hx = -hx
	}
	if direction.Y() < 0 {
		hy = -hy
	}
	if direction.Z() < 0 {
		hz = -hz
	}

	return mgl64.Vec3{hx, hy, hz}
}

// Faces returns the six faces of the box, counter-clockwise seen from outside.
func (b *Box) Faces() [6]Face {
	hx, hy, hz := b.HalfExtents.X(), b.HalfExtents.Y(), b.HalfExtents.Z()
	return [6]Face{
		{Normal: mgl64.Vec3{1, 0, 0}, Vertices: [4]mgl64.Vec3{{hx, -hy, -hz}, {hx, hy, -hz}, {hx, hy, hz}, {hx, -hy, hz}}},
		{Normal: mgl64.Vec3{-1, 0, 0}, Vertices: [4]mgl64.Vec3{{-hx, -hy, hz}, {-hx, hy, hz}, {-hx, hy, -hz}, {-hx, -hy, -hz}}},
		{Normal: mgl64.Vec3{0, 1, 0}, Vertices: [4]mgl64.Vec3{{-hx, hy, -hz}, {-hx, hy, hz}, {hx, hy, hz}, {hx, hy, -hz}}},
		{Normal: mgl64.Vec3{0, -1, 0}, Vertices: [4]mgl64.Vec3{{-hx, -hy, hz}, {-hx, -hy, -hz}, {hx, -hy, -hz}, {hx, -hy, hz}}},
		{Normal: mgl64.Vec3{0, 0, 1}, Vertices: [4]mgl64.Vec3{{-hx, -hy, hz}, {hx, -hy, hz}, {hx, hy, hz}, {-hx, hy, hz}}},
		{Normal: mgl64.Vec3{0, 0, -1}, Vertices: [4]mgl64.Vec3{{hx, -hy, -hz}, {-hx, -hy, -hz}, {-hx, hy, -hz}, {hx, hy, -hz}}},
	}
}

// Face is a quad of a polyhedral shape in local space.
type Face struct {
	Normal   mgl64.Vec3
	Vertices [4]mgl64.Vec3
}

func (b *Box) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	// The face whose normal points the most along direction
	bestDot := -math.MaxFloat64
	var best Face
	for _, face := range b.Faces() {
		if dot := direction.Dot(face.Normal); dot > bestDot {
			bestDot = dot
			best = face
		}
	}
	return best.Vertices[:]
}

func (b *Box) RayCast(p1, p2 mgl64.Vec3, transform Transform) (RayCastResult, bool) {
	lp := transform.InversePoint(p1)
	ld := transform.InverseVector(p2.Sub(p1))

	tEnter, tExit := 0.0, 1.0
	enterAxis, enterSign := -1, 0.0
	for k := 0; k < 3; k++ {
		h := b.HalfExtents[k]
		if math.Abs(ld[k]) < 1e-15 {
			if lp[k] < -h || lp[k] > h {
				return RayCastResult{}, false
			}
			continue
		}
		t1 := (-h - lp[k]) / ld[k]
		t2 := (h - lp[k]) / ld[k]
		sign := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			sign = 1.0
		}
		if t1 > tEnter {
			tEnter, enterAxis, enterSign = t1, k, sign
		}
		tExit = math.Min(tExit, t2)
		if tEnter > tExit {
			return RayCastResult{}, false
		}
	}
	// Starting inside the box is not a hit
	if enterAxis < 0 {
		return RayCastResult{}, false
	}

	var n mgl64.Vec3
	n[enterAxis] = enterSign
	return RayCastResult{
		Point:    p1.Add(p2.Sub(p1).Mul(tEnter)),
		Normal:   transform.Vector(n),
		Fraction: tEnter,
	}, true
}

func (b *Box) CollideWithPlane(normal mgl64.Vec3, distance float64, transform Transform) (bool, []PlaneContact) {
	return collideFeatureWithPlane(b, normal, distance, transform)
}

// Sphere represents a spherical collision shape
type Sphere struct {
	Radius float64
	aabb   AABB
}

func (s *Sphere) Type() ShapeType { return ShapeTypeSphere }

// ComputeAABB calculates the axis-aligned bounding box for the sphere
func (s *Sphere) ComputeAABB(transform Transform) {
	// Sphere AABB is not affected by rotation, only by position
	radiusVec := mgl64.Vec3{s.Radius, s.Radius, s.Radius}

	s.aabb = AABB{
		Min: transform.Position.Sub(radiusVec),
		Max: transform.Position.Add(radiusVec),
	}
}

func (s *Sphere) GetAABB() AABB {
	return s.aabb
}

// ComputeMass calculates mass data for the sphere
func (s *Sphere) ComputeMass(density float64) float64 {
	// Volume of sphere = (4/3) * π * r³
	volume := (4.0 / 3.0) * math.Pi * math.Pow(s.Radius, 3)

	return density * volume
}

func (s *Sphere) ComputeInertia(mass float64) mgl64.Mat3 {
	// I = (2/5) * m * r² on every axis
	i := (2.0 / 5.0) * mass * s.Radius * s.Radius

	return mgl64.Mat3{
		i, 0, 0,
		0, i, 0,
		0, 0, i,
	}
}

func (s *Sphere) Support(direction mgl64.Vec3) mgl64.Vec3 {
	if direction.LenSqr() < 1e-24 {
		return mgl64.Vec3{s.Radius, 0, 0}
	}
	return direction.Normalize().Mul(s.Radius)
}

func (s *Sphere) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	return []mgl64.Vec3{s.Support(direction)}
}

func (s *Sphere) RayCast(p1, p2 mgl64.Vec3, transform Transform) (RayCastResult, bool) {
	d := p2.Sub(p1)
	m := p1.Sub(transform.Position)

	a := d.Dot(d)
	if a < 1e-24 {
		return RayCastResult{}, false
	}
	b := m.Dot(d)
	c := m.Dot(m) - s.Radius*s.Radius
	// Starting inside the sphere is not a hit
	if c < 0 {
		return RayCastResult{}, false
	}
	disc := b*b - a*c
	if disc < 0 {
		return RayCastResult{}, false
	}
	t := (-b - math.Sqrt(disc)) / a
	if t < 0 || t > 1 {
		return RayCastResult{}, false
	}

	point := p1.Add(d.Mul(t))
	return RayCastResult{
		Point:    point,
		Normal:   point.Sub(transform.Position).Normalize(),
		Fraction: t,
	}, true
}

func (s *Sphere) CollideWithPlane(normal mgl64.Vec3, distance float64, transform Transform) (bool, []PlaneContact) {
	d := normal.Dot(transform.Position) + distance
	penetration := s.Radius - d
	if penetration <= 0 {
		return false, nil
	}
	return true, []PlaneContact{{
		Position:    transform.Position.Sub(normal.Mul(s.Radius)),
		Penetration: penetration,
	}}
}

// Plane represents an infinite plane collision shape
// The plane is defined by the equation: Normal · p + Distance = 0
// in the local space of its body, Normal being normalized.
type Plane struct {
	Normal   mgl64.Vec3
	Distance float64
	aabb     AABB
}

func (p *Plane) Type() ShapeType { return ShapeTypePlane }

// World returns the plane equation in world space.
func (p *Plane) World(transform Transform) (mgl64.Vec3, float64) {
	n := transform.Vector(p.Normal)
	point := transform.Point(p.Normal.Mul(-p.Distance))
	return n, -n.Dot(point)
}

func (p *Plane) ComputeAABB(transform Transform) {
	const thickness = 1.0
	const infinity = 1e10

	n, d := p.World(transform)
	planePoint := n.Mul(-d)

	min := planePoint.Sub(n.Mul(thickness))
	max := planePoint
	for k := 0; k < 3; k++ {
		if min[k] > max[k] {
			min[k], max[k] = max[k], min[k]
		}
		// Infinite along every axis the normal is not aligned with
		if math.Abs(n[k]) < 1.0 {
			min[k] = -infinity
			max[k] = infinity
		}
	}

	p.aabb = AABB{Min: min, Max: max}
}

func (p *Plane) GetAABB() AABB {
	return p.aabb
}

// ComputeMass returns an infinite mass, planes are always static
func (p *Plane) ComputeMass(density float64) float64 {
	return math.Inf(1)
}

func (p *Plane) ComputeInertia(mass float64) mgl64.Mat3 {
	return mgl64.Mat3{}
}

// Support treats the plane as a 2000-wide slab of half a unit under its surface.
func (p *Plane) Support(direction mgl64.Vec3) mgl64.Vec3 {
	const halfWidth, depth = 1000.0, 0.5
	t1, t2 := TangentBasis(p.Normal)
	base := p.Normal.Mul(-p.Distance)

	s := base.Add(t1.Mul(math.Copysign(halfWidth, direction.Dot(t1))))
	s = s.Add(t2.Mul(math.Copysign(halfWidth, direction.Dot(t2))))
	if direction.Dot(p.Normal) < 0 {
		s = s.Sub(p.Normal.Mul(depth))
	}
	return s
}

func (p *Plane) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	tangent1, tangent2 := TangentBasis(p.Normal)
	base := p.Normal.Mul(-p.Distance)
	size := 1000.0

	return []mgl64.Vec3{
		base.Add(tangent1.Mul(-size)).Add(tangent2.Mul(-size)),
		base.Add(tangent1.Mul(-size)).Add(tangent2.Mul(size)),
		base.Add(tangent1.Mul(size)).Add(tangent2.Mul(size)),
		base.Add(tangent1.Mul(size)).Add(tangent2.Mul(-size)),
	}
}

func (p *Plane) RayCast(p1, p2 mgl64.Vec3, transform Transform) (RayCastResult, bool) {
	n, dist := p.World(transform)
	d := p2.Sub(p1)
	denom := n.Dot(d)
	if math.Abs(denom) < 1e-15 {
		return RayCastResult{}, false
	}
	t := -(n.Dot(p1) + dist) / denom
	if t < 0 || t > 1 {
		return RayCastResult{}, false
	}
	if denom > 0 {
		n = n.Mul(-1)
	}
	return RayCastResult{Point: p1.Add(d.Mul(t)), Normal: n, Fraction: t}, true
}

// CollideWithPlane is never used between two planes
func (p *Plane) CollideWithPlane(normal mgl64.Vec3, distance float64, transform Transform) (bool, []PlaneContact) {
	return false, nil
}

// TangentBasis returns two unit vectors orthogonal to normal and to each other
func TangentBasis(normal mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	var tangent1 mgl64.Vec3
	if math.Abs(normal.X()) > 0.9 {
		tangent1 = mgl64.Vec3{0, 1, 0}
	} else {
		tangent1 = mgl64.Vec3{1, 0, 0}
	}

	tangent1 = tangent1.Sub(normal.Mul(tangent1.Dot(normal))).Normalize()
	tangent2 := normal.Cross(tangent1).Normalize()

	return tangent1, tangent2
}
