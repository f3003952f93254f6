package physics

import (
	"math"

	"github.com/akmonengine/testbed/actor"
	"github.com/akmonengine/testbed/constraint"
	"github.com/akmonengine/testbed/draw"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	planeDrawSize = 50.0
	axisDrawScale = 0.5
	normalScale   = 0.5
)

func drawShape(d draw.Drawer, shape actor.ShapeInterface, t actor.Transform, color draw.Color) {
	switch s := shape.(type) {
	case *actor.Box:
		for _, f := range s.Faces() {
			for i := range f.Vertices {
				d.DrawSegment(t.Point(f.Vertices[i]), t.Point(f.Vertices[(i+1)%4]), color)
			}
		}
	case *actor.Sphere:
		for k := 0; k < 3; k++ {
			var axis mgl64.Vec3
			axis[k] = 1
			d.DrawCircle(t.Vector(axis), t.Position, s.Radius, color)
		}
	case *actor.Cylinder:
		axis := t.Vector(mgl64.Vec3{0, 1, 0})
		top := t.Point(mgl64.Vec3{0, s.Height / 2, 0})
		bottom := t.Point(mgl64.Vec3{0, -s.Height / 2, 0})
		d.DrawCircle(axis, top, s.Radius, color)
		d.DrawCircle(axis, bottom, s.Radius, color)
		for _, side := range [4]mgl64.Vec3{{1, 0, 0}, {-1, 0, 0}, {0, 0, 1}, {0, 0, -1}} {
			offset := t.Vector(side.Mul(s.Radius))
			d.DrawSegment(top.Add(offset), bottom.Add(offset), color)
		}
	case *actor.Plane:
		corners := planeCorners(s, t)
		for i := range corners {
			d.DrawSegment(corners[i], corners[(i+1)%4], color)
		}
	case *actor.MeshShape:
		for i := range s.Mesh.Triangles {
			a, b, c, _ := s.Triangle(i, t)
			d.DrawTriangle(a, b, c, color)
		}
	case *actor.Compound:
		for _, child := range s.Children {
			drawShape(d, child.Shape, t, color)
		}
	}
}

func drawFaces(d draw.Drawer, shape actor.ShapeInterface, t actor.Transform, color draw.Color) {
	switch s := shape.(type) {
	case *actor.Box:
		for _, f := range s.Faces() {
			n := t.Vector(f.Normal)
			v := [4]mgl64.Vec3{}
			for i := range f.Vertices {
				v[i] = t.Point(f.Vertices[i])
			}
			d.DrawSolidTriangle(n, v[0], v[1], v[2], color)
			d.DrawSolidTriangle(n, v[0], v[2], v[3], color)
		}
	case *actor.Sphere:
		d.DrawSolidCircle(t.Vector(mgl64.Vec3{0, 1, 0}), t.Position, s.Radius, color)
	case *actor.Cylinder:
		axis := t.Vector(mgl64.Vec3{0, 1, 0})
		d.DrawSolidCircle(axis, t.Point(mgl64.Vec3{0, s.Height / 2, 0}), s.Radius, color)
		d.DrawSolidCircle(axis.Mul(-1), t.Point(mgl64.Vec3{0, -s.Height / 2, 0}), s.Radius, color)
	case *actor.Plane:
		n, _ := s.World(t)
		c := planeCorners(s, t)
		d.DrawSolidTriangle(n, c[0], c[1], c[2], color)
		d.DrawSolidTriangle(n, c[0], c[2], c[3], color)
	case *actor.MeshShape:
		for i := range s.Mesh.Triangles {
			a, b, c, n := s.Triangle(i, t)
			d.DrawSolidTriangle(n, a, b, c, color)
		}
	case *actor.Compound:
		for _, child := range s.Children {
			drawFaces(d, child.Shape, t, color)
		}
	}
}

// planeCorners returns a finite square of the plane, counter-clockwise seen
// from the side the normal points to.
func planeCorners(p *actor.Plane, t actor.Transform) [4]mgl64.Vec3 {
	n, distance := p.World(t)
	t1, t2 := actor.TangentBasis(n)
	center := n.Mul(-distance)
	t1, t2 = t1.Mul(planeDrawSize), t2.Mul(planeDrawSize)
	return [4]mgl64.Vec3{
		center.Sub(t1).Sub(t2),
		center.Add(t1).Sub(t2),
		center.Add(t1).Add(t2),
		center.Sub(t1).Add(t2),
	}
}

// drawFrame draws the body origin and its axes.
func drawFrame(d draw.Drawer, t actor.Transform) {
	d.DrawPoint(t.Position, 4, draw.Yellow)
	d.DrawSegment(t.Position, t.Point(mgl64.Vec3{axisDrawScale, 0, 0}), draw.Red)
	d.DrawSegment(t.Position, t.Point(mgl64.Vec3{0, axisDrawScale, 0}), draw.Green)
	d.DrawSegment(t.Position, t.Point(mgl64.Vec3{0, 0, axisDrawScale}), draw.Blue)
}

func drawJoint(d draw.Drawer, j *Joint) {
	anchor := j.Anchor()
	d.DrawPoint(j.Target(), 4, draw.Green)
	d.DrawPoint(anchor, 4, draw.Green)
	d.DrawSegment(anchor, j.Target(), draw.Cyan)
}

func drawManifold(d draw.Drawer, flags draw.Flags, m *constraint.ContactConstraint) {
	color := draw.Orange
	if m.Disabled {
		color = draw.Gray
	}

	for _, p := range m.Points {
		if flags.Has(draw.ContactPointsFlag) {
			d.DrawPoint(p.Position, 5, color)
		}
		if flags.Has(draw.ContactNormalsFlag) {
			d.DrawSegment(p.Position, p.Position.Add(m.Normal.Mul(normalScale)), draw.White)
		}
		if flags.Has(draw.ContactTangentsFlag) {
			t1, t2 := m.Tangents()
			d.DrawSegment(p.Position, p.Position.Add(t1.Mul(normalScale)), draw.Pink)
			d.DrawSegment(p.Position, p.Position.Add(t2.Mul(normalScale)), draw.Pink)
		}
	}

	if flags.Has(draw.ContactAreasFlag) {
		drawContactArea(d, m, color)
	}
}

// drawContactArea fans the manifold points around their centroid. A single
// point is shown as a disc sized by its penetration.
func drawContactArea(d draw.Drawer, m *constraint.ContactConstraint, color draw.Color) {
	switch len(m.Points) {
	case 0:
		return
	case 1, 2:
		for _, p := range m.Points {
			d.DrawSolidCircle(m.Normal, p.Position, math.Max(0.05, math.Sqrt(p.Penetration)), color)
		}
		return
	}

	var center mgl64.Vec3
	for _, p := range m.Points {
		center = center.Add(p.Position)
	}
	center = center.Mul(1 / float64(len(m.Points)))

	t1, t2 := m.Tangents()
	ordered := make([]mgl64.Vec3, len(m.Points))
	angles := make([]float64, len(m.Points))
	for i, p := range m.Points {
		ordered[i] = p.Position
		r := p.Position.Sub(center)
		angles[i] = math.Atan2(r.Dot(t2), r.Dot(t1))
	}
	// insertion sort, manifolds hold at most a few points
	for i := 1; i < len(ordered); i++ {
		for k := i; k > 0 && angles[k] < angles[k-1]; k-- {
			angles[k], angles[k-1] = angles[k-1], angles[k]
			ordered[k], ordered[k-1] = ordered[k-1], ordered[k]
		}
	}

	for i := range ordered {
		d.DrawSolidTriangle(m.Normal, center, ordered[i], ordered[(i+1)%len(ordered)], color)
	}
}
