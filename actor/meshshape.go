package actor

import (
	"math"

	"github.com/akmonengine/testbed/mesh"
	"github.com/go-gl/mathgl/mgl64"
)

// MeshShape is static triangle geometry. It has infinite mass and is only
// collided triangle by triangle, never through its support mapping.
type MeshShape struct {
	Mesh *mesh.Mesh
	aabb AABB
}

func (m *MeshShape) Type() ShapeType { return ShapeTypeMesh }

func (m *MeshShape) ComputeAABB(transform Transform) {
	if len(m.Mesh.Vertices) == 0 {
		m.aabb = AABB{Min: transform.Position, Max: transform.Position}
		return
	}
	first := transform.Point(m.Mesh.Vertices[0])
	box := AABB{Min: first, Max: first}
	for _, v := range m.Mesh.Vertices[1:] {
		p := transform.Point(v)
		for k := 0; k < 3; k++ {
			box.Min[k] = math.Min(box.Min[k], p[k])
			box.Max[k] = math.Max(box.Max[k], p[k])
		}
	}
	m.aabb = box
}

func (m *MeshShape) GetAABB() AABB {
	return m.aabb
}

func (m *MeshShape) ComputeMass(density float64) float64 {
	return math.Inf(1)
}

func (m *MeshShape) ComputeInertia(mass float64) mgl64.Mat3 {
	return mgl64.Mat3{}
}

// Support returns the farthest vertex, which bounds the mesh but is not used for contacts.
func (m *MeshShape) Support(direction mgl64.Vec3) mgl64.Vec3 {
	var best mgl64.Vec3
	bestDot := -math.MaxFloat64
	for _, v := range m.Mesh.Vertices {
		if d := v.Dot(direction); d > bestDot {
			bestDot = d
			best = v
		}
	}
	return best
}

func (m *MeshShape) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	return []mgl64.Vec3{m.Support(direction)}
}

func (m *MeshShape) RayCast(p1, p2 mgl64.Vec3, transform Transform) (RayCastResult, bool) {
	hit, ok := m.Mesh.RayCast(transform.InversePoint(p1), transform.InversePoint(p2))
	if !ok {
		return RayCastResult{}, false
	}
	return RayCastResult{
		Point:    transform.Point(hit.Point),
		Normal:   transform.Vector(hit.Normal),
		Fraction: hit.Fraction,
	}, true
}

func (m *MeshShape) CollideWithPlane(normal mgl64.Vec3, distance float64, transform Transform) (bool, []PlaneContact) {
	return false, nil
}

// Triangle returns triangle i in world space with its world normal.
func (m *MeshShape) Triangle(i int, transform Transform) (a, b, c, n mgl64.Vec3) {
	la, lb, lc := m.Mesh.Corners(i)
	return transform.Point(la), transform.Point(lb), transform.Point(lc), transform.Vector(m.Mesh.Normal(i))
}
