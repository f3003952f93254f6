// Package mesh stores static triangle meshes and the spatial index used to
// query them by ray or by box.
package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Triangle indexes three vertices of a Mesh.
type Triangle struct {
	V1, V2, V3 uint32
}

// Mesh is an indexed triangle list. It is immutable once BuildTree ran.
type Mesh struct {
	Vertices  []mgl64.Vec3
	Triangles []Triangle

	tree *Tree
}

// RayHit is the nearest intersection of a segment with a mesh.
type RayHit struct {
	Triangle int
	Point    mgl64.Vec3
	Normal   mgl64.Vec3
	Fraction float64
}

// BuildTree builds the spatial index over the current triangles.
func (m *Mesh) BuildTree() {
	m.tree = newTree(m)
}

// Tree returns the spatial index, nil before BuildTree.
func (m *Mesh) Tree() *Tree {
	return m.tree
}

// Corners returns the three vertex positions of triangle i.
func (m *Mesh) Corners(i int) (a, b, c mgl64.Vec3) {
	t := m.Triangles[i]
	return m.Vertices[t.V1], m.Vertices[t.V2], m.Vertices[t.V3]
}

// Normal returns the unit normal of triangle i, following its winding.
func (m *Mesh) Normal(i int) mgl64.Vec3 {
	a, b, c := m.Corners(i)
	n := b.Sub(a).Cross(c.Sub(a))
	if l := n.Len(); l > 1e-12 {
		return n.Mul(1.0 / l)
	}
	return mgl64.Vec3{}
}

// Bounds returns the box enclosing every vertex.
func (m *Mesh) Bounds() (min, max mgl64.Vec3) {
	if len(m.Vertices) == 0 {
		return
	}
	min, max = m.Vertices[0], m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		for k := 0; k < 3; k++ {
			min[k] = math.Min(min[k], v[k])
			max[k] = math.Max(max[k], v[k])
		}
	}
	return min, max
}

// RayCast returns the nearest triangle crossed by the segment p1→p2.
// The returned normal faces p1. It requires BuildTree.
func (m *Mesh) RayCast(p1, p2 mgl64.Vec3) (RayHit, bool) {
	if m.tree == nil {
		return RayHit{}, false
	}
	return m.tree.rayCast(p1, p2)
}

// QueryAABB calls fn for every triangle whose bounds overlap [min,max].
// Each triangle is reported once. fn returning false stops the query.
func (m *Mesh) QueryAABB(min, max mgl64.Vec3, fn func(triangle int) bool) {
	if m.tree == nil {
		return
	}
	m.tree.queryAABB(min, max, fn)
}

// intersectTriangle is the Möller–Trumbore test over the segment p1 + t*d, t ∈ [0,1].
func intersectTriangle(p1, d, a, b, c mgl64.Vec3) (float64, bool) {
	const epsilon = 1e-12

	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := d.Cross(e2)
	det := e1.Dot(p)
	if math.Abs(det) < epsilon {
		return 0, false
	}
	inv := 1.0 / det

	s := p1.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := d.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t := e2.Dot(q) * inv
	if t < 0 || t > 1 {
		return 0, false
	}
	return t, true
}
