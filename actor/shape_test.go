package actor

import (
	"math"
	"testing"

	"github.com/akmonengine/testbed/mesh"
	"github.com/go-gl/mathgl/mgl64"
)

func vec3Equal(a, b mgl64.Vec3, tolerance float64) bool {
	return math.Abs(a.X()-b.X()) < tolerance &&
		math.Abs(a.Y()-b.Y()) < tolerance &&
		math.Abs(a.Z()-b.Z()) < tolerance
}

func floatEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}

func TestBoxComputeInertia(t *testing.T) {
	tests := []struct {
		name         string
		box          *Box
		mass         float64
		expectedDiag mgl64.Vec3
	}{
		{"unit cube", &Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, 12.0, mgl64.Vec3{8, 8, 8}},
		{"rectangular box 2x3x4", &Box{HalfExtents: mgl64.Vec3{2, 3, 4}}, 12.0, mgl64.Vec3{100, 80, 52}},
		{"thin box", &Box{HalfExtents: mgl64.Vec3{0.1, 5, 0.1}}, 60.0, mgl64.Vec3{500.2, 0.4, 500.2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inertia := tt.box.ComputeInertia(tt.mass)
			got := mgl64.Vec3{inertia.At(0, 0), inertia.At(1, 1), inertia.At(2, 2)}
			if !vec3Equal(got, tt.expectedDiag, 1e-9) {
				t.Errorf("diagonal = %v, want %v", got, tt.expectedDiag)
			}
		})
	}
}

func TestBoxFacesOutward(t *testing.T) {
	box := &Box{HalfExtents: mgl64.Vec3{1, 2, 3}}
	for i, face := range box.Faces() {
		v := face.Vertices
		n := v[1].Sub(v[0]).Cross(v[2].Sub(v[0])).Normalize()
		if !vec3Equal(n, face.Normal, 1e-9) {
			t.Errorf("face %d winding normal %v, want %v", i, n, face.Normal)
		}
	}
}

func TestBoxRayCast(t *testing.T) {
	box := &Box{HalfExtents: mgl64.Vec3{1, 1, 1}}

	tests := []struct {
		name     string
		p1, p2   mgl64.Vec3
		hit      bool
		fraction float64
		normal   mgl64.Vec3
	}{
		{"from above", mgl64.Vec3{0, 5, 0}, mgl64.Vec3{0, -5, 0}, true, 0.4, mgl64.Vec3{0, 1, 0}},
		{"from the side", mgl64.Vec3{-3, 0.5, 0}, mgl64.Vec3{3, 0.5, 0}, true, 1.0 / 3.0, mgl64.Vec3{-1, 0, 0}},
		{"miss", mgl64.Vec3{3, 5, 0}, mgl64.Vec3{3, -5, 0}, false, 0, mgl64.Vec3{}},
		{"too short", mgl64.Vec3{0, 5, 0}, mgl64.Vec3{0, 3, 0}, false, 0, mgl64.Vec3{}},
		{"starting inside", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 5, 0}, false, 0, mgl64.Vec3{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := box.RayCast(tt.p1, tt.p2, NewTransform())
			if ok != tt.hit {
				t.Fatalf("hit = %v, want %v", ok, tt.hit)
			}
			if !ok {
				return
			}
			if !floatEqual(result.Fraction, tt.fraction, 1e-9) {
				t.Errorf("fraction = %v, want %v", result.Fraction, tt.fraction)
			}
			if !vec3Equal(result.Normal, tt.normal, 1e-9) {
				t.Errorf("normal = %v, want %v", result.Normal, tt.normal)
			}
		})
	}
}

func TestBoxRayCastRotated(t *testing.T) {
	box := &Box{HalfExtents: mgl64.Vec3{2, 0.5, 0.5}}
	// Long axis turned from X to Y
	transform := NewTransformAt(mgl64.Vec3{0, 0, 0}, mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1}))

	result, ok := box.RayCast(mgl64.Vec3{0, 10, 0}, mgl64.Vec3{0, -10, 0}, transform)
	if !ok {
		t.Fatal("expected a hit")
	}
	if !vec3Equal(result.Point, mgl64.Vec3{0, 2, 0}, 1e-9) {
		t.Errorf("point = %v, want (0,2,0)", result.Point)
	}
	if !vec3Equal(result.Normal, mgl64.Vec3{0, 1, 0}, 1e-9) {
		t.Errorf("normal = %v, want (0,1,0)", result.Normal)
	}
}

func TestBoxCollideWithPlane(t *testing.T) {
	box := &Box{HalfExtents: mgl64.Vec3{1, 1, 1}}
	transform := NewTransformAt(mgl64.Vec3{0, 0.9, 0}, mgl64.QuatIdent())

	ok, contacts := box.CollideWithPlane(mgl64.Vec3{0, 1, 0}, 0, transform)
	if !ok {
		t.Fatal("expected contact with the ground")
	}
	if len(contacts) != 4 {
		t.Fatalf("got %d contacts, want the 4 bottom corners", len(contacts))
	}
	for _, c := range contacts {
		if !floatEqual(c.Penetration, 0.1, 1e-9) {
			t.Errorf("penetration = %v, want 0.1", c.Penetration)
		}
	}

	transform.Position = mgl64.Vec3{0, 1.5, 0}
	if ok, _ := box.CollideWithPlane(mgl64.Vec3{0, 1, 0}, 0, transform); ok {
		t.Error("box above the plane must not collide")
	}
}

func TestSphereRayCast(t *testing.T) {
	sphere := &Sphere{Radius: 1}
	transform := NewTransformAt(mgl64.Vec3{0, -5, 0}, mgl64.QuatIdent())

	result, ok := sphere.RayCast(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, -10, 0}, transform)
	if !ok {
		t.Fatal("expected a hit")
	}
	if !floatEqual(result.Fraction, 0.4, 1e-9) {
		t.Errorf("fraction = %v, want 0.4", result.Fraction)
	}
	if !vec3Equal(result.Normal, mgl64.Vec3{0, 1, 0}, 1e-9) {
		t.Errorf("normal = %v, want (0,1,0)", result.Normal)
	}

	if _, ok := sphere.RayCast(mgl64.Vec3{0, -5, 0}, mgl64.Vec3{0, 0, 0}, transform); ok {
		t.Error("a ray starting inside is not a hit")
	}
}

func TestSphereCollideWithPlane(t *testing.T) {
	sphere := &Sphere{Radius: 1}
	transform := NewTransformAt(mgl64.Vec3{2, 0.75, 0}, mgl64.QuatIdent())

	ok, contacts := sphere.CollideWithPlane(mgl64.Vec3{0, 1, 0}, 0, transform)
	if !ok || len(contacts) != 1 {
		t.Fatalf("got %v/%d, want one contact", ok, len(contacts))
	}
	if !floatEqual(contacts[0].Penetration, 0.25, 1e-9) {
		t.Errorf("penetration = %v, want 0.25", contacts[0].Penetration)
	}
	if !vec3Equal(contacts[0].Position, mgl64.Vec3{2, -0.25, 0}, 1e-9) {
		t.Errorf("position = %v, want (2,-0.25,0)", contacts[0].Position)
	}
}

func TestPlaneWorld(t *testing.T) {
	plane := &Plane{Normal: mgl64.Vec3{0, 1, 0}, Distance: 0}
	transform := NewTransformAt(mgl64.Vec3{0, 3, 0}, mgl64.QuatIdent())

	n, d := plane.World(transform)
	if !vec3Equal(n, mgl64.Vec3{0, 1, 0}, 1e-9) || !floatEqual(d, -3, 1e-9) {
		t.Errorf("world plane = %v %v, want (0,1,0) -3", n, d)
	}

	result, ok := plane.RayCast(mgl64.Vec3{0, 13, 0}, mgl64.Vec3{0, -7, 0}, transform)
	if !ok || !floatEqual(result.Fraction, 0.5, 1e-9) {
		t.Errorf("ray cast = %v %v, want fraction 0.5", result, ok)
	}

	result, ok = plane.RayCast(mgl64.Vec3{0, -7, 0}, mgl64.Vec3{0, 13, 0}, transform)
	if !ok || !vec3Equal(result.Normal, mgl64.Vec3{0, -1, 0}, 1e-9) {
		t.Errorf("normal from below = %v, want (0,-1,0)", result.Normal)
	}
}

func TestCylinderMassAndInertia(t *testing.T) {
	c := &Cylinder{Radius: 1, Height: 2}

	mass := c.ComputeMass(1)
	if !floatEqual(mass, 2*math.Pi, 1e-9) {
		t.Errorf("mass = %v, want 2π", mass)
	}

	inertia := c.ComputeInertia(12)
	if !floatEqual(inertia.At(1, 1), 6, 1e-9) {
		t.Errorf("axial inertia = %v, want 6", inertia.At(1, 1))
	}
	if !floatEqual(inertia.At(0, 0), 7, 1e-9) || !floatEqual(inertia.At(2, 2), 7, 1e-9) {
		t.Errorf("side inertia = %v %v, want 7", inertia.At(0, 0), inertia.At(2, 2))
	}
}

func TestCylinderSupportAndAABB(t *testing.T) {
	c := &Cylinder{Radius: 0.5, Height: 4}

	if s := c.Support(mgl64.Vec3{1, 1, 0}); !vec3Equal(s, mgl64.Vec3{0.5, 2, 0}, 1e-9) {
		t.Errorf("support = %v, want (0.5,2,0)", s)
	}

	c.ComputeAABB(NewTransformAt(mgl64.Vec3{1, 0, 0}, mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{1, 0, 0})))
	aabb := c.GetAABB()
	if !vec3Equal(aabb.Min, mgl64.Vec3{0.5, -0.5, -2}, 1e-9) || !vec3Equal(aabb.Max, mgl64.Vec3{1.5, 0.5, 2}, 1e-9) {
		t.Errorf("aabb = %v, want (0.5,-0.5,-2)-(1.5,0.5,2)", aabb)
	}
}

func TestCylinderRayCast(t *testing.T) {
	c := &Cylinder{Radius: 1, Height: 2}

	side, ok := c.RayCast(mgl64.Vec3{-5, 0, 0}, mgl64.Vec3{5, 0, 0}, NewTransform())
	if !ok || !floatEqual(side.Fraction, 0.4, 1e-9) || !vec3Equal(side.Normal, mgl64.Vec3{-1, 0, 0}, 1e-9) {
		t.Errorf("side hit = %+v %v", side, ok)
	}

	top, ok := c.RayCast(mgl64.Vec3{0.2, 5, 0}, mgl64.Vec3{0.2, -5, 0}, NewTransform())
	if !ok || !floatEqual(top.Fraction, 0.4, 1e-9) || !vec3Equal(top.Normal, mgl64.Vec3{0, 1, 0}, 1e-9) {
		t.Errorf("cap hit = %+v %v", top, ok)
	}

	if _, ok := c.RayCast(mgl64.Vec3{2, 5, 0}, mgl64.Vec3{2, -5, 0}, NewTransform()); ok {
		t.Error("expected a miss beside the cylinder")
	}
}

func TestCylinderContactFeature(t *testing.T) {
	c := &Cylinder{Radius: 1, Height: 2}

	if got := len(c.GetContactFeature(mgl64.Vec3{0, -1, 0})); got != cylinderRimPoints {
		t.Errorf("cap feature has %d points, want %d", got, cylinderRimPoints)
	}
	side := c.GetContactFeature(mgl64.Vec3{1, 0, 0})
	if len(side) != 2 || !vec3Equal(side[0], mgl64.Vec3{1, 1, 0}, 1e-9) || !vec3Equal(side[1], mgl64.Vec3{1, -1, 0}, 1e-9) {
		t.Errorf("side feature = %v", side)
	}
}

func TestCompoundMass(t *testing.T) {
	rotor := &Box{HalfExtents: mgl64.Vec3{1, 0.5, 7}}
	axle := &Cylinder{Radius: 0.95, Height: 4}
	compound := &Compound{Children: []CompoundChild{{Shape: rotor, Density: 0.1}, {Shape: axle, Density: 0.2}}}

	want := rotor.ComputeMass(0.1) + axle.ComputeMass(0.2)
	if got := compound.ComputeMass(1); !floatEqual(got, want, 1e-9) {
		t.Errorf("mass = %v, want %v", got, want)
	}

	inertia := compound.ComputeInertia(want)
	expected := rotor.ComputeInertia(rotor.ComputeMass(0.1)).Add(axle.ComputeInertia(axle.ComputeMass(0.2)))
	for i := 0; i < 3; i++ {
		if !floatEqual(inertia.At(i, i), expected.At(i, i), 1e-6) {
			t.Errorf("inertia[%d] = %v, want %v", i, inertia.At(i, i), expected.At(i, i))
		}
	}
}

func TestCompoundQueries(t *testing.T) {
	compound := &Compound{Children: []CompoundChild{
		{Shape: &Box{HalfExtents: mgl64.Vec3{3, 0.5, 0.5}}},
		{Shape: &Sphere{Radius: 1}},
	}}

	if s := compound.Support(mgl64.Vec3{1, 0, 0}); !floatEqual(s.X(), 3, 1e-9) {
		t.Errorf("support x = %v, want 3", s.X())
	}
	if s := compound.Support(mgl64.Vec3{0, 1, 0}); !floatEqual(s.Y(), 1, 1e-9) {
		t.Errorf("support y = %v, want 1", s.Y())
	}

	compound.ComputeAABB(NewTransform())
	aabb := compound.GetAABB()
	if !vec3Equal(aabb.Min, mgl64.Vec3{-3, -1, -1}, 1e-9) || !vec3Equal(aabb.Max, mgl64.Vec3{3, 1, 1}, 1e-9) {
		t.Errorf("aabb = %v", aabb)
	}

	result, ok := compound.RayCast(mgl64.Vec3{0, 5, 0}, mgl64.Vec3{0, -5, 0}, NewTransform())
	if !ok || !floatEqual(result.Fraction, 0.4, 1e-9) {
		t.Errorf("nearest child hit = %+v %v, want the sphere at 0.4", result, ok)
	}
}

func TestMeshShapeRayCast(t *testing.T) {
	m := &mesh.Mesh{
		Vertices:  []mgl64.Vec3{{-1, 0, -1}, {1, 0, -1}, {1, 0, 1}, {-1, 0, 1}},
		Triangles: []mesh.Triangle{{V1: 2, V2: 1, V3: 0}, {V1: 0, V2: 3, V3: 2}},
	}
	m.BuildTree()
	shape := &MeshShape{Mesh: m}
	transform := NewTransformAt(mgl64.Vec3{0, 2, 0}, mgl64.QuatIdent())

	result, ok := shape.RayCast(mgl64.Vec3{0.3, 4, 0.2}, mgl64.Vec3{0.3, 0, 0.2}, transform)
	if !ok {
		t.Fatal("expected a hit")
	}
	if !floatEqual(result.Fraction, 0.5, 1e-9) || !vec3Equal(result.Point, mgl64.Vec3{0.3, 2, 0.2}, 1e-9) {
		t.Errorf("hit = %+v", result)
	}
	if !math.IsInf(shape.ComputeMass(1), 1) {
		t.Error("mesh shapes are static")
	}

	shape.ComputeAABB(transform)
	if aabb := shape.GetAABB(); !vec3Equal(aabb.Min, mgl64.Vec3{-1, 2, -1}, 1e-9) {
		t.Errorf("aabb min = %v", aabb.Min)
	}
}

func TestTangentBasis(t *testing.T) {
	for _, n := range []mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, mgl64.Vec3{1, 1, 1}.Normalize()} {
		t1, t2 := TangentBasis(n)
		if !floatEqual(t1.Dot(n), 0, 1e-9) || !floatEqual(t2.Dot(n), 0, 1e-9) || !floatEqual(t1.Dot(t2), 0, 1e-9) {
			t.Errorf("basis of %v is not orthogonal", n)
		}
		if !floatEqual(t1.Len(), 1, 1e-9) || !floatEqual(t2.Len(), 1, 1e-9) {
			t.Errorf("basis of %v is not normalized", n)
		}
	}
}

func TestAABBUnionAndOverlaps(t *testing.T) {
	a := AABB{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{1, 1, 1}}
	b := AABB{Min: mgl64.Vec3{2, -1, 0}, Max: mgl64.Vec3{3, 0.5, 1}}

	if a.Overlaps(b) {
		t.Error("separated boxes overlap")
	}
	u := a.Union(b)
	if u.Min != (mgl64.Vec3{0, -1, 0}) || u.Max != (mgl64.Vec3{3, 1, 1}) {
		t.Errorf("union = %v", u)
	}
	if !u.ContainsPoint(a.Center()) || !u.ContainsPoint(b.Center()) {
		t.Error("union must contain both centers")
	}
	// Touching faces count as overlapping
	c := AABB{Min: mgl64.Vec3{1, 0, 0}, Max: mgl64.Vec3{2, 1, 1}}
	if !a.Overlaps(c) {
		t.Error("face touching boxes must overlap")
	}
}
