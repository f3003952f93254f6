package physics

import (
	"math"

	"github.com/akmonengine/testbed/actor"
	"github.com/akmonengine/testbed/constraint"
	"github.com/akmonengine/testbed/epa"
	"github.com/akmonengine/testbed/gjk"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// maxMeshContactDepth is how deep a point may sink under a mesh triangle and
// still be pushed out through it. Deeper points belong to another triangle.
const maxMeshContactDepth = 0.5

// narrowPhase computes the manifolds of every candidate. Candidates are
// independent, so they are spread over the workers.
func (w *World) narrowPhase(candidates []*Contact) {
	task(w.workers, candidates, func(c *Contact) {
		c.manifolds = w.collide(c)
	})
}

func (w *World) collide(c *Contact) []*constraint.ContactConstraint {
	a, b := c.bodyA.rb, c.bodyB.rb

	switch shape := a.Shape.(type) {
	case *actor.Plane:
		return collidePlane(a, shape, b)
	case *actor.MeshShape:
		return collideMesh(a, shape, b)
	case *actor.Sphere:
		if other, ok := b.Shape.(*actor.Sphere); ok {
			return collideSpheres(a, shape, b, other)
		}
	}
	return w.collideConvex(c)
}

// collidePlane keeps the points of object behind the plane of planeBody.
func collidePlane(planeBody *actor.RigidBody, plane *actor.Plane, object *actor.RigidBody) []*constraint.ContactConstraint {
	normal, distance := plane.World(planeBody.Transform)

	collision, result := object.Shape.CollideWithPlane(normal, distance, object.Transform)
	if !collision {
		return nil
	}

	points := make([]constraint.ContactPoint, len(result))
	for i, point := range result {
		points[i] = constraint.ContactPoint{Position: point.Position, Penetration: point.Penetration}
	}

	return []*constraint.ContactConstraint{{
		BodyA:  planeBody,
		BodyB:  object,
		Normal: normal,
		Points: points,
	}}
}

func collideSpheres(a *actor.RigidBody, sa *actor.Sphere, b *actor.RigidBody, sb *actor.Sphere) []*constraint.ContactConstraint {
	delta := b.Transform.Position.Sub(a.Transform.Position)
	distance := delta.Len()
	penetration := sa.Radius + sb.Radius - distance
	if penetration <= 0 {
		return nil
	}

	normal := mgl64.Vec3{0, 1, 0}
	if distance > 1e-9 {
		normal = delta.Mul(1 / distance)
	}
	point := a.Transform.Position.Add(normal.Mul(sa.Radius - penetration/2))

	return []*constraint.ContactConstraint{{
		BodyA:  a,
		BodyB:  b,
		Normal: normal,
		Points: []constraint.ContactPoint{{Position: point, Penetration: penetration}},
	}}
}

// collideMesh collides object with each triangle its bounds overlap, as if
// the triangle were a plane clipped to its edges. One manifold per triangle.
func collideMesh(meshBody *actor.RigidBody, shape *actor.MeshShape, object *actor.RigidBody) []*constraint.ContactConstraint {
	lo, hi := localBounds(meshBody.Transform, object.Shape.GetAABB())

	var manifolds []*constraint.ContactConstraint
	shape.Mesh.QueryAABB(lo, hi, func(i int) bool {
		a, b, c, normal := shape.Triangle(i, meshBody.Transform)
		if normal.LenSqr() < 0.5 {
			return true
		}

		collision, result := object.Shape.CollideWithPlane(normal, -normal.Dot(a), object.Transform)
		if !collision {
			return true
		}

		var points []constraint.ContactPoint
		for _, point := range result {
			if point.Penetration > maxMeshContactDepth {
				continue
			}
			if !insideTriangle(point.Position.Add(normal.Mul(point.Penetration)), a, b, c, normal) {
				continue
			}
			points = append(points, constraint.ContactPoint{Position: point.Position, Penetration: point.Penetration})
		}
		if len(points) > 0 {
			manifolds = append(manifolds, &constraint.ContactConstraint{
				BodyA:  meshBody,
				BodyB:  object,
				Normal: normal,
				Points: points,
			})
		}
		return true
	})
	return manifolds
}

// localBounds returns the box of the mesh frame enclosing the world box.
func localBounds(transform actor.Transform, box actor.AABB) (mgl64.Vec3, mgl64.Vec3) {
	lo := mgl64.Vec3{math.MaxFloat64, math.MaxFloat64, math.MaxFloat64}
	hi := lo.Mul(-1)
	for corner := 0; corner < 8; corner++ {
		var p mgl64.Vec3
		for k := 0; k < 3; k++ {
			if corner&(1<<k) != 0 {
				p[k] = box.Max[k]
			} else {
				p[k] = box.Min[k]
			}
		}
		p = transform.InversePoint(p)
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], p[k])
			hi[k] = math.Max(hi[k], p[k])
		}
	}
	return lo, hi
}

// insideTriangle tells whether p, on the plane of abc, lies within its edges.
// The winding of abc must agree with normal.
func insideTriangle(p, a, b, c, normal mgl64.Vec3) bool {
	const slop = -1e-9
	return b.Sub(a).Cross(p.Sub(a)).Dot(normal) >= slop &&
		c.Sub(b).Cross(p.Sub(b)).Dot(normal) >= slop &&
		a.Sub(c).Cross(p.Sub(c)).Dot(normal) >= slop
}

// collideConvex tries the cached separating axis first, then runs GJK, warm
// started from the previous direction, and EPA on overlap.
func (w *World) collideConvex(c *Contact) []*constraint.ContactConstraint {
	a, b := c.bodyA.rb, c.bodyB.rb

	cached := w.counters.ConvexCache.Load() && gjk.Separated(a, b, c.axis)
	w.counters.AddConvex(cached)
	if cached {
		return nil
	}

	var warm mgl64.Vec3
	if w.warmStart {
		warm = c.axis
	}

	simplex := gjk.SimplexPool.Get().(*gjk.Simplex)
	defer gjk.SimplexPool.Put(simplex)
	simplex.Reset()

	result := gjk.GJK(a, b, simplex, warm)
	w.counters.AddGJK(result.Iterations)
	c.axis = result.Direction
	if !result.Hit {
		return nil
	}

	contact, err := epa.EPA(a, b, simplex)
	if err != nil {
		w.logger.Debug("contact dropped",
			zap.Uint64("body_a", c.bodyA.id),
			zap.Uint64("body_b", c.bodyB.id),
			zap.Error(err))
		return nil
	}
	if len(contact.Points) == 0 {
		return nil
	}
	return []*constraint.ContactConstraint{&contact}
}
