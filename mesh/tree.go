package mesh

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// CellKey is the integer coordinate of a grid cell.
type CellKey struct {
	X, Y, Z int
}

type cell struct {
	triangles []int
}

// Tree is a uniform hashed grid over the triangles of a mesh. Each triangle
// is stored in every cell its bounds touch. Queries are safe for concurrent use.
type Tree struct {
	mesh     *Mesh
	cellSize float64
	cells    []cell
	cellMask int

	min, max mgl64.Vec3

	seen sync.Pool
}

func newTree(m *Mesh) *Tree {
	numCells := nextPowerOfTwo(max(len(m.Triangles), 1))
	t := &Tree{
		mesh:     m,
		cellSize: cellSizeFor(m),
		cells:    make([]cell, numCells),
		cellMask: numCells - 1,
	}
	t.min, t.max = m.Bounds()
	t.seen.New = func() any {
		s := make([]bool, len(m.Triangles))
		return &s
	}

	for i := range m.Triangles {
		lo, hi := triangleBounds(m, i)
		minCell := t.worldToCell(lo)
		maxCell := t.worldToCell(hi)
		for x := minCell.X; x <= maxCell.X; x++ {
			for y := minCell.Y; y <= maxCell.Y; y++ {
				for z := minCell.Z; z <= maxCell.Z; z++ {
					idx := t.hashCell(CellKey{x, y, z})
					t.cells[idx].triangles = append(t.cells[idx].triangles, i)
				}
			}
		}
	}

	return t
}

// CellSize returns the edge length of a grid cell.
func (t *Tree) CellSize() float64 {
	return t.cellSize
}

// cellSizeFor picks the mean of the largest triangle extents, so a triangle
// spans a handful of cells.
func cellSizeFor(m *Mesh) float64 {
	if len(m.Triangles) == 0 {
		return 1
	}
	var sum float64
	for i := range m.Triangles {
		lo, hi := triangleBounds(m, i)
		d := hi.Sub(lo)
		sum += math.Max(d.X(), math.Max(d.Y(), d.Z()))
	}
	size := sum / float64(len(m.Triangles))
	if size < 1e-6 {
		return 1
	}
	return size
}

func triangleBounds(m *Mesh, i int) (lo, hi mgl64.Vec3) {
	a, b, c := m.Corners(i)
	for k := 0; k < 3; k++ {
		lo[k] = math.Min(a[k], math.Min(b[k], c[k]))
		hi[k] = math.Max(a[k], math.Max(b[k], c[k]))
	}
	return lo, hi
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

func (t *Tree) worldToCell(pos mgl64.Vec3) CellKey {
	return CellKey{
		X: int(math.Floor(pos.X() / t.cellSize)),
		Y: int(math.Floor(pos.Y() / t.cellSize)),
		Z: int(math.Floor(pos.Z() / t.cellSize)),
	}
}

func (t *Tree) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663) ^ (key.Z * 83492791)
	return h & t.cellMask
}

// visit runs fn over the triangles of one cell that were not seen yet.
func (t *Tree) visit(key CellKey, seen []bool, touched *[]int, fn func(int) bool) bool {
	for _, tri := range t.cells[t.hashCell(key)].triangles {
		if seen[tri] {
			continue
		}
		seen[tri] = true
		*touched = append(*touched, tri)
		if !fn(tri) {
			return false
		}
	}
	return true
}

func (t *Tree) acquire() (*[]bool, []int) {
	return t.seen.Get().(*[]bool), make([]int, 0, 32)
}

func (t *Tree) release(seen *[]bool, touched []int) {
	for _, tri := range touched {
		(*seen)[tri] = false
	}
	t.seen.Put(seen)
}

func (t *Tree) queryAABB(lo, hi mgl64.Vec3, fn func(int) bool) {
	seen, touched := t.acquire()
	defer func() { t.release(seen, touched) }()

	minCell := t.worldToCell(lo)
	maxCell := t.worldToCell(hi)
	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				ok := t.visit(CellKey{x, y, z}, *seen, &touched, func(tri int) bool {
					tlo, thi := triangleBounds(t.mesh, tri)
					if !overlaps(lo, hi, tlo, thi) {
						return true
					}
					return fn(tri)
				})
				if !ok {
					return
				}
			}
		}
	}
}

// rayCast walks the cells crossed by the segment (Amanatides & Woo) and
// stops once the entry of the next cell lies beyond the best hit.
func (t *Tree) rayCast(p1, p2 mgl64.Vec3) (RayHit, bool) {
	d := p2.Sub(p1)
	tEnter, tExit, ok := clipSegment(p1, d, t.min, t.max)
	if !ok {
		return RayHit{}, false
	}

	seen, touched := t.acquire()
	defer func() { t.release(seen, touched) }()

	best := RayHit{Triangle: -1, Fraction: math.Inf(1)}
	test := func(tri int) bool {
		a, b, c := t.mesh.Corners(tri)
		if f, hit := intersectTriangle(p1, d, a, b, c); hit && f < best.Fraction {
			best.Triangle = tri
			best.Fraction = f
		}
		return true
	}

	start := p1.Add(d.Mul(tEnter))
	key := t.worldToCell(start)

	var step [3]int
	var tMax, tDelta [3]float64
	cellOf := [3]int{key.X, key.Y, key.Z}
	for k := 0; k < 3; k++ {
		switch {
		case d[k] > 0:
			step[k] = 1
			boundary := float64(cellOf[k]+1) * t.cellSize
			tMax[k] = tEnter + (boundary-start[k])/d[k]
			tDelta[k] = t.cellSize / d[k]
		case d[k] < 0:
			step[k] = -1
			boundary := float64(cellOf[k]) * t.cellSize
			tMax[k] = tEnter + (boundary-start[k])/d[k]
			tDelta[k] = -t.cellSize / d[k]
		default:
			tMax[k] = math.Inf(1)
			tDelta[k] = math.Inf(1)
		}
	}

	maxSteps := 3
	for k := 0; k < 3; k++ {
		maxSteps += int(math.Abs(d[k])*(tExit-tEnter)/t.cellSize) + 1
	}

	tCell := tEnter
	for i := 0; i < maxSteps && tCell <= tExit; i++ {
		if tCell > best.Fraction {
			break
		}
		t.visit(CellKey{cellOf[0], cellOf[1], cellOf[2]}, *seen, &touched, test)

		axis := 0
		if tMax[1] < tMax[axis] {
			axis = 1
		}
		if tMax[2] < tMax[axis] {
			axis = 2
		}
		tCell = tMax[axis]
		cellOf[axis] += step[axis]
		tMax[axis] += tDelta[axis]
	}

	if best.Triangle < 0 {
		return RayHit{}, false
	}

	best.Point = p1.Add(d.Mul(best.Fraction))
	best.Normal = t.mesh.Normal(best.Triangle)
	if best.Normal.Dot(d) > 0 {
		best.Normal = best.Normal.Mul(-1)
	}
	return best, true
}

// clipSegment restricts p1 + t*d, t ∈ [0,1], to the box [lo,hi] widened by a small margin.
func clipSegment(p1, d, lo, hi mgl64.Vec3) (float64, float64, bool) {
	const margin = 1e-6
	tEnter, tExit := 0.0, 1.0
	for k := 0; k < 3; k++ {
		l, h := lo[k]-margin, hi[k]+margin
		if math.Abs(d[k]) < 1e-15 {
			if p1[k] < l || p1[k] > h {
				return 0, 0, false
			}
			continue
		}
		t1 := (l - p1[k]) / d[k]
		t2 := (h - p1[k]) / d[k]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tEnter = math.Max(tEnter, t1)
		tExit = math.Min(tExit, t2)
		if tEnter > tExit {
			return 0, 0, false
		}
	}
	return tEnter, tExit, true
}

func overlaps(aMin, aMax, bMin, bMax mgl64.Vec3) bool {
	return aMax.X() >= bMin.X() && aMin.X() <= bMax.X() &&
		aMax.Y() >= bMin.Y() && aMin.Y() <= bMax.Y() &&
		aMax.Z() >= bMin.Z() && aMin.Z() <= bMax.Z()
}
