package physics

import (
	"math"
	"slices"
	"sort"
	"sync"

	"github.com/akmonengine/testbed/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// maxCellsPerBody bounds the cells a body is hashed into. Larger bodies, and
// planes, are tested against every other body instead.
const maxCellsPerBody = 4096

type cellKey struct {
	X, Y, Z int
}

type cell struct {
	bodyIndices []int
}

// spatialGrid is a uniform grid hashed into a power of two number of buckets.
// Different cells may share a bucket; candidates are confirmed by AABB.
type spatialGrid struct {
	cellSize float64
	cells    []cell
	cellMask int
}

func newSpatialGrid(cellSize float64, numCells int) *spatialGrid {
	numCells = nextPowerOfTwo(numCells)

	cells := make([]cell, numCells)
	for i := range cells {
		cells[i].bodyIndices = make([]int, 0, 8)
	}

	return &spatialGrid{
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
	}
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
	n |= n >> 32
	n++
	return n
}

func (g *spatialGrid) clear() {
	for i := range g.cells {
		g.cells[i].bodyIndices = g.cells[i].bodyIndices[:0]
	}
}

// cellCount returns the number of cells box spans, saturating at maxCellsPerBody+1.
func (g *spatialGrid) cellCount(box actor.AABB) int {
	lo, hi := g.worldToCell(box.Min), g.worldToCell(box.Max)
	count := 1
	for _, span := range [3]int{hi.X - lo.X + 1, hi.Y - lo.Y + 1, hi.Z - lo.Z + 1} {
		if span <= 0 || span > maxCellsPerBody || count*span > maxCellsPerBody {
			return maxCellsPerBody + 1
		}
		count *= span
	}
	return count
}

// insert adds index to every cell box spans.
func (g *spatialGrid) insert(index int, box actor.AABB) {
	g.forEachCell(box, func(bucket int) {
		g.cells[bucket].bodyIndices = append(g.cells[bucket].bodyIndices, index)
	})
}

func (g *spatialGrid) sortCells() {
	for i := range g.cells {
		if len(g.cells[i].bodyIndices) > 1 {
			sort.Ints(g.cells[i].bodyIndices)
		}
	}
}

func (g *spatialGrid) forEachCell(box actor.AABB, fn func(bucket int)) {
	lo, hi := g.worldToCell(box.Min), g.worldToCell(box.Max)
	for x := lo.X; x <= hi.X; x++ {
		for y := lo.Y; y <= hi.Y; y++ {
			for z := lo.Z; z <= hi.Z; z++ {
				fn(g.hashCell(cellKey{x, y, z}))
			}
		}
	}
}

// findPairs streams the overlapping pairs (i, j), i < j, of the inserted
// bodies. accept filters the pairs before their AABBs are compared.
func (g *spatialGrid) findPairs(bodies []*Body, numWorkers int, accept func(a, b *Body) bool) <-chan [2]int {
	var wg sync.WaitGroup
	pairsChan := make(chan [2]int, numWorkers*10)

	numWorkers = max(1, min(numWorkers, len(bodies)))
	bodiesPerWorker := (len(bodies) + numWorkers - 1) / numWorkers

	for start := 0; start < len(bodies); start += bodiesPerWorker {
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()

			seen := make([]bool, len(bodies))
			var touched []int
			for bodyIdx := start; bodyIdx < end; bodyIdx++ {
				for _, i := range touched {
					seen[i] = false
				}
				touched = touched[:0]

				bodyA := bodies[bodyIdx]
				boxA := bodyA.rb.Shape.GetAABB()
				g.forEachCell(boxA, func(bucket int) {
					for _, otherIdx := range g.cells[bucket].bodyIndices {
						if otherIdx <= bodyIdx || seen[otherIdx] {
							continue
						}
						seen[otherIdx] = true
						touched = append(touched, otherIdx)

						bodyB := bodies[otherIdx]
						if accept(bodyA, bodyB) && boxA.Overlaps(bodyB.rb.Shape.GetAABB()) {
							pairsChan <- [2]int{bodyIdx, otherIdx}
						}
					}
				})
			}
		}(start, min(start+bodiesPerWorker, len(bodies)))
	}

	go func() {
		wg.Wait()
		close(pairsChan)
	}()

	return pairsChan
}

func (g *spatialGrid) worldToCell(pos mgl64.Vec3) cellKey {
	return cellKey{
		X: toCell(pos.X(), g.cellSize),
		Y: toCell(pos.Y(), g.cellSize),
		Z: toCell(pos.Z(), g.cellSize),
	}
}

// toCell clamps far coordinates so planes and runaway bodies stay countable.
func toCell(v, size float64) int {
	const limit = 1 << 30
	return int(math.Max(-limit, math.Min(limit, math.Floor(v/size))))
}

func (g *spatialGrid) hashCell(key cellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663) ^ (key.Z * 83492791)
	return h & g.cellMask
}

// acceptPair rejects the pairs that cannot produce a new contact: a body with
// itself, two bodies that do not move, and bodies joined by a joint.
func acceptPair(a, b *Body) bool {
	if a == b || a.destroyed || b.destroyed {
		return false
	}
	if !a.active() && !b.active() {
		return false
	}
	for _, j := range a.joints {
		if j.bodyA == b || j.bodyB == b {
			return false
		}
	}
	return true
}

// broadPhase returns the candidate pairs of the pass ordered by body ids.
// Each candidate is the cached Contact of the pair, created on first sight.
func (w *World) broadPhase() []*Contact {
	w.grid.clear()

	var indexed, unbounded []*Body
	for _, b := range w.bodies {
		if len(b.shapes) == 0 || b.destroyed {
			continue
		}
		box := b.rb.Shape.GetAABB()
		if _, isPlane := b.rb.Shape.(*actor.Plane); isPlane || w.grid.cellCount(box) > maxCellsPerBody {
			unbounded = append(unbounded, b)
			continue
		}
		w.grid.insert(len(indexed), box)
		indexed = append(indexed, b)
	}
	w.grid.sortCells()

	var candidates []*Contact
	for p := range w.grid.findPairs(indexed, w.workers, acceptPair) {
		candidates = append(candidates, w.candidate(indexed[p[0]], indexed[p[1]]))
	}

	for i, a := range unbounded {
		_, aIsPlane := a.rb.Shape.(*actor.Plane)
		others := append(slices.Clone(indexed), unbounded[i+1:]...)
		for _, b := range others {
			if !acceptPair(a, b) {
				continue
			}
			_, bIsPlane := b.rb.Shape.(*actor.Plane)
			if aIsPlane || bIsPlane || a.rb.Shape.GetAABB().Overlaps(b.rb.Shape.GetAABB()) {
				candidates = append(candidates, w.candidate(a, b))
			}
		}
	}

	slices.SortFunc(candidates, func(x, y *Contact) int { return x.key.compare(y.key) })
	return candidates
}

// candidate returns the contact cached for the pair and marks it seen.
func (w *World) candidate(a, b *Body) *Contact {
	w.counters.AddBroadPhasePair()

	key := makePairKey(a, b)
	c, ok := w.pairs[key]
	if !ok {
		c = newContact(key, a, b)
		w.pairs[key] = c
	}
	c.seen = w.steps
	return c
}
