package draw

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Kind identifies a queued primitive.
type Kind uint8

const (
	PointKind Kind = iota
	SegmentKind
	TriangleKind
	SolidTriangleKind
	CircleKind
	SolidCircleKind
	AABBKind
)

// Primitive is one queued debug shape. Unused vertices are zero.
type Primitive struct {
	Kind     Kind
	Vertices [3]mgl64.Vec3
	Normal   mgl64.Vec3
	Size     float64
	Color    Color
}

// Backend renders submitted primitives and overlay text.
type Backend interface {
	Render(prims []Primitive)
	Text(line string)
}

// Queue accumulates primitives until Submit hands them to the backend.
// A nil backend drops everything, which is what headless sessions use.
type Queue struct {
	backend Backend
	flags   Flags
	prims   []Primitive
}

// NewQueue returns a queue rendering into backend.
func NewQueue(backend Backend) *Queue {
	return &Queue{backend: backend, prims: make([]Primitive, 0, 256)}
}

// Flags returns the active draw flags.
func (q *Queue) Flags() Flags { return q.flags }

// SetFlags replaces the active draw flags.
func (q *Queue) SetFlags(f Flags) { q.flags = f }

// Pending returns the number of primitives waiting for Submit.
func (q *Queue) Pending() int { return len(q.prims) }

// Submit renders and empties the queue.
func (q *Queue) Submit() {
	if q.backend != nil && len(q.prims) > 0 {
		q.backend.Render(q.prims)
	}
	q.prims = q.prims[:0]
}

// DrawFaces runs a full mesh pass over src and renders it immediately.
func (q *Queue) DrawFaces(src FaceSource) {
	src.DrawFaces(q)
	q.Submit()
}

// Text emits one overlay line.
func (q *Queue) Text(format string, args ...any) {
	if q.backend != nil {
		q.backend.Text(fmt.Sprintf(format, args...))
	}
}

func (q *Queue) DrawPoint(p mgl64.Vec3, size float64, c Color) {
	q.prims = append(q.prims, Primitive{Kind: PointKind, Vertices: [3]mgl64.Vec3{p}, Size: size, Color: c})
}

func (q *Queue) DrawSegment(a, b mgl64.Vec3, c Color) {
	q.prims = append(q.prims, Primitive{Kind: SegmentKind, Vertices: [3]mgl64.Vec3{a, b}, Color: c})
}

func (q *Queue) DrawTriangle(a, b, v mgl64.Vec3, c Color) {
	q.prims = append(q.prims, Primitive{Kind: TriangleKind, Vertices: [3]mgl64.Vec3{a, b, v}, Color: c})
}

func (q *Queue) DrawSolidTriangle(n, a, b, v mgl64.Vec3, c Color) {
	q.prims = append(q.prims, Primitive{Kind: SolidTriangleKind, Vertices: [3]mgl64.Vec3{a, b, v}, Normal: n, Color: c})
}

func (q *Queue) DrawCircle(n, center mgl64.Vec3, radius float64, c Color) {
	q.prims = append(q.prims, Primitive{Kind: CircleKind, Vertices: [3]mgl64.Vec3{center}, Normal: n, Size: radius, Color: c})
}

func (q *Queue) DrawSolidCircle(n, center mgl64.Vec3, radius float64, c Color) {
	q.prims = append(q.prims, Primitive{Kind: SolidCircleKind, Vertices: [3]mgl64.Vec3{center}, Normal: n, Size: radius, Color: c})
}

func (q *Queue) DrawAABB(min, max mgl64.Vec3, c Color) {
	q.prims = append(q.prims, Primitive{Kind: AABBKind, Vertices: [3]mgl64.Vec3{min, max}, Color: c})
}

// Recorder is a Backend keeping everything it receives.
type Recorder struct {
	Batches [][]Primitive
	Lines   []string
}

func (r *Recorder) Render(prims []Primitive) {
	batch := make([]Primitive, len(prims))
	copy(batch, prims)
	r.Batches = append(r.Batches, batch)
}

func (r *Recorder) Text(line string) {
	r.Lines = append(r.Lines, line)
}

// Count returns how many recorded primitives are of kind k.
func (r *Recorder) Count(k Kind) int {
	n := 0
	for _, batch := range r.Batches {
		for _, p := range batch {
			if p.Kind == k {
				n++
			}
		}
	}
	return n
}

// Reset forgets everything recorded.
func (r *Recorder) Reset() {
	r.Batches = r.Batches[:0]
	r.Lines = r.Lines[:0]
}
