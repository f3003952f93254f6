// Package term renders the debug primitives of a session in a terminal. The
// view is orthographic, looking down -Z, one character cell per pixel.
package term

import (
	"math"

	"github.com/akmonengine/testbed/actor"
	"github.com/akmonengine/testbed/draw"
	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"
)

const circleSegments = 24

// Camera maps world space to cells. Scale is the number of columns per
// meter; a cell being about twice as tall as wide, rows get half of it.
type Camera struct {
	Center mgl64.Vec3
	Scale  float64
}

// DefaultCamera frames a 40 m wide area around y = 5.
func DefaultCamera() Camera {
	return Camera{Center: mgl64.Vec3{0, 5, 0}, Scale: 2}
}

// Backend implements draw.Backend on a tcell screen. Overlay lines are kept
// until Flush draws them over the primitives.
type Backend struct {
	screen tcell.Screen
	Camera Camera
	lines  []string
}

var _ draw.Backend = (*Backend)(nil)

func New(screen tcell.Screen, camera Camera) *Backend {
	return &Backend{screen: screen, Camera: camera}
}

// Clear blanks the screen before a frame.
func (b *Backend) Clear() {
	b.screen.Clear()
	b.lines = b.lines[:0]
}

func (b *Backend) Text(line string) {
	b.lines = append(b.lines, line)
}

// Flush draws the overlay lines and shows the frame.
func (b *Backend) Flush() {
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	for row, line := range b.lines {
		col := 0
		for _, r := range line {
			b.screen.SetContent(col, row, r, nil, style)
			col++
		}
	}
	b.screen.Show()
}

// Project returns the cell under world point p.
func (b *Backend) Project(p mgl64.Vec3) (int, int) {
	w, h := b.screen.Size()
	d := p.Sub(b.Camera.Center)
	x := float64(w)/2 + d.X()*b.Camera.Scale
	y := float64(h)/2 - d.Y()*b.Camera.Scale/2
	return int(math.Floor(x)), int(math.Floor(y))
}

// Unproject returns the world point at the center of cell (x, y) on the
// plane z, so a pointer ray runs from Unproject(x, y, far) to Unproject(x, y, -far).
func (b *Backend) Unproject(x, y int, z float64) mgl64.Vec3 {
	w, h := b.screen.Size()
	c := b.Camera.Center
	return mgl64.Vec3{
		c.X() + (float64(x)+0.5-float64(w)/2)/b.Camera.Scale,
		c.Y() - (float64(y)+0.5-float64(h)/2)*2/b.Camera.Scale,
		z,
	}
}

func (b *Backend) Render(prims []draw.Primitive) {
	for _, p := range prims {
		style := styleOf(p.Color)
		v := p.Vertices
		switch p.Kind {
		case draw.PointKind:
			b.plot(v[0], '*', style)
		case draw.SegmentKind:
			b.segment(v[0], v[1], '.', style)
		case draw.TriangleKind:
			b.segment(v[0], v[1], '.', style)
			b.segment(v[1], v[2], '.', style)
			b.segment(v[2], v[0], '.', style)
		case draw.SolidTriangleKind:
			b.fill(v[0], v[1], v[2], style)
		case draw.CircleKind:
			ring := circle(p.Normal, v[0], p.Size)
			for i := range ring {
				b.segment(ring[i], ring[(i+1)%len(ring)], 'o', style)
			}
		case draw.SolidCircleKind:
			ring := circle(p.Normal, v[0], p.Size)
			for i := range ring {
				b.fill(v[0], ring[i], ring[(i+1)%len(ring)], style)
			}
		case draw.AABBKind:
			b.box(v[0], v[1], style)
		}
	}
}

func (b *Backend) plot(p mgl64.Vec3, r rune, style tcell.Style) {
	x, y := b.Project(p)
	b.set(x, y, r, style)
}

func (b *Backend) set(x, y int, r rune, style tcell.Style) {
	w, h := b.screen.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return
	}
	b.screen.SetContent(x, y, r, nil, style)
}

// segment plots the cells between the projections of p and q (Bresenham).
func (b *Backend) segment(p, q mgl64.Vec3, r rune, style tcell.Style) {
	x0, y0 := b.Project(p)
	x1, y1 := b.Project(q)

	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := sign(x1-x0), sign(y1-y0)
	e := dx + dy
	for {
		b.set(x0, y0, r, style)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// fill plots the cells whose center lies in the projected triangle.
func (b *Backend) fill(p, q, s mgl64.Vec3, style tcell.Style) {
	ax, ay := b.Project(p)
	bx, by := b.Project(q)
	cx, cy := b.Project(s)

	area := cross(ax, ay, bx, by, cx, cy)
	if area == 0 {
		b.segment(p, q, '#', style)
		b.segment(q, s, '#', style)
		return
	}

	w, h := b.screen.Size()
	minX, maxX := max(0, min(ax, bx, cx)), min(w-1, max(ax, bx, cx))
	minY, maxY := max(0, min(ay, by, cy)), min(h-1, max(ay, by, cy))
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			w0 := cross(bx, by, cx, cy, x, y)
			w1 := cross(cx, cy, ax, ay, x, y)
			w2 := cross(ax, ay, bx, by, x, y)
			if area < 0 {
				w0, w1, w2 = -w0, -w1, -w2
			}
			if w0 >= 0 && w1 >= 0 && w2 >= 0 {
				b.set(x, y, '#', style)
			}
		}
	}
}

func (b *Backend) box(lo, hi mgl64.Vec3, style tcell.Style) {
	corner := func(i int) mgl64.Vec3 {
		var c mgl64.Vec3
		for k := 0; k < 3; k++ {
			if i&(1<<k) != 0 {
				c[k] = hi[k]
			} else {
				c[k] = lo[k]
			}
		}
		return c
	}
	for i := 0; i < 8; i++ {
		for k := 0; k < 3; k++ {
			if j := i | 1<<k; j != i {
				b.segment(corner(i), corner(j), '+', style)
			}
		}
	}
}

func circle(normal, center mgl64.Vec3, radius float64) []mgl64.Vec3 {
	if normal.LenSqr() < 1e-12 {
		normal = mgl64.Vec3{0, 0, 1}
	}
	t1, t2 := actor.TangentBasis(normal.Normalize())
	ring := make([]mgl64.Vec3, circleSegments)
	for i := range ring {
		angle := 2 * math.Pi * float64(i) / circleSegments
		offset := t1.Mul(math.Cos(angle)).Add(t2.Mul(math.Sin(angle))).Mul(radius)
		ring[i] = center.Add(offset)
	}
	return ring
}

func styleOf(c draw.Color) tcell.Style {
	return tcell.StyleDefault.Foreground(tcell.NewRGBColor(
		int32(c.R*255), int32(c.G*255), int32(c.B*255)))
}

func cross(ax, ay, bx, by, px, py int) int {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
