package term

import (
	"testing"

	"github.com/akmonengine/testbed/draw"
	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) (*Backend, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(40, 20)
	t.Cleanup(screen.Fini)
	return New(screen, Camera{Scale: 1}), screen
}

func runeAt(screen tcell.Screen, x, y int) rune {
	r, _, _, _ := screen.GetContent(x, y)
	return r
}

func TestProject(t *testing.T) {
	b, _ := newBackend(t)

	x, y := b.Project(mgl64.Vec3{})
	assert.Equal(t, 20, x)
	assert.Equal(t, 10, y)

	x, y = b.Project(mgl64.Vec3{2, 4, -7})
	assert.Equal(t, 22, x)
	assert.Equal(t, 8, y, "rows count half a meter")

	for _, cell := range [][2]int{{0, 0}, {20, 10}, {39, 19}, {7, 13}} {
		p := b.Unproject(cell[0], cell[1], 3)
		assert.Equal(t, 3.0, p.Z())
		x, y := b.Project(p)
		assert.Equal(t, cell, [2]int{x, y})
	}
}

func TestRender_Primitives(t *testing.T) {
	b, screen := newBackend(t)
	q := draw.NewQueue(b)

	q.DrawPoint(mgl64.Vec3{}, 4, draw.Red)
	q.DrawSegment(mgl64.Vec3{-5, 4, 0}, mgl64.Vec3{5, 4, 0}, draw.White)
	q.DrawSolidTriangle(mgl64.Vec3{0, 0, 1}, mgl64.Vec3{10, -4, 0}, mgl64.Vec3{16, -4, 0}, mgl64.Vec3{10, -8, 0}, draw.Green)
	q.DrawAABB(mgl64.Vec3{-12, -2, -1}, mgl64.Vec3{-8, 2, 1}, draw.Gray)
	q.Submit()
	b.Flush()

	assert.Equal(t, '*', runeAt(screen, 20, 10))
	_, style, _, _ := screen.GetContent(20, 10)
	fg, _, _ := style.Decompose()
	assert.Equal(t, tcell.NewRGBColor(255, 0, 0), fg)

	for x := 15; x <= 25; x++ {
		assert.Equal(t, '.', runeAt(screen, x, 8), "segment cell %d", x)
	}
	assert.Equal(t, ' ', runeAt(screen, 26, 8))

	assert.Equal(t, '#', runeAt(screen, 31, 12), "inside the solid triangle")

	assert.Equal(t, '+', runeAt(screen, 8, 11))
	assert.Equal(t, '+', runeAt(screen, 12, 9))
	assert.Equal(t, ' ', runeAt(screen, 10, 10), "bounds are hollow")
}

func TestRender_Circles(t *testing.T) {
	b, screen := newBackend(t)

	b.Render([]draw.Primitive{
		{Kind: draw.CircleKind, Vertices: [3]mgl64.Vec3{{-10, 0, 0}}, Normal: mgl64.Vec3{0, 0, 1}, Size: 4, Color: draw.White},
		{Kind: draw.SolidCircleKind, Vertices: [3]mgl64.Vec3{{10, 0, 0}}, Normal: mgl64.Vec3{0, 0, 1}, Size: 4, Color: draw.White},
	})

	assert.Equal(t, ' ', runeAt(screen, 10, 10), "circle outlines are hollow")
	assert.Equal(t, 'o', runeAt(screen, 14, 10))
	assert.Equal(t, '#', runeAt(screen, 30, 10))
}

func TestRender_OffScreen(t *testing.T) {
	b, _ := newBackend(t)
	assert.NotPanics(t, func() {
		b.Render([]draw.Primitive{
			{Kind: draw.PointKind, Vertices: [3]mgl64.Vec3{{1000, 1000, 0}}},
			{Kind: draw.SegmentKind, Vertices: [3]mgl64.Vec3{{-100, 0, 0}, {100, 0, 0}}},
			{Kind: draw.SolidTriangleKind, Vertices: [3]mgl64.Vec3{{-100, -100, 0}, {100, -100, 0}, {0, 100, 0}}},
		})
	})
}

func TestText_Overlay(t *testing.T) {
	b, screen := newBackend(t)
	q := draw.NewQueue(b)

	q.Text("Bodies %d", 3)
	q.Text("*PAUSED*")
	b.Flush()

	assert.Equal(t, 'B', runeAt(screen, 0, 0))
	assert.Equal(t, '3', runeAt(screen, 7, 0))
	assert.Equal(t, '*', runeAt(screen, 0, 1))

	b.Clear()
	b.Flush()
	assert.Equal(t, ' ', runeAt(screen, 0, 0), "Clear drops the overlay")
}
