// Package draw defines the debug-draw vocabulary shared by the physics world,
// the frame driver and the render backends.
package draw

import "github.com/go-gl/mathgl/mgl64"

// Flags selects which debug primitives the world emits.
type Flags uint32

const (
	ShapesFlag Flags = 1 << iota
	CenterOfMassesFlag
	JointsFlag
	ContactPointsFlag
	ContactNormalsFlag
	ContactTangentsFlag
	ContactAreasFlag
	AABBsFlag
)

// Has reports whether every bit of f is set.
func (flags Flags) Has(f Flags) bool {
	return flags&f == f
}

// Color is an RGBA color in [0,1].
type Color struct {
	R, G, B, A float32
}

var (
	White   = Color{1, 1, 1, 1}
	Black   = Color{0, 0, 0, 1}
	Red     = Color{1, 0, 0, 1}
	Green   = Color{0, 1, 0, 1}
	Blue    = Color{0, 0, 1, 1}
	Yellow  = Color{1, 1, 0, 1}
	Pink    = Color{1, 0, 1, 1}
	Gray    = Color{0.5, 0.5, 0.5, 1}
	Cyan    = Color{0, 1, 1, 1}
	Orange  = Color{1, 0.5, 0, 1}
	Sleepy  = Color{0.5, 0.5, 0.8, 1}
	Static  = Color{0.6, 0.9, 0.6, 1}
	Dynamic = Color{0.9, 0.7, 0.7, 1}
)

// Drawer receives debug primitives. Normals are unit vectors orienting
// circles and solid triangles.
type Drawer interface {
	Flags() Flags
	DrawPoint(p mgl64.Vec3, size float64, c Color)
	DrawSegment(a, b mgl64.Vec3, c Color)
	DrawTriangle(a, b, v mgl64.Vec3, c Color)
	DrawSolidTriangle(n, a, b, v mgl64.Vec3, c Color)
	DrawCircle(n, center mgl64.Vec3, radius float64, c Color)
	DrawSolidCircle(n, center mgl64.Vec3, radius float64, c Color)
	DrawAABB(min, max mgl64.Vec3, c Color)
}

// FaceSource emits the solid geometry of a scene for a full mesh draw pass.
type FaceSource interface {
	DrawFaces(d Drawer)
}
