package physics

import (
	"github.com/akmonengine/testbed"
	"github.com/go-gl/mathgl/mgl64"
)

// RayCastSingle returns the shape hit nearest to p1 on the segment p1→p2.
// Sensors are ignored; on a tie the shape created first wins.
func (w *World) RayCastSingle(p1, p2 mgl64.Vec3) (testbed.RayCastOutput, bool) {
	var best testbed.RayCastOutput
	found := false

	for _, b := range w.bodies {
		if b.destroyed {
			continue
		}
		for _, s := range b.shapes {
			if s.sensor {
				continue
			}
			hit, ok := s.geom.RayCast(p1, p2, b.rb.Transform)
			if !ok || hit.Fraction < 0 || hit.Fraction > 1 {
				continue
			}
			if found && hit.Fraction >= best.Fraction {
				continue
			}
			best = testbed.RayCastOutput{
				Shape:    s,
				Point:    hit.Point,
				Normal:   hit.Normal,
				Fraction: hit.Fraction,
			}
			found = true
		}
	}
	return best, found
}
