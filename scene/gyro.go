package scene

import (
	"math"

	"github.com/akmonengine/testbed"
	"github.com/akmonengine/testbed/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const GyroName = "gyro"

// Gyro spins a box rotor with a cylinder hub in zero gravity, showing the
// gyroscopic term of the integrator: the spin axis precesses instead of
// staying put.
type Gyro struct {
	*testbed.Test
	Rotor testbed.Body
}

func NewGyro(t *testbed.Test) Scene {
	w := t.World()

	ground := w.CreateBody(testbed.BodyDef{Type: testbed.StaticBody})
	ground.CreateShape(testbed.ShapeDef{Shape: t.GroundBox()})

	rotor := w.CreateBody(testbed.BodyDef{
		Type:            testbed.DynamicBody,
		Position:        mgl64.Vec3{0, 10, 0},
		Orientation:     mgl64.QuatRotate(0.5*math.Pi, mgl64.Vec3{1, 0, 0}),
		AngularVelocity: mgl64.Vec3{0, 0, 4 * math.Pi},
	})
	rotor.CreateShape(testbed.ShapeDef{
		Shape:   &actor.Box{HalfExtents: mgl64.Vec3{1, 0.5, 7}},
		Density: 0.1,
	})
	rotor.CreateShape(testbed.ShapeDef{
		Shape:   &actor.Cylinder{Radius: 0.95, Height: 4},
		Density: 0.2,
	})

	w.SetGravity(mgl64.Vec3{})
	return &Gyro{Test: t, Rotor: rotor}
}

func (g *Gyro) Name() string { return GyroName }
