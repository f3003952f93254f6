package testbed

import (
	"fmt"

	"github.com/akmonengine/testbed/actor"
	"github.com/akmonengine/testbed/draw"
	"github.com/akmonengine/testbed/instrument"
	"github.com/go-gl/mathgl/mgl64"
)

// calls is the ordered log shared by the fakes of one test.
type calls []string

func (c *calls) add(format string, args ...any) {
	*c = append(*c, fmt.Sprintf(format, args...))
}

type stepCall struct {
	dt       float64
	vel, pos int
	// counters as the world saw them when the step started
	stats instrument.Stats
}

type fakeShape struct {
	body *fakeBody
}

func (s *fakeShape) Body() Body                     { return s.body }
func (s *fakeShape) Geometry() actor.ShapeInterface { return nil }

type fakeBody struct {
	typ       BodyType
	transform actor.Transform
	mass      float64
	awake     bool
	shapes    []Shape
	destroyed bool
}

func newFakeBody(position mgl64.Vec3, mass float64) *fakeBody {
	return &fakeBody{
		typ:       DynamicBody,
		transform: actor.NewTransformAt(position, mgl64.QuatIdent()),
		mass:      mass,
	}
}

func (b *fakeBody) Type() BodyType { return b.typ }
func (b *fakeBody) CreateShape(def ShapeDef) Shape {
	s := &fakeShape{body: b}
	b.shapes = append(b.shapes, s)
	return s
}
func (b *fakeBody) Shapes() []Shape                          { return b.shapes }
func (b *fakeBody) Mass() float64                            { return b.mass }
func (b *fakeBody) SetAwake(awake bool)                      { b.awake = awake }
func (b *fakeBody) IsAwake() bool                            { return b.awake }
func (b *fakeBody) Transform() actor.Transform               { return b.transform }
func (b *fakeBody) WorldPoint(p mgl64.Vec3) mgl64.Vec3       { return b.transform.Point(p) }
func (b *fakeBody) LocalPoint(p mgl64.Vec3) mgl64.Vec3       { return b.transform.InversePoint(p) }
func (b *fakeBody) WorldVector(v mgl64.Vec3) mgl64.Vec3      { return b.transform.Vector(v) }
func (b *fakeBody) LocalVector(v mgl64.Vec3) mgl64.Vec3      { return b.transform.InverseVector(v) }
func (b *fakeBody) moveTo(position mgl64.Vec3, q mgl64.Quat) { b.transform = actor.NewTransformAt(position, q) }

type fakeJoint struct {
	a, b      Body
	target    mgl64.Vec3
	targets   []mgl64.Vec3
	maxForce  float64
	destroyed bool
}

func (j *fakeJoint) BodyA() Body        { return j.a }
func (j *fakeJoint) BodyB() Body        { return j.b }
func (j *fakeJoint) Target() mgl64.Vec3 { return j.target }
func (j *fakeJoint) MaxForce() float64  { return j.maxForce }
func (j *fakeJoint) SetTarget(target mgl64.Vec3) {
	j.target = target
	j.targets = append(j.targets, target)
}

// fakeWorld records what the harness asks of it. rayCast answers RayCastSingle.
type fakeWorld struct {
	log      *calls
	counters *instrument.Counters

	bodies   []*fakeBody
	joints   []*fakeJoint
	steps    []stepCall
	sleeping bool
	warm     bool
	listener ContactListener
	goodbye  DestructionListener
	contacts int

	rayCast func(p1, p2 mgl64.Vec3) (RayCastOutput, bool)
}

func newFakeWorld(log *calls, counters *instrument.Counters) *fakeWorld {
	return &fakeWorld{log: log, counters: counters}
}

func (w *fakeWorld) CreateBody(def BodyDef) Body {
	b := &fakeBody{typ: def.Type, transform: actor.NewTransformAt(def.Position, def.Orientation)}
	w.bodies = append(w.bodies, b)
	w.log.add("create body")
	return b
}

func (w *fakeWorld) DestroyBody(body Body) {
	b := body.(*fakeBody)
	if b.destroyed {
		panic("body destroyed twice")
	}
	b.destroyed = true
	w.log.add("destroy body")

	for _, j := range w.joints {
		if !j.destroyed && (j.a == body || j.b == body) {
			w.DestroyJoint(j)
			w.goodbye.SayGoodbyeToJoint(j, body)
		}
	}
}

func (w *fakeWorld) CreateTargetJoint(def TargetJointDef) TargetJoint {
	j := &fakeJoint{a: def.BodyA, b: def.BodyB, target: def.Target, maxForce: def.MaxForce}
	w.joints = append(w.joints, j)
	w.log.add("create joint")
	return j
}

func (w *fakeWorld) DestroyJoint(joint Joint) {
	j := joint.(*fakeJoint)
	if j.destroyed {
		panic("joint destroyed twice")
	}
	j.destroyed = true
	w.log.add("destroy joint")
}

func (w *fakeWorld) RayCastSingle(p1, p2 mgl64.Vec3) (RayCastOutput, bool) {
	w.log.add("ray cast")
	if w.rayCast == nil {
		return RayCastOutput{}, false
	}
	return w.rayCast(p1, p2)
}

func (w *fakeWorld) Step(dt float64, vel, pos int) {
	call := stepCall{dt: dt, vel: vel, pos: pos}
	if w.counters != nil {
		call.stats = w.counters.Snapshot()
		// The step is where the counters get written
		w.counters.AddGJK(3)
		w.counters.AddConvex(true)
	}
	w.steps = append(w.steps, call)
	w.log.add("step %v", dt)
}

func (w *fakeWorld) SetSleeping(enabled bool) {
	w.sleeping = enabled
	w.log.add("sleeping %v", enabled)
}

func (w *fakeWorld) SetWarmStart(enabled bool) {
	w.warm = enabled
	w.log.add("warm start %v", enabled)
}

func (w *fakeWorld) SetGravity(mgl64.Vec3) {}

func (w *fakeWorld) SetContactListener(l ContactListener) { w.listener = l }

func (w *fakeWorld) SetDestructionListener(l DestructionListener) { w.goodbye = l }

func (w *fakeWorld) DebugDraw(d draw.Drawer) {
	w.log.add("debug draw %d", d.Flags())
	d.DrawPoint(mgl64.Vec3{}, 1, draw.Red)
}

func (w *fakeWorld) DrawFaces(d draw.Drawer) {
	w.log.add("faces")
}

func (w *fakeWorld) BodyCount() int {
	n := 0
	for _, b := range w.bodies {
		if !b.destroyed {
			n++
		}
	}
	return n
}

func (w *fakeWorld) JointCount() int {
	n := 0
	for _, j := range w.joints {
		if !j.destroyed {
			n++
		}
	}
	return n
}

func (w *fakeWorld) ContactCount() int { return w.contacts }

// liveAnchors counts the anchor bodies created by the harness that still exist.
func (w *fakeWorld) liveAnchors() int {
	n := 0
	for _, j := range w.joints {
		if !j.a.(*fakeBody).destroyed {
			n++
		}
	}
	return n
}

// fakeRenderer logs the calls of the frame driver into the shared log.
type fakeRenderer struct {
	log     *calls
	flags   draw.Flags
	pending int
	circles []circle
	lines   []string
}

type circle struct {
	normal, center mgl64.Vec3
	radius         float64
	color          draw.Color
}

func (r *fakeRenderer) Flags() draw.Flags     { return r.flags }
func (r *fakeRenderer) SetFlags(f draw.Flags) { r.flags = f; r.log.add("set flags %d", f) }
func (r *fakeRenderer) Submit()               { r.log.add("submit %d", r.pending); r.pending = 0 }
func (r *fakeRenderer) DrawFaces(src draw.FaceSource) {
	r.log.add("draw faces")
	src.DrawFaces(r)
}
func (r *fakeRenderer) Text(format string, args ...any) {
	r.lines = append(r.lines, fmt.Sprintf(format, args...))
}
func (r *fakeRenderer) DrawPoint(mgl64.Vec3, float64, draw.Color)                     { r.pending++ }
func (r *fakeRenderer) DrawSegment(a, b mgl64.Vec3, c draw.Color)                     { r.pending++ }
func (r *fakeRenderer) DrawTriangle(a, b, v mgl64.Vec3, c draw.Color)                 { r.pending++ }
func (r *fakeRenderer) DrawSolidTriangle(n, a, b, v mgl64.Vec3, c draw.Color)         { r.pending++ }
func (r *fakeRenderer) DrawCircle(n, center mgl64.Vec3, radius float64, c draw.Color) { r.pending++ }
func (r *fakeRenderer) DrawSolidCircle(n, center mgl64.Vec3, radius float64, c draw.Color) {
	r.pending++
	r.circles = append(r.circles, circle{n, center, radius, c})
	r.log.add("solid circle")
}
func (r *fakeRenderer) DrawAABB(min, max mgl64.Vec3, c draw.Color) { r.pending++ }

// harness wires a Test to fakes sharing one log.
type harness struct {
	log      *calls
	world    *fakeWorld
	renderer *fakeRenderer
	profiler *instrument.Profiler
	counters *instrument.Counters
	settings *Settings
	test     *Test
}

func newHarness(opts ...Option) *harness {
	h := &harness{
		log:      &calls{},
		profiler: instrument.NewProfiler(),
		counters: &instrument.Counters{},
	}
	s := DefaultSettings()
	h.settings = &s
	h.world = newFakeWorld(h.log, h.counters)
	h.renderer = &fakeRenderer{log: h.log}

	all := append([]Option{
		WithRenderer(h.renderer),
		WithProfiler(h.profiler),
		WithCounters(h.counters),
		WithSettings(h.settings),
	}, opts...)
	h.test = New(h.world, all...)
	*h.log = (*h.log)[:0]
	return h
}

// hitAt makes every ray cast hit body at the given fraction of the ray.
func (h *harness) hitAt(body *fakeBody, fraction float64, normal mgl64.Vec3) {
	shape := body.CreateShape(ShapeDef{})
	h.world.rayCast = func(p1, p2 mgl64.Vec3) (RayCastOutput, bool) {
		return RayCastOutput{
			Shape:    shape,
			Point:    p1.Mul(1 - fraction).Add(p2.Mul(fraction)),
			Normal:   normal,
			Fraction: fraction,
		}, true
	}
}
