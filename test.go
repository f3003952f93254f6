package testbed

import (
	"math/rand"

	"github.com/akmonengine/testbed/actor"
	"github.com/akmonengine/testbed/draw"
	"github.com/akmonengine/testbed/instrument"
	"github.com/akmonengine/testbed/mesh"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MeshKind names the meshes every session builds.
type MeshKind int

const (
	GridMesh MeshKind = iota
	TerrainMesh
	ClothMesh
	maxMeshes
)

// StepProfile is the profiler record of the world step.
const StepProfile = "Step"

// Test is one session of the harness: a World, the collaborators it draws
// into and the drag gesture state. It is not safe for concurrent use; frames
// and pointer events must be delivered from one goroutine.
type Test struct {
	id       uuid.UUID
	world    World
	renderer Renderer
	profiler Profiler
	counters *instrument.Counters
	settings *Settings
	logger   *zap.Logger
	rng      *rand.Rand

	meshes [maxMeshes]*mesh.Mesh

	hit  RayHit
	drag *drag
}

// Option configures a Test.
type Option func(t *Test)

// WithRenderer sets the renderer. The default queue renders nowhere.
func WithRenderer(r Renderer) Option {
	return func(t *Test) { t.renderer = r }
}

// WithProfiler sets the profiler.
func WithProfiler(p Profiler) Option {
	return func(t *Test) { t.profiler = p }
}

// WithCounters shares counters with the World, which writes them during the step.
func WithCounters(c *instrument.Counters) Option {
	return func(t *Test) { t.counters = c }
}

// WithSettings makes the session read s, which the caller may keep editing between frames.
func WithSettings(s *Settings) Option {
	return func(t *Test) { t.settings = s }
}

// WithLogger sets the logger, zap.NewNop by default.
func WithLogger(l *zap.Logger) Option {
	return func(t *Test) { t.logger = l }
}

// WithRand sets the source of the terrain elevations.
func WithRand(rng *rand.Rand) Option {
	return func(t *Test) { t.rng = rng }
}

// New starts a session on world. It resets the counters, installs the no-op
// contact listener, watches for the drag joint being destroyed under it and
// builds the session meshes.
func New(world World, opts ...Option) *Test {
	t := &Test{
		id:    uuid.New(),
		world: world,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.renderer == nil {
		t.renderer = draw.NewQueue(nil)
	}
	if t.profiler == nil {
		t.profiler = instrument.NewProfiler()
	}
	if t.counters == nil {
		t.counters = &instrument.Counters{}
	}
	if t.settings == nil {
		s := DefaultSettings()
		t.settings = &s
	}
	if t.logger == nil {
		t.logger = zap.NewNop()
	}
	t.logger = t.logger.With(zap.Stringer("session", t.id))

	t.counters.Reset(t.settings.ConvexCache)
	t.world.SetContactListener(NopContactListener{})
	t.world.SetDestructionListener(dragGuard{t})

	t.meshes[GridMesh] = BuildGrid(50, 50, false, nil)
	t.meshes[TerrainMesh] = BuildGrid(50, 50, true, t.rng)
	t.meshes[ClothMesh] = BuildGrid(10, 10, false, nil)

	t.logger.Info("session started",
		zap.Float64("hertz", t.settings.Hertz),
		zap.Int("velocity_iterations", t.settings.VelocityIterations),
		zap.Int("position_iterations", t.settings.PositionIterations))
	return t
}

// ID identifies the session in logs.
func (t *Test) ID() uuid.UUID { return t.id }

func (t *Test) World() World                   { return t.world }
func (t *Test) Settings() *Settings            { return t.settings }
func (t *Test) Counters() *instrument.Counters { return t.counters }
func (t *Test) Logger() *zap.Logger            { return t.logger }

// Mesh returns a session mesh, nil after Close.
func (t *Test) Mesh(kind MeshKind) *mesh.Mesh {
	return t.meshes[kind]
}

// GroundBox returns a new 100×2×100 box, the usual floor of a scene.
func (t *Test) GroundBox() *actor.Box {
	return &actor.Box{HalfExtents: mgl64.Vec3{50, 1, 50}}
}

// UnitBox returns a new box of half extents 1.
func (t *Test) UnitBox() *actor.Box {
	return &actor.Box{HalfExtents: mgl64.Vec3{1, 1, 1}}
}

// SetContactListener routes the World contact events to l, nil restores the no-op listener.
func (t *Test) SetContactListener(l ContactListener) {
	if l == nil {
		l = NopContactListener{}
	}
	t.world.SetContactListener(l)
}

// Close ends the session: the drag pair is destroyed and the meshes released.
func (t *Test) Close() {
	t.endDrag()
	t.hit = RayHit{}
	for i := range t.meshes {
		t.meshes[i] = nil
	}
	t.logger.Info("session closed")
}

// Step runs one frame and returns the time step it simulated.
func (t *Test) Step() float64 {
	s := t.settings

	// The step is the only writer of most counters
	t.counters.Reset(s.ConvexCache)

	dt := t.timeStep()

	t.profiler.Begin(StepProfile)
	t.world.SetSleeping(s.Sleep)
	t.world.SetWarmStart(s.WarmStart)
	t.world.Step(dt, s.VelocityIterations, s.PositionIterations)
	t.profiler.End(StepProfile)

	t.renderer.Submit()
	t.renderer.SetFlags(t.drawFlags())
	t.world.DebugDraw(t.renderer)

	if t.drag != nil {
		body := t.hit.Shape.Body()
		n := body.WorldVector(t.hit.Normal)
		p := body.WorldPoint(t.hit.Point)
		t.renderer.DrawSolidCircle(n, p.Add(n.Mul(0.05)), 1, draw.White)
	}

	t.renderer.Submit()

	if s.DrawFaces {
		t.renderer.DrawFaces(t.world)
	}

	t.overlay()

	t.profiler.Clear()
	return dt
}

// timeStep is 1/Hertz, or 0 when the rate is 0 or the session is paused
// without a single step pending. A pending single step is consumed while
// paused, whatever the rate.
func (t *Test) timeStep() float64 {
	s := t.settings
	if s.Pause {
		if !s.SingleStep {
			return 0
		}
		s.SingleStep = false
	}
	if s.Hertz <= 0 {
		return 0
	}
	return 1 / s.Hertz
}

func (t *Test) drawFlags() draw.Flags {
	s := t.settings
	var flags draw.Flags
	set := func(on bool, f draw.Flags) {
		if on {
			flags |= f
		}
	}
	set(s.DrawBounds, draw.AABBsFlag)
	set(s.DrawVerticesEdges, draw.ShapesFlag)
	set(s.DrawCenterOfMasses, draw.CenterOfMassesFlag)
	set(s.DrawJoints, draw.JointsFlag)
	set(s.DrawContactPoints, draw.ContactPointsFlag)
	set(s.DrawContactNormals, draw.ContactNormalsFlag)
	set(s.DrawContactTangents, draw.ContactTangentsFlag)
	set(s.DrawContactAreas, draw.ContactAreasFlag)
	return flags
}

func (t *Test) overlay() {
	s := t.settings
	if s.Pause {
		t.renderer.Text("*PAUSED*")
	}

	if s.DrawStats {
		stats := t.counters.Snapshot()
		t.renderer.Text("Bodies %d", t.world.BodyCount())
		t.renderer.Text("Joints %d", t.world.JointCount())
		t.renderer.Text("Contacts %d", t.world.ContactCount())
		t.renderer.Text("GJK Calls %d", stats.GJKCalls)
		t.renderer.Text("GJK Iterations %d (%d) (%f)", stats.GJKIters, stats.GJKMaxIters, stats.AvgGJKIters())
		t.renderer.Text("Convex Calls %d", stats.ConvexCalls)
		t.renderer.Text("Convex Cache Hits %d (%f)", stats.ConvexCacheHits, stats.ConvexCacheHitRatio())
		t.renderer.Text("Frame Allocations %d (%d)", stats.AllocCalls, stats.MaxAllocCalls)
	}

	if s.DrawProfile {
		for _, r := range t.profiler.Records() {
			t.renderer.Text("%s %.4f (%.4f) [ms]", r.Name, r.ElapsedMS(), r.MaxElapsedMS())
		}
	}
}
