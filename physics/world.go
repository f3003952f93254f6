// Package physics is the reference World driven by the testbed harness: an
// XPBD rigid body solver with a spatial hash broad phase, GJK/EPA narrow
// phase, sleeping, target joints, contact events and debug drawing.
package physics

import (
	"fmt"
	"slices"

	"github.com/akmonengine/testbed"
	"github.com/akmonengine/testbed/actor"
	"github.com/akmonengine/testbed/constraint"
	"github.com/akmonengine/testbed/draw"
	"github.com/akmonengine/testbed/instrument"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// Profiler records of the step phases.
const (
	CollideProfile = "Collide"
	SolveProfile   = "Solve"
)

const (
	timeToSleep   = 0.1
	sleepVelocity = 0.05
)

// Config sets up a World. Zero fields take the DefaultConfig value, except
// Gravity which is used as given.
type Config struct {
	Gravity mgl64.Vec3
	// Workers is the number of goroutines integrating bodies and running the narrow phase
	Workers int
	// CellSize is the edge of a broad phase cell, Cells the number of hash buckets
	CellSize float64
	Cells    int

	Counters *instrument.Counters
	Profiler testbed.Profiler
	Logger   *zap.Logger
}

// DefaultConfig returns an earth gravity, single worker configuration.
func DefaultConfig() Config {
	return Config{
		Gravity:  mgl64.Vec3{0, -9.81, 0},
		Workers:  1,
		CellSize: 4,
		Cells:    4096,
	}
}

// World implements testbed.World. Its methods must be called from one goroutine.
type World struct {
	gravity  mgl64.Vec3
	workers  int
	counters *instrument.Counters
	profiler testbed.Profiler
	logger   *zap.Logger
	listener testbed.ContactListener
	goodbye  testbed.DestructionListener

	sleeping  bool
	warmStart bool

	bodies []*Body
	joints []*Joint
	// created while locked, added by commit
	newBodies []*Body
	newJoints []*Joint

	grid  *spatialGrid
	pairs map[pairKey]*Contact

	nextID uint64
	steps  uint64
	// locked is set while stepping and while a contact hook runs
	locked bool
	// dirty tells commit there are creations or destructions to apply
	dirty bool
}

var _ testbed.World = (*World)(nil)

// New returns an empty world.
func New(cfg Config) *World {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.CellSize <= 0 {
		cfg.CellSize = def.CellSize
	}
	if cfg.Cells <= 0 {
		cfg.Cells = def.Cells
	}
	if cfg.Counters == nil {
		cfg.Counters = &instrument.Counters{}
	}
	if cfg.Profiler == nil {
		cfg.Profiler = instrument.NewProfiler()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &World{
		gravity:   cfg.Gravity,
		workers:   cfg.Workers,
		counters:  cfg.Counters,
		profiler:  cfg.Profiler,
		logger:    cfg.Logger,
		listener:  testbed.NopContactListener{},
		goodbye:   testbed.NopDestructionListener{},
		sleeping:  true,
		warmStart: true,
		grid:      newSpatialGrid(cfg.CellSize, cfg.Cells),
		pairs:     make(map[pairKey]*Contact),
	}
}

// Counters returns the counters the world writes during a step.
func (w *World) Counters() *instrument.Counters { return w.counters }

// Gravity returns the gravity acceleration.
func (w *World) Gravity() mgl64.Vec3 { return w.gravity }

func (w *World) SetGravity(g mgl64.Vec3) { w.gravity = g }

func (w *World) SetWarmStart(enabled bool) { w.warmStart = enabled }

// SetSleeping toggles sleeping. Disabling it wakes every body.
func (w *World) SetSleeping(enabled bool) {
	w.sleeping = enabled
	if !enabled {
		w.wakeAll()
	}
}

// SetContactListener routes the contact events to l, nil ignores them.
func (w *World) SetContactListener(l testbed.ContactListener) {
	if l == nil {
		l = testbed.NopContactListener{}
	}
	w.listener = l
}

// SetDestructionListener routes the joints DestroyBody takes down to l, nil
// restores the no-op listener.
func (w *World) SetDestructionListener(l testbed.DestructionListener) {
	if l == nil {
		l = testbed.NopDestructionListener{}
	}
	w.goodbye = l
}

// IsLocked reports whether the world is stepping or running a contact hook.
// Creations and destructions made meanwhile are applied when the step ends.
func (w *World) IsLocked() bool { return w.locked }

// CreateBody adds a body without shapes.
func (w *World) CreateBody(def testbed.BodyDef) testbed.Body {
	w.nextID++
	b := newBody(w, w.nextID, def)
	w.counters.AddAlloc()

	if w.locked {
		w.newBodies = append(w.newBodies, b)
		w.dirty = true
	} else {
		w.bodies = append(w.bodies, b)
	}

	w.logger.Debug("body created", zap.Uint64("body", b.id), zap.Stringer("type", b.typ))
	return b
}

// DestroyBody removes b with its joints. Its touching contacts end.
func (w *World) DestroyBody(body testbed.Body) {
	b := w.own(body)
	if b.destroyed {
		panic(fmt.Sprintf("physics: body %d destroyed twice", b.id))
	}
	b.destroyed = true

	for _, j := range slices.Clone(b.joints) {
		w.DestroyJoint(j)
		w.goodbye.SayGoodbyeToJoint(j, b)
	}

	w.dirty = true
	w.logger.Debug("body destroyed", zap.Uint64("body", b.id))
	if !w.locked {
		w.commit()
	}
}

// CreateTargetJoint pulls a point of def.BodyB toward def.Target. The joint
// starts at the body point under def.Target.
func (w *World) CreateTargetJoint(def testbed.TargetJointDef) testbed.TargetJoint {
	a, b := w.own(def.BodyA), w.own(def.BodyB)
	if a.destroyed || b.destroyed {
		panic("physics: joint attached to a destroyed body")
	}

	j := &Joint{
		world:      w,
		bodyA:      a,
		bodyB:      b,
		constraint: constraint.NewTargetConstraint(a.rb, b.rb, def.Target, def.MaxForce),
	}
	a.joints = append(a.joints, j)
	b.joints = append(b.joints, j)
	b.rb.Awake()
	w.counters.AddAlloc()

	if w.locked {
		w.newJoints = append(w.newJoints, j)
		w.dirty = true
	} else {
		w.joints = append(w.joints, j)
	}

	w.logger.Debug("joint created",
		zap.Uint64("body_a", a.id),
		zap.Uint64("body_b", b.id),
		zap.Float64("max_force", def.MaxForce))
	return j
}

// DestroyJoint removes j. Destroying a joint twice panics.
func (w *World) DestroyJoint(joint testbed.Joint) {
	j, ok := joint.(*Joint)
	if !ok || j == nil || j.world != w {
		panic(fmt.Sprintf("physics: joint %T does not belong to this world", joint))
	}
	if j.destroyed {
		panic("physics: joint destroyed twice")
	}
	j.destroyed = true
	j.bodyA.detach(j)
	j.bodyB.detach(j)

	w.dirty = true
	w.logger.Debug("joint destroyed", zap.Uint64("body_a", j.bodyA.id), zap.Uint64("body_b", j.bodyB.id))
	if !w.locked {
		w.commit()
	}
}

func (w *World) own(body testbed.Body) *Body {
	b, ok := body.(*Body)
	if !ok || b == nil || b.world != w {
		panic(fmt.Sprintf("physics: body %T does not belong to this world", body))
	}
	return b
}

// BodyCount counts the live bodies, anchors included.
func (w *World) BodyCount() int {
	n := 0
	for _, list := range [][]*Body{w.bodies, w.newBodies} {
		for _, b := range list {
			if !b.destroyed {
				n++
			}
		}
	}
	return n
}

func (w *World) JointCount() int {
	n := 0
	for _, list := range [][]*Joint{w.joints, w.newJoints} {
		for _, j := range list {
			if !j.destroyed {
				n++
			}
		}
	}
	return n
}

// ContactCount counts the touching pairs.
func (w *World) ContactCount() int {
	n := 0
	for _, c := range w.pairs {
		if c.touching {
			n++
		}
	}
	return n
}

// Bodies returns the live bodies in creation order.
func (w *World) Bodies() []*Body {
	out := make([]*Body, 0, len(w.bodies))
	for _, b := range w.bodies {
		if !b.destroyed {
			out = append(out, b)
		}
	}
	return out
}

// Contacts returns the touching pairs ordered by body ids.
func (w *World) Contacts() []*Contact {
	var out []*Contact
	for _, c := range w.sortedPairs() {
		if c.touching {
			out = append(out, c)
		}
	}
	return out
}

// Step advances the world by dt in max(1, positionIterations) substeps, each
// running max(1, velocityIterations) velocity passes.
func (w *World) Step(dt float64, velocityIterations, positionIterations int) {
	if w.locked {
		panic("physics: Step called while the world is locked")
	}
	w.locked = true
	w.steps++

	if !w.sleeping {
		w.wakeAll()
	}

	if dt > 0 {
		substeps := max(1, positionIterations)
		h := dt / float64(substeps)

		for range substeps {
			w.integrate(h)
			constraints := w.detectCollision(true)
			w.solve(h, constraints, max(1, velocityIterations))
			if w.sleeping {
				w.trySleep(h)
			}
		}
	} else {
		w.refreshBounds()
		w.detectCollision(false)
	}

	w.endContacts()
	w.locked = false
	w.commit()
}

func (w *World) integrate(h float64) {
	task(w.workers, w.bodies, func(b *Body) {
		b.rb.Integrate(h, w.gravity)
	})
}

func (w *World) refreshBounds() {
	task(w.workers, w.bodies, func(b *Body) {
		if b.rb.Shape != nil {
			b.rb.Shape.ComputeAABB(b.rb.Transform)
		}
	})
}

// detectCollision runs one broad and narrow phase pass, folds the results in
// the contact set and returns the constraints to solve. PreSolve only runs
// when the pass is followed by a solve.
func (w *World) detectCollision(solving bool) []constraint.Constraint {
	w.profiler.Begin(CollideProfile)
	candidates := w.broadPhase()
	w.narrowPhase(candidates)
	w.profiler.End(CollideProfile)

	w.updateContacts(candidates)
	if !solving {
		return nil
	}
	w.preSolve(candidates)

	var constraints []constraint.Constraint
	for _, j := range w.joints {
		if j.active() {
			constraints = append(constraints, j.constraint)
		}
	}
	for _, c := range candidates {
		if c.sensor || !c.live() {
			continue
		}
		for _, m := range c.manifolds {
			m.Disabled = !c.enabled
			constraints = append(constraints, m)
		}
	}
	return constraints
}

// solve corrects the positions, derives the velocities from them and then
// applies restitution and friction. Constraints share bodies, so they are
// solved one after the other.
func (w *World) solve(h float64, constraints []constraint.Constraint, velocityIterations int) {
	w.profiler.Begin(SolveProfile)
	defer w.profiler.End(SolveProfile)

	for _, c := range constraints {
		c.SolvePosition(h)
	}

	task(w.workers, w.bodies, func(b *Body) {
		b.rb.Update(h)
	})

	for range velocityIterations {
		for _, c := range constraints {
			c.SolveVelocity(h)
		}
	}
}

// trySleep puts to sleep the bodies slower than sleepVelocity for timeToSleep.
// Bodies held by a joint stay awake.
func (w *World) trySleep(h float64) {
	for _, b := range w.bodies {
		if b.typ != testbed.DynamicBody {
			continue
		}
		if len(b.joints) > 0 {
			b.rb.Awake()
			continue
		}
		b.rb.TrySleep(h, timeToSleep, sleepVelocity)
	}
}

func (w *World) wakeAll() {
	for _, b := range w.bodies {
		b.rb.Awake()
	}
}

// commit applies the creations and destructions queued while locked. The
// contacts of destroyed bodies end here, which may queue more work.
func (w *World) commit() {
	for w.dirty {
		w.dirty = false

		w.bodies = append(w.bodies, w.newBodies...)
		w.newBodies = w.newBodies[:0]
		w.joints = append(w.joints, w.newJoints...)
		w.newJoints = w.newJoints[:0]

		w.bodies = slices.DeleteFunc(w.bodies, func(b *Body) bool { return b.destroyed })
		w.joints = slices.DeleteFunc(w.joints, func(j *Joint) bool { return j.destroyed })

		for _, c := range w.sortedPairs() {
			if c.live() {
				continue
			}
			delete(w.pairs, c.key)
			if c.touching {
				c.touching = false
				w.notify(w.listener.EndContact, c)
			}
		}
	}
}

// notify runs a contact hook with the world locked.
func (w *World) notify(hook func(testbed.Contact), c *Contact) {
	locked := w.locked
	w.locked = true
	hook(c)
	w.locked = locked
}

// DebugDraw emits the primitives selected by d.Flags().
func (w *World) DebugDraw(d draw.Drawer) {
	flags := d.Flags()

	for _, b := range w.bodies {
		if b.destroyed {
			continue
		}
		if flags.Has(draw.ShapesFlag) {
			for _, s := range b.shapes {
				drawShape(d, s.geom, b.rb.Transform, b.color())
			}
		}
		if flags.Has(draw.AABBsFlag) {
			for _, s := range b.shapes {
				if _, ok := s.geom.(*actor.Plane); ok {
					continue
				}
				box := s.geom.GetAABB()
				d.DrawAABB(box.Min, box.Max, draw.Gray)
			}
		}
		if flags.Has(draw.CenterOfMassesFlag) && len(b.shapes) > 0 {
			drawFrame(d, b.rb.Transform)
		}
	}

	if flags.Has(draw.JointsFlag) {
		for _, j := range w.joints {
			if !j.destroyed {
				drawJoint(d, j)
			}
		}
	}

	const contactFlags = draw.ContactPointsFlag | draw.ContactNormalsFlag | draw.ContactTangentsFlag | draw.ContactAreasFlag
	if flags&contactFlags != 0 {
		for _, c := range w.Contacts() {
			for _, m := range c.manifolds {
				drawManifold(d, flags, m)
			}
		}
	}
}

// DrawFaces emits the solid faces of every shape.
func (w *World) DrawFaces(d draw.Drawer) {
	for _, b := range w.bodies {
		if b.destroyed {
			continue
		}
		for _, s := range b.shapes {
			drawFaces(d, s.geom, b.rb.Transform, b.color())
		}
	}
}
