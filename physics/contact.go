package physics

import (
	"cmp"
	"slices"

	"github.com/akmonengine/testbed"
	"github.com/akmonengine/testbed/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

// pairKey identifies a pair of bodies whatever their order.
type pairKey struct {
	low, high uint64
}

func makePairKey(a, b *Body) pairKey {
	if b.id < a.id {
		a, b = b, a
	}
	return pairKey{low: a.id, high: b.id}
}

func (k pairKey) compare(other pairKey) int {
	if c := cmp.Compare(k.low, other.low); c != 0 {
		return c
	}
	return cmp.Compare(k.high, other.high)
}

// Contact is a pair of bodies found by the broad phase. It implements
// testbed.Contact while its bodies touch, and otherwise only caches the last
// GJK direction of the pair.
type Contact struct {
	key          pairKey
	bodyA, bodyB *Body
	sensor       bool

	// manifolds of the last narrow phase pass, normals from bodyA to bodyB
	manifolds []*constraint.ContactConstraint
	// axis is the last GJK direction: a separating axis or the warm start
	axis mgl64.Vec3

	// touching is set from BeginContact to EndContact
	touching bool
	enabled  bool

	seen      uint64 // step the broad phase last reported the pair
	touched   uint64 // step the pair last touched
	presolved uint64 // step of the last PreSolve
}

var _ testbed.Contact = (*Contact)(nil)

// newContact orders the pair so planes and meshes come first, then by id.
func newContact(key pairKey, a, b *Body) *Contact {
	if rank(b) < rank(a) || (rank(a) == rank(b) && b.id < a.id) {
		a, b = b, a
	}
	return &Contact{
		key:     key,
		bodyA:   a,
		bodyB:   b,
		sensor:  a.isSensor() || b.isSensor(),
		enabled: true,
	}
}

func rank(b *Body) int {
	if isUnbounded(b.shapes[0].geom) {
		return 0
	}
	return 1
}

func (c *Contact) BodyA() testbed.Body { return c.bodyA }
func (c *Contact) BodyB() testbed.Body { return c.bodyB }

// Normal is the normal of the first manifold, from BodyA toward BodyB.
func (c *Contact) Normal() mgl64.Vec3 {
	if len(c.manifolds) == 0 {
		return mgl64.Vec3{}
	}
	return c.manifolds[0].Normal
}

func (c *Contact) PointCount() int {
	n := 0
	for _, m := range c.manifolds {
		n += len(m.Points)
	}
	return n
}

// Manifolds returns the contact constraints of the last pass.
func (c *Contact) Manifolds() []*constraint.ContactConstraint { return c.manifolds }

func (c *Contact) IsTouching() bool { return c.touching }
func (c *Contact) IsSensor() bool   { return c.sensor }
func (c *Contact) IsEnabled() bool  { return c.enabled }

// live is false once a body of the pair is destroyed.
func (c *Contact) live() bool { return !c.bodyA.destroyed && !c.bodyB.destroyed }

// SetEnabled(false) from PreSolve keeps the solver off the contact for the
// current step. The flag is restored before the next PreSolve.
func (c *Contact) SetEnabled(enabled bool) {
	c.enabled = enabled
	for _, m := range c.manifolds {
		m.Disabled = !enabled
	}
}

// updateContacts folds a narrow phase pass into the contact set. Pairs
// touching for the first time begin, and moving bodies wake the sleeping
// bodies they touch.
func (w *World) updateContacts(candidates []*Contact) {
	for _, c := range candidates {
		if len(c.manifolds) == 0 {
			continue
		}
		c.touched = w.steps

		if !c.sensor {
			wakeTouching(c.bodyA, c.bodyB)
		}

		if !c.touching && c.live() {
			c.touching = true
			c.enabled = true
			w.counters.AddAlloc()
			w.notify(w.listener.BeginContact, c)
		}
	}
}

func wakeTouching(a, b *Body) {
	switch {
	case a.active() && b.typ == testbed.DynamicBody && !b.active():
		b.rb.Awake()
	case b.active() && a.typ == testbed.DynamicBody && !a.active():
		a.rb.Awake()
	}
}

// preSolve runs PreSolve once per touching contact and step, before the
// contact is first solved.
func (w *World) preSolve(candidates []*Contact) {
	for _, c := range candidates {
		if !c.touching || c.sensor || !c.live() || len(c.manifolds) == 0 || c.presolved == w.steps {
			continue
		}
		c.presolved = w.steps
		c.SetEnabled(true)
		w.notify(w.listener.PreSolve, c)
	}
}

// endContacts runs after the last pass of a step. Pairs that did not touch
// during the step end, except resting pairs whose bodies all sleep. Pairs
// the broad phase no longer reports are dropped from the cache.
func (w *World) endContacts() {
	for _, c := range w.sortedPairs() {
		switch {
		case c.touched == w.steps:
		case !c.live():
			// commit ends it
		case c.touching && !c.bodyA.active() && !c.bodyB.active():
			c.touched = w.steps
		case c.touching:
			c.touching = false
			c.manifolds = nil
			delete(w.pairs, c.key)
			w.notify(w.listener.EndContact, c)
		case c.seen != w.steps:
			delete(w.pairs, c.key)
		}
	}
}

func (w *World) sortedPairs() []*Contact {
	out := make([]*Contact, 0, len(w.pairs))
	for _, c := range w.pairs {
		out = append(out, c)
	}
	slices.SortFunc(out, func(x, y *Contact) int { return x.key.compare(y.key) })
	return out
}
