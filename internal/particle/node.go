package particle

import (
	"linux-particleengine/internal/batch"
	"linux-particleengine/internal/tsort"
	"linux-particleengine/internal/utils"

	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Infinite is the lifetime of a node that never expires.
var Infinite = math32.Inf(1)

// ParentState is what a node reads from its parent each tick. Once the
// node is orphaned it holds the parent's last transform with PrevGlobal
// equal to Global, so the node stops moving.
type ParentState struct {
	Global     Transform
	PrevGlobal Transform
}

// Node is one live instance of a NodeDef: a particle pool, its emitters
// and a link to the particle it was spawned from.
type Node struct {
	def       *NodeDef
	container *Container
	particles *Manager
	emitters  []emitterState
	lifetime  float32
	age       float32

	parent      *Particle
	owner       *Subsystem
	parentState ParentState
	orphaned    bool
	dead        bool

	// origin is the node whose particle spawned this one. spawned counts
	// this node's own live offspring.
	origin  *Node
	spawned int

	prev, next         *Node
	instPrev, instNext *Node

	kv   []tsort.KeyValue
	beam []rl.Vector3
}

func (n *Node) Def() *NodeDef            { return n.def }
func (n *Node) Particles() *Manager      { return n.particles }
func (n *Node) Len() int                 { return n.particles.Len() }
func (n *Node) Lifetime() float32        { return n.lifetime }
func (n *Node) Age() float32             { return n.age }
func (n *Node) Parent() *Particle        { return n.parent }
func (n *Node) Orphaned() bool           { return n.orphaned }
func (n *Node) Spawned() int             { return n.spawned }
func (n *Node) ParentState() ParentState { return n.parentState }
func (n *Node) Next() *Node              { return n.next }
func (n *Node) system() *System          { return n.container.system }
func (n *Node) Container() *Container    { return n.container }

// Each calls fn for every live particle in current order.
func (n *Node) Each(fn func(p *Particle)) {
	for _, s := range n.particles.Live() {
		fn(n.particles.Slot(s))
	}
}

// Dead reports whether the node's delete mode says it should be torn
// down. Teardown itself happens at the start of the node's next update.
func (n *Node) Dead() bool {
	if n.dead {
		return true
	}
	switch n.def.Delete {
	case DeleteWithParent:
		return n.orphaned
	case DeleteWhenEmpty:
		return n.lifetime <= 0 && n.particles.Len() == 0 && n.spawned == 0
	}
	return n.lifetime <= 0
}

func (n *Node) resolveParent() {
	if n.parent == nil {
		return
	}
	n.parentState = ParentState{
		Global:     n.parent.Global.mask(n.def.Detach),
		PrevGlobal: n.parent.PrevGlobal.mask(n.def.Detach),
	}
}

func (n *Node) orphan() {
	if n.parent != nil {
		last := n.parent.Global.mask(n.def.Detach)
		n.parentState = ParentState{Global: last, PrevGlobal: last}
	}
	n.parent = nil
	n.owner = nil
	n.prev, n.next = nil, nil
	n.orphaned = true
}

// release frees every particle, unlinks the node from its owner and
// container and tells the spawning node one offspring is gone.
func (n *Node) release() {
	n.particles.Clear(func(p *Particle) { p.Delete() })
	if n.owner != nil {
		n.owner.remove(n)
		n.owner = nil
	}
	n.container.remove(n)
	if n.origin != nil {
		n.origin.spawned--
		n.origin = nil
	}
	n.parent = nil
	n.dead = true
	n.system().nodes--
	utils.Debug("particle: %s/%s node released (orphaned=%t)", n.system().def.Name, n.def.Name, n.orphaned)
}

func (n *Node) update(dt float32, cam Camera) error {
	if n.Dead() {
		n.release()
		return nil
	}
	n.resolveParent()
	n.updateParticles(dt)
	if n.lifetime > 0 {
		if err := n.updateEmitters(dt); err != nil {
			return err
		}
	}
	n.lifetime -= dt
	n.age += dt
	return n.presort(cam)
}

func (n *Node) resetsAlpha() bool {
	for i := range n.def.Operators {
		switch n.def.Operators[i].Kind {
		case OpAlphaFade, OpOscillateAlpha:
			return true
		}
	}
	return false
}

func (n *Node) updateParticles(dt float32) {
	ops := n.def.Operators
	cons := n.def.Constraints
	resetAlpha := n.resetsAlpha()
	n.particles.Retain(func(p *Particle) bool {
		if resetAlpha {
			p.Alpha = p.InitialAlpha
		}
		for i := range ops {
			operators[ops[i].Kind](n, p, &ops[i], dt)
		}
		p.PreUpdate(dt)
		p.PostUpdate(dt)
		for i := range cons {
			constraints[cons[i].Kind](n, p, &cons[i], dt)
		}
		if p.Dead() {
			p.Delete()
			return false
		}
		p.UpdateGlobalTransform(n.parentState)
		return true
	})
}

func (n *Node) updateEmitters(dt float32) error {
	count := 0
	for i := range n.emitters {
		count += n.emitters[i].advance(n, dt)
	}
	if r := n.particles.Remaining(); count > r {
		count = r
	}
	if count <= 0 {
		return nil
	}

	var slots []int32
	if n.def.Sort == SortReverse {
		slots = n.particles.AllocFront(count)
	} else {
		slots = n.particles.AllocBack(count)
	}
	for _, s := range slots {
		if err := n.spawn(n.particles.Slot(s)); err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) spawn(p *Particle) error {
	if err := p.Init(n.container.Children(), n); err != nil {
		return err
	}
	sys := n.system()
	p.Seed = sys.rng.Float32()
	for i := range n.def.Initializers {
		in := &n.def.Initializers[i]
		initializers[in.Kind](n, p, in)
	}
	sys.override.apply(p)
	p.Global = n.parentState.Global.Compose(p.Local)
	p.PrevGlobal = n.parentState.PrevGlobal.Compose(p.Local)
	return nil
}

// presort keeps distance sorted nodes roughly ordered between frames so
// the render sort usually finds its input already monotonic.
func (n *Node) presort(cam Camera) error {
	if !n.def.Sort.byDistance() || cam == nil || n.particles.Len() < 2 {
		return nil
	}
	live := n.particles.Live()
	kv := n.kv[:0]
	for _, s := range live {
		kv = append(kv, tsort.KeyValue{Key: cam.DistanceSqr(n.particles.Slot(s).Global.Position), Ref: s})
	}
	n.kv = kv
	desc := n.def.Sort.reversed()
	if tsort.KeysSorted(kv, desc) {
		return nil
	}
	if err := n.system().sorter.Sort(kv, desc); err != nil {
		return err
	}
	for i := range kv {
		live[i] = kv[i].Ref
	}
	return nil
}

// Order returns the live particles in draw order. Distance sorted nodes
// are keyed on the interpolated position; the others keep pool order. The
// slice belongs to the node and is reused by the next call.
func (n *Node) Order(cam Camera, alpha float32) ([]tsort.KeyValue, error) {
	byDistance := n.def.Sort.byDistance() && cam != nil
	kv := n.kv[:0]
	for _, s := range n.particles.Live() {
		e := tsort.KeyValue{Ref: s}
		if byDistance {
			p := n.particles.Slot(s)
			e.Key = cam.DistanceSqr(rl.Vector3Lerp(p.PrevGlobal.Position, p.Global.Position, alpha))
		}
		kv = append(kv, e)
	}
	n.kv = kv
	if byDistance {
		if err := n.system().sorter.Sort(kv, n.def.Sort.reversed()); err != nil {
			return nil, err
		}
	}
	return kv, nil
}

func (n *Node) render(ctx *batch.Context, view View, alpha float32) error {
	if n.particles.Len() == 0 {
		return nil
	}
	order, err := n.Order(view, alpha)
	if err != nil {
		return err
	}
	r := &renderers[n.def.Renderer.Kind]
	r.initBatch(ctx, &n.def.Renderer)
	return r.batch(ctx, n, order, view, alpha)
}
