package particle

import (
	"fmt"
	"math/rand"
	"time"

	"linux-particleengine/internal/batch"
	"linux-particleengine/internal/tsort"
	"linux-particleengine/internal/utils"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Override scales a whole system instance. Zero fields leave the
// definition unchanged.
type Override struct {
	Rate     float32
	Lifetime float32
	Size     float32
	Speed    float32
	Alpha    float32
	// Count shrinks every node's pool. Values of one or more keep the
	// definition's capacity.
	Count float32
	Color *rl.Vector3
}

func (o Override) factor(v float32) float32 {
	if v == 0 {
		return 1
	}
	return v
}

func (o Override) apply(p *Particle) {
	if o.Lifetime != 0 {
		p.MaxLifetime *= o.Lifetime
		p.Lifetime = p.MaxLifetime
	}
	if o.Alpha != 0 {
		p.Alpha *= o.Alpha
		p.InitialAlpha = p.Alpha
	}
	if o.Size != 0 {
		p.Size *= o.Size
		p.InitialSize = p.Size
	}
	if o.Speed != 0 {
		p.Velocity = rl.Vector3Scale(p.Velocity, o.Speed)
	}
	if o.Color != nil {
		p.Color = *o.Color
	}
}

// Options configures NewSystem.
type Options struct {
	// Seed for the system's random source. Zero seeds from the clock.
	Seed     int64
	Override Override
	// Capacity, when set, rejects definitions whose nodes cannot fit in
	// one render batch.
	Capacity batch.Capacity
	// SortLimit caps the sort scratch buffer. Zero means unlimited.
	SortLimit int
}

// Stats summarizes a system at one instant.
type Stats struct {
	Nodes     int
	Orphans   int
	Particles int
}

// System is one running instance of a SystemDef.
type System struct {
	def        *SystemDef
	containers []Container
	root       Particle
	transform  Transform
	started    bool
	stopped    bool

	rng           *rand.Rand
	sorter        tsort.KeyValueSorter
	override      Override
	controlPoints [MaxControlPoints]rl.Vector3
	pointer       rl.Vector3

	time  float32
	nodes int
}

// NewSystem validates def and instantiates its root nodes.
func NewSystem(def *SystemDef, opts Options) (*System, error) {
	if err := def.Validate(opts.Capacity); err != nil {
		return nil, err
	}
	if err := checkSortLimit(def, opts.SortLimit); err != nil {
		return nil, err
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s := &System{
		def:        def,
		containers: make([]Container, len(def.Nodes)),
		transform:  Identity(),
		rng:        rand.New(rand.NewSource(seed)),
		sorter:     tsort.KeyValueSorter{Limit: opts.SortLimit},
		override:   opts.Override,
	}
	for i, cp := range def.ControlPoints {
		s.controlPoints[i] = cp.Offset
	}
	if next := s.layout(0, def.Roots, 0, def.Roots); next != len(def.Nodes) {
		return nil, fmt.Errorf("%w: layout reached %d of %d nodes", ErrInvalidDef, next, len(def.Nodes))
	}
	if err := s.root.Init(s.containers[:def.Roots], nil); err != nil {
		return nil, err
	}
	utils.Info("particle: system %s started with %d node definitions", def.Name, len(def.Nodes))
	return s, nil
}

// checkSortLimit rejects distance sorted nodes whose pool could need more
// scratch space than limit allows.
func checkSortLimit(def *SystemDef, limit int) error {
	if limit <= 0 {
		return nil
	}
	for i := range def.Nodes {
		n := &def.Nodes[i]
		if n.Sort.byDistance() && n.MaxParticles > tsort.RunLength && n.MaxParticles > limit {
			return fmt.Errorf("%w: node %d (%s) sorts up to %d particles, sort limit %d",
				ErrCapacity, i, n.Name, n.MaxParticles, limit)
		}
	}
	return nil
}

func (s *System) Def() *SystemDef         { return s.def }
func (s *System) Containers() []Container { return s.containers }
func (s *System) Root() *Subsystem        { return &s.root.Sub }
func (s *System) Time() float32           { return s.time }
func (s *System) Transform() Transform    { return s.transform }
func (s *System) Stopped() bool           { return s.stopped }

// Alive reports whether any node is still running.
func (s *System) Alive() bool { return s.nodes > 0 }

// SetTransform moves the whole system. Before the first update the move
// is immediate; afterwards it is interpolated over the next tick.
func (s *System) SetTransform(t Transform) {
	s.transform = t
	if !s.started {
		s.root.Global = t
		s.root.PrevGlobal = t
	}
}

// SetControlPoint places control point i.
func (s *System) SetControlPoint(i int, pos rl.Vector3) error {
	if i < 0 || i >= MaxControlPoints {
		return fmt.Errorf("%w: control point %d", ErrInvalidDef, i)
	}
	s.controlPoints[i] = pos
	return nil
}

func (s *System) ControlPoint(i int) rl.Vector3 { return s.controlPoints[i] }

// SetPointer updates the position that pointer-locked control points
// follow.
func (s *System) SetPointer(pos rl.Vector3) { s.pointer = pos }

// Update advances the simulation by dt. cam, when set, is used to keep
// distance sorted nodes presorted.
func (s *System) Update(dt float32, cam Camera) error {
	s.started = true
	s.time += dt
	if !s.stopped {
		s.root.PrevGlobal = s.root.Global
		s.root.Global = s.transform
	}
	for i, cp := range s.def.ControlPoints {
		if cp.LockToPointer {
			s.controlPoints[i] = s.pointer
		}
	}
	for i := range s.containers {
		if err := s.containers[i].update(dt, cam); err != nil {
			return fmt.Errorf("system %s: %w", s.def.Name, err)
		}
	}
	return nil
}

// Render batches every node, parents before children.
func (s *System) Render(ctx *batch.Context, view View, alpha float32) error {
	for i := range s.containers {
		if err := s.containers[i].render(ctx, view, alpha); err != nil {
			return fmt.Errorf("system %s: %w", s.def.Name, err)
		}
	}
	return nil
}

// Stop orphans the root nodes. DeleteWithParent roots go on the next
// update; the rest run on until their own delete mode removes them.
func (s *System) Stop() {
	if s.stopped {
		return
	}
	s.stopped = true
	s.root.Sub.Orphan()
	utils.Info("particle: system %s stopped", s.def.Name)
}

// Stats counts live nodes and particles.
func (s *System) Stats() Stats {
	var st Stats
	s.Walk(func(n *Node) {
		st.Nodes++
		st.Particles += n.Len()
		if n.orphaned {
			st.Orphans++
		}
	})
	return st
}

// Walk calls fn for every live node, container by container.
func (s *System) Walk(fn func(n *Node)) {
	for i := range s.containers {
		s.containers[i].Each(fn)
	}
}
