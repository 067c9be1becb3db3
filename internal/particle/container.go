package particle

import (
	"fmt"

	"linux-particleengine/internal/batch"
	"linux-particleengine/internal/utils"
)

// Container holds every live instance of one NodeDef. Containers live in
// one flat slice per system, laid out so that a container always comes
// before its children; updating them in slice order updates parents
// before children.
type Container struct {
	def    *NodeDef
	system *System
	index  int

	// Child containers are system.containers[first : first+count].
	first int
	count int

	head      *Node
	instances int
}

func (c *Container) Def() *NodeDef { return c.def }
func (c *Container) Index() int    { return c.index }
func (c *Container) Len() int      { return c.instances }

// Children returns the containers of this definition's child nodes.
func (c *Container) Children() []Container {
	return c.system.containers[c.first : c.first+c.count]
}

// Each calls fn for every instance, newest first.
func (c *Container) Each(fn func(n *Node)) {
	for n := c.head; n != nil; {
		next := n.instNext
		fn(n)
		n = next
	}
}

// layout places the sibling group defs[defFirst:defFirst+count] at
// containers[slot:], reserves their children's slots starting at next and
// recurses into each child group. It returns the first unclaimed slot.
func (s *System) layout(defFirst, count, slot, next int) int {
	for i := 0; i < count; i++ {
		c := &s.containers[slot+i]
		c.def = &s.def.Nodes[defFirst+i]
		c.system = s
		c.index = slot + i
		c.first = next
		c.count = c.def.NumChildren
		next += c.count
	}
	for i := 0; i < count; i++ {
		c := &s.containers[slot+i]
		next = s.layout(c.def.FirstChild, c.count, c.first, next)
	}
	return next
}

func (c *Container) instantiate(parent *Particle, owner *Subsystem, origin *Node) (*Node, error) {
	max := c.def.MaxParticles
	if f := c.system.override.Count; f > 0 && f < 1 {
		max = int(float32(max)*f + 0.5)
		if max < 1 {
			max = 1
		}
	}
	pool, err := NewManager(max)
	if err != nil {
		return nil, fmt.Errorf("node %s: %w", c.def.Name, err)
	}

	n := &Node{
		def:       c.def,
		container: c,
		particles: pool,
		emitters:  make([]emitterState, len(c.def.Emitters)),
		lifetime:  c.def.Lifetime,
		parent:    parent,
		owner:     owner,
		origin:    origin,
	}
	if n.lifetime <= 0 {
		n.lifetime = Infinite
	}
	for i := range n.emitters {
		n.emitters[i].init(&c.def.Emitters[i])
	}
	if parent != nil {
		n.resolveParent()
	}

	owner.push(n)
	c.push(n)
	if origin != nil {
		origin.spawned++
	}
	c.system.nodes++
	utils.Debug("particle: %s/%s node created (%d live)", c.system.def.Name, c.def.Name, c.instances)
	return n, nil
}

func (c *Container) push(n *Node) {
	n.instPrev = nil
	n.instNext = c.head
	if c.head != nil {
		c.head.instPrev = n
	}
	c.head = n
	c.instances++
}

func (c *Container) remove(n *Node) {
	if n.instPrev != nil {
		n.instPrev.instNext = n.instNext
	} else {
		c.head = n.instNext
	}
	if n.instNext != nil {
		n.instNext.instPrev = n.instPrev
	}
	n.instPrev, n.instNext = nil, nil
	c.instances--
}

func (c *Container) update(dt float32, cam Camera) error {
	for n := c.head; n != nil; {
		next := n.instNext
		if err := n.update(dt, cam); err != nil {
			return fmt.Errorf("node %s: %w", c.def.Name, err)
		}
		n = next
	}
	return nil
}

func (c *Container) render(ctx *batch.Context, view View, alpha float32) error {
	for n := c.head; n != nil; n = n.instNext {
		if err := n.render(ctx, view, alpha); err != nil {
			return fmt.Errorf("node %s: %w", c.def.Name, err)
		}
	}
	return nil
}
