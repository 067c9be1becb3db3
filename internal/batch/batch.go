// Package batch stages particle geometry in fixed-size CPU buffers and hands
// it to a GPU device one draw call at a time.
//
// A Context is a single shared resource for every renderer: a batch either
// keeps appending to the current buffer generation or, when the new batch
// needs a different State or the buffers are full, flushes what is staged
// and starts a new generation.
package batch

import (
	"errors"
	"fmt"
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"
)

var (
	ErrCapacity = errors.New("batch: invalid capacity")
	ErrTooLarge = errors.New("batch: request exceeds buffer capacity")
)

// Format is the primitive layout of staged data.
type Format uint8

const (
	FormatNone Format = iota
	// FormatQuads stages 4 vertices / 6 indices per camera-facing sprite.
	FormatQuads
	// FormatStrip stages vertex pairs joined into a ribbon.
	FormatStrip
	// FormatInstances stages one transform per mesh instance.
	FormatInstances
)

func (f Format) String() string {
	switch f {
	case FormatQuads:
		return "quads"
	case FormatStrip:
		return "strip"
	case FormatInstances:
		return "instances"
	}
	return "none"
}

// Vertex is one staged vertex.
type Vertex struct {
	Position rl.Vector3
	TexCoord rl.Vector2
	Color    color.RGBA
}

// Instance is one staged mesh instance.
type Instance struct {
	Transform rl.Matrix
	Color     color.RGBA
}

// State identifies what a flush draws with. Two batches with equal states
// share a buffer generation.
type State struct {
	Format  Format
	Texture uint32
	Blend   rl.BlendMode
	Mesh    int
}

// Device receives staged data. The slices are only valid during the call.
type Device interface {
	Draw(state State, vertices []Vertex, indices []uint16, instances []Instance)
}

// Capacity sizes the staging buffers.
type Capacity struct {
	Vertices  int
	Indices   int
	Instances int
}

// DefaultCapacity fits 4096 sprites or 4096 mesh instances per draw.
var DefaultCapacity = Capacity{
	Vertices:  4 * 4096,
	Indices:   6 * 4096,
	Instances: 4096,
}

// Validate checks that the capacity is usable with 16-bit indices.
func (c Capacity) Validate() error {
	if c.Vertices < 4 || c.Indices < 6 || c.Instances < 1 {
		return fmt.Errorf("%w: %+v", ErrCapacity, c)
	}
	if c.Vertices > 1<<16 {
		return fmt.Errorf("%w: %d vertices exceed 16-bit indices", ErrCapacity, c.Vertices)
	}
	return nil
}

// Region is a write window inside the current generation. Base is the
// index of Vertices[0] within the generation, for building Indices.
type Region struct {
	Vertices  []Vertex
	Indices   []uint16
	Instances []Instance
	Base      uint16
}

// Stats counts work done since the last ResetStats.
type Stats struct {
	Draws       int
	Generations int
	Vertices    int
	Instances   int
}

// Context owns the staging buffers and the active State.
type Context struct {
	device   Device
	capacity Capacity

	state  State
	active bool

	vertices  []Vertex
	indices   []uint16
	instances []Instance

	generation int
	stats      Stats
}

// NewContext allocates staging buffers of the given capacity.
func NewContext(device Device, capacity Capacity) (*Context, error) {
	if device == nil {
		return nil, fmt.Errorf("%w: nil device", ErrCapacity)
	}
	if err := capacity.Validate(); err != nil {
		return nil, err
	}
	return &Context{
		device:    device,
		capacity:  capacity,
		vertices:  make([]Vertex, 0, capacity.Vertices),
		indices:   make([]uint16, 0, capacity.Indices),
		instances: make([]Instance, 0, capacity.Instances),
	}, nil
}

// Capacity returns the staging buffer sizes.
func (c *Context) Capacity() Capacity { return c.capacity }

// State returns the active state.
func (c *Context) State() State { return c.state }

// Generation returns how many times the buffers have been flushed.
func (c *Context) Generation() int { return c.generation }

// Stats returns the counters since the last ResetStats.
func (c *Context) Stats() Stats { return c.stats }

// ResetStats clears the counters, usually once per frame.
func (c *Context) ResetStats() { c.stats = Stats{} }

// Staged reports whether any data waits for a flush.
func (c *Context) Staged() bool {
	return len(c.vertices) > 0 || len(c.instances) > 0
}

// Begin makes state current. Data staged under a different state is
// flushed first.
func (c *Context) Begin(state State) {
	if c.active && c.state == state {
		return
	}
	c.Flush()
	c.state = state
	c.active = true
}

// Alloc hands out a region for the requested counts. When the current
// generation is too full it is flushed and the region comes from a fresh
// one. ok is false only when the request can never fit.
func (c *Context) Alloc(vertices, indices, instances int) (r Region, ok bool) {
	if vertices > c.capacity.Vertices || indices > c.capacity.Indices || instances > c.capacity.Instances {
		return Region{}, false
	}
	if len(c.vertices)+vertices > c.capacity.Vertices ||
		len(c.indices)+indices > c.capacity.Indices ||
		len(c.instances)+instances > c.capacity.Instances {
		c.Flush()
	}

	nv, ni, nn := len(c.vertices), len(c.indices), len(c.instances)
	c.vertices = c.vertices[:nv+vertices]
	c.indices = c.indices[:ni+indices]
	c.instances = c.instances[:nn+instances]
	return Region{
		Vertices:  c.vertices[nv:],
		Indices:   c.indices[ni:],
		Instances: c.instances[nn:],
		Base:      uint16(nv),
	}, true
}

// Remaining returns the free space in the current generation.
func (c *Context) Remaining() Capacity {
	return Capacity{
		Vertices:  c.capacity.Vertices - len(c.vertices),
		Indices:   c.capacity.Indices - len(c.indices),
		Instances: c.capacity.Instances - len(c.instances),
	}
}

// Flush draws whatever is staged and starts a new generation. It is a
// no-op when nothing is staged.
func (c *Context) Flush() {
	if !c.Staged() {
		return
	}
	c.device.Draw(c.state, c.vertices, c.indices, c.instances)
	c.stats.Draws++
	c.stats.Vertices += len(c.vertices)
	c.stats.Instances += len(c.instances)
	c.stats.Generations++
	c.generation++
	c.vertices = c.vertices[:0]
	c.indices = c.indices[:0]
	c.instances = c.instances[:0]
}

// End flushes and forgets the active state, so the next Begin always
// starts clean. Call it once the frame's particles are batched.
func (c *Context) End() {
	c.Flush()
	c.active = false
	c.state = State{}
}
