package particle

import (
	"errors"
	"fmt"

	"linux-particleengine/internal/batch"

	rl "github.com/gen2brain/raylib-go/raylib"
)

var (
	ErrCapacity   = errors.New("particle: capacity exceeded")
	ErrInvalidDef = errors.New("particle: invalid definition")
)

const (
	// MaxParticlesLimit bounds a single node's pool.
	MaxParticlesLimit = 1 << 16
	// MaxControlPoints is the number of control point slots per system.
	MaxControlPoints = 8
)

// DetachFlags stop a node from following parts of its parent's transform.
type DetachFlags uint8

const (
	DetachPosition DetachFlags = 1 << iota
	DetachRotation
	DetachScale
)

// SortMode selects how a node orders its particles. SortReverse alone
// reverses creation order; with SortDistance it sorts far to near.
type SortMode uint8

const (
	SortNone     SortMode = 0
	SortReverse  SortMode = 1 << 0
	SortDistance SortMode = 1 << 1
)

func (m SortMode) byDistance() bool { return m&SortDistance != 0 }
func (m SortMode) reversed() bool   { return m&SortReverse != 0 }

// DeleteMode decides when a node is torn down.
type DeleteMode uint8

const (
	// DeleteOnExpire removes the node as soon as its lifetime runs out,
	// live particles included.
	DeleteOnExpire DeleteMode = iota
	// DeleteWithParent removes the node once its parent particle is gone.
	DeleteWithParent
	// DeleteWhenEmpty removes the node once it has expired, has no
	// particles left and every node spawned from its particles is gone.
	DeleteWhenEmpty
)

func (m DeleteMode) String() string {
	switch m {
	case DeleteOnExpire:
		return "expire"
	case DeleteWithParent:
		return "parent"
	case DeleteWhenEmpty:
		return "empty"
	}
	return fmt.Sprintf("DeleteMode(%d)", uint8(m))
}

type EmitterKind uint8

const (
	// EmitRate spawns Rate particles per second.
	EmitRate EmitterKind = iota
	// EmitBurst spawns Count particles after Delay, then every Interval
	// seconds (every tick when Interval is zero), Repeat times (forever
	// when Repeat is zero).
	EmitBurst
	emitterKindCount
)

type EmitterDef struct {
	Kind     EmitterKind
	Rate     float32
	Count    int
	Delay    float32
	Interval float32
	Repeat   int
}

type InitializerKind uint8

const (
	InitLifetime InitializerKind = iota
	InitSize
	InitVelocity
	InitRotation
	InitAngularVelocity
	InitColor
	InitAlpha
	InitBoxPosition
	InitSpherePosition
	InitFrame
	initializerKindCount
)

// InitializerDef draws a random value between Min and Max. Scalar
// initializers read the X component.
type InitializerDef struct {
	Kind     InitializerKind
	Min      rl.Vector3
	Max      rl.Vector3
	Exponent float32
}

type OperatorKind uint8

const (
	OpMovement OperatorKind = iota
	OpAlphaFade
	OpSizeChange
	OpColorChange
	OpTurbulence
	OpControlPointAttract
	OpOscillatePosition
	OpOscillateAlpha
	OpAnimateFrames
	operatorKindCount
)

// OperatorDef parameterizes one per-tick operator. Fields a kind does not
// use are ignored.
type OperatorDef struct {
	Kind OperatorKind

	Gravity rl.Vector3
	Drag    float32

	// Age window for fades and value ramps, as fractions of life.
	StartTime float32
	EndTime   float32

	StartValue rl.Vector3
	EndValue   rl.Vector3

	Scale        float32
	TimeScale    float32
	SpeedMin     float32
	SpeedMax     float32
	FrequencyMin float32
	FrequencyMax float32
	ScaleMin     float32
	ScaleMax     float32

	ControlPoint int
	Threshold    float32

	// Frames per second for OpAnimateFrames.
	Rate float32
}

type ConstraintKind uint8

const (
	ConstrainMaxSpeed ConstraintKind = iota
	// ConstrainPlane keeps particles on the side of the plane
	// dot(Normal, p) >= Distance, reflecting velocity scaled by Bounce.
	ConstrainPlane
	// ConstrainSphere keeps particles within Radius of a control point.
	ConstrainSphere
	constraintKindCount
)

type ConstraintDef struct {
	Kind         ConstraintKind
	MaxSpeed     float32
	Normal       rl.Vector3
	Distance     float32
	Bounce       float32
	ControlPoint int
	Radius       float32
}

type RendererKind uint8

const (
	RendererSprite RendererKind = iota
	RendererBeam
	RendererMesh
	rendererKindCount
)

func (k RendererKind) String() string {
	switch k {
	case RendererSprite:
		return "sprite"
	case RendererBeam:
		return "beam"
	case RendererMesh:
		return "mesh"
	}
	return fmt.Sprintf("RendererKind(%d)", uint8(k))
}

type RendererDef struct {
	Kind    RendererKind
	Texture uint32
	Blend   rl.BlendMode
	// Frames splits the texture into animation frames. Nil uses the
	// whole texture.
	Frames FrameSource
	// Oriented sprites follow the particle rotation instead of facing
	// the camera.
	Oriented bool
	// Width scales beam thickness.
	Width float32
	Mesh  int
}

// NodeDef is the immutable description of one node in a system tree.
type NodeDef struct {
	Name         string
	Emitters     []EmitterDef
	Initializers []InitializerDef
	Operators    []OperatorDef
	Constraints  []ConstraintDef
	Renderer     RendererDef

	// Lifetime in seconds. Zero or negative means the node never expires.
	Lifetime     float32
	MaxParticles int
	Detach       DetachFlags
	Sort         SortMode
	Delete       DeleteMode

	// Children are Nodes[FirstChild : FirstChild+NumChildren].
	NumChildren int
	FirstChild  int
}

type ControlPointDef struct {
	Offset        rl.Vector3
	LockToPointer bool
}

// SystemDef is a tree of NodeDefs flattened so that every node's children
// are contiguous and come after it. The first Roots nodes are the roots.
type SystemDef struct {
	Name          string
	Nodes         []NodeDef
	Roots         int
	ControlPoints []ControlPointDef
}

// NodeTree is the nested form accepted by BuildSystemDef.
type NodeTree struct {
	Def      NodeDef
	Children []NodeTree
}

// BuildSystemDef flattens trees breadth first.
func BuildSystemDef(name string, roots ...NodeTree) *SystemDef {
	def := &SystemDef{Name: name, Roots: len(roots)}
	queue := make([]*NodeTree, 0, len(roots))
	for i := range roots {
		def.Nodes = append(def.Nodes, roots[i].Def)
		queue = append(queue, &roots[i])
	}
	for head := 0; head < len(queue); head++ {
		tree := queue[head]
		first := len(def.Nodes)
		for i := range tree.Children {
			def.Nodes = append(def.Nodes, tree.Children[i].Def)
			queue = append(queue, &tree.Children[i])
		}
		def.Nodes[head].FirstChild = first
		def.Nodes[head].NumChildren = len(tree.Children)
	}
	return def
}

// Validate checks the tree layout and every node. A zero capacity skips
// the render batch size check.
func (d *SystemDef) Validate(capacity batch.Capacity) error {
	if len(d.Nodes) == 0 {
		return fmt.Errorf("%w: %q has no nodes", ErrInvalidDef, d.Name)
	}
	if d.Roots <= 0 || d.Roots > len(d.Nodes) {
		return fmt.Errorf("%w: %q has %d roots for %d nodes", ErrInvalidDef, d.Name, d.Roots, len(d.Nodes))
	}
	if len(d.ControlPoints) > MaxControlPoints {
		return fmt.Errorf("%w: %d control points, max %d", ErrInvalidDef, len(d.ControlPoints), MaxControlPoints)
	}

	parents := make([]int, len(d.Nodes))
	for i := range parents {
		parents[i] = -1
	}
	for i := range d.Nodes {
		n := &d.Nodes[i]
		if err := n.validate(capacity); err != nil {
			return fmt.Errorf("node %d (%s): %w", i, n.Name, err)
		}
		if n.NumChildren == 0 {
			continue
		}
		if n.NumChildren < 0 || n.FirstChild <= i || n.FirstChild < d.Roots || n.FirstChild+n.NumChildren > len(d.Nodes) {
			return fmt.Errorf("%w: node %d children [%d,+%d) out of order", ErrInvalidDef, i, n.FirstChild, n.NumChildren)
		}
		for c := n.FirstChild; c < n.FirstChild+n.NumChildren; c++ {
			if parents[c] >= 0 {
				return fmt.Errorf("%w: node %d has parents %d and %d", ErrInvalidDef, c, parents[c], i)
			}
			parents[c] = i
		}
	}
	for i := d.Roots; i < len(d.Nodes); i++ {
		if parents[i] < 0 {
			return fmt.Errorf("%w: node %d is unreachable", ErrInvalidDef, i)
		}
	}
	return nil
}

func (n *NodeDef) validate(capacity batch.Capacity) error {
	if n.MaxParticles <= 0 || n.MaxParticles > MaxParticlesLimit {
		return fmt.Errorf("%w: max particles %d", ErrInvalidDef, n.MaxParticles)
	}
	for _, e := range n.Emitters {
		if e.Kind >= emitterKindCount {
			return fmt.Errorf("%w: emitter kind %d", ErrInvalidDef, e.Kind)
		}
	}
	for _, in := range n.Initializers {
		if in.Kind >= initializerKindCount {
			return fmt.Errorf("%w: initializer kind %d", ErrInvalidDef, in.Kind)
		}
	}
	for _, op := range n.Operators {
		if op.Kind >= operatorKindCount {
			return fmt.Errorf("%w: operator kind %d", ErrInvalidDef, op.Kind)
		}
		if op.Kind == OpControlPointAttract && (op.ControlPoint < 0 || op.ControlPoint >= MaxControlPoints) {
			return fmt.Errorf("%w: control point %d", ErrInvalidDef, op.ControlPoint)
		}
	}
	for _, c := range n.Constraints {
		if c.Kind >= constraintKindCount {
			return fmt.Errorf("%w: constraint kind %d", ErrInvalidDef, c.Kind)
		}
		if c.Kind == ConstrainSphere && (c.ControlPoint < 0 || c.ControlPoint >= MaxControlPoints) {
			return fmt.Errorf("%w: control point %d", ErrInvalidDef, c.ControlPoint)
		}
	}
	if n.Renderer.Kind >= rendererKindCount {
		return fmt.Errorf("%w: renderer kind %d", ErrInvalidDef, n.Renderer.Kind)
	}
	if n.Renderer.Kind == RendererBeam && n.Sort.byDistance() {
		return fmt.Errorf("%w: beam renderer cannot sort by distance", ErrInvalidDef)
	}
	if capacity != (batch.Capacity{}) {
		need := renderers[n.Renderer.Kind].batchSize(&n.Renderer, n.MaxParticles)
		if need.Vertices > capacity.Vertices || need.Indices > capacity.Indices || need.Instances > capacity.Instances {
			return fmt.Errorf("%w: %d %s particles need %+v, batch holds %+v",
				ErrCapacity, n.MaxParticles, n.Renderer.Kind, need, capacity)
		}
	}
	return nil
}
