package debug

import (
	"linux-particleengine/internal/particle"

	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// NodeBounds is the box around one node's live particles, padded by each
// particle's half size.
type NodeBounds struct {
	Name  string
	Depth int
	Box   rl.BoundingBox
	Count int
}

// Bounds collects a box per node with live particles.
func Bounds(sys *particle.System) []NodeBounds {
	var out []NodeBounds
	depth := depths(sys.Def())
	sys.Walk(func(n *particle.Node) {
		if n.Len() == 0 {
			return
		}
		b := NodeBounds{
			Name:  n.Def().Name,
			Depth: depth[n.Def()],
			Count: n.Len(),
			Box: rl.BoundingBox{
				Min: rl.NewVector3(math32.Inf(1), math32.Inf(1), math32.Inf(1)),
				Max: rl.NewVector3(math32.Inf(-1), math32.Inf(-1), math32.Inf(-1)),
			},
		}
		n.Each(func(p *particle.Particle) {
			pos := p.Global.Position
			r := p.Size / 2
			b.Box.Min = rl.Vector3Min(b.Box.Min, rl.NewVector3(pos.X-r, pos.Y-r, pos.Z-r))
			b.Box.Max = rl.Vector3Max(b.Box.Max, rl.NewVector3(pos.X+r, pos.Y+r, pos.Z+r))
		})
		out = append(out, b)
	})
	return out
}

// depths maps each node definition to its depth in the tree.
func depths(def *particle.SystemDef) map[*particle.NodeDef]int {
	out := make(map[*particle.NodeDef]int, len(def.Nodes))
	var visit func(i, d int)
	visit = func(i, d int) {
		nd := &def.Nodes[i]
		out[nd] = d
		for c := nd.FirstChild; c < nd.FirstChild+nd.NumChildren; c++ {
			visit(c, d+1)
		}
	}
	for i := 0; i < def.Roots; i++ {
		visit(i, 0)
	}
	return out
}

var boxColors = []rl.Color{
	rl.NewColor(0, 255, 0, 255),
	rl.NewColor(0, 255, 255, 200),
	rl.NewColor(255, 255, 0, 180),
	rl.NewColor(255, 0, 255, 160),
}

// DrawBounds draws node boxes and the system origin. Call it inside 3D
// mode.
func DrawBounds(sys *particle.System) {
	for _, b := range Bounds(sys) {
		rl.DrawBoundingBox(b.Box, boxColors[b.Depth%len(boxColors)])
	}
	rl.DrawSphere(sys.Transform().Position, 2, rl.Red)
}
