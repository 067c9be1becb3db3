package particle

import (
	"fmt"
	"image/color"

	"linux-particleengine/internal/batch"
	"linux-particleengine/internal/tsort"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Camera is what sorting needs from the viewer.
type Camera interface {
	Position() rl.Vector3
	DistanceSqr(p rl.Vector3) float32
}

// View is a camera with the basis renderers build geometry from.
type View struct {
	Eye     rl.Vector3
	Forward rl.Vector3
	Right   rl.Vector3
	Up      rl.Vector3
}

// NewView builds an orthonormal view looking from eye at target.
func NewView(eye, target, up rl.Vector3) View {
	forward := rl.Vector3Normalize(rl.Vector3Subtract(target, eye))
	right := rl.Vector3Normalize(rl.Vector3CrossProduct(forward, up))
	return View{
		Eye:     eye,
		Forward: forward,
		Right:   right,
		Up:      rl.Vector3CrossProduct(right, forward),
	}
}

func (v View) Position() rl.Vector3             { return v.Eye }
func (v View) DistanceSqr(p rl.Vector3) float32 { return distanceSqr(v.Eye, p) }

// FrameSource maps an animation frame to a normalized texture rectangle.
type FrameSource interface {
	Count() int
	Frame(i int) rl.Rectangle
}

// GridFrames is a sprite sheet of equally sized cells read row by row.
// Frames limits the count when the last row is partly empty.
type GridFrames struct {
	Columns int
	Rows    int
	Frames  int
}

func (g GridFrames) Count() int {
	n := g.Columns * g.Rows
	if g.Frames > 0 && g.Frames < n {
		return g.Frames
	}
	return n
}

func (g GridFrames) Frame(i int) rl.Rectangle {
	count := g.Count()
	if count <= 0 {
		return rl.NewRectangle(0, 0, 1, 1)
	}
	i %= count
	if i < 0 {
		i += count
	}
	w := 1 / float32(g.Columns)
	h := 1 / float32(g.Rows)
	return rl.NewRectangle(float32(i%g.Columns)*w, float32(i/g.Columns)*h, w, h)
}

func frameCount(def *RendererDef) int {
	if def.Frames == nil {
		return 1
	}
	return def.Frames.Count()
}

func frameRect(def *RendererDef, p *Particle) rl.Rectangle {
	if def.Frames == nil {
		return rl.NewRectangle(0, 0, 1, 1)
	}
	return def.Frames.Frame(int(p.Frame))
}

func unit(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

func particleColor(p *Particle) color.RGBA {
	return color.RGBA{R: unit(p.Color.X), G: unit(p.Color.Y), B: unit(p.Color.Z), A: unit(p.Alpha)}
}

// renderer is one entry of the dispatch table, indexed by RendererKind.
type renderer struct {
	format    batch.Format
	batchSize func(def *RendererDef, count int) batch.Capacity
	batch     func(ctx *batch.Context, n *Node, order []tsort.KeyValue, view View, alpha float32) error
}

var renderers = [rendererKindCount]renderer{
	RendererSprite: {format: batch.FormatQuads, batchSize: spriteBatchSize, batch: batchSprites},
	RendererBeam:   {format: batch.FormatStrip, batchSize: beamBatchSize, batch: batchBeam},
	RendererMesh:   {format: batch.FormatInstances, batchSize: meshBatchSize, batch: batchMeshes},
}

func (r *renderer) initBatch(ctx *batch.Context, def *RendererDef) {
	ctx.Begin(batch.State{Format: r.format, Texture: def.Texture, Blend: def.Blend, Mesh: def.Mesh})
}

func spriteBatchSize(def *RendererDef, count int) batch.Capacity {
	return batch.Capacity{Vertices: 4 * count, Indices: 6 * count}
}

func batchSprites(ctx *batch.Context, n *Node, order []tsort.KeyValue, view View, alpha float32) error {
	def := &n.def.Renderer
	for _, e := range order {
		p := n.particles.Slot(e.Ref)
		r, ok := ctx.Alloc(4, 6, 0)
		if !ok {
			return fmt.Errorf("%w: sprite quad", batch.ErrTooLarge)
		}
		t := p.Interpolated(alpha)
		half := p.Size * 0.5
		right, up := view.Right, view.Up
		if def.Oriented {
			right = rl.Vector3RotateByQuaternion(rl.Vector3{X: 1}, t.Rotation)
			up = rl.Vector3RotateByQuaternion(rl.Vector3{Y: 1}, t.Rotation)
		}
		right = rl.Vector3Scale(right, half*t.Scale.X)
		up = rl.Vector3Scale(up, half*t.Scale.Y)

		uv := frameRect(def, p)
		col := particleColor(p)
		pos := t.Position
		r.Vertices[0] = batch.Vertex{Position: rl.Vector3Subtract(rl.Vector3Subtract(pos, right), up), TexCoord: rl.NewVector2(uv.X, uv.Y+uv.Height), Color: col}
		r.Vertices[1] = batch.Vertex{Position: rl.Vector3Subtract(rl.Vector3Add(pos, right), up), TexCoord: rl.NewVector2(uv.X+uv.Width, uv.Y+uv.Height), Color: col}
		r.Vertices[2] = batch.Vertex{Position: rl.Vector3Add(rl.Vector3Add(pos, right), up), TexCoord: rl.NewVector2(uv.X+uv.Width, uv.Y), Color: col}
		r.Vertices[3] = batch.Vertex{Position: rl.Vector3Add(rl.Vector3Subtract(pos, right), up), TexCoord: rl.NewVector2(uv.X, uv.Y), Color: col}

		b := r.Base
		copy(r.Indices, []uint16{b, b + 1, b + 2, b, b + 2, b + 3})
	}
	return nil
}

func beamBatchSize(def *RendererDef, count int) batch.Capacity {
	if count < 2 {
		return batch.Capacity{}
	}
	return batch.Capacity{Vertices: 2 * count, Indices: 6 * (count - 1)}
}

// batchBeam joins the particles, in order, into one camera-facing ribbon.
// When the buffers fill mid-ribbon the staged part is flushed and the
// last vertex pair is emitted again so the ribbon stays connected.
func batchBeam(ctx *batch.Context, n *Node, order []tsort.KeyValue, view View, alpha float32) error {
	if len(order) < 2 {
		return nil
	}
	width := n.def.Renderer.Width
	if width == 0 {
		width = 1
	}

	pts := n.beam[:0]
	for _, e := range order {
		p := n.particles.Slot(e.Ref)
		pts = append(pts, rl.Vector3Lerp(p.PrevGlobal.Position, p.Global.Position, alpha))
	}
	n.beam = pts

	last := len(pts) - 1
	var prev [2]batch.Vertex
	for i, pos := range pts {
		var tangent rl.Vector3
		switch i {
		case 0:
			tangent = rl.Vector3Subtract(pts[1], pos)
		case last:
			tangent = rl.Vector3Subtract(pos, pts[i-1])
		default:
			tangent = rl.Vector3Subtract(pts[i+1], pts[i-1])
		}
		side := rl.Vector3Normalize(rl.Vector3CrossProduct(tangent, rl.Vector3Subtract(view.Eye, pos)))
		p := n.particles.Slot(order[i].Ref)
		side = rl.Vector3Scale(side, p.Size*width*0.5)

		u := float32(i) / float32(last)
		col := particleColor(p)
		pair := [2]batch.Vertex{
			{Position: rl.Vector3Add(pos, side), TexCoord: rl.NewVector2(u, 0), Color: col},
			{Position: rl.Vector3Subtract(pos, side), TexCoord: rl.NewVector2(u, 1), Color: col},
		}

		if i == 0 {
			r, ok := ctx.Alloc(2, 0, 0)
			if !ok {
				return fmt.Errorf("%w: beam vertex pair", batch.ErrTooLarge)
			}
			copy(r.Vertices, pair[:])
			prev = pair
			continue
		}

		var r batch.Region
		var ok bool
		if rem := ctx.Remaining(); rem.Vertices < 2 || rem.Indices < 6 {
			ctx.Flush()
			r, ok = ctx.Alloc(4, 6, 0)
			if !ok {
				return fmt.Errorf("%w: beam segment", batch.ErrTooLarge)
			}
			copy(r.Vertices, prev[:])
			copy(r.Vertices[2:], pair[:])
			r.Base += 2
		} else {
			r, ok = ctx.Alloc(2, 6, 0)
			if !ok {
				return fmt.Errorf("%w: beam segment", batch.ErrTooLarge)
			}
			copy(r.Vertices, pair[:])
		}
		b := r.Base
		copy(r.Indices, []uint16{b - 2, b - 1, b, b, b - 1, b + 1})
		prev = pair
	}
	return nil
}

func meshBatchSize(def *RendererDef, count int) batch.Capacity {
	return batch.Capacity{Instances: count}
}

func batchMeshes(ctx *batch.Context, n *Node, order []tsort.KeyValue, view View, alpha float32) error {
	for _, e := range order {
		p := n.particles.Slot(e.Ref)
		r, ok := ctx.Alloc(0, 0, 1)
		if !ok {
			return fmt.Errorf("%w: mesh instance", batch.ErrTooLarge)
		}
		t := p.Interpolated(alpha)
		t.Scale = rl.Vector3Scale(t.Scale, p.Size)
		r.Instances[0] = batch.Instance{Transform: t.Matrix(), Color: particleColor(p)}
	}
	return nil
}
