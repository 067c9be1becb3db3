package wallpaper

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"linux-particleengine/internal/batch"
	"linux-particleengine/internal/particle"
	"linux-particleengine/internal/utils"

	rl "github.com/gen2brain/raylib-go/raylib"
)

var ErrDefinition = errors.New("wallpaper: bad particle definition")

const (
	// maxChildDepth stops child files that include each other.
	maxChildDepth   = 8
	defaultMaxCount = 100
	// sequenceRate is the sprite sheet playback rate, in frames per
	// second, for a sequence multiplier of one.
	sequenceRate = 10
)

// Effect is a loaded particle definition. Renderer texture ids in Def are
// slots into Textures, starting at one; zero means untextured. Bind swaps
// them for device ids once the textures are loaded.
type Effect struct {
	Def      *particle.SystemDef
	Textures []string
	Sheets   []*TexJSON
}

// Loader reads particle, material and scene files from FS. A non-zero
// Capacity rejects nodes that cannot fit in one render batch.
type Loader struct {
	FS       fs.FS
	Capacity batch.Capacity

	textures map[string]int
	effect   *Effect
}

func NewLoader(fsys fs.FS, capacity batch.Capacity) *Loader {
	return &Loader{FS: fsys, Capacity: capacity}
}

// readFile tries name as given, then under the usual asset folders.
func (l *Loader) readFile(name, dir string) ([]byte, string, error) {
	name = strings.TrimPrefix(path.Clean(strings.ReplaceAll(name, "\\", "/")), "/")
	candidates := []string{
		name,
		path.Join(dir, name),
		path.Join("particles", path.Base(name)),
		path.Join("materials", name),
	}
	var firstErr error
	for _, p := range candidates {
		data, err := fs.ReadFile(l.FS, p)
		if err == nil {
			return data, p, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, "", firstErr
}

// LoadScene reads a scene listing the effects to place.
func (l *Loader) LoadScene(name string) (*Scene, error) {
	data, _, err := l.readFile(name, ".")
	if err != nil {
		return nil, err
	}
	var scene Scene
	if err := Decode(name, data, &scene); err != nil {
		return nil, fmt.Errorf("scene %s: %w", name, err)
	}
	utils.Debug("Loader: scene %s has %d objects", name, len(scene.Objects))
	return &scene, nil
}

// LoadEffect reads a particle file and its children into a validated,
// flattened definition.
func (l *Loader) LoadEffect(name string) (*Effect, error) {
	data, full, err := l.readFile(name, ".")
	if err != nil {
		return nil, err
	}
	var pj ParticleJSON
	if err := Decode(full, data, &pj); err != nil {
		return nil, fmt.Errorf("particle %s: %w", name, err)
	}
	return l.BuildEffect(name, &pj, path.Dir(full))
}

// BuildEffect converts an already decoded particle definition. Child files
// are looked up relative to dir.
func (l *Loader) BuildEffect(name string, pj *ParticleJSON, dir string) (*Effect, error) {
	l.textures = map[string]int{}
	l.effect = &Effect{}
	defer func() { l.textures, l.effect = nil, nil }()

	tree, err := l.node(pj, name, dir, 0)
	if err != nil {
		return nil, err
	}
	def := particle.BuildSystemDef(name, tree)
	for _, cp := range pj.ControlPoint {
		if cp.ID < 0 || cp.ID >= particle.MaxControlPoints {
			return nil, fmt.Errorf("%w: control point id %d", ErrDefinition, cp.ID)
		}
		for len(def.ControlPoints) <= cp.ID {
			def.ControlPoints = append(def.ControlPoints, particle.ControlPointDef{})
		}
		def.ControlPoints[cp.ID] = particle.ControlPointDef{
			Offset:        cp.Offset.Vector3(),
			LockToPointer: cp.LockToPointer,
		}
	}
	if err := def.Validate(l.Capacity); err != nil {
		return nil, fmt.Errorf("particle %s: %w", name, err)
	}
	effect := l.effect
	effect.Def = def
	utils.Info("Loader: %s loaded with %d nodes and %d textures", name, len(def.Nodes), len(effect.Textures))
	return effect, nil
}

func (l *Loader) node(pj *ParticleJSON, name, dir string, depth int) (particle.NodeTree, error) {
	if depth > maxChildDepth {
		return particle.NodeTree{}, fmt.Errorf("%w: %s nests deeper than %d", ErrDefinition, name, maxChildDepth)
	}
	def := particle.NodeDef{
		Name:         pj.Name,
		MaxParticles: pj.MaxCount,
		Lifetime:     pj.Lifetime,
	}
	if def.Name == "" {
		def.Name = strings.TrimSuffix(path.Base(name), path.Ext(name))
	}
	if def.MaxParticles <= 0 {
		def.MaxParticles = defaultMaxCount
	}

	var err error
	if def.Sort, err = parseSort(pj.Sort); err != nil {
		return particle.NodeTree{}, err
	}
	if def.Delete, err = parseDelete(pj.Delete, def.Lifetime); err != nil {
		return particle.NodeTree{}, err
	}
	if def.Detach, err = parseDetach(pj.Detach); err != nil {
		return particle.NodeTree{}, err
	}
	if def.Renderer, err = l.renderer(pj, dir); err != nil {
		return particle.NodeTree{}, err
	}

	def.Emitters, def.Initializers = emitters(pj.Emitter)
	def.Initializers = append(def.Initializers, initializers(pj.Initializer)...)
	def.Operators, err = operators(pj.Operator)
	if err != nil {
		return particle.NodeTree{}, err
	}
	switch pj.AnimationMode {
	case "", "once":
	case "randomframe":
		def.Initializers = append(def.Initializers, particle.InitializerDef{Kind: particle.InitFrame})
	case "sequence":
		mult := pj.SequenceMultiplier
		if mult <= 0 {
			mult = 1
		}
		def.Operators = append(def.Operators, particle.OperatorDef{Kind: particle.OpAnimateFrames, Rate: sequenceRate * mult})
	default:
		utils.Warn("Loader: %s: unknown animation mode %q", name, pj.AnimationMode)
	}
	if def.Constraints, err = constraints(pj.Constraint); err != nil {
		return particle.NodeTree{}, err
	}

	tree := particle.NodeTree{Def: def}
	for _, child := range pj.Children {
		sub, err := l.child(child, dir, depth+1)
		if err != nil {
			return particle.NodeTree{}, fmt.Errorf("%s: %w", name, err)
		}
		tree.Children = append(tree.Children, sub)
	}
	return tree, nil
}

func (l *Loader) child(c ParticleChild, dir string, depth int) (particle.NodeTree, error) {
	switch c.Type {
	case "", "static", "eventfollow":
	default:
		utils.Warn("Loader: child %s: type %q spawns like eventfollow", c.Name, c.Type)
	}

	pj, childDir := c.Particle, dir
	if pj == nil {
		data, full, err := l.readFile(c.Name, dir)
		if err != nil {
			return particle.NodeTree{}, fmt.Errorf("child %s: %w", c.Name, err)
		}
		pj = &ParticleJSON{}
		if err := Decode(full, data, pj); err != nil {
			return particle.NodeTree{}, fmt.Errorf("child %s: %w", c.Name, err)
		}
		childDir = path.Dir(full)
	}
	if c.MaxCount > 0 {
		copied := *pj
		copied.MaxCount = c.MaxCount
		pj = &copied
	}
	return l.node(pj, c.Name, childDir, depth)
}

// renderer resolves the first renderer entry and the material's texture
// and blending.
func (l *Loader) renderer(pj *ParticleJSON, dir string) (particle.RendererDef, error) {
	def := particle.RendererDef{Kind: particle.RendererSprite, Blend: rl.BlendAdditive}
	if len(pj.Renderer) > 1 {
		utils.Warn("Loader: %d renderers, using %s", len(pj.Renderer), pj.Renderer[0].Name)
	}
	if len(pj.Renderer) > 0 {
		r := pj.Renderer[0]
		switch normalizeName(r.Name) {
		case "", "sprite":
			def.Oriented = r.Oriented
		case "spritetrail", "rope", "ropetrail", "beam":
			def.Kind = particle.RendererBeam
			def.Width = r.Width
			if def.Width == 0 {
				def.Width = r.Length
			}
			if def.Width == 0 {
				def.Width = 1
			}
		case "mesh":
			def.Kind = particle.RendererMesh
			def.Mesh = r.Mesh
		default:
			return def, fmt.Errorf("%w: renderer %q", ErrDefinition, r.Name)
		}
	}

	texture, blend := l.material(pj.Material, dir)
	def.Blend = blend
	if texture != "" {
		def.Texture = uint32(l.textureSlot(texture))
	}
	return def, nil
}

func (l *Loader) material(name, dir string) (string, rl.BlendMode) {
	if name == "" {
		return "", rl.BlendAdditive
	}
	if !strings.HasSuffix(name, ".json") {
		return name, rl.BlendAdditive
	}
	data, full, err := l.readFile(name, dir)
	if err != nil {
		utils.Warn("Loader: material %s not found: %v", name, err)
		return "", rl.BlendAdditive
	}
	var material MaterialJSON
	if err := Decode(full, data, &material); err != nil || len(material.Passes) == 0 {
		utils.Warn("Loader: material %s unreadable: %v", name, err)
		return "", rl.BlendAdditive
	}
	pass := material.Passes[0]
	texture := ""
	if len(pass.Textures) > 0 {
		texture = pass.Textures[0]
		// Blank placeholder textures defer to the next real one.
		for _, t := range pass.Textures {
			if !strings.Contains(strings.ToLower(t), " blank") {
				texture = t
				break
			}
		}
	}
	return texture, parseBlend(pass.Blending)
}

func (l *Loader) textureSlot(name string) int {
	if slot, ok := l.textures[name]; ok {
		return slot
	}
	l.effect.Textures = append(l.effect.Textures, name)
	l.effect.Sheets = append(l.effect.Sheets, l.sheet(name))
	slot := len(l.effect.Textures)
	l.textures[name] = slot
	return slot
}

// sheet reads the sprite sheet description stored next to a texture.
func (l *Loader) sheet(texture string) *TexJSON {
	base := strings.TrimSuffix(texture, ".tex")
	for _, p := range []string{base + ".tex-json", path.Join("materials", base+".tex-json")} {
		data, err := fs.ReadFile(l.FS, p)
		if err != nil {
			continue
		}
		var info TexJSON
		if err := Decode(p, data, &info); err != nil {
			utils.Warn("Loader: %s: %v", p, err)
			return nil
		}
		return &info
	}
	return nil
}

// TextureResolver maps a texture name to a device texture and its size.
type TextureResolver func(name string) (id uint32, width, height int, ok bool)

// Bind replaces texture slots with device ids and attaches sprite sheet
// frames. Textures the resolver cannot provide render untextured.
func (e *Effect) Bind(resolve TextureResolver) {
	ids := make([]uint32, len(e.Textures))
	frames := make([]particle.FrameSource, len(e.Textures))
	for i, name := range e.Textures {
		id, w, h, ok := resolve(name)
		if !ok {
			utils.Warn("Loader: texture %s unavailable", name)
			continue
		}
		ids[i] = id
		if e.Sheets[i] != nil {
			if grid, ok := SheetFrames(e.Sheets[i], w, h); ok {
				frames[i] = grid
			}
		}
	}
	for n := range e.Def.Nodes {
		r := &e.Def.Nodes[n].Renderer
		slot := int(r.Texture)
		if slot <= 0 || slot > len(ids) {
			continue
		}
		r.Texture = ids[slot-1]
		if frames[slot-1] != nil {
			r.Frames = frames[slot-1]
		}
	}
	e.Textures, e.Sheets = nil, nil
}

// SheetFrames builds a frame grid from the first sprite sheet sequence.
func SheetFrames(info *TexJSON, width, height int) (particle.GridFrames, bool) {
	if info == nil || len(info.SpriteSheetSequences) == 0 {
		return particle.GridFrames{}, false
	}
	seq := info.SpriteSheetSequences[0]
	if seq.Width <= 0 || seq.Height <= 0 || width < seq.Width || height < seq.Height {
		return particle.GridFrames{}, false
	}
	return particle.GridFrames{
		Columns: width / seq.Width,
		Rows:    height / seq.Height,
		Frames:  seq.Frames,
	}, true
}

// Override converts an instance override into per-system scale factors.
func (o *InstanceOverride) Override() particle.Override {
	if o == nil {
		return particle.Override{}
	}
	out := particle.Override{
		Alpha:    o.Alpha.Value,
		Count:    o.Count.Value,
		Lifetime: o.Lifetime.Value,
		Rate:     o.Rate.Value,
		Size:     o.Size.Value,
		Speed:    o.Speed.Value,
	}
	if o.ColorN != "" {
		if c, err := ParseVector(o.ColorN); err == nil {
			color := c.Vector3()
			out.Color = &color
		}
	}
	return out
}

// Transform places an object in the world. A zero scale counts as one.
func (o *Object) Transform() particle.Transform {
	t := particle.Identity()
	t.Position = o.Origin.Vector3()
	t.Rotation = rl.QuaternionFromEuler(o.Angles.X, o.Angles.Y, o.Angles.Z)
	if o.Scale != (Vec3{}) {
		t.Scale = o.Scale.Vector3()
	}
	return t
}
