package engine3D

import (
	"linux-particleengine/internal/batch"
	"linux-particleengine/internal/utils"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Device draws staged particle batches through raylib. Sprites and beams
// go through rlgl immediate mode; mesh instances through DrawMesh.
type Device struct {
	Shader *ParticleShader

	meshes     []rl.Mesh
	textures   map[uint32]rl.Texture2D
	material   rl.Material
	hasMat     bool
	transforms []rl.Matrix
	warned     map[int]bool
}

func NewDevice(shader *ParticleShader) *Device {
	return &Device{
		Shader:   shader,
		textures: make(map[uint32]rl.Texture2D),
		warned:   make(map[int]bool),
	}
}

// AddMesh registers a mesh for instanced particles and returns its id.
func (d *Device) AddMesh(mesh rl.Mesh) int {
	d.meshes = append(d.meshes, mesh)
	return len(d.meshes) - 1
}

// AddTexture registers a texture so mesh materials can bind it by id.
func (d *Device) AddTexture(tex rl.Texture2D) uint32 {
	d.textures[tex.ID] = tex
	return tex.ID
}

func (d *Device) Draw(state batch.State, vertices []batch.Vertex, indices []uint16, instances []batch.Instance) {
	rl.BeginBlendMode(state.Blend)
	defer rl.EndBlendMode()
	if d.Shader != nil {
		rl.BeginShaderMode(d.Shader.Shader)
		defer rl.EndShaderMode()
	}

	switch state.Format {
	case batch.FormatQuads, batch.FormatStrip:
		d.drawTriangles(state.Texture, vertices, indices)
	case batch.FormatInstances:
		d.drawInstances(state, instances)
	}
}

func (d *Device) drawTriangles(texture uint32, vertices []batch.Vertex, indices []uint16) {
	rl.SetTexture(texture)
	rl.Begin(rl.Triangles)
	for _, i := range indices {
		v := &vertices[i]
		rl.Color4ub(v.Color.R, v.Color.G, v.Color.B, v.Color.A)
		rl.TexCoord2f(v.TexCoord.X, v.TexCoord.Y)
		rl.Vertex3f(v.Position.X, v.Position.Y, v.Position.Z)
	}
	rl.End()
	rl.SetTexture(0)
}

func (d *Device) drawInstances(state batch.State, instances []batch.Instance) {
	if state.Mesh < 0 || state.Mesh >= len(d.meshes) {
		if !d.warned[state.Mesh] {
			utils.Warn("Device: mesh %d is not registered, skipping %d instances", state.Mesh, len(instances))
			d.warned[state.Mesh] = true
		}
		return
	}
	if !d.hasMat {
		d.material = rl.LoadMaterialDefault()
		d.hasMat = true
	}
	if d.Shader != nil {
		d.material.Shader = d.Shader.Shader
	}
	diffuse := d.material.GetMap(rl.MapDiffuse)
	if tex, ok := d.textures[state.Texture]; ok {
		diffuse.Texture = tex
	}

	mesh := d.meshes[state.Mesh]
	if uniformColor(instances) {
		diffuse.Color = instances[0].Color
		d.transforms = d.transforms[:0]
		for i := range instances {
			d.transforms = append(d.transforms, instances[i].Transform)
		}
		rl.DrawMeshInstanced(mesh, d.material, d.transforms, len(d.transforms))
		return
	}
	for i := range instances {
		diffuse.Color = instances[i].Color
		rl.DrawMesh(mesh, d.material, instances[i].Transform)
	}
}

func uniformColor(instances []batch.Instance) bool {
	for i := 1; i < len(instances); i++ {
		if instances[i].Color != instances[0].Color {
			return false
		}
	}
	return len(instances) > 0
}

// Unload frees the registered meshes and the default material.
func (d *Device) Unload() {
	for _, m := range d.meshes {
		rl.UnloadMesh(&m)
	}
	d.meshes = nil
	if d.hasMat {
		rl.UnloadMaterial(d.material)
		d.hasMat = false
	}
}
