package main

import (
	"fmt"
	"io/fs"
	"path"

	"linux-particleengine/internal/config"
	"linux-particleengine/internal/convert"
	"linux-particleengine/internal/engine3D"
	"linux-particleengine/internal/particle"
	"linux-particleengine/internal/utils"
	"linux-particleengine/internal/wallpaper"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Placement is one effect to spawn and where.
type Placement struct {
	Name     string
	Effect   *wallpaper.Effect
	Origin   particle.Transform
	Override particle.Override
}

type Loaded struct {
	Camera     *wallpaper.Camera
	Placements []Placement
}

// loadPlacements reads the configured effect, or every visible particle
// object of the configured scene.
func loadPlacements(fsys fs.FS, cfg config.Config) (*Loaded, error) {
	loader := wallpaper.NewLoader(fsys, cfg.Capacity())
	out := &Loaded{}

	if cfg.Effect != "" {
		effect, err := loader.LoadEffect(cfg.Effect)
		if err != nil {
			return nil, err
		}
		out.Placements = append(out.Placements, Placement{
			Name:   path.Base(cfg.Effect),
			Effect: effect,
			Origin: particle.Identity(),
		})
	}

	if cfg.Scene != "" {
		scene, err := loader.LoadScene(cfg.Scene)
		if err != nil {
			return nil, err
		}
		out.Camera = &scene.Camera
		for i := range scene.Objects {
			obj := &scene.Objects[i]
			if obj.Particle == "" {
				continue
			}
			if !obj.IsVisible() {
				utils.Debug("Skipping hidden object: %s", obj.Name)
				continue
			}
			effect, err := loader.LoadEffect(obj.Particle)
			if err != nil {
				utils.Error("Failed to load particle %s for %s: %v", obj.Particle, obj.Name, err)
				continue
			}
			utils.Debug("Adding object: %s", obj.Name)
			out.Placements = append(out.Placements, Placement{
				Name:     obj.Name,
				Effect:   effect,
				Origin:   obj.Transform(),
				Override: obj.InstanceOverride.Override(),
			})
		}
	}

	if len(out.Placements) == 0 {
		return nil, fmt.Errorf("no particle effects found in %s", cfg.Effect+cfg.Scene)
	}
	return out, nil
}

// textureCache uploads each texture once and registers it with the device.
type textureCache struct {
	fsys    fs.FS
	device  *engine3D.Device
	loaded  map[string]rl.Texture2D
	missing map[string]bool
}

func newTextureCache(fsys fs.FS, device *engine3D.Device) *textureCache {
	return &textureCache{
		fsys:    fsys,
		device:  device,
		loaded:  make(map[string]rl.Texture2D),
		missing: make(map[string]bool),
	}
}

// Resolve satisfies wallpaper.TextureResolver.
func (c *textureCache) Resolve(name string) (uint32, int, int, bool) {
	if tex, ok := c.loaded[name]; ok {
		return tex.ID, int(tex.Width), int(tex.Height), true
	}
	if c.missing[name] {
		return 0, 0, 0, false
	}

	file, ok := convert.FindTexture(c.fsys, name)
	if !ok {
		file, ok = utils.FindByBase(c.fsys, name, ".tex", ".png", ".jpg", ".jpeg")
	}
	if !ok {
		utils.Error("Could not resolve texture path for %s", name)
		c.missing[name] = true
		return 0, 0, 0, false
	}
	img, err := convert.LoadImage(c.fsys, file)
	if err != nil {
		utils.Error("Failed to load texture %s: %v", file, err)
		c.missing[name] = true
		return 0, 0, 0, false
	}

	rlImg := rl.NewImageFromImage(img)
	tex := rl.LoadTextureFromImage(rlImg)
	if tex.ID == 0 {
		c.missing[name] = true
		return 0, 0, 0, false
	}
	rl.SetTextureFilter(tex, rl.FilterBilinear)
	c.device.AddTexture(tex)
	c.loaded[name] = tex
	utils.Debug("Loaded texture %s (%dx%d) as %d", file, tex.Width, tex.Height, tex.ID)
	return tex.ID, int(tex.Width), int(tex.Height), true
}

func (c *textureCache) Unload() {
	for _, tex := range c.loaded {
		rl.UnloadTexture(tex)
	}
	c.loaded = nil
}
