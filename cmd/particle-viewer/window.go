package main

import (
	"io/fs"
	"time"

	"linux-particleengine/internal/config"
	"linux-particleengine/internal/debug"
	"linux-particleengine/internal/engine3D"
	"linux-particleengine/internal/particle"
	"linux-particleengine/internal/utils"

	rl "github.com/gen2brain/raylib-go/raylib"
)

type Window struct {
	cfg      config.Config
	camera   *engine3D.Camera
	clock    *engine3D.FrameClock
	shader   *engine3D.ParticleShader
	device   *engine3D.Device
	renderer *engine3D.Renderer
	textures *textureCache
	overlay  *debug.Overlay
	pointer  *utils.GlobalPointer

	pointerX, pointerY float32
}

func NewWindow(cfg config.Config, fsys fs.FS, loaded *Loaded) (*Window, error) {
	shader, err := engine3D.LoadParticleShader(cfg.SoftEdges)
	if err != nil {
		return nil, err
	}
	device := engine3D.NewDevice(shader)
	device.AddMesh(rl.GenMeshCube(1, 1, 1))
	device.AddMesh(rl.GenMeshSphere(0.5, 12, 12))

	camera := engine3D.NewCamera(cfg.Camera.Distance, cfg.Camera.Fovy)
	if c := loaded.Camera; c != nil {
		eye, center := c.Eye.Vector3(), c.Center.Vector3()
		if d := rl.Vector3Distance(eye, center); d > 0 {
			camera.Target = center
			camera.Distance = d
		}
	}
	clock := engine3D.NewFrameClock(cfg.Simulation.Rate, cfg.Simulation.MaxSteps)
	renderer, err := engine3D.NewRenderer(device, cfg.Capacity(), camera, clock)
	if err != nil {
		device.Unload()
		shader.Unload()
		return nil, err
	}

	w := &Window{
		cfg:      cfg,
		camera:   camera,
		clock:    clock,
		shader:   shader,
		device:   device,
		renderer: renderer,
		textures: newTextureCache(fsys, device),
		overlay:  debug.NewOverlay(),
	}
	if cfg.GlobalPointer {
		if w.pointer, err = utils.NewGlobalPointer(); err != nil {
			utils.Warn("Global pointer unavailable, using the window pointer: %v", err)
		}
	}

	for i, p := range loaded.Placements {
		p.Effect.Bind(w.textures.Resolve)
		opts := particle.Options{
			Seed:      cfg.Simulation.Seed + int64(i),
			Override:  p.Override,
			SortLimit: cfg.Simulation.SortLimit,
		}
		if _, err := renderer.Spawn(p.Name, p.Effect.Def, p.Origin, opts); err != nil {
			w.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Window) Run() error {
	rl.SetTargetFPS(int32(w.cfg.Window.FPS))
	for !rl.WindowShouldClose() {
		if err := w.Update(); err != nil {
			return err
		}
		rl.BeginDrawing()
		err := w.Draw()
		rl.EndDrawing()
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *Window) Update() error {
	w.camera.HandleInput()
	w.overlay.Update()

	switch {
	case rl.IsKeyPressed(rl.KeyR):
		if err := w.renderer.Restart(); err != nil {
			return err
		}
	case rl.IsKeyPressed(rl.KeyS):
		utils.Info("Stopping %d effects", len(w.renderer.Effects))
		w.renderer.StopAll()
	case rl.IsKeyPressed(rl.KeyP):
		w.renderer.Paused = !w.renderer.Paused
	}

	sw, sh := rl.GetScreenWidth(), rl.GetScreenHeight()
	mouse := w.mousePosition()
	w.renderer.Pointer = w.camera.Unproject(mouse, sw, sh)
	if sw > 0 && sh > 0 {
		w.pointerX = mouse.X/float32(sw)*2 - 1
		w.pointerY = 1 - mouse.Y/float32(sh)*2
	}
	return w.renderer.Update(rl.GetFrameTime())
}

// mousePosition prefers the X11 pointer so effects follow the mouse while
// the window is unfocused.
func (w *Window) mousePosition() rl.Vector2 {
	if w.pointer != nil {
		origin := rl.GetWindowPosition()
		x, y, err := w.pointer.Position(int(origin.X), int(origin.Y))
		if err == nil {
			return rl.NewVector2(float32(x), float32(y))
		}
		utils.Warn("Global pointer lost, falling back: %v", err)
		w.pointer.Close()
		w.pointer = nil
	}
	return rl.GetMousePosition()
}

func (w *Window) Draw() error {
	rl.ClearBackground(rl.Black)

	rl.BeginMode3D(w.camera.Camera3D())
	globals := w.clock.Globals(time.Now())
	globals.PointerX, globals.PointerY = w.pointerX, w.pointerY
	globals.AlphaCutoff = 0.004
	w.shader.Apply(globals)
	rl.DrawRenderBatchActive()
	rl.DisableDepthMask()
	err := w.renderer.Render()
	rl.DrawRenderBatchActive()
	rl.EnableDepthMask()
	w.overlay.Draw3D(w.renderer)
	rl.EndMode3D()

	w.overlay.Draw(w.renderer)
	return err
}

func (w *Window) Close() {
	if w.pointer != nil {
		w.pointer.Close()
	}
	w.textures.Unload()
	w.device.Unload()
	w.shader.Unload()
}
