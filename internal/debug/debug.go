// Package debug draws the F8 overlay: timing, memory, batch and particle
// counts, plus optional per-node bounding boxes.
package debug

import (
	"fmt"
	"runtime"
	"sort"
	"time"

	"linux-particleengine/internal/engine3D"
	"linux-particleengine/internal/utils"

	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

type Overlay struct {
	ShowBoundingBoxes bool

	fontHeight int
	lineHeight int
	width      int

	memStats       runtime.MemStats
	lastUpdateTime time.Time
}

func NewOverlay() *Overlay {
	d := &Overlay{lastUpdateTime: time.Now()}
	scale := math32.Max(1, float32(rl.GetScreenHeight())/1080)
	d.fontHeight = int(16 * scale)
	d.lineHeight = int(22 * scale)
	d.width = int(360 * scale)
	runtime.ReadMemStats(&d.memStats)
	return d
}

// Update handles the overlay keys: F8 shows or hides it, B toggles the
// bounding boxes.
func (d *Overlay) Update() {
	if rl.IsKeyPressed(rl.KeyF8) {
		utils.ShowDebugUI = !utils.ShowDebugUI
		utils.Debug("Debug: overlay %v", utils.ShowDebugUI)
	}
	if !utils.ShowDebugUI {
		return
	}
	if rl.IsKeyPressed(rl.KeyB) {
		d.ShowBoundingBoxes = !d.ShowBoundingBoxes
	}
	if now := time.Now(); now.Sub(d.lastUpdateTime) >= time.Second {
		runtime.ReadMemStats(&d.memStats)
		d.lastUpdateTime = now
	}
}

// Draw3D draws bounding boxes. Call it inside 3D mode.
func (d *Overlay) Draw3D(r *engine3D.Renderer) {
	if !utils.ShowDebugUI || !d.ShowBoundingBoxes {
		return
	}
	for _, e := range r.Effects {
		DrawBounds(e.System)
	}
}

// Draw draws the side panel in screen space.
func (d *Overlay) Draw(r *engine3D.Renderer) {
	if !utils.ShowDebugUI {
		return
	}
	rl.DrawRectangle(0, 0, int32(d.width), int32(rl.GetScreenHeight()), rl.NewColor(0, 0, 0, 170))
	ui := NewUIContext(10, 10, d.lineHeight, d.fontHeight)

	ui.Header("Timing:")
	ui.IndentLabel(fmt.Sprintf("FPS: %d", rl.GetFPS()), 10)
	ui.IndentLabel(fmt.Sprintf("Frame Time: %.2f ms", rl.GetFrameTime()*1000), 10)
	ui.IndentLabel(fmt.Sprintf("Uptime: %s", r.Clock.Uptime().Round(time.Second)), 10)
	ui.IndentLabel(fmt.Sprintf("Ticks: %d (%.0f Hz, alpha %.2f)", r.Clock.Ticks(), 1/r.Clock.Step, r.Alpha()), 10)
	if r.Paused {
		ui.IndentLabel("Paused", 10)
	}
	ui.Separator()

	ui.Header("Memory:")
	ui.IndentLabel(fmt.Sprintf("Heap Alloc: %.2f MB", float64(d.memStats.HeapAlloc)/1024/1024), 10)
	ui.IndentLabel(fmt.Sprintf("GC Cycles: %d", d.memStats.NumGC), 10)
	ui.Separator()

	bs := r.BatchStats()
	ui.Header("Batch:")
	ui.IndentLabel(fmt.Sprintf("Draws: %d  Generations: %d", bs.Draws, bs.Generations), 10)
	ui.IndentLabel(fmt.Sprintf("Vertices: %d  Instances: %d", bs.Vertices, bs.Instances), 10)
	ui.Separator()

	ps := r.Stats()
	ui.Header(fmt.Sprintf("Effects (%d):", len(r.Effects)))
	ui.IndentLabel(fmt.Sprintf("Nodes: %d  Orphans: %d  Particles: %d", ps.Nodes, ps.Orphans, ps.Particles), 10)

	effects := append([]*engine3D.Effect(nil), r.Effects...)
	sort.SliceStable(effects, func(i, j int) bool { return effects[i].Name < effects[j].Name })
	for _, e := range effects {
		s := e.System.Stats()
		state := "running"
		if e.System.Stopped() {
			state = "stopping"
		}
		ui.IndentLabel(fmt.Sprintf("%s: %d nodes, %d particles, %s", e.Name, s.Nodes, s.Particles, state), 10)
	}
	ui.Separator()
	ui.Label("F8 hide  B boxes  R restart  S stop  P pause")
}
