package engine3D

import (
	"fmt"

	"linux-particleengine/internal/batch"
	"linux-particleengine/internal/particle"
	"linux-particleengine/internal/utils"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Effect is one particle system placed in the scene.
type Effect struct {
	Name    string
	Def     *particle.SystemDef
	Options particle.Options
	Origin  particle.Transform
	System  *particle.System
}

// Renderer steps every effect on a fixed clock and batches them into one
// shared batch context.
type Renderer struct {
	Camera  *Camera
	Clock   *FrameClock
	Batch   *batch.Context
	Effects []*Effect

	// Pointer is the mouse in scene space; pointer-locked control
	// points follow it.
	Pointer rl.Vector3
	Paused  bool

	alpha     float32
	lastStats batch.Stats
}

func NewRenderer(device batch.Device, capacity batch.Capacity, camera *Camera, clock *FrameClock) (*Renderer, error) {
	ctx, err := batch.NewContext(device, capacity)
	if err != nil {
		return nil, err
	}
	return &Renderer{Camera: camera, Clock: clock, Batch: ctx}, nil
}

// Spawn starts a new effect at origin.
func (r *Renderer) Spawn(name string, def *particle.SystemDef, origin particle.Transform, opts particle.Options) (*Effect, error) {
	opts.Capacity = r.Batch.Capacity()
	e := &Effect{Name: name, Def: def, Options: opts, Origin: origin}
	if err := r.start(e); err != nil {
		return nil, err
	}
	r.Effects = append(r.Effects, e)
	return e, nil
}

func (r *Renderer) start(e *Effect) error {
	sys, err := particle.NewSystem(e.Def, e.Options)
	if err != nil {
		return fmt.Errorf("effect %s: %w", e.Name, err)
	}
	sys.SetTransform(e.Origin)
	e.System = sys
	return nil
}

// Restart replaces every effect's system with a fresh one.
func (r *Renderer) Restart() error {
	for _, e := range r.Effects {
		if err := r.start(e); err != nil {
			return err
		}
	}
	utils.Info("Renderer: restarted %d effects", len(r.Effects))
	return nil
}

// StopAll lets every effect wind down.
func (r *Renderer) StopAll() {
	for _, e := range r.Effects {
		e.System.Stop()
	}
}

// Update runs as many fixed steps as the frame time covers.
func (r *Renderer) Update(frameTime float32) error {
	if r.Paused {
		return nil
	}
	steps, alpha := r.Clock.Advance(frameTime)
	r.alpha = alpha
	view := r.Camera.View()
	for i := 0; i < steps; i++ {
		for _, e := range r.Effects {
			e.System.SetPointer(r.Pointer)
			if err := e.System.Update(r.Clock.Step, view); err != nil {
				return err
			}
		}
	}
	r.prune()
	return nil
}

// prune drops stopped effects whose nodes have all gone.
func (r *Renderer) prune() {
	kept := r.Effects[:0]
	for _, e := range r.Effects {
		if e.System.Stopped() && !e.System.Alive() {
			utils.Debug("Renderer: effect %s finished", e.Name)
			continue
		}
		kept = append(kept, e)
	}
	r.Effects = kept
}

// Render batches every effect at the current interpolation alpha. The
// caller owns the 3D mode and shader scope.
func (r *Renderer) Render() error {
	r.Batch.ResetStats()
	view := r.Camera.View()
	for _, e := range r.Effects {
		if err := e.System.Render(r.Batch, view, r.alpha); err != nil {
			return fmt.Errorf("effect %s: %w", e.Name, err)
		}
	}
	r.Batch.End()
	r.lastStats = r.Batch.Stats()
	return nil
}

func (r *Renderer) Alpha() float32          { return r.alpha }
func (r *Renderer) BatchStats() batch.Stats { return r.lastStats }

// Stats sums node and particle counts over every effect.
func (r *Renderer) Stats() particle.Stats {
	var total particle.Stats
	for _, e := range r.Effects {
		s := e.System.Stats()
		total.Nodes += s.Nodes
		total.Orphans += s.Orphans
		total.Particles += s.Particles
	}
	return total
}
