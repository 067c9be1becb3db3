package particle

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Particle is one simulated element. Local is relative to the owning node's
// parent; Global and PrevGlobal are the last two world transforms, used for
// render interpolation.
type Particle struct {
	Local      Transform
	Global     Transform
	PrevGlobal Transform

	Velocity        rl.Vector3
	AngularVelocity rl.Vector3
	Force           rl.Vector3
	Torque          rl.Vector3

	Lifetime    float32
	MaxLifetime float32

	Color        rl.Vector3
	Alpha        float32
	InitialAlpha float32
	Size         float32
	InitialSize  float32
	Frame        float32
	Seed         float32

	// Sub holds nodes spawned from this particle's child definitions.
	Sub Subsystem
}

func (p *Particle) reset() {
	*p = Particle{
		Local:        Identity(),
		Global:       Identity(),
		PrevGlobal:   Identity(),
		Lifetime:     1,
		MaxLifetime:  1,
		Color:        rl.Vector3One(),
		Alpha:        1,
		InitialAlpha: 1,
		Size:         20,
		InitialSize:  20,
	}
}

// Init clears p to spawn defaults and instantiates one node per child
// container. origin is the node that owns p.
func (p *Particle) Init(children []Container, origin *Node) error {
	p.reset()
	for i := range children {
		if _, err := children[i].instantiate(p, &p.Sub, origin); err != nil {
			p.Sub.Orphan()
			return err
		}
	}
	return nil
}

// AddForce accumulates a force for the current tick. Mass is one.
func (p *Particle) AddForce(f rl.Vector3) {
	p.Force = rl.Vector3Add(p.Force, f)
}

// AddTorque accumulates a torque for the current tick.
func (p *Particle) AddTorque(t rl.Vector3) {
	p.Torque = rl.Vector3Add(p.Torque, t)
}

// PreUpdate integrates the accumulated force and torque into the
// velocities, then clears them.
func (p *Particle) PreUpdate(dt float32) {
	p.Velocity = rl.Vector3Add(p.Velocity, rl.Vector3Scale(p.Force, dt))
	p.AngularVelocity = rl.Vector3Add(p.AngularVelocity, rl.Vector3Scale(p.Torque, dt))
	p.Force = rl.Vector3{}
	p.Torque = rl.Vector3{}
}

// PostUpdate integrates position and orientation and ages the particle.
func (p *Particle) PostUpdate(dt float32) {
	p.Local.Position = rl.Vector3Add(p.Local.Position, rl.Vector3Scale(p.Velocity, dt))
	p.Local.Rotation = integrateRotation(p.Local.Rotation, p.AngularVelocity, dt)
	p.Lifetime -= dt
}

// UpdateGlobalTransform shifts Global into PrevGlobal and recomputes
// Global from the parent's current state.
func (p *Particle) UpdateGlobalTransform(parent ParentState) {
	p.PrevGlobal = p.Global
	p.Global = parent.Global.Compose(p.Local)
}

// Dead reports whether the particle's lifetime has run out.
func (p *Particle) Dead() bool { return p.Lifetime <= 0 }

// Delete orphans every node spawned from p. The nodes keep running on
// their own according to their delete mode.
func (p *Particle) Delete() {
	p.Sub.Orphan()
}

// Age returns the elapsed fraction of the particle's life in [0, 1].
func (p *Particle) Age() float32 {
	if p.MaxLifetime <= 0 {
		return 1
	}
	a := 1 - p.Lifetime/p.MaxLifetime
	if a < 0 {
		return 0
	}
	if a > 1 {
		return 1
	}
	return a
}

// Interpolated returns the world transform between the last two ticks.
func (p *Particle) Interpolated(alpha float32) Transform {
	return p.PrevGlobal.Lerp(p.Global, alpha)
}
