package particle

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

var operators = [operatorKindCount]func(n *Node, p *Particle, op *OperatorDef, dt float32){
	OpMovement:            opMovement,
	OpAlphaFade:           opAlphaFade,
	OpSizeChange:          opSizeChange,
	OpColorChange:         opColorChange,
	OpTurbulence:          opTurbulence,
	OpControlPointAttract: opControlPointAttract,
	OpOscillatePosition:   opOscillatePosition,
	OpOscillateAlpha:      opOscillateAlpha,
	OpAnimateFrames:       opAnimateFrames,
}

// window maps age into the operator's [StartTime, EndTime] window. An
// unset EndTime means the end of life.
func (op *OperatorDef) window(age float32) float32 {
	end := op.EndTime
	if end <= 0 {
		end = 1
	}
	if end <= op.StartTime {
		if age >= end {
			return 1
		}
		return 0
	}
	t := (age - op.StartTime) / (end - op.StartTime)
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

func (op *OperatorDef) frequency(seed float32) float32 {
	f := op.FrequencyMax
	if op.FrequencyMin > 0 && op.FrequencyMax > op.FrequencyMin {
		f = op.FrequencyMin + seed*(op.FrequencyMax-op.FrequencyMin)
	}
	if f == 0 {
		f = 1
	}
	return f
}

func opMovement(n *Node, p *Particle, op *OperatorDef, dt float32) {
	p.AddForce(op.Gravity)
	if op.Drag > 0 {
		p.AddForce(rl.Vector3Scale(p.Velocity, -op.Drag))
	}
}

// opAlphaFade fades in over the first StartTime of life and out over the
// last EndTime.
func opAlphaFade(n *Node, p *Particle, op *OperatorDef, dt float32) {
	age := p.Age()
	f := float32(1)
	if op.StartTime > 0 && age < op.StartTime {
		f = age / op.StartTime
	}
	if op.EndTime > 0 && age > 1-op.EndTime {
		f = math32.Min(f, (1-age)/op.EndTime)
	}
	p.Alpha *= f
}

func opSizeChange(n *Node, p *Particle, op *OperatorDef, dt float32) {
	t := op.window(p.Age())
	p.Size = p.InitialSize * (op.StartValue.X + (op.EndValue.X-op.StartValue.X)*t)
}

func opColorChange(n *Node, p *Particle, op *OperatorDef, dt float32) {
	p.Color = rl.Vector3Lerp(op.StartValue, op.EndValue, op.window(p.Age()))
}

func opTurbulence(n *Node, p *Particle, op *OperatorDef, dt float32) {
	if op.SpeedMax <= 0 {
		return
	}
	timeScale := op.TimeScale
	if timeScale == 0 {
		timeScale = 1
	}
	scale := op.Scale
	if scale == 0 {
		scale = 1
	}
	t := n.system().time * timeScale
	pos := p.Local.Position
	noise := rl.Vector3{
		X: math32.Sin(t*0.7+pos.X*scale) * math32.Cos(t*0.3),
		Y: math32.Cos(t*0.5+pos.Y*scale) * math32.Sin(t*0.8),
		Z: math32.Sin(t*0.6+pos.Z*scale) * math32.Cos(t*0.4),
	}
	speed := op.SpeedMin + p.Seed*(op.SpeedMax-op.SpeedMin)
	p.AddForce(rl.Vector3Scale(noise, speed))
}

// opControlPointAttract pulls particles within Threshold of the control
// point with a force of Scale over the squared distance.
func opControlPointAttract(n *Node, p *Particle, op *OperatorDef, dt float32) {
	cp := n.system().controlPoints[op.ControlPoint]
	d := rl.Vector3Subtract(cp, p.Local.Position)
	distSq := rl.Vector3DotProduct(d, d)
	threshold := op.Threshold
	if threshold <= 0 {
		threshold = 100
	}
	if distSq >= threshold*threshold || distSq <= 1 {
		return
	}
	dist := math32.Sqrt(distSq)
	p.AddForce(rl.Vector3Scale(d, op.Scale/(distSq*dist)))
}

func opOscillatePosition(n *Node, p *Particle, op *OperatorDef, dt float32) {
	t := p.MaxLifetime - p.Lifetime
	phase := (t*op.frequency(p.Seed) + p.Seed) * twoPi
	offset := rl.Vector3{X: math32.Sin(phase), Y: math32.Cos(phase + 1)}
	p.Local.Position = rl.Vector3Add(p.Local.Position, rl.Vector3Scale(offset, op.ScaleMax*dt))
}

func opOscillateAlpha(n *Node, p *Particle, op *OperatorDef, dt float32) {
	scaleMax := op.ScaleMax
	if scaleMax == 0 {
		scaleMax = 1
	}
	t := p.MaxLifetime - p.Lifetime
	wave := (math32.Sin(t*op.frequency(p.Seed)*twoPi) + 1) * 0.5
	p.Alpha *= op.ScaleMin + wave*(scaleMax-op.ScaleMin)
}

func opAnimateFrames(n *Node, p *Particle, op *OperatorDef, dt float32) {
	p.Frame += op.Rate * dt
	if frames := frameCount(&n.def.Renderer); frames > 0 {
		p.Frame = math32.Mod(p.Frame, float32(frames))
	}
}
