package particle

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

var constraints = [constraintKindCount]func(n *Node, p *Particle, c *ConstraintDef, dt float32){
	ConstrainMaxSpeed: constrainMaxSpeed,
	ConstrainPlane:    constrainPlane,
	ConstrainSphere:   constrainSphere,
}

func constrainMaxSpeed(n *Node, p *Particle, c *ConstraintDef, dt float32) {
	speedSq := rl.Vector3DotProduct(p.Velocity, p.Velocity)
	if c.MaxSpeed <= 0 || speedSq <= c.MaxSpeed*c.MaxSpeed {
		return
	}
	p.Velocity = rl.Vector3Scale(p.Velocity, c.MaxSpeed/math32.Sqrt(speedSq))
}

func constrainPlane(n *Node, p *Particle, c *ConstraintDef, dt float32) {
	normal := c.Normal
	if normal == (rl.Vector3{}) {
		normal = rl.Vector3{Y: 1}
	}
	normal = rl.Vector3Normalize(normal)

	depth := rl.Vector3DotProduct(normal, p.Local.Position) - c.Distance
	if depth >= 0 {
		return
	}
	p.Local.Position = rl.Vector3Subtract(p.Local.Position, rl.Vector3Scale(normal, depth))
	if vn := rl.Vector3DotProduct(p.Velocity, normal); vn < 0 {
		p.Velocity = rl.Vector3Subtract(p.Velocity, rl.Vector3Scale(normal, vn*(1+c.Bounce)))
	}
}

func constrainSphere(n *Node, p *Particle, c *ConstraintDef, dt float32) {
	center := n.system().controlPoints[c.ControlPoint]
	offset := rl.Vector3Subtract(p.Local.Position, center)
	distSq := rl.Vector3DotProduct(offset, offset)
	if c.Radius <= 0 || distSq <= c.Radius*c.Radius {
		return
	}
	dist := math32.Sqrt(distSq)
	dir := rl.Vector3Scale(offset, 1/dist)
	p.Local.Position = rl.Vector3Add(center, rl.Vector3Scale(dir, c.Radius))
	if vn := rl.Vector3DotProduct(p.Velocity, dir); vn > 0 {
		p.Velocity = rl.Vector3Subtract(p.Velocity, rl.Vector3Scale(dir, vn))
	}
}
