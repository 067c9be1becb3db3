package particle

import (
	"math"
	"math/rand"

	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

const twoPi = 2 * math.Pi

var initializers = [initializerKindCount]func(n *Node, p *Particle, in *InitializerDef){
	InitLifetime:        initLifetime,
	InitSize:            initSize,
	InitVelocity:        initVelocity,
	InitRotation:        initRotation,
	InitAngularVelocity: initAngularVelocity,
	InitColor:           initColor,
	InitAlpha:           initAlpha,
	InitBoxPosition:     initBoxPosition,
	InitSpherePosition:  initSpherePosition,
	InitFrame:           initFrame,
}

func randRange(rng *rand.Rand, min, max float32) float32 {
	return min + rng.Float32()*(max-min)
}

func randVector(rng *rand.Rand, min, max rl.Vector3) rl.Vector3 {
	return rl.Vector3{
		X: randRange(rng, min.X, max.X),
		Y: randRange(rng, min.Y, max.Y),
		Z: randRange(rng, min.Z, max.Z),
	}
}

func initLifetime(n *Node, p *Particle, in *InitializerDef) {
	p.MaxLifetime = randRange(n.system().rng, in.Min.X, in.Max.X)
	p.Lifetime = p.MaxLifetime
}

func initSize(n *Node, p *Particle, in *InitializerDef) {
	t := n.system().rng.Float32()
	if in.Exponent != 0 {
		t = math32.Pow(t, in.Exponent)
	}
	p.Size = in.Min.X + t*(in.Max.X-in.Min.X)
	p.InitialSize = p.Size
}

func initVelocity(n *Node, p *Particle, in *InitializerDef) {
	p.Velocity = randVector(n.system().rng, in.Min, in.Max)
}

// initRotation draws Euler angles in radians. An all zero range spins the
// particle to a random roll.
func initRotation(n *Node, p *Particle, in *InitializerDef) {
	rng := n.system().rng
	angles := randVector(rng, in.Min, in.Max)
	if in.Min == (rl.Vector3{}) && in.Max == (rl.Vector3{}) {
		angles.Z = rng.Float32() * twoPi
	}
	p.Local.Rotation = rl.QuaternionFromEuler(angles.X, angles.Y, angles.Z)
}

func initAngularVelocity(n *Node, p *Particle, in *InitializerDef) {
	p.AngularVelocity = randVector(n.system().rng, in.Min, in.Max)
}

func initColor(n *Node, p *Particle, in *InitializerDef) {
	p.Color = randVector(n.system().rng, in.Min, in.Max)
}

func initAlpha(n *Node, p *Particle, in *InitializerDef) {
	p.Alpha = randRange(n.system().rng, in.Min.X, in.Max.X)
	p.InitialAlpha = p.Alpha
}

func initBoxPosition(n *Node, p *Particle, in *InitializerDef) {
	p.Local.Position = rl.Vector3Add(p.Local.Position, randVector(n.system().rng, in.Min, in.Max))
}

// initSpherePosition places the particle in a shell between radius Min.X
// and Max.X, uniform in direction.
func initSpherePosition(n *Node, p *Particle, in *InitializerDef) {
	rng := n.system().rng
	z := rng.Float32()*2 - 1
	a := rng.Float32() * twoPi
	r := math32.Sqrt(1 - z*z)
	dir := rl.Vector3{X: r * math32.Cos(a), Y: r * math32.Sin(a), Z: z}
	radius := randRange(rng, in.Min.X, in.Max.X)
	p.Local.Position = rl.Vector3Add(p.Local.Position, rl.Vector3Scale(dir, radius))
}

// initFrame picks a whole frame in [Min.X, Max.X). A zero range uses
// every frame of the renderer's frame source.
func initFrame(n *Node, p *Particle, in *InitializerDef) {
	min, max := in.Min.X, in.Max.X
	if max <= min {
		min, max = 0, float32(frameCount(&n.def.Renderer))
	}
	p.Frame = math32.Floor(randRange(n.system().rng, min, max))
}
