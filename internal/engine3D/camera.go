package engine3D

import (
	"linux-particleengine/internal/particle"

	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Camera orbits a target point. Yaw and Pitch are in radians.
type Camera struct {
	Target      rl.Vector3
	Distance    float32
	Yaw         float32
	Pitch       float32
	Fovy        float32
	MinDistance float32
	MaxDistance float32
}

const maxPitch = 1.5

func NewCamera(distance, fovy float32) *Camera {
	return &Camera{
		Distance:    distance,
		Fovy:        fovy,
		MinDistance: 1,
		MaxDistance: distance * 10,
	}
}

// Orbit turns the camera around its target.
func (c *Camera) Orbit(yaw, pitch float32) {
	c.Yaw += yaw
	c.Pitch += pitch
	if c.Pitch > maxPitch {
		c.Pitch = maxPitch
	}
	if c.Pitch < -maxPitch {
		c.Pitch = -maxPitch
	}
}

// Zoom moves towards the target for positive steps.
func (c *Camera) Zoom(steps float32) {
	c.Distance *= 1 - steps*0.1
	if c.Distance < c.MinDistance {
		c.Distance = c.MinDistance
	}
	if c.MaxDistance > 0 && c.Distance > c.MaxDistance {
		c.Distance = c.MaxDistance
	}
}

func (c *Camera) Eye() rl.Vector3 {
	cp := math32.Cos(c.Pitch)
	offset := rl.Vector3{
		X: c.Distance * cp * math32.Sin(c.Yaw),
		Y: c.Distance * math32.Sin(c.Pitch),
		Z: c.Distance * cp * math32.Cos(c.Yaw),
	}
	return rl.Vector3Add(c.Target, offset)
}

// View returns the basis particle renderers build geometry from.
func (c *Camera) View() particle.View {
	return particle.NewView(c.Eye(), c.Target, rl.NewVector3(0, 1, 0))
}

func (c *Camera) Camera3D() rl.Camera3D {
	return rl.Camera3D{
		Position:   c.Eye(),
		Target:     c.Target,
		Up:         rl.NewVector3(0, 1, 0),
		Fovy:       c.Fovy,
		Projection: rl.CameraPerspective,
	}
}

// HandleInput orbits while the left button is held and zooms with the
// wheel.
func (c *Camera) HandleInput() {
	if rl.IsMouseButtonDown(rl.MouseLeftButton) {
		d := rl.GetMouseDelta()
		c.Orbit(-d.X*0.005, d.Y*0.005)
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		c.Zoom(wheel)
	}
}

// Unproject maps a screen position in a width x height viewport onto the
// plane through the target that faces the camera.
func (c *Camera) Unproject(screen rl.Vector2, width, height int) rl.Vector3 {
	if width <= 0 || height <= 0 {
		return c.Target
	}
	eye := c.Eye()
	forward := rl.Vector3Normalize(rl.Vector3Subtract(c.Target, eye))
	right := rl.Vector3Normalize(rl.Vector3CrossProduct(forward, rl.NewVector3(0, 1, 0)))
	up := rl.Vector3CrossProduct(right, forward)

	tanHalf := math32.Tan(c.Fovy * math32.Pi / 360)
	aspect := float32(width) / float32(height)
	nx := (2*screen.X/float32(width) - 1) * tanHalf * aspect
	ny := (1 - 2*screen.Y/float32(height)) * tanHalf

	dir := rl.Vector3Add(forward, rl.Vector3Add(rl.Vector3Scale(right, nx), rl.Vector3Scale(up, ny)))
	return rl.Vector3Add(eye, rl.Vector3Scale(dir, c.Distance))
}
