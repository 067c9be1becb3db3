package particle

import (
	"math"
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
)

func assertVector(t *testing.T, want, got rl.Vector3, msgAndArgs ...interface{}) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-4, msgAndArgs...)
	assert.InDelta(t, want.Y, got.Y, 1e-4, msgAndArgs...)
	assert.InDelta(t, want.Z, got.Z, 1e-4, msgAndArgs...)
}

func TestComposeIdentity(t *testing.T) {
	local := Transform{
		Position: rl.NewVector3(1, 2, 3),
		Rotation: rl.QuaternionFromAxisAngle(rl.NewVector3(0, 0, 1), 0.5),
		Scale:    rl.NewVector3(2, 2, 2),
	}
	got := Identity().Compose(local)
	assertVector(t, local.Position, got.Position)
	assertVector(t, local.Scale, got.Scale)
	assert.InDelta(t, local.Rotation.W, got.Rotation.W, 1e-5)

	got = local.Compose(Identity())
	assertVector(t, local.Position, got.Position)
}

func TestComposeTranslatesChild(t *testing.T) {
	parent := Identity()
	parent.Position = rl.NewVector3(5, 0, 0)
	local := Identity()
	local.Position = rl.NewVector3(1, 0, 0)

	assertVector(t, rl.NewVector3(6, 0, 0), parent.Compose(local).Position)
}

func TestComposeRotatesAndScalesChild(t *testing.T) {
	parent := Identity()
	parent.Rotation = rl.QuaternionFromAxisAngle(rl.NewVector3(0, 1, 0), math.Pi/2)
	parent.Scale = rl.NewVector3(2, 2, 2)
	local := Identity()
	local.Position = rl.NewVector3(1, 0, 0)

	got := parent.Compose(local)
	assertVector(t, rl.NewVector3(0, 0, -2), got.Position)
	assertVector(t, rl.NewVector3(2, 2, 2), got.Scale)
}

func TestDetachMask(t *testing.T) {
	parent := Transform{
		Position: rl.NewVector3(5, 0, 0),
		Rotation: rl.QuaternionFromAxisAngle(rl.NewVector3(0, 1, 0), 1),
		Scale:    rl.NewVector3(3, 3, 3),
	}
	got := parent.mask(DetachPosition | DetachScale)
	assertVector(t, rl.Vector3Zero(), got.Position)
	assertVector(t, rl.Vector3One(), got.Scale)
	assert.Equal(t, parent.Rotation, got.Rotation)
}

func TestIntegrateRotationStaysUnit(t *testing.T) {
	q := rl.QuaternionIdentity()
	w := rl.NewVector3(0, math.Pi/2, 0)
	const steps = 240
	for i := 0; i < steps; i++ {
		q = integrateRotation(q, w, 1.0/steps)
	}
	length := math.Sqrt(float64(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W))
	assert.InDelta(t, 1, length, 1e-3)

	got := rl.Vector3RotateByQuaternion(rl.NewVector3(1, 0, 0), q)
	assert.InDelta(t, 0, got.X, 0.02)
	assert.InDelta(t, -1, got.Z, 0.02)
}

func TestLerpEndpoints(t *testing.T) {
	a := Identity()
	b := Identity()
	b.Position = rl.NewVector3(10, 0, 0)
	assertVector(t, a.Position, a.Lerp(b, 0).Position)
	assertVector(t, rl.NewVector3(5, 0, 0), a.Lerp(b, 0.5).Position)
	assertVector(t, b.Position, a.Lerp(b, 1).Position)
}
