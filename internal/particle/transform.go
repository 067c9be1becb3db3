package particle

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Transform is a position, rotation and non-uniform scale.
type Transform struct {
	Position rl.Vector3
	Rotation rl.Quaternion
	Scale    rl.Vector3
}

// Identity returns the transform that leaves everything in place.
func Identity() Transform {
	return Transform{
		Rotation: rl.QuaternionIdentity(),
		Scale:    rl.Vector3One(),
	}
}

// Compose returns local expressed in the space that t describes.
func (t Transform) Compose(local Transform) Transform {
	offset := rl.Vector3Multiply(local.Position, t.Scale)
	return Transform{
		Position: rl.Vector3Add(t.Position, rl.Vector3RotateByQuaternion(offset, t.Rotation)),
		Rotation: rl.QuaternionMultiply(t.Rotation, local.Rotation),
		Scale:    rl.Vector3Multiply(t.Scale, local.Scale),
	}
}

// Lerp blends from t towards to. Rotation uses a normalized lerp.
func (t Transform) Lerp(to Transform, alpha float32) Transform {
	return Transform{
		Position: rl.Vector3Lerp(t.Position, to.Position, alpha),
		Rotation: rl.QuaternionNlerp(t.Rotation, to.Rotation, alpha),
		Scale:    rl.Vector3Lerp(t.Scale, to.Scale, alpha),
	}
}

// Matrix returns the scale, then rotate, then translate matrix.
func (t Transform) Matrix() rl.Matrix {
	m := rl.MatrixMultiply(rl.MatrixScale(t.Scale.X, t.Scale.Y, t.Scale.Z), rl.QuaternionToMatrix(t.Rotation))
	return rl.MatrixMultiply(m, rl.MatrixTranslate(t.Position.X, t.Position.Y, t.Position.Z))
}

// mask drops the parts of t selected by flags, replacing them with identity.
func (t Transform) mask(flags DetachFlags) Transform {
	if flags&DetachPosition != 0 {
		t.Position = rl.Vector3Zero()
	}
	if flags&DetachRotation != 0 {
		t.Rotation = rl.QuaternionIdentity()
	}
	if flags&DetachScale != 0 {
		t.Scale = rl.Vector3One()
	}
	return t
}

// integrateRotation advances q by angular velocity w (radians per second)
// over dt: q' = q + 0.5*(w,0)*q*dt.
func integrateRotation(q rl.Quaternion, w rl.Vector3, dt float32) rl.Quaternion {
	if w.X == 0 && w.Y == 0 && w.Z == 0 {
		return q
	}
	spin := rl.QuaternionMultiply(rl.Quaternion{X: w.X, Y: w.Y, Z: w.Z, W: 0}, q)
	h := 0.5 * dt
	q = rl.Quaternion{
		X: q.X + spin.X*h,
		Y: q.Y + spin.Y*h,
		Z: q.Z + spin.Z*h,
		W: q.W + spin.W*h,
	}
	return renormalize(q)
}

// renormalize pulls a nearly unit quaternion back to unit length with one
// Newton step on 1/|q|.
func renormalize(q rl.Quaternion) rl.Quaternion {
	lenSq := q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W
	s := (3 - lenSq) * 0.5
	if lenSq < 0.5 || lenSq > 1.5 {
		return rl.QuaternionNormalize(q)
	}
	return rl.Quaternion{X: q.X * s, Y: q.Y * s, Z: q.Z * s, W: q.W * s}
}

func distanceSqr(a, b rl.Vector3) float32 {
	d := rl.Vector3Subtract(a, b)
	return rl.Vector3DotProduct(d, d)
}
