package wallpaper

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Vec3 accepts "x y z", a bare number for every component, [x, y, z] or
// {x, y, z}. A bare number is remembered as a scalar.
type Vec3 struct {
	X, Y, Z float32
	scalar  bool
}

func (v Vec3) Vector3() rl.Vector3 { return rl.Vector3{X: v.X, Y: v.Y, Z: v.Z} }

// Scalar reports whether the value was written as a single number.
func (v Vec3) Scalar() bool { return v.scalar }

// Float accepts a number, {"value": n} or a string whose first field is a
// number.
type Float struct {
	Value float32
	Set   bool
}

// Or returns the value, or def when the field was absent.
func (f Float) Or(def float32) float32 {
	if !f.Set {
		return def
	}
	return f.Value
}

type Camera struct {
	Center Vec3 `json:"center" yaml:"center"`
	Eye    Vec3 `json:"eye" yaml:"eye"`
	Up     Vec3 `json:"up" yaml:"up"`
}

// Scene places particle effects in the world.
type Scene struct {
	Camera  Camera   `json:"camera" yaml:"camera"`
	Objects []Object `json:"objects" yaml:"objects"`
	Version int      `json:"version" yaml:"version"`
}

type Object struct {
	ID               int               `json:"id" yaml:"id"`
	Name             string            `json:"name" yaml:"name"`
	Particle         string            `json:"particle" yaml:"particle"`
	Origin           Vec3              `json:"origin" yaml:"origin"`
	Angles           Vec3              `json:"angles" yaml:"angles"`
	Scale            Vec3              `json:"scale" yaml:"scale"`
	Visible          *bool             `json:"visible" yaml:"visible"`
	InstanceOverride *InstanceOverride `json:"instanceoverride" yaml:"instanceoverride"`
}

// IsVisible treats a missing flag as visible.
func (o *Object) IsVisible() bool { return o.Visible == nil || *o.Visible }

type InstanceOverride struct {
	ID       int    `json:"id" yaml:"id"`
	Alpha    Float  `json:"alpha" yaml:"alpha"`
	ColorN   string `json:"colorn" yaml:"colorn"`
	Count    Float  `json:"count" yaml:"count"`
	Lifetime Float  `json:"lifetime" yaml:"lifetime"`
	Rate     Float  `json:"rate" yaml:"rate"`
	Size     Float  `json:"size" yaml:"size"`
	Speed    Float  `json:"speed" yaml:"speed"`
}

type MaterialJSON struct {
	Passes []struct {
		Textures []string       `json:"textures" yaml:"textures"`
		Blending string         `json:"blending" yaml:"blending"`
		Shader   string         `json:"shader" yaml:"shader"`
		Combos   map[string]int `json:"combos" yaml:"combos"`
	} `json:"passes" yaml:"passes"`
}

// ParticleJSON is one node of an effect. Children reference other files or
// carry their definition inline.
type ParticleJSON struct {
	Name               string                `json:"name" yaml:"name"`
	Material           string                `json:"material" yaml:"material"`
	MaxCount           int                   `json:"maxcount" yaml:"maxcount"`
	Lifetime           float32               `json:"lifetime" yaml:"lifetime"`
	SequenceMultiplier float32               `json:"sequencemultiplier" yaml:"sequencemultiplier"`
	AnimationMode      string                `json:"animationmode" yaml:"animationmode"`
	Sort               string                `json:"sort" yaml:"sort"`
	Delete             string                `json:"delete" yaml:"delete"`
	Detach             []string              `json:"detach" yaml:"detach"`
	Emitter            []ParticleEmitter     `json:"emitter" yaml:"emitter"`
	Initializer        []ParticleInitializer `json:"initializer" yaml:"initializer"`
	Operator           []ParticleOperator    `json:"operator" yaml:"operator"`
	Constraint         []ParticleConstraint  `json:"constraint" yaml:"constraint"`
	Renderer           []ParticleRenderer    `json:"renderer" yaml:"renderer"`
	Children           []ParticleChild       `json:"children" yaml:"children"`
	ControlPoint       []ControlPoint        `json:"controlpoint" yaml:"controlpoint"`
}

// ParticleChild spawns a nested node on every particle of its parent.
// Name is the child's file unless Particle is given inline.
type ParticleChild struct {
	Name     string        `json:"name" yaml:"name"`
	Type     string        `json:"type" yaml:"type"`
	MaxCount int           `json:"maxcount" yaml:"maxcount"`
	Particle *ParticleJSON `json:"particle" yaml:"particle"`
}

type ParticleEmitter struct {
	ID            int     `json:"id" yaml:"id"`
	Name          string  `json:"name" yaml:"name"`
	Rate          Float   `json:"rate" yaml:"rate"`
	Origin        Vec3    `json:"origin" yaml:"origin"`
	DistanceMax   Vec3    `json:"distancemax" yaml:"distancemax"`
	DistanceMin   Vec3    `json:"distancemin" yaml:"distancemin"`
	Instantaneous int     `json:"instantaneous" yaml:"instantaneous"`
	Delay         float32 `json:"delay" yaml:"delay"`
	Interval      float32 `json:"interval" yaml:"interval"`
	Repeat        int     `json:"repeat" yaml:"repeat"`
}

type ParticleInitializer struct {
	ID       int     `json:"id" yaml:"id"`
	Name     string  `json:"name" yaml:"name"`
	Min      Vec3    `json:"min" yaml:"min"`
	Max      Vec3    `json:"max" yaml:"max"`
	Exponent float32 `json:"exponent" yaml:"exponent"`
}

type ParticleOperator struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	// Movement
	Gravity Vec3  `json:"gravity" yaml:"gravity"`
	Drag    Float `json:"drag" yaml:"drag"`
	// Alpha fade
	FadeInTime  float32 `json:"fadeintime" yaml:"fadeintime"`
	FadeOutTime float32 `json:"fadeouttime" yaml:"fadeouttime"`
	// Control point attract
	ControlPoint int     `json:"controlpoint" yaml:"controlpoint"`
	Scale        float32 `json:"scale" yaml:"scale"`
	Threshold    float32 `json:"threshold" yaml:"threshold"`
	// Turbulence
	TimeScale float32 `json:"timescale" yaml:"timescale"`
	SpeedMin  float32 `json:"speedmin" yaml:"speedmin"`
	SpeedMax  float32 `json:"speedmax" yaml:"speedmax"`
	// Size and color change
	StartTime  float32 `json:"starttime" yaml:"starttime"`
	StartValue Vec3    `json:"startvalue" yaml:"startvalue"`
	EndTime    float32 `json:"endtime" yaml:"endtime"`
	EndValue   Vec3    `json:"endvalue" yaml:"endvalue"`
	// Oscillation
	FrequencyMax float32 `json:"frequencymax" yaml:"frequencymax"`
	FrequencyMin float32 `json:"frequencymin" yaml:"frequencymin"`
	ScaleMin     float32 `json:"scalemin" yaml:"scalemin"`
	ScaleMax     float32 `json:"scalemax" yaml:"scalemax"`
	// Frame animation
	Rate float32 `json:"rate" yaml:"rate"`
}

type ParticleConstraint struct {
	ID           int     `json:"id" yaml:"id"`
	Name         string  `json:"name" yaml:"name"`
	MaxSpeed     float32 `json:"maxspeed" yaml:"maxspeed"`
	Normal       Vec3    `json:"normal" yaml:"normal"`
	Distance     float32 `json:"distance" yaml:"distance"`
	Bounce       float32 `json:"bounce" yaml:"bounce"`
	ControlPoint int     `json:"controlpoint" yaml:"controlpoint"`
	Radius       float32 `json:"radius" yaml:"radius"`
}

type ParticleRenderer struct {
	ID       int     `json:"id" yaml:"id"`
	Name     string  `json:"name" yaml:"name"`
	Length   float32 `json:"length" yaml:"length"`
	Width    float32 `json:"width" yaml:"width"`
	Oriented bool    `json:"oriented" yaml:"oriented"`
	Mesh     int     `json:"mesh" yaml:"mesh"`
}

type ControlPoint struct {
	ID            int  `json:"id" yaml:"id"`
	Flags         int  `json:"flags" yaml:"flags"`
	LockToPointer bool `json:"locktopointer" yaml:"locktopointer"`
	Offset        Vec3 `json:"offset" yaml:"offset"`
}

type TexJSON struct {
	ClampUVs             bool                  `json:"clampuvs" yaml:"clampuvs"`
	Format               string                `json:"format" yaml:"format"`
	NonPowerOfTwo        bool                  `json:"nonpoweroftwo" yaml:"nonpoweroftwo"`
	SpriteSheetSequences []SpriteSheetSequence `json:"spritesheetsequences" yaml:"spritesheetsequences"`
}

type SpriteSheetSequence struct {
	Duration float32 `json:"duration" yaml:"duration"`
	Frames   int     `json:"frames" yaml:"frames"`
	Height   int     `json:"height" yaml:"height"`
	Width    int     `json:"width" yaml:"width"`
}
