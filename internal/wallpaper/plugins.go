package wallpaper

import (
	"fmt"
	"strings"

	"linux-particleengine/internal/particle"
	"linux-particleengine/internal/utils"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func normalizeName(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "")
}

// emitters converts emitter entries. Spawn shapes become position
// initializers; only the first shaped emitter places particles.
func emitters(list []ParticleEmitter) ([]particle.EmitterDef, []particle.InitializerDef) {
	var defs []particle.EmitterDef
	var shape []particle.InitializerDef
	for _, e := range list {
		if e.Instantaneous > 0 {
			repeat := e.Repeat
			if repeat == 0 && e.Interval == 0 {
				repeat = 1
			}
			defs = append(defs, particle.EmitterDef{
				Kind:     particle.EmitBurst,
				Count:    e.Instantaneous,
				Delay:    e.Delay,
				Interval: e.Interval,
				Repeat:   repeat,
			})
		} else {
			defs = append(defs, particle.EmitterDef{Kind: particle.EmitRate, Rate: e.Rate.Value})
		}
		if shape != nil {
			continue
		}

		origin := e.Origin.Vector3()
		switch normalizeName(e.Name) {
		case "boxrandom":
			extent := e.DistanceMax.Vector3()
			shape = []particle.InitializerDef{{
				Kind: particle.InitBoxPosition,
				Min:  rl.Vector3Subtract(origin, extent),
				Max:  rl.Vector3Add(origin, extent),
			}}
		case "sphererandom":
			minR, maxR := e.DistanceMin.X, e.DistanceMax.X
			if maxR == 0 && minR == 0 {
				maxR = 1
			} else if maxR == 0 {
				maxR = 100
			}
			shape = []particle.InitializerDef{
				{Kind: particle.InitBoxPosition, Min: origin, Max: origin},
				{Kind: particle.InitSpherePosition, Min: rl.Vector3{X: minR}, Max: rl.Vector3{X: maxR}},
			}
		default:
			if e.Name != "" {
				utils.Warn("Loader: emitter %q spawns at its origin", e.Name)
			}
			shape = []particle.InitializerDef{{Kind: particle.InitBoxPosition, Min: origin, Max: origin}}
		}
	}
	return defs, shape
}

// rollOnly keeps a bare number on the Z axis, the sprite roll.
func rollOnly(v Vec3) rl.Vector3 {
	if v.Scalar() {
		return rl.Vector3{Z: v.X}
	}
	return v.Vector3()
}

func initializers(list []ParticleInitializer) []particle.InitializerDef {
	var defs []particle.InitializerDef
	for _, in := range list {
		def := particle.InitializerDef{Min: in.Min.Vector3(), Max: in.Max.Vector3(), Exponent: in.Exponent}
		switch normalizeName(in.Name) {
		case "lifetimerandom":
			def.Kind = particle.InitLifetime
		case "sizerandom":
			def.Kind = particle.InitSize
		case "velocityrandom":
			def.Kind = particle.InitVelocity
		case "rotationrandom":
			def.Kind = particle.InitRotation
			def.Min, def.Max = rollOnly(in.Min), rollOnly(in.Max)
		case "angularvelocityrandom":
			def.Kind = particle.InitAngularVelocity
			def.Min, def.Max = rollOnly(in.Min), rollOnly(in.Max)
		case "colorrandom":
			def.Kind = particle.InitColor
			def.Min = rl.Vector3Scale(def.Min, 1.0/255)
			def.Max = rl.Vector3Scale(def.Max, 1.0/255)
		case "alpharandom":
			def.Kind = particle.InitAlpha
		case "framerandom":
			def.Kind = particle.InitFrame
		default:
			utils.Warn("Loader: unknown initializer %q", in.Name)
			continue
		}
		defs = append(defs, def)
	}
	return defs
}

// operators converts operator entries. Without an explicit alpha fade the
// node fades in over the first tenth of life and out over the last fifth.
func operators(list []ParticleOperator) ([]particle.OperatorDef, error) {
	var defs []particle.OperatorDef
	fades := false
	for _, op := range list {
		var def particle.OperatorDef
		switch normalizeName(op.Name) {
		case "movement":
			def = particle.OperatorDef{Kind: particle.OpMovement, Drag: op.Drag.Value}
			if op.Gravity.Scalar() {
				def.Gravity = rl.Vector3{Y: op.Gravity.X}
			} else {
				def.Gravity = op.Gravity.Vector3()
			}
		case "alphafade":
			fades = true
			def = particle.OperatorDef{Kind: particle.OpAlphaFade, StartTime: op.FadeInTime, EndTime: op.FadeOutTime}
			if def.EndTime == 0 {
				def.EndTime = 0.2
			}
		case "sizechange":
			def = particle.OperatorDef{
				Kind:       particle.OpSizeChange,
				StartTime:  op.StartTime,
				EndTime:    op.EndTime,
				StartValue: rl.Vector3{X: orOne(op.StartValue.X)},
				EndValue:   rl.Vector3{X: orOne(op.EndValue.X)},
			}
		case "colorchange":
			def = particle.OperatorDef{
				Kind:       particle.OpColorChange,
				StartTime:  op.StartTime,
				EndTime:    op.EndTime,
				StartValue: op.StartValue.Vector3(),
				EndValue:   op.EndValue.Vector3(),
			}
		case "turbulence":
			def = particle.OperatorDef{
				Kind:      particle.OpTurbulence,
				Scale:     op.Scale,
				TimeScale: op.TimeScale,
				SpeedMin:  op.SpeedMin,
				SpeedMax:  op.SpeedMax,
			}
		case "controlpointattract":
			if op.ControlPoint < 0 || op.ControlPoint >= particle.MaxControlPoints {
				return nil, fmt.Errorf("%w: %s control point %d", ErrDefinition, op.Name, op.ControlPoint)
			}
			def = particle.OperatorDef{
				Kind:         particle.OpControlPointAttract,
				ControlPoint: op.ControlPoint,
				Scale:        op.Scale,
				Threshold:    op.Threshold,
			}
		case "oscillateposition":
			def = particle.OperatorDef{
				Kind:         particle.OpOscillatePosition,
				FrequencyMin: op.FrequencyMin,
				FrequencyMax: op.FrequencyMax,
				ScaleMin:     op.ScaleMin,
				ScaleMax:     op.ScaleMax,
			}
		case "oscillatealpha":
			def = particle.OperatorDef{
				Kind:         particle.OpOscillateAlpha,
				FrequencyMin: op.FrequencyMin,
				FrequencyMax: op.FrequencyMax,
				ScaleMin:     op.ScaleMin,
				ScaleMax:     op.ScaleMax,
			}
		case "animateframes":
			def = particle.OperatorDef{Kind: particle.OpAnimateFrames, Rate: op.Rate}
		default:
			utils.Warn("Loader: unknown operator %q", op.Name)
			continue
		}
		defs = append(defs, def)
	}
	if !fades {
		defs = append(defs, particle.OperatorDef{Kind: particle.OpAlphaFade, StartTime: 0.1, EndTime: 0.2})
	}
	return defs, nil
}

func orOne(v float32) float32 {
	if v == 0 {
		return 1
	}
	return v
}

func constraints(list []ParticleConstraint) ([]particle.ConstraintDef, error) {
	var defs []particle.ConstraintDef
	for _, c := range list {
		def := particle.ConstraintDef{
			MaxSpeed:     c.MaxSpeed,
			Normal:       c.Normal.Vector3(),
			Distance:     c.Distance,
			Bounce:       c.Bounce,
			ControlPoint: c.ControlPoint,
			Radius:       c.Radius,
		}
		switch normalizeName(c.Name) {
		case "maxspeed", "capvelocity":
			def.Kind = particle.ConstrainMaxSpeed
		case "plane", "collisionplane":
			def.Kind = particle.ConstrainPlane
		case "sphere", "collisionsphere":
			def.Kind = particle.ConstrainSphere
			if c.ControlPoint < 0 || c.ControlPoint >= particle.MaxControlPoints {
				return nil, fmt.Errorf("%w: %s control point %d", ErrDefinition, c.Name, c.ControlPoint)
			}
		default:
			return nil, fmt.Errorf("%w: constraint %q", ErrDefinition, c.Name)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func parseSort(s string) (particle.SortMode, error) {
	var mode particle.SortMode
	for _, f := range strings.Fields(strings.ToLower(s)) {
		switch f {
		case "none":
		case "reverse":
			mode |= particle.SortReverse
		case "distance":
			mode |= particle.SortDistance
		default:
			return 0, fmt.Errorf("%w: sort %q", ErrDefinition, s)
		}
	}
	return mode, nil
}

// parseDelete defaults never-expiring nodes to leave with their parent,
// so stopping a system tears them down.
func parseDelete(s string, lifetime float32) (particle.DeleteMode, error) {
	switch strings.ToLower(s) {
	case "":
		if lifetime <= 0 {
			return particle.DeleteWithParent, nil
		}
		return particle.DeleteOnExpire, nil
	case "expire":
		return particle.DeleteOnExpire, nil
	case "parent":
		return particle.DeleteWithParent, nil
	case "empty":
		return particle.DeleteWhenEmpty, nil
	}
	return 0, fmt.Errorf("%w: delete mode %q", ErrDefinition, s)
}

func parseDetach(list []string) (particle.DetachFlags, error) {
	var flags particle.DetachFlags
	for _, s := range list {
		switch strings.ToLower(s) {
		case "position":
			flags |= particle.DetachPosition
		case "rotation":
			flags |= particle.DetachRotation
		case "scale":
			flags |= particle.DetachScale
		default:
			return 0, fmt.Errorf("%w: detach %q", ErrDefinition, s)
		}
	}
	return flags, nil
}

func parseBlend(s string) rl.BlendMode {
	switch strings.ToLower(s) {
	case "alpha", "translucent", "normal":
		return rl.BlendAlpha
	case "multiply":
		return rl.BlendMultiplied
	}
	return rl.BlendAdditive
}
