package particle

type emitterState struct {
	def    *EmitterDef
	accum  float32
	timer  float32
	bursts int
}

func (s *emitterState) init(def *EmitterDef) {
	*s = emitterState{def: def, timer: def.Delay}
}

// advance returns how many particles the emitter wants this tick, before
// the pool's free space is taken into account.
func (s *emitterState) advance(n *Node, dt float32) int {
	return emitters[s.def.Kind](s, n, dt)
}

var emitters = [emitterKindCount]func(s *emitterState, n *Node, dt float32) int{
	EmitRate:  emitRate,
	EmitBurst: emitBurst,
}

func emitRate(s *emitterState, n *Node, dt float32) int {
	rate := s.def.Rate * n.system().override.factor(n.system().override.Rate)
	if rate <= 0 {
		return 0
	}
	s.accum += rate * dt
	count := int(s.accum)
	s.accum -= float32(count)
	return count
}

func emitBurst(s *emitterState, n *Node, dt float32) int {
	if s.def.Repeat > 0 && s.bursts >= s.def.Repeat {
		return 0
	}
	s.timer -= dt
	if s.timer > 0 {
		return 0
	}
	s.bursts++
	s.timer += s.def.Interval
	if s.timer < 0 {
		s.timer = 0
	}
	return s.def.Count
}
