package particle

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSystem(t *testing.T, def *SystemDef) *System {
	t.Helper()
	s, err := NewSystem(def, Options{Seed: 1})
	require.NoError(t, err)
	return s
}

func tick(t *testing.T, s *System, dt float32, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, s.Update(dt, nil))
	}
}

func burst(count, repeat int) EmitterDef {
	return EmitterDef{Kind: EmitBurst, Count: count, Repeat: repeat}
}

func fixedLifetime(seconds float32) InitializerDef {
	return InitializerDef{Kind: InitLifetime, Min: rl.NewVector3(seconds, 0, 0), Max: rl.NewVector3(seconds, 0, 0)}
}

func fixedPosition(pos rl.Vector3) InitializerDef {
	return InitializerDef{Kind: InitBoxPosition, Min: pos, Max: pos}
}

// addParticle stages a particle by hand at pos.
func addParticle(n *Node, pos rl.Vector3) *Particle {
	s := n.particles.AllocBack(1)
	p := n.particles.Slot(s[0])
	p.reset()
	p.Local.Position = pos
	p.Global.Position = pos
	p.PrevGlobal.Position = pos
	p.Lifetime = 100
	p.MaxLifetime = 100
	return p
}

func TestEmissionClampsToFreeSlots(t *testing.T) {
	s := newTestSystem(t, BuildSystemDef("clamp", NodeTree{Def: NodeDef{
		Name:         "burst",
		MaxParticles: 5,
		Emitters:     []EmitterDef{burst(10, 0)},
	}}))
	n := s.Root().Head()
	require.NotNil(t, n)

	tick(t, s, 0.1, 1)
	assert.Equal(t, 5, n.Len())
	tick(t, s, 0.1, 1)
	assert.Equal(t, 5, n.Len())
	assert.Equal(t, 0, n.Particles().Remaining())
}

func TestNodeLifetimeExpiry(t *testing.T) {
	s := newTestSystem(t, BuildSystemDef("expiry", NodeTree{Def: NodeDef{
		Name:         "short",
		MaxParticles: 1,
		Lifetime:     2,
	}}))
	n := s.Root().Head()

	tick(t, s, 1, 1)
	assert.Equal(t, float32(1), n.Lifetime())
	assert.Equal(t, 1, s.Root().Len())

	tick(t, s, 1, 1)
	assert.Equal(t, float32(0), n.Lifetime())
	assert.Equal(t, 1, s.Root().Len())
	assert.True(t, n.Dead())

	tick(t, s, 1, 1)
	assert.Equal(t, 0, s.Root().Len())
	assert.False(t, s.Alive())
}

func TestInfiniteLifetime(t *testing.T) {
	s := newTestSystem(t, BuildSystemDef("forever", NodeTree{Def: NodeDef{MaxParticles: 1}}))
	tick(t, s, 100, 10)
	assert.True(t, s.Alive())
}

func TestDistanceSortOrder(t *testing.T) {
	for _, tc := range []struct {
		name string
		mode SortMode
		want []float32
	}{
		{"near first", SortDistance, []float32{1, 2, 3}},
		{"far first", SortDistance | SortReverse, []float32{3, 2, 1}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestSystem(t, BuildSystemDef("sort", NodeTree{Def: NodeDef{MaxParticles: 8, Sort: tc.mode}}))
			n := s.Root().Head()
			for _, z := range []float32{3, 1, 2} {
				addParticle(n, rl.NewVector3(0, 0, z))
			}
			view := NewView(rl.Vector3Zero(), rl.NewVector3(0, 0, 1), rl.NewVector3(0, 1, 0))

			order, err := n.Order(view, 1)
			require.NoError(t, err)
			var got []float32
			for _, e := range order {
				got = append(got, n.particles.Slot(e.Ref).Global.Position.Z)
			}
			assert.Equal(t, tc.want, got)

			require.NoError(t, n.presort(view))
			got = got[:0]
			n.Each(func(p *Particle) { got = append(got, p.Global.Position.Z) })
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestReverseSortSpawnsAtFront(t *testing.T) {
	s := newTestSystem(t, BuildSystemDef("reverse", NodeTree{Def: NodeDef{
		MaxParticles: 8,
		Sort:         SortReverse,
		Emitters:     []EmitterDef{burst(1, 2)},
		Initializers: []InitializerDef{fixedLifetime(10)},
	}}))
	n := s.Root().Head()
	tick(t, s, 0.5, 2)
	require.Equal(t, 2, n.Len())
	assert.Greater(t, n.Particles().At(0).Lifetime, n.Particles().At(1).Lifetime)
}

func TestChildFollowsParentParticle(t *testing.T) {
	s := newTestSystem(t, BuildSystemDef("nested", NodeTree{
		Def: NodeDef{
			Name:         "parent",
			MaxParticles: 1,
			Emitters:     []EmitterDef{burst(1, 1)},
			Initializers: []InitializerDef{fixedLifetime(10), fixedPosition(rl.NewVector3(5, 0, 0))},
		},
		Children: []NodeTree{{Def: NodeDef{
			Name:         "child",
			MaxParticles: 1,
			Emitters:     []EmitterDef{burst(1, 1)},
			Initializers: []InitializerDef{fixedLifetime(10), fixedPosition(rl.NewVector3(1, 0, 0))},
		}}},
	}))

	tick(t, s, 0.1, 1)
	parent := s.Root().Head()
	require.Equal(t, 1, parent.Len())
	p := parent.Particles().At(0)
	require.Equal(t, 1, p.Sub.Len())

	child := p.Sub.Head()
	assert.Same(t, p, child.Parent())
	assert.Same(t, parent, child.origin)
	require.Equal(t, 1, child.Len())
	assertVector(t, rl.NewVector3(6, 0, 0), child.Particles().At(0).Global.Position)
}

func TestSystemTransformReachesRootParticles(t *testing.T) {
	s := newTestSystem(t, BuildSystemDef("moved", NodeTree{Def: NodeDef{
		MaxParticles: 1,
		Emitters:     []EmitterDef{burst(1, 1)},
		Initializers: []InitializerDef{fixedLifetime(10), fixedPosition(rl.NewVector3(1, 0, 0))},
	}}))
	tr := Identity()
	tr.Position = rl.NewVector3(0, 10, 0)
	s.SetTransform(tr)

	tick(t, s, 0.1, 1)
	p := s.Root().Head().Particles().At(0)
	assertVector(t, rl.NewVector3(1, 10, 0), p.Global.Position)
	assertVector(t, rl.NewVector3(1, 10, 0), p.PrevGlobal.Position)
}

func orphanDef() *SystemDef {
	return BuildSystemDef("orphans", NodeTree{
		Def: NodeDef{
			Name:         "parent",
			MaxParticles: 1,
			Emitters:     []EmitterDef{burst(1, 1)},
			Initializers: []InitializerDef{fixedLifetime(0.5), fixedPosition(rl.NewVector3(2, 0, 0))},
		},
		Children: []NodeTree{
			{Def: NodeDef{Name: "survivor", MaxParticles: 4, Emitters: []EmitterDef{{Kind: EmitRate, Rate: 4}}}},
			{Def: NodeDef{Name: "follower", MaxParticles: 4, Delete: DeleteWithParent}},
		},
	})
}

func TestOrphanedNodesOutliveParent(t *testing.T) {
	s := newTestSystem(t, orphanDef())
	survivors := &s.Containers()[1]
	followers := &s.Containers()[2]
	require.Equal(t, "survivor", survivors.Def().Name)

	tick(t, s, 0.25, 2)
	require.Equal(t, 1, survivors.Len())
	require.Equal(t, 1, followers.Len())
	assert.False(t, survivors.head.Orphaned())

	// The parent particle dies on the third tick.
	tick(t, s, 0.25, 1)
	assert.Equal(t, 0, s.Root().Head().Len())
	assert.Equal(t, 1, survivors.Len())
	assert.Equal(t, 0, followers.Len())

	n := survivors.head
	assert.True(t, n.Orphaned())
	assert.Nil(t, n.Parent())
	state := n.ParentState()
	assert.Equal(t, state.Global, state.PrevGlobal)
	assertVector(t, rl.NewVector3(2, 0, 0), state.Global.Position)

	before := n.Len()
	tick(t, s, 0.25, 1)
	assert.Greater(t, n.Len(), before)
	assert.Equal(t, 1, s.Stats().Orphans)
}

func TestDeleteWhenEmptyWaitsForOffspring(t *testing.T) {
	s := newTestSystem(t, BuildSystemDef("empty", NodeTree{
		Def: NodeDef{
			Name:         "root",
			MaxParticles: 1,
			Lifetime:     0.5,
			Delete:       DeleteWhenEmpty,
			Emitters:     []EmitterDef{burst(1, 1)},
			Initializers: []InitializerDef{fixedLifetime(1)},
		},
		Children: []NodeTree{{Def: NodeDef{Name: "child", MaxParticles: 1, Lifetime: 2}}},
	}))
	root := s.Root().Head()
	children := &s.Containers()[1]

	tick(t, s, 0.25, 1)
	assert.Equal(t, 1, root.Spawned())

	// The particle dies on tick 5, its orphaned child expires after tick 8
	// and is released on tick 9.
	tick(t, s, 0.25, 4)
	assert.Equal(t, 0, root.Len())
	assert.Equal(t, 1, children.Len())
	assert.False(t, root.Dead())

	tick(t, s, 0.25, 4)
	assert.Equal(t, 0, children.Len())
	assert.Equal(t, 0, root.Spawned())
	assert.Equal(t, 1, s.Root().Len())

	tick(t, s, 0.25, 1)
	assert.False(t, s.Alive())
}

func TestStopReleasesParentBoundRoots(t *testing.T) {
	s := newTestSystem(t, BuildSystemDef("stop",
		NodeTree{Def: NodeDef{Name: "bound", MaxParticles: 1, Delete: DeleteWithParent}},
		NodeTree{Def: NodeDef{Name: "free", MaxParticles: 1, Lifetime: 1}},
	))
	tick(t, s, 0.1, 1)
	assert.Equal(t, 2, s.Stats().Nodes)

	s.Stop()
	assert.True(t, s.Stopped())
	tick(t, s, 0.1, 1)
	assert.Equal(t, 1, s.Stats().Nodes)
	tick(t, s, 0.5, 3)
	assert.False(t, s.Alive())
}

func TestOperatorsAndConstraints(t *testing.T) {
	s := newTestSystem(t, BuildSystemDef("physics", NodeTree{Def: NodeDef{
		MaxParticles: 1,
		Emitters:     []EmitterDef{burst(1, 1)},
		Initializers: []InitializerDef{fixedLifetime(10)},
		Operators:    []OperatorDef{{Kind: OpMovement, Gravity: rl.NewVector3(0, -10, 0)}},
		Constraints: []ConstraintDef{
			{Kind: ConstrainMaxSpeed, MaxSpeed: 2},
			{Kind: ConstrainPlane, Normal: rl.NewVector3(0, 1, 0), Distance: -1},
		},
	}}))
	tick(t, s, 0.1, 50)
	p := s.Root().Head().Particles().At(0)
	assert.InDelta(t, -1, p.Local.Position.Y, 1e-4)
	assert.LessOrEqual(t, rl.Vector3Length(p.Velocity), float32(2.0001))
	assert.Equal(t, rl.Vector3{}, p.Force)
}

func TestOverrideScalesSpawns(t *testing.T) {
	def := BuildSystemDef("override", NodeTree{Def: NodeDef{
		MaxParticles: 10,
		Emitters:     []EmitterDef{burst(10, 1)},
		Initializers: []InitializerDef{fixedLifetime(2)},
	}})
	s, err := NewSystem(def, Options{Seed: 1, Override: Override{Lifetime: 2, Count: 0.5}})
	require.NoError(t, err)
	tick(t, s, 0.1, 1)
	n := s.Root().Head()
	assert.Equal(t, 5, n.Particles().Cap())
	assert.Equal(t, float32(4), n.Particles().At(0).MaxLifetime)
}

func TestControlPointAttractPullsTowardPoint(t *testing.T) {
	s := newTestSystem(t, BuildSystemDef("attract", NodeTree{Def: NodeDef{
		MaxParticles: 1,
		Emitters:     []EmitterDef{burst(1, 1)},
		Initializers: []InitializerDef{fixedLifetime(10)},
		Operators:    []OperatorDef{{Kind: OpControlPointAttract, ControlPoint: 2, Scale: 1000}},
	}}))
	require.NoError(t, s.SetControlPoint(2, rl.NewVector3(10, 0, 0)))
	assert.Error(t, s.SetControlPoint(MaxControlPoints, rl.Vector3{}))

	tick(t, s, 0.1, 3)
	p := s.Root().Head().Particles().At(0)
	assert.Greater(t, p.Local.Position.X, float32(0))
}
