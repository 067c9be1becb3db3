package particle

import (
	"testing"

	"linux-particleengine/internal/batch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func named(name string, children ...NodeTree) NodeTree {
	return NodeTree{Def: NodeDef{Name: name, MaxParticles: 4}, Children: children}
}

func TestBuildSystemDefBreadthFirst(t *testing.T) {
	def := BuildSystemDef("tree",
		named("a", named("b", named("d"), named("e")), named("c", named("f"))),
		named("g"),
	)
	require.NoError(t, def.Validate(batch.Capacity{}))

	var names []string
	for _, n := range def.Nodes {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"a", "g", "b", "c", "d", "e", "f"}, names)
	assert.Equal(t, 2, def.Roots)
	assert.Equal(t, 2, def.Nodes[0].FirstChild)
	assert.Equal(t, 2, def.Nodes[0].NumChildren)
	assert.Equal(t, 0, def.Nodes[1].NumChildren)
	assert.Equal(t, 4, def.Nodes[2].FirstChild)
	assert.Equal(t, 6, def.Nodes[3].FirstChild)
}

func TestContainerLayout(t *testing.T) {
	def := BuildSystemDef("tree",
		named("a", named("b", named("d"), named("e")), named("c", named("f"))),
		named("g", named("h")),
	)
	s := newTestSystem(t, def)
	cs := s.Containers()
	require.Len(t, cs, len(def.Nodes))

	for i := range cs {
		c := &cs[i]
		assert.Equal(t, i, c.Index())
		for j := range c.Children() {
			child := &c.Children()[j]
			assert.Greater(t, child.Index(), c.Index(), "%s before its child %s", c.Def().Name, child.Def().Name)
			assert.Equal(t, c.first+j, child.Index())
			assert.Same(t, &def.Nodes[c.Def().FirstChild+j], child.Def())
		}
	}
	// Roots are instantiated up front, one node per root container.
	assert.Equal(t, 2, s.Root().Len())
	assert.Equal(t, 1, cs[0].Len())
	assert.Equal(t, 1, cs[1].Len())
	assert.Equal(t, 0, cs[2].Len())
}

func TestValidateRejects(t *testing.T) {
	for _, tc := range []struct {
		name   string
		def    *SystemDef
		cap    batch.Capacity
		target error
	}{
		{
			name:   "empty",
			def:    &SystemDef{Name: "empty"},
			target: ErrInvalidDef,
		},
		{
			name:   "no particles",
			def:    BuildSystemDef("x", NodeTree{Def: NodeDef{}}),
			target: ErrInvalidDef,
		},
		{
			name: "child before parent",
			def: &SystemDef{Roots: 1, Nodes: []NodeDef{
				{MaxParticles: 1, FirstChild: 0, NumChildren: 1},
			}},
			target: ErrInvalidDef,
		},
		{
			name: "unreachable",
			def: &SystemDef{Roots: 1, Nodes: []NodeDef{
				{MaxParticles: 1}, {MaxParticles: 1},
			}},
			target: ErrInvalidDef,
		},
		{
			name: "shared child",
			def: &SystemDef{Roots: 2, Nodes: []NodeDef{
				{MaxParticles: 1, FirstChild: 2, NumChildren: 1},
				{MaxParticles: 1, FirstChild: 2, NumChildren: 1},
				{MaxParticles: 1},
			}},
			target: ErrInvalidDef,
		},
		{
			name: "sorted beam",
			def: BuildSystemDef("x", NodeTree{Def: NodeDef{
				MaxParticles: 4,
				Sort:         SortDistance,
				Renderer:     RendererDef{Kind: RendererBeam},
			}}),
			target: ErrInvalidDef,
		},
		{
			name: "bad operator",
			def: BuildSystemDef("x", NodeTree{Def: NodeDef{
				MaxParticles: 1,
				Operators:    []OperatorDef{{Kind: operatorKindCount}},
			}}),
			target: ErrInvalidDef,
		},
		{
			name:   "exceeds batch",
			def:    BuildSystemDef("x", NodeTree{Def: NodeDef{MaxParticles: 100}}),
			cap:    batch.Capacity{Vertices: 40, Indices: 60, Instances: 10},
			target: ErrCapacity,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.def.Validate(tc.cap)
			assert.ErrorIs(t, err, tc.target)
			_, err = NewSystem(tc.def, Options{Capacity: tc.cap})
			assert.Error(t, err)
		})
	}
}

func TestValidateFitsBatch(t *testing.T) {
	def := BuildSystemDef("x", NodeTree{Def: NodeDef{MaxParticles: 10}})
	assert.NoError(t, def.Validate(batch.Capacity{Vertices: 40, Indices: 60, Instances: 1}))
}
