package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type draw struct {
	state     State
	vertices  int
	indices   int
	instances int
}

type recorder struct {
	draws []draw
}

func (r *recorder) Draw(state State, vertices []Vertex, indices []uint16, instances []Instance) {
	r.draws = append(r.draws, draw{state, len(vertices), len(indices), len(instances)})
}

func newTestContext(t *testing.T, capacity Capacity) (*Context, *recorder) {
	t.Helper()
	rec := &recorder{}
	ctx, err := NewContext(rec, capacity)
	require.NoError(t, err)
	return ctx, rec
}

func TestCapacityValidate(t *testing.T) {
	assert.NoError(t, DefaultCapacity.Validate())
	assert.ErrorIs(t, Capacity{Vertices: 2, Indices: 6, Instances: 1}.Validate(), ErrCapacity)
	assert.ErrorIs(t, Capacity{Vertices: 1 << 17, Indices: 6, Instances: 1}.Validate(), ErrCapacity)

	_, err := NewContext(nil, DefaultCapacity)
	assert.ErrorIs(t, err, ErrCapacity)
}

func TestAllocFlushesWhenFull(t *testing.T) {
	ctx, rec := newTestContext(t, Capacity{Vertices: 8, Indices: 12, Instances: 1})
	quads := State{Format: FormatQuads, Texture: 3}
	ctx.Begin(quads)

	for i := 0; i < 3; i++ {
		r, ok := ctx.Alloc(4, 6, 0)
		require.True(t, ok)
		assert.Len(t, r.Vertices, 4)
		assert.Len(t, r.Indices, 6)
		assert.Equal(t, uint16(4*(i%2)), r.Base)
	}
	require.Len(t, rec.draws, 1, "third quad should have started a new generation")
	assert.Equal(t, draw{quads, 8, 12, 0}, rec.draws[0])

	ctx.End()
	require.Len(t, rec.draws, 2)
	assert.Equal(t, draw{quads, 4, 6, 0}, rec.draws[1])
	assert.Equal(t, 2, ctx.Generation())
}

func TestBeginSwitchesFormat(t *testing.T) {
	ctx, rec := newTestContext(t, DefaultCapacity)
	quads := State{Format: FormatQuads}
	mesh := State{Format: FormatInstances, Mesh: 1}

	ctx.Begin(quads)
	_, ok := ctx.Alloc(4, 6, 0)
	require.True(t, ok)

	ctx.Begin(quads)
	assert.Empty(t, rec.draws, "same state keeps appending")

	ctx.Begin(mesh)
	require.Len(t, rec.draws, 1)
	assert.Equal(t, quads, rec.draws[0].state)

	_, ok = ctx.Alloc(0, 0, 2)
	require.True(t, ok)
	ctx.End()
	require.Len(t, rec.draws, 2)
	assert.Equal(t, draw{mesh, 0, 0, 2}, rec.draws[1])

	stats := ctx.Stats()
	assert.Equal(t, 2, stats.Draws)
	assert.Equal(t, 4, stats.Vertices)
	assert.Equal(t, 2, stats.Instances)
}

func TestAllocTooLarge(t *testing.T) {
	ctx, rec := newTestContext(t, Capacity{Vertices: 8, Indices: 12, Instances: 1})
	ctx.Begin(State{Format: FormatQuads})
	_, ok := ctx.Alloc(16, 6, 0)
	assert.False(t, ok)
	assert.False(t, ctx.Staged())

	ctx.Flush()
	assert.Empty(t, rec.draws, "empty flush draws nothing")
}

func TestRemaining(t *testing.T) {
	ctx, _ := newTestContext(t, Capacity{Vertices: 8, Indices: 12, Instances: 4})
	ctx.Begin(State{Format: FormatInstances})
	_, ok := ctx.Alloc(0, 0, 3)
	require.True(t, ok)
	assert.Equal(t, Capacity{Vertices: 8, Indices: 12, Instances: 1}, ctx.Remaining())
}
