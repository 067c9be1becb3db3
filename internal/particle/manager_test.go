package particle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerCapacity(t *testing.T) {
	_, err := NewManager(0)
	assert.ErrorIs(t, err, ErrCapacity)
	_, err = NewManager(MaxParticlesLimit + 1)
	assert.ErrorIs(t, err, ErrCapacity)

	m, err := NewManager(4)
	require.NoError(t, err)
	assert.Equal(t, 4, m.Cap())
	assert.Equal(t, 4, m.Remaining())
	assert.Equal(t, 0, m.Len())
}

func TestManagerAllocClampsAndReusesLastFreed(t *testing.T) {
	m, err := NewManager(4)
	require.NoError(t, err)

	assert.Equal(t, []int32{0, 1, 2}, m.AllocBack(3))
	assert.Equal(t, []int32{3}, m.AllocBack(5))
	assert.Nil(t, m.AllocBack(1))
	assert.Equal(t, 0, m.Remaining())

	m.Free(1) // slot 1 out, slot 3 moves into its place
	assert.Equal(t, []int32{0, 3, 2}, m.Live())
	m.Free(0)
	assert.Equal(t, []int32{2, 3}, m.Live())

	assert.Equal(t, []int32{0, 1}, m.AllocBack(2))
	assert.Equal(t, []int32{2, 3, 0, 1}, m.Live())
}

func TestManagerAllocFront(t *testing.T) {
	m, err := NewManager(8)
	require.NoError(t, err)
	m.AllocBack(2)
	assert.Equal(t, []int32{2, 3}, m.AllocFront(2))
	assert.Equal(t, []int32{2, 3, 0, 1}, m.Live())
}

func TestManagerRetainKeepsOrder(t *testing.T) {
	m, err := NewManager(6)
	require.NoError(t, err)
	for i, s := range m.AllocBack(6) {
		m.Slot(s).Seed = float32(i)
	}

	m.Retain(func(p *Particle) bool { return int(p.Seed)%2 == 0 })

	var seeds []float32
	for i := 0; i < m.Len(); i++ {
		seeds = append(seeds, m.At(i).Seed)
	}
	assert.Equal(t, []float32{0, 2, 4}, seeds)
	assert.Equal(t, 3, m.Remaining())
	// Slots 1, 3, 5 were freed in that order.
	assert.Equal(t, []int32{5, 3}, m.AllocBack(2))
}

func TestManagerClear(t *testing.T) {
	m, err := NewManager(3)
	require.NoError(t, err)
	m.AllocBack(3)
	released := 0
	m.Clear(func(p *Particle) { released++ })
	assert.Equal(t, 3, released)
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 3, m.Remaining())
}
