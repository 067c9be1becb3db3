package particle

import (
	"fmt"
)

// Manager is a fixed pool of particle slots. Slots never move, so pointers
// into the pool stay valid for the life of the manager; ordering lives in
// the live index list instead.
type Manager struct {
	slots []Particle
	free  []int32
	live  []int32
}

// NewManager allocates max slots up front.
func NewManager(max int) (*Manager, error) {
	if max <= 0 || max > MaxParticlesLimit {
		return nil, fmt.Errorf("%w: %d slots", ErrCapacity, max)
	}
	m := &Manager{
		slots: make([]Particle, max),
		free:  make([]int32, max),
		live:  make([]int32, 0, max),
	}
	// Pop order is ascending, so the first allocation takes slot 0.
	for i := range m.free {
		m.free[i] = int32(max - 1 - i)
	}
	return m, nil
}

func (m *Manager) Cap() int       { return len(m.slots) }
func (m *Manager) Len() int       { return len(m.live) }
func (m *Manager) Remaining() int { return len(m.free) }

// At returns the i-th live particle in current order.
func (m *Manager) At(i int) *Particle { return &m.slots[m.live[i]] }

// Slot returns the particle stored in slot s.
func (m *Manager) Slot(s int32) *Particle { return &m.slots[s] }

// Live returns the live slot indices in order. The slice is owned by the
// manager and is only valid until the next mutation.
func (m *Manager) Live() []int32 { return m.live }

func (m *Manager) pop(n int) []int32 {
	if n > len(m.free) {
		n = len(m.free)
	}
	if n <= 0 {
		return nil
	}
	top := len(m.free) - n
	taken := m.free[top:]
	m.free = m.free[:top]
	// Most recently freed first.
	out := make([]int32, n)
	for i := range out {
		out[i] = taken[n-1-i]
	}
	return out
}

// AllocBack takes up to n free slots and appends them to the live order.
func (m *Manager) AllocBack(n int) []int32 {
	slots := m.pop(n)
	m.live = append(m.live, slots...)
	return slots
}

// AllocFront takes up to n free slots and places them ahead of every
// live particle.
func (m *Manager) AllocFront(n int) []int32 {
	slots := m.pop(n)
	if len(slots) == 0 {
		return nil
	}
	old := len(m.live)
	m.live = m.live[:old+len(slots)]
	copy(m.live[len(slots):], m.live[:old])
	copy(m.live, slots)
	return slots
}

// Free releases the i-th live particle. The last live particle takes its
// place, so order is not preserved.
func (m *Manager) Free(i int) {
	last := len(m.live) - 1
	m.free = append(m.free, m.live[i])
	m.live[i] = m.live[last]
	m.live = m.live[:last]
}

// Retain walks the live particles in order and frees each one keep
// rejects. Survivors keep their relative order.
func (m *Manager) Retain(keep func(p *Particle) bool) {
	w := 0
	for _, s := range m.live {
		if keep(&m.slots[s]) {
			m.live[w] = s
			w++
			continue
		}
		m.free = append(m.free, s)
	}
	m.live = m.live[:w]
}

// Clear frees every live particle after calling release on it.
func (m *Manager) Clear(release func(p *Particle)) {
	for _, s := range m.live {
		if release != nil {
			release(&m.slots[s])
		}
		m.free = append(m.free, s)
	}
	m.live = m.live[:0]
}
