// Package copylayer tracks groups of triangles that currently own private
// vertex copies. Each animated stage opens a layer; members leave as their
// copies are merged back and the layer disappears once it is empty.
package copylayer

// idBatch is how many layer IDs are generated whenever the queue runs dry.
const idBatch = 100

// Layer is one group of triangle handles.
type Layer struct {
	id      int
	members []int
	mgr     *Manager
}

// ID returns the layer ID.
func (l *Layer) ID() int {
	return l.id
}

// Len returns the number of members.
func (l *Layer) Len() int {
	return len(l.members)
}

// Members returns the member handles in insertion order.
func (l *Layer) Members() []int {
	return l.members
}

// Contains reports whether member belongs to the layer.
func (l *Layer) Contains(member int) bool {
	for _, m := range l.members {
		if m == member {
			return true
		}
	}
	return false
}

// Add appends member if it is not already present.
func (l *Layer) Add(member int) {
	if !l.Contains(member) {
		l.members = append(l.members, member)
	}
}

// Remove drops member. When the last member leaves, the layer is removed
// from its manager and its ID is queued for reuse.
func (l *Layer) Remove(member int) bool {
	for i, m := range l.members {
		if m != member {
			continue
		}
		l.members = append(l.members[:i], l.members[i+1:]...)
		if len(l.members) == 0 && l.mgr != nil {
			l.mgr.Remove(l.id)
		}
		return true
	}
	return false
}

// Manager hands out layers with recycled IDs.
type Manager struct {
	layers  map[int]*Layer
	current *Layer
	free    []int
	highest int
}

// NewManager creates a manager with a fresh ID queue.
func NewManager() *Manager {
	m := &Manager{}
	m.Reset()
	return m
}

// Reset drops every layer and restarts ID generation.
func (m *Manager) Reset() {
	m.layers = make(map[int]*Layer)
	m.current = nil
	m.free = m.free[:0]
	m.highest = 0
	m.generate(idBatch)
}

func (m *Manager) generate(n int) {
	for i := 0; i < n; i++ {
		m.free = append(m.free, m.highest)
		m.highest++
	}
}

// Next returns the layer new members should go to. The current layer is
// reused while it is still empty.
func (m *Manager) Next() *Layer {
	if m.current != nil && m.current.Len() == 0 {
		return m.current
	}
	if len(m.free) == 0 {
		m.generate(idBatch)
	}

	id := m.free[0]
	m.free = m.free[1:]
	l := &Layer{id: id, mgr: m}
	m.layers[id] = l
	m.current = l
	return l
}

// Current returns the most recently opened layer, or nil.
func (m *Manager) Current() *Layer {
	return m.current
}

// Get returns the layer with the given ID.
func (m *Manager) Get(id int) (*Layer, bool) {
	l, ok := m.layers[id]
	return l, ok
}

// Remove deletes a layer and queues its ID for reuse.
func (m *Manager) Remove(id int) bool {
	l, ok := m.layers[id]
	if !ok {
		return false
	}
	delete(m.layers, id)
	l.mgr = nil
	if m.current == l {
		m.current = nil
	}
	m.free = append(m.free, id)
	return true
}

// Len returns the number of live layers.
func (m *Manager) Len() int {
	return len(m.layers)
}
