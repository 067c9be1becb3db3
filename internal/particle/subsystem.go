package particle

// Subsystem is the list of nodes spawned from one particle, or from the
// system root. Nodes are prepended, so the list runs newest first.
type Subsystem struct {
	head  *Node
	count int
}

func (s *Subsystem) Len() int    { return s.count }
func (s *Subsystem) Head() *Node { return s.head }

func (s *Subsystem) push(n *Node) {
	n.prev = nil
	n.next = s.head
	if s.head != nil {
		s.head.prev = n
	}
	s.head = n
	s.count++
}

func (s *Subsystem) remove(n *Node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		s.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	n.prev, n.next = nil, nil
	s.count--
}

// Orphan detaches every node from the owning particle. Each node freezes
// its last parent transform and keeps running until its delete mode
// removes it.
func (s *Subsystem) Orphan() {
	for n := s.head; n != nil; {
		next := n.next
		n.orphan()
		n = next
	}
	s.head = nil
	s.count = 0
}
