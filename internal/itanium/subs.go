package itanium

// Substitutions is the append-only table of substitutable AST nodes built
// up during one parse. Back-reference codes in the grammar resolve to
// indices into this table; an index is only valid if the entry was
// inserted before the point of reference.
type Substitutions struct {
	nodes []Node
}

// Insert appends a node and returns its index.
func (s *Substitutions) Insert(n Node) int {
	s.nodes = append(s.nodes, n)
	return len(s.nodes) - 1
}

// Get returns the node at index i.
func (s *Substitutions) Get(i int) (Node, error) {
	if i < 0 || i >= len(s.nodes) {
		return nil, ErrInvalidBackref
	}
	return s.nodes[i], nil
}

// Len returns the number of entries.
func (s *Substitutions) Len() int {
	return len(s.nodes)
}
