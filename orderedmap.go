package dns

import (
	"sort"

	"github.com/miekg/radix"
	"github.com/pkg/errors"
)

// orderedMap is the balanced ordered map described in spec §4.C,
// generalized to back both the zone's main tree and its NSEC3 tree
// (spec §4.E reuses the same structure keyed by hashed owner instead
// of owner name). It keeps two views of the same node set: a
// github.com/miekg/radix trie for O(key-length) exact lookup — exactly
// how the teacher's Zone.Find uses its *radix.Radix — and a canonical-
// order circular doubly linked list (threaded through each Node's
// prev/next fields) for the closest-encloser and previous-node
// searches the radix trie alone doesn't expose. Node insertion keeps
// both views in sync.
//
// The list is circular: the first node's prev is the last node and
// vice versa, which is what makes the NSEC/NSEC3 "last-to-first wrap"
// closing rule (spec §4.C, §4.E) fall out of plain prev/next
// traversal instead of a special case.
type orderedMap struct {
	idx   *radix.Radix
	nodes []*Node // kept sorted by CanonicalCompare(nodes[i].Owner, nodes[i+1].Owner) < 0
}

func newOrderedMap() *orderedMap {
	return &orderedMap{idx: radix.New()}
}

// insert adds n under the given exact-match key, threading it into
// canonical order. It returns ErrDuplicate if a node with the same
// owner is already present, matching spec §4.C: "insert is not
// idempotent at the tree level."
func (m *orderedMap) insert(key string, n *Node) error {
	if _, exact := m.idx.Find(key); exact {
		return errors.Wrap(ErrDuplicate, key)
	}
	i := sort.Search(len(m.nodes), func(i int) bool {
		return CanonicalCompare(m.nodes[i].Owner, n.Owner) >= 0
	})
	m.nodes = append(m.nodes, nil)
	copy(m.nodes[i+1:], m.nodes[i:])
	m.nodes[i] = n

	m.idx.Insert(key, n)
	m.relink()
	return nil
}

// relink rebuilds the circular prev/next chain. Called after an
// insertion; zone loading is a one-shot, non-hot-path batch operation
// (spec §5), so the O(n) re-thread per insert is not a concern — it
// keeps the linking logic trivially correct instead of micro-
// optimizing an insertion path nothing queries concurrently with.
func (m *orderedMap) relink() {
	n := len(m.nodes)
	if n == 0 {
		return
	}
	for i, node := range m.nodes {
		node.prev = m.nodes[(i-1+n)%n]
		node.next = m.nodes[(i+1)%n]
	}
}

// get returns the node stored under key, or nil.
func (m *orderedMap) get(key string) *Node {
	r, exact := m.idx.Find(key)
	if !exact || r == nil {
		return nil
	}
	return r.Value.(*Node)
}

// floor returns the node with the greatest owner <= name in canonical
// order (the "less_or_equal" search of spec §4.C step 3), and whether
// it is an exact match. It returns nil, false if the map is empty.
func (m *orderedMap) floor(name Name) (*Node, bool) {
	if len(m.nodes) == 0 {
		return nil, false
	}
	i := sort.Search(len(m.nodes), func(i int) bool {
		return CanonicalCompare(m.nodes[i].Owner, name) > 0
	})
	if i == 0 {
		// name orders before every node in the map; by the OutOfZone
		// precondition on the main tree this cannot happen for names
		// under the apex, since the apex always orders first. NSEC3
		// lookups handle this by wrapping to the last node themselves.
		return nil, false
	}
	found := m.nodes[i-1]
	return found, found.Owner.Equal(name)
}

// first returns the canonically-first node, or nil if empty.
func (m *orderedMap) first() *Node {
	if len(m.nodes) == 0 {
		return nil
	}
	return m.nodes[0]
}

// last returns the canonically-last node, or nil if empty.
func (m *orderedMap) last() *Node {
	if len(m.nodes) == 0 {
		return nil
	}
	return m.nodes[len(m.nodes)-1]
}

// TraversalOrder selects the visiting order for applyFunc (spec §4.C
// apply_in_order / reverse / post_order; spec §9 design notes: "a
// simple tagged enum").
type TraversalOrder int

const (
	InOrder TraversalOrder = iota
	ReverseInOrder
	PostOrder
)

// apply walks every node in the requested order, calling fn on each.
// PostOrder has no distinct meaning over a flat canonically-ordered
// sequence (there is no branching structure left to post-visit), so it
// is treated as a synonym for InOrder; no subtree post-order walk is
// offered.
func (m *orderedMap) apply(order TraversalOrder, fn func(*Node)) {
	switch order {
	case ReverseInOrder:
		for i := len(m.nodes) - 1; i >= 0; i-- {
			fn(m.nodes[i])
		}
	default:
		for _, n := range m.nodes {
			fn(n)
		}
	}
}

// count returns the number of nodes stored.
func (m *orderedMap) count() int {
	return len(m.nodes)
}
