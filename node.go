package dns

// NodeFlags are the per-node boolean attributes tracked by the zone
// (spec §3).
type NodeFlags uint8

const (
	FlagAuth NodeFlags = 1 << iota
	FlagDelegationPoint
	FlagNonAuth
	FlagEmptyNonTerminal
)

// Node owns an owner name and the (at most one per type) RRSets
// attached to it. Parent and NSEC3Node are non-owning links populated
// by Adjust; they must never be followed before Adjust has run once.
type Node struct {
	Owner     Name
	RRSets    map[uint16]*RRSet
	Flags     NodeFlags
	Parent    *Node
	NSEC3Node *Node

	// prev/next form the doubly linked canonical-order chain used by
	// Zone.Previous and the NSEC/NSEC3 "walk to the previous non-empty
	// node" rule (spec §4.C step 6). Populated at insertion time by
	// the owning tree, not by Adjust.
	prev, next *Node
}

// NewNode allocates a Node with an empty RRSet map.
func NewNode(owner Name) *Node {
	return &Node{Owner: owner, RRSets: make(map[uint16]*RRSet)}
}

// RRSetCount returns the number of distinct RR types stored at this
// node (spec §4.C: "RRSet count" drives the empty-non-terminal skip).
func (n *Node) RRSetCount() int {
	return len(n.RRSets)
}

// Get returns the RRSet of the given type at this node, or nil.
func (n *Node) Get(rtype uint16) *RRSet {
	return n.RRSets[rtype]
}

// AddRRSet attaches rrset to the node, keyed by its type. If an RRSet
// of that type already exists, its RDATA is merged into it rather than
// the attachment being replaced outright (RFC 2181 §5: one RRSet per
// owner/type/class).
func (n *Node) AddRRSet(rrset *RRSet) {
	if existing, ok := n.RRSets[rrset.Type]; ok {
		Merge(existing, rrset)
		return
	}
	n.RRSets[rrset.Type] = rrset
}

// previousNonEmpty walks the canonical-order chain backward, skipping
// empty non-terminals, per spec §4.C step 6 and §4.F's parent walk.
func (n *Node) previousNonEmpty() *Node {
	p := n.prev
	for p != nil && p.RRSetCount() == 0 {
		p = p.prev
	}
	return p
}

// Previous returns the immediate predecessor in canonical order,
// regardless of whether it is an empty non-terminal.
func (n *Node) Previous() *Node {
	return n.prev
}

// Next returns the immediate successor in canonical order.
func (n *Node) Next() *Node {
	return n.next
}
