package dns

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ZoneOptions carries the construction-time tuning knobs the teacher's
// Zone exposed as package-level defaults (SignatureConfig, Wildcard
// counting); signing itself is out of scope (spec §1), but the
// feature-gating shape for the optional Name Hash Index (spec §4.D)
// and the NSEC3 hash cache size (SPEC_FULL §2) live here.
type ZoneOptions struct {
	// HashIndex enables the cuckoo-hash exact-match accelerator.
	HashIndex bool
	// NSEC3HashCacheSize bounds the small LRU used to avoid re-hashing
	// the same owner name repeatedly within a query-serving burst.
	// Zero disables the cache.
	NSEC3HashCacheSize int
}

// DefaultZoneOptions mirrors the teacher's DefaultSignatureConfig
// pattern: a single package-level value holding sane defaults, rather
// than requiring every caller to populate every field.
var DefaultZoneOptions = ZoneOptions{HashIndex: false, NSEC3HashCacheSize: 256}

// log is the package-level structured logger, replaceable via
// SetLogger. The core has no hot-path logging (spec §5: synchronous,
// no suspension points); this only carries one-shot diagnostics from
// Adjust and NSEC3 hashing. Defaults to a no-op logger so importing
// this package is silent until a caller opts in, the same posture
// johanix-tdns's daemons use for library-internal logging.
var log = zerolog.Nop()

// SetLogger replaces the package-level logger.
func SetLogger(l zerolog.Logger) {
	log = l
}

// Zone owns the apex node, the main tree, the NSEC3 tree, NSEC3PARAM
// state, and an optional name hash index (spec §3). It is built once,
// Adjust is run once, and it is safe for concurrent readers thereafter
// (spec §5) — nothing below this line is safe to call concurrently
// with Insert or Adjust.
type Zone struct {
	Apex *Node

	tree   *orderedMap
	nsec3  *orderedMap
	params nsec3Params

	nodeCount int
	options   ZoneOptions
	index     *cuckooIndex // nil unless options.HashIndex

	nsec3HashCache *hashCache

	adjusted bool
}

// NewZone creates an initialized zone whose apex is the given owner
// name. expectedCount sizes the optional name hash index when
// opts enables it; the ordered trees ignore it.
func NewZone(apex Name, expectedCount int, opts *ZoneOptions) (*Zone, error) {
	o := DefaultZoneOptions
	if opts != nil {
		o = *opts
	}
	z := &Zone{
		tree:    newOrderedMap(),
		nsec3:   newOrderedMap(),
		options: o,
	}
	apexNode := NewNode(apex)
	apexNode.Flags |= FlagAuth
	if err := z.insertNode(apexNode); err != nil {
		return nil, err
	}
	z.Apex = apexNode
	if o.HashIndex {
		z.index = newCuckooIndex(expectedCount)
		z.index.put(apex, apexNode)
	}
	if o.NSEC3HashCacheSize > 0 {
		z.nsec3HashCache = newHashCache(o.NSEC3HashCacheSize)
	}
	return z, nil
}

// Insert adds node to the zone's main tree. node.Owner must be a
// subdomain of (or equal to) the apex (spec invariant 1). Missing
// ancestor levels between node and the nearest existing ancestor are
// auto-created as empty non-terminals, so every node's single-label-
// chopped parent is always present in the tree — this is what lets
// Adjust compute Parent links with a single lookup per node instead of
// a search.
func (z *Zone) Insert(node *Node) error {
	if node == nil {
		return ErrBadArg
	}
	if !IsSubdomain(node.Owner, z.Apex.Owner) {
		return errors.Wrapf(ErrOutOfZone, "%s", node.Owner)
	}
	if err := z.insertNode(node); err != nil {
		return err
	}
	z.createAncestors(node.Owner)
	if z.index != nil {
		z.index.put(node.Owner, node)
	}
	return nil
}

func (z *Zone) insertNode(node *Node) error {
	if err := z.tree.insert(radixKey(node.Owner), node); err != nil {
		return err
	}
	z.nodeCount++
	return nil
}

// createAncestors walks owner's ancestors (one label chopped at a
// time) up to, but not including, the apex, creating an empty
// non-terminal Node for any level not already present.
func (z *Zone) createAncestors(owner Name) {
	cursor := owner
	for cursor.Labels() > z.Apex.Owner.Labels() {
		cursor = ChopLeft(cursor)
		if z.tree.get(radixKey(cursor)) != nil {
			continue
		}
		empty := NewNode(cursor)
		empty.Flags |= FlagEmptyNonTerminal
		// createAncestors only ever introduces brand-new owners, so
		// this insert cannot race the duplicate check above.
		_ = z.insertNode(empty)
		if z.index != nil {
			z.index.put(cursor, empty)
		}
	}
}

// Get returns the node with the given exact owner name, or nil.
func (z *Zone) Get(name Name) *Node {
	if z.index != nil {
		if n, exact := z.index.get(name); exact {
			return n
		}
	}
	return z.tree.get(radixKey(name))
}

// ClosestEncloserResult is the outcome of Zone.Find (spec §4.C).
type ClosestEncloserResult struct {
	Exact           bool
	Node            *Node
	ClosestEncloser *Node
	Previous        *Node
}

// Find performs the closest-encloser search described in spec §4.C.
// It must only be called after Adjust has run, since it walks Parent
// links that Adjust computes.
func (z *Zone) Find(name Name) (ClosestEncloserResult, error) {
	if name.Equal(z.Apex.Owner) {
		return ClosestEncloserResult{
			Exact:           true,
			Node:            z.Apex,
			ClosestEncloser: z.Apex,
			Previous:        z.previousFor(z.Apex),
		}, nil
	}
	if !IsSubdomain(name, z.Apex.Owner) {
		return ClosestEncloserResult{}, ErrOutOfZone
	}

	found, exact := z.tree.floor(name)
	if found == nil {
		return ClosestEncloserResult{}, ErrOutOfZone
	}

	res := ClosestEncloserResult{Exact: exact, Previous: z.previousFor(found)}
	if exact {
		res.Node = found
		res.ClosestEncloser = found
		return res, nil
	}

	res.Node = found
	matched := MatchedLabels(found.Owner, name)
	cursor := found
	for cursor.Owner.Labels() != matched {
		if cursor.Parent == nil {
			// Adjust has not run, or the tree is missing an ancestor
			// level; this is the caller's responsibility per spec §5.
			return ClosestEncloserResult{}, errors.Wrap(ErrBadArg, "zone not adjusted")
		}
		cursor = cursor.Parent
	}
	res.ClosestEncloser = cursor
	return res, nil
}

// previousFor implements spec §4.C step 6 / §9's two-arm policy: when
// found is the canonically-first node in the tree, previous wraps
// around to the tree's immediate predecessor of found (which, via the
// circular list, is the last node); otherwise previous is found's
// immediate predecessor or, if that is an empty non-terminal, the
// nearest non-empty node further back.
func (z *Zone) previousFor(found *Node) *Node {
	if found == z.tree.first() {
		return found.Previous()
	}
	p := found.prev
	if p.RRSetCount() == 0 {
		return p.previousNonEmpty()
	}
	return p
}

// ApplyInOrder, ApplyReverse and ApplyPostOrder walk every node in the
// main tree in the requested order (spec §4.C apply_in_order/reverse/
// post_order).
func (z *Zone) ApplyInOrder(fn func(*Node))  { z.tree.apply(InOrder, fn) }
func (z *Zone) ApplyReverse(fn func(*Node))  { z.tree.apply(ReverseInOrder, fn) }
func (z *Zone) ApplyPostOrder(fn func(*Node)) { z.tree.apply(PostOrder, fn) }

// NodeCount returns the number of nodes (including empty
// non-terminals) in the main tree.
func (z *Zone) NodeCount() int { return z.nodeCount }
