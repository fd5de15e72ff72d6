package dns

// Adjust performs the one-shot post-load pass described in spec §4.F:
// compute Parent links, intern DNAME RDATA references, mark
// delegation/non-authoritative nodes, and link each node to its NSEC3
// counterpart. It is idempotent (spec §8 law 4): re-running it after
// it has already completed recomputes the same state, since interning
// a DName that is already a reference is a no-op and delegation/NSEC3
// flags are derived purely from current tree state, not accumulated.
//
// Adjust tolerates a zone with no NSEC3PARAM (nsec3 linking is simply
// skipped for every node). A node whose hashed name cannot be computed
// gets a nil NSEC3Node and the walk goes on linking the nodes after it;
// a hash failure does not abort the pass, does not switch NSEC3 linking
// off for the rest of it, and does not clear links already made.
func (z *Zone) Adjust() error {
	z.linkParents()

	nsec3OK := z.NSEC3Enabled()
	z.tree.apply(InOrder, func(n *Node) {
		z.adjustNode(n)
		if nsec3OK {
			z.linkNSEC3(n)
		} else {
			n.NSEC3Node = nil
		}
	})

	z.nsec3.apply(InOrder, func(n *Node) {
		z.adjustNSEC3RRSIGs(n)
	})

	z.adjusted = true
	return nil
}

// linkParents sets every node's Parent to its immediate ancestor in
// the tree. Because Zone.Insert auto-creates any missing single-label-
// chopped ancestor (zone.go's createAncestors), every node except the
// apex has exactly one such ancestor, found with a direct lookup.
func (z *Zone) linkParents() {
	z.tree.apply(InOrder, func(n *Node) {
		if n == z.Apex {
			n.Parent = nil
			return
		}
		parentOwner := ChopLeft(n.Owner)
		n.Parent = z.tree.get(radixKey(parentOwner))
	})
}

// adjustNode runs the per-node adjustment: RDATA DNAME interning for
// every RRSet (and its attached RRSIG sibling), then delegation
// marking (spec §4.F steps 1-2).
func (z *Zone) adjustNode(n *Node) {
	for _, rrset := range n.RRSets {
		rrset.Owner = n.Owner
		z.internRRSet(rrset)
		if rrset.RRSIG != nil {
			rrset.RRSIG.Owner = n.Owner
			z.internRRSet(rrset.RRSIG)
		}
	}

	n.Flags &^= FlagAuth | FlagDelegationPoint | FlagNonAuth
	switch {
	case n.Parent != nil && n.Parent.Flags&(FlagDelegationPoint|FlagNonAuth) != 0:
		n.Flags |= FlagNonAuth
	case n != z.Apex && n.Get(TypeNS) != nil:
		n.Flags |= FlagDelegationPoint
	default:
		n.Flags |= FlagAuth
	}
}

// internRRSet walks rrset's RDATA items and, for every DNAME item,
// looks the referenced name up in the zone; on a hit it replaces the
// item's effective name with a non-owning reference to the found
// node's owner (spec invariant 2).
//
// Open Question resolution (spec §9 / SPEC_FULL §4.1): the previously
// owned Name is only ever read through DNameItem.Owned for
// serialization fallback and comparison, never mutated or freed
// separately, so there is nothing to schedule for deallocation beyond
// what Go's garbage collector already reclaims once the last reference
// to the owned byte slice drops — unlike the C original, there is no
// manual free to schedule. What we preserve from the original's intent
// is the reference itself: Ref is set only when the RDATA slot
// exclusively held that DNAME (i.e. on first adjustment; re-adjusting
// an already-interned item is a no-op below).
func (z *Zone) internRRSet(rrset *RRSet) {
	desc, ok := DescriptorFor(rrset.Type)
	if !ok {
		return
	}
	for ri := range rrset.RData {
		items := rrset.RData[ri].Items
		for fi, field := range desc.Fields {
			if fi >= len(items) {
				break
			}
			if field.Kind != KindNameCompressed && field.Kind != KindNameUncompressed && field.Kind != KindNameLiteral {
				continue
			}
			d := items[fi].DName
			if d == nil || d.Ref != nil {
				continue // nothing to intern, or already interned (idempotent)
			}
			if found := z.Get(d.Owned); found != nil {
				d.Ref = found
			}
		}
	}
}

// linkNSEC3 computes n's hashed name and links it to the matching
// NSEC3 tree node, if any (spec §4.F step 3).
func (z *Zone) linkNSEC3(n *Node) {
	hashed, err := z.NSEC3Name(n.Owner)
	if err != nil {
		n.NSEC3Node = nil
		return
	}
	n.NSEC3Node = z.nsec3.get(radixKey(hashed))
}

// adjustNSEC3RRSIGs interns only the RRSIG sibling's DNAME items for
// an NSEC3 tree node — NSEC3 RRs themselves carry no in-zone names
// (spec §4.F: "then iterate the NSEC3 tree, adjusting only RRSIG
// DNAMEs").
func (z *Zone) adjustNSEC3RRSIGs(n *Node) {
	if rrset := n.Get(TypeNSEC3); rrset != nil && rrset.RRSIG != nil {
		z.internRRSet(rrset.RRSIG)
	}
}
