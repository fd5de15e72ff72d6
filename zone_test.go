package dns

import "testing"

func buildTestZone(t *testing.T) *Zone {
	t.Helper()
	apex := mustName(t, "example.com.")
	z, err := NewZone(apex, 8, nil)
	if err != nil {
		t.Fatalf("NewZone: %v", err)
	}
	for _, owner := range []string{
		"www.example.com.",
		"mail.example.com.",
		"a.b.example.com.",
		"sub.example.com.",
	} {
		n := NewNode(mustName(t, owner))
		n.AddRRSet(NewRRSet(n.Owner, TypeA, ClassINET, 300))
		if err := z.Insert(n); err != nil {
			t.Fatalf("Insert(%q): %v", owner, err)
		}
	}
	if err := z.Adjust(); err != nil {
		t.Fatalf("Adjust: %v", err)
	}
	return z
}

func TestZoneInsertRejectsOutOfZone(t *testing.T) {
	apex := mustName(t, "example.com.")
	z, err := NewZone(apex, 1, nil)
	if err != nil {
		t.Fatalf("NewZone: %v", err)
	}
	n := NewNode(mustName(t, "www.other.com."))
	if err := z.Insert(n); err == nil {
		t.Fatalf("expected ErrOutOfZone for an owner outside the apex")
	}
}

func TestZoneInsertRejectsDuplicate(t *testing.T) {
	apex := mustName(t, "example.com.")
	z, _ := NewZone(apex, 1, nil)
	n1 := NewNode(mustName(t, "www.example.com."))
	n2 := NewNode(mustName(t, "www.example.com."))
	if err := z.Insert(n1); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := z.Insert(n2); err == nil {
		t.Fatalf("expected duplicate-owner rejection on second insert")
	}
}

func TestZoneFindExact(t *testing.T) {
	z := buildTestZone(t)
	res, err := z.Find(mustName(t, "www.example.com."))
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if !res.Exact {
		t.Fatalf("expected an exact match for www.example.com.")
	}
	if res.Node.Owner.String() != "www.example.com." {
		t.Fatalf("unexpected node: %s", res.Node.Owner.String())
	}
}

func TestZoneFindClosestEncloser(t *testing.T) {
	z := buildTestZone(t)
	res, err := z.Find(mustName(t, "nothere.www.example.com."))
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if res.Exact {
		t.Fatalf("did not expect an exact match")
	}
	if res.ClosestEncloser.Owner.String() != "www.example.com." {
		t.Fatalf("unexpected closest encloser: %s", res.ClosestEncloser.Owner.String())
	}
}

func TestZoneFindOutOfZone(t *testing.T) {
	z := buildTestZone(t)
	if _, err := z.Find(mustName(t, "www.other.com.")); err == nil {
		t.Fatalf("expected ErrOutOfZone")
	}
}

func TestZoneEmptyNonTerminalAutoCreated(t *testing.T) {
	z := buildTestZone(t)
	ent := z.Get(mustName(t, "b.example.com."))
	if ent == nil {
		t.Fatalf("expected b.example.com. to exist as an auto-created empty non-terminal")
	}
	if ent.Flags&FlagEmptyNonTerminal == 0 {
		t.Fatalf("expected FlagEmptyNonTerminal to be set")
	}
	if ent.RRSetCount() != 0 {
		t.Fatalf("expected an empty non-terminal to carry no RRSets")
	}
}

func TestZoneDelegationMarking(t *testing.T) {
	apex := mustName(t, "example.com.")
	z, _ := NewZone(apex, 4, nil)
	sub := NewNode(mustName(t, "sub.example.com."))
	sub.AddRRSet(NewRRSet(sub.Owner, TypeNS, ClassINET, 300))
	if err := z.Insert(sub); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	child := NewNode(mustName(t, "www.sub.example.com."))
	child.AddRRSet(NewRRSet(child.Owner, TypeA, ClassINET, 300))
	if err := z.Insert(child); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := z.Adjust(); err != nil {
		t.Fatalf("Adjust: %v", err)
	}
	if sub.Flags&FlagDelegationPoint == 0 {
		t.Fatalf("expected sub.example.com. to be marked as a delegation point")
	}
	if child.Flags&FlagNonAuth == 0 {
		t.Fatalf("expected www.sub.example.com. to be marked non-authoritative")
	}
}

func TestZonePreviousWrapsAround(t *testing.T) {
	z := buildTestZone(t)
	// The tree's canonically-first node is the apex; take it from the walk.
	var canonicalFirst *Node
	z.ApplyInOrder(func(n *Node) {
		if canonicalFirst == nil {
			canonicalFirst = n
		}
	})
	res, err := z.Find(canonicalFirst.Owner)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if res.Previous == nil {
		t.Fatalf("expected a wrapped-around previous node for the canonically-first owner")
	}
	var canonicalLast *Node
	z.ApplyInOrder(func(n *Node) { canonicalLast = n })
	if res.Previous != canonicalLast {
		t.Fatalf("expected previous-of-first to wrap to the canonically-last node")
	}
}

func TestZoneApplyInOrderIsSorted(t *testing.T) {
	z := buildTestZone(t)
	var prev *Node
	z.ApplyInOrder(func(n *Node) {
		if prev != nil && CanonicalCompare(prev.Owner, n.Owner) >= 0 {
			t.Fatalf("ApplyInOrder not canonically sorted: %s >= %s", prev.Owner.String(), n.Owner.String())
		}
		prev = n
	})
}

func TestZoneAdjustIdempotent(t *testing.T) {
	z := buildTestZone(t)
	before := z.Apex.Flags
	if err := z.Adjust(); err != nil {
		t.Fatalf("second Adjust: %v", err)
	}
	if z.Apex.Flags != before {
		t.Fatalf("re-running Adjust changed apex flags: %v -> %v", before, z.Apex.Flags)
	}
}
