package dns

import "testing"

func TestMergeDeduplicates(t *testing.T) {
	owner := mustName(t, "www.example.com.")
	a := NewRRSet(owner, TypeA, ClassINET, 300)
	a.RData = append(a.RData, RData{Items: []RDataItem{{Kind: KindIPv4, Blob: []byte{192, 0, 2, 1}}}})

	b := NewRRSet(owner, TypeA, ClassINET, 300)
	b.RData = append(b.RData,
		RData{Items: []RDataItem{{Kind: KindIPv4, Blob: []byte{192, 0, 2, 1}}}}, // duplicate
		RData{Items: []RDataItem{{Kind: KindIPv4, Blob: []byte{192, 0, 2, 2}}}}, // new
	)

	merged, deleted := Merge(a, b)
	if merged != 1 || deleted != 1 {
		t.Fatalf("Merge: got merged=%d deleted=%d, want merged=1 deleted=1", merged, deleted)
	}
	if len(a.RData) != 2 {
		t.Fatalf("expected 2 total RDATA entries after merge, got %d", len(a.RData))
	}
}

func TestRRSetEqualModes(t *testing.T) {
	owner := mustName(t, "www.example.com.")
	a := NewRRSet(owner, TypeA, ClassINET, 300)
	a.RData = append(a.RData, RData{Items: []RDataItem{{Kind: KindIPv4, Blob: []byte{192, 0, 2, 1}}}})

	b := NewRRSet(owner, TypeA, ClassINET, 600) // different TTL
	b.RData = append(b.RData, RData{Items: []RDataItem{{Kind: KindIPv4, Blob: []byte{192, 0, 2, 1}}}})

	if !RRSetEqual(a, b, EqualHeader) {
		t.Fatalf("expected header equality regardless of TTL")
	}
	if !RRSetEqual(a, b, EqualWhole) {
		t.Fatalf("expected whole equality: same owner/type/class/rdata")
	}
	if RRSetEqual(a, b, EqualPointer) {
		t.Fatalf("did not expect pointer equality for distinct values")
	}

	c := NewRRSet(owner, TypeA, ClassINET, 300)
	c.RData = append(c.RData, RData{Items: []RDataItem{{Kind: KindIPv4, Blob: []byte{192, 0, 2, 9}}}})
	if RRSetEqual(a, c, EqualWhole) {
		t.Fatalf("did not expect whole equality with differing RDATA")
	}
}

func TestDescriptorForKnownAndUnknown(t *testing.T) {
	if _, ok := DescriptorFor(TypeSOA); !ok {
		t.Fatalf("expected a descriptor for SOA")
	}
	if _, ok := DescriptorFor(65535); ok {
		t.Fatalf("did not expect a descriptor for an unallocated type")
	}
}

func TestDNameItemNameBeforeAndAfterIntern(t *testing.T) {
	owned := mustName(t, "ns1.example.com.")
	d := &DNameItem{Kind: DNameCompressed, Owned: owned}
	if !d.Name().Equal(owned) {
		t.Fatalf("expected Name() to return Owned before interning")
	}
	node := NewNode(mustName(t, "ns1.example.com."))
	d.Ref = node
	if !d.Name().Equal(node.Owner) {
		t.Fatalf("expected Name() to return the referenced node's owner after interning")
	}
}
