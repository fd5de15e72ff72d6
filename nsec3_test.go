package dns

import "testing"

func zoneWithNSEC3Params(t *testing.T) *Zone {
	t.Helper()
	apex := mustName(t, "example.com.")
	z, err := NewZone(apex, 4, nil)
	if err != nil {
		t.Fatalf("NewZone: %v", err)
	}
	params := NewRRSet(z.Apex.Owner, TypeNSEC3PARAM, ClassINET, 0)
	params.RData = append(params.RData, RData{Items: []RDataItem{
		{Kind: KindUint8, U: 1},          // algorithm
		{Kind: KindUint8, U: 0},          // flags
		{Kind: KindUint16, U: 10},        // iterations
		{Kind: KindBlob8, Blob: []byte{0xaa, 0xbb}}, // salt
	}})
	z.Apex.AddRRSet(params)
	return z
}

func TestNSEC3EnabledRequiresParams(t *testing.T) {
	apex := mustName(t, "example.com.")
	z, _ := NewZone(apex, 1, nil)
	if z.NSEC3Enabled() {
		t.Fatalf("expected NSEC3 to be disabled without NSEC3PARAM")
	}
}

func TestNSEC3EnabledWithParams(t *testing.T) {
	z := zoneWithNSEC3Params(t)
	if !z.NSEC3Enabled() {
		t.Fatalf("expected NSEC3 to be enabled once NSEC3PARAM is present")
	}
}

func TestNSEC3NameDeterministic(t *testing.T) {
	z := zoneWithNSEC3Params(t)
	owner := mustName(t, "www.example.com.")
	h1, err := z.NSEC3Name(owner)
	if err != nil {
		t.Fatalf("NSEC3Name: %v", err)
	}
	h2, err := z.NSEC3Name(owner)
	if err != nil {
		t.Fatalf("NSEC3Name (cached): %v", err)
	}
	if !h1.Equal(h2) {
		t.Fatalf("expected a stable hash across repeated calls: %q != %q", h1.String(), h2.String())
	}
	if !IsSubdomain(h1, z.Apex.Owner) {
		t.Fatalf("expected the hashed name to live under the zone apex, got %q", h1.String())
	}
}

func TestNSEC3NameDiffersByOwner(t *testing.T) {
	z := zoneWithNSEC3Params(t)
	h1, _ := z.NSEC3Name(mustName(t, "www.example.com."))
	h2, _ := z.NSEC3Name(mustName(t, "mail.example.com."))
	if h1.Equal(h2) {
		t.Fatalf("expected distinct owners to hash to distinct names")
	}
}

func TestFindNSEC3ForNameExactMatch(t *testing.T) {
	z := zoneWithNSEC3Params(t)
	owners := []string{"www.example.com.", "mail.example.com.", "sub.example.com."}
	for _, o := range owners {
		hashed, err := z.NSEC3Name(mustName(t, o))
		if err != nil {
			t.Fatalf("NSEC3Name: %v", err)
		}
		n := NewNode(hashed)
		n.AddRRSet(NewRRSet(hashed, TypeNSEC3, ClassINET, 300))
		if err := z.InsertNSEC3(n); err != nil {
			t.Fatalf("InsertNSEC3: %v", err)
		}
	}
	res, err := z.FindNSEC3ForName(mustName(t, "www.example.com."))
	if err != nil {
		t.Fatalf("FindNSEC3ForName: %v", err)
	}
	if !res.Exact {
		t.Fatalf("expected an exact NSEC3 match for an inserted owner")
	}
}
