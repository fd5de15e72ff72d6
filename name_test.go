package dns

import "testing"

func mustName(t *testing.T, s string) Name {
	t.Helper()
	n, err := NameFromString(s)
	if err != nil {
		t.Fatalf("NameFromString(%q): %v", s, err)
	}
	return n
}

func TestNameRoundTrip(t *testing.T) {
	cases := []string{".", "com.", "example.com.", "www.example.com", "a.b.c.d.example.com."}
	for _, c := range cases {
		n := mustName(t, c)
		buf := make([]byte, MaxNameWire)
		wn, err := ToWire(n, buf)
		if err != nil {
			t.Fatalf("ToWire(%q): %v", c, err)
		}
		buf = append(buf[:0:0], buf[:wn]...)
		full := append([]byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, buf...)
		got, consumed, err := ParseWire(full, headerSize, len(full))
		if err != nil {
			t.Fatalf("ParseWire(%q): %v", c, err)
		}
		if consumed != wn {
			t.Fatalf("ParseWire(%q): consumed %d, want %d", c, consumed, wn)
		}
		if !got.Equal(n) {
			t.Fatalf("round trip mismatch for %q: got %q", c, got.String())
		}
	}
}

func TestNameCaseFolding(t *testing.T) {
	a := mustName(t, "WWW.Example.COM.")
	b := mustName(t, "www.example.com.")
	if !a.Equal(b) {
		t.Fatalf("expected case-insensitive equality")
	}
	if a.String() != "www.example.com." {
		t.Fatalf("expected lower-cased presentation form, got %q", a.String())
	}
}

func TestCanonicalCompareOrdering(t *testing.T) {
	// RFC 4034 §6.1 example ordering, restricted to the unescaped
	// labels (this codec does not decode \DDD/\X presentation escapes).
	names := []string{
		"example.",
		"a.example.",
		"yljkjljk.a.example.",
		"Z.a.example.",
		"zABC.a.EXAMPLE.",
		"z.example.",
		"*.z.example.",
	}
	for i := 0; i < len(names)-1; i++ {
		a := mustName(t, names[i])
		b := mustName(t, names[i+1])
		if c := CanonicalCompare(a, b); c >= 0 {
			t.Fatalf("expected %q < %q, got comparator %d", names[i], names[i+1], c)
		}
	}
}

func TestIsSubdomain(t *testing.T) {
	sub := mustName(t, "www.example.com.")
	sup := mustName(t, "example.com.")
	if !IsSubdomain(sub, sup) {
		t.Fatalf("expected www.example.com. to be a subdomain of example.com.")
	}
	if IsSubdomain(sup, sub) {
		t.Fatalf("did not expect example.com. to be a subdomain of www.example.com.")
	}
	if !IsSubdomain(sup, sup) {
		t.Fatalf("a name is its own (improper) subdomain")
	}
}

func TestChopLeftAndConcat(t *testing.T) {
	n := mustName(t, "www.example.com.")
	chopped := ChopLeft(n)
	if chopped.String() != "example.com." {
		t.Fatalf("ChopLeft: got %q", chopped.String())
	}
	rebuilt, err := Concat(mustName(t, "www"), chopped)
	if err != nil {
		t.Fatalf("Concat: %v", err)
	}
	if !rebuilt.Equal(n) {
		t.Fatalf("Concat round trip: got %q want %q", rebuilt.String(), n.String())
	}
}

func TestParseWireRejectsPointerCycle(t *testing.T) {
	buf := make([]byte, headerSize+4)
	// byte headerSize points at itself.
	buf[headerSize] = compressTag | byte(headerSize>>8)
	buf[headerSize+1] = byte(headerSize)
	if _, _, err := ParseWire(buf, headerSize, len(buf)); err == nil {
		t.Fatalf("expected cycle detection to fail parsing")
	}
}

func TestParseWireRejectsForwardPointer(t *testing.T) {
	buf := make([]byte, headerSize+6)
	ptr := headerSize + 4
	buf[headerSize] = compressTag | byte(ptr>>8)
	buf[headerSize+1] = byte(ptr)
	if _, _, err := ParseWire(buf, headerSize, len(buf)); err == nil {
		t.Fatalf("expected forward-pointer rejection")
	}
}

func TestParseWireRejectsPointerIntoHeader(t *testing.T) {
	buf := make([]byte, headerSize+4)
	buf[headerSize] = compressTag
	buf[headerSize+1] = 4
	if _, _, err := ParseWire(buf, headerSize, len(buf)); err == nil {
		t.Fatalf("expected header-pointer rejection")
	}
}
