package dns

import "testing"

func newTestPacket(t *testing.T) *Packet {
	t.Helper()
	return NewPacket(nil, 1500, HeapContext)
}

func TestPacketHeaderFlags(t *testing.T) {
	p := newTestPacket(t)
	p.SetID(0x1234)
	p.SetQR(true)
	p.SetAA(true)
	p.SetRD(true)
	p.SetOpcode(2)
	p.SetRcode(3)

	if p.ID() != 0x1234 {
		t.Fatalf("ID: got %x", p.ID())
	}
	if !p.QR() || !p.AA() || !p.RD() {
		t.Fatalf("expected QR, AA and RD to be set")
	}
	if p.RA() || p.TC() {
		t.Fatalf("did not expect RA or TC to be set")
	}
	if p.Opcode() != 2 {
		t.Fatalf("Opcode: got %d", p.Opcode())
	}
	if p.Rcode() != 3 {
		t.Fatalf("Rcode: got %d", p.Rcode())
	}
}

func aRRSet(t *testing.T, owner string, ip [4]byte) *RRSet {
	t.Helper()
	rr := NewRRSet(mustName(t, owner), TypeA, ClassINET, 3600)
	rr.RData = append(rr.RData, RData{Items: []RDataItem{{Kind: KindIPv4, Blob: ip[:]}}})
	return rr
}

func TestPacketBuildAndParseRoundTrip(t *testing.T) {
	qname := mustName(t, "www.example.com.")
	p := newTestPacket(t)
	p.SetID(42)
	p.SetRD(true)
	if err := p.PutQuestion(qname, ClassINET, TypeA); err != nil {
		t.Fatalf("PutQuestion: %v", err)
	}

	p.Begin(SectionAnswer)
	if err := p.Put(aRRSet(t, "www.example.com.", [4]byte{192, 0, 2, 1}), 0); err != nil {
		t.Fatalf("Put answer: %v", err)
	}

	p.Begin(SectionAuthority)
	ns := NewRRSet(mustName(t, "example.com."), TypeNS, ClassINET, 3600)
	nsName := mustName(t, "ns1.example.com.")
	ns.RData = append(ns.RData, RData{Items: []RDataItem{{Kind: KindNameCompressed, DName: &DNameItem{Kind: DNameCompressed, Owned: nsName}}}})
	if err := p.Put(ns, 0); err != nil {
		t.Fatalf("Put authority: %v", err)
	}

	wire := append([]byte(nil), p.wire[:p.size]...)

	p2 := NewPacketFromWire(wire, HeapContext)
	if err := p2.Parse(0); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if p2.ID() != 42 {
		t.Fatalf("parsed ID: got %d", p2.ID())
	}
	q, ok := p2.Question()
	if !ok {
		t.Fatalf("expected a parsed question")
	}
	if !q.QName.Equal(qname) || q.QType != TypeA || q.QClass != ClassINET {
		t.Fatalf("unexpected question: %+v", q)
	}

	answers := p2.Section(SectionAnswer)
	if len(answers) != 1 {
		t.Fatalf("expected 1 answer RRSet, got %d", len(answers))
	}
	if answers[0].Type != TypeA || !answers[0].Owner.Equal(qname) {
		t.Fatalf("unexpected answer RRSet: %+v", answers[0])
	}

	authorities := p2.Section(SectionAuthority)
	if len(authorities) != 1 || authorities[0].Type != TypeNS {
		t.Fatalf("expected 1 NS authority RRSet, got %+v", authorities)
	}
}

func TestPacketMergesDuplicateRRSets(t *testing.T) {
	qname := mustName(t, "www.example.com.")
	p := newTestPacket(t)
	p.PutQuestion(qname, ClassINET, TypeA)
	p.Begin(SectionAnswer)
	p.Put(aRRSet(t, "www.example.com.", [4]byte{192, 0, 2, 1}), 0)
	p.Put(aRRSet(t, "www.example.com.", [4]byte{192, 0, 2, 2}), 0)

	wire := append([]byte(nil), p.wire[:p.size]...)
	p2 := NewPacketFromWire(wire, HeapContext)
	if err := p2.Parse(0); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	answers := p2.Section(SectionAnswer)
	if len(answers) != 1 {
		t.Fatalf("expected the two A RRs to merge into one RRSet, got %d", len(answers))
	}
	if len(answers[0].RData) != 2 {
		t.Fatalf("expected 2 merged RDATA entries, got %d", len(answers[0].RData))
	}
}

func TestPacketNoSpaceSetsTruncation(t *testing.T) {
	qname := mustName(t, "www.example.com.")
	p := NewPacket(nil, headerSize+len(qname.Raw)+4+8, HeapContext)
	if err := p.PutQuestion(qname, ClassINET, TypeA); err != nil {
		t.Fatalf("PutQuestion: %v", err)
	}
	p.Begin(SectionAnswer)
	err := p.Put(aRRSet(t, "www.example.com.", [4]byte{192, 0, 2, 1}), 0)
	if err == nil {
		t.Fatalf("expected ErrNoSpace from an undersized buffer")
	}
	if !p.TC() {
		t.Fatalf("expected the TC bit to be set on truncation")
	}
}

func TestPacketOPTRoundTrip(t *testing.T) {
	p := newTestPacket(t)
	p.PutQuestion(mustName(t, "example.com."), ClassINET, TypeA)
	opt := &OPT{UDPSize: 4096, Version: 0, DO: true, Options: []EDNS0{&EDNS0NSIDOption{NSID: []byte("srv1")}}}
	if err := p.PutOPT(opt, nil); err != nil {
		t.Fatalf("PutOPT: %v", err)
	}

	wire := append([]byte(nil), p.wire[:p.size]...)
	p2 := NewPacketFromWire(wire, HeapContext)
	if err := p2.Parse(0); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := p2.OPT()
	if got == nil {
		t.Fatalf("expected a parsed OPT record")
	}
	if got.UDPSize != 4096 || !got.DO {
		t.Fatalf("unexpected OPT fields: %+v", got)
	}
	if len(got.Options) != 1 {
		t.Fatalf("expected 1 EDNS0 option, got %d", len(got.Options))
	}
	nsid, ok := got.Options[0].(*EDNS0NSIDOption)
	if !ok {
		t.Fatalf("expected an NSID option, got %T", got.Options[0])
	}
	if string(nsid.NSID) != "srv1" {
		t.Fatalf("unexpected NSID payload: %q", nsid.NSID)
	}
}
