package dns

import (
	"encoding/binary"
)

const headerSize = 12

// Section identifies one of the three RR sections of a message.
type Section int

const (
	SectionAnswer Section = iota
	SectionAuthority
	SectionAdditional
	sectionCount = 3
)

// ParseFlags control Packet.Parse behavior.
type ParseFlags uint8

const (
	// NoMerge disables the duplicate-RR merge policy described in
	// spec §4.G.
	NoMerge ParseFlags = 1 << iota
)

// BuildFlags control Packet.Put / section serialization behavior.
type BuildFlags uint8

const (
	// NoTrunc suppresses setting the TC bit on NoSpace; the caller
	// takes responsibility for truncation semantics itself.
	NoTrunc BuildFlags = 1 << iota
)

// PacketFlags are constructor-time flags.
type PacketFlags uint8

const (
	// FreeWire marks that the Packet owns its wire buffer (set
	// automatically by New when wire is nil).
	FreeWire PacketFlags = 1 << iota
)

const (
	flagQR     uint16 = 1 << 15
	flagAA     uint16 = 1 << 10
	flagTC     uint16 = 1 << 9
	flagRD     uint16 = 1 << 8
	flagRA     uint16 = 1 << 7
	flagAD     uint16 = 1 << 5
	flagCD     uint16 = 1 << 4
	opcodeMask uint16 = 0x7800
	rcodeMask  uint16 = 0x000F
)

// sectionInfo is the {start_index, count} descriptor of spec §3 over
// the packet's shared RR array.
type sectionInfo struct {
	start, count int
}

// Question is the single question-section entry (spec §6: QDCOUNT ≤
// 1 in this codec's parsing).
type Question struct {
	QName  Name
	QType  uint16
	QClass uint16
}

// Packet is the wire-format message codec of spec §4.G / §3.
type Packet struct {
	wire     []byte
	maxSize  int
	size     int
	parsed   int
	pflags   PacketFlags
	mem      MemoryContext

	hasQuestion bool
	question    Question

	sections [sectionCount]sectionInfo
	rrs      []*RRSet

	opt       *OPT
	tsig      *TSIGRecord
	tsigIndex int // index of tsig within the Additional range of rrs, -1 if none

	query *Packet

	cursorSection Section
	cursorOpen    bool
	compr         *compressor
	tc            bool
}

// NewPacket constructs a Packet for building a message from scratch.
// If wire is nil, maxSize bytes are allocated through mem and FreeWire
// is set (spec §4.G).
func NewPacket(wire []byte, maxSize int, mem MemoryContext) *Packet {
	p := &Packet{maxSize: maxSize, mem: mem}
	if wire == nil {
		p.wire = mem.Allocator.Alloc(maxSize)
		p.pflags |= FreeWire
	} else {
		p.wire = wire
	}
	p.Reset()
	return p
}

// NewPacketFromWire wraps an already-populated wire buffer (e.g. bytes
// just read off a socket) for parsing. Unlike NewPacket it does not
// zero the header, since the header is the caller's real data.
func NewPacketFromWire(wire []byte, mem MemoryContext) *Packet {
	p := &Packet{wire: wire, maxSize: len(wire), size: len(wire), mem: mem}
	p.resetBookkeeping()
	return p
}

// Free releases the wire buffer back to the memory context if this
// Packet owns it.
func (p *Packet) Free() {
	if p.pflags&FreeWire != 0 {
		p.mem.Allocator.Free(p.wire)
	}
}

// Reset zeros the header and RR bookkeeping, but does not reallocate
// the wire buffer (spec §4.G: "zeros everything up to, but not
// including, the large RR-info arrays").
func (p *Packet) Reset() {
	for i := 0; i < headerSize && i < len(p.wire); i++ {
		p.wire[i] = 0
	}
	p.size = headerSize
	p.resetBookkeeping()
}

// resetBookkeeping clears everything Reset clears except the wire
// bytes and p.size, so a Packet wrapping pre-populated wire data (see
// NewPacketFromWire) can be reset without destroying that data.
func (p *Packet) resetBookkeeping() {
	p.parsed = 0
	p.hasQuestion = false
	p.question = Question{}
	p.sections = [sectionCount]sectionInfo{}
	p.rrs = p.rrs[:0]
	p.opt = nil
	p.tsig = nil
	p.tsigIndex = -1
	p.query = nil
	p.cursorSection = SectionAnswer
	p.cursorOpen = false
	p.compr = nil
	p.tc = false
}

// InitResponse prepares p as a response to query: copies the ID,
// question, and RD bit, and sets QR.
func (p *Packet) InitResponse(query *Packet) error {
	p.Reset()
	p.query = query
	p.SetID(query.ID())
	p.setFlag(flagQR, true)
	p.setFlag(flagRD, query.flag(flagRD))
	if query.hasQuestion {
		return p.PutQuestion(query.question.QName, query.question.QClass, query.question.QType)
	}
	return nil
}

// ---- header accessors ----

func (p *Packet) ID() uint16 { return binary.BigEndian.Uint16(p.wire[0:2]) }
func (p *Packet) SetID(id uint16) {
	binary.BigEndian.PutUint16(p.wire[0:2], id)
}

func (p *Packet) rawFlags() uint16 { return binary.BigEndian.Uint16(p.wire[2:4]) }
func (p *Packet) setRawFlags(v uint16) { binary.BigEndian.PutUint16(p.wire[2:4], v) }

func (p *Packet) flag(mask uint16) bool { return p.rawFlags()&mask != 0 }
func (p *Packet) setFlag(mask uint16, v bool) {
	f := p.rawFlags()
	if v {
		f |= mask
	} else {
		f &^= mask
	}
	p.setRawFlags(f)
}

func (p *Packet) QR() bool         { return p.flag(flagQR) }
func (p *Packet) SetQR(v bool)     { p.setFlag(flagQR, v) }
func (p *Packet) AA() bool         { return p.flag(flagAA) }
func (p *Packet) SetAA(v bool)     { p.setFlag(flagAA, v) }
func (p *Packet) TC() bool         { return p.flag(flagTC) }
func (p *Packet) RD() bool         { return p.flag(flagRD) }
func (p *Packet) SetRD(v bool)     { p.setFlag(flagRD, v) }
func (p *Packet) RA() bool         { return p.flag(flagRA) }
func (p *Packet) SetRA(v bool)     { p.setFlag(flagRA, v) }

func (p *Packet) Opcode() uint8 { return uint8((p.rawFlags() & opcodeMask) >> 11) }
func (p *Packet) SetOpcode(v uint8) {
	f := p.rawFlags()&^opcodeMask | (uint16(v)<<11)&opcodeMask
	p.setRawFlags(f)
}

func (p *Packet) Rcode() uint8 { return uint8(p.rawFlags() & rcodeMask) }
func (p *Packet) SetRcode(v uint8) {
	f := p.rawFlags()&^rcodeMask | uint16(v)&rcodeMask
	p.setRawFlags(f)
}

func sectionCountOffset(id Section) int {
	switch id {
	case SectionAnswer:
		return 6
	case SectionAuthority:
		return 8
	default:
		return 10
	}
}

func (p *Packet) wireSectionCount(id Section) uint16 {
	off := sectionCountOffset(id)
	return binary.BigEndian.Uint16(p.wire[off : off+2])
}

func (p *Packet) setWireSectionCount(id Section, n uint16) {
	off := sectionCountOffset(id)
	binary.BigEndian.PutUint16(p.wire[off:off+2], n)
}

func (p *Packet) wireQDCount() uint16 { return binary.BigEndian.Uint16(p.wire[4:6]) }
func (p *Packet) setWireQDCount(n uint16) {
	binary.BigEndian.PutUint16(p.wire[4:6], n)
}

// Question returns the parsed/built question entry.
func (p *Packet) Question() (Question, bool) { return p.question, p.hasQuestion }

// Section returns the RRSets belonging to the given section.
func (p *Packet) Section(id Section) []*RRSet {
	info := p.sections[id]
	return p.rrs[info.start : info.start+info.count]
}

// OPT returns the packet's EDNS OPT pseudo-RR, or nil.
func (p *Packet) OPT() *OPT { return p.opt }

// TSIG returns the packet's parsed TSIG record, or nil.
func (p *Packet) TSIG() *TSIGRecord { return p.tsig }
