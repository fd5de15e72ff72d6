package dns

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// PutQuestion writes the single question-section entry. It must be
// called before Begin/Put, since the compressor is seeded from the
// question name (spec §4.G).
func (p *Packet) PutQuestion(qname Name, qclass, qtype uint16) error {
	n, err := ToWire(qname, p.wire[p.size:])
	if err != nil {
		return err
	}
	end := p.size + n + 4
	if end > len(p.wire) || end > p.maxSize {
		return ErrNoSpace
	}
	binary.BigEndian.PutUint16(p.wire[p.size+n:], qtype)
	binary.BigEndian.PutUint16(p.wire[p.size+n+2:], qclass)
	p.size = end
	p.hasQuestion = true
	p.question = Question{QName: qname, QType: qtype, QClass: qclass}
	p.setWireQDCount(1)
	p.compr = newCompressor(p.wire, qname)
	return nil
}

// Begin opens section for writing; RRSets put before the next Begin
// call (or before PutOPT/serialization finishes) belong to it. Sections
// must be opened and filled in wire order (Answer, Authority,
// Additional), matching spec §4.G's "sections are filled strictly in
// order" rule.
func (p *Packet) Begin(section Section) {
	if p.compr == nil {
		p.compr = newCompressor(p.wire, Root)
	}
	p.cursorSection = section
	p.cursorOpen = true
	if p.sections[section].count == 0 {
		p.sections[section].start = len(p.rrs)
	}
}

// Put appends rrset (one wire RR per RDATA entry) to the currently
// open section. On ErrNoSpace the packet's TC bit is set (unless flags
// includes NoTrunc) and the write is rolled back so the packet remains
// consistent for serialization as-is (spec §4.G truncation rule).
func (p *Packet) Put(rrset *RRSet, flags BuildFlags) error {
	if !p.cursorOpen {
		return errors.Wrap(ErrBadArg, "Put called without an open section")
	}
	mark := p.size
	compress := compressModeFor(rrset.Type)
	for _, rd := range rrset.RData {
		n, err := p.putOneRR(rrset, rd, compress)
		if err != nil {
			p.size = mark
			if errors.Is(err, ErrNoSpace) && flags&NoTrunc == 0 {
				p.tc = true
				p.setFlag(flagTC, true)
			}
			return err
		}
		_ = n
	}
	p.rrs = append(p.rrs, rrset)
	p.sections[p.cursorSection].count++
	p.setWireSectionCount(p.cursorSection, p.wireSectionCount(p.cursorSection)+uint16(len(rrset.RData)))
	return nil
}

func compressModeFor(rtype uint16) bool {
	return rtype != TypeRRSIG
}

func (p *Packet) putOneRR(rrset *RRSet, rd RData, compress bool) (int, error) {
	start := p.size
	n, err := p.compr.writeName(p.wire, p.size, rrset.Owner, compress)
	if err != nil {
		return 0, err
	}
	p.size += n

	if p.size+10 > len(p.wire) {
		return 0, ErrNoSpace
	}
	binary.BigEndian.PutUint16(p.wire[p.size:], rrset.Type)
	binary.BigEndian.PutUint16(p.wire[p.size+2:], rrset.Class)
	binary.BigEndian.PutUint32(p.wire[p.size+4:], rrset.TTL)
	rdlenPos := p.size + 8
	p.size += 10

	rdataStart := p.size
	if err := p.putRData(rrset.Type, rd); err != nil {
		return 0, err
	}
	rdlen := p.size - rdataStart
	if rdlen > 0xFFFF {
		return 0, errors.Wrap(ErrMalformed, "RDATA exceeds 65535 octets")
	}
	binary.BigEndian.PutUint16(p.wire[rdlenPos:], uint16(rdlen))
	return p.size - start, nil
}

func (p *Packet) putRData(rtype uint16, rd RData) error {
	desc, known := DescriptorFor(rtype)
	if !known {
		if len(rd.Items) != 1 || rd.Items[0].Kind != KindRemaining {
			return errors.Wrap(ErrBadArg, "unknown type RDATA must be a single opaque blob")
		}
		return p.putBlob(rd.Items[0].Blob)
	}
	for i, field := range desc.Fields {
		if i >= len(rd.Items) {
			return errors.Wrap(ErrBadArg, "RDATA item count does not match type descriptor")
		}
		item := rd.Items[i]
		if err := p.putItem(field.Kind, item); err != nil {
			return err
		}
	}
	return nil
}

func (p *Packet) putItem(kind ItemKind, item RDataItem) error {
	switch kind {
	case KindUint8:
		return p.putBlob([]byte{byte(item.U)})
	case KindUint16:
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, uint16(item.U))
		return p.putBlob(b)
	case KindUint32:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, uint32(item.U))
		return p.putBlob(b)
	case KindIPv4:
		if len(item.Blob) != 4 {
			return errors.Wrap(ErrBadArg, "A RDATA must be 4 bytes")
		}
		return p.putBlob(item.Blob)
	case KindIPv6:
		if len(item.Blob) != 16 {
			return errors.Wrap(ErrBadArg, "AAAA RDATA must be 16 bytes")
		}
		return p.putBlob(item.Blob)
	case KindBlob8:
		if len(item.Blob) > 0xFF {
			return errors.Wrap(ErrBadArg, "blob exceeds 255 octets")
		}
		if err := p.putBlob([]byte{byte(len(item.Blob))}); err != nil {
			return err
		}
		return p.putBlob(item.Blob)
	case KindBlob16, KindRemaining, KindBitmap:
		if kind == KindBlob16 {
			b := make([]byte, 2)
			binary.BigEndian.PutUint16(b, uint16(len(item.Blob)))
			if err := p.putBlob(b); err != nil {
				return err
			}
		}
		return p.putBlob(item.Blob)
	case KindCharStrings:
		for _, s := range item.Strings {
			if len(s) > 0xFF {
				return errors.Wrap(ErrBadArg, "character-string exceeds 255 octets")
			}
			if err := p.putBlob([]byte{byte(len(s))}); err != nil {
				return err
			}
			if err := p.putBlob(s); err != nil {
				return err
			}
		}
		return nil
	case KindNameCompressed:
		n, err := p.compr.writeName(p.wire, p.size, item.DName.Name(), true)
		if err != nil {
			return err
		}
		p.size += n
		return nil
	case KindNameUncompressed:
		n, err := p.compr.writeName(p.wire, p.size, item.DName.Name(), false)
		if err != nil {
			return err
		}
		p.size += n
		return nil
	case KindNameLiteral:
		n, err := ToWire(item.DName.Owned, p.wire[p.size:])
		if err != nil {
			return err
		}
		p.size += n
		return nil
	default:
		return errors.Wrap(ErrBadArg, "unknown RDATA item kind")
	}
}

func (p *Packet) putBlob(b []byte) error {
	if p.size+len(b) > len(p.wire) {
		return ErrNoSpace
	}
	copy(p.wire[p.size:], b)
	p.size += len(b)
	return nil
}

// PutOPT appends the EDNS(0) OPT pseudo-RR to the Additional section
// (spec §6: owner root, repurposed class/TTL fields, no compression on
// the root owner).
func (p *Packet) PutOPT(opt *OPT, headerRcode *uint8) error {
	if !p.cursorOpen || p.cursorSection != SectionAdditional {
		p.Begin(SectionAdditional)
	}
	mark := p.size
	n, err := ToWire(Root, p.wire[p.size:])
	if err != nil {
		return err
	}
	p.size += n
	if p.size+10 > len(p.wire) {
		p.size = mark
		return ErrNoSpace
	}
	binary.BigEndian.PutUint16(p.wire[p.size:], TypeOPT)
	binary.BigEndian.PutUint16(p.wire[p.size+2:], opt.UDPSize)
	flagsWord := opt.Z &^ optFlagDO
	if opt.DO {
		flagsWord |= optFlagDO
	}
	ttl := uint32(opt.ExtendedRcode)<<24 | uint32(opt.Version)<<16 | uint32(flagsWord)
	binary.BigEndian.PutUint32(p.wire[p.size+4:], ttl)
	rdlenPos := p.size + 8
	p.size += 10

	rdataStart := p.size
	written, err := packOPT(opt, p.wire, p.size)
	if err != nil {
		p.size = mark
		return err
	}
	p.size += written
	binary.BigEndian.PutUint16(p.wire[rdlenPos:], uint16(p.size-rdataStart))

	p.opt = opt
	p.setWireSectionCount(SectionAdditional, p.wireSectionCount(SectionAdditional)+1)
	return nil
}
