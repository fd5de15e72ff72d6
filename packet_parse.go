package dns

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Parse decodes the wire buffer already loaded into p (via
// NewPacketFromWire, or by in-package code writing directly into p.wire
// and setting p.size) into the question, three RR sections, OPT and
// TSIG fields (spec §4.G).
func (p *Packet) Parse(flags ParseFlags) error {
	if p.size < headerSize {
		return errors.Wrap(ErrFewData, "message shorter than header")
	}
	p.parsed = headerSize

	if err := p.parseQuestion(); err != nil {
		return err
	}

	for _, sec := range []Section{SectionAnswer, SectionAuthority, SectionAdditional} {
		if err := p.parseSection(sec, flags); err != nil {
			return err
		}
	}

	if p.parsed != p.size {
		return errors.Wrap(ErrMalformed, "trailing garbage after last declared RR")
	}

	if p.tsig != nil {
		add := p.sections[SectionAdditional]
		if p.tsigIndex != add.start+add.count-1 {
			return errors.Wrap(ErrMalformed, "TSIG is not the last record of the additional section")
		}
	}
	return nil
}

func (p *Packet) parseQuestion() error {
	qd := p.wireQDCount()
	if qd == 0 {
		return nil
	}
	if qd > 1 {
		return errors.Wrap(ErrMalformed, "more than one question not supported")
	}
	if p.parsed >= p.size {
		return errors.Wrap(ErrFewData, "truncated before question")
	}
	qname, n, err := ParseWire(p.wire, p.parsed, p.size)
	if err != nil {
		return err
	}
	p.parsed += n
	if p.parsed+4 > p.size {
		return errors.Wrap(ErrFewData, "truncated question QTYPE/QCLASS")
	}
	qtype := binary.BigEndian.Uint16(p.wire[p.parsed:])
	qclass := binary.BigEndian.Uint16(p.wire[p.parsed+2:])
	p.parsed += 4
	p.hasQuestion = true
	p.question = Question{QName: qname, QType: qtype, QClass: qclass}
	return nil
}

func (p *Packet) parseSection(id Section, flags ParseFlags) error {
	count := p.wireSectionCount(id)
	p.sections[id].start = len(p.rrs)
	for i := uint16(0); i < count; i++ {
		if p.parsed >= p.size {
			return errors.Wrap(ErrFewData, "section declares more records than the message contains")
		}
		if err := p.parseOneRR(id, flags); err != nil {
			return err
		}
	}
	p.sections[id].count = len(p.rrs) - p.sections[id].start
	return nil
}

func (p *Packet) parseOneRR(section Section, flags ParseFlags) error {
	owner, n, err := ParseWire(p.wire, p.parsed, p.size)
	if err != nil {
		return err
	}
	p.parsed += n

	if p.parsed+10 > p.size {
		return errors.Wrap(ErrFewData, "truncated RR header")
	}
	rtype := binary.BigEndian.Uint16(p.wire[p.parsed:])
	class := binary.BigEndian.Uint16(p.wire[p.parsed+2:])
	ttl := binary.BigEndian.Uint32(p.wire[p.parsed+4:])
	rdlen := binary.BigEndian.Uint16(p.wire[p.parsed+8:])
	p.parsed += 10

	rdataStart := p.parsed
	rdataEnd := rdataStart + int(rdlen)
	if rdataEnd > p.size {
		return errors.Wrap(ErrFewData, "RDLENGTH runs past message end")
	}

	if rtype == TypeOPT {
		opts, err := parseOPTRData(p.wire[rdataStart:rdataEnd])
		if err != nil {
			return err
		}
		flagsWord := uint16(ttl)
		p.opt = &OPT{
			UDPSize:       class,
			ExtendedRcode: uint8(ttl >> 24),
			Version:       uint8(ttl >> 16),
			DO:            flagsWord&optFlagDO != 0,
			Z:             flagsWord &^ optFlagDO,
			Options:       opts,
		}
		p.parsed = rdataEnd
		return nil
	}

	if rtype == TypeTSIG {
		t, end, err := parseTSIG(p.wire, rdataStart, rdataEnd)
		if err != nil {
			return err
		}
		t.Name = owner
		p.tsig = t
		p.parsed = end
		p.tsigIndex = len(p.rrs)
		rrset := NewRRSet(owner, rtype, class, ttl)
		p.rrs = append(p.rrs, rrset)
		return nil
	}

	rd, err := p.parseRData(rtype, rdataStart, rdataEnd)
	if err != nil {
		return err
	}
	p.parsed = rdataEnd

	if flags&NoMerge == 0 {
		if existing := p.findMatchingRRSet(owner, rtype, class); existing != nil {
			existing.RData = append(existing.RData, rd)
			return nil
		}
	}

	rrset := NewRRSet(owner, rtype, class, ttl)
	rrset.RData = append(rrset.RData, rd)
	p.rrs = append(p.rrs, rrset)
	return nil
}

func (p *Packet) findMatchingRRSet(owner Name, rtype, class uint16) *RRSet {
	for _, rrset := range p.rrs {
		if rrset.Type == rtype && rrset.Class == class && rrset.Owner.Equal(owner) {
			return rrset
		}
	}
	return nil
}

func (p *Packet) parseRData(rtype uint16, start, end int) (RData, error) {
	desc, known := DescriptorFor(rtype)
	if !known {
		return RData{Items: []RDataItem{{Kind: KindRemaining, Blob: append([]byte(nil), p.wire[start:end]...)}}}, nil
	}
	var items []RDataItem
	pos := start
	for _, field := range desc.Fields {
		item, next, err := p.parseItem(field.Kind, pos, end)
		if err != nil {
			return RData{}, err
		}
		items = append(items, item)
		pos = next
	}
	if pos != end {
		return RData{}, errors.Wrap(ErrMalformed, "RDATA length does not match type descriptor")
	}
	return RData{Items: items}, nil
}

func (p *Packet) parseItem(kind ItemKind, pos, end int) (RDataItem, int, error) {
	switch kind {
	case KindUint8:
		if pos+1 > end {
			return RDataItem{}, 0, errors.Wrap(ErrFewData, "truncated uint8 field")
		}
		return RDataItem{Kind: kind, U: uint64(p.wire[pos])}, pos + 1, nil
	case KindUint16:
		if pos+2 > end {
			return RDataItem{}, 0, errors.Wrap(ErrFewData, "truncated uint16 field")
		}
		return RDataItem{Kind: kind, U: uint64(binary.BigEndian.Uint16(p.wire[pos:]))}, pos + 2, nil
	case KindUint32:
		if pos+4 > end {
			return RDataItem{}, 0, errors.Wrap(ErrFewData, "truncated uint32 field")
		}
		return RDataItem{Kind: kind, U: uint64(binary.BigEndian.Uint32(p.wire[pos:]))}, pos + 4, nil
	case KindIPv4:
		if pos+4 > end {
			return RDataItem{}, 0, errors.Wrap(ErrFewData, "truncated A RDATA")
		}
		return RDataItem{Kind: kind, Blob: append([]byte(nil), p.wire[pos:pos+4]...)}, pos + 4, nil
	case KindIPv6:
		if pos+16 > end {
			return RDataItem{}, 0, errors.Wrap(ErrFewData, "truncated AAAA RDATA")
		}
		return RDataItem{Kind: kind, Blob: append([]byte(nil), p.wire[pos:pos+16]...)}, pos + 16, nil
	case KindBlob8:
		if pos+1 > end {
			return RDataItem{}, 0, errors.Wrap(ErrFewData, "truncated length-prefixed blob")
		}
		l := int(p.wire[pos])
		pos++
		if pos+l > end {
			return RDataItem{}, 0, errors.Wrap(ErrFewData, "truncated length-prefixed blob body")
		}
		return RDataItem{Kind: kind, Blob: append([]byte(nil), p.wire[pos:pos+l]...)}, pos + l, nil
	case KindBlob16:
		if pos+2 > end {
			return RDataItem{}, 0, errors.Wrap(ErrFewData, "truncated length-prefixed blob")
		}
		l := int(binary.BigEndian.Uint16(p.wire[pos:]))
		pos += 2
		if pos+l > end {
			return RDataItem{}, 0, errors.Wrap(ErrFewData, "truncated length-prefixed blob body")
		}
		return RDataItem{Kind: kind, Blob: append([]byte(nil), p.wire[pos:pos+l]...)}, pos + l, nil
	case KindRemaining, KindBitmap:
		return RDataItem{Kind: kind, Blob: append([]byte(nil), p.wire[pos:end]...)}, end, nil
	case KindCharStrings:
		var strs [][]byte
		for pos < end {
			l := int(p.wire[pos])
			pos++
			if pos+l > end {
				return RDataItem{}, 0, errors.Wrap(ErrFewData, "truncated character-string")
			}
			strs = append(strs, append([]byte(nil), p.wire[pos:pos+l]...))
			pos += l
		}
		return RDataItem{Kind: kind, Strings: strs}, pos, nil
	case KindNameCompressed, KindNameUncompressed:
		name, n, err := ParseWire(p.wire, pos, p.size)
		if err != nil {
			return RDataItem{}, 0, err
		}
		if pos+n > end {
			return RDataItem{}, 0, errors.Wrap(ErrMalformed, "name overruns its RDATA field")
		}
		dkind := DNameCompressed
		if kind == KindNameUncompressed {
			dkind = DNameUncompressed
		}
		return RDataItem{Kind: kind, DName: &DNameItem{Kind: dkind, Owned: name}}, pos + n, nil
	case KindNameLiteral:
		name, n, err := ParseWire(p.wire, pos, p.size)
		if err != nil {
			return RDataItem{}, 0, err
		}
		if pos+n > end {
			return RDataItem{}, 0, errors.Wrap(ErrMalformed, "name overruns its RDATA field")
		}
		return RDataItem{Kind: kind, DName: &DNameItem{Kind: DNameLiteral, Owned: name}}, pos + n, nil
	default:
		return RDataItem{}, 0, errors.Wrap(ErrBadArg, "unknown RDATA item kind")
	}
}
