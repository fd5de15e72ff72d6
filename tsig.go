package dns

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// TSIGRecord is the parsed/built shape of a TSIG resource record (RFC
// 8945 §4.2). This codec only frames TSIG on the wire; it computes no
// MAC and verifies nothing; callers that need authentication do so
// above this layer.
type TSIGRecord struct {
	Name       Name
	Algorithm  Name
	TimeSigned uint64 // 48-bit
	Fudge      uint16
	MAC        []byte
	OriginalID uint16
	Error      uint16
	OtherData  []byte
}

// packTSIG serializes a TSIG record's RDATA (the algorithm name is
// never compressed, RFC 8945 §4.2).
func packTSIG(t *TSIGRecord, dst []byte, offset int) (int, error) {
	written := 0
	n, err := ToWire(t.Algorithm, dst[offset:])
	if err != nil {
		return 0, err
	}
	written += n

	need := 8 + 2 + 2 + len(t.MAC) + 2 + 2 + 2 + len(t.OtherData)
	if offset+written+need > len(dst) {
		return 0, ErrNoSpace
	}

	b := dst[offset+written:]
	b[0] = byte(t.TimeSigned >> 40)
	b[1] = byte(t.TimeSigned >> 32)
	b[2] = byte(t.TimeSigned >> 24)
	b[3] = byte(t.TimeSigned >> 16)
	b[4] = byte(t.TimeSigned >> 8)
	b[5] = byte(t.TimeSigned)
	binary.BigEndian.PutUint16(b[6:], t.Fudge)
	binary.BigEndian.PutUint16(b[8:], uint16(len(t.MAC)))
	n2 := copy(b[10:], t.MAC)
	pos := 10 + n2
	binary.BigEndian.PutUint16(b[pos:], t.OriginalID)
	pos += 2
	binary.BigEndian.PutUint16(b[pos:], t.Error)
	pos += 2
	binary.BigEndian.PutUint16(b[pos:], uint16(len(t.OtherData)))
	pos += 2
	pos += copy(b[pos:], t.OtherData)

	written += pos
	return written, nil
}

// parseTSIG parses a TSIG RR's owner-relative RDATA. algName is parsed
// from the full message (buf) starting at pos, with rdataEnd bounding
// how far the fixed fields may extend.
func parseTSIG(buf []byte, pos, rdataEnd int) (*TSIGRecord, int, error) {
	alg, n, err := ParseWire(buf, pos, len(buf))
	if err != nil {
		return nil, 0, err
	}
	pos += n

	if pos+10 > rdataEnd {
		return nil, 0, errors.Wrap(ErrFewData, "truncated TSIG fixed fields")
	}
	t := &TSIGRecord{Algorithm: alg}
	t.TimeSigned = uint64(buf[pos])<<40 | uint64(buf[pos+1])<<32 | uint64(buf[pos+2])<<24 |
		uint64(buf[pos+3])<<16 | uint64(buf[pos+4])<<8 | uint64(buf[pos+5])
	t.Fudge = binary.BigEndian.Uint16(buf[pos+6:])
	maclen := binary.BigEndian.Uint16(buf[pos+8:])
	pos += 10

	if pos+int(maclen) > rdataEnd {
		return nil, 0, errors.Wrap(ErrFewData, "truncated TSIG MAC")
	}
	t.MAC = append([]byte(nil), buf[pos:pos+int(maclen)]...)
	pos += int(maclen)

	if pos+6 > rdataEnd {
		return nil, 0, errors.Wrap(ErrFewData, "truncated TSIG trailer")
	}
	t.OriginalID = binary.BigEndian.Uint16(buf[pos:])
	t.Error = binary.BigEndian.Uint16(buf[pos+2:])
	otherlen := binary.BigEndian.Uint16(buf[pos+4:])
	pos += 6

	if pos+int(otherlen) > rdataEnd {
		return nil, 0, errors.Wrap(ErrFewData, "truncated TSIG other data")
	}
	t.OtherData = append([]byte(nil), buf[pos:pos+int(otherlen)]...)
	pos += int(otherlen)

	if pos != rdataEnd {
		return nil, 0, errors.Wrap(ErrMalformed, "trailing bytes in TSIG RDATA")
	}
	return t, pos, nil
}
