package dns

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// EDNS0 option codes (RFC 6891 and the various option RFCs carried over
// from the teacher's edns.go).
const (
	EDNS0NSID        uint16 = 3
	EDNS0SUBNET      uint16 = 8
	EDNS0UPDATELEASE uint16 = 2
	EDNS0LLQ         uint16 = 1
)

const (
	optFlagDO uint16 = 1 << 15
)

// EDNS0 is one OPT pseudo-RR option, the same shape as the teacher's
// edns.go option interface: a code, and a pair of pack/unpack methods
// operating on the option's own data (the 2-octet code/length header is
// handled by OPT itself).
type EDNS0 interface {
	Option() uint16
	Pack() ([]byte, error)
	Unpack(b []byte) error
}

// OPT is the EDNS(0) pseudo-RR (RFC 6891 §6.1): its RR header fields
// are repurposed to carry the UDP payload size, extended RCODE,
// version and DO bit, and its RDATA is a sequence of options.
type OPT struct {
	UDPSize       uint16
	ExtendedRcode uint8
	Version       uint8
	DO            bool
	Z             uint16
	Options       []EDNS0
}

// CombinedRcode folds the OPT's extended RCODE bits together with the
// header's low 4 bits into the full 12-bit EDNS RCODE (RFC 6891 §6.1.3).
func (o *OPT) CombinedRcode(headerRcode uint8) uint16 {
	return uint16(o.ExtendedRcode)<<4 | uint16(headerRcode)
}

// packOPT serializes the OPT pseudo-RR to dst[offset:], returning the
// number of bytes written. Its owner (root), type and TTL-repurposed
// fields are written by the caller (Packet.PutOPT); this writes only
// the RDATA (option list).
func packOPT(opt *OPT, dst []byte, offset int) (int, error) {
	written := 0
	for _, o := range opt.Options {
		data, err := o.Pack()
		if err != nil {
			return 0, err
		}
		if offset+written+4+len(data) > len(dst) {
			return 0, ErrNoSpace
		}
		binary.BigEndian.PutUint16(dst[offset+written:], o.Option())
		binary.BigEndian.PutUint16(dst[offset+written+2:], uint16(len(data)))
		written += 4
		written += copy(dst[offset+written:], data)
	}
	return written, nil
}

// parseOPTRData parses an OPT RDATA blob into its option list.
func parseOPTRData(rdata []byte) ([]EDNS0, error) {
	var opts []EDNS0
	pos := 0
	for pos < len(rdata) {
		if pos+4 > len(rdata) {
			return nil, errors.Wrap(ErrMalformed, "truncated EDNS0 option header")
		}
		code := binary.BigEndian.Uint16(rdata[pos:])
		olen := binary.BigEndian.Uint16(rdata[pos+2:])
		pos += 4
		if pos+int(olen) > len(rdata) {
			return nil, errors.Wrap(ErrMalformed, "truncated EDNS0 option data")
		}
		data := rdata[pos : pos+int(olen)]
		pos += int(olen)

		opt, err := newEDNS0(code)
		if err != nil {
			continue // unknown option code: ignored, per RFC 6891 §6.1.2
		}
		if err := opt.Unpack(data); err != nil {
			return nil, errors.Wrap(ErrMalformed, "bad EDNS0 option: "+err.Error())
		}
		opts = append(opts, opt)
	}
	return opts, nil
}

func newEDNS0(code uint16) (EDNS0, error) {
	switch code {
	case EDNS0NSID:
		return &EDNS0NSIDOption{}, nil
	case EDNS0SUBNET:
		return &EDNS0SubnetOption{}, nil
	case EDNS0UPDATELEASE:
		return &EDNS0UpdateLeaseOption{}, nil
	case EDNS0LLQ:
		return &EDNS0LLQOption{}, nil
	default:
		return nil, ErrBadArg
	}
}

// EDNS0NSIDOption carries an opaque, server-chosen name server
// identifier (RFC 5001).
type EDNS0NSIDOption struct {
	NSID []byte
}

func (o *EDNS0NSIDOption) Option() uint16 { return EDNS0NSID }
func (o *EDNS0NSIDOption) Pack() ([]byte, error) {
	return append([]byte(nil), o.NSID...), nil
}
func (o *EDNS0NSIDOption) Unpack(b []byte) error {
	o.NSID = append([]byte(nil), b...)
	return nil
}

// EDNS0SubnetOption is the client-subnet option (RFC 7871).
type EDNS0SubnetOption struct {
	Family       uint16
	SourceNetmask uint8
	ScopeNetmask  uint8
	Address       []byte
}

func (o *EDNS0SubnetOption) Option() uint16 { return EDNS0SUBNET }

func (o *EDNS0SubnetOption) Pack() ([]byte, error) {
	b := make([]byte, 4+len(o.Address))
	h, l := packUint16(o.Family)
	b[0], b[1] = h, l
	b[2] = o.SourceNetmask
	b[3] = o.ScopeNetmask
	copy(b[4:], o.Address)
	return b, nil
}

func (o *EDNS0SubnetOption) Unpack(b []byte) error {
	if len(b) < 4 {
		return ErrFewData
	}
	family, _ := unpackUint16(b, 0)
	o.Family = family
	o.SourceNetmask = b[2]
	o.ScopeNetmask = b[3]
	o.Address = append([]byte(nil), b[4:]...)
	return nil
}

// EDNS0UpdateLeaseOption carries a DNS Update lease duration in
// seconds (draft-sekar-dns-ul).
type EDNS0UpdateLeaseOption struct {
	Lease uint32
}

func (o *EDNS0UpdateLeaseOption) Option() uint16 { return EDNS0UPDATELEASE }
func (o *EDNS0UpdateLeaseOption) Pack() ([]byte, error) {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, o.Lease)
	return b, nil
}
func (o *EDNS0UpdateLeaseOption) Unpack(b []byte) error {
	if len(b) < 4 {
		return ErrFewData
	}
	o.Lease = binary.BigEndian.Uint32(b)
	return nil
}

// EDNS0LLQOption is the Long-Lived Query option (draft-sekar-dns-llq).
type EDNS0LLQOption struct {
	Version   uint16
	OpCode    uint16
	ErrorCode uint16
	ID        uint64
	LeaseLife uint32
}

func (o *EDNS0LLQOption) Option() uint16 { return EDNS0LLQ }

func (o *EDNS0LLQOption) Pack() ([]byte, error) {
	b := make([]byte, 18)
	binary.BigEndian.PutUint16(b[0:], o.Version)
	binary.BigEndian.PutUint16(b[2:], o.OpCode)
	binary.BigEndian.PutUint16(b[4:], o.ErrorCode)
	binary.BigEndian.PutUint64(b[6:], o.ID)
	binary.BigEndian.PutUint32(b[14:], o.LeaseLife)
	return b, nil
}

func (o *EDNS0LLQOption) Unpack(b []byte) error {
	if len(b) < 18 {
		return ErrFewData
	}
	o.Version = binary.BigEndian.Uint16(b[0:])
	o.OpCode = binary.BigEndian.Uint16(b[2:])
	o.ErrorCode = binary.BigEndian.Uint16(b[4:])
	o.ID = binary.BigEndian.Uint64(b[6:])
	o.LeaseLife = binary.BigEndian.Uint32(b[14:])
	return nil
}
