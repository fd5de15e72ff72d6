package dns

import (
	"encoding/binary"
)

// RR type and class constants used by the type descriptor table and
// the packet codec. Only the subset needed by DNSSEC-aware authoritative
// answering is enumerated; anything else falls back to the "unknown
// type" descriptor (raw RDATA, kept verbatim).
const (
	TypeA          uint16 = 1
	TypeNS         uint16 = 2
	TypeCNAME      uint16 = 5
	TypeSOA        uint16 = 6
	TypePTR        uint16 = 12
	TypeMX         uint16 = 15
	TypeTXT        uint16 = 16
	TypeAAAA       uint16 = 28
	TypeSRV        uint16 = 33
	TypeNAPTR      uint16 = 35
	TypeDS         uint16 = 43
	TypeRRSIG      uint16 = 46
	TypeNSEC       uint16 = 47
	TypeDNSKEY     uint16 = 48
	TypeNSEC3      uint16 = 50
	TypeNSEC3PARAM uint16 = 51
	TypeOPT        uint16 = 41
	TypeTSIG       uint16 = 250

	ClassINET uint16 = 1
	ClassANY  uint16 = 255
)

// ItemKind tags the wire shape of one RDATA field, as driven by the
// static type descriptor table (spec §4.B: "Item kinds include
// fixed-width integers, byte blobs, and three DNAME kinds").
type ItemKind int

const (
	KindUint8 ItemKind = iota
	KindUint16
	KindUint32
	KindIPv4
	KindIPv6
	KindBlob8  // one-octet length prefix, then that many bytes (e.g. NSEC3 salt)
	KindBlob16 // two-octet length prefix, then that many bytes
	KindRemaining
	KindCharStrings // sequence of length-prefixed character-strings filling the rest of the RDATA (TXT)
	KindBitmap      // NSEC/NSEC3 type bit map, fills the rest of the RDATA
	KindNameCompressed
	KindNameUncompressed
	KindNameLiteral
)

// FieldDescriptor is one positional entry in a TypeDescriptor.
type FieldDescriptor struct {
	Kind ItemKind
}

// TypeDescriptor lists, in wire order, the fields that make up one
// RDATA record of a given RR type.
type TypeDescriptor struct {
	Type   uint16
	Fields []FieldDescriptor
}

var typeDescriptors = map[uint16]TypeDescriptor{
	TypeA:     {TypeA, []FieldDescriptor{{KindIPv4}}},
	TypeAAAA:  {TypeAAAA, []FieldDescriptor{{KindIPv6}}},
	TypeNS:    {TypeNS, []FieldDescriptor{{KindNameCompressed}}},
	TypeCNAME: {TypeCNAME, []FieldDescriptor{{KindNameCompressed}}},
	TypePTR:   {TypePTR, []FieldDescriptor{{KindNameCompressed}}},
	TypeSOA: {TypeSOA, []FieldDescriptor{
		{KindNameCompressed}, {KindNameCompressed},
		{KindUint32}, {KindUint32}, {KindUint32}, {KindUint32}, {KindUint32},
	}},
	TypeMX:  {TypeMX, []FieldDescriptor{{KindUint16}, {KindNameCompressed}}},
	TypeTXT: {TypeTXT, []FieldDescriptor{{KindCharStrings}}},
	TypeSRV: {TypeSRV, []FieldDescriptor{
		{KindUint16}, {KindUint16}, {KindUint16}, {KindNameUncompressed},
	}},
	TypeNAPTR: {TypeNAPTR, []FieldDescriptor{
		{KindUint16}, {KindUint16}, {KindCharStrings}, {KindNameUncompressed},
	}},
	TypeDS: {TypeDS, []FieldDescriptor{
		{KindUint16}, {KindUint8}, {KindUint8}, {KindRemaining},
	}},
	TypeRRSIG: {TypeRRSIG, []FieldDescriptor{
		{KindUint16}, {KindUint8}, {KindUint8}, {KindUint32}, {KindUint32}, {KindUint32},
		{KindUint16}, {KindNameLiteral}, {KindRemaining},
	}},
	TypeDNSKEY: {TypeDNSKEY, []FieldDescriptor{
		{KindUint16}, {KindUint8}, {KindUint8}, {KindRemaining},
	}},
	TypeNSEC: {TypeNSEC, []FieldDescriptor{
		{KindNameUncompressed}, {KindBitmap},
	}},
	TypeNSEC3: {TypeNSEC3, []FieldDescriptor{
		{KindUint8}, {KindUint8}, {KindUint16}, {KindBlob8}, {KindBlob8}, {KindBitmap},
	}},
	TypeNSEC3PARAM: {TypeNSEC3PARAM, []FieldDescriptor{
		{KindUint8}, {KindUint8}, {KindUint16}, {KindBlob8},
	}},
}

// DescriptorFor returns the field layout for an RR type, and false if
// the type is unknown (its RDATA is then kept as an opaque blob).
func DescriptorFor(t uint16) (TypeDescriptor, bool) {
	d, ok := typeDescriptors[t]
	return d, ok
}

// DNameKind distinguishes how a name-valued RDATA item is allowed to be
// serialized: eligible for compression, forced uncompressed (SRV/NAPTR
// per RFC 3597 §4), or always written uncompressed from the item's own
// parsed copy, even after Adjust has interned it (RRSIG's signer name,
// which DNSSEC validators must see byte-identical to the zone's
// canonical form).
type DNameKind int

const (
	DNameCompressed DNameKind = iota
	DNameUncompressed
	DNameLiteral
)

// DNameItem is one name-valued RDATA field. Before Adjust runs, Owned
// holds the parsed name and Ref is nil. After Adjust, if the name
// exists as an owner in the zone, Ref points at that Node and the item
// is a non-owning reference (spec invariant 2); Owned is kept byte-
// identical so re-running Adjust is idempotent and so the item can
// still be serialized even if the zone that interned it is destroyed
// out from under a borrowed RRSet.
type DNameItem struct {
	Kind  DNameKind
	Owned Name
	Ref   *Node
}

// Name returns the effective name for this item: the referenced node's
// owner if interned, else the owned copy.
func (d *DNameItem) Name() Name {
	if d.Ref != nil {
		return d.Ref.Owner
	}
	return d.Owned
}

// RDataItem is one field of one RDATA record, tagged by ItemKind.
type RDataItem struct {
	Kind    ItemKind
	U       uint64
	Blob    []byte
	Strings [][]byte
	DName   *DNameItem
}

// RData is a single resource record's data, one item per field of its
// type's descriptor.
type RData struct {
	Items []RDataItem
}

// RRSet is the set of all resource records sharing an owner, class and
// type (spec §3). Owner is shared with (interned to) the owning Node
// once Adjust has run.
type RRSet struct {
	Owner Name
	Type  uint16
	Class uint16
	TTL   uint32
	RData []RData
	RRSIG *RRSet
}

// NewRRSet constructs an empty RRSet header.
func NewRRSet(owner Name, rtype, class uint16, ttl uint32) *RRSet {
	return &RRSet{Owner: owner, Type: rtype, Class: class, TTL: ttl}
}

// EqualityMode selects which parts of two RRSets must match for them
// to be considered equal (spec §4.B).
type EqualityMode int

const (
	// EqualPointer: identity — the same Go value.
	EqualPointer EqualityMode = iota
	// EqualHeader: owner, type and class match; TTL and RDATA ignored.
	EqualHeader
	// EqualWhole: header equal, and RDATA is the same multiset.
	EqualWhole
)

// RRSetEqual compares a and b under the given mode.
func RRSetEqual(a, b *RRSet, mode EqualityMode) bool {
	if mode == EqualPointer {
		return a == b
	}
	if a == nil || b == nil {
		return a == b
	}
	if !a.Owner.Equal(b.Owner) || a.Type != b.Type || a.Class != b.Class {
		return false
	}
	if mode == EqualHeader {
		return true
	}
	if len(a.RData) != len(b.RData) {
		return false
	}
	used := make([]bool, len(b.RData))
	for _, ra := range a.RData {
		found := false
		for j, rb := range b.RData {
			if used[j] {
				continue
			}
			if rdataEqual(ra, rb) {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func rdataEqual(a, b RData) bool {
	return rdataCompare(a, b) == 0
}

// rdataCompare orders two RDATA records canonically, comparing
// item-by-item in descriptor order; this is also what Merge uses to
// deduplicate.
func rdataCompare(a, b RData) int {
	n := len(a.Items)
	if len(b.Items) < n {
		n = len(b.Items)
	}
	for i := 0; i < n; i++ {
		if c := compareItem(a.Items[i], b.Items[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a.Items) < len(b.Items):
		return -1
	case len(a.Items) > len(b.Items):
		return 1
	default:
		return 0
	}
}

func compareItem(a, b RDataItem) int {
	switch a.Kind {
	case KindUint8, KindUint16, KindUint32:
		switch {
		case a.U < b.U:
			return -1
		case a.U > b.U:
			return 1
		default:
			return 0
		}
	case KindNameCompressed, KindNameUncompressed, KindNameLiteral:
		return CanonicalCompare(a.DName.Name(), b.DName.Name())
	case KindCharStrings:
		na, nb := len(a.Strings), len(b.Strings)
		n := na
		if nb < n {
			n = nb
		}
		for i := 0; i < n; i++ {
			if c := compareLabelBytes(a.Strings[i], b.Strings[i]); c != 0 {
				return c
			}
		}
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		default:
			return 0
		}
	default:
		return compareLabelBytes(a.Blob, b.Blob)
	}
}

// Merge appends RDATA entries from b into a that are not already
// present (by canonical RDATA comparison), returning the number of
// entries actually added and the number of duplicates discarded.
func Merge(a, b *RRSet) (merged, deleted int) {
	for _, rd := range b.RData {
		dup := false
		for _, existing := range a.RData {
			if rdataEqual(existing, rd) {
				dup = true
				break
			}
		}
		if dup {
			deleted++
			continue
		}
		a.RData = append(a.RData, rd)
		merged++
	}
	return
}

// packUint16 and unpackUint16 are the same small big-endian helpers the
// teacher keeps package-wide for RDATA encoding; opt.go's EDNS0 option
// codec, adapted from the teacher's edns.go, uses them too.
func packUint16(i uint16) (byte, byte) {
	return byte(i >> 8), byte(i)
}

func unpackUint16(msg []byte, off int) (uint16, int) {
	if off+2 > len(msg) {
		return 0, len(msg)
	}
	return binary.BigEndian.Uint16(msg[off:]), off + 2
}
