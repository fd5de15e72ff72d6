package dns

import (
	"strings"

	"github.com/pkg/errors"
)

// MaxNameWire is the maximum wire length of a domain name, RFC 1035 §3.1.
const MaxNameWire = 255

// MaxLabelLen is the maximum length of a single label, RFC 1035 §3.1.
const MaxLabelLen = 63

// maxPointer is the largest offset a two-byte compression pointer can
// address (14 bits).
const maxPointer = 0x3FFF

// compressTag is the two top bits that mark a compression pointer.
const compressTag = 0xC0

// Name is a canonical, case-insensitive, length-prefixed domain name.
// Raw holds the wire-format label sequence (length-octet, label bytes,
// ..., terminating zero octet), always lower-cased on construction.
// Offsets[i] is the byte offset of label i within Raw, left to right,
// precomputed so label count is O(1) and label access and chopping need
// no re-scan of Raw. This mirrors the teacher's olabels field in Zone, which
// exists for exactly the same reason (compareLabelsSlice avoids
// re-splitting the zone origin on every lookup).
type Name struct {
	Raw     []byte
	Offsets []int
}

// Root is the zero-label root name ".".
var Root = Name{Raw: []byte{0}, Offsets: []int{0}}

// NameFromString builds a Name from DNS presentation format (e.g.
// "www.example.com." or "www.example.com"). A backslash only protects
// the following byte (including a literal dot) from being treated as a
// label separator; it does not decode \DDD numeric escapes.
func NameFromString(s string) (Name, error) {
	if s == "" || s == "." {
		return Root, nil
	}
	s = strings.TrimSuffix(s, ".")
	labels := splitPresentation(s)
	raw := make([]byte, 0, len(s)+1)
	offsets := make([]int, 0, len(labels)+1)
	for _, l := range labels {
		if len(l) == 0 || len(l) > MaxLabelLen {
			return Name{}, errors.Wrap(ErrBadArg, "label length out of range")
		}
		offsets = append(offsets, len(raw))
		raw = append(raw, byte(len(l)))
		raw = append(raw, toLowerASCII(l)...)
	}
	offsets = append(offsets, len(raw))
	raw = append(raw, 0)
	if len(raw) > MaxNameWire {
		return Name{}, errors.Wrap(ErrBadArg, "name exceeds 255 octets")
	}
	return Name{Raw: raw, Offsets: offsets}, nil
}

// splitPresentation splits presentation-format text on unescaped dots.
func splitPresentation(s string) []string {
	var labels []string
	var cur []byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			cur = append(cur, c, s[i+1])
			i++
			continue
		}
		if c == '.' {
			labels = append(labels, string(cur))
			cur = nil
			continue
		}
		cur = append(cur, c)
	}
	labels = append(labels, string(cur))
	return labels
}

func toLowerASCII(s string) []byte {
	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		b[i] = c
	}
	return b
}

// ParseWire parses a Name starting at pos within buf, following DNS
// compression pointers (RFC 1035 §4.1.4). end is the exclusive bound of
// the message (normally len(buf)); a pointer must point strictly before
// its own position, never into the 12-byte header, and never form a
// cycle.
// It returns the parsed Name and the number of bytes consumed directly
// from buf at pos (i.e. not counting bytes read through a followed
// pointer), so callers can advance their own cursor past the in-line
// encoding (which is either the literal labels, or a single 2-byte
// pointer).
func ParseWire(buf []byte, pos, end int) (Name, int, error) {
	if pos < 0 || end > len(buf) || pos >= end {
		return Name{}, 0, errors.Wrap(ErrMalformed, "name parse out of bounds")
	}
	raw := make([]byte, 0, MaxNameWire)
	offsets := make([]int, 0, 16)
	consumed := -1 // bytes consumed at the original pos; set once we take the first pointer or hit the root
	cur := pos
	visited := make(map[int]bool)
	for {
		if cur < 0 || cur >= end {
			return Name{}, 0, errors.Wrap(ErrMalformed, "name label out of bounds")
		}
		lead := buf[cur]
		switch {
		case lead == 0:
			if consumed < 0 {
				consumed = cur + 1 - pos
			}
			offsets = append(offsets, len(raw))
			raw = append(raw, 0)
			if len(raw) > MaxNameWire {
				return Name{}, 0, errors.Wrap(ErrMalformed, "decompressed name exceeds 255 octets")
			}
			return Name{Raw: raw, Offsets: offsets}, consumed, nil
		case lead&compressTag == compressTag:
			if cur+1 >= end {
				return Name{}, 0, errors.Wrap(ErrMalformed, "truncated compression pointer")
			}
			ptr := (int(lead&^compressTag) << 8) | int(buf[cur+1])
			if consumed < 0 {
				consumed = cur + 2 - pos
			}
			if ptr < 12 {
				return Name{}, 0, errors.Wrap(ErrMalformed, "compression pointer into header")
			}
			if ptr >= cur {
				return Name{}, 0, errors.Wrap(ErrMalformed, "compression pointer does not point backward")
			}
			if visited[ptr] {
				return Name{}, 0, errors.Wrap(ErrMalformed, "compression pointer cycle")
			}
			visited[ptr] = true
			cur = ptr
			continue
		case lead&compressTag != 0:
			return Name{}, 0, errors.Wrap(ErrMalformed, "reserved label length bits")
		default:
			llen := int(lead)
			if llen > MaxLabelLen {
				return Name{}, 0, errors.Wrap(ErrMalformed, "label too long")
			}
			if cur+1+llen > end {
				return Name{}, 0, errors.Wrap(ErrMalformed, "label runs past message end")
			}
			offsets = append(offsets, len(raw))
			raw = append(raw, byte(llen))
			raw = append(raw, toLowerASCII(string(buf[cur+1:cur+1+llen]))...)
			if len(raw) > MaxNameWire {
				return Name{}, 0, errors.Wrap(ErrMalformed, "decompressed name exceeds 255 octets")
			}
			cur = cur + 1 + llen
		}
	}
}

// ToWire writes the name's labels, uncompressed, to dst starting at
// offset 0 and returns the number of bytes written.
func ToWire(name Name, dst []byte) (int, error) {
	if len(dst) < len(name.Raw) {
		return 0, ErrNoSpace
	}
	return copy(dst, name.Raw), nil
}

// Labels returns the number of labels in name, excluding the root.
func (n Name) Labels() int {
	if len(n.Offsets) == 0 {
		return 0
	}
	// The last offset entry is the root label's offset (len 0 byte);
	// everything before it is a real label.
	return len(n.Offsets) - 1
}

// label returns the i-th label (0 = leftmost) as raw bytes, length
// octet included.
func (n Name) label(i int) []byte {
	start := n.Offsets[i]
	llen := int(n.Raw[start])
	return n.Raw[start : start+1+llen]
}

// ToLower returns a copy of name with ASCII upper-case letters in its
// labels folded to lower case. Names built by NameFromString or
// ParseWire are already lower-cased; this matters for callers
// constructing a Name by hand.
func (n Name) ToLower() Name {
	raw := append([]byte(nil), n.Raw...)
	for i := 0; i < n.Labels(); i++ {
		start := n.Offsets[i]
		for j := start + 1; j <= start+int(raw[start]); j++ {
			if raw[j] >= 'A' && raw[j] <= 'Z' {
				raw[j] += 'a' - 'A'
			}
		}
	}
	return Name{Raw: raw, Offsets: n.Offsets}
}

// CanonicalCompare implements DNS canonical ordering (RFC 4034 §6.1):
// compare labels right-to-left (from the TLD toward the leftmost
// label), each by unsigned byte, with the shorter name ordered first
// when one is a suffix of the other.
func CanonicalCompare(a, b Name) int {
	la, lb := a.Labels(), b.Labels()
	ia, ib := la-1, lb-1
	for ia >= 0 && ib >= 0 {
		la := a.label(ia)
		lb := b.label(ib)
		if c := compareLabelBytes(la[1:], lb[1:]); c != 0 {
			return c
		}
		ia--
		ib--
	}
	switch {
	case la < lb:
		return -1
	case la > lb:
		return 1
	default:
		return 0
	}
}

func compareLabelBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		ca, cb := a[i], b[i]
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// IsSubdomain reports whether sup's label sequence is a proper or
// improper suffix of sub's, i.e. sub equals sup or is contained within
// sup's zone.
func IsSubdomain(sub, sup Name) bool {
	return MatchedLabels(sub, sup) == sup.Labels()
}

// MatchedLabels returns the number of labels that match right-aligned
// between a and b (a common canonical-order suffix length).
func MatchedLabels(a, b Name) int {
	ia, ib := a.Labels()-1, b.Labels()-1
	n := 0
	for ia >= 0 && ib >= 0 {
		la := a.label(ia)
		lb := b.label(ib)
		if len(la) != len(lb) || compareLabelBytes(la[1:], lb[1:]) != 0 {
			break
		}
		n++
		ia--
		ib--
	}
	return n
}

// ChopLeft returns name with its leftmost label removed. The result
// shares name's Raw bytes (no label data is copied); name itself is not
// modified.
func ChopLeft(name Name) Name {
	if name.Labels() == 0 {
		return name
	}
	firstLabelEnd := name.Offsets[1]
	raw := name.Raw[firstLabelEnd:]
	offsets := make([]int, len(name.Offsets)-1)
	for i := 1; i < len(name.Offsets); i++ {
		offsets[i-1] = name.Offsets[i] - firstLabelEnd
	}
	return Name{Raw: raw, Offsets: offsets}
}

// Concat returns a.b, failing if the combined wire length would exceed
// MaxNameWire.
func Concat(a, b Name) (Name, error) {
	if a.Labels() == 0 {
		return b, nil
	}
	aBody := a.Raw[:len(a.Raw)-1] // strip a's root terminator
	total := len(aBody) + len(b.Raw)
	if total > MaxNameWire {
		return Name{}, errors.Wrap(ErrBadArg, "concatenated name exceeds 255 octets")
	}
	raw := make([]byte, 0, total)
	raw = append(raw, aBody...)
	raw = append(raw, b.Raw...)
	offsets := make([]int, 0, a.Labels()+b.Labels()+1)
	offsets = append(offsets, a.Offsets[:a.Labels()]...)
	base := len(aBody)
	for _, o := range b.Offsets {
		offsets = append(offsets, o+base)
	}
	return Name{Raw: raw, Offsets: offsets}, nil
}

// String renders name in DNS presentation format.
func (n Name) String() string {
	if n.Labels() == 0 {
		return "."
	}
	var sb strings.Builder
	for i := 0; i < n.Labels(); i++ {
		l := n.label(i)
		sb.Write(l[1:])
		sb.WriteByte('.')
	}
	return sb.String()
}

// Equal reports whether two names are canonically identical.
func (n Name) Equal(o Name) bool {
	return CanonicalCompare(n, o) == 0
}
