package dns

// compressor implements the sliding-suffix name-compression heuristic
// of spec §4.G. It tracks a single candidate suffix {pos, labels} in
// the wire buffer, initialized to the question name, and updated after
// each name write that compressed part of the name (a name written as
// nothing but a pointer leaves it unchanged) — exploiting the
// locality of names within a single DNS response (owner names tend to
// repeat or share a suffix with the question or with each other),
// exactly as knot's libknot/packet/pkt.c's knot_pkt_compr_t does.
type compressor struct {
	wire         []byte
	suffixPos    int
	suffixLabels int
}

func newCompressor(wire []byte, qname Name) *compressor {
	return &compressor{wire: wire, suffixPos: headerSize, suffixLabels: qname.Labels()}
}

// writeName writes name to dst at offset, compressing against the
// compressor's current suffix candidate when allowed, and returns the
// number of bytes written. When compress is false the name is always
// written in full (e.g. RRSIG owner names and SRV/NAPTR/NSEC target
// names).
func (c *compressor) writeName(dst []byte, offset int, name Name, compress bool) (int, error) {
	if !compress {
		n, err := ToWire(name, dst[offset:])
		if err != nil {
			return 0, err
		}
		return n, nil
	}

	origLabels := name.Labels()
	nameLabels := origLabels
	suffixLabels := c.suffixLabels
	suffixPos := c.suffixPos

	// Suffix must not be longer than the name: drop its excess leading
	// labels (walking toward the root) until the counts can line up.
	for suffixLabels > nameLabels {
		suffixPos = nextLabelOffset(c.wire, suffixPos)
		suffixLabels--
	}

	// Name longer than suffix: its excess leading labels cannot be part
	// of any match, so flush them verbatim before comparing anything.
	written := 0
	nameCursor := 0
	for nameLabels > suffixLabels {
		l := name.label(nameCursor)
		if offset+written+len(l) > len(dst) {
			return 0, ErrNoSpace
		}
		written += copy(dst[offset+written:], l)
		nameCursor++
		nameLabels--
	}

	// Label counts are now equal. Walk both sides in lockstep toward
	// the root, deferring matched labels as a pending run; a mismatch
	// flushes everything pending (up to and including the mismatched
	// label itself) and starts a fresh run from the next label. This
	// is knot_pkt_put_dname's match_begin/compr_ptr walk: compr_ptr
	// only advances on mismatch, never while a run keeps matching, so
	// a full match leaves it anchored at the run's first label.
	matchBegin := nameCursor
	comprPtr := suffixPos
	curName := nameCursor
	curSuffixPos := suffixPos
	for curName < origLabels {
		nextName := curName + 1
		nextSuffixPos := nextLabelOffset(c.wire, curSuffixPos)

		if !labelBytesEqual(name.label(curName), labelAt(c.wire, curSuffixPos)) {
			for i := matchBegin; i <= curName; i++ {
				l := name.label(i)
				if offset+written+len(l) > len(dst) {
					return 0, ErrNoSpace
				}
				written += copy(dst[offset+written:], l)
			}
			matchBegin = nextName
			comprPtr = nextSuffixPos
		}

		curName = nextName
		curSuffixPos = nextSuffixPos
	}

	compressed := false
	switch {
	case matchBegin == curName:
		// Nothing left pending: the run that reached the root was
		// already flushed (or never existed), so just terminate.
		if offset+written+1 > len(dst) {
			return 0, ErrNoSpace
		}
		dst[offset+written] = 0
		written++
	case comprPtr > maxPointer:
		// Matched tail exists but is out of pointer range; write the
		// remaining labels (including root) verbatim instead.
		for i := matchBegin; i < origLabels; i++ {
			l := name.label(i)
			if offset+written+len(l) > len(dst) {
				return 0, ErrNoSpace
			}
			written += copy(dst[offset+written:], l)
		}
		if offset+written+1 > len(dst) {
			return 0, ErrNoSpace
		}
		dst[offset+written] = 0
		written++
	default:
		dst[offset+written] = compressTag | byte(comprPtr>>8)
		dst[offset+written+1] = byte(comprPtr)
		written += 2
		compressed = true
	}

	// Only cache this name as the next suffix candidate if it actually
	// benefited from compression; a bare 2-byte pointer carries no new
	// suffix information worth remembering.
	if compressed && written > 2 {
		c.updateSuffix(offset, origLabels)
	}
	return written, nil
}

// updateSuffix points the suffix candidate at the name just written,
// provided its offset is still within addressable pointer range (spec
// §4.G step 4).
func (c *compressor) updateSuffix(offset, labels int) {
	if offset <= maxPointer {
		c.suffixPos = offset
		c.suffixLabels = labels
	}
}

func nextLabelOffset(wire []byte, pos int) int {
	llen := int(wire[pos])
	if llen&compressTag == compressTag {
		ptr := (int(wire[pos]&^compressTag) << 8) | int(wire[pos+1])
		return nextLabelOffset(wire, ptr)
	}
	if llen == 0 {
		return pos
	}
	return pos + 1 + llen
}

func labelAt(wire []byte, pos int) []byte {
	llen := int(wire[pos])
	if llen&compressTag == compressTag {
		ptr := (int(wire[pos]&^compressTag) << 8) | int(wire[pos+1])
		return labelAt(wire, ptr)
	}
	return wire[pos : pos+1+llen]
}

func labelBytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 1; i < len(a); i++ { // skip the length octet itself in case-folding compare
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
