package dns

import "hash/fnv"

// cuckooIndex is the optional exact-match accelerator of spec §4.D.
// It is a classic two-table cuckoo hash: each key lives in exactly one
// of two slots (one per table), selected by two independent hash
// functions; insertion places a key in its table-A slot, moving any
// occupant to that occupant's table-B slot and so on back and forth, up
// to a bounded number of kicks; when the bound is hit the tables are
// doubled, everything is rehashed, and the entry still in hand is
// inserted again.
//
// No cuckoo-hash or general hash-table library appears anywhere in the
// example pack (see DESIGN.md); the two independent hash functions are
// built on hash/fnv, the hash package the pack's own DNS code
// (johanix-tdns/tdns/dnslookup.go, the straticus1-dnsscienced packet
// parser) reaches for when it needs a non-cryptographic name hash.
type cuckooIndex struct {
	tableA, tableB []cuckooSlot
	mask           uint64
	count          int
}

type cuckooSlot struct {
	used  bool
	key   string
	node  *Node
}

const cuckooMaxKicks = 32

func newCuckooIndex(expected int) *cuckooIndex {
	size := uint64(16)
	for size < uint64(expected)*2 {
		size <<= 1
	}
	return &cuckooIndex{
		tableA: make([]cuckooSlot, size),
		tableB: make([]cuckooSlot, size),
		mask:   size - 1,
	}
}

func hashA(key string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return h.Sum64()
}

func hashB(key string) uint64 {
	h := fnv.New64a()
	// A distinct seed (written before the key) decorrelates this
	// function from hashA's without needing a second algorithm.
	_, _ = h.Write([]byte{0x5a, 0x17, 0xc3, 0x9e})
	_, _ = h.Write([]byte(key))
	return h.Sum64()
}

func (c *cuckooIndex) put(name Name, node *Node) {
	key := radixKey(name)
	if c.tryInsert(key, node) {
		return
	}
	c.grow()
	c.tryInsert(key, node)
}

func (c *cuckooIndex) tryInsert(key string, node *Node) bool {
	slot := cuckooSlot{used: true, key: key, node: node}
	for i := 0; i < cuckooMaxKicks; i++ {
		ia := hashA(slot.key) & c.mask
		if !c.tableA[ia].used {
			c.tableA[ia] = slot
			c.count++
			return true
		}
		if c.tableA[ia].key == slot.key {
			c.tableA[ia] = slot
			return true
		}
		slot, c.tableA[ia] = c.tableA[ia], slot

		ib := hashB(slot.key) & c.mask
		if !c.tableB[ib].used {
			c.tableB[ib] = slot
			c.count++
			return true
		}
		if c.tableB[ib].key == slot.key {
			c.tableB[ib] = slot
			return true
		}
		slot, c.tableB[ib] = c.tableB[ib], slot
	}
	// slot now holds an entry evicted from the tables; grow and place it
	// again rather than dropping it.
	c.grow()
	return c.tryInsert(slot.key, slot.node)
}

func (c *cuckooIndex) grow() {
	oldA, oldB := c.tableA, c.tableB
	size := (c.mask + 1) * 2
	c.tableA = make([]cuckooSlot, size)
	c.tableB = make([]cuckooSlot, size)
	c.mask = size - 1
	c.count = 0
	for _, s := range oldA {
		if s.used {
			c.tryInsert(s.key, s.node)
		}
	}
	for _, s := range oldB {
		if s.used {
			c.tryInsert(s.key, s.node)
		}
	}
}

// get performs an exact-match lookup only, per spec §4.D.
func (c *cuckooIndex) get(name Name) (*Node, bool) {
	key := radixKey(name)
	ia := hashA(key) & c.mask
	if c.tableA[ia].used && c.tableA[ia].key == key {
		return c.tableA[ia].node, true
	}
	ib := hashB(key) & c.mask
	if c.tableB[ib].used && c.tableB[ib].key == key {
		return c.tableB[ib].node, true
	}
	return nil, false
}

// ApproxClosestEncloser approximates the main tree's closest-encloser
// search by repeatedly chopping the leftmost label off name and
// retrying an exact lookup until it hits. The zone apex is always
// present in the index (invariant: "every node in the main tree is
// also in the index when the index is enabled"), so the loop is
// guaranteed to terminate at or before reaching it.
func (z *Zone) ApproxClosestEncloser(name Name) (node *Node, exact bool) {
	if z.index == nil {
		return nil, false
	}
	cursor := name
	for {
		if n, ok := z.index.get(cursor); ok {
			return n, cursor.Equal(name)
		}
		if cursor.Equal(z.Apex.Owner) {
			// invariant violated: apex must always be indexed.
			return nil, false
		}
		cursor = ChopLeft(cursor)
	}
}
