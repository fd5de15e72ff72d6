package dns

import (
	"container/list"
	"crypto/sha1"
	"encoding/base32"

	"github.com/pkg/errors"
)

// nsec3Params holds the zone's NSEC3PARAM state (spec §3, §6: RFC 5155
// algorithm/flags/iterations/salt).
type nsec3Params struct {
	loaded     bool
	Algorithm  uint8
	Flags      uint8
	Iterations uint16
	Salt       []byte
}

// base32hexNoPad is RFC 5155 §3.3's encoding: base32 with the extended
// hex alphabet, no padding. It emits upper case; NSEC3Name lower-cases
// the label when it builds the hashed Name.
var base32hexNoPad = base32.HexEncoding.WithPadding(base32.NoPadding)

// loadNSEC3Params reads the apex's NSEC3PARAM RRSet on demand. Absent
// NSEC3PARAM zeroes the parameters and leaves nsec3Enabled false,
// matching spec §4.E's "on demand" / "silent" failure model (spec §7:
// Adjust tolerates missing NSEC3 parameters silently).
func (z *Zone) loadNSEC3Params() {
	rrset := z.Apex.Get(TypeNSEC3PARAM)
	if rrset == nil || len(rrset.RData) == 0 {
		z.params = nsec3Params{}
		return
	}
	items := rrset.RData[0].Items
	if len(items) != 4 {
		log.Warn().Msg("NSEC3PARAM RDATA has unexpected field count, disabling NSEC3")
		z.params = nsec3Params{}
		return
	}
	z.params = nsec3Params{
		loaded:     true,
		Algorithm:  uint8(items[0].U),
		Flags:      uint8(items[1].U),
		Iterations: uint16(items[2].U),
		Salt:       append([]byte(nil), items[3].Blob...),
	}
}

// NSEC3Enabled reports whether the zone has usable NSEC3 parameters.
func (z *Zone) NSEC3Enabled() bool {
	if !z.params.loaded {
		z.loadNSEC3Params()
	}
	return z.params.loaded && z.params.Algorithm == 1
}

// NSEC3Name hashes name under the zone's NSEC3PARAM and returns the
// hashed owner name (the base32hex-encoded digest prepended to the
// zone apex), per RFC 5155 §5.
func (z *Zone) NSEC3Name(name Name) (Name, error) {
	if !z.NSEC3Enabled() {
		return Name{}, ErrNoNsec3Params
	}
	if z.nsec3HashCache != nil {
		if cached, ok := z.nsec3HashCache.get(z.params, name); ok {
			return cached, nil
		}
	}
	label, err := hashNSEC3(name, z.params)
	if err != nil {
		return Name{}, errors.Wrap(ErrCrypto, err.Error())
	}
	labelName, err := NameFromString(label)
	if err != nil {
		return Name{}, errors.Wrap(ErrCrypto, err.Error())
	}
	full, err := Concat(labelName, z.Apex.Owner)
	if err != nil {
		return Name{}, errors.Wrap(ErrCrypto, err.Error())
	}
	if z.nsec3HashCache != nil {
		z.nsec3HashCache.put(z.params, name, full)
	}
	return full, nil
}

// hashNSEC3 computes the iterated SHA-1 digest of RFC 5155 §5 over the
// wire form of name, returning the base32hex-encoded label.
func hashNSEC3(name Name, p nsec3Params) (string, error) {
	digest := append([]byte(nil), name.Raw...)
	for i := 0; i <= int(p.Iterations); i++ {
		h := sha1.New()
		h.Write(digest)
		h.Write(p.Salt)
		digest = h.Sum(nil)
	}
	return base32hexNoPad.EncodeToString(digest), nil
}

// InsertNSEC3 adds node to the zone's NSEC3 tree, keyed by its (hashed)
// owner name.
func (z *Zone) InsertNSEC3(node *Node) error {
	return z.nsec3.insert(radixKey(node.Owner), node)
}

// NSEC3Result is the outcome of FindNSEC3ForName (spec §4.E).
type NSEC3Result struct {
	Exact         bool
	NSEC3Node     *Node
	NSEC3Previous *Node
}

// FindNSEC3ForName hashes name and performs a less_or_equal search in
// the NSEC3 tree, wrapping to the last node when there is no exact hit
// and no predecessor (the chain is circular, spec §4.E).
func (z *Zone) FindNSEC3ForName(name Name) (NSEC3Result, error) {
	hashed, err := z.NSEC3Name(name)
	if err != nil {
		return NSEC3Result{}, err
	}
	found, exact := z.nsec3.floor(hashed)
	if found == nil {
		last := z.nsec3.last()
		if last == nil {
			return NSEC3Result{}, ErrNoNsec3Params
		}
		return NSEC3Result{Exact: false, NSEC3Previous: last}, nil
	}
	if exact {
		return NSEC3Result{Exact: true, NSEC3Node: found}, nil
	}
	return NSEC3Result{Exact: false, NSEC3Previous: found}, nil
}

// hashCache is a small bounded LRU mapping (params fingerprint, name)
// to its computed NSEC3 hash name, avoiding repeated SHA-1 iteration
// work for names that repeat within a query-serving burst (SPEC_FULL
// §2's supplement to spec §4.E, grounded in original_source's Adjust
// pass hashing every owner at least once).
type hashCache struct {
	capacity int
	entries  map[string]*list.Element
	order    *list.List
}

type hashCacheEntry struct {
	key   string
	value Name
}

func newHashCache(capacity int) *hashCache {
	return &hashCache{capacity: capacity, entries: make(map[string]*list.Element), order: list.New()}
}

func hashCacheKey(p nsec3Params, name Name) string {
	return string(rune(p.Algorithm)) + string(rune(p.Iterations)) + string(p.Salt) + radixKey(name)
}

func (c *hashCache) get(p nsec3Params, name Name) (Name, bool) {
	key := hashCacheKey(p, name)
	if el, ok := c.entries[key]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*hashCacheEntry).value, true
	}
	return Name{}, false
}

func (c *hashCache) put(p nsec3Params, name, value Name) {
	key := hashCacheKey(p, name)
	if el, ok := c.entries[key]; ok {
		el.Value.(*hashCacheEntry).value = value
		c.order.MoveToFront(el)
		return
	}
	el := c.order.PushFront(&hashCacheEntry{key: key, value: value})
	c.entries[key] = el
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*hashCacheEntry).key)
		}
	}
}
