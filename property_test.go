package dns

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Table-driven round-trip and idempotence checks (spec §8), using
// testify for the property-style assertions, the way the pack's
// server-side test suites do.
func TestNameWireRoundTripTable(t *testing.T) {
	cases := []string{
		".", "com.", "a.com.", "example.com.", "a.b.c.example.org.",
	}
	for _, c := range cases {
		n := mustName(t, c)
		buf := make([]byte, MaxNameWire)
		written, err := ToWire(n, buf)
		require.NoError(t, err, c)

		full := append(make([]byte, headerSize), buf[:written]...)
		got, consumed, err := ParseWire(full, headerSize, len(full))
		require.NoError(t, err, c)
		require.Equal(t, written, consumed, c)
		require.True(t, got.Equal(n), "round trip mismatch for %s: got %s", c, got.String())
	}
}

func TestZoneAdjustIdempotentTable(t *testing.T) {
	z := buildTestZone(t)
	var before []NodeFlags
	z.ApplyInOrder(func(n *Node) { before = append(before, n.Flags) })

	require.NoError(t, z.Adjust())

	var after []NodeFlags
	z.ApplyInOrder(func(n *Node) { after = append(after, n.Flags) })

	require.Equal(t, before, after, "Adjust must be idempotent across repeated runs")
}

func TestPacketRoundTripTable(t *testing.T) {
	owners := []string{"www.example.com.", "example.com.", "deep.sub.example.com."}
	for _, owner := range owners {
		qname := mustName(t, owner)
		p := NewPacket(nil, 1500, HeapContext)
		require.NoError(t, p.PutQuestion(qname, ClassINET, TypeA))
		p.Begin(SectionAnswer)
		require.NoError(t, p.Put(aRRSet(t, owner, [4]byte{10, 0, 0, 1}), 0))

		wire := append([]byte(nil), p.wire[:p.size]...)
		p2 := NewPacketFromWire(wire, HeapContext)
		require.NoError(t, p2.Parse(0))

		q, ok := p2.Question()
		require.True(t, ok)
		require.True(t, q.QName.Equal(qname))

		answers := p2.Section(SectionAnswer)
		require.Len(t, answers, 1)
		require.True(t, answers[0].Owner.Equal(qname))
	}
}
