package dns

import "strings"

// radixKey renders a Name as the reversed-label string the teacher's
// toRadixName produced for Zone's radix.Radix ("this idea was stolen
// from NSD" — reversing the label order turns the zone's radix trie
// traversal order into DNS canonical order for free, since the apex
// labels become the common prefix every owner in the zone shares).
// Used only as the radix.Radix key for exact-match lookup; the
// canonical comparator and ordered-traversal logic never consult this
// string, so its exact collation is not load-bearing for correctness,
// only for how well it buckets under the tree.
func radixKey(n Name) string {
	if n.Labels() == 0 {
		return "."
	}
	labels := make([]string, n.Labels())
	for i := 0; i < n.Labels(); i++ {
		l := n.label(i)
		labels[n.Labels()-1-i] = string(l[1:])
	}
	return "." + strings.Join(labels, ".")
}
